package chrome

import "fmt"

// By selects the strategy a Locator uses to find an element.
type By string

const (
	ByID       By = "id"
	ByCSS      By = "css"
	ByTagName  By = "tag name"
	ByLinkText By = "link text"
	ByXPath    By = "xpath"
)

// Locator identifies a single element on the page. The first match wins.
type Locator struct {
	By    By
	Value string
}

// ID locates an element by its id attribute.
func ID(id string) Locator { return Locator{By: ByID, Value: id} }

// CSS locates an element by CSS selector.
func CSS(selector string) Locator { return Locator{By: ByCSS, Value: selector} }

// TagName locates the first element with the given tag.
func TagName(name string) Locator { return Locator{By: ByTagName, Value: name} }

// LinkText locates an anchor whose visible, trimmed text equals text exactly.
func LinkText(text string) Locator { return Locator{By: ByLinkText, Value: text} }

// XPath locates an element by XPath expression.
func XPath(expr string) Locator { return Locator{By: ByXPath, Value: expr} }

func (l Locator) String() string {
	return string(l.By) + "=" + l.Value
}

// expression returns a JavaScript expression that evaluates to the located
// element or null.
func (l Locator) expression() (string, error) {
	switch l.By {
	case ByID:
		return fmt.Sprintf(`document.getElementById(%q)`, l.Value), nil
	case ByCSS:
		return fmt.Sprintf(`document.querySelector(%q)`, l.Value), nil
	case ByTagName:
		return fmt.Sprintf(`(document.getElementsByTagName(%q)[0] || null)`, l.Value), nil
	case ByLinkText:
		return fmt.Sprintf(`(Array.from(document.querySelectorAll('a')).find(a => (a.innerText || a.textContent || '').trim() === %q) || null)`, l.Value), nil
	case ByXPath:
		return fmt.Sprintf(`document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`, l.Value), nil
	default:
		return "", fmt.Errorf("unsupported locator strategy: %q", l.By)
	}
}

// withElement wraps body in a function that binds the located element to
// `el`. When the element is missing the function returns missing.
func (l Locator) withElement(missing, body string) (string, error) {
	find, err := l.expression()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`(function() {
	const el = %s;
	if (!el) return %s;
	%s
})()`, find, missing, body), nil
}

// clickableBody reports whether el is rendered, visible and enabled.
const clickableBody = `const style = window.getComputedStyle(el);
	const rect = el.getBoundingClientRect();
	return style.display !== 'none' &&
	       style.visibility !== 'hidden' &&
	       rect.width > 0 && rect.height > 0 &&
	       !el.disabled;`
