// Package serp extracts what the walkthrough records about a search
// results page: the result headlines and the state of the pager.
package serp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors are the CSS selectors Parse uses. Empty selectors are skipped.
type Selectors struct {
	Headline     string
	PagerLink    string
	PagerCurrent string
}

// Page is the parsed view of one results page.
type Page struct {
	Title       string
	Headlines   []string
	PageNumbers []int // numbered pager links, ascending, unique
	Current     int   // page number of the current-page marker, 0 if none
}

// HasPage reports whether the pager links to page n.
func (p *Page) HasPage(n int) bool {
	i := sort.SearchInts(p.PageNumbers, n)
	return i < len(p.PageNumbers) && p.PageNumbers[i] == n
}

// Parse reads a results page document.
func Parse(html string, sel Selectors) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}

	page := &Page{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	if sel.Headline != "" {
		doc.Find(sel.Headline).Each(func(_ int, s *goquery.Selection) {
			if text := collapse(s.Text()); text != "" {
				page.Headlines = append(page.Headlines, text)
			}
		})
	}

	if sel.PagerLink != "" {
		seen := make(map[int]bool)
		doc.Find(sel.PagerLink).Each(func(_ int, s *goquery.Selection) {
			n, ok := pageNumber(s.Text())
			if ok && !seen[n] {
				seen[n] = true
				page.PageNumbers = append(page.PageNumbers, n)
			}
		})
		sort.Ints(page.PageNumbers)
	}

	if sel.PagerCurrent != "" {
		doc.Find(sel.PagerCurrent).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if n, ok := pageNumber(s.Text()); ok {
				page.Current = n
				return false
			}
			return true
		})
	}

	return page, nil
}

func pageNumber(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// collapse trims text and folds internal runs of whitespace to one space.
func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
