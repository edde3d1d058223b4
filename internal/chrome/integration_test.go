package chrome_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomyan/searchflow/internal/chrome"
	"github.com/tomyan/searchflow/internal/testutil"
)

// Test Chrome instance - each package gets its own
const testChromePort = 9310

var chromeInstance *testutil.ChromeInstance

func TestMain(m *testing.M) {
	chromeInstance = testutil.StartChromeForMain(testChromePort)

	code := m.Run()

	chromeInstance.Stop()
	os.Exit(code)
}

const formPage = `<!DOCTYPE html>
<html><head><title>Form Page</title></head>
<body>
<input id="q" type="text" value="old">
<button id="go" onclick="document.title = 'clicked:' + document.getElementById('q').value">Go</button>
<button id="off" disabled>Off</button>
<div id="gone" style="display:none">hidden</div>
<a href="#two">2</a>
<div style="height:3000px"></div>
<script>setTimeout(function(){ var d = document.createElement('p'); d.id = 'late'; document.body.appendChild(d); }, 300);</script>
</body></html>`

func serve(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/"
}

func TestPage_NavigateAndTitle(t *testing.T) {
	page := chromeInstance.NewPage(t)
	ctx := context.Background()
	url := serve(t, formPage)

	require.NoError(t, page.Navigate(ctx, url))

	title, err := page.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Form Page", title)

	got, err := page.URL(ctx)
	require.NoError(t, err)
	assert.Equal(t, url, got)

	src, err := page.PageSource(ctx)
	require.NoError(t, err)
	assert.Contains(t, src, `id="go"`)
}

func TestPage_TypeAndClick(t *testing.T) {
	page := chromeInstance.NewPage(t)
	ctx := context.Background()
	require.NoError(t, page.Navigate(ctx, serve(t, formPage)))

	input := chrome.ID("q")
	require.NoError(t, page.WaitClickable(ctx, input, 5*time.Second))
	require.NoError(t, page.Clear(ctx, input))
	require.NoError(t, page.SendKeys(ctx, input, "Jungle"))
	require.NoError(t, page.Click(ctx, chrome.ID("go")))

	require.NoError(t, page.WaitTitleContains(ctx, "clicked:Jungle", 5*time.Second))
}

func TestPage_Waits(t *testing.T) {
	page := chromeInstance.NewPage(t)
	ctx := context.Background()
	require.NoError(t, page.Navigate(ctx, serve(t, formPage)))

	require.NoError(t, page.WaitReadyState(ctx, "complete", 5*time.Second))
	require.NoError(t, page.WaitPresent(ctx, chrome.ID("late"), 5*time.Second))
	require.NoError(t, page.WaitClickable(ctx, chrome.LinkText("2"), 2*time.Second))

	err := page.WaitClickable(ctx, chrome.ID("off"), 300*time.Millisecond)
	assert.True(t, errors.Is(err, chrome.ErrTimeout), "disabled button: %v", err)

	err = page.WaitClickable(ctx, chrome.ID("gone"), 300*time.Millisecond)
	assert.True(t, errors.Is(err, chrome.ErrTimeout), "hidden div: %v", err)

	err = page.WaitClickable(ctx, chrome.XPath("//button[text()='Show More Images']"), 300*time.Millisecond)
	assert.True(t, errors.Is(err, chrome.ErrTimeout), "missing xpath: %v", err)

	err = page.Find(ctx, chrome.CSS("div.algo h3"))
	assert.True(t, errors.Is(err, chrome.ErrNoSuchElement), "missing css: %v", err)
}

func TestPage_LinkNavigationAndScroll(t *testing.T) {
	page := chromeInstance.NewPage(t)
	ctx := context.Background()
	url := serve(t, formPage)
	require.NoError(t, page.Navigate(ctx, url))

	require.NoError(t, page.ScrollTo(ctx, 0, 1500))
	y, err := page.Eval(ctx, "window.scrollY")
	require.NoError(t, err)
	assert.Greater(t, y.Value.(float64), 0.0)

	require.NoError(t, page.Click(ctx, chrome.LinkText("2")))
	require.NoError(t, page.WaitURLChange(ctx, url, 5*time.Second))
	got, err := page.URL(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "#two"), got)
}

func TestPage_Screenshot(t *testing.T) {
	page := chromeInstance.NewPage(t)
	ctx := context.Background()
	require.NoError(t, page.Navigate(ctx, serve(t, formPage)))

	png, err := page.Screenshot(ctx)
	require.NoError(t, err)
	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestClient_VersionAndPages(t *testing.T) {
	page := chromeInstance.NewPage(t)
	ctx := context.Background()

	v, err := page.Client().Version(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, v.Browser)

	pages, err := page.Client().Pages(ctx)
	require.NoError(t, err)
	found := false
	for _, p := range pages {
		if p.ID == page.TargetID() {
			found = true
		}
	}
	assert.True(t, found, "opened tab should be listed")
}
