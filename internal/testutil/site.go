package testutil

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
)

// SiteOptions shapes the fixture search site.
type SiteOptions struct {
	Brand          string // appears in the home page title
	ResultPages    int    // number of pages the pager offers per query
	ShowMoreImages bool   // render the "Show More Images" button
}

// Site is a local search site with the element ids, link texts and pager
// markup of the real one, served over httptest.
type Site struct {
	*httptest.Server
	opts SiteOptions

	mu   sync.Mutex
	hits []string
}

// NewSite starts a fixture site. Close it when done.
func NewSite(opts SiteOptions) *Site {
	if opts.Brand == "" {
		opts.Brand = "Fixture"
	}
	if opts.ResultPages == 0 {
		opts.ResultPages = 5
	}

	s := &Site{opts: opts}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.home)
	mux.HandleFunc("/search", s.search)
	mux.HandleFunc("/images", s.images)
	s.Server = httptest.NewServer(mux)
	return s
}

// Hits returns the request URIs served so far, in order.
func (s *Site) Hits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.hits...)
}

func (s *Site) record(r *http.Request) {
	s.mu.Lock()
	s.hits = append(s.hits, r.URL.RequestURI())
	s.mu.Unlock()
}

type pagerLink struct {
	N       int
	Href    string
	Current bool
}

type pageData struct {
	Brand      string
	Query      string
	Page       int
	Results    []string
	Pager      []pagerLink
	AllHref    string
	ImagesHref string
	ShowMore   bool
}

func (s *Site) home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.record(r)
	render(w, homeTmpl, pageData{Brand: s.opts.Brand})
}

func (s *Site) search(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	q := r.URL.Query().Get("q")
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	data := s.common(q)
	data.Page = page
	for i := 1; i <= 5; i++ {
		data.Results = append(data.Results, q+" result "+strconv.Itoa((page-1)*5+i))
	}
	for n := 1; n <= s.opts.ResultPages; n++ {
		data.Pager = append(data.Pager, pagerLink{
			N:       n,
			Href:    "/search?" + url.Values{"q": {q}, "page": {strconv.Itoa(n)}}.Encode(),
			Current: n == page,
		})
	}
	render(w, searchTmpl, data)
}

func (s *Site) images(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	data := s.common(r.URL.Query().Get("q"))
	data.ShowMore = s.opts.ShowMoreImages
	render(w, imagesTmpl, data)
}

func (s *Site) common(q string) pageData {
	return pageData{
		Brand:      s.opts.Brand,
		Query:      q,
		AllHref:    "/search?" + url.Values{"q": {q}}.Encode(),
		ImagesHref: "/images?" + url.Values{"q": {q}}.Encode(),
	}
}

func render(w http.ResponseWriter, t *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

const layout = `{{define "head"}}<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{block "title" .}}{{end}}</title>
<style>body{margin:0;font-family:sans-serif}.spacer{height:2400px}</style>
</head><body>
<a id="logo" href="/">{{.Brand}}</a>
{{end}}
{{define "tabs"}}<nav><a href="{{.AllHref}}">All</a> <a href="{{.ImagesHref}}">Images</a></nav>{{end}}
{{define "foot"}}</body></html>{{end}}`

var homeTmpl = template.Must(template.Must(template.New("layout").Parse(layout)).New("home").Parse(
	`{{define "title"}}{{.Brand}} Home{{end}}{{template "head" .}}
<form action="/search" method="get">
<input id="header-form-search-input" name="q" type="text">
<button id="header-form-search-button" type="submit">Search</button>
</form>
<div class="spacer"></div>
{{template "foot" .}}`))

var searchTmpl = template.Must(template.Must(template.New("layout").Parse(layout)).New("search").Parse(
	`{{define "title"}}{{.Query}} - {{.Brand}} Search Results{{end}}{{template "head" .}}
<form action="/search" method="get">
<input id="yschsp" name="q" type="text" value="{{.Query}}">
<button id="sbq-submit" type="submit">Search</button>
</form>
{{template "tabs" .}}
<div id="results">
{{range .Results}}<div class="algo"><h3><a href="#">{{.}}</a></h3></div>
{{end}}</div>
<div class="spacer"></div>
<div class="compPagination">
{{range .Pager}}{{if .Current}}<strong>{{.N}}</strong>{{else}}<a href="{{.Href}}">{{.N}}</a>{{end}}
{{end}}</div>
<div class="spacer"></div>
{{template "foot" .}}`))

var imagesTmpl = template.Must(template.Must(template.New("layout").Parse(layout)).New("images").Parse(
	`{{define "title"}}{{.Query}} - {{.Brand}} Image Search Results{{end}}{{template "head" .}}
{{template "tabs" .}}
<div id="images" class="spacer"></div>
{{if .ShowMore}}<button type="button" onclick="document.getElementById('more').hidden = false">Show More Images</button>
<div id="more" hidden class="spacer"></div>{{end}}
{{template "foot" .}}`))
