// Package config holds the settings for a searchflow run: the site and
// search terms to exercise, the element locators, wait budgets and how the
// browser is obtained.
//
// Settings are layered: built-in defaults, then a YAML file, then the
// environment (optionally seeded from a .env file). Command-line flags are
// applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Default values mirror the behaviour of the reference AOL walkthrough.
const (
	DefaultBaseURL = "https://www.aol.com/"
	DefaultBrand   = "AOL"
	DefaultPort    = 9222
	AppName        = "searchflow"
)

// Configuration validation errors.
var (
	ErrNoBaseURL        = errors.New("invalid base URL: must be an absolute http(s) URL")
	ErrNoQuery          = errors.New("no search query configured")
	ErrInvalidPageRange = errors.New("invalid page range: need 1 < from <= to")
	ErrInvalidTimeout   = errors.New("invalid timeout: must be positive")
	ErrInvalidPort      = errors.New("invalid port: must be between 0 and 65535")
)

// Search is one keyword search and the title fragment it must produce.
type Search struct {
	Query  string `yaml:"query"`
	Expect string `yaml:"expect"`
}

// PageRange is the inclusive range of result page numbers to visit.
type PageRange struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// Timeouts are the polling budgets for readiness conditions.
type Timeouts struct {
	Default  time.Duration `yaml:"default"`   // element presence/clickability, titles
	PageLink time.Duration `yaml:"page_link"` // numbered pagination link
	PageLoad time.Duration `yaml:"page_load"` // document.readyState after paging
	Run      time.Duration `yaml:"run"`       // whole run
}

// Scroll holds the vertical offsets the walkthrough scrolls to.
type Scroll struct {
	BeforePage int `yaml:"before_page"`
	AfterPage  int `yaml:"after_page"`
	Images     int `yaml:"images"`
	Results    int `yaml:"results"`
}

// Selectors locate the elements the walkthrough interacts with.
// IDs are element ids, tabs are link texts, the rest are CSS unless noted.
type Selectors struct {
	SearchInput         string `yaml:"search_input"`
	SearchButton        string `yaml:"search_button"`
	ResultsSearchInput  string `yaml:"results_search_input"`
	ResultsSearchButton string `yaml:"results_search_button"`
	Logo                string `yaml:"logo"`
	ImagesTab           string `yaml:"images_tab"`
	AllTab              string `yaml:"all_tab"`
	ShowMoreImages      string `yaml:"show_more_images"` // XPath
	Headline            string `yaml:"headline"`
	PagerLink           string `yaml:"pager_link"`
	PagerCurrent        string `yaml:"pager_current"`
}

// Browser controls how the Chrome session is obtained.
type Browser struct {
	Connect    bool   `yaml:"connect"` // attach to a running Chrome instead of launching
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	ChromePath string `yaml:"chrome_path"`
	Headless   bool   `yaml:"headless"`
	Detach     bool   `yaml:"detach"` // leave the browser open after the run
	DataDir    string `yaml:"data_dir"`
	WindowSize string `yaml:"window_size"`
	UserAgent  string `yaml:"user_agent"`
}

// Report names the optional report files.
type Report struct {
	HTML string `yaml:"html"`
	JSON string `yaml:"json"`
}

// Config is the full run configuration.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	Brand            string        `yaml:"brand"`
	FirstSearch      Search        `yaml:"first_search"`
	SecondSearch     Search        `yaml:"second_search"`
	Pages            PageRange     `yaml:"pages"`
	PageDelay        time.Duration `yaml:"page_delay"`
	StrictPagination bool          `yaml:"strict_pagination"`
	Timeouts         Timeouts      `yaml:"timeouts"`
	Scroll           Scroll        `yaml:"scroll"`
	Selectors        Selectors     `yaml:"selectors"`
	Browser          Browser       `yaml:"browser"`
	Report           Report        `yaml:"report"`
	Verbose          bool          `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Brand:   DefaultBrand,
		FirstSearch: Search{
			Query:  "Jungle",
			Expect: "Jungle",
		},
		SecondSearch: Search{
			Query:  "Why is your motivation raising up?",
			Expect: "motivation",
		},
		Pages:     PageRange{From: 2, To: 5},
		PageDelay: time.Second,
		Timeouts: Timeouts{
			Default:  10 * time.Second,
			PageLink: 8 * time.Second,
			PageLoad: 15 * time.Second,
			Run:      5 * time.Minute,
		},
		Scroll: Scroll{
			BeforePage: 1500,
			AfterPage:  1000,
			Images:     3000,
			Results:    2000,
		},
		Selectors: Selectors{
			SearchInput:         "header-form-search-input",
			SearchButton:        "header-form-search-button",
			ResultsSearchInput:  "yschsp",
			ResultsSearchButton: "sbq-submit",
			Logo:                "logo",
			ImagesTab:           "Images",
			AllTab:              "All",
			ShowMoreImages:      "//button[text()='Show More Images']",
			Headline:            "div.algo h3, div.compTitle h3",
			PagerLink:           "div.compPagination a, div.pages a",
			PagerCurrent:        "div.compPagination strong, div.pages strong",
		},
		Browser: Browser{
			Host:       "localhost",
			WindowSize: "1366,900",
		},
	}
}

// Validate checks the configuration for values the workflow cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrNoBaseURL
	}
	if c.FirstSearch.Query == "" || c.SecondSearch.Query == "" {
		return ErrNoQuery
	}
	if c.Pages.From < 2 || c.Pages.To < c.Pages.From {
		return fmt.Errorf("%w (got %d..%d)", ErrInvalidPageRange, c.Pages.From, c.Pages.To)
	}
	if c.Timeouts.Default <= 0 || c.Timeouts.PageLink <= 0 || c.Timeouts.PageLoad <= 0 || c.Timeouts.Run <= 0 {
		return ErrInvalidTimeout
	}
	if c.Browser.Port < 0 || c.Browser.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}
