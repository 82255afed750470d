// Package web renders the site's HTML pages from embedded templates and serves its
// static assets.
//
// Every page template defines "title" and "content" blocks and is rendered inside
// templates/base.gohtml. Handlers prepare everything a template shows; templates do
// no formatting of their own beyond what html/template provides.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/radioconexion/site/internal/logging"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

//go:embed all:static
var staticFS embed.FS

// Link is a named outbound link
type Link struct {
	Name string
	URL  string
}

// Site holds the values shared by every page
type Site struct {
	Name string
	// URL is the public origin of the site, used to build absolute share URLs
	URL    string
	Social []Link
}

// Meta describes how a page presents itself when shared: it becomes the page's
// Open Graph and Twitter card tags
type Meta struct {
	Title       string
	Description string
	Image       string
	URL         string
	// Type is the og:type; pages that don't set it are a "website"
	Type string
	// Card is the twitter:card; defaults to "summary"
	Card string

	// Published, Section and Tags describe an article
	Published string
	Section   string
	Tags      []string

	// Structured is emitted as JSON-LD if set
	Structured any
}

// Page is the data passed to every template
type Page struct {
	Title string
	Meta  Meta
	// Path is the request path, used to highlight navigation
	Path string
	// PanelBase is the editorial panel's base path, if the page belongs to the panel
	PanelBase string
	// Role is the visitor's panel role, if they are logged in
	Role string
	// PlayerVisible reflects the visitor's player bar flags
	PlayerVisible bool
	// Error and Notice are shown inline at the top of the page content
	Error  string
	Notice string
	Data   any

	Site Site
	Year int
}

// Renderer holds the parsed page templates
type Renderer struct {
	site  Site
	pages map[string]*template.Template
}

// New parses every page template up front, so that a broken template fails at
// startup rather than on first request
func New(site Site) (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template)
	for _, name := range names {
		base := path.Base(name)
		if base == "base.gohtml" {
			continue
		}
		tpl, err := template.New(base).Funcs(funcs).ParseFS(templateFS, "templates/base.gohtml", name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", base, err)
		}
		pages[strings.TrimSuffix(base, ".gohtml")] = tpl
	}
	return &Renderer{site: site, pages: pages}, nil
}

// Site returns the values shared by every page
func (r *Renderer) Site() Site {
	return r.site
}

// Render executes the named page into the response. If status is 0, the status line
// is left to the caller (who may already have written it).
func (r *Renderer) Render(res http.ResponseWriter, status int, name string, page Page) {
	tpl, ok := r.pages[name]
	if !ok {
		logging.With("web").Error().Str("page", name).Msg("no such page template")
		http.Error(res, "template error", http.StatusInternalServerError)
		return
	}
	page.Site = r.site
	if page.Year == 0 {
		page.Year = time.Now().Year()
	}
	if page.Meta.Title == "" {
		page.Meta.Title = page.Title
	}
	if page.Meta.Type == "" {
		page.Meta.Type = "website"
	}
	if page.Meta.Card == "" {
		page.Meta.Card = "summary"
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "base", page); err != nil {
		logging.With("web").Error().Err(err).Str("page", name).Msg("failed to render page")
		http.Error(res, "template error", http.StatusInternalServerError)
		return
	}
	res.Header().Set("content-type", "text/html; charset=utf-8")
	if status != 0 {
		res.WriteHeader(status)
	}
	res.Write(buf.Bytes())
}

// Static serves the embedded assets; mount it with the /static/ prefix stripped
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

var funcs = template.FuncMap{
	"hasPrefix": strings.HasPrefix,
}
