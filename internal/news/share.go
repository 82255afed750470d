package news

import (
	"net/url"
	"strings"
	"time"

	"github.com/radioconexion/site/internal/web"
)

// DefaultDescription is shared for pages without an article summary
const DefaultDescription = "Noticias, música y cultura para Latinoamérica."

const shareDescriptionLength = 200
const shareTagLimit = 6

// CanonicalSlug is the slug an article is linked under
func CanonicalSlug(a *Article) string {
	if a.Slug != "" {
		return a.Slug
	}
	return Slugify(a.Title)
}

// ArticleURL is the absolute public URL of an article
func ArticleURL(siteURL string, slug string) string {
	return strings.TrimRight(siteURL, "/") + "/noticia/" + url.PathEscape(slug)
}

// ShareMeta describes an article for link previews: Open Graph, Twitter cards and
// schema.org NewsArticle data. Relative image paths are served by the API; an
// article without an image falls back to the site logo.
func ShareMeta(site web.Site, apiBase string, a *Article) web.Meta {
	title := site.Name
	if a.Title != "" {
		title = a.Title + " | " + site.Name
	}
	summary := a.Summary
	if summary == "" {
		summary = DefaultDescription
	}
	description := TrimText(summary, shareDescriptionLength)

	image := ImageURL(apiBase, a.Image)
	if image == "" {
		image = strings.TrimRight(site.URL, "/") + "/static/logo.png"
	}
	if strings.HasPrefix(image, "http:") {
		image = "https:" + strings.TrimPrefix(image, "http:")
	}

	tags := a.Tags
	if len(tags) > shareTagLimit {
		tags = tags[:shareTagLimit]
	}
	published := publishedTime(a.Date)
	canonical := ArticleURL(site.URL, CanonicalSlug(a))

	structured := map[string]any{
		"@context":         "https://schema.org",
		"@type":            "NewsArticle",
		"headline":         title,
		"image":            []string{image},
		"description":      description,
		"mainEntityOfPage": canonical,
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  site.Name,
		},
	}
	if published != "" {
		structured["datePublished"] = published
		structured["dateModified"] = published
	}

	return web.Meta{
		Title:       title,
		Description: description,
		Image:       image,
		URL:         canonical,
		Type:        "article",
		Published:   published,
		Section:     a.Category,
		Tags:        tags,
		Structured:  structured,
	}
}

// publishedTime normalizes an article date to RFC 3339, or returns "" if it can't
// be parsed
func publishedTime(date string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return ""
}
