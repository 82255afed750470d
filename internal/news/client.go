// Package news reads and writes articles through the news API, and serves the
// public news pages.
package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/radioconexion/site/internal/api"
)

// PublicListLimit is how many articles the public news pages request
const PublicListLimit = 60

// RelatedLimit is how many same-category articles are requested for a detail page
const RelatedLimit = 6

// fallbackScanLimit is how many articles are scanned when an exact lookup fails
const fallbackScanLimit = 200

var ErrNotFound = errors.New("article not found")

// Fetcher is the part of the API client that news needs; *api.Caller satisfies it
type Fetcher interface {
	Base() string
	FetchJSON(ctx context.Context, path string, r *api.Request, out any) error
}

var _ Fetcher = (*api.Caller)(nil)

// Client calls the article endpoints of the news API on behalf of one visitor
type Client struct {
	f Fetcher
}

func NewClient(f Fetcher) *Client {
	return &Client{f: f}
}

// ListOptions filters and pages a listing. A zero Limit leaves the API's default.
type ListOptions struct {
	Limit    int
	Offset   int
	Category string
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Category != "" {
		q.Set("categoria", o.Category)
	}
	if o.Limit > 0 {
		q.Set("limite", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// List returns published articles, newest first
func (c *Client) List(ctx context.Context, opts ListOptions) ([]Article, error) {
	articles := make([]Article, 0)
	if err := c.f.FetchJSON(ctx, "/api/noticias/"+opts.query(), nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// BySlug looks up a single article by its exact slug
func (c *Client) BySlug(ctx context.Context, slug string) (*Article, error) {
	var article Article
	if err := c.f.FetchJSON(ctx, "/api/noticias/slug/"+url.PathEscape(slug), nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// FindBySlug looks up an article by slug, and if the API can't find it, scans the
// latest articles for one whose slug or slugified title matches. It returns
// ErrNotFound if neither turns anything up.
func (c *Client) FindBySlug(ctx context.Context, slug string) (*Article, error) {
	article, err := c.BySlug(ctx, slug)
	if err == nil {
		return article, nil
	}
	if errors.Is(err, api.ErrUnavailable) {
		return nil, err
	}

	articles, listErr := c.List(ctx, ListOptions{Limit: fallbackScanLimit})
	if listErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, listErr)
	}
	for i := range articles {
		a := &articles[i]
		if (a.Slug != "" && a.Slug == slug) || Slugify(a.Title) == slug {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

// ByID fetches a single article by id
func (c *Client) ByID(ctx context.Context, id int) (*Article, error) {
	var article Article
	if err := c.f.FetchJSON(ctx, "/api/noticias/"+strconv.Itoa(id), nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// AdminAll lists every article, including unpublished ones. Older API deployments
// lack the admin listing; if it answers 404, the public listing is used instead.
func (c *Client) AdminAll(ctx context.Context) ([]Article, error) {
	articles := make([]Article, 0)
	err := c.f.FetchJSON(ctx, "/api/noticias/admin/all", nil, &articles)
	if api.IsStatus(err, http.StatusNotFound) {
		return c.List(ctx, ListOptions{Limit: fallbackScanLimit})
	}
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// Related returns up to RelatedLimit other articles in the same category
func (c *Client) Related(ctx context.Context, a *Article) ([]Article, error) {
	if a.Category == "" {
		return []Article{}, nil
	}
	articles, err := c.List(ctx, ListOptions{Limit: RelatedLimit, Category: a.Category})
	if err != nil {
		return nil, err
	}
	related := make([]Article, 0, len(articles))
	for _, other := range articles {
		if other.Id != a.Id {
			related = append(related, other)
		}
	}
	return related, nil
}

// Create publishes a new article
func (c *Client) Create(ctx context.Context, input ArticleInput) (*Article, error) {
	if input.ReadingTime == 0 {
		input.ReadingTime = ReadingTime(input.Content)
	}
	var created Article
	if err := c.f.FetchJSON(ctx, "/api/noticias/", &api.Request{Method: http.MethodPost, JSON: input}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces the editable fields of an article
func (c *Client) Update(ctx context.Context, id int, update ArticleUpdate) error {
	return c.f.FetchJSON(ctx, "/api/noticias/"+strconv.Itoa(id), &api.Request{Method: http.MethodPut, JSON: update}, nil)
}

// Delete removes an article
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.f.FetchJSON(ctx, "/api/noticias/"+strconv.Itoa(id), &api.Request{Method: http.MethodDelete}, nil)
}

// History returns the change log of an article
func (c *Client) History(ctx context.Context, id int) ([]HistoryEntry, error) {
	entries := make([]HistoryEntry, 0)
	if err := c.f.FetchJSON(ctx, "/api/noticias/"+strconv.Itoa(id)+"/historial", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DefaultCategories are offered by the editor when the API can't list its own
var DefaultCategories = []string{"noticias", "reviews", "eventos", "entrevistas"}

// Categories lists the categories articles may be filed under
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	categories := make([]string, 0)
	if err := c.f.FetchJSON(ctx, "/api/noticias/categorias/", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Tags lists the tags already in use
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	tags := make([]string, 0)
	if err := c.f.FetchJSON(ctx, "/api/noticias/tags/", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// Vocabulary fetches categories and tags concurrently. A failure to list
// categories falls back to DefaultCategories; tags are optional.
func (c *Client) Vocabulary(ctx context.Context) (categories []string, tags []string) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetched, err := c.Categories(ctx)
		if err != nil || len(fetched) == 0 {
			fetched = DefaultCategories
		}
		categories = fetched
		return nil
	})
	g.Go(func() error {
		fetched, err := c.Tags(ctx)
		if err != nil {
			fetched = []string{}
		}
		tags = fetched
		return nil
	})
	g.Wait()
	return categories, tags
}

// ImageURL resolves an article image path against the API base; absolute URLs are
// returned unchanged
func ImageURL(base string, image string) string {
	if image == "" {
		return ""
	}
	if u, err := url.Parse(image); err == nil && u.IsAbs() {
		return image
	}
	return base + image
}
