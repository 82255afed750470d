package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radioconexion/site/internal/api"
)

// mockFetcher answers API calls from canned JSON bodies or errors, keyed by method
// and path
type mockFetcher struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []string
	bodies    map[string]any
}

var _ Fetcher = (*mockFetcher)(nil)

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		responses: make(map[string]string),
		errs:      make(map[string]error),
		bodies:    make(map[string]any),
	}
}

func (m *mockFetcher) on(method string, path string, body string) *mockFetcher {
	m.responses[method+" "+path] = body
	return m
}

func (m *mockFetcher) fail(method string, path string, err error) *mockFetcher {
	m.errs[method+" "+path] = err
	return m
}

func (m *mockFetcher) Base() string {
	return "https://api.example"
}

func (m *mockFetcher) FetchJSON(ctx context.Context, path string, r *api.Request, out any) error {
	method := http.MethodGet
	if r != nil && r.Method != "" {
		method = r.Method
	}
	key := method + " " + path

	m.mu.Lock()
	m.calls = append(m.calls, key)
	if r != nil && r.JSON != nil {
		m.bodies[key] = r.JSON
	}
	err, failed := m.errs[key]
	body, ok := m.responses[key]
	m.mu.Unlock()

	if failed {
		return err
	}
	if !ok {
		return &api.HTTPError{StatusCode: http.StatusNotFound}
	}
	if out == nil || body == "" {
		return nil
	}
	return json.Unmarshal([]byte(body), out)
}

func (m *mockFetcher) called(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c == key {
			return true
		}
	}
	return false
}

var errDown = fmt.Errorf("%w: connection refused", api.ErrUnavailable)

func Test_ListOptions_query(t *testing.T) {
	tests := []struct {
		name string
		opts ListOptions
		want string
	}{
		{"empty", ListOptions{}, ""},
		{"limit", ListOptions{Limit: 60}, "?limite=60"},
		{"everything", ListOptions{Limit: 6, Offset: 12, Category: "eventos"}, "?categoria=eventos&limite=6&offset=12"},
		{"category is escaped", ListOptions{Category: "rock & pop"}, "?categoria=rock+%26+pop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.query())
		})
	}
}

func Test_Client_List(t *testing.T) {
	f := newMockFetcher().on("GET", "/api/noticias/?categoria=eventos&limite=60", `[{"id":1,"titulo":"Uno"},{"id":2,"titulo":"Dos"}]`)
	articles, err := NewClient(f).List(context.Background(), ListOptions{Limit: PublicListLimit, Category: "eventos"})
	require.NoError(t, err)
	assert.Len(t, articles, 2)
	assert.Equal(t, "Dos", articles[1].Title)
}

func Test_Client_FindBySlug(t *testing.T) {
	t.Run("exact slug", func(t *testing.T) {
		f := newMockFetcher().on("GET", "/api/noticias/slug/hola", `{"id":3,"titulo":"Hola","slug":"hola"}`)
		a, err := NewClient(f).FindBySlug(context.Background(), "hola")
		require.NoError(t, err)
		assert.Equal(t, 3, a.Id)
		assert.False(t, f.called("GET /api/noticias/?limite=200"))
	})
	t.Run("falls back to slugified titles", func(t *testing.T) {
		f := newMockFetcher().on("GET", "/api/noticias/?limite=200", `[{"id":1,"titulo":"Otra"},{"id":7,"titulo":"Canción del Año"}]`)
		a, err := NewClient(f).FindBySlug(context.Background(), "cancion-del-ano")
		require.NoError(t, err)
		assert.Equal(t, 7, a.Id)
	})
	t.Run("falls back to stored slugs", func(t *testing.T) {
		f := newMockFetcher().on("GET", "/api/noticias/?limite=200", `[{"id":4,"titulo":"Nada que ver","slug":"especial"}]`)
		a, err := NewClient(f).FindBySlug(context.Background(), "especial")
		require.NoError(t, err)
		assert.Equal(t, 4, a.Id)
	})
	t.Run("not found anywhere", func(t *testing.T) {
		f := newMockFetcher().on("GET", "/api/noticias/?limite=200", `[{"id":1,"titulo":"Otra"}]`)
		_, err := NewClient(f).FindBySlug(context.Background(), "hola")
		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("unavailable API is not a miss", func(t *testing.T) {
		f := newMockFetcher().fail("GET", "/api/noticias/slug/hola", errDown)
		_, err := NewClient(f).FindBySlug(context.Background(), "hola")
		assert.ErrorIs(t, err, api.ErrUnavailable)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.False(t, f.called("GET /api/noticias/?limite=200"))
	})
	t.Run("failed scan is reported as not found", func(t *testing.T) {
		f := newMockFetcher().fail("GET", "/api/noticias/?limite=200", errors.New("boom"))
		_, err := NewClient(f).FindBySlug(context.Background(), "hola")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func Test_Client_AdminAll(t *testing.T) {
	t.Run("admin listing", func(t *testing.T) {
		f := newMockFetcher().on("GET", "/api/noticias/admin/all", `[{"id":1,"titulo":"Borrador","last_edited_by":"ana"}]`)
		articles, err := NewClient(f).AdminAll(context.Background())
		require.NoError(t, err)
		require.Len(t, articles, 1)
		assert.Equal(t, "ana", articles[0].LastEditedBy)
	})
	t.Run("404 falls back to the public listing", func(t *testing.T) {
		f := newMockFetcher().on("GET", "/api/noticias/?limite=200", `[{"id":2,"titulo":"Publicada"}]`)
		articles, err := NewClient(f).AdminAll(context.Background())
		require.NoError(t, err)
		require.Len(t, articles, 1)
		assert.Equal(t, 2, articles[0].Id)
	})
	t.Run("other failures are returned", func(t *testing.T) {
		f := newMockFetcher().
			fail("GET", "/api/noticias/admin/all", &api.HTTPError{StatusCode: http.StatusForbidden}).
			on("GET", "/api/noticias/?limite=200", `[]`)
		_, err := NewClient(f).AdminAll(context.Background())
		assert.True(t, api.IsStatus(err, http.StatusForbidden))
		assert.False(t, f.called("GET /api/noticias/?limite=200"))
	})
}

func Test_Client_Related(t *testing.T) {
	f := newMockFetcher().on("GET", "/api/noticias/?categoria=eventos&limite=6", `[{"id":1},{"id":2},{"id":3}]`)
	c := NewClient(f)

	related, err := c.Related(context.Background(), &Article{Id: 2, Category: "eventos"})
	require.NoError(t, err)
	assert.Len(t, related, 2)
	for _, a := range related {
		assert.NotEqual(t, 2, a.Id)
	}

	related, err = c.Related(context.Background(), &Article{Id: 2})
	require.NoError(t, err)
	assert.Empty(t, related)
}

func Test_Client_Create(t *testing.T) {
	f := newMockFetcher().on("POST", "/api/noticias/", `{"id":9,"titulo":"Nueva"}`)
	created, err := NewClient(f).Create(context.Background(), ArticleInput{Title: "Nueva", Content: "una dos tres"})
	require.NoError(t, err)
	assert.Equal(t, 9, created.Id)

	sent, ok := f.bodies["POST /api/noticias/"].(ArticleInput)
	require.True(t, ok)
	assert.Equal(t, 1, sent.ReadingTime)
}

func Test_Client_Update_Delete(t *testing.T) {
	f := newMockFetcher().on("PUT", "/api/noticias/5", "").on("DELETE", "/api/noticias/5", "")
	c := NewClient(f)

	authorId := 12
	assert.NoError(t, c.Update(context.Background(), 5, ArticleUpdate{Title: "Editada", AuthorId: &authorId}))
	sent := f.bodies["PUT /api/noticias/5"].(ArticleUpdate)
	assert.Equal(t, 12, *sent.AuthorId)

	assert.NoError(t, c.Delete(context.Background(), 5))
	assert.True(t, f.called("DELETE /api/noticias/5"))
}

func Test_Client_History(t *testing.T) {
	f := newMockFetcher().on("GET", "/api/noticias/5/historial", `[
		{"usuario_nombre":"ana","accion":"update","created_at":"2025-06-01T10:00:00","cambios":{"before":{"titulo":"A"},"after":{"titulo":"B"}}},
		{"usuario_id":3,"accion":"create","created_at":"2025-05-01T10:00:00","cambios":{}}
	]`)
	entries, err := NewClient(f).History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ana", entries[0].Who())
	assert.Equal(t, "A", entries[0].Changes.Before.Title)
	assert.Equal(t, "B", entries[0].Changes.After.Title)
	assert.Equal(t, "Usuario 3", entries[1].Who())
	assert.Nil(t, entries[1].Changes.Before)
	assert.Equal(t, "Usuario anon", (&HistoryEntry{}).Who())
}

func Test_Client_Vocabulary(t *testing.T) {
	t.Run("both listed", func(t *testing.T) {
		f := newMockFetcher().
			on("GET", "/api/noticias/categorias/", `["rock","jazz"]`).
			on("GET", "/api/noticias/tags/", `["vinilo"]`)
		categories, tags := NewClient(f).Vocabulary(context.Background())
		assert.Equal(t, []string{"rock", "jazz"}, categories)
		assert.Equal(t, []string{"vinilo"}, tags)
	})
	t.Run("failures fall back", func(t *testing.T) {
		f := newMockFetcher().fail("GET", "/api/noticias/tags/", errDown)
		categories, tags := NewClient(f).Vocabulary(context.Background())
		assert.Equal(t, DefaultCategories, categories)
		assert.Equal(t, []string{}, tags)
	})
	t.Run("empty category list falls back", func(t *testing.T) {
		f := newMockFetcher().on("GET", "/api/noticias/categorias/", `[]`).on("GET", "/api/noticias/tags/", `[]`)
		categories, _ := NewClient(f).Vocabulary(context.Background())
		assert.Equal(t, DefaultCategories, categories)
	})
}

func Test_ImageURL(t *testing.T) {
	assert.Equal(t, "", ImageURL("https://api.example", ""))
	assert.Equal(t, "https://api.example/media/a.jpg", ImageURL("https://api.example", "/media/a.jpg"))
	assert.Equal(t, "https://cdn.example/a.jpg", ImageURL("https://api.example", "https://cdn.example/a.jpg"))
}

func Test_Article_AuthorName(t *testing.T) {
	assert.Equal(t, "—", (&Article{}).AuthorName())
	assert.Equal(t, "Ana", (&Article{Author: &AuthorInfo{Name: "Ana"}}).AuthorName())
}
