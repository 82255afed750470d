package news

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radioconexion/site/internal/api"
	"github.com/radioconexion/site/internal/schedule"
	"github.com/radioconexion/site/internal/web"
)

const testArticles = `[
	{"id":1,"titulo":"Festival de Jazz","slug":"festival-de-jazz","resumen":"Tres días de música","categoria":"eventos","imagen":"/media/jazz.jpg","fecha":"2025-06-02","autor_info":{"nombre":"Ana"}},
	{"id":2,"titulo":"Nuevo disco","resumen":"Reseña","categoria":"reviews","destacada":true},
	{"id":3,"titulo":"Otro evento","slug":"otro-evento","categoria":"eventos"}
]`

// newTestServer serves the public pages against a fake news API. Handlers not
// registered on backend answer 404.
func newTestServer(t *testing.T, backend *mux.Router, programs schedule.Schedule) http.Handler {
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	renderer, err := web.New(web.Site{Name: "Radio Test", URL: "https://radio.example"})
	require.NoError(t, err)

	s := NewServer(renderer, api.NewClient(api.Config{Base: srv.URL}, srv.Client()), programs)
	s.now = func() time.Time {
		return time.Date(2025, 6, 2, 10, 30, 0, 0, time.Local) // a Monday
	}
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	return r
}

func fakeAPI(routes map[string]string) *mux.Router {
	r := mux.NewRouter()
	for path, body := range routes {
		body := body
		r.Path(path).Methods("GET").HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			res.Header().Set("content-type", "application/json")
			res.Write([]byte(body))
		})
	}
	return r
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, target, nil))
	return res
}

func Test_Server_home(t *testing.T) {
	programs := schedule.Schedule{
		{Id: 1, Day: time.Monday, Start: "10:00", End: "12:00", Name: "Mañanas Latinas", Host: "Luis"},
		{Id: 2, Day: time.Tuesday, Start: "18:00", End: "19:00", Name: "Rock Nacional", Host: "Sofía"},
	}
	h := newTestServer(t, fakeAPI(map[string]string{"/api/noticias/": testArticles}), programs)

	res := get(h, "/")
	assert.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Al aire: <strong>Mañanas Latinas</strong>")
	assert.Contains(t, body, `class="day today"`)
	assert.Contains(t, body, "Rock Nacional")
	assert.Contains(t, body, `href="/noticia/festival-de-jazz"`)
	assert.Contains(t, body, `href="/noticia/nuevo-disco"`)
	assert.Contains(t, body, "/media/jazz.jpg")
}

func Test_Server_home_apiDown(t *testing.T) {
	r := mux.NewRouter()
	r.Path("/api/noticias/").HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		http.Error(res, "boom", http.StatusInternalServerError)
	})
	h := newTestServer(t, r, nil)

	res := get(h, "/")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "No se pudieron cargar las noticias.")
}

func Test_Server_list(t *testing.T) {
	h := newTestServer(t, fakeAPI(map[string]string{"/api/noticias/": testArticles}), nil)

	t.Run("all", func(t *testing.T) {
		res := get(h, "/noticias")
		assert.Equal(t, http.StatusOK, res.Code)
		body := res.Body.String()
		assert.Contains(t, body, "Festival de Jazz")
		assert.Contains(t, body, "Nuevo disco")
		assert.Contains(t, body, `href="/noticias?categoria=reviews"`)
	})
	t.Run("filtered by category", func(t *testing.T) {
		res := get(h, "/noticias?categoria=eventos")
		assert.Equal(t, http.StatusOK, res.Code)
		body := res.Body.String()
		assert.Contains(t, body, "Festival de Jazz")
		assert.Contains(t, body, "Otro evento")
		assert.NotContains(t, body, "Nuevo disco")
	})
	t.Run("empty category", func(t *testing.T) {
		res := get(h, "/noticias?categoria=nada")
		assert.Contains(t, res.Body.String(), "No hay noticias en esta categoría.")
	})
}

func Test_Server_list_apiDown(t *testing.T) {
	r := mux.NewRouter()
	r.Path("/api/noticias/").HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		http.Error(res, "boom", http.StatusServiceUnavailable)
	})
	h := newTestServer(t, r, nil)

	res := get(h, "/noticias")
	assert.Equal(t, http.StatusBadGateway, res.Code)
	assert.Contains(t, res.Body.String(), "No se pudieron cargar las noticias.")
}

func Test_Server_detail(t *testing.T) {
	h := newTestServer(t, fakeAPI(map[string]string{
		"/api/noticias/slug/festival-de-jazz": `{"id":1,"titulo":"Festival de Jazz","slug":"festival-de-jazz","resumen":"Tres días","contenido":"<p>Primer párrafo</p><p>Segundo &amp; último</p>","categoria":"eventos","tags":["jazz"],"fecha":"2025-06-02"}`,
		"/api/noticias/": testArticles,
	}), nil)

	res := get(h, "/noticia/festival-de-jazz")
	assert.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "<title>Festival de Jazz | Radio Test</title>")
	assert.Contains(t, body, `<meta property="og:type" content="article">`)
	assert.Contains(t, body, `<link rel="canonical" href="https://radio.example/noticia/festival-de-jazz">`)
	assert.Contains(t, body, "<p>Primer párrafo</p>")
	assert.Contains(t, body, "<p>Segundo &amp; último</p>")
	assert.Contains(t, body, "#jazz")
	assert.Contains(t, body, "Noticias relacionadas")
	assert.Contains(t, body, `href="/noticia/otro-evento"`)
}

func Test_Server_detail_fallback(t *testing.T) {
	h := newTestServer(t, fakeAPI(map[string]string{"/api/noticias/": testArticles}), nil)

	res := get(h, "/noticia/nuevo-disco")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "<h1>Nuevo disco</h1>")
}

func Test_Server_detail_notFound(t *testing.T) {
	h := newTestServer(t, fakeAPI(map[string]string{"/api/noticias/": testArticles}), nil)

	res := get(h, "/noticia/no-existe")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Contains(t, res.Body.String(), "No encontramos esa página")
}

func Test_categoriesOf(t *testing.T) {
	articles := []Article{{Category: "b"}, {Category: ""}, {Category: "a"}, {Category: "b"}}
	assert.Equal(t, []string{"b", "a"}, categoriesOf(articles))
}
