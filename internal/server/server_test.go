package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(r *mux.Router) {
	r.Path("/ping").Methods("GET").HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		res.Write([]byte("pong"))
	})
}

var _ RouteRegistrar = pingRoutes{}

func get(t *testing.T, h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func Test_New_routes(t *testing.T) {
	health := http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		res.Write([]byte(`{"isReady":true}`))
	})
	s, err := New(Options{Routes: []RouteRegistrar{pingRoutes{}}, Health: health})
	require.NoError(t, err)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"registered routes", "/ping", http.StatusOK, "pong"},
		{"health", "/status", http.StatusOK, `"isReady":true`},
		{"metrics", "/metrics", http.StatusOK, "player_mounts"},
		{"static assets", "/static/site.css", http.StatusOK, ""},
		{"missing static asset", "/static/nope.css", http.StatusNotFound, ""},
		{"api is not proxied without a target", "/api/noticias/", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := get(t, s, tt.target, nil)
			assert.Equal(t, tt.wantStatus, res.Code)
			assert.Contains(t, res.Body.String(), tt.wantBody)
		})
	}
}

func Test_New_proxy(t *testing.T) {
	var gotHost, gotForwardedHost, gotURI string
	backend := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		gotHost = req.Host
		gotForwardedHost = req.Header.Get("x-forwarded-host")
		gotURI = req.URL.RequestURI()
		res.Write([]byte(`[]`))
	}))
	defer backend.Close()

	s, err := New(Options{ProxyTarget: backend.URL})
	require.NoError(t, err)

	res := get(t, s, "http://radio.example/api/noticias/?limite=1", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "[]", res.Body.String())
	assert.Equal(t, "/api/noticias/?limite=1", gotURI)
	assert.Equal(t, backend.Listener.Addr().String(), gotHost)
	assert.Equal(t, "radio.example", gotForwardedHost)

	res = get(t, s, "/media/uploads/a.png", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "/media/uploads/a.png", gotURI)

	backend.Close()
	res = get(t, s, "/api/noticias/", nil)
	assert.Equal(t, http.StatusBadGateway, res.Code)
	body, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(body), "upstream service unavailable")
}

func Test_New_invalidProxyTarget(t *testing.T) {
	for _, target := range []string{"api.example", "://nope"} {
		_, err := New(Options{ProxyTarget: target})
		assert.Error(t, err, target)
	}
}

func Test_New_cors(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"allowed origin", []string{"https://radio.example"}, "https://radio.example", "https://radio.example"},
		{"other origin", []string{"https://radio.example"}, "https://evil.example", ""},
		{"no origins configured", nil, "https://radio.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(Options{Routes: []RouteRegistrar{pingRoutes{}}, AllowedOrigins: tt.allowed})
			require.NoError(t, err)
			res := get(t, s, "/ping", http.Header{"Origin": {tt.origin}})
			assert.Equal(t, http.StatusOK, res.Code)
			assert.Equal(t, tt.want, res.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func Test_ParseOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ", nil},
		{"https://a.example", []string{"https://a.example"}},
		{"https://a.example/, http://localhost:3000 ,", []string{"https://a.example", "http://localhost:3000"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrigins(tt.in))
		})
	}
}
