// Package server assembles the site's HTTP surface: public pages, the editorial
// panel, the live player, health, metrics, static assets and the news API proxy.
package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/radioconexion/site/internal/logging"
	"github.com/radioconexion/site/internal/metrics"
	"github.com/radioconexion/site/internal/web"
)

// proxiedPrefixes are forwarded unchanged to the news API when a proxy target is set.
// Without API_BASE the site may reach the API through its own public origin, so these
// paths must lead to the API through this server.
var proxiedPrefixes = []string{"/api/", "/media/"}

// RouteRegistrar is implemented by every package that serves part of the site
type RouteRegistrar interface {
	RegisterRoutes(r *mux.Router)
}

type Options struct {
	// Routes are registered in order; earlier registrations win on overlapping paths
	Routes []RouteRegistrar
	// Health is served at /status
	Health http.Handler
	// ProxyTarget is the origin of the news API that /api and /media are forwarded to.
	// Nothing is proxied if it is empty.
	ProxyTarget string
	// AllowedOrigins may call the site cross-origin; none are allowed if empty
	AllowedOrigins []string
}

type Server struct {
	http.Handler
}

func New(opts Options) (*Server, error) {
	r := mux.NewRouter()
	for _, routes := range opts.Routes {
		routes.RegisterRoutes(r)
	}
	if opts.Health != nil {
		r.Path("/status").Methods("GET").Handler(opts.Health)
	}
	r.Path("/metrics").Methods("GET").Handler(metrics.Handler())
	r.PathPrefix("/static/").Methods("GET", "HEAD").Handler(http.StripPrefix("/static", web.Static()))

	if opts.ProxyTarget != "" {
		proxy, err := newReverseProxy(opts.ProxyTarget)
		if err != nil {
			return nil, err
		}
		for _, prefix := range proxiedPrefixes {
			r.PathPrefix(prefix).Handler(proxy)
		}
	}

	// cors allows every origin when given none, so an empty list skips it entirely
	if len(opts.AllowedOrigins) == 0 {
		return &Server{Handler: r}, nil
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return &Server{Handler: c.Handler(r)}, nil
}

// newReverseProxy forwards requests to target, keeping the caller's path and query
func newReverseProxy(target string) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid API proxy target %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API proxy target %q: an absolute URL is required", target)
	}
	proxy := httputil.NewSingleHostReverseProxy(u)

	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		host := req.Host
		director(req)
		req.Host = u.Host
		req.Header.Set("X-Forwarded-Host", host)
	}
	proxy.ErrorHandler = func(res http.ResponseWriter, req *http.Request, err error) {
		logging.With("proxy").Error().Err(err).Str("path", req.URL.Path).Msg("news API proxy failed")
		http.Error(res, "upstream service unavailable", http.StatusBadGateway)
	}
	return proxy, nil
}

// ParseOrigins splits a comma-separated origin list, dropping blanks
func ParseOrigins(s string) []string {
	var origins []string
	for _, origin := range strings.Split(s, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, strings.TrimRight(origin, "/"))
		}
	}
	return origins
}
