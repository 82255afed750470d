package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	site "github.com/radioconexion/site"
	"github.com/radioconexion/site/internal/api"
	"github.com/radioconexion/site/internal/drafts"
	"github.com/radioconexion/site/internal/health"
	"github.com/radioconexion/site/internal/logging"
	"github.com/radioconexion/site/internal/news"
	"github.com/radioconexion/site/internal/panel"
	"github.com/radioconexion/site/internal/panelpath"
	"github.com/radioconexion/site/internal/player"
	"github.com/radioconexion/site/internal/server"
	"github.com/radioconexion/site/internal/web"
)

type Config struct {
	BindAddr   string `env:"BIND_ADDR"`
	ListenPort uint16 `env:"LISTEN_PORT" default:"5001"`

	API    api.Config
	Player player.Config
	Log    logging.Config

	DefaultRole        string `env:"DEFAULT_ROLE"`
	PanelSeed          string `env:"PANEL_SEED" default:"rva-2025"`
	RedisURL           string `env:"REDIS_URL"`
	SiteName           string `env:"SITE_NAME" default:"Radio Conexión Latam"`
	SiteURL            string `env:"SITE_URL"`
	CorsAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
	APIProxyTarget     string `env:"API_PROXY_TARGET"`
}

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	for _, c := range []any{&config, &config.API, &config.Player, &config.Log} {
		if err := env.Set(c); err != nil {
			log.Fatalf("error loading config: %v", err)
		}
	}
	logging.Init(config.Log)
	logger := logging.With("main")

	ctx, close := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM)
	defer close()

	// Drafts are kept only if redis is available to hold them
	var autosaver *drafts.Autosaver
	if config.RedisURL != "" {
		opts, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		autosaver = drafts.NewAutosaver(drafts.NewRedisStore(rdb, drafts.DefaultTTL), drafts.DefaultDelay)
	} else {
		logger.Warn().Msg("REDIS_URL is not set; article drafts will not be kept")
	}

	renderer, err := web.New(web.Site{
		Name:   config.SiteName,
		URL:    config.SiteURL,
		Social: site.SocialLinks,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("error parsing templates")
	}

	// Without API_BASE, the API is reached where /api is proxied to, or through the
	// site's own public origin
	config.API.Fallback = config.APIProxyTarget
	if config.API.Fallback == "" {
		config.API.Fallback = config.SiteURL
	}
	client := api.NewClient(config.API, nil)
	p := player.Shared(config.Player)
	audio, _ := p.Element().(player.AudioSource)

	panelBase := panelpath.Base(config.PanelSeed)
	srv, err := server.New(server.Options{
		Routes: []server.RouteRegistrar{
			player.NewServer(ctx, p, audio),
			panel.NewServer(renderer, client, panelBase, config.DefaultRole, autosaver),
			news.NewServer(renderer, client, site.Programs),
		},
		Health:         health.NewServer(client, p),
		ProxyTarget:    config.APIProxyTarget,
		AllowedOrigins: server.ParseOrigins(config.CorsAllowedOrigins),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("error initializing server")
	}

	addr := fmt.Sprintf("%s:%d", config.BindAddr, config.ListenPort)
	httpServer := &http.Server{Addr: addr, Handler: srv}

	logger.Info().Str("addr", addr).Str("panel", panelBase).Msg("listening")
	var wg errgroup.Group
	wg.Go(httpServer.ListenAndServe)

	<-ctx.Done()
	logger.Info().Msg("received signal; closing server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error shutting down server")
	}
	if autosaver != nil {
		if err := autosaver.Flush(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("error saving pending drafts")
		}
	}

	err = wg.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info().Msg("server closed")
	} else {
		logger.Fatal().Err(err).Msg("error running server")
	}
}
