// Package health reports whether the site can serve everything it promises: the news
// API must be reachable, and the live stream should not have ended.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/radioconexion/site/internal/api"
	"github.com/radioconexion/site/internal/player"
	"github.com/radioconexion/site/internal/session"
)

// probeTimeout bounds the request made to check the news API
const probeTimeout = 5 * time.Second

// Status is the JSON body of the health endpoint
type Status struct {
	IsReady bool   `json:"isReady"`
	Message string `json:"message"`
}

// GetAPIStatusFunc probes the news API at the operator-configured base. The first
// error is presented to the user; the second, if any, is the underlying cause.
type GetAPIStatusFunc func(req *http.Request) (error, error)
type GetStreamStatusFunc func() error

type Server struct {
	getAPIStatus    GetAPIStatusFunc
	getStreamStatus GetStreamStatusFunc
}

func NewServer(client *api.Client, p *player.Player) *Server {
	return &Server{
		getAPIStatus: func(req *http.Request) (error, error) {
			return probeAPI(req.Context(), client.As(session.NewMemoryStore()))
		},
		getStreamStatus: func() error {
			if p.Element().Ended() {
				return errors.New("the live stream ended and has not been restarted")
			}
			return nil
		},
	}
}

// probeAPI asks the API for a single article
func probeAPI(ctx context.Context, c *api.Caller) (error, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := c.FetchJSON(ctx, "/api/noticias/?limite=1", nil, nil); err != nil {
		return fmt.Errorf("The news API at %s is not responding; news pages and the editorial panel are unavailable.", c.Base()), err
	}
	return nil, nil
}

func (s *Server) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	status := s.resolveStatus(req)
	res.Header().Set("content-type", "application/json")
	if err := json.NewEncoder(res).Encode(status); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) resolveStatus(req *http.Request) Status {
	err, secondaryErr := s.getAPIStatus(req)
	if err != nil {
		suffix := ""
		if secondaryErr != nil {
			suffix = fmt.Sprintf(" (Error: %s)", secondaryErr.Error())
		}
		return Status{
			IsReady: false,
			Message: err.Error() + suffix,
		}
	}

	if err := s.getStreamStatus(); err != nil {
		return Status{
			IsReady: false,
			Message: fmt.Sprintf(
				"The news API is reachable, but the audio player is degraded. (Error: %s)",
				err,
			),
		}
	}

	return Status{
		IsReady: true,
		Message: "The news API is reachable and the live stream is available. Radio Conexión Latam is fully operational!",
	}
}
