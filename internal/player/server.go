package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/radioconexion/site/internal/logging"
	"github.com/radioconexion/site/internal/metrics"
	"github.com/radioconexion/site/internal/session"
	"github.com/radioconexion/site/internal/sse"
)

var ErrInvalidVolume = errors.New("volume must be a number between 0 and 1")

// AudioSource supplies relayed audio to /stream listeners
type AudioSource interface {
	Listen() (<-chan []byte, func())
	ContentType() string
}

// Server exposes the shared player over HTTP
type Server struct {
	player *Player
	audio  AudioSource
	events *sse.Handler[State]
}

// NewServer serves the given player. Every open /player/events connection is a mount.
// If audio is nil, /stream is not served.
func NewServer(ctx context.Context, p *Player, audio AudioSource) *Server {
	events := sse.NewHandler[State](ctx, p.Updates())
	events.OnConnectEventFunc = p.State
	events.EventName = "state"
	return &Server{
		player: p,
		audio:  audio,
		events: events,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path("/player/state").Methods("GET").HandlerFunc(s.handleGetState)
	r.Path("/player/events").Methods("GET").HandlerFunc(s.handleEvents)
	r.Path("/player/toggle").Methods("POST").HandlerFunc(s.handleToggle)
	r.Path("/player/mute").Methods("POST").HandlerFunc(s.handleMute)
	r.Path("/player/volume").Methods("POST").HandlerFunc(s.handleVolume)
	r.Path("/player/ui").Methods("POST").HandlerFunc(s.handleUI)
	if s.audio != nil {
		r.Path("/stream").Methods("GET").HandlerFunc(s.handleStream)
	}
}

func (s *Server) handleGetState(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, s.player.State())
}

func (s *Server) handleEvents(res http.ResponseWriter, req *http.Request) {
	m := s.player.Mount(req.Context())
	defer m.Unmount()
	s.events.ServeHTTP(res, req)
}

func (s *Server) handleToggle(res http.ResponseWriter, req *http.Request) {
	if err := s.player.TogglePlay(req.Context()); err != nil {
		// A failed start is not the caller's problem: the state reports not playing
		logging.With("player").Error().Err(err).Msg("error toggling audio")
	}
	writeJSON(res, s.player.State())
}

func (s *Server) handleMute(res http.ResponseWriter, req *http.Request) {
	value := req.URL.Query().Get("muted")
	if value == "" {
		writeJSON(res, s.player.ToggleMute())
		return
	}
	muted, err := strconv.ParseBool(value)
	if err != nil {
		http.Error(res, fmt.Sprintf("invalid value for 'muted': %v", err), http.StatusBadRequest)
		return
	}
	writeJSON(res, s.player.SetMuted(muted))
}

type volumeRequest struct {
	Volume *float64 `json:"volume"`
}

func (s *Server) handleVolume(res http.ResponseWriter, req *http.Request) {
	volume, err := parseVolume(req)
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(res, s.player.SetVolume(volume))
}

func parseVolume(req *http.Request) (float64, error) {
	contentType, _, _ := mime.ParseMediaType(req.Header.Get("content-type"))
	if contentType == "application/json" {
		var payload volumeRequest
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || payload.Volume == nil {
			return 0, ErrInvalidVolume
		}
		return validateVolume(*payload.Volume)
	}
	volume, err := strconv.ParseFloat(req.FormValue("volume"), 64)
	if err != nil {
		return 0, ErrInvalidVolume
	}
	return validateVolume(volume)
}

func validateVolume(volume float64) (float64, error) {
	if math.IsNaN(volume) || volume < 0 || volume > 1 {
		return 0, ErrInvalidVolume
	}
	return volume, nil
}

type uiRequest struct {
	Action string  `json:"action"`
	Offset float64 `json:"offset"`
}

type uiResponse struct {
	UIState
	Visible bool `json:"visible"`
}

func (s *Server) handleUI(res http.ResponseWriter, req *http.Request) {
	var payload uiRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		http.Error(res, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	store := session.NewCookieStore(res, req)
	ui := LoadUIState(store)
	switch payload.Action {
	case "collapse":
		ui.Collapse()
	case "show":
		ui.Show()
	case "expand":
		ui.ToggleExpanded()
	case "scroll":
		ui.Scroll(payload.Offset)
	default:
		http.Error(res, fmt.Sprintf("unsupported action '%s'", payload.Action), http.StatusBadRequest)
		return
	}
	if err := SaveUIState(store, ui); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(res, uiResponse{UIState: ui, Visible: ui.Visible()})
}

func (s *Server) handleStream(res http.ResponseWriter, req *http.Request) {
	flusher, ok := res.(http.Flusher)
	if !ok {
		http.Error(res, "streaming is not supported", http.StatusInternalServerError)
		return
	}
	chunks, unlisten := s.audio.Listen()
	defer unlisten()
	metrics.StreamListeners.Inc()
	defer metrics.StreamListeners.Dec()

	res.Header().Set("content-type", s.audio.ContentType())
	res.Header().Set("cache-control", "no-cache, no-store")
	res.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-req.Context().Done():
			return
		case chunk := <-chunks:
			if _, err := res.Write(chunk); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

var _ AudioSource = (*Relay)(nil)

func writeJSON(res http.ResponseWriter, v any) {
	res.Header().Set("content-type", "application/json")
	if err := json.NewEncoder(res).Encode(v); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}
