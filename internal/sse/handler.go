package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/radioconexion/site/internal/logging"
)

// DefaultKeepaliveInterval is how often an idle connection receives a comment line
const DefaultKeepaliveInterval = 30 * time.Second

// Handler is an HTTP handler that serves a stream of data using Server-Sent Events
type Handler[T any] struct {
	ctx context.Context
	b   bus[T]

	// OnConnectEventFunc, if set, resolves a message that is sent to each client as
	// soon as it connects
	OnConnectEventFunc func() T
	// EventName, if set, is sent as the 'event' field of every message
	EventName string
	// KeepaliveInterval overrides DefaultKeepaliveInterval
	KeepaliveInterval time.Duration
}

// NewHandler initializes an SSE handler that will read messages from the given channel
// and fan them out to all extant HTTP connections
func NewHandler[T any](ctx context.Context, ch <-chan T) *Handler[T] {
	h := &Handler[T]{
		ctx: ctx,
		b: bus[T]{
			chs: make(map[chan T]struct{}),
		},
	}
	go func() {
		done := false
		for !done {
			select {
			case <-ctx.Done():
				done = true
				h.b.clear()
			case message, ok := <-ch:
				if !ok {
					done = true
					continue
				}
				h.b.publish(message)
			}
		}
	}()
	return h
}

// Clients returns the number of connections currently open
func (h *Handler[T]) Clients() int {
	return h.b.len()
}

// ServeHTTP responds by opening a long-lived HTTP connection to which events will be
// written as the handler receives them, formatted as text/event-stream messages with
// 'data' consisting of a JSON-encoded message payload
func (h *Handler[T]) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	// If a content-type is explicitly requested, require that it's text/event-stream
	accept := req.Header.Get("accept")
	if accept != "" && accept != "*/*" && !strings.HasPrefix(accept, "text/event-stream") {
		message := fmt.Sprintf("content-type %s is not supported", accept)
		http.Error(res, message, http.StatusBadRequest)
		return
	}
	flusher, ok := res.(http.Flusher)
	if !ok {
		http.Error(res, "streaming is not supported", http.StatusInternalServerError)
		return
	}
	log := logging.With("sse")

	// Keep the connection alive and open a text/event-stream response body
	res.Header().Set("content-type", "text/event-stream")
	res.Header().Set("cache-control", "no-cache")
	res.Header().Set("connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Send the initial value if configured to do so: otherwise send a keepalive so that
	// proxies start streaming the response immediately
	if h.OnConnectEventFunc != nil {
		if err := h.write(res, h.OnConnectEventFunc()); err != nil {
			log.Error().Err(err).Msg("failed to serialize SSE message as JSON")
		}
	} else {
		res.Write([]byte(":\n\n"))
	}
	flusher.Flush()

	// Open a channel to receive message structs (i.e. any JSON-serializable value that
	// we want to send over our stream) as they're emitted
	ch := make(chan T, 32)
	h.b.register(ch)
	defer h.b.unregister(ch)

	interval := h.KeepaliveInterval
	if interval <= 0 {
		interval = DefaultKeepaliveInterval
	}
	keepalive := time.NewTicker(interval)
	defer keepalive.Stop()

	// Send all incoming messages to the client for as long as the connection is open
	log.Debug().Str("remote", req.RemoteAddr).Msg("opened SSE connection")
	for {
		select {
		case <-keepalive.C:
			res.Write([]byte(":\n\n"))
			flusher.Flush()
		case message := <-ch:
			if err := h.write(res, message); err != nil {
				log.Error().Err(err).Msg("failed to serialize SSE message as JSON")
				continue
			}
			flusher.Flush()
		case <-h.ctx.Done():
			log.Debug().Str("remote", req.RemoteAddr).Msg("server is shutting down; abandoning SSE connection")
			return
		case <-req.Context().Done():
			log.Debug().Str("remote", req.RemoteAddr).Msg("SSE connection closed")
			return
		}
	}
}

func (h *Handler[T]) write(res http.ResponseWriter, message T) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if h.EventName != "" {
		fmt.Fprintf(res, "event: %s\n", h.EventName)
	}
	fmt.Fprintf(res, "data: %s\n\n", data)
	return nil
}
