// Package metadata reads now-playing updates from the stream host's server-push
// metadata channel.
//
// A subscription is a single text/event-stream connection. When that connection
// ends or fails, the subscription is over: nothing here reconnects, and the last
// values received stay on display.
package metadata

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/radioconexion/site/internal/logging"
)

// DefaultURL is the metadata channel of the station's mount
const DefaultURL = "https://api.zeno.fm/mounts/metadata/subscribe/2t6pyzccd78uv"

// maxLineSize bounds a single line of the event stream
const maxLineSize = 64 * 1024

var ErrUnexpectedStatus = errors.New("unexpected status from metadata channel")

// Event is a single dispatched text/event-stream event
type Event struct {
	Name string
	Data string
	Id   string
}

// Subscribe opens the metadata channel at url and calls fn with each well-formed
// message event, in arrival order, until the stream ends, fails, or ctx is
// cancelled. Payloads that don't parse are logged and skipped. A clean end of stream
// returns nil.
func Subscribe(ctx context.Context, client *http.Client, url string, fn func(m Message)) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("accept", "text/event-stream")
	req.Header.Set("cache-control", "no-cache")

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	}

	log := logging.With("metadata")
	log.Info().Str("url", url).Msg("metadata subscription opened")
	err = ReadEvents(res.Body, func(ev Event) {
		if ev.Name != "message" {
			return
		}
		m, err := Parse([]byte(ev.Data))
		if err != nil {
			log.Warn().Err(err).Str("data", ev.Data).Msg("skipping malformed metadata")
			return
		}
		log.Debug().Interface("metadata", m).Msg("metadata received")
		fn(m)
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// ReadEvents parses r as a text/event-stream body and calls fn for every event
// dispatched, until r is exhausted. Events with no data are not dispatched.
func ReadEvents(r io.Reader, fn func(ev Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	var name string
	var id string
	var data []string
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			if len(data) > 0 {
				ev := Event{Name: name, Data: strings.Join(data, "\n"), Id: id}
				if ev.Name == "" {
					ev.Name = "message"
				}
				fn(ev)
			}
			name = ""
			data = data[:0]
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		case "id":
			id = value
		}
	}
	return scanner.Err()
}
