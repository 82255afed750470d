package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/radioconexion/site/internal/logging"
)

// DefaultStreamURL is the station's live audio stream
const DefaultStreamURL = "https://stream-170.zeno.fm/yxynr8zy71zuv?zs=CBt9_4NJR0S-g7RGQMMwYA"

// relayChunkSize is the size of reads from the upstream stream
const relayChunkSize = 16 * 1024

var ErrPlayRejected = errors.New("stream could not be started")

// Relay is an Element that plays the live stream by reading it from the stream host
// and passing the audio along to every connected listener. It reads the stream only
// while playing, and never reconnects on its own: once the upstream ends or fails,
// the relay is paused until Play is called again.
type Relay struct {
	url    string
	client *http.Client

	mu          sync.Mutex
	paused      bool
	ended       bool
	volume      float64
	muted       bool
	contentType string
	generation  int
	cancel      context.CancelFunc
	listeners   map[chan []byte]struct{}
	onEvent     func(ev Event)
}

// NewRelay prepares a relay for the given stream URL; nothing is fetched until Play
func NewRelay(url string, client *http.Client) *Relay {
	if client == nil {
		client = http.DefaultClient
	}
	return &Relay{
		url:         url,
		client:      client,
		paused:      true,
		volume:      1,
		contentType: "audio/mpeg",
		listeners:   make(map[chan []byte]struct{}),
	}
}

func (r *Relay) Play(ctx context.Context) error {
	r.mu.Lock()
	if !r.paused {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()
	r.emit(EventLoadStart)

	// The upstream read outlives the request that asked for playback: ctx only bounds
	// the time spent connecting
	streamCtx, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, cancel)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, r.url, nil)
	if err != nil {
		stop()
		cancel()
		return err
	}
	res, err := r.client.Do(req)
	connected := stop()
	if err == nil && !connected {
		res.Body.Close()
		err = ctx.Err()
	}
	if err != nil {
		cancel()
		r.emit(EventError)
		return fmt.Errorf("%w: %w", ErrPlayRejected, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		res.Body.Close()
		cancel()
		r.emit(EventError)
		return fmt.Errorf("%w: got status %d", ErrPlayRejected, res.StatusCode)
	}

	r.mu.Lock()
	if !r.paused {
		// A concurrent Play won the race
		r.mu.Unlock()
		res.Body.Close()
		cancel()
		return nil
	}
	r.paused = false
	r.ended = false
	r.generation++
	r.cancel = cancel
	if contentType := res.Header.Get("content-type"); contentType != "" {
		r.contentType = contentType
	}
	generation := r.generation
	r.mu.Unlock()

	r.emit(EventCanPlay)
	r.emit(EventPlay)
	go r.pump(streamCtx, generation, res.Body)
	return nil
}

// pump copies audio from the upstream body to listeners until the body ends, fails,
// or the relay is paused
func (r *Relay) pump(ctx context.Context, generation int, body io.ReadCloser) {
	defer body.Close()

	buf := make([]byte, relayChunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			r.broadcast(chunk)
		}
		if err == nil {
			continue
		}

		if ctx.Err() != nil {
			// Paused deliberately; Pause has already updated state
			return
		}
		r.mu.Lock()
		if r.generation != generation {
			r.mu.Unlock()
			return
		}
		r.paused = true
		r.cancel = nil
		ev := EventError
		if errors.Is(err, io.EOF) {
			r.ended = true
			ev = EventEnded
		}
		r.mu.Unlock()

		if ev == EventError {
			logging.With("relay").Error().Err(err).Msg("live stream read failed")
		}
		r.emit(ev)
		return
	}
}

func (r *Relay) broadcast(chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.muted {
		return
	}
	for ch := range r.listeners {
		select {
		case ch <- chunk:
		default:
		}
	}
}

func (r *Relay) Pause() {
	r.mu.Lock()
	if r.paused {
		r.mu.Unlock()
		return
	}
	r.paused = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()
	r.emit(EventPause)
}

func (r *Relay) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

func (r *Relay) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// SetVolume records the volume; relayed audio is passed through unscaled and the
// value is applied by each listener's own audio element
func (r *Relay) SetVolume(volume float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = volume
}

// SetMuted stops (or resumes) passing audio to listeners; the upstream stays open
func (r *Relay) SetMuted(muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted = muted
}

func (r *Relay) OnEvent(fn func(ev Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvent = fn
}

// ContentType returns the media type of the upstream stream
func (r *Relay) ContentType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contentType
}

// Listen registers a new listener: audio chunks are delivered to the returned channel
// until the returned function is called. Chunks are dropped for listeners that fall
// behind.
func (r *Relay) Listen() (<-chan []byte, func()) {
	ch := make(chan []byte, 64)
	r.mu.Lock()
	r.listeners[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, ch)
			r.mu.Unlock()
		})
	}
}

func (r *Relay) emit(ev Event) {
	r.mu.Lock()
	fn := r.onEvent
	r.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

var _ Element = (*Relay)(nil)
