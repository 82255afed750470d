// Package player owns the station's live audio player.
//
// There is exactly one player per process. It outlives any individual browser: a
// browser "mounts" the player by opening its event stream, and unmounting (closing
// that stream) tears down only that browser's metadata subscription and listener
// simulation. Playback continues regardless of how many browsers are mounted.
package player

import (
	"context"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/radioconexion/site/internal/logging"
	"github.com/radioconexion/site/internal/metadata"
	"github.com/radioconexion/site/internal/metrics"
)

const (
	DefaultVolume    = 0.7
	DefaultShow      = "Conexión Musical en Vivo"
	DefaultSong      = "Música Latina - Éxitos del Momento"
	DefaultListeners = 2847

	// DefaultListenerInterval is how often the displayed listener count drifts
	DefaultListenerInterval = 5 * time.Second
)

// Config identifies the station's stream and metadata channel
type Config struct {
	StreamURL   string `env:"STREAM_URL" default:"https://stream-170.zeno.fm/yxynr8zy71zuv?zs=CBt9_4NJR0S-g7RGQMMwYA"`
	MetadataURL string `env:"METADATA_URL" default:"https://api.zeno.fm/mounts/metadata/subscribe/2t6pyzccd78uv"`

	// MetadataClient is used for metadata subscriptions; http.DefaultClient if nil
	MetadataClient *http.Client
	// ListenerInterval overrides DefaultListenerInterval
	ListenerInterval time.Duration
}

// State is everything a player UI displays
type State struct {
	Playing     bool    `json:"playing"`
	Muted       bool    `json:"muted"`
	Volume      float64 `json:"volume"`
	CurrentShow string  `json:"currentShow"`
	CurrentSong string  `json:"currentSong"`
	Listeners   int     `json:"listeners"`
}

// Player tracks the state of the shared Element and keeps it consistent with what
// the UI shows
type Player struct {
	element Element

	metadataURL      string
	metadataClient   *http.Client
	listenerInterval time.Duration
	listenerDelta    func() int

	state   State
	mu      sync.Mutex
	toggle  sync.Mutex
	updates chan State
}

var (
	shared     *Player
	sharedOnce sync.Once
)

// Shared returns the process-wide player, creating it (and its stream relay) on first
// use. Later calls ignore cfg.
func Shared(cfg Config) *Player {
	sharedOnce.Do(func() {
		url := cfg.StreamURL
		if url == "" {
			url = DefaultStreamURL
		}
		shared = New(NewRelay(url, nil), cfg)
	})
	return shared
}

// New returns a player driving the given element. Most callers want Shared; New
// exists so that tests can supply their own element.
func New(element Element, cfg Config) *Player {
	metadataURL := cfg.MetadataURL
	if metadataURL == "" {
		metadataURL = metadata.DefaultURL
	}
	listenerInterval := cfg.ListenerInterval
	if listenerInterval <= 0 {
		listenerInterval = DefaultListenerInterval
	}
	p := &Player{
		element:          element,
		metadataURL:      metadataURL,
		metadataClient:   cfg.MetadataClient,
		listenerInterval: listenerInterval,
		listenerDelta:    func() int { return rand.Intn(10) - 5 },
		state: State{
			Volume:      DefaultVolume,
			CurrentShow: DefaultShow,
			CurrentSong: DefaultSong,
			Listeners:   DefaultListeners,
		},
		updates: make(chan State, 32),
	}
	element.SetVolume(p.state.Volume)
	element.SetMuted(p.state.Muted)
	element.OnEvent(p.handleEvent)
	return p
}

// Element returns the playable resource behind the player
func (p *Player) Element() Element {
	return p.element
}

// State returns a snapshot of the player's current state
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Updates yields a snapshot every time the state changes. Snapshots are dropped if
// the channel is not drained.
func (p *Player) Updates() <-chan State {
	return p.updates
}

// TogglePlay pauses the element if it is playing, or attempts to start it. The
// player only reports playing once the element has actually started: if Play fails,
// the player stays paused and the error is returned so the caller can log it.
func (p *Player) TogglePlay(ctx context.Context) error {
	p.toggle.Lock()
	defer p.toggle.Unlock()

	log := logging.With("player")
	if p.element.Paused() {
		log.Debug().Msg("attempting to play audio")
		if err := p.element.Play(ctx); err != nil {
			p.setPlaying(false)
			metrics.PlaybackToggles.WithLabelValues("rejected").Inc()
			return err
		}
		p.setPlaying(true)
		metrics.PlaybackToggles.WithLabelValues("playing").Inc()
		return nil
	}

	log.Debug().Msg("pausing audio")
	p.element.Pause()
	p.setPlaying(false)
	metrics.PlaybackToggles.WithLabelValues("paused").Inc()
	return nil
}

// SetVolume sets the volume, clamped to [0, 1]
func (p *Player) SetVolume(volume float64) State {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	return p.update(func(s *State) {
		s.Volume = volume
	}, true)
}

// SetMuted mutes or unmutes without changing the volume
func (p *Player) SetMuted(muted bool) State {
	return p.update(func(s *State) {
		s.Muted = muted
	}, true)
}

// ToggleMute flips the muted flag
func (p *Player) ToggleMute() State {
	return p.update(func(s *State) {
		s.Muted = !s.Muted
	}, true)
}

// ApplyMetadata updates the current show and song from a metadata message. Fields
// the message doesn't carry leave the displayed values as they are.
func (p *Player) ApplyMetadata(m metadata.Message) State {
	program, hasProgram := m.Program()
	label, hasLabel := m.TrackLabel()
	if !hasProgram && !hasLabel {
		return p.State()
	}
	metrics.MetadataUpdates.Inc()
	return p.update(func(s *State) {
		if hasProgram {
			s.CurrentShow = program
		}
		if hasLabel {
			s.CurrentSong = label
		}
	}, false)
}

// AdjustListeners changes the displayed listener count by delta. The count is
// decorative and is not kept from going negative.
func (p *Player) AdjustListeners(delta int) State {
	return p.update(func(s *State) {
		s.Listeners += delta
	}, false)
}

// syncPlaying re-derives the playing flag from the element itself
func (p *Player) syncPlaying() {
	p.setPlaying(!p.element.Paused() && !p.element.Ended())
}

func (p *Player) setPlaying(playing bool) {
	p.update(func(s *State) {
		s.Playing = playing
	}, false)
}

// update applies fn to the state and publishes the result if anything changed. When
// applyAudio is set, volume and mute are pushed to the element together.
func (p *Player) update(fn func(s *State), applyAudio bool) State {
	p.mu.Lock()
	before := p.state
	fn(&p.state)
	after := p.state
	if applyAudio {
		p.element.SetVolume(after.Volume)
		p.element.SetMuted(after.Muted)
	}
	p.mu.Unlock()

	if after != before {
		select {
		case p.updates <- after:
		default:
		}
	}
	return after
}

func (p *Player) handleEvent(ev Event) {
	log := logging.With("player")
	switch ev {
	case EventPlay:
		log.Info().Msg("audio started playing")
		p.setPlaying(true)
	case EventPause:
		log.Info().Msg("audio paused")
		p.setPlaying(false)
	case EventEnded:
		log.Info().Msg("audio ended")
		p.setPlaying(false)
	case EventError:
		log.Warn().Msg("audio error")
		p.setPlaying(false)
	case EventLoadStart, EventCanPlay:
		log.Debug().Str("event", string(ev)).Msg("audio loading")
		p.syncPlaying()
	}
}
