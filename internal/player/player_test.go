package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/radioconexion/site/internal/metadata"
)

func Test_New(t *testing.T) {
	el := &mockElement{paused: true}
	p := New(el, Config{})

	assert.Equal(t, State{
		Playing:     false,
		Muted:       false,
		Volume:      0.7,
		CurrentShow: "Conexión Musical en Vivo",
		CurrentSong: "Música Latina - Éxitos del Momento",
		Listeners:   2847,
	}, p.State())
	assert.Equal(t, 0.7, el.getVolume())
	assert.False(t, el.getMuted())
	assert.Equal(t, el, p.Element())
}

func Test_Shared(t *testing.T) {
	a := Shared(Config{StreamURL: "http://example.invalid/a"})
	b := Shared(Config{StreamURL: "http://example.invalid/b"})
	assert.Same(t, a, b)
	assert.Same(t, a.Element(), b.Element())
}

func Test_Player_TogglePlay(t *testing.T) {
	t.Run("paused element starts playing", func(t *testing.T) {
		el := &mockElement{paused: true}
		p := New(el, Config{})

		err := p.TogglePlay(context.Background())
		assert.NoError(t, err)
		assert.True(t, p.State().Playing)
		assert.Equal(t, 1, el.playCalls)
	})
	t.Run("rejected play leaves the player paused", func(t *testing.T) {
		el := &mockElement{paused: true, playErr: errors.New("autoplay blocked")}
		p := New(el, Config{})

		err := p.TogglePlay(context.Background())
		assert.ErrorContains(t, err, "autoplay blocked")
		assert.False(t, p.State().Playing)
		assert.True(t, el.Paused())
	})
	t.Run("playing element is paused", func(t *testing.T) {
		el := &mockElement{paused: true}
		p := New(el, Config{})
		assert.NoError(t, p.TogglePlay(context.Background()))

		err := p.TogglePlay(context.Background())
		assert.NoError(t, err)
		assert.False(t, p.State().Playing)
		assert.True(t, el.Paused())
		assert.Equal(t, 1, el.pauseCalls)
	})
}

func Test_Player_elementEvents(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
	}{
		{"ended", EventEnded},
		{"error", EventError},
		{"pause", EventPause},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := &mockElement{paused: true}
			p := New(el, Config{})
			assert.NoError(t, p.TogglePlay(context.Background()))
			assert.True(t, p.State().Playing)

			el.fire(tt.ev)
			assert.False(t, p.State().Playing)
		})
	}
	t.Run("loadstart re-syncs from the element", func(t *testing.T) {
		el := &mockElement{paused: true}
		p := New(el, Config{})
		el.setPaused(false)
		el.fire(EventLoadStart)
		assert.True(t, p.State().Playing)

		el.setEnded(true)
		el.fire(EventCanPlay)
		assert.False(t, p.State().Playing)
	})
}

func Test_Player_SetVolume(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{0.3, 0.3},
		{-1, 0},
		{1.5, 1},
	}
	for _, tt := range tests {
		el := &mockElement{paused: true}
		p := New(el, Config{})
		p.SetMuted(true)

		state := p.SetVolume(tt.input)
		assert.Equal(t, tt.want, state.Volume)
		assert.Equal(t, tt.want, el.getVolume())
		assert.True(t, el.getMuted(), "volume and mute are applied together")
	}
}

func Test_Player_ToggleMute(t *testing.T) {
	el := &mockElement{paused: true}
	p := New(el, Config{})

	state := p.ToggleMute()
	assert.True(t, state.Muted)
	assert.True(t, el.getMuted())
	assert.Equal(t, 0.7, state.Volume)

	state = p.ToggleMute()
	assert.False(t, state.Muted)
	assert.False(t, el.getMuted())
}

func Test_Player_ApplyMetadata(t *testing.T) {
	p := New(&mockElement{paused: true}, Config{})

	state := p.ApplyMetadata(metadata.Message{StreamTitle: "Tarde_Latina", Artist: "X", Title: "Y", Song: "Z"})
	assert.Equal(t, "Tarde Latina", state.CurrentShow)
	assert.Equal(t, "X - Y", state.CurrentSong)

	state = p.ApplyMetadata(metadata.Message{Song: "Z"})
	assert.Equal(t, "Tarde Latina", state.CurrentShow)
	assert.Equal(t, "Z", state.CurrentSong)

	state = p.ApplyMetadata(metadata.Message{})
	assert.Equal(t, "Tarde Latina", state.CurrentShow)
	assert.Equal(t, "Z", state.CurrentSong)
}

func Test_Player_Updates(t *testing.T) {
	p := New(&mockElement{paused: true}, Config{})
	p.AdjustListeners(3)
	p.AdjustListeners(0)
	p.SetVolume(0.5)

	assert.Equal(t, 2850, (<-p.Updates()).Listeners)
	assert.Equal(t, 0.5, (<-p.Updates()).Volume)
	select {
	case s := <-p.Updates():
		t.Fatalf("unexpected update %+v", s)
	case <-time.After(5 * time.Millisecond):
	}
}

type mockElement struct {
	paused  bool
	ended   bool
	volume  float64
	muted   bool
	playErr error
	onEvent func(ev Event)

	playCalls  int
	pauseCalls int
	mu         sync.Mutex
}

func (m *mockElement) Play(ctx context.Context) error {
	m.mu.Lock()
	m.playCalls++
	if m.playErr != nil {
		m.mu.Unlock()
		m.fire(EventError)
		return m.playErr
	}
	m.paused = false
	m.ended = false
	m.mu.Unlock()
	m.fire(EventPlay)
	return nil
}

func (m *mockElement) Pause() {
	m.mu.Lock()
	m.pauseCalls++
	m.paused = true
	m.mu.Unlock()
	m.fire(EventPause)
}

func (m *mockElement) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *mockElement) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

func (m *mockElement) SetVolume(volume float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
}

func (m *mockElement) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

func (m *mockElement) OnEvent(fn func(ev Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvent = fn
}

func (m *mockElement) fire(ev Event) {
	m.mu.Lock()
	fn := m.onEvent
	m.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (m *mockElement) setPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = paused
}

func (m *mockElement) setEnded(ended bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended = ended
}

func (m *mockElement) getVolume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *mockElement) getMuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

var _ Element = (*mockElement)(nil)
