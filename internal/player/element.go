package player

import "context"

// Event is a notification emitted by an Element as its playback state changes
type Event string

const (
	EventPlay      Event = "play"
	EventPause     Event = "pause"
	EventEnded     Event = "ended"
	EventError     Event = "error"
	EventLoadStart Event = "loadstart"
	EventCanPlay   Event = "canplay"
)

// Element is the single playable resource behind the player. Implementations must be
// safe for concurrent use and must not call the event handler while holding locks
// that their other methods acquire.
type Element interface {
	// Play starts playback; it fails if the resource could not be started, in which
	// case the element remains paused
	Play(ctx context.Context) error
	// Pause stops playback; it is a no-op if already paused
	Pause()
	Paused() bool
	Ended() bool
	SetVolume(volume float64)
	SetMuted(muted bool)
	// OnEvent registers the function that receives every event the element emits,
	// replacing any previously-registered function
	OnEvent(fn func(ev Event))
}
