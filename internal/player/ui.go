package player

import (
	"encoding/base64"
	"encoding/json"
	"math"

	"github.com/radioconexion/site/internal/session"
)

// ScrollThreshold is the smallest scroll movement, in pixels, that shows or hides the
// player bar
const ScrollThreshold = 10

// uiStateKey is the visitor store key under which UI flags persist between pages
const uiStateKey = "player_ui"

// UIState holds the purely visual flags of a visitor's player bar. None of them have
// any effect on playback.
type UIState struct {
	Collapsed      bool    `json:"collapsed"`
	HiddenByScroll bool    `json:"hiddenByScroll"`
	Expanded       bool    `json:"expanded"`
	LastScroll     float64 `json:"lastScroll"`
}

// Visible reports whether the bottom bar occupies space on the page
func (u UIState) Visible() bool {
	return !u.HiddenByScroll && !u.Collapsed && !u.Expanded
}

// Collapse hides the bar until Show is called
func (u *UIState) Collapse() {
	u.Collapsed = true
}

// Show brings the bar back, whether it was collapsed or hidden by scrolling
func (u *UIState) Show() {
	u.Collapsed = false
	u.HiddenByScroll = false
}

// ToggleExpanded opens or closes the full-screen player
func (u *UIState) ToggleExpanded() {
	u.Expanded = !u.Expanded
}

// Scroll records the page's new scroll offset: scrolling down by more than the
// threshold hides the bar, scrolling up by more than the threshold reveals it.
// Smaller movements are ignored and do not move the reference point.
func (u *UIState) Scroll(offset float64) {
	delta := offset - u.LastScroll
	if math.Abs(delta) <= ScrollThreshold {
		return
	}
	u.HiddenByScroll = delta > 0
	u.LastScroll = offset
}

// LoadUIState reads a visitor's UI flags, falling back to the zero value
func LoadUIState(store session.Store) UIState {
	var u UIState
	raw, ok := store.Get(uiStateKey)
	if !ok {
		return u
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return UIState{}
	}
	if err := json.Unmarshal(data, &u); err != nil {
		return UIState{}
	}
	return u
}

// SaveUIState persists a visitor's UI flags, encoded so as to be cookie-safe
func SaveUIState(store session.Store, u UIState) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return store.Set(uiStateKey, base64.RawURLEncoding.EncodeToString(data))
}
