package metadata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Message is a now-playing update pushed by the stream host. Every field is
// optional.
type Message struct {
	StreamTitle string `json:"streamTitle,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Title       string `json:"title,omitempty"`
	Song        string `json:"song,omitempty"`
	Track       string `json:"track,omitempty"`
}

// Parse decodes the data payload of a metadata event. Only a payload that isn't a
// JSON object is an error: fields of any other type are rendered as text, and empty,
// zero, false or null fields are treated as absent.
func Parse(data []byte) (Message, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return Message{}, fmt.Errorf("failed to parse metadata payload: %w", err)
	}
	return Message{
		StreamTitle: text(fields["streamTitle"]),
		Artist:      text(fields["artist"]),
		Title:       text(fields["title"]),
		Song:        text(fields["song"]),
		Track:       text(fields["track"]),
	}, nil
}

// text renders a decoded JSON value for display; objects have no useful text
func text(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "true"
		}
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = text(item)
		}
		return strings.Join(parts, ",")
	}
	return ""
}

// Program returns the name of the show currently on air, if the message names one.
// The stream host encodes spaces as underscores.
func (m Message) Program() (string, bool) {
	if m.StreamTitle == "" {
		return "", false
	}
	return strings.TrimSpace(strings.ReplaceAll(m.StreamTitle, "_", " ")), true
}

// TrackLabel returns a display label for the track currently playing, preferring
// "artist - title" and then falling back to title, song and track in turn
func (m Message) TrackLabel() (string, bool) {
	switch {
	case m.Artist != "" && m.Title != "":
		return m.Artist + " - " + m.Title, true
	case m.Title != "":
		return m.Title, true
	case m.Song != "":
		return m.Song, true
	case m.Track != "":
		return m.Track, true
	}
	return "", false
}
