// Package protocol implements the JSON wire envelope and pagination for the
// Amperfy display link. Every frame exchanged over the BLE characteristic pair
// is one Envelope, serialized to at most MaxEnvelopeBytes.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MaxEnvelopeBytes is the transport cap for one serialized envelope. BLE
// notifications on the display link are limited to a 512-byte MTU payload.
const MaxEnvelopeBytes = 512

// MessageKind identifies the envelope type. The vocabulary is closed and
// versioned; both peers must agree on the exact strings.
type MessageKind string

const (
	// Telemetry, pushed by the host on playback transitions.
	KindSongStarted      MessageKind = "songStarted"
	KindSongStopped      MessageKind = "songStopped"
	KindPlaybackProgress MessageKind = "playbackProgress"

	// Library queries, sent by the display.
	KindQueryPlaylists     MessageKind = "queryPlaylists"
	KindQueryArtists       MessageKind = "queryArtists"
	KindQueryAlbums        MessageKind = "queryAlbums"
	KindQuerySongs         MessageKind = "querySongs"
	KindQueryPlaylistSongs MessageKind = "queryPlaylistSongs"
	KindQueryArtistSongs   MessageKind = "queryArtistSongs"
	KindQueryAlbumSongs    MessageKind = "queryAlbumSongs"

	// Playback commands, sent by the display.
	KindPlaySong  MessageKind = "playSong"
	KindPlayPause MessageKind = "playPause"
	KindNextSong  MessageKind = "nextSong"
	KindPrevSong  MessageKind = "prevSong"

	// Paginated query responses.
	KindPlaylistsResponse MessageKind = "playlistsResponse"
	KindArtistsResponse   MessageKind = "artistsResponse"
	KindAlbumsResponse    MessageKind = "albumsResponse"
	KindSongsResponse     MessageKind = "songsResponse"

	KindError MessageKind = "error"
)

var knownKinds = map[MessageKind]bool{
	KindSongStarted:        true,
	KindSongStopped:        true,
	KindPlaybackProgress:   true,
	KindQueryPlaylists:     true,
	KindQueryArtists:       true,
	KindQueryAlbums:        true,
	KindQuerySongs:         true,
	KindQueryPlaylistSongs: true,
	KindQueryArtistSongs:   true,
	KindQueryAlbumSongs:    true,
	KindPlaySong:           true,
	KindPlayPause:          true,
	KindNextSong:           true,
	KindPrevSong:           true,
	KindPlaylistsResponse:  true,
	KindArtistsResponse:    true,
	KindAlbumsResponse:     true,
	KindSongsResponse:      true,
	KindError:              true,
}

// Known reports whether k is part of the protocol vocabulary.
func (k MessageKind) Known() bool { return knownKinds[k] }

var (
	// ErrTooLarge is returned by Encode when the serialized envelope would
	// exceed MaxEnvelopeBytes. The frame must not be sent truncated.
	ErrTooLarge = errors.New("protocol: envelope exceeds transport cap")

	// ErrMalformed is returned by Decode for anything that is not a valid
	// envelope: bad JSON, an unknown type, or a missing timestamp.
	ErrMalformed = errors.New("protocol: malformed envelope")
)

// ErrUnknownKind is returned by Decode for a well-formed envelope whose type
// is outside the vocabulary. It wraps ErrMalformed, but callers match it
// first: unknown kinds are dropped without a reply so the vocabulary can grow
// without older peers flooding newer ones.
var ErrUnknownKind = fmt.Errorf("%w: unknown envelope type", ErrMalformed)

// Envelope is the top-level wire record. Payload holds the nested structured
// object for the kind (see payloads.go); it is embedded as JSON, never as a
// re-encoded string, to keep escaping overhead out of the size cap.
type Envelope struct {
	Type      MessageKind     `json:"type"`
	Timestamp float64         `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope builds an envelope of the given kind with the current time and
// the payload marshaled in place. A nil payload produces an envelope without
// a payload field.
func NewEnvelope(kind MessageKind, payload any) (Envelope, error) {
	return NewEnvelopeAt(kind, float64(time.Now().UnixNano())/1e9, payload)
}

// NewEnvelopeAt is NewEnvelope with an explicit unix-seconds timestamp.
func NewEnvelopeAt(kind MessageKind, ts float64, payload any) (Envelope, error) {
	env := Envelope{Type: kind, Timestamp: ts}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("protocol: marshal %s payload: %w", kind, err)
		}
		env.Payload = raw
	}
	return env, nil
}

// DecodePayload unmarshals the nested payload into v.
func (e Envelope) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w: %s envelope has no payload", ErrMalformed, e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformed, e.Type, err)
	}
	return nil
}

// Encode serializes the envelope and enforces the transport cap. It fails
// closed: an oversized envelope is never returned for transmission.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", env.Type, err)
	}
	if len(data) > MaxEnvelopeBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, env.Type, len(data))
	}
	return data, nil
}

// Decode parses a wire envelope. Unknown types and missing timestamps surface
// ErrMalformed rather than a partial envelope; callers log and drop these.
func Decode(data []byte) (Envelope, error) {
	var raw struct {
		Type      MessageKind     `json:"type"`
		Timestamp *float64        `json:"timestamp"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !raw.Type.Known() {
		return Envelope{}, fmt.Errorf("%w %q", ErrUnknownKind, raw.Type)
	}
	if raw.Timestamp == nil {
		return Envelope{}, fmt.Errorf("%w: missing timestamp", ErrMalformed)
	}
	return Envelope{Type: raw.Type, Timestamp: *raw.Timestamp, Payload: raw.Payload}, nil
}
