// Package player defines the playback collaborator the engine drives and
// observes, plus a simulated implementation for running without a real
// audio backend.
package player

import (
	"github.com/JStephens858/amperfyHack/internal/catalog"
	"github.com/JStephens858/amperfyHack/internal/protocol"
)

// Context identifies the collection playback was started from. The zero
// value means playback runs over the full catalog. Kind and ID travel on
// telemetry frames; Name is for display and logs only.
type Context struct {
	Kind protocol.ScopeKind
	ID   string
	Name string
}

// IsScoped reports whether the context names a real collection.
func (c Context) IsScoped() bool {
	return c.Kind != "" && c.Kind != protocol.ScopeNone && c.ID != ""
}

// Player is the playback surface consumed by the dispatcher and the
// telemetry publisher.
type Player interface {
	// CurrentSong returns the active song, or false before the first play.
	CurrentSong() (catalog.Song, bool)
	IsPlaying() bool
	ElapsedSeconds() int
	DurationSeconds() int

	// Context identifies the collection playback was started from; the
	// zero value means the full catalog.
	Context() Context

	// Play replaces the queue with candidates and starts at startIndex.
	Play(candidates []catalog.Song, startIndex int, ctx Context)
	TogglePlayPause()
	Next()
	Previous()
}

// Notifier is implemented by players that push playback-change
// notifications. Players without push support are observed by polling; the
// telemetry publisher never assumes which mechanism is active.
type Notifier interface {
	OnPlaybackChanged(func())
}
