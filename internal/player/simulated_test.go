package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JStephens858/amperfyHack/internal/catalog"
	"github.com/JStephens858/amperfyHack/internal/protocol"
)

func testQueue() []catalog.Song {
	return []catalog.Song{
		{ID: "s1", Title: "First", DurationSeconds: 100},
		{ID: "s2", Title: "Second", DurationSeconds: 100},
		{ID: "s3", Title: "Third", DurationSeconds: 100},
	}
}

func TestPlayStartsAtClampedIndex(t *testing.T) {
	p := NewSimulated()

	ctx := Context{Kind: protocol.ScopePlaylist, ID: "pl-9", Name: "Test Mix"}
	p.Play(testQueue(), 7, ctx)
	song, ok := p.CurrentSong()
	require.True(t, ok)
	assert.Equal(t, "s3", song.ID, "index past the end clamps to the last song")
	assert.True(t, p.IsPlaying())
	assert.Equal(t, ctx, p.Context())

	p.Play(testQueue(), -2, Context{})
	song, _ = p.CurrentSong()
	assert.Equal(t, "s1", song.ID, "negative index clamps to the first song")
}

func TestPlayEmptyCandidatesIsNoOp(t *testing.T) {
	p := NewSimulated()
	p.Play(nil, 0, Context{})
	_, ok := p.CurrentSong()
	assert.False(t, ok)
	assert.False(t, p.IsPlaying())
}

func TestNextPreviousWrap(t *testing.T) {
	p := NewSimulated()
	p.Play(testQueue(), 0, Context{})

	p.Previous()
	song, _ := p.CurrentSong()
	assert.Equal(t, "s3", song.ID)

	p.Next()
	song, _ = p.CurrentSong()
	assert.Equal(t, "s1", song.ID)
}

func TestToggleAndNotifications(t *testing.T) {
	p := NewSimulated()
	var changes int
	p.OnPlaybackChanged(func() { changes++ })

	p.Play(testQueue(), 0, Context{})
	p.TogglePlayPause()
	assert.False(t, p.IsPlaying())
	p.TogglePlayPause()
	assert.True(t, p.IsPlaying())

	assert.Equal(t, 3, changes)
}

func TestToggleWithoutQueueIsNoOp(t *testing.T) {
	p := NewSimulated()
	p.TogglePlayPause()
	assert.False(t, p.IsPlaying())
}
