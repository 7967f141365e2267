package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JStephens858/amperfyHack/internal/protocol"
)

func TestSampleLibraryShape(t *testing.T) {
	lib := Sample()

	assert.Len(t, lib.Playlists(), 7)
	assert.Len(t, lib.Artists(), 4)
	assert.Len(t, lib.Albums(), 8)
	assert.Len(t, lib.Songs(), 23)
}

func TestFindByID(t *testing.T) {
	lib := Sample()

	pl, ok := lib.PlaylistByID("pl-3")
	require.True(t, ok)
	assert.Equal(t, "Road Trip Mix", pl.Name)

	ar, ok := lib.ArtistByID("ar-2")
	require.True(t, ok)
	assert.Equal(t, "Pink Floyd", ar.Name)
	assert.Equal(t, 6, ar.SongCount())

	al, ok := lib.AlbumByID("al-4")
	require.True(t, ok)
	assert.Equal(t, "The Wall", al.Name)

	_, ok = lib.PlaylistByID("pl-99")
	assert.False(t, ok)
}

func TestSongsIn(t *testing.T) {
	lib := Sample()

	songs, ok := lib.SongsIn(protocol.ScopeAlbum, "al-1")
	require.True(t, ok)
	require.Len(t, songs, 3)
	assert.Equal(t, "Come Together", songs[0].Title)

	songs, ok = lib.SongsIn(protocol.ScopeArtist, "ar-1")
	require.True(t, ok)
	assert.Len(t, songs, 6)

	songs, ok = lib.SongsIn(protocol.ScopePlaylist, "pl-1")
	require.True(t, ok)
	assert.Len(t, songs, 5)

	_, ok = lib.SongsIn(protocol.ScopeAlbum, "nope")
	assert.False(t, ok)

	_, ok = lib.SongsIn(protocol.ScopeNone, "al-1")
	assert.False(t, ok)
}
