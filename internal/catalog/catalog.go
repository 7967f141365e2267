// Package catalog holds the queryable music library the dispatcher answers
// from. The engine only depends on the Library interface; the in-memory
// implementation carries a hardcoded sample set.
package catalog

import "github.com/JStephens858/amperfyHack/internal/protocol"

// Song is one playable track.
type Song struct {
	ID              string
	Title           string
	Artist          string
	Album           string
	DurationSeconds int
	Track           int
}

// Album groups songs under one artist, in track order.
type Album struct {
	ID     string
	Name   string
	Artist string
	Year   int
	Songs  []Song
}

// Artist groups albums.
type Artist struct {
	ID     string
	Name   string
	Albums []Album
}

// SongCount returns the number of songs across all of the artist's albums.
func (a Artist) SongCount() int {
	n := 0
	for _, al := range a.Albums {
		n += len(al.Songs)
	}
	return n
}

// Playlist is an ordered, user-curated song list.
type Playlist struct {
	ID    string
	Name  string
	Songs []Song
}

// Library is the catalog collaborator consumed by the dispatcher.
type Library interface {
	Playlists() []Playlist
	Artists() []Artist
	Albums() []Album
	Songs() []Song

	// SongsIn resolves the songs of the scoped collection. The second
	// return value reports whether the scope id exists.
	SongsIn(kind protocol.ScopeKind, id string) ([]Song, bool)

	PlaylistByID(id string) (Playlist, bool)
	ArtistByID(id string) (Artist, bool)
	AlbumByID(id string) (Album, bool)
}

// Memory is an immutable in-process Library.
type Memory struct {
	playlists []Playlist
	artists   []Artist
	albums    []Album
	songs     []Song
}

// NewMemory indexes the given collections. Albums and songs are derived from
// the artist tree so the flat views stay consistent with the nested one.
func NewMemory(artists []Artist, playlists []Playlist) *Memory {
	m := &Memory{artists: artists, playlists: playlists}
	for _, ar := range artists {
		for _, al := range ar.Albums {
			m.albums = append(m.albums, al)
			m.songs = append(m.songs, al.Songs...)
		}
	}
	return m
}

func (m *Memory) Playlists() []Playlist { return m.playlists }
func (m *Memory) Artists() []Artist     { return m.artists }
func (m *Memory) Albums() []Album       { return m.albums }
func (m *Memory) Songs() []Song         { return m.songs }

func (m *Memory) PlaylistByID(id string) (Playlist, bool) {
	for _, p := range m.playlists {
		if p.ID == id {
			return p, true
		}
	}
	return Playlist{}, false
}

func (m *Memory) ArtistByID(id string) (Artist, bool) {
	for _, a := range m.artists {
		if a.ID == id {
			return a, true
		}
	}
	return Artist{}, false
}

func (m *Memory) AlbumByID(id string) (Album, bool) {
	for _, a := range m.albums {
		if a.ID == id {
			return a, true
		}
	}
	return Album{}, false
}

func (m *Memory) SongsIn(kind protocol.ScopeKind, id string) ([]Song, bool) {
	switch kind {
	case protocol.ScopePlaylist:
		if p, ok := m.PlaylistByID(id); ok {
			return p.Songs, true
		}
	case protocol.ScopeArtist:
		if a, ok := m.ArtistByID(id); ok {
			var songs []Song
			for _, al := range a.Albums {
				songs = append(songs, al.Songs...)
			}
			return songs, true
		}
	case protocol.ScopeAlbum:
		if a, ok := m.AlbumByID(id); ok {
			return a.Songs, true
		}
	}
	return nil, false
}

var _ Library = (*Memory)(nil)
