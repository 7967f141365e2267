package protocol

// ScopeKind narrows a songs query or playback context to one collection type.
type ScopeKind string

const (
	ScopeNone     ScopeKind = "none"
	ScopePlaylist ScopeKind = "playlist"
	ScopeArtist   ScopeKind = "artist"
	ScopeAlbum    ScopeKind = "album"
)

// Scope is the (kind, id) pair identifying a playlist, artist, or album.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   string    `json:"id"`
}

// Telemetry is the payload of songStarted, songStopped, and playbackProgress
// envelopes. It is built fresh on every playback transition and never stored.
type Telemetry struct {
	SongID          string    `json:"songId"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist,omitempty"`
	Album           string    `json:"album,omitempty"`
	DurationSeconds int       `json:"durationSeconds"`
	ElapsedSeconds  int       `json:"elapsedSeconds"`
	IsPlaying       bool      `json:"isPlaying"`
	ContextKind     ScopeKind `json:"contextKind,omitempty"`
	ContextID       string    `json:"contextId,omitempty"`
}

// ScopedQuery is the payload of queryPlaylistSongs, queryArtistSongs, and
// queryAlbumSongs envelopes.
type ScopedQuery struct {
	ID string `json:"id"`
}

// PlayCommand is the playSong payload. Context and Index are both optional:
// the candidate list comes from Context when present (the full catalog
// otherwise), the target song is located by SongID within it, and Index is
// the clamped fallback position when the id is absent.
type PlayCommand struct {
	SongID  string `json:"songId"`
	Context *Scope `json:"context,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

// PlaylistInfo is one playlist entry in a playlistsResponse page.
type PlaylistInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SongCount int    `json:"songCount"`
}

// ArtistInfo is one artist entry in an artistsResponse page.
type ArtistInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AlbumCount int    `json:"albumCount"`
	SongCount  int    `json:"songCount"`
}

// AlbumInfo is one album entry in an albumsResponse page.
type AlbumInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	SongCount int    `json:"songCount"`
	Year      int    `json:"year,omitempty"`
}

// SongInfo is one song entry in a songsResponse page.
type SongInfo struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist,omitempty"`
	Album           string `json:"album,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
	Track           int    `json:"track,omitempty"`
}

// PlaylistsPage is the playlistsResponse payload.
type PlaylistsPage struct {
	Items      []PlaylistInfo `json:"items"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

// ArtistsPage is the artistsResponse payload.
type ArtistsPage struct {
	Items      []ArtistInfo `json:"items"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
}

// AlbumsPage is the albumsResponse payload.
type AlbumsPage struct {
	Items      []AlbumInfo `json:"items"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

// SongsPage is the songsResponse payload. ContextKind and ContextID are set
// on the first page of a scoped response only, so a multi-page receiver can
// reassemble the scope without it being repeated per page.
type SongsPage struct {
	Items       []SongInfo `json:"items"`
	Page        int        `json:"page"`
	TotalPages  int        `json:"totalPages"`
	ContextKind ScopeKind  `json:"contextKind,omitempty"`
	ContextID   string     `json:"contextId,omitempty"`
}

// ErrorCode is the stable machine-readable code in an error envelope.
type ErrorCode string

const (
	CodeMessageTooLarge  ErrorCode = "MESSAGE_TOO_LARGE"
	CodeInvalidMessage   ErrorCode = "INVALID_MESSAGE"
	CodeNoStorage        ErrorCode = "NO_STORAGE"
	CodeNoPlayer         ErrorCode = "NO_PLAYER"
	CodePlaylistNotFound ErrorCode = "PLAYLIST_NOT_FOUND"
	CodeArtistNotFound   ErrorCode = "ARTIST_NOT_FOUND"
	CodeAlbumNotFound    ErrorCode = "ALBUM_NOT_FOUND"
	CodeSongNotFound     ErrorCode = "SONG_NOT_FOUND"
	CodeUnknownQuery     ErrorCode = "UNKNOWN_QUERY"
)

// ErrorReport is the error envelope payload. Handler failures always become
// one of these on the wire; nothing in the engine raises a fatal condition.
type ErrorReport struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
