// Package dispatch routes decoded envelopes between the display and the
// host's catalog and player. Inbound queries are answered from the library,
// inbound commands drive the player, and inbound telemetry or responses are
// fanned in to registered callbacks.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JStephens858/amperfyHack/internal/catalog"
	"github.com/JStephens858/amperfyHack/internal/player"
	"github.com/JStephens858/amperfyHack/internal/protocol"
)

// Sender is the outbound frame gate, satisfied by *session.Session.
type Sender interface {
	Send(data []byte) error
}

// Dispatcher owns message routing for one link. All handler work runs on the
// caller's goroutine; ordering within a multi-page response is guaranteed by
// sending the pages sequentially before returning.
type Dispatcher struct {
	library   catalog.Library
	player    player.Player
	sender    Sender
	pageDelay time.Duration
	log       *slog.Logger

	onTelemetry func(protocol.MessageKind, protocol.Telemetry)
	onPlaylists func(protocol.PlaylistsPage)
	onArtists   func(protocol.ArtistsPage)
	onAlbums    func(protocol.AlbumsPage)
	onSongs     func(protocol.SongsPage)
	onError     func(protocol.ErrorReport)
}

// New creates a dispatcher. library and player may be nil; queries and
// commands then answer with NO_STORAGE and NO_PLAYER errors instead of
// failing silently. pageDelay spaces consecutive pages of one response so a
// slow display can drain its notification queue.
func New(library catalog.Library, p player.Player, sender Sender, pageDelay time.Duration, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		library:   library,
		player:    p,
		sender:    sender,
		pageDelay: pageDelay,
		log:       log,
	}
}

// OnTelemetry registers the callback for inbound telemetry envelopes.
func (d *Dispatcher) OnTelemetry(fn func(protocol.MessageKind, protocol.Telemetry)) {
	d.onTelemetry = fn
}

// OnPlaylists registers the callback for inbound playlistsResponse pages.
func (d *Dispatcher) OnPlaylists(fn func(protocol.PlaylistsPage)) { d.onPlaylists = fn }

// OnArtists registers the callback for inbound artistsResponse pages.
func (d *Dispatcher) OnArtists(fn func(protocol.ArtistsPage)) { d.onArtists = fn }

// OnAlbums registers the callback for inbound albumsResponse pages.
func (d *Dispatcher) OnAlbums(fn func(protocol.AlbumsPage)) { d.onAlbums = fn }

// OnSongs registers the callback for inbound songsResponse pages.
func (d *Dispatcher) OnSongs(fn func(protocol.SongsPage)) { d.onSongs = fn }

// OnError registers the callback for inbound error envelopes.
func (d *Dispatcher) OnError(fn func(protocol.ErrorReport)) { d.onError = fn }

// Handle processes one inbound frame. It never returns an error: every
// failure either becomes an error envelope back to the peer or a log line.
func (d *Dispatcher) Handle(data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		// An unknown kind gets no reply; a newer peer's vocabulary must not
		// trigger error traffic. Only genuinely broken frames are answered.
		if errors.Is(err, protocol.ErrUnknownKind) {
			d.log.Debug("[Dispatch] ignoring unknown kind", "error", err)
			return
		}
		d.log.Warn("[Dispatch] dropping malformed frame", "error", err, "size", len(data))
		d.sendError(protocol.CodeInvalidMessage, "malformed envelope")
		return
	}

	switch env.Type {
	case protocol.KindQueryPlaylists:
		d.answerPlaylists()
	case protocol.KindQueryArtists:
		d.answerArtists()
	case protocol.KindQueryAlbums:
		d.answerAlbums()
	case protocol.KindQuerySongs:
		d.answerSongs(protocol.Scope{Kind: protocol.ScopeNone})
	case protocol.KindQueryPlaylistSongs:
		d.answerScopedSongs(env, protocol.ScopePlaylist)
	case protocol.KindQueryArtistSongs:
		d.answerScopedSongs(env, protocol.ScopeArtist)
	case protocol.KindQueryAlbumSongs:
		d.answerScopedSongs(env, protocol.ScopeAlbum)

	case protocol.KindPlaySong:
		d.handlePlaySong(env)
	case protocol.KindPlayPause:
		if d.requirePlayer() {
			d.player.TogglePlayPause()
		}
	case protocol.KindNextSong:
		if d.requirePlayer() {
			d.player.Next()
		}
	case protocol.KindPrevSong:
		if d.requirePlayer() {
			d.player.Previous()
		}

	case protocol.KindSongStarted, protocol.KindSongStopped, protocol.KindPlaybackProgress:
		d.fanInTelemetry(env)
	case protocol.KindPlaylistsResponse:
		fanIn(d, env, d.onPlaylists)
	case protocol.KindArtistsResponse:
		fanIn(d, env, d.onArtists)
	case protocol.KindAlbumsResponse:
		fanIn(d, env, d.onAlbums)
	case protocol.KindSongsResponse:
		fanIn(d, env, d.onSongs)
	case protocol.KindError:
		d.fanInError(env)

	default:
		// Known kind with no handler on this side of the link.
		d.log.Debug("[Dispatch] ignoring unhandled kind", "type", env.Type)
	}
}

func (d *Dispatcher) answerPlaylists() {
	if !d.requireLibrary() {
		return
	}
	playlists := d.library.Playlists()
	items := make([]protocol.PlaylistInfo, 0, len(playlists))
	for _, p := range playlists {
		items = append(items, protocol.PlaylistInfo{
			ID:        p.ID,
			Name:      protocol.TruncateName(p.Name),
			SongCount: len(p.Songs),
		})
	}
	sendPages(d, protocol.KindPlaylistsResponse, protocol.Paginate(items, protocol.PlaylistsPerPage),
		func(pg protocol.Page[protocol.PlaylistInfo]) any {
			return protocol.PlaylistsPage{Items: pg.Items, Page: pg.Page, TotalPages: pg.TotalPages}
		})
}

func (d *Dispatcher) answerArtists() {
	if !d.requireLibrary() {
		return
	}
	artists := d.library.Artists()
	items := make([]protocol.ArtistInfo, 0, len(artists))
	for _, a := range artists {
		items = append(items, protocol.ArtistInfo{
			ID:         a.ID,
			Name:       protocol.TruncateName(a.Name),
			AlbumCount: len(a.Albums),
			SongCount:  a.SongCount(),
		})
	}
	sendPages(d, protocol.KindArtistsResponse, protocol.Paginate(items, protocol.ArtistsPerPage),
		func(pg protocol.Page[protocol.ArtistInfo]) any {
			return protocol.ArtistsPage{Items: pg.Items, Page: pg.Page, TotalPages: pg.TotalPages}
		})
}

func (d *Dispatcher) answerAlbums() {
	if !d.requireLibrary() {
		return
	}
	albums := d.library.Albums()
	items := make([]protocol.AlbumInfo, 0, len(albums))
	for _, a := range albums {
		items = append(items, protocol.AlbumInfo{
			ID:        a.ID,
			Name:      protocol.TruncateName(a.Name),
			Artist:    protocol.TruncateName(a.Artist),
			SongCount: len(a.Songs),
			Year:      a.Year,
		})
	}
	sendPages(d, protocol.KindAlbumsResponse, protocol.Paginate(items, protocol.AlbumsPerPage),
		func(pg protocol.Page[protocol.AlbumInfo]) any {
			return protocol.AlbumsPage{Items: pg.Items, Page: pg.Page, TotalPages: pg.TotalPages}
		})
}

// answerSongs pages out a song list. A scoped answer stamps the scope onto
// the first page only; the receiver reassembles the rest by page number.
func (d *Dispatcher) answerSongs(scope protocol.Scope) {
	if !d.requireLibrary() {
		return
	}

	var songs []catalog.Song
	if scope.Kind == protocol.ScopeNone {
		songs = d.library.Songs()
	} else {
		var ok bool
		songs, ok = d.library.SongsIn(scope.Kind, scope.ID)
		if !ok {
			d.sendError(scopeNotFoundCode(scope.Kind), fmt.Sprintf("%s %q not found", scope.Kind, scope.ID))
			return
		}
	}

	items := make([]protocol.SongInfo, 0, len(songs))
	for _, s := range songs {
		items = append(items, songInfo(s))
	}
	sendPages(d, protocol.KindSongsResponse, protocol.Paginate(items, protocol.SongsPerPage),
		func(pg protocol.Page[protocol.SongInfo]) any {
			page := protocol.SongsPage{Items: pg.Items, Page: pg.Page, TotalPages: pg.TotalPages}
			if scope.Kind != protocol.ScopeNone && pg.Page == 1 {
				page.ContextKind = scope.Kind
				page.ContextID = scope.ID
			}
			return page
		})
}

func (d *Dispatcher) answerScopedSongs(env protocol.Envelope, kind protocol.ScopeKind) {
	// A recognized kind with an undecodable payload is dropped, not answered;
	// only whole-frame decode failures earn an error envelope.
	var q protocol.ScopedQuery
	if err := env.DecodePayload(&q); err != nil {
		d.log.Warn("[Dispatch] bad scoped query payload, ignoring", "type", env.Type, "error", err)
		return
	}
	d.answerSongs(protocol.Scope{Kind: kind, ID: q.ID})
}

// handlePlaySong resolves the command's candidate list and start position.
// The scope picks the list (full catalog without one), the song id picks the
// position, and a missing id falls back to the clamped index hint.
func (d *Dispatcher) handlePlaySong(env protocol.Envelope) {
	if !d.requirePlayer() || !d.requireLibrary() {
		return
	}

	var cmd protocol.PlayCommand
	if err := env.DecodePayload(&cmd); err != nil {
		d.log.Warn("[Dispatch] bad playSong payload, ignoring", "error", err)
		return
	}

	candidates := d.library.Songs()
	var playCtx player.Context
	if cmd.Context != nil {
		var ok bool
		candidates, ok = d.library.SongsIn(cmd.Context.Kind, cmd.Context.ID)
		if !ok {
			d.sendError(scopeNotFoundCode(cmd.Context.Kind), fmt.Sprintf("%s %q not found", cmd.Context.Kind, cmd.Context.ID))
			return
		}
		playCtx = player.Context{
			Kind: cmd.Context.Kind,
			ID:   cmd.Context.ID,
			Name: d.scopeName(*cmd.Context),
		}
	}
	if len(candidates) == 0 {
		d.sendError(protocol.CodeSongNotFound, "no songs to play in the requested context")
		return
	}

	start := -1
	for i, s := range candidates {
		if s.ID == cmd.SongID {
			start = i
			break
		}
	}
	if start < 0 {
		start = 0
		if cmd.Index != nil {
			start = min(max(*cmd.Index, 0), len(candidates)-1)
		}
	}

	d.log.Info("[Dispatch] playSong", "song", cmd.SongID, "context", playCtx.Name, "index", start)
	d.player.Play(candidates, start, playCtx)
}

func (d *Dispatcher) scopeName(scope protocol.Scope) string {
	switch scope.Kind {
	case protocol.ScopePlaylist:
		if p, ok := d.library.PlaylistByID(scope.ID); ok {
			return p.Name
		}
	case protocol.ScopeArtist:
		if a, ok := d.library.ArtistByID(scope.ID); ok {
			return a.Name
		}
	case protocol.ScopeAlbum:
		if a, ok := d.library.AlbumByID(scope.ID); ok {
			return a.Name
		}
	}
	return ""
}

func (d *Dispatcher) fanInTelemetry(env protocol.Envelope) {
	if d.onTelemetry == nil {
		return
	}
	var tel protocol.Telemetry
	if err := env.DecodePayload(&tel); err != nil {
		d.log.Warn("[Dispatch] bad telemetry payload", "type", env.Type, "error", err)
		return
	}
	d.onTelemetry(env.Type, tel)
}

func (d *Dispatcher) fanInError(env protocol.Envelope) {
	if d.onError == nil {
		return
	}
	var report protocol.ErrorReport
	if err := env.DecodePayload(&report); err != nil {
		d.log.Warn("[Dispatch] bad error payload", "error", err)
		return
	}
	d.onError(report)
}

// fanIn decodes a response payload and delivers it to cb when one is set.
func fanIn[T any](d *Dispatcher, env protocol.Envelope, cb func(T)) {
	if cb == nil {
		return
	}
	var page T
	if err := env.DecodePayload(&page); err != nil {
		d.log.Warn("[Dispatch] bad response payload", "type", env.Type, "error", err)
		return
	}
	cb(page)
}

// sendPages serializes and transmits one page per envelope, in order, with
// the configured delay between consecutive pages. An encode overflow aborts
// the remaining pages and reports MESSAGE_TOO_LARGE; a send failure aborts
// quietly since the remaining pages would fail the same way.
func sendPages[T any](d *Dispatcher, kind protocol.MessageKind, pages []protocol.Page[T], payload func(protocol.Page[T]) any) {
	for i, pg := range pages {
		if i > 0 && d.pageDelay > 0 {
			time.Sleep(d.pageDelay)
		}
		env, err := protocol.NewEnvelope(kind, payload(pg))
		if err != nil {
			d.log.Error("[Dispatch] build page", "type", kind, "page", pg.Page, "error", err)
			return
		}
		data, err := protocol.Encode(env)
		if err != nil {
			if errors.Is(err, protocol.ErrTooLarge) {
				d.log.Error("[Dispatch] page exceeds transport cap", "type", kind, "page", pg.Page)
				d.sendError(protocol.CodeMessageTooLarge, fmt.Sprintf("%s page %d exceeds the transport cap", kind, pg.Page))
			} else {
				d.log.Error("[Dispatch] encode page", "type", kind, "page", pg.Page, "error", err)
			}
			return
		}
		if err := d.sender.Send(data); err != nil {
			d.log.Warn("[Dispatch] abandoning response", "type", kind, "page", pg.Page, "error", err)
			return
		}
	}
}

func (d *Dispatcher) requireLibrary() bool {
	if d.library != nil {
		return true
	}
	d.sendError(protocol.CodeNoStorage, "no library is attached")
	return false
}

func (d *Dispatcher) requirePlayer() bool {
	if d.player != nil {
		return true
	}
	d.sendError(protocol.CodeNoPlayer, "no player is attached")
	return false
}

func (d *Dispatcher) sendError(code protocol.ErrorCode, msg string) {
	env, err := protocol.NewEnvelope(protocol.KindError, protocol.ErrorReport{Code: code, Message: msg})
	if err != nil {
		d.log.Error("[Dispatch] build error envelope", "code", code, "error", err)
		return
	}
	data, err := protocol.Encode(env)
	if err != nil {
		d.log.Error("[Dispatch] encode error envelope", "code", code, "error", err)
		return
	}
	if err := d.sender.Send(data); err != nil {
		d.log.Warn("[Dispatch] error envelope not sent", "code", code, "error", err)
	}
}

func scopeNotFoundCode(kind protocol.ScopeKind) protocol.ErrorCode {
	switch kind {
	case protocol.ScopePlaylist:
		return protocol.CodePlaylistNotFound
	case protocol.ScopeArtist:
		return protocol.CodeArtistNotFound
	case protocol.ScopeAlbum:
		return protocol.CodeAlbumNotFound
	default:
		return protocol.CodeUnknownQuery
	}
}

func songInfo(s catalog.Song) protocol.SongInfo {
	return protocol.SongInfo{
		ID:              s.ID,
		Title:           protocol.TruncateTitle(s.Title),
		Artist:          protocol.TruncateName(s.Artist),
		Album:           protocol.TruncateName(s.Album),
		DurationSeconds: s.DurationSeconds,
		Track:           s.Track,
	}
}
