package dispatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JStephens858/amperfyHack/internal/catalog"
	"github.com/JStephens858/amperfyHack/internal/player"
	"github.com/JStephens858/amperfyHack/internal/protocol"
)

type captureSender struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (s *captureSender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.frames = append(s.frames, cp)
	return nil
}

func (s *captureSender) envelopes(t *testing.T) []protocol.Envelope {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.Envelope, 0, len(s.frames))
	for _, f := range s.frames {
		env, err := protocol.Decode(f)
		require.NoError(t, err)
		out = append(out, env)
	}
	return out
}

type playCall struct {
	candidates []catalog.Song
	startIndex int
	ctx        player.Context
}

// recordingPlayer records dispatcher-driven calls without any playback.
type recordingPlayer struct {
	plays   []playCall
	toggles int
	nexts   int
	prevs   int
}

func (p *recordingPlayer) CurrentSong() (catalog.Song, bool) { return catalog.Song{}, false }
func (p *recordingPlayer) IsPlaying() bool                   { return false }
func (p *recordingPlayer) ElapsedSeconds() int               { return 0 }
func (p *recordingPlayer) DurationSeconds() int              { return 0 }
func (p *recordingPlayer) Context() player.Context           { return player.Context{} }
func (p *recordingPlayer) TogglePlayPause()                  { p.toggles++ }
func (p *recordingPlayer) Next()                             { p.nexts++ }
func (p *recordingPlayer) Previous()                         { p.prevs++ }

func (p *recordingPlayer) Play(candidates []catalog.Song, startIndex int, ctx player.Context) {
	p.plays = append(p.plays, playCall{candidates, startIndex, ctx})
}

// testLibrary places song s9 third on album al-3 so position resolution can
// be asserted against a known index.
func testLibrary() *catalog.Memory {
	artists := []catalog.Artist{
		{
			ID:   "ar-1",
			Name: "The Testers",
			Albums: []catalog.Album{
				{
					ID: "al-3", Name: "Greatest Hits", Artist: "The Testers", Year: 1999,
					Songs: []catalog.Song{
						{ID: "s7", Title: "Opening Act", Artist: "The Testers", Album: "Greatest Hits", DurationSeconds: 180, Track: 1},
						{ID: "s8", Title: "Second Wind", Artist: "The Testers", Album: "Greatest Hits", DurationSeconds: 200, Track: 2},
						{ID: "s9", Title: "Third Time Lucky", Artist: "The Testers", Album: "Greatest Hits", DurationSeconds: 220, Track: 3},
						{ID: "s10", Title: "Closer", Artist: "The Testers", Album: "Greatest Hits", DurationSeconds: 240, Track: 4},
					},
				},
			},
		},
	}
	playlists := []catalog.Playlist{
		{ID: "pl-1", Name: "Morning"},
		{ID: "pl-2", Name: "Commute"},
		{ID: "pl-3", Name: "Focus"},
		{ID: "pl-4", Name: "Workout"},
		{ID: "pl-5", Name: "Dinner"},
		{ID: "pl-6", Name: "Evening"},
		{ID: "pl-7", Name: "Sleep"},
	}
	return catalog.NewMemory(artists, playlists)
}

func frame(t *testing.T, kind protocol.MessageKind, payload any) []byte {
	t.Helper()
	env, err := protocol.NewEnvelopeAt(kind, 1700000000, payload)
	require.NoError(t, err)
	data, err := protocol.Encode(env)
	require.NoError(t, err)
	return data
}

func TestQueryPlaylistsPagesBySize(t *testing.T) {
	sender := &captureSender{}
	d := New(testLibrary(), &recordingPlayer{}, sender, 0, nil)

	d.Handle(frame(t, protocol.KindQueryPlaylists, nil))

	envs := sender.envelopes(t)
	require.Len(t, envs, 2)

	var first, second protocol.PlaylistsPage
	require.Equal(t, protocol.KindPlaylistsResponse, envs[0].Type)
	require.NoError(t, envs[0].DecodePayload(&first))
	require.NoError(t, envs[1].DecodePayload(&second))

	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 2, first.TotalPages)
	assert.Len(t, first.Items, 4)
	assert.Equal(t, 2, second.Page)
	assert.Equal(t, 2, second.TotalPages)
	assert.Len(t, second.Items, 3)
	assert.Equal(t, "pl-5", second.Items[0].ID)
}

func TestQueryArtistsCarriesCounts(t *testing.T) {
	sender := &captureSender{}
	d := New(testLibrary(), &recordingPlayer{}, sender, 0, nil)

	d.Handle(frame(t, protocol.KindQueryArtists, nil))

	envs := sender.envelopes(t)
	require.Len(t, envs, 1)
	var page protocol.ArtistsPage
	require.NoError(t, envs[0].DecodePayload(&page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Items[0].AlbumCount)
	assert.Equal(t, 4, page.Items[0].SongCount)
}

func TestScopedSongsStampScopeOnFirstPageOnly(t *testing.T) {
	sender := &captureSender{}
	d := New(testLibrary(), &recordingPlayer{}, sender, 0, nil)

	d.Handle(frame(t, protocol.KindQueryAlbumSongs, protocol.ScopedQuery{ID: "al-3"}))

	envs := sender.envelopes(t)
	require.Len(t, envs, 2) // 4 songs, 2 per page

	var first, second protocol.SongsPage
	require.NoError(t, envs[0].DecodePayload(&first))
	require.NoError(t, envs[1].DecodePayload(&second))

	assert.Equal(t, protocol.ScopeAlbum, first.ContextKind)
	assert.Equal(t, "al-3", first.ContextID)
	assert.Empty(t, second.ContextKind)
	assert.Empty(t, second.ContextID)

	assert.Equal(t, "s7", first.Items[0].ID)
	assert.Equal(t, "s9", second.Items[0].ID)
}

func TestScopedSongsUnknownIDSendsSingleError(t *testing.T) {
	sender := &captureSender{}
	d := New(testLibrary(), &recordingPlayer{}, sender, 0, nil)

	d.Handle(frame(t, protocol.KindQueryPlaylistSongs, protocol.ScopedQuery{ID: "pl-404"}))

	envs := sender.envelopes(t)
	require.Len(t, envs, 1)
	require.Equal(t, protocol.KindError, envs[0].Type)

	var report protocol.ErrorReport
	require.NoError(t, envs[0].DecodePayload(&report))
	assert.Equal(t, protocol.CodePlaylistNotFound, report.Code)
}

func TestEmptyPlaylistAnswersOneEmptyPage(t *testing.T) {
	sender := &captureSender{}
	d := New(testLibrary(), &recordingPlayer{}, sender, 0, nil)

	d.Handle(frame(t, protocol.KindQueryPlaylistSongs, protocol.ScopedQuery{ID: "pl-1"}))

	envs := sender.envelopes(t)
	require.Len(t, envs, 1)
	require.Equal(t, protocol.KindSongsResponse, envs[0].Type)

	var page protocol.SongsPage
	require.NoError(t, envs[0].DecodePayload(&page))
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)
}

func TestPlaySongResolvesPositionInScope(t *testing.T) {
	sender := &captureSender{}
	p := &recordingPlayer{}
	d := New(testLibrary(), p, sender, 0, nil)

	d.Handle(frame(t, protocol.KindPlaySong, protocol.PlayCommand{
		SongID:  "s9",
		Context: &protocol.Scope{Kind: protocol.ScopeAlbum, ID: "al-3"},
	}))

	require.Len(t, p.plays, 1)
	call := p.plays[0]
	assert.Equal(t, 2, call.startIndex)
	assert.Equal(t, player.Context{Kind: protocol.ScopeAlbum, ID: "al-3", Name: "Greatest Hits"}, call.ctx)
	require.Len(t, call.candidates, 4)
	assert.Equal(t, "s9", call.candidates[2].ID)
	assert.Empty(t, sender.envelopes(t))
}

func TestPlaySongUnknownIDFallsBackToClampedIndex(t *testing.T) {
	p := &recordingPlayer{}
	d := New(testLibrary(), p, &captureSender{}, 0, nil)

	idx := 99
	d.Handle(frame(t, protocol.KindPlaySong, protocol.PlayCommand{
		SongID:  "s-unknown",
		Context: &protocol.Scope{Kind: protocol.ScopeAlbum, ID: "al-3"},
		Index:   &idx,
	}))

	require.Len(t, p.plays, 1)
	assert.Equal(t, 3, p.plays[0].startIndex)
}

func TestPlaySongWithoutContextUsesFullCatalog(t *testing.T) {
	p := &recordingPlayer{}
	d := New(testLibrary(), p, &captureSender{}, 0, nil)

	d.Handle(frame(t, protocol.KindPlaySong, protocol.PlayCommand{SongID: "s8"}))

	require.Len(t, p.plays, 1)
	assert.Equal(t, 1, p.plays[0].startIndex)
	assert.Equal(t, player.Context{}, p.plays[0].ctx)
	assert.Len(t, p.plays[0].candidates, 4)
}

func TestPlaySongEmptyContextReportsSongNotFound(t *testing.T) {
	sender := &captureSender{}
	p := &recordingPlayer{}
	d := New(testLibrary(), p, sender, 0, nil)

	d.Handle(frame(t, protocol.KindPlaySong, protocol.PlayCommand{
		SongID:  "s9",
		Context: &protocol.Scope{Kind: protocol.ScopePlaylist, ID: "pl-1"},
	}))

	assert.Empty(t, p.plays)
	envs := sender.envelopes(t)
	require.Len(t, envs, 1)
	var report protocol.ErrorReport
	require.NoError(t, envs[0].DecodePayload(&report))
	assert.Equal(t, protocol.CodeSongNotFound, report.Code)
}

func TestTransportControlsReachPlayer(t *testing.T) {
	p := &recordingPlayer{}
	d := New(testLibrary(), p, &captureSender{}, 0, nil)

	d.Handle(frame(t, protocol.KindPlayPause, nil))
	d.Handle(frame(t, protocol.KindNextSong, nil))
	d.Handle(frame(t, protocol.KindNextSong, nil))
	d.Handle(frame(t, protocol.KindPrevSong, nil))

	assert.Equal(t, 1, p.toggles)
	assert.Equal(t, 2, p.nexts)
	assert.Equal(t, 1, p.prevs)
}

func TestMissingCollaboratorsAnswerWithErrors(t *testing.T) {
	t.Run("no player", func(t *testing.T) {
		sender := &captureSender{}
		d := New(testLibrary(), nil, sender, 0, nil)
		d.Handle(frame(t, protocol.KindPlayPause, nil))

		envs := sender.envelopes(t)
		require.Len(t, envs, 1)
		var report protocol.ErrorReport
		require.NoError(t, envs[0].DecodePayload(&report))
		assert.Equal(t, protocol.CodeNoPlayer, report.Code)
	})

	t.Run("no library", func(t *testing.T) {
		sender := &captureSender{}
		d := New(nil, &recordingPlayer{}, sender, 0, nil)
		d.Handle(frame(t, protocol.KindQueryAlbums, nil))

		envs := sender.envelopes(t)
		require.Len(t, envs, 1)
		var report protocol.ErrorReport
		require.NoError(t, envs[0].DecodePayload(&report))
		assert.Equal(t, protocol.CodeNoStorage, report.Code)
	})
}

func TestUnknownKindIsIgnoredWithoutReply(t *testing.T) {
	sender := &captureSender{}
	d := New(testLibrary(), &recordingPlayer{}, sender, 0, nil)

	// A vocabulary the peer knows and we do not. No error traffic allowed.
	d.Handle([]byte(`{"type":"albumArtChunk","timestamp":1}`))
	d.Handle([]byte(`{"type":"queryGenres","timestamp":2,"payload":{"id":"g-1"}}`))

	assert.Empty(t, sender.envelopes(t))
}

func TestMalformedFrameAnswersInvalidMessage(t *testing.T) {
	sender := &captureSender{}
	d := New(testLibrary(), &recordingPlayer{}, sender, 0, nil)

	d.Handle([]byte(`{"type":"queryPlaylists"`))

	envs := sender.envelopes(t)
	require.Len(t, envs, 1)
	require.Equal(t, protocol.KindError, envs[0].Type)
	var report protocol.ErrorReport
	require.NoError(t, envs[0].DecodePayload(&report))
	assert.Equal(t, protocol.CodeInvalidMessage, report.Code)
}

func TestUndecodablePayloadOnKnownKindIsIgnored(t *testing.T) {
	sender := &captureSender{}
	p := &recordingPlayer{}
	d := New(testLibrary(), p, sender, 0, nil)

	d.Handle(frame(t, protocol.KindQueryAlbumSongs, "not-an-object"))
	d.Handle(frame(t, protocol.KindPlaySong, []int{1, 2, 3}))

	assert.Empty(t, p.plays)
	assert.Empty(t, sender.envelopes(t))
}

func TestInboundResponsesFanInToCallbacks(t *testing.T) {
	sender := &captureSender{}
	d := New(nil, nil, sender, 0, nil)

	var pages []protocol.PlaylistsPage
	d.OnPlaylists(func(p protocol.PlaylistsPage) { pages = append(pages, p) })

	var reports []protocol.ErrorReport
	d.OnError(func(r protocol.ErrorReport) { reports = append(reports, r) })

	var telemetry []protocol.MessageKind
	d.OnTelemetry(func(kind protocol.MessageKind, _ protocol.Telemetry) {
		telemetry = append(telemetry, kind)
	})

	d.Handle(frame(t, protocol.KindPlaylistsResponse, protocol.PlaylistsPage{
		Items: []protocol.PlaylistInfo{{ID: "pl-1", Name: "Morning", SongCount: 3}}, Page: 1, TotalPages: 1,
	}))
	d.Handle(frame(t, protocol.KindError, protocol.ErrorReport{Code: protocol.CodeUnknownQuery, Message: "nope"}))
	d.Handle(frame(t, protocol.KindSongStarted, protocol.Telemetry{SongID: "s1", Title: "Come Together", IsPlaying: true}))

	require.Len(t, pages, 1)
	assert.Equal(t, "pl-1", pages[0].Items[0].ID)
	require.Len(t, reports, 1)
	assert.Equal(t, protocol.CodeUnknownQuery, reports[0].Code)
	assert.Equal(t, []protocol.MessageKind{protocol.KindSongStarted}, telemetry)

	// Fan-in frames never generate traffic back to the peer.
	assert.Empty(t, sender.envelopes(t))
}

func TestResponsesWithoutCallbacksAreIgnored(t *testing.T) {
	sender := &captureSender{}
	d := New(nil, nil, sender, 0, nil)

	d.Handle(frame(t, protocol.KindSongsResponse, protocol.SongsPage{Items: []protocol.SongInfo{}, Page: 1, TotalPages: 1}))
	d.Handle(frame(t, protocol.KindSongStopped, protocol.Telemetry{SongID: "s1", Title: "Come Together"}))

	assert.Empty(t, sender.envelopes(t))
}
