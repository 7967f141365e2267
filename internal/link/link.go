// Package link is the engine façade. It wires the BLE session, the message
// dispatcher, and the telemetry publisher into one object the host
// application starts, stops, and observes.
package link

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JStephens858/amperfyHack/internal/ble"
	"github.com/JStephens858/amperfyHack/internal/catalog"
	"github.com/JStephens858/amperfyHack/internal/dispatch"
	"github.com/JStephens858/amperfyHack/internal/player"
	"github.com/JStephens858/amperfyHack/internal/protocol"
	"github.com/JStephens858/amperfyHack/internal/session"
	"github.com/JStephens858/amperfyHack/internal/settings"
	"github.com/JStephens858/amperfyHack/internal/telemetry"
)

// Deps are the collaborators a Link is assembled from. Adapter and Store are
// required; Library and Player may be nil, in which case the dispatcher
// answers the corresponding requests with error envelopes.
type Deps struct {
	Adapter ble.Adapter
	Library catalog.Library
	Player  player.Player
	Store   settings.Store
	Logger  *slog.Logger
}

// Options tunes the link's timers.
type Options struct {
	Session          session.Options
	ProgressInterval time.Duration
	PageDelay        time.Duration
}

// DefaultOptions returns the production timer values.
func DefaultOptions() Options {
	return Options{
		Session:          session.DefaultOptions(),
		ProgressInterval: 250 * time.Millisecond,
		PageDelay:        50 * time.Millisecond,
	}
}

// Link owns one display connection end to end.
type Link struct {
	session    *session.Session
	dispatcher *dispatch.Dispatcher
	publisher  *telemetry.Publisher
	log        *slog.Logger
	store      settings.Store
}

// New assembles a link from its collaborators. Nothing runs until Start.
func New(deps Deps, opts Options) (*Link, error) {
	if deps.Adapter == nil {
		return nil, errors.New("link: a BLE adapter is required")
	}
	if deps.Store == nil {
		return nil, errors.New("link: a settings store is required")
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	sess := session.New(deps.Adapter, deps.Store, opts.Session, log)
	disp := dispatch.New(deps.Library, deps.Player, sess, opts.PageDelay, log)
	sess.OnData(disp.Handle)

	l := &Link{
		session:    sess,
		dispatcher: disp,
		log:        log,
		store:      deps.Store,
	}
	if deps.Player != nil {
		l.publisher = telemetry.New(deps.Player, sess, opts.ProgressInterval, log)
	}
	return l, nil
}

// Start brings the session event loop up and begins publishing telemetry.
// A persisted peer with auto-reconnect enabled is dialed immediately.
func (l *Link) Start() error {
	if err := l.session.Start(); err != nil {
		return fmt.Errorf("link: start session: %w", err)
	}
	if l.publisher != nil {
		l.publisher.Start()
	}
	return nil
}

// Close stops telemetry and tears the session down.
func (l *Link) Close() {
	if l.publisher != nil {
		l.publisher.Stop()
	}
	_ = l.session.Close()
}

// Connect scans for a display and establishes the session.
func (l *Link) Connect() error { return l.session.Connect() }

// Disconnect tears the session down and forgets the persisted peer.
func (l *Link) Disconnect() { l.session.Disconnect() }

// State returns the current session state.
func (l *Link) State() session.State { return l.session.State() }

// Peer returns the connected display, if any.
func (l *Link) Peer() (ble.Device, bool) { return l.session.Peer() }

// OnStateChange registers the session-state observer.
func (l *Link) OnStateChange(fn func(session.State)) { l.session.OnStateChange(fn) }

// OnTelemetry registers the observer for telemetry arriving FROM the peer.
func (l *Link) OnTelemetry(fn func(protocol.MessageKind, protocol.Telemetry)) {
	l.dispatcher.OnTelemetry(fn)
}

// OnPlaylists registers the observer for inbound playlist pages.
func (l *Link) OnPlaylists(fn func(protocol.PlaylistsPage)) { l.dispatcher.OnPlaylists(fn) }

// OnArtists registers the observer for inbound artist pages.
func (l *Link) OnArtists(fn func(protocol.ArtistsPage)) { l.dispatcher.OnArtists(fn) }

// OnAlbums registers the observer for inbound album pages.
func (l *Link) OnAlbums(fn func(protocol.AlbumsPage)) { l.dispatcher.OnAlbums(fn) }

// OnSongs registers the observer for inbound song pages.
func (l *Link) OnSongs(fn func(protocol.SongsPage)) { l.dispatcher.OnSongs(fn) }

// OnError registers the observer for error envelopes raised by the peer.
func (l *Link) OnError(fn func(protocol.ErrorReport)) { l.dispatcher.OnError(fn) }

// Send serializes one envelope of the given kind and transmits it. It is the
// host-initiated counterpart of the dispatcher's query answering; the reply
// pages arrive through the On* observers.
func (l *Link) Send(kind protocol.MessageKind, payload any) error {
	env, err := protocol.NewEnvelope(kind, payload)
	if err != nil {
		return err
	}
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	return l.session.Send(data)
}

// QuerySongsIn asks the peer for the songs of one scoped collection.
func (l *Link) QuerySongsIn(kind protocol.ScopeKind, id string) error {
	var msg protocol.MessageKind
	switch kind {
	case protocol.ScopePlaylist:
		msg = protocol.KindQueryPlaylistSongs
	case protocol.ScopeArtist:
		msg = protocol.KindQueryArtistSongs
	case protocol.ScopeAlbum:
		msg = protocol.KindQueryAlbumSongs
	default:
		return fmt.Errorf("link: scope kind %q cannot be queried", kind)
	}
	return l.Send(msg, protocol.ScopedQuery{ID: id})
}

// RememberSelection persists the browse position for one collection kind so
// both peers resume on the same screen after a reconnect.
func (l *Link) RememberSelection(kind protocol.ScopeKind, index int) error {
	st, err := l.store.Load()
	if err != nil {
		return fmt.Errorf("link: load settings: %w", err)
	}
	switch kind {
	case protocol.ScopePlaylist:
		st.LastPlaylistIndex = index
	case protocol.ScopeArtist:
		st.LastArtistIndex = index
	case protocol.ScopeAlbum:
		st.LastAlbumIndex = index
	default:
		return fmt.Errorf("link: scope kind %q has no selection", kind)
	}
	if err := l.store.Save(st); err != nil {
		return fmt.Errorf("link: save settings: %w", err)
	}
	return nil
}

// Selection returns the persisted browse position for one collection kind.
func (l *Link) Selection(kind protocol.ScopeKind) (int, error) {
	st, err := l.store.Load()
	if err != nil {
		return 0, fmt.Errorf("link: load settings: %w", err)
	}
	switch kind {
	case protocol.ScopePlaylist:
		return st.LastPlaylistIndex, nil
	case protocol.ScopeArtist:
		return st.LastArtistIndex, nil
	case protocol.ScopeAlbum:
		return st.LastAlbumIndex, nil
	default:
		return 0, fmt.Errorf("link: scope kind %q has no selection", kind)
	}
}
