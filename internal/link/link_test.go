package link

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JStephens858/amperfyHack/internal/ble"
	"github.com/JStephens858/amperfyHack/internal/catalog"
	"github.com/JStephens858/amperfyHack/internal/player"
	"github.com/JStephens858/amperfyHack/internal/protocol"
	"github.com/JStephens858/amperfyHack/internal/session"
	"github.com/JStephens858/amperfyHack/internal/settings"
)

type fakeCharacteristic struct {
	mu       sync.Mutex
	writes   [][]byte
	callback func([]byte)
}

func (c *fakeCharacteristic) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	c.writes = append(c.writes, cp)
	return nil
}

func (c *fakeCharacteristic) Subscribe(cb func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = cb
	return nil
}

func (c *fakeCharacteristic) notify(data []byte) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()
	if cb != nil {
		cb(data)
	}
}

func (c *fakeCharacteristic) written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

type fakeConnection struct {
	rx *fakeCharacteristic
	tx *fakeCharacteristic
}

func (c *fakeConnection) DiscoverCharacteristic(_, charUUID string) (ble.Characteristic, error) {
	switch charUUID {
	case ble.RXCharUUID:
		return c.rx, nil
	case ble.TXCharUUID:
		return c.tx, nil
	}
	return nil, fmt.Errorf("unknown characteristic %q", charUUID)
}

func (c *fakeConnection) Disconnect() error   { return nil }
func (c *fakeConnection) OnDisconnect(func()) {}

type fakeAdapter struct {
	conn *fakeConnection
}

func (a *fakeAdapter) Enable() error { return nil }

func (a *fakeAdapter) Scan(context.Context, string) ([]ble.Device, error) {
	return []ble.Device{{Name: "AmperfyDisplay", Address: "AA:BB:CC:DD:EE:FF", RSSI: -50}}, nil
}

func (a *fakeAdapter) Connect(context.Context, string) (ble.Connection, error) {
	return a.conn, nil
}

func newTestLink(t *testing.T) (*Link, *fakeConnection) {
	t.Helper()
	conn := &fakeConnection{rx: &fakeCharacteristic{}, tx: &fakeCharacteristic{}}
	opts := DefaultOptions()
	opts.Session = session.Options{ScanTimeout: time.Second, ReconnectAttempts: 1, ReconnectDelay: 5 * time.Millisecond}
	opts.PageDelay = 0
	opts.ProgressInterval = time.Hour // keep the cadence ticker quiet

	l, err := New(Deps{
		Adapter: &fakeAdapter{conn: conn},
		Library: catalog.Sample(),
		Player:  player.NewSimulated(),
		Store:   settings.NewMemoryStore(),
	}, opts)
	require.NoError(t, err)
	return l, conn
}

func waitReady(t *testing.T, l *Link) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if l.State() == session.StateReady {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("link state = %v, want ready", l.State())
}

func TestNewRequiresAdapterAndStore(t *testing.T) {
	_, err := New(Deps{Store: settings.NewMemoryStore()}, DefaultOptions())
	assert.Error(t, err)

	_, err = New(Deps{Adapter: &fakeAdapter{}}, DefaultOptions())
	assert.Error(t, err)
}

func TestDisplayQueryIsAnsweredOverTheLink(t *testing.T) {
	l, conn := newTestLink(t)
	defer l.Close()

	require.NoError(t, l.Start())
	require.NoError(t, l.Connect())
	waitReady(t, l)

	query, err := protocol.Encode(mustEnvelope(t, protocol.KindQueryPlaylists, nil))
	require.NoError(t, err)
	conn.tx.notify(query)

	// The sample catalog has 7 playlists, which pages as 4 + 3.
	var envs []protocol.Envelope
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		envs = envs[:0]
		for _, w := range conn.rx.written() {
			env, err := protocol.Decode(w)
			require.NoError(t, err)
			envs = append(envs, env)
		}
		if len(envs) >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Len(t, envs, 2)

	var first protocol.PlaylistsPage
	require.Equal(t, protocol.KindPlaylistsResponse, envs[0].Type)
	require.NoError(t, envs[0].DecodePayload(&first))
	assert.Len(t, first.Items, 4)
	assert.Equal(t, 2, first.TotalPages)
}

func TestSendDeliversEnvelopeToPeer(t *testing.T) {
	l, conn := newTestLink(t)
	defer l.Close()

	require.NoError(t, l.Start())
	require.NoError(t, l.Connect())
	waitReady(t, l)

	require.NoError(t, l.QuerySongsIn(protocol.ScopeAlbum, "al-1"))

	writes := conn.rx.written()
	require.NotEmpty(t, writes)
	env, err := protocol.Decode(writes[len(writes)-1])
	require.NoError(t, err)
	assert.Equal(t, protocol.KindQueryAlbumSongs, env.Type)

	var q protocol.ScopedQuery
	require.NoError(t, env.DecodePayload(&q))
	assert.Equal(t, "al-1", q.ID)
}

func TestSendWhileDisconnectedFails(t *testing.T) {
	l, _ := newTestLink(t)
	defer l.Close()
	require.NoError(t, l.Start())

	err := l.Send(protocol.KindQueryArtists, nil)
	assert.ErrorIs(t, err, session.ErrNotReady)
}

func TestSelectionRoundTrip(t *testing.T) {
	l, _ := newTestLink(t)
	defer l.Close()

	require.NoError(t, l.RememberSelection(protocol.ScopeArtist, 3))
	got, err := l.Selection(protocol.ScopeArtist)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = l.Selection(protocol.ScopePlaylist)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	_, err = l.Selection(protocol.ScopeNone)
	assert.Error(t, err)
}

func mustEnvelope(t *testing.T, kind protocol.MessageKind, payload any) protocol.Envelope {
	t.Helper()
	env, err := protocol.NewEnvelopeAt(kind, 1700000000, payload)
	require.NoError(t, err)
	return env
}
