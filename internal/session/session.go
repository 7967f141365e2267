package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JStephens858/amperfyHack/internal/ble"
	"github.com/JStephens858/amperfyHack/internal/settings"
)

var (
	// ErrNotReady is returned by Send outside the Ready state. Frames are
	// dropped, never queued; stale telemetry is worse than none.
	ErrNotReady = errors.New("session: link not ready")

	// ErrBusy is returned by Connect while a session is already underway.
	ErrBusy = errors.New("session: already connecting or connected")

	// ErrLinkLost marks a disconnect reported by the transport.
	ErrLinkLost = errors.New("session: link lost")

	errNoDevices = errors.New("session: no display found")
)

// Options configures the session state machine.
type Options struct {
	DeviceName        string // advertisement name filter, empty matches any
	ScanTimeout       time.Duration
	ReconnectAttempts int // retries after an unexpected link loss
	ReconnectDelay    time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ScanTimeout:       30 * time.Second,
		ReconnectAttempts: 1,
		ReconnectDelay:    2 * time.Second,
	}
}

// Session is the connection state machine. All transitions run on one
// goroutine consuming the event queue; workers doing blocking BLE calls post
// their results back as events.
type Session struct {
	adapter ble.Adapter
	store   settings.Store
	opts    Options
	log     *slog.Logger

	events chan Event
	done   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	state    State
	conn     ble.Connection
	rx       ble.Characteristic
	peer     ble.Device
	userDisc bool
	attempts int // reconnect attempts since last Ready

	onData  func([]byte)
	onState func(State)
}

// New creates a session over the given adapter and settings store.
func New(adapter ble.Adapter, store settings.Store, opts Options, log *slog.Logger) *Session {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		adapter: adapter,
		store:   store,
		opts:    opts,
		log:     log.With("session", uuid.NewString()),
		events:  make(chan Event, 32),
		done:    make(chan struct{}),
	}
}

// OnData registers the inbound frame callback. Must be set before Start.
func (s *Session) OnData(fn func([]byte)) { s.onData = fn }

// OnStateChange registers a state transition callback. Must be set before
// Start.
func (s *Session) OnStateChange(fn func(State)) { s.onState = fn }

// Start runs the event loop and, when a peer is persisted with
// auto-reconnect enabled, dials it as soon as the adapter is powered.
func (s *Session) Start() error {
	go s.run()

	st, err := s.store.Load()
	if err != nil {
		s.log.Warn("[Session] settings unreadable, skipping auto-reconnect", "error", err)
		return nil
	}
	if !st.AutoReconnect || st.PeerID == "" {
		return nil
	}

	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("session: enable adapter: %w", err)
	}
	s.log.Info("[Session] auto-reconnecting to persisted peer", "peer", st.PeerName)
	s.post(connectRequest{address: st.PeerID, name: st.PeerName})
	return nil
}

// Connect starts a user-initiated scan and connect.
func (s *Session) Connect() error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return ErrBusy
	}
	s.mu.Unlock()

	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("session: enable adapter: %w", err)
	}
	s.post(connectRequest{})
	return nil
}

// Disconnect tears down the session on the user's request. The persisted
// peer is cleared first, so a racing link-loss event cannot reconnect.
func (s *Session) Disconnect() {
	s.post(disconnectRequest{user: true})
}

// Close stops the event loop and drops the link without clearing the
// persisted peer.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		conn := s.conn
		s.conn = nil
		s.rx = nil
		s.state = StateDisconnected
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Disconnect()
		}
		close(s.done)
	})
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Peer returns the connected device, valid while not Disconnected.
func (s *Session) Peer() (ble.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer, s.state != StateDisconnected
}

// Send writes one frame to the display. Outside Ready the frame is dropped
// with a warning, per the best-effort contract.
func (s *Session) Send(data []byte) error {
	s.mu.Lock()
	if s.state != StateReady {
		state := s.state
		s.mu.Unlock()
		s.log.Warn("[Session] dropping frame, link not ready", "state", state)
		return ErrNotReady
	}
	rx := s.rx
	s.mu.Unlock()

	if err := rx.Write(data); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	s.tryPost(WriteCompleted{})
	return nil
}

// post enqueues an event, blocking until the loop picks it up.
func (s *Session) post(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// tryPost enqueues an event but never blocks. Used from inside the handling
// path (e.g. write completions raised while the loop is busy dispatching).
func (s *Session) tryPost(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *Session) run() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.transition(ev)
		}
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	prev := s.state
	s.state = st
	fn := s.onState
	s.mu.Unlock()
	if prev != st {
		s.log.Debug("[Session] state", "from", prev, "to", st)
		if fn != nil {
			fn(st)
		}
	}
}

// transition is the single place session state changes. It runs on the
// event loop goroutine only.
func (s *Session) transition(ev Event) {
	switch ev := ev.(type) {

	case connectRequest:
		if s.State() != StateDisconnected {
			s.log.Warn("[Session] connect request ignored", "state", s.State())
			return
		}
		s.mu.Lock()
		s.userDisc = false
		s.mu.Unlock()
		if ev.address != "" {
			s.mu.Lock()
			s.peer = ble.Device{Name: ev.name, Address: ev.address}
			s.mu.Unlock()
			s.setState(StateConnecting)
			go s.dial(ev.address)
		} else {
			s.setState(StateScanning)
			go s.scan()
		}

	case Discovered:
		if s.State() != StateScanning {
			return
		}
		s.mu.Lock()
		s.peer = ev.Device
		s.mu.Unlock()
		s.log.Info("[Session] display found", "name", ev.Device.Name, "rssi", ev.Device.RSSI)
		s.setState(StateConnecting)
		go s.dial(ev.Device.Address)

	case Connected:
		if s.State() != StateConnecting {
			_ = ev.Conn.Disconnect()
			return
		}
		s.mu.Lock()
		s.conn = ev.Conn
		s.mu.Unlock()
		ev.Conn.OnDisconnect(func() {
			s.post(Disconnected{Err: ErrLinkLost})
		})
		s.setState(StateDiscoveringServices)
		go s.bind(ev.Conn)

	case ServicesDiscovered:
		if s.State() == StateDiscoveringServices {
			s.setState(StateDiscoveringCharacteristics)
		}

	case CharacteristicsFound:
		if s.State() != StateDiscoveringCharacteristics {
			return
		}
		s.mu.Lock()
		s.rx = ev.RX
		s.attempts = 0
		peer := s.peer
		s.mu.Unlock()
		s.persistPeer(peer)
		s.setState(StateReady)
		s.log.Info("[Session] ready", "peer", peer.Name, "address", peer.Address)

	case DataReceived:
		if s.onData != nil {
			s.onData(ev.Data)
		}

	case WriteCompleted:
		s.log.Debug("[Session] write completed")

	case Disconnected:
		s.handleDisconnect(ev.Err)

	case disconnectRequest:
		if ev.user {
			s.mu.Lock()
			s.userDisc = true
			s.mu.Unlock()
			s.clearPeer()
		}
		s.teardown()
		s.log.Info("[Session] disconnected", "user", ev.user)
	}
}

// scan looks for a display and posts the strongest match.
func (s *Session) scan() {
	devices, err := ble.ScanForDisplays(s.adapter, s.opts.ScanTimeout, s.opts.DeviceName)
	if err != nil {
		s.post(Disconnected{Err: fmt.Errorf("session: scan: %w", err)})
		return
	}
	if len(devices) == 0 {
		s.post(Disconnected{Err: errNoDevices})
		return
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].RSSI > devices[j].RSSI })
	s.post(Discovered{Device: devices[0]})
}

func (s *Session) dial(address string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ScanTimeout)
	defer cancel()

	conn, err := s.adapter.Connect(ctx, address)
	if err != nil {
		s.post(Disconnected{Err: fmt.Errorf("session: connect to %s: %w", address, err)})
		return
	}
	s.post(Connected{Conn: conn})
}

// bind resolves the display service and characteristic pair, subscribing to
// the notify characteristic so inbound frames flow as DataReceived events.
func (s *Session) bind(conn ble.Connection) {
	tx, err := conn.DiscoverCharacteristic(ble.ServiceUUID, ble.TXCharUUID)
	if err != nil {
		s.post(Disconnected{Err: fmt.Errorf("session: discover TX characteristic: %w", err)})
		return
	}
	s.post(ServicesDiscovered{})

	rx, err := conn.DiscoverCharacteristic(ble.ServiceUUID, ble.RXCharUUID)
	if err != nil {
		s.post(Disconnected{Err: fmt.Errorf("session: discover RX characteristic: %w", err)})
		return
	}
	if err := tx.Subscribe(func(data []byte) {
		s.post(DataReceived{Data: data})
	}); err != nil {
		s.post(Disconnected{Err: fmt.Errorf("session: subscribe: %w", err)})
		return
	}
	s.post(CharacteristicsFound{RX: rx})
}

func (s *Session) handleDisconnect(cause error) {
	s.mu.Lock()
	prev := s.state
	user := s.userDisc
	attempts := s.attempts
	s.mu.Unlock()

	if prev == StateDisconnected && cause == nil {
		return
	}
	s.teardown()

	if cause == nil || user {
		return
	}
	s.log.Warn("[Session] link lost", "state", prev, "error", cause)

	// Only an unexpected loss of a Ready link (or a failed attempt within
	// an ongoing reconnect sequence) may trigger reconnection.
	if prev != StateReady && attempts == 0 {
		return
	}

	st, err := s.store.Load()
	if err != nil || !st.AutoReconnect || st.PeerID == "" {
		return
	}
	if attempts >= s.opts.ReconnectAttempts {
		s.log.Warn("[Session] reconnect attempts exhausted", "attempts", attempts)
		return
	}

	s.mu.Lock()
	s.attempts++
	attempt := s.attempts
	s.mu.Unlock()

	delay := s.opts.ReconnectDelay
	s.log.Info("[Session] scheduling reconnect", "attempt", attempt, "delay", delay)
	go func() {
		select {
		case <-s.done:
		case <-time.After(delay):
			s.post(connectRequest{address: st.PeerID, name: st.PeerName})
		}
	}()
}

func (s *Session) teardown() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.rx = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Disconnect()
	}
	s.setState(StateDisconnected)
}

// persistPeer records the connected peer and arms auto-reconnect. The
// last-selected indices in settings are preserved.
func (s *Session) persistPeer(peer ble.Device) {
	st, err := s.store.Load()
	if err != nil {
		s.log.Warn("[Session] settings unreadable, peer not persisted", "error", err)
		st = settings.Settings{}
	}
	st.PeerID = peer.Address
	st.PeerName = peer.Name
	st.AutoReconnect = true
	if err := s.store.Save(st); err != nil {
		s.log.Warn("[Session] persisting peer failed", "error", err)
	}
}

func (s *Session) clearPeer() {
	st, err := s.store.Load()
	if err != nil {
		st = settings.Settings{}
	}
	st.PeerID = ""
	st.PeerName = ""
	st.AutoReconnect = false
	if err := s.store.Save(st); err != nil {
		s.log.Warn("[Session] clearing peer failed", "error", err)
	}
}
