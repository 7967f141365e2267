package session

import "github.com/JStephens858/amperfyHack/internal/ble"

// Event is one tagged variant consumed by the session's single-threaded
// transition loop. Transport callbacks and API calls never mutate session
// state directly; they post events.
type Event interface{ isEvent() }

// Discovered reports a scan hit for the display service.
type Discovered struct {
	Device ble.Device
}

// Connected reports an established link, before characteristic binding.
type Connected struct {
	Conn ble.Connection
}

// ServicesDiscovered reports that the display service was resolved.
type ServicesDiscovered struct{}

// CharacteristicsFound reports the bound characteristic pair. RX is the
// peripheral characteristic the host writes envelopes to.
type CharacteristicsFound struct {
	RX ble.Characteristic
}

// DataReceived carries one inbound notification from the display.
type DataReceived struct {
	Data []byte
}

// WriteCompleted reports a finished outbound write.
type WriteCompleted struct{}

// Disconnected reports link teardown. Err is nil for expected teardowns and
// carries the transport error for unexpected losses.
type Disconnected struct {
	Err error
}

// connectRequest starts a connection attempt. An empty address scans for a
// peer; a set address dials it directly (the reconnect path).
type connectRequest struct {
	address string
	name    string
}

// disconnectRequest tears the session down. user marks an explicit
// user-initiated disconnect, which also clears the persisted peer.
type disconnectRequest struct {
	user bool
}

func (Discovered) isEvent()           {}
func (Connected) isEvent()            {}
func (ServicesDiscovered) isEvent()   {}
func (CharacteristicsFound) isEvent() {}
func (DataReceived) isEvent()         {}
func (WriteCompleted) isEvent()       {}
func (Disconnected) isEvent()         {}
func (connectRequest) isEvent()       {}
func (disconnectRequest) isEvent()    {}
