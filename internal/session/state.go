// Package session owns the connection lifecycle to the display peripheral:
// scanning, connecting, characteristic binding, the Ready send gate, and
// reconnection to the persisted last peer. It never touches payload
// semantics.
package session

// State is the session lifecycle position. Ready is the only state in which
// frames may be sent; every state can fall back to Disconnected.
type State int

const (
	StateDisconnected State = iota
	StateScanning
	StateConnecting
	StateDiscoveringServices
	StateDiscoveringCharacteristics
	StateReady
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateScanning:
		return "scanning"
	case StateConnecting:
		return "connecting"
	case StateDiscoveringServices:
		return "discoveringServices"
	case StateDiscoveringCharacteristics:
		return "discoveringCharacteristics"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}
