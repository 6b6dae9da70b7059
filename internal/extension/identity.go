// Package extension implements the virtual-camera extension's side of
// the contract described in spec.md §6 "Output to virtual-camera
// extension": stable identity, the supported-format table, a
// 33ms dequeue loop that turns ring slots into sample buffers, and a
// best-effort liveness heartbeat for the host shell to observe.
package extension

import "github.com/google/uuid"

// Stable identity strings the extension reports to the host operating
// system's camera-extension shell, per spec.md §6.
const (
	ProviderID = "com.anoncam.provider"
	DeviceID   = "com.anoncam.device.source"
	StreamID   = "com.anoncam.stream.source"
	ModelName  = "AnonCam-1"
	Transport  = "builtIn"
)

// Identity is the per-session identifier set handed to the host
// shell at stream start. SessionID is generated fresh per session so
// the heartbeat channel can disambiguate restarts without the ring's
// own header changing.
type Identity struct {
	ProviderID string
	DeviceID   string
	StreamID   string
	Model      string
	Transport  string
	SessionID  uuid.UUID
}

// NewIdentity builds the fixed identity for a new streaming session.
func NewIdentity() Identity {
	return Identity{
		ProviderID: ProviderID,
		DeviceID:   DeviceID,
		StreamID:   StreamID,
		Model:      ModelName,
		Transport:  Transport,
		SessionID:  uuid.New(),
	}
}
