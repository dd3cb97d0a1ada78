package bus

import "errors"

// ConfigError wraps a rejected AddDevice call with a human-readable
// reason. Configuration errors are surfaced synchronously and never mutate
// persistent state.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "bus: " + e.Reason }

// Sentinel errors returned by Manager.
var (
	ErrManagerClosed  = errors.New("bus: manager is stopped")
	ErrDeviceNotFound = errors.New("bus: device not registered on any bus")
	ErrBusFailed      = errors.New("bus: serial port failed to open")
)

func configErrorf(reason string) error { return &ConfigError{Reason: reason} }
