// Package osdp defines the narrow capability interface the core consumes
// from an OSDP SIA 2.2 transport/codec implementation. The real wire
// framing, CRC, and secure-channel crypto are assumed to live in that
// implementation; this package only describes the shape the Bus Manager
// and Device Session need. A deterministic in-memory implementation lives
// in the simulator subpackage for tests.
package osdp

import (
	"context"
	"errors"
)

// Sentinel errors a Codec implementation is expected to return.
var (
	ErrBusNotOpen      = errors.New("osdp: bus not open")
	ErrDeviceNotFound  = errors.New("osdp: device not registered")
	ErrAddressInUse    = errors.New("osdp: address already registered on bus")
	ErrSecureChannel   = errors.New("osdp: secure channel rejected")
	ErrInvalidCardNumber = errors.New("osdp: invalid card number")
)

// BusHandle identifies one open (port, baud) connection to the codec.
type BusHandle string

// DeviceOptions configures a registered peripheral device.
type DeviceOptions struct {
	UseCRC           bool
	UseSecureChannel bool
	Key              [16]byte
}

// LEDColor is the codec-level color constant (distinct from model.LEDColor
// so the core's domain vocabulary does not leak into the transport
// boundary). Unknown domain colors translate to Red.
type LEDColor int

const (
	LEDOff LEDColor = iota
	LEDRed
	LEDGreen
	LEDBlue
	LEDAmber
)

// LEDCommand is the codec-level LED primitive.
type LEDCommand struct {
	Color    LEDColor
	Duration int // milliseconds, 0 = permanent
}

// EventKind discriminates the codec event stream.
type EventKind int

const (
	EventCardRead EventKind = iota
	EventKeypad
	EventStatusChanged
	// EventFrame carries a raw OSDP frame observation for the Packet Trace
	// Store. A codec that cannot supply frame-level capture
	// simply never emits it; the gateway traces only what it receives.
	EventFrame
)

// FrameDirection distinguishes a traced frame's direction on the bus.
type FrameDirection int

const (
	FrameOutgoing FrameDirection = iota
	FrameIncoming
)

// Event is one item from a bus's event stream.
type Event struct {
	Kind    EventKind
	Address int

	// EventCardRead
	BitArray   []byte // big-endian packed bits, see BitCount
	BitCount   int
	FormatCode int // optional, 0 if not provided by the reader

	// EventKeypad
	Digit byte

	// EventStatusChanged
	Online  bool
	Message string

	// EventFrame
	Direction      FrameDirection
	Raw            []byte
	CommandOrReply byte
	Sequence       int
	Secure         bool
	Valid          bool
	ErrorText      string
}

// Codec is the capability set the Bus Manager requires from a concrete
// OSDP transport implementation.
type Codec interface {
	// OpenBus opens (or returns the existing) connection for a serial port
	// at the given baud rate. Opening the same port at a different baud
	// while devices are registered is an error.
	OpenBus(ctx context.Context, port string, baud int) (BusHandle, error)

	// CloseBus releases the connection and unregisters every device on it.
	CloseBus(bus BusHandle) error

	// RegisterDevice adds a peripheral at address to the bus's poll list.
	RegisterDevice(bus BusHandle, address int, opts DeviceOptions) error

	// UnregisterDevice removes a peripheral from the poll list.
	UnregisterDevice(bus BusHandle, address int) error

	// IsOnline reports the codec's last-known online state for a device.
	IsOnline(bus BusHandle, address int) bool

	// Events returns the bus's event stream. The channel is closed when
	// CloseBus is called.
	Events(bus BusHandle) <-chan Event

	// SendLED issues an LED command to a device.
	SendLED(bus BusHandle, address int, cmd LEDCommand) error

	// SendBuzzer issues a beep command to a device.
	SendBuzzer(bus BusHandle, address int, beepCount int) error

	// SendText issues a text-display command to a device (≤16 chars).
	SendText(bus BusHandle, address int, text string) error

	// SetEncryptionKey installs a new secure-channel key on a device.
	SetEncryptionKey(bus BusHandle, address int, key [16]byte) error
}

// DefaultInstallationKey is the well-known base key used while a device is
// in Install mode, before a random per-device key has been installed.
var DefaultInstallationKey = [16]byte{
	0x30, 0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37,
	0x38, 0x39, 0x3a, 0x3b, 0x3c, 0x3d, 0x3e, 0x3f,
}
