// Package serialport opens the real RS-485 physical connections the Bus
// Manager polls over. It is the one place in the gateway that talks to an
// actual device node; everything above it (osdp.Codec, bus.Manager) is
// written against the Port interface so tests never need hardware.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Port is the capability set a real serial connection exposes. It mirrors
// io.ReadWriteCloser plus a read-timeout setter; RS-485 transceiver control
// is applied once in Open and is not part of this interface.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// Config describes how to open a bus's serial connection. OSDP's wire
// settings are fixed by the OSDP standard: 8 data bits, no parity, one
// stop bit; only the port name and baud rate vary per bus.
type Config struct {
	Port           string
	Baud           int
	ReadTimeout    time.Duration
	RS485Delay     time.Duration
	RS485RxDuringTx bool
}

// DefaultConfig returns OSDP's standard wire settings for a given port/baud.
func DefaultConfig(port string, baud int) Config {
	return Config{
		Port:        port,
		Baud:        baud,
		ReadTimeout: 200 * time.Millisecond,
	}
}

// Opener opens real serial ports. Production code uses Open; tests use the
// osdp/simulator codec instead of this package entirely.
type Opener struct{}

// Open opens the named port in OSDP's fixed 8-N-1 mode and, where the
// platform driver supports it, RS-485 transceiver control.
func (Opener) Open(cfg Config) (Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Port, err)
	}

	if cfg.RS485Delay > 0 || cfg.RS485RxDuringTx {
		rs485Config := &serial.RS485Config{
			Enabled:            true,
			DelayRtsBeforeSend: cfg.RS485Delay,
			DelayRtsAfterSend:  cfg.RS485Delay,
			RxDuringTx:         cfg.RS485RxDuringTx,
		}
		// Not all platform drivers support RS-485 toggling; treat failure
		// as advisory since half-duplex OSDP still works over plain RS-232
		// wiring on most USB-RS485 adapters that handle direction in
		// hardware.
		_ = port.SetRS485Config(rs485Config)
	}

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 200 * time.Millisecond
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("serialport: set read timeout: %w", err)
	}

	return port, nil
}

// ListPorts enumerates serial device nodes available on the host, used by
// bus.RealPortChecker to confirm a configured port exists.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("serialport: list ports: %w", err)
	}
	return ports, nil
}

// ValidBaudRates are the rates OSDP permits.
var ValidBaudRates = []int{9600, 19200, 38400, 57600, 115200}

// IsValidBaud reports whether baud is one of the OSDP-permitted rates.
func IsValidBaud(baud int) bool {
	for _, b := range ValidBaudRates {
		if b == baud {
			return true
		}
	}
	return false
}
