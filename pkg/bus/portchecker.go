package bus

import "github.com/osdpgw/gateway/pkg/serialport"

// PortChecker validates that a named serial port exists on the host before
// the Bus Manager asks the codec to open it. Tests use a nil checker
// (always accepted) or a fake; production wires RealPortChecker against
// go.bug.st/serial.
type PortChecker interface {
	Exists(port string) bool
}

// RealPortChecker lists actual serial device nodes via serialport.
type RealPortChecker struct{}

// Exists reports whether port appears in the host's serial port list.
func (RealPortChecker) Exists(port string) bool {
	ports, err := serialport.ListPorts()
	if err != nil {
		return false
	}
	for _, p := range ports {
		if p == port {
			return true
		}
	}
	return false
}

var _ PortChecker = RealPortChecker{}
