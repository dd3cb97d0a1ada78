package serialport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidBaud(t *testing.T) {
	for _, b := range ValidBaudRates {
		assert.True(t, IsValidBaud(b))
	}
	assert.False(t, IsValidBaud(1200))
	assert.False(t, IsValidBaud(0))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0", 9600)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
	assert.Equal(t, 9600, cfg.Baud)
	assert.Greater(t, cfg.ReadTimeout.Milliseconds(), int64(0))
}
