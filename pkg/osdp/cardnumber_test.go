package osdp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardNumberRoundTrip(t *testing.T) {
	for bits := 1; bits <= 200; bits++ {
		max := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		max.Sub(max, big.NewInt(1))

		raw, err := EncodeCardNumber(max.String(), bits)
		require.NoError(t, err)

		decoded := DecodeCardNumber(raw, bits)
		assert.Equal(t, max.String(), decoded, "bits=%d", bits)
	}
}

func TestDecodeCardNumberEmpty(t *testing.T) {
	assert.Equal(t, "0", DecodeCardNumber(nil, 0))
	assert.Equal(t, "0", DecodeCardNumber([]byte{0x00, 0x00, 0x00}, 26))
}

func TestDecodeCardNumber26Bit(t *testing.T) {
	raw, err := EncodeCardNumber("12345678", 26)
	require.NoError(t, err)
	assert.Equal(t, "12345678", DecodeCardNumber(raw, 26))
}

func TestEncodeCardNumberInvalid(t *testing.T) {
	_, err := EncodeCardNumber("not-a-number", 26)
	assert.ErrorIs(t, err, ErrInvalidCardNumber)
}
