package osdp

import "math/big"

// DecodeCardNumber treats a raw OSDP card-data bit array as the big-endian
// representation of an unsigned integer and returns its decimal string.
// No parity bits are stripped; the caller is responsible for passing only
// the bits carrying the card number. Supports at least 200 bits.
func DecodeCardNumber(bits []byte, bitCount int) string {
	if bitCount <= 0 || len(bits) == 0 {
		return "0"
	}

	n := new(big.Int)
	byteCount := (bitCount + 7) / 8
	if byteCount > len(bits) {
		byteCount = len(bits)
	}

	n.SetBytes(bits[:byteCount])

	// If bitCount isn't byte-aligned, the packed representation may carry
	// extra high-order bits in the first byte beyond bitCount; mask them.
	if rem := bitCount % 8; rem != 0 && byteCount > 0 {
		mask := new(big.Int).Lsh(big.NewInt(1), uint(bitCount))
		mask.Sub(mask, big.NewInt(1))
		n.And(n, mask)
	}

	return n.String()
}

// EncodeCardNumber is the inverse of DecodeCardNumber, used by tests to
// construct raw bit arrays from a decimal card number.
func EncodeCardNumber(decimal string, bitCount int) ([]byte, error) {
	n := new(big.Int)
	if _, ok := n.SetString(decimal, 10); !ok {
		return nil, ErrInvalidCardNumber
	}

	byteCount := (bitCount + 7) / 8
	raw := n.Bytes()
	if len(raw) > byteCount {
		// Overflow: caller asked for fewer bits than the number needs.
		raw = raw[len(raw)-byteCount:]
	}

	out := make([]byte, byteCount)
	copy(out[byteCount-len(raw):], raw)
	return out, nil
}
