// Package hexutil provides the canonical fixed-width hex encoding used by
// every hash input and output in the commit-reveal protocol.
package hexutil

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// Width is the canonical word size in bytes. Every secret, commitment and
// packed field is normalized to this width.
const Width = 32

// HexWidth is the canonical encoded length in hex characters.
const HexWidth = 2 * Width

// ToFixedWidthHex normalizes value to exactly 64 lowercase hex characters
// (32 bytes): non-hex characters become a zero nibble, shorter input is
// right-padded with zero bytes, longer input is truncated to the first
// 32 bytes. Pure, total, and idempotent.
//
// The zero-nibble replacement is a normalization, not a validation step:
// callers that need validation must validate before calling.
func ToFixedWidthHex(value string) string {
	ss := NormalizeHex(value)
	if len(ss) >= HexWidth {
		return ss[:HexWidth]
	}
	return ss + strings.Repeat("0", HexWidth-len(ss))
}

// FromBytes hex-encodes raw and normalizes to the fixed width.
func FromBytes(raw []byte) string {
	return ToFixedWidthHex(hex.EncodeToString(raw))
}

// NormalizeHex lowercases s, strips a 0x prefix, and replaces any non-hex
// character with a zero nibble.
func NormalizeHex(s string) string {
	ss := strings.TrimPrefix(strings.ToLower(s), "0x")
	out := make([]byte, len(ss))
	for i := 0; i < len(ss); i++ {
		c := ss[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			out[i] = c
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}

// Bytes32 decodes a fixed-width hex string into its 32-byte form.
func Bytes32(s string) [Width]byte {
	raw, _ := hex.DecodeString(ToFixedWidthHex(s))
	var out [Width]byte
	copy(out[:], raw)
	return out
}

// U256 encodes x as a 32-byte big-endian word, the layout ledger-side
// verification expects for numeric commitment fields.
func U256(x uint64) [Width]byte {
	var out [Width]byte
	binary.BigEndian.PutUint64(out[Width-8:], x)
	return out
}

// Concat joins byte chunks into one slice sized up front.
func Concat(chunks ...[]byte) []byte {
	var n int
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
