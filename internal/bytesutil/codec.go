// Package bytesutil implements the little-endian integer and
// length-prefixed string framing used across the on-disk page format.
package bytesutil

import (
	"encoding/binary"
	"fmt"
)

// PutUint32 encodes v as a 4-byte little-endian unsigned integer at buf[0:4].
func PutUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// Uint32 decodes a 4-byte little-endian unsigned integer from buf[0:4].
func Uint32(buf []byte) (uint32, error) {
	if len(buf) < 4 {
		return 0, fmt.Errorf("bytesutil: need 4 bytes, have %d", len(buf))
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// PutUint64 encodes v as an 8-byte little-endian unsigned integer at buf[0:8].
func PutUint64(buf []byte, v uint64) {
	binary.LittleEndian.PutUint64(buf, v)
}

// Uint64 decodes an 8-byte little-endian unsigned integer from buf[0:8].
func Uint64(buf []byte) (uint64, error) {
	if len(buf) < 8 {
		return 0, fmt.Errorf("bytesutil: need 8 bytes, have %d", len(buf))
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// PutString writes a 1-byte length prefix followed by the UTF-8 bytes of s
// at buf[0:1+len(s)]. s must be at most 255 bytes long.
func PutString(buf []byte, s string) error {
	if len(s) > 255 {
		return fmt.Errorf("bytesutil: string too long: %d bytes (max 255)", len(s))
	}
	if len(buf) < 1+len(s) {
		return fmt.Errorf("bytesutil: buffer too small for %d-byte string", len(s))
	}
	buf[0] = byte(len(s))
	copy(buf[1:], s)
	return nil
}

// String reads a 1-byte-length-prefixed UTF-8 string from buf, returning
// the decoded string and the number of bytes consumed (1+length).
func String(buf []byte) (string, int, error) {
	if len(buf) < 1 {
		return "", 0, fmt.Errorf("bytesutil: need 1 byte for string length")
	}
	n := int(buf[0])
	if len(buf) < 1+n {
		return "", 0, fmt.Errorf("bytesutil: need %d bytes for string, have %d", 1+n, len(buf))
	}
	return string(buf[1 : 1+n]), 1 + n, nil
}
