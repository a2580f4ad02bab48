package dex

import (
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"strings"

	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
)

// Checksum is the raw 4-byte checksum field as it appears in the header.
type Checksum [4]byte

// String renders the checksum as a debug byte array, e.g. "[0, 13, 0, 7]".
func (c Checksum) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d]", c[0], c[1], c[2], c[3])
}

// Hex renders the checksum as a 32-bit value read most-significant byte first.
func (c Checksum) Hex() string {
	return fmt.Sprintf("0x%08x", binary.BigEndian.Uint32(c[:]))
}

// Uint32 decodes the checksum using the given byte order.
func (c Checksum) Uint32(order binary.ByteOrder) uint32 {
	return order.Uint32(c[:])
}

// Format selects how a Checksum is printed.
type Format string

const (
	// FormatArray prints the debug byte array form
	FormatArray Format = "array"
	// FormatHex prints a 0x-prefixed 32-bit value
	FormatHex Format = "hex"
)

// ParseFormat parses an output format name. The empty string selects FormatArray.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatArray:
		return FormatArray, nil
	case FormatHex:
		return FormatHex, nil
	default:
		return "", fmt.Errorf("%w: %q (want array or hex)", errors.ErrInvalidFormat, name)
	}
}

// Render formats c according to f.
func (f Format) Render(c Checksum) string {
	if f == FormatHex {
		return c.Hex()
	}
	return c.String()
}

// ParseByteOrder maps "big"/"little" onto an encoding/binary byte order.
// The empty string selects big-endian.
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "big", "big-endian", "be":
		return binary.BigEndian, nil
	case "little", "little-endian", "le":
		return binary.LittleEndian, nil
	default:
		return nil, fmt.Errorf("%w: %q (want big or little)", errors.ErrInvalidByteOrder, name)
	}
}

// ByteOrderName returns the config-file spelling of order.
func ByteOrderName(order binary.ByteOrder) string {
	if order == binary.LittleEndian {
		return "little"
	}
	return "big"
}

// RollingChecksum computes the Adler-32 sum of data: a starts at 1 and b at 0,
// each byte adds into a and each new a adds into b, both mod 65521, and the
// result is b<<16 | a.
func RollingChecksum(data []byte) uint32 {
	return adler32.Checksum(data)
}

// encodeChecksum serializes sum into the 4-byte field layout.
func encodeChecksum(sum uint32, order binary.ByteOrder) Checksum {
	var c Checksum
	order.PutUint32(c[:], sum)
	return c
}
