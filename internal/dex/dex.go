// Package dex holds a Dalvik Executable file in memory and inspects or
// repairs the Adler-32 checksum stored in its header.
//
// The header layout this package relies on is fixed:
//
//	offset 0..8   magic ("dex\n" + 3-digit version + NUL), not validated
//	offset 8..12  checksum field
//	offset 12..   payload covered by the checksum
//
// Nothing past the checksum field is parsed.
package dex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/fsutil"
)

const (
	// ChecksumOffset is the offset of the checksum field in the header
	ChecksumOffset = 8
	// ChecksumSize is the width of the checksum field
	ChecksumSize = 4
	// PayloadOffset is where the checksummed region begins
	PayloadOffset = ChecksumOffset + ChecksumSize
	// MinSize is the smallest buffer that carries a checksum field
	MinSize = PayloadOffset

	// FileMode is the permission used for files created by WriteToFile
	FileMode os.FileMode = 0644

	magicSize = 8
)

// Option configures a Dex at construction time.
type Option func(*Dex)

// WithByteOrder sets the byte order used to serialize the expected checksum.
// The default is big-endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(d *Dex) {
		if order != nil {
			d.order = order
		}
	}
}

// Dex owns the complete contents of a DEX file.
//
// A Dex is not safe for concurrent use; it is meant to be created, inspected,
// optionally corrected and written back by a single caller.
type Dex struct {
	bytes []byte
	order binary.ByteOrder
}

// FromBytes takes ownership of b. It fails with errors.ErrHeaderTooShort when
// b cannot hold the checksum field.
func FromBytes(b []byte, opts ...Option) (*Dex, error) {
	if len(b) < MinSize {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", errors.ErrHeaderTooShort, len(b), MinSize)
	}

	d := &Dex{bytes: b, order: binary.BigEndian}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// FromReader reads r to EOF and builds a Dex from the result.
func FromReader(r io.Reader, opts ...Option) (*Dex, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrFileReadError, err)
	}
	return FromBytes(b, opts...)
}

// Open reads the file at path and builds a Dex from its contents.
func Open(path string, opts ...Option) (*Dex, error) {
	b, err := fsutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(b, opts...)
}

// CurrentChecksum returns the checksum stored at bytes[8:12], verbatim.
func (d *Dex) CurrentChecksum() Checksum {
	var c Checksum
	copy(c[:], d.bytes[ChecksumOffset:PayloadOffset])
	return c
}

// ExpectChecksum computes the checksum of bytes[12:] and serializes it with
// the configured byte order.
func (d *Dex) ExpectChecksum() Checksum {
	return encodeChecksum(RollingChecksum(d.bytes[PayloadOffset:]), d.order)
}

// CheckChecksum reports whether the stored checksum equals the expected one.
func (d *Dex) CheckChecksum() bool {
	return d.CurrentChecksum() == d.ExpectChecksum()
}

// CorrectChecksum overwrites the stored checksum with the expected one when
// they differ. It returns true if the buffer was modified.
func (d *Dex) CorrectChecksum() bool {
	expect := d.ExpectChecksum()
	if d.CurrentChecksum() == expect {
		return false
	}
	copy(d.bytes[ChecksumOffset:PayloadOffset], expect[:])
	return true
}

// WriteTo writes the full buffer to w.
func (d *Dex) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.bytes)
	if err == nil && n != len(d.bytes) {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// WriteToFile creates or truncates path and writes the full buffer to it.
func (d *Dex) WriteToFile(path string) error {
	return fsutil.WriteFile(path, d.bytes, FileMode)
}

// Len returns the size of the buffer in bytes.
func (d *Dex) Len() int {
	return len(d.bytes)
}

// Bytes returns a copy of the buffer.
func (d *Dex) Bytes() []byte {
	return bytes.Clone(d.bytes)
}

// ByteOrder returns the order used to serialize the expected checksum.
func (d *Dex) ByteOrder() binary.ByteOrder {
	return d.order
}

// Magic returns the printable magic prefix ("dex") when the buffer starts
// with one, or the empty string.
func (d *Dex) Magic() string {
	if bytes.HasPrefix(d.bytes, []byte("dex\n")) {
		return "dex"
	}
	return ""
}

// Version returns the 3-digit format version from the magic, e.g. "035".
func (d *Dex) Version() string {
	if d.Magic() == "" {
		return ""
	}
	return string(bytes.TrimRight(d.bytes[4:magicSize], "\x00"))
}

// String implements fmt.Stringer without dumping the whole buffer.
func (d *Dex) String() string {
	return fmt.Sprintf("Dex{size: %d, checksum: %s}", len(d.bytes), d.CurrentChecksum())
}

var _ io.WriterTo = (*Dex)(nil)
