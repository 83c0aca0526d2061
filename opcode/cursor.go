// Copyright 2026 The eu4save Authors
// This file is part of eu4save.
//
// eu4save is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// eu4save is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with eu4save. If not, see <http://www.gnu.org/licenses/>.

package opcode

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrShortRead is returned whenever a payload is truncated mid-read. The
// driver treats it as fatal for the affected stream.
var ErrShortRead = errors.New("eu4save: short read")

// Cursor is a forward-only reader over an in-memory byte buffer. It is the
// primitive-payload reading surface component E drives; there is
// deliberately no seeking, matching the source's single forward pass.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf for sequential reading starting at offset 0.
func NewCursor(buf []byte) *Cursor { return &Cursor{buf: buf} }

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the number of unread bytes remaining.
func (c *Cursor) Len() int { return len(c.buf) - c.pos }

// Rest returns the unread tail of the buffer without consuming it.
func (c *Cursor) Rest() []byte { return c.buf[c.pos:] }

// Slice returns buf[start:end] of the cursor's backing array, for callers
// that have recorded byte offsets while scanning (e.g. the important-key
// body capture in package decode) and need the raw span back.
func (c *Cursor) Slice(start, end int) []byte { return c.buf[start:end] }

// Skip advances the cursor n bytes without returning them, e.g. after a
// caller has inspected Rest() directly. It does not check n against the
// bytes remaining.
func (c *Cursor) Skip(n int) { c.pos += n }

func (c *Cursor) take(n int) ([]byte, error) {
	if c.Len() < n {
		return nil, ErrShortRead
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadUint16 reads a little-endian u16, used for the opcode itself and for
// string length prefixes.
func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		if errors.Is(err, ErrShortRead) && c.Len() == 0 {
			return 0, io.EOF
		}
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt32 reads a little-endian signed i32 payload (int32 and the raw
// magnitude backing float/date payloads).
func (c *Cursor) ReadInt32() (int32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// ReadInt64 reads a little-endian signed i64 payload (float-5's raw value).
func (c *Cursor) ReadInt64() (int64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

// ReadBool reads a 1-byte payload; nonzero is true.
func (c *Cursor) ReadBool() (bool, error) {
	b, err := c.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadFloat reads a 4-byte i32 payload and divides by 1000, exactly, sign
// preserved.
func (c *Cursor) ReadFloat() (float64, error) {
	n, err := c.ReadInt32()
	if err != nil {
		return 0, err
	}
	return float64(n) / 1000, nil
}

// ReadFloat5 reads an 8-byte i64 payload and divides by 32768 (15 fractional
// bits), the higher-precision encoding used for coordinates and other
// fine-grained quantities.
func (c *Cursor) ReadFloat5() (float64, error) {
	n, err := c.ReadInt64()
	if err != nil {
		return 0, err
	}
	return float64(n) / 32768, nil
}

// ReadRawBytes reads n raw bytes, used by ReadString for the length-prefixed
// payload body.
func (c *Cursor) ReadRawBytes(n int) ([]byte, error) {
	return c.take(n)
}
