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

// Package opcode resolves the 16-bit tokens of a Clausewitz binary stream:
// the small fixed set of structural/primitive-type codes, and the large
// save-specific identifier table loaded at runtime.
package opcode

import "fmt"

// Code is a 16-bit little-endian opcode read from the stream.
type Code uint16

// Structural and primitive-type opcodes. All other codes are identifier
// opcodes, resolved through a Table.
const (
	Assign    Code = 0x0001 // `=`
	Open      Code = 0x0003 // `{`
	Close     Code = 0x0004 // `}`
	Date      Code = 0x000C // packed date, 4-byte i32 payload
	Float     Code = 0x000D // 4-byte i32 payload / 1000
	Bool      Code = 0x000E // 1-byte payload
	String    Code = 0x000F // u16-length-prefixed windows-1252 string
	Int32     Code = 0x0014 // 4-byte i32 payload
	StringAlt Code = 0x0017 // alias of String; treated identically (spec open question)
	Float5A   Code = 0x0167 // 8-byte i64 payload / 32768
	Float5B   Code = 0x0190 // 8-byte i64 payload / 32768
)

// IsPrimitive reports whether c is one of the fixed-width primitive-type
// opcodes (as opposed to an identifier opcode resolved via a Table).
func IsPrimitive(c Code) bool {
	return primitiveSet.Contains(uint32(c))
}

// Kind classifies a primitive opcode's payload shape. Kind is meaningless
// for non-primitive (identifier) opcodes.
type Kind int

const (
	KindNone Kind = iota
	KindAssign
	KindOpen
	KindClose
	KindDate
	KindFloat
	KindBool
	KindString
	KindInt32
	KindFloat5
)

// KindOf returns the payload kind for a primitive opcode, or KindNone if c
// is not primitive.
func KindOf(c Code) Kind {
	switch c {
	case Assign:
		return KindAssign
	case Open:
		return KindOpen
	case Close:
		return KindClose
	case Date:
		return KindDate
	case Float:
		return KindFloat
	case Bool:
		return KindBool
	case String, StringAlt:
		return KindString
	case Int32:
		return KindInt32
	case Float5A, Float5B:
		return KindFloat5
	default:
		return KindNone
	}
}

func (c Code) String() string {
	return fmt.Sprintf("0x%04X", uint16(c))
}

// UnknownIdentifier is the placeholder identifier synthesized for opcodes
// that appear in neither the identifier table nor the important-key set.
func UnknownIdentifier(c Code) string {
	return fmt.Sprintf("unknown_key_0x%04x", uint16(c))
}
