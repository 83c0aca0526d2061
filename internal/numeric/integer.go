// Copyright 2026 The eu4save Authors
// (adapted from erigon-lib/common/math, copyright 2017 The go-ethereum Authors)
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

// Package numeric holds small integer helpers shared by the opcode table
// loader.
package numeric

import "strconv"

// MaxUint16 bounds the opcodes the table loader accepts.
const MaxUint16 = 1<<16 - 1

// ParseUint64 parses s as a hexadecimal integer, with or without a "0x"
// prefix. Leading zeros are accepted. The empty string parses as zero.
// A bare digit string is read as hexadecimal ("10" is 16); the decimal
// reading is tried only when the hexadecimal one fails.
//
// The opcode table's "<hex> <identifier>" lines use both "0x2d01" and bare
// "2d01" spellings in the wild; this accepts either.
func ParseUint64(s string) (uint64, bool) {
	if s == "" {
		return 0, true
	}
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err == nil {
		return v, true
	}
	v, err = strconv.ParseUint(s, 10, 64)
	return v, err == nil
}
