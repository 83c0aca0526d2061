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

// Package shard implements the entry-boundary splitter: given the
// already-bounded body of a `countries` or `provinces` object (the bytes
// between its outer `{` and matching `}`, as captured by package decode's
// balanced-brace scan), it locates each entry's header and returns the
// body split into independent per-entry byte slices.
//
// Locating where the countries/provinces body itself ends, via a "next
// sibling opcode" regex, is not this package's job: package decode already
// knows the exact end of the body because it counts `{`/`}` nesting while
// scanning, which is strictly more precise than a textual sibling-opcode
// sentinel and needs no terminator configuration. This package only
// splits an already-bounded body at entry starts.
package shard

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
)

// Kind selects which entry-header grammar Split uses.
type Kind int

const (
	KindCountries Kind = iota
	KindProvinces
)

// ErrNoEntries is returned when a body contains no recognizable entry
// headers at all (an empty or malformed countries/provinces object).
var ErrNoEntries = errors.New("shard: no entry headers found")

// assignOpen is the byte encoding of `={` (opcode 0x0001 then opcode
// 0x0003, both little-endian u16), the fixed suffix every entry header
// ends with.
var assignOpen = []byte{0x01, 0x00, 0x03, 0x00}

// countryHeader matches a countries entry header: a string opcode
// (0x000F or its alias 0x0017), a u16 length of exactly 3, three
// tag characters, then `={`. All bytes in this pattern, including the
// tag character class, are ASCII, so stdlib regexp's UTF-8 rune decoding
// of the pattern and subject never diverges from raw byte matching here.
var countryHeader = regexp.MustCompile("(?:\x0f\x00|\x17\x00)\x03\x00[A-Z0-9-]{3}\x01\x00\x03\x00")

// Split partitions body, the contents of a countries or provinces object
// with the outer `{`/`}` already stripped, into one byte slice per entry,
// in source order.
func Split(body []byte, kind Kind) ([][]byte, error) {
	var starts []int
	switch kind {
	case KindCountries:
		starts = countryHeaderStarts(body)
	case KindProvinces:
		starts = provinceHeaderStarts(body)
	default:
		return nil, fmt.Errorf("shard: unknown kind %d", kind)
	}
	if len(starts) == 0 {
		return nil, ErrNoEntries
	}

	entries := make([][]byte, len(starts))
	for i, start := range starts {
		end := len(body)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		entries[i] = body[start:end]
	}
	return entries, nil
}

func countryHeaderStarts(body []byte) []int {
	matches := countryHeader.FindAllIndex(body, -1)
	starts := make([]int, len(matches))
	for i, m := range matches {
		starts[i] = m[0]
	}
	return starts
}

// provinceHeaderStarts locates province entry headers (int32 opcode,
// 4-byte province-id payload of arbitrary value, then `={`) by direct
// byte scanning rather than regexp: the payload can contain any byte
// value 0x00-0xFF, and a regexp character class wide enough to match
// "any byte" (e.g. `[\x00-\xff]`) is compiled against Unicode code
// points, not raw bytes: bytes >=0x80 in that class would only match
// their multi-byte UTF-8 encoding, not the single raw byte actually on
// the wire. A fixed-width manual skip has no such ambiguity.
func provinceHeaderStarts(body []byte) []int {
	const marker = "\x14\x00" // int32 opcode, little-endian
	var starts []int

	pos := 0
	for {
		idx := bytes.Index(body[pos:], []byte(marker))
		if idx < 0 {
			break
		}
		start := pos + idx
		tailStart := start + len(marker) + 4 // skip opcode + i32 payload
		if tailStart+len(assignOpen) <= len(body) && bytes.Equal(body[tailStart:tailStart+len(assignOpen)], assignOpen) {
			starts = append(starts, start)
			pos = tailStart + len(assignOpen)
			continue
		}
		pos = start + 1
	}
	return starts
}

// Partition groups entries into K = min(chunks, len(entries)) contiguous,
// approximately equal-sized runs by count. chunks defaults to 8 at the
// caller (package parallel); Partition itself just enforces the K =
// min(...) bound and the count split.
func Partition(entries [][]byte, chunks int) [][][]byte {
	if chunks < 1 {
		chunks = 1
	}
	k := chunks
	if k > len(entries) {
		k = len(entries)
	}
	if k == 0 {
		return nil
	}

	groups := make([][][]byte, k)
	base := len(entries) / k
	rem := len(entries) % k

	pos := 0
	for i := 0; i < k; i++ {
		size := base
		if i < rem {
			size++
		}
		groups[i] = entries[pos : pos+size]
		pos += size
	}
	return groups
}
