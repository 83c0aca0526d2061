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
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/clausewitz-tools/eu4save/internal/numeric"
)

// primitiveSet is the bounded set of structural/primitive-type opcodes.
// A roaring bitmap is overkill for eleven values, but it is
// the same dense-bounded-int-set primitive Table uses for the important-key
// set, so one code path serves both.
var primitiveSet = func() *roaring.Bitmap {
	b := roaring.New()
	for _, c := range []Code{Assign, Open, Close, Date, Float, Bool, String, Int32, StringAlt, Float5A, Float5B} {
		b.Add(uint32(c))
	}
	return b
}()

// Table is a bidirectional mapping between opcodes and identifier strings,
// plus the disjoint "important key" set that triggers shard-splitting.
// A Table is safe for concurrent read-only use once Load returns; the
// unknown-opcode memoization it performs afterwards is synchronized so
// Table can also be shared across parallel workers.
type Table struct {
	mu sync.Mutex

	toName map[Code]string
	toCode map[string]Code

	important    map[Code]string // e.g. 0x.... -> "countries", "provinces"
	importantSet *roaring.Bitmap
	unknown      map[Code]string // memoized unknown_key_0x... placeholders
}

// NewTable constructs an empty table. Use Load to populate it.
func NewTable() *Table {
	return &Table{
		toName:       make(map[Code]string),
		toCode:       make(map[string]Code),
		important:    make(map[Code]string),
		importantSet: roaring.New(),
		unknown:      make(map[Code]string),
	}
}

// ImportantKeys names the identifiers whose opcodes Load places in the
// important-key set rather than registering them as ordinary identifiers.
// Loaded tables are expected to cover at least these two.
const (
	KeyCountries = "countries"
	KeyProvinces = "provinces"
)

// Load reads the opcode table text format: one "<hex> <identifier>" record
// per line, whitespace-separated. Blank lines and lines starting with '#'
// are skipped, matching the original parser's table loader.
// Primitive-type opcodes must not appear as identifiers; countries/provinces
// are pulled out of the identifier table into the important-key set instead
// of being registered as plain identifiers.
func (t *Table) Load(r io.Reader) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("opcode table line %d: malformed record %q", lineNo, line)
		}
		n, ok := numeric.ParseUint64(fields[0])
		if !ok || n > numeric.MaxUint16 {
			return fmt.Errorf("opcode table line %d: bad opcode %q", lineNo, fields[0])
		}
		code := Code(n)
		name := fields[1]

		if IsPrimitive(code) {
			return fmt.Errorf("opcode table line %d: %s is a primitive-type opcode, cannot be an identifier", lineNo, code)
		}
		if _, dup := t.toName[code]; dup {
			return fmt.Errorf("opcode table line %d: duplicate opcode %s", lineNo, code)
		}
		if _, dup := t.toCode[name]; dup {
			return fmt.Errorf("opcode table line %d: duplicate identifier %q", lineNo, name)
		}

		if name == KeyCountries || name == KeyProvinces {
			t.important[code] = name
			t.importantSet.Add(uint32(code))
			continue
		}
		t.toName[code] = name
		t.toCode[name] = code
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("opcode table: %w", err)
	}
	return nil
}

// Identifier resolves an opcode to its identifier string. If the opcode is
// unknown, a stable unknown_key_0x... placeholder is synthesized and
// memoized.
func (t *Table) Identifier(c Code) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if name, ok := t.toName[c]; ok {
		return name
	}
	if name, ok := t.unknown[c]; ok {
		return name
	}
	name := UnknownIdentifier(c)
	t.unknown[c] = name
	return name
}

// Important reports whether c is the important-key opcode for "countries"
// or "provinces", returning its identifier if so.
func (t *Table) Important(c Code) (name string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.importantSet.Contains(uint32(c)) {
		return "", false
	}
	name, ok = t.important[c]
	return name, ok
}

// OpcodeFor returns the opcode registered for an ordinary identifier: the
// reverse of Identifier for names loaded from the table.
func (t *Table) OpcodeFor(name string) (Code, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.toCode[name]
	return c, ok
}

// ImportantOpcodeFor returns the opcode registered to an important key
// ("countries"/"provinces").
func (t *Table) ImportantOpcodeFor(name string) (Code, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for c, n := range t.important {
		if n == name {
			return c, true
		}
	}
	return 0, false
}
