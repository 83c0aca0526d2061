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

// Package whitelist holds the set of identifiers retained during a
// whitelist-enabled decode; every other identifier-keyed assignment is
// dropped at assign time.
package whitelist

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Set is a loaded whitelist: identifiers to keep, plus identifiers always
// dropped regardless of whitelist membership, grounded in the original
// parser's ignored_keys passthrough.
type Set struct {
	keep   map[string]struct{}
	ignore map[string]struct{}
}

// New returns an empty Set; until Load adds identifiers it allows nothing.
// The inactive whitelist is a nil *Set (Allows always reports true), so
// callers decoding `meta`, where the whitelist is always disabled, pass nil.
func New() *Set {
	return &Set{keep: make(map[string]struct{}), ignore: make(map[string]struct{})}
}

// Load reads the whitelist CSV: first column is the identifier to keep,
// remaining columns ignored, first row is a header and is discarded.
func (s *Set) Load(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("whitelist: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		s.keep[rec[0]] = struct{}{}
	}
	return nil
}

// Ignore marks an identifier as always-dropped, independent of Load'ed
// membership.
func (s *Set) Ignore(key string) {
	s.ignore[key] = struct{}{}
}

// Allows reports whether an identifier survives whitelist filtering: it
// must be in the keep set and must not be explicitly ignored. A nil Set
// allows everything (whitelist inactive, e.g. decoding `meta`).
func (s *Set) Allows(identifier string) bool {
	if s == nil {
		return true
	}
	if _, ignored := s.ignore[identifier]; ignored {
		return false
	}
	_, ok := s.keep[identifier]
	return ok
}
