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

// Package calendar implements the packed-date decoding algorithm: a
// non-leap, hours-since-year-0 encoding used by the Clausewitz engine's
// in-game calendar.
package calendar

import "strconv"

// zero is the raw hour count corresponding to year 0, month 1, day 1.
const zero = 43_800_000

// epochLiteral is the one magic value the source special-cases to the
// literal string "-1.1.1" rather than running it through the calendar walk.
const epochLiteral = 43_791_240

const maxValid = 60_000_000

// monthLengths are non-leap month lengths; leap years are ignored entirely
// (month 12's length is implicit: whatever remains of the 365-day year
// after months 1-11 are walked).
var monthLengths = [11]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30}

// Value is the result of decoding a packed date payload: exactly one of
// Date (a "Y.M.D" string) or Int (an out-of-range payload preserved as a
// plain integer) is meaningful, selected by IsDate.
type Value struct {
	IsDate bool
	Date   string
	Int    int32
}

// Decode implements the Clausewitz date algorithm exactly: the single
// literal special case, the out-of-range passthrough, and the non-leap
// year/month/day walk, formatted without zero-padding.
func Decode(n int32) Value {
	if n == epochLiteral {
		return Value{IsDate: true, Date: "-1.1.1"}
	}
	if n < zero || n > maxValid {
		return Value{IsDate: false, Int: n}
	}

	days := (int64(n) - zero) / 24
	year := days / 365
	rem := int(days % 365)

	month := 1
	for _, length := range monthLengths {
		if rem >= length {
			rem -= length
			month++
			continue
		}
		break
	}
	day := rem + 1

	return Value{
		IsDate: true,
		Date:   strconv.FormatInt(year, 10) + "." + strconv.Itoa(month) + "." + strconv.Itoa(day),
	}
}
