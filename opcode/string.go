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
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// win1252 decodes windows-1252 bytes to UTF-8. charmap.Windows1252 maps the
// five codepoints undefined in the Windows-1252 codepage (0x81, 0x8D, 0x8F,
// 0x90, 0x9D) to U+FFFD; that is the documented x/text behavior and is
// adopted as-is rather than hand-rolled.
var win1252 = charmap.Windows1252.NewDecoder()

// ReadString reads a u16 length prefix followed by that many windows-1252
// bytes, decoded to UTF-8. Strings on the wire are never NUL-terminated.
func (c *Cursor) ReadString() (string, error) {
	n, err := c.ReadUint16()
	if err != nil {
		return "", err
	}
	raw, err := c.ReadRawBytes(int(n))
	if err != nil {
		return "", err
	}
	out, err := win1252.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("eu4save: decoding windows-1252 string: %w", err)
	}
	return string(out), nil
}
