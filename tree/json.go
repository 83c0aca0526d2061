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

package tree

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalJSON renders a closed node as a JSON object (keyed map shape) or
// array (pure list shape), recursing through child Values via their
// Interface() representation. An unclosed node cannot be rendered: its
// slots are still building state, not a settled shape.
func (n *Node) MarshalJSON() ([]byte, error) {
	if !n.closed {
		return nil, errors.New("tree: cannot marshal an open node")
	}
	if n.isList {
		out := make([]interface{}, len(n.list))
		for i, v := range n.list {
			out[i] = v.Interface()
		}
		return jsonAPI.Marshal(out)
	}

	out := make(map[string]interface{}, len(n.keys))
	for _, k := range n.keys {
		out[k] = n.byKey[k].Interface()
	}
	return jsonAPI.Marshal(out)
}
