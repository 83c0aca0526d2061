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

// Kind tags the dynamic type carried by a Value.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindNode
)

// Value is a single decoded scalar or a reference to a child Node. Nodes
// own their children; Value never owns a *Node across a back-link, only
// Node.parent is non-owning.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	B    bool
	S    string
	Node *Node
}

func Int(v int64) Value     { return Value{Kind: KindInt, I: v} }
func Float(v float64) Value { return Value{Kind: KindFloat, F: v} }
func Bool(v bool) Value     { return Value{Kind: KindBool, B: v} }
func Str(v string) Value    { return Value{Kind: KindString, S: v} }
func Child(n *Node) Value   { return Value{Kind: KindNode, Node: n} }

// Interface returns the Value as a plain Go value suitable for JSON
// marshaling: int64, float64, bool, string, or *Node (which implements its
// own MarshalJSON).
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindInt:
		return v.I
	case KindFloat:
		return v.F
	case KindBool:
		return v.B
	case KindString:
		return v.S
	case KindNode:
		return v.Node
	default:
		return nil
	}
}
