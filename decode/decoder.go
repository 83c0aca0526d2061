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

// Package decode implements the sequential opcode-stream decoder: the main
// loop that drives the opcode table, primitive readers, and tree container
// over a single byte buffer.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/clausewitz-tools/eu4save/calendar"
	"github.com/clausewitz-tools/eu4save/opcode"
	"github.com/clausewitz-tools/eu4save/tree"
	"github.com/clausewitz-tools/eu4save/whitelist"
)

// MagicHeader is the 6-byte ASCII prefix the `meta` stream must start
// with; `gamestate` has no header.
const MagicHeader = "EU4bin"

// ErrBadMagic is returned when a magic-checked stream does not start with
// MagicHeader.
var ErrBadMagic = errors.New("eu4save: bad magic header")

// ErrUnbalancedClose is returned when a `}` is read with no open node to
// close (more closes than opens).
var ErrUnbalancedClose = errors.New("eu4save: unbalanced close")

// ErrUnterminatedShard is returned when an important-key body is opened
// but end-of-stream is reached before its matching close. The shard
// package raises a sibling condition, shard.ErrNoEntries, when the split
// itself finds no entry headers in the body; this one covers the decoder's
// own balanced-brace bookkeeping.
var ErrUnterminatedShard = errors.New("eu4save: unterminated important-key body")

// ImportantSpan is a captured, not-yet-decoded body for an important key
// (`countries` or `provinces`) seen at root level. The decoder stops short
// of walking it token-by-token and instead hands the raw bytes to the
// shard/parallel pipeline; Decode leaves a placeholder empty list in the
// tree at this position, to be overwritten via (*tree.Node).Set once the
// caller has merged the parallel result.
type ImportantSpan struct {
	Key    string
	Raw    []byte
	Parent *tree.Node
}

// Decoder runs the main opcode loop over a single in-memory buffer.
type Decoder struct {
	Table        *opcode.Table
	Whitelist    *whitelist.Set // nil: whitelist inactive, Allows() always true
	RequireMagic bool           // true for `meta`, false for `gamestate` and shard workers

	log *zap.SugaredLogger

	cur  *opcode.Cursor
	root *tree.Node

	// Spans captured for important (countries/provinces) root-level keys,
	// in the order encountered.
	Spans []ImportantSpan
}

// New constructs a Decoder over buf. A nil logger disables logging
// (zap.NewNop() is substituted).
func New(buf []byte, table *opcode.Table, wl *whitelist.Set, requireMagic bool, log *zap.SugaredLogger) *Decoder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Decoder{
		Table:        table,
		Whitelist:    wl,
		RequireMagic: requireMagic,
		log:          log,
		cur:          opcode.NewCursor(buf),
		root:         tree.New(),
	}
}

// Decode runs the main loop to completion and returns the decoded root
// node. Clean EOF with the root still open (no unmatched `}`) is success;
// any other short read is fatal.
func (d *Decoder) Decode() (*tree.Node, error) {
	if d.RequireMagic {
		magic, err := d.cur.ReadRawBytes(len(MagicHeader))
		if err != nil {
			return nil, fmt.Errorf("decode: reading magic header: %w", err)
		}
		if !bytes.Equal(magic, []byte(MagicHeader)) {
			return nil, fmt.Errorf("decode: %w: got %q", ErrBadMagic, magic)
		}
	}

	current := d.root
	lastWasIdentifier := false

	var (
		awaitingFold bool
		foldNode     *tree.Node
		foldDrop     bool
	)

	for {
		consumedAsRHS := awaitingFold

		code, err := d.readOpcode()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		switch {
		case code == opcode.Assign:
			if awaitingFold {
				return nil, errors.New("decode: assign opcode seen while awaiting a prior fold")
			}
			foldNode = current
			drop := false
			if lastWasIdentifier {
				if last, ok := current.Last(); ok && last.Kind == tree.KindString {
					drop = d.Whitelist != nil && !d.Whitelist.Allows(last.S)
					if drop {
						d.log.Debugw("dropping whitelisted-out assignment", "key", last.S)
					}
				}
			}
			foldDrop = drop
			awaitingFold = true
			lastWasIdentifier = false
			continue

		case code == opcode.Open:
			current = current.OpenChild()
			lastWasIdentifier = false

		case code == opcode.Close:
			parent := current.Close()
			if parent == nil {
				// Only the root has a nil parent; closing it would mean
				// more `}` than `{` in the stream.
				return nil, fmt.Errorf("decode: %w", ErrUnbalancedClose)
			}
			current = parent
			lastWasIdentifier = false

		default:
			if name, ok := d.Table.Important(code); ok {
				if current == d.root {
					if err := d.captureImportantSpan(name, current); err != nil {
						return nil, err
					}
					// captureImportantSpan consumes the identifier, the
					// `=`, the `{`, the whole body, and its own fold; the
					// outer loop has nothing left to finish for it.
					lastWasIdentifier = false
					continue
				}
				// A nested occurrence, not at root level and so not
				// subject to shard-splitting, still resolves to its
				// plain identifier string.
				current.Append(tree.Str(name))
				lastWasIdentifier = true
				break
			}

			val, isIdentifier, err := d.decodeValue(code)
			if err != nil {
				return nil, err
			}
			current.Append(val)
			lastWasIdentifier = isIdentifier
		}

		if consumedAsRHS {
			if err := tree.FinishAssign(foldNode, foldDrop); err != nil {
				return nil, fmt.Errorf("decode: %w", err)
			}
			awaitingFold = false
		}
	}

	if current != d.root {
		return nil, fmt.Errorf("decode: %w: stream ended with an object still open", ErrUnbalancedClose)
	}
	d.root.Close()
	return d.root, nil
}

func (d *Decoder) readOpcode() (opcode.Code, error) {
	n, err := d.cur.ReadUint16()
	if err != nil {
		return 0, err
	}
	return opcode.Code(n), nil
}

// decodeValue reads one primitive payload, or resolves one identifier
// opcode, returning the value to append and whether it was an identifier
// as opposed to a primitive literal. The whitelist check needs that
// distinction to decide whether a bare identifier is actually a key.
func (d *Decoder) decodeValue(code opcode.Code) (tree.Value, bool, error) {
	if !opcode.IsPrimitive(code) {
		// Important-key opcodes (countries/provinces) are intercepted by
		// the caller before reaching here; this only ever sees ordinary
		// identifiers.
		name := d.Table.Identifier(code)
		if name == opcode.UnknownIdentifier(code) {
			d.log.Debugw("unknown identifier opcode", "opcode", code.String(), "key", name)
		}
		return tree.Str(name), true, nil
	}

	switch opcode.KindOf(code) {
	case opcode.KindDate:
		n, err := d.cur.ReadInt32()
		if err != nil {
			return tree.Value{}, false, fmt.Errorf("decode: date payload: %w", err)
		}
		dv := calendar.Decode(n)
		if dv.IsDate {
			return tree.Str(dv.Date), false, nil
		}
		return tree.Int(int64(dv.Int)), false, nil

	case opcode.KindFloat:
		f, err := d.cur.ReadFloat()
		if err != nil {
			return tree.Value{}, false, fmt.Errorf("decode: float payload: %w", err)
		}
		return tree.Float(f), false, nil

	case opcode.KindFloat5:
		f, err := d.cur.ReadFloat5()
		if err != nil {
			return tree.Value{}, false, fmt.Errorf("decode: float-5 payload: %w", err)
		}
		return tree.Float(f), false, nil

	case opcode.KindBool:
		b, err := d.cur.ReadBool()
		if err != nil {
			return tree.Value{}, false, fmt.Errorf("decode: bool payload: %w", err)
		}
		return tree.Bool(b), false, nil

	case opcode.KindString:
		s, err := d.cur.ReadString()
		if err != nil {
			return tree.Value{}, false, fmt.Errorf("decode: string payload: %w", err)
		}
		return tree.Str(s), false, nil

	case opcode.KindInt32:
		n, err := d.cur.ReadInt32()
		if err != nil {
			return tree.Value{}, false, fmt.Errorf("decode: int32 payload: %w", err)
		}
		return tree.Int(int64(n)), false, nil

	default:
		return tree.Value{}, false, fmt.Errorf("decode: opcode %s has no payload reader", code)
	}
}

// captureImportantSpan handles a root-level important key (countries or
// provinces). The important-key opcode has already been classified by the
// caller but not yet appended anywhere; this method performs the entire
// "identifier = { body }" cycle itself: append the identifier, consume `=`
// then `{`, scan a balanced body, append a placeholder as the fold's
// right-hand side, and finish the fold. The outer loop never sees the `=`
// or `{` tokens this consumes directly, so none of that is left for its
// own deferred-fold bookkeeping to pick up.
func (d *Decoder) captureImportantSpan(name string, parent *tree.Node) error {
	parent.Append(tree.Str(name))
	drop := d.Whitelist != nil && !d.Whitelist.Allows(name)
	if drop {
		d.log.Debugw("dropping whitelisted-out important key", "key", name)
	}

	eq, err := d.readOpcode()
	if err != nil || eq != opcode.Assign {
		return fmt.Errorf("decode: important key %q not followed by '=': %w", name, errOrBadShard(err))
	}
	open, err := d.readOpcode()
	if err != nil || open != opcode.Open {
		return fmt.Errorf("decode: important key %q not followed by '='+'{': %w", name, errOrBadShard(err))
	}

	start := d.cur.Pos()
	depth := 1
	for depth > 0 {
		tok, err := d.readOpcode()
		if err != nil {
			return fmt.Errorf("decode: %w: important key %q body never closed", ErrUnterminatedShard, name)
		}
		switch tok {
		case opcode.Open:
			depth++
		case opcode.Close:
			depth--
		default:
			if err := d.skipPayload(tok); err != nil {
				return fmt.Errorf("decode: skipping payload inside %q body: %w", name, err)
			}
		}
	}
	end := d.cur.Pos() - 2 // back out the closing `}` opcode itself

	// The placeholder stands in for the merged shard result that the
	// caller will graft on later via Parent.Set. Mark it so Close's rule-6
	// empty-child deletion doesn't remove it before that graft happens; a
	// standalone Decode (with no caller to resolve the span) then still
	// leaves the key present, holding an empty list.
	placeholder := parent.OpenChild()
	placeholder.KeepEmpty()
	placeholder.Close()

	if err := tree.FinishAssign(parent, drop); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if !drop {
		d.Spans = append(d.Spans, ImportantSpan{
			Key:    name,
			Raw:    d.cur.Slice(start, end),
			Parent: parent,
		})
	}
	return nil
}

// skipPayload advances the cursor past a primitive opcode's payload
// without constructing a value, used while scanning a balanced
// important-key body (identifiers carry no payload bytes of their own).
func (d *Decoder) skipPayload(code opcode.Code) error {
	if !opcode.IsPrimitive(code) {
		return nil
	}
	switch opcode.KindOf(code) {
	case opcode.KindDate, opcode.KindInt32, opcode.KindFloat:
		_, err := d.cur.ReadInt32()
		return err
	case opcode.KindFloat5:
		_, err := d.cur.ReadInt64()
		return err
	case opcode.KindBool:
		_, err := d.cur.ReadBool()
		return err
	case opcode.KindString:
		_, err := d.cur.ReadString()
		return err
	default:
		return nil
	}
}

func errOrBadShard(err error) error {
	if err != nil {
		return err
	}
	return errors.New("unexpected opcode")
}
