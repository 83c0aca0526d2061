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

// Package eu4save assembles the archive driver on top of packages opcode,
// whitelist, calendar, tree, decode, shard and parallel: read meta then
// gamestate, decode each, resolve any captured countries/provinces shard
// into the tree, and return the combined {meta, gamestate} root.
package eu4save

import (
	"bytes"
	"context"
	"io"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"

	"github.com/clausewitz-tools/eu4save/decode"
	"github.com/clausewitz-tools/eu4save/opcode"
	"github.com/clausewitz-tools/eu4save/parallel"
	"github.com/clausewitz-tools/eu4save/shard"
	"github.com/clausewitz-tools/eu4save/tree"
	"github.com/clausewitz-tools/eu4save/whitelist"
)

// Archive is the decoded top-level output: a node with two string-keyed
// children, meta and gamestate.
type Archive struct {
	Meta      *tree.Node
	Gamestate *tree.Node
}

// Decode runs the driver over already-opened meta and gamestate readers:
// meta decodes with the magic header required and the whitelist disabled,
// gamestate decodes with no magic header and cfg.Whitelist (if any)
// enabled.
func Decode(ctx context.Context, metaR, gamestateR io.Reader, cfg Config) (*Archive, error) {
	if cfg.Table == nil {
		return nil, errors.New("eu4save: Config.Table is required")
	}

	metaBuf, err := readAll(metaR, cfg.ReadBufferSize)
	if err != nil {
		return nil, errors.Wrap(err, "eu4save: reading meta")
	}
	meta, err := decodeStream(ctx, metaBuf, cfg, true, nil)
	if err != nil {
		return nil, errors.Wrap(err, "eu4save: decoding meta")
	}

	gamestateBuf, err := readAll(gamestateR, cfg.ReadBufferSize)
	if err != nil {
		return nil, errors.Wrap(err, "eu4save: reading gamestate")
	}
	gamestate, err := decodeStream(ctx, gamestateBuf, cfg, false, cfg.Whitelist)
	if err != nil {
		return nil, errors.Wrap(err, "eu4save: decoding gamestate")
	}

	return &Archive{Meta: meta, Gamestate: gamestate}, nil
}

// readAll slurps r fully, sized by hint when given (a 1MiB default
// otherwise); this is just an initial-capacity hint, not a hard limit.
func readAll(r io.Reader, hint datasize.ByteSize) ([]byte, error) {
	size := int64(hint)
	if size <= 0 {
		size = 1 << 20
	}
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeStream(ctx context.Context, buf []byte, cfg Config, requireMagic bool, wl *whitelist.Set) (*tree.Node, error) {
	d := decode.New(buf, cfg.Table, wl, requireMagic, cfg.log())
	root, err := d.Decode()
	if err != nil {
		return nil, err
	}
	if err := resolveSpans(ctx, d, cfg, wl); err != nil {
		return nil, err
	}
	return root, nil
}

// resolveSpans runs the shard/parallel pipeline over every important-key
// span the decoder captured instead of recursing into, and grafts each
// merged result back onto its triggering key.
func resolveSpans(ctx context.Context, d *decode.Decoder, cfg Config, wl *whitelist.Set) error {
	for _, span := range d.Spans {
		kind := shard.KindProvinces
		if span.Key == opcode.KeyCountries {
			kind = shard.KindCountries
		}

		entries, err := shard.Split(span.Raw, kind)
		if err != nil {
			return errors.Wrapf(err, "eu4save: splitting %q shard", span.Key)
		}

		merged, err := parallel.Decode(ctx, entries, cfg.Table, wl, cfg.parallelConfig())
		if err != nil {
			return errors.Wrapf(err, "eu4save: merging %q shard", span.Key)
		}

		span.Parent.Set(span.Key, tree.Child(merged))
	}
	return nil
}
