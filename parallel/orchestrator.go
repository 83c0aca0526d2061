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

// Package parallel implements the shard orchestrator: it partitions
// already-split entry slices into worker groups, decodes each group
// independently, ferries the partial result through a compressed scratch
// artifact, and merges all artifacts back into one node in worker order.
package parallel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clausewitz-tools/eu4save/decode"
	"github.com/clausewitz-tools/eu4save/opcode"
	"github.com/clausewitz-tools/eu4save/shard"
	"github.com/clausewitz-tools/eu4save/tree"
	"github.com/clausewitz-tools/eu4save/whitelist"
)

// numberAPI decodes scratch JSON with UseNumber so int-valued payloads
// don't silently become float64 on the way back in (see fromJSON).
var numberAPI = jsoniter.Config{UseNumber: true}.Froze()

// Config configures a single Decode call.
type Config struct {
	Chunks          int                   // worker count; default 8, min 1
	Fs              afero.Fs              // scratch filesystem; default afero.NewOsFs()
	ScratchDir      string                // directory under Fs; default "."
	OnShardProgress func(done, total int) // optional progress hook
	Log             *zap.SugaredLogger
}

// WorkerError reports a single worker's decode failure, with the shard
// index that failed.
type WorkerError struct {
	Shard int
	Err   error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("parallel: worker %d failed: %v", e.Shard, e.Err)
}

func (e *WorkerError) Unwrap() error { return e.Err }

// Decode runs the partition/spawn/join/merge sequence over entries
// (already split by package shard). Workers are goroutines, each with a
// private buffer and a private decode.Decoder, never shared mutable
// state, relying on Go's memory model rather than the original parser's
// separate-process workers.
func Decode(ctx context.Context, entries [][]byte, table *opcode.Table, wl *whitelist.Set, cfg Config) (*tree.Node, error) {
	if cfg.Chunks < 1 {
		cfg.Chunks = 8
	}
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	scratchDir := cfg.ScratchDir
	if scratchDir == "" {
		scratchDir = "."
	}

	groups := shard.Partition(entries, cfg.Chunks)
	scratch := make([]string, len(groups))
	total := len(groups)

	var (
		mu        sync.Mutex
		doneCount int
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			buf := bytes.Join(group, nil)
			d := decode.New(buf, table, wl, false, log)
			node, err := d.Decode()
			if err != nil {
				return errors.WithStack(&WorkerError{Shard: i, Err: err})
			}

			payload, err := numberAPI.Marshal(node)
			if err != nil {
				return errors.WithStack(&WorkerError{Shard: i, Err: errors.Wrap(err, "marshal scratch payload")})
			}

			path, err := writeScratch(fs, scratchDir, payload)
			if err != nil {
				return errors.WithStack(&WorkerError{Shard: i, Err: errors.Wrap(err, "write scratch artifact")})
			}
			scratch[i] = path

			mu.Lock()
			doneCount++
			if cfg.OnShardProgress != nil {
				cfg.OnShardProgress(doneCount, total)
			}
			mu.Unlock()
			log.Debugw("shard decoded", "shard", i, "entries", len(group))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]tree.Value)
	for i, path := range scratch {
		val, err := readScratch(fs, path)
		if err != nil {
			return nil, errors.WithStack(&WorkerError{Shard: i, Err: errors.Wrap(err, "read scratch artifact")})
		}
		if err := fs.Remove(path); err != nil {
			log.Debugw("scratch cleanup failed", "shard", i, "path", path, "err", err)
		}

		obj, ok := val.(map[string]interface{})
		if !ok {
			return nil, errors.WithStack(&WorkerError{Shard: i, Err: errors.New("scratch artifact is not an object")})
		}
		// Entry boundaries are disjoint by construction, so a flat update
		// of the merged map is correct: no two workers ever produce the
		// same key.
		for k, v := range obj {
			merged[k] = fromJSON(v)
		}
	}

	return tree.NewMap(merged), nil
}

func writeScratch(fs afero.Fs, dir string, payload []byte) (string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := filepath.Join(dir, uuid.NewString()+".zst")

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write(payload); err != nil {
		zw.Close()
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	if err := afero.WriteFile(fs, name, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return name, nil
}

func readScratch(fs afero.Fs, path string) (interface{}, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	zr, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}

	var v interface{}
	if err := numberAPI.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// fromJSON rebuilds a tree.Value from a generically JSON-decoded payload
// (map[string]interface{}, []interface{}, json.Number, string, bool, or
// nil). Map key order is whatever Go's map iteration gives, so no
// ordering metadata needs to survive the scratch round-trip.
func fromJSON(v interface{}) tree.Value {
	switch x := v.(type) {
	case map[string]interface{}:
		m := make(map[string]tree.Value, len(x))
		for k, val := range x {
			m[k] = fromJSON(val)
		}
		return tree.Child(tree.NewMap(m))
	case []interface{}:
		list := make([]tree.Value, len(x))
		for i, val := range x {
			list[i] = fromJSON(val)
		}
		return tree.Child(tree.NewList(list))
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return tree.Int(n)
		}
		f, _ := x.Float64()
		return tree.Float(f)
	case string:
		return tree.Str(x)
	case bool:
		return tree.Bool(x)
	default:
		return tree.Str(fmt.Sprintf("%v", x))
	}
}
