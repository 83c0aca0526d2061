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

package eu4save

import (
	"github.com/c2h5oh/datasize"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/clausewitz-tools/eu4save/opcode"
	"github.com/clausewitz-tools/eu4save/parallel"
	"github.com/clausewitz-tools/eu4save/whitelist"
)

// Config configures a single archive decode. There is deliberately no
// CLI-flag or viper binding here, just a plain struct a caller fills in.
type Config struct {
	// Table is the loaded opcode table. Required.
	Table *opcode.Table

	// Whitelist is consulted only while decoding gamestate; meta always
	// decodes with the whitelist disabled. A nil Whitelist means gamestate
	// decodes unfiltered too.
	Whitelist *whitelist.Set

	// Chunks is the parallel worker count used when a countries/provinces
	// shard is encountered. Default 8, min 1.
	Chunks int

	// ReadBufferSize hints the initial capacity used to slurp an archive
	// entry into memory before decoding; it is not a hard limit.
	ReadBufferSize datasize.ByteSize

	// OnShardProgress, if set, is invoked as shard workers complete.
	OnShardProgress func(done, total int)

	Log *zap.SugaredLogger

	// Fs is the scratch filesystem used while merging shard workers.
	// Default afero.NewOsFs(); tests pass afero.NewMemMapFs().
	Fs         afero.Fs
	ScratchDir string
}

func (c Config) chunks() int {
	if c.Chunks < 1 {
		return 8
	}
	return c.Chunks
}

func (c Config) log() *zap.SugaredLogger {
	if c.Log == nil {
		return zap.NewNop().Sugar()
	}
	return c.Log
}

func (c Config) parallelConfig() parallel.Config {
	return parallel.Config{
		Chunks:          c.chunks(),
		Fs:              c.Fs,
		ScratchDir:      c.ScratchDir,
		OnShardProgress: c.OnShardProgress,
		Log:             c.log(),
	}
}
