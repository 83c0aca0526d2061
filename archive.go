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
	"archive/zip"
	"context"

	"github.com/pkg/errors"
)

// Open reads meta and gamestate out of the ZIP archive at path and decodes
// them. Callers that already have the two streams open should call Decode
// directly; this is thin glue over archive/zip to get there from a path.
func Open(ctx context.Context, path string, cfg Config) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, "eu4save: opening archive")
	}
	defer zr.Close()

	metaFile, err := findEntry(&zr.Reader, "meta")
	if err != nil {
		return nil, err
	}
	gamestateFile, err := findEntry(&zr.Reader, "gamestate")
	if err != nil {
		return nil, err
	}

	metaR, err := metaFile.Open()
	if err != nil {
		return nil, errors.Wrap(err, "eu4save: opening meta entry")
	}
	defer metaR.Close()

	gamestateR, err := gamestateFile.Open()
	if err != nil {
		return nil, errors.Wrap(err, "eu4save: opening gamestate entry")
	}
	defer gamestateR.Close()

	return Decode(ctx, metaR, gamestateR, cfg)
}

func findEntry(zr *zip.Reader, name string) (*zip.File, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, errors.Errorf("eu4save: archive missing %q entry", name)
}
