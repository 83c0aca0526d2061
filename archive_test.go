package eu4save

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clausewitz-tools/eu4save/decode"
)

// buildTestArchive writes a minimal meta+gamestate ZIP to dir and returns
// its path.
func buildTestArchive(t *testing.T, dir string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	meta := concat(
		[]byte(decode.MagicHeader),
		u16le(0x2D01), u16le(uint16(0x0001)), u16le(uint16(0x0014)), i32le(1),
	)
	gamestate := concat(
		u16le(0x2D01), u16le(uint16(0x0001)), u16le(uint16(0x0014)), i32le(2),
	)

	for name, data := range map[string][]byte{"meta": meta, "gamestate": gamestate} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, "save.eu4")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestOpenReadsMetaAndGamestateFromZip(t *testing.T) {
	path := buildTestArchive(t, t.TempDir())
	tbl := mustTable(t)

	archive, err := Open(context.Background(), path, Config{Table: tbl})
	require.NoError(t, err)

	v, ok := archive.Meta.Get("name")
	require.True(t, ok)
	require.Equal(t, int64(1), v.I)

	v, ok = archive.Gamestate.Get("name")
	require.True(t, ok)
	require.Equal(t, int64(2), v.I)
}

func TestOpenMissingEntryFails(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("meta")
	require.NoError(t, err)
	_, err = w.Write([]byte(decode.MagicHeader))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, "save.eu4")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	tbl := mustTable(t)
	_, err = Open(context.Background(), path, Config{Table: tbl})
	require.Error(t, err)
}
