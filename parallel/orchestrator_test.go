package parallel

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/clausewitz-tools/eu4save/opcode"
	"github.com/clausewitz-tools/eu4save/shard"
)

func mustTable(t *testing.T, lines string) *opcode.Table {
	t.Helper()
	tbl := opcode.NewTable()
	require.NoError(t, tbl.Load(strings.NewReader(lines)))
	return tbl
}

// entry builds "<string-opcode><len=3><tag>={<int32-opcode x>=<n>}", matching
// package shard's country entry grammar closely enough to round-trip through
// a real decode.Decoder without needing the full shard-header regexp itself
// (Decode is handed entries directly here).
func entry(tag string, n int32) []byte {
	b := make([]byte, 0, 32)
	put16 := func(v uint16) { b = append(b, byte(v), byte(v>>8)) }
	put32 := func(v int32) { b = append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24)) }

	put16(uint16(opcode.String)) // string opcode
	put16(3)
	b = append(b, tag...)
	put16(uint16(opcode.Assign))
	put16(uint16(opcode.Open))
	put16(0x3101) // "x" per table below
	put16(uint16(opcode.Assign))
	put16(uint16(opcode.Int32))
	put32(n)
	put16(uint16(opcode.Close))
	return b
}

func TestDecodeMergesAllShards(t *testing.T) {
	tbl := mustTable(t, "3101 x\n")

	var entries [][]byte
	for i := 0; i < 9; i++ {
		entries = append(entries, entry(fmt.Sprintf("T%02d", i), int32(i)))
	}

	cfg := Config{Chunks: 4, Fs: afero.NewMemMapFs(), ScratchDir: "/scratch"}

	var progress [][2]int
	cfg.OnShardProgress = func(done, total int) {
		progress = append(progress, [2]int{done, total})
	}

	root, err := Decode(context.Background(), entries, tbl, nil, cfg)
	require.NoError(t, err)
	require.False(t, root.IsList())
	require.Len(t, root.Keys(), 9)

	for i := 0; i < 9; i++ {
		tag := fmt.Sprintf("T%02d", i)
		v, ok := root.Get(tag)
		require.True(t, ok, "missing key %s", tag)
		x, ok := v.Node.Get("x")
		require.True(t, ok)
		require.Equal(t, int64(i), x.I)
	}

	require.Len(t, progress, 4)
	require.Equal(t, [2]int{4, 4}, progress[len(progress)-1])
}

func TestDecodeDefaultsChunksAndFs(t *testing.T) {
	tbl := mustTable(t, "3101 x\n")
	entries := [][]byte{entry("AAA", 1)}

	root, err := Decode(context.Background(), entries, tbl, nil, Config{})
	require.NoError(t, err)

	v, ok := root.Get("AAA")
	require.True(t, ok)
	x, ok := v.Node.Get("x")
	require.True(t, ok)
	require.Equal(t, int64(1), x.I)
}

func TestDecodePropagatesWorkerFailure(t *testing.T) {
	tbl := mustTable(t, "3101 x\n")
	// Malformed entry: the object opened after `=` is never closed, so the
	// inner decoder hits EOF mid-object and the whole call fails.
	bad := []byte{0x0F, 0x00, 0x03, 0x00, 'B', 'A', 'D', 0x01, 0x00, 0x03, 0x00}

	_, err := Decode(context.Background(), [][]byte{bad}, tbl, nil, Config{
		Chunks: 1,
		Fs:     afero.NewMemMapFs(),
	})
	require.Error(t, err)

	var werr *WorkerError
	require.ErrorAs(t, err, &werr)
}

// TestPartitionGroupingMatchesOrchestratorChunking cross-checks that
// shard.Partition (used internally by Decode) agrees with the grouping this
// test suite assumes.
func TestPartitionGroupingMatchesOrchestratorChunking(t *testing.T) {
	entries := make([][]byte, 9)
	groups := shard.Partition(entries, 4)
	require.Len(t, groups, 4)
}
