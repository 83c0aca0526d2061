package eu4save

import (
	"context"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/clausewitz-tools/eu4save/decode"
	"github.com/clausewitz-tools/eu4save/opcode"
	"github.com/clausewitz-tools/eu4save/whitelist"
)

func u16le(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func i32le(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func countryEntry(tag string, x int32) []byte {
	return concat(
		u16le(uint16(opcode.String)), u16le(3), []byte(tag),
		u16le(uint16(opcode.Assign)), u16le(uint16(opcode.Open)),
		u16le(0x3101), u16le(uint16(opcode.Assign)), u16le(uint16(opcode.Int32)), i32le(x),
		u16le(uint16(opcode.Close)),
	)
}

func mustTable(t *testing.T) *opcode.Table {
	t.Helper()
	tbl := opcode.NewTable()
	require.NoError(t, tbl.Load(strings.NewReader("2d01 name\n3101 x\n5 countries\n")))
	return tbl
}

// TestDecodeAssemblesMetaAndGamestate is an end-to-end driver exercise:
// meta requires the magic header and has no whitelist; gamestate has no
// header, runs with a whitelist, and contains a countries shard that must
// round-trip through the shard/parallel pipeline before landing back in
// the merged tree.
func TestDecodeAssemblesMetaAndGamestate(t *testing.T) {
	tbl := mustTable(t)

	meta := concat(
		[]byte(decode.MagicHeader),
		u16le(0x2D01), u16le(uint16(opcode.Assign)), u16le(uint16(opcode.Int32)), i32le(42),
	)

	countriesBody := concat(countryEntry("TAG", 1), countryEntry("ABC", 2))
	gamestate := concat(
		u16le(0x2D01), u16le(uint16(opcode.Assign)), u16le(uint16(opcode.Int32)), i32le(7),
		u16le(0x0005), u16le(uint16(opcode.Assign)), u16le(uint16(opcode.Open)),
		countriesBody,
		u16le(uint16(opcode.Close)),
	)

	wl := whitelist.New()
	require.NoError(t, wl.Load(strings.NewReader("key\nname\nx\ncountries\n")))

	cfg := Config{
		Table:     tbl,
		Whitelist: wl,
		Chunks:    2,
		Fs:        afero.NewMemMapFs(),
	}

	archive, err := Decode(context.Background(), strings.NewReader(string(meta)), strings.NewReader(string(gamestate)), cfg)
	require.NoError(t, err)

	name, ok := archive.Meta.Get("name")
	require.True(t, ok)
	require.Equal(t, int64(42), name.I)

	name, ok = archive.Gamestate.Get("name")
	require.True(t, ok)
	require.Equal(t, int64(7), name.I)

	countries, ok := archive.Gamestate.Get("countries")
	require.True(t, ok)
	require.False(t, countries.Node.IsList())

	for i, tag := range []string{"TAG", "ABC"} {
		v, ok := countries.Node.Get(tag)
		require.True(t, ok, "missing country %s", tag)
		x, ok := v.Node.Get("x")
		require.True(t, ok)
		require.Equal(t, int64(i+1), x.I)
	}
}

func TestDecodeRejectsMissingTable(t *testing.T) {
	_, err := Decode(context.Background(), strings.NewReader(""), strings.NewReader(""), Config{})
	require.Error(t, err)
}

func TestDecodeFailsOnBadMetaMagic(t *testing.T) {
	tbl := mustTable(t)
	_, err := Decode(context.Background(), strings.NewReader("not-magic"), strings.NewReader(""), Config{Table: tbl})
	require.Error(t, err)
}
