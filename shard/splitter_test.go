package shard

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
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

// countryEntry builds "<string-opcode><len=3><tag>={<int32-opcode><payload>}".
func countryEntry(tag string, x int32) []byte {
	return concat(
		u16le(0x000F), u16le(3), []byte(tag),
		u16le(0x0001), u16le(0x0003),
		u16le(0x0014), i32le(x),
		u16le(0x0004),
	)
}

// provinceEntry builds "<int32-opcode><id>={<int32-opcode><payload>}".
func provinceEntry(id, x int32) []byte {
	return concat(
		u16le(0x0014), i32le(id),
		u16le(0x0001), u16le(0x0003),
		u16le(0x0014), i32le(x),
		u16le(0x0004),
	)
}

func TestSplitCountries(t *testing.T) {
	body := concat(countryEntry("TAG", 1), countryEntry("ABC", 2), countryEntry("Z9X", 3))

	entries, err := Split(body, KindCountries)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, countryEntry("TAG", 1), entries[0])
	require.Equal(t, countryEntry("ABC", 2), entries[1])
	require.Equal(t, countryEntry("Z9X", 3), entries[2])
}

func TestSplitProvincesWithHighByteID(t *testing.T) {
	// id uses a byte ≥ 0x80 in its little-endian encoding to exercise the
	// manual-scan path instead of a UTF-8-ambiguous regexp class.
	body := concat(provinceEntry(0x81, 10), provinceEntry(-5, 20))

	entries, err := Split(body, KindProvinces)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, provinceEntry(0x81, 10), entries[0])
	require.Equal(t, provinceEntry(-5, 20), entries[1])
}

func TestSplitNoEntriesIsError(t *testing.T) {
	_, err := Split([]byte{0x00, 0x01, 0x02}, KindCountries)
	require.ErrorIs(t, err, ErrNoEntries)
}

// TestPartitionS6 verifies an uneven split: 17 entries, chunks=4, groups
// of 5,4,4,4.
func TestPartitionS6(t *testing.T) {
	var body []byte
	for i := 0; i < 17; i++ {
		body = append(body, countryEntry(fmt.Sprintf("T%02d", i), int32(i))...)
	}

	entries, err := Split(body, KindCountries)
	require.NoError(t, err)
	require.Len(t, entries, 17)

	groups := Partition(entries, 4)
	require.Len(t, groups, 4)
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g)
	}
	require.Equal(t, []int{5, 4, 4, 4}, sizes)
}

func TestPartitionFewerEntriesThanChunks(t *testing.T) {
	entries := [][]byte{{1}, {2}}
	groups := Partition(entries, 8)
	require.Len(t, groups, 2)
	require.Equal(t, [][]byte{{1}}, groups[0])
	require.Equal(t, [][]byte{{2}}, groups[1])
}
