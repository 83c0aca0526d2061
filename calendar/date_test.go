package calendar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEpochLiteral(t *testing.T) {
	v := Decode(43_791_240)
	require.True(t, v.IsDate)
	require.Equal(t, "-1.1.1", v.Date)
}

func TestDecodeOutOfRange(t *testing.T) {
	v := Decode(zero - 1)
	require.False(t, v.IsDate)
	require.Equal(t, int32(zero-1), v.Int)

	v = Decode(maxValid + 1)
	require.False(t, v.IsDate)
	require.Equal(t, int32(maxValid+1), v.Int)
}

func TestDecodeGameStart(t *testing.T) {
	// 1444.11.11 is EU4's campaign start date; derived forward from the same
	// algorithm (year*365 + day-of-year)*24 + zero, not copied from any
	// external source.
	const day1444_11_11 int32 = 56_456_976
	v := Decode(day1444_11_11)
	require.True(t, v.IsDate)
	require.Equal(t, "1444.11.11", v.Date)
}

func TestDecodeNonLeapNeverProducesFeb29(t *testing.T) {
	for year := int64(0); year < 5; year++ {
		for doy := 0; doy < 365; doy++ {
			n := int32((year*365+int64(doy))*24 + zero)
			v := Decode(n)
			require.True(t, v.IsDate)
			require.NotContains(t, v.Date, ".2.29")
		}
	}
}
