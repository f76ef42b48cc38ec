package logstream

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_hexdumpRows(t *testing.T) {
	t.Run("padded_last_row", func(t *testing.T) {
		rows := hexdumpRows([]byte("hello\x00\x01"), 4)
		assert.Equal(t, []string{
			"0x000000: 68 65 6c 6c hell",
			"0x000004: 6f 00 01    o.. ",
		}, rows)
	})
	t.Run("printable_range", func(t *testing.T) {
		rows := hexdumpRows([]byte{' ', '!', '~', 0x7f, 0x80, 0xff, '\n', 'A'}, 8)
		require.Len(t, rows, 1)
		assert.Equal(t, "0x000000: 20 21 7e 7f 80 ff 0a 41 .!~....A", rows[0])
	})
	t.Run("offsets", func(t *testing.T) {
		rows := hexdumpRows(bytes.Repeat([]byte{0xab}, 40), 16)
		require.Len(t, rows, 3)
		assert.Equal(t, "0x000010: ", rows[1][:10])
		assert.Equal(t, "0x000020: ", rows[2][:10])
		for _, row := range rows {
			assert.Len(t, row, 10+16*4)
		}
	})
	t.Run("row_count", func(t *testing.T) {
		tests := []struct {
			n, columns, want int
		}{
			{0, 16, 0},
			{1, 16, 1},
			{16, 16, 1},
			{17, 16, 2},
			{100, 7, 15},
			{5, 1, 5},
			{5, 0, 1},
			{5, -3, 1},
			{241, MAX_COLUMNS + 1, 3},
		}
		for _, tt := range tests {
			assert.Len(t, hexdumpRows(make([]byte, tt.n), tt.columns), tt.want, "%d bytes by %d", tt.n, tt.columns)
		}
	})
	t.Run("oversized_columns", func(t *testing.T) {
		for _, columns := range []int{MAX_COLUMNS + 1, 1 << 20, math.MaxInt} {
			rows := hexdumpRows([]byte{'A'}, columns)
			require.Len(t, rows, 1)
			assert.Len(t, rows[0], 10+MAX_COLUMNS*4, "columns %d", columns)
			assert.Less(t, len(rows[0]), 500)
		}
	})
}

func Test_Stream_Hexdump(t *testing.T) {
	s, mem, _ := newTestStream(t)
	s.SetFileLine(true)
	s.Hexdump(CAT_NETWORK, LVL_DEBUG, "net.c", 12, make([]byte, 33), 0)
	s.Hexdump(CAT_NETWORK, LVL_DEBUG, "net.c", 13, nil, 8)
	s.Stop()
	entries := mem.Entries()
	require.Len(t, entries, 3, "default row width is 16")
	for i, e := range entries {
		assert.Equal(t, CAT_NETWORK, e.Category)
		assert.Equal(t, LVL_DEBUG, e.Priority)
		assert.Equal(t, "net.c", e.File)
		assert.Equal(t, 12, e.Line)
		assert.Equal(t, uint64(i+1), e.Seq)
	}
	assert.Equal(t, "0x000020: 00 "+strings.Repeat("   ", 15)+"."+strings.Repeat(" ", 15), entries[2].Message)
}
