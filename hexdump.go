package logstream

import "strconv"

const _HEX_DIGITS = "0123456789abcdef"

// Hexdump logs buf as rows of columns bytes (DEFAULT_COLUMNS for 0 or less,
// at most MAX_COLUMNS), one Log call per row, so a buffer of N bytes gives
// ceil(N/columns) entries:
//
//	0x000000: 68 65 6c 6c 6f 00 01 ...  hello..
//
// Each row is the offset, then two hex digits and a space per byte, then
// the bytes themselves with anything outside '!'..'~' shown as '.'. The last
// row is padded with spaces to full width.
func (s *Stream) Hexdump(c Category, p Priority, file string, line int, buf []byte, columns int) {
	for _, row := range hexdumpRows(buf, columns) {
		s.Log(c, p, file, line, row)
	}
}

// hexdumpRows renders the rows logged by Hexdump.
func hexdumpRows(buf []byte, columns int) []string {
	switch {
	case columns <= 0:
		columns = DEFAULT_COLUMNS
	case columns > MAX_COLUMNS:
		columns = MAX_COLUMNS
	}
	rows := make([]string, 0, (len(buf)+columns-1)/columns)
	row := make([]byte, 0, 10+columns*4)
	for off := 0; off < len(buf); off += columns {
		row = row[:0]
		row = append(row, "0x"...)
		hex := strconv.FormatUint(uint64(off), 16)
		for i := len(hex); i < 6; i++ {
			row = append(row, '0')
		}
		row = append(row, hex...)
		row = append(row, ": "...)
		for i := off; i < off+columns; i++ {
			if i < len(buf) {
				row = append(row, _HEX_DIGITS[buf[i]>>4], _HEX_DIGITS[buf[i]&0x0f], ' ')
			} else {
				row = append(row, "   "...)
			}
		}
		for i := off; i < off+columns; i++ {
			switch {
			case i >= len(buf):
				row = append(row, ' ')
			case buf[i] > ' ' && buf[i] < 0x7f:
				row = append(row, buf[i])
			default:
				row = append(row, '.')
			}
		}
		rows = append(rows, string(row))
	}
	return rows
}
