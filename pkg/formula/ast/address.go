package ast

import (
	"fmt"
	"strconv"

	"github.com/tallygrid/tally/pkg/formula/lexer"
)

// Grid limits, matching the usual 16384 x 1048576 sheet.
const (
	MaxCol = 16383
	MaxRow = 1048575
)

// Address is a zero-based cell position on a sheet.
type Address struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// String renders the address in A1 form.
func (a Address) String() string {
	return lexer.ColumnLabel(a.Col) + strconv.Itoa(a.Row+1)
}

// InBounds reports whether the address lies on the grid.
func (a Address) InBounds() bool {
	return a.Col >= 0 && a.Col <= MaxCol && a.Row >= 0 && a.Row <= MaxRow
}

// ParseAddress parses a plain A1-style address (no $ flags, no sheet).
func ParseAddress(s string) (Address, error) {
	i := 0
	for i < len(s) && isLetterByte(s[i]) {
		i++
	}
	if i == 0 || i > 3 || i == len(s) {
		return Address{}, fmt.Errorf("invalid cell address %q", s)
	}
	row := 0
	for j := i; j < len(s); j++ {
		if s[j] < '0' || s[j] > '9' {
			return Address{}, fmt.Errorf("invalid cell address %q", s)
		}
		row = row*10 + int(s[j]-'0')
	}
	if row < 1 {
		return Address{}, fmt.Errorf("invalid cell address %q", s)
	}
	col := 0
	for j := 0; j < i; j++ {
		c := s[j]
		if c >= 'a' {
			c -= 32
		}
		col = col*26 + int(c-'A') + 1
	}
	addr := Address{Col: col - 1, Row: row - 1}
	if !addr.InBounds() {
		return Address{}, fmt.Errorf("cell address %q out of bounds", s)
	}
	return addr, nil
}

func isLetterByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
