package domain

import "fmt"

// Cell represents a board cell state. The non-empty cells double as players.
type Cell uint8

const (
	Empty Cell = iota
	Black
	White
)

// Opponent returns the other player. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (c Cell) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// MarshalText encodes the cell by name, which also keeps []Cell from being
// encoded as base64.
func (c Cell) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cell) UnmarshalText(b []byte) error {
	switch string(b) {
	case "black":
		*c = Black
	case "white":
		*c = White
	case "empty", "":
		*c = Empty
	default:
		return fmt.Errorf("unknown cell %q", b)
	}
	return nil
}

// Board size bounds. MaxSize is enforced by callers, the engine only needs
// room for a run of five.
const (
	MinSize     = 5
	MaxSize     = 19
	DefaultSize = 15
)

// Point addresses a single cell.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Board is a square grid stored row-major.
type Board struct {
	size  int
	cells []Cell
}

// NewBoard returns an empty n x n board.
func NewBoard(n int) (*Board, error) {
	if n < MinSize {
		return nil, ErrInvalidSize
	}
	return &Board{size: n, cells: make([]Cell, n*n)}, nil
}

// Size returns the side length.
func (b *Board) Size() int { return b.size }

// InBounds reports whether (r, c) addresses a cell.
func (b *Board) InBounds(r, c int) bool {
	return r >= 0 && r < b.size && c >= 0 && c < b.size
}

// Get returns the cell at (r, c).
func (b *Board) Get(r, c int) (Cell, error) {
	if !b.InBounds(r, c) {
		return Empty, ErrOutOfBounds
	}
	return b.cells[r*b.size+c], nil
}

// Set writes v at (r, c).
func (b *Board) Set(r, c int, v Cell) error {
	if !b.InBounds(r, c) {
		return ErrOutOfBounds
	}
	b.cells[r*b.size+c] = v
	return nil
}

// IsFull reports whether no cell is empty.
func (b *Board) IsFull() bool {
	for _, v := range b.cells {
		if v == Empty {
			return false
		}
	}
	return true
}

// Count returns how many cells hold v.
func (b *Board) Count(v Cell) int {
	n := 0
	for _, c := range b.cells {
		if c == v {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (b *Board) Clone() *Board {
	cp := &Board{size: b.size, cells: make([]Cell, len(b.cells))}
	copy(cp.cells, b.cells)
	return cp
}

// Rows returns the grid as a fresh slice of rows.
func (b *Board) Rows() [][]Cell {
	out := make([][]Cell, b.size)
	for r := range out {
		out[r] = make([]Cell, b.size)
		copy(out[r], b.cells[r*b.size:(r+1)*b.size])
	}
	return out
}

// at skips the bounds check; callers must have checked InBounds.
func (b *Board) at(r, c int) Cell {
	return b.cells[r*b.size+c]
}

func (b *Board) clear() {
	for i := range b.cells {
		b.cells[i] = Empty
	}
}
