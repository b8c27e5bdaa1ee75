// pkg/resource/grid.go
package resource

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// TileGrid is a dense grid of cell values. Column 0 row 0 is the top-left
// cell; rows grow downwards. Values above zero are solid.
type TileGrid struct {
	name   string
	width  int
	height int
	cells  []int
}

// gridFile is the JSON shape of a tile grid: either numeric cells (row
// major) or text rows where '.' and ' ' are empty, digits give their value
// and any other rune is 1.
type gridFile struct {
	Name  string   `json:"name"`
	Cells [][]int  `json:"cells,omitempty"`
	Rows  []string `json:"rows,omitempty"`
}

// NewTileGrid creates an empty width x height grid
func NewTileGrid(name string, width, height int) *TileGrid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &TileGrid{
		name:   name,
		width:  width,
		height: height,
		cells:  make([]int, width*height),
	}
}

// ParseTileGrid builds a grid from text rows. Short rows are padded with
// empty cells.
func ParseTileGrid(name string, rows ...string) *TileGrid {
	width := 0
	for _, row := range rows {
		if n := len([]rune(row)); n > width {
			width = n
		}
	}

	g := NewTileGrid(name, width, len(rows))
	for r, row := range rows {
		for c, ch := range []rune(row) {
			g.cells[r*width+c] = runeValue(ch)
		}
	}
	return g
}

func runeValue(ch rune) int {
	switch {
	case ch == '.' || ch == ' ':
		return 0
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	default:
		return 1
	}
}

// ReadTileGrid decodes a grid from JSON. fallbackName is used when the file
// does not name the grid.
func ReadTileGrid(r io.Reader, fallbackName string) (*TileGrid, error) {
	var file gridFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode tile grid: %w", err)
	}

	name := file.Name
	if name == "" {
		name = fallbackName
	}

	switch {
	case len(file.Cells) > 0 && len(file.Rows) > 0:
		return nil, fmt.Errorf("tile grid %s: cells and rows are mutually exclusive", name)
	case len(file.Rows) > 0:
		return ParseTileGrid(name, file.Rows...), nil
	}

	width := 0
	for _, row := range file.Cells {
		if len(row) > width {
			width = len(row)
		}
	}
	g := NewTileGrid(name, width, len(file.Cells))
	for r, row := range file.Cells {
		for c, value := range row {
			if value < 0 {
				return nil, fmt.Errorf("tile grid %s: negative value %d at (%d,%d)", name, value, c, r)
			}
			g.cells[r*width+c] = value
		}
	}
	return g, nil
}

// WriteTo encodes the grid as JSON numeric cells
func (g *TileGrid) WriteTo(w io.Writer) (int64, error) {
	file := gridFile{Name: g.name, Cells: make([][]int, g.height)}
	for r := 0; r < g.height; r++ {
		file.Cells[r] = append([]int(nil), g.cells[r*g.width:(r+1)*g.width]...)
	}

	data, err := json.Marshal(file)
	if err != nil {
		return 0, fmt.Errorf("failed to encode tile grid: %w", err)
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Name returns the grid name
func (g *TileGrid) Name() string {
	return g.name
}

// Width returns the number of columns
func (g *TileGrid) Width() int {
	return g.width
}

// Height returns the number of rows
func (g *TileGrid) Height() int {
	return g.height
}

// CellValue returns the value at (col, row); cells outside the grid are
// empty.
func (g *TileGrid) CellValue(col, row int) int {
	if col < 0 || row < 0 || col >= g.width || row >= g.height {
		return 0
	}
	return g.cells[row*g.width+col]
}

// SetCell sets the value at (col, row)
func (g *TileGrid) SetCell(col, row, value int) error {
	if col < 0 || row < 0 || col >= g.width || row >= g.height {
		return fmt.Errorf("cell (%d,%d) outside %dx%d grid %s", col, row, g.width, g.height, g.name)
	}
	g.cells[row*g.width+col] = value
	return nil
}

// Bounds returns the inclusive column and row range of the grid.
func (g *TileGrid) Bounds() (minCol, maxCol, minRow, maxRow int) {
	return 0, g.width - 1, 0, g.height - 1
}

// Solid returns the number of solid cells
func (g *TileGrid) Solid() int {
	n := 0
	for _, v := range g.cells {
		if v > 0 {
			n++
		}
	}
	return n
}

// String renders the grid as text rows
func (g *TileGrid) String() string {
	var b strings.Builder
	for r := 0; r < g.height; r++ {
		for c := 0; c < g.width; c++ {
			switch v := g.cells[r*g.width+c]; {
			case v == 0:
				b.WriteByte('.')
			case v < 10:
				b.WriteByte(byte('0' + v))
			default:
				b.WriteByte('#')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
