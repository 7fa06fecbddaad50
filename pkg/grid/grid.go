// Package grid implements the CSV codec for ARC-style reasoning grids:
// serializing a grid to CSV and robustly recovering the last plausible
// grid out of noisy, free-form LLM output.
package grid

import (
	"errors"
	"strconv"
	"strings"
)

// Grid is a rectangular, non-empty matrix of integers in 0-9.
type Grid [][]int

// Tri is a tri-state boolean: a verification result may be unknown
// when no ground truth is available.
type Tri int

const (
	TriUnknown Tri = iota
	TriTrue
	TriFalse
)

func (t Tri) Bool() (value bool, known bool) {
	switch t {
	case TriTrue:
		return true, true
	case TriFalse:
		return false, true
	default:
		return false, false
	}
}

// ErrNoGrid is returned by ParseFromText when no plausible grid block
// was found anywhere in the text.
var ErrNoGrid = errors.New("grid: could not parse grid from text")

// maxGap is the largest run of blank/non-data lines tolerated inside a
// single grid block before it is considered closed.
const maxGap = 2

// maxWidthDrift is the largest row-width difference tolerated within a
// block, to absorb ragged rows from model typos.
const maxWidthDrift = 5

// FormatCSV renders a grid row-major, comma-separated, newline between
// rows. Returns "" for a nil grid.
func FormatCSV(g Grid) string {
	if g == nil {
		return ""
	}
	rows := make([]string, len(g))
	for i, row := range g {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = strconv.Itoa(c)
		}
		rows[i] = strings.Join(cells, ",")
	}
	return strings.Join(rows, "\n")
}

// ToDisplayString renders a grid for the "visual" style used by logic
// judge prompts: a size header followed by one digit-run per row.
func ToDisplayString(g Grid) string {
	if len(g) == 0 {
		return "(Empty Grid)"
	}
	rows := len(g)
	cols := len(g[0])
	var b strings.Builder
	b.WriteString("Size: ")
	b.WriteString(strconv.Itoa(rows))
	b.WriteByte('x')
	b.WriteString(strconv.Itoa(cols))
	for _, row := range g {
		b.WriteByte('\n')
		for _, c := range row {
			b.WriteString(strconv.Itoa(c))
		}
	}
	return b.String()
}

// ToPaddedCSVRows renders a grid for the "consistency" judge prompt:
// comma-separated rows, each prefixed with padding for alignment in a
// larger prompt body.
func ToPaddedCSVRows(g Grid, padding string) string {
	if len(g) == 0 {
		return ""
	}
	lines := make([]string, len(g))
	for i, row := range g {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = strconv.Itoa(c)
		}
		lines[i] = padding + strings.Join(cells, ",")
	}
	return strings.Join(lines, "\n")
}

// Verify compares a predicted grid against expected ground truth,
// returning TriUnknown when expected is nil (no ground truth).
func Verify(predicted, expected Grid) Tri {
	if expected == nil {
		return TriUnknown
	}
	if Equal(predicted, expected) {
		return TriTrue
	}
	return TriFalse
}

// Equal reports deep row-by-row equality of two grids.
func Equal(a, b Grid) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// Key returns a canonical string form of a grid suitable for use as a
// map key (the candidate map is keyed on this). Two equal grids always
// produce the same key.
func Key(g Grid) string {
	return FormatCSV(g)
}
