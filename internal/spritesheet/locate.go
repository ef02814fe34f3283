// Package spritesheet maps a card index on a grid sprite sheet to texture coordinates.
package spritesheet

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned when the index is outside the sheet's cells.
	ErrIndexOutOfRange = errors.New("card index out of range")
	// ErrInvalidSheet is returned for non-positive sheet dimensions.
	ErrInvalidSheet = errors.New("invalid sheet dimensions")
)

// UV is a normalized texture coordinate. V grows upward, so the top row of the sheet is V=1.
type UV struct {
	U, V float64
}

// Quad holds the four corners of one cell, in the loop order of a single-quad plane mesh.
type Quad struct {
	BottomRight UV
	BottomLeft  UV
	TopLeft     UV
	TopRight    UV
}

// Loops returns the corners in loop order: bottom-right, bottom-left, top-left, top-right.
func (q Quad) Loops() []UV {
	return []UV{q.BottomRight, q.BottomLeft, q.TopLeft, q.TopRight}
}

// Locate returns the UV quad of cell index on a width x height sheet.
// Cells are numbered row-major starting at the top-left.
func Locate(index, width, height int) (Quad, error) {
	if width <= 0 || height <= 0 {
		return Quad{}, fmt.Errorf("spritesheet: %dx%d: %w", width, height, ErrInvalidSheet)
	}
	if index < 0 || index >= width*height {
		return Quad{}, fmt.Errorf("spritesheet: index %d on %dx%d sheet: %w", index, width, height, ErrIndexOutOfRange)
	}

	row := index / width
	col := index % width
	w, h := float64(width), float64(height)

	left := float64(col) / w
	right := float64(col+1) / w
	top := 1 - float64(row)/h
	bottom := 1 - float64(row+1)/h

	return Quad{
		BottomRight: UV{right, bottom},
		BottomLeft:  UV{left, bottom},
		TopLeft:     UV{left, top},
		TopRight:    UV{right, top},
	}, nil
}

// XScale is the horizontal correction for one cell: the cell's pixel aspect ratio
// (pixelW/width) / (pixelH/height). A unit-square plane scaled by it on X shows the cell
// undistorted.
func XScale(pixelW, pixelH, width, height int) float64 {
	if pixelH <= 0 || width <= 0 {
		return 1
	}
	return float64(pixelW*height) / float64(pixelH*width)
}
