package rastergrid

import (
	"errors"
	"fmt"
)

// ErrNoDataset indicates a decode was requested before any dataset was
// successfully opened.
var ErrNoDataset = errors.New("no dataset open")

// ErrInvalidWindow indicates a requested sub-window lies entirely outside
// the raster or has a non-positive extent.
var ErrInvalidWindow = errors.New("invalid pixel window")

// OpenError indicates a dataset could not be opened. The reader holds no
// dataset afterwards; every subsequent call fails until a path opens.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// DecodeError indicates a windowed decode failed or returned partial data.
// The read is aborted and no partially populated grid is retained.
type DecodeError struct {
	Band int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode band %d: %v", e.Band, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedPaletteError indicates a palette's interpretation is not the
// RGB quadruplet form. Conversion is skipped; the composite is still
// produced, just without a lookup table.
type UnsupportedPaletteError struct {
	Interp PaletteInterp
}

func (e *UnsupportedPaletteError) Error() string {
	return fmt.Sprintf("unsupported palette interpretation %s", e.Interp)
}
