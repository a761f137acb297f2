package rastergrid

import "math"

// Sample constrains the numeric kinds a cell array can hold: the eight
// supported per-sample representations.
type Sample interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~float32 | ~float64
}

// ScalarArray is one named per-cell array attached to a Grid. The concrete
// type is always *Array[T] for the dataset's pixel kind.
type ScalarArray interface {
	Name() string
	Kind() PixelKind
	Components() int
	Tuples() int

	// Float64 returns the component of a tuple widened to float64. The raw
	// value is retained even for blanked cells.
	Float64(tuple, component int) float64

	// Lookup returns the array's annotated color table, or nil.
	Lookup() *LookupTable

	rename(name string)
	setLookup(*LookupTable)
}

// Array is a typed per-cell array in tuple-interleaved order:
// index = tuple*components + component.
type Array[T Sample] struct {
	name       string
	kind       PixelKind
	components int
	data       []T
	lookup     *LookupTable
}

// NewArray allocates a named array of tuples×components samples.
func NewArray[T Sample](name string, kind PixelKind, components, tuples int) *Array[T] {
	return &Array[T]{
		name:       name,
		kind:       kind,
		components: components,
		data:       make([]T, tuples*components),
	}
}

func (a *Array[T]) Name() string         { return a.name }
func (a *Array[T]) Kind() PixelKind      { return a.kind }
func (a *Array[T]) Components() int      { return a.components }
func (a *Array[T]) Tuples() int          { return len(a.data) / a.components }
func (a *Array[T]) Lookup() *LookupTable { return a.lookup }

// Value returns a component of a tuple at its native type.
func (a *Array[T]) Value(tuple, component int) T {
	return a.data[tuple*a.components+component]
}

// Float64 returns a component of a tuple widened to float64.
func (a *Array[T]) Float64(tuple, component int) float64 {
	return float64(a.data[tuple*a.components+component])
}

// Data returns the backing slice. Callers own the array once it is returned
// from a read; the slice stays valid after the source dataset is closed.
func (a *Array[T]) Data() []T { return a.data }

func (a *Array[T]) rename(name string)       { a.name = name }
func (a *Array[T]) setLookup(t *LookupTable) { a.lookup = t }

// Grid is the assembled output: a uniform grid of destW×destH cells with
// named cell-data arrays and per-cell blank flags. The extent has one more
// grid point than cells per axis.
type Grid struct {
	// Extent is [0, destW, 0, destH, 0, 0].
	Extent [6]int

	// Spacing is the component-wise absolute value of the resolved
	// geographic spacing; the Z component is 1.
	Spacing [3]float64

	// Origin anchors the grid at the lowest geographic coordinate,
	// irrespective of source row order.
	Origin [3]float64

	// Projection is the dataset's spatial reference string.
	Projection string

	// NoData holds one no-data value per source band, NaN when the band
	// declares none.
	NoData []float64

	arrays []ScalarArray
	active string
	blank  []bool
}

// NewGrid allocates a grid of destW×destH cells, all unblanked.
func NewGrid(destW, destH int) *Grid {
	return &Grid{
		Extent:  [6]int{0, destW, 0, destH, 0, 0},
		Spacing: [3]float64{1, 1, 1},
		Origin:  [3]float64{0, 0, 0},
		blank:   make([]bool, destW*destH),
	}
}

// CellCount returns the number of cells (destW × destH).
func (g *Grid) CellCount() int { return g.Extent[1] * g.Extent[3] }

// SetGeometry sets spacing and origin from a resolved georeference. Spacing
// signs are discarded; row/column mirroring during conversion already put
// cells in geographically increasing order.
func (g *Grid) SetGeometry(geo Georeference) {
	g.Spacing = [3]float64{math.Abs(geo.Spacing[0]), math.Abs(geo.Spacing[1]), 1}
	origin := geo.Origin()
	g.Origin = [3]float64{origin[0], origin[1], 0}
}

// AddArray attaches a named cell array. Names are unique per grid; adding an
// array under an existing name replaces it.
func (g *Grid) AddArray(a ScalarArray) {
	for i, existing := range g.arrays {
		if existing.Name() == a.Name() {
			g.arrays[i] = a
			return
		}
	}
	g.arrays = append(g.arrays, a)
}

// Array returns the named cell array, or nil.
func (g *Grid) Array(name string) ScalarArray {
	for _, a := range g.arrays {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// Arrays returns all attached cell arrays in attachment order.
func (g *Grid) Arrays() []ScalarArray { return g.arrays }

// SetActiveScalars marks the named array as the grid's primary scalars.
func (g *Grid) SetActiveScalars(name string) { g.active = name }

// ActiveScalars returns the primary scalar array, or nil.
func (g *Grid) ActiveScalars() ScalarArray { return g.Array(g.active) }

// RenameArray renames an attached array, keeping the active marker in step.
func (g *Grid) RenameArray(from, to string) {
	if a := g.Array(from); a != nil {
		a.rename(to)
		if g.active == from {
			g.active = to
		}
	}
}

// BlankCell marks a cell invalid without discarding its stored raw value.
func (g *Grid) BlankCell(cell int) {
	if cell >= 0 && cell < len(g.blank) {
		g.blank[cell] = true
	}
}

// CellBlanked reports whether a cell was masked by a no-data value.
func (g *Grid) CellBlanked(cell int) bool {
	return cell >= 0 && cell < len(g.blank) && g.blank[cell]
}
