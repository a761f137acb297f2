package rastergrid

import "strconv"

// LookupTable is an annotated color table: one normalized RGBA value and one
// text annotation per palette index.
type LookupTable struct {
	// Values holds R, G, B, A per index, each normalized to [0, 1].
	Values [][4]float64

	// Annotations holds one label per index: the band-supplied category
	// name when non-empty, a generated "Category <index>" otherwise.
	Annotations []string
}

// ConvertColorTable builds an annotated lookup table from a band's raw
// palette. Only the RGB quadruplet interpretation is supported; any other
// palette kind returns an UnsupportedPaletteError and the caller proceeds
// without a table.
func ConvertColorTable(p *Palette, categories []string) (*LookupTable, error) {
	if p.Interp != PIRGB {
		return nil, &UnsupportedPaletteError{Interp: p.Interp}
	}

	lut := &LookupTable{
		Values:      make([][4]float64, len(p.Entries)),
		Annotations: make([]string, len(p.Entries)),
	}
	for i, e := range p.Entries {
		lut.Values[i] = [4]float64{
			float64(e.C1) / 255.0,
			float64(e.C2) / 255.0,
			float64(e.C3) / 255.0,
			float64(e.C4) / 255.0,
		}
		if i < len(categories) && categories[i] != "" {
			lut.Annotations[i] = categories[i]
		} else {
			lut.Annotations[i] = "Category " + strconv.Itoa(i)
		}
	}
	return lut, nil
}
