package rastergrid

// CompositeKind tags the composite a dataset's bands form, if any.
type CompositeKind int

const (
	// ResidualOnly means no recognized composite exists; every band is
	// residual.
	ResidualOnly CompositeKind = iota
	// CompositeRGB is a red/green/blue composite, plus alpha when present.
	CompositeRGB
	// CompositeGray is a single luminance band, plus alpha when present.
	CompositeGray
	// CompositePalette is a single palette-indexed band.
	CompositePalette
)

func (k CompositeKind) String() string {
	switch k {
	case CompositeRGB:
		return "RGB"
	case CompositeGray:
		return "Gray"
	case CompositePalette:
		return "Palette"
	default:
		return "ResidualOnly"
	}
}

// BandLayout is the immutable result of classifying a dataset's bands. At
// most one composite exists per dataset; bands it consumes are removed from
// the residual set, every other band stays residual under its original
// 1-based index.
type BandLayout struct {
	Kind CompositeKind

	// Group lists the 1-based band indices forming the composite, in
	// component order (e.g. R, G, B, A). Empty for ResidualOnly.
	Group []int

	// Residual lists the 1-based indices of bands not consumed by the
	// composite, in ascending order.
	Residual []int

	// HasAlpha reports whether the composite's last component is alpha.
	HasAlpha bool
}

// Components returns the number of components in the composite array.
func (l BandLayout) Components() int { return len(l.Group) }

// ClassifyBands assigns each band a semantic slot and selects the dataset's
// composite. The precedence table is fixed: a band's color interpretation
// claims the first still-empty slot among red-or-luma, green-or-chroma,
// blue-or-chroma, alpha, gray, palette; later bands with an already claimed
// role fall through to the residual set.
func ClassifyBands(ds Dataset) BandLayout {
	var red, green, blue, alpha, gray, palette int // 0 = slot empty

	n := ds.BandCount()
	for i := 1; i <= n; i++ {
		switch ds.Band(i).ColorInterp() {
		case CIRed, CIYCbCrY:
			if red == 0 {
				red = i
			}
		case CIGreen, CIYCbCrCb:
			if green == 0 {
				green = i
			}
		case CIBlue, CIYCbCrCr:
			if blue == 0 {
				blue = i
			}
		case CIAlpha:
			if alpha == 0 {
				alpha = i
			}
		case CIGray:
			if gray == 0 {
				gray = i
			}
		case CIPalette:
			if palette == 0 {
				palette = i
			}
		}
	}

	layout := BandLayout{Kind: ResidualOnly}

	// Composite selection, in order of preference.
	switch {
	case red != 0 && green != 0 && blue != 0:
		layout.Kind = CompositeRGB
		layout.Group = []int{red, green, blue}
		if alpha != 0 {
			layout.Group = append(layout.Group, alpha)
			layout.HasAlpha = true
		}
	case gray != 0:
		layout.Kind = CompositeGray
		layout.Group = []int{gray}
		if alpha != 0 {
			layout.Group = append(layout.Group, alpha)
			layout.HasAlpha = true
		}
	case palette != 0:
		layout.Kind = CompositePalette
		layout.Group = []int{palette}
	}

	grouped := make(map[int]bool, len(layout.Group))
	for _, i := range layout.Group {
		grouped[i] = true
	}
	for i := 1; i <= n; i++ {
		if !grouped[i] {
			layout.Residual = append(layout.Residual, i)
		}
	}

	return layout
}
