package rastergrid

// PixelKind identifies the numeric representation of a single sample.
// It is fixed once per dataset from the first band and every decode during
// that read uses the same kind.
type PixelKind int

const (
	KindUnknown PixelKind = iota
	KindUint8
	KindInt8
	KindUint16
	KindInt16
	KindUint32
	KindInt32
	KindFloat32
	KindFloat64
)

// Size returns the width of one sample in bytes, or 0 for KindUnknown.
func (k PixelKind) Size() int {
	switch k {
	case KindUint8, KindInt8:
		return 1
	case KindUint16, KindInt16:
		return 2
	case KindUint32, KindInt32, KindFloat32:
		return 4
	case KindFloat64:
		return 8
	default:
		return 0
	}
}

func (k PixelKind) String() string {
	switch k {
	case KindUint8:
		return "uint8"
	case KindInt8:
		return "int8"
	case KindUint16:
		return "uint16"
	case KindInt16:
		return "int16"
	case KindUint32:
		return "uint32"
	case KindInt32:
		return "int32"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

// ColorInterp is a band's color interpretation: the semantic meaning of its
// samples when the dataset is rendered.
type ColorInterp int

const (
	CIUndefined ColorInterp = iota
	CIGray
	CIPalette
	CIRed
	CIGreen
	CIBlue
	CIAlpha
	CIYCbCrY
	CIYCbCrCb
	CIYCbCrCr
)

func (ci ColorInterp) String() string {
	switch ci {
	case CIGray:
		return "Gray"
	case CIPalette:
		return "Palette"
	case CIRed:
		return "Red"
	case CIGreen:
		return "Green"
	case CIBlue:
		return "Blue"
	case CIAlpha:
		return "Alpha"
	case CIYCbCrY:
		return "YCbCr_Y"
	case CIYCbCrCb:
		return "YCbCr_Cb"
	case CIYCbCrCr:
		return "YCbCr_Cr"
	default:
		return "Undefined"
	}
}

// Window describes one windowed decode: a rectangle in native pixel space
// and the destination size it should be delivered at. When the destination
// size differs from the source size the band resamples on read.
type Window struct {
	SrcX, SrcY            int
	SrcWidth, SrcHeight   int
	DestWidth, DestHeight int
}

// GroundControlPoint ties a pixel position to a georeferenced position. The
// pixel fields follow the center-pixel convention: the center of the top-left
// pixel is (0.5, 0.5).
type GroundControlPoint struct {
	Pixel, Line float64
	X, Y, Z     float64
	ID          string
}

// PaletteInterp identifies how the four components of a palette entry are to
// be interpreted.
type PaletteInterp int

const (
	PIGray PaletteInterp = iota
	PIRGB
	PICMYK
	PIHLS
)

func (pi PaletteInterp) String() string {
	switch pi {
	case PIGray:
		return "Gray"
	case PIRGB:
		return "RGB"
	case PICMYK:
		return "CMYK"
	case PIHLS:
		return "HLS"
	default:
		return "Unknown"
	}
}

// PaletteEntry is one raw color table entry, components in 0..255.
type PaletteEntry struct {
	C1, C2, C3, C4 int16
}

// Palette is a band's raw indexed color table.
type Palette struct {
	Interp  PaletteInterp
	Entries []PaletteEntry
}

// Band exposes per-band metadata and windowed decoding for one channel plane
// of a dataset. Band numbering on the owning Dataset is 1-based.
type Band interface {
	// ColorInterp reports the band's color role.
	ColorInterp() ColorInterp

	// NoDataValue reports the band's no-data sentinel and whether one is set.
	NoDataValue() (float64, bool)

	// PixelKind reports the band's native sample representation.
	PixelKind() PixelKind

	// Palette returns the band's color table, or nil when the band is not
	// palette-indexed.
	Palette() *Palette

	// CategoryNames returns per-index category labels for palette bands, or
	// nil when the band carries none.
	CategoryNames() []string

	// ReadWindow decodes the window into dst as samples of the requested
	// kind. pixelStride and lineStride are byte distances between adjacent
	// samples and adjacent rows in dst, so several bands can be decoded into
	// one shared band-major buffer. Sample bytes use the host layout.
	ReadWindow(w Window, dst []byte, kind PixelKind, pixelStride, lineStride int) error
}

// Dataset is the raster-access capability the reader consumes: an opened
// multi-band regularly gridded raster. Implementations are not required to
// be safe for concurrent use; a Dataset is exclusively owned by one reader.
type Dataset interface {
	// Size returns the raster width and height in pixels.
	Size() (width, height int)

	// BandCount returns the number of bands.
	BandCount() int

	// Band returns the i-th band, 1-based.
	Band(i int) Band

	// GeoTransform returns the six affine coefficients mapping pixel (x, y)
	// to georeferenced (X, Y):
	//
	//	X = gt[0] + gt[1]*x + gt[2]*y
	//	Y = gt[3] + gt[4]*x + gt[5]*y
	//
	// ok is false when the dataset carries no geotransform.
	GeoTransform() (gt [6]float64, ok bool)

	// GroundControlPoints returns the dataset's GCPs, or nil.
	GroundControlPoints() []GroundControlPoint

	// ProjectionRef returns the spatial reference string, or "".
	ProjectionRef() string

	// Metadata returns free-form "KEY=VALUE" strings for a metadata domain.
	// The default domain is "".
	Metadata(domain string) []string

	// DriverName identifies the format driver that opened the dataset.
	DriverName() (short, long string)

	// Close releases the dataset. Arrays already handed to callers stay
	// valid after Close.
	Close() error
}
