package rastergrid

import (
	"fmt"
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/paulmach/orb"
)

// CompositeArrayName is the name of the composite cell array, renamed to
// PaletteArrayName when the composite is palette-indexed.
const (
	CompositeArrayName = "Elevation"
	PaletteArrayName   = "Categories"
)

// Layout describes a dataset's shape and placement without decoding pixels:
// the first phase of the read protocol.
type Layout struct {
	RasterWidth, RasterHeight int
	TargetWidth, TargetHeight int
	BandCount                 int
	PixelKind                 PixelKind

	// Spacing is the signed per-axis geographic step derived from the
	// corner coordinates; the assembled grid carries its absolute value.
	Spacing [2]float64

	// Origin is the grid anchor: the lowest geographic coordinate of the
	// two diagonal corners.
	Origin [2]float64

	Projection      string
	DriverShortName string
	DriverLongName  string
	Bounds          orb.Bound

	// Geo carries the full corner resolution, including the identity
	// fallback and low-confidence indicators.
	Geo Georeference
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger routes the reader's non-fatal diagnostics through the given
// logger. The default discards them.
func WithLogger(logger log.Logger) ReaderOption {
	return func(r *Reader) { r.logger = logger }
}

// WithOpener replaces how the reader turns a path into a Dataset. The
// default opens the bundled GeoTIFF backend, from a file or a URL.
func WithOpener(open func(path string) (Dataset, error)) ReaderOption {
	return func(r *Reader) { r.open = open }
}

// Reader converts an opened raster dataset into a Grid of typed per-cell
// arrays. It exposes the read as two phases: DescribeLayout reports
// dimensions, spacing, origin and projection without touching pixels;
// Materialize performs the full decode. The reader exclusively owns its
// dataset handle and is not safe for concurrent use.
type Reader struct {
	logger log.Logger
	open   func(path string) (Dataset, error)

	ds       Dataset
	prevPath string

	rasterW, rasterH int
	bandCount        int
	driverShort      string
	driverLong       string
	meta             []string
	hasNoData        []bool
	noData           []float64

	// Configuration, applied before either phase.
	targetW, targetH int
	window           *subWindow
	forcedKind       PixelKind

	kind  PixelKind
	stats ReadStats
}

type subWindow struct {
	x, y, w, h int
}

// NewReader returns a reader with no dataset open and native-resolution
// output.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{
		logger:  log.NewNopLogger(),
		open:    func(path string) (Dataset, error) { return OpenDataset(path) },
		targetW: -1,
		targetH: -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetTargetDimensions requests the output grid size. When it differs from
// the source window the decode resamples on read. Non-positive values
// restore the default: one cell per source pixel.
func (r *Reader) SetTargetDimensions(width, height int) {
	r.targetW, r.targetH = width, height
}

// SetWindow restricts the read to a sub-window of the raster. The offset is
// in native pixels with the origin at the raster's top-left; the window is
// clamped to the raster at read time.
func (r *Reader) SetWindow(x, y, width, height int) {
	r.window = &subWindow{x: x, y: y, w: width, h: height}
}

// ClearWindow restores full-raster reads.
func (r *Reader) ClearWindow() { r.window = nil }

// SetPixelKind overrides the scalar kind instead of adopting the first
// band's native representation. KindUnknown restores the default.
func (r *Reader) SetPixelKind(kind PixelKind) { r.forcedKind = kind }

// CanRead reports whether the path opens as a raster dataset.
func (r *Reader) CanRead(path string) bool {
	ds, err := r.open(path)
	if err != nil {
		return false
	}
	ds.Close()
	return true
}

// ReadMetadata opens the dataset at path and records its dimensions, band
// count, driver identity and free-form metadata. Calling it again with the
// same path is a no-op. A different path first releases the held dataset;
// if the new one fails to open, no dataset is held and the error reports
// the failure. There is no partial state.
func (r *Reader) ReadMetadata(path string) error {
	if r.ds != nil && path == r.prevPath {
		return nil
	}

	r.release()

	ds, err := r.open(path)
	if err != nil {
		return &OpenError{Path: path, Err: err}
	}

	r.ds = ds
	r.prevPath = path
	r.rasterW, r.rasterH = ds.Size()
	r.bandCount = ds.BandCount()
	r.driverShort, r.driverLong = ds.DriverName()
	r.meta = ds.Metadata("")
	r.kind = KindUnknown

	r.hasNoData = make([]bool, r.bandCount)
	r.noData = make([]float64, r.bandCount)
	for i := 1; i <= r.bandCount; i++ {
		r.noData[i-1], r.hasNoData[i-1] = ds.Band(i).NoDataValue()
	}

	return nil
}

// DescribeLayout is the first phase of the read protocol: it probes the
// dataset and resolves its geographic placement without decoding a pixel.
func (r *Reader) DescribeLayout(path string) (*Layout, error) {
	if err := r.ReadMetadata(path); err != nil {
		return nil, err
	}

	win, err := r.resolveWindow()
	if err != nil {
		return nil, err
	}

	geo := ResolveGeoreference(r.ds, r.logger)
	origin := geo.Origin()

	kind := r.forcedKind
	if kind == KindUnknown && r.bandCount > 0 {
		kind = r.ds.Band(1).PixelKind()
	}

	return &Layout{
		RasterWidth:     r.rasterW,
		RasterHeight:    r.rasterH,
		TargetWidth:     win.DestWidth,
		TargetHeight:    win.DestHeight,
		BandCount:       r.bandCount,
		PixelKind:       kind,
		Spacing:         geo.Spacing,
		Origin:          origin,
		Projection:      r.ds.ProjectionRef(),
		DriverShortName: r.driverShort,
		DriverLongName:  r.driverLong,
		Bounds:          geo.Bounds(),
		Geo:             geo,
	}, nil
}

// Materialize is the second phase: the full windowed decode. It classifies
// bands, decodes the composite group and every residual band, masks no-data
// cells and assembles the output grid. Any decode failure aborts the read
// and returns the error; no partially populated grid is ever exposed.
func (r *Reader) Materialize(path string) (*Grid, error) {
	if err := r.ReadMetadata(path); err != nil {
		return nil, err
	}

	win, err := r.resolveWindow()
	if err != nil {
		return nil, err
	}

	// All bands share the first band's representation. Datasets with mixed
	// band types are a documented limitation.
	kind := r.forcedKind
	if kind == KindUnknown && r.bandCount > 0 {
		kind = r.ds.Band(1).PixelKind()
	}
	if kind.Size() == 0 {
		kind = KindUint8
	}
	r.kind = kind

	layout := ClassifyBands(r.ds)
	geo := ResolveGeoreference(r.ds, r.logger)

	grid := NewGrid(win.DestWidth, win.DestHeight)
	grid.SetGeometry(geo)

	r.stats = ReadStats{}

	if layout.Kind != ResidualOnly {
		if err := r.readGroup(grid, layout.Group, CompositeArrayName, win, geo); err != nil {
			return nil, err
		}
		grid.SetActiveScalars(CompositeArrayName)
	}

	for _, b := range layout.Residual {
		if err := r.readGroup(grid, []int{b}, fmt.Sprintf("band_%d", b), win, geo); err != nil {
			return nil, err
		}
	}

	if layout.Kind == CompositePalette {
		r.attachColorTable(grid, layout.Group[0])
	}

	grid.Projection = r.ds.ProjectionRef()
	grid.NoData = make([]float64, r.bandCount)
	for i := range grid.NoData {
		if r.hasNoData[i] {
			grid.NoData[i] = r.noData[i]
		} else {
			grid.NoData[i] = math.NaN()
		}
	}

	return grid, nil
}

// readGroup decodes one band group into a shared band-major buffer and
// remaps it into a named grid array.
func (r *Reader) readGroup(grid *Grid, group []int, name string, win Window, geo Georeference) error {
	raw, err := decodeGroup(r.ds, group, win, r.kind)
	if err != nil {
		return err
	}
	defer PutBuffer(raw)

	arr := remapGroup(raw, convertSpec{
		name:  name,
		kind:  r.kind,
		destW: win.DestWidth,
		destH: win.DestHeight,
		group: group,
		flipX: geo.FlipX,
		flipY: geo.FlipY,
	}, r.hasNoData, r.noData, grid, &r.stats)
	grid.AddArray(arr)
	return nil
}

// attachColorTable converts the palette band's color table and renames the
// composite. An unsupported palette interpretation skips the table; the
// composite keeps its decoded indices either way.
func (r *Reader) attachColorTable(grid *Grid, band int) {
	grid.RenameArray(CompositeArrayName, PaletteArrayName)

	b := r.ds.Band(band)
	pal := b.Palette()
	if pal == nil {
		return
	}
	lut, err := ConvertColorTable(pal, b.CategoryNames())
	if err != nil {
		level.Warn(r.logger).Log("msg", "skipping color table", "band", band, "err", err)
		return
	}
	grid.Array(PaletteArrayName).setLookup(lut)
}

// resolveWindow clamps the configured sub-window to the raster and applies
// target-dimension defaulting.
func (r *Reader) resolveWindow() (Window, error) {
	if r.ds == nil {
		return Window{}, ErrNoDataset
	}

	sx, sy, sw, sh := 0, 0, r.rasterW, r.rasterH
	if r.window != nil {
		sx, sy, sw, sh = r.window.x, r.window.y, r.window.w, r.window.h
		sx = min(max(sx, 0), r.rasterW)
		sy = min(max(sy, 0), r.rasterH)
		sw = max(sw, 0)
		sh = max(sh, 0)
		if sx+sw > r.rasterW {
			sw = r.rasterW - sx
		}
		if sy+sh > r.rasterH {
			sh = r.rasterH - sy
		}
	}
	if sw <= 0 || sh <= 0 {
		return Window{}, ErrInvalidWindow
	}

	tw, th := r.targetW, r.targetH
	if tw <= 0 || th <= 0 {
		tw, th = sw, sh
	}

	return Window{
		SrcX: sx, SrcY: sy,
		SrcWidth: sw, SrcHeight: sh,
		DestWidth: tw, DestHeight: th,
	}, nil
}

// RasterDimensions returns the raster width and height recorded by the last
// successful ReadMetadata.
func (r *Reader) RasterDimensions() (int, int) { return r.rasterW, r.rasterH }

// BandCount returns the band count of the held dataset.
func (r *Reader) BandCount() int { return r.bandCount }

// DriverShortName identifies the format driver of the held dataset.
func (r *Reader) DriverShortName() string { return r.driverShort }

// DriverLongName is the driver's descriptive name.
func (r *Reader) DriverLongName() string { return r.driverLong }

// Metadata returns the dataset's default-domain "KEY=VALUE" strings.
func (r *Reader) Metadata() []string { return r.meta }

// DomainMetadata returns the dataset's metadata strings for a named domain.
func (r *Reader) DomainMetadata(domain string) []string {
	if r.ds == nil {
		return nil
	}
	return r.ds.Metadata(domain)
}

// InvalidValue returns the no-data value of a band (1-based) and whether
// the band declares one.
func (r *Reader) InvalidValue(band int) (float64, bool) {
	if band < 1 || band > len(r.noData) {
		return 0, false
	}
	return r.noData[band-1], r.hasNoData[band-1]
}

// Stats returns the running statistics of the last Materialize: min, max
// and populated-cell count across every array it produced.
func (r *Reader) Stats() ReadStats { return r.stats }

// Close releases the held dataset. Arrays already returned from Materialize
// remain valid.
func (r *Reader) Close() error {
	err := r.releaseErr()
	return err
}

func (r *Reader) release() { _ = r.releaseErr() }

func (r *Reader) releaseErr() error {
	var err error
	if r.ds != nil {
		err = r.ds.Close()
		r.ds = nil
	}
	r.prevPath = ""
	return err
}
