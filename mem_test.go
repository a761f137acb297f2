package rastergrid

// In-memory Dataset and Band fakes shared by the package tests. Sample
// values are stored as float64 at full raster resolution and delivered
// through the same windowed, strided decode contract the real backends
// implement.

type memBand struct {
	w, h       int
	interp     ColorInterp
	kind       PixelKind
	noData     *float64
	palette    *Palette
	categories []string
	data       []float64
	fail       error
}

func (b *memBand) ColorInterp() ColorInterp { return b.interp }

func (b *memBand) NoDataValue() (float64, bool) {
	if b.noData == nil {
		return 0, false
	}
	return *b.noData, true
}

func (b *memBand) PixelKind() PixelKind    { return b.kind }
func (b *memBand) Palette() *Palette       { return b.palette }
func (b *memBand) CategoryNames() []string { return b.categories }

func (b *memBand) ReadWindow(win Window, dst []byte, kind PixelKind, pixelStride, lineStride int) error {
	if b.fail != nil {
		return b.fail
	}
	for j := 0; j < win.DestHeight; j++ {
		sy := win.SrcY + j*win.SrcHeight/win.DestHeight
		for i := 0; i < win.DestWidth; i++ {
			sx := win.SrcX + i*win.SrcWidth/win.DestWidth
			putSample(dst, j*lineStride+i*pixelStride, kind, b.data[sy*b.w+sx])
		}
	}
	return nil
}

type memDataset struct {
	w, h   int
	bands  []*memBand
	gt     [6]float64
	hasGT  bool
	gcps   []GroundControlPoint
	proj   string
	meta   map[string][]string
	closed bool
}

func newMemDataset(w, h int, bands ...*memBand) *memDataset {
	for _, b := range bands {
		b.w, b.h = w, h
		if b.kind == KindUnknown {
			b.kind = KindUint8
		}
		if b.data == nil {
			b.data = make([]float64, w*h)
		}
	}
	return &memDataset{w: w, h: h, bands: bands}
}

func (d *memDataset) Size() (int, int)                          { return d.w, d.h }
func (d *memDataset) BandCount() int                            { return len(d.bands) }
func (d *memDataset) Band(i int) Band                           { return d.bands[i-1] }
func (d *memDataset) GeoTransform() ([6]float64, bool)          { return d.gt, d.hasGT }
func (d *memDataset) GroundControlPoints() []GroundControlPoint { return d.gcps }
func (d *memDataset) ProjectionRef() string                     { return d.proj }
func (d *memDataset) Metadata(domain string) []string           { return d.meta[domain] }
func (d *memDataset) DriverName() (string, string)              { return "MEM", "In Memory Raster" }

func (d *memDataset) Close() error {
	d.closed = true
	return nil
}

// seq fills a band plane with 0, 1, 2, ... in row-major order.
func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func f64ptr(v float64) *float64 { return &v }
