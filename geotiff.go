package rastergrid

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/image/tiff/lzw"
)

// TIFF header constants.
const (
	tiffMagicLE = 0x4949 // "II"
	tiffMagicBE = 0x4D4D // "MM"
	tiffVersion = 42
)

// Baseline and GeoTIFF tag IDs.
const (
	tagImageWidth          = 256
	tagImageLength         = 257
	tagBitsPerSample       = 258
	tagCompression         = 259
	tagPhotometric         = 262
	tagImageDescription    = 270
	tagStripOffsets        = 273
	tagSamplesPerPixel     = 277
	tagRowsPerStrip        = 278
	tagStripByteCounts     = 279
	tagSoftware            = 305
	tagDateTime            = 306
	tagColorMap            = 320
	tagTileWidth           = 322
	tagTileLength          = 323
	tagTileOffsets         = 324
	tagTileByteCounts      = 325
	tagExtraSamples        = 338
	tagSampleFormat        = 339
	tagModelPixelScale     = 33550
	tagModelTiepoint       = 33922
	tagModelTransformation = 34264
	tagGeoKeyDirectory     = 34735
	tagGDALMetadata        = 42112
	tagGDALNoData          = 42113
)

// Compression schemes.
const (
	compressionNone       = 1
	compressionLZW        = 5
	compressionJPEGOld    = 6
	compressionJPEG       = 7
	compressionDeflate    = 8
	compressionDeflateAlt = 32946
)

// Photometric interpretations.
const (
	photometricWhiteIsZero = 0
	photometricBlackIsZero = 1
	photometricRGB         = 2
	photometricPalette     = 3
	photometricYCbCr       = 6
)

// GeoKey IDs used for the projection string.
const (
	geoKeyGeographicType  = 2048
	geoKeyProjectedCSType = 3072
)

// tiffField is one IFD entry. Large strip/tile layout arrays are loaded on
// demand; everything else is decoded while the directory is parsed.
type tiffField struct {
	typ    uint16
	count  uint32
	raw    [4]byte // the offset/value word, in file order
	ints   []int64
	floats []float64
	str    string
	loaded bool
}

// GeoTIFF is the bundled raster-access backend: a Dataset over a striped or
// tiled (Geo)TIFF, read from a file or over HTTP range requests. Only the
// first image directory is used; overview pyramids are out of scope here.
type GeoTIFF struct {
	r      io.ReadSeeker
	closer io.Closer
	order  binary.ByteOrder
	fields map[uint16]*tiffField

	width, height   int
	samplesPerPixel int
	kind            PixelKind
	photometric     int
	compression     int

	geoTransform [6]float64
	hasTransform bool
	gcps         []GroundControlPoint
	projection   string

	noData    float64
	hasNoData bool
	metadata  []string
	palette   *Palette
}

// OpenDataset opens a GeoTIFF dataset from a file path or, when the path
// starts with http:// or https://, over HTTP range requests.
func OpenDataset(pathOrURL string) (*GeoTIFF, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		client := &fasthttp.Client{
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		return ReadDataset(NewHTTPRangeReader(pathOrURL, client))
	}

	f, err := os.Open(pathOrURL)
	if err != nil {
		return nil, err
	}
	ds, err := ReadDataset(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	ds.closer = f
	return ds, nil
}

// ReadDataset parses a GeoTIFF from a seekable byte source. The source must
// stay open for the dataset's lifetime; Close does not close it unless the
// dataset was opened through OpenDataset.
func ReadDataset(r io.ReadSeeker) (*GeoTIFF, error) {
	d := &GeoTIFF{r: r, fields: make(map[uint16]*tiffField)}

	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read TIFF header: %w", err)
	}
	switch binary.LittleEndian.Uint16(header[0:2]) {
	case tiffMagicLE:
		d.order = binary.LittleEndian
	case tiffMagicBE:
		d.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("not a TIFF: magic 0x%04x", binary.LittleEndian.Uint16(header[0:2]))
	}
	if v := d.order.Uint16(header[2:4]); v != tiffVersion {
		return nil, fmt.Errorf("unsupported TIFF version %d", v)
	}

	if err := d.parseIFD(d.order.Uint32(header[4:8])); err != nil {
		return nil, err
	}
	if err := d.readLayout(); err != nil {
		return nil, err
	}
	d.readGeoreferencing()
	d.readAnnotations()
	return d, nil
}

// parseIFD reads the first image directory and decodes every entry except
// the strip/tile layout arrays, which can run to thousands of values and
// load on first use.
func (d *GeoTIFF) parseIFD(offset uint32) error {
	if _, err := d.r.Seek(int64(offset), io.SeekStart); err != nil {
		return fmt.Errorf("seek IFD: %w", err)
	}
	var countBuf [2]byte
	if _, err := io.ReadFull(d.r, countBuf[:]); err != nil {
		return fmt.Errorf("read IFD: %w", err)
	}
	n := int(d.order.Uint16(countBuf[:]))

	entries := make([]byte, n*12)
	if _, err := io.ReadFull(d.r, entries); err != nil {
		return fmt.Errorf("read IFD entries: %w", err)
	}

	for i := 0; i < n; i++ {
		e := entries[i*12 : i*12+12]
		id := d.order.Uint16(e[0:2])
		f := &tiffField{
			typ:   d.order.Uint16(e[2:4]),
			count: d.order.Uint32(e[4:8]),
		}
		copy(f.raw[:], e[8:12])
		d.fields[id] = f
	}

	for id, f := range d.fields {
		switch id {
		case tagStripOffsets, tagStripByteCounts, tagTileOffsets, tagTileByteCounts:
			// Lazy.
		default:
			if err := d.loadField(f); err != nil {
				return fmt.Errorf("tag %d: %w", id, err)
			}
		}
	}
	return nil
}

func fieldTypeSize(typ uint16) int {
	switch typ {
	case 1, 2, 6, 7: // BYTE, ASCII, SBYTE, UNDEFINED
		return 1
	case 3, 8: // SHORT, SSHORT
		return 2
	case 4, 9, 11: // LONG, SLONG, FLOAT
		return 4
	case 5, 10, 12: // RATIONAL, SRATIONAL, DOUBLE
		return 8
	default:
		return 0
	}
}

// loadField decodes a field's values, reading from the value word when they
// fit in four bytes and seeking to the stored offset otherwise.
func (d *GeoTIFF) loadField(f *tiffField) error {
	if f.loaded {
		return nil
	}
	size := fieldTypeSize(f.typ)
	if size == 0 {
		f.loaded = true
		return nil
	}
	total := size * int(f.count)

	var data []byte
	if total <= 4 {
		data = f.raw[:total]
	} else {
		pos, _ := d.r.Seek(0, io.SeekCurrent)
		defer d.r.Seek(pos, io.SeekStart)
		if _, err := d.r.Seek(int64(d.order.Uint32(f.raw[:])), io.SeekStart); err != nil {
			return err
		}
		data = make([]byte, total)
		if _, err := io.ReadFull(d.r, data); err != nil {
			return err
		}
	}

	switch f.typ {
	case 2: // ASCII
		f.str = string(bytes.TrimRight(data, "\x00"))
	case 1, 7: // BYTE, UNDEFINED
		f.ints = make([]int64, f.count)
		for i := range f.ints {
			f.ints[i] = int64(data[i])
		}
	case 6: // SBYTE
		f.ints = make([]int64, f.count)
		for i := range f.ints {
			f.ints[i] = int64(int8(data[i]))
		}
	case 3: // SHORT
		f.ints = make([]int64, f.count)
		for i := range f.ints {
			f.ints[i] = int64(d.order.Uint16(data[i*2:]))
		}
	case 8: // SSHORT
		f.ints = make([]int64, f.count)
		for i := range f.ints {
			f.ints[i] = int64(int16(d.order.Uint16(data[i*2:])))
		}
	case 4: // LONG
		f.ints = make([]int64, f.count)
		for i := range f.ints {
			f.ints[i] = int64(d.order.Uint32(data[i*4:]))
		}
	case 9: // SLONG
		f.ints = make([]int64, f.count)
		for i := range f.ints {
			f.ints[i] = int64(int32(d.order.Uint32(data[i*4:])))
		}
	case 11: // FLOAT
		f.floats = make([]float64, f.count)
		for i := range f.floats {
			f.floats[i] = float64(math.Float32frombits(d.order.Uint32(data[i*4:])))
		}
	case 12: // DOUBLE
		f.floats = make([]float64, f.count)
		for i := range f.floats {
			f.floats[i] = math.Float64frombits(d.order.Uint64(data[i*8:]))
		}
	case 5, 10: // RATIONAL, SRATIONAL
		f.floats = make([]float64, f.count)
		for i := range f.floats {
			num := d.order.Uint32(data[i*8:])
			den := d.order.Uint32(data[i*8+4:])
			if den != 0 {
				f.floats[i] = float64(num) / float64(den)
			}
		}
	}
	f.loaded = true
	return nil
}

func (d *GeoTIFF) field(id uint16) *tiffField { return d.fields[id] }

// fieldInt returns the first integer value of a tag, or the default.
func (d *GeoTIFF) fieldInt(id uint16, def int) int {
	if f := d.fields[id]; f != nil && len(f.ints) > 0 {
		return int(f.ints[0])
	}
	return def
}

// fieldInts returns a tag's integer values, loading them on demand.
func (d *GeoTIFF) fieldInts(id uint16) ([]int64, error) {
	f := d.fields[id]
	if f == nil {
		return nil, nil
	}
	if err := d.loadField(f); err != nil {
		return nil, fmt.Errorf("tag %d: %w", id, err)
	}
	return f.ints, nil
}

// readLayout extracts dimensions, sample layout and the pixel kind.
func (d *GeoTIFF) readLayout() error {
	d.width = d.fieldInt(tagImageWidth, 0)
	d.height = d.fieldInt(tagImageLength, 0)
	if d.width <= 0 || d.height <= 0 {
		return fmt.Errorf("missing image dimensions")
	}
	d.samplesPerPixel = d.fieldInt(tagSamplesPerPixel, 1)
	d.photometric = d.fieldInt(tagPhotometric, photometricBlackIsZero)
	d.compression = d.fieldInt(tagCompression, compressionNone)

	bits := d.fieldInt(tagBitsPerSample, 8)
	format := d.fieldInt(tagSampleFormat, 1) // 1=unsigned, 2=signed, 3=IEEE float
	switch {
	case bits == 8 && format == 2:
		d.kind = KindInt8
	case bits == 16 && format == 1:
		d.kind = KindUint16
	case bits == 16 && format == 2:
		d.kind = KindInt16
	case bits == 32 && format == 1:
		d.kind = KindUint32
	case bits == 32 && format == 2:
		d.kind = KindInt32
	case bits == 32 && format == 3:
		d.kind = KindFloat32
	case bits == 64 && format == 3:
		d.kind = KindFloat64
	case bits == 8:
		d.kind = KindUint8
	default:
		return fmt.Errorf("unsupported sample layout: %d bits, format %d", bits, format)
	}
	return nil
}

// readGeoreferencing maps the GeoTIFF placement tags onto the six-coefficient
// affine form. A transformation matrix wins over tie points; a single tie
// point plus a pixel scale becomes an affine transform; several tie points
// without a scale become ground control points.
func (d *GeoTIFF) readGeoreferencing() {
	if f := d.field(tagModelTransformation); f != nil && len(f.floats) >= 16 {
		t := f.floats
		d.geoTransform = [6]float64{t[3], t[0], t[1], t[7], t[4], t[5]}
		d.hasTransform = true
	} else if tp := d.field(tagModelTiepoint); tp != nil && len(tp.floats) >= 6 {
		scale := d.field(tagModelPixelScale)
		if scale != nil && len(scale.floats) >= 2 && scale.floats[0] != 0 {
			sx, sy := scale.floats[0], scale.floats[1]
			px, py := tp.floats[0], tp.floats[1]
			gx, gy := tp.floats[3], tp.floats[4]
			d.geoTransform = [6]float64{gx - px*sx, sx, 0, gy + py*sy, 0, -sy}
			d.hasTransform = true
		} else if len(tp.floats) >= 12 {
			for i := 0; i+5 < len(tp.floats); i += 6 {
				d.gcps = append(d.gcps, GroundControlPoint{
					Pixel: tp.floats[i],
					Line:  tp.floats[i+1],
					X:     tp.floats[i+3],
					Y:     tp.floats[i+4],
					Z:     tp.floats[i+5],
					ID:    strconv.Itoa(i / 6),
				})
			}
		}
	}

	if f := d.field(tagGeoKeyDirectory); f != nil && len(f.ints) >= 4 {
		keys := f.ints
		numKeys := int(keys[3])
		for i := 4; i+3 < len(keys) && (i-4)/4 < numKeys; i += 4 {
			id, location, value := keys[i], keys[i+1], keys[i+3]
			if location != 0 {
				continue // only inline SHORT values carry the CS codes
			}
			if (id == geoKeyProjectedCSType || id == geoKeyGeographicType) && value != 0 {
				d.projection = fmt.Sprintf("EPSG:%d", value)
				if id == geoKeyProjectedCSType {
					break // projected CS wins over the geographic one
				}
			}
		}
	}
}

// gdalMetadataItem mirrors one <Item name="KEY">VALUE</Item> element of the
// GDAL_METADATA tag payload.
type gdalMetadataItem struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type gdalMetadataDoc struct {
	Items []gdalMetadataItem `xml:"Item"`
}

// readAnnotations extracts the no-data value, free-form metadata strings and
// the palette.
func (d *GeoTIFF) readAnnotations() {
	if f := d.field(tagGDALNoData); f != nil && f.str != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(f.str), 64); err == nil {
			d.noData = v
			d.hasNoData = true
		}
	}

	if f := d.field(tagGDALMetadata); f != nil && f.str != "" {
		var doc gdalMetadataDoc
		if err := xml.Unmarshal([]byte(f.str), &doc); err == nil {
			for _, item := range doc.Items {
				d.metadata = append(d.metadata, item.Name+"="+strings.TrimSpace(item.Value))
			}
		}
	}
	for _, t := range []struct {
		id  uint16
		key string
	}{
		{tagImageDescription, "TIFFTAG_IMAGEDESCRIPTION"},
		{tagSoftware, "TIFFTAG_SOFTWARE"},
		{tagDateTime, "TIFFTAG_DATETIME"},
	} {
		if f := d.field(t.id); f != nil && f.str != "" {
			d.metadata = append(d.metadata, t.key+"="+f.str)
		}
	}

	if f := d.field(tagColorMap); f != nil && len(f.ints) >= 3 && len(f.ints)%3 == 0 {
		n := len(f.ints) / 3
		pal := &Palette{Interp: PIRGB, Entries: make([]PaletteEntry, n)}
		for i := 0; i < n; i++ {
			// TIFF color maps are 16-bit per component.
			pal.Entries[i] = PaletteEntry{
				C1: int16(f.ints[i] / 257),
				C2: int16(f.ints[n+i] / 257),
				C3: int16(f.ints[2*n+i] / 257),
				C4: 255,
			}
		}
		d.palette = pal
	}
}

// Size implements Dataset.
func (d *GeoTIFF) Size() (int, int) { return d.width, d.height }

// BandCount implements Dataset.
func (d *GeoTIFF) BandCount() int { return d.samplesPerPixel }

// Band implements Dataset. Bands are 1-based.
func (d *GeoTIFF) Band(i int) Band { return &geoTIFFBand{ds: d, index: i} }

// GeoTransform implements Dataset.
func (d *GeoTIFF) GeoTransform() ([6]float64, bool) { return d.geoTransform, d.hasTransform }

// GroundControlPoints implements Dataset.
func (d *GeoTIFF) GroundControlPoints() []GroundControlPoint { return d.gcps }

// ProjectionRef implements Dataset.
func (d *GeoTIFF) ProjectionRef() string { return d.projection }

// Metadata implements Dataset. Only the default domain carries values.
func (d *GeoTIFF) Metadata(domain string) []string {
	if domain != "" {
		return nil
	}
	return d.metadata
}

// DriverName implements Dataset.
func (d *GeoTIFF) DriverName() (string, string) { return "GTiff", "GeoTIFF" }

// Close implements Dataset and closes the underlying file when the dataset
// owns it.
func (d *GeoTIFF) Close() error {
	if d.closer != nil {
		err := d.closer.Close()
		d.closer = nil
		return err
	}
	return nil
}

// geoTIFFBand is one sample plane of a chunky-layout GeoTIFF.
type geoTIFFBand struct {
	ds    *GeoTIFF
	index int
}

// ColorInterp derives the band role from the photometric interpretation and
// the band's position.
func (b *geoTIFFBand) ColorInterp() ColorInterp {
	d := b.ds
	switch d.photometric {
	case photometricWhiteIsZero, photometricBlackIsZero:
		switch b.index {
		case 1:
			return CIGray
		case 2:
			return CIAlpha
		}
	case photometricRGB:
		switch b.index {
		case 1:
			return CIRed
		case 2:
			return CIGreen
		case 3:
			return CIBlue
		case 4:
			return CIAlpha
		}
	case photometricPalette:
		if b.index == 1 {
			return CIPalette
		}
	case photometricYCbCr:
		switch b.index {
		case 1:
			return CIYCbCrY
		case 2:
			return CIYCbCrCb
		case 3:
			return CIYCbCrCr
		}
	}
	return CIUndefined
}

// NoDataValue reports the dataset-wide GDAL_NODATA value; TIFF has no
// per-band form.
func (b *geoTIFFBand) NoDataValue() (float64, bool) { return b.ds.noData, b.ds.hasNoData }

// PixelKind implements Band; every band shares the directory's layout.
func (b *geoTIFFBand) PixelKind() PixelKind { return b.ds.kind }

// Palette implements Band.
func (b *geoTIFFBand) Palette() *Palette {
	if b.index == 1 && b.ds.photometric == photometricPalette {
		return b.ds.palette
	}
	return nil
}

// CategoryNames implements Band. TIFF palettes carry no category labels.
func (b *geoTIFFBand) CategoryNames() []string { return nil }

// ReadWindow implements Band: it reads the source rectangle from strips or
// tiles, picks this band's samples out of the chunky layout, resamples
// nearest-neighbor to the destination size and writes them at the requested
// kind and strides.
func (b *geoTIFFBand) ReadWindow(w Window, dst []byte, kind PixelKind, pixelStride, lineStride int) error {
	d := b.ds
	if w.SrcX < 0 || w.SrcY < 0 || w.SrcWidth <= 0 || w.SrcHeight <= 0 ||
		w.SrcX+w.SrcWidth > d.width || w.SrcY+w.SrcHeight > d.height {
		return fmt.Errorf("window %dx%d+%d+%d outside raster %dx%d: %w",
			w.SrcWidth, w.SrcHeight, w.SrcX, w.SrcY, d.width, d.height, ErrInvalidWindow)
	}

	raw, err := d.readRegion(w.SrcX, w.SrcY, w.SrcWidth, w.SrcHeight)
	if err != nil {
		return err
	}
	defer PutBuffer(raw)

	srcSize := d.kind.Size()
	sampleStride := d.samplesPerPixel * srcSize
	bandOffset := (b.index - 1) * srcSize

	for j := 0; j < w.DestHeight; j++ {
		sy := j * w.SrcHeight / w.DestHeight
		if sy >= w.SrcHeight {
			sy = w.SrcHeight - 1
		}
		rowBase := sy * w.SrcWidth * sampleStride
		for i := 0; i < w.DestWidth; i++ {
			sx := i * w.SrcWidth / w.DestWidth
			if sx >= w.SrcWidth {
				sx = w.SrcWidth - 1
			}
			v := readSample(raw[rowBase+sx*sampleStride+bandOffset:], d.order, d.kind)
			putSample(dst, j*lineStride+i*pixelStride, kind, v)
		}
	}
	return nil
}

// readRegion reads a pixel rectangle as chunky native-order bytes, one
// sample stride per pixel. Chunks decode strictly sequentially: each
// windowed read completes before the next starts.
func (d *GeoTIFF) readRegion(x, y, w, h int) ([]byte, error) {
	if d.field(tagTileOffsets) != nil {
		return d.readTiledRegion(x, y, w, h)
	}
	if d.field(tagStripOffsets) != nil {
		return d.readStrippedRegion(x, y, w, h)
	}
	return nil, fmt.Errorf("image is neither tiled nor stripped")
}

func (d *GeoTIFF) readStrippedRegion(x, y, w, h int) ([]byte, error) {
	offsets, err := d.fieldInts(tagStripOffsets)
	if err != nil {
		return nil, err
	}
	counts, err := d.fieldInts(tagStripByteCounts)
	if err != nil {
		return nil, err
	}

	rowsPerStrip := d.fieldInt(tagRowsPerStrip, d.height)
	bytesPerPixel := d.samplesPerPixel * d.kind.Size()
	rowBytes := d.width * bytesPerPixel

	out := GetBuffer(w * h * bytesPerPixel)

	first := y / rowsPerStrip
	last := (y + h - 1) / rowsPerStrip
	for strip := first; strip <= last; strip++ {
		if strip >= len(offsets) || strip >= len(counts) {
			PutBuffer(out)
			return nil, fmt.Errorf("strip %d beyond layout", strip)
		}
		stripRows := rowsPerStrip
		if rem := d.height - strip*rowsPerStrip; rem < stripRows {
			stripRows = rem
		}
		data, err := d.readChunk(offsets[strip], counts[strip], d.width, stripRows)
		if err != nil {
			PutBuffer(out)
			return nil, fmt.Errorf("strip %d: %w", strip, err)
		}

		rowStart := max(y, strip*rowsPerStrip)
		rowEnd := min(y+h, strip*rowsPerStrip+stripRows)
		for row := rowStart; row < rowEnd; row++ {
			src := (row-strip*rowsPerStrip)*rowBytes + x*bytesPerPixel
			dstOff := (row - y) * w * bytesPerPixel
			copy(out[dstOff:dstOff+w*bytesPerPixel], data[src:src+w*bytesPerPixel])
		}
		PutBuffer(data)
	}
	return out, nil
}

func (d *GeoTIFF) readTiledRegion(x, y, w, h int) ([]byte, error) {
	offsets, err := d.fieldInts(tagTileOffsets)
	if err != nil {
		return nil, err
	}
	counts, err := d.fieldInts(tagTileByteCounts)
	if err != nil {
		return nil, err
	}

	tileW := d.fieldInt(tagTileWidth, 256)
	tileH := d.fieldInt(tagTileLength, 256)
	tilesAcross := (d.width + tileW - 1) / tileW
	bytesPerPixel := d.samplesPerPixel * d.kind.Size()

	out := GetBuffer(w * h * bytesPerPixel)

	for ty := y / tileH; ty <= (y+h-1)/tileH; ty++ {
		for tx := x / tileW; tx <= (x+w-1)/tileW; tx++ {
			idx := ty*tilesAcross + tx
			if idx >= len(offsets) || idx >= len(counts) {
				continue
			}
			data, err := d.readChunk(offsets[idx], counts[idx], tileW, tileH)
			if err != nil {
				PutBuffer(out)
				return nil, fmt.Errorf("tile %d,%d: %w", tx, ty, err)
			}

			// Intersection of this tile with the requested rectangle.
			x0 := max(x, tx*tileW)
			y0 := max(y, ty*tileH)
			x1 := min(x+w, tx*tileW+tileW)
			y1 := min(y+h, ty*tileH+tileH)
			for row := y0; row < y1; row++ {
				src := ((row-ty*tileH)*tileW + (x0 - tx*tileW)) * bytesPerPixel
				dstOff := ((row-y)*w + (x0 - x)) * bytesPerPixel
				copy(out[dstOff:dstOff+(x1-x0)*bytesPerPixel], data[src:src+(x1-x0)*bytesPerPixel])
			}
			PutBuffer(data)
		}
	}
	return out, nil
}

// readChunk reads and decompresses one strip or tile to exactly
// width*height pixels of chunky samples.
func (d *GeoTIFF) readChunk(offset, count int64, width, height int) ([]byte, error) {
	compressed := GetBuffer(int(count))
	if _, err := d.r.Seek(offset, io.SeekStart); err != nil {
		PutBuffer(compressed)
		return nil, fmt.Errorf("seek chunk: %w", err)
	}
	if _, err := io.ReadFull(d.r, compressed); err != nil {
		PutBuffer(compressed)
		return nil, fmt.Errorf("read chunk: %w", err)
	}

	expected := width * height * d.samplesPerPixel * d.kind.Size()

	switch d.compression {
	case compressionNone:
		if len(compressed) < expected {
			PutBuffer(compressed)
			return nil, fmt.Errorf("chunk short: %d bytes, want %d", count, expected)
		}
		return compressed, nil

	case compressionLZW:
		defer PutBuffer(compressed)
		rd := lzw.NewReader(bytes.NewReader(compressed), lzw.MSB, 8)
		defer rd.Close()
		return readExpected(rd, expected, "lzw")

	case compressionDeflate, compressionDeflateAlt:
		defer PutBuffer(compressed)
		rd := flate.NewReader(bytes.NewReader(compressed))
		defer rd.Close()
		return readExpected(rd, expected, "deflate")

	case compressionJPEGOld, compressionJPEG:
		defer PutBuffer(compressed)
		img, err := jpeg.Decode(bytes.NewReader(compressed))
		if err != nil {
			return nil, fmt.Errorf("jpeg chunk: %w", err)
		}
		return d.jpegChunkBytes(img, width, height, expected)

	default:
		PutBuffer(compressed)
		return nil, fmt.Errorf("unsupported compression %d", d.compression)
	}
}

// readExpected drains a decompressor into a pooled buffer, ignoring any
// padding past the expected pixel payload.
func readExpected(r io.Reader, expected int, scheme string) ([]byte, error) {
	out := GetBuffer(expected)
	if _, err := io.ReadFull(r, out); err != nil {
		PutBuffer(out)
		return nil, fmt.Errorf("%s chunk short: %w", scheme, err)
	}
	return out, nil
}

// jpegChunkBytes flattens a decoded JPEG tile into chunky 8-bit samples.
func (d *GeoTIFF) jpegChunkBytes(img image.Image, width, height, expected int) ([]byte, error) {
	if d.kind != KindUint8 {
		return nil, fmt.Errorf("jpeg chunks require 8-bit samples, have %s", d.kind)
	}
	out := GetBuffer(expected)
	bounds := img.Bounds()
	for y := 0; y < height && y < bounds.Dy(); y++ {
		for x := 0; x < width && x < bounds.Dx(); x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := (y*width + x) * d.samplesPerPixel
			switch d.samplesPerPixel {
			case 1:
				out[off] = uint8(r >> 8)
			case 2:
				out[off] = uint8(r >> 8)
				out[off+1] = uint8(a >> 8)
			case 3:
				out[off] = uint8(r >> 8)
				out[off+1] = uint8(g >> 8)
				out[off+2] = uint8(b >> 8)
			default:
				out[off] = uint8(r >> 8)
				out[off+1] = uint8(g >> 8)
				out[off+2] = uint8(b >> 8)
				out[off+3] = uint8(a >> 8)
			}
		}
	}
	return out, nil
}
