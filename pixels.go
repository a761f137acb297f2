package rastergrid

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// ReadStats are the running sample statistics of one dataset read. They
// accumulate across every group conversion of a single materialization, so
// composite and residual bands share one min/max/count. They reset only when
// the next read starts.
type ReadStats struct {
	Min, Max  float64
	Populated int64

	seeded bool
}

func (s *ReadStats) update(v float64) {
	if !s.seeded {
		s.Min, s.Max = v, v
		s.seeded = true
	} else {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Populated++
}

// decodeGroup performs one windowed decode per band of the group into a
// single band-major buffer: band bi's samples start at bi*destW*destH*bpp,
// rows are contiguous. The buffer comes from the shared pool; the caller
// returns it with PutBuffer once converted.
func decodeGroup(ds Dataset, group []int, win Window, kind PixelKind) ([]byte, error) {
	bpp := kind.Size()
	bandSpace := win.DestWidth * win.DestHeight * bpp
	pixelStride := bpp
	lineStride := win.DestWidth * bpp

	buf := GetBuffer(len(group) * bandSpace)
	for bi, b := range group {
		dst := buf[bi*bandSpace : (bi+1)*bandSpace]
		if err := ds.Band(b).ReadWindow(win, dst, kind, pixelStride, lineStride); err != nil {
			PutBuffer(buf)
			return nil, &DecodeError{Band: b, Err: err}
		}
	}
	return buf, nil
}

// convertSpec carries the parameters of one remap-and-mask pass.
type convertSpec struct {
	name         string
	kind         PixelKind
	destW, destH int
	group        []int // 1-based source band per component
	flipX, flipY bool
}

// remapGroup converts a band-major raw buffer into a tuple-interleaved cell
// array, masking no-data samples. The pixel kind is a closed enumeration
// fixed at dataset open; this switch binds one concrete code path per kind.
func remapGroup(raw []byte, sp convertSpec, hasNoData []bool, noData []float64, grid *Grid, stats *ReadStats) ScalarArray {
	switch sp.kind {
	case KindInt8:
		return convertGroup[int8](raw, sp, hasNoData, noData, grid, stats)
	case KindUint16:
		return convertGroup[uint16](raw, sp, hasNoData, noData, grid, stats)
	case KindInt16:
		return convertGroup[int16](raw, sp, hasNoData, noData, grid, stats)
	case KindUint32:
		return convertGroup[uint32](raw, sp, hasNoData, noData, grid, stats)
	case KindInt32:
		return convertGroup[int32](raw, sp, hasNoData, noData, grid, stats)
	case KindFloat32:
		return convertGroup[float32](raw, sp, hasNoData, noData, grid, stats)
	case KindFloat64:
		return convertGroup[float64](raw, sp, hasNoData, noData, grid, stats)
	default:
		return convertGroup[uint8](raw, sp, hasNoData, noData, grid, stats)
	}
}

// convertGroup remaps one decoded group into a cell array. Destination row j
// and column i read from the mirrored source position when the matching flip
// flag is set, keeping geographic coordinate order increasing in the output.
// A sample equal to its band's no-data value (cast to the sample kind)
// blanks the destination cell and is excluded from the running statistics;
// the raw value is written to the array either way.
func convertGroup[T Sample](raw []byte, sp convertSpec, hasNoData []bool, noData []float64, grid *Grid, stats *ReadStats) *Array[T] {
	comps := len(sp.group)
	arr := NewArray[T](sp.name, sp.kind, comps, sp.destW*sp.destH)
	src := sampleView[T](raw)
	bandSpace := sp.destW * sp.destH

	for j := 0; j < sp.destH; j++ {
		srcJ := j
		if sp.flipY {
			srcJ = sp.destH - 1 - j
		}
		for i := 0; i < sp.destW; i++ {
			srcI := i
			if sp.flipX {
				srcI = sp.destW - 1 - i
			}
			cell := j*sp.destW + i
			for bi, band := range sp.group {
				v := src[bi*bandSpace+srcJ*sp.destW+srcI]
				if hasNoData[band-1] && v == T(noData[band-1]) {
					grid.BlankCell(cell)
				} else {
					stats.update(float64(v))
				}
				arr.data[cell*comps+bi] = v
			}
		}
	}
	return arr
}

// sampleView reinterprets a decode buffer as typed samples in host layout.
func sampleView[T Sample](raw []byte) []T {
	if len(raw) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(raw))), len(raw)/int(unsafe.Sizeof(zero)))
}

// putSample writes one sample of the given kind at a byte offset, in the
// host layout sampleView reads back.
func putSample(dst []byte, off int, kind PixelKind, v float64) {
	switch kind {
	case KindUint8:
		dst[off] = uint8(int64(v))
	case KindInt8:
		dst[off] = byte(int8(int64(v)))
	case KindUint16:
		binary.NativeEndian.PutUint16(dst[off:], uint16(int64(v)))
	case KindInt16:
		binary.NativeEndian.PutUint16(dst[off:], uint16(int16(int64(v))))
	case KindUint32:
		binary.NativeEndian.PutUint32(dst[off:], uint32(int64(v)))
	case KindInt32:
		binary.NativeEndian.PutUint32(dst[off:], uint32(int32(int64(v))))
	case KindFloat32:
		binary.NativeEndian.PutUint32(dst[off:], math.Float32bits(float32(v)))
	case KindFloat64:
		binary.NativeEndian.PutUint64(dst[off:], math.Float64bits(v))
	}
}

// readSample decodes one sample of the given kind from raw file bytes using
// the file's byte order, widened to float64.
func readSample(src []byte, order binary.ByteOrder, kind PixelKind) float64 {
	switch kind {
	case KindUint8:
		return float64(src[0])
	case KindInt8:
		return float64(int8(src[0]))
	case KindUint16:
		return float64(order.Uint16(src))
	case KindInt16:
		return float64(int16(order.Uint16(src)))
	case KindUint32:
		return float64(order.Uint32(src))
	case KindInt32:
		return float64(int32(order.Uint32(src)))
	case KindFloat32:
		return float64(math.Float32frombits(order.Uint32(src)))
	case KindFloat64:
		return math.Float64frombits(order.Uint64(src))
	default:
		return 0
	}
}
