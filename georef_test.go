package rastergrid

import (
	"testing"

	"github.com/go-kit/log"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func TestResolveGeoreferenceAffine(t *testing.T) {
	ds := newMemDataset(10, 10, &memBand{interp: CIGray})
	ds.gt = [6]float64{100, 2, 0, 500, 0, -2}
	ds.hasGT = true

	geo := ResolveGeoreference(ds, log.NewNopLogger())

	require.Equal(t, orb.Point{100, 500}, geo.Corners[CornerUpperLeft])
	require.Equal(t, orb.Point{100, 480}, geo.Corners[CornerLowerLeft])
	require.Equal(t, orb.Point{120, 480}, geo.Corners[CornerLowerRight])
	require.Equal(t, orb.Point{120, 500}, geo.Corners[CornerUpperRight])
	require.Equal(t, [4]bool{true, true, true, true}, geo.Resolved)

	require.Equal(t, [2]float64{2, -2}, geo.Spacing)
	require.False(t, geo.FlipX)
	require.True(t, geo.FlipY)
	require.False(t, geo.Identity)
	require.False(t, geo.LowConfidence)

	require.Equal(t, [2]float64{100, 480}, geo.Origin())
	require.Equal(t, orb.Bound{Min: orb.Point{100, 480}, Max: orb.Point{120, 500}}, geo.Bounds())
}

func TestResolveGeoreferenceRotationalTerms(t *testing.T) {
	ds := newMemDataset(4, 2, &memBand{interp: CIGray})
	ds.gt = [6]float64{10, 1, 0.5, 20, 0.25, -1}
	ds.hasGT = true

	geo := ResolveGeoreference(ds, log.NewNopLogger())

	require.Equal(t, orb.Point{10, 20}, geo.Corners[CornerUpperLeft])
	require.Equal(t, orb.Point{11, 18}, geo.Corners[CornerLowerLeft])
	require.Equal(t, orb.Point{15, 19}, geo.Corners[CornerLowerRight])
	require.Equal(t, orb.Point{14, 21}, geo.Corners[CornerUpperRight])
}

func TestResolveGeoreferenceIdentityFallback(t *testing.T) {
	ds := newMemDataset(8, 4, &memBand{interp: CIGray})

	geo := ResolveGeoreference(ds, log.NewNopLogger())

	require.True(t, geo.Identity)
	require.Equal(t, [4]bool{false, false, false, false}, geo.Resolved)
	require.Equal(t, orb.Point{0, 0}, geo.Corners[CornerUpperLeft])
	require.Equal(t, orb.Point{8, 4}, geo.Corners[CornerLowerRight])
	require.Equal(t, [2]float64{1, 1}, geo.Spacing)
	require.False(t, geo.FlipY)
	require.Equal(t, [2]float64{0, 0}, geo.Origin())
}

func TestResolveGeoreferenceGCPCorners(t *testing.T) {
	ds := newMemDataset(10, 10, &memBand{interp: CIGray})
	ds.gcps = []GroundControlPoint{
		{Pixel: 0.5, Line: 0.5, X: 100, Y: 500},
		{Pixel: 0.5, Line: 9.5, X: 100, Y: 480},
		{Pixel: 9.5, Line: 9.5, X: 120, Y: 480},
		{Pixel: 9.5, Line: 0.5, X: 120, Y: 500},
	}

	geo := ResolveGeoreference(ds, log.NewNopLogger())

	require.Equal(t, [4]bool{true, true, true, true}, geo.Resolved)
	require.False(t, geo.LowConfidence)
	require.Equal(t, orb.Point{100, 500}, geo.Corners[CornerUpperLeft])
	require.Equal(t, orb.Point{120, 480}, geo.Corners[CornerLowerRight])
	require.Equal(t, [2]float64{2, -2}, geo.Spacing)
	require.True(t, geo.FlipY)
}

func TestResolveGeoreferenceGCPFirstMatchWins(t *testing.T) {
	ds := newMemDataset(10, 10, &memBand{interp: CIGray})
	ds.gcps = []GroundControlPoint{
		{Pixel: 0.5, Line: 0.5, X: 100, Y: 500},
		{Pixel: 0.5, Line: 0.5, X: 999, Y: 999}, // duplicate corner, ignored
		{Pixel: 0.5, Line: 9.5, X: 100, Y: 480},
		{Pixel: 9.5, Line: 9.5, X: 120, Y: 480},
		{Pixel: 9.5, Line: 0.5, X: 120, Y: 500},
	}

	geo := ResolveGeoreference(ds, log.NewNopLogger())

	require.Equal(t, orb.Point{100, 500}, geo.Corners[CornerUpperLeft])
}

func TestResolveGeoreferenceGCPMissingCorner(t *testing.T) {
	ds := newMemDataset(10, 10, &memBand{interp: CIGray})
	ds.gcps = []GroundControlPoint{
		{Pixel: 0.5, Line: 0.5, X: 100, Y: 500},
		{Pixel: 0.5, Line: 9.5, X: 100, Y: 480},
		{Pixel: 9.5, Line: 9.5, X: 120, Y: 480},
	}

	geo := ResolveGeoreference(ds, log.NewNopLogger())

	require.True(t, geo.LowConfidence)
	require.False(t, geo.Resolved[CornerUpperRight])
	// The unmatched corner keeps its pixel position instead of a sentinel.
	require.Equal(t, orb.Point{10, 0}, geo.Corners[CornerUpperRight])
	require.True(t, geo.Resolved[CornerUpperLeft])
}

func TestResolveGeoreferenceGCPsBeatGeotransform(t *testing.T) {
	ds := newMemDataset(10, 10, &memBand{interp: CIGray})
	ds.gt = [6]float64{0, 1, 0, 0, 0, 1}
	ds.hasGT = true
	ds.gcps = []GroundControlPoint{
		{Pixel: 0.5, Line: 0.5, X: 100, Y: 500},
		{Pixel: 0.5, Line: 9.5, X: 100, Y: 480},
		{Pixel: 9.5, Line: 9.5, X: 120, Y: 480},
		{Pixel: 9.5, Line: 0.5, X: 120, Y: 500},
	}

	geo := ResolveGeoreference(ds, log.NewNopLogger())

	require.Equal(t, orb.Point{100, 500}, geo.Corners[CornerUpperLeft])
	require.False(t, geo.Identity)
}
