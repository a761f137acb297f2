package rastergrid

import (
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/paulmach/orb"
)

// Corner indices into Georeference.Corners, in pixel-space order
// (0,0), (0,H), (W,H), (W,0).
const (
	CornerUpperLeft = iota
	CornerLowerLeft
	CornerLowerRight
	CornerUpperRight
)

// Georeference is the resolved geographic placement of a dataset: its four
// corner coordinates, the per-axis spacing derived from them, and the flip
// flags that keep output row/column order geographically increasing.
type Georeference struct {
	// Corners holds the geographic positions of the pixel-space corners
	// (0,0), (0,H), (W,H), (W,0), in that order.
	Corners [4]orb.Point

	// Resolved reports, per corner, whether a geotransform or a matching
	// ground-control point produced the coordinate. An unresolved corner
	// holds the identity (pixel) position instead of a sentinel.
	Resolved [4]bool

	// Spacing is the signed per-axis geographic step: (opposite corner −
	// origin corner) divided by the raster size. Its sign selects the
	// flip flags.
	Spacing [2]float64

	// FlipX and FlipY are set when the corresponding spacing is negative,
	// i.e. the source's native pixel order runs against geographic order.
	FlipX, FlipY bool

	// Identity is set when no geotransform was available and the corners
	// fell back to pixel coordinates.
	Identity bool

	// LowConfidence is set when at least one corner could not be matched
	// against a ground-control point.
	LowConfidence bool
}

// Bounds returns the axis-aligned extent of the four corners.
func (g Georeference) Bounds() orb.Bound {
	b := orb.Bound{Min: g.Corners[0], Max: g.Corners[0]}
	for _, p := range g.Corners[1:] {
		b = b.Extend(p)
	}
	return b
}

// Origin returns the component-wise minimum of the two diagonal corners,
// the anchor for an output grid whose coordinates increase along both axes.
func (g Georeference) Origin() [2]float64 {
	return [2]float64{
		math.Min(g.Corners[CornerUpperLeft][0], g.Corners[CornerLowerRight][0]),
		math.Min(g.Corners[CornerUpperLeft][1], g.Corners[CornerLowerRight][1]),
	}
}

// ResolveGeoreference derives the dataset's corner coordinates and axis
// spacing. Corners come from the affine geotransform when one exists and no
// ground-control points do; from corner-matched GCPs otherwise. Without
// either, corners fall back to their pixel positions so callers never see an
// uninitialized coordinate.
func ResolveGeoreference(ds Dataset, logger log.Logger) Georeference {
	w, h := ds.Size()
	px := [4][2]float64{
		{0, 0},
		{0, float64(h)},
		{float64(w), float64(h)},
		{float64(w), 0},
	}

	var geo Georeference
	gcps := ds.GroundControlPoints()

	if len(gcps) == 0 {
		gt, ok := ds.GeoTransform()
		if !ok {
			// Identity fallback keeps the corner coordinates defined.
			level.Warn(logger).Log("msg", "no geotransform, using identity placement")
			geo.Identity = true
			for i, p := range px {
				geo.Corners[i] = orb.Point{p[0], p[1]}
			}
		} else {
			for i, p := range px {
				geo.Corners[i] = orb.Point{
					gt[0] + gt[1]*p[0] + gt[2]*p[1],
					gt[3] + gt[4]*p[0] + gt[5]*p[1],
				}
				geo.Resolved[i] = true
			}
		}
	} else {
		for i, p := range px {
			pt, ok := matchCornerGCP(gcps, p[0] == 0, p[1] == 0)
			if !ok {
				level.Warn(logger).Log("msg", "no ground control point for corner", "corner", i)
				geo.Corners[i] = orb.Point{p[0], p[1]}
				geo.LowConfidence = true
				continue
			}
			geo.Corners[i] = pt
			geo.Resolved[i] = true
		}
	}

	geo.Spacing = [2]float64{
		(geo.Corners[CornerLowerRight][0] - geo.Corners[CornerUpperLeft][0]) / float64(w),
		(geo.Corners[CornerLowerRight][1] - geo.Corners[CornerUpperLeft][1]) / float64(h),
	}
	geo.FlipX = geo.Spacing[0] < 0
	geo.FlipY = geo.Spacing[1] < 0

	return geo
}

// matchCornerGCP finds the ground control point sitting on the requested
// corner. Pixel fraction 0.5 marks the boundary pixel center: a GCP with
// Pixel == 0.5 lies on the left edge, Line == 0.5 on the upper edge. The
// first matching point wins.
func matchCornerGCP(gcps []GroundControlPoint, left, upper bool) (orb.Point, bool) {
	for _, gcp := range gcps {
		if (gcp.Pixel == 0.5) == left && (gcp.Line == 0.5) == upper {
			return orb.Point{gcp.X, gcp.Y}, true
		}
	}
	return orb.Point{}, false
}
