// Command rasterinfo inspects a geospatial raster: metadata, placement and
// optionally the decoded grid arrays.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/tingold/rastergrid"
)

func main() {
	var (
		window  = flag.String("window", "", "sub-window to read as x,y,width,height")
		width   = flag.Int("width", 0, "target width (0 keeps the source size)")
		height  = flag.Int("height", 0, "target height (0 keeps the source size)")
		decode  = flag.Bool("decode", false, "decode pixels and report per-array stats")
		verbose = flag.Bool("v", false, "log reader progress to stderr")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: rasterinfo [flags] <path-or-url>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	logger := log.NewNopLogger()
	if *verbose {
		logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	}

	r := rastergrid.NewReader(rastergrid.WithLogger(logger))
	defer r.Close()

	if *window != "" {
		var x, y, w, h int
		if _, err := fmt.Sscanf(*window, "%d,%d,%d,%d", &x, &y, &w, &h); err != nil {
			fmt.Fprintf(os.Stderr, "bad -window %q: %v\n", *window, err)
			os.Exit(2)
		}
		r.SetWindow(x, y, w, h)
	}
	if *width > 0 && *height > 0 {
		r.SetTargetDimensions(*width, *height)
	}

	layout, err := r.DescribeLayout(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Driver:     %s (%s)\n", layout.DriverShortName, layout.DriverLongName)
	fmt.Printf("Size:       %d x %d pixels, %d band(s)\n",
		layout.RasterWidth, layout.RasterHeight, layout.BandCount)
	fmt.Printf("Target:     %d x %d pixels\n", layout.TargetWidth, layout.TargetHeight)
	fmt.Printf("Pixel kind: %s\n", layout.PixelKind)
	if layout.Projection != "" {
		fmt.Printf("Projection: %s\n", layout.Projection)
	}
	fmt.Printf("Origin:     (%g, %g)\n", layout.Origin[0], layout.Origin[1])
	fmt.Printf("Spacing:    (%g, %g)\n", layout.Spacing[0], layout.Spacing[1])
	b := layout.Bounds
	fmt.Printf("Bounds:     (%g, %g) - (%g, %g)\n",
		b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y())
	if layout.Geo.LowConfidence {
		fmt.Println("Placement:  LOW CONFIDENCE (corner control points incomplete)")
	}
	if layout.Geo.Identity {
		fmt.Println("Placement:  none (pixel coordinates)")
	}
	for _, kv := range r.Metadata() {
		fmt.Printf("Metadata:   %s\n", kv)
	}
	for i := 1; i <= layout.BandCount; i++ {
		if v, ok := r.InvalidValue(i); ok {
			fmt.Printf("Band %d:     no-data value %g\n", i, v)
		}
	}

	if !*decode {
		return
	}

	grid, err := r.Materialize(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Cells:      %d\n", grid.CellCount())
	for _, arr := range grid.Arrays() {
		active := ""
		if grid.ActiveScalars() == arr {
			active = " (active)"
		}
		fmt.Printf("Array:      %s, %s x%d%s\n", arr.Name(), arr.Kind(), arr.Components(), active)
		if lut := arr.Lookup(); lut != nil {
			fmt.Printf("            %d-entry color table\n", len(lut.Values))
		}
	}
	stats := r.Stats()
	if stats.Populated > 0 {
		fmt.Printf("Range:      [%g, %g] over %d samples\n", stats.Min, stats.Max, stats.Populated)
	}
}
