// Package render turns a paired test/real dataset into a 3D comparison
// figure and writes it through interchangeable backends: an HTML page built
// with go-echarts and a static image built with gonum/plot.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"path/filepath"

	"github.com/banshee-data/spherecompare/internal/fsutil"
	"github.com/banshee-data/spherecompare/internal/geometry"
	"github.com/banshee-data/spherecompare/internal/monitoring"
	"github.com/banshee-data/spherecompare/internal/units"
)

// DefaultTitle identifies the comparison when no title is configured.
const DefaultTitle = "3D Comparison of Spherical Points (Test vs Real)"

// Series names shown in legends.
const (
	TestSeriesName = "Test Points"
	RealSeriesName = "Real Points"
)

// Marker selects the glyph drawn for a scatter series.
type Marker int

const (
	MarkerCircle Marker = iota
	MarkerTriangle
)

func (m Marker) String() string {
	switch m {
	case MarkerTriangle:
		return "triangle"
	default:
		return "circle"
	}
}

var (
	testColor    = color.RGBA{R: 0x1f, G: 0x4e, B: 0xd8, A: 0xff}
	realColor    = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	segmentColor = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
)

// Series is one scatter point cloud.
type Series struct {
	Name   string
	Points []geometry.Point
	Color  color.RGBA
	Marker Marker
}

// Segment joins Test[Index] to Real[Index].
type Segment struct {
	Index    int
	From, To geometry.Point
}

// LineStyle describes how segments are stroked. Width is in points.
type LineStyle struct {
	Color  color.RGBA
	Width  float64
	Dashed bool
}

// Figure is the backend-neutral description of the comparison plot.
type Figure struct {
	Title                  string
	XLabel, YLabel, ZLabel string

	// Scatter holds the legend-visible series: test first, then real.
	Scatter []Series

	// Segments has exactly one entry per pair, in input order.
	Segments     []Segment
	SegmentStyle LineStyle
}

// FigureOptions customises BuildFigure.
type FigureOptions struct {
	Title string
	// Unit is appended to axis labels, e.g. "cm".
	Unit string
}

// BuildFigure lays out the two scatter series and one connecting segment per
// index. Datasets whose sides differ in length are rejected.
func BuildFigure(ds geometry.Dataset, opts FigureOptions) (*Figure, error) {
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("build figure: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	unit := opts.Unit
	if unit == "" {
		unit = units.CM
	}

	fig := &Figure{
		Title:  title,
		XLabel: fmt.Sprintf("X (%s)", unit),
		YLabel: fmt.Sprintf("Y (%s)", unit),
		ZLabel: fmt.Sprintf("Z (%s)", unit),
		Scatter: []Series{
			{Name: TestSeriesName, Points: ds.Test, Color: testColor, Marker: MarkerCircle},
			{Name: RealSeriesName, Points: ds.Real, Color: realColor, Marker: MarkerTriangle},
		},
		Segments:     make([]Segment, 0, ds.Len()),
		SegmentStyle: LineStyle{Color: segmentColor, Width: 0.5, Dashed: true},
	}
	for _, p := range ds.Pairs() {
		fig.Segments = append(fig.Segments, Segment{Index: p.Index, From: p.Test, To: p.Real})
	}
	return fig, nil
}

// Renderer writes a figure in one output format.
type Renderer interface {
	Render(fig *Figure, w io.Writer) error
	// Extension is the file extension, without the dot, for this output.
	Extension() string
}

// Output pairs a renderer with the file it writes.
type Output struct {
	Path     string
	Renderer Renderer
}

// WriteFile renders fig with r into path, creating parent directories.
func WriteFile(fsys fsutil.FileSystem, path string, r Renderer, fig *Figure) error {
	return WriteAll(fsys, fig, []Output{{Path: path, Renderer: r}})
}

// WriteAll renders every output into memory before touching the
// filesystem, so a failing backend leaves no files behind. If a write fails,
// files already written by this call are removed.
func WriteAll(fsys fsutil.FileSystem, fig *Figure, outputs []Output) error {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}

	rendered := make([][]byte, len(outputs))
	for i, out := range outputs {
		var buf bytes.Buffer
		if err := out.Renderer.Render(fig, &buf); err != nil {
			return fmt.Errorf("render %s: %w", out.Path, err)
		}
		rendered[i] = buf.Bytes()
	}

	for i, out := range outputs {
		if err := writeBytes(fsys, out.Path, rendered[i]); err != nil {
			for _, done := range outputs[:i] {
				if rerr := fsys.Remove(done.Path); rerr != nil {
					monitoring.Logf("failed to remove %s: %v", done.Path, rerr)
				}
			}
			return err
		}
		monitoring.Logf("wrote %s figure with %d segments to %s", out.Renderer.Extension(), len(fig.Segments), out.Path)
	}
	return nil
}

func writeBytes(fsys fsutil.FileSystem, path string, data []byte) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		// Drop the truncated file.
		f.Close()
		fsys.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// hexColor formats c as a CSS colour.
func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
