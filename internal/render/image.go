package render

import (
	"fmt"
	"image/color"
	"io"
	"slices"
	"strconv"

	"github.com/banshee-data/spherecompare/internal/geometry"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ImageFormats lists the formats ImageRenderer can write.
var ImageFormats = []string{"png", "svg", "pdf", "jpg", "tiff", "eps"}

var boxColor = color.RGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}

// ImageRenderer draws an orthographic projection of the 3D scene with
// gonum/plot. Width and Height are in inches.
type ImageRenderer struct {
	Format        string
	Width, Height float64
	View          View
}

// NewImageRenderer returns a renderer with the default view and a 10x8 inch
// canvas.
func NewImageRenderer(format string) ImageRenderer {
	return ImageRenderer{Format: format, Width: 10, Height: 8, View: DefaultView}
}

// Extension implements Renderer.
func (r ImageRenderer) Extension() string {
	if r.Format == "" {
		return "png"
	}
	return r.Format
}

// Render implements Renderer.
func (r ImageRenderer) Render(fig *Figure, w io.Writer) error {
	if !slices.Contains(ImageFormats, r.Extension()) {
		return fmt.Errorf("unsupported image format %q (valid: %v)", r.Extension(), ImageFormats)
	}
	p, _, err := r.plot(fig)
	if err != nil {
		return err
	}

	width, height := r.size()
	wt, err := p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, r.Extension())
	if err != nil {
		return fmt.Errorf("create %s writer: %w", r.Extension(), err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s image: %w", r.Extension(), err)
	}
	return nil
}

func (r ImageRenderer) size() (float64, float64) {
	width, height := r.Width, r.Height
	if width <= 0 {
		width = 10
	}
	if height <= 0 {
		height = 8
	}
	return width, height
}

// imageLayers keeps handles on the plotters added for each figure element.
type imageLayers struct {
	box      []*plotter.Line
	segments []*plotter.Line
	scatter  []*plotter.Scatter
}

// plot builds the gonum plot: box edges at the back, then segments, then
// the scatter series on top.
func (r ImageRenderer) plot(fig *Figure) (*plot.Plot, *imageLayers, error) {
	b := sceneBox(fig)
	pr := newProjector(r.View, b.centre())
	layers := &imageLayers{}

	p := plot.New()
	p.Title.Text = fig.Title
	p.HideAxes()
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	for _, e := range b.edges() {
		line, err := plotter.NewLine(projectAll(pr, e[0], e[1]))
		if err != nil {
			return nil, nil, err
		}
		line.Color = boxColor
		line.Width = vg.Points(0.75)
		p.Add(line)
		layers.box = append(layers.box, line)
	}

	if err := addAxisLabels(p, pr, b, fig); err != nil {
		return nil, nil, err
	}

	segStyle := draw.LineStyle{
		Color: fig.SegmentStyle.Color,
		Width: vg.Points(fig.SegmentStyle.Width),
	}
	if fig.SegmentStyle.Dashed {
		segStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
	}
	for _, seg := range fig.Segments {
		line, err := plotter.NewLine(projectAll(pr, seg.From, seg.To))
		if err != nil {
			return nil, nil, fmt.Errorf("segment %d: %w", seg.Index, err)
		}
		line.LineStyle = segStyle
		p.Add(line)
		layers.segments = append(layers.segments, line)
	}

	for _, s := range fig.Scatter {
		if len(s.Points) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(projectAll(pr, s.Points...))
		if err != nil {
			return nil, nil, fmt.Errorf("series %s: %w", s.Name, err)
		}
		sc.GlyphStyle = draw.GlyphStyle{Color: s.Color, Radius: vg.Points(3), Shape: glyph(s.Marker)}
		p.Add(sc)
		p.Legend.Add(s.Name, sc)
		layers.scatter = append(layers.scatter, sc)
	}

	setAspectRange(p, pr, b, r)
	return p, layers, nil
}

// addAxisLabels names the three box edges leaving the low corner and marks
// the value at each end.
func addAxisLabels(p *plot.Plot, pr projector, b box, fig *Figure) error {
	origin := b.corner(0)
	ends := []struct {
		label    string
		end      geometry.Point
		from, to float64
	}{
		{fig.XLabel, b.corner(1), b.lo.X, b.hi.X},
		{fig.YLabel, b.corner(2), b.lo.Y, b.hi.Y},
		{fig.ZLabel, b.corner(4), b.lo.Z, b.hi.Z},
	}

	var xys plotter.XYs
	var texts []string
	for _, e := range ends {
		mid := geometry.Point{X: (origin.X + e.end.X) / 2, Y: (origin.Y + e.end.Y) / 2, Z: (origin.Z + e.end.Z) / 2}
		mx, my := pr.project(mid)
		ex, ey := pr.project(e.end)
		xys = append(xys, plotter.XY{X: mx, Y: my}, plotter.XY{X: ex, Y: ey})
		texts = append(texts, e.label, strconv.FormatFloat(e.to, 'f', 1, 64))
	}
	ox, oy := pr.project(origin)
	xys = append(xys, plotter.XY{X: ox, Y: oy})
	texts = append(texts, fmt.Sprintf("(%.1f, %.1f, %.1f)", b.lo.X, b.lo.Y, b.lo.Z))

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return fmt.Errorf("axis labels: %w", err)
	}
	p.Add(labels)
	return nil
}

// setAspectRange fixes the data ranges so one scene unit has the same
// length horizontally and vertically on the canvas.
func setAspectRange(p *plot.Plot, pr projector, b box, r ImageRenderer) {
	var xs, ys []float64
	for i := 0; i < 8; i++ {
		x, y := pr.project(b.corner(i))
		xs = append(xs, x)
		ys = append(ys, y)
	}
	xmin, xmax := minMax(xs)
	ymin, ymax := minMax(ys)
	xspan, yspan := xmax-xmin, ymax-ymin

	width, height := r.size()
	aspect := width / height
	if xspan < yspan*aspect {
		grow := (yspan*aspect - xspan) / 2
		xmin, xmax = xmin-grow, xmax+grow
	} else if aspect > 0 {
		grow := (xspan/aspect - yspan) / 2
		ymin, ymax = ymin-grow, ymax+grow
	}

	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = ymin, ymax
}

func projectAll(pr projector, points ...geometry.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X, xys[i].Y = pr.project(pt)
	}
	return xys
}

func glyph(m Marker) draw.GlyphDrawer {
	if m == MarkerTriangle {
		return draw.TriangleGlyph{}
	}
	return draw.CircleGlyph{}
}

func minMax(v []float64) (float64, float64) {
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	return lo, hi
}
