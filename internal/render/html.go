package render

import (
	"fmt"
	"html"
	"io"
	"math"

	"github.com/banshee-data/spherecompare/internal/geometry"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultAssetsHost serves echarts and echarts-gl to the generated page.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var titlePolicy = bluemonday.StrictPolicy()

// HTMLRenderer writes a self-contained, rotatable 3D page using go-echarts
// (echarts-gl scatter3D and line3D series).
type HTMLRenderer struct {
	// Width and Height are CSS sizes for the chart canvas.
	Width, Height string
	// AssetsHost overrides where the page loads its JavaScript from.
	AssetsHost string
	// Theme is a go-echarts theme name; empty means "white".
	Theme string
}

// Extension implements Renderer.
func (r HTMLRenderer) Extension() string { return "html" }

// Chart builds the go-echarts chart for fig. The two scatter series come
// first, followed by one line3D series per segment.
func (r HTMLRenderer) Chart(fig *Figure) *charts.Scatter3D {
	width, height := r.Width, r.Height
	if width == "" {
		width = "1000px"
	}
	if height == "" {
		height = "800px"
	}
	assets := r.AssetsHost
	if assets == "" {
		assets = DefaultAssetsHost
	}

	title := plainText(fig.Title)
	legend := make([]string, 0, len(fig.Scatter))
	for _, s := range fig.Scatter {
		legend = append(legend, s.Name)
	}

	chart := charts.NewScatter3D()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: r.Theme, Width: width, Height: height, AssetsHost: assets}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("pairs=%d", len(fig.Segments))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "40px", Data: legend}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Show: opts.Bool(true), Name: fig.XLabel}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Show: opts.Bool(true), Name: fig.YLabel}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Show: opts.Bool(true), Name: fig.ZLabel}),
		charts.WithGrid3DOpts(opts.Grid3D{Show: opts.Bool(true)}),
	)

	for _, s := range fig.Scatter {
		chart.AddSeries(s.Name, chartData(s.Points...),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(s.Color)}),
			charts.WithSeriesOpts(func(ss *charts.SingleSeries) {
				ss.Symbol = s.Marker.String()
				ss.SymbolSize = 8
			}),
		)
	}

	lineType := "solid"
	if fig.SegmentStyle.Dashed {
		lineType = "dashed"
	}
	for _, seg := range fig.Segments {
		// Scatter3D only exposes scatter series, so segments are appended
		// directly as line3D series sharing the same cartesian3D grid.
		chart.MultiSeries = append(chart.MultiSeries, charts.SingleSeries{
			Name:        fmt.Sprintf("pair %d", seg.Index),
			Type:        types.ChartLine3D,
			CoordSystem: types.ChartCartesian3D,
			Data:        chartData(seg.From, seg.To),
			LineStyle: &opts.LineStyle{
				Color:   hexColor(fig.SegmentStyle.Color),
				Width:   float32(fig.SegmentStyle.Width),
				Type:    lineType,
				Opacity: opts.Float(0.8),
			},
		})
	}

	return chart
}

// Render implements Renderer. Non-finite coordinates are rejected because
// go-echarts drops a series it cannot encode as JSON without reporting it.
func (r HTMLRenderer) Render(fig *Figure, w io.Writer) error {
	if err := checkFinite(fig); err != nil {
		return err
	}
	if err := r.Chart(fig).Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func chartData(points ...geometry.Point) []opts.Chart3DData {
	data := make([]opts.Chart3DData, 0, len(points))
	for _, p := range points {
		data = append(data, opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}})
	}
	return data
}

func checkFinite(fig *Figure) error {
	finite := func(p geometry.Point) bool {
		for _, v := range [3]float64{p.X, p.Y, p.Z} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	}
	for _, s := range fig.Scatter {
		for i, p := range s.Points {
			if !finite(p) {
				return fmt.Errorf("%s point %d is not finite: %+v", s.Name, i, p)
			}
		}
	}
	return nil
}

// plainText strips markup from user-supplied titles and decodes entities.
// Decoding can expose markup that was entity-encoded, so the two steps
// repeat until the text is stable. The result is unescaped text; the page
// template escapes it on output.
func plainText(s string) string {
	for i := 0; i < 4; i++ {
		next := html.UnescapeString(titlePolicy.Sanitize(s))
		if next == s {
			break
		}
		s = next
	}
	return s
}
