package render

import (
	"math"

	"github.com/banshee-data/spherecompare/internal/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// View is an orthographic camera looking at the scene centre. Elevation and
// Azimuth are in degrees, measured like a camera orbiting the Z axis.
type View struct {
	Elevation float64
	Azimuth   float64
}

// DefaultView matches the usual 3D plotting default of 30° elevation and
// -60° azimuth.
var DefaultView = View{Elevation: 30, Azimuth: -60}

// projector maps scene points onto the image plane.
type projector struct {
	centre r3.Vec
	right  r3.Vec
	up     r3.Vec
}

func newProjector(v View, centre r3.Vec) projector {
	el := v.Elevation * math.Pi / 180
	az := v.Azimuth * math.Pi / 180
	return projector{
		centre: centre,
		right:  r3.Vec{X: -math.Sin(az), Y: math.Cos(az)},
		up:     r3.Vec{X: -math.Sin(el) * math.Cos(az), Y: -math.Sin(el) * math.Sin(az), Z: math.Cos(el)},
	}
}

// project returns the image-plane coordinates of p.
func (pr projector) project(p geometry.Point) (float64, float64) {
	rel := r3.Sub(p.Vec(), pr.centre)
	return r3.Dot(rel, pr.right), r3.Dot(rel, pr.up)
}

// box is the axis-aligned scene box drawn around the data.
type box struct {
	lo, hi geometry.Point
}

// sceneBox pads the data bounds so that no side is degenerate.
func sceneBox(fig *Figure) box {
	sets := make([][]geometry.Point, len(fig.Scatter))
	for i, s := range fig.Scatter {
		sets[i] = s.Points
	}
	lo, hi, ok := geometry.BoundsOf(sets...)
	if !ok {
		return box{lo: geometry.Point{X: -1, Y: -1, Z: -1}, hi: geometry.Point{X: 1, Y: 1, Z: 1}}
	}

	span := max(hi.X-lo.X, hi.Y-lo.Y, hi.Z-lo.Z)
	if span == 0 {
		span = 1
	}
	pad := func(a, b float64) (float64, float64) {
		m := 0.05 * span
		if b-a < 0.1*span {
			m = 0.1 * span
		}
		return a - m, b + m
	}
	lo.X, hi.X = pad(lo.X, hi.X)
	lo.Y, hi.Y = pad(lo.Y, hi.Y)
	lo.Z, hi.Z = pad(lo.Z, hi.Z)
	return box{lo: lo, hi: hi}
}

func (b box) centre() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.lo.Vec(), b.hi.Vec()))
}

func (b box) corner(i int) geometry.Point {
	p := b.lo
	if i&1 != 0 {
		p.X = b.hi.X
	}
	if i&2 != 0 {
		p.Y = b.hi.Y
	}
	if i&4 != 0 {
		p.Z = b.hi.Z
	}
	return p
}

// edges returns the 12 box edges as corner pairs.
func (b box) edges() [][2]geometry.Point {
	edges := make([][2]geometry.Point, 0, 12)
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				edges = append(edges, [2]geometry.Point{b.corner(i), b.corner(i | bit)})
			}
		}
	}
	return edges
}
