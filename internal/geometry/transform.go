package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a Cartesian position in the same length unit as the radius.
type Point struct {
	X, Y, Z float64
}

// Vec returns p as a gonum vector.
func (p Point) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// PointFromVec converts a gonum vector back to a Point.
func PointFromVec(v r3.Vec) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z}
}

// SphericalToCartesianCustom converts radius r and angles thetaDeg, phiDeg
// (degrees) into a Cartesian point:
//
//	x = r·cos θ·cos φ
//	y = r·cos θ·sin φ
//	z = r·sin θ
//
// Angles outside the usual ranges are accepted as-is.
func SphericalToCartesianCustom(r, thetaDeg, phiDeg float64) Point {
	thetaRad := degToRad(thetaDeg)
	phiRad := degToRad(phiDeg)

	cosTheta := math.Cos(thetaRad)
	return Point{
		X: r * cosTheta * math.Cos(phiRad),
		Y: r * cosTheta * math.Sin(phiRad),
		Z: r * math.Sin(thetaRad),
	}
}

// degToRad multiplies by the float64 constant π/180. Computing (deg·π)/180
// instead rounds differently for many inputs.
func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
