// Package measurements loads paired spherical readings from a delimited
// table. Columns are matched by header name; row order is preserved and
// defines the pairing index used downstream.
package measurements

// Header names required in the input table.
const (
	ColumnRadius    = "R (cm)"
	ColumnTestTheta = "Test θ (°)"
	ColumnTestPhi   = "Test φ (°)"
	ColumnRealTheta = "Real θ (°)"
	ColumnRealPhi   = "Real φ (°)"
)

// RequiredColumns lists the header names in canonical order.
var RequiredColumns = []string{
	ColumnRadius,
	ColumnTestTheta,
	ColumnTestPhi,
	ColumnRealTheta,
	ColumnRealPhi,
}

// Columns holds the five parallel sequences read from the table. Every
// slice has one entry per data row.
type Columns struct {
	Radius    []float64
	TestTheta []float64
	TestPhi   []float64
	RealTheta []float64
	RealPhi   []float64
}

// Len returns the number of data rows.
func (c *Columns) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Radius)
}

// Row is a single measurement, mostly useful for building fixtures.
type Row struct {
	R         float64
	TestTheta float64
	TestPhi   float64
	RealTheta float64
	RealPhi   float64
}

// Row returns measurement i.
func (c *Columns) Row(i int) Row {
	return Row{
		R:         c.Radius[i],
		TestTheta: c.TestTheta[i],
		TestPhi:   c.TestPhi[i],
		RealTheta: c.RealTheta[i],
		RealPhi:   c.RealPhi[i],
	}
}

func (c *Columns) append(values [5]float64) {
	c.Radius = append(c.Radius, values[0])
	c.TestTheta = append(c.TestTheta, values[1])
	c.TestPhi = append(c.TestPhi, values[2])
	c.RealTheta = append(c.RealTheta, values[3])
	c.RealPhi = append(c.RealPhi, values[4])
}
