package geometry

import (
	"math"
	"testing"

	"github.com/banshee-data/spherecompare/internal/measurements"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromColumns(t *testing.T) {
	cols := &measurements.Columns{
		Radius:    []float64{10, 20, 30},
		TestTheta: []float64{0, 90, 0},
		TestPhi:   []float64{0, 0, 90},
		RealTheta: []float64{0, 0, -90},
		RealPhi:   []float64{90, 180, 0},
	}

	ds, err := FromColumns(cols)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	wantTest := []Point{{X: 10}, {Z: 20}, {Y: 30}}
	wantReal := []Point{{Y: 10}, {X: -20}, {Z: -30}}
	approx := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(wantTest, ds.Test, approx); diff != "" {
		t.Errorf("test points mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantReal, ds.Real, approx); diff != "" {
		t.Errorf("real points mismatch (-want +got):\n%s", diff)
	}
}

func TestFromColumns_Empty(t *testing.T) {
	ds, err := FromColumns(&measurements.Columns{})
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Empty(t, ds.Pairs())
}

func TestFromColumns_Ragged(t *testing.T) {
	_, err := FromColumns(&measurements.Columns{
		Radius:    []float64{1, 2},
		TestTheta: []float64{0, 0},
		TestPhi:   []float64{0},
		RealTheta: []float64{0, 0},
		RealPhi:   []float64{0, 0},
	})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestNewDataset(t *testing.T) {
	_, err := NewDataset([]Point{{X: 1}}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	ds, err := NewDataset([]Point{{X: 1}, {Y: 2}}, []Point{{X: 1.1}, {Y: 2.2}})
	require.NoError(t, err)
	assert.NoError(t, ds.Validate())

	pairs := ds.Pairs()
	require.Len(t, pairs, 2)
	assert.Equal(t, Pair{Index: 1, Test: Point{Y: 2}, Real: Point{Y: 2.2}}, pairs[1])
}

func TestDataset_Validate(t *testing.T) {
	ds := Dataset{Test: []Point{{}, {}}, Real: []Point{{}}}
	assert.ErrorIs(t, ds.Validate(), ErrLengthMismatch)
}

func TestDataset_Bounds(t *testing.T) {
	_, _, ok := Dataset{}.Bounds()
	assert.False(t, ok)

	ds := Dataset{
		Test: []Point{{X: 1, Y: -2, Z: 3}, {X: -4, Y: 5, Z: 0}},
		Real: []Point{{X: 0, Y: 0, Z: -6}, {X: 2, Y: 1, Z: 1}},
	}
	lo, hi, ok := ds.Bounds()
	require.True(t, ok)
	assert.Equal(t, Point{X: -4, Y: -2, Z: -6}, lo)
	assert.Equal(t, Point{X: 2, Y: 5, Z: 3}, hi)
}

func TestBoundsOf(t *testing.T) {
	lo, hi, ok := BoundsOf([]Point{{X: 1, Y: -2, Z: 3}}, nil, []Point{{X: -4, Y: 5, Z: 0}})
	require.True(t, ok)
	assert.Equal(t, Point{X: -4, Y: -2, Z: 0}, lo)
	assert.Equal(t, Point{X: 1, Y: 5, Z: 3}, hi)

	_, _, ok = BoundsOf()
	assert.False(t, ok)
	_, _, ok = BoundsOf(nil, []Point{})
	assert.False(t, ok)
}

func TestDataset_Scale(t *testing.T) {
	d := Dataset{
		Test: []Point{{X: 10, Y: -2}},
		Real: []Point{{Z: 2.54}},
	}

	got := d.Scale(0.5)
	want := Dataset{
		Test: []Point{{X: 5, Y: -1}},
		Real: []Point{{Z: 1.27}},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Scale mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 10.0, d.Test[0].X, "Scale must not modify the receiver")
	assert.Equal(t, 0, Dataset{}.Scale(2).Len())
}

func TestSummarize(t *testing.T) {
	ds := Dataset{
		Test: []Point{{X: 0}, {X: 0}, {X: 0}},
		Real: []Point{{X: 3}, {Y: 4}, {Z: 0}},
	}

	s := Summarize(ds)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 7.0/3.0, s.MeanError, 1e-12)
	assert.InDelta(t, math.Sqrt(25.0/3.0), s.RMSError, 1e-12)
	assert.InDelta(t, 4, s.MaxError, 1e-12)
	assert.Equal(t, 1, s.MaxErrorIndex)
	// Sample standard deviation of {3, 4, 0}.
	assert.InDelta(t, math.Sqrt(13.0/3.0), s.StdDevError, 1e-12)
}

func TestSummarize_IdenticalSets(t *testing.T) {
	pts := []Point{{X: 1, Y: 2, Z: 3}, {X: -1, Y: 0, Z: 5}}
	s := Summarize(Dataset{Test: pts, Real: pts})

	assert.Equal(t, Summary{Count: 2}, s)
}

func TestSummarize_SingleAndEmpty(t *testing.T) {
	s := Summarize(Dataset{Test: []Point{{}}, Real: []Point{{Z: 2}}})
	assert.Equal(t, Summary{Count: 1, MeanError: 2, RMSError: 2, MaxError: 2}, s)

	assert.Equal(t, Summary{MaxErrorIndex: -1}, Summarize(Dataset{}))
}
