// Package testutil provides shared test helpers and measurement fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Header is the canonical header row of a measurement table.
var Header = []string{"R (cm)", "Test θ (°)", "Test φ (°)", "Real θ (°)", "Real φ (°)"}

// Reading is one fixture row: radius then test and real angle pairs.
type Reading [5]float64

// SampleReadings is a small, realistic table used across packages.
var SampleReadings = []Reading{
	{50, 0, 0, 1.5, -2},
	{50, 30, 45, 28.5, 47},
	{75, -15, 90, -14, 88.5},
	{100, 60, 180, 61, 178},
	{120, 89, 270, 87.5, 272},
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Table renders header and readings as delimited text.
func Table(sep string, header []string, readings []Reading) string {
	var b strings.Builder
	b.WriteString(strings.Join(header, sep))
	b.WriteByte('\n')
	for _, r := range readings {
		fields := make([]string, len(r))
		for i, v := range r {
			fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		b.WriteString(strings.Join(fields, sep))
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteTable writes a comma-separated measurement table into dir and
// returns its path.
func WriteTable(t *testing.T, dir, name string, readings []Reading) string {
	t.Helper()
	return WriteFile(t, dir, name, Table(",", Header, readings))
}

// WriteFile writes raw content into dir and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}
