package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spherecompare/internal/archive"
	"github.com/banshee-data/spherecompare/internal/config"
	"github.com/banshee-data/spherecompare/internal/fsutil"
	"github.com/banshee-data/spherecompare/internal/measurements"
	"github.com/banshee-data/spherecompare/internal/monitoring"
	"github.com/banshee-data/spherecompare/internal/testutil"
	"github.com/banshee-data/spherecompare/internal/timeutil"
)

func silenceLogs(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, format)
	})
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })
	return &lines
}

func testClock() *timeutil.MockClock {
	return timeutil.NewMockClock(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
}

func ptr[T any](v T) *T { return &v }

func TestParseArgsDefaults(t *testing.T) {
	cfg, cli, err := parseArgs(nil)
	require.NoError(t, err)

	assert.False(t, cli.showVersion)
	assert.Equal(t, 0, cli.listRuns)
	assert.Equal(t, "spherical_data.csv", cfg.GetInput())
	assert.Equal(t, "plots", cfg.GetOutputDir())
	assert.True(t, cfg.GetHTML())
	assert.True(t, cfg.GetImage())
	assert.Equal(t, "", cfg.GetArchivePath())
}

func TestParseArgsFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testutil.WriteFile(t, dir, "run.yaml",
		"input: from-config.csv\ntitle: Config title\nimage_format: svg\nview_azimuth_deg: 10\n")

	cfg, _, err := parseArgs([]string{
		"-config", cfgPath,
		"-input", "from-flag.csv",
		"-image=false",
		"-azim", "-30",
	})
	require.NoError(t, err)

	assert.Equal(t, "from-flag.csv", cfg.GetInput())
	assert.Equal(t, "Config title", cfg.GetTitle(), "unset flags must not override config")
	assert.Equal(t, "svg", cfg.GetImageFormat())
	assert.False(t, cfg.GetImage())
	assert.Equal(t, -30.0, cfg.GetViewAzimuth())
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope"}},
		{"positional argument", []string{"extra.csv"}},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "missing.json")}},
		{"bad format", []string{"-image-format", "bmp"}},
		{"no outputs", []string{"-html=false", "-image=false"}},
		{"list runs without db", []string{"-list-runs", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseArgs(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseArgsHelp(t *testing.T) {
	_, _, err := parseArgs([]string{"-h"})
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func TestParseArgsVersion(t *testing.T) {
	_, cli, err := parseArgs([]string{"-version"})
	require.NoError(t, err)
	assert.True(t, cli.showVersion)
}

func TestRunWritesFiguresAndArchive(t *testing.T) {
	lines := silenceLogs(t)
	dir := t.TempDir()
	input := testutil.WriteTable(t, dir, "spherical_data.csv", testutil.SampleReadings)
	outDir := filepath.Join(dir, "plots")
	dbPath := filepath.Join(dir, "runs.db")

	cfg := config.Empty()
	cfg.Input = ptr(input)
	cfg.OutputDir = ptr(outDir)
	cfg.ArchivePath = ptr(dbPath)

	written, err := run(context.Background(), cfg, fsutil.OSFileSystem{}, testClock())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(outDir, "spherical_data.html"),
		filepath.Join(outDir, "spherical_data.png"),
	}, written)

	page, err := os.ReadFile(written[0])
	require.NoError(t, err)
	assert.Contains(t, string(page), "3D Comparison of Spherical Points (Test vs Real)")
	assert.Equal(t, len(testutil.SampleReadings), strings.Count(string(page), `"pair `))

	img, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))

	assert.Contains(t, *lines, "pairs: %d (errors in %s)")

	store, err := archive.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, input, runs[0].InputPath)

	pairs, err := store.Pairs(context.Background(), runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, pairs, len(testutil.SampleReadings))
}

func TestRunMemoryFileSystem(t *testing.T) {
	silenceLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("in/readings.tsv", []byte(testutil.Table("\t", testutil.Header, testutil.SampleReadings)))

	cfg := config.Empty()
	cfg.Input = ptr("in/readings.tsv")
	cfg.Delimiter = ptr("tab")
	cfg.OutputDir = ptr("out")
	cfg.OutputBase = ptr("bench 12")
	cfg.Image = ptr(false)

	written, err := run(context.Background(), cfg, fsys, testClock())
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join("out", "bench_12.html")}, written)

	data, err := fsys.ReadFile(written[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Test Points")
}

func TestRunDisplayUnitScalesFigureOnly(t *testing.T) {
	silenceLogs(t)
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("in.csv", []byte(testutil.Table(",", testutil.Header, []testutil.Reading{{10, 0, 0, 0, 90}})))

	cfg := config.Empty()
	cfg.Input = ptr("in.csv")
	cfg.OutputDir = ptr("plots")
	cfg.Image = ptr(false)
	cfg.Unit = ptr("mm")
	cfg.ArchivePath = ptr(dbPath)

	written, err := run(context.Background(), cfg, fsys, testClock())
	require.NoError(t, err)
	require.Len(t, written, 1)

	page, err := fsys.ReadFile(written[0])
	require.NoError(t, err)
	assert.Contains(t, string(page), "X (mm)")
	assert.Contains(t, string(page), "[100,0,0]", "figure coordinates are in mm")

	store, err := archive.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "cm", runs[0].Unit)
	assert.InDelta(t, 10*math.Sqrt2, runs[0].Summary.MaxError, 1e-9, "summary stays in cm")
	assert.True(t, runs[0].CreatedAt.Equal(testClock().Now()))

	pairs, err := store.Pairs(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.InDelta(t, 10, pairs[0].Test.X, 1e-12)
	assert.InDelta(t, 10, pairs[0].Real.Y, 1e-12)
}

func TestRunNonFiniteCellWritesNothing(t *testing.T) {
	silenceLogs(t)
	dir := t.TempDir()
	body := strings.Join(testutil.Header, ",") + "\n50,0,0,1,1\nNaN,5,5,5,5\n"
	outDir := filepath.Join(dir, "plots")
	dbPath := filepath.Join(dir, "runs.db")

	cfg := config.Empty()
	cfg.Input = ptr(testutil.WriteFile(t, dir, "d.csv", body))
	cfg.OutputDir = ptr(outDir)
	cfg.ArchivePath = ptr(dbPath)

	written, err := run(context.Background(), cfg, fsutil.OSFileSystem{}, testClock())
	require.Error(t, err)
	assert.True(t, errors.Is(err, measurements.ErrData))
	assert.True(t, errors.Is(err, measurements.ErrNonFinite))
	assert.Empty(t, written)

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr), "no output directory should be created")
	_, statErr = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr), "no archive should be created")
}

func TestRunFailingImageBackendWritesNothing(t *testing.T) {
	silenceLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("d.csv", []byte(testutil.Table(",", testutil.Header, testutil.SampleReadings)))

	cfg := config.Empty()
	cfg.Input = ptr("d.csv")
	cfg.OutputDir = ptr("plots")
	cfg.ImageFormat = ptr("bmp")

	written, err := run(context.Background(), cfg, fsys, testClock())
	require.Error(t, err)
	assert.Empty(t, written)
	assert.Equal(t, []string{"d.csv"}, fsys.Files(), "the HTML page must not be left behind")
}

func TestRunSchemaErrorWritesNothing(t *testing.T) {
	silenceLogs(t)
	dir := t.TempDir()
	header := append([]string(nil), testutil.Header...)
	header[3] = "Real theta"
	input := testutil.WriteFile(t, dir, "bad.csv", testutil.Table(",", header, testutil.SampleReadings))
	outDir := filepath.Join(dir, "plots")

	cfg := config.Empty()
	cfg.Input = ptr(input)
	cfg.OutputDir = ptr(outDir)

	written, err := run(context.Background(), cfg, fsutil.OSFileSystem{}, testClock())
	require.Error(t, err)
	assert.True(t, errors.Is(err, measurements.ErrSchema))
	assert.Empty(t, written)

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr), "no output directory should be created")
}

func TestRunMissingInput(t *testing.T) {
	silenceLogs(t)
	cfg := config.Empty()
	cfg.Input = ptr(filepath.Join(t.TempDir(), "missing.csv"))

	_, err := run(context.Background(), cfg, fsutil.OSFileSystem{}, testClock())
	assert.True(t, errors.Is(err, measurements.ErrInputAccess))
}

func TestRunCancelled(t *testing.T) {
	silenceLogs(t)
	dir := t.TempDir()
	cfg := config.Empty()
	cfg.Input = ptr(testutil.WriteTable(t, dir, "in.csv", testutil.SampleReadings))
	cfg.OutputDir = ptr(filepath.Join(dir, "plots"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	written, err := run(ctx, cfg, fsutil.OSFileSystem{}, testClock())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, written)
}

func TestListRuns(t *testing.T) {
	silenceLogs(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")

	cfg := config.Empty()
	cfg.Input = ptr(testutil.WriteTable(t, dir, "first.csv", testutil.SampleReadings))
	cfg.OutputDir = ptr(filepath.Join(dir, "plots"))
	cfg.HTML = ptr(false)
	cfg.ImageFormat = ptr("svg")
	cfg.ArchivePath = ptr(dbPath)

	_, err := run(context.Background(), cfg, fsutil.OSFileSystem{}, testClock())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, listRuns(context.Background(), dbPath, 10, &out))
	assert.Contains(t, out.String(), "RUN")
	assert.Contains(t, out.String(), "first.csv")
	assert.Contains(t, out.String(), "UNIT")
	assert.Contains(t, out.String(), " cm ")
}
