// Command sphere-compare reads paired spherical readings from a delimited
// table, converts them to Cartesian points and renders a 3D comparison of
// the test and real positions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/banshee-data/spherecompare/internal/archive"
	"github.com/banshee-data/spherecompare/internal/config"
	"github.com/banshee-data/spherecompare/internal/fsutil"
	"github.com/banshee-data/spherecompare/internal/geometry"
	"github.com/banshee-data/spherecompare/internal/measurements"
	"github.com/banshee-data/spherecompare/internal/monitoring"
	"github.com/banshee-data/spherecompare/internal/render"
	"github.com/banshee-data/spherecompare/internal/security"
	"github.com/banshee-data/spherecompare/internal/timeutil"
	"github.com/banshee-data/spherecompare/internal/units"
	"github.com/banshee-data/spherecompare/internal/version"
)

// cliOptions holds flags that are not part of the run configuration.
type cliOptions struct {
	showVersion bool
	listRuns    int
}

func main() {
	cfg, cli, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	if cli.showVersion {
		fmt.Println(version.String())
		return
	}

	monitoring.SetVerbose(cfg.GetVerbose())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cli.listRuns > 0 {
		if err := listRuns(ctx, cfg.GetArchivePath(), cli.listRuns, os.Stdout); err != nil {
			log.Fatalf("List runs failed: %v", err)
		}
		return
	}

	written, err := run(ctx, cfg, fsutil.OSFileSystem{}, timeutil.RealClock{})
	if err != nil {
		log.Fatalf("Comparison failed: %v", err)
	}
	for _, path := range written {
		log.Printf("Wrote %s", path)
	}
}

// parseArgs parses command line flags on top of an optional config file.
// Only flags given explicitly override config values.
func parseArgs(args []string) (*config.Config, cliOptions, error) {
	var (
		cli        cliOptions
		configPath string

		input, outDir, outBase, title, delimiter string
		imageFormat, dbPath, unit                string
		htmlOut, imageOut, verbose               bool
		elev, azim                               float64
	)

	fs := flag.NewFlagSet("sphere-compare", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	fs.StringVar(&input, "input", config.DefaultInput, "Input table with R, test and real angle columns")
	fs.StringVar(&delimiter, "delimiter", ",", `Field delimiter: ",", ";", "tab" or "|"`)
	fs.StringVar(&outDir, "out-dir", config.DefaultOutputDir, "Directory for generated figures")
	fs.StringVar(&outBase, "out-name", "", "Base name for generated files (default: input file name)")
	fs.StringVar(&title, "title", render.DefaultTitle, "Figure title")
	fs.StringVar(&unit, "unit", config.DefaultUnit, "Display length unit: "+units.GetValidUnitsString())
	fs.BoolVar(&htmlOut, "html", true, "Write an interactive HTML figure")
	fs.BoolVar(&imageOut, "image", true, "Write a static image")
	fs.StringVar(&imageFormat, "image-format", config.DefaultImageFormat, "Static image format: png, svg, pdf, jpg, tiff, eps")
	fs.Float64Var(&elev, "elev", config.DefaultElevation, "Static image camera elevation in degrees")
	fs.Float64Var(&azim, "azim", config.DefaultAzimuth, "Static image camera azimuth in degrees")
	fs.StringVar(&dbPath, "db", "", "Record the run in this SQLite archive")
	fs.IntVar(&cli.listRuns, "list-runs", 0, "List the N most recent archived runs and exit (requires -db)")
	fs.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	fs.BoolVar(&cli.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, cli, err
	}
	if fs.NArg() > 0 {
		return nil, cli, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg := config.Empty()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, cli, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = &input
		case "delimiter":
			cfg.Delimiter = &delimiter
		case "out-dir":
			cfg.OutputDir = &outDir
		case "out-name":
			cfg.OutputBase = &outBase
		case "title":
			cfg.Title = &title
		case "unit":
			cfg.Unit = &unit
		case "html":
			cfg.HTML = &htmlOut
		case "image":
			cfg.Image = &imageOut
		case "image-format":
			cfg.ImageFormat = &imageFormat
		case "elev":
			cfg.ViewElevation = &elev
		case "azim":
			cfg.ViewAzimuth = &azim
		case "db":
			cfg.ArchivePath = &dbPath
		case "verbose":
			cfg.Verbose = &verbose
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, cli, fmt.Errorf("invalid configuration: %w", err)
	}
	if cli.listRuns > 0 && cfg.GetArchivePath() == "" {
		return nil, cli, fmt.Errorf("-list-runs requires -db or archive_path")
	}
	return cfg, cli, nil
}

// run loads the input, renders every enabled figure and optionally archives
// the result. It returns the paths written.
func run(ctx context.Context, cfg *config.Config, fsys fsutil.FileSystem, clock timeutil.Clock) ([]string, error) {
	start := clock.Now()
	comma, err := measurements.ParseDelimiter(cfg.GetDelimiter())
	if err != nil {
		return nil, err
	}

	cols, err := measurements.Load(cfg.GetInput(), measurements.Options{Comma: comma, FS: fsys})
	if err != nil {
		return nil, err
	}

	ds, err := geometry.FromColumns(cols)
	if err != nil {
		return nil, err
	}
	// Statistics and the archive stay in input centimetres; only the figure
	// uses the display unit.
	summary := geometry.Summarize(ds)
	logSummary(summary)

	scale, err := units.FromCentimetres(cfg.GetUnit())
	if err != nil {
		return nil, err
	}
	shown := ds
	if scale != 1 {
		shown = ds.Scale(scale)
	}

	fig, err := render.BuildFigure(shown, render.FigureOptions{Title: cfg.GetTitle(), Unit: cfg.GetUnit()})
	if err != nil {
		return nil, err
	}

	base := security.OutputBase(cfg.GetInput(), cfg.GetOutputBase())
	var outputs []render.Output
	addOutput := func(r render.Renderer) error {
		path, err := security.OutputPath(cfg.GetOutputDir(), base, r.Extension())
		if err != nil {
			return err
		}
		outputs = append(outputs, render.Output{Path: path, Renderer: r})
		return nil
	}
	if cfg.GetHTML() {
		if err := addOutput(render.HTMLRenderer{
			Width:      cfg.GetHTMLWidth(),
			Height:     cfg.GetHTMLHeight(),
			AssetsHost: cfg.GetAssetsHost(),
		}); err != nil {
			return nil, err
		}
	}
	if cfg.GetImage() {
		if err := addOutput(render.ImageRenderer{
			Format: cfg.GetImageFormat(),
			Width:  cfg.GetImageWidth(),
			Height: cfg.GetImageHeight(),
			View:   render.View{Elevation: cfg.GetViewElevation(), Azimuth: cfg.GetViewAzimuth()},
		}); err != nil {
			return nil, err
		}
	}

	// Open the archive before writing so a bad database path emits nothing.
	var store *archive.Store
	if dbPath := cfg.GetArchivePath(); dbPath != "" {
		store, err = archive.Open(dbPath, archive.WithClock(clock))
		if err != nil {
			return nil, err
		}
		defer store.Close()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := render.WriteAll(fsys, fig, outputs); err != nil {
		return nil, err
	}
	written := make([]string, 0, len(outputs))
	for _, out := range outputs {
		written = append(written, out.Path)
	}
	monitoring.Debugf("rendered %d figure(s) in %s", len(written), clock.Since(start))

	if store != nil {
		if _, err := store.RecordRun(ctx, archive.Run{
			InputPath: cfg.GetInput(),
			Title:     fig.Title,
			Unit:      units.CM,
			Summary:   summary,
		}, ds.Pairs()); err != nil {
			return written, fmt.Errorf("archive run: %w", err)
		}
	}
	return written, nil
}

func logSummary(s geometry.Summary) {
	monitoring.Logf("pairs: %d (errors in %s)", s.Count, units.CM)
	if s.Count == 0 {
		return
	}
	monitoring.Logf("mean error: %.4f", s.MeanError)
	monitoring.Logf("stddev error: %.4f", s.StdDevError)
	monitoring.Logf("rms error: %.4f", s.RMSError)
	monitoring.Logf("max error: %.4f (row %d)", s.MaxError, s.MaxErrorIndex+1)
}

func listRuns(ctx context.Context, dbPath string, limit int, w io.Writer) error {
	store, err := archive.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tINPUT\tPAIRS\tUNIT\tRMS\tMAX")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%.4f\t%.4f\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.InputPath,
			r.Summary.Count, r.Unit, r.Summary.RMSError, r.Summary.MaxError)
	}
	return tw.Flush()
}
