// Package config loads sphere-compare run settings from JSON or YAML. Unset
// fields fall back to the defaults returned by the Get* accessors, so
// partial files are safe.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/spherecompare/internal/render"
	"github.com/banshee-data/spherecompare/internal/units"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Defaults applied when a field is unset.
const (
	DefaultInput       = "spherical_data.csv"
	DefaultOutputDir   = "plots"
	DefaultImageFormat = "png"
	DefaultUnit        = units.CM
	DefaultElevation   = 30.0
	DefaultAzimuth     = -60.0
	DefaultImageWidth  = 10.0
	DefaultImageHeight = 8.0
)

// Config holds the settings for one comparison run.
type Config struct {
	// Input
	Input     *string `json:"input,omitempty" yaml:"input,omitempty"`
	Delimiter *string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`

	// Output naming
	OutputDir  *string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	OutputBase *string `json:"output_base,omitempty" yaml:"output_base,omitempty"` // defaults to the input basename

	// Figure
	Title *string `json:"title,omitempty" yaml:"title,omitempty"`
	Unit  *string `json:"unit,omitempty" yaml:"unit,omitempty"`

	// HTML backend
	HTML       *bool   `json:"html,omitempty" yaml:"html,omitempty"`
	HTMLWidth  *string `json:"html_width,omitempty" yaml:"html_width,omitempty"`
	HTMLHeight *string `json:"html_height,omitempty" yaml:"html_height,omitempty"`
	AssetsHost *string `json:"assets_host,omitempty" yaml:"assets_host,omitempty"`

	// Image backend
	Image         *bool    `json:"image,omitempty" yaml:"image,omitempty"`
	ImageFormat   *string  `json:"image_format,omitempty" yaml:"image_format,omitempty"`
	ImageWidth    *float64 `json:"image_width_in,omitempty" yaml:"image_width_in,omitempty"`
	ImageHeight   *float64 `json:"image_height_in,omitempty" yaml:"image_height_in,omitempty"`
	ViewElevation *float64 `json:"view_elevation_deg,omitempty" yaml:"view_elevation_deg,omitempty"`
	ViewAzimuth   *float64 `json:"view_azimuth_deg,omitempty" yaml:"view_azimuth_deg,omitempty"`

	// Archive; empty disables it
	ArchivePath *string `json:"archive_path,omitempty" yaml:"archive_path,omitempty"`

	Verbose *bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Defaults returns a Config with every defaulted field set explicitly.
func Defaults() *Config {
	return &Config{
		Input:         ptrString(DefaultInput),
		Delimiter:     ptrString(","),
		OutputDir:     ptrString(DefaultOutputDir),
		Unit:          ptrString(DefaultUnit),
		HTML:          ptrBool(true),
		Image:         ptrBool(true),
		ImageFormat:   ptrString(DefaultImageFormat),
		ImageWidth:    ptrFloat64(DefaultImageWidth),
		ImageHeight:   ptrFloat64(DefaultImageHeight),
		ViewElevation: ptrFloat64(DefaultElevation),
		ViewAzimuth:   ptrFloat64(DefaultAzimuth),
		Verbose:       ptrBool(false),
	}
}

// Load reads a Config from a .json, .yaml or .yml file and validates it.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	if c.Delimiter != nil {
		switch *c.Delimiter {
		case "", ",", ";", "\t", `\t`, "tab", "|":
		default:
			return fmt.Errorf("unsupported delimiter %q", *c.Delimiter)
		}
	}

	if c.ImageFormat != nil && !slices.Contains(render.ImageFormats, strings.ToLower(*c.ImageFormat)) {
		return fmt.Errorf("image_format must be one of %v, got %q", render.ImageFormats, *c.ImageFormat)
	}

	// Comparisons with NaN are always false, so finiteness is checked first.
	if c.ImageWidth != nil && (!isFinite(*c.ImageWidth) || *c.ImageWidth <= 0) {
		return fmt.Errorf("image_width_in must be positive, got %f", *c.ImageWidth)
	}
	if c.ImageHeight != nil && (!isFinite(*c.ImageHeight) || *c.ImageHeight <= 0) {
		return fmt.Errorf("image_height_in must be positive, got %f", *c.ImageHeight)
	}

	if c.ViewElevation != nil && (math.IsNaN(*c.ViewElevation) || *c.ViewElevation < -90 || *c.ViewElevation > 90) {
		return fmt.Errorf("view_elevation_deg must be between -90 and 90, got %f", *c.ViewElevation)
	}
	if c.ViewAzimuth != nil && !isFinite(*c.ViewAzimuth) {
		return fmt.Errorf("view_azimuth_deg must be finite, got %f", *c.ViewAzimuth)
	}

	if c.Unit != nil && *c.Unit != "" && !units.IsValid(*c.Unit) {
		return fmt.Errorf("unit must be one of %s, got %q", units.GetValidUnitsString(), *c.Unit)
	}

	if c.Input != nil && *c.Input == "" {
		return fmt.Errorf("input must not be empty")
	}

	if !c.GetHTML() && !c.GetImage() {
		return fmt.Errorf("at least one of html or image output must be enabled")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// GetInput returns the input table path or the default.
func (c *Config) GetInput() string {
	if c.Input == nil {
		return DefaultInput
	}
	return *c.Input
}

// GetDelimiter returns the configured delimiter, or "," when unset.
func (c *Config) GetDelimiter() string {
	if c.Delimiter == nil || *c.Delimiter == "" {
		return ","
	}
	return *c.Delimiter
}

// GetOutputDir returns the output directory or the default.
func (c *Config) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return DefaultOutputDir
	}
	return *c.OutputDir
}

// GetOutputBase returns the configured output base name, or "" to derive
// it from the input file.
func (c *Config) GetOutputBase() string {
	if c.OutputBase == nil {
		return ""
	}
	return *c.OutputBase
}

// GetTitle returns the figure title, or "" for the renderer default.
func (c *Config) GetTitle() string {
	if c.Title == nil {
		return ""
	}
	return *c.Title
}

// GetUnit returns the display length unit. Input radii are centimetres.
func (c *Config) GetUnit() string {
	if c.Unit == nil || *c.Unit == "" {
		return DefaultUnit
	}
	return *c.Unit
}

// GetHTML reports whether the HTML page is written. Default true.
func (c *Config) GetHTML() bool {
	if c.HTML == nil {
		return true
	}
	return *c.HTML
}

// GetHTMLWidth returns the HTML canvas width, or "" for the renderer default.
func (c *Config) GetHTMLWidth() string {
	if c.HTMLWidth == nil {
		return ""
	}
	return *c.HTMLWidth
}

// GetHTMLHeight returns the HTML canvas height, or "" for the renderer default.
func (c *Config) GetHTMLHeight() string {
	if c.HTMLHeight == nil {
		return ""
	}
	return *c.HTMLHeight
}

// GetAssetsHost returns the echarts assets host, or "" for the renderer default.
func (c *Config) GetAssetsHost() string {
	if c.AssetsHost == nil {
		return ""
	}
	return *c.AssetsHost
}

// GetImage reports whether the static image is written. Default true.
func (c *Config) GetImage() bool {
	if c.Image == nil {
		return true
	}
	return *c.Image
}

// GetImageFormat returns the image format or the default.
func (c *Config) GetImageFormat() string {
	if c.ImageFormat == nil || *c.ImageFormat == "" {
		return DefaultImageFormat
	}
	return strings.ToLower(*c.ImageFormat)
}

// GetImageWidth returns the image width in inches.
func (c *Config) GetImageWidth() float64 {
	if c.ImageWidth == nil {
		return DefaultImageWidth
	}
	return *c.ImageWidth
}

// GetImageHeight returns the image height in inches.
func (c *Config) GetImageHeight() float64 {
	if c.ImageHeight == nil {
		return DefaultImageHeight
	}
	return *c.ImageHeight
}

// GetViewElevation returns the camera elevation in degrees.
func (c *Config) GetViewElevation() float64 {
	if c.ViewElevation == nil {
		return DefaultElevation
	}
	return *c.ViewElevation
}

// GetViewAzimuth returns the camera azimuth in degrees.
func (c *Config) GetViewAzimuth() float64 {
	if c.ViewAzimuth == nil {
		return DefaultAzimuth
	}
	return *c.ViewAzimuth
}

// GetArchivePath returns the SQLite archive path; "" means disabled.
func (c *Config) GetArchivePath() string {
	if c.ArchivePath == nil {
		return ""
	}
	return *c.ArchivePath
}

// GetVerbose reports whether debug logging is enabled.
func (c *Config) GetVerbose() bool {
	return c.Verbose != nil && *c.Verbose
}
