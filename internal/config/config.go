package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// GridPreset is a named (columns, rows) pair selected by video orientation.
type GridPreset struct {
	Columns int `json:"columns" yaml:"columns"`
	Rows    int `json:"rows" yaml:"rows"`
}

// Total returns the number of cells in the grid.
func (g GridPreset) Total() int {
	return g.Columns * g.Rows
}

// SheetConfig holds all settings for a run.
type SheetConfig struct {
	SheetWidth int `json:"sheetWidth" yaml:"sheetWidth"`
	Margin     int `json:"margin" yaml:"margin"`
	Padding    int `json:"padding" yaml:"padding"`

	// Colors are hex strings: #RGB, #RGBA, #RRGGBB or #RRGGBBAA, alpha last.
	BackgroundColor     string `json:"backgroundColor" yaml:"backgroundColor"`
	TitleColor          string `json:"titleColor" yaml:"titleColor"`
	DetailColor         string `json:"detailColor" yaml:"detailColor"`
	TimestampColor      string `json:"timestampColor" yaml:"timestampColor"`
	TimestampBackground string `json:"timestampBackground" yaml:"timestampBackground"`

	// FontPath points at a TTF/OTF file. Empty selects the embedded Go fonts.
	FontPath          string  `json:"fontPath" yaml:"fontPath"`
	TitleFontSize     float64 `json:"titleFontSize" yaml:"titleFontSize"`
	DetailFontSize    float64 `json:"detailFontSize" yaml:"detailFontSize"`
	TimestampFontSize float64 `json:"timestampFontSize" yaml:"timestampFontSize"`

	// StartSkip is the fraction of the duration skipped at both ends.
	StartSkip float64 `json:"startSkip" yaml:"startSkip"`

	SheetExtension  string   `json:"sheetExtension" yaml:"sheetExtension"`
	JPEGQuality     int      `json:"jpegQuality" yaml:"jpegQuality"`
	VideoExtensions []string `json:"videoExtensions" yaml:"videoExtensions"`

	Horizontal GridPreset `json:"horizontal" yaml:"horizontal"`
	Vertical   GridPreset `json:"vertical" yaml:"vertical"`

	FFmpegPath   string   `json:"ffmpegPath" yaml:"ffmpegPath"`
	FFprobePath  string   `json:"ffprobePath" yaml:"ffprobePath"`
	FrameTimeout Duration `json:"frameTimeout" yaml:"frameTimeout"`
	ProbeTimeout Duration `json:"probeTimeout" yaml:"probeTimeout"`

	// Workers bounds concurrent video builds, FrameWorkers bounds decoder
	// processes per build. Zero sizes them from GOMAXPROCS.
	Workers      int `json:"workers" yaml:"workers"`
	FrameWorkers int `json:"frameWorkers" yaml:"frameWorkers"`

	Shuffle     bool   `json:"shuffle" yaml:"shuffle"`
	// UseVips encodes sheets with libvips, which also enables WebP output.
	UseVips     bool   `json:"useVips" yaml:"useVips"`
	MetricsAddr string `json:"metricsAddr" yaml:"metricsAddr"`
}

// DefaultVideoExtensions is the allow-list used when none is configured.
var DefaultVideoExtensions = []string{
	".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm", ".m4v",
	".mpeg", ".mpg", ".3gp", ".ts",
}

// Default returns the built-in configuration.
func Default() SheetConfig {
	return SheetConfig{
		SheetWidth:          1920,
		Margin:              20,
		Padding:             8,
		BackgroundColor:     "#1E1E1E",
		TitleColor:          "#FFFFFF",
		DetailColor:         "#B4B4B4",
		TimestampColor:      "#FFFFFF",
		TimestampBackground: "#000000A0",
		TitleFontSize:       28,
		DetailFontSize:      18,
		TimestampFontSize:   14,
		StartSkip:           0.02,
		SheetExtension:      ".sheet.jpg",
		JPEGQuality:         90,
		VideoExtensions:     append([]string(nil), DefaultVideoExtensions...),
		Horizontal:          GridPreset{Columns: 5, Rows: 5},
		Vertical:            GridPreset{Columns: 8, Rows: 3},
		FFmpegPath:          "ffmpeg",
		FFprobePath:         "ffprobe",
		FrameTimeout:        Duration(30 * time.Second),
		ProbeTimeout:        Duration(30 * time.Second),
		UseVips:             false,
	}
}

// Validate rejects settings that can never produce a sheet.
func (c SheetConfig) Validate() error {
	var errs []error

	if c.SheetWidth <= 0 {
		errs = append(errs, fmt.Errorf("sheetWidth must be positive, got %d", c.SheetWidth))
	}
	if c.Margin < 0 || c.Padding < 0 {
		errs = append(errs, fmt.Errorf("margin and padding must not be negative (margin=%d, padding=%d)", c.Margin, c.Padding))
	}
	if c.StartSkip < 0 || c.StartSkip >= 0.5 {
		errs = append(errs, fmt.Errorf("startSkip must be in [0, 0.5), got %v", c.StartSkip))
	}
	for name, preset := range map[string]GridPreset{"horizontal": c.Horizontal, "vertical": c.Vertical} {
		if preset.Columns < 1 || preset.Rows < 1 {
			errs = append(errs, fmt.Errorf("%s grid needs at least one column and row, got %dx%d", name, preset.Columns, preset.Rows))
		}
	}
	for name, size := range map[string]float64{"title": c.TitleFontSize, "detail": c.DetailFontSize, "timestamp": c.TimestampFontSize} {
		if size <= 0 {
			errs = append(errs, fmt.Errorf("%s font size must be positive, got %v", name, size))
		}
	}
	for name, value := range map[string]string{
		"backgroundColor":     c.BackgroundColor,
		"titleColor":          c.TitleColor,
		"detailColor":         c.DetailColor,
		"timestampColor":      c.TimestampColor,
		"timestampBackground": c.TimestampBackground,
	} {
		if _, err := ParseHexColor(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if !strings.HasPrefix(c.SheetExtension, ".") || filepath.Ext(c.SheetExtension) == "" {
		errs = append(errs, fmt.Errorf("sheetExtension must start with '.' and end in an image extension, got %q", c.SheetExtension))
	}
	if strings.EqualFold(filepath.Ext(c.SheetExtension), ".webp") && !c.UseVips {
		errs = append(errs, fmt.Errorf("sheetExtension %q needs useVips; only libvips encodes WebP", c.SheetExtension))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpegQuality must be in [1, 100], got %d", c.JPEGQuality))
	}
	if len(c.VideoExtensions) == 0 {
		errs = append(errs, errors.New("videoExtensions must not be empty"))
	}
	for _, ext := range c.VideoExtensions {
		if strings.EqualFold(ext, filepath.Ext(c.SheetExtension)) {
			errs = append(errs, fmt.Errorf("video extension %q collides with sheetExtension %q", ext, c.SheetExtension))
		}
	}
	if c.FFmpegPath == "" || c.FFprobePath == "" {
		errs = append(errs, errors.New("ffmpegPath and ffprobePath must be set"))
	}
	if c.FrameTimeout <= 0 || c.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("frameTimeout and probeTimeout must be positive"))
	}
	if c.Workers < 0 || c.FrameWorkers < 0 {
		errs = append(errs, errors.New("workers and frameWorkers must not be negative"))
	}

	return errors.Join(errs...)
}

// IsVideo reports whether path has one of the configured video extensions.
func (c SheetConfig) IsVideo(path string) bool {
	ext := filepath.Ext(path)
	if ext == "" {
		return false
	}
	for _, allowed := range c.VideoExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// IsSheet reports whether path carries the sheet extension.
func (c SheetConfig) IsSheet(path string) bool {
	return len(path) > len(c.SheetExtension) &&
		strings.EqualFold(path[len(path)-len(c.SheetExtension):], c.SheetExtension)
}

// SheetPath returns <videoDir>/<videoBaseName><SheetExtension>.
func (c SheetConfig) SheetPath(videoPath string) string {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	return filepath.Join(filepath.Dir(videoPath), base+c.SheetExtension)
}

// VideoBase returns the <dir>/<name> a sheet at sheetPath belongs to.
func (c SheetConfig) VideoBase(sheetPath string) string {
	return sheetPath[:len(sheetPath)-len(c.SheetExtension)]
}

// Duration is a time.Duration that reads "30s" style strings or plain
// seconds from config files.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
