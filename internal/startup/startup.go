package startup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"contact-sheet/internal/config"
	"contact-sheet/internal/logging"
	"contact-sheet/internal/runner"
	"contact-sheet/internal/workers"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// toolCheckTimeout bounds each "-version" probe.
const toolCheckTimeout = 5 * time.Second

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// ToolInfo describes an external binary found on the system.
type ToolInfo struct {
	Name    string
	Path    string
	Version string
}

func section(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

// PrintBanner writes the banner to w and logs build and system information.
func PrintBanner(w io.Writer) {
	banner := `
------------------------------------------------------------
   ___            _             _     ___ _               _
  / __|___ _ _  | |_ __ _ __ | |_  / __| |_  ___ ___ | |_
 | (__/ _ \ ' \ |  _/ _' / _||  _| \__ \ ' \/ -_) -_)|  _|
  \___\___/_||_| \__\__,_\__| \__| |___/_||_\___\___| \__|

------------------------------------------------------------`
	_, _ = fmt.Fprintln(w, banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))

	logSystemInfo()
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		logging.Debug("  Temp dir:        %s", os.TempDir())
	}
}

// LogConfig logs the effective configuration. path is the config file, or
// empty when only defaults and environment were used.
func LogConfig(cfg config.SheetConfig, path string) {
	section("CONFIGURATION")

	if path == "" {
		path = "(defaults)"
	}
	logging.Info("  Config file:      %s", path)
	logging.Info("  Sheet width:      %d (margin %d, padding %d)", cfg.SheetWidth, cfg.Margin, cfg.Padding)
	logging.Info("  Landscape grid:   %dx%d", cfg.Horizontal.Columns, cfg.Horizontal.Rows)
	logging.Info("  Portrait grid:    %dx%d", cfg.Vertical.Columns, cfg.Vertical.Rows)
	logging.Info("  Start/end skip:   %.1f%%", cfg.StartSkip*100)
	logging.Info("  Sheet extension:  %s (quality %d)", cfg.SheetExtension, cfg.JPEGQuality)
	logging.Info("  Video workers:    %d", workers.ForVideos(cfg.Workers))
	logging.Info("  Frame workers:    %d", workers.ForFrames(cfg.FrameWorkers))
	logging.Info("  Frame timeout:    %v", cfg.FrameTimeout)
	logging.Info("  Probe timeout:    %v", cfg.ProbeTimeout)
	logging.Info("  Shuffle:          %v", cfg.Shuffle)
	logging.Info("  libvips encoder:  %s", enabledString(cfg.UseVips))
	logging.Info("  LOG_LEVEL:        %s", logging.GetLevel())

	if logging.IsDebugEnabled() {
		font := cfg.FontPath
		if font == "" {
			font = "(embedded Go fonts)"
		}
		logging.Debug("  Font:             %s (%.0f/%.0f/%.0f pt)", font, cfg.TitleFontSize, cfg.DetailFontSize, cfg.TimestampFontSize)
		logging.Debug("  Video extensions: %s", strings.Join(cfg.VideoExtensions, " "))
	}
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// CheckTools verifies that ffmpeg and ffprobe can be run.
func CheckTools(ctx context.Context, cfg config.SheetConfig) ([]ToolInfo, error) {
	section("TOOLS")

	var tools []ToolInfo
	var errs []error
	for _, t := range []struct{ name, binary string }{
		{"ffprobe", cfg.FFprobePath},
		{"ffmpeg", cfg.FFmpegPath},
	} {
		info, err := checkTool(ctx, t.name, t.binary)
		if err != nil {
			logging.Error("  [FAIL] %s: %v", t.name, err)
			errs = append(errs, err)
			continue
		}
		logging.Info("  [OK] %s: %s", t.name, info.Version)
		logging.Debug("       path: %s", info.Path)
		tools = append(tools, info)
	}
	return tools, errors.Join(errs...)
}

func checkTool(ctx context.Context, name, binary string) (ToolInfo, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return ToolInfo{}, fmt.Errorf("%s not found (%s)", name, binary)
	}

	ctx, cancel := context.WithTimeout(ctx, toolCheckTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return ToolInfo{}, fmt.Errorf("failed to get %s version: %w", name, err)
	}

	version := strings.TrimSpace(strings.SplitN(string(output), "\n", 2)[0])
	if version == "" {
		version = "unknown version"
	}
	return ToolInfo{Name: name, Path: path, Version: version}, nil
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes, err
}

// LogMetricsServer logs where metrics are served. An empty addr means the
// endpoint is disabled.
func LogMetricsServer(addr string, router *mux.Router) {
	section("METRICS")

	if addr == "" {
		logging.Info("  Metrics endpoint: DISABLED (set METRICS_ADDR to enable)")
		return
	}
	logging.Info("  Metrics endpoint: http://%s/metrics", displayAddr(addr))

	if router != nil && logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}
		for _, route := range routes {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// displayAddr turns ":9090" into "localhost:9090".
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

// LogSummary logs the outcome of a run.
func LogSummary(s *runner.Summary) {
	section("SUMMARY")
	logging.Info("  Built:            %d", s.Built)
	logging.Info("  Degraded:         %d", s.Degraded)
	logging.Info("  Already done:     %d", s.Skipped)
	logging.Info("  Built elsewhere:  %d", s.Raced)
	logging.Info("  Failed:           %d", s.Failed)
	logging.Info("  Orphans removed:  %d", s.OrphansRemoved)
	logging.Info("  Elapsed:          %v", s.Duration.Round(time.Millisecond))

	for _, f := range s.Failures {
		logging.Error("  [FAIL] %s: %v", f.Video, f.Err)
	}
}

// LogShutdownInitiated logs an interrupted run.
func LogShutdownInitiated(signal string) {
	section(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
	logging.Info("  Waiting for running builds to stop...")
}
