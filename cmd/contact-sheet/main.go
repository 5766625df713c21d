package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"contact-sheet/internal/config"
	"contact-sheet/internal/filesystem"
	"contact-sheet/internal/logging"
	"contact-sheet/internal/memory"
	"contact-sheet/internal/metrics"
	"contact-sheet/internal/probe"
	"contact-sheet/internal/runner"
	"contact-sheet/internal/scanner"
	"contact-sheet/internal/sheet"
	"contact-sheet/internal/startup"
	"contact-sheet/internal/workers"

	cli "github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Exit codes.
const (
	exitFailed      = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		startup.LogShutdownInitiated(sig.String())
		cancel()
	}()

	os.Exit(exitCode(newCommand(os.Stdout, os.Stderr).Run(ctx, os.Args)))
}

// exitCode maps the command's error to a process status and reports it.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			logging.Error("%s", msg)
		}
		return exitErr.ExitCode()
	}

	// Anything else comes from argument parsing.
	logging.Error("%v", err)
	return exitUsage
}

func newCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "contact-sheet",
		Usage:     "Render a thumbnail contact sheet for every video under the given paths",
		ArgsUsage: "PATH...",
		Version:   startup.Version,
		Writer:    stdout,
		ErrWriter: stderr,

		// Exit codes are applied by main so the command can run in tests.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "JSON or YAML configuration file",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Videos built at once (0 sizes from CPU count)",
			},
			&cli.BoolFlag{
				Name:  "shuffle",
				Usage: "Process videos in random order",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "List videos to build and sheets to remove without changing anything",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log warnings and errors",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cmd, stdout, stderr)
		},
	}
}

// settings are the command-line inputs that are not part of SheetConfig.
type settings struct {
	configPath string
	paths      []string
	dryRun     bool
	quiet      bool
}

// resolve turns flags, config file and environment into the run's inputs.
func resolve(cmd *cli.Command) (config.SheetConfig, settings, error) {
	s := settings{
		configPath: cmd.String("config"),
		paths:      cmd.Args().Slice(),
		dryRun:     cmd.Bool("dry-run"),
		quiet:      cmd.Bool("quiet"),
	}

	if cmd.Bool("verbose") && s.quiet {
		return config.SheetConfig{}, s, cli.Exit("--verbose and --quiet are mutually exclusive", exitUsage)
	}
	switch {
	case cmd.Bool("verbose"):
		logging.SetLevel(logging.LevelDebug)
	case s.quiet:
		logging.SetLevel(logging.LevelWarn)
	}

	if len(s.paths) == 0 {
		return config.SheetConfig{}, s, cli.Exit("at least one file or directory is required", exitUsage)
	}

	cfg, err := config.Load(s.configPath)
	if err != nil {
		return config.SheetConfig{}, s, cli.Exit(err.Error(), exitUsage)
	}

	if cmd.IsSet("workers") {
		n := cmd.Int("workers")
		if n < 0 {
			return config.SheetConfig{}, s, cli.Exit("--workers must not be negative", exitUsage)
		}
		cfg.Workers = n
	}
	if cmd.Bool("shuffle") {
		cfg.Shuffle = true
	}
	return cfg, s, nil
}

func run(ctx context.Context, cmd *cli.Command, stdout, stderr io.Writer) error {
	cfg, s, err := resolve(cmd)
	if err != nil {
		return err
	}

	memory.ConfigureLimit()

	if !s.quiet {
		startup.PrintBanner(stderr)
	}
	startup.LogConfig(cfg, s.configPath)

	scan := scanner.New(cfg)
	plan, err := scan.Scan(ctx, s.paths)
	if err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}

	if cfg.Shuffle {
		scanner.Shuffle(plan.Videos, nil)
	}

	if s.dryRun {
		printPlan(stdout, plan)
		return nil
	}

	if _, err := startup.CheckTools(ctx, cfg); err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}

	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	srv := metrics.Serve(cfg.MetricsAddr)
	defer srv.Shutdown(context.Background())
	startup.LogMetricsServer(cfg.MetricsAddr, srv.Router())

	if cfg.UseVips {
		if err := sheet.StartVips(); err != nil {
			logging.Warn("libvips unavailable, encoding sheets with imaging: %v", err)
		}
		defer sheet.StopVips()
	}

	removed, err := scan.RemoveOrphans(ctx, plan.Orphans)
	if err != nil {
		logging.Warn("Some orphaned sheets could not be removed: %v", err)
	}

	builder, err := sheet.NewBuilder(cfg,
		probe.New(cfg.FFprobePath, cfg.ProbeTimeout.Std()),
		sheet.NewFFmpegExtractor(cfg.FFmpegPath, cfg.FrameTimeout.Std(), workers.ForFrames(cfg.FrameWorkers)),
	)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	monitor := memory.NewMonitor(memory.DefaultMonitorConfig())
	go monitor.Run(ctx)

	opts := []runner.Option{runner.WithWorkers(cfg.Workers), runner.WithGate(monitor)}
	if showProgress(stderr, s.quiet) {
		opts = append(opts, runner.WithProgress(stderr))
	}

	summary, runErr := runner.New(builder, cfg, opts...).Run(ctx, plan.Videos)
	summary.Skipped += len(plan.Skipped)
	summary.OrphansRemoved = removed
	startup.LogSummary(summary)

	switch {
	case runErr != nil:
		return cli.Exit("interrupted", exitInterrupted)
	case summary.Failed > 0:
		return cli.Exit(fmt.Sprintf("%d of %d videos failed", summary.Failed, summary.Total()), exitFailed)
	}
	return nil
}

// showProgress draws a bar only for an interactive terminal.
func showProgress(w io.Writer, quiet bool) bool {
	if quiet {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printPlan(w io.Writer, plan *scanner.Plan) {
	for _, v := range plan.Videos {
		_, _ = fmt.Fprintf(w, "build   %s\n", v)
	}
	for _, v := range plan.Skipped {
		_, _ = fmt.Fprintf(w, "skip    %s\n", v)
	}
	for _, o := range plan.Orphans {
		_, _ = fmt.Fprintf(w, "remove  %s\n", o)
	}
	_, _ = fmt.Fprintf(w, "%d to build, %d already done, %d orphaned sheets\n",
		len(plan.Videos), len(plan.Skipped), len(plan.Orphans))
}
