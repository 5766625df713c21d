package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"contact-sheet/internal/config"
	"contact-sheet/internal/filesystem"
	"contact-sheet/internal/logging"
	"contact-sheet/internal/metrics"
)

// Plan is the outcome of a scan.
type Plan struct {
	// Videos need a sheet.
	Videos []string
	// Skipped already have a sheet.
	Skipped []string
	// Orphans are sheets with no matching video.
	Orphans []string
}

// Scanner classifies files under a set of roots.
type Scanner struct {
	cfg        config.SheetConfig
	skipHidden bool
}

// New creates a Scanner. Hidden files and directories are skipped.
func New(cfg config.SheetConfig) *Scanner {
	return &Scanner{cfg: cfg, skipHidden: true}
}

// Scan walks each root. A root may be a single video file or a directory,
// which is walked recursively. Orphans are only detected inside directory
// roots. Unreadable entries are logged and skipped.
func (s *Scanner) Scan(ctx context.Context, roots []string) (*Plan, error) {
	start := time.Now()
	plan := &Plan{}
	seen := make(map[string]bool)

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return plan, err
		}

		info, err := filesystem.StatWithRetry(root, filesystem.DefaultRetryConfig())
		if err != nil {
			return plan, fmt.Errorf("cannot access %s: %w", root, err)
		}

		if !info.IsDir() {
			if !s.cfg.IsVideo(root) {
				logging.Warn("Ignoring %s: not a recognized video file", root)
				continue
			}
			if err := s.classify(plan, seen, filepath.Clean(root)); err != nil {
				return plan, err
			}
			continue
		}

		if err := s.walk(ctx, plan, seen, root); err != nil {
			return plan, err
		}
	}

	logging.Info("Scan complete: %d to build, %d already done, %d orphaned sheets in %v",
		len(plan.Videos), len(plan.Skipped), len(plan.Orphans), time.Since(start).Round(time.Millisecond))
	return plan, nil
}

func (s *Scanner) walk(ctx context.Context, plan *Plan, seen map[string]bool, root string) error {
	var videos, sheets []string
	bases := make(map[string]bool)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip hidden files and directories, but never the root itself
		if s.skipHidden && path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		switch {
		case s.cfg.IsSheet(path):
			sheets = append(sheets, path)
		case s.cfg.IsVideo(path):
			videos = append(videos, path)
			bases[strings.TrimSuffix(path, filepath.Ext(path))] = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, v := range videos {
		if err := s.classify(plan, seen, v); err != nil {
			return err
		}
	}

	for _, sheet := range sheets {
		if !bases[s.cfg.VideoBase(sheet)] {
			plan.Orphans = append(plan.Orphans, sheet)
		}
	}
	return nil
}

// classify files a video under Videos or Skipped depending on whether its
// sheet exists.
func (s *Scanner) classify(plan *Plan, seen map[string]bool, video string) error {
	if seen[video] {
		return nil
	}
	seen[video] = true

	done, err := filesystem.Exists(s.cfg.SheetPath(video))
	if err != nil {
		return fmt.Errorf("cannot check sheet for %s: %w", video, err)
	}
	if done {
		plan.Skipped = append(plan.Skipped, video)
	} else {
		plan.Videos = append(plan.Videos, video)
	}
	return nil
}

// RemoveOrphans deletes the given sheets and returns how many were removed.
// A sheet whose video has reappeared since the scan is kept.
func (s *Scanner) RemoveOrphans(ctx context.Context, orphans []string) (int, error) {
	var errs []error
	removed := 0

	for _, sheet := range orphans {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if back, err := s.hasVideo(sheet); err != nil || back {
			if err != nil {
				errs = append(errs, err)
			}
			continue
		}

		if err := filesystem.RemoveWithRetry(sheet, filesystem.DefaultRetryConfig()); err != nil {
			logging.Warn("Failed to remove orphaned sheet %s: %v", sheet, err)
			errs = append(errs, err)
			continue
		}

		logging.Info("Removed orphaned sheet %s", sheet)
		metrics.OrphanSheetsRemoved.Inc()
		removed++
	}

	return removed, errors.Join(errs...)
}

// hasVideo reports whether any recognized video exists for sheet.
func (s *Scanner) hasVideo(sheet string) (bool, error) {
	base := s.cfg.VideoBase(sheet)
	for _, ext := range s.cfg.VideoExtensions {
		ok, err := filesystem.Exists(base + ext)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Shuffle randomizes the order of videos in place.
func Shuffle(videos []string, r *rand.Rand) {
	if r == nil {
		rand.Shuffle(len(videos), func(i, j int) {
			videos[i], videos[j] = videos[j], videos[i]
		})
		return
	}
	r.Shuffle(len(videos), func(i, j int) {
		videos[i], videos[j] = videos[j], videos[i]
	})
}
