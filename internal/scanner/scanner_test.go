package scanner

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"contact-sheet/internal/config"
)

// touch creates path and any missing parents.
func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanDirectory(t *testing.T) {
	cfg := config.Default()
	root := t.TempDir()

	fresh := touch(t, filepath.Join(root, "a.mp4"))
	done := touch(t, filepath.Join(root, "sub", "b.mkv"))
	touch(t, filepath.Join(root, "sub", "b"+cfg.SheetExtension))
	nested := touch(t, filepath.Join(root, "sub", "deeper", "c.MOV"))
	orphan := touch(t, filepath.Join(root, "gone"+cfg.SheetExtension))
	touch(t, filepath.Join(root, "photo.jpg"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".hidden", "d.mp4"))
	touch(t, filepath.Join(root, ".e.mp4"))

	plan, err := New(cfg).Scan(context.Background(), []string{root})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if want := []string{fresh, nested}; !slices.Equal(plan.Videos, want) {
		t.Errorf("Videos = %v, want %v", plan.Videos, want)
	}
	if want := []string{done}; !slices.Equal(plan.Skipped, want) {
		t.Errorf("Skipped = %v, want %v", plan.Skipped, want)
	}
	if want := []string{orphan}; !slices.Equal(plan.Orphans, want) {
		t.Errorf("Orphans = %v, want %v", plan.Orphans, want)
	}
}

func TestScanSingleFile(t *testing.T) {
	cfg := config.Default()
	root := t.TempDir()
	video := touch(t, filepath.Join(root, "clip.webm"))
	other := touch(t, filepath.Join(root, "readme.md"))

	plan, err := New(cfg).Scan(context.Background(), []string{video, other, video})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !slices.Equal(plan.Videos, []string{video}) {
		t.Errorf("Videos = %v, want [%s] once", plan.Videos, video)
	}
}

func TestScanOverlappingRoots(t *testing.T) {
	cfg := config.Default()
	root := t.TempDir()
	video := touch(t, filepath.Join(root, "x.mp4"))

	plan, err := New(cfg).Scan(context.Background(), []string{root, video})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Videos) != 1 {
		t.Errorf("Videos = %v, want one entry", plan.Videos)
	}
}

func TestScanMissingRoot(t *testing.T) {
	_, err := New(config.Default()).Scan(context.Background(), []string{filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Error("Scan() of missing path should fail")
	}
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(config.Default()).Scan(ctx, []string{t.TempDir()})
	if err == nil {
		t.Error("Scan() with cancelled context should fail")
	}
}

func TestRemoveOrphansRemovesExactlyTheOrphan(t *testing.T) {
	cfg := config.Default()
	root := t.TempDir()

	touch(t, filepath.Join(root, "keep.mp4"))
	kept := touch(t, filepath.Join(root, "keep"+cfg.SheetExtension))
	orphan := touch(t, filepath.Join(root, "lost"+cfg.SheetExtension))
	photo := touch(t, filepath.Join(root, "lost.jpg"))

	s := New(cfg)
	plan, err := s.Scan(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}

	removed, err := s.RemoveOrphans(context.Background(), plan.Orphans)
	if err != nil {
		t.Fatalf("RemoveOrphans() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Error("orphaned sheet still exists")
	}
	for _, p := range []string{kept, photo} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should not be removed: %v", filepath.Base(p), err)
		}
	}
}

func TestRemoveOrphansKeepsSheetWhoseVideoReturned(t *testing.T) {
	cfg := config.Default()
	root := t.TempDir()
	sheet := touch(t, filepath.Join(root, "back"+cfg.SheetExtension))

	s := New(cfg)
	plan, err := s.Scan(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}

	touch(t, filepath.Join(root, "back.mp4"))

	removed, err := s.RemoveOrphans(context.Background(), plan.Orphans)
	if err != nil || removed != 0 {
		t.Errorf("RemoveOrphans() = %d, %v; want 0, nil", removed, err)
	}
	if _, err := os.Stat(sheet); err != nil {
		t.Errorf("sheet should be kept: %v", err)
	}
}

func TestShuffle(t *testing.T) {
	videos := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	shuffled := slices.Clone(videos)

	Shuffle(shuffled, rand.New(rand.NewPCG(1, 2)))

	sorted := slices.Clone(shuffled)
	slices.Sort(sorted)
	if !slices.Equal(sorted, videos) {
		t.Errorf("Shuffle() lost or duplicated entries: %v", shuffled)
	}

	again := slices.Clone(videos)
	Shuffle(again, rand.New(rand.NewPCG(1, 2)))
	if !slices.Equal(again, shuffled) {
		t.Error("Shuffle() with the same seed should be deterministic")
	}
}
