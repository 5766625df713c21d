package sheet

import (
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"contact-sheet/internal/config"

	"github.com/disintegration/imaging"
)

var frameColor = color.NRGBA{R: 200, G: 30, B: 30, A: 255}

// writeFrame writes a solid PNG; PNG keeps pixel values exact for assertions.
func writeFrame(t *testing.T, path string, width, height int, c color.Color) {
	t.Helper()
	img := imaging.New(width, height, c)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write frame fixture: %v", err)
	}
}

// smallConfig keeps sheets small enough to inspect pixel by pixel.
func smallConfig() config.SheetConfig {
	cfg := config.Default()
	cfg.SheetWidth = 440
	cfg.Margin = 10
	cfg.Padding = 4
	cfg.TitleFontSize = 14
	cfg.DetailFontSize = 10
	cfg.TimestampFontSize = 8
	cfg.Horizontal = config.GridPreset{Columns: 2, Rows: 2}
	cfg.Vertical = config.GridPreset{Columns: 2, Rows: 1}
	return cfg
}

func nrgbaAt(img *image.NRGBA, p image.Point) color.NRGBA {
	return img.NRGBAAt(p.X, p.Y)
}

func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

// stubFFmpeg installs an executable sh script with the given body.
func stubFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stand-in requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeFFmpeg installs a shell stand-in that copies fixture to its last
// argument. Seeks listed in failSeeks exit non-zero without output.
func fakeFFmpeg(t *testing.T, fixture string, failSeeks ...string) string {
	t.Helper()
	script := ""
	for _, seek := range failSeeks {
		script += "case \" $* \" in *\" -ss " + seek + " \"*) echo 'seek failed' >&2; exit 1;; esac\n"
	}
	script += "for arg; do out=\"$arg\"; done\n"
	script += "cp '" + fixture + "' \"$out\"\n"
	return stubFFmpeg(t, script)
}
