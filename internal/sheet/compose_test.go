package sheet

import (
	"image"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"contact-sheet/internal/config"
	"contact-sheet/internal/probe"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

func testMetadata(path string) *probe.Metadata {
	return &probe.Metadata{
		Path:     path,
		Duration: 90 * time.Second,
		Width:    1920,
		Height:   1080,
		Codec:    "h264",
		Size:     50 << 20,
	}
}

func TestComposeDrawsPresentFrames(t *testing.T) {
	cfg := smallConfig()
	comp, err := NewCompositor(cfg)
	if err != nil {
		t.Fatalf("NewCompositor() error = %v", err)
	}

	geo, err := ComputeLayout(1920, 1080, cfg)
	if err != nil {
		t.Fatal(err)
	}
	samples := SampleTimestamps(90*time.Second, geo.Total(), cfg.StartSkip)

	dir := t.TempDir()
	frames := map[int]string{}
	for _, i := range []int{0, 1, 2} {
		p := filepath.Join(dir, filepath.Base(FramePath(dir, i))+".png")
		writeFrame(t, p, geo.ThumbWidth, geo.ThumbHeight, frameColor)
		frames[i] = p
	}

	img, missing, err := comp.Compose(geo, testMetadata("/videos/clip.mp4"), samples, frames)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if img == nil {
		t.Fatal("Compose() returned nil image")
	}

	if b := img.Bounds(); b.Dx() != geo.SheetWidth || b.Dy() != geo.SheetHeight {
		t.Errorf("sheet is %dx%d, want %dx%d", b.Dx(), b.Dy(), geo.SheetWidth, geo.SheetHeight)
	}
	if !slices.Equal(missing, []int{3}) {
		t.Errorf("missing = %v, want [3]", missing)
	}

	if got := nrgbaAt(img, center(geo.Cell(0))); got != frameColor {
		t.Errorf("cell 0 center = %v, want frame color %v", got, frameColor)
	}

	background, _ := config.ParseHexColor(cfg.BackgroundColor)
	if got := nrgbaAt(img, center(geo.Cell(3))); got != background {
		t.Errorf("blank cell center = %v, want background %v", got, background)
	}

	// The badge darkens the bottom-right corner of a drawn cell.
	corner := geo.Cell(0).Max.Sub(image.Pt(2, 2))
	if got := nrgbaAt(img, corner); got == frameColor {
		t.Error("timestamp badge not drawn in the bottom-right corner")
	}
}

func TestComposeUnreadableFrameIsMissing(t *testing.T) {
	cfg := smallConfig()
	comp, err := NewCompositor(cfg)
	if err != nil {
		t.Fatal(err)
	}
	geo, _ := ComputeLayout(1920, 1080, cfg)
	samples := SampleTimestamps(90*time.Second, geo.Total(), cfg.StartSkip)

	frames := map[int]string{0: filepath.Join(t.TempDir(), "gone.png")}

	_, missing, err := comp.Compose(geo, testMetadata("/videos/clip.mp4"), samples, frames)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(missing) != geo.Total() {
		t.Errorf("missing = %v, want all %d cells", missing, geo.Total())
	}
}

func TestComposeZeroFramesStillReturnsSheet(t *testing.T) {
	cfg := smallConfig()
	comp, err := NewCompositor(cfg)
	if err != nil {
		t.Fatal(err)
	}
	geo, _ := ComputeLayout(1920, 1080, cfg)
	samples := SampleTimestamps(90*time.Second, geo.Total(), cfg.StartSkip)

	img, missing, err := comp.Compose(geo, testMetadata("/videos/clip.mp4"), samples, nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if img == nil {
		t.Fatal("Compose() with no frames returned nil image")
	}
	if len(missing) != len(samples) {
		t.Errorf("missing %d cells, want %d", len(missing), len(samples))
	}
}

func TestNewCompositorErrors(t *testing.T) {
	cfg := smallConfig()
	cfg.TitleColor = "not-a-color"
	if _, err := NewCompositor(cfg); err == nil || !strings.Contains(err.Error(), "title") {
		t.Errorf("NewCompositor() with bad title color error = %v", err)
	}

	cfg = smallConfig()
	cfg.FontPath = filepath.Join(t.TempDir(), "missing.ttf")
	if _, err := NewCompositor(cfg); err == nil {
		t.Error("NewCompositor() with missing font should fail")
	}
}

func TestComposeSharesParsedTypeface(t *testing.T) {
	cfg := smallConfig()
	comp, err := NewCompositor(cfg)
	if err != nil {
		t.Fatal(err)
	}
	parsed := comp.typeface

	geo, _ := ComputeLayout(1920, 1080, cfg)
	samples := SampleTimestamps(90*time.Second, geo.Total(), cfg.StartSkip)
	for i := 0; i < 3; i++ {
		if _, _, err := comp.Compose(geo, testMetadata("/videos/clip.mp4"), samples, nil); err != nil {
			t.Fatalf("Compose() #%d error = %v", i, err)
		}
	}
	if comp.typeface != parsed {
		t.Error("Compose() should reuse the typeface parsed by NewCompositor")
	}

	geo.TimestampFontSize = 0
	if _, _, err := comp.Compose(geo, testMetadata("/videos/clip.mp4"), samples, nil); err == nil {
		t.Error("Compose() with a zero font size should fail")
	}
}

func TestFitText(t *testing.T) {
	face := basicfont.Face7x13

	if got := fitText(face, "short.mp4", 200); got != "short.mp4" {
		t.Errorf("fitText() = %q, want unchanged", got)
	}

	long := strings.Repeat("x", 50) + ".mp4"
	got := fitText(face, long, 100)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("fitText() = %q, want ellipsis", got)
	}
	if w := font.MeasureString(face, got).Ceil(); w > 100 {
		t.Errorf("fitText() width = %d, want <= 100", w)
	}
}
