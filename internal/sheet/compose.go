package sheet

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"strings"

	"contact-sheet/internal/config"
	"contact-sheet/internal/logging"
	"contact-sheet/internal/probe"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Badge padding around the timestamp text, in pixels.
const (
	badgePadX = 6
	badgePadY = 3
)

type palette struct {
	background          color.NRGBA
	title               color.NRGBA
	detail              color.NRGBA
	timestamp           color.NRGBA
	timestampBackground color.NRGBA
}

// Compositor renders sheets. It is safe for concurrent use.
type Compositor struct {
	palette  palette
	typeface *Typeface
}

// NewCompositor parses colors and the font from cfg.
func NewCompositor(cfg config.SheetConfig) (*Compositor, error) {
	var p palette
	for _, c := range []struct {
		dst   *color.NRGBA
		value string
		name  string
	}{
		{&p.background, cfg.BackgroundColor, "background"},
		{&p.title, cfg.TitleColor, "title"},
		{&p.detail, cfg.DetailColor, "detail"},
		{&p.timestamp, cfg.TimestampColor, "timestamp"},
		{&p.timestampBackground, cfg.TimestampBackground, "timestamp background"},
	} {
		parsed, err := config.ParseHexColor(c.value)
		if err != nil {
			return nil, fmt.Errorf("%s color: %w", c.name, err)
		}
		*c.dst = parsed
	}

	typeface, err := ParseTypeface(cfg.FontPath)
	if err != nil {
		return nil, err
	}

	return &Compositor{palette: p, typeface: typeface}, nil
}

// Compose draws the header and every extracted frame in layout order. Cells
// whose frame is absent or unreadable stay background-colored and are
// returned as missing. An error means no faces could be cut at the
// geometry's font sizes.
func (c *Compositor) Compose(geo Geometry, meta *probe.Metadata, samples []Sample, frames map[int]string) (*image.NRGBA, []int, error) {
	// Faces hold glyph caches that are not safe for concurrent use, so each
	// sheet gets its own.
	fonts, err := c.typeface.Faces(geo.TitleFontSize, geo.DetailFontSize, geo.TimestampFontSize)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := fonts.Close(); err != nil {
			logging.Debug("Failed to close font faces: %v", err)
		}
	}()

	canvas := imaging.New(geo.SheetWidth, geo.SheetHeight, c.palette.background)
	c.drawHeader(canvas, fonts, geo, meta)

	var missing []int
	for _, s := range samples {
		path, ok := frames[s.Index]
		if !ok {
			missing = append(missing, s.Index)
			continue
		}

		cell := geo.Cell(s.Index)
		frame, err := loadFrame(path, geo.ThumbWidth, geo.ThumbHeight)
		if err != nil {
			logging.Warn("Skipping frame %d of %s: %v", s.Index, filepath.Base(meta.Path), err)
			missing = append(missing, s.Index)
			continue
		}

		draw.Draw(canvas, cell, frame, frame.Bounds().Min, draw.Src)
		c.drawBadge(canvas, fonts.Timestamp, cell, FormatTimestamp(s.Timestamp, meta.Duration))
	}

	return canvas, missing, nil
}

// DetailLine is the second header line: size, resolution, duration, codec.
func DetailLine(meta *probe.Metadata) string {
	parts := []string{FormatSize(meta.Size)}
	if meta.Width > 0 && meta.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", meta.Width, meta.Height))
	}
	parts = append(parts, FormatClock(meta.Duration))
	if meta.Codec != "" {
		parts = append(parts, strings.ToUpper(meta.Codec))
	}
	return strings.Join(parts, "  |  ")
}

func (c *Compositor) drawHeader(canvas *image.NRGBA, fonts *Fonts, geo Geometry, meta *probe.Metadata) {
	maxWidth := geo.SheetWidth - 2*geo.Margin
	x, y := geo.Margin, geo.Margin

	title := fitText(fonts.Title, filepath.Base(meta.Path), maxWidth)
	drawText(canvas, fonts.Title, c.palette.title, x, y, title)

	y += lineHeight(geo.TitleFontSize)
	detail := fitText(fonts.Detail, DetailLine(meta), maxWidth)
	drawText(canvas, fonts.Detail, c.palette.detail, x, y, detail)
}

// drawBadge anchors a translucent box holding label to the cell's
// bottom-right corner.
func (c *Compositor) drawBadge(canvas *image.NRGBA, face font.Face, cell image.Rectangle, label string) {
	m := face.Metrics()
	textWidth := font.MeasureString(face, label).Ceil()
	textHeight := (m.Ascent + m.Descent).Ceil()

	box := image.Rect(
		cell.Max.X-textWidth-2*badgePadX,
		cell.Max.Y-textHeight-2*badgePadY,
		cell.Max.X,
		cell.Max.Y,
	).Intersect(cell)

	draw.Draw(canvas, box, image.NewUniform(c.palette.timestampBackground), image.Point{}, draw.Over)
	drawText(canvas, face, c.palette.timestamp, box.Min.X+badgePadX, box.Min.Y+badgePadY, label)
}

// drawText draws s with its top edge at y.
func drawText(dst draw.Image, face font.Face, c color.Color, x, y int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + face.Metrics().Ascent},
	}
	d.DrawString(s)
}

// fitText shortens s with an ellipsis until it fits in maxWidth pixels.
func fitText(face font.Face, s string, maxWidth int) string {
	if font.MeasureString(face, s).Ceil() <= maxWidth {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			return candidate
		}
	}
	return ""
}
