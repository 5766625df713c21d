package sheet

import (
	"fmt"
	"image"
	"math"

	"contact-sheet/internal/config"
)

// Dimensions assumed when the probe reports none.
const (
	fallbackWidth  = 1920
	fallbackHeight = 1080
)

// portraitRatio is how much taller than wide a video must be to use the
// vertical preset. The band around 1.0 keeps near-square videos horizontal.
const portraitRatio = 1.1

// Preset names.
const (
	PresetHorizontal = "horizontal"
	PresetVertical   = "vertical"
)

// Geometry is the derived layout of one sheet.
type Geometry struct {
	Preset       string
	Columns      int
	Rows         int
	ThumbWidth   int
	ThumbHeight  int
	HeaderHeight int
	SheetWidth   int
	SheetHeight  int
	Margin       int
	Padding      int

	TitleFontSize     float64
	DetailFontSize    float64
	TimestampFontSize float64
}

// Total returns the number of cells.
func (g Geometry) Total() int {
	return g.Columns * g.Rows
}

// Cell returns the rectangle of cell i, filled row by row.
func (g Geometry) Cell(i int) image.Rectangle {
	row, col := i/g.Columns, i%g.Columns
	x := g.Margin + col*(g.ThumbWidth+g.Padding)
	y := g.Margin + g.HeaderHeight + row*(g.ThumbHeight+g.Padding)
	return image.Rect(x, y, x+g.ThumbWidth, y+g.ThumbHeight)
}

// SelectPreset picks the vertical grid for portrait video and the horizontal
// grid otherwise.
func SelectPreset(width, height int, cfg config.SheetConfig) (string, config.GridPreset) {
	if float64(height) > portraitRatio*float64(width) {
		return PresetVertical, cfg.Vertical
	}
	return PresetHorizontal, cfg.Horizontal
}

// lineHeight is the vertical space reserved for one header line.
func lineHeight(fontSize float64) int {
	return int(math.Ceil(fontSize * 1.25))
}

// headerHeight is the space between the top margin and the first row.
func headerHeight(cfg config.SheetConfig) int {
	return lineHeight(cfg.TitleFontSize) + lineHeight(cfg.DetailFontSize) + cfg.Padding
}

// ComputeLayout derives the sheet geometry for a video of the given size.
// Unknown (non-positive) dimensions are treated as 1920x1080.
func ComputeLayout(width, height int, cfg config.SheetConfig) (Geometry, error) {
	if width <= 0 || height <= 0 {
		width, height = fallbackWidth, fallbackHeight
	}

	name, preset := SelectPreset(width, height, cfg)
	if preset.Columns < 1 || preset.Rows < 1 {
		return Geometry{}, fmt.Errorf("%w: %s grid is %dx%d", ErrDegenerateLayout, name, preset.Columns, preset.Rows)
	}

	available := cfg.SheetWidth - 2*cfg.Margin - (preset.Columns-1)*cfg.Padding
	thumbWidth := available / preset.Columns
	if thumbWidth < 1 {
		return Geometry{}, fmt.Errorf("%w: %d columns do not fit in a %dpx sheet (margin %d, padding %d)",
			ErrDegenerateLayout, preset.Columns, cfg.SheetWidth, cfg.Margin, cfg.Padding)
	}

	thumbHeight := int(math.Round(float64(thumbWidth) * float64(height) / float64(width)))
	if thumbHeight < 1 {
		return Geometry{}, fmt.Errorf("%w: %dx%d video yields a zero-height thumbnail", ErrDegenerateLayout, width, height)
	}

	header := headerHeight(cfg)
	sheetHeight := 2*cfg.Margin + header + preset.Rows*thumbHeight + (preset.Rows-1)*cfg.Padding

	return Geometry{
		Preset:            name,
		Columns:           preset.Columns,
		Rows:              preset.Rows,
		ThumbWidth:        thumbWidth,
		ThumbHeight:       thumbHeight,
		HeaderHeight:      header,
		SheetWidth:        cfg.SheetWidth,
		SheetHeight:       sheetHeight,
		Margin:            cfg.Margin,
		Padding:           cfg.Padding,
		TitleFontSize:     cfg.TitleFontSize,
		DetailFontSize:    cfg.DetailFontSize,
		TimestampFontSize: cfg.TimestampFontSize,
	}, nil
}
