package sheet

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Typeface is a parsed font family. It is read-only after parsing and may be
// shared between builds; faces cut from it may not.
type Typeface struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// ParseTypeface reads the TTF/OTF file at path, or the embedded Go fonts
// (bold title, regular body) when path is empty.
func ParseTypeface(path string) (*Typeface, error) {
	regularData, boldData := goregular.TTF, gobold.TTF
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		regularData, boldData = data, data
	}

	regular, err := opentype.Parse(regularData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	bold := regular
	if path == "" {
		if bold, err = opentype.Parse(boldData); err != nil {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
	}
	return &Typeface{regular: regular, bold: bold}, nil
}

// Fonts holds the faces used on a sheet.
type Fonts struct {
	Title     font.Face
	Detail    font.Face
	Timestamp font.Face
}

// Faces cuts a fresh set of faces at the given sizes.
func (t *Typeface) Faces(titleSize, detailSize, timestampSize float64) (*Fonts, error) {
	f := &Fonts{}
	var err error
	if f.Title, err = newFace(t.bold, titleSize); err != nil {
		return nil, err
	}
	if f.Detail, err = newFace(t.regular, detailSize); err != nil {
		_ = f.Close()
		return nil, err
	}
	if f.Timestamp, err = newFace(t.regular, timestampSize); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("font size must be positive, got %v", size)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// Close releases the faces.
func (f *Fonts) Close() error {
	var errs []error
	for _, face := range []font.Face{f.Title, f.Detail, f.Timestamp} {
		if face != nil {
			errs = append(errs, face.Close())
		}
	}
	return errors.Join(errs...)
}
