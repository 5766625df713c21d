package sheet

import (
	"errors"
	"fmt"
)

// Kind classifies why a build failed.
type Kind int

const (
	// KindProbe means the video could not be read or recognized.
	KindProbe Kind = iota + 1
	// KindConfig means the configuration yields no usable layout or fonts for
	// the video.
	KindConfig
	// KindExtraction means the decoder failed for the whole build.
	KindExtraction
	// KindIO means the sheet or its working files could not be written.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindProbe:
		return "probe"
	case KindConfig:
		return "config"
	case KindExtraction:
		return "extraction"
	case KindIO:
		return "io"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// BuildError is returned for every failed build.
type BuildError struct {
	Kind  Kind
	Video string
	Err   error
}

func (e *BuildError) Error() string {
	if e.Video == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error for %s: %v", e.Kind, e.Video, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// KindOf returns the Kind of a BuildError anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return 0, false
}

// ErrDegenerateLayout is returned when the grid leaves no room for thumbnails.
var ErrDegenerateLayout = errors.New("degenerate sheet layout")

// ErrDecoderUnavailable is returned when the decoder process cannot be started.
var ErrDecoderUnavailable = errors.New("decoder unavailable")
