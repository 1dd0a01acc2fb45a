package capture

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Screen grabs the primary display.
type Screen struct {
	display int
}

// OpenScreen validates that at least one display is attached.
func OpenScreen() (*Screen, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, errors.New("no active display")
	}
	return &Screen{display: 0}, nil
}

func (s *Screen) NextFrame() (image.Image, error) {
	img, err := screenshot.CaptureDisplay(s.display)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", s.display, err)
	}
	return img, nil
}

func (s *Screen) Close() error { return nil }
