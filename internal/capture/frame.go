// Package capture produces camera and screen frames for the live session.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// ErrDisconnected is returned by a FrameSource whose device stopped
// delivering frames.
var ErrDisconnected = errors.New("capture source disconnected")

// FrameSource yields frames from a camera or the screen.
type FrameSource interface {
	NextFrame() (image.Image, error)
	Close() error
}

// MaxFrameDim bounds the longest edge of frames sent to the model, matching
// the thumbnail size the live API expects for realtime input.
const MaxFrameDim = 1024

// EncodeJPEG downscales img so its longest edge is at most maxDim, keeping
// aspect ratio, and returns JPEG bytes. Images already within bounds are
// encoded as-is.
func EncodeJPEG(img image.Image, maxDim int) ([]byte, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image %dx%d", w, h)
	}

	if maxDim > 0 && (w > maxDim || h > maxDim) {
		scale := float64(maxDim) / float64(w)
		if h > w {
			scale = float64(maxDim) / float64(h)
		}
		dw, dh := int(float64(w)*scale), int(float64(h)*scale)
		if dw < 1 {
			dw = 1
		}
		if dh < 1 {
			dh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
