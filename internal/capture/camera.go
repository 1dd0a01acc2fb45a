package capture

import (
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Camera reads frames from a webcam via OpenCV.
type Camera struct {
	cap *gocv.VideoCapture
	mat gocv.Mat
}

// OpenCamera opens the given capture device (0 is the default webcam).
func OpenCamera(device int) (*Camera, error) {
	cap, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", device, err)
	}
	if !cap.IsOpened() {
		_ = cap.Close()
		return nil, fmt.Errorf("camera %d not available", device)
	}
	log.Infof("camera %d opened", device)
	return &Camera{cap: cap, mat: gocv.NewMat()}, nil
}

// NextFrame grabs one frame. Returns ErrDisconnected when the device stops
// producing, which ends the frame producer without killing the session.
func (c *Camera) NextFrame() (image.Image, error) {
	if ok := c.cap.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, ErrDisconnected
	}
	// ToImage handles the BGR to RGB conversion OpenCV captures require.
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}

// Close releases the device.
func (c *Camera) Close() error {
	_ = c.mat.Close()
	err := c.cap.Close()
	log.Info("camera released")
	return err
}
