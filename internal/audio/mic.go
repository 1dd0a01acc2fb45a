package audio

import (
	"fmt"

	"github.com/gen2brain/malgo"
	log "github.com/sirupsen/logrus"
)

// Mic captures microphone audio from the default input device.
type Mic struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	buf    *pcmBuffer
}

// OpenMic initializes the default capture device at the send sample rate.
func OpenMic() (*Mic, error) {
	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime

	mctx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	m := &Mic{ctx: mctx, buf: newPCMBuffer(SendSampleRate * 2)}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = Channels
	deviceConfig.SampleRate = SendSampleRate
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			m.buf.Write(input)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return nil, fmt.Errorf("init microphone: %w", err)
	}
	m.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		return nil, fmt.Errorf("start microphone: %w", err)
	}

	log.Infof("microphone capturing at %dHz", SendSampleRate)
	return m, nil
}

// ReadChunk blocks until a full chunk of capture data is available. Returns
// io.EOF after Close.
func (m *Mic) ReadChunk() ([]byte, error) {
	p := make([]byte, ChunkBytes)
	if _, err := m.buf.ReadFull(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Close stops the device and wakes any blocked reader.
func (m *Mic) Close() error {
	m.buf.Close()
	if m.device != nil {
		_ = m.device.Stop()
		m.device.Uninit()
		m.device = nil
	}
	if m.ctx != nil {
		_ = m.ctx.Uninit()
		m.ctx.Free()
		m.ctx = nil
	}
	return nil
}
