package camera

import (
	"fmt"
	"sync"
	"time"

	"github.com/blackjack/webcam"
	"github.com/edaniels/golog"
)

// V4L2 fourcc codes. RGB24 is requested first; if the device cannot provide
// it, the negotiated format's raw buffer is passed through untouched.
const (
	pixFmtRGB24 webcam.PixelFormat = 0x33424752 // 'RGB3'
	pixFmtYUYV  webcam.PixelFormat = 0x56595559 // 'YUYV'
)

const frameWaitTimeout = 1 // seconds, for the capture goroutine's poll

// Webcam captures frames from a V4L2 device. A background goroutine owns the
// device after Connect and keeps the most recent frame available, so Read is
// a snapshot, not a capture.
type Webcam struct {
	cfg    Config
	logger golog.Logger

	cam  *webcam.Webcam
	stop chan struct{}
	done chan struct{}

	mu     sync.RWMutex
	latest Frame

	first     chan struct{}
	firstOnce sync.Once
}

// NewWebcam creates a webcam for the given device path and resolution. The
// device is not opened until Connect.
func NewWebcam(cfg Config, logger golog.Logger) *Webcam {
	return &Webcam{cfg: cfg, logger: logger}
}

func (w *Webcam) Name() string { return w.cfg.Name }
func (w *Webcam) Width() int   { return w.cfg.Width }
func (w *Webcam) Height() int  { return w.cfg.Height }

// Connect opens the device, negotiates the capture format and starts the
// background reader. Open failure is fatal to the call.
func (w *Webcam) Connect() error {
	if w.cam != nil {
		return nil
	}

	cam, err := webcam.Open(w.cfg.Path)
	if err != nil {
		return fmt.Errorf("open camera %s (%s): %w", w.cfg.Name, w.cfg.Path, err)
	}

	format, width, height, err := cam.SetImageFormat(pixFmtRGB24, uint32(w.cfg.Width), uint32(w.cfg.Height))
	if err != nil {
		format, width, height, err = cam.SetImageFormat(pixFmtYUYV, uint32(w.cfg.Width), uint32(w.cfg.Height))
	}
	if err != nil {
		cam.Close()
		return fmt.Errorf("set format on camera %s: %w", w.cfg.Name, err)
	}
	if int(width) != w.cfg.Width || int(height) != w.cfg.Height {
		w.logger.Warnw("camera negotiated a different resolution",
			"camera", w.cfg.Name, "want", fmt.Sprintf("%dx%d", w.cfg.Width, w.cfg.Height),
			"got", fmt.Sprintf("%dx%d", width, height))
		w.cfg.Width, w.cfg.Height = int(width), int(height)
	}

	if w.cfg.FPS > 0 {
		if err := cam.SetFramerate(float32(w.cfg.FPS)); err != nil {
			w.logger.Warnw("camera framerate not applied", "camera", w.cfg.Name, "error", err)
		}
	}

	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return fmt.Errorf("start streaming on camera %s: %w", w.cfg.Name, err)
	}

	w.cam = cam
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.first = make(chan struct{})
	w.firstOnce = sync.Once{}
	go w.capture(format)

	w.logger.Infow("camera connected", "camera", w.cfg.Name, "path", w.cfg.Path,
		"width", w.cfg.Width, "height", w.cfg.Height)
	return nil
}

func (w *Webcam) capture(format webcam.PixelFormat) {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		if err := w.cam.WaitForFrame(frameWaitTimeout); err != nil {
			if _, timeout := err.(*webcam.Timeout); timeout {
				continue
			}
			w.logger.Warnw("camera wait failed", "camera", w.cfg.Name, "error", err)
			continue
		}

		buf, err := w.cam.ReadFrame()
		if err != nil {
			w.logger.Warnw("camera read failed", "camera", w.cfg.Name, "error", err)
			continue
		}

		frame := Frame{
			Data:   append([]byte(nil), buf...),
			Width:  w.cfg.Width,
			Height: w.cfg.Height,
		}
		w.mu.Lock()
		w.latest = frame
		w.mu.Unlock()
		w.firstOnce.Do(func() { close(w.first) })
	}
}

// Read returns the most recent captured frame. The first call after Connect
// may wait briefly for the pipeline to deliver its first frame.
func (w *Webcam) Read() (Frame, error) {
	if w.cam == nil {
		return Frame{}, fmt.Errorf("camera %s not connected", w.cfg.Name)
	}

	select {
	case <-w.first:
	case <-time.After(2 * time.Second):
		return Frame{}, fmt.Errorf("camera %s produced no frame", w.cfg.Name)
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest, nil
}

// Connected reports whether the device is open and the reader is running.
func (w *Webcam) Connected() bool {
	if w.cam == nil {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Disconnect stops the reader and releases the device.
func (w *Webcam) Disconnect() error {
	if w.cam == nil {
		return nil
	}

	close(w.stop)
	<-w.done

	if err := w.cam.StopStreaming(); err != nil {
		w.logger.Warnw("camera stop streaming failed", "camera", w.cfg.Name, "error", err)
	}
	err := w.cam.Close()
	w.cam = nil
	if err != nil {
		return fmt.Errorf("close camera %s: %w", w.cfg.Name, err)
	}
	w.logger.Infow("camera disconnected", "camera", w.cfg.Name)
	return nil
}
