// Package camera abstracts frame sources for the composite robot. A camera
// yields raw pixel buffers of shape (height, width, 3); pixel-format
// conversion is the consumer's problem.
package camera

// Frame is one captured image as a raw (H, W, 3) byte buffer.
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// Camera is the capability set the composite needs from any frame source.
// Read blocks for at most one frame interval; it returns the most recent
// frame captured by the device's own reader, so N cameras polled in sequence
// do not stack capture latencies.
type Camera interface {
	Name() string
	// Width and Height are the configured capture dimensions, known before
	// Connect so schemas can be declared up front.
	Width() int
	Height() int

	Connect() error
	Read() (Frame, error)
	Connected() bool
	Disconnect() error
}

// Config describes one camera of the rig.
type Config struct {
	Name   string `json:"name"`
	Path   string `json:"path"` // e.g. /dev/video0
	Width  int    `json:"width"`
	Height int    `json:"height"`
	FPS    int    `json:"fps"`
}
