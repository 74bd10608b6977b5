// Package base drives the mecanum wheel base over its serial line protocol.
//
// The base microcontroller speaks a minimal ASCII protocol:
//
//	Outbound: TWIST,<vx>,<vy>,<omega>\n
//	Inbound:  ODOM,<x>,<y>,<theta>,<vx>,<vy>,<omega>,<enc1>,<enc2>,<enc3>,<enc4>\n
//
// Telemetry is read with a freshest-packet policy: each read drains whatever
// is buffered and keeps only the last complete line, so the control loop sees
// bounded latency instead of a growing backlog.
package base

import (
	"fmt"
	"io"
	"time"

	"github.com/edaniels/golog"
	"go.bug.st/serial"
)

const (
	DefaultBaudRate = 115200
	DefaultTimeout  = 50 * time.Millisecond
)

// Pose is the base's position estimate in meters/radians.
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

// Twist is a planar velocity in m/s and rad/s.
type Twist struct {
	VX    float64
	VY    float64
	Omega float64
}

// link is the part of the serial port the driver uses. go.bug.st's Port
// satisfies it; tests substitute an in-memory fake.
type link interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// Driver owns the serial connection to the base. It keeps the last commanded
// twist and, separately, the last pose/velocity the base reported; the two
// must not be conflated (the base may still report motion while decelerating
// after a zero command).
type Driver struct {
	port    string
	baud    int
	timeout time.Duration
	logger  golog.Logger

	ser link

	pose        Pose
	reportedVel Twist
	commanded   Twist
}

// NewDriver creates a driver for the base on the given serial port. The
// connection is not opened until Connect.
func NewDriver(port string, logger golog.Logger) *Driver {
	return &Driver{
		port:    port,
		baud:    DefaultBaudRate,
		timeout: DefaultTimeout,
		logger:  logger,
	}
}

// Connect opens the serial port and clears any telemetry buffered before this
// session. Calling Connect on an open driver is a no-op.
func (d *Driver) Connect() error {
	if d.ser != nil {
		return nil
	}

	mode := &serial.Mode{
		BaudRate: d.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("open base port %s: %w", d.port, err)
	}
	if err := port.SetReadTimeout(d.timeout); err != nil {
		port.Close()
		return fmt.Errorf("set read timeout on %s: %w", d.port, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		d.logger.Warnw("could not clear stale base telemetry", "error", err)
	}

	d.ser = port
	d.logger.Infow("connected to mecanum base", "port", d.port, "baud", d.baud)
	return nil
}

// Connected reports whether the serial transport is open.
func (d *Driver) Connected() bool {
	return d.ser != nil
}

// SendTwist commands the base velocity. Values are truncated to three decimal
// places on the wire to bound message length. A write failure is logged, not
// returned: commanding a possibly-unplugged base must never take down the
// control loop.
func (d *Driver) SendTwist(vx, vy, omega float64) {
	if d.ser == nil {
		d.logger.Warn("send twist on closed base connection")
		return
	}

	msg := fmt.Sprintf("TWIST,%.3f,%.3f,%.3f\n", vx, vy, omega)
	if _, err := d.ser.Write([]byte(msg)); err != nil {
		d.logger.Errorw("base write failed", "error", err)
		return
	}
	d.commanded = Twist{VX: vx, VY: vy, Omega: omega}
}

// LastCommanded returns the last twist successfully written to the base.
func (d *Driver) LastCommanded() Twist {
	return d.commanded
}

// ReadOdom drains the input buffer and parses the most recent complete ODOM
// line, returning the updated pose and reported velocity. Partial trailing
// lines are dropped rather than carried to the next call. Malformed lines
// leave the previous state untouched; this is a telemetry stream, so the most
// recent known-good value beats completeness.
func (d *Driver) ReadOdom() (Pose, Twist) {
	if d.ser == nil {
		return d.pose, d.reportedVel
	}

	data := d.drain()
	line, ok := lastCompleteLine(data)
	if !ok {
		return d.pose, d.reportedVel
	}

	pose, vel, err := parseOdom(line)
	if err != nil {
		// Garbled telemetry happens on a noisy line; keep the last
		// known-good state.
		d.logger.Debugw("ignoring bad odometry line", "line", line, "error", err)
		return d.pose, d.reportedVel
	}

	d.pose = pose
	d.reportedVel = vel
	return d.pose, d.reportedVel
}

// drain reads everything currently available. The first read may block up to
// the port timeout; follow-up reads only happen while data keeps arriving in
// full buffers.
func (d *Driver) drain() []byte {
	var data []byte
	buf := make([]byte, 1024)
	for {
		n, err := d.ser.Read(buf)
		if err != nil {
			d.logger.Warnw("base read failed", "error", err)
			break
		}
		if n == 0 {
			break // read timeout, nothing buffered
		}
		data = append(data, buf[:n]...)
		if n < len(buf) {
			break
		}
	}
	return data
}

// Disconnect stops the base and closes the port. The zero twist goes out
// before close so the last nonzero command cannot stay latched on the
// microcontroller.
func (d *Driver) Disconnect() error {
	if d.ser == nil {
		return nil
	}

	d.SendTwist(0, 0, 0)
	err := d.ser.Close()
	d.ser = nil
	if err != nil {
		return fmt.Errorf("close base port %s: %w", d.port, err)
	}
	d.logger.Info("disconnected from mecanum base")
	return nil
}
