package input

import (
	"github.com/0xcafed00d/joystick"
	"github.com/edaniels/golog"
)

// Joystick reads a generic flight-stick style device: stick X/Y translate,
// the twist axis rotates. Unlike the gamepad it is usually run with
// RequireSafety (deadman trigger) and the toggle turbo policy.
type Joystick struct {
	cfg    Config
	axes   AxisMap
	logger golog.Logger

	js joystick.Joystick

	x, y, twist float64
	buttons     uint32
	turbo       turboState
}

func newJoystickSource(cfg Config, logger golog.Logger) *Joystick {
	axes := AxisMap{X: 0, Y: 1, Twist: 2}
	if cfg.Axes != nil {
		axes = *cfg.Axes
	}
	return &Joystick{
		cfg:    cfg,
		axes:   axes,
		logger: logger,
		turbo:  turboState{policy: cfg.TurboPolicy},
	}
}

// Connect opens the device; absence is logged and non-fatal.
func (j *Joystick) Connect() error {
	if j.js != nil {
		return nil
	}
	js, err := openJoystick(j.cfg.Device)
	if err != nil {
		j.logger.Errorw("no joystick found", "device", j.cfg.Device, "error", err)
		return nil
	}
	j.js = js
	j.logger.Infow("joystick connected", "name", js.Name(), "axes", js.AxisCount(), "buttons", js.ButtonCount())
	return nil
}

func (j *Joystick) Disconnect() error {
	if j.js == nil {
		return nil
	}
	j.js.Close()
	j.js = nil
	j.logger.Info("joystick disconnected")
	return nil
}

func (j *Joystick) Connected() bool {
	return j.js != nil
}

// Velocities polls the stick and maps it to a twist with the same sign
// convention as the gamepad: forward is +vx, left is +vy, ccw is +omega.
func (j *Joystick) Velocities() (vx, vy, omega float64) {
	if j.js == nil {
		return 0, 0, 0
	}

	state, err := j.js.Read()
	if err != nil {
		j.logger.Debugw("joystick read failed", "error", err)
	} else {
		j.x = normalizedAxis(state, j.axes.X)
		j.y = normalizedAxis(state, j.axes.Y)
		j.twist = normalizedAxis(state, j.axes.Twist)
		j.buttons = state.Buttons
	}

	safety := buttonHeld(j.buttons, j.cfg.SafetyButton)
	turboActive := j.turbo.update(safety, buttonHeld(j.buttons, j.cfg.TurboButton))
	if j.cfg.RequireSafety && !safety {
		return 0, 0, 0
	}

	linear, angular := j.cfg.MaxLinearSpeed, j.cfg.MaxAngularSpeed
	if turboActive {
		linear, angular = j.cfg.TurboLinearSpeed, j.cfg.TurboAngularSpeed
	}

	x := applyDeadzone(j.x, j.cfg.Deadzone)
	y := applyDeadzone(j.y, j.cfg.Deadzone)
	twist := applyDeadzone(j.twist, j.cfg.Deadzone)

	return -y * linear, -x * linear, -twist * angular
}
