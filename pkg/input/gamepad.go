package input

import (
	"github.com/0xcafed00d/joystick"
	"github.com/edaniels/golog"
)

// axisScale normalizes the int16 axis range reported by the joystick layer.
const axisScale = 32767.0

// openJoystick is swapped out by tests.
var openJoystick = joystick.Open

// Gamepad reads an xbox-style controller: left stick drives translation,
// right stick X rotates. Defaults: LB (4) is the safety button, RB (5) the
// turbo button.
type Gamepad struct {
	cfg    Config
	axes   AxisMap
	logger golog.Logger

	js joystick.Joystick

	// last-known normalized axis/button state, updated each poll
	x, y, twist float64
	buttons     uint32
	turbo       turboState
}

func newGamepad(cfg Config, logger golog.Logger) *Gamepad {
	axes := AxisMap{X: 0, Y: 1, Twist: 3} // left stick X/Y, right stick X
	if cfg.Axes != nil {
		axes = *cfg.Axes
	}
	return &Gamepad{
		cfg:    cfg,
		axes:   axes,
		logger: logger,
		turbo:  turboState{policy: cfg.TurboPolicy},
	}
}

// Connect opens the controller. A missing device is not fatal: it is logged
// and the source stays disconnected, degrading to zero base motion.
func (g *Gamepad) Connect() error {
	if g.js != nil {
		return nil
	}
	js, err := openJoystick(g.cfg.Device)
	if err != nil {
		g.logger.Errorw("no gamepad found", "device", g.cfg.Device, "error", err)
		return nil
	}
	g.js = js
	g.logger.Infow("gamepad connected", "name", js.Name(), "axes", js.AxisCount(), "buttons", js.ButtonCount())
	return nil
}

func (g *Gamepad) Disconnect() error {
	if g.js == nil {
		return nil
	}
	g.js.Close()
	g.js = nil
	g.logger.Info("gamepad disconnected")
	return nil
}

func (g *Gamepad) Connected() bool {
	return g.js != nil
}

// Velocities polls the controller and maps the sticks to a twist. Stick Y
// and X are inverted so pushing forward is +vx and left is +vy.
func (g *Gamepad) Velocities() (vx, vy, omega float64) {
	if g.js == nil {
		return 0, 0, 0
	}

	state, err := g.js.Read()
	if err != nil {
		// Keep the last-known state; a transient read error must not
		// jolt the base.
		g.logger.Debugw("gamepad read failed", "error", err)
	} else {
		g.x = normalizedAxis(state, g.axes.X)
		g.y = normalizedAxis(state, g.axes.Y)
		g.twist = normalizedAxis(state, g.axes.Twist)
		g.buttons = state.Buttons
	}

	safety := buttonHeld(g.buttons, g.cfg.SafetyButton)
	linear, angular := g.tierSpeeds(safety, buttonHeld(g.buttons, g.cfg.TurboButton))
	if g.cfg.RequireSafety && !safety {
		return 0, 0, 0
	}

	x := applyDeadzone(g.x, g.cfg.Deadzone)
	y := applyDeadzone(g.y, g.cfg.Deadzone)
	twist := applyDeadzone(g.twist, g.cfg.Deadzone)

	return -y * linear, -x * linear, -twist * angular
}

func (g *Gamepad) tierSpeeds(safety, turbo bool) (linear, angular float64) {
	if g.turbo.update(safety, turbo) {
		return g.cfg.TurboLinearSpeed, g.cfg.TurboAngularSpeed
	}
	return g.cfg.MaxLinearSpeed, g.cfg.MaxAngularSpeed
}

func normalizedAxis(s joystick.State, axis int) float64 {
	if axis < 0 || axis >= len(s.AxisData) {
		return 0
	}
	return float64(s.AxisData[axis]) / axisScale
}

func buttonHeld(buttons uint32, button int) bool {
	if button < 0 || button > 31 {
		return false
	}
	return buttons&(1<<uint(button)) != 0
}
