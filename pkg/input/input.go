// Package input turns human input devices into planar velocity commands for
// the base. Keyboard, xbox gamepad, and generic joystick variants all satisfy
// the same Source capability set and are selected by a mode string.
package input

import (
	"fmt"
	"math"

	"github.com/edaniels/golog"
)

// Source is the capability set shared by all input variants. Velocities is
// polled once per control cycle and never blocks; a disconnected source
// yields the zero twist.
type Source interface {
	Connect() error
	Disconnect() error
	// Velocities returns the commanded (vx, vy, omega), already scaled by
	// the active speed tier.
	Velocities() (vx, vy, omega float64)
	// Connected reflects actual device liveness, not whether Connect was
	// called.
	Connected() bool
}

// TurboPolicy selects how the turbo speed tier is activated.
type TurboPolicy string

const (
	// TurboHold keeps turbo active only while the turbo button is held.
	TurboHold TurboPolicy = "hold"
	// TurboToggle flips the turbo tier on the rising edge of safety and
	// turbo being pressed together.
	TurboToggle TurboPolicy = "toggle"
)

// AxisMap assigns device axis indices to the three base DoFs.
type AxisMap struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Twist int `json:"twist"`
}

// Config describes an input source. Zero speed/deadzone fields are replaced
// with defaults by the factory.
type Config struct {
	// Mode is one of "keyboard", "xbox", "joystick".
	Mode string `json:"mode"`
	// Device is the joystick index (/dev/input/jsN). Ignored by keyboard.
	Device int `json:"device"`

	MaxLinearSpeed    float64 `json:"max_linear_speed"`    // m/s
	MaxAngularSpeed   float64 `json:"max_angular_speed"`   // rad/s
	TurboLinearSpeed  float64 `json:"turbo_linear_speed"`  // m/s
	TurboAngularSpeed float64 `json:"turbo_angular_speed"` // rad/s

	Deadzone float64 `json:"deadzone"`

	TurboPolicy   TurboPolicy `json:"turbo_policy"`
	SafetyButton  int         `json:"safety_button"`
	TurboButton   int         `json:"turbo_button"`
	RequireSafety bool        `json:"require_safety"`

	// Axes overrides the variant's default axis assignment when non-nil.
	Axes *AxisMap `json:"axes,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.MaxLinearSpeed == 0 {
		c.MaxLinearSpeed = 0.5
	}
	if c.MaxAngularSpeed == 0 {
		c.MaxAngularSpeed = 1.0
	}
	if c.TurboLinearSpeed == 0 {
		c.TurboLinearSpeed = 2 * c.MaxLinearSpeed
	}
	if c.TurboAngularSpeed == 0 {
		c.TurboAngularSpeed = 2 * c.MaxAngularSpeed
	}
	if c.Deadzone == 0 {
		c.Deadzone = 0.15
	}
	if c.TurboPolicy == "" {
		c.TurboPolicy = TurboHold
	}
	return c
}

// New builds the input source for cfg.Mode.
func New(cfg Config, logger golog.Logger) (Source, error) {
	cfg = cfg.withDefaults()
	switch cfg.Mode {
	case "keyboard":
		return newKeyboard(cfg, logger), nil
	case "xbox":
		return newGamepad(cfg, logger), nil
	case "joystick":
		return newJoystickSource(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown input mode %q (use keyboard, xbox or joystick)", cfg.Mode)
	}
}

// turboState tracks the active speed tier for one source. Toggle edge
// detection needs exactly one previous-state field.
type turboState struct {
	policy   TurboPolicy
	active   bool
	prevBoth bool
}

// update consumes this poll's safety/turbo button states and reports whether
// the turbo tier is active.
func (t *turboState) update(safety, turbo bool) bool {
	if t.policy == TurboToggle {
		both := safety && turbo
		if both && !t.prevBoth {
			t.active = !t.active
		}
		t.prevBoth = both
		return t.active
	}
	return turbo
}

// applyDeadzone clamps axis values below the threshold to exactly zero. It is
// applied per read, not latched.
func applyDeadzone(v, deadzone float64) float64 {
	if math.Abs(v) < deadzone {
		return 0
	}
	return v
}
