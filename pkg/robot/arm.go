package robot

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/edaniels/golog"
	"github.com/hipsterbrown/feetech-servo/feetech"
)

// ArmConfig holds configuration for one arm.
type ArmConfig struct {
	Port        string      `json:"port"`
	Calibration Calibration `json:"calibration,omitempty"`

	// MaxRelativeTarget caps how far (in normalized units) a single action
	// may move a motor from its last observed position. Zero disables the
	// clamp.
	MaxRelativeTarget float64 `json:"max_relative_target,omitempty"`

	// DisableTorqueOnDisconnect releases the servos when the arm
	// disconnects so it can be moved by hand.
	DisableTorqueOnDisconnect bool `json:"disable_torque_on_disconnect,omitempty"`
}

// IsCalibrated returns true if the arm has calibration data.
func (a *ArmConfig) IsCalibrated() bool {
	return len(a.Calibration) > 0
}

// Arm is one SO-100 arm on its own serial bus. Construct with NewArm, open
// the bus with Connect.
type Arm struct {
	cfg    ArmConfig
	logger golog.Logger

	bus   *feetech.Bus
	group *feetech.ServoGroup

	// last positions observed or commanded, used for the relative clamp
	last map[MotorName]float64
}

// NewArm creates an arm from config without touching hardware.
func NewArm(cfg ArmConfig, logger golog.Logger) *Arm {
	return &Arm{
		cfg:    cfg,
		logger: logger,
		last:   make(map[MotorName]float64),
	}
}

// Connect opens the servo bus. Idempotent while open; failure is returned to
// the caller.
func (a *Arm) Connect() error {
	if a.bus != nil {
		return nil
	}

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     a.cfg.Port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("open arm bus %s: %w", a.cfg.Port, err)
	}

	a.bus = bus
	a.group = feetech.NewServoGroupByIDs(bus, a.cfg.Calibration.MotorIDs()...)
	a.logger.Infow("arm connected", "port", a.cfg.Port)
	return nil
}

// Connected reports whether the servo bus is open.
func (a *Arm) Connected() bool {
	return a.bus != nil
}

// Disconnect optionally releases torque and closes the bus.
func (a *Arm) Disconnect() error {
	if a.bus == nil {
		return nil
	}

	if a.cfg.DisableTorqueOnDisconnect {
		if err := a.group.DisableAll(context.Background()); err != nil {
			a.logger.Warnw("could not release arm torque", "port", a.cfg.Port, "error", err)
		}
	}

	err := a.bus.Close()
	a.bus = nil
	a.group = nil
	if err != nil {
		return fmt.Errorf("close arm bus %s: %w", a.cfg.Port, err)
	}
	a.logger.Infow("arm disconnected", "port", a.cfg.Port)
	return nil
}

// Enable enables torque on all servos.
func (a *Arm) Enable(ctx context.Context) error {
	if a.group == nil {
		return fmt.Errorf("arm %s not connected", a.cfg.Port)
	}
	return a.group.EnableAll(ctx)
}

// Disable disables torque on all servos (passive mode, for leader arms).
func (a *Arm) Disable(ctx context.Context) error {
	if a.group == nil {
		return fmt.Errorf("arm %s not connected", a.cfg.Port)
	}
	return a.group.DisableAll(ctx)
}

// Features returns the arm's native feature keys.
func (a *Arm) Features() []string {
	return FeatureKeys()
}

// Observation reads all motor positions, normalized to [-100, 100], keyed by
// "<motor>.pos".
func (a *Arm) Observation(ctx context.Context) (map[string]float64, error) {
	positions, err := a.readPositions(ctx)
	if err != nil {
		return nil, err
	}

	obs := make(map[string]float64, len(positions))
	for name, pos := range positions {
		obs[PositionKey(name)] = pos
	}
	return obs, nil
}

// Action reads the arm as a teleoperation source: same values as
// Observation, but this side of the pair has torque disabled and is moved by
// hand.
func (a *Arm) Action(ctx context.Context) (map[string]float64, error) {
	return a.Observation(ctx)
}

func (a *Arm) readPositions(ctx context.Context) (map[MotorName]float64, error) {
	if a.group == nil {
		return nil, fmt.Errorf("arm %s not connected", a.cfg.Port)
	}

	rawPositions, err := a.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read arm positions: %w", err)
	}

	positions := make(map[MotorName]float64, len(rawPositions))
	for id, raw := range rawPositions {
		name, cal, ok := a.cfg.Calibration.ByID(id)
		if !ok {
			continue
		}
		positions[name] = cal.Normalize(raw)
	}

	a.last = positions
	return positions, nil
}

// SendAction writes target positions from a "<motor>.pos"-keyed map and
// returns what was actually commanded: targets are clamped to
// MaxRelativeTarget around the last observed position, so the returned map
// is the authoritative record, not an echo. Keys for unknown motors are
// ignored; an empty map writes nothing.
func (a *Arm) SendAction(ctx context.Context, action map[string]float64) (map[string]float64, error) {
	if a.group == nil {
		return nil, fmt.Errorf("arm %s not connected", a.cfg.Port)
	}

	applied := make(map[string]float64, len(action))
	rawPositions := make(feetech.PositionMap, len(action))
	for _, name := range AllMotors() {
		cal, ok := a.cfg.Calibration[name]
		if !ok {
			continue
		}
		target, ok := action[PositionKey(name)]
		if !ok {
			continue
		}

		target = a.clampRelative(name, target)
		applied[PositionKey(name)] = target
		rawPositions[cal.ID] = cal.Denormalize(target)
		a.last[name] = target
	}

	if len(rawPositions) == 0 {
		return applied, nil
	}
	if err := a.group.SetPositions(ctx, rawPositions); err != nil {
		return nil, fmt.Errorf("write arm positions: %w", err)
	}
	return applied, nil
}

func (a *Arm) clampRelative(name MotorName, target float64) float64 {
	if a.cfg.MaxRelativeTarget <= 0 {
		return target
	}
	last, ok := a.last[name]
	if !ok {
		return target
	}
	delta := target - last
	if math.Abs(delta) <= a.cfg.MaxRelativeTarget {
		return target
	}
	clamped := last + math.Copysign(a.cfg.MaxRelativeTarget, delta)
	a.logger.Debugw("arm target clamped", "motor", name, "requested", target, "applied", clamped)
	return clamped
}
