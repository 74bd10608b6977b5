package composite

import (
	"context"
	"fmt"

	"github.com/edaniels/golog"

	"github.com/mimic-robotics/mimic/pkg/input"
)

// Leader aggregates two hand-moved leader arms and one input source into a
// single teleoperation device. Its action map has the same key shape as the
// Follower's action schema, so leader output can feed follower input
// directly.
type Leader struct {
	left   LeaderArm
	right  LeaderArm
	source input.Source
	logger golog.Logger

	// requireInput folds the input source into the liveness check. True
	// for keyboard control (a dead listener means no base control at
	// all); false for gamepads, where a missing controller deliberately
	// degrades to zero base motion instead of failing the composite.
	requireInput bool

	actFeatures []Feature
}

// NewLeader builds the teleoperation composite and computes its action
// schema once.
func NewLeader(left, right LeaderArm, source input.Source, requireInput bool, logger golog.Logger) *Leader {
	l := &Leader{
		left:         left,
		right:        right,
		source:       source,
		requireInput: requireInput,
		logger:       logger,
	}

	act := prefixed(LeftPrefix, left.Features())
	act = append(act, prefixed(RightPrefix, right.Features())...)
	act = append(act,
		Feature{Key: BaseVX},
		Feature{Key: BaseVY},
		Feature{Key: BaseOmega},
	)
	l.actFeatures = act
	return l
}

// ActionFeatures returns the declared action schema.
func (l *Leader) ActionFeatures() []Feature { return l.actFeatures }

// Connect brings up both arms in passive mode (torque off, so the operator
// can move them) and the input source.
func (l *Leader) Connect(ctx context.Context) error {
	if err := l.left.Connect(); err != nil {
		return fmt.Errorf("connect left leader arm: %w", err)
	}
	if err := l.right.Connect(); err != nil {
		return fmt.Errorf("connect right leader arm: %w", err)
	}

	if err := l.left.Disable(ctx); err != nil {
		l.logger.Warnw("could not release left leader torque", "error", err)
	}
	if err := l.right.Disable(ctx); err != nil {
		l.logger.Warnw("could not release right leader torque", "error", err)
	}

	if err := l.source.Connect(); err != nil {
		return fmt.Errorf("connect input source: %w", err)
	}
	return nil
}

// Connected requires both arms; the input source only when it was marked
// required at construction.
func (l *Leader) Connected() bool {
	if !l.left.Connected() || !l.right.Connected() {
		return false
	}
	if l.requireInput && !l.source.Connected() {
		return false
	}
	return true
}

// Action reads the input source and both arms, merging everything into one
// namespaced action map matching ActionFeatures.
func (l *Leader) Action(ctx context.Context) (map[string]float64, error) {
	action := make(map[string]float64, len(l.actFeatures))

	vx, vy, omega := l.source.Velocities()
	action[BaseVX] = vx
	action[BaseVY] = vy
	action[BaseOmega] = omega

	leftAction, err := l.left.Action(ctx)
	if err != nil {
		return nil, fmt.Errorf("left leader action: %w", err)
	}
	for k, v := range leftAction {
		action[LeftPrefix+k] = v
	}

	rightAction, err := l.right.Action(ctx)
	if err != nil {
		return nil, fmt.Errorf("right leader action: %w", err)
	}
	for k, v := range rightAction {
		action[RightPrefix+k] = v
	}

	return action, nil
}

// Disconnect tears down the arms and the input source.
func (l *Leader) Disconnect() error {
	var errs []error
	if err := l.left.Disconnect(); err != nil {
		errs = append(errs, err)
	}
	if err := l.right.Disconnect(); err != nil {
		errs = append(errs, err)
	}
	if err := l.source.Disconnect(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("leader disconnect: %v", errs)
	}
	return nil
}
