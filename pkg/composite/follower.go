package composite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edaniels/golog"

	"github.com/mimic-robotics/mimic/pkg/camera"
)

// Follower presents two arms, one base and N cameras as a single robot.
// Composition is fixed at construction; sub-devices are connected and torn
// down together.
type Follower struct {
	left    Arm
	right   Arm
	base    Base
	cameras []camera.Camera
	logger  golog.Logger

	obsFeatures []Feature
	actFeatures []Feature
}

// NewFollower builds the composite and computes its schemas once. Camera
// order is preserved in the observation schema.
func NewFollower(left, right Arm, b Base, cameras []camera.Camera, logger golog.Logger) *Follower {
	f := &Follower{
		left:    left,
		right:   right,
		base:    b,
		cameras: cameras,
		logger:  logger,
	}

	// Observation: arm positions, base pose, one entry per camera.
	obs := prefixed(LeftPrefix, left.Features())
	obs = append(obs, prefixed(RightPrefix, right.Features())...)
	obs = append(obs,
		Feature{Key: BaseX},
		Feature{Key: BaseY},
		Feature{Key: BaseTheta},
	)
	for _, cam := range cameras {
		obs = append(obs, Feature{Key: cam.Name(), Shape: []int{cam.Height(), cam.Width(), 3}})
	}
	f.obsFeatures = obs

	// Action: arm positions, base velocity.
	act := prefixed(LeftPrefix, left.Features())
	act = append(act, prefixed(RightPrefix, right.Features())...)
	act = append(act,
		Feature{Key: BaseVX},
		Feature{Key: BaseVY},
		Feature{Key: BaseOmega},
	)
	f.actFeatures = act

	return f
}

// ObservationFeatures returns the declared observation schema. Observation
// returns exactly this key set.
func (f *Follower) ObservationFeatures() []Feature { return f.obsFeatures }

// ActionFeatures returns the declared action schema.
func (f *Follower) ActionFeatures() []Feature { return f.actFeatures }

// Connect brings up both arms, the base and all cameras. The first failure
// aborts and is returned; the caller decides whether to retry the session.
func (f *Follower) Connect(ctx context.Context) error {
	if err := f.left.Connect(); err != nil {
		return fmt.Errorf("connect left arm: %w", err)
	}
	if err := f.right.Connect(); err != nil {
		return fmt.Errorf("connect right arm: %w", err)
	}
	if err := f.base.Connect(); err != nil {
		return fmt.Errorf("connect base: %w", err)
	}
	for _, cam := range f.cameras {
		if err := cam.Connect(); err != nil {
			return fmt.Errorf("connect camera %s: %w", cam.Name(), err)
		}
	}

	if err := f.left.Enable(ctx); err != nil {
		f.logger.Warnw("could not enable left arm torque", "error", err)
	}
	if err := f.right.Enable(ctx); err != nil {
		f.logger.Warnw("could not enable right arm torque", "error", err)
	}
	return nil
}

// Connected is true only if every sub-device is live; one failed camera
// fails the whole composite.
func (f *Follower) Connected() bool {
	if !f.left.Connected() || !f.right.Connected() || !f.base.Connected() {
		return false
	}
	for _, cam := range f.cameras {
		if !cam.Connected() {
			return false
		}
	}
	return true
}

// Observation queries left arm, right arm, base odometry and each camera in
// that fixed order and merges the results under their namespaced keys.
func (f *Follower) Observation(ctx context.Context) (map[string]any, error) {
	obs := make(map[string]any, len(f.obsFeatures))

	leftObs, err := f.left.Observation(ctx)
	if err != nil {
		return nil, fmt.Errorf("left arm observation: %w", err)
	}
	for k, v := range leftObs {
		obs[LeftPrefix+k] = v
	}

	rightObs, err := f.right.Observation(ctx)
	if err != nil {
		return nil, fmt.Errorf("right arm observation: %w", err)
	}
	for k, v := range rightObs {
		obs[RightPrefix+k] = v
	}

	pose, _ := f.base.ReadOdom()
	obs[BaseX] = pose.X
	obs[BaseY] = pose.Y
	obs[BaseTheta] = pose.Theta

	// Camera latency dominates the cycle, so each read is timed.
	for _, cam := range f.cameras {
		start := time.Now()
		frame, err := cam.Read()
		if err != nil {
			return nil, fmt.Errorf("read camera %s: %w", cam.Name(), err)
		}
		obs[cam.Name()] = frame
		f.logger.Debugw("camera read", "camera", cam.Name(), "duration", time.Since(start))
	}

	return obs, nil
}

// SendAction splits the incoming map by namespace: left_/right_ keys go to
// the arms with the prefix stripped, base velocity keys go to the base with
// missing entries defaulting to zero (a partial action must not crash). The
// returned map is what was actually applied, which may differ from the
// request through arm-side clamping.
func (f *Follower) SendAction(ctx context.Context, action map[string]float64) (map[string]float64, error) {
	vx := action[BaseVX]
	vy := action[BaseVY]
	omega := action[BaseOmega]
	f.base.SendTwist(vx, vy, omega)

	leftAction := make(map[string]float64)
	rightAction := make(map[string]float64)
	for k, v := range action {
		switch {
		case strings.HasPrefix(k, LeftPrefix):
			leftAction[strings.TrimPrefix(k, LeftPrefix)] = v
		case strings.HasPrefix(k, RightPrefix):
			rightAction[strings.TrimPrefix(k, RightPrefix)] = v
		}
	}

	leftApplied, err := f.left.SendAction(ctx, leftAction)
	if err != nil {
		return nil, fmt.Errorf("send left arm action: %w", err)
	}
	rightApplied, err := f.right.SendAction(ctx, rightAction)
	if err != nil {
		return nil, fmt.Errorf("send right arm action: %w", err)
	}

	applied := make(map[string]float64, len(leftApplied)+len(rightApplied)+3)
	for k, v := range leftApplied {
		applied[LeftPrefix+k] = v
	}
	for k, v := range rightApplied {
		applied[RightPrefix+k] = v
	}
	applied[BaseVX] = vx
	applied[BaseVY] = vy
	applied[BaseOmega] = omega
	return applied, nil
}

// Disconnect tears down every sub-device. The base stops itself (zero twist)
// as part of its own disconnect. All errors are reported, none short-circuit
// the others.
func (f *Follower) Disconnect() error {
	var errs []error
	if err := f.left.Disconnect(); err != nil {
		errs = append(errs, err)
	}
	if err := f.right.Disconnect(); err != nil {
		errs = append(errs, err)
	}
	if err := f.base.Disconnect(); err != nil {
		errs = append(errs, err)
	}
	for _, cam := range f.cameras {
		if err := cam.Disconnect(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("follower disconnect: %v", errs)
	}
	return nil
}
