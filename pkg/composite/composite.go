// Package composite combines independent sub-devices (two arms, a wheeled
// base, cameras, a human input source) into single robots with one namespaced
// action/observation contract.
//
// Namespacing: each sub-device's native feature keys are prefixed with a
// stable tag (left_, right_, base_). The base contributes pose keys to
// observations and velocity keys to actions; they are different quantities
// and deliberately share no key.
package composite

import (
	"context"

	"github.com/mimic-robotics/mimic/pkg/base"
)

// Prefixes and base feature keys.
const (
	LeftPrefix  = "left_"
	RightPrefix = "right_"

	BaseX     = "base_x"
	BaseY     = "base_y"
	BaseTheta = "base_theta"

	BaseVX    = "base_vx"
	BaseVY    = "base_vy"
	BaseOmega = "base_omega"
)

// Arm is a follower-side arm sub-device. *robot.Arm satisfies it.
type Arm interface {
	Connect() error
	Disconnect() error
	Connected() bool
	Features() []string
	Enable(ctx context.Context) error
	Observation(ctx context.Context) (map[string]float64, error)
	SendAction(ctx context.Context, action map[string]float64) (map[string]float64, error)
}

// LeaderArm is a teleoperation-side arm sub-device, read instead of driven.
// *robot.Arm satisfies it.
type LeaderArm interface {
	Connect() error
	Disconnect() error
	Connected() bool
	Features() []string
	Disable(ctx context.Context) error
	Action(ctx context.Context) (map[string]float64, error)
}

// Base is the wheeled base sub-device. *base.Driver satisfies it.
type Base interface {
	Connect() error
	Disconnect() error
	Connected() bool
	SendTwist(vx, vy, omega float64)
	ReadOdom() (base.Pose, base.Twist)
}

// Feature is one entry of a declared schema. Shape is nil for scalars and
// (height, width, 3) for camera frames.
type Feature struct {
	Key   string
	Shape []int
}

// Keys returns just the key column of a feature list.
func Keys(features []Feature) []string {
	keys := make([]string, len(features))
	for i, f := range features {
		keys[i] = f.Key
	}
	return keys
}

func prefixed(prefix string, keys []string) []Feature {
	out := make([]Feature, 0, len(keys))
	for _, k := range keys {
		out = append(out, Feature{Key: prefix + k})
	}
	return out
}
