// Package robot provides control of a single SO-100 arm over its Feetech
// servo bus: connection lifecycle, calibration, and normalized position I/O.
package robot

// MotorName identifies a motor in the arm.
type MotorName string

// Motor names for the SO-100 arm, in servo ID order (1-6).
const (
	ShoulderPan  MotorName = "shoulder_pan"
	ShoulderLift MotorName = "shoulder_lift"
	ElbowFlex    MotorName = "elbow_flex"
	WristFlex    MotorName = "wrist_flex"
	WristRoll    MotorName = "wrist_roll"
	Gripper      MotorName = "gripper"
)

// AllMotors returns all motor names in servo ID order.
func AllMotors() []MotorName {
	return []MotorName{
		ShoulderPan,
		ShoulderLift,
		ElbowFlex,
		WristFlex,
		WristRoll,
		Gripper,
	}
}

// FeatureKeys returns the arm's native feature names, one "<motor>.pos" entry
// per motor in servo ID order. These are the keys the composites prefix.
func FeatureKeys() []string {
	motors := AllMotors()
	keys := make([]string, 0, len(motors))
	for _, name := range motors {
		keys = append(keys, PositionKey(name))
	}
	return keys
}

// PositionKey returns the feature key for a motor's position.
func PositionKey(name MotorName) string {
	return string(name) + ".pos"
}
