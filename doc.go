// Package mimic provides teleoperation control for a bimanual mobile
// manipulator: two SO-100 leader/follower arm pairs mounted on a mecanum
// wheel base.
//
// Moving the leader arms drives the follower arms in real-time, while the
// base is steered from a keyboard, Xbox controller or joystick.
//
// # Installation
//
//	go install github.com/mimic-robotics/mimic/cmd/mimic@latest
//
// # Usage
//
// First, run setup to detect and calibrate the arms and pick the base port:
//
//	mimic setup
//
// Then start teleoperation:
//
//	mimic teleoperate
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/mimic: CLI with setup, teleoperate, base-test and input-test commands
//   - pkg/robot: Arm control and calibration
//   - pkg/base: Mecanum base serial driver
//   - pkg/input: Keyboard, Xbox and joystick velocity sources
//   - pkg/camera: V4L2 webcam capture
//   - pkg/composite: Leader and follower device composition
//   - pkg/teleop: Fixed-rate teleoperation controller
//   - pkg/config: Rig configuration persistence
package mimic
