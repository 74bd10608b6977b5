package config

import (
	"path/filepath"
	"testing"

	"github.com/mimic-robotics/mimic/pkg/camera"
	"github.com/mimic-robotics/mimic/pkg/robot"
)

func testCalibration() robot.Calibration {
	cal := make(robot.Calibration)
	for i, name := range robot.AllMotors() {
		cal[name] = robot.MotorCalibration{
			ID:       i + 1,
			RangeMin: 500,
			RangeMax: 3500,
		}
	}
	return cal
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := &Config{}
	cfg.Left.Leader = robot.ArmConfig{Port: "/dev/ttyACM0", Calibration: testCalibration()}
	cfg.Left.Follower = robot.ArmConfig{Port: "/dev/ttyACM1", Calibration: testCalibration()}
	cfg.Right.Leader = robot.ArmConfig{Port: "/dev/ttyACM2", Calibration: testCalibration()}
	cfg.Right.Follower = robot.ArmConfig{Port: "/dev/ttyACM3", Calibration: testCalibration()}
	cfg.Base.Port = "/dev/ttyUSB0"
	cfg.Cameras = []camera.Config{{Name: "front", Path: "/dev/video0", Width: 640, Height: 480, FPS: 30}}
	cfg.Input.Mode = "xbox"
	cfg.Hz = 30

	path := filepath.Join(t.TempDir(), "mimic.json")
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if loaded.Base.Port != "/dev/ttyUSB0" {
		t.Errorf("base port = %q, want /dev/ttyUSB0", loaded.Base.Port)
	}
	if loaded.Input.Mode != "xbox" {
		t.Errorf("input mode = %q, want xbox", loaded.Input.Mode)
	}
	if loaded.Hz != 30 {
		t.Errorf("hz = %d, want 30", loaded.Hz)
	}
	if len(loaded.Cameras) != 1 || loaded.Cameras[0].Path != "/dev/video0" {
		t.Errorf("cameras not preserved: %+v", loaded.Cameras)
	}
	if loaded.Left.Follower.Port != "/dev/ttyACM1" {
		t.Errorf("left follower port = %q", loaded.Left.Follower.Port)
	}
	if !loaded.IsCalibrated() {
		t.Error("loaded config should be calibrated")
	}

	cal := loaded.Right.Leader.Calibration[robot.Gripper]
	if cal.RangeMin != 500 || cal.RangeMax != 3500 {
		t.Errorf("gripper calibration = %+v", cal)
	}
}

func TestIsCalibratedPartial(t *testing.T) {
	cfg := &Config{}
	cfg.Left.Leader.Calibration = testCalibration()
	cfg.Left.Follower.Calibration = testCalibration()
	cfg.Right.Leader.Calibration = testCalibration()

	if cfg.IsCalibrated() {
		t.Error("config with one uncalibrated arm should not report calibrated")
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
