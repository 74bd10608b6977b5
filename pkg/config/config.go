// Package config loads and saves the rig's session configuration: four arm
// ports with embedded calibration, the base serial port, cameras, and the
// base input source.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mimic-robotics/mimic/pkg/camera"
	"github.com/mimic-robotics/mimic/pkg/input"
	"github.com/mimic-robotics/mimic/pkg/robot"
)

const DefaultConfigFile = "mimic.json"

// ArmPair is the leader/follower pair on one side of the rig.
type ArmPair struct {
	Leader   robot.ArmConfig `json:"leader"`
	Follower robot.ArmConfig `json:"follower"`
}

// BaseConfig holds the wheeled base's serial settings.
type BaseConfig struct {
	Port string `json:"port"`
}

// Config is the whole rig. Composition is static per session: what is listed
// here is what gets constructed and torn down together.
type Config struct {
	Left  ArmPair `json:"left"`
	Right ArmPair `json:"right"`

	Base    BaseConfig      `json:"base"`
	Cameras []camera.Config `json:"cameras,omitempty"`
	Input   input.Config    `json:"input"`

	// Hz is the control loop rate; 0 means the default.
	Hz int `json:"hz,omitempty"`
}

// IsCalibrated returns true if all four arms have calibration data.
func (c *Config) IsCalibrated() bool {
	return c.Left.Leader.IsCalibrated() && c.Left.Follower.IsCalibrated() &&
		c.Right.Leader.IsCalibrated() && c.Right.Follower.IsCalibrated()
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom loads configuration from a specific file.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Exists returns true if the default config file exists.
func Exists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
