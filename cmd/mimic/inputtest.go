package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/edaniels/golog"

	"github.com/mimic-robotics/mimic/pkg/config"
	"github.com/mimic-robotics/mimic/pkg/input"
)

// InputTestCommand prints live velocities from an input source, for checking
// axis assignments and button mappings before teleoperating.
type InputTestCommand struct {
	Mode   string `long:"mode" description:"Input mode override (keyboard, xbox, joystick)"`
	Config string `long:"config" description:"Config file (default mimic.json)"`
}

func (c *InputTestCommand) Execute(args []string) error {
	inputCfg := input.Config{Mode: "keyboard"}
	path := c.Config
	if path == "" {
		path = config.DefaultConfigFile
	}
	if cfg, err := config.LoadFrom(path); err == nil {
		inputCfg = cfg.Input
	}
	if c.Mode != "" {
		inputCfg.Mode = c.Mode
	}

	logger := golog.NewDevelopmentLogger("input-test")
	src, err := input.New(inputCfg, logger)
	if err != nil {
		return err
	}

	if err := src.Connect(); err != nil {
		return err
	}
	defer src.Disconnect()

	if !src.Connected() {
		fmt.Println("Input device not available; velocities will stay zero.")
	}
	fmt.Printf("Reading %s input. Move the sticks/keys; ctrl+c to exit.\n", inputCfg.Mode)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			fmt.Println("\nDone.")
			return nil
		case <-ticker.C:
			vx, vy, omega := src.Velocities()
			fmt.Printf("\rvx=%+.3f  vy=%+.3f  omega=%+.3f  connected=%v   ",
				vx, vy, omega, src.Connected())
		}
	}
}
