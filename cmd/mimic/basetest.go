package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/edaniels/golog"

	"github.com/mimic-robotics/mimic/pkg/base"
)

// BaseTestCommand drives the base forward for a moment and prints the
// odometry stream, to verify wiring before running a full session.
type BaseTestCommand struct {
	Port     string  `long:"port" default:"/dev/ttyUSB0" description:"Base serial port"`
	Speed    float64 `long:"speed" default:"0.2" description:"Forward speed in m/s"`
	Duration float64 `long:"duration" default:"1.0" description:"Drive time in seconds"`
}

func (c *BaseTestCommand) Execute(args []string) error {
	logger := golog.NewDevelopmentLogger("base-test")
	driver := base.NewDriver(c.Port, logger)

	fmt.Printf("Connecting to base on %s...\n", c.Port)
	if err := driver.Connect(); err != nil {
		return err
	}
	defer driver.Disconnect()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	fmt.Printf("Driving forward at %.2f m/s for %.1fs...\n", c.Speed, c.Duration)

	ticker := time.NewTicker(20 * time.Millisecond) // 50 Hz
	defer ticker.Stop()
	deadline := time.Now().Add(time.Duration(c.Duration * float64(time.Second)))

	for time.Now().Before(deadline) {
		select {
		case <-sig:
			fmt.Println("\nInterrupted, stopping base.")
			return nil
		case <-ticker.C:
			driver.SendTwist(c.Speed, 0, 0)
			pose, vel := driver.ReadOdom()
			fmt.Printf("\rodom x=%.3f y=%.3f th=%.3f | vel vx=%.3f vy=%.3f w=%.3f   ",
				pose.X, pose.Y, pose.Theta, vel.VX, vel.VY, vel.Omega)
		}
	}

	fmt.Println("\nStopping.")
	driver.SendTwist(0, 0, 0)
	time.Sleep(500 * time.Millisecond)
	return nil
}
