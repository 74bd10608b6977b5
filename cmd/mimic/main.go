package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Setup       SetupCommand       `command:"setup" description:"Scan for arms, calibrate them and configure the rig"`
	Teleoperate TeleoperateCommand `command:"teleoperate" alias:"teleop" description:"Start bimanual teleoperation with base control"`
	BaseTest    BaseTestCommand    `command:"base-test" description:"Drive the base forward briefly and print odometry"`
	InputTest   InputTestCommand   `command:"input-test" description:"Print live velocities from the configured input source"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "mimic - bimanual mobile manipulator control (SO-100 arms + mecanum base)"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
