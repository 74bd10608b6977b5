package base

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// odomFields is header + x,y,theta,vx,vy,omega. The trailing encoder counts
// are accepted but not consumed.
const odomFields = 7

// lastCompleteLine returns the final newline-terminated line in data. Bytes
// after the last newline are an incomplete packet and are discarded.
func lastCompleteLine(data []byte) (string, bool) {
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return "", false
	}
	start := bytes.LastIndexByte(data[:end], '\n') + 1
	return strings.TrimSpace(string(data[start:end])), true
}

// parseOdom parses "ODOM,x,y,theta,vx,vy,omega,enc1,enc2,enc3,enc4". It
// returns an error instead of partially-updated values so the caller can
// no-op on malformed telemetry.
func parseOdom(line string) (Pose, Twist, error) {
	parts := strings.Split(line, ",")
	if parts[0] != "ODOM" {
		return Pose{}, Twist{}, fmt.Errorf("not an odometry line: %q", line)
	}
	if len(parts) < odomFields {
		return Pose{}, Twist{}, fmt.Errorf("odometry line has %d fields, want at least %d", len(parts), odomFields)
	}

	vals := make([]float64, odomFields-1)
	for i := range vals {
		v, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return Pose{}, Twist{}, fmt.Errorf("odometry field %d: %w", i+1, err)
		}
		vals[i] = v
	}

	pose := Pose{X: vals[0], Y: vals[1], Theta: vals[2]}
	vel := Twist{VX: vals[3], VY: vals[4], Omega: vals[5]}
	return pose, vel, nil
}
