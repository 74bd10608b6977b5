// Package teleop runs the fixed-rate control loop between the leader and
// follower composites: read leader action, send it to the follower, read the
// follower observation.
package teleop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edaniels/golog"

	"github.com/mimic-robotics/mimic/pkg/base"
)

// leaderDevice and followerDevice are what the loop needs from the two
// composites.
type leaderDevice interface {
	Action(ctx context.Context) (map[string]float64, error)
	Connected() bool
	Disconnect() error
}

type followerDevice interface {
	SendAction(ctx context.Context, action map[string]float64) (map[string]float64, error)
	Observation(ctx context.Context) (map[string]any, error)
	Connected() bool
	Disconnect() error
}

// State is one cycle's result, published to the UI.
type State struct {
	// Action is the applied action as reported by the follower.
	Action map[string]float64
	// Pose is the base pose from the follower observation.
	Pose base.Pose
	// Commanded is the base twist portion of the action.
	Commanded base.Twist
	Timestamp time.Time
	Error     error
}

// Config holds configuration for the controller.
type Config struct {
	Hz int
}

// Controller owns the control loop. Within one cycle the action is always
// sent to the follower before the next observation is read; both sides are
// driven from this single goroutine, in program order.
type Controller struct {
	leader   leaderDevice
	follower followerDevice
	hz       int
	logger   golog.Logger

	mu      sync.Mutex
	running bool

	stopOnce sync.Once
	stateCh  chan State
	logCh    chan string
}

// NewController wires the two composites into a control loop.
func NewController(leader leaderDevice, follower followerDevice, cfg Config, logger golog.Logger) *Controller {
	if cfg.Hz <= 0 {
		cfg.Hz = 30
	}
	return &Controller{
		leader:   leader,
		follower: follower,
		hz:       cfg.Hz,
		logger:   logger,
		stateCh:  make(chan State, 1),
		logCh:    make(chan string, 10),
	}
}

// States returns a channel that receives one State per cycle.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages for the UI.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start runs the control loop until ctx is cancelled. Both composites are
// disconnected on the way out, on every exit route; the base sends its
// fail-safe zero twist inside its own disconnect.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	defer c.shutdown()

	c.log("Teleoperation started at %d Hz", c.hz)

	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

func (c *Controller) step(ctx context.Context) {
	action, err := c.leader.Action(ctx)
	if err != nil {
		c.log("Leader read error: %v", err)
		c.sendState(State{Error: err, Timestamp: time.Now()})
		return
	}

	applied, err := c.follower.SendAction(ctx, action)
	if err != nil {
		c.log("Follower write error: %v", err)
		c.sendState(State{Error: err, Timestamp: time.Now()})
		return
	}

	state := State{
		Action: applied,
		Commanded: base.Twist{
			VX:    applied["base_vx"],
			VY:    applied["base_vy"],
			Omega: applied["base_omega"],
		},
		Timestamp: time.Now(),
	}

	obs, err := c.follower.Observation(ctx)
	if err != nil {
		// Stale pose is better than a dead loop.
		c.log("Observation error: %v", err)
	} else {
		state.Pose = base.Pose{
			X:     asFloat(obs["base_x"]),
			Y:     asFloat(obs["base_y"]),
			Theta: asFloat(obs["base_theta"]),
		}
	}

	c.sendState(state)
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Replace the stale state if the UI is behind.
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

// Close tears down both composites. Safe to call after Start has returned.
func (c *Controller) Close() error {
	c.shutdown()
	return nil
}

func (c *Controller) shutdown() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()

		if err := c.leader.Disconnect(); err != nil {
			c.log("Warning: leader disconnect: %v", err)
		}
		if err := c.follower.Disconnect(); err != nil {
			c.log("Warning: follower disconnect: %v", err)
		}
		c.log("Teleoperation stopped")
	})
}
