package teleop

import (
	"context"
	"errors"
	"testing"

	"github.com/edaniels/golog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder tracks the order of operations across both fake composites.
type recorder struct {
	ops []string
}

type fakeLeader struct {
	rec       *recorder
	action    map[string]float64
	actionErr error
	closed    bool
}

func (l *fakeLeader) Action(context.Context) (map[string]float64, error) {
	l.rec.ops = append(l.rec.ops, "action")
	if l.actionErr != nil {
		return nil, l.actionErr
	}
	return l.action, nil
}
func (l *fakeLeader) Connected() bool { return !l.closed }
func (l *fakeLeader) Disconnect() error {
	l.closed = true
	l.rec.ops = append(l.rec.ops, "leader.disconnect")
	return nil
}

type fakeFollower struct {
	rec    *recorder
	pose   map[string]any
	closed bool
}

func (f *fakeFollower) SendAction(_ context.Context, action map[string]float64) (map[string]float64, error) {
	f.rec.ops = append(f.rec.ops, "send")
	return action, nil
}

func (f *fakeFollower) Observation(context.Context) (map[string]any, error) {
	f.rec.ops = append(f.rec.ops, "observe")
	return f.pose, nil
}
func (f *fakeFollower) Connected() bool { return !f.closed }
func (f *fakeFollower) Disconnect() error {
	f.closed = true
	f.rec.ops = append(f.rec.ops, "follower.disconnect")
	return nil
}

func TestStepOrdering(t *testing.T) {
	rec := &recorder{}
	leader := &fakeLeader{rec: rec, action: map[string]float64{"base_vx": 0.2}}
	follower := &fakeFollower{rec: rec, pose: map[string]any{
		"base_x": 1.5, "base_y": 0.0, "base_theta": 0.1,
	}}
	c := NewController(leader, follower, Config{Hz: 30}, golog.NewTestLogger(t))

	c.step(context.Background())

	// Action is sent before the observation is read, never reordered.
	assert.Equal(t, []string{"action", "send", "observe"}, rec.ops)

	state := <-c.States()
	require.NoError(t, state.Error)
	assert.Equal(t, 0.2, state.Commanded.VX)
	assert.Equal(t, 1.5, state.Pose.X)
}

func TestStepLeaderErrorSkipsSend(t *testing.T) {
	rec := &recorder{}
	leader := &fakeLeader{rec: rec, actionErr: errors.New("bus timeout")}
	follower := &fakeFollower{rec: rec}
	c := NewController(leader, follower, Config{Hz: 30}, golog.NewTestLogger(t))

	c.step(context.Background())

	assert.Equal(t, []string{"action"}, rec.ops)
	state := <-c.States()
	assert.Error(t, state.Error)
}

func TestStartDisconnectsBothOnCancel(t *testing.T) {
	rec := &recorder{}
	leader := &fakeLeader{rec: rec, action: map[string]float64{}}
	follower := &fakeFollower{rec: rec, pose: map[string]any{}}
	c := NewController(leader, follower, Config{Hz: 100}, golog.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	// Drain states so the loop never blocks, then stop it.
	go func() {
		for range c.States() {
		}
	}()
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, leader.closed)
	assert.True(t, follower.closed)
}

func TestCloseIsIdempotentWithShutdown(t *testing.T) {
	rec := &recorder{}
	leader := &fakeLeader{rec: rec}
	follower := &fakeFollower{rec: rec}
	c := NewController(leader, follower, Config{}, golog.NewTestLogger(t))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	// Exactly one disconnect per side.
	count := 0
	for _, op := range rec.ops {
		if op == "leader.disconnect" || op == "follower.disconnect" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestDefaultRate(t *testing.T) {
	c := NewController(&fakeLeader{rec: &recorder{}}, &fakeFollower{rec: &recorder{}}, Config{}, golog.NewTestLogger(t))
	assert.Equal(t, 30, c.Hz())
}
