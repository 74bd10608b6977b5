package input

import (
	"errors"
	"math"
	"testing"

	"github.com/0xcafed00d/joystick"
	"github.com/edaniels/golog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStick scripts a sequence of device states; the last one repeats.
type fakeStick struct {
	states  []joystick.State
	idx     int
	readErr error
	closed  bool
}

func (f *fakeStick) AxisCount() int   { return 6 }
func (f *fakeStick) ButtonCount() int { return 12 }
func (f *fakeStick) Name() string     { return "fake stick" }
func (f *fakeStick) Close()           { f.closed = true }

func (f *fakeStick) Read() (joystick.State, error) {
	if f.readErr != nil {
		return joystick.State{}, f.readErr
	}
	if len(f.states) == 0 {
		return joystick.State{}, nil
	}
	s := f.states[f.idx]
	if f.idx < len(f.states)-1 {
		f.idx++
	}
	return s, nil
}

func axisRaw(v float64) int { return int(v * axisScale) }

func withFakeStick(t *testing.T, fake *fakeStick) {
	t.Helper()
	orig := openJoystick
	openJoystick = func(int) (joystick.Joystick, error) { return fake, nil }
	t.Cleanup(func() { openJoystick = orig })
}

func withNoStick(t *testing.T) {
	t.Helper()
	orig := openJoystick
	openJoystick = func(int) (joystick.Joystick, error) { return nil, errors.New("no such device") }
	t.Cleanup(func() { openJoystick = orig })
}

func TestNewUnknownMode(t *testing.T) {
	_, err := New(Config{Mode: "dance-mat"}, golog.NewTestLogger(t))
	require.Error(t, err)
}

func TestNewVariants(t *testing.T) {
	logger := golog.NewTestLogger(t)

	src, err := New(Config{Mode: "keyboard"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &Keyboard{}, src)

	src, err = New(Config{Mode: "xbox"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &Gamepad{}, src)

	src, err = New(Config{Mode: "joystick"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &Joystick{}, src)
}

func TestDeadzoneMapping(t *testing.T) {
	// x below deadzone is zeroed, y is inverted: expect (+0.4*speed, 0, 0).
	fake := &fakeStick{states: []joystick.State{{
		AxisData: []int{axisRaw(0.05), axisRaw(-0.4), 0, 0, 0, 0},
	}}}
	withFakeStick(t, fake)

	j := newJoystickSource(Config{
		Mode:            "joystick",
		MaxLinearSpeed:  1.0,
		MaxAngularSpeed: 1.0,
		Deadzone:        0.15,
	}, golog.NewTestLogger(t))
	require.NoError(t, j.Connect())

	vx, vy, omega := j.Velocities()
	assert.InDelta(t, 0.4, vx, 1e-3)
	assert.Zero(t, vy)
	assert.Zero(t, omega)
}

func TestTurboToggleEdgeDetection(t *testing.T) {
	ts := turboState{policy: TurboToggle}

	// Both held across three consecutive polls: exactly one flip.
	assert.True(t, ts.update(true, true))
	assert.True(t, ts.update(true, true))
	assert.True(t, ts.update(true, true))

	// Release, press again: second rising edge flips it back off.
	assert.True(t, ts.update(true, false))
	assert.False(t, ts.update(true, true))
	assert.False(t, ts.update(true, true))

	// Only one of the two buttons never toggles.
	assert.False(t, ts.update(false, true))
	assert.False(t, ts.update(true, false))
}

func TestTurboToggleThroughJoystick(t *testing.T) {
	const safetyBtn, turboBtn = 0, 1
	both := uint32(1<<safetyBtn | 1<<turboBtn)
	forward := []int{0, axisRaw(-1.0), 0}

	fake := &fakeStick{states: []joystick.State{
		{AxisData: forward, Buttons: both},
		{AxisData: forward, Buttons: both},
		{AxisData: forward, Buttons: 1 << safetyBtn},
	}}
	withFakeStick(t, fake)

	j := newJoystickSource(Config{
		Mode:             "joystick",
		MaxLinearSpeed:   0.5,
		TurboLinearSpeed: 1.5,
		MaxAngularSpeed:  1.0,
		Deadzone:         0.15,
		TurboPolicy:      TurboToggle,
		SafetyButton:     safetyBtn,
		TurboButton:      turboBtn,
	}, golog.NewTestLogger(t))
	require.NoError(t, j.Connect())

	vx, _, _ := j.Velocities()
	assert.InDelta(t, 1.5, vx, 1e-3) // rising edge turned turbo on
	vx, _, _ = j.Velocities()
	assert.InDelta(t, 1.5, vx, 1e-3) // still held: no second flip
	vx, _, _ = j.Velocities()
	assert.InDelta(t, 1.5, vx, 1e-3) // toggle persists after release
}

func TestTurboHoldThroughGamepad(t *testing.T) {
	const turboBtn = 5
	forward := []int{0, axisRaw(-1.0), 0, 0, 0, 0}

	fake := &fakeStick{states: []joystick.State{
		{AxisData: forward, Buttons: 1 << turboBtn},
		{AxisData: forward},
	}}
	withFakeStick(t, fake)

	g := newGamepad(Config{
		Mode:             "xbox",
		MaxLinearSpeed:   0.5,
		TurboLinearSpeed: 1.0,
		MaxAngularSpeed:  1.0,
		Deadzone:         0.15,
		TurboPolicy:      TurboHold,
		SafetyButton:     4,
		TurboButton:      turboBtn,
	}, golog.NewTestLogger(t))
	require.NoError(t, g.Connect())

	vx, _, _ := g.Velocities()
	assert.InDelta(t, 1.0, vx, 1e-3) // held
	vx, _, _ = g.Velocities()
	assert.InDelta(t, 0.5, vx, 1e-3) // released
}

func TestRequireSafetyZeroesOutput(t *testing.T) {
	const safetyBtn = 4
	forward := []int{0, axisRaw(-1.0), 0, 0, 0, 0}

	fake := &fakeStick{states: []joystick.State{
		{AxisData: forward},
		{AxisData: forward, Buttons: 1 << safetyBtn},
	}}
	withFakeStick(t, fake)

	g := newGamepad(Config{
		Mode:            "xbox",
		MaxLinearSpeed:  0.5,
		MaxAngularSpeed: 1.0,
		Deadzone:        0.15,
		SafetyButton:    safetyBtn,
		TurboButton:     5,
		RequireSafety:   true,
	}, golog.NewTestLogger(t))
	require.NoError(t, g.Connect())

	vx, vy, omega := g.Velocities()
	assert.Zero(t, vx)
	assert.Zero(t, vy)
	assert.Zero(t, omega)

	vx, _, _ = g.Velocities()
	assert.InDelta(t, 0.5, vx, 1e-3)
}

func TestMissingDeviceDegrades(t *testing.T) {
	withNoStick(t)

	g := newGamepad(Config{Mode: "xbox"}.withDefaults(), golog.NewTestLogger(t))
	require.NoError(t, g.Connect()) // absence is non-fatal
	assert.False(t, g.Connected())

	vx, vy, omega := g.Velocities()
	assert.Zero(t, vx)
	assert.Zero(t, vy)
	assert.Zero(t, omega)
}

func TestReadErrorKeepsLastAxes(t *testing.T) {
	fake := &fakeStick{states: []joystick.State{
		{AxisData: []int{0, axisRaw(-0.8), 0, 0, 0, 0}},
	}}
	withFakeStick(t, fake)

	g := newGamepad(Config{Mode: "xbox"}.withDefaults(), golog.NewTestLogger(t))
	require.NoError(t, g.Connect())

	vx, _, _ := g.Velocities()
	require.Greater(t, vx, 0.0)

	fake.readErr = errors.New("EAGAIN")
	vx2, _, _ := g.Velocities()
	assert.InDelta(t, vx, vx2, 1e-9)
}

func TestGamepadDisconnect(t *testing.T) {
	fake := &fakeStick{}
	withFakeStick(t, fake)

	g := newGamepad(Config{Mode: "xbox"}.withDefaults(), golog.NewTestLogger(t))
	require.NoError(t, g.Connect())
	require.True(t, g.Connected())

	require.NoError(t, g.Disconnect())
	assert.True(t, fake.closed)
	assert.False(t, g.Connected())
}

func TestKeyboardMapping(t *testing.T) {
	k := newKeyboard(Config{Mode: "keyboard"}.withDefaults(), golog.NewTestLogger(t))

	vx, vy, omega := k.Velocities()
	assert.Zero(t, vx)
	assert.Zero(t, vy)
	assert.Zero(t, omega)

	k.pressed.press('w')
	k.pressed.press('a')
	k.pressed.press('e')
	vx, vy, omega = k.Velocities()
	assert.InDelta(t, 0.5, vx, 1e-9)
	assert.InDelta(t, 0.5, vy, 1e-9)
	assert.InDelta(t, -1.0, omega, 1e-9)

	// Opposing keys cancel.
	k.pressed.press('s')
	vx, _, _ = k.Velocities()
	assert.Zero(t, vx)

	k.pressed.release('w')
	k.pressed.release('s')
	k.pressed.release('a')
	k.pressed.release('e')
	vx, vy, omega = k.Velocities()
	assert.Zero(t, vx)
	assert.Zero(t, vy)
	assert.Zero(t, omega)
}

func TestApplyDeadzone(t *testing.T) {
	tests := []struct {
		v, deadzone, want float64
	}{
		{0.05, 0.15, 0},
		{-0.05, 0.15, 0},
		{0.15, 0.15, 0.15},
		{0.5, 0.15, 0.5},
		{-0.5, 0.15, -0.5},
	}
	for _, tt := range tests {
		got := applyDeadzone(tt.v, tt.deadzone)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("applyDeadzone(%f, %f) = %f, want %f", tt.v, tt.deadzone, got, tt.want)
		}
	}
}
