package input

import (
	"fmt"
	"sync"
	"unicode"

	"github.com/edaniels/golog"
	hook "github.com/robotn/gohook"
)

// keySet is the currently-pressed key snapshot shared between the listener
// goroutine and the control loop.
type keySet struct {
	mu   sync.Mutex
	keys map[rune]bool
}

func newKeySet() *keySet {
	return &keySet{keys: make(map[rune]bool)}
}

func (s *keySet) press(r rune)   { s.mu.Lock(); s.keys[r] = true; s.mu.Unlock() }
func (s *keySet) release(r rune) { s.mu.Lock(); delete(s.keys, r); s.mu.Unlock() }

func (s *keySet) held(r rune) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[r]
}

// Keyboard maps held keys to base velocities:
//
//	w/s  forward/back   (vx)
//	a/d  strafe left/right (vy)
//	q/e  rotate ccw/cw  (omega)
//
// Key press/release events come from a global hook running on its own
// goroutine; the control loop only reads the pressed-key snapshot.
type Keyboard struct {
	cfg     Config
	logger  golog.Logger
	pressed *keySet

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

func newKeyboard(cfg Config, logger golog.Logger) *Keyboard {
	return &Keyboard{
		cfg:     cfg,
		logger:  logger,
		pressed: newKeySet(),
	}
}

// Connect starts the global key listener. Idempotent while running.
func (k *Keyboard) Connect() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.running {
		return nil
	}

	events := hook.Start()
	if events == nil {
		return fmt.Errorf("start keyboard hook")
	}
	k.done = make(chan struct{})
	k.running = true
	go k.listen(events)
	k.logger.Info("keyboard input connected")
	return nil
}

func (k *Keyboard) listen(events chan hook.Event) {
	defer close(k.done)
	for ev := range events {
		switch ev.Kind {
		case hook.KeyDown, hook.KeyHold:
			k.pressed.press(unicode.ToLower(ev.Keychar))
		case hook.KeyUp:
			k.pressed.release(unicode.ToLower(ev.Keychar))
		}
	}
	k.mu.Lock()
	k.running = false
	k.mu.Unlock()
}

// Disconnect stops the listener and clears the key snapshot.
func (k *Keyboard) Disconnect() error {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return nil
	}
	k.mu.Unlock()

	hook.End()
	<-k.done

	k.pressed = newKeySet()
	k.logger.Info("keyboard input disconnected")
	return nil
}

// Connected reports whether the listener goroutine is alive.
func (k *Keyboard) Connected() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}

// Velocities derives a sign-based twist from the held keys.
func (k *Keyboard) Velocities() (vx, vy, omega float64) {
	if k.pressed.held('w') {
		vx += k.cfg.MaxLinearSpeed
	}
	if k.pressed.held('s') {
		vx -= k.cfg.MaxLinearSpeed
	}
	if k.pressed.held('a') {
		vy += k.cfg.MaxLinearSpeed
	}
	if k.pressed.held('d') {
		vy -= k.cfg.MaxLinearSpeed
	}
	if k.pressed.held('q') {
		omega += k.cfg.MaxAngularSpeed
	}
	if k.pressed.held('e') {
		omega -= k.cfg.MaxAngularSpeed
	}
	return vx, vy, omega
}
