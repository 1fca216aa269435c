// Package tray provides an optional system tray control for the Cascade
// juggling trainer: mute the feedback tones, see the last verdict, quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onMute func(muted bool)
	onQuit func()
	muted  bool
	mu     sync.RWMutex

	// Menu items stored for later updates
	menuMute    *systray.MenuItem
	menuVerdict *systray.MenuItem
}

// New creates a new Tray instance with tones unmuted by default.
func New() *Tray {
	return &Tray{}
}

// OnMute sets the callback function to be called when the mute state is toggled.
func (t *Tray) OnMute(fn func(muted bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMute = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Cascade")
	systray.SetTooltip("Cascade Juggling Trainer")

	t.menuMute = systray.AddMenuItem("● Sounds on", "Toggle feedback tones")
	systray.AddSeparator()

	t.menuVerdict = systray.AddMenuItem("Last: none", "Last throw verdict")
	t.menuVerdict.Disable()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Cascade")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuMute.ClickedCh:
				t.handleMute()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handleMute handles the mute menu item click.
func (t *Tray) handleMute() {
	t.mu.Lock()
	t.muted = !t.muted
	muted := t.muted

	if muted {
		t.menuMute.SetTitle("○ Sounds off")
	} else {
		t.menuMute.SetTitle("● Sounds on")
	}

	callback := t.onMute
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(muted)
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Quit shuts the tray down, unblocking Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// SetLastVerdict updates the last verdict display in the menu.
func (t *Tray) SetLastVerdict(verdict string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuVerdict != nil {
		if verdict == "" {
			t.menuVerdict.SetTitle("Last: none")
		} else {
			t.menuVerdict.SetTitle("Last: " + verdict)
		}
	}
}

// Muted returns the current mute state.
func (t *Tray) Muted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.muted
}
