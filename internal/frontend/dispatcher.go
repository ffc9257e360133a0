package frontend

import (
	"encoding/json"
	"sync"
)

// Dispatcher forwards core notifications to the App once it exists. The
// peer needs a handler at construction and the app needs the peer, so the
// dispatcher breaks the cycle: wire the peer to a Dispatcher, build the
// App, then SetApp.
type Dispatcher struct {
	mu  sync.Mutex
	app *App
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// SetApp installs the destination app. Notifications arriving before
// SetApp are dropped.
func (d *Dispatcher) SetApp(app *App) {
	d.mu.Lock()
	d.app = app
	d.mu.Unlock()
}

// Notification implements core.Handler.
func (d *Dispatcher) Notification(method string, params json.RawMessage) {
	d.mu.Lock()
	app := d.app
	d.mu.Unlock()
	if app != nil {
		app.Notification(method, params)
	}
}
