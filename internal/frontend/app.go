// Package frontend coordinates the open views and routes core
// notifications to them.
package frontend

import (
	"encoding/json"
	"sync"

	"github.com/vexedit/vex/internal/core"
	"github.com/vexedit/vex/internal/editview"
	"github.com/vexedit/vex/internal/log"
)

// Core is the slice of the transport the app uses. *core.Peer satisfies
// it.
type Core interface {
	SendNotification(method string, params any) error
	SendRequest(method string, params any, fn core.ResponseFunc) error
}

// App owns the view registry and implements core.Handler. Notifications
// arrive on the peer's receive goroutine; view state is only ever touched
// from there (or before the view is registered), so views themselves need
// no locking.
type App struct {
	peer   Core
	logger *log.Logger

	mu      sync.Mutex
	views   map[string]*editview.View
	focused string
}

// NewApp creates an app sending through peer.
func NewApp(peer Core, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Discard()
	}
	return &App{
		peer:   peer,
		logger: logger,
		views:  make(map[string]*editview.View),
	}
}

// Notification implements core.Handler.
func (a *App) Notification(method string, params json.RawMessage) {
	switch method {
	case "update":
		a.handleUpdate(params)
	case "scroll_to":
		a.handleScrollTo(params)
	case "available_themes", "available_plugins", "available_languages",
		"config_changed", "language_changed", "theme_changed":
		// Informational; nothing consumes these yet.
	default:
		a.logger.Debugf("unhandled core notification %q", method)
	}
}

// handleUpdate routes an update payload to its view's line cache. A
// malformed payload is logged and dropped; the session continues.
func (a *App) handleUpdate(params json.RawMessage) {
	var msg struct {
		ViewID string          `json:"view_id"`
		Update json.RawMessage `json:"update"`
	}
	if err := json.Unmarshal(params, &msg); err != nil {
		a.logger.Warnf("dropping malformed update notification: %v", err)
		return
	}
	if msg.Update == nil {
		a.logger.Warnf("dropping update notification without update field")
		return
	}

	view := a.lookup(msg.ViewID)
	if view == nil {
		a.logger.Warnf("update for unknown view %q", msg.ViewID)
		return
	}
	if err := view.ApplyUpdate(msg.Update); err != nil {
		a.logger.Warnf("dropping update for view %q: %v", view.ViewID(), err)
	}
}

func (a *App) handleScrollTo(params json.RawMessage) {
	var msg struct {
		ViewID string `json:"view_id"`
		Line   int    `json:"line"`
		Col    int    `json:"col"`
	}
	if err := json.Unmarshal(params, &msg); err != nil {
		a.logger.Warnf("dropping malformed scroll_to notification: %v", err)
		return
	}
	if view := a.lookup(msg.ViewID); view != nil {
		view.ScrollTo(msg.Line)
	}
}

// lookup finds the view for id, falling back to the focused view when the
// id is absent. The original single-window front end addressed all
// traffic to its one view; the fallback keeps that traffic working.
func (a *App) lookup(id string) *editview.View {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id != "" {
		return a.views[id]
	}
	return a.views[a.focused]
}

// NewView asks the core for a new view, optionally backed by a file. The
// view is usable immediately: commands queue until the core responds with
// its id, at which point the view is registered, focused, and flushed.
func (a *App) NewView(path string) (*editview.View, error) {
	view := editview.New(a.peer)

	params := map[string]any{}
	if path != "" {
		params["file_path"] = path
	}
	err := a.peer.SendRequest("new_view", params, func(result json.RawMessage) {
		var id string
		if err := json.Unmarshal(result, &id); err != nil {
			a.logger.Errorf("new_view response is not a view id: %v", err)
			return
		}
		a.mu.Lock()
		a.views[id] = view
		a.focused = id
		a.mu.Unlock()
		view.SetViewID(id)
		a.logger.Infof("view %s opened (path %q)", id, path)
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// CloseView tells the core the view is gone and drops it from the
// registry.
func (a *App) CloseView(id string) error {
	a.mu.Lock()
	delete(a.views, id)
	if a.focused == id {
		a.focused = ""
	}
	a.mu.Unlock()
	return a.peer.SendNotification("close_view", map[string]any{"view_id": id})
}

// Focused returns the focused view, or nil when none is open.
func (a *App) Focused() *editview.View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.views[a.focused]
}

// View returns the view registered under id, or nil.
func (a *App) View(id string) *editview.View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.views[id]
}

// Save asks the core to persist a view to path.
func (a *App) Save(viewID, path string) error {
	return a.peer.SendNotification("save", map[string]any{
		"view_id":   viewID,
		"file_path": path,
	})
}

// ClientStarted announces the front end to the core. configDir may be
// empty.
func (a *App) ClientStarted(configDir string) error {
	params := map[string]any{}
	if configDir != "" {
		params["config_dir"] = configDir
	}
	return a.peer.SendNotification("client_started", params)
}
