// Package editview tracks the protocol state of one remote document view:
// its line cache, viewport, and the edit commands it issues.
//
// A View performs no internal locking. All calls for one view are funneled
// through a single goroutine — in practice the one that dispatches core
// notifications — which also keeps line cache writes single-writer.
package editview

import (
	"encoding/json"

	"github.com/vexedit/vex/internal/linecache"
)

// Sender issues outbound protocol notifications. *core.Peer satisfies it.
type Sender interface {
	SendNotification(method string, params any) error
}

// Action names understood by the core's edit namespace.
const (
	ActionInsertNewline = "insert_newline"
	ActionInsertTab     = "insert_tab"

	ActionMoveUp    = "move_up"
	ActionMoveDown  = "move_down"
	ActionMoveLeft  = "move_left"
	ActionMoveRight = "move_right"

	ActionMoveUpSel    = "move_up_and_modify_selection"
	ActionMoveDownSel  = "move_down_and_modify_selection"
	ActionMoveLeftSel  = "move_left_and_modify_selection"
	ActionMoveRightSel = "move_right_and_modify_selection"

	ActionMoveWordLeft     = "move_word_left"
	ActionMoveWordRight    = "move_word_right"
	ActionMoveWordLeftSel  = "move_word_left_and_modify_selection"
	ActionMoveWordRightSel = "move_word_right_and_modify_selection"

	ActionMoveLineStart    = "move_to_left_end_of_line"
	ActionMoveLineEnd      = "move_to_right_end_of_line"
	ActionMoveLineStartSel = "move_to_left_end_of_line_and_modify_selection"
	ActionMoveLineEndSel   = "move_to_right_end_of_line_and_modify_selection"

	ActionMoveDocStart    = "move_to_beginning_of_document"
	ActionMoveDocEnd      = "move_to_end_of_document"
	ActionMoveDocStartSel = "move_to_beginning_of_document_and_modify_selection"
	ActionMoveDocEndSel   = "move_to_end_of_document_and_modify_selection"

	ActionPageUp      = "scroll_page_up"
	ActionPageDown    = "scroll_page_down"
	ActionPageUpSel   = "page_up_and_modify_selection"
	ActionPageDownSel = "page_down_and_modify_selection"

	ActionDeleteBackward     = "delete_backward"
	ActionDeleteForward      = "delete_forward"
	ActionDeleteWordBackward = "delete_word_backward"
	ActionDeleteWordForward  = "delete_word_forward"
	ActionDeleteToLineStart  = "delete_to_beginning_of_line"
	ActionDeleteToParaEnd    = "delete_to_end_of_paragraph"

	ActionIndent  = "indent"
	ActionOutdent = "outdent"

	ActionUndo      = "undo"
	ActionRedo      = "redo"
	ActionUppercase = "uppercase"
	ActionLowercase = "lowercase"
	ActionTranspose = "transpose"

	ActionAddSelectionAbove = "add_selection_above"
	ActionAddSelectionBelow = "add_selection_below"
	ActionCancel            = "cancel_operation"
	ActionSelectAll         = "select_all"
)

// WithSelection chooses the selection-modifying variant of a movement
// action when extend is true.
func WithSelection(normal, extended string, extend bool) string {
	if extend {
		return extended
	}
	return normal
}

type pendingCmd struct {
	method string
	params any
}

// View is the front end's handle on one remote document view.
type View struct {
	sender Sender
	id     string
	cache  *linecache.Cache

	// viewport is the last [first, last) line range reported to the core.
	viewport [2]int

	// pending queues edit commands issued before the core has assigned a
	// view id; they flush, in order, on SetViewID.
	pending []pendingCmd

	// reveal is the last core-requested scroll_to line, -1 when none.
	reveal int
}

// New creates a view not yet bound to a core view id.
func New(sender Sender) *View {
	return &View{
		sender: sender,
		cache:  linecache.New(),
		reveal: -1,
	}
}

// ViewID returns the core-assigned id, empty until SetViewID.
func (v *View) ViewID() string {
	return v.id
}

// SetViewID binds the view to its core-assigned id and flushes any
// commands queued while the id was outstanding, in issue order.
func (v *View) SetViewID(id string) {
	v.id = id
	pending := v.pending
	v.pending = nil
	for _, cmd := range pending {
		v.sendEditCmd(cmd.method, cmd.params)
	}
}

// Cache exposes the view's line cache to the rendering layer.
func (v *View) Cache() *linecache.Cache {
	return v.cache
}

// ApplyUpdate decodes an update payload and rebuilds the line cache. A
// *linecache.ParseError leaves the cache untouched.
func (v *View) ApplyUpdate(raw json.RawMessage) error {
	u, err := linecache.DecodeUpdate(raw)
	if err != nil {
		return err
	}
	v.cache.ApplyUpdate(u)
	return nil
}

// editCmd is the envelope for the core's "edit" notification namespace.
type editCmd struct {
	Method string `json:"method"`
	Params any    `json:"params"`
	ViewID string `json:"view_id"`
}

// SendEditCmd addresses an edit command to this view. Commands issued
// before the core has assigned a view id are queued.
func (v *View) SendEditCmd(method string, params any) error {
	if v.id == "" {
		v.pending = append(v.pending, pendingCmd{method: method, params: params})
		return nil
	}
	return v.sendEditCmd(method, params)
}

func (v *View) sendEditCmd(method string, params any) error {
	return v.sender.SendNotification("edit", editCmd{
		Method: method,
		Params: params,
		ViewID: v.id,
	})
}

// SendAction sends a parameterless edit command.
func (v *View) SendAction(method string) error {
	return v.SendEditCmd(method, []any{})
}

// Insert types chars at the current selection. Control characters below
// U+0020 are dropped; newline and tab travel as their own actions.
func (v *View) Insert(chars string) error {
	kept := make([]rune, 0, len(chars))
	for _, r := range chars {
		if r >= 0x20 {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return v.SendEditCmd("insert", map[string]any{"chars": string(kept)})
}

// PointSelect reports a pointer press at line/col. col is a byte offset
// within the line, as produced by hit testing through textpos.
func (v *View) PointSelect(line, col int) error {
	return v.SendEditCmd("gesture", map[string]any{
		"ty":   "point_select",
		"line": line,
		"col":  col,
	})
}

// SetViewport tells the core which lines are visible, [first, last). The
// scroll command is sent only when the range actually changed.
func (v *View) SetViewport(first, last int) error {
	if v.viewport[0] == first && v.viewport[1] == last {
		return nil
	}
	v.viewport = [2]int{first, last}
	return v.SendEditCmd("scroll", []int{first, last})
}

// Viewport returns the last reported [first, last) range.
func (v *View) Viewport() (first, last int) {
	return v.viewport[0], v.viewport[1]
}

// ScrollTo records a core-requested reveal line.
func (v *View) ScrollTo(line int) {
	v.reveal = line
}

// TakeReveal returns the pending reveal line, if any, and clears it. The
// rendering layer consumes this when it next lays out the view.
func (v *View) TakeReveal() (int, bool) {
	if v.reveal < 0 {
		return 0, false
	}
	line := v.reveal
	v.reveal = -1
	return line, true
}
