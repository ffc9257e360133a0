package linecache

import (
	"encoding/json"
	"fmt"

	"github.com/vexedit/vex/internal/textpos"
)

// StyleSpan is a styled region of a line. Start and End are a half-open
// interval in UTF-16 code units.
type StyleSpan struct {
	ID    int
	Start int
	End   int
}

// Line is one row of document text plus its caret positions and style
// spans, as currently known to the front end. Carets and style ranges are
// in UTF-16 code units. Immutable once constructed.
type Line struct {
	Text    string
	Cursors []int
	Styles  []StyleSpan
}

// OpKind identifies one update instruction.
type OpKind int

const (
	// OpIns inserts freshly delivered lines.
	OpIns OpKind = iota
	// OpCopy carries lines over from the previous cache state.
	OpCopy
	// OpSkip drops lines from the previous cache state.
	OpSkip
	// OpInvalidate records lines whose content has not been delivered.
	OpInvalidate
	// OpUnknown is any op name this front end does not recognize. Unknown
	// ops are ignored on apply so newer cores keep working.
	OpUnknown
)

// Op is one instruction in an update batch.
type Op struct {
	Kind  OpKind
	N     int
	Lines []*Line
	// Name holds the wire name for OpUnknown ops.
	Name string
}

// Update is an ordered batch of ops transforming the prior line sequence
// into the new one.
type Update struct {
	Ops []Op
}

// ParseError reports a malformed update payload. Callers decide whether
// to drop the update, request a resync, or end the session.
type ParseError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed update: %s: %s", e.Field, e.Reason)
}

// Wire shapes. Pointer fields distinguish absent from zero.
type updateMsg struct {
	Ops *[]opMsg `json:"ops"`
}

type opMsg struct {
	Op    *string   `json:"op"`
	N     *int      `json:"n"`
	Lines []lineMsg `json:"lines"`
}

type lineMsg struct {
	Text   *string `json:"text"`
	Cursor []int   `json:"cursor"`
	Styles []int   `json:"styles"`
}

// DecodeUpdate parses the raw "update" payload into a typed Update.
// Absent or wrong-typed required fields produce a *ParseError rather than
// a panic or an abort.
func DecodeUpdate(raw json.RawMessage) (*Update, error) {
	var msg updateMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, &ParseError{Field: "update", Reason: err.Error()}
	}
	if msg.Ops == nil {
		return nil, &ParseError{Field: "ops", Reason: "missing required field"}
	}

	u := &Update{Ops: make([]Op, 0, len(*msg.Ops))}
	for i, om := range *msg.Ops {
		if om.Op == nil {
			return nil, &ParseError{
				Field:  fmt.Sprintf("ops[%d].op", i),
				Reason: "missing required field",
			}
		}
		op, err := decodeOp(i, om)
		if err != nil {
			return nil, err
		}
		u.Ops = append(u.Ops, op)
	}
	return u, nil
}

func decodeOp(i int, om opMsg) (Op, error) {
	switch *om.Op {
	case "ins":
		op := Op{Kind: OpIns, Lines: make([]*Line, 0, len(om.Lines))}
		for j, lm := range om.Lines {
			line, err := decodeLine(i, j, lm)
			if err != nil {
				return Op{}, err
			}
			op.Lines = append(op.Lines, line)
		}
		return op, nil
	case "copy", "skip", "invalidate":
		kind := map[string]OpKind{
			"copy":       OpCopy,
			"skip":       OpSkip,
			"invalidate": OpInvalidate,
		}[*om.Op]
		if om.N == nil {
			return Op{}, &ParseError{
				Field:  fmt.Sprintf("ops[%d].n", i),
				Reason: "missing required field",
			}
		}
		if *om.N < 0 {
			return Op{}, &ParseError{
				Field:  fmt.Sprintf("ops[%d].n", i),
				Reason: fmt.Sprintf("negative count %d", *om.N),
			}
		}
		return Op{Kind: kind, N: *om.N}, nil
	default:
		return Op{Kind: OpUnknown, Name: *om.Op}, nil
	}
}

// decodeLine builds a Line from its wire form, converting caret byte
// offsets and delta-encoded style triples into UTF-16 code units.
func decodeLine(i, j int, lm lineMsg) (*Line, error) {
	if lm.Text == nil {
		return nil, &ParseError{
			Field:  fmt.Sprintf("ops[%d].lines[%d].text", i, j),
			Reason: "missing required field",
		}
	}
	text := *lm.Text

	line := &Line{Text: text}
	if len(lm.Cursor) > 0 {
		line.Cursors = make([]int, 0, len(lm.Cursor))
		for _, byteOff := range lm.Cursor {
			line.Cursors = append(line.Cursors, textpos.ToUTF16Offset(text, byteOff))
		}
	}

	if len(lm.Styles) > 0 {
		if len(lm.Styles)%3 != 0 {
			return nil, &ParseError{
				Field:  fmt.Sprintf("ops[%d].lines[%d].styles", i, j),
				Reason: fmt.Sprintf("length %d is not a multiple of 3", len(lm.Styles)),
			}
		}
		line.Styles = make([]StyleSpan, 0, len(lm.Styles)/3)
		// Each triple is (start_delta, length, style_id); start_delta is
		// relative to the previous span's end, in byte offsets.
		end := 0
		for k := 0; k+2 < len(lm.Styles); k += 3 {
			start := end + lm.Styles[k]
			end = start + lm.Styles[k+1]
			line.Styles = append(line.Styles, StyleSpan{
				ID:    lm.Styles[k+2],
				Start: textpos.ToUTF16Offset(text, start),
				End:   textpos.ToUTF16Offset(text, end),
			})
		}
	}

	return line, nil
}
