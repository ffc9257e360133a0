package linecache

import (
	"encoding/json"
	"fmt"
	"testing"
)

// mustUpdate decodes a raw update payload or fails the test.
func mustUpdate(t *testing.T, raw string) *Update {
	t.Helper()
	u, err := DecodeUpdate(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("DecodeUpdate(%s): %v", raw, err)
	}
	return u
}

// seedCache builds a cache holding n lines "line 0" .. "line n-1".
func seedCache(t *testing.T, n int) *Cache {
	t.Helper()
	c := New()
	lines := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			lines += ","
		}
		lines += fmt.Sprintf(`{"text": "line %d\n"}`, i)
	}
	c.ApplyUpdate(mustUpdate(t, `{"ops": [{"op": "ins", "lines": [`+lines+`]}]}`))
	if c.Height() != n {
		t.Fatalf("seed cache height = %d, want %d", c.Height(), n)
	}
	return c
}

func TestInvalidateOnEmptyCache(t *testing.T) {
	c := New()
	c.ApplyUpdate(mustUpdate(t, `{"ops": [{"op": "invalidate", "n": 3}]}`))

	if c.Height() != 3 {
		t.Fatalf("Height() = %d, want 3", c.Height())
	}
	for i := 0; i < 3; i++ {
		if c.Line(i) != nil {
			t.Errorf("Line(%d) = %v, want nil", i, c.Line(i))
		}
	}
}

func TestInsertSingleLine(t *testing.T) {
	c := New()
	c.ApplyUpdate(mustUpdate(t, `{"ops": [{"op": "ins", "lines": [{"text": "hi\n"}]}]}`))

	if c.Height() != 1 {
		t.Fatalf("Height() = %d, want 1", c.Height())
	}
	line := c.Line(0)
	if line == nil {
		t.Fatal("Line(0) = nil, want line")
	}
	if line.Text != "hi\n" {
		t.Errorf("Text = %q, want %q", line.Text, "hi\n")
	}
	if len(line.Cursors) != 0 {
		t.Errorf("Cursors = %v, want empty", line.Cursors)
	}
	if len(line.Styles) != 0 {
		t.Errorf("Styles = %v, want empty", line.Styles)
	}
}

func TestCopySkipCopy(t *testing.T) {
	c := seedCache(t, 5)
	c.ApplyUpdate(mustUpdate(t,
		`{"ops": [{"op": "copy", "n": 2}, {"op": "skip", "n": 1}, {"op": "copy", "n": 2}]}`))

	if c.Height() != 4 {
		t.Fatalf("Height() = %d, want 4", c.Height())
	}
	want := []string{"line 0\n", "line 1\n", "line 3\n", "line 4\n"}
	for i, w := range want {
		line := c.Line(i)
		if line == nil {
			t.Fatalf("Line(%d) = nil, want %q", i, w)
		}
		if line.Text != w {
			t.Errorf("Line(%d).Text = %q, want %q", i, line.Text, w)
		}
	}
}

func TestCopyPreservesIdentity(t *testing.T) {
	c := New()
	c.ApplyUpdate(mustUpdate(t, `{"ops": [{"op": "ins", "lines": [
		{"text": "styled\n", "cursor": [2], "styles": [1, 3, 7]}
	]}]}`))
	orig := c.Line(0)

	c.ApplyUpdate(mustUpdate(t, `{"ops": [{"op": "copy", "n": 1}]}`))

	got := c.Line(0)
	if got != orig {
		t.Fatal("copy should carry the same line value over unchanged")
	}
	if got.Text != "styled\n" || len(got.Cursors) != 1 || len(got.Styles) != 1 {
		t.Errorf("copied line mutated: %+v", got)
	}
}

func TestCopyPreservesNilEntries(t *testing.T) {
	c := New()
	c.ApplyUpdate(mustUpdate(t,
		`{"ops": [{"op": "ins", "lines": [{"text": "a\n"}]}, {"op": "invalidate", "n": 1}]}`))

	c.ApplyUpdate(mustUpdate(t, `{"ops": [{"op": "copy", "n": 2}]}`))

	if c.Height() != 2 {
		t.Fatalf("Height() = %d, want 2", c.Height())
	}
	if c.Line(0) == nil || c.Line(0).Text != "a\n" {
		t.Errorf("Line(0) = %v, want a", c.Line(0))
	}
	if c.Line(1) != nil {
		t.Errorf("Line(1) = %v, want nil (copied placeholder)", c.Line(1))
	}
}

func TestInvalidateIgnoresReadCursor(t *testing.T) {
	c := seedCache(t, 3)
	// Invalidate must not consume old entries; the copy after it still
	// starts at old index 0.
	c.ApplyUpdate(mustUpdate(t,
		`{"ops": [{"op": "invalidate", "n": 2}, {"op": "copy", "n": 1}]}`))

	if c.Height() != 3 {
		t.Fatalf("Height() = %d, want 3", c.Height())
	}
	if c.Line(0) != nil || c.Line(1) != nil {
		t.Error("invalidated rows should be nil")
	}
	if line := c.Line(2); line == nil || line.Text != "line 0\n" {
		t.Errorf("Line(2) = %v, want old line 0", line)
	}
}

func TestCopyPastEndFillsWithPlaceholders(t *testing.T) {
	c := seedCache(t, 2)
	c.ApplyUpdate(mustUpdate(t, `{"ops": [{"op": "copy", "n": 5}]}`))

	if c.Height() != 5 {
		t.Fatalf("Height() = %d, want 5", c.Height())
	}
	if c.Line(0) == nil || c.Line(1) == nil {
		t.Error("existing lines should survive the copy")
	}
	for i := 2; i < 5; i++ {
		if c.Line(i) != nil {
			t.Errorf("Line(%d) = %v, want nil shortfall placeholder", i, c.Line(i))
		}
	}
}

func TestSkipPastEndIsTotal(t *testing.T) {
	c := seedCache(t, 2)
	c.ApplyUpdate(mustUpdate(t,
		`{"ops": [{"op": "skip", "n": 10}, {"op": "ins", "lines": [{"text": "x\n"}]}]}`))

	if c.Height() != 1 {
		t.Fatalf("Height() = %d, want 1", c.Height())
	}
	if line := c.Line(0); line == nil || line.Text != "x\n" {
		t.Errorf("Line(0) = %v, want x", line)
	}
}

func TestUnknownOpIgnored(t *testing.T) {
	c := seedCache(t, 1)
	c.ApplyUpdate(mustUpdate(t,
		`{"ops": [{"op": "sparkle", "n": 2}, {"op": "copy", "n": 1}]}`))

	if c.Height() != 1 {
		t.Fatalf("Height() = %d, want 1 (unknown op contributes nothing)", c.Height())
	}
	if line := c.Line(0); line == nil || line.Text != "line 0\n" {
		t.Errorf("Line(0) = %v, want old line 0", line)
	}
}

func TestHeightAccounting(t *testing.T) {
	c := seedCache(t, 6)
	// inserted 1 + copied 3 + invalidated 2 = 6
	c.ApplyUpdate(mustUpdate(t, `{"ops": [
		{"op": "ins", "lines": [{"text": "new\n"}]},
		{"op": "copy", "n": 3},
		{"op": "skip", "n": 2},
		{"op": "invalidate", "n": 2}
	]}`))

	if c.Height() != 6 {
		t.Errorf("Height() = %d, want 6", c.Height())
	}
}

func TestLineOutOfRange(t *testing.T) {
	c := seedCache(t, 1)
	if c.Line(-1) != nil {
		t.Error("Line(-1) should be nil")
	}
	if c.Line(1) != nil {
		t.Error("Line(1) should be nil")
	}
}
