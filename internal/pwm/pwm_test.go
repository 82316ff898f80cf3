package pwm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeSysfs creates pwmchip0 with channel 0 already exported.
func fakeSysfs(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "pwmchip0", "pwm0"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func readAttr(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "pwmchip0", "pwm0", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return strings.TrimSpace(string(data))
}

func TestOpenConfiguresChannel(t *testing.T) {
	root := fakeSysfs(t)
	c, err := Open(root, 0, 0, time.Millisecond)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := readAttr(t, root, "period"); got != "1000000" {
		t.Errorf("period: got %s, want 1000000", got)
	}
	if got := readAttr(t, root, "enable"); got != "1" {
		t.Errorf("enable: got %s, want 1", got)
	}
	if got := readAttr(t, root, "duty_cycle"); got != "0" {
		t.Errorf("duty_cycle: got %s, want 0", got)
	}
	if c.exported {
		t.Error("existing channel should not be marked exported")
	}
}

func TestSetLevel(t *testing.T) {
	root := fakeSysfs(t)
	c, err := Open(root, 0, 0, time.Millisecond)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	tests := []struct {
		level int
		duty  string
	}{
		{255, "1000000"},
		{100, "392156"},
		{0, "0"},
		{300, "1000000"}, // clamped
		{-5, "0"},        // clamped
	}
	for _, tt := range tests {
		if err := c.SetLevel(tt.level); err != nil {
			t.Fatalf("SetLevel(%d): %v", tt.level, err)
		}
		if got := readAttr(t, root, "duty_cycle"); got != tt.duty {
			t.Errorf("SetLevel(%d): duty %s, want %s", tt.level, got, tt.duty)
		}
	}
}

func TestSetLevelSkipsRepeat(t *testing.T) {
	root := fakeSysfs(t)
	c, err := Open(root, 0, 0, time.Millisecond)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c.SetLevel(100)

	// Corrupt the file; a repeated level must not rewrite it.
	os.WriteFile(filepath.Join(root, "pwmchip0", "pwm0", "duty_cycle"), []byte("x"), 0o644)
	c.SetLevel(100)
	if got := readAttr(t, root, "duty_cycle"); got != "x" {
		t.Errorf("repeat level rewrote duty_cycle: %s", got)
	}
	if c.Level() != 100 {
		t.Errorf("Level: got %d, want 100", c.Level())
	}
}

func TestClose(t *testing.T) {
	root := fakeSysfs(t)
	c, err := Open(root, 0, 0, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c.SetLevel(255)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := readAttr(t, root, "duty_cycle"); got != "0" {
		t.Errorf("duty_cycle after close: %s", got)
	}
	if got := readAttr(t, root, "enable"); got != "0" {
		t.Errorf("enable after close: %s", got)
	}
}

func TestOpenMissingChip(t *testing.T) {
	if _, err := Open(t.TempDir(), 3, 0, 0); err == nil {
		t.Error("expected error for missing chip")
	}
}

func TestFakeDimmer(t *testing.T) {
	d := NewFakeDimmer()
	d.SetLevel(255)
	d.SetLevel(100)
	if d.Level != 100 || len(d.Levels) != 2 {
		t.Errorf("unexpected state: %+v", d)
	}
	d.Close()
	if d.Level != 0 || !d.Closed {
		t.Error("Close should zero level and mark closed")
	}
}
