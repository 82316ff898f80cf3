package logic

import "testing"

func TestLightCalibrationPercent(t *testing.T) {
	c := DefaultLightCalibration()
	tests := []struct {
		raw  int
		want int
	}{
		{0, 0},
		{4095, 100},
		{2048, 50},
		{-10, 0},
		{5000, 100},
	}
	for _, tt := range tests {
		if got := c.Percent(tt.raw); got != tt.want {
			t.Errorf("Percent(%d): got %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestLightCalibrationInverted(t *testing.T) {
	c := LightCalibration{RawMin: 0, RawMax: 4095, Inverted: true}
	if got := c.Percent(0); got != 100 {
		t.Errorf("Percent(0): got %d, want 100", got)
	}
	if got := c.Percent(4095); got != 0 {
		t.Errorf("Percent(4095): got %d, want 0", got)
	}
}

func TestLightCalibrationMonotonic(t *testing.T) {
	c := LightCalibration{RawMin: 100, RawMax: 1000}
	prev := -1
	for raw := 0; raw <= 1100; raw += 7 {
		pct := c.Percent(raw)
		if pct < prev {
			t.Fatalf("not monotonic at raw=%d: %d < %d", raw, pct, prev)
		}
		if pct < 0 || pct > 100 {
			t.Fatalf("out of range at raw=%d: %d", raw, pct)
		}
		prev = pct
	}
}

func TestLightCalibrationDegenerateRange(t *testing.T) {
	c := LightCalibration{RawMin: 10, RawMax: 10}
	if got := c.Percent(10); got != 0 {
		t.Errorf("degenerate range: got %d, want 0", got)
	}
}

func TestLightCalibrationSample(t *testing.T) {
	s := DefaultLightCalibration().Sample(4095)
	if s.Raw != 4095 || s.Percent != 100 {
		t.Errorf("unexpected sample: %+v", s)
	}
}
