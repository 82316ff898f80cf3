package logic

// LightCalibration maps raw ambient light readings to a brightness percent.
// Whether a higher raw value means a brighter room depends on how the
// light-dependent resistor is wired, so the direction is configurable.
type LightCalibration struct {
	RawMin   int
	RawMax   int
	Inverted bool // true = higher raw value means darker
}

// DefaultLightCalibration matches a 12-bit ADC with brighter = higher.
func DefaultLightCalibration() LightCalibration {
	return LightCalibration{RawMin: 0, RawMax: 4095}
}

// Sample converts a raw reading to a LightSample. Raw values outside
// [RawMin, RawMax] are clamped.
func (c LightCalibration) Sample(raw int) LightSample {
	return LightSample{Raw: raw, Percent: c.Percent(raw)}
}

// Percent converts a raw reading to 0..100 using integer linear mapping.
func (c LightCalibration) Percent(raw int) int {
	lo, hi := c.RawMin, c.RawMax
	if hi <= lo {
		return 0
	}
	if raw < lo {
		raw = lo
	}
	if raw > hi {
		raw = hi
	}
	pct := (raw - lo) * 100 / (hi - lo)
	if c.Inverted {
		pct = 100 - pct
	}
	return pct
}
