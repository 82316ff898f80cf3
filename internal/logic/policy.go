package logic

// Thresholds configures the actuation policy.
type Thresholds struct {
	// Ambient light above BrightPct turns the artificial light off.
	BrightPct int
	// Ambient light above DimPct (and at most BrightPct) selects medium.
	DimPct int
	// Temperatures strictly above AlertTempC raise the thermal alert.
	AlertTempC float64
}

// DefaultThresholds returns the 70% / 40% / 24.0°C policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BrightPct:  70,
		DimPct:     40,
		AlertTempC: 24.0,
	}
}

// Policy maps occupancy and readings to actuator targets.
type Policy struct {
	Thresholds Thresholds
}

// NewPolicy creates a policy with the given thresholds.
func NewPolicy(th Thresholds) Policy {
	return Policy{Thresholds: th}
}

// Compute returns the actuator targets. It has no side effects.
// An unoccupied room always gets EcoTargets. A nil temperature never
// raises the thermal alert.
func (p Policy) Compute(occupied bool, lightPct int, tempC *float64) ActuatorTargets {
	if !occupied {
		return EcoTargets
	}

	targets := ActuatorTargets{PowerOn: true}

	switch {
	case lightPct > p.Thresholds.BrightPct:
		targets.Light = LightOff
	case lightPct > p.Thresholds.DimPct:
		targets.Light = LightMedium
	default:
		targets.Light = LightFull
	}

	targets.ThermalAlert = tempC != nil && *tempC > p.Thresholds.AlertTempC
	return targets
}

// LevelValues maps each LightLevel to its PWM-equivalent value.
type LevelValues struct {
	Off    int
	Medium int
	Full   int
}

// DefaultLevelValues returns the 8-bit PWM values 0 / 100 / 255.
func DefaultLevelValues() LevelValues {
	return LevelValues{Off: 0, Medium: 100, Full: 255}
}

// Value returns the encoded value for the given level.
func (v LevelValues) Value(l LightLevel) int {
	switch l {
	case LightMedium:
		return v.Medium
	case LightFull:
		return v.Full
	}
	return v.Off
}
