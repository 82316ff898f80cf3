package pwm

// FakeDimmer records dimmer commands.
type FakeDimmer struct {
	// Level is the current output level.
	Level int
	// Levels contains every SetLevel argument in order.
	Levels []int
	// SetError, if set, will be returned by SetLevel.
	SetError error
	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDimmer creates a FakeDimmer at level 0.
func NewFakeDimmer() *FakeDimmer {
	return &FakeDimmer{}
}

// SetLevel records the command.
func (f *FakeDimmer) SetLevel(level int) error {
	f.Levels = append(f.Levels, level)
	if f.SetError != nil {
		return f.SetError
	}
	f.Level = level
	return nil
}

// Close switches the fake light off and marks it closed.
func (f *FakeDimmer) Close() error {
	f.Level = 0
	f.Closed = true
	return nil
}
