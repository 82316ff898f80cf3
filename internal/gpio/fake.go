package gpio

import "errors"

// FakeMotion is a test double that returns scripted motion samples.
type FakeMotion struct {
	// Samples contains scripted motion values to return.
	// Each call to Motion() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Motion()
	ReadError error
}

// NewFakeMotion creates a FakeMotion with the given samples.
func NewFakeMotion(samples ...bool) *FakeMotion {
	return &FakeMotion{Samples: samples}
}

// Motion returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeMotion) Motion() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the sensor as closed.
func (f *FakeMotion) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the sensor to the beginning of samples.
func (f *FakeMotion) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeRelay records relay commands.
type FakeRelay struct {
	// On is the current relay state.
	On bool
	// Commands contains every SetPower argument in order.
	Commands []bool
	// SetError, if set, will be returned by SetPower.
	SetError error
	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeRelay creates a FakeRelay in the off state.
func NewFakeRelay() *FakeRelay {
	return &FakeRelay{}
}

// SetPower records the command.
func (f *FakeRelay) SetPower(on bool) error {
	f.Commands = append(f.Commands, on)
	if f.SetError != nil {
		return f.SetError
	}
	f.On = on
	return nil
}

// Close switches the fake relay off and marks it closed.
func (f *FakeRelay) Close() error {
	f.On = false
	f.Closed = true
	return nil
}
