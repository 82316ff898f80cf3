package iio

// ClimateSample is one scripted climate reading.
type ClimateSample struct {
	TempC  float64
	HumPct float64
	Err    error // returned instead of the values when set
}

// FakeClimate returns scripted climate readings.
// If samples are exhausted, returns the last sample repeatedly.
type FakeClimate struct {
	Samples []ClimateSample
	index   int
}

// NewFakeClimate creates a FakeClimate with the given samples.
func NewFakeClimate(samples ...ClimateSample) *FakeClimate {
	return &FakeClimate{Samples: samples}
}

// Climate returns the next scripted sample.
func (f *FakeClimate) Climate() (float64, float64, error) {
	if len(f.Samples) == 0 {
		return 0, 0, ErrUnavailable
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	if s.Err != nil {
		return 0, 0, s.Err
	}
	return s.TempC, s.HumPct, nil
}

// FakeLight returns scripted raw light readings.
type FakeLight struct {
	Raw []int
	// ReadError, if set, will be returned by LightRaw.
	ReadError error
	index     int
}

// NewFakeLight creates a FakeLight with the given raw values.
func NewFakeLight(raw ...int) *FakeLight {
	return &FakeLight{Raw: raw}
}

// LightRaw returns the next scripted value.
func (f *FakeLight) LightRaw() (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Raw) == 0 {
		return 0, ErrUnavailable
	}
	v := f.Raw[f.index]
	if f.index < len(f.Raw)-1 {
		f.index++
	}
	return v, nil
}
