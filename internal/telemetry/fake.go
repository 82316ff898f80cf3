package telemetry

// FakeChannel records published payloads for test assertions.
type FakeChannel struct {
	// Payloads contains every payload that was accepted.
	Payloads [][]byte
	// Attempts counts every Publish call, including failures.
	Attempts int
	// PublishError, if set, will be returned by Publish.
	PublishError error
	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakeChannel creates a connected FakeChannel.
func NewFakeChannel() *FakeChannel {
	return &FakeChannel{Connected: true}
}

// Publish records the payload.
func (f *FakeChannel) Publish(payload []byte) error {
	f.Attempts++
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Payloads = append(f.Payloads, append([]byte(nil), payload...))
	return nil
}

// IsConnected reports whether the fake channel is "connected".
func (f *FakeChannel) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded payloads and errors.
func (f *FakeChannel) Reset() {
	f.Payloads = nil
	f.Attempts = 0
	f.PublishError = nil
	f.Connected = true
}
