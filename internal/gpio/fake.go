package gpio

import (
	"errors"
	"sync"
)

// FakeReader is a test double that returns scripted button samples.
type FakeReader struct {
	mu sync.Mutex

	// Samples contains scripted values to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = 0
	f.Closed = false
}

// FakeOutput records every value driven onto a line.
type FakeOutput struct {
	mu sync.Mutex

	// Values holds every value set, in order.
	Values []int

	// SetError, if set, is returned by SetValue and the value is not recorded.
	SetError error

	Closed bool
}

// SetValue records value.
func (o *FakeOutput) SetValue(value int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.SetError != nil {
		return o.SetError
	}
	o.Values = append(o.Values, value)
	return nil
}

// Value returns the last value set, or 0 if none.
func (o *FakeOutput) Value() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.Values) == 0 {
		return 0
	}
	return o.Values[len(o.Values)-1]
}

// Close marks the line as closed.
func (o *FakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Closed = true
	return nil
}
