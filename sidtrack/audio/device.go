package audio

import "fmt"

// Callback is invoked by a device on its own thread whenever it needs the
// next buffer. It must fill buf completely and return promptly: no
// allocation, no logging, no I/O, no contended locks.
type Callback func(buf []byte)

// Device is the platform audio API boundary.
type Device interface {
	// Name identifies the device for logs.
	Name() string

	// Open requests a device matching desired and returns what was granted.
	// The granted spec may differ from the request; callers must not assume
	// otherwise. cb is called with buffers of granted.BufferBytes() bytes.
	Open(desired Spec, cb Callback) (granted Spec, h Handle, err error)
}

// Handle is an open device, owned exclusively by one Stream.
type Handle interface {
	// Pause stops (true) or resumes (false) the device clock.
	Pause(paused bool)

	// Close releases the device. The callback is not invoked after Close returns.
	Close() error
}

type unavailable struct {
	reason string
}

// Unavailable returns a device that always fails to open.
func Unavailable(reason string) Device {
	return unavailable{reason: reason}
}

func (u unavailable) Name() string {
	return "none"
}

func (u unavailable) Open(Spec, Callback) (Spec, Handle, error) {
	return Spec{}, nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, u.reason)
}
