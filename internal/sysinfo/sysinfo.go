// Package sysinfo reads host resource headroom: free disk space for a path
// and available memory. Behind an interface so checks can be tested without
// depending on the host the tests run on.
package sysinfo

import "errors"

// ErrUnavailable means the platform offers no way to read the metric. The
// caller decides whether that is a failure; resource checks treat it as an
// advisory unknown rather than a fault.
var ErrUnavailable = errors.New("sysinfo: metric unavailable on this platform")

// Probe reads host resource metrics. All values are bytes.
type Probe interface {
	FreeDisk(path string) (uint64, error)
	AvailableMemory() (uint64, error)
}

type hostProbe struct{}

// New returns a Probe backed by the host OS.
func New() Probe {
	return hostProbe{}
}

func (hostProbe) FreeDisk(path string) (uint64, error) {
	return freeDisk(path)
}

func (hostProbe) AvailableMemory() (uint64, error) {
	return availableMemory()
}
