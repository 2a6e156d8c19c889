//go:build !linux

package sysinfo

func availableMemory() (uint64, error) {
	return 0, ErrUnavailable
}
