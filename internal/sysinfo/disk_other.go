//go:build !linux && !darwin

package sysinfo

func freeDisk(string) (uint64, error) {
	return 0, ErrUnavailable
}
