//go:build linux || darwin

package sysinfo

import "syscall"

func freeDisk(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	// Bavail counts blocks available to unprivileged users, which is what
	// an operator-facing threshold should measure.
	return stat.Bavail * uint64(stat.Bsize), nil
}
