//go:build linux

package sysinfo

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

func availableMemory() (uint64, error) {
	return memAvailableFrom("/proc/meminfo")
}

func memAvailableFrom(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, ErrUnavailable
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			break
		}
		return kb * 1024, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("sysinfo: MemAvailable not found in %s", path)
}
