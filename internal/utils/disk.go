package utils

import "github.com/shirou/gopsutil/v3/disk"

// FreeSpace reports the bytes available on the filesystem holding path.
func FreeSpace(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}
