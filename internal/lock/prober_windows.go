//go:build windows

package lock

import "golang.org/x/sys/windows"

// DefaultProber returns the liveness probe for this platform.
func DefaultProber() Prober {
	return NewDeleteProber(deleteFile)
}

func deleteFile(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	return windows.DeleteFile(p)
}
