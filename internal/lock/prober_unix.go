//go:build !windows

package lock

// DefaultProber returns the liveness probe for this platform.
func DefaultProber() Prober {
	return NewLsofProber()
}
