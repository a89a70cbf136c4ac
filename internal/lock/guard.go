// Package lock decides whether another editor instance already owns a
// project directory.
//
// The lock artifact belongs to the editor: the supervisor only probes it and,
// on platforms where deletion is the probe, removes it. It is never created
// here.
//
// Checking and spawning are not atomic. A second instance can take the lock
// between CheckLock and the editor's own startup; the editor detects that
// itself.
package lock

import (
	"errors"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_prober.go -package=mocks github.com/mattjoyce/mcprunner/internal/lock Prober

// ErrAlreadyOpen is returned when a live instance holds the project.
var ErrAlreadyOpen = errors.New("project is already open in another editor instance")

// State is the derived ownership state of a project directory.
type State int

const (
	// Absent means no lock artifact exists.
	Absent State = iota
	// HeldByOtherProcess means a live process has the artifact open.
	HeldByOtherProcess
	// PresentButUnheld means the artifact is stale.
	PresentButUnheld
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case HeldByOtherProcess:
		return "held"
	case PresentButUnheld:
		return "stale"
	default:
		return "unknown"
	}
}

// Prober reports whether an existing lock artifact is held by a live process.
// Implementations may have side effects on the artifact.
type Prober interface {
	Probe(path string) State
}

// ArtifactPath returns the editor's lock artifact for projectDir.
func ArtifactPath(projectDir string) string {
	return filepath.Join(projectDir, "Temp", "UnityLockFile")
}

// CheckLock derives the lock state of the artifact at path.
func CheckLock(path string, prober Prober) State {
	if _, err := os.Stat(path); err != nil {
		return Absent
	}
	return prober.Probe(path)
}

// Err converts a state to the error that should stop the launch, if any.
func (s State) Err() error {
	if s == HeldByOtherProcess {
		return ErrAlreadyOpen
	}
	return nil
}
