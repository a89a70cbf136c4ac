package lock

import (
	"context"
	"os/exec"
)

// lsofProber asks lsof whether any process has the artifact open.
// lsof exits 0 when it lists at least one handle and non-zero otherwise.
type lsofProber struct {
	// command is overridable for tests.
	command string
}

// NewLsofProber returns the POSIX prober.
func NewLsofProber() Prober {
	return &lsofProber{command: "lsof"}
}

func (p *lsofProber) Probe(path string) State {
	cmd := exec.CommandContext(context.Background(), p.command, path)
	if err := cmd.Run(); err != nil {
		return PresentButUnheld
	}
	return HeldByOtherProcess
}
