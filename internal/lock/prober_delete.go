package lock

// deleteProber tries to delete the artifact. The editor holds it open without
// share-delete access, so deletion only succeeds when no instance is alive.
type deleteProber struct {
	remove func(path string) error
}

// NewDeleteProber returns a prober that uses remove as the liveness test.
func NewDeleteProber(remove func(path string) error) Prober {
	return &deleteProber{remove: remove}
}

func (p *deleteProber) Probe(path string) State {
	if err := p.remove(path); err != nil {
		return HeldByOtherProcess
	}
	return PresentButUnheld
}
