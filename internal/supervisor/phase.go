package supervisor

// Phase is a step of a single launch attempt.
//
//	Idle → LockChecking → {Blocked | Proceeding} → ManifestPatched →
//	Spawning → {SpawnFailed | Running} → Exited
type Phase int

const (
	Idle Phase = iota
	LockChecking
	Blocked
	Proceeding
	ManifestPatched
	Spawning
	SpawnFailed
	Running
	Exited
)

var phaseNames = [...]string{
	Idle:            "idle",
	LockChecking:    "lock_checking",
	Blocked:         "blocked",
	Proceeding:      "proceeding",
	ManifestPatched: "manifest_patched",
	Spawning:        "spawning",
	SpawnFailed:     "spawn_failed",
	Running:         "running",
	Exited:          "exited",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Terminal reports whether no transition leaves p.
func (p Phase) Terminal() bool {
	return p == Blocked || p == SpawnFailed || p == Exited
}

// next lists the legal successors of each phase.
var next = map[Phase][]Phase{
	Idle:            {LockChecking},
	LockChecking:    {Blocked, Proceeding},
	Proceeding:      {ManifestPatched, Blocked},
	ManifestPatched: {Spawning},
	Spawning:        {SpawnFailed, Running},
	Running:         {Exited},
}

func canTransition(from, to Phase) bool {
	for _, p := range next[from] {
		if p == to {
			return true
		}
	}
	return false
}
