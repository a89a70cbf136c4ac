// Package supervisor drives one editor launch from the lock check to the
// supervisor's own exit code.
//
// Exit code policy:
//   - precondition failures (bad project path, project already open, manifest
//     cannot be patched) and spawn failures: 1, nothing is spawned
//   - the editor exits with a code: that code
//   - the editor ends without a code (killed by a signal): 0
//
// The diagnostic sink, when enabled, is opened once the project directory
// is known to exist, before the lock is probed, and closed exactly once.
// A launch is never retried.
package supervisor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/mcprunner/internal/bridge"
	"github.com/mattjoyce/mcprunner/internal/config"
	"github.com/mattjoyce/mcprunner/internal/env"
	"github.com/mattjoyce/mcprunner/internal/launch"
	"github.com/mattjoyce/mcprunner/internal/lock"
	"github.com/mattjoyce/mcprunner/internal/log"
	"github.com/mattjoyce/mcprunner/internal/manifest"
)

// ExitFailure is returned for every failure the supervisor itself detects.
const ExitFailure = 1

// defaultDrainGrace is how long the pump may sit idle, waiting for output,
// after the editor exits. Helper processes that inherited the editor's stdout
// would otherwise hold the pipe open forever. Output still being forwarded
// never counts against it.
const defaultDrainGrace = 2 * time.Second

// ErrInvalidProject is reported when the project path is not a directory.
var ErrInvalidProject = errors.New("project path is not a valid directory")

// StartFunc spawns the editor. launch.Start is the production value.
type StartFunc func(req config.LaunchRequest, env []string, stderr io.Writer) (*launch.Child, error)

// Supervisor runs launch attempts. Build it with New.
type Supervisor struct {
	prober     lock.Prober
	start      StartFunc
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	environ    func() []string
	goos       string
	drainGrace time.Duration

	logger  *slog.Logger
	phase   Phase
	history []Phase
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithProber overrides the platform lock prober.
func WithProber(p lock.Prober) Option {
	return func(s *Supervisor) { s.prober = p }
}

// WithStarter overrides how the editor is spawned.
func WithStarter(f StartFunc) Option {
	return func(s *Supervisor) { s.start = f }
}

// WithStdio replaces the supervisor's own standard streams.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(s *Supervisor) {
		s.stdin = stdin
		s.stdout = stdout
		s.stderr = stderr
	}
}

// WithEnviron replaces the parent environment source.
func WithEnviron(f func() []string) Option {
	return func(s *Supervisor) { s.environ = f }
}

// WithPlatform overrides the GOOS used to compose the editor environment.
func WithPlatform(goos string) Option {
	return func(s *Supervisor) { s.goos = goos }
}

// WithDrainGrace sets how long the output pipe may stay idle after the editor
// exits before it is closed.
func WithDrainGrace(d time.Duration) Option {
	return func(s *Supervisor) { s.drainGrace = d }
}

// New returns a Supervisor wired to the real process, platform and streams.
func New(opts ...Option) *Supervisor {
	s := &Supervisor{
		prober:     lock.DefaultProber(),
		start:      launch.Start,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		environ:    os.Environ,
		goos:       runtime.GOOS,
		drainGrace: defaultDrainGrace,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Phase returns the phase reached by the last Run.
func (s *Supervisor) Phase() Phase {
	return s.phase
}

// History returns every phase the last Run went through, in order.
func (s *Supervisor) History() []Phase {
	return append([]Phase(nil), s.history...)
}

func (s *Supervisor) transition(to Phase) {
	if !canTransition(s.phase, to) {
		s.logger.Error("illegal phase transition", "from", s.phase.String(), "to", to.String())
	}
	s.logger.Debug("phase", "from", s.phase.String(), "to", to.String())
	s.phase = to
	s.history = append(s.history, to)
}

// fail reports a supervisor-detected failure on stderr and ends the attempt.
func (s *Supervisor) fail(to Phase, err error) int {
	s.transition(to)
	fmt.Fprintf(s.stderr, "%v\n", err)
	s.logger.Debug("launch aborted", "phase", to.String(), "error", err)
	return ExitFailure
}

// Run performs one launch attempt and returns the process exit code.
func (s *Supervisor) Run(req config.LaunchRequest) int {
	launchID := uuid.NewString()
	s.logger = log.WithLaunch(launchID).With("component", "supervisor")
	s.phase = Idle
	s.history = []Phase{Idle}

	s.transition(LockChecking)
	if err := req.Validate(); err != nil {
		return s.fail(Blocked, fmt.Errorf("invalid launch request: %w", err))
	}
	if info, err := os.Stat(req.ProjectDir); err != nil || !info.IsDir() {
		return s.fail(Blocked, fmt.Errorf("%w: %s", ErrInvalidProject, req.ProjectDir))
	}

	// The log lives in the project, so it is only opened once the project
	// is known to exist.
	sink := s.openSink(req, launchID)
	defer sink.Close()

	artifact := lock.ArtifactPath(req.ProjectDir)
	state := lock.CheckLock(artifact, s.prober)
	s.logger.Info("lock checked", "artifact", artifact, "state", state.String())
	if err := state.Err(); err != nil {
		return s.fail(Blocked, fmt.Errorf("%w: %s", err, req.ProjectDir))
	}
	if state == lock.PresentButUnheld {
		sink.Printf("Lock file exists but not held by any process, proceeding...\n")
	}
	s.transition(Proceeding)

	ref := manifest.PackageRef(req)
	sink.Printf("Package URL: %s\n", ref)
	res, err := manifest.Patch(req.ProjectDir, req.PackageName, ref)
	if err != nil {
		return s.fail(Blocked, err)
	}
	s.logger.Info("manifest patched", "path", res.Path, "package", req.PackageName,
		"ref", ref, "changed", res.Changed, "blake3", res.After)
	s.transition(ManifestPatched)

	childEnv := env.Compose(s.environ(), s.goos)

	s.transition(Spawning)
	child, err := s.start(req, childEnv, s.stderr)
	if err != nil {
		return s.fail(SpawnFailed, err)
	}
	s.transition(Running)
	s.logger.Info("editor started", "pid", child.Pid(), "editor", req.EditorPath, "args", launch.Args(req))

	return s.supervise(child, sink)
}

func (s *Supervisor) openSink(req config.LaunchRequest, launchID string) *bridge.Sink {
	if !req.Dev {
		return nil
	}
	sink, err := bridge.OpenSink(req.LogPath())
	if err != nil {
		s.logger.Warn("diagnostic log disabled", "path", req.LogPath(), "error", err)
		return nil
	}
	sink.Printf("mcprunner launch %s\n", launchID)
	return sink
}

// supervise runs the three flows until the editor has exited and its output
// has been drained, then maps the outcome to an exit code.
func (s *Supervisor) supervise(child *launch.Child, sink *bridge.Sink) int {
	go func() {
		if err := bridge.RelayStdin(s.stdin, child.Stdin, sink); err != nil {
			s.logger.Debug("stdin relay stopped", "error", err)
		}
	}()

	var (
		g       errgroup.Group
		exit    launch.Exit
		stats   bridge.PumpStats
		pumpErr error
	)
	pumped := make(chan struct{})
	out := &outputWatch{r: child.Stdout}

	g.Go(func() error {
		defer close(pumped)
		stats, pumpErr = bridge.PumpStdout(out, s.stdout, sink)
		return nil
	})
	g.Go(func() error {
		var err error
		exit, err = child.Wait()
		exitedAt := time.Now()

		tick := time.NewTicker(pollInterval(s.drainGrace))
		defer tick.Stop()
		for {
			select {
			case <-pumped:
				return err
			case now := <-tick.C:
				if out.idleFor(exitedAt, now) < s.drainGrace {
					continue
				}
				s.logger.Warn("editor output idle after exit, closing", "grace", s.drainGrace)
				_ = child.Stdout.Close()
				return err
			}
		}
	})
	waitErr := g.Wait()
	_ = child.Stdout.Close()

	s.transition(Exited)
	if pumpErr != nil && !errors.Is(pumpErr, os.ErrClosed) {
		s.logger.Warn("stdout relay error", "error", pumpErr)
	}
	s.logger.Info("editor exited", "code", exit.Code, "known", exit.Known, "state", exit.State,
		"frames", stats.Frames, "dropped", stats.Dropped)

	if waitErr != nil {
		fmt.Fprintf(s.stderr, "%v\n", waitErr)
		return ExitFailure
	}
	if !exit.Known {
		return 0
	}
	return exit.Code
}
