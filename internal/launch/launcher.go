// Package launch spawns the editor with the arguments and pipes the
// supervisor needs.
package launch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/mattjoyce/mcprunner/internal/config"
)

// ErrSpawn wraps every failure to create the editor process.
var ErrSpawn = errors.New("spawn editor")

// Args returns the editor command line: the fixed project, MCP-mode and
// log-to-stdout flags, then the passthrough arguments untouched.
func Args(req config.LaunchRequest) []string {
	args := []string{"-projectPath", req.ProjectDir, "-mcp", "-logFile", "-"}
	return append(args, req.Passthrough...)
}

// Exit is the terminal state of the editor process.
type Exit struct {
	Code int
	// Known is false when the platform reported no exit code, e.g. the
	// process was killed by a signal.
	Known bool
	State string
}

// Child is a running editor. Stdin and Stdout belong to the supervisor;
// stderr goes wherever Start was told.
type Child struct {
	Stdin  io.WriteCloser
	Stdout io.ReadCloser

	cmd *exec.Cmd
}

// Start spawns the editor described by req with env as its whole
// environment. It returns once the process exists.
func Start(req config.LaunchRequest, env []string, stderr io.Writer) (*Child, error) {
	cmd := exec.Command(req.EditorPath, Args(req)...)
	cmd.Env = env
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: create stdin pipe: %w", ErrSpawn, err)
	}

	// The read end stays ours: Wait must not close it while the pump is
	// still draining what the editor wrote before exiting.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("%w: create stdout pipe: %w", ErrSpawn, err)
	}
	cmd.Stdout = stdoutW

	if err := cmd.Start(); err != nil {
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return nil, fmt.Errorf("%w %s: %w", ErrSpawn, req.EditorPath, err)
	}
	_ = stdoutW.Close()

	return &Child{Stdin: stdin, Stdout: stdoutR, cmd: cmd}, nil
}

// Pid returns the editor's process id.
func (c *Child) Pid() int {
	return c.cmd.Process.Pid
}

// Wait blocks until the editor exits. A non-zero exit is reported through
// Exit, not as an error.
func (c *Child) Wait() (Exit, error) {
	err := c.cmd.Wait()
	if err == nil {
		return Exit{Code: 0, Known: true, State: c.cmd.ProcessState.String()}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			return Exit{Known: false, State: exitErr.String()}, nil
		}
		return Exit{Code: code, Known: true, State: exitErr.String()}, nil
	}
	return Exit{}, fmt.Errorf("wait for editor: %w", err)
}
