package launch

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/mcprunner/internal/config"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script editors are POSIX only")
	}
	path := filepath.Join(t.TempDir(), "editor.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestArgs(t *testing.T) {
	req := config.LaunchRequest{
		ProjectDir:  "/work/game",
		Passthrough: []string{"-batchmode", "-executeMethod", "Foo.Bar", "--weird=value"},
	}
	assert.Equal(t, []string{
		"-projectPath", "/work/game", "-mcp", "-logFile", "-",
		"-batchmode", "-executeMethod", "Foo.Bar", "--weird=value",
	}, Args(req))

	assert.Equal(t, []string{"-projectPath", "p", "-mcp", "-logFile", "-"}, Args(config.LaunchRequest{ProjectDir: "p"}))
}

func TestStartPassesArgsEnvAndStreams(t *testing.T) {
	editor := writeScript(t, `
echo "args:$*"
echo "env:$MCPRUNNER_TEST_VAR"
read line
echo "echo:$line"
echo "to stderr" >&2
exit 0
`)
	req := config.LaunchRequest{EditorPath: editor, ProjectDir: "/proj", Passthrough: []string{"-x"}}
	var stderr bytes.Buffer

	child, err := Start(req, []string{"MCPRUNNER_TEST_VAR=hello", "PATH=" + os.Getenv("PATH")}, &stderr)
	require.NoError(t, err)
	assert.Positive(t, child.Pid())

	_, err = io.WriteString(child.Stdin, "ping\n")
	require.NoError(t, err)

	out, err := io.ReadAll(child.Stdout)
	require.NoError(t, err)

	exit, err := child.Wait()
	require.NoError(t, err)
	assert.Equal(t, Exit{Code: 0, Known: true, State: exit.State}, exit)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, []string{
		"args:-projectPath /proj -mcp -logFile - -x",
		"env:hello",
		"echo:ping",
	}, lines)
	assert.Equal(t, "to stderr\n", stderr.String())
}

func TestWaitReportsExitCode(t *testing.T) {
	editor := writeScript(t, "exit 3\n")

	child, err := Start(config.LaunchRequest{EditorPath: editor, ProjectDir: "p"}, os.Environ(), io.Discard)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, child.Stdout)

	exit, err := child.Wait()
	require.NoError(t, err)
	assert.True(t, exit.Known)
	assert.Equal(t, 3, exit.Code)
}

func TestWaitReportsSignalAsUnknown(t *testing.T) {
	editor := writeScript(t, "kill -9 $$\n")

	child, err := Start(config.LaunchRequest{EditorPath: editor, ProjectDir: "p"}, os.Environ(), io.Discard)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, child.Stdout)

	exit, err := child.Wait()
	require.NoError(t, err)
	assert.False(t, exit.Known)
}

func TestStartMissingExecutable(t *testing.T) {
	req := config.LaunchRequest{EditorPath: filepath.Join(t.TempDir(), "no-such-editor"), ProjectDir: "p"}
	_, err := Start(req, os.Environ(), io.Discard)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSpawn)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
