package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/mattjoyce/mcprunner/internal/log"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR") // Suppress logs in tests
	os.Exit(m.Run())
}

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdin := os.Stdin
	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdin failed: %v", err)
	}
	_ = stdinW.Close()
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdin = stdinR
	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdin = oldStdin
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)

	_ = stdinR.Close()
	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func setVersionMetadataForTest(t *testing.T, v, commit string) {
	t.Helper()

	origVersion := version
	origCommit := gitCommit

	version = v
	gitCommit = commit

	t.Cleanup(func() {
		version = origVersion
		gitCommit = origCommit
	})
}

func newProject(t *testing.T) string {
	t.Helper()
	project := t.TempDir()
	if err := os.MkdirAll(filepath.Join(project, "Packages"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(project, "Packages", "manifest.json"), []byte(`{"dependencies":{}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return project
}

func writeEditor(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script editors are POSIX only")
	}
	path := filepath.Join(t.TempDir(), "Unity")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestSplitPassthrough(t *testing.T) {
	flags, rest := splitPassthrough([]string{"-unityPath", "u", "--", "-batchmode", "--", "x"})
	if strings.Join(flags, " ") != "-unityPath u" {
		t.Fatalf("flags = %q", flags)
	}
	if strings.Join(rest, " ") != "-batchmode -- x" {
		t.Fatalf("passthrough = %q", rest)
	}

	flags, rest = splitPassthrough([]string{"-dev"})
	if len(flags) != 1 || rest != nil {
		t.Fatalf("flags = %q, passthrough = %q", flags, rest)
	}
}

func TestRunCLIRootVersionFlag(t *testing.T) {
	setVersionMetadataForTest(t, "1.2.3", "abc")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"--version"})
	})
	if code != 0 {
		t.Fatalf("runCLI(--version) code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "mcprunner 1.2.3 (abc)") {
		t.Fatalf("stdout = %q, want version line", stdout)
	}
}

func TestRunVersionJSONOutputIncludesMetadata(t *testing.T) {
	setVersionMetadataForTest(t, "2.0.0-rc.1", "aabbccddeeff001122334455")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runVersion([]string{"--json"})
	})
	if code != 0 {
		t.Fatalf("runVersion() code = %d, stderr: %s", code, stderr)
	}

	var out versionInfo
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("failed to parse version JSON: %v\noutput=%s", err, stdout)
	}
	if out.Version != "2.0.0-rc.1" {
		t.Fatalf("version = %q, want %q", out.Version, "2.0.0-rc.1")
	}
	if out.Commit != "aabbccddeeff" {
		t.Fatalf("commit = %q, want %q", out.Commit, "aabbccddeeff")
	}
}

func TestRunLaunchRejectsStrayArguments(t *testing.T) {
	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"-unityPath", "u", "-projectPath", "p", "-batchmode"})
	})
	if code != exitUsage {
		t.Fatalf("code = %d, want %d", code, exitUsage)
	}
	if stdout != "" {
		t.Fatalf("usage errors must not reach stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "-batchmode") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestRunLaunchPositionalArgument(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"-projectPath", "p", "extra"})
	})
	if code != exitUsage {
		t.Fatalf("code = %d, want %d; stderr: %s", code, exitUsage, stderr)
	}
}

func TestRunLaunchInvalidProject(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"-unityPath", "/bin/true", "-projectPath", missing, "-packageVersion", "1.0.0"})
	})
	if code != 1 {
		t.Fatalf("code = %d, want 1; stderr: %s", code, stderr)
	}
	if stdout != "" {
		t.Fatalf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "project path is not a valid directory") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestRunLaunchEndToEnd(t *testing.T) {
	editor := writeEditor(t, `
echo "Initialize engine version: 6000.0"
echo '{"jsonrpc":"2.0","method":"ready"}'
for a in "$@"; do echo "arg $a"; done
exit 4
`)
	project := newProject(t)
	pkg := t.TempDir()

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{
			"-unityPath", editor, "-projectPath", project, "-dev", "-packagePath", pkg,
			"--", "-batchmode",
		})
	})
	if code != 4 {
		t.Fatalf("code = %d, want 4; stderr: %s", code, stderr)
	}
	if stdout != "{\"jsonrpc\":\"2.0\",\"method\":\"ready\"}\n" {
		t.Fatalf("stdout = %q", stdout)
	}

	logData, err := os.ReadFile(filepath.Join(project, "mcp.log"))
	if err != nil {
		t.Fatalf("ReadFile(mcp.log): %v", err)
	}
	for _, want := range []string{"Initialize engine version", "arg -projectPath", "arg -logFile", "arg -batchmode"} {
		if !strings.Contains(string(logData), want) {
			t.Fatalf("log missing %q:\n%s", want, logData)
		}
	}

	manifestData, err := os.ReadFile(filepath.Join(project, "Packages", "manifest.json"))
	if err != nil {
		t.Fatalf("ReadFile(manifest): %v", err)
	}
	if !strings.Contains(string(manifestData), `"is.nurture.mcp": "file:`+filepath.ToSlash(pkg)+`"`) {
		t.Fatalf("manifest not patched:\n%s", manifestData)
	}
}

func TestRunLaunchBadConfig(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml"), "-unityPath", "u", "-projectPath", "p"})
	})
	if code != 1 {
		t.Fatalf("code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Failed to load config") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestRunLaunchRequiresEditorAndProject(t *testing.T) {
	cwd := t.TempDir()
	logPath := filepath.Join(cwd, "mcp.log")
	if err := os.WriteFile(logPath, []byte("unrelated log\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(cwd); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prevWD) })

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"-dev", "-unityPath", "/bin/true"})
	})
	if code != exitUsage {
		t.Fatalf("code = %d, want %d; stderr: %s", code, exitUsage, stderr)
	}
	if stdout != "" {
		t.Fatalf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "-projectPath") {
		t.Fatalf("stderr = %q", stderr)
	}

	got, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "unrelated log\n" {
		t.Fatalf("mcp.log was rewritten: %q", got)
	}
}
