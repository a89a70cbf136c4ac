package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/mattjoyce/mcprunner/internal/config"
	"github.com/mattjoyce/mcprunner/internal/log"
	"github.com/mattjoyce/mcprunner/internal/supervisor"
)

// Set with -ldflags "-X main.version=... -X main.gitCommit=...".
var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
)

// exitUsage is returned for flag errors, before anything is touched.
const exitUsage = 2

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) > 0 {
		switch cliArgs[0] {
		case "version", "--version":
			return runVersion(cliArgs[1:])
		case "help", "--help", "-h", "-help":
			printUsage(os.Stdout)
			return 0
		}
	}
	return runLaunch(cliArgs)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `mcprunner - launch the Unity editor as an MCP server over stdio

Usage:
  mcprunner -unityPath <editor> -projectPath <project> [flags] [-- <editor args>...]
  mcprunner version [-json]

Flags:
  -unityPath      Path to the Unity editor executable (required)
  -projectPath    Path to the Unity project (required)
  -dev            Use the local package checkout and write <project>/mcp.log
  -config         Path to a YAML config file (default $MCPRUNNER_CONFIG)
  -packagePath    Local package directory used with -dev
  -packageVersion Package release tag used without -dev
  -logLevel       DEBUG, INFO, WARN or ERROR (logs go to stderr)

Everything after "--" is passed to the editor unchanged.

Exit status is the editor's own exit status, or 1 if the editor could not be
started (invalid project, project already open, spawn failure).
`)
}

// splitPassthrough separates supervisor flags from the editor arguments
// following the first "--".
func splitPassthrough(args []string) (flags, passthrough []string) {
	for i, a := range args {
		if a == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}

func runLaunch(args []string) int {
	flagArgs, passthrough := splitPassthrough(args)

	fs := flag.NewFlagSet("mcprunner", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { printUsage(os.Stderr) }
	unityPath := fs.String("unityPath", "", "Path to the Unity editor executable")
	projectPath := fs.String("projectPath", "", "Path to the Unity project")
	dev := fs.Bool("dev", false, "Development mode")
	configPath := fs.String("config", "", "Path to a YAML config file")
	packagePath := fs.String("packagePath", "", "Local package directory used with -dev")
	packageVersion := fs.String("packageVersion", "", "Package release tag used without -dev")
	logLevel := fs.String("logLevel", "", "Log level")
	if err := fs.Parse(flagArgs); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Unexpected arguments %q; pass editor arguments after --\n", fs.Args())
		return exitUsage
	}
	if *unityPath == "" || *projectPath == "" {
		fmt.Fprintln(os.Stderr, "Both -unityPath and -projectPath are required")
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *packagePath != "" {
		abs, err := filepath.Abs(*packagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -packagePath: %v\n", err)
			return 1
		}
		cfg.Package.LocalPath = abs
	}
	if *packageVersion != "" {
		cfg.Package.Version = *packageVersion
	}
	if cfg.Package.Version == "" {
		cfg.Package.Version = currentVersionInfo().Version
	}

	log.Setup(cfg.LogLevel)
	logger := log.WithComponent("main")
	logger.Debug("mcprunner starting", "version", version, "dev", *dev)

	req := config.NewLaunchRequest(cfg, *unityPath, *projectPath, *dev, passthrough, executableDir())
	return supervisor.New().Run(req)
}

// executableDir is the anchor for a relative package.local_path.
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: mcprunner version [-json]")
		return exitUsage
	}

	info := currentVersionInfo()
	if *jsonOut {
		data, _ := json.Marshal(info)
		fmt.Println(string(data))
		return 0
	}
	fmt.Printf("mcprunner %s (%s)\n", info.Version, info.Commit)
	return 0
}

// currentVersionInfo also supplies the default package release tag, so the
// runner pins the editor package it was released with.
func currentVersionInfo() versionInfo {
	info := versionInfo{Version: strings.TrimSpace(version), Commit: gitCommit}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}
	if info.Commit == "" || info.Commit == "unknown" {
		info.Commit = "unknown"
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					info.Commit = s.Value
				}
			}
		}
	}
	if len(info.Commit) > 12 {
		info.Commit = info.Commit[:12]
	}
	return info
}
