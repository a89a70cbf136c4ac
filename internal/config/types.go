package config

// Config represents the optional mcprunner configuration file.
type Config struct {
	LogLevel   string        `yaml:"log_level"`
	LogFile    string        `yaml:"log_file"`
	Package    PackageConfig `yaml:"package"`
	EditorArgs []string      `yaml:"editor_args,omitempty"`
}

// PackageConfig describes the companion package injected into the project
// manifest.
type PackageConfig struct {
	Name    string `yaml:"name"`
	GitURL  string `yaml:"git_url"`
	Version string `yaml:"version"` // release tag, leading "v" optional
	// LocalPath is used in dev mode. Relative paths resolve against the
	// directory holding the mcprunner binary.
	LocalPath string `yaml:"local_path"`
}

// Defaults returns a Config with every field set to its default.
func Defaults() *Config {
	return &Config{
		LogLevel: "info",
		LogFile:  "mcp.log",
		Package: PackageConfig{
			Name:      "is.nurture.mcp",
			GitURL:    "https://github.com/nurture-tech/unity-mcp.git",
			LocalPath: "../unity",
		},
	}
}

// LaunchRequest is everything the launch pipeline consumes. Build it once
// with NewLaunchRequest and treat it as read-only.
type LaunchRequest struct {
	EditorPath  string
	ProjectDir  string
	Dev         bool
	Passthrough []string

	PackageName      string
	PackageGitURL    string
	PackageVersion   string
	PackageLocalPath string // absolute once built from a non-empty base dir

	LogFile string
}
