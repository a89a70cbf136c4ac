package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable consulted when -config is not given.
const EnvConfigPath = "MCPRUNNER_CONFIG"

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file. An empty path falls back
// to $MCPRUNNER_CONFIG, and when neither is set the defaults are returned.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	if configPath == "" {
		return Defaults(), nil
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path passed to -config or $%s", absPath, EnvConfigPath)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}

	return applyConfigDefaults(&cfg), nil
}

// applyConfigDefaults merges default values into config where not explicitly set.
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaults.LogFile
	}
	if cfg.Package.Name == "" {
		cfg.Package.Name = defaults.Package.Name
	}
	if cfg.Package.GitURL == "" {
		cfg.Package.GitURL = defaults.Package.GitURL
	}
	if cfg.Package.LocalPath == "" {
		cfg.Package.LocalPath = defaults.Package.LocalPath
	}

	return cfg
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// NewLaunchRequest combines the config with the invocation. Config editor
// args come before the ones given after "--". baseDir anchors a relative
// Package.LocalPath.
func NewLaunchRequest(cfg *Config, editorPath, projectDir string, dev bool, passthrough []string, baseDir string) LaunchRequest {
	args := make([]string, 0, len(cfg.EditorArgs)+len(passthrough))
	args = append(args, cfg.EditorArgs...)
	args = append(args, passthrough...)

	localPath := cfg.Package.LocalPath
	if localPath != "" {
		if !filepath.IsAbs(localPath) {
			localPath = filepath.Join(baseDir, localPath)
		}
		localPath = filepath.Clean(localPath)
	}

	return LaunchRequest{
		EditorPath:       editorPath,
		ProjectDir:       projectDir,
		Dev:              dev,
		Passthrough:      args,
		PackageName:      cfg.Package.Name,
		PackageGitURL:    cfg.Package.GitURL,
		PackageVersion:   strings.TrimPrefix(cfg.Package.Version, "v"),
		PackageLocalPath: localPath,
		LogFile:          cfg.LogFile,
	}
}

// Validate checks the fields the launch cannot proceed without. It does not
// touch the filesystem; the project directory is checked at launch time.
func (r LaunchRequest) Validate() error {
	var errs []error
	if r.EditorPath == "" {
		errs = append(errs, errors.New("editor path is required (-unityPath)"))
	}
	if r.ProjectDir == "" {
		errs = append(errs, errors.New("project path is required (-projectPath)"))
	}
	if r.PackageName == "" {
		errs = append(errs, errors.New("package.name must not be empty"))
	}
	if r.Dev {
		if r.PackageLocalPath == "" {
			errs = append(errs, errors.New("package.local_path is required in dev mode"))
		}
	} else {
		if r.PackageGitURL == "" {
			errs = append(errs, errors.New("package.git_url is required"))
		}
		if r.PackageVersion == "" {
			errs = append(errs, errors.New("package.version is required outside dev mode"))
		}
	}
	return errors.Join(errs...)
}

// LogPath returns the dev-mode diagnostic log location.
func (r LaunchRequest) LogPath() string {
	return filepath.Join(r.ProjectDir, r.LogFile)
}
