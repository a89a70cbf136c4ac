// Package env derives the editor's environment from the supervisor's.
package env

import (
	"strings"
)

// Defaulter adds platform-required variables to an environment copy.
type Defaulter interface {
	Apply(env []string) []string
}

// ForPlatform selects the defaulter for goos.
func ForPlatform(goos string) Defaulter {
	if goos == "windows" {
		return windowsProfile{}
	}
	return passthrough{}
}

// Compose copies parent verbatim and applies the defaults required on goos.
// parent is never modified.
func Compose(parent []string, goos string) []string {
	out := make([]string, len(parent))
	copy(out, parent)
	return ForPlatform(goos).Apply(out)
}

type passthrough struct{}

func (passthrough) Apply(env []string) []string { return env }

// windowsProfile fills in the profile roots the editor's package manager
// expects; they are missing when the supervisor is launched by a client that
// scrubs its environment.
type windowsProfile struct{}

const defaultUserProfile = `C:\Users\Default`

func (windowsProfile) Apply(env []string) []string {
	userProfile := lookup(env, "USERPROFILE", defaultUserProfile)
	defaults := []struct{ key, value string }{
		{"PROGRAMDATA", `C:\ProgramData`},
		{"ALLUSERSPROFILE", `C:\ProgramData`},
		{"SYSTEMROOT", `C:\Windows`},
		{"LOCALAPPDATA", strings.TrimRight(userProfile, `\`) + `\AppData\Local`},
	}
	for _, d := range defaults {
		env = set(env, d.key, lookup(env, d.key, d.value))
	}
	return env
}

// lookup finds key case-insensitively, as Windows does. Empty values count as
// unset.
func lookup(env []string, key, fallback string) string {
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.EqualFold(k, key) && v != "" {
			return v
		}
	}
	return fallback
}

// set replaces every case-insensitive match of key, or appends it.
func set(env []string, key, value string) []string {
	out := env[:0]
	for _, kv := range env {
		k, _, _ := strings.Cut(kv, "=")
		if strings.EqualFold(k, key) {
			continue
		}
		out = append(out, kv)
	}
	return append(out, key+"="+value)
}
