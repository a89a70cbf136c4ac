// Package manifest points the project's package manifest at the companion
// MCP package before the editor starts.
package manifest

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
	"github.com/zeebo/blake3"

	"github.com/mattjoyce/mcprunner/internal/config"
)

// ErrNoManifest is returned when the project has no Packages/manifest.json.
var ErrNoManifest = errors.New("project manifest not found")

// Result describes what Patch did.
type Result struct {
	Path    string
	Before  string // BLAKE3 of the file as read
	After   string // BLAKE3 of the file as it should be
	Changed bool
}

// Path returns the manifest location inside projectDir.
func Path(projectDir string) string {
	return filepath.Join(projectDir, "Packages", "manifest.json")
}

// PackageRef resolves the dependency value for req: a local file reference in
// dev mode, a tagged git URL otherwise.
func PackageRef(req config.LaunchRequest) string {
	if req.Dev {
		return "file:" + filepath.ToSlash(req.PackageLocalPath)
	}
	return fmt.Sprintf("%s?path=packages/unity#v%s", req.PackageGitURL, req.PackageVersion)
}

// Fingerprint returns the hex BLAKE3 digest of data.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Patch sets dependencies[name] = ref in the project manifest. Comments and
// trailing commas are tolerated on read; key order is preserved. The file is
// left untouched when the rendered content is identical.
func Patch(projectDir, name, ref string) (Result, error) {
	path := Path(projectDir)
	res := Result{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return res, fmt.Errorf("%w: %s", ErrNoManifest, path)
		}
		return res, fmt.Errorf("stat manifest: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read manifest: %w", err)
	}
	res.Before = Fingerprint(data)

	out, err := render(data, name, ref)
	if err != nil {
		return res, fmt.Errorf("patch manifest %s: %w", path, err)
	}
	res.After = Fingerprint(out)
	if res.After == res.Before {
		return res, nil
	}

	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return res, fmt.Errorf("write manifest: %w", err)
	}
	res.Changed = true
	return res, nil
}

func render(data []byte, name, ref string) ([]byte, error) {
	root := newObject()
	if err := json.Unmarshal(jsonc.ToJSON(data), root); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	deps := newObject()
	if raw, ok := root.get("dependencies"); ok {
		if err := json.Unmarshal(raw, deps); err != nil {
			return nil, fmt.Errorf("dependencies: %w", err)
		}
	}

	value, err := encodeValue(ref)
	if err != nil {
		return nil, err
	}
	deps.set(name, value)

	rawDeps, err := deps.MarshalJSON()
	if err != nil {
		return nil, err
	}
	root.set("dependencies", rawDeps)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	// Written without a trailing newline, like the package manager does.
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
