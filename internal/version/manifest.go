package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrNoManifestVersion means the manifest parsed but carries no version.
var ErrNoManifestVersion = errors.New("manifest has no version")

type pyproject struct {
	Project struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// Manifest is the subset of pyproject.toml the release tooling needs.
type Manifest struct {
	Path    string
	Name    string
	Version string
}

// ReadManifest loads the SDK version from a pyproject.toml.
// [project].version wins over [tool.poetry].version.
func ReadManifest(path string) (Manifest, error) {
	var doc pyproject
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return Manifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}

	m := Manifest{Path: path}
	m.Name = firstNonEmpty(doc.Project.Name, doc.Tool.Poetry.Name)
	m.Version = firstNonEmpty(doc.Project.Version, doc.Tool.Poetry.Version)
	if m.Version == "" {
		return m, fmt.Errorf("%s: %w", path, ErrNoManifestVersion)
	}
	return m, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
