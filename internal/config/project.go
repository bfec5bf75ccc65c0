// Package config loads the release project file (release.yaml).
//
// The file describes what gets built: package names on the index,
// image names, Dockerfiles, and the OCI label metadata. Everything has a
// default so the tool runs without a file at all.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the project file is looked up when --config is not given.
const DefaultPath = "release.yaml"

// Project is the on-disk shape of release.yaml.
type Project struct {
	Manifest string `yaml:"manifest"`

	SDK              Variant `yaml:"sdk"`
	AdvancedSecurity Variant `yaml:"advanced_security"`

	// VersionVariable names the repository variable holding the default
	// extension version.
	VersionVariable string `yaml:"version_variable"`

	Labels Labels `yaml:"labels"`

	// Platforms used by --multi-platform.
	Platforms []string `yaml:"platforms"`

	// BuildArgs are passed to every build after the version args.
	BuildArgs map[string]string `yaml:"build_args,omitempty"`

	// GitHub repository ("owner/name") for releases; GITHUB_REPOSITORY wins.
	Repository string `yaml:"repository,omitempty"`
}

// Variant is one buildable image.
type Variant struct {
	Package    string `yaml:"package"`
	Image      string `yaml:"image"`
	Dockerfile string `yaml:"dockerfile"`
	Context    string `yaml:"context"`
	Title      string `yaml:"title,omitempty"`
}

// Labels feed the org.opencontainers.image.* labels.
type Labels struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	License     string            `yaml:"license"`
	Source      string            `yaml:"source"`
	Extra       map[string]string `yaml:"extra,omitempty"`
}

// Default returns the built-in project description.
func Default() Project {
	return Project{
		Manifest: "pyproject.toml",
		SDK: Variant{
			Package:    "naylence-agent-sdk",
			Image:      "naylence/agent-sdk-python",
			Dockerfile: "docker/Dockerfile",
			Context:    ".",
			Title:      "Naylence Agent SDK",
		},
		AdvancedSecurity: Variant{
			Package:    "naylence-advanced-security",
			Image:      "naylence/agent-sdk-adv-python",
			Dockerfile: "docker/Dockerfile.adv",
			Context:    ".",
			Title:      "Naylence Agent SDK (Advanced Security)",
		},
		VersionVariable: "ADVANCED_SECURITY_VERSION",
		Labels: Labels{
			Description: "Naylence Agent SDK runtime image",
			License:     "Apache-2.0",
			Source:      "https://github.com/naylence/naylence-agent-sdk-python",
		},
		Platforms: []string{"linux/amd64", "linux/arm64"},
	}
}

// Load reads path over Default(). A missing file is not an error.
func Load(path string) (Project, error) {
	p := Default()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("read project file: %w", err)
	}

	var fromFile Project
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return p, fmt.Errorf("parse project file %s: %w", path, err)
	}
	p.merge(fromFile)

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("project file %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the fields a build cannot run without.
func (p Project) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Manifest) == "" {
		problems = append(problems, "manifest is empty")
	}
	for name, v := range map[string]Variant{"sdk": p.SDK, "advanced_security": p.AdvancedSecurity} {
		if strings.TrimSpace(v.Image) == "" {
			problems = append(problems, name+".image is empty")
		}
		if strings.TrimSpace(v.Package) == "" {
			problems = append(problems, name+".package is empty")
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// merge overlays every non-zero field of o onto p.
func (p *Project) merge(o Project) {
	set(&p.Manifest, o.Manifest)
	p.SDK.merge(o.SDK)
	p.AdvancedSecurity.merge(o.AdvancedSecurity)
	set(&p.VersionVariable, o.VersionVariable)
	set(&p.Labels.Title, o.Labels.Title)
	set(&p.Labels.Description, o.Labels.Description)
	set(&p.Labels.License, o.Labels.License)
	set(&p.Labels.Source, o.Labels.Source)
	if len(o.Labels.Extra) > 0 {
		p.Labels.Extra = o.Labels.Extra
	}
	if len(o.Platforms) > 0 {
		p.Platforms = o.Platforms
	}
	if len(o.BuildArgs) > 0 {
		p.BuildArgs = o.BuildArgs
	}
	set(&p.Repository, o.Repository)
}

func (v *Variant) merge(o Variant) {
	set(&v.Package, o.Package)
	set(&v.Image, o.Image)
	set(&v.Dockerfile, o.Dockerfile)
	set(&v.Context, o.Context)
	set(&v.Title, o.Title)
}

func set(dst *string, v string) {
	if s := strings.TrimSpace(v); s != "" {
		*dst = s
	}
}
