package runtime

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"shipkit/internal/config"
	"shipkit/internal/version"
)

// Env is everything shipkit reads from the process environment.
type Env struct {
	GitHubToken      string `env:"GITHUB_TOKEN"`
	GitHubRepository string `env:"GITHUB_REPOSITORY"`
	GitHubSHA        string `env:"GITHUB_SHA"`
	GitHubAPIURL     string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`

	Registry         string `env:"REGISTRY"` // empty means Docker Hub
	RegistryUsername string `env:"REGISTRY_USERNAME"`
	RegistryPassword string `env:"REGISTRY_PASSWORD"`

	PyPIURL      string        `env:"PYPI_URL" envDefault:"https://pypi.org"`
	TestPyPIURL  string        `env:"TEST_PYPI_URL" envDefault:"https://test.pypi.org"`
	IndexTimeout time.Duration `env:"INDEX_TIMEOUT" envDefault:"10s"`

	DockerBin      string `env:"DOCKER_BIN" envDefault:"docker"`
	GitAuthorName  string `env:"GIT_AUTHOR_NAME" envDefault:"shipkit"`
	GitAuthorEmail string `env:"GIT_AUTHOR_EMAIL" envDefault:"shipkit@users.noreply.github.com"`

	DryRun    bool   `env:"SHIPKIT_DRY_RUN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	NoColor   string `env:"NO_COLOR"`
}

// Options are the command-line switches.
type Options struct {
	Push                    bool
	Latest                  bool
	MultiPlatform           bool
	AdvancedSecurity        bool
	SkipPackageCheck        bool
	CustomTag               string
	Platform                string
	AdvancedSecurityVersion string
	Release                 bool
	DryRun                  bool
	ConfigPath              string
	ManifestPath            string
	ShowVersion             bool
}

// Context is the state of a single run. Fields below the divider are filled
// in by the pipeline as it progresses.
type Context struct {
	Options Options
	Env     Env
	Project config.Project

	RunID   string
	Started time.Time

	Variant   Variant
	Platforms []string
	DryRun    bool

	// ---- resolved during the run ----
	Manifest        version.Manifest
	SDKVersion      string
	Extension       version.Resolution // zero unless Variant == VariantAdvanced
	Refs            []string
	Revision        string // GITHUB_SHA, else the checkout's HEAD
	ReleaseTag      string
	PackageWarnings []string
}

// NewFlagSet declares every CLI flag against o.
func NewFlagSet(o *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("shipkit", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&o.Push, "push", false, "push the image to the registry instead of loading it locally")
	fs.BoolVar(&o.Latest, "latest", false, "also tag the image as :latest")
	fs.BoolVar(&o.MultiPlatform, "multi-platform", false, "build for every platform in the project file (default linux/amd64,linux/arm64); requires --push")
	fs.BoolVar(&o.AdvancedSecurity, "advanced-security", false, "build the advanced-security image variant")
	fs.BoolVar(&o.SkipPackageCheck, "skip-package-check", false, "skip the package index availability check")
	fs.StringVar(&o.CustomTag, "tag", "", "extra custom tag to apply")
	fs.StringVar(&o.Platform, "platform", "", "explicit platform list, e.g. linux/amd64,linux/arm64 (overrides --multi-platform)")
	fs.StringVar(&o.AdvancedSecurityVersion, "advanced-security-version", version.AutoSentinel, "advanced-security extension version, or \"auto\" to resolve it")
	fs.BoolVar(&o.Release, "release", false, "create the git tag and GitHub release after a successful build")
	fs.BoolVar(&o.DryRun, "dry-run", false, "print commands instead of running them")
	fs.StringVar(&o.ConfigPath, "config", config.DefaultPath, "project file")
	fs.StringVar(&o.ManifestPath, "manifest", "", "pyproject.toml to read the SDK version from (default from project file)")
	fs.BoolVar(&o.ShowVersion, "version", false, "print the shipkit version and exit")
	fs.BoolP("help", "h", false, "show help")
	return fs
}

// ParseOptions parses args. pflag.ErrHelp is returned untouched for -h/--help.
func ParseOptions(args []string) (Options, *pflag.FlagSet, error) {
	var o Options
	fs := NewFlagSet(&o)
	if err := fs.Parse(args); err != nil {
		return o, fs, err
	}
	if help, _ := fs.GetBool("help"); help {
		return o, fs, pflag.ErrHelp
	}
	if rest := fs.Args(); len(rest) > 0 {
		return o, fs, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return o, fs, nil
}

// LoadContext builds the run Context from parsed options, the process
// environment and the project file.
func LoadContext(opts Options) (Context, error) {
	e, err := env.ParseAs[Env]()
	if err != nil {
		return Context{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	project, err := config.Load(opts.ConfigPath)
	if err != nil {
		return Context{}, err
	}
	if m := strings.TrimSpace(opts.ManifestPath); m != "" {
		project.Manifest = m
	}
	if e.GitHubRepository != "" {
		project.Repository = e.GitHubRepository
	}

	ctx := Context{
		Options: opts,
		Env:     e,
		Project: project,
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
		Variant: ResolveVariant(opts),
		DryRun:  opts.DryRun || e.DryRun,
	}
	ctx.Platforms = ResolvePlatforms(opts, project.Platforms)

	if opts.Release && !ctx.DryRun && strings.TrimSpace(project.Repository) == "" {
		return ctx, errors.New("--release needs GITHUB_REPOSITORY or repository in the project file")
	}
	return ctx, nil
}

// ResolvePlatforms: --platform wins, then --multi-platform, else the
// builder's native platform (nil).
func ResolvePlatforms(opts Options, multi []string) []string {
	if p := strings.TrimSpace(opts.Platform); p != "" {
		return splitList(p)
	}
	if opts.MultiPlatform {
		return append([]string(nil), multi...)
	}
	return nil
}

// ActiveVariant returns the project variant being built.
func (c *Context) ActiveVariant() config.Variant {
	if c.Variant == VariantAdvanced {
		return c.Project.AdvancedSecurity
	}
	return c.Project.SDK
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
