// Package pipeline runs one release: resolve versions, check the package
// indexes, plan tags, build, verify, report and optionally release.
//
// Every stage reads and writes the shared *runtime.Context. The first fatal
// error stops the run, so nothing is built when resolution fails and nothing
// is released when the build fails.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/lo"

	"shipkit/internal/docker"
	"shipkit/internal/gitutil"
	"shipkit/internal/runtime"
	"shipkit/internal/version"
)

// Index is a package index used both for resolution and for the
// availability check. *pypi.Client satisfies it.
type Index interface {
	Name() string
	LatestVersion(ctx context.Context, pkg string) (string, error)
	HasVersion(ctx context.Context, pkg, version string) (bool, error)
}

// Builder is the docker side of the run. *docker.Builder satisfies it.
type Builder interface {
	Login(ctx context.Context, creds docker.Credentials, dry bool) (bool, error)
	Logout(ctx context.Context, registry string, logger *slog.Logger)
	Build(ctx context.Context, req *docker.BuildRequest) error
}

// ImageVerifier checks that loaded refs exist locally. *docker.Verifier satisfies it.
type ImageVerifier interface {
	Verify(ctx context.Context, refs []string) ([]docker.ImageInfo, error)
}

// Deps are the collaborators a run needs. Indexes are consulted in order
// (primary first).
type Deps struct {
	Builder Builder
	Indexes []Index

	// DialVerifier connects to the local daemon. nil skips verification.
	DialVerifier func(ctx context.Context) (ImageVerifier, func(), error)

	// Releaser is required only when the run has the release stage.
	Releaser Releaser

	// RepoPath is the git checkout HEAD is read from when GITHUB_SHA is
	// unset. Empty disables the fallback.
	RepoPath string

	// LookupEnv reads configuration variables; nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)

	Logger *slog.Logger
	Out    io.Writer // summary and report, default os.Stdout
}

type run struct {
	c      *runtime.Context
	deps   Deps
	log    *slog.Logger
	out    io.Writer
	req    *docker.BuildRequest
	images []docker.ImageInfo
}

// Run executes the stages selected by runtime.Stages and returns the first
// fatal error.
func Run(ctx context.Context, c *runtime.Context, deps Deps) error {
	if c == nil {
		return errors.New("pipeline: nil run context")
	}
	if deps.Builder == nil {
		return errors.New("pipeline: no builder")
	}

	r := &run{c: c, deps: deps, log: deps.Logger, out: deps.Out}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.out == nil {
		r.out = os.Stdout
	}
	r.log = r.log.With(slog.String("run_id", c.RunID))

	for _, stage := range runtime.Stages(*c) {
		r.log.Debug("stage started", "stage", stage)
		if err := r.stage(ctx, stage); err != nil {
			r.log.Error("stage failed", "stage", stage, "error", err)
			return err
		}
	}
	return nil
}

func (r *run) stage(ctx context.Context, s runtime.Stage) error {
	switch s {
	case runtime.StageResolve:
		return r.resolve(ctx)
	case runtime.StageCheck:
		r.check(ctx)
		return nil
	case runtime.StageTags:
		return r.tags()
	case runtime.StageBuild:
		return r.build(ctx)
	case runtime.StageVerify:
		return r.verify(ctx)
	case runtime.StageReport:
		r.report()
		return nil
	case runtime.StageRelease:
		return r.release(ctx)
	default:
		return fmt.Errorf("unknown stage %q", s)
	}
}

// ---- resolve ----

func (r *run) resolve(ctx context.Context) error {
	log := r.log.With(slog.String("component", "version"))

	m, err := version.ReadManifest(r.c.Project.Manifest)
	if err != nil {
		return err
	}
	r.c.Manifest = m
	r.c.SDKVersion = m.Version
	log.Info("sdk version from manifest", "version", m.Version, "manifest", m.Path)

	r.c.Revision = r.c.Env.GitHubSHA
	if r.c.Revision == "" && r.deps.RepoPath != "" {
		sha, err := gitutil.HeadSHA(r.deps.RepoPath)
		if err != nil {
			log.Debug("no revision for labels", "error", err)
		} else {
			r.c.Revision = sha
		}
	}

	if r.c.Variant != runtime.VariantAdvanced {
		return nil
	}

	pkg := r.c.Project.AdvancedSecurity.Package
	res, err := r.resolver(log).Resolve(ctx, pkg)
	if err != nil {
		return err
	}
	r.c.Extension = res
	log.Info("extension version resolved", "package", pkg, "version", res.Version, "source", res.Source)
	return nil
}

// resolver builds the fallback chain: flag, configuration variable, then
// each index in order.
func (r *run) resolver(log *slog.Logger) *version.Resolver {
	p := r.c.Project
	sources := []version.Source{
		version.Explicit(r.c.Options.AdvancedSecurityVersion),
		version.Env(p.VersionVariable, r.deps.LookupEnv),
	}
	for _, idx := range r.deps.Indexes {
		sources = append(sources, version.FromIndex(idx))
	}

	hints := []string{
		"pass --advanced-security-version X.Y.Z",
		fmt.Sprintf("set the %s repository variable", p.VersionVariable),
	}
	if len(r.deps.Indexes) > 0 {
		names := lo.Map(r.deps.Indexes, func(idx Index, _ int) string { return idx.Name() })
		hints = append(hints, fmt.Sprintf("publish %s to %s", p.AdvancedSecurity.Package, strings.Join(names, " or ")))
	}

	return &version.Resolver{Sources: sources, Hints: hints, Logger: log}
}

// ---- check ----

func (r *run) check(ctx context.Context) {
	checkers := lo.Map(r.deps.Indexes, func(idx Index, _ int) runtime.VersionChecker { return idx })
	runtime.CheckPackages(ctx, r.c, checkers, r.log.With(slog.String("component", "check")))
}

// ---- tags ----

func (r *run) tags() error {
	req, err := docker.BuildRequestFromContext(r.c)
	if err != nil {
		return fmt.Errorf("failed to create build request: %w", err)
	}
	r.req = req
	r.c.Refs = req.FullRefs
	r.log.Info("tag matrix planned", "component", "docker", "tags", docker.TagsOnly(req.FullRefs))

	r.c.PrintSummary(r.out)
	return nil
}

// ---- build ----

func (r *run) build(ctx context.Context) error {
	log := r.log.With(slog.String("component", "docker"))

	if r.req.Push {
		creds := docker.Credentials{
			Registry: r.c.RegistryFor(r.req.Image),
			Username: r.c.Env.RegistryUsername,
			Password: r.c.Env.RegistryPassword,
		}
		ok, err := r.deps.Builder.Login(ctx, creds, r.c.DryRun)
		if err != nil {
			return err
		}
		switch {
		case !ok:
			log.Info("no registry credentials; relying on existing docker login")
		case !r.c.DryRun:
			defer r.deps.Builder.Logout(ctx, creds.Registry, log)
		}
	}

	if err := r.deps.Builder.Build(ctx, r.req); err != nil {
		return err
	}
	log.Info("image build finished", "image", r.req.Image, "refs", len(r.req.FullRefs), "push", r.req.Push)
	return nil
}

// ---- verify ----

func (r *run) verify(ctx context.Context) error {
	log := r.log.With(slog.String("component", "docker"))
	if r.deps.DialVerifier == nil {
		log.Warn("image verification unavailable; skipping")
		return nil
	}

	v, closeFn, err := r.deps.DialVerifier(ctx)
	if err != nil {
		log.Warn("skipping image verification", "error", err)
		return nil
	}
	if closeFn != nil {
		defer closeFn()
	}

	infos, err := v.Verify(ctx, r.c.Refs)
	if err != nil {
		return err
	}
	for _, info := range infos {
		log.Info("image loaded", "ref", info.Ref, "id", info.ShortID(), "size", info.Size)
	}
	r.images = infos
	return nil
}

// ---- report ----

func (r *run) report() {
	action := "loaded"
	switch {
	case r.c.DryRun:
		action = "planned (dry run)"
	case r.c.Options.Push:
		action = "pushed"
	}

	fmt.Fprintln(r.out, "Result")
	fmt.Fprintf(r.out, "  Status                : ✅ %d image ref(s) %s\n", len(r.c.Refs), action)
	for _, info := range r.images {
		fmt.Fprintf(r.out, "  %-21s : %s (%d bytes)\n", info.Ref, info.ShortID(), info.Size)
	}
	fmt.Fprintln(r.out)
}
