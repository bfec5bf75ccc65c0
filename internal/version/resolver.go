// internal/version/resolver.go
//
// Fallback chain for versions that are not pinned by the manifest
// (the advanced-security extension). Order is fixed by the caller:
// explicit input, configuration variable, primary index, secondary index.
// First hit wins; when nothing resolves, the caller gets an
// *UnresolvableError with remediation hints.

package version

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// AutoSentinel asks the resolver to look the version up instead of pinning it.
const AutoSentinel = "auto"

// ErrSkip tells the resolver a source has nothing to offer; try the next one.
var ErrSkip = errors.New("source has no version")

// Source is one step in the resolution chain.
type Source interface {
	Name() string
	Lookup(ctx context.Context, pkg string) (string, error)
}

// Index is a remote package index that can report a package's latest version.
type Index interface {
	Name() string
	LatestVersion(ctx context.Context, pkg string) (string, error)
}

// Resolution is the outcome of a successful chain run.
type Resolution struct {
	Version string
	Source  string
}

// UnresolvableError is returned when every source in the chain came up empty.
type UnresolvableError struct {
	Package string
	Tried   []string
	Hints   []string
}

func (e *UnresolvableError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "could not resolve version for %s (tried: %s)", e.Package, strings.Join(e.Tried, ", "))
	if len(e.Hints) > 0 {
		b.WriteString("; to fix: ")
		b.WriteString(strings.Join(e.Hints, "; or "))
	}
	return b.String()
}

// Resolver walks sources in order and returns the first version found.
type Resolver struct {
	Sources []Source
	Hints   []string
	Logger  *slog.Logger
}

// Resolve runs the chain for pkg. Source errors other than ErrSkip are
// logged and treated as a miss so a flaky index never hides the next one.
func (r *Resolver) Resolve(ctx context.Context, pkg string) (Resolution, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tried := make([]string, 0, len(r.Sources))
	for _, src := range r.Sources {
		tried = append(tried, src.Name())

		v, err := src.Lookup(ctx, pkg)
		if err != nil {
			if !errors.Is(err, ErrSkip) {
				logger.Warn("version source failed", "source", src.Name(), "package", pkg, "error", err)
			}
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		logger.Debug("version resolved", "source", src.Name(), "package", pkg, "version", v)
		return Resolution{Version: v, Source: src.Name()}, nil
	}

	return Resolution{}, &UnresolvableError{Package: pkg, Tried: tried, Hints: r.Hints}
}

// ---- sources ----

type explicitSource struct{ value string }

// Explicit yields value verbatim unless it is empty or the "auto" sentinel.
func Explicit(value string) Source { return explicitSource{value: value} }

func (s explicitSource) Name() string { return "explicit" }

func (s explicitSource) Lookup(context.Context, string) (string, error) {
	v := strings.TrimSpace(s.value)
	if v == "" || strings.EqualFold(v, AutoSentinel) {
		return "", ErrSkip
	}
	return v, nil
}

type envSource struct {
	name   string
	lookup func(string) (string, bool)
}

// Env yields the value of a configuration variable. A nil lookup reads the
// process environment.
func Env(name string, lookup func(string) (string, bool)) Source {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return envSource{name: name, lookup: lookup}
}

func (s envSource) Name() string { return "env:" + s.name }

func (s envSource) Lookup(context.Context, string) (string, error) {
	v, ok := s.lookup(s.name)
	if !ok || strings.TrimSpace(v) == "" || strings.EqualFold(strings.TrimSpace(v), AutoSentinel) {
		return "", ErrSkip
	}
	return v, nil
}

type indexSource struct{ index Index }

// FromIndex asks a remote package index for the latest published version.
func FromIndex(idx Index) Source { return indexSource{index: idx} }

func (s indexSource) Name() string { return "index:" + s.index.Name() }

func (s indexSource) Lookup(ctx context.Context, pkg string) (string, error) {
	return s.index.LatestVersion(ctx, pkg)
}
