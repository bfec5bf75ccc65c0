// internal/docker/build.go
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"shipkit/internal/executil"
)

// Builder runs buildx through an executil.Runner. Dry-run requests never
// reach Runner.
type Builder struct {
	Bin    string // docker CLI, default "docker"
	Runner executil.Runner
	Out    io.Writer // build plan output, default os.Stdout
}

// BuildArgv assembles the buildx argument list (without the binary).
func BuildArgv(req *BuildRequest) ([]string, error) {
	if req == nil {
		return nil, errors.New("BuildArgv: request is nil")
	}
	refs := dedupRefs(req.FullRefs)
	if len(refs) == 0 {
		return nil, errors.New("BuildArgv: FullRefs must have at least one repo:tag")
	}
	for _, r := range refs {
		// Docker refs must be lowercase & no spaces
		if strings.ToLower(r) != r || strings.ContainsAny(r, " \t\n") {
			return nil, fmt.Errorf("BuildArgv: invalid ref %q (must be lowercase, no spaces)", r)
		}
	}
	if !req.Push && len(req.Platforms) > 1 {
		return nil, fmt.Errorf("BuildArgv: %w", ErrMultiPlatformLoad)
	}

	df, ctxPath := buildPaths(req)

	args := []string{"buildx", "build", "--progress=plain"}
	if len(req.Platforms) > 0 {
		args = append(args, "--platform", strings.Join(req.Platforms, ","))
	}
	args = append(args, "-f", df)
	for _, r := range refs {
		args = append(args, "-t", r)
	}
	for _, kv := range nonEmptyPairs(req.Labels) {
		args = append(args, "--label", kv[0]+"="+kv[1])
	}
	for _, kv := range nonEmptyPairs(req.BuildArgs) {
		args = append(args, "--build-arg", kv[0]+"="+kv[1])
	}
	if req.Push {
		args = append(args, "--push")
	} else {
		args = append(args, "--load")
	}
	args = append(args, ctxPath)
	return args, nil
}

// Build validates the request, prints the plan and runs buildx once.
// No retries: a failing buildx surfaces as *executil.ExitError.
func (b *Builder) Build(ctx context.Context, req *BuildRequest) error {
	args, err := BuildArgv(req)
	if err != nil {
		return err
	}

	df, ctxPath := buildPaths(req)

	// Only validate filesystem when not in dry-run
	if !req.DryRun {
		if st, err := os.Stat(df); err != nil || st.IsDir() {
			return fmt.Errorf("Build: Dockerfile %q not found or not a file", df)
		}
		if st, err := os.Stat(ctxPath); err != nil || !st.IsDir() {
			return fmt.Errorf("Build: context %q not found or not a directory", ctxPath)
		}
	}

	bin := b.Bin
	if bin == "" {
		bin = "docker"
	}
	out := b.out()

	fmt.Fprintln(out, "— Build Plan —")
	for _, r := range dedupRefs(req.FullRefs) {
		fmt.Fprintf(out, "  tag: %s\n", r)
	}
	if len(req.Platforms) > 0 {
		fmt.Fprintf(out, "Platforms : %s\n", strings.Join(req.Platforms, ","))
	}
	fmt.Fprintf(out, "Dockerfile: %s\n", absOr(df, df))
	fmt.Fprintf(out, "Context   : %s\n", absOr(ctxPath, ctxPath))

	var runner executil.Runner = executil.DryRunner{Out: out}
	if !req.DryRun {
		runner = b.Runner
	}
	cmd := executil.Cmd{Name: bin, Args: args, Display: redactBuildArgs(args)}
	if err := runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("image build failed: %w", err)
	}
	return nil
}

func buildPaths(req *BuildRequest) (dockerfile, contextPath string) {
	dockerfile = strings.TrimSpace(req.Dockerfile)
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}
	contextPath = strings.TrimSpace(req.ContextPath)
	if contextPath == "" {
		contextPath = "."
	}
	return dockerfile, contextPath
}
