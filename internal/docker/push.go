// internal/docker/push.go
//
// Registry side of the flow. buildx --push does the pushing; this file
// only makes sure the docker CLI is logged in first when credentials are
// supplied through REGISTRY_USERNAME / REGISTRY_PASSWORD. Without them
// we assume an existing `docker login` (or a CI login action).

package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"shipkit/internal/executil"
)

// Credentials for `docker login`. Registry empty means Docker Hub.
type Credentials struct {
	Registry string
	Username string
	Password string
}

// Complete reports whether both username and password are present.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Username) != "" && c.Password != ""
}

// Login runs `docker login --password-stdin`. Incomplete credentials are a
// no-op returning false.
func (b *Builder) Login(ctx context.Context, creds Credentials, dry bool) (bool, error) {
	if !creds.Complete() {
		return false, nil
	}

	bin := b.Bin
	if bin == "" {
		bin = "docker"
	}

	args := []string{"login", "-u", creds.Username, "--password-stdin"}
	if r := strings.TrimSpace(creds.Registry); r != "" {
		args = append(args, r)
	}
	cmd := executil.Cmd{
		Name:  bin,
		Args:  args,
		Stdin: strings.NewReader(creds.Password + "\n"),
	}

	var runner executil.Runner = b.Runner
	if dry {
		runner = executil.DryRunner{Out: b.out()}
	}
	if err := runner.Run(ctx, cmd); err != nil {
		return false, fmt.Errorf("docker login failed: %w", err)
	}
	return true, nil
}

// Logout runs docker logout, but doesn't fail the run if it errors.
func (b *Builder) Logout(ctx context.Context, registry string, logger *slog.Logger) {
	bin := b.Bin
	if bin == "" {
		bin = "docker"
	}
	args := []string{"logout"}
	if r := strings.TrimSpace(registry); r != "" {
		args = append(args, r)
	}
	if err := b.Runner.Run(ctx, executil.Cmd{Name: bin, Args: args}); err != nil {
		logger.Warn("docker logout failed", "registry", registry, "error", err)
	}
}

func (b *Builder) out() io.Writer {
	if b.Out != nil {
		return b.Out
	}
	return os.Stdout
}
