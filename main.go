// shipkit main entrypoint
//
// Builds (and optionally pushes and releases) the Naylence Agent SDK Docker
// images. Meant to run as a single GitHub Actions step, or locally with a
// .env file.
//
// Keep this file simple: parse flags, load context, wire the clients, hand
// off to the pipeline. All the heavy lifting stays internal.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"shipkit/internal/docker"
	"shipkit/internal/executil"
	"shipkit/internal/gitutil"
	"shipkit/internal/logging"
	"shipkit/internal/pipeline"
	"shipkit/internal/runtime"
	"shipkit/pkg/github"
	"shipkit/pkg/pypi"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "shipkit: %v\n", err)
		var coded interface{ ExitCode() int }
		if errors.As(err, &coded) && coded.ExitCode() > 0 {
			os.Exit(coded.ExitCode())
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	// Local overrides for dev runs; harmless in CI.
	_ = godotenv.Load()

	opts, fs, err := runtime.ParseOptions(args)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stdout, "Usage: shipkit [flags]\n\n%s", fs.FlagUsages())
		return nil
	}
	if err != nil {
		return err
	}
	if opts.ShowVersion {
		fmt.Println("shipkit", version)
		return nil
	}

	// 1) Run context: flags > env > release.yaml > defaults
	rc, err := runtime.LoadContext(opts)
	if err != nil {
		return fmt.Errorf("failed to load context: %w", err)
	}

	logger := logging.NewLogger(os.Stderr, rc.Env.LogLevel, rc.Env.LogFormat, rc.Env.NoColor != "")

	// 2) Package indexes, primary first
	primary, err := pypi.NewClient("pypi", rc.Env.PyPIURL, rc.Env.IndexTimeout)
	if err != nil {
		return err
	}
	secondary, err := pypi.NewClient("testpypi", rc.Env.TestPyPIURL, rc.Env.IndexTimeout)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{
		Builder: &docker.Builder{Bin: rc.Env.DockerBin, Runner: executil.ExecRunner{}},
		Indexes: []pipeline.Index{primary, secondary},
		DialVerifier: func(ctx context.Context) (pipeline.ImageVerifier, func(), error) {
			v, closeFn, err := docker.DialVerifier(ctx)
			if err != nil {
				return nil, nil, err
			}
			return v, closeFn, nil
		},
		RepoPath: ".",
		Logger:   logger,
		Out:      os.Stdout,
	}

	// 3) Releaser only when asked for; dry runs never touch git or GitHub
	if opts.Release && !rc.DryRun {
		gh, err := github.NewClient(rc.Env.GitHubAPIURL, rc.Env.GitHubToken, rc.Project.Repository, rc.Env.IndexTimeout)
		if err != nil {
			return fmt.Errorf("[github] init failed: %w", err)
		}
		deps.Releaser = &pipeline.GitHubReleaser{
			RepoPath: ".",
			Token:    rc.Env.GitHubToken,
			Tagger:   gitutil.Tagger{Name: rc.Env.GitAuthorName, Email: rc.Env.GitAuthorEmail},
			Releases: gh.Releases,
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return pipeline.Run(ctx, &rc, deps)
}
