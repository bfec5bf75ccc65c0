package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shipkit/internal/assets"
	"shipkit/internal/gitutil"
	"shipkit/internal/version"
	"shipkit/pkg/github"
)

// Releaser tags the released commit and publishes the GitHub release.
type Releaser interface {
	// Tag creates and pushes tag. An existing tag returns an error wrapping
	// gitutil.ErrTagExists.
	Tag(ctx context.Context, tag, message string) error
	Publish(ctx context.Context, payload github.ReleasePayload) (github.Release, error)
}

// GitHubReleaser is the Releaser backed by go-git and the GitHub REST API.
type GitHubReleaser struct {
	RepoPath string
	Token    string
	Tagger   gitutil.Tagger
	Releases github.ReleasesService
}

// Tag creates the annotated tag on HEAD and pushes it. A tag that already
// exists locally is still pushed, then reported as ErrTagExists.
func (g *GitHubReleaser) Tag(ctx context.Context, tag, message string) error {
	_, createErr := gitutil.CreateTag(g.RepoPath, tag, message, g.Tagger)
	if createErr != nil && !errors.Is(createErr, gitutil.ErrTagExists) {
		return createErr
	}
	if err := gitutil.PushTag(ctx, g.RepoPath, tag, g.Token); err != nil {
		return err
	}
	return createErr
}

// Publish creates the release for payload.TagName. A release already on the
// tag is returned as is, with an error wrapping github.ErrReleaseExists.
func (g *GitHubReleaser) Publish(ctx context.Context, payload github.ReleasePayload) (github.Release, error) {
	if g.Releases == nil {
		return github.Release{}, errors.New("github client not configured")
	}
	existing, err := g.Releases.GetByTag(ctx, payload.TagName)
	switch {
	case err == nil:
		return existing, fmt.Errorf("%w: %s", github.ErrReleaseExists, payload.TagName)
	case !errors.Is(err, github.ErrReleaseNotFound):
		return github.Release{}, err
	}
	return g.Releases.Create(ctx, payload)
}

func (r *run) release(ctx context.Context) error {
	log := r.log.With(slog.String("component", "release"))
	c := r.c

	tag := version.GitTag(c.SDKVersion)
	c.ReleaseTag = tag

	v := c.ActiveVariant()
	body, err := assets.RenderReleaseNotes(assets.ReleaseNotesData{
		Title:            v.Title,
		Package:          c.Project.SDK.Package,
		Version:          c.SDKVersion,
		ExtensionPackage: c.Project.AdvancedSecurity.Package,
		Extension:        c.Extension.Version,
		ExtensionSource:  c.Extension.Source,
		Refs:             c.Refs,
		Platforms:        c.Platforms,
		Warnings:         c.PackageWarnings,
		RunID:            c.RunID,
		Revision:         c.Revision,
	})
	if err != nil {
		return err
	}

	if c.DryRun {
		log.Info("dry run: would create and push tag, then publish release", "tag", tag, "repository", c.Project.Repository)
		fmt.Fprintf(r.out, "[DRY RUN] release %s\n%s\n", tag, body)
		return nil
	}
	if r.deps.Releaser == nil {
		return errors.New("release requested but no releaser is configured")
	}

	msg := fmt.Sprintf("Release %s (%s)", tag, v.Image)
	if err := r.deps.Releaser.Tag(ctx, tag, msg); err != nil {
		if !errors.Is(err, gitutil.ErrTagExists) {
			return fmt.Errorf("release tag %s: %w", tag, err)
		}
		log.Warn("tag already exists; reusing it", "tag", tag)
	} else {
		log.Info("tag pushed", "tag", tag)
	}

	rel, err := r.deps.Releaser.Publish(ctx, github.ReleasePayload{
		TagName:         tag,
		TargetCommitish: c.Revision,
		Name:            tag,
		Body:            body,
	})
	if err != nil {
		if errors.Is(err, github.ErrReleaseExists) {
			log.Warn("release already exists", "tag", tag, "url", rel.HTMLURL)
			return nil
		}
		return fmt.Errorf("publish release %s: %w", tag, err)
	}
	log.Info("release published", "tag", tag, "url", rel.HTMLURL)
	return nil
}
