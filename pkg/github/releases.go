package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ReleasesService defines the interface for GitHub Release operations.
type ReleasesService interface {
	Create(ctx context.Context, payload ReleasePayload) (Release, error)
	GetByTag(ctx context.Context, tag string) (Release, error)
}

// releasesService is a concrete implementation of ReleasesService.
type releasesService struct {
	client *Client
}

var (
	// ErrReleaseNotFound is returned by GetByTag when the tag has no release.
	ErrReleaseNotFound = errors.New("release not found")
	// ErrReleaseExists is returned by Create when the tag already has a release.
	ErrReleaseExists = errors.New("release already exists")
)

// Create creates a new release for payload.TagName.
func (s *releasesService) Create(ctx context.Context, payload ReleasePayload) (Release, error) {
	if strings.TrimSpace(payload.TagName) == "" {
		return Release{}, errors.New("Create: tag name is empty")
	}

	c := s.client
	rel, _, err := c.api.Repositories.CreateRelease(ctx, c.owner, c.repo, payload.toAPI())
	if err != nil {
		if isAlreadyExists(err) {
			return Release{}, fmt.Errorf("%w: %s", ErrReleaseExists, payload.TagName)
		}
		return Release{}, fmt.Errorf("failed to create release %q: %w", payload.TagName, err)
	}
	return fromAPI(rel), nil
}

// GetByTag returns the release attached to tag.
// A missing release is normalized to ErrReleaseNotFound.
func (s *releasesService) GetByTag(ctx context.Context, tag string) (Release, error) {
	if s == nil || s.client == nil {
		return Release{}, fmt.Errorf("GetByTag: nil client")
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Release{}, fmt.Errorf("GetByTag: empty tag")
	}

	c := s.client
	rel, _, err := c.api.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag)
	if err != nil {
		if isNotFound(err) {
			return Release{}, ErrReleaseNotFound
		}
		return Release{}, fmt.Errorf("GetByTag: fetch failed: %w", err)
	}
	return fromAPI(rel), nil
}
