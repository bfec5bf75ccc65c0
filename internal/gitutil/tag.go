// Package gitutil creates and pushes the release tag with go-git, so the
// tool does not depend on a git binary or the runner's checkout config.
package gitutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// ErrTagExists is returned by CreateTag when the tag is already present.
var ErrTagExists = errors.New("tag already exists")

// Tagger identifies who creates an annotated tag.
type Tagger struct {
	Name  string
	Email string
}

// Open opens the repository containing path, walking up to the .git dir.
func Open(path string) (*git.Repository, error) {
	if strings.TrimSpace(path) == "" {
		path = "."
	}
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository at %s: %w", path, err)
	}
	return repo, nil
}

// HeadSHA returns the commit HEAD points to.
func HeadSHA(repoPath string) (string, error) {
	repo, err := Open(repoPath)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// CreateTag creates an annotated tag on HEAD and returns the tagged commit.
// An existing tag yields an error wrapping ErrTagExists.
func CreateTag(repoPath, tag, message string, tagger Tagger) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", errors.New("CreateTag: tag is empty")
	}
	repo, err := Open(repoPath)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}

	if message == "" {
		message = tag
	}
	_, err = repo.CreateTag(tag, head.Hash(), &git.CreateTagOptions{
		Tagger: &object.Signature{
			Name:  tagger.Name,
			Email: tagger.Email,
			When:  time.Now(),
		},
		Message: message,
	})
	if errors.Is(err, git.ErrTagExists) {
		return head.Hash().String(), fmt.Errorf("%w: %s", ErrTagExists, tag)
	}
	if err != nil {
		return "", fmt.Errorf("create tag %s: %w", tag, err)
	}
	return head.Hash().String(), nil
}

// PushTag pushes refs/tags/<tag> to origin. A token switches on HTTP basic
// auth the way GitHub Actions expects; an up-to-date remote is not an error.
func PushTag(ctx context.Context, repoPath, tag, token string) error {
	repo, err := Open(repoPath)
	if err != nil {
		return err
	}
	if _, err := repo.Tag(tag); err != nil {
		return fmt.Errorf("tag %s not found locally: %w", tag, err)
	}

	ref := plumbing.NewTagReferenceName(tag)
	opts := &git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(ref.String() + ":" + ref.String())},
	}
	if token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
	}

	err = repo.PushContext(ctx, opts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("push tag %s: %w", tag, err)
	}
	return nil
}
