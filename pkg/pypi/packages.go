package pypi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"shipkit/internal/version"
)

type PackagesService interface {
	GetPackage(ctx context.Context, pkg string) (Package, error)
	ListVersions(ctx context.Context, pkg string) ([]string, error)
	LatestVersion(ctx context.Context, pkg string) (string, error)
	HasVersion(ctx context.Context, pkg, version string) (bool, error)
}

type packagesService struct {
	client *Client
}

// GetPackage fetches /pypi/<pkg>/json.
func (s *packagesService) GetPackage(ctx context.Context, pkg string) (Package, error) {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return Package{}, fmt.Errorf("GetPackage: empty package name")
	}

	respData, err := s.client.DoRequest(ctx, fmt.Sprintf("/pypi/%s/json", url.PathEscape(pkg)))
	if err != nil {
		if IsNotFound(err) {
			return Package{}, fmt.Errorf("%s on %s: %w", pkg, s.client.name, ErrPackageNotFound)
		}
		return Package{}, fmt.Errorf("GetPackage %s: %w", pkg, err)
	}

	var p Package
	if err := json.Unmarshal(respData, &p); err != nil {
		return Package{}, fmt.Errorf("GetPackage %s: unmarshal: %w", pkg, err)
	}
	return p, nil
}

// ListVersions returns every release that still has files, newest first.
// Plain X.Y.Z releases sort numerically ahead of anything else; the rest
// (pre-releases, dev builds) keep a stable lexical order after them.
func (s *packagesService) ListVersions(ctx context.Context, pkg string) ([]string, error) {
	p, err := s.GetPackage(ctx, pkg)
	if err != nil {
		return nil, err
	}

	return publishedVersions(p), nil
}

// LatestVersion returns the index's own info.version unless every file of
// that release is yanked; only then does it fall back to the newest entry of
// ListVersions.
func (s *packagesService) LatestVersion(ctx context.Context, pkg string) (string, error) {
	p, err := s.GetPackage(ctx, pkg)
	if err != nil {
		return "", err
	}

	if v := strings.TrimSpace(p.Info.Version); v != "" {
		if files, listed := p.Releases[v]; !listed || len(files) == 0 || !allYanked(files) {
			return v, nil
		}
	}
	if versions := publishedVersions(p); len(versions) > 0 {
		return versions[0], nil
	}
	return "", fmt.Errorf("%s on %s has no releases: %w", pkg, s.client.name, ErrPackageNotFound)
}

// HasVersion checks /pypi/<pkg>/<version>/json.
func (s *packagesService) HasVersion(ctx context.Context, pkg, ver string) (bool, error) {
	path := fmt.Sprintf("/pypi/%s/%s/json", url.PathEscape(strings.TrimSpace(pkg)), url.PathEscape(strings.TrimSpace(ver)))
	if _, err := s.client.DoRequest(ctx, path); err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("HasVersion %s==%s: %w", pkg, ver, err)
	}
	return true, nil
}

func publishedVersions(p Package) []string {
	versions := make([]string, 0, len(p.Releases))
	for v, files := range p.Releases {
		if len(files) == 0 || allYanked(files) {
			continue
		}
		versions = append(versions, v)
	}
	sortNewestFirst(versions)
	return versions
}

func allYanked(files []ReleaseFile) bool {
	for _, f := range files {
		if !f.Yanked {
			return false
		}
	}
	return true
}

func sortNewestFirst(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		vi, iok := version.ParseStrict(versions[i])
		vj, jok := version.ParseStrict(versions[j])
		switch {
		case iok && jok:
			return vj.LessThan(vi)
		case iok != jok:
			return iok
		default:
			return versions[i] > versions[j]
		}
	})
}
