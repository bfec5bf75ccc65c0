// internal/docker/options.go
//
// This layer adapts a runtime.Context into a concrete BuildRequest
// for the buildx runner: pick the variant, plan the tags, assemble the
// version build args and the OCI labels.

package docker

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"shipkit/internal/runtime"
)

// Build arg names the Dockerfiles consume.
const (
	ArgSDKVersion              = "SDK_VERSION"
	ArgAdvancedSecurityVersion = "ADVANCED_SECURITY_VERSION"
)

// ErrMultiPlatformLoad is returned when more than one platform is requested
// for a local build. `buildx --load` can only import a single-platform image
// into the classic docker image store.
var ErrMultiPlatformLoad = errors.New("building for more than one platform requires --push")

// BuildRequestFromContext produces the BuildRequest for the run's variant.
// The SDK version (and the extension version for the advanced variant)
// must already be resolved on c.
func BuildRequestFromContext(c *runtime.Context) (*BuildRequest, error) {
	if c == nil {
		return nil, fmt.Errorf("nil run context")
	}
	if strings.TrimSpace(c.SDKVersion) == "" {
		return nil, fmt.Errorf("SDK version is not resolved")
	}

	if len(c.Platforms) > 1 && !c.Options.Push {
		return nil, fmt.Errorf("%w (platforms: %s)", ErrMultiPlatformLoad, strings.Join(c.Platforms, ","))
	}

	v := c.ActiveVariant()
	if strings.TrimSpace(v.Image) == "" {
		return nil, fmt.Errorf("no image configured for variant %s", c.Variant)
	}

	refs, err := PlanTags(v.Image, c.SDKVersion, TagOptions{
		Latest: c.Options.Latest,
		Custom: c.Options.CustomTag,
	})
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no image refs produced by planner (image=%s version=%s)", v.Image, c.SDKVersion)
	}

	args := [][2]string{{ArgSDKVersion, c.SDKVersion}}
	if c.Variant == runtime.VariantAdvanced {
		if strings.TrimSpace(c.Extension.Version) == "" {
			return nil, fmt.Errorf("advanced-security version is not resolved")
		}
		args = append(args, [2]string{ArgAdvancedSecurityVersion, c.Extension.Version})
	}
	args = append(args, sortedPairs(c.Project.BuildArgs)...)

	title := lo.Ternary(v.Title != "", v.Title, c.Project.Labels.Title)
	labels := OCILabels(Metadata{
		Title:       title,
		Description: c.Project.Labels.Description,
		License:     c.Project.Labels.License,
		Source:      c.Project.Labels.Source,
		Revision:    c.Revision,
		Created:     c.Started,
		RunID:       c.RunID,
	}, c.SDKVersion)
	labels = append(labels, sortedPairs(c.Project.Labels.Extra)...)

	return &BuildRequest{
		Dockerfile:  v.Dockerfile,
		ContextPath: v.Context,
		Image:       v.Image,
		Version:     c.SDKVersion,
		BuildArgs:   args,
		Labels:      labels,
		FullRefs:    refs,
		Platforms:   c.Platforms,
		Push:        c.Options.Push,
		DryRun:      c.DryRun,
	}, nil
}

// OCILabels returns the org.opencontainers.image.* labels in a fixed order.
// Empty values are dropped.
func OCILabels(m Metadata, ver string) [][2]string {
	created := ""
	if !m.Created.IsZero() {
		created = m.Created.UTC().Format(time.RFC3339)
	}
	labels := [][2]string{
		{"org.opencontainers.image.title", m.Title},
		{"org.opencontainers.image.description", m.Description},
		{"org.opencontainers.image.version", ver},
		{"org.opencontainers.image.licenses", m.License},
		{"org.opencontainers.image.source", m.Source},
		{"org.opencontainers.image.created", created},
		{"org.opencontainers.image.revision", m.Revision},
		{"dev.naylence.build.run-id", m.RunID},
	}
	return lo.Filter(labels, func(kv [2]string, _ int) bool {
		return strings.TrimSpace(kv[1]) != ""
	})
}

func sortedPairs(m map[string]string) [][2]string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, m[k]})
	}
	return out
}
