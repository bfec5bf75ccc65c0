// internal/docker/plan.go
//
// The planner turns a resolved version into the tag matrix for one image.
//
// Rules:
//   - always        → :<version>
//   - X.Y.Z version → + :<X>, :<X.Y>
//   - --latest      → + :latest
//   - --tag <t>     → + :<t>
//
// Non-semver versions ("dev-build", "0.2.0rc1") only get the literal tag.
// Order is version, major, minor, latest, custom; duplicates collapse.
// The custom tag is used exactly as given; one docker would reject is an
// error, never rewritten.

package docker

import (
	"errors"
	"fmt"
	"strings"

	"shipkit/internal/version"
)

// ErrInvalidTag is returned by PlanTags for a custom tag docker would reject.
var ErrInvalidTag = errors.New("invalid custom tag")

// PlanTags returns the fully-qualified refs for image at ver.
func PlanTags(image, ver string, opts TagOptions) ([]string, error) {
	base := strings.TrimRight(strings.TrimSpace(image), "/:")
	if base == "" {
		return nil, errors.New("PlanTags: image is empty")
	}

	var refs []string
	add := func(tag string) {
		tag = cleanTag(tag)
		if tag == "" || !validateTag(tag) {
			return
		}
		refs = append(refs, fmt.Sprintf("%s:%s", base, tag))
	}

	ver = strings.TrimSpace(ver)
	add(ver)
	if v, ok := version.ParseStrict(ver); ok {
		add(v.MajorTag())
		add(v.MinorTag())
	}
	if opts.Latest {
		add("latest")
	}
	if custom := strings.TrimSpace(opts.Custom); custom != "" {
		if !validateTag(custom) {
			return nil, fmt.Errorf("%w %q: use lower-case letters, digits, '_', '.' or '-' (max 128, not starting with '.' or '-')", ErrInvalidTag, opts.Custom)
		}
		refs = append(refs, base+":"+custom)
	}

	return dedupRefs(refs), nil
}

// TagsOnly strips the repository from refs, for display.
func TagsOnly(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if i := strings.LastIndexByte(r, ':'); i >= 0 && !strings.Contains(r[i:], "/") {
			out = append(out, r[i+1:])
			continue
		}
		out = append(out, r)
	}
	return out
}
