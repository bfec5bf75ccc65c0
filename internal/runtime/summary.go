package runtime

import (
	"fmt"
	"io"
	"strings"
)

// PrintSummary emits a scannable run report with logical sections.
// Call it after resolution so versions and refs are populated.
func (c *Context) PrintSummary(w io.Writer) {
	v := c.ActiveVariant()

	fmt.Fprintln(w, "Release Summary")
	fmt.Fprintln(w, "---------------")

	// ── Run ─────────────────────────────────────────────────────────────────────
	fmt.Fprintln(w, "Run")
	fmt.Fprintf(w, "  Run ID                : %s\n", c.RunID)
	fmt.Fprintf(w, "  Variant               : %s\n", c.Variant)
	fmt.Fprintf(w, "  Commit SHA            : %s\n", formatOrNone(c.Revision))
	fmt.Fprintf(w, "  Repository            : %s\n", formatOrNone(c.Project.Repository))
	fmt.Fprintln(w)

	// ── Versions ────────────────────────────────────────────────────────────────
	fmt.Fprintln(w, "Versions")
	fmt.Fprintf(w, "  Manifest              : %s\n", formatOrNone(c.Project.Manifest))
	fmt.Fprintf(w, "  SDK Version           : %s\n", formatOrNone(c.SDKVersion))
	if c.Variant == VariantAdvanced {
		fmt.Fprintf(w, "  Extension Version     : %s (from %s)\n", formatOrNone(c.Extension.Version), formatOrNone(c.Extension.Source))
	}
	for _, warn := range c.PackageWarnings {
		fmt.Fprintf(w, "  Warning               : %s\n", warn)
	}
	fmt.Fprintln(w)

	// ── Image ───────────────────────────────────────────────────────────────────
	fmt.Fprintln(w, "Image")
	fmt.Fprintf(w, "  Image                 : %s\n", v.Image)
	fmt.Fprintf(w, "  Dockerfile            : %s\n", v.Dockerfile)
	fmt.Fprintf(w, "  Platforms             : %s\n", formatOrNone(strings.Join(c.Platforms, ",")))
	for _, r := range c.Refs {
		fmt.Fprintf(w, "  Tag                   : %s\n", r)
	}
	fmt.Fprintln(w)

	// ── Switches ────────────────────────────────────────────────────────────────
	fmt.Fprintln(w, "Switches")
	fmt.Fprintf(w, "  Push                  : %s\n", emoji(c.Options.Push))
	fmt.Fprintf(w, "  Tag Latest            : %s\n", emoji(c.Options.Latest))
	fmt.Fprintf(w, "  Custom Tag            : %s\n", formatOrNone(c.Options.CustomTag))
	fmt.Fprintf(w, "  Package Check         : %s\n", emoji(!c.Options.SkipPackageCheck))
	fmt.Fprintf(w, "  Release               : %s\n", emoji(c.Options.Release))
	fmt.Fprintf(w, "  Dry Run Mode          : %s\n", emoji(c.DryRun))
	fmt.Fprintln(w)
}

// RegistryHost is the host part of the first ref's repository, or "" for
// Docker Hub style references ("naylence/agent-sdk-python").
func RegistryHost(image string) string {
	first, _, found := strings.Cut(image, "/")
	if !found {
		return ""
	}
	if strings.ContainsAny(first, ".:") || first == "localhost" {
		return first
	}
	return ""
}

// RegistryFor picks the registry to log into: REGISTRY wins, then the
// image's host.
func (c *Context) RegistryFor(image string) string {
	return firstNonEmpty(c.Env.Registry, RegistryHost(image))
}
