package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// VersionChecker reports whether a package index carries pkg==version.
// *pypi.Client satisfies it.
type VersionChecker interface {
	Name() string
	HasVersion(ctx context.Context, pkg, version string) (bool, error)
}

// CheckPackages confirms the versions being baked into the image are
// published. It never fails the run: misses and lookup errors become
// warnings on the context and in the log.
func CheckPackages(ctx context.Context, c *Context, indexes []VersionChecker, logger *slog.Logger) {
	if c == nil || c.Options.SkipPackageCheck {
		return
	}

	type want struct{ pkg, version string }
	wants := []want{{c.Project.SDK.Package, c.SDKVersion}}
	if c.Variant == VariantAdvanced {
		wants = append(wants, want{c.Project.AdvancedSecurity.Package, c.Extension.Version})
	}

	for _, w := range wants {
		if strings.TrimSpace(w.pkg) == "" || strings.TrimSpace(w.version) == "" {
			continue
		}
		if where, ok := findPackage(ctx, indexes, w.pkg, w.version, logger); ok {
			logger.Info("package found", "package", w.pkg, "version", w.version, "index", where)
			continue
		}
		msg := fmt.Sprintf("%s==%s not found on any package index; the image build may fail", w.pkg, w.version)
		c.PackageWarnings = append(c.PackageWarnings, msg)
		logger.Warn("package not found on any index", "package", w.pkg, "version", w.version)
	}
}

func findPackage(ctx context.Context, indexes []VersionChecker, pkg, version string, logger *slog.Logger) (string, bool) {
	for _, idx := range indexes {
		ok, err := idx.HasVersion(ctx, pkg, version)
		if err != nil {
			logger.Warn("index lookup failed", "index", idx.Name(), "package", pkg, "version", version, "error", err)
			continue
		}
		if ok {
			return idx.Name(), true
		}
	}
	return "", false
}
