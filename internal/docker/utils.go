package docker

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// ---- FS helpers ----

func absOr(p, fallback string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return fallback
}

// ---- redaction ----

func isSecretKey(k string) bool {
	k = strings.ToUpper(k)
	return strings.Contains(k, "PASSWORD") ||
		strings.Contains(k, "TOKEN") ||
		strings.Contains(k, "SECRET") ||
		k == "DOCKER_AUTH_CONFIG" ||
		k == "AWS_SECRET_ACCESS_KEY" ||
		k == "AWS_SESSION_TOKEN" ||
		k == "GOOGLE_APPLICATION_CREDENTIALS" ||
		k == "KUBECONFIG"
}

func redactBuildArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == "--build-arg" {
			kv := out[i+1]
			if eq := strings.IndexByte(kv, '='); eq > 0 {
				key := kv[:eq]
				val := kv[eq+1:]
				if isSecretKey(key) && val != "" {
					out[i+1] = key + "=REDACTED"
				}
			}
		}
	}
	return out
}

// ---- Tag normalization / validation ----

var tagAllowed = regexp.MustCompile(`^[a-z0-9_][a-z0-9_.-]{0,127}$`)

func cleanTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	// normalize common offenders early
	repl := []struct{ from, to string }{
		{"/", "-"},
		{" ", "-"},
		{"+", "-"},
	}
	for _, r := range repl {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	// collapse multiple hyphens
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	// trim to Docker's max tag length
	if len(s) > 128 {
		s = s[:128]
	}
	return s
}

func validateTag(tag string) bool {
	return tagAllowed.MatchString(tag)
}

// dedupRefs preserves insertion order.
func dedupRefs(in []string) []string {
	return lo.Uniq(in)
}

// nonEmptyPairs drops pairs with an empty key.
func nonEmptyPairs(in [][2]string) [][2]string {
	return lo.Filter(in, func(kv [2]string, _ int) bool {
		return strings.TrimSpace(kv[0]) != ""
	})
}
