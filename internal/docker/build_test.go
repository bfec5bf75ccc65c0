package docker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"shipkit/internal/config"
	"shipkit/internal/executil"
	"shipkit/internal/runtime"
	"shipkit/internal/version"
)

type recordingRunner struct {
	cmds  []executil.Cmd
	stdin []string
	err   error
}

func (r *recordingRunner) Run(_ context.Context, cmd executil.Cmd) error {
	r.cmds = append(r.cmds, cmd)
	if cmd.Stdin != nil {
		b, _ := io.ReadAll(cmd.Stdin)
		r.stdin = append(r.stdin, string(b))
	}
	return r.err
}

// buildContextDir creates a context directory with a Dockerfile and chdirs
// into it so relative paths resolve.
func buildContextDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "docker"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"docker/Dockerfile", "docker/Dockerfile.adv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("FROM python:3.12-slim\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	t.Chdir(dir)
}

func argValues(args []string, flag string) []string {
	var out []string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			out = append(out, args[i+1])
		}
	}
	return out
}

func advancedContext() *runtime.Context {
	c := &runtime.Context{
		Project:    config.Default(),
		RunID:      "0b5c3c9e-run",
		Started:    time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
		Variant:    runtime.VariantAdvanced,
		SDKVersion: "0.1.20",
		Extension:  version.Resolution{Version: "0.1.12", Source: "env:ADVANCED_SECURITY_VERSION"},
		Revision:   "deadbeef",
	}
	return c
}

func TestBuildRequestFromContextAdvanced(t *testing.T) {
	c := advancedContext()

	req, err := BuildRequestFromContext(c)
	if err != nil {
		t.Fatalf("BuildRequestFromContext: %v", err)
	}

	wantTags := []string{"0.1.20", "0", "0.1"}
	if got := TagsOnly(req.FullRefs); !reflect.DeepEqual(got, wantTags) {
		t.Errorf("tags = %v; want %v", got, wantTags)
	}
	if req.Image != c.Project.AdvancedSecurity.Image || req.Dockerfile != c.Project.AdvancedSecurity.Dockerfile {
		t.Errorf("advanced variant not selected: %+v", req)
	}
	wantArgs := [][2]string{{"SDK_VERSION", "0.1.20"}, {"ADVANCED_SECURITY_VERSION", "0.1.12"}}
	if !reflect.DeepEqual(req.BuildArgs, wantArgs) {
		t.Errorf("BuildArgs = %v; want %v", req.BuildArgs, wantArgs)
	}
}

func TestBuildRequestFromContextSDK(t *testing.T) {
	c := advancedContext()
	c.Variant = runtime.VariantSDK
	c.Extension = version.Resolution{}
	c.Options.Latest = true
	c.Options.CustomTag = "nightly"
	c.Project.BuildArgs = map[string]string{"PYTHON_VERSION": "3.12", "EXTRAS": "all"}

	req, err := BuildRequestFromContext(c)
	if err != nil {
		t.Fatalf("BuildRequestFromContext: %v", err)
	}
	wantTags := []string{"0.1.20", "0", "0.1", "latest", "nightly"}
	if got := TagsOnly(req.FullRefs); !reflect.DeepEqual(got, wantTags) {
		t.Errorf("tags = %v; want %v", got, wantTags)
	}
	wantArgs := [][2]string{{"SDK_VERSION", "0.1.20"}, {"EXTRAS", "all"}, {"PYTHON_VERSION", "3.12"}}
	if !reflect.DeepEqual(req.BuildArgs, wantArgs) {
		t.Errorf("BuildArgs = %v; want %v", req.BuildArgs, wantArgs)
	}
}

func TestBuildRequestFromContextErrors(t *testing.T) {
	if _, err := BuildRequestFromContext(nil); err == nil {
		t.Error("expected error for nil context")
	}

	c := advancedContext()
	c.SDKVersion = ""
	if _, err := BuildRequestFromContext(c); err == nil {
		t.Error("expected error for missing SDK version")
	}

	c = advancedContext()
	c.Extension = version.Resolution{}
	if _, err := BuildRequestFromContext(c); err == nil {
		t.Error("expected error for missing extension version")
	}

	for _, custom := range []string{".hidden", "-rc", "feature/x"} {
		c = advancedContext()
		c.Options.CustomTag = custom
		if _, err := BuildRequestFromContext(c); !errors.Is(err, ErrInvalidTag) {
			t.Errorf("custom tag %q: err = %v; want ErrInvalidTag", custom, err)
		}
	}
}

func TestBuildRequestFromContextMultiPlatform(t *testing.T) {
	c := advancedContext()
	c.Platforms = []string{"linux/amd64", "linux/arm64"}
	if _, err := BuildRequestFromContext(c); !errors.Is(err, ErrMultiPlatformLoad) {
		t.Fatalf("local multi-platform build: err = %v; want ErrMultiPlatformLoad", err)
	}

	c.Options.Push = true
	req, err := BuildRequestFromContext(c)
	if err != nil {
		t.Fatalf("pushed multi-platform build: %v", err)
	}
	if !req.Push || len(req.Platforms) != 2 {
		t.Errorf("req = %+v", req)
	}

	c.Options.Push = false
	c.Platforms = []string{"linux/arm64"}
	if _, err := BuildRequestFromContext(c); err != nil {
		t.Errorf("single platform local build: %v", err)
	}
}

func TestOCILabels(t *testing.T) {
	labels := OCILabels(Metadata{
		Title:   "Naylence Agent SDK",
		License: "Apache-2.0",
		Source:  "https://github.com/naylence/naylence-agent-sdk-python",
		Created: time.Date(2026, 10, 17, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600)),
	}, "0.1.20")

	got := map[string]string{}
	for _, kv := range labels {
		got[kv[0]] = kv[1]
	}
	if got["org.opencontainers.image.created"] != "2026-10-17T10:00:00Z" {
		t.Errorf("created = %q; want UTC RFC3339", got["org.opencontainers.image.created"])
	}
	if got["org.opencontainers.image.version"] != "0.1.20" {
		t.Errorf("version label = %q", got["org.opencontainers.image.version"])
	}
	if _, ok := got["org.opencontainers.image.description"]; ok {
		t.Error("empty description should be dropped")
	}
	if labels[0][0] != "org.opencontainers.image.title" {
		t.Errorf("first label = %q; want title", labels[0][0])
	}
}

func TestBuildArgv(t *testing.T) {
	req := &BuildRequest{
		Dockerfile: "docker/Dockerfile.adv",
		FullRefs:   []string{"naylence/adv:0.1.20", "naylence/adv:0", "naylence/adv:0.1", "naylence/adv:0"},
		BuildArgs:  [][2]string{{"SDK_VERSION", "0.1.20"}, {"", "dropped"}},
		Labels:     [][2]string{{"org.opencontainers.image.version", "0.1.20"}},
		Platforms:  []string{"linux/amd64", "linux/arm64"},
		Push:       true,
	}

	args, err := BuildArgv(req)
	if err != nil {
		t.Fatalf("BuildArgv: %v", err)
	}
	if args[0] != "buildx" || args[1] != "build" {
		t.Errorf("argv should start with buildx build: %v", args)
	}
	if got := argValues(args, "-t"); !reflect.DeepEqual(got, []string{"naylence/adv:0.1.20", "naylence/adv:0", "naylence/adv:0.1"}) {
		t.Errorf("-t = %v", got)
	}
	if got := argValues(args, "--platform"); !reflect.DeepEqual(got, []string{"linux/amd64,linux/arm64"}) {
		t.Errorf("--platform = %v", got)
	}
	if got := argValues(args, "--build-arg"); !reflect.DeepEqual(got, []string{"SDK_VERSION=0.1.20"}) {
		t.Errorf("--build-arg = %v", got)
	}
	if args[len(args)-2] != "--push" || args[len(args)-1] != "." {
		t.Errorf("argv tail = %v; want --push .", args[len(args)-2:])
	}

	req.Push = false
	req.Platforms = nil
	args, _ = BuildArgv(req)
	if args[len(args)-2] != "--load" {
		t.Errorf("expected --load without push, got %v", args)
	}
	if len(argValues(args, "--platform")) != 0 {
		t.Errorf("expected no --platform, got %v", args)
	}
}

func TestBuildArgvRejectsBadRefs(t *testing.T) {
	for _, refs := range [][]string{nil, {"Naylence/SDK:1.0.0"}, {"naylence/sdk:1 0"}} {
		if _, err := BuildArgv(&BuildRequest{FullRefs: refs}); err == nil {
			t.Errorf("BuildArgv(%v) expected error", refs)
		}
	}

	multi := &BuildRequest{FullRefs: []string{"naylence/sdk:1.0.0"}, Platforms: []string{"linux/amd64", "linux/arm64"}}
	if _, err := BuildArgv(multi); !errors.Is(err, ErrMultiPlatformLoad) {
		t.Errorf("multi-platform --load: err = %v; want ErrMultiPlatformLoad", err)
	}
	multi.Push = true
	if _, err := BuildArgv(multi); err != nil {
		t.Errorf("multi-platform --push: %v", err)
	}
}

func TestBuildScenarioAdvancedFromVariable(t *testing.T) {
	buildContextDir(t)
	c := advancedContext()
	c.Options.Push = true

	req, err := BuildRequestFromContext(c)
	if err != nil {
		t.Fatalf("BuildRequestFromContext: %v", err)
	}

	runner := &recordingRunner{}
	var out bytes.Buffer
	b := &Builder{Runner: runner, Out: &out}
	if err := b.Build(context.Background(), req); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(runner.cmds) != 1 {
		t.Fatalf("expected one command, got %d", len(runner.cmds))
	}
	cmd := runner.cmds[0]
	if cmd.Name != "docker" {
		t.Errorf("binary = %q", cmd.Name)
	}
	wantRefs := []string{
		"naylence/agent-sdk-adv-python:0.1.20",
		"naylence/agent-sdk-adv-python:0",
		"naylence/agent-sdk-adv-python:0.1",
	}
	if got := argValues(cmd.Args, "-t"); !reflect.DeepEqual(got, wantRefs) {
		t.Errorf("-t = %v; want %v", got, wantRefs)
	}
	wantBuildArgs := []string{"SDK_VERSION=0.1.20", "ADVANCED_SECURITY_VERSION=0.1.12"}
	if got := argValues(cmd.Args, "--build-arg"); !reflect.DeepEqual(got, wantBuildArgs) {
		t.Errorf("--build-arg = %v; want %v", got, wantBuildArgs)
	}
	labels := strings.Join(argValues(cmd.Args, "--label"), "\n")
	for _, want := range []string{
		"org.opencontainers.image.title=Naylence Agent SDK (Advanced Security)",
		"org.opencontainers.image.licenses=Apache-2.0",
		"org.opencontainers.image.created=2026-10-17T12:00:00Z",
		"org.opencontainers.image.revision=deadbeef",
	} {
		if !strings.Contains(labels, want) {
			t.Errorf("labels missing %q:\n%s", want, labels)
		}
	}
	if !strings.Contains(out.String(), "— Build Plan —") {
		t.Errorf("build plan not printed: %q", out.String())
	}
}

func TestBuildPropagatesExitStatus(t *testing.T) {
	buildContextDir(t)
	runner := &recordingRunner{err: &executil.ExitError{Code: 17, Command: "docker buildx build"}}
	b := &Builder{Runner: runner, Out: io.Discard}

	err := b.Build(context.Background(), &BuildRequest{
		Dockerfile: "docker/Dockerfile",
		FullRefs:   []string{"naylence/sdk:1.0.0"},
	})
	var exitErr *executil.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 17 {
		t.Fatalf("expected exit status 17, got %v", err)
	}
	if len(runner.cmds) != 1 {
		t.Errorf("expected exactly one attempt, got %d", len(runner.cmds))
	}
}

func TestBuildMissingDockerfile(t *testing.T) {
	t.Chdir(t.TempDir())
	runner := &recordingRunner{}
	b := &Builder{Runner: runner, Out: io.Discard}

	err := b.Build(context.Background(), &BuildRequest{Dockerfile: "nope/Dockerfile", FullRefs: []string{"naylence/sdk:1.0.0"}})
	if err == nil {
		t.Fatal("expected error for missing Dockerfile")
	}
	if len(runner.cmds) != 0 {
		t.Error("runner invoked despite missing Dockerfile")
	}
}

func TestBuildDryRunSkipsRunner(t *testing.T) {
	runner := &recordingRunner{}
	var out bytes.Buffer
	b := &Builder{Runner: runner, Out: &out}

	err := b.Build(context.Background(), &BuildRequest{
		Dockerfile: "does/not/exist",
		FullRefs:   []string{"naylence/sdk:1.0.0"},
		BuildArgs:  [][2]string{{"PIP_INDEX_TOKEN", "s3cr3t"}},
		DryRun:     true,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(runner.cmds) != 0 {
		t.Error("runner invoked in dry-run")
	}
	if !strings.Contains(out.String(), "[DRY RUN] docker buildx build") {
		t.Errorf("dry-run output = %q", out.String())
	}
	if strings.Contains(out.String(), "s3cr3t") || !strings.Contains(out.String(), "PIP_INDEX_TOKEN=REDACTED") {
		t.Errorf("secret build arg not redacted: %q", out.String())
	}
}

func TestLogin(t *testing.T) {
	runner := &recordingRunner{}
	b := &Builder{Runner: runner, Out: io.Discard}

	ok, err := b.Login(context.Background(), Credentials{Registry: "ghcr.io", Username: "bot", Password: "pw"}, false)
	if err != nil || !ok {
		t.Fatalf("Login = %v, %v", ok, err)
	}
	cmd := runner.cmds[0]
	if strings.Contains(strings.Join(cmd.Args, " "), "pw") {
		t.Errorf("password on argv: %v", cmd.Args)
	}
	if cmd.Args[len(cmd.Args)-1] != "ghcr.io" {
		t.Errorf("registry not last arg: %v", cmd.Args)
	}
	if runner.stdin[0] != "pw\n" {
		t.Errorf("stdin = %q", runner.stdin[0])
	}

	ok, err = b.Login(context.Background(), Credentials{Username: "bot"}, false)
	if err != nil || ok {
		t.Errorf("incomplete creds: Login = %v, %v; want false, nil", ok, err)
	}
	if len(runner.cmds) != 1 {
		t.Errorf("runner invoked for incomplete creds")
	}
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name     string
		registry string
		err      error
		wantArgs []string
		wantLog  string
	}{
		{"registry", "ghcr.io", nil, []string{"logout", "ghcr.io"}, ""},
		{"docker hub", "", nil, []string{"logout"}, ""},
		{"failure only warns", "ghcr.io", errors.New("exit 1"), []string{"logout", "ghcr.io"}, `level=WARN msg="docker logout failed" registry=ghcr.io error="exit 1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &recordingRunner{err: tt.err}
			var logs bytes.Buffer
			b := &Builder{Runner: runner, Out: io.Discard}

			b.Logout(context.Background(), tt.registry, slog.New(slog.NewTextHandler(&logs, nil)))

			if len(runner.cmds) != 1 || !reflect.DeepEqual(runner.cmds[0].Args, tt.wantArgs) {
				t.Fatalf("cmds = %+v; want args %v", runner.cmds, tt.wantArgs)
			}
			if tt.wantLog == "" && logs.Len() != 0 {
				t.Errorf("unexpected log: %s", logs.String())
			}
			if tt.wantLog != "" && !strings.Contains(logs.String(), tt.wantLog) {
				t.Errorf("log = %q; want %q", logs.String(), tt.wantLog)
			}
		})
	}
}

type fakeInspector struct {
	images map[string]image.InspectResponse
}

func (f fakeInspector) ImageInspect(_ context.Context, ref string, _ ...client.ImageInspectOption) (image.InspectResponse, error) {
	resp, ok := f.images[ref]
	if !ok {
		return image.InspectResponse{}, errors.New("No such image: " + ref)
	}
	return resp, nil
}

func TestVerify(t *testing.T) {
	id := "sha256:0123456789abcdef0123456789abcdef"
	v := NewVerifier(fakeInspector{images: map[string]image.InspectResponse{
		"naylence/sdk:1.2.3": {ID: id, Size: 2048},
		"naylence/sdk:1":     {ID: id, Size: 2048},
	}})

	infos, err := v.Verify(context.Background(), []string{"naylence/sdk:1.2.3", "naylence/sdk:1"})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(infos) != 2 || infos[0].ShortID() != "0123456789ab" || infos[0].Size != 2048 {
		t.Errorf("infos = %+v", infos)
	}

	_, err = v.Verify(context.Background(), []string{"naylence/sdk:1.2.3", "naylence/sdk:1.2"})
	if err == nil || !strings.Contains(err.Error(), "naylence/sdk:1.2") {
		t.Errorf("expected missing-ref error, got %v", err)
	}
}
