// internal/docker/inspect.go
//
// After a local --load build, confirm through the Engine API that every
// tag landed in the local image store before anyone runs the image.

package docker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// ImageInspector is the slice of the Docker Engine client the verifier uses.
type ImageInspector interface {
	ImageInspect(ctx context.Context, imageID string, inspectOpts ...client.ImageInspectOption) (image.InspectResponse, error)
}

// ImageInfo holds information about a local image
type ImageInfo struct {
	Ref  string
	ID   string
	Size int64
}

// Verifier checks loaded images against the local daemon.
type Verifier struct {
	api ImageInspector
}

// NewVerifier builds a Verifier on an existing inspector (tests, custom clients).
func NewVerifier(api ImageInspector) *Verifier {
	return &Verifier{api: api}
}

// DialVerifier connects to the daemon from DOCKER_HOST & friends and pings it.
// The returned close func releases the client.
func DialVerifier(ctx context.Context) (*Verifier, func(), error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := cli.Ping(pingCtx); err != nil {
		_ = cli.Close()
		return nil, nil, fmt.Errorf("docker daemon is not available: %w", err)
	}

	return &Verifier{api: cli}, func() { _ = cli.Close() }, nil
}

// Verify inspects every ref and returns their image info in order.
// The first missing ref aborts with an error naming it.
func (v *Verifier) Verify(ctx context.Context, refs []string) ([]ImageInfo, error) {
	infos := make([]ImageInfo, 0, len(refs))
	for _, ref := range dedupRefs(refs) {
		resp, err := v.api.ImageInspect(ctx, ref)
		if err != nil {
			return infos, fmt.Errorf("image %s not found locally after build: %w", ref, err)
		}
		infos = append(infos, ImageInfo{
			Ref:  ref,
			ID:   strings.TrimPrefix(resp.ID, "sha256:"),
			Size: resp.Size,
		})
	}
	return infos, nil
}

// ShortID is the first 12 hex chars of an image ID, docker-CLI style.
func (i ImageInfo) ShortID() string {
	if len(i.ID) > 12 {
		return i.ID[:12]
	}
	return i.ID
}
