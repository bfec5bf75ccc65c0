// internal/docker/types.go
package docker

import "time"

// BuildRequest is everything one buildx invocation needs.
type BuildRequest struct {
	Dockerfile  string      // default: "Dockerfile"
	ContextPath string      // default: "."
	Image       string      // repository without tag
	Version     string      // SDK version the image is tagged with
	BuildArgs   [][2]string // KEY,VALUE (deterministic)
	Labels      [][2]string // KEY,VALUE; OCI labels first

	FullRefs []string // e.g. ["naylence/agent-sdk-python:0.1.20","naylence/agent-sdk-python:0"]

	Platforms []string // empty: builder's native platform
	Push      bool     // --push, otherwise --load
	DryRun    bool     // print only
}

// TagOptions are the optional parts of the tag matrix.
type TagOptions struct {
	Latest bool
	Custom string
}

// Metadata feeds the OCI labels.
type Metadata struct {
	Title       string
	Description string
	License     string
	Source      string
	Revision    string
	Created     time.Time
	RunID       string
}
