package github

import gh "github.com/google/go-github/v73/github"

type Release struct {
	ID           int64
	TagName      string // e.g. v0.1.20
	Name         string
	Body         string
	IsDraft      bool
	IsPreRelease bool
	HTMLURL      string // release page
}

// ReleasePayload is what a new GitHub release is created from.
type ReleasePayload struct {
	TagName         string
	TargetCommitish string // empty means the default branch
	Name            string
	Body            string
	Draft           bool
	Prerelease      bool
}

func fromAPI(r *gh.RepositoryRelease) Release {
	return Release{
		ID:           r.GetID(),
		TagName:      r.GetTagName(),
		Name:         r.GetName(),
		Body:         r.GetBody(),
		IsDraft:      r.GetDraft(),
		IsPreRelease: r.GetPrerelease(),
		HTMLURL:      r.GetHTMLURL(),
	}
}

func (p ReleasePayload) toAPI() *gh.RepositoryRelease {
	rel := &gh.RepositoryRelease{
		TagName:    gh.Ptr(p.TagName),
		Name:       gh.Ptr(p.Name),
		Body:       gh.Ptr(p.Body),
		Draft:      gh.Ptr(p.Draft),
		Prerelease: gh.Ptr(p.Prerelease),
	}
	if p.TargetCommitish != "" {
		rel.TargetCommitish = gh.Ptr(p.TargetCommitish)
	}
	return rel
}
