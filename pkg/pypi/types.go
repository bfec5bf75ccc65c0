package pypi

// Package is the subset of the JSON API project document we read.
type Package struct {
	Info     PackageInfo              `json:"info"`
	Releases map[string][]ReleaseFile `json:"releases"`
}

type PackageInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"` // latest non-prerelease per the index
	License string `json:"license,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type ReleaseFile struct {
	Filename    string `json:"filename"`
	PackageType string `json:"packagetype,omitempty"` // sdist | bdist_wheel
	UploadTime  string `json:"upload_time_iso_8601,omitempty"`
	Yanked      bool   `json:"yanked"`
}
