package assets

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

//go:embed release_notes.md
var content embed.FS

// ReleaseNotesData feeds release_notes.md.
type ReleaseNotesData struct {
	Title            string
	Package          string
	Version          string
	ExtensionPackage string
	Extension        string
	ExtensionSource  string
	Refs             []string
	Platforms        []string
	Warnings         []string
	RunID            string
	Revision         string
}

// ReleaseNotesTemplate loads the embedded release_notes.md as a string.
func ReleaseNotesTemplate() string {
	data, err := content.ReadFile("release_notes.md")
	if err != nil {
		return fmt.Sprintf("<!-- shipkit:release-notes --> (error reading release_notes.md: %v)", err)
	}
	return string(data)
}

// RenderReleaseNotes renders the GitHub release body.
func RenderReleaseNotes(d ReleaseNotesData) (string, error) {
	if len(d.Refs) == 0 {
		return "", errors.New("release notes need at least one image ref")
	}
	tmpl, err := template.New("release_notes").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(ReleaseNotesTemplate())
	if err != nil {
		return "", fmt.Errorf("parse release notes template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render release notes: %w", err)
	}
	return buf.String(), nil
}
