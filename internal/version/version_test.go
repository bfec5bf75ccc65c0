package version

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Version
		expectErr bool
	}{
		{
			name:  "Valid version",
			input: "1.2.3",
			want:  Version{Major: 1, Minor: 2, Patch: 3},
		},
		{
			name:      "Missing patch",
			input:     "1.2",
			expectErr: true,
		},
		{
			name:      "Too many segments",
			input:     "1.2.3.4",
			expectErr: true,
		},
		{
			name:      "Non-numeric parts",
			input:     "a.b.c",
			expectErr: true,
		},
		{
			name:      "Invalid minor version",
			input:     "1.b.3",
			expectErr: true,
		},
		{
			name:      "Invalid patch version",
			input:     "1.2.c",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)

			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error but got none for input %q", tt.input)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error for input %q: %v", tt.input, err)
				}
				if got != tt.want {
					t.Errorf("expected %+v, got %+v", tt.want, got)
				}
			}
		})
	}
}

func TestIsSemver(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1.2.3", true},
		{"0.1.20", true},
		{"10.0.0", true},
		{"v1.2.3", false},
		{"1.2.3-rc.1", false},
		{"1.2", false},
		{"dev-build", false},
		{"+1.2.3", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsSemver(tt.input); got != tt.want {
			t.Errorf("IsSemver(%q) = %v; want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseStrict(t *testing.T) {
	v, ok := ParseStrict("0.1.20")
	if !ok {
		t.Fatal("expected 0.1.20 to parse")
	}
	if v.MajorTag() != "0" || v.MinorTag() != "0.1" || v.String() != "0.1.20" {
		t.Errorf("unexpected tags: major=%q minor=%q full=%q", v.MajorTag(), v.MinorTag(), v.String())
	}

	if _, ok := ParseStrict("+1.2.3"); ok {
		t.Error("expected +1.2.3 to be rejected")
	}
}

func TestLessThan(t *testing.T) {
	tests := []struct {
		a, b Version
		want bool
	}{
		{Version{1, 0, 0}, Version{1, 0, 1}, true},
		{Version{1, 2, 0}, Version{1, 3, 0}, true},
		{Version{1, 2, 3}, Version{2, 0, 0}, true},
		{Version{0, 1, 9}, Version{0, 1, 10}, true},
		{Version{2, 0, 0}, Version{1, 2, 3}, false},
		{Version{1, 2, 3}, Version{1, 2, 3}, false},
	}

	for _, tt := range tests {
		got := tt.a.LessThan(tt.b)
		if got != tt.want {
			t.Errorf("LessThan(%v, %v) = %v; want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestGitTag(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0.1.20", "v0.1.20"},
		{"v1.0.0", "v1.0.0"},
		{" 1.2.3 ", "v1.2.3"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := GitTag(tt.in); got != tt.want {
			t.Errorf("GitTag(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
