package ebuild

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParseAtom(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Atom
		wantErr bool
	}{
		{
			name:  "unqualified atom",
			input: "app-editors/vim",
			want:  Atom{Category: "app-editors", Name: "vim"},
		},
		{
			name:  "qualified atom",
			input: "app-editors/vim-9.1.0866",
			want:  Atom{Category: "app-editors", Name: "vim", Version: "9.1.0866"},
		},
		{
			name:  "qualified atom with revision",
			input: "sys-apps/portage-3.0.66-r1",
			want:  Atom{Category: "sys-apps", Name: "portage", Version: "3.0.66-r1"},
		},
		{
			name:  "hyphenated package name",
			input: "www-client/firefox-bin-128.0",
			want:  Atom{Category: "www-client", Name: "firefox-bin", Version: "128.0"},
		},
		{
			name:  "hyphenated name without version",
			input: "www-client/firefox-bin",
			want:  Atom{Category: "www-client", Name: "firefox-bin"},
		},
		{
			name:  "suffix and revision",
			input: "dev-lang/go-1.24.0_rc1-r2",
			want:  Atom{Category: "dev-lang", Name: "go", Version: "1.24.0_rc1-r2"},
		},
		{
			name:    "missing category",
			input:   "vim",
			wantErr: true,
		},
		{
			name:    "extra slash",
			input:   "app-editors/vim/extra",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAtom(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAtom(%q) = %+v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAtom(%q) error = %v", tt.input, err)
			}
			if *got != tt.want {
				t.Errorf("ParseAtom(%q) = %+v, want %+v", tt.input, *got, tt.want)
			}
		})
	}
}

func TestAtomString(t *testing.T) {
	a := Atom{Category: "app-editors", Name: "vim", Version: "9.1.0866"}
	if got := a.String(); got != "app-editors/vim-9.1.0866" {
		t.Errorf("String() = %q", got)
	}
	if got := a.FullName(); got != "app-editors/vim" {
		t.Errorf("FullName() = %q", got)
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "2.0", -1},
		{"2.0", "1.0", 1},
		{"1.0", "1.0.1", -1},
		{"1.10", "1.9", 1},
		{"1.0_rc1", "1.0", -1},
		{"1.0_alpha", "1.0_beta", -1},
		{"1.0_beta2", "1.0_beta10", -1},
		{"1.0_p1", "1.0", 1},
		{"1.0-r1", "1.0", 1},
		{"1.0-r1", "1.0-r2", -1},
		{"1.0a", "1.0", 0},
		{"9.1.0866", "9.1.0900", -1},
	}

	for _, tt := range tests {
		if got := CompareVersions(tt.v1, tt.v2); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.v1, tt.v2, got, tt.want)
		}
	}
}

func TestLatestVersion(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		want     string
	}{
		{"picks newest", []string{"1.0", "1.2", "1.1"}, "1.2"},
		{"skips live", []string{"1.0", "9999"}, "1.0"},
		{"only live", []string{"9999", "99999999"}, ""},
		{"empty", nil, ""},
		{"revisions", []string{"1.0", "1.0-r2", "1.0-r1"}, "1.0-r2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LatestVersion(tt.versions); got != tt.want {
				t.Errorf("LatestVersion(%v) = %q, want %q", tt.versions, got, tt.want)
			}
		})
	}
}

func TestCompareVersionsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	genVersion := gopter.CombineGens(
		gen.IntRange(0, 20),
		gen.IntRange(0, 99),
		gen.IntRange(0, 9),
	).Map(func(vals []interface{}) string {
		v := ""
		for i, n := range vals {
			if i > 0 {
				v += "."
			}
			v += strconv.Itoa(n.(int))
		}
		return v
	})

	properties := gopter.NewProperties(parameters)

	properties.Property("antisymmetric", prop.ForAll(
		func(v1, v2 string) bool {
			return CompareVersions(v1, v2) == -CompareVersions(v2, v1)
		},
		genVersion, genVersion,
	))

	properties.Property("reflexive", prop.ForAll(
		func(v string) bool {
			return CompareVersions(v, v) == 0
		},
		genVersion,
	))

	properties.Property("revision bumps order upward", prop.ForAll(
		func(v string) bool {
			return CompareVersions(v+"-r1", v) > 0
		},
		genVersion,
	))

	properties.TestingRun(t)
}
