package changes

import "testing"

func TestBumpVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		current            string
		typ                ChangeType
		prerelease, suffix string
		want               string
		wantErr            bool
	}{
		{name: "major resets minor and patch", current: "1.2.3", typ: Major, want: "2.0.0"},
		{name: "minor resets patch", current: "1.2.3", typ: Minor, want: "1.3.0"},
		{name: "patch", current: "1.2.3", typ: Patch, want: "1.2.4"},
		{name: "hotfix bumps patch", current: "1.2.3", typ: Hotfix, want: "1.2.4"},
		{name: "existing prerelease discarded", current: "1.2.3-beta.1", typ: Patch, want: "1.2.4"},
		{name: "prerelease name appended", current: "1.2.3", typ: Minor, prerelease: "beta", want: "1.3.0-beta.0"},
		{name: "suffix appended", current: "1.2.3", typ: Patch, suffix: "pr42", want: "1.2.4-pr42"},
		{name: "dependency never bumps", current: "1.2.3", typ: Dependency, wantErr: true},
		{name: "none never bumps", current: "1.2.3", typ: None, wantErr: true},
		{name: "malformed version", current: "1.2", typ: Patch, wantErr: true},
		{name: "non-numeric component", current: "1.x.3", typ: Patch, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BumpVersion(tt.current, tt.typ, tt.prerelease, tt.suffix)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("BumpVersion(%q, %s): expected error", tt.current, tt.typ)
				}
				return
			}
			if err != nil {
				t.Fatalf("BumpVersion(%q, %s): %v", tt.current, tt.typ, err)
			}
			if got != tt.want {
				t.Errorf("BumpVersion(%q, %s) = %q, want %q", tt.current, tt.typ, got, tt.want)
			}
		})
	}
}

func TestParseChangeType(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"none", "dependency", "hotfix", "patch", "minor", "major"} {
		t.Run(name, func(t *testing.T) {
			got, err := ParseChangeType(name)
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != name {
				t.Errorf("round trip: got %s, want %s", got, name)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseChangeType("gigantic"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestChangeTypeOrdering(t *testing.T) {
	t.Parallel()

	// The publish decision hinges on this ranking: anything above
	// Dependency is a real version bump.
	if Dependency.BumpsVersion() || None.BumpsVersion() {
		t.Error("none and dependency must not bump")
	}
	for _, typ := range []ChangeType{Hotfix, Patch, Minor, Major} {
		if !typ.BumpsVersion() {
			t.Errorf("%s must bump", typ)
		}
	}
}
