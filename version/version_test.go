package version

import "testing"

func TestString(t *testing.T) {
	defer func(v, c string) { Version, GitCommit = v, c }(Version, GitCommit)

	Version, GitCommit = "1.2.3", ""
	if got := String(); got != "1.2.3" {
		t.Errorf("String() = %q, want %q", got, "1.2.3")
	}
	GitCommit = "abc123"
	if got, want := String(), "1.2.3 (abc123)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
