package buildinfo

import "testing"

func TestShortAndLong(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)

	Version, Commit, Date = "dev", "unknown", "unknown"
	if Short() != "dev" || Long() != "dev" {
		t.Fatalf("Short=%q Long=%q", Short(), Long())
	}

	Commit = "abc123"
	if Short() != "abc123" || Long() != "abc123" {
		t.Fatalf("Short=%q Long=%q", Short(), Long())
	}

	Version, Date = "v0.2.0", "2026-10-01"
	if got := Long(); got != "v0.2.0 abc123 (2026-10-01)" {
		t.Fatalf("Long=%q", got)
	}
}
