package steps

import (
	"strings"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Habitat for Humanity, Inc.", "habitat for humanity"},
		{"ACME Charitable Trust", "acme charitable trust"},
		{"The Example Company", "the example"},
		{"Food Bank of Springfield LLC", "food bank of springfield"},
		{"Smith Family Foundation", "smith family foundation"},
		{"  Mixed   CASE   Org  ", "mixed case org"},
		{"Co", "co"},
	}
	for _, c := range cases {
		if got := NormalizeName(c.in); got != c.want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTokenOverlap(t *testing.T) {
	if got := TokenOverlap("habitat for humanity", "habitat for humanity"); got != 1.0 {
		t.Fatalf("identical names overlap = %v, want 1.0", got)
	}
	if got := TokenOverlap("food bank springfield", "animal shelter denver"); got != 0 {
		t.Fatalf("disjoint names overlap = %v, want 0", got)
	}
	// 2 shared of max(3, 2) tokens.
	if got := TokenOverlap("food bank springfield", "food bank"); got != 2.0/3.0 {
		t.Fatalf("partial overlap = %v, want %v", got, 2.0/3.0)
	}
	if got := TokenOverlap("", "food bank"); got != 0 {
		t.Fatalf("empty side overlap = %v, want 0", got)
	}
}

func TestNameNodeID(t *testing.T) {
	a := NameNodeID("habitat for humanity")
	b := NameNodeID("habitat for humanity")
	c := NameNodeID("food bank")
	if a != b {
		t.Fatalf("same name produced different ids: %q vs %q", a, b)
	}
	if a == c {
		t.Fatalf("different names produced the same id: %q", a)
	}
	if !strings.HasPrefix(a, "name:") || len(a) != len("name:")+16 {
		t.Fatalf("unexpected id shape: %q", a)
	}
}
