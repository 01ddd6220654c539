package steps

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

var corporateSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"llc":          true,
	"corp":         true,
	"corporation":  true,
	"ltd":          true,
	"limited":      true,
	"co":           true,
	"company":      true,
}

// NormalizeName lowercases, strips punctuation, drops trailing
// corporate suffixes, and collapses whitespace.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	tokens := strings.Fields(b.String())
	for len(tokens) > 1 && corporateSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// TokenOverlap is |A∩B| / max(|A|,|B|) over the token sets of two
// normalized names. Returns 0 when either side is empty.
func TokenOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for tok := range setA {
		if setB[tok] {
			shared++
		}
	}
	denom := len(setA)
	if len(setB) > denom {
		denom = len(setB)
	}
	return float64(shared) / float64(denom)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

// NameNodeID derives a stable node id for a grantee that filed without
// an EIN.
func NameNodeID(normalizedName string) string {
	sum := sha256.Sum256([]byte(normalizedName))
	return "name:" + hex.EncodeToString(sum[:])[:16]
}
