package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Request identifies one analysis run. FoundationIDs and TaxYears are
// canonicalized (sorted, deduplicated) by Normalize so that the cache
// key is order-independent.
type Request struct {
	FoundationIDs  []string      `json:"foundation_ids"`
	TaxYears       []int         `json:"tax_years"`
	MinFoundations int           `json:"min_foundations"`
	Timeout        time.Duration `json:"-"`
}

func (r Request) Normalize(defaultMinFoundations int) Request {
	out := Request{
		MinFoundations: r.MinFoundations,
		Timeout:        r.Timeout,
	}
	if out.MinFoundations == 0 {
		out.MinFoundations = defaultMinFoundations
	}

	seenID := make(map[string]bool, len(r.FoundationIDs))
	for _, id := range r.FoundationIDs {
		id = strings.TrimSpace(id)
		if id == "" || seenID[id] {
			continue
		}
		seenID[id] = true
		out.FoundationIDs = append(out.FoundationIDs, id)
	}
	sort.Strings(out.FoundationIDs)

	seenYear := make(map[int]bool, len(r.TaxYears))
	for _, y := range r.TaxYears {
		if y == 0 || seenYear[y] {
			continue
		}
		seenYear[y] = true
		out.TaxYears = append(out.TaxYears, y)
	}
	sort.Ints(out.TaxYears)

	return out
}

// Validate rejects structurally invalid requests. A request with fewer
// than two foundations is valid (it yields empty pairwise results), but
// a non-positive minimum is a caller bug.
func (r Request) Validate() error {
	if r.MinFoundations < 1 {
		return fmt.Errorf("%w: min_foundations must be >= 1, got %d", ErrInvalidRequest, r.MinFoundations)
	}
	if len(r.FoundationIDs) == 0 {
		return fmt.Errorf("%w: at least one foundation id required", ErrInvalidRequest)
	}
	return nil
}

// CacheKey is a stable hash over the canonicalized request. Call on a
// normalized request.
func (r Request) CacheKey() string {
	var b strings.Builder
	b.WriteString("foundations=")
	b.WriteString(strings.Join(r.FoundationIDs, ","))
	b.WriteString("|years=")
	for i, y := range r.TaxYears {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%d", y)
	}
	fmt.Fprintf(&b, "|min=%d", r.MinFoundations)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
