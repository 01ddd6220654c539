package steps

import (
	"sort"

	"github.com/fundlens/fundlens-backend/internal/modules/analysis"
	"github.com/fundlens/fundlens-backend/internal/types"
)

// ComputeOverlaps builds per-foundation grantee-id sets once, then
// intersects them for every unordered pair. Overlap percentage is
// relative to the smaller portfolio so a large generalist funder is not
// penalized against many small peers. O(k²) pair comparisons, each
// O(set size).
func ComputeOverlaps(g *analysis.Graph) []types.FoundationOverlap {
	foundations := g.FoundationIDs()
	if len(foundations) < 2 {
		return nil
	}

	sets := make(map[string]map[string]bool, len(foundations))
	for _, fid := range foundations {
		set := make(map[string]bool)
		for granteeID := range g.GrantsFrom(fid) {
			set[granteeID] = true
		}
		sets[fid] = set
	}

	var out []types.FoundationOverlap
	for i := 0; i < len(foundations); i++ {
		for j := i + 1; j < len(foundations); j++ {
			a, b := foundations[i], foundations[j]
			setA, setB := sets[a], sets[b]
			if len(setA) == 0 || len(setB) == 0 {
				continue
			}

			small, large := setA, setB
			if len(setB) < len(setA) {
				small, large = setB, setA
			}
			var shared []string
			for id := range small {
				if large[id] {
					shared = append(shared, id)
				}
			}
			if len(shared) == 0 {
				continue
			}
			sort.Strings(shared)

			out = append(out, types.FoundationOverlap{
				FoundationA:       a,
				FoundationB:       b,
				SharedGrantees:    len(shared),
				OverlapPercentage: float64(len(shared)) / float64(len(small)),
				SharedGranteeIDs:  shared,
			})
		}
	}
	return out
}
