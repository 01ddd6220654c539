package steps

import (
	"math"
	"sort"

	"github.com/fundlens/fundlens-backend/internal/config"
	"github.com/fundlens/fundlens-backend/internal/modules/analysis"
	"github.com/fundlens/fundlens-backend/internal/types"
)

// FindBundledGrantees selects grantees funded by at least minFoundations
// foundations and classifies each one's funding trajectory.
func FindBundledGrantees(g *analysis.Graph, tuning config.Tuning, minFoundations int) []types.BundledGrantee {
	if minFoundations < 1 {
		minFoundations = 1
	}

	var out []types.BundledGrantee
	for _, granteeID := range g.GranteeIDs() {
		funders := g.GrantsTo(granteeID)
		if len(funders) < minFoundations {
			continue
		}

		node := g.Node(granteeID)
		bundled := types.BundledGrantee{
			GranteeID:       granteeID,
			GranteeName:     node.Name,
			FoundationCount: len(funders),
		}

		totalsByYear := make(map[int]float64)
		for _, foundationID := range sortedKeys(funders) {
			e := funders[foundationID]
			src := types.FundingSource{
				FoundationID:  foundationID,
				AmountsByYear: make(map[int]float64, len(e.AmountsByYear)),
			}
			if fn := g.Node(foundationID); fn != nil {
				src.FoundationName = fn.Name
			}
			for year, amount := range e.AmountsByYear {
				src.AmountsByYear[year] = amount
				src.TotalAmount += amount
				totalsByYear[year] += amount
			}
			bundled.TotalFunding += src.TotalAmount
			bundled.FundingSources = append(bundled.FundingSources, src)
		}

		_, windowEnd := g.Window()
		bundled.FundingStability = classifyStability(totalsByYear, windowEnd, tuning)
		out = append(out, bundled)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalFunding != out[j].TotalFunding {
			return out[i].TotalFunding > out[j].TotalFunding
		}
		if out[i].FoundationCount != out[j].FoundationCount {
			return out[i].FoundationCount > out[j].FoundationCount
		}
		return out[i].GranteeName < out[j].GranteeName
	})
	return out
}

// classifyStability labels a grantee's combined per-year funding:
//
//	NEW       first observed year is the final year of the window
//	GROWING   most recent >=2 years rise monotonically by >TrendStep each
//	DECLINING same, falling
//	STABLE    consecutive years, adjacent change within StableTolerance
//	SPORADIC  gaps in the year series, or none of the above
func classifyStability(totalsByYear map[int]float64, windowEnd int, tuning config.Tuning) types.FundingStability {
	years := sortedIntKeys(totalsByYear)
	if len(years) == 0 {
		return types.StabilitySporadic
	}
	if years[0] == windowEnd {
		return types.StabilityNew
	}
	if len(years) == 1 {
		return types.StabilitySporadic
	}

	hasGap := false
	for i := 1; i < len(years); i++ {
		if years[i] != years[i-1]+1 {
			hasGap = true
			break
		}
	}
	if hasGap {
		return types.StabilitySporadic
	}

	// Relative step between the most recent two years decides trend.
	last := totalsByYear[years[len(years)-1]]
	prev := totalsByYear[years[len(years)-2]]
	step := relativeChange(prev, last)
	switch {
	case step > tuning.TrendStep:
		return types.StabilityGrowing
	case step < -tuning.TrendStep:
		return types.StabilityDeclining
	}

	maxVariation := 0.0
	for i := 1; i < len(years); i++ {
		v := math.Abs(relativeChange(totalsByYear[years[i-1]], totalsByYear[years[i]]))
		if v > maxVariation {
			maxVariation = v
		}
	}
	if maxVariation < tuning.StableTolerance {
		return types.StabilityStable
	}
	return types.StabilitySporadic
}

func relativeChange(from, to float64) float64 {
	if from == 0 {
		if to == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return (to - from) / from
}
