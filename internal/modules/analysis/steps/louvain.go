package steps

import "sort"

// weightedGraph is the undirected foundation-to-foundation similarity
// graph. ids are sorted; adj is symmetric.
type weightedGraph struct {
	ids []string
	adj map[string]map[string]float64
}

func newWeightedGraph(ids []string) *weightedGraph {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return &weightedGraph{
		ids: sorted,
		adj: make(map[string]map[string]float64, len(sorted)),
	}
}

func (g *weightedGraph) addEdge(a, b string, weight float64) {
	if a == b || weight <= 0 {
		return
	}
	if g.adj[a] == nil {
		g.adj[a] = make(map[string]float64)
	}
	if g.adj[b] == nil {
		g.adj[b] = make(map[string]float64)
	}
	g.adj[a][b] = weight
	g.adj[b][a] = weight
}

// doubleWeight is 2m: every edge counted from both endpoints. Summed
// in sorted order so the value is bit-identical across runs.
func (g *weightedGraph) doubleWeight() float64 {
	total := 0.0
	for _, id := range g.ids {
		for _, nbr := range sortedKeys(g.adj[id]) {
			total += g.adj[id][nbr]
		}
	}
	return total
}

type louvainResult struct {
	// community holds a dense community index per node id.
	community map[string]int
	// groups are member-id lists, each sorted, ordered by first member.
	groups     [][]string
	modularity float64
	// perGroup is each group's contribution to modularity, aligned
	// with groups.
	perGroup  []float64
	converged bool
}

// runLouvain is a single-level greedy modularity optimization over the
// weighted similarity graph. Determinism: nodes are visited in sorted
// id order and ties between candidate communities break toward the
// lowest community index, so identical input always yields an
// identical partition. Hitting the iteration cap returns the best
// partition found with converged=false.
func runLouvain(g *weightedGraph, maxIterations int) *louvainResult {
	n := len(g.ids)
	res := &louvainResult{community: make(map[string]int, n)}
	if n == 0 {
		res.converged = true
		return res
	}

	index := make(map[string]int, n)
	for i, id := range g.ids {
		index[id] = i
	}

	// Sorted neighbor lists keep float accumulation order fixed, so
	// tie comparisons are bit-identical across runs.
	nbrs := make(map[string][]string, n)
	for _, id := range g.ids {
		nbrs[id] = sortedKeys(g.adj[id])
	}

	m2 := g.doubleWeight()
	comm := make([]int, n)
	degree := make([]float64, n)
	commTotal := make([]float64, n)
	for i, id := range g.ids {
		comm[i] = i
		for _, nbr := range nbrs[id] {
			degree[i] += g.adj[id][nbr]
		}
		commTotal[i] = degree[i]
	}

	if m2 > 0 {
		for iter := 0; iter < maxIterations; iter++ {
			moves := 0
			for i, id := range g.ids {
				current := comm[i]

				// Weight from this node into each neighboring community.
				toComm := make(map[int]float64)
				for _, nbr := range nbrs[id] {
					toComm[comm[index[nbr]]] += g.adj[id][nbr]
				}

				commTotal[current] -= degree[i]

				bestComm := current
				bestGain := gain(toComm[current], commTotal[current], degree[i], m2)
				candidates := make([]int, 0, len(toComm))
				for c := range toComm {
					candidates = append(candidates, c)
				}
				sort.Ints(candidates)
				for _, c := range candidates {
					if c == current {
						continue
					}
					candGain := gain(toComm[c], commTotal[c], degree[i], m2)
					if candGain > bestGain || (candGain == bestGain && c < bestComm) {
						bestGain = candGain
						bestComm = c
					}
				}

				commTotal[bestComm] += degree[i]
				if bestComm != current {
					comm[i] = bestComm
					moves++
				}
			}
			if moves == 0 {
				res.converged = true
				break
			}
		}
	} else {
		res.converged = true
	}

	// Group members; group order follows the smallest member id.
	byComm := make(map[int][]string)
	for i, id := range g.ids {
		byComm[comm[i]] = append(byComm[comm[i]], id)
	}
	commIDs := make([]int, 0, len(byComm))
	for c := range byComm {
		commIDs = append(commIDs, c)
	}
	sort.Slice(commIDs, func(i, j int) bool {
		return byComm[commIDs[i]][0] < byComm[commIDs[j]][0]
	})

	for dense, c := range commIDs {
		members := byComm[c]
		res.groups = append(res.groups, members)
		for _, id := range members {
			res.community[id] = dense
		}
		res.perGroup = append(res.perGroup, groupModularity(g, members, m2))
	}
	for _, q := range res.perGroup {
		res.modularity += q
	}
	return res
}

// gain is the modularity delta of inserting an isolated node with
// weighted degree k into a community: w_in/m - tot*k/(2m²), expressed
// with m2 = 2m.
func gain(wIn, commTotal, k, m2 float64) float64 {
	return wIn/m2*2 - commTotal*k/(m2*m2)*2
}

// groupModularity is Σin/2m - (Σtot/2m)² for one community.
func groupModularity(g *weightedGraph, members []string, m2 float64) float64 {
	if m2 == 0 {
		return 0
	}
	inGroup := make(map[string]bool, len(members))
	for _, id := range members {
		inGroup[id] = true
	}
	sumIn := 0.0
	sumTot := 0.0
	for _, id := range members {
		for nbr, w := range g.adj[id] {
			sumTot += w
			if inGroup[nbr] {
				sumIn += w
			}
		}
	}
	return sumIn/m2 - (sumTot/m2)*(sumTot/m2)
}
