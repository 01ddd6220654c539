package steps

import (
	"container/heap"
	"math"
)

// NodeCentrality holds the scores written back to the persisted node
// store for one foundation.
type NodeCentrality struct {
	Degree      float64
	Betweenness float64
	Closeness   float64
	PageRank    float64
	Influence   float64
}

// computeCentrality runs weighted betweenness (Brandes), closeness,
// degree, and PageRank over the similarity graph. Edge weights are
// similarities, so shortest-path distance is 1/weight. All scores are
// normalized to [0, 1]; influence is a fixed blend of the others.
func computeCentrality(g *weightedGraph) map[string]NodeCentrality {
	n := len(g.ids)
	out := make(map[string]NodeCentrality, n)
	if n == 0 {
		return out
	}

	index := make(map[string]int, n)
	for i, id := range g.ids {
		index[id] = i
	}

	betweenness := make([]float64, n)
	closeness := make([]float64, n)
	degree := make([]float64, n)
	maxDegree := 0.0
	for i, id := range g.ids {
		for _, w := range g.adj[id] {
			degree[i] += w
		}
		if degree[i] > maxDegree {
			maxDegree = degree[i]
		}
	}

	for s := 0; s < n; s++ {
		dist, sigma, order, preds := dijkstraFrom(g, index, s)

		// Closeness: mean inverse distance to reachable nodes.
		reach := 0
		distSum := 0.0
		for t := 0; t < n; t++ {
			if t != s && !math.IsInf(dist[t], 1) {
				reach++
				distSum += dist[t]
			}
		}
		if reach > 0 && distSum > 0 {
			closeness[s] = (float64(reach) / float64(n-1)) * (float64(reach) / distSum)
		}

		// Brandes dependency accumulation in reverse settle order.
		delta := make([]float64, n)
		for i := len(order) - 1; i >= 0; i-- {
			w := order[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				betweenness[w] += delta[w]
			}
		}
	}

	// Undirected: each pair counted twice; then scale to [0, 1].
	pairNorm := float64(n-1) * float64(n-2)
	for i := range betweenness {
		betweenness[i] /= 2
		if pairNorm > 0 {
			betweenness[i] /= pairNorm / 2
		}
	}

	pagerank := computePageRank(g, index)

	for i, id := range g.ids {
		c := NodeCentrality{
			Betweenness: betweenness[i],
			Closeness:   closeness[i],
			PageRank:    pagerank[i],
		}
		if maxDegree > 0 {
			c.Degree = degree[i] / maxDegree
		}
		c.Influence = 0.4*c.PageRank*float64(n) + 0.3*c.Betweenness + 0.3*c.Degree
		if c.Influence > 1 {
			c.Influence = 1
		}
		out[id] = c
	}
	return out
}

type pqItem struct {
	node int
	dist float64
	id   string
}

// distHeap orders by distance, then node id so traversal is
// deterministic.
type distHeap []pqItem

func (h distHeap) Len() int { return len(h) }
func (h distHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].id < h[j].id
}
func (h distHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x interface{}) { *h = append(*h, x.(pqItem)) }
func (h *distHeap) Pop() interface{} {
	old := *h
	item := old[len(old)-1]
	*h = old[:len(old)-1]
	return item
}

func dijkstraFrom(g *weightedGraph, index map[string]int, s int) (dist []float64, sigma []float64, order []int, preds [][]int) {
	n := len(g.ids)
	dist = make([]float64, n)
	sigma = make([]float64, n)
	preds = make([][]int, n)
	settled := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[s] = 0
	sigma[s] = 1

	pq := &distHeap{{node: s, dist: 0, id: g.ids[s]}}
	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		u := item.node
		if settled[u] {
			continue
		}
		settled[u] = true
		order = append(order, u)

		for nbr, w := range g.adj[g.ids[u]] {
			if w <= 0 {
				continue
			}
			v := index[nbr]
			d := dist[u] + 1/w
			switch {
			case d < dist[v]:
				dist[v] = d
				sigma[v] = sigma[u]
				preds[v] = []int{u}
				heap.Push(pq, pqItem{node: v, dist: d, id: g.ids[v]})
			case d == dist[v] && !settled[v]:
				sigma[v] += sigma[u]
				preds[v] = append(preds[v], u)
			}
		}
	}
	return dist, sigma, order, preds
}

const (
	pagerankDamping    = 0.85
	pagerankIterations = 100
	pagerankEpsilon    = 1e-9
)

func computePageRank(g *weightedGraph, index map[string]int) []float64 {
	n := len(g.ids)
	rank := make([]float64, n)
	next := make([]float64, n)
	outWeight := make([]float64, n)
	for i, id := range g.ids {
		rank[i] = 1 / float64(n)
		for _, w := range g.adj[id] {
			outWeight[i] += w
		}
	}

	for iter := 0; iter < pagerankIterations; iter++ {
		base := (1 - pagerankDamping) / float64(n)
		dangling := 0.0
		for i := range next {
			next[i] = base
			if outWeight[i] == 0 {
				dangling += rank[i]
			}
		}
		danglingShare := pagerankDamping * dangling / float64(n)
		for i, id := range g.ids {
			if outWeight[i] == 0 {
				continue
			}
			share := pagerankDamping * rank[i] / outWeight[i]
			for nbr, w := range g.adj[id] {
				next[index[nbr]] += share * w
			}
		}
		diff := 0.0
		for i := range next {
			next[i] += danglingShare
			diff += math.Abs(next[i] - rank[i])
		}
		rank, next = next, rank
		if diff < pagerankEpsilon {
			break
		}
	}
	return rank
}
