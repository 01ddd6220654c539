package analysis

import (
	"sort"

	"github.com/fundlens/fundlens-backend/internal/types"
)

// Node is a vertex in the per-request funding graph snapshot.
type Node struct {
	ID             string
	Type           types.NodeType
	Name           string
	NormalizedName string

	// Grantee enrichment carried along for the thematic and co-funding
	// analyzers.
	NTEECode string
	State    string
	Country  string
	Purposes []string
}

// Edge is a grant relationship aggregated across the analyzed years.
type Edge struct {
	From          string
	To            string
	Type          types.EdgeType
	Weight        float64
	AmountsByYear map[int]float64
	FirstYear     int
	LastYear      int
}

// Graph is an id-indexed (arena-style) snapshot of the funding graph
// for one analysis request. Nodes and edges are stored in maps keyed by
// id so cycles are representable and neighbor lookup is O(1). After
// Freeze the graph is read-only and safe for concurrent readers.
type Graph struct {
	nodes map[string]*Node
	out   map[string]map[string]*Edge
	in    map[string]map[string]*Edge

	foundationIDs []string
	granteeIDs    []string

	firstYear  int
	lastYear   int
	grantCount int
	frozen     bool
}

func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		out:   make(map[string]map[string]*Edge),
		in:    make(map[string]map[string]*Edge),
	}
}

// AddNode upserts a node. Existing enrichment fields are kept unless
// the incoming node carries a non-empty value.
func (g *Graph) AddNode(n Node) *Node {
	if g.frozen || n.ID == "" {
		return g.nodes[n.ID]
	}
	existing, ok := g.nodes[n.ID]
	if !ok {
		copied := n
		g.nodes[n.ID] = &copied
		return &copied
	}
	if n.Name != "" {
		existing.Name = n.Name
	}
	if n.NormalizedName != "" {
		existing.NormalizedName = n.NormalizedName
	}
	if n.NTEECode != "" {
		existing.NTEECode = n.NTEECode
	}
	if n.State != "" {
		existing.State = n.State
	}
	if n.Country != "" {
		existing.Country = n.Country
	}
	return existing
}

// AddGranteePurpose records a grant's purpose text on the grantee node
// for thematic bucketing.
func (g *Graph) AddGranteePurpose(granteeID, purpose string) {
	if g.frozen || purpose == "" {
		return
	}
	if n, ok := g.nodes[granteeID]; ok {
		n.Purposes = append(n.Purposes, purpose)
	}
}

// AddGrant accumulates a grant payment onto the (foundation, grantee)
// edge for the given tax year.
func (g *Graph) AddGrant(foundationID, granteeID string, taxYear int, amount float64) {
	if g.frozen {
		return
	}
	if g.out[foundationID] == nil {
		g.out[foundationID] = make(map[string]*Edge)
	}
	e, ok := g.out[foundationID][granteeID]
	if !ok {
		e = &Edge{
			From:          foundationID,
			To:            granteeID,
			Type:          types.EdgeTypeGrant,
			AmountsByYear: make(map[int]float64),
			FirstYear:     taxYear,
			LastYear:      taxYear,
		}
		g.out[foundationID][granteeID] = e
		if g.in[granteeID] == nil {
			g.in[granteeID] = make(map[string]*Edge)
		}
		g.in[granteeID][foundationID] = e
	}
	e.Weight += amount
	e.AmountsByYear[taxYear] += amount
	if taxYear < e.FirstYear {
		e.FirstYear = taxYear
	}
	if taxYear > e.LastYear {
		e.LastYear = taxYear
	}

	if g.grantCount == 0 || taxYear < g.firstYear {
		g.firstYear = taxYear
	}
	if taxYear > g.lastYear {
		g.lastYear = taxYear
	}
	g.grantCount++
}

// Freeze sorts the id indexes and marks the snapshot immutable.
func (g *Graph) Freeze() {
	if g.frozen {
		return
	}
	g.foundationIDs = g.foundationIDs[:0]
	g.granteeIDs = g.granteeIDs[:0]
	for id, n := range g.nodes {
		switch n.Type {
		case types.NodeTypeFoundation:
			g.foundationIDs = append(g.foundationIDs, id)
		case types.NodeTypeGrantee:
			g.granteeIDs = append(g.granteeIDs, id)
		}
	}
	sort.Strings(g.foundationIDs)
	sort.Strings(g.granteeIDs)
	g.frozen = true
}

func (g *Graph) Node(id string) *Node { return g.nodes[id] }

// FoundationIDs returns foundation node ids in sorted order. Callers
// must not mutate the returned slice.
func (g *Graph) FoundationIDs() []string { return g.foundationIDs }

// GranteeIDs returns grantee node ids in sorted order.
func (g *Graph) GranteeIDs() []string { return g.granteeIDs }

// GrantsFrom returns the grant edges out of a foundation, keyed by
// grantee id. O(1) per node.
func (g *Graph) GrantsFrom(foundationID string) map[string]*Edge { return g.out[foundationID] }

// GrantsTo returns the grant edges into a grantee, keyed by foundation
// id. O(1) per node.
func (g *Graph) GrantsTo(granteeID string) map[string]*Edge { return g.in[granteeID] }

// Window is the inclusive tax-year range observed in the snapshot.
func (g *Graph) Window() (first, last int) { return g.firstYear, g.lastYear }

// GrantCount is the number of grant payments folded into the snapshot.
func (g *Graph) GrantCount() int { return g.grantCount }
