package router

import (
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/pool-graph/internal/domain"
)

// PoolGraph answers route queries between token mints.
type PoolGraph interface {
	GetRoute(start, end solana.PublicKey, opts *domain.RouteFindOptions) []domain.RoutePath
	GetAllRoutes(pairs [][2]solana.PublicKey, opts *domain.RouteFindOptions) domain.RoutePathMap
}

type edge struct {
	neighbor solana.PublicKey
	pool     solana.PublicKey
}

// AdjacencyPoolGraph is an adjacency list over token mints where every pool
// is an undirected edge. Parallel pools for the same pair are kept as
// distinct edges. The graph is read-only once built and safe for concurrent
// readers.
type AdjacencyPoolGraph struct {
	adj    map[solana.PublicKey][]edge
	tokens []solana.PublicKey
	pools  int
}

func newAdjacencyPoolGraph(pairs []domain.PoolTokenPair) *AdjacencyPoolGraph {
	g := &AdjacencyPoolGraph{
		adj:    make(map[solana.PublicKey][]edge, len(pairs)),
		tokens: make([]solana.PublicKey, 0, len(pairs)),
	}
	for _, pair := range pairs {
		g.addPoolToAdj(pair)
	}
	return g
}

// addPoolToAdj adds a pool to adjacency map
func (g *AdjacencyPoolGraph) addPoolToAdj(pair domain.PoolTokenPair) {
	// Add A -> B
	g.addEdge(pair.TokenMintA, pair.TokenMintB, pair.Address)
	// Add B -> A
	g.addEdge(pair.TokenMintB, pair.TokenMintA, pair.Address)
	g.pools++
}

func (g *AdjacencyPoolGraph) addEdge(from, to, pool solana.PublicKey) {
	if _, ok := g.adj[from]; !ok {
		g.tokens = append(g.tokens, from)
	}
	g.adj[from] = append(g.adj[from], edge{neighbor: to, pool: pool})
}

// GetRoute returns every route of at most MaxRouteHops hops from start to end.
// Direct routes come first, followed by two-hop routes grouped by
// intermediate token. With nil opts any neighbor of start may serve as the
// intermediate; otherwise only opts.IntermediateTokens are tried, in order.
func (g *AdjacencyPoolGraph) GetRoute(start, end solana.PublicKey, opts *domain.RouteFindOptions) []domain.RoutePath {
	routes := make([]domain.RoutePath, 0)
	if start.Equals(end) {
		return routes
	}

	for _, e := range g.adj[start] {
		if e.neighbor.Equals(end) {
			routes = append(routes, domain.RoutePath{
				StartMint: start,
				EndMint:   end,
				Edges:     []solana.PublicKey{e.pool},
			})
		}
	}

	if domain.MaxRouteHops < 2 {
		return routes
	}
	for _, mid := range g.intermediates(start, end, opts) {
		firstLeg := g.poolsBetween(start, mid)
		if len(firstLeg) == 0 {
			continue
		}
		secondLeg := g.poolsBetween(mid, end)
		for _, first := range firstLeg {
			for _, second := range secondLeg {
				routes = append(routes, domain.RoutePath{
					StartMint: start,
					EndMint:   end,
					Edges:     []solana.PublicKey{first, second},
				})
			}
		}
	}

	return routes
}

// GetAllRoutes runs GetRoute for every pair and keys the results by route id.
// Pairs without routes map to an empty slice. Pairs sharing a route id keep
// the routes of the last such pair.
func (g *AdjacencyPoolGraph) GetAllRoutes(pairs [][2]solana.PublicKey, opts *domain.RouteFindOptions) domain.RoutePathMap {
	routeMap := make(domain.RoutePathMap, len(pairs))
	for _, pair := range pairs {
		routeMap[GetRouteID(pair[0], pair[1])] = g.GetRoute(pair[0], pair[1], opts)
	}
	return routeMap
}

func (g *AdjacencyPoolGraph) intermediates(start, end solana.PublicKey, opts *domain.RouteFindOptions) []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{})
	candidates := make([]solana.PublicKey, 0)
	add := func(token solana.PublicKey) {
		if token.Equals(start) || token.Equals(end) {
			return
		}
		if _, ok := seen[token]; ok {
			return
		}
		seen[token] = struct{}{}
		candidates = append(candidates, token)
	}

	if opts == nil {
		for _, token := range g.Neighbors(start) {
			add(token)
		}
		return candidates
	}
	for _, token := range opts.IntermediateTokens {
		add(token)
	}
	return candidates
}

func (g *AdjacencyPoolGraph) poolsBetween(from, to solana.PublicKey) []solana.PublicKey {
	var pools []solana.PublicKey
	for _, e := range g.adj[from] {
		if e.neighbor.Equals(to) {
			pools = append(pools, e.pool)
		}
	}
	return pools
}

// Neighbors returns the distinct tokens sharing at least one pool with token.
func (g *AdjacencyPoolGraph) Neighbors(token solana.PublicKey) []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{})
	neighbors := make([]solana.PublicKey, 0, len(g.adj[token]))
	for _, e := range g.adj[token] {
		if _, ok := seen[e.neighbor]; ok {
			continue
		}
		seen[e.neighbor] = struct{}{}
		neighbors = append(neighbors, e.neighbor)
	}
	return neighbors
}

// Tokens returns every token in the graph in first-seen order.
func (g *AdjacencyPoolGraph) Tokens() []solana.PublicKey {
	out := make([]solana.PublicKey, len(g.tokens))
	copy(out, g.tokens)
	return out
}

func (g *AdjacencyPoolGraph) TokenCount() int {
	return len(g.tokens)
}

func (g *AdjacencyPoolGraph) PoolCount() int {
	return g.pools
}
