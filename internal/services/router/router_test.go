package router

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/pool-graph/internal/domain"
)

func testKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

var (
	tokenA = testKey(1)
	tokenB = testKey(2)
	tokenC = testKey(3)
	tokenD = testKey(4)

	poolAB1 = testKey(101)
	poolAB2 = testKey(102)
	poolBC1 = testKey(103)
	poolBC2 = testKey(104)
	poolAC  = testKey(105)
	poolCD  = testKey(106)
)

func pair(pool, a, b solana.PublicKey) domain.PoolTokenPair {
	return domain.PoolTokenPair{Address: pool, TokenMintA: a, TokenMintB: b}
}

// A =(2)= B =(2)= C -- D, plus a direct A -- C
func createTestGraph(t testing.TB) *AdjacencyPoolGraph {
	t.Helper()
	g, err := BuildPoolGraph([]domain.PoolTokenPair{
		pair(poolAB1, tokenA, tokenB),
		pair(poolAB2, tokenA, tokenB),
		pair(poolBC1, tokenB, tokenC),
		pair(poolBC2, tokenC, tokenB),
		pair(poolAC, tokenA, tokenC),
		pair(poolCD, tokenC, tokenD),
	})
	if err != nil {
		t.Fatalf("BuildPoolGraph failed: %v", err)
	}
	return g
}

func edgesOf(routes []domain.RoutePath) [][]solana.PublicKey {
	out := make([][]solana.PublicKey, len(routes))
	for i, r := range routes {
		out[i] = r.Edges
	}
	return out
}

func sameEdges(a, b [][]solana.PublicKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if !a[i][j].Equals(b[i][j]) {
				return false
			}
		}
	}
	return true
}

func TestGetRoute(t *testing.T) {
	g := createTestGraph(t)

	tests := []struct {
		name  string
		start solana.PublicKey
		end   solana.PublicKey
		opts  *domain.RouteFindOptions
		want  [][]solana.PublicKey
	}{
		{
			name:  "parallel direct pools are distinct routes",
			start: tokenA,
			end:   tokenB,
			opts:  &domain.RouteFindOptions{},
			want:  [][]solana.PublicKey{{poolAB1}, {poolAB2}},
		},
		{
			name:  "direct first then cartesian product through intermediate",
			start: tokenA,
			end:   tokenC,
			opts:  nil,
			want: [][]solana.PublicKey{
				{poolAC},
				{poolAB1, poolBC1},
				{poolAB1, poolBC2},
				{poolAB2, poolBC1},
				{poolAB2, poolBC2},
			},
		},
		{
			name:  "explicit intermediates",
			start: tokenB,
			end:   tokenD,
			opts:  &domain.RouteFindOptions{IntermediateTokens: []solana.PublicKey{tokenC, tokenC, tokenB}},
			want: [][]solana.PublicKey{
				{poolBC1, poolCD},
				{poolBC2, poolCD},
			},
		},
		{
			name:  "intermediate not adjacent to start",
			start: tokenA,
			end:   tokenD,
			opts:  &domain.RouteFindOptions{IntermediateTokens: []solana.PublicKey{tokenB}},
			want:  [][]solana.PublicKey{},
		},
		{
			name:  "never more than two hops",
			start: tokenB,
			end:   tokenD,
			opts:  &domain.RouteFindOptions{IntermediateTokens: []solana.PublicKey{tokenA}},
			want:  [][]solana.PublicKey{},
		},
		{
			name:  "same start and end",
			start: tokenA,
			end:   tokenA,
			opts:  nil,
			want:  [][]solana.PublicKey{},
		},
		{
			name:  "unknown token",
			start: tokenA,
			end:   testKey(99),
			opts:  nil,
			want:  [][]solana.PublicKey{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes := g.GetRoute(tt.start, tt.end, tt.opts)
			if routes == nil {
				t.Fatal("expected non-nil routes")
			}
			if got := edgesOf(routes); !sameEdges(got, tt.want) {
				t.Errorf("routes = %v, want %v", got, tt.want)
			}
			for _, r := range routes {
				if !r.StartMint.Equals(tt.start) || !r.EndMint.Equals(tt.end) {
					t.Errorf("route endpoints = %s -> %s", r.StartMint, r.EndMint)
				}
				if r.Hops() < 1 || r.Hops() > domain.MaxRouteHops {
					t.Errorf("route has %d hops", r.Hops())
				}
			}
		})
	}
}

func TestGetRouteHopBoundOnCompleteGraph(t *testing.T) {
	tokens := []solana.PublicKey{tokenA, tokenB, tokenC, tokenD}
	pairs := make([]domain.PoolTokenPair, 0)
	for i := range tokens {
		for j := i + 1; j < len(tokens); j++ {
			pairs = append(pairs, pair(testKey(byte(200+len(pairs))), tokens[i], tokens[j]))
		}
	}
	g, err := BuildPoolGraph(pairs)
	if err != nil {
		t.Fatalf("BuildPoolGraph failed: %v", err)
	}

	routes := g.GetRoute(tokenA, tokenD, nil)
	if len(routes) != 3 {
		t.Fatalf("expected 1 direct and 2 two hop routes, got %d", len(routes))
	}
	for _, r := range routes {
		if r.Hops() > domain.MaxRouteHops {
			t.Errorf("route %v exceeds %d hops", r.Edges, domain.MaxRouteHops)
		}
	}
	if routes[0].Hops() != 1 {
		t.Errorf("direct route must come first, got %d hops", routes[0].Hops())
	}
}

func TestGetRouteSymmetric(t *testing.T) {
	g := createTestGraph(t)
	tokens := g.Tokens()

	for _, x := range tokens {
		for _, y := range tokens {
			forward := g.GetRoute(x, y, nil)
			backward := g.GetRoute(y, x, nil)
			if len(forward) != len(backward) {
				t.Errorf("%s->%s has %d routes, reverse has %d", x, y, len(forward), len(backward))
			}
		}
	}
}

func TestGetRouteEdgesConnectEndpoints(t *testing.T) {
	pairs := []domain.PoolTokenPair{
		pair(poolAB1, tokenA, tokenB),
		pair(poolAB2, tokenA, tokenB),
		pair(poolBC1, tokenB, tokenC),
		pair(poolBC2, tokenC, tokenB),
		pair(poolAC, tokenA, tokenC),
		pair(poolCD, tokenC, tokenD),
	}
	byPool := make(map[solana.PublicKey]domain.PoolTokenPair, len(pairs))
	for _, p := range pairs {
		byPool[p.Address] = p
	}

	g, err := BuildPoolGraph(pairs)
	if err != nil {
		t.Fatalf("BuildPoolGraph failed: %v", err)
	}

	other := func(p domain.PoolTokenPair, token solana.PublicKey) (solana.PublicKey, bool) {
		switch {
		case p.TokenMintA.Equals(token):
			return p.TokenMintB, true
		case p.TokenMintB.Equals(token):
			return p.TokenMintA, true
		}
		return solana.PublicKey{}, false
	}

	for _, x := range g.Tokens() {
		for _, y := range g.Tokens() {
			for _, route := range g.GetRoute(x, y, nil) {
				current := x
				for _, poolAddr := range route.Edges {
					next, ok := other(byPool[poolAddr], current)
					if !ok {
						t.Fatalf("pool %s does not touch %s", poolAddr, current)
					}
					current = next
				}
				if !current.Equals(y) {
					t.Errorf("route %v from %s ends at %s, want %s", route.Edges, x, current, y)
				}
			}
		}
	}
}

func TestGetAllRoutes(t *testing.T) {
	g := createTestGraph(t)

	routeMap := g.GetAllRoutes([][2]solana.PublicKey{
		{tokenA, tokenB},
		{tokenA, testKey(99)},
	}, nil)

	if len(routeMap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(routeMap))
	}
	if got := routeMap[GetRouteID(tokenA, tokenB)]; len(got) != 4 {
		t.Errorf("A-B routes = %d, want 4", len(got))
	}
	empty, ok := routeMap[GetRouteID(tokenA, testKey(99))]
	if !ok || empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice for unreachable pair, got %v (present=%v)", empty, ok)
	}
}

func TestGetAllRoutesLaterPairWins(t *testing.T) {
	g := createTestGraph(t)

	routeMap := g.GetAllRoutes([][2]solana.PublicKey{
		{tokenA, tokenC},
		{tokenC, tokenA},
	}, &domain.RouteFindOptions{})

	routes := routeMap[GetRouteID(tokenA, tokenC)]
	if len(routes) != 1 {
		t.Fatalf("expected 1 direct route, got %d", len(routes))
	}
	if !routes[0].StartMint.Equals(tokenC) {
		t.Errorf("expected the later pair to win, start = %s", routes[0].StartMint)
	}
}

func TestAdjacencyPoolGraphCounts(t *testing.T) {
	g := createTestGraph(t)

	if g.PoolCount() != 6 {
		t.Errorf("PoolCount = %d, want 6", g.PoolCount())
	}
	if g.TokenCount() != 4 {
		t.Errorf("TokenCount = %d, want 4", g.TokenCount())
	}

	neighbors := g.Neighbors(tokenB)
	want := []solana.PublicKey{tokenA, tokenC}
	if len(neighbors) != len(want) {
		t.Fatalf("Neighbors(B) = %v, want %v", neighbors, want)
	}
	for i := range want {
		if !neighbors[i].Equals(want[i]) {
			t.Errorf("Neighbors(B)[%d] = %s, want %s", i, neighbors[i], want[i])
		}
	}
}

func BenchmarkGetRoute(b *testing.B) {
	g := createTestGraph(b)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = g.GetRoute(tokenA, tokenC, nil)
	}
}
