package router

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/pool-graph/internal/domain"
)

func TestGraphSnapshotIsLazy(t *testing.T) {
	g := NewGraph()

	g.AddPool(testPool(poolAB1, tokenA, tokenB))
	if g.GetPoolCount() != 0 {
		t.Fatalf("snapshot must not change before refresh, got %d pools", g.GetPoolCount())
	}

	g.RefreshSnapshot()
	if g.GetPoolCount() != 1 {
		t.Fatalf("PoolCount = %d, want 1", g.GetPoolCount())
	}
	if routes := g.GetRoute(tokenA, tokenB, nil); len(routes) != 1 {
		t.Errorf("expected 1 route, got %d", len(routes))
	}
}

func TestGraphAddUpdateRemove(t *testing.T) {
	g := NewGraph()

	g.AddPoolsBatch([]*domain.Pool{
		testPool(poolAB1, tokenA, tokenB),
		testPool(poolBC1, tokenB, tokenC),
		testPool(poolAC, tokenA, tokenA), // rejected
		nil,
	})
	g.RefreshSnapshot()

	if g.GetPoolCount() != 2 {
		t.Fatalf("PoolCount = %d, want 2", g.GetPoolCount())
	}
	if g.GetTokenCount() != 3 {
		t.Errorf("TokenCount = %d, want 3", g.GetTokenCount())
	}

	updated := testPool(poolAB1, tokenA, tokenB)
	updated.LastUpdatedSlot = 42
	g.AddPool(updated)
	g.RefreshSnapshot()

	if g.GetPoolCount() != 2 {
		t.Errorf("updating a pool must not add an edge, got %d pools", g.GetPoolCount())
	}
	if got := g.GetPool(poolAB1); got == nil || got.LastUpdatedSlot != 42 {
		t.Errorf("GetPool returned %+v", got)
	}

	all := g.GetAllPools()
	if len(all) != 2 || !all[0].Address.Equals(poolAB1) || !all[1].Address.Equals(poolBC1) {
		t.Errorf("GetAllPools must keep insertion order")
	}

	g.RemovePool(poolAB1)
	g.RemovePool(testKey(200))
	g.RefreshSnapshot()

	if g.GetPool(poolAB1) != nil {
		t.Error("removed pool still present")
	}
	if routes := g.GetRoute(tokenA, tokenC, nil); len(routes) != 0 {
		t.Errorf("expected no routes after removal, got %d", len(routes))
	}
}

func TestGraphLoadPools(t *testing.T) {
	lister := &fakeLister{
		pools: map[solana.PublicKey]*domain.Pool{
			poolAB1: testPool(poolAB1, tokenA, tokenB),
			poolBC1: testPool(poolBC1, tokenB, tokenC),
		},
	}

	g := NewGraph()
	loaded, err := g.LoadPools(context.Background(), []solana.PublicKey{poolAB1, poolBC1, poolCD}, lister)
	if err != nil {
		t.Fatalf("LoadPools failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("loaded %d pools, want 2", len(loaded))
	}

	routes := g.GetAllRoutes([][2]solana.PublicKey{{tokenA, tokenC}}, nil)
	if len(routes[GetRouteID(tokenA, tokenC)]) != 1 {
		t.Errorf("expected one two-hop route, got %v", routes)
	}
}

func TestGraphStopIsIdempotent(t *testing.T) {
	g := NewGraph()
	if err := g.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := g.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := g.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}
