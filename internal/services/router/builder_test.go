package router

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/domain"
)

type fakeLister struct {
	pools map[solana.PublicKey]*domain.Pool
	err   error
	calls int
	asked [][]solana.PublicKey
}

func (f *fakeLister) ListPools(_ context.Context, addresses []solana.PublicKey, _ bool) (map[solana.PublicKey]*domain.Pool, error) {
	f.calls++
	f.asked = append(f.asked, addresses)
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[solana.PublicKey]*domain.Pool, len(addresses))
	for _, addr := range addresses {
		result[addr] = f.pools[addr]
	}
	return result, nil
}

func testPool(address, a, b solana.PublicKey) *domain.Pool {
	return &domain.Pool{Address: address, TokenMintA: a, TokenMintB: b}
}

func TestBuildPoolGraphRejectsSameTokenPair(t *testing.T) {
	_, err := BuildPoolGraph([]domain.PoolTokenPair{
		pair(poolAB1, tokenA, tokenB),
		pair(poolAB2, tokenA, tokenA),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if !errors.Is(err, domain.ErrSameTokenPair) {
		t.Errorf("expected ErrSameTokenPair, got %v", err)
	}
}

func TestBuildPoolGraphWithFetch(t *testing.T) {
	lister := &fakeLister{
		pools: map[solana.PublicKey]*domain.Pool{
			poolAB1: testPool(poolAB1, tokenA, tokenB),
			poolBC1: testPool(poolBC1, tokenB, tokenC),
		},
	}

	g, err := BuildPoolGraphWithFetch(context.Background(), []solana.PublicKey{poolAB1, poolCD, poolBC1, poolAB1}, lister)
	if err != nil {
		t.Fatalf("BuildPoolGraphWithFetch failed: %v", err)
	}

	if lister.calls != 1 {
		t.Errorf("expected one batched fetch, got %d", lister.calls)
	}
	if len(lister.asked[0]) != 3 {
		t.Errorf("expected 3 unique addresses requested, got %d", len(lister.asked[0]))
	}
	if g.PoolCount() != 2 {
		t.Errorf("PoolCount = %d, want 2", g.PoolCount())
	}
	if routes := g.GetRoute(tokenA, tokenC, nil); len(routes) != 1 {
		t.Errorf("expected 1 route A->C, got %d", len(routes))
	}
	if routes := g.GetRoute(tokenC, tokenD, nil); len(routes) != 0 {
		t.Errorf("absent pool must not produce routes, got %d", len(routes))
	}
}

func TestBuildPoolGraphWithFetchError(t *testing.T) {
	rpcErr := errors.New("connection refused")
	lister := &fakeLister{err: rpcErr}

	_, err := BuildPoolGraphWithFetch(context.Background(), []solana.PublicKey{poolAB1}, lister)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, common.ErrUpstreamFailure) {
		t.Errorf("expected ErrUpstreamFailure, got %v", err)
	}
	if !errors.Is(err, rpcErr) {
		t.Errorf("expected the fetch error to be wrapped, got %v", err)
	}
}

func TestBuildPoolGraphWithFetchEmpty(t *testing.T) {
	lister := &fakeLister{}

	g, err := BuildPoolGraphWithFetch(context.Background(), nil, lister)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lister.calls != 0 {
		t.Errorf("expected no fetch for empty input, got %d", lister.calls)
	}
	if g.PoolCount() != 0 || g.TokenCount() != 0 {
		t.Errorf("expected empty graph, got %d pools %d tokens", g.PoolCount(), g.TokenCount())
	}
}

func TestRouteID(t *testing.T) {
	idAB := GetRouteID(tokenA, tokenB)
	if idAB != GetRouteID(tokenB, tokenA) {
		t.Errorf("route id must not depend on argument order")
	}

	x, y, err := DeconstructRouteID(idAB)
	if err != nil {
		t.Fatalf("DeconstructRouteID failed: %v", err)
	}
	got := map[solana.PublicKey]bool{x: true, y: true}
	if !got[tokenA] || !got[tokenB] {
		t.Errorf("DeconstructRouteID = %s, %s", x, y)
	}
	if x.String() > y.String() {
		t.Errorf("components must be sorted: %s > %s", x, y)
	}

	malformed := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"single component", tokenA.String()},
		{"three components", idAB + "-" + tokenC.String()},
		{"invalid base58", "0OIl-" + tokenA.String()},
	}
	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DeconstructRouteID(tt.id)
			if !errors.Is(err, ErrInvalidRouteID) {
				t.Errorf("expected ErrInvalidRouteID, got %v", err)
			}
			if !errors.Is(err, common.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
