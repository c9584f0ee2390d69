package price

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/domain"
)

type fakeSource struct {
	pools    domain.PoolMap
	decimals domain.DecimalsMap
	err      error

	poolCalls       int
	askedTickArrays int
}

func (f *fakeSource) ListPools(_ context.Context, addresses []solana.PublicKey, _ bool) (map[solana.PublicKey]*domain.Pool, error) {
	f.poolCalls++
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[solana.PublicKey]*domain.Pool, len(addresses))
	for _, addr := range addresses {
		if pool, ok := f.pools[addr]; ok {
			result[addr] = pool
		}
	}
	return result, nil
}

func (f *fakeSource) ListMintInfos(_ context.Context, mints []solana.PublicKey, _ bool) (map[solana.PublicKey]*domain.MintInfo, error) {
	result := make(map[solana.PublicKey]*domain.MintInfo, len(mints))
	for _, mint := range mints {
		if d, ok := f.decimals[mint]; ok {
			result[mint] = &domain.MintInfo{Mint: mint, Decimals: d, IsInitialized: true}
		}
	}
	return result, nil
}

func (f *fakeSource) ListTickArrays(_ context.Context, addresses []solana.PublicKey, _ bool) (domain.TickArrayMap, error) {
	f.askedTickArrays += len(addresses)
	return domain.TickArrayMap{}, nil
}

type memoryStore struct {
	prices domain.PriceMap
	at     time.Time
	saves  int
}

func (m *memoryStore) SavePrices(prices domain.PriceMap, at time.Time) error {
	m.prices = prices
	m.at = at
	m.saves++
	return nil
}

func (m *memoryStore) LoadPrices() (domain.PriceMap, time.Time, error) {
	if m.prices == nil {
		return domain.PriceMap{}, time.Time{}, nil
	}
	return m.prices, m.at, nil
}

type staticTokens []solana.PublicKey

func (s staticTokens) Tokens() []solana.PublicKey {
	return s
}

func newTestService(t *testing.T, source AccountSource, store PriceStore) *Service {
	t.Helper()
	return NewService(newTestCalculator(t, &fakeSimulator{}), source, store)
}

func testSource(t *testing.T) *fakeSource {
	t.Helper()
	return &fakeSource{
		pools: poolMap(
			makePool(t, sol, usdc, 1, 1000, 64),
			makePool(t, foo, sol, 1, 1000, 64),
		),
		decimals: sixDecimals(usdc, sol, foo),
	}
}

func TestServiceGetPrices(t *testing.T) {
	source := testSource(t)
	store := &memoryStore{}
	svc := newTestService(t, source, store)

	prices, err := svc.GetPrices(context.Background(), []solana.PublicKey{foo})
	if err != nil {
		t.Fatalf("GetPrices failed: %v", err)
	}

	assertPrice(t, prices, usdc, "1")
	assertPrice(t, prices, sol, "4")
	assertPrice(t, prices, foo, "16")

	if source.poolCalls != 1 {
		t.Errorf("expected a single pool fetch, got %d", source.poolCalls)
	}
	if source.askedTickArrays == 0 {
		t.Error("expected tick arrays to be requested for found pools")
	}
	if store.saves != 1 {
		t.Errorf("expected prices to be persisted once, got %d", store.saves)
	}

	latest, at, err := svc.LatestPrices()
	if err != nil {
		t.Fatalf("LatestPrices failed: %v", err)
	}
	if at.IsZero() || len(latest) != len(prices) {
		t.Errorf("latest snapshot mismatch: %d prices at %v", len(latest), at)
	}
}

func TestServiceGetPricesUpstreamError(t *testing.T) {
	source := &fakeSource{err: errors.New("rpc unavailable")}
	svc := newTestService(t, source, nil)

	_, err := svc.GetPrices(context.Background(), []solana.PublicKey{foo})
	if !errors.Is(err, common.ErrUpstreamFailure) {
		t.Errorf("expected upstream failure, got %v", err)
	}
	if _, at, _ := svc.LatestPrices(); !at.IsZero() {
		t.Error("failed calculation must not replace the latest snapshot")
	}
}

func TestServiceLatestPricesFromStore(t *testing.T) {
	stored := time.UnixMilli(1_700_000_000_000)
	store := &memoryStore{
		prices: domain.PriceMap{usdc: decimalOne},
		at:     stored,
	}
	svc := newTestService(t, testSource(t), store)

	prices, at, err := svc.LatestPrices()
	if err != nil {
		t.Fatalf("LatestPrices failed: %v", err)
	}
	if !at.Equal(stored) {
		t.Errorf("at = %v, want %v", at, stored)
	}
	assertPrice(t, prices, usdc, "1")
}

func TestServiceRefreshOnce(t *testing.T) {
	source := testSource(t)
	store := &memoryStore{}
	svc := newTestService(t, source, store)

	svc.refreshOnce(staticTokens(nil))
	if source.poolCalls != 0 {
		t.Error("empty token list must not trigger a fetch")
	}

	svc.refreshOnce(staticTokens{usdc, sol, foo})
	if store.saves != 1 {
		t.Fatalf("expected one persisted snapshot, got %d", store.saves)
	}
	assertPrice(t, store.prices, foo, "16")
}

func TestServiceCandidatePools(t *testing.T) {
	svc := newTestService(t, testSource(t), nil)
	cfg := svc.calculator.Config()

	addresses, err := svc.candidatePools([]solana.PublicKey{foo, usdc, sol}, cfg)
	if err != nil {
		t.Fatalf("candidatePools failed: %v", err)
	}

	// foo pairs with both quotes, usdc/sol is shared by both directions
	want := 3 * len(cfg.TickSpacings)
	if len(addresses) != want {
		t.Errorf("expected %d candidate pools, got %d", want, len(addresses))
	}

	seen := make(map[solana.PublicKey]struct{}, len(addresses))
	for _, addr := range addresses {
		if _, ok := seen[addr]; ok {
			t.Errorf("duplicate candidate %s", addr)
		}
		seen[addr] = struct{}{}
	}
}
