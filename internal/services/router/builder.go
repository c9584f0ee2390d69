package router

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/domain"
)

// PoolLister resolves pool addresses to their current state in one batch.
// Pools that do not exist are nil or missing in the result; an error means
// the lookup itself failed.
type PoolLister interface {
	ListPools(ctx context.Context, addresses []solana.PublicKey, refresh bool) (map[solana.PublicKey]*domain.Pool, error)
}

// BuildPoolGraph builds a graph from already known pool token pairs.
func BuildPoolGraph(pairs []domain.PoolTokenPair) (*AdjacencyPoolGraph, error) {
	for _, pair := range pairs {
		if err := pair.Validate(); err != nil {
			return nil, fmt.Errorf("%w: pool %s: %w", common.ErrInvalidInput, pair.Address, err)
		}
	}
	return newAdjacencyPoolGraph(pairs), nil
}

// BuildPoolGraphWithFetch resolves pool addresses through lister and builds
// a graph from the pools that exist. Absent pools are skipped.
func BuildPoolGraphWithFetch(ctx context.Context, addresses []solana.PublicKey, lister PoolLister) (*AdjacencyPoolGraph, error) {
	pools, err := fetchPools(ctx, addresses, lister)
	if err != nil {
		return nil, err
	}

	pairs := make([]domain.PoolTokenPair, 0, len(pools))
	for _, pool := range pools {
		pairs = append(pairs, pool.TokenPair())
	}
	return BuildPoolGraph(pairs)
}

// fetchPools returns the pools that exist, in the order of addresses.
// Duplicate addresses are resolved once.
func fetchPools(ctx context.Context, addresses []solana.PublicKey, lister PoolLister) ([]*domain.Pool, error) {
	unique := make([]solana.PublicKey, 0, len(addresses))
	seen := make(map[solana.PublicKey]struct{}, len(addresses))
	for _, addr := range addresses {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		unique = append(unique, addr)
	}
	if len(unique) == 0 {
		return nil, nil
	}

	fetched, err := lister.ListPools(ctx, unique, false)
	if err != nil {
		return nil, common.WrapUpstream(err, "list pools")
	}

	pools := make([]*domain.Pool, 0, len(unique))
	for _, addr := range unique {
		pool := fetched[addr]
		if pool == nil {
			continue
		}
		pools = append(pools, pool)
	}
	return pools, nil
}
