package market

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	vortex_go "github.com/thehyperflames/valiant_go/generated/valiant"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/domain"
	"github.com/hxuan190/pool-graph/internal/metrics"
	"github.com/hxuan190/pool-graph/internal/services"
)

const (
	// Cache size limits
	poolCacheMaxSize      = 10000
	mintCacheMaxSize      = 10000
	tokenCacheMaxSize     = 10000
	tickArrayCacheMaxSize = 30000

	defaultFetchTimeout = 30 * time.Second

	kindPool      = "pool"
	kindMint      = "mint"
	kindToken     = "token"
	kindTickArray = "tick_array"
)

// RPCClient is the part of rpc.Client the fetcher needs.
type RPCClient interface {
	GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error)
}

var _ RPCClient = (*rpc.Client)(nil)

// AccountFetcher batch-loads and caches the on-chain accounts used for
// routing and pricing. Accounts that do not exist or fail to decode are
// absent from results; only transport failures are errors.
type AccountFetcher struct {
	client    RPCClient
	programID solana.PublicKey
	timeout   time.Duration
	logger    *services.ServiceLogger

	pools      *BoundedLRUCache[solana.PublicKey, *domain.Pool]
	mints      *BoundedLRUCache[solana.PublicKey, *domain.MintInfo]
	tokens     *BoundedLRUCache[solana.PublicKey, *domain.TokenAccountInfo]
	tickArrays *BoundedLRUCache[solana.PublicKey, *vortex_go.TickArrayAccount]
}

func NewAccountFetcher(client RPCClient, programID solana.PublicKey, timeout time.Duration) *AccountFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &AccountFetcher{
		client:     client,
		programID:  programID,
		timeout:    timeout,
		logger:     services.NewComponentLogger("market.AccountFetcher"),
		pools:      NewBoundedLRUCache[solana.PublicKey, *domain.Pool](poolCacheMaxSize),
		mints:      NewBoundedLRUCache[solana.PublicKey, *domain.MintInfo](mintCacheMaxSize),
		tokens:     NewBoundedLRUCache[solana.PublicKey, *domain.TokenAccountInfo](tokenCacheMaxSize),
		tickArrays: NewBoundedLRUCache[solana.PublicKey, *vortex_go.TickArrayAccount](tickArrayCacheMaxSize),
	}
}

type decodeFunc[T any] func(address solana.PublicKey, account *rpc.Account, slot uint64) (T, error)

// fetchAccounts serves keys from cache unless refresh is set, and loads the
// rest in chunks of MaxAccountsPerRequest.
func fetchAccounts[T any](
	ctx context.Context,
	f *AccountFetcher,
	kind string,
	cache *BoundedLRUCache[solana.PublicKey, T],
	keys []solana.PublicKey,
	refresh bool,
	decode decodeFunc[T],
) (map[solana.PublicKey]T, error) {
	result := make(map[solana.PublicKey]T, len(keys))
	seen := make(map[solana.PublicKey]struct{}, len(keys))
	missing := make([]solana.PublicKey, 0, len(keys))

	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if !refresh {
			if v, ok := cache.Get(key); ok {
				result[key] = v
				continue
			}
		}
		missing = append(missing, key)
	}

	for start := 0; start < len(missing); start += common.MaxAccountsPerRequest {
		chunk := missing[start:min(start+common.MaxAccountsPerRequest, len(missing))]

		res, err := f.getMultipleAccounts(ctx, chunk)
		if err != nil {
			metrics.AccountFetches.WithLabelValues(kind, "error").Inc()
			return nil, common.WrapUpstream(err, fmt.Sprintf("get %d %s accounts", len(chunk), kind))
		}
		if res == nil || len(res.Value) != len(chunk) {
			metrics.AccountFetches.WithLabelValues(kind, "error").Inc()
			return nil, common.WrapUpstream(fmt.Errorf("expected %d accounts", len(chunk)), fmt.Sprintf("get %s accounts", kind))
		}
		metrics.AccountFetches.WithLabelValues(kind, "ok").Inc()

		slot := res.Context.Slot
		for i, account := range res.Value {
			if account == nil || account.Data == nil {
				continue
			}
			v, err := decode(chunk[i], account, slot)
			if err != nil {
				f.logger.Debug().Err(err).Str("kind", kind).Str("address", chunk[i].String()).Msg("[AccountFetcher] skipping undecodable account")
				continue
			}
			cache.Set(chunk[i], v)
			result[chunk[i]] = v
		}
	}

	metrics.AccountCacheSize.WithLabelValues(kind).Set(float64(cache.Size()))
	return result, nil
}

func (f *AccountFetcher) getMultipleAccounts(ctx context.Context, keys []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.client.GetMultipleAccounts(ctx, keys...)
}

func (f *AccountFetcher) ListPools(ctx context.Context, addresses []solana.PublicKey, refresh bool) (map[solana.PublicKey]*domain.Pool, error) {
	return fetchAccounts(ctx, f, kindPool, f.pools, addresses, refresh,
		func(address solana.PublicKey, account *rpc.Account, slot uint64) (*domain.Pool, error) {
			return DecodePool(address, account.Owner, account.Data.GetBinary(), f.programID, slot)
		})
}

// GetPool returns nil when the pool does not exist.
func (f *AccountFetcher) GetPool(ctx context.Context, address solana.PublicKey, refresh bool) (*domain.Pool, error) {
	pools, err := f.ListPools(ctx, []solana.PublicKey{address}, refresh)
	if err != nil {
		return nil, err
	}
	return pools[address], nil
}

func (f *AccountFetcher) ListMintInfos(ctx context.Context, mints []solana.PublicKey, refresh bool) (map[solana.PublicKey]*domain.MintInfo, error) {
	return fetchAccounts(ctx, f, kindMint, f.mints, mints, refresh,
		func(address solana.PublicKey, account *rpc.Account, _ uint64) (*domain.MintInfo, error) {
			return DecodeMint(address, account.Owner, account.Data.GetBinary())
		})
}

func (f *AccountFetcher) GetMintInfo(ctx context.Context, mint solana.PublicKey, refresh bool) (*domain.MintInfo, error) {
	infos, err := f.ListMintInfos(ctx, []solana.PublicKey{mint}, refresh)
	if err != nil {
		return nil, err
	}
	return infos[mint], nil
}

func (f *AccountFetcher) ListTokenInfos(ctx context.Context, accounts []solana.PublicKey, refresh bool) (map[solana.PublicKey]*domain.TokenAccountInfo, error) {
	return fetchAccounts(ctx, f, kindToken, f.tokens, accounts, refresh,
		func(address solana.PublicKey, account *rpc.Account, _ uint64) (*domain.TokenAccountInfo, error) {
			return DecodeTokenAccount(address, account.Owner, account.Data.GetBinary())
		})
}

func (f *AccountFetcher) GetTokenInfo(ctx context.Context, account solana.PublicKey, refresh bool) (*domain.TokenAccountInfo, error) {
	infos, err := f.ListTokenInfos(ctx, []solana.PublicKey{account}, refresh)
	if err != nil {
		return nil, err
	}
	return infos[account], nil
}

// ListTickArrays omits uninitialized tick arrays.
func (f *AccountFetcher) ListTickArrays(ctx context.Context, addresses []solana.PublicKey, refresh bool) (domain.TickArrayMap, error) {
	arrays, err := fetchAccounts(ctx, f, kindTickArray, f.tickArrays, addresses, refresh,
		func(address solana.PublicKey, account *rpc.Account, _ uint64) (*vortex_go.TickArrayAccount, error) {
			return DecodeTickArray(address, account.Owner, account.Data.GetBinary(), f.programID)
		})
	if err != nil {
		return nil, err
	}
	return domain.TickArrayMap(arrays), nil
}

// SetPool stores a pool snapshot received outside of a fetch. Older slots
// never replace newer ones.
func (f *AccountFetcher) SetPool(pool *domain.Pool) {
	if cached, ok := f.pools.GetWithoutPromote(pool.Address); ok && cached.LastUpdatedSlot > pool.LastUpdatedSlot {
		return
	}
	f.pools.Set(pool.Address, pool)
	metrics.AccountCacheSize.WithLabelValues(kindPool).Set(float64(f.pools.Size()))
}

// Invalidate drops address from every cache.
func (f *AccountFetcher) Invalidate(address solana.PublicKey) {
	f.pools.Delete(address)
	f.mints.Delete(address)
	f.tokens.Delete(address)
	f.tickArrays.Delete(address)
}
