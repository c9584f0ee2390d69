package price

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/config"
	"github.com/hxuan190/pool-graph/internal/domain"
	"github.com/hxuan190/pool-graph/internal/metrics"
	"github.com/hxuan190/pool-graph/internal/services"
	"github.com/hxuan190/pool-graph/internal/services/builder"
	"github.com/hxuan190/pool-graph/internal/services/market"
	"github.com/hxuan190/pool-graph/internal/services/router"
)

const (
	PRICE_SERVICE = "price.Service"

	refreshTimeout = 30 * time.Second
)

// AccountSource fetches the on-chain snapshot a price calculation needs.
type AccountSource interface {
	ListPools(ctx context.Context, addresses []solana.PublicKey, refresh bool) (map[solana.PublicKey]*domain.Pool, error)
	ListMintInfos(ctx context.Context, mints []solana.PublicKey, refresh bool) (map[solana.PublicKey]*domain.MintInfo, error)
	ListTickArrays(ctx context.Context, addresses []solana.PublicKey, refresh bool) (domain.TickArrayMap, error)
}

// PriceStore persists the latest price snapshot.
type PriceStore interface {
	SavePrices(prices domain.PriceMap, at time.Time) error
	LoadPrices() (domain.PriceMap, time.Time, error)
}

// TokenLister supplies the mints priced by the background refresher.
type TokenLister interface {
	Tokens() []solana.PublicKey
}

type Service struct {
	container.BaseDIInstance

	logger     *services.ServiceLogger
	calculator *Calculator
	source     AccountSource
	store      PriceStore
	graph      *router.Graph

	refreshInterval time.Duration
	stopRefresher   chan struct{}
	stopOnce        sync.Once

	mu        sync.RWMutex
	latest    domain.PriceMap
	latestAt  time.Time
	hasLatest bool
}

// NewService builds a service outside the container. store may be nil.
func NewService(calculator *Calculator, source AccountSource, store PriceStore) *Service {
	svc := &Service{
		calculator:    calculator,
		source:        source,
		store:         store,
		stopRefresher: make(chan struct{}),
	}
	svc.logger = services.NewServiceLogger(svc)
	return svc
}

func (svc *Service) ID() string {
	return PRICE_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	pricingConfig := c.GetConfig(config.PRICING_CONFIG_KEY).(*config.PricingConfig)
	marketSvc := c.Instance(market.MARKET_SERVICE).(*market.Service)
	svc.graph = c.Instance(router.ROUTER_SERVICE).(*router.Graph)

	calculator, err := NewCalculator(
		Config{
			QuoteTokens:  pricingConfig.QuoteTokens,
			TickSpacings: pricingConfig.TickSpacings,
			ProgramID:    pricingConfig.ProgramID,
			PoolsConfig:  pricingConfig.PoolsConfig,
		},
		domain.ThresholdConfig{
			AmountThreshold:      pricingConfig.AmountThreshold,
			PriceImpactThreshold: pricingConfig.PriceImpactThreshold,
		},
	)
	if err != nil {
		return err
	}

	svc.logger = services.NewServiceLogger(svc)
	svc.calculator = calculator
	svc.source = marketSvc.Fetcher()
	if storage := marketSvc.Storage(); storage != nil {
		svc.store = storage
	}
	svc.refreshInterval = time.Duration(pricingConfig.RefreshIntervalSeconds) * time.Second
	svc.stopRefresher = make(chan struct{})
	return nil
}

func (svc *Service) Start() error {
	if svc.refreshInterval > 0 && svc.graph != nil {
		go svc.priceRefresher(svc.graph.Current)
	}
	return nil
}

func (svc *Service) Stop() error {
	svc.stopOnce.Do(func() {
		close(svc.stopRefresher)
	})
	return nil
}

// GetPrices fetches every account needed to price mints and returns their
// prices in units of the first quote token. The result becomes the latest
// snapshot.
func (svc *Service) GetPrices(ctx context.Context, mints []solana.PublicKey) (domain.PriceMap, error) {
	start := time.Now()
	defer func() {
		metrics.PriceCalculationDuration.Observe(time.Since(start).Seconds())
	}()

	cfg := svc.calculator.Config()
	all := uniqueMints(mints, cfg.QuoteTokens)

	poolAddresses, err := svc.candidatePools(all, cfg)
	if err != nil {
		return nil, err
	}

	fetched, err := svc.source.ListPools(ctx, poolAddresses, false)
	if err != nil {
		return nil, common.WrapUpstream(err, "list pools")
	}

	pools := make(domain.PoolMap, len(fetched))
	poolMints := make([]solana.PublicKey, 0, len(fetched)*2)
	seenMint := make(map[solana.PublicKey]struct{})
	tickArrayAddresses := make([]solana.PublicKey, 0, len(fetched)*2*builder.TickArraysPerSwap)
	seenTickArray := make(map[solana.PublicKey]struct{})

	for _, addr := range poolAddresses {
		pool := fetched[addr]
		if pool == nil {
			continue
		}
		pools[addr] = pool

		for _, mint := range []solana.PublicKey{pool.TokenMintA, pool.TokenMintB} {
			if _, ok := seenMint[mint]; !ok {
				seenMint[mint] = struct{}{}
				poolMints = append(poolMints, mint)
			}
		}

		for _, aToB := range []bool{true, false} {
			addrs, err := svc.calculator.deriver.TickArrayAddresses(pool, aToB)
			if err != nil {
				return nil, err
			}
			for _, ta := range addrs {
				if _, ok := seenTickArray[ta]; !ok {
					seenTickArray[ta] = struct{}{}
					tickArrayAddresses = append(tickArrayAddresses, ta)
				}
			}
		}
	}

	decimals := make(domain.DecimalsMap, len(poolMints))
	if len(poolMints) > 0 {
		infos, err := svc.source.ListMintInfos(ctx, poolMints, false)
		if err != nil {
			return nil, common.WrapUpstream(err, "list mint infos")
		}
		for mint, info := range infos {
			if info != nil {
				decimals[mint] = info.Decimals
			}
		}
	}

	tickArrays := make(domain.TickArrayMap)
	if len(tickArrayAddresses) > 0 {
		tickArrays, err = svc.source.ListTickArrays(ctx, tickArrayAddresses, false)
		if err != nil {
			return nil, common.WrapUpstream(err, "list tick arrays")
		}
	}

	prices, err := svc.calculator.CalculatePoolPrices(all, pools, tickArrays, decimals)
	if err != nil {
		return nil, err
	}

	svc.setLatest(prices, time.Now())
	return prices, nil
}

// LatestPrices returns the most recent snapshot, falling back to the
// persisted one after a restart.
func (svc *Service) LatestPrices() (domain.PriceMap, time.Time, error) {
	svc.mu.RLock()
	if svc.hasLatest {
		prices, at := svc.latest, svc.latestAt
		svc.mu.RUnlock()
		return prices, at, nil
	}
	svc.mu.RUnlock()

	if svc.store == nil {
		return domain.PriceMap{}, time.Time{}, nil
	}
	return svc.store.LoadPrices()
}

func (svc *Service) setLatest(prices domain.PriceMap, at time.Time) {
	svc.mu.Lock()
	svc.latest = prices
	svc.latestAt = at
	svc.hasLatest = true
	svc.mu.Unlock()

	if svc.store == nil {
		return
	}
	if err := svc.store.SavePrices(prices, at); err != nil {
		svc.logger.Error().Err(err).Int("count", len(prices)).Msg("[PriceService] failed to persist prices")
	}
}

// candidatePools derives every pool that may pair a mint with a quote token.
func (svc *Service) candidatePools(mints []solana.PublicKey, cfg Config) ([]solana.PublicKey, error) {
	seen := make(map[solana.PublicKey]struct{})
	addresses := make([]solana.PublicKey, 0, len(mints)*len(cfg.QuoteTokens)*len(cfg.TickSpacings))

	for _, mint := range mints {
		for _, quote := range cfg.QuoteTokens {
			if mint.Equals(quote) {
				continue
			}
			mintA, mintB := builder.OrderMints(mint, quote)
			for _, tickSpacing := range cfg.TickSpacings {
				addr, err := svc.calculator.deriver.PoolAddress(mintA, mintB, tickSpacing)
				if err != nil {
					return nil, err
				}
				if _, ok := seen[addr]; ok {
					continue
				}
				seen[addr] = struct{}{}
				addresses = append(addresses, addr)
			}
		}
	}
	return addresses, nil
}

// priceRefresher periodically prices every token in the current graph.
func (svc *Service) priceRefresher(current func() *router.AdjacencyPoolGraph) {
	ticker := time.NewTicker(svc.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-svc.stopRefresher:
			return
		case <-ticker.C:
			svc.refreshOnce(current())
		}
	}
}

func (svc *Service) refreshOnce(tokens TokenLister) {
	mints := tokens.Tokens()
	if len(mints) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	prices, err := svc.GetPrices(ctx, mints)
	if err != nil {
		svc.logger.Error().Err(err).Int("mints", len(mints)).Msg("[PriceService] price refresh failed")
		return
	}
	svc.logger.Info().
		Int("mints", len(mints)).
		Int("priced", len(prices)).
		Msg("[PriceService] prices refreshed")
}
