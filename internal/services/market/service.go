package market

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	container "github.com/thehyperflames/dicontainer-go"
	"github.com/thehyperflames/yellowstone"

	"github.com/hxuan190/pool-graph/internal/adapters/persistence"
	"github.com/hxuan190/pool-graph/internal/config"
	"github.com/hxuan190/pool-graph/internal/domain"
	"github.com/hxuan190/pool-graph/internal/services"
	"github.com/hxuan190/pool-graph/internal/services/router"
)

const (
	MARKET_SERVICE = "market.Service"

	graphLoadTimeout = 60 * time.Second
)

// Service owns the RPC client, the account fetcher, pool persistence and the
// stream watcher, and keeps the route graph fed with pools.
type Service struct {
	container.BaseDIInstance

	logger     *services.ServiceLogger
	rpcClient  *rpc.Client
	fetcher    *AccountFetcher
	storage    *persistence.Storage
	graph      *router.Graph
	watcher    *PoolWatcher
	graphPools []solana.PublicKey

	persistInterval time.Duration
	stopPersist     chan struct{}
	stopOnce        sync.Once

	pendingPools   []*domain.Pool
	pendingPoolsMu sync.Mutex
}

func (svc *Service) ID() string {
	return MARKET_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	var err error
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	pricingConfig := c.GetConfig(config.PRICING_CONFIG_KEY).(*config.PricingConfig)
	storageConfig := c.GetConfig(config.STORAGE_CONFIG_KEY).(*config.StorageConfig)
	streamConfig := c.GetConfig(config.STREAM_CONFIG_KEY).(*config.StreamConfig)

	svc.logger = services.NewServiceLogger(svc)
	svc.rpcClient = rpc.New(rpcConfig.RPCUrl)
	svc.fetcher = NewAccountFetcher(svc.rpcClient, pricingConfig.ProgramID, time.Duration(rpcConfig.TimeoutSeconds)*time.Second)
	svc.graph = c.Instance(router.ROUTER_SERVICE).(*router.Graph)
	svc.graphPools = pricingConfig.GraphPools

	if storageConfig.PersistenceEnabled {
		svc.storage, err = persistence.NewStorage(storageConfig.DBPath)
		if err != nil {
			return err
		}
	}
	svc.persistInterval = time.Duration(storageConfig.PersistInterval) * time.Second
	svc.stopPersist = make(chan struct{})

	if streamConfig.Enabled {
		ySvc := c.Instance(yellowstone.YELLOWSTONE_SERVICE).(*yellowstone.Service)
		svc.watcher = NewPoolWatcher(ySvc, pricingConfig.ProgramID, svc.fetcher, svc.graph, svc.queuePoolForPersistence)
	}
	return nil
}

func (svc *Service) Start() error {
	if svc.storage != nil {
		svc.loadPoolsFromStorage()
	}

	if len(svc.graphPools) > 0 {
		svc.loadGraphPools()
	}
	svc.graph.RefreshSnapshot()

	if svc.watcher != nil {
		if err := svc.watcher.Start(); err != nil {
			svc.logger.Error().Err(err).Msg("[MarketService] pool stream disabled")
		}
	} else {
		svc.logger.Info().Msg("[MarketService] pool stream not enabled")
	}

	if svc.storage != nil {
		go svc.processPersistence()
	}

	svc.logger.Info().
		Int("pools", svc.graph.GetPoolCount()).
		Int("tokens", svc.graph.GetTokenCount()).
		Msg("[MarketService] startup complete")
	return nil
}

func (svc *Service) Stop() error {
	svc.stopOnce.Do(func() {
		close(svc.stopPersist)
	})

	if svc.watcher != nil {
		if err := svc.watcher.Stop(); err != nil {
			svc.logger.Error().Err(err).Msg("[MarketService] failed to unsubscribe pool stream")
		}
	}

	if svc.storage != nil {
		allPools := svc.graph.GetAllPools()
		if len(allPools) > 0 {
			svc.logger.Info().Int("count", len(allPools)).Msg("[MarketService] persisting all pools before shutdown")
			if err := svc.storage.SavePoolBatch(allPools); err != nil {
				svc.logger.Error().Err(err).Msg("[MarketService] failed to persist pools on shutdown")
			}
		}
		if err := svc.storage.Close(); err != nil {
			svc.logger.Error().Err(err).Msg("[MarketService] failed to close storage")
		}
	}
	return nil
}

func (svc *Service) Fetcher() *AccountFetcher {
	return svc.fetcher
}

// UpdateCount is the number of pool updates applied from the stream.
func (svc *Service) UpdateCount() uint64 {
	if svc.watcher == nil {
		return 0
	}
	return svc.watcher.UpdateCount()
}

// Storage returns nil when persistence is disabled.
func (svc *Service) Storage() *persistence.Storage {
	return svc.storage
}

func (svc *Service) loadPoolsFromStorage() {
	pools, err := svc.storage.LoadAllPools()
	if err != nil {
		svc.logger.Error().Err(err).Msg("[MarketService] failed to load pools from storage")
		return
	}

	svc.logger.Info().Int("count", len(pools)).Msg("[MarketService] loading pools from storage")
	svc.graph.AddPoolsBatch(pools)
}

func (svc *Service) loadGraphPools() {
	ctx, cancel := context.WithTimeout(context.Background(), graphLoadTimeout)
	defer cancel()

	pools, err := svc.graph.LoadPools(ctx, svc.graphPools, svc.fetcher)
	if err != nil {
		svc.logger.Error().Err(err).Int("requested", len(svc.graphPools)).Msg("[MarketService] failed to load configured pools")
		return
	}

	svc.logger.Info().
		Int("requested", len(svc.graphPools)).
		Int("found", len(pools)).
		Msg("[MarketService] loaded configured pools")

	if svc.storage != nil && len(pools) > 0 {
		if err := svc.storage.SavePoolBatch(pools); err != nil {
			svc.logger.Error().Err(err).Msg("[MarketService] failed to persist configured pools")
		}
	}
}

func (svc *Service) queuePoolForPersistence(pool *domain.Pool) {
	if svc.storage == nil {
		return
	}
	svc.pendingPoolsMu.Lock()
	defer svc.pendingPoolsMu.Unlock()
	svc.pendingPools = append(svc.pendingPools, pool)
}

func (svc *Service) processPersistence() {
	ticker := time.NewTicker(svc.persistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-svc.stopPersist:
			return
		case <-ticker.C:
			svc.persistPendingPools()
		}
	}
}

func (svc *Service) persistPendingPools() {
	svc.pendingPoolsMu.Lock()
	if len(svc.pendingPools) == 0 {
		svc.pendingPoolsMu.Unlock()
		return
	}
	pools := svc.pendingPools
	svc.pendingPools = make([]*domain.Pool, 0)
	svc.pendingPoolsMu.Unlock()

	if err := svc.storage.SavePoolBatch(pools); err != nil {
		svc.logger.Error().Err(err).Int("count", len(pools)).Msg("[MarketService] failed to persist pools")
		svc.pendingPoolsMu.Lock()
		svc.pendingPools = append(svc.pendingPools, pools...)
		svc.pendingPoolsMu.Unlock()
		return
	}

	svc.logger.Debug().Int("count", len(pools)).Msg("[MarketService] persisted pools to storage")
}
