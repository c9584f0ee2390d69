package router

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/pool-graph/internal/domain"
	"github.com/hxuan190/pool-graph/internal/metrics"
	"github.com/hxuan190/pool-graph/internal/services"
)

const (
	ROUTER_SERVICE = "router.Graph"

	snapshotRefreshInterval = 100 * time.Millisecond
)

// graphSnapshot holds immutable snapshot of graph data for lock-free reads
type graphSnapshot struct {
	graph *AdjacencyPoolGraph
	pools map[solana.PublicKey]*domain.Pool
	order []solana.PublicKey
}

// Graph owns the live pool set and publishes it as immutable
// AdjacencyPoolGraph snapshots. Writers mark the snapshot dirty and the
// refresher rebuilds it; readers never lock.
type Graph struct {
	container.BaseDIInstance

	logger *services.ServiceLogger

	mu    sync.Mutex // Only for writes
	pools map[solana.PublicKey]*domain.Pool
	order []solana.PublicKey

	snapshot      atomic.Pointer[graphSnapshot]
	snapshotDirty atomic.Bool
	stopRefresher chan struct{}
	stopOnce      sync.Once
}

var _ PoolGraph = (*Graph)(nil)

// NewGraph returns a ready to use graph without a running refresher.
func NewGraph() *Graph {
	g := &Graph{}
	g.init()
	return g
}

func (g *Graph) ID() string {
	return ROUTER_SERVICE
}

func (g *Graph) Configure(c container.IContainer) error {
	g.init()
	return nil
}

func (g *Graph) Start() error {
	go g.snapshotRefresher()
	return nil
}

func (g *Graph) Stop() error {
	g.stopOnce.Do(func() {
		close(g.stopRefresher)
	})
	return nil
}

func (g *Graph) init() {
	g.logger = services.NewServiceLogger(g)
	g.pools = make(map[solana.PublicKey]*domain.Pool)
	g.order = make([]solana.PublicKey, 0)
	g.stopRefresher = make(chan struct{})
	g.rebuildSnapshot()
}

// snapshotRefresher periodically rebuilds the snapshot if dirty
func (g *Graph) snapshotRefresher() {
	ticker := time.NewTicker(snapshotRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopRefresher:
			return
		case <-ticker.C:
			if g.snapshotDirty.CompareAndSwap(true, false) {
				g.mu.Lock()
				g.rebuildSnapshot()
				g.mu.Unlock()
			}
		}
	}
}

// rebuildSnapshot must be called with mu held.
func (g *Graph) rebuildSnapshot() {
	metrics.GraphSnapshotRebuilds.Inc()

	pairs := make([]domain.PoolTokenPair, 0, len(g.order))
	pools := make(map[solana.PublicKey]*domain.Pool, len(g.pools))
	for _, addr := range g.order {
		pool := g.pools[addr]
		pairs = append(pairs, pool.TokenPair())
		pools[addr] = pool
	}

	order := make([]solana.PublicKey, len(g.order))
	copy(order, g.order)

	snap := &graphSnapshot{
		graph: newAdjacencyPoolGraph(pairs),
		pools: pools,
		order: order,
	}
	g.snapshot.Store(snap)

	metrics.PoolCount.Set(float64(snap.graph.PoolCount()))
	metrics.TokenCount.Set(float64(snap.graph.TokenCount()))
}

func (g *Graph) getSnapshot() *graphSnapshot {
	return g.snapshot.Load()
}

// RefreshSnapshot rebuilds the snapshot immediately.
func (g *Graph) RefreshSnapshot() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.snapshotDirty.Store(false)
	g.rebuildSnapshot()
}

func (g *Graph) AddPool(pool *domain.Pool) {
	g.mu.Lock()
	changed := g.addPoolLocked(pool)
	g.mu.Unlock()

	if changed {
		g.snapshotDirty.Store(true)
	}
}

func (g *Graph) addPoolLocked(pool *domain.Pool) bool {
	if pool == nil {
		return false
	}
	if err := pool.TokenPair().Validate(); err != nil {
		g.logger.Warn().Str("pool", pool.Address.String()).Err(err).Msg("[Graph] rejecting pool")
		return false
	}

	if _, exists := g.pools[pool.Address]; !exists {
		g.order = append(g.order, pool.Address)
	}
	g.pools[pool.Address] = pool
	return true
}

func (g *Graph) AddPoolsBatch(pools []*domain.Pool) {
	g.mu.Lock()
	changed := false
	for _, pool := range pools {
		if g.addPoolLocked(pool) {
			changed = true
		}
	}
	g.mu.Unlock()

	if changed {
		g.snapshotDirty.Store(true)
	}
}

func (g *Graph) RemovePool(poolAddress solana.PublicKey) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.pools[poolAddress]; !exists {
		return
	}
	delete(g.pools, poolAddress)
	for i, addr := range g.order {
		if addr.Equals(poolAddress) {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	g.snapshotDirty.Store(true)
}

// LoadPools resolves addresses through lister, adds the pools that exist and
// publishes a fresh snapshot. It returns the loaded pools.
func (g *Graph) LoadPools(ctx context.Context, addresses []solana.PublicKey, lister PoolLister) ([]*domain.Pool, error) {
	pools, err := fetchPools(ctx, addresses, lister)
	if err != nil {
		return nil, err
	}

	g.AddPoolsBatch(pools)
	g.RefreshSnapshot()

	g.logger.Info().
		Int("requested", len(addresses)).
		Int("loaded", len(pools)).
		Msg("[Graph] loaded configured pools")
	return pools, nil
}

// Current returns the latest published graph.
func (g *Graph) Current() *AdjacencyPoolGraph {
	return g.getSnapshot().graph
}

func (g *Graph) GetRoute(start, end solana.PublicKey, opts *domain.RouteFindOptions) []domain.RoutePath {
	metrics.RouteQueries.WithLabelValues("single").Inc()

	routes := g.Current().GetRoute(start, end, opts)
	metrics.RoutesFound.Observe(float64(len(routes)))
	return routes
}

func (g *Graph) GetAllRoutes(pairs [][2]solana.PublicKey, opts *domain.RouteFindOptions) domain.RoutePathMap {
	metrics.RouteQueries.WithLabelValues("batch").Inc()
	return g.Current().GetAllRoutes(pairs, opts)
}

func (g *Graph) GetPool(address solana.PublicKey) *domain.Pool {
	return g.getSnapshot().pools[address]
}

func (g *Graph) GetPoolCount() int {
	return g.Current().PoolCount()
}

func (g *Graph) GetTokenCount() int {
	return g.Current().TokenCount()
}

// GetAllPools returns the pools of the current snapshot in insertion order.
func (g *Graph) GetAllPools() []*domain.Pool {
	snap := g.getSnapshot()
	result := make([]*domain.Pool, 0, len(snap.order))
	for _, addr := range snap.order {
		result = append(result, snap.pools[addr])
	}
	return result
}
