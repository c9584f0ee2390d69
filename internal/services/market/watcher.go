package market

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"

	pb "github.com/andrew-solarstorm/yellowstone-grpc-client-go/proto"
	"github.com/gagliardetto/solana-go"
	vortex_go "github.com/thehyperflames/valiant_go/generated/valiant"
	"github.com/thehyperflames/yellowstone"

	"github.com/hxuan190/pool-graph/internal/domain"
	"github.com/hxuan190/pool-graph/internal/metrics"
	"github.com/hxuan190/pool-graph/internal/services"
)

// PoolSink receives every decoded pool update.
type PoolSink interface {
	AddPool(pool *domain.Pool)
}

// PoolWatcher streams pool account updates of one program from Yellowstone
// into the fetcher cache and the route graph.
type PoolWatcher struct {
	ySvc      *yellowstone.Service
	programID solana.PublicKey
	fetcher   *AccountFetcher
	sink      PoolSink
	onUpdate  func(*domain.Pool)
	slots     *ShardedSlotMap
	logger    *services.ServiceLogger

	mu          sync.Mutex
	subID       string
	updateCount atomic.Uint64
}

// NewPoolWatcher builds a watcher. onUpdate may be nil.
func NewPoolWatcher(ySvc *yellowstone.Service, programID solana.PublicKey, fetcher *AccountFetcher, sink PoolSink, onUpdate func(*domain.Pool)) *PoolWatcher {
	return &PoolWatcher{
		ySvc:      ySvc,
		programID: programID,
		fetcher:   fetcher,
		sink:      sink,
		onUpdate:  onUpdate,
		slots:     NewShardedSlotMap(),
		logger:    services.NewComponentLogger("market.PoolWatcher"),
	}
}

func (w *PoolWatcher) Start() error {
	if w.ySvc == nil {
		return errors.New("pool watcher: yellowstone service is not configured")
	}

	commitment := pb.CommitmentLevel_CONFIRMED
	subID, err := w.ySvc.SubscribeAccountsByOwner(
		[]string{w.programID.String()},
		nil,
		nil,
		&commitment,
		w.handleUpdate,
	)
	if err != nil {
		w.logger.Error().Err(err).Msg("[PoolWatcher] failed to subscribe to pool program accounts")
		return err
	}

	w.mu.Lock()
	w.subID = subID
	w.mu.Unlock()

	w.logger.Info().Str("program", w.programID.String()).Str("subID", subID).Msg("[PoolWatcher] subscribed to pool updates")
	return nil
}

func (w *PoolWatcher) Stop() error {
	w.mu.Lock()
	subID := w.subID
	w.subID = ""
	w.mu.Unlock()

	if subID == "" {
		return nil
	}
	return w.ySvc.Unsubscribe(subID)
}

// UpdateCount is the number of pool updates applied.
func (w *PoolWatcher) UpdateCount() uint64 {
	return w.updateCount.Load()
}

func (w *PoolWatcher) handleUpdate(update *pb.SubscribeUpdate) error {
	account := update.GetAccount()
	if account == nil || account.Account == nil {
		return nil
	}

	info := account.Account
	return w.processAccount(
		solana.PublicKeyFromBytes(info.Pubkey),
		solana.PublicKeyFromBytes(info.Owner),
		info.Data,
		account.Slot,
	)
}

// processAccount applies one account update. Accounts that are not pools only
// refresh tick arrays the fetcher already caches; stale slots are dropped.
func (w *PoolWatcher) processAccount(address, owner solana.PublicKey, data []byte, slot uint64) error {
	if !owner.Equals(w.programID) || len(data) < discriminatorLen {
		return nil
	}

	if !bytes.Equal(data[:discriminatorLen], vortex_go.VortexAccountDiscriminator[:]) {
		w.refreshTickArray(address, owner, data, slot)
		return nil
	}

	pool, err := DecodePool(address, owner, data, w.programID, slot)
	if err != nil {
		w.logger.Debug().Err(err).Str("pubkey", address.String()).Msg("[PoolWatcher] failed to decode pool account")
		w.fetcher.Invalidate(address)
		return nil
	}
	if !w.slots.Advance(address, slot) {
		return nil
	}

	w.fetcher.SetPool(pool)
	w.sink.AddPool(pool)
	if w.onUpdate != nil {
		w.onUpdate(pool)
	}

	w.updateCount.Add(1)
	metrics.PoolUpdates.Inc()
	return nil
}

func (w *PoolWatcher) refreshTickArray(address, owner solana.PublicKey, data []byte, slot uint64) {
	if !w.fetcher.tickArrays.Contains(address) || !w.slots.Advance(address, slot) {
		return
	}
	tickArray, err := DecodeTickArray(address, owner, data, w.programID)
	if err != nil {
		w.logger.Debug().Err(err).Str("pubkey", address.String()).Msg("[PoolWatcher] dropping undecodable tick array")
		w.fetcher.Invalidate(address)
		return
	}
	w.fetcher.tickArrays.Set(address, tickArray)
}
