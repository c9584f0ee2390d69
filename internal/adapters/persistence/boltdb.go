package persistence

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	vortex_go "github.com/thehyperflames/valiant_go/generated/valiant"

	"github.com/hxuan190/pool-graph/internal/domain"
)

const (
	PoolsBucket  = "pools"
	PricesBucket = "prices"

	latestPricesKey = "latest"

	DefaultDBPath = "./data/pool-graph.db"
)

type StoredPool struct {
	Address          string `json:"address"`
	ProgramID        string `json:"programId"`
	TokenMintA       string `json:"tokenMintA"`
	TokenMintB       string `json:"tokenMintB"`
	TokenVaultA      string `json:"tokenVaultA"`
	TokenVaultB      string `json:"tokenVaultB"`
	FeeRate          uint16 `json:"feeRate"`
	TickSpacing      uint16 `json:"tickSpacing"`
	TickCurrentIndex int32  `json:"tickCurrentIndex"`
	SqrtPrice        string `json:"sqrtPrice"` // Uint128 as string
	Liquidity        string `json:"liquidity"` // Uint128 as string
	LastUpdatedSlot  uint64 `json:"lastUpdatedSlot"`
}

type StoredPrices struct {
	UpdatedAt int64             `json:"updatedAt"` // unix millis
	Prices    map[string]string `json:"prices"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[poolStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SavePool(pool *domain.Pool) error {
	data, err := sonic.Marshal(poolToStored(pool))
	if err != nil {
		return fmt.Errorf("failed to marshal pool: %w", err)
	}

	return s.db.Set(PoolsBucket, []byte(pool.Address.String()), data)
}

func (s *Storage) SavePoolBatch(pools []*domain.Pool) error {
	if len(pools) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, pool := range pools {
		data, err := sonic.Marshal(poolToStored(pool))
		if err != nil {
			return fmt.Errorf("failed to marshal pool %s: %w", pool.Address.String(), err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(PoolsBucket),
			Key:    []byte(pool.Address.String()),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add pool %s to batch: %w", pool.Address.String(), err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(pools)).Msg("[poolStorage] failed to execute batch")
		return err
	}

	log.Debug().Int("count", len(pools)).Msg("[poolStorage] saved pool batch")
	return nil
}

func (s *Storage) LoadAllPools() ([]*domain.Pool, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	pools := make([]*domain.Pool, 0, len(data))
	skipped := 0

	for address, value := range data {
		var stored StoredPool
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("address", address).Err(err).Msg("[poolStorage] failed to unmarshal pool, skipping")
			skipped++
			continue
		}

		pool, err := storedToPool(&stored)
		if err != nil {
			log.Error().Str("address", address).Err(err).Msg("[poolStorage] failed to convert stored pool, skipping")
			skipped++
			continue
		}

		pools = append(pools, pool)
	}

	log.Info().
		Int("total_in_db", len(data)).
		Int("loaded", len(pools)).
		Int("skipped", skipped).
		Msg("[poolStorage] pool loading completed")

	return pools, nil
}

func (s *Storage) GetPoolCount() (int, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// SavePrices replaces the stored price snapshot.
func (s *Storage) SavePrices(prices domain.PriceMap, at time.Time) error {
	data, err := sonic.Marshal(StoredPrices{
		UpdatedAt: at.UnixMilli(),
		Prices:    prices.Strings(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal prices: %w", err)
	}
	return s.db.Set(PricesBucket, []byte(latestPricesKey), data)
}

// LoadPrices returns the stored price snapshot. An empty map and a zero time
// are returned when nothing has been saved yet.
func (s *Storage) LoadPrices() (domain.PriceMap, time.Time, error) {
	data, err := s.db.List(PricesBucket)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to list prices: %w", err)
	}

	raw, ok := data[latestPricesKey]
	if !ok {
		return domain.PriceMap{}, time.Time{}, nil
	}

	var stored StoredPrices
	if err := sonic.Unmarshal(raw, &stored); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal prices: %w", err)
	}

	prices := make(domain.PriceMap, len(stored.Prices))
	for mintStr, priceStr := range stored.Prices {
		mint, err := solana.PublicKeyFromBase58(mintStr)
		if err != nil {
			log.Warn().Str("mint", mintStr).Err(err).Msg("[poolStorage] invalid mint in price snapshot, skipping")
			continue
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			log.Warn().Str("mint", mintStr).Err(err).Msg("[poolStorage] invalid price in price snapshot, skipping")
			continue
		}
		prices[mint] = price
	}

	return prices, time.UnixMilli(stored.UpdatedAt), nil
}

func poolToStored(pool *domain.Pool) *StoredPool {
	sqrtPrice := "0"
	liquidity := "0"
	if pool.SqrtPriceX64 != nil {
		sqrtPrice = pool.SqrtPriceX64.String()
	}
	if pool.Liquidity != nil {
		liquidity = pool.Liquidity.String()
	}

	return &StoredPool{
		Address:          pool.Address.String(),
		ProgramID:        pool.ProgramID.String(),
		TokenMintA:       pool.TokenMintA.String(),
		TokenMintB:       pool.TokenMintB.String(),
		TokenVaultA:      pool.TokenVaultA.String(),
		TokenVaultB:      pool.TokenVaultB.String(),
		FeeRate:          pool.FeeRate,
		TickSpacing:      pool.TickSpacing,
		TickCurrentIndex: pool.TickCurrentIndex,
		SqrtPrice:        sqrtPrice,
		Liquidity:        liquidity,
		LastUpdatedSlot:  pool.LastUpdatedSlot,
	}
}

func storedToPool(stored *StoredPool) (*domain.Pool, error) {
	keys := make([]solana.PublicKey, 6)
	for i, raw := range []string{
		stored.Address,
		stored.ProgramID,
		stored.TokenMintA,
		stored.TokenMintB,
		stored.TokenVaultA,
		stored.TokenVaultB,
	} {
		key, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid public key %q: %w", raw, err)
		}
		keys[i] = key
	}

	sqrtPrice, ok := new(big.Int).SetString(stored.SqrtPrice, 10)
	if !ok {
		return nil, fmt.Errorf("invalid sqrtPrice %q", stored.SqrtPrice)
	}
	liquidity, ok := new(big.Int).SetString(stored.Liquidity, 10)
	if !ok {
		return nil, fmt.Errorf("invalid liquidity %q", stored.Liquidity)
	}

	// The simulator needs a vortex account; rebuild the fields we persisted.
	account := &vortex_go.VortexAccount{
		TokenMintA:       keys[2],
		TokenMintB:       keys[3],
		TokenVaultA:      keys[4],
		TokenVaultB:      keys[5],
		FeeRate:          stored.FeeRate,
		TickSpacing:      stored.TickSpacing,
		TickCurrentIndex: stored.TickCurrentIndex,
		SqrtPrice:        bigIntToUint128(sqrtPrice),
		Liquidity:        bigIntToUint128(liquidity),
	}

	return &domain.Pool{
		Address:          keys[0],
		ProgramID:        keys[1],
		TokenMintA:       keys[2],
		TokenMintB:       keys[3],
		TokenVaultA:      keys[4],
		TokenVaultB:      keys[5],
		FeeRate:          stored.FeeRate,
		TickSpacing:      stored.TickSpacing,
		TickCurrentIndex: stored.TickCurrentIndex,
		SqrtPriceX64:     sqrtPrice,
		Liquidity:        liquidity,
		LastUpdatedSlot:  stored.LastUpdatedSlot,
		Account:          account,
	}, nil
}

func bigIntToUint128(value *big.Int) bin.Uint128 {
	var result bin.Uint128
	if value == nil || value.Sign() <= 0 {
		return result
	}

	mask := new(big.Int).SetUint64(^uint64(0))
	result.Lo = new(big.Int).And(value, mask).Uint64()
	result.Hi = new(big.Int).And(new(big.Int).Rsh(value, 64), mask).Uint64()
	return result
}
