package builder

import (
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/pool-graph/internal/domain"
)

// Deriver derives pool and tick array addresses for one program and pools
// config.
type Deriver struct {
	ProgramID   solana.PublicKey
	PoolsConfig solana.PublicKey
}

func NewDeriver(programID, poolsConfig solana.PublicKey) *Deriver {
	return &Deriver{
		ProgramID:   programID,
		PoolsConfig: poolsConfig,
	}
}

// PoolAddress expects the mints already ordered with OrderMints.
func (d *Deriver) PoolAddress(mintA, mintB solana.PublicKey, tickSpacing uint16) (solana.PublicKey, error) {
	addr, _, err := DerivePoolAddress(d.ProgramID, d.PoolsConfig, mintA, mintB, tickSpacing)
	return addr, err
}

func (d *Deriver) TickArrayAddresses(pool *domain.Pool, aToB bool) ([]solana.PublicKey, error) {
	return TickArrayAddressesForSwap(d.ProgramID, pool.Address, pool.TickCurrentIndex, pool.TickSpacing, aToB)
}
