package domain

import (
	"errors"
	"math/big"

	"github.com/gagliardetto/solana-go"
	vortex_go "github.com/thehyperflames/valiant_go/generated/valiant"
)

var ErrSameTokenPair = errors.New("pool token pair must hold two distinct mints")

// PoolTokenPair is the minimal fact the pool graph needs about a pool.
type PoolTokenPair struct {
	Address    solana.PublicKey `json:"address"`
	TokenMintA solana.PublicKey `json:"tokenMintA"`
	TokenMintB solana.PublicKey `json:"tokenMintB"`
}

func (p PoolTokenPair) Validate() error {
	if p.TokenMintA.Equals(p.TokenMintB) {
		return ErrSameTokenPair
	}
	return nil
}

// Pool is a decoded snapshot of an on-chain CLMM pool account.
type Pool struct {
	Address          solana.PublicKey `json:"address"`
	ProgramID        solana.PublicKey `json:"programId"`
	TokenMintA       solana.PublicKey `json:"tokenMintA"`
	TokenMintB       solana.PublicKey `json:"tokenMintB"`
	TokenVaultA      solana.PublicKey `json:"tokenVaultA"`
	TokenVaultB      solana.PublicKey `json:"tokenVaultB"`
	FeeRate          uint16           `json:"feeRate"`
	TickSpacing      uint16           `json:"tickSpacing"`
	TickCurrentIndex int32            `json:"tickCurrentIndex"`
	SqrtPriceX64     *big.Int         `json:"sqrtPriceX64"`
	Liquidity        *big.Int         `json:"liquidity"`
	LastUpdatedSlot  uint64           `json:"lastUpdatedSlot"`

	// Account is the raw decoded account, required by the swap simulator.
	Account *vortex_go.VortexAccount `json:"-"`
}

func (p *Pool) TokenPair() PoolTokenPair {
	return PoolTokenPair{
		Address:    p.Address,
		TokenMintA: p.TokenMintA,
		TokenMintB: p.TokenMintB,
	}
}

// HasLiquidity reports whether the pool currently has in-range liquidity.
func (p *Pool) HasLiquidity() bool {
	return p.Liquidity != nil && p.Liquidity.Sign() > 0
}

// NewPoolFromAccount builds a snapshot from a decoded vortex account.
func NewPoolFromAccount(address, programID solana.PublicKey, account *vortex_go.VortexAccount, slot uint64) *Pool {
	return &Pool{
		Address:          address,
		ProgramID:        programID,
		TokenMintA:       account.TokenMintA,
		TokenMintB:       account.TokenMintB,
		TokenVaultA:      account.TokenVaultA,
		TokenVaultB:      account.TokenVaultB,
		FeeRate:          account.FeeRate,
		TickSpacing:      account.TickSpacing,
		TickCurrentIndex: account.TickCurrentIndex,
		SqrtPriceX64:     account.SqrtPrice.BigInt(),
		Liquidity:        account.Liquidity.BigInt(),
		LastUpdatedSlot:  slot,
		Account:          account,
	}
}

// PoolMap holds pool snapshots keyed by pool address.
type PoolMap map[solana.PublicKey]*Pool

// TickArray pairs a tick array address with its decoded data.
// Data is nil when the account is not initialized.
type TickArray struct {
	Address solana.PublicKey
	Data    *vortex_go.TickArrayAccount
}

type TickArrayMap map[solana.PublicKey]*vortex_go.TickArrayAccount
