package http

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/pool-graph/internal/domain"
	"github.com/hxuan190/pool-graph/internal/http/httputil"
	"github.com/hxuan190/pool-graph/internal/services/market"
)

const poolRequestTimeout = 10 * time.Second

// PoolGraphReader exposes the pools held by the route graph.
type PoolGraphReader interface {
	GetPool(address solana.PublicKey) *domain.Pool
	GetPoolCount() int
	GetTokenCount() int
}

// PoolFetcher loads pools the graph does not hold, along with the mints and
// vaults of any pool.
type PoolFetcher interface {
	market.MintInfoLister
	market.TokenInfoLister
	GetPool(ctx context.Context, address solana.PublicKey, refresh bool) (*domain.Pool, error)
}

type PoolHandler struct {
	graph       PoolGraphReader
	fetcher     PoolFetcher
	updateCount func() uint64
}

// NewPoolHandler wires the pool endpoints. updateCount may be nil when no
// stream is running.
func NewPoolHandler(graph PoolGraphReader, fetcher PoolFetcher, updateCount func() uint64) *PoolHandler {
	return &PoolHandler{
		graph:       graph,
		fetcher:     fetcher,
		updateCount: updateCount,
	}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/stats", h.getStats)
	pub.GET("/:address", h.getPool)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// PoolStatsResponse contains statistics about the route graph
type PoolStatsResponse struct {
	// Number of pools in the current graph snapshot
	PoolCount int `json:"pool_count" example:"1247"`

	// Number of distinct mints in the current graph snapshot
	TokenCount int `json:"token_count" example:"830"`

	// Pool account updates applied from the stream since service start
	UpdateCount uint64 `json:"update_count" example:"45892"`
}

// getStats godoc
// @Summary Route graph statistics
// @Tags pools
// @Produce json
// @Success 200 {object} httputil.Response{data=PoolStatsResponse}
// @Router /api/v1/pools/stats [get]
func (h *PoolHandler) getStats(c *gin.Context) {
	var updates uint64
	if h.updateCount != nil {
		updates = h.updateCount()
	}
	httputil.HandleSuccess(c, PoolStatsResponse{
		PoolCount:   h.graph.GetPoolCount(),
		TokenCount:  h.graph.GetTokenCount(),
		UpdateCount: updates,
	})
}

// PoolDetailResponse contains the decoded state of a Whirlpool-style pool
type PoolDetailResponse struct {
	// Pool address (Solana public key)
	Address string `json:"address" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`

	// Program ID that owns this pool
	ProgramID string `json:"program_id" example:"vnt1u7PzorND5JjweFWmDawKe2hLWoTwHU6QKz6XX98"`

	// First token mint address, the smaller key of the pair
	TokenMintA string `json:"token_mint_a" example:"So11111111111111111111111111111111111111112"`

	// Second token mint address
	TokenMintB string `json:"token_mint_b" example:"uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG"`

	// Token vault address for token A
	TokenVaultA string `json:"token_vault_a" example:"5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"`

	// Token vault address for token B
	TokenVaultB string `json:"token_vault_b" example:"36c6YqAwyGKQG66XEp2dJc5JqjaBNv7sVghEtJv4c7u6"`

	// Fee rate in hundredths of a basis point
	FeeRate uint16 `json:"fee_rate" example:"3000"`

	// Tick spacing, one of the pool tiers
	TickSpacing uint16 `json:"tick_spacing" example:"64"`

	// Current tick index
	TickCurrentIndex int32 `json:"tick_current_index" example:"-18412"`

	// sqrt(price) as Q64.64 fixed point
	SqrtPriceX64 string `json:"sqrt_price_x64" example:"7353440676616508955"`

	// Active liquidity
	Liquidity string `json:"liquidity" example:"1234567890123"`

	// Solana slot number when pool data was last updated
	LastUpdatedSlot uint64 `json:"last_updated_slot" example:"245831456"`

	// Decimals of token A, absent when the mint account is missing
	DecimalsA *uint8 `json:"decimals_a,omitempty" example:"9"`

	// Decimals of token B, absent when the mint account is missing
	DecimalsB *uint8 `json:"decimals_b,omitempty" example:"6"`

	// Raw balance of vault A, absent when the vault account is missing
	VaultBalanceA string `json:"vault_balance_a,omitempty" example:"5000000000"`

	// Raw balance of vault B, absent when the vault account is missing
	VaultBalanceB string `json:"vault_balance_b,omitempty" example:"731000000"`
}

// getPool godoc
// @Summary Pool state
// @Description Serves the pool from the route graph, falling back to the account cache and RPC.
// @Description Mint decimals and vault balances are read through the account cache.
// @Tags pools
// @Produce json
// @Param address path string true "Pool address (base58)"
// @Success 200 {object} httputil.Response{data=PoolDetailResponse}
// @Failure 400 {object} httputil.Response "Invalid address"
// @Failure 404 {object} httputil.Response "Pool not found"
// @Failure 502 {object} httputil.Response "RPC failure"
// @Router /api/v1/pools/{address} [get]
func (h *PoolHandler) getPool(c *gin.Context) {
	address, err := parsePublicKey("address", c.Param("address"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), poolRequestTimeout)
	defer cancel()

	pool := h.graph.GetPool(address)
	if pool == nil {
		pool, err = h.fetcher.GetPool(ctx, address, false)
		if err != nil {
			httputil.HandleError(c, err)
			return
		}
	}

	if pool == nil {
		httputil.HandleNotFound(c, "pool not found")
		return
	}

	resp := newPoolDetailResponse(pool)
	if err := h.addTokenDetails(ctx, pool, &resp); err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, resp)
}

// addTokenDetails fills decimals and vault balances. Missing accounts leave
// the fields empty; RPC failures are returned.
func (h *PoolHandler) addTokenDetails(ctx context.Context, pool *domain.Pool, resp *PoolDetailResponse) error {
	mintA, mintB, err := market.GetTokenMintInfos(ctx, h.fetcher, pool)
	switch {
	case err == nil:
		decimalsA, decimalsB := mintA.Decimals, mintB.Decimals
		resp.DecimalsA, resp.DecimalsB = &decimalsA, &decimalsB
	case !errors.Is(err, market.ErrMintInfoMissing):
		return err
	}

	vaultA, vaultB, err := market.GetTokenVaultAccountInfos(ctx, h.fetcher, pool)
	switch {
	case err == nil:
		resp.VaultBalanceA = strconv.FormatUint(vaultA.Amount, 10)
		resp.VaultBalanceB = strconv.FormatUint(vaultB.Amount, 10)
	case !errors.Is(err, market.ErrTokenAccountMissing):
		return err
	}
	return nil
}

func newPoolDetailResponse(pool *domain.Pool) PoolDetailResponse {
	resp := PoolDetailResponse{
		Address:          pool.Address.String(),
		ProgramID:        pool.ProgramID.String(),
		TokenMintA:       pool.TokenMintA.String(),
		TokenMintB:       pool.TokenMintB.String(),
		TokenVaultA:      pool.TokenVaultA.String(),
		TokenVaultB:      pool.TokenVaultB.String(),
		FeeRate:          pool.FeeRate,
		TickSpacing:      pool.TickSpacing,
		TickCurrentIndex: pool.TickCurrentIndex,
		SqrtPriceX64:     "0",
		Liquidity:        "0",
		LastUpdatedSlot:  pool.LastUpdatedSlot,
	}
	if pool.SqrtPriceX64 != nil {
		resp.SqrtPriceX64 = pool.SqrtPriceX64.String()
	}
	if pool.Liquidity != nil {
		resp.Liquidity = pool.Liquidity.String()
	}
	return resp
}
