package price

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/domain"
	"github.com/hxuan190/pool-graph/internal/metrics"
	"github.com/hxuan190/pool-graph/internal/services"
	"github.com/hxuan190/pool-graph/internal/services/builder"
)

var (
	ErrQuoteTokensMissing = fmt.Errorf("%w: quote tokens must be in mints", common.ErrInvalidInput)
	ErrMissingDecimals    = fmt.Errorf("%w: missing token decimals", common.ErrInvalidInput)
	ErrInvalidConfig      = fmt.Errorf("%w: invalid price config", common.ErrInvalidInput)
)

// Config selects which pools are considered when pricing.
type Config struct {
	// QuoteTokens in priority order. Prices are denominated in the first one.
	QuoteTokens  []solana.PublicKey
	TickSpacings []uint16
	ProgramID    solana.PublicKey
	PoolsConfig  solana.PublicKey
}

func DefaultConfig(poolsConfig solana.PublicKey) Config {
	return Config{
		QuoteTokens:  common.DefaultQuoteTokens(),
		TickSpacings: common.DefaultTickSpacings(),
		ProgramID:    common.VortexProgramID,
		PoolsConfig:  poolsConfig,
	}
}

func (c Config) Validate() error {
	if len(c.QuoteTokens) == 0 {
		return fmt.Errorf("%w: at least one quote token is required", ErrInvalidConfig)
	}
	if len(c.TickSpacings) == 0 {
		return fmt.Errorf("%w: at least one tick spacing is required", ErrInvalidConfig)
	}
	if c.ProgramID.IsZero() {
		return fmt.Errorf("%w: program id is required", ErrInvalidConfig)
	}
	return nil
}

// AddressDeriver derives the accounts the calculator looks up in its maps.
type AddressDeriver interface {
	PoolAddress(mintA, mintB solana.PublicKey, tickSpacing uint16) (solana.PublicKey, error)
	TickArrayAddresses(pool *domain.Pool, aToB bool) ([]solana.PublicKey, error)
}

// Step describes one pass of the quote token worklist.
type Step struct {
	QuoteToken       solana.PublicKey
	UnresolvedBefore int
	UnresolvedAfter  int
	Resolved         int
}

type StepObserver func(Step)

type Option func(*Calculator)

func WithSimulator(sim SwapSimulator) Option {
	return func(c *Calculator) {
		c.simulator = sim
	}
}

func WithDeriver(d AddressDeriver) Option {
	return func(c *Calculator) {
		c.deriver = d
	}
}

func WithStepObserver(fn StepObserver) Option {
	return func(c *Calculator) {
		c.observer = fn
	}
}

// Calculator prices mints against a chain of quote tokens using the most
// liquid pool of each pair. It works on snapshots only and does no I/O.
type Calculator struct {
	config    Config
	threshold domain.ThresholdConfig
	simulator SwapSimulator
	deriver   AddressDeriver
	observer  StepObserver
	logger    *services.ServiceLogger
}

func NewCalculator(config Config, threshold domain.ThresholdConfig, opts ...Option) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !threshold.PriceImpactThreshold.IsPositive() {
		return nil, fmt.Errorf("%w: price impact threshold must be positive", ErrInvalidConfig)
	}
	if threshold.AmountThreshold == 0 {
		return nil, fmt.Errorf("%w: amount threshold must be positive", ErrInvalidConfig)
	}

	c := &Calculator{
		config:    config,
		threshold: threshold,
		simulator: ValiantSimulator{},
		deriver:   builder.NewDeriver(config.ProgramID, config.PoolsConfig),
		logger:    services.NewComponentLogger("price.Calculator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Calculator) Config() Config {
	return c.config
}

// CalculatePoolPrices prices every mint in units of the first quote token.
// Mints are first priced against the first quote token; the ones left are
// retried against each following quote token whose own price is known.
// Mints that cannot be priced are absent from the result.
func (c *Calculator) CalculatePoolPrices(
	mints []solana.PublicKey,
	pools domain.PoolMap,
	tickArrays domain.TickArrayMap,
	decimals domain.DecimalsMap,
) (domain.PriceMap, error) {
	requested := make(map[solana.PublicKey]struct{}, len(mints))
	for _, mint := range mints {
		requested[mint] = struct{}{}
	}
	for _, quote := range c.config.QuoteTokens {
		if _, ok := requested[quote]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrQuoteTokensMissing, quote)
		}
	}

	unresolved := uniqueMints(mints, c.config.QuoteTokens)
	remaining := make([]solana.PublicKey, len(c.config.QuoteTokens))
	copy(remaining, c.config.QuoteTokens)

	prices := make(domain.PriceMap, len(unresolved))
	first := true

	for len(remaining) > 0 && len(unresolved) > 0 {
		var quote solana.PublicKey
		quote, remaining = popFront(remaining)

		tentative, err := c.calculatePricesForQuoteToken(unresolved, quote, pools, tickArrays, decimals)
		if err != nil {
			return nil, err
		}

		quotePrice, known := prices[quote]
		if first {
			quotePrice, known = decimalOne, true
			first = false
		}

		before := len(unresolved)
		if known {
			for _, mint := range unresolved {
				if price, ok := tentative[mint]; ok {
					prices[mint] = price.Mul(quotePrice)
				}
			}
		}

		next := unresolved[:0]
		for _, mint := range unresolved {
			if _, ok := prices[mint]; !ok {
				next = append(next, mint)
			}
		}
		unresolved = next

		step := Step{
			QuoteToken:       quote,
			UnresolvedBefore: before,
			UnresolvedAfter:  len(unresolved),
			Resolved:         before - len(unresolved),
		}
		c.logger.Debug().
			Str("quote", quote.String()).
			Bool("quote_priced", known).
			Int("resolved", step.Resolved).
			Int("unresolved", step.UnresolvedAfter).
			Msg("[PriceCalculator] quote token pass")
		if c.observer != nil {
			c.observer(step)
		}
	}

	metrics.PricedMints.WithLabelValues("priced").Add(float64(len(prices)))
	metrics.PricedMints.WithLabelValues("unpriced").Add(float64(len(unresolved)))

	return prices, nil
}

// calculatePricesForQuoteToken returns the price of each mint in units of
// quote. Mints without a sufficiently liquid pool against quote are absent.
func (c *Calculator) calculatePricesForQuoteToken(
	mints []solana.PublicKey,
	quote solana.PublicKey,
	pools domain.PoolMap,
	tickArrays domain.TickArrayMap,
	decimals domain.DecimalsMap,
) (map[solana.PublicKey]decimal.Decimal, error) {
	result := make(map[solana.PublicKey]decimal.Decimal, len(mints))

	for _, mint := range mints {
		if mint.Equals(quote) {
			result[mint] = decimalOne
			continue
		}

		mintA, mintB := builder.OrderMints(mint, quote)
		aToB := mintA.Equals(quote)

		pool, err := c.GetMostLiquidPool(mintA, mintB, pools)
		if err != nil {
			return nil, err
		}
		if pool == nil {
			continue
		}

		arrays, err := c.GetTickArrays(pool, aToB, tickArrays)
		if err != nil {
			return nil, err
		}

		passed, err := c.CheckLiquidityThreshold(pool, arrays, aToB, decimals)
		if err != nil {
			return nil, err
		}
		if !passed {
			continue
		}

		spot, err := getPrice(pool, decimals)
		if err != nil {
			return nil, err
		}

		// spot is B per A. Quote in units of mint is wanted per one mint.
		price := spot
		if aToB {
			price = invert(spot)
		}
		if price.IsZero() {
			continue
		}
		result[mint] = price
	}

	return result, nil
}

// GetMostLiquidPool returns the pool with the most liquidity among the
// configured tick spacings for an ordered mint pair, or nil when none is in
// pools. Ties go to the later tick spacing.
func (c *Calculator) GetMostLiquidPool(mintA, mintB solana.PublicKey, pools domain.PoolMap) (*domain.Pool, error) {
	var best *domain.Pool
	for _, tickSpacing := range c.config.TickSpacings {
		addr, err := c.deriver.PoolAddress(mintA, mintB, tickSpacing)
		if err != nil {
			return nil, fmt.Errorf("derive pool address for tick spacing %d: %w", tickSpacing, err)
		}

		pool := pools[addr]
		if pool == nil {
			continue
		}
		if best == nil || liquidityOf(pool).Cmp(liquidityOf(best)) >= 0 {
			best = pool
		}
	}
	return best, nil
}

// GetTickArrays pairs the tick arrays a swap from the current tick would
// cross with their data. Data is nil for arrays missing from tickArrays.
func (c *Calculator) GetTickArrays(pool *domain.Pool, aToB bool, tickArrays domain.TickArrayMap) ([]domain.TickArray, error) {
	addrs, err := c.deriver.TickArrayAddresses(pool, aToB)
	if err != nil {
		return nil, fmt.Errorf("derive tick arrays for pool %s: %w", pool.Address, err)
	}

	result := make([]domain.TickArray, len(addrs))
	for i, addr := range addrs {
		result[i] = domain.TickArray{
			Address: addr,
			Data:    tickArrays[addr],
		}
	}
	return result, nil
}

// CheckLiquidityThreshold simulates selling AmountThreshold of the input
// token and passes when the output is at least the no-impact output divided
// by PriceImpactThreshold. Only the input-to-output direction is checked.
func (c *Calculator) CheckLiquidityThreshold(
	pool *domain.Pool,
	tickArrays []domain.TickArray,
	aToB bool,
	decimals domain.DecimalsMap,
) (bool, error) {
	spot, err := getPrice(pool, decimals)
	if err != nil {
		return false, err
	}

	inputMint, outputMint := pool.TokenMintB, pool.TokenMintA
	price := invert(spot)
	if aToB {
		inputMint, outputMint = pool.TokenMintA, pool.TokenMintB
		price = spot
	}

	estimate, err := c.simulator.SimulateExactIn(pool, tickArrays, aToB, c.threshold.AmountThreshold)
	if err != nil {
		return false, common.WrapUpstream(err, fmt.Sprintf("simulate swap on pool %s", pool.Address))
	}
	metrics.PriceImpact.Observe(float64(estimate.PriceImpactBps))

	if price.IsZero() {
		metrics.LiquidityChecks.WithLabelValues("failed").Inc()
		return false, nil
	}

	decimalsOut := decimals[outputMint]
	amountIn := amountToDecimal(c.threshold.AmountThreshold, decimals[inputMint])
	amountOut := amountToDecimal(estimate.AmountOut, decimalsOut)

	amountOutThreshold := amountIn.
		Mul(price).
		DivRound(c.threshold.PriceImpactThreshold, pricePrecision).
		Round(int32(decimalsOut))

	if amountOutThreshold.GreaterThan(amountOut) {
		metrics.LiquidityChecks.WithLabelValues("failed").Inc()
		return false, nil
	}
	metrics.LiquidityChecks.WithLabelValues("passed").Inc()
	return true, nil
}

// getPrice returns the spot price of token A in units of token B.
func getPrice(pool *domain.Pool, decimals domain.DecimalsMap) (decimal.Decimal, error) {
	decimalsA, ok := decimals[pool.TokenMintA]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingDecimals, pool.TokenMintA)
	}
	decimalsB, ok := decimals[pool.TokenMintB]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingDecimals, pool.TokenMintB)
	}
	return SqrtPriceX64ToPrice(pool.SqrtPriceX64, decimalsA, decimalsB), nil
}

func liquidityOf(pool *domain.Pool) *big.Int {
	if !pool.HasLiquidity() {
		return new(big.Int)
	}
	return pool.Liquidity
}

// uniqueMints returns mints followed by the quote tokens, without duplicates.
func uniqueMints(mints, quoteTokens []solana.PublicKey) []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{}, len(mints)+len(quoteTokens))
	result := make([]solana.PublicKey, 0, len(mints)+len(quoteTokens))
	for _, list := range [][]solana.PublicKey{mints, quoteTokens} {
		for _, mint := range list {
			if _, ok := seen[mint]; ok {
				continue
			}
			seen[mint] = struct{}{}
			result = append(result, mint)
		}
	}
	return result
}

func popFront(queue []solana.PublicKey) (solana.PublicKey, []solana.PublicKey) {
	if len(queue) == 0 {
		panic("price: pop from empty quote token worklist")
	}
	return queue[0], queue[1:]
}
