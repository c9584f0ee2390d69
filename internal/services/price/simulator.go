package price

import (
	"errors"
	"fmt"

	valiant "github.com/thehyperflames/valiant_go"
	vortex_go "github.com/thehyperflames/valiant_go/generated/valiant"

	"github.com/hxuan190/pool-graph/internal/domain"
)

var (
	ErrTickArrayNotInitialized = errors.New("tick array not initialized")
	ErrPoolAccountMissing      = errors.New("pool account data missing")
)

// SwapEstimate is the outcome of a simulated exact-in swap.
type SwapEstimate struct {
	AmountIn       uint64
	AmountOut      uint64
	FeeAmount      uint64
	PriceImpactBps uint16
}

// SwapSimulator estimates the output of an exact-in swap against a pool
// snapshot and the tick arrays the swap would traverse.
type SwapSimulator interface {
	SimulateExactIn(pool *domain.Pool, tickArrays []domain.TickArray, aToB bool, amountIn uint64) (*SwapEstimate, error)
}

// ValiantSimulator runs the Vortex CLMM swap math from valiant_go.
type ValiantSimulator struct{}

var _ SwapSimulator = ValiantSimulator{}

func (ValiantSimulator) SimulateExactIn(pool *domain.Pool, tickArrays []domain.TickArray, aToB bool, amountIn uint64) (*SwapEstimate, error) {
	if pool == nil || pool.Account == nil {
		return nil, ErrPoolAccountMissing
	}

	arrays, err := leadingTickArrays(tickArrays)
	if err != nil {
		return nil, err
	}

	result, err := valiant.ComputeSwapExactIn(amountIn, aToB, pool.Account, arrays)
	if err != nil {
		return nil, fmt.Errorf("compute swap for pool %s: %w", pool.Address, err)
	}

	sqrtPrice := getU256()
	defer putU256(sqrtPrice)
	if pool.SqrtPriceX64 != nil {
		sqrtPrice.SetFromBig(pool.SqrtPriceX64)
	}

	return &SwapEstimate{
		AmountIn:       result.AmountIn,
		AmountOut:      result.AmountOut,
		FeeAmount:      result.FeeAmount,
		PriceImpactBps: CalculatePriceImpactU256(result.AmountIn, result.AmountOut, aToB, sqrtPrice, uint32(pool.FeeRate)),
	}, nil
}

// leadingTickArrays returns the initialized prefix of tickArrays. The swap
// walks the arrays in order and cannot skip an uninitialized one.
func leadingTickArrays(tickArrays []domain.TickArray) ([]*vortex_go.TickArrayAccount, error) {
	arrays := make([]*vortex_go.TickArrayAccount, 0, len(tickArrays))
	for _, ta := range tickArrays {
		if ta.Data == nil {
			break
		}
		arrays = append(arrays, ta.Data)
	}
	if len(arrays) == 0 {
		if len(tickArrays) == 0 {
			return nil, ErrTickArrayNotInitialized
		}
		return nil, fmt.Errorf("%w: %s", ErrTickArrayNotInitialized, tickArrays[0].Address)
	}
	return arrays, nil
}
