package price

import (
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// pricePrecision is the number of decimal places kept by divisions.
const pricePrecision = 36

// Pre-computed constants (avoid allocation on every call)
var (
	u256Q64      = uint256.NewInt(0).Lsh(uint256.NewInt(1), 64)
	u256BpsDenom = uint256.NewInt(10000)
	u256FeeBase  = uint256.NewInt(1000000)

	decimalQ128 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 128), 0)
	decimalOne  = decimal.NewFromInt(1)
)

var uint256Pool = sync.Pool{
	New: func() interface{} {
		return new(uint256.Int)
	},
}

func getU256() *uint256.Int {
	return uint256Pool.Get().(*uint256.Int)
}

func putU256(v *uint256.Int) {
	v.Clear()
	uint256Pool.Put(v)
}

// SqrtPriceX64ToPrice converts a Q64.64 square-root price into the decimal
// price of token A in units of token B: (sqrtPrice / 2^64)^2 * 10^(decA-decB).
func SqrtPriceX64ToPrice(sqrtPriceX64 *big.Int, decimalsA, decimalsB uint8) decimal.Decimal {
	if sqrtPriceX64 == nil || sqrtPriceX64.Sign() <= 0 {
		return decimal.Zero
	}

	squared := getU256()
	defer putU256(squared)

	// sqrt price is a u128, its square always fits in 256 bits
	if overflow := squared.SetFromBig(sqrtPriceX64); overflow {
		return decimal.Zero
	}
	squared.Mul(squared, squared)

	scaled := decimal.NewFromBigInt(squared.ToBig(), int32(decimalsA)-int32(decimalsB))
	return scaled.DivRound(decimalQ128, pricePrecision)
}

// invert returns 1/price, or zero for a zero price.
func invert(price decimal.Decimal) decimal.Decimal {
	if price.IsZero() {
		return decimal.Zero
	}
	return decimalOne.DivRound(price, pricePrecision)
}

// amountToDecimal scales a raw token amount down by its decimals.
func amountToDecimal(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}

// CalculatePriceImpactU256 calculates price impact in basis points using
// uint256 (zero allocation). Fees are excluded so the result is pure
// slippage against the spot price.
func CalculatePriceImpactU256(
	amountIn uint64,
	amountOut uint64,
	aToB bool,
	sqrtPriceX64 *uint256.Int,
	feeRate uint32,
) uint16 {
	if amountIn == 0 || amountOut == 0 || sqrtPriceX64 == nil || sqrtPriceX64.IsZero() {
		return 0
	}

	spot := getU256()
	effectivePrice := getU256()
	currentPrice := getU256()
	temp := getU256()
	feeAmount := getU256()
	amountInU := getU256()
	amountOutU := getU256()
	amountInEffective := getU256()

	defer func() {
		putU256(spot)
		putU256(effectivePrice)
		putU256(currentPrice)
		putU256(temp)
		putU256(feeAmount)
		putU256(amountInU)
		putU256(amountOutU)
		putU256(amountInEffective)
	}()

	amountInU.SetUint64(amountIn)
	amountOutU.SetUint64(amountOut)

	// spot = sqrtPriceX64^2 / Q64 (B per A, Q64 scaled)
	spot.Mul(sqrtPriceX64, sqrtPriceX64)
	spot.Div(spot, u256Q64)

	// feeAmount = amountIn * feeRate / 1000000
	feeAmount.SetUint64(uint64(feeRate))
	feeAmount.Mul(amountInU, feeAmount)
	feeAmount.Div(feeAmount, u256FeeBase)

	if amountInU.Cmp(feeAmount) <= 0 {
		return 0
	}
	amountInEffective.Sub(amountInU, feeAmount)

	if aToB {
		currentPrice.Set(spot)
	} else {
		if spot.IsZero() {
			return 0
		}
		currentPrice.Mul(u256Q64, u256Q64)
		currentPrice.Div(currentPrice, spot)
	}
	effectivePrice.Mul(amountOutU, u256Q64)
	effectivePrice.Div(effectivePrice, amountInEffective)

	if currentPrice.IsZero() || effectivePrice.Cmp(currentPrice) >= 0 {
		return 0
	}

	// impact = (currentPrice - effectivePrice) * 10000 / currentPrice
	temp.Sub(currentPrice, effectivePrice)
	temp.Mul(temp, u256BpsDenom)
	temp.Div(temp, currentPrice)

	if temp.IsUint64() {
		val := temp.Uint64()
		if val > 65535 {
			return 65535
		}
		return uint16(val)
	}
	return 65535
}
