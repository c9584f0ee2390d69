package domain

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// PriceMap holds the price of each mint in units of the first quote token.
// Mints without a sufficiently liquid route are absent.
type PriceMap map[solana.PublicKey]decimal.Decimal

// ThresholdConfig governs the liquidity sufficiency check.
type ThresholdConfig struct {
	// AmountThreshold is the reference trade size in quote-token base units.
	AmountThreshold uint64
	// PriceImpactThreshold is the allowed ratio between the no-impact output
	// and the simulated output, e.g. 1.05.
	PriceImpactThreshold decimal.Decimal
}

func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		AmountThreshold:      1_000_000,
		PriceImpactThreshold: decimal.RequireFromString("1.05"),
	}
}

// Strings renders the map with base58 keys and plain decimal values.
func (m PriceMap) Strings() map[string]string {
	out := make(map[string]string, len(m))
	for mint, price := range m {
		out[mint.String()] = price.String()
	}
	return out
}
