package router

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/pool-graph/internal/common"
)

const routeIDSeparator = "-"

var ErrInvalidRouteID = fmt.Errorf("%w: malformed route id", common.ErrInvalidInput)

// GetRouteID returns the canonical id of an unordered token pair: the two
// base58 mints in lexicographic order joined by a dash.
func GetRouteID(tokenA, tokenB solana.PublicKey) string {
	a, b := tokenA.String(), tokenB.String()
	if b < a {
		a, b = b, a
	}
	return a + routeIDSeparator + b
}

// DeconstructRouteID splits a route id back into its two mints.
func DeconstructRouteID(routeID string) (solana.PublicKey, solana.PublicKey, error) {
	parts := strings.Split(routeID, routeIDSeparator)
	if len(parts) != 2 {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("%w: %q", ErrInvalidRouteID, routeID)
	}

	tokenA, err := solana.PublicKeyFromBase58(parts[0])
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("%w: %q: %v", ErrInvalidRouteID, parts[0], err)
	}
	tokenB, err := solana.PublicKeyFromBase58(parts[1])
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("%w: %q: %v", ErrInvalidRouteID, parts[1], err)
	}
	return tokenA, tokenB, nil
}
