package domain

import "github.com/gagliardetto/solana-go"

// MaxRouteHops is the longest route the pool graph will produce.
const MaxRouteHops = 2

// RoutePath is one concrete way to exchange StartMint for EndMint.
// Edges are pool addresses in traversal order.
type RoutePath struct {
	StartMint solana.PublicKey   `json:"startMint"`
	EndMint   solana.PublicKey   `json:"endMint"`
	Edges     []solana.PublicKey `json:"edges"`
}

func (r RoutePath) Hops() int {
	return len(r.Edges)
}

// RoutePathMap keys route lists by route id (see router.GetRouteID).
type RoutePathMap map[string][]RoutePath

// RouteFindOptions restricts route search. A nil *RouteFindOptions lets every
// token in the graph act as an intermediate; a non-nil value with an empty
// IntermediateTokens slice yields direct routes only.
type RouteFindOptions struct {
	IntermediateTokens []solana.PublicKey `json:"intermediateTokens"`
}
