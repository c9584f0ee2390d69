// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	TokenProgramID  = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ID     = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	ATAProgramID    = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	SystemProgramID = solana.SystemProgramID

	VortexProgramID = solana.MustPublicKeyFromBase58("vnt1u7PzorND5JjweFWmDawKe2hLWoTwHU6QKz6XX98")

	USDCMint          = solana.MustPublicKeyFromBase58("uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG")
	WrappedNativeMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

const (
	PoolSeed = "whirlpool"

	// MaxAccountsPerRequest is the getMultipleAccounts key limit.
	MaxAccountsPerRequest = 100
)

// DefaultQuoteTokens is the pricing anchor priority list.
func DefaultQuoteTokens() []solana.PublicKey {
	return []solana.PublicKey{USDCMint, WrappedNativeMint}
}

// DefaultTickSpacings are the fee tiers searched for the most liquid pool.
func DefaultTickSpacings() []uint16 {
	return []uint16{1, 8, 64, 128}
}
