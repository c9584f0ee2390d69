package domain

import "github.com/gagliardetto/solana-go"

type MintInfo struct {
	Mint            solana.PublicKey  `json:"mint"`
	TokenProgram    solana.PublicKey  `json:"tokenProgram"`
	Decimals        uint8             `json:"decimals"`
	Supply          uint64            `json:"supply"`
	MintAuthority   *solana.PublicKey `json:"mintAuthority,omitempty"`
	FreezeAuthority *solana.PublicKey `json:"freezeAuthority,omitempty"`
	IsInitialized   bool              `json:"isInitialized"`
}

type TokenAccountInfo struct {
	Address         solana.PublicKey  `json:"address"`
	Mint            solana.PublicKey  `json:"mint"`
	Owner           solana.PublicKey  `json:"owner"`
	Amount          uint64            `json:"amount"`
	Delegate        *solana.PublicKey `json:"delegate,omitempty"`
	DelegatedAmount uint64            `json:"delegatedAmount"`
	IsNative        bool              `json:"isNative"`
}

// DecimalsMap maps a mint to its decimal exponent.
type DecimalsMap map[solana.PublicKey]uint8
