package builder

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/domain"
)

var ErrMintNotFound = fmt.Errorf("%w: mint account not found", common.ErrInvalidInput)

// AccountLister is the subset of the account fetcher ATA resolution needs.
type AccountLister interface {
	ListMintInfos(ctx context.Context, mints []solana.PublicKey, refresh bool) (map[solana.PublicKey]*domain.MintInfo, error)
	ListTokenInfos(ctx context.Context, accounts []solana.PublicKey, refresh bool) (map[solana.PublicKey]*domain.TokenAccountInfo, error)
}

// ResolvedATA is the owner's associated token account for one mint.
// Instruction is nil when the account already exists.
type ResolvedATA struct {
	Mint         solana.PublicKey   `json:"mint"`
	Address      solana.PublicKey   `json:"address"`
	TokenProgram solana.PublicKey   `json:"tokenProgram"`
	Exists       bool               `json:"exists"`
	Instruction  solana.Instruction `json:"-"`
}

// ResolveOrCreateATAs derives the owner's ATA for each mint under the mint's
// token program and checks which of them exist with two batched fetches.
// Missing accounts get an idempotent create instruction paid by payer.
// Results follow the order of mints.
func ResolveOrCreateATAs(ctx context.Context, lister AccountLister, owner, payer solana.PublicKey, mints []solana.PublicKey) ([]ResolvedATA, error) {
	if len(mints) == 0 {
		return []ResolvedATA{}, nil
	}

	mintInfos, err := lister.ListMintInfos(ctx, mints, false)
	if err != nil {
		return nil, common.WrapUpstream(err, "list mint infos")
	}

	resolved := make([]ResolvedATA, len(mints))
	atas := make([]solana.PublicKey, len(mints))
	for i, mint := range mints {
		info := mintInfos[mint]
		if info == nil {
			return nil, fmt.Errorf("%w: %s", ErrMintNotFound, mint)
		}

		tokenProgram := info.TokenProgram
		if tokenProgram.IsZero() {
			tokenProgram = common.TokenProgramID
		}

		ata, err := GetATAAddressForMint(owner, mint, tokenProgram)
		if err != nil {
			return nil, fmt.Errorf("derive ata for %s: %w", mint, err)
		}

		atas[i] = ata
		resolved[i] = ResolvedATA{
			Mint:         mint,
			Address:      ata,
			TokenProgram: tokenProgram,
		}
	}

	accounts, err := lister.ListTokenInfos(ctx, atas, false)
	if err != nil {
		return nil, common.WrapUpstream(err, "list token infos")
	}

	for i := range resolved {
		if accounts[resolved[i].Address] != nil {
			resolved[i].Exists = true
			continue
		}

		ix, err := CreateATAInstructionForMint(payer, owner, resolved[i].Mint, resolved[i].TokenProgram)
		if err != nil {
			return nil, fmt.Errorf("create ata instruction for %s: %w", resolved[i].Mint, err)
		}
		resolved[i].Instruction = ix
	}

	return resolved, nil
}
