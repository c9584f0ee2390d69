package market

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/domain"
)

var (
	ErrMintInfoMissing     = fmt.Errorf("%w: mint account not found", common.ErrInvalidInput)
	ErrTokenAccountMissing = fmt.Errorf("%w: token account not found", common.ErrInvalidInput)
)

type MintInfoLister interface {
	ListMintInfos(ctx context.Context, mints []solana.PublicKey, refresh bool) (map[solana.PublicKey]*domain.MintInfo, error)
}

type TokenInfoLister interface {
	ListTokenInfos(ctx context.Context, accounts []solana.PublicKey, refresh bool) (map[solana.PublicKey]*domain.TokenAccountInfo, error)
}

// GetTokenMintInfos loads both mints of a pool in one request.
func GetTokenMintInfos(ctx context.Context, lister MintInfoLister, pool *domain.Pool) (*domain.MintInfo, *domain.MintInfo, error) {
	infos, err := lister.ListMintInfos(ctx, []solana.PublicKey{pool.TokenMintA, pool.TokenMintB}, false)
	if err != nil {
		return nil, nil, err
	}

	mintA, mintB := infos[pool.TokenMintA], infos[pool.TokenMintB]
	if mintA == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrMintInfoMissing, pool.TokenMintA)
	}
	if mintB == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrMintInfoMissing, pool.TokenMintB)
	}
	return mintA, mintB, nil
}

// GetTokenVaultAccountInfos loads both vaults of a pool in one request.
func GetTokenVaultAccountInfos(ctx context.Context, lister TokenInfoLister, pool *domain.Pool) (*domain.TokenAccountInfo, *domain.TokenAccountInfo, error) {
	infos, err := lister.ListTokenInfos(ctx, []solana.PublicKey{pool.TokenVaultA, pool.TokenVaultB}, false)
	if err != nil {
		return nil, nil, err
	}

	vaultA, vaultB := infos[pool.TokenVaultA], infos[pool.TokenVaultB]
	if vaultA == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrTokenAccountMissing, pool.TokenVaultA)
	}
	if vaultB == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrTokenAccountMissing, pool.TokenVaultB)
	}
	return vaultA, vaultB, nil
}
