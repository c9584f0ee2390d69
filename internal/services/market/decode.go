package market

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	vortex_go "github.com/thehyperflames/valiant_go/generated/valiant"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/domain"
)

const discriminatorLen = 8

var (
	ErrUnexpectedOwner     = errors.New("account owner mismatch")
	ErrNotPoolAccount      = errors.New("account is not a pool")
	ErrNotTickArrayAccount = errors.New("account is not a tick array")
	ErrAccountDataTooShort = errors.New("account data too short")
)

// DecodePool decodes a Vortex pool account owned by programID.
func DecodePool(address, owner solana.PublicKey, data []byte, programID solana.PublicKey, slot uint64) (*domain.Pool, error) {
	if !owner.Equals(programID) {
		return nil, fmt.Errorf("%w: %s owned by %s", ErrUnexpectedOwner, address, owner)
	}
	if len(data) < discriminatorLen {
		return nil, ErrAccountDataTooShort
	}
	if !bytes.Equal(data[:discriminatorLen], vortex_go.VortexAccountDiscriminator[:]) {
		return nil, ErrNotPoolAccount
	}

	var account vortex_go.VortexAccount
	if err := bin.NewBinDecoder(data[discriminatorLen:]).Decode(&account); err != nil {
		return nil, fmt.Errorf("decode pool %s: %w", address, err)
	}
	return domain.NewPoolFromAccount(address, programID, &account, slot), nil
}

// DecodeTickArray decodes a tick array account owned by programID.
func DecodeTickArray(address, owner solana.PublicKey, data []byte, programID solana.PublicKey) (*vortex_go.TickArrayAccount, error) {
	if !owner.Equals(programID) {
		return nil, fmt.Errorf("%w: %s owned by %s", ErrUnexpectedOwner, address, owner)
	}
	if len(data) < discriminatorLen {
		return nil, ErrAccountDataTooShort
	}
	if !bytes.Equal(data[:discriminatorLen], vortex_go.TickArrayAccountDiscriminator[:]) {
		return nil, fmt.Errorf("%w: %s", ErrNotTickArrayAccount, address)
	}

	var tickArray vortex_go.TickArrayAccount
	if err := bin.NewBinDecoder(data[discriminatorLen:]).Decode(&tickArray); err != nil {
		return nil, fmt.Errorf("decode tick array %s: %w", address, err)
	}
	return &tickArray, nil
}

func isTokenProgram(owner solana.PublicKey) bool {
	return owner.Equals(common.TokenProgramID) || owner.Equals(common.Token2022ID)
}

// DecodeMint decodes an SPL or Token-2022 mint. Token-2022 extensions after
// the base layout are ignored.
func DecodeMint(address, owner solana.PublicKey, data []byte) (*domain.MintInfo, error) {
	if !isTokenProgram(owner) {
		return nil, fmt.Errorf("%w: mint %s owned by %s", ErrUnexpectedOwner, address, owner)
	}

	var mint token.Mint
	if err := bin.NewBinDecoder(data).Decode(&mint); err != nil {
		return nil, fmt.Errorf("decode mint %s: %w", address, err)
	}

	return &domain.MintInfo{
		Mint:            address,
		TokenProgram:    owner,
		Decimals:        mint.Decimals,
		Supply:          mint.Supply,
		MintAuthority:   mint.MintAuthority,
		FreezeAuthority: mint.FreezeAuthority,
		IsInitialized:   mint.IsInitialized,
	}, nil
}

// DecodeTokenAccount decodes an SPL or Token-2022 token account.
func DecodeTokenAccount(address, owner solana.PublicKey, data []byte) (*domain.TokenAccountInfo, error) {
	if !isTokenProgram(owner) {
		return nil, fmt.Errorf("%w: token account %s owned by %s", ErrUnexpectedOwner, address, owner)
	}

	var account token.Account
	if err := bin.NewBinDecoder(data).Decode(&account); err != nil {
		return nil, fmt.Errorf("decode token account %s: %w", address, err)
	}

	return &domain.TokenAccountInfo{
		Address:         address,
		Mint:            account.Mint,
		Owner:           account.Owner,
		Amount:          account.Amount,
		Delegate:        account.Delegate,
		DelegatedAmount: account.DelegatedAmount,
		IsNative:        account.IsNative != nil,
	}, nil
}
