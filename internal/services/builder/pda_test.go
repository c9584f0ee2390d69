package builder

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/domain"
)

func testKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

func TestOrderMints(t *testing.T) {
	low := testKey(1)
	high := testKey(2)

	tests := []struct {
		name string
		x, y solana.PublicKey
	}{
		{"already ordered", low, high},
		{"reversed", high, low},
		{"quote tokens", common.USDCMint, common.WrappedNativeMint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := OrderMints(tt.x, tt.y)
			if bytes.Compare(a[:], b[:]) > 0 {
				t.Errorf("OrderMints returned %s > %s", a, b)
			}
			a2, b2 := OrderMints(tt.y, tt.x)
			if !a.Equals(a2) || !b.Equals(b2) {
				t.Errorf("OrderMints must not depend on argument order")
			}
		})
	}
}

func TestDerivePoolAddress(t *testing.T) {
	config := testKey(9)
	mintA, mintB := OrderMints(common.USDCMint, common.WrappedNativeMint)

	addr, bump, err := DerivePoolAddress(common.VortexProgramID, config, mintA, mintB, 64)
	if err != nil {
		t.Fatalf("DerivePoolAddress failed: %v", err)
	}

	expected, expectedBump, err := solana.FindProgramAddress(
		[][]byte{[]byte("whirlpool"), config[:], mintA[:], mintB[:], {64, 0}},
		common.VortexProgramID,
	)
	if err != nil {
		t.Fatalf("FindProgramAddress failed: %v", err)
	}
	if !addr.Equals(expected) || bump != expectedBump {
		t.Errorf("DerivePoolAddress = %s/%d, want %s/%d", addr, bump, expected, expectedBump)
	}

	other, _, err := DerivePoolAddress(common.VortexProgramID, config, mintA, mintB, 128)
	if err != nil {
		t.Fatalf("DerivePoolAddress failed: %v", err)
	}
	if addr.Equals(other) {
		t.Error("tick spacing must be part of the seeds")
	}

	d := NewDeriver(common.VortexProgramID, config)
	viaDeriver, err := d.PoolAddress(mintA, mintB, 64)
	if err != nil {
		t.Fatalf("Deriver.PoolAddress failed: %v", err)
	}
	if !viaDeriver.Equals(addr) {
		t.Errorf("Deriver.PoolAddress = %s, want %s", viaDeriver, addr)
	}
}

func TestTickArrayAddressesForSwapCached(t *testing.T) {
	pool := &domain.Pool{Address: testKey(7), TickCurrentIndex: -12345, TickSpacing: 64}
	d := NewDeriver(common.VortexProgramID, testKey(9))

	first, err := d.TickArrayAddresses(pool, true)
	if err != nil {
		t.Fatalf("TickArrayAddresses failed: %v", err)
	}
	if len(first) == 0 || len(first) > TickArraysPerSwap {
		t.Fatalf("got %d tick arrays", len(first))
	}

	second, err := d.TickArrayAddresses(pool, true)
	if err != nil {
		t.Fatalf("TickArrayAddresses failed: %v", err)
	}
	if &first[0] != &second[0] {
		t.Error("expected the cached slice on the second call")
	}
}

func tickArrayPDACacheLen() int {
	tickArrayPDACacheMu.RLock()
	defer tickArrayPDACacheMu.RUnlock()
	return len(tickArrayPDACache)
}

func TestStartTickIndex(t *testing.T) {
	tests := []struct {
		tick        int32
		tickSpacing uint16
		want        int32
	}{
		{0, 64, 0},
		{5631, 64, 0},
		{5632, 64, 5632},
		{-1, 64, -5632},
		{-5632, 64, -5632},
		{-5633, 64, -11264},
		{-12345, 1, -12408},
		{7, 0, 7},
	}
	for _, tt := range tests {
		if got := StartTickIndex(tt.tick, tt.tickSpacing); got != tt.want {
			t.Errorf("StartTickIndex(%d, %d) = %d, want %d", tt.tick, tt.tickSpacing, got, tt.want)
		}
	}
}

func TestTickArrayAddressesForSwapSharesArrayEntry(t *testing.T) {
	pool := testKey(8)

	first, err := TickArrayAddressesForSwap(common.VortexProgramID, pool, 100, 64, true)
	if err != nil {
		t.Fatalf("TickArrayAddressesForSwap failed: %v", err)
	}
	size := tickArrayPDACacheLen()

	second, err := TickArrayAddressesForSwap(common.VortexProgramID, pool, 4000, 64, true)
	if err != nil {
		t.Fatalf("TickArrayAddressesForSwap failed: %v", err)
	}
	if got := tickArrayPDACacheLen(); got != size {
		t.Errorf("ticks in one array must share a cache entry, size %d -> %d", size, got)
	}
	if &first[0] != &second[0] {
		t.Error("expected the cached slice for a tick in the same array")
	}

	if _, err := TickArrayAddressesForSwap(common.VortexProgramID, pool, -1, 64, true); err != nil {
		t.Fatalf("TickArrayAddressesForSwap failed: %v", err)
	}
	if got := tickArrayPDACacheLen(); got != size+1 {
		t.Errorf("a tick in the previous array needs its own entry, size %d -> %d", size, got)
	}
}

func TestGetATAAddressForMint(t *testing.T) {
	wallet := testKey(11)

	ata, err := GetATAAddressForMint(wallet, common.USDCMint, common.TokenProgramID)
	if err != nil {
		t.Fatalf("GetATAAddressForMint failed: %v", err)
	}
	expected, _, err := solana.FindAssociatedTokenAddress(wallet, common.USDCMint)
	if err != nil {
		t.Fatalf("FindAssociatedTokenAddress failed: %v", err)
	}
	if !ata.Equals(expected) {
		t.Errorf("ATA = %s, want %s", ata, expected)
	}

	ata2022, err := GetATAAddressForMint(wallet, common.USDCMint, common.Token2022ID)
	if err != nil {
		t.Fatalf("GetATAAddressForMint failed: %v", err)
	}
	if ata2022.Equals(ata) {
		t.Error("token program must be part of the seeds")
	}
}

type fakeAccountLister struct {
	mints    map[solana.PublicKey]*domain.MintInfo
	accounts map[solana.PublicKey]*domain.TokenAccountInfo
	err      error
}

func (f *fakeAccountLister) ListMintInfos(_ context.Context, mints []solana.PublicKey, _ bool) (map[solana.PublicKey]*domain.MintInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[solana.PublicKey]*domain.MintInfo, len(mints))
	for _, m := range mints {
		out[m] = f.mints[m]
	}
	return out, nil
}

func (f *fakeAccountLister) ListTokenInfos(_ context.Context, accounts []solana.PublicKey, _ bool) (map[solana.PublicKey]*domain.TokenAccountInfo, error) {
	out := make(map[solana.PublicKey]*domain.TokenAccountInfo, len(accounts))
	for _, a := range accounts {
		out[a] = f.accounts[a]
	}
	return out, nil
}

func TestResolveOrCreateATAs(t *testing.T) {
	owner := testKey(20)
	payer := testKey(21)
	mintX := testKey(30)
	mintY := testKey(31)

	existing, err := GetATAAddressForMint(owner, mintX, common.TokenProgramID)
	if err != nil {
		t.Fatalf("GetATAAddressForMint failed: %v", err)
	}

	lister := &fakeAccountLister{
		mints: map[solana.PublicKey]*domain.MintInfo{
			mintX: {Mint: mintX, TokenProgram: common.TokenProgramID, Decimals: 6},
			mintY: {Mint: mintY, TokenProgram: common.Token2022ID, Decimals: 9},
		},
		accounts: map[solana.PublicKey]*domain.TokenAccountInfo{
			existing: {Address: existing, Mint: mintX, Owner: owner},
		},
	}

	resolved, err := ResolveOrCreateATAs(context.Background(), lister, owner, payer, []solana.PublicKey{mintX, mintY})
	if err != nil {
		t.Fatalf("ResolveOrCreateATAs failed: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resolved))
	}

	if !resolved[0].Exists || resolved[0].Instruction != nil {
		t.Errorf("existing ATA must not get an instruction: %+v", resolved[0])
	}
	if !resolved[0].Address.Equals(existing) {
		t.Errorf("address = %s, want %s", resolved[0].Address, existing)
	}

	if resolved[1].Exists || resolved[1].Instruction == nil {
		t.Fatalf("missing ATA must get an instruction: %+v", resolved[1])
	}
	if !resolved[1].TokenProgram.Equals(common.Token2022ID) {
		t.Errorf("token program = %s, want Token-2022", resolved[1].TokenProgram)
	}

	ix := resolved[1].Instruction
	if !ix.ProgramID().Equals(common.ATAProgramID) {
		t.Errorf("program = %s", ix.ProgramID())
	}
	data, err := ix.Data()
	if err != nil || len(data) != 1 || data[0] != 1 {
		t.Errorf("expected idempotent create data [1], got %v (%v)", data, err)
	}
	accounts := ix.Accounts()
	if !accounts[0].PublicKey.Equals(payer) || !accounts[0].IsSigner {
		t.Error("payer must be the first signer")
	}
	if !accounts[1].PublicKey.Equals(resolved[1].Address) {
		t.Error("second account must be the ATA")
	}
}

func TestResolveOrCreateATAsErrors(t *testing.T) {
	owner := testKey(20)

	t.Run("unknown mint", func(t *testing.T) {
		lister := &fakeAccountLister{}
		_, err := ResolveOrCreateATAs(context.Background(), lister, owner, owner, []solana.PublicKey{testKey(40)})
		if !errors.Is(err, ErrMintNotFound) || !errors.Is(err, common.ErrInvalidInput) {
			t.Errorf("expected ErrMintNotFound, got %v", err)
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		lister := &fakeAccountLister{err: errors.New("timeout")}
		_, err := ResolveOrCreateATAs(context.Background(), lister, owner, owner, []solana.PublicKey{testKey(40)})
		if !errors.Is(err, common.ErrUpstreamFailure) {
			t.Errorf("expected ErrUpstreamFailure, got %v", err)
		}
	})

	t.Run("no mints", func(t *testing.T) {
		resolved, err := ResolveOrCreateATAs(context.Background(), &fakeAccountLister{}, owner, owner, nil)
		if err != nil || resolved == nil || len(resolved) != 0 {
			t.Errorf("expected empty result, got %v, %v", resolved, err)
		}
	})
}
