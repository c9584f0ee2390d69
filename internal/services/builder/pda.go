package builder

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/gagliardetto/solana-go"
	valiant "github.com/thehyperflames/valiant_go"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/metrics"
)

// TickArraysPerSwap is the number of tick arrays a single swap may cross.
const TickArraysPerSwap = 3

// OrderMints returns the two mints in canonical pool order (byte-wise
// ascending). The first result is token A of any pool holding the pair.
func OrderMints(x, y solana.PublicKey) (solana.PublicKey, solana.PublicKey) {
	if bytes.Compare(x[:], y[:]) <= 0 {
		return x, y
	}
	return y, x
}

// DerivePoolAddress derives the pool PDA for an ordered mint pair and tick
// spacing.
func DerivePoolAddress(programID, poolsConfig, mintA, mintB solana.PublicKey, tickSpacing uint16) (solana.PublicKey, uint8, error) {
	spacing := make([]byte, 2)
	binary.LittleEndian.PutUint16(spacing, tickSpacing)

	return solana.FindProgramAddress(
		[][]byte{
			[]byte(common.PoolSeed),
			poolsConfig[:],
			mintA[:],
			mintB[:],
			spacing,
		},
		programID,
	)
}

// TicksPerArray is the number of initializable ticks held by one tick array.
const TicksPerArray = 88

// StartTickIndex returns the first tick of the array holding tickIndex.
func StartTickIndex(tickIndex int32, tickSpacing uint16) int32 {
	if tickSpacing == 0 {
		return tickIndex
	}
	span := int64(tickSpacing) * TicksPerArray
	start := int64(tickIndex) / span
	if int64(tickIndex)%span < 0 {
		start--
	}
	return int32(start * span)
}

// tickArrayCacheKey identifies the tick arrays of a swap. Ticks in the same
// array share a key. A b to a swap may start in the next array once the
// current tick is within one spacing of it, so that start is keyed too.
type tickArrayCacheKey struct {
	program      solana.PublicKey
	pool         solana.PublicKey
	startTick    int32
	shiftedStart int32
	tickSpacing  uint16
	aToB         bool
}

var (
	tickArrayPDACache   = make(map[tickArrayCacheKey][]solana.PublicKey)
	tickArrayPDACacheMu sync.RWMutex
)

// TickArrayAddressesForSwap returns cached tick array PDAs or computes and
// caches them. The result must not be modified.
func TickArrayAddressesForSwap(programID, pool solana.PublicKey, tickIndex int32, tickSpacing uint16, aToB bool) ([]solana.PublicKey, error) {
	key := tickArrayCacheKey{
		program:     programID,
		pool:        pool,
		startTick:   StartTickIndex(tickIndex, tickSpacing),
		tickSpacing: tickSpacing,
		aToB:        aToB,
	}
	if !aToB {
		key.shiftedStart = StartTickIndex(tickIndex+int32(tickSpacing), tickSpacing)
	}

	tickArrayPDACacheMu.RLock()
	if cached, ok := tickArrayPDACache[key]; ok {
		tickArrayPDACacheMu.RUnlock()
		return cached, nil
	}
	tickArrayPDACacheMu.RUnlock()

	pdas, err := valiant.GetTickArrayPDAsForSwap(
		programID,
		pool,
		tickIndex,
		tickSpacing,
		aToB,
		TickArraysPerSwap,
	)
	if err != nil {
		return nil, err
	}

	tickArrayPDACacheMu.Lock()
	tickArrayPDACache[key] = pdas
	size := len(tickArrayPDACache)
	tickArrayPDACacheMu.Unlock()

	metrics.TickArrayPDACacheSize.Set(float64(size))
	return pdas, nil
}

type ataKey struct {
	Wallet       solana.PublicKey
	Mint         solana.PublicKey
	TokenProgram solana.PublicKey
}

var (
	ataCache   = make(map[ataKey]solana.PublicKey)
	ataCacheMu sync.RWMutex
)

func GetATAAddressForMint(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	key := ataKey{Wallet: wallet, Mint: mint, TokenProgram: tokenProgram}

	ataCacheMu.RLock()
	if cached, ok := ataCache[key]; ok {
		ataCacheMu.RUnlock()
		return cached, nil
	}
	ataCacheMu.RUnlock()

	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			wallet[:],
			tokenProgram[:],
			mint[:],
		},
		common.ATAProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, err
	}

	ataCacheMu.Lock()
	ataCache[key] = ata
	ataCacheMu.Unlock()

	return ata, nil
}

// CreateATAInstructionForMint creates an idempotent ATA creation instruction.
func CreateATAInstructionForMint(payer, owner, mint, tokenProgram solana.PublicKey) (solana.Instruction, error) {
	ata, err := GetATAAddressForMint(owner, mint, tokenProgram)
	if err != nil {
		return nil, err
	}
	return &createATAInstruction{
		payer:        payer,
		ata:          ata,
		owner:        owner,
		mint:         mint,
		tokenProgram: tokenProgram,
	}, nil
}

type createATAInstruction struct {
	payer        solana.PublicKey
	ata          solana.PublicKey
	owner        solana.PublicKey
	mint         solana.PublicKey
	tokenProgram solana.PublicKey
}

func (i *createATAInstruction) ProgramID() solana.PublicKey {
	return common.ATAProgramID
}

func (i *createATAInstruction) Accounts() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		{PublicKey: i.payer, IsSigner: true, IsWritable: true},
		{PublicKey: i.ata, IsSigner: false, IsWritable: true},
		{PublicKey: i.owner, IsSigner: false, IsWritable: false},
		{PublicKey: i.mint, IsSigner: false, IsWritable: false},
		{PublicKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: i.tokenProgram, IsSigner: false, IsWritable: false},
	}
}

// Data is the CreateIdempotent discriminator.
func (i *createATAInstruction) Data() ([]byte, error) {
	return []byte{1}, nil
}
