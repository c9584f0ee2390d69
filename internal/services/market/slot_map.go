package market

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

const numShards = 16

// ShardedSlotMap tracks the last applied slot per account, sharded to reduce
// lock contention between stream callbacks.
type ShardedSlotMap struct {
	shards [numShards]slotShard
}

type slotShard struct {
	mu    sync.Mutex
	slots map[solana.PublicKey]uint64
}

func NewShardedSlotMap() *ShardedSlotMap {
	m := &ShardedSlotMap{}
	for i := 0; i < numShards; i++ {
		m.shards[i].slots = make(map[solana.PublicKey]uint64)
	}
	return m
}

func (m *ShardedSlotMap) getShard(key solana.PublicKey) *slotShard {
	return &m.shards[key[0]%numShards]
}

// Advance records slot for key and reports whether it is not older than the
// last recorded one.
func (m *ShardedSlotMap) Advance(key solana.PublicKey, slot uint64) bool {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if last, ok := shard.slots[key]; ok && slot < last {
		return false
	}
	shard.slots[key] = slot
	return true
}

func (m *ShardedSlotMap) Get(key solana.PublicKey) (uint64, bool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	slot, ok := shard.slots[key]
	shard.mu.Unlock()
	return slot, ok
}

func (m *ShardedSlotMap) Delete(key solana.PublicKey) {
	shard := m.getShard(key)
	shard.mu.Lock()
	delete(shard.slots, key)
	shard.mu.Unlock()
}

// Len returns total count across all shards
func (m *ShardedSlotMap) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.Lock()
		total += len(m.shards[i].slots)
		m.shards[i].mu.Unlock()
	}
	return total
}
