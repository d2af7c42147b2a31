// Package miner implements the block builder and mining loop: assembling
// a partial header from a parent block, executing mempool transactions
// against it under a pluggable ordering policy, and finalizing the result
// into a sealed block ready for insertion into the blockchain store.
//
// Grounded on original_source/crates/edr_evm/src/block/builder.rs and
// edr_evm_napi/src/miner.rs for the BlockBuilder lifecycle and mine_block
// algorithm, and on the teacher's miner package (worker.go's
// commitTransactions loop and the sort-by-effective-tip ordering it uses
// for its own local-mining mode) for how to structure a Go mining loop
// around a mempool snapshot.
package miner

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/core/txpool"
)

// Order selects and orders a subset of the mempool's pending transactions
// for a new block.
type Order interface {
	Select(pending []*txpool.PendingTransaction, baseFee *uint256.Int) []*txpool.PendingTransaction
}

// FIFOOrder selects pending transactions in the order the mempool already
// returns them (insertion order, per-sender nonce-ascending).
type FIFOOrder struct{}

func (FIFOOrder) Select(pending []*txpool.PendingTransaction, _ *uint256.Int) []*txpool.PendingTransaction {
	return pending
}

// PriorityOrder sorts by effective priority fee (min(tip, feeCap-baseFee))
// descending, breaking ties by arrival order (stable sort preserves the
// mempool's own FIFO order within equal-fee groups), while still
// respecting each sender's own nonce order (after the sort, the positions
// a sender occupies are refilled with that sender's transactions in
// ascending nonce order).
type PriorityOrder struct{}

func (PriorityOrder) Select(pending []*txpool.PendingTransaction, baseFee *uint256.Int) []*txpool.PendingTransaction {
	out := make([]*txpool.PendingTransaction, len(pending))
	copy(out, pending)
	sort.SliceStable(out, func(i, j int) bool {
		ti := out[i].Tx.EffectiveGasTip(baseFee)
		tj := out[j].Tx.EffectiveGasTip(baseFee)
		return ti.Cmp(tj) > 0
	})
	slots := make(map[[20]byte][]int)
	for i, ptx := range out {
		slots[[20]byte(ptx.Sender)] = append(slots[[20]byte(ptx.Sender)], i)
	}
	for _, idx := range slots {
		txs := make([]*txpool.PendingTransaction, len(idx))
		for k, i := range idx {
			txs[k] = out[i]
		}
		sort.SliceStable(txs, func(a, b int) bool { return txs[a].Tx.Nonce() < txs[b].Tx.Nonce() })
		for k, i := range idx {
			out[i] = txs[k]
		}
	}
	return out
}
