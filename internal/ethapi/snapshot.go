package ethapi

import (
	"context"
	"sync"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/core/rawdb"
	"github.com/ethdevnode/edr/core/state"
	"github.com/ethdevnode/edr/core/txpool"
)

// SnapshotID is an evm_snapshot handle, the same minimal-hex encoding of a
// monotonic counter internal/filters.ID uses for filters/subscriptions.
type SnapshotID string

type snapshotEntry struct {
	ordinal     uint64
	stateRoot   common.Hash
	blockNumber uint64
}

// Snapshots backs evm_snapshot/evm_revert: each snapshot pairs a
// core/state.StateDB layer-stack capture with the chain's block height at
// that moment, so reverting rewinds both state and the block store
// together. Per testable property #4, reverting never touches the filter/
// subscription registry — those survive a revert.
type Snapshots struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[SnapshotID]snapshotEntry
}

// NewSnapshots returns an empty Snapshots.
func NewSnapshots() *Snapshots {
	return &Snapshots{entries: make(map[SnapshotID]snapshotEntry)}
}

// Take captures the current state root and block height under a new ID
// (evm_snapshot).
func (s *Snapshots) Take(st *state.StateDB, chain rawdb.ChainReader) (SnapshotID, error) {
	root, err := st.MakeSnapshot()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := SnapshotID(hexutil.EncodeUint64(s.nextID))
	s.entries[id] = snapshotEntry{ordinal: s.nextID, stateRoot: root, blockNumber: chain.LastBlockNumber()}
	return id, nil
}

// Revert restores state and block height to what they were when id was
// taken, and invalidates every snapshot taken at or after it — matching
// Hardhat Network's own evm_revert semantics, since a later snapshot's
// captured block height would otherwise point past the chain's new tip.
// Reports whether id was found.
func (s *Snapshots) Revert(ctx context.Context, id SnapshotID, st *state.StateDB, chain rawdb.ChainReader, pool *txpool.Pool) (bool, error) {
	s.mu.Lock()
	entry, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	for other, e := range s.entries {
		if e.ordinal >= entry.ordinal {
			delete(s.entries, other)
		}
	}
	s.mu.Unlock()

	if err := chain.RevertToBlock(entry.blockNumber); err != nil {
		return false, err
	}
	if err := st.SetBlockContext(entry.stateRoot); err != nil {
		return false, err
	}
	st.RemoveSnapshot(entry.stateRoot)
	if err := pool.Update(ctx); err != nil {
		return false, err
	}
	return true, nil
}
