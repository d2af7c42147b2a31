package state

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ethdevnode/edr/common"
)

// IrregularEntry records an out-of-band mutation applied to a historical
// block: the state root it produces, plus the diff that produced it (so
// SetBlockContext callers can explain, or replay, the override).
type IrregularEntry struct {
	StateRoot common.Hash
	Diff      *Diff
}

// IrregularState is a side-band block_number -> override map, used for
// requests like hardhat_setStorageAt against a historical block that has
// already been mined and whose header must not be touched.
type IrregularState struct {
	mu           sync.RWMutex
	entries      map[uint64]*IrregularEntry
	blockNumbers mapset.Set[uint64]
}

// NewIrregularState returns an empty override map.
func NewIrregularState() *IrregularState {
	return &IrregularState{
		entries:      make(map[uint64]*IrregularEntry),
		blockNumbers: mapset.NewThreadUnsafeSet[uint64](),
	}
}

// Set records blockNumber's override, replacing any prior one.
func (s *IrregularState) Set(blockNumber uint64, entry *IrregularEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[blockNumber] = entry
	s.blockNumbers.Add(blockNumber)
}

// Get returns blockNumber's override, if any.
func (s *IrregularState) Get(blockNumber uint64) (*IrregularEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[blockNumber]
	return e, ok
}

// Has reports whether blockNumber has a recorded override, without paying
// for a map lookup on every set_block_context call.
func (s *IrregularState) Has(blockNumber uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blockNumbers.Contains(blockNumber)
}

// Remove discards blockNumber's override, if any.
func (s *IrregularState) Remove(blockNumber uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, blockNumber)
	s.blockNumbers.Remove(blockNumber)
}
