package state

import (
	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
)

// accountEntry is a layer's record for one address: either a materialized
// account, or a tombstone (deleted=true) recording that a lower layer's or
// the backing store's account must be treated as absent.
type accountEntry struct {
	account *types.Account
	deleted bool
}

// layer is one element of a StateDB's checkpoint stack: an account diff
// plus a per-address storage diff, and the set of addresses whose storage
// was cleared at this layer (account creation/self-destruction), which
// bounds how far a storage read descends past this layer.
type layer struct {
	accounts       map[common.Address]*accountEntry
	storage        map[common.Address]map[common.Hash]common.Hash
	clearedStorage map[common.Address]bool
}

func newLayer() *layer {
	return &layer{
		accounts:       make(map[common.Address]*accountEntry),
		storage:        make(map[common.Address]map[common.Hash]common.Hash),
		clearedStorage: make(map[common.Address]bool),
	}
}

// clone returns a deep copy of l, used when a snapshot of the layer stack
// must outlive further mutation of the live stack.
func (l *layer) clone() *layer {
	cp := newLayer()
	for addr, e := range l.accounts {
		entry := *e
		if e.account != nil {
			acc := e.account.Copy()
			entry.account = &acc
		}
		cp.accounts[addr] = &entry
	}
	for addr, slots := range l.storage {
		m := make(map[common.Hash]common.Hash, len(slots))
		for k, v := range slots {
			m[k] = v
		}
		cp.storage[addr] = m
	}
	for addr, cleared := range l.clearedStorage {
		cp.clearedStorage[addr] = cleared
	}
	return cp
}

func (l *layer) setStorage(addr common.Address, slot, value common.Hash) {
	m, ok := l.storage[addr]
	if !ok {
		m = make(map[common.Hash]common.Hash)
		l.storage[addr] = m
	}
	m[slot] = value
}

func cloneLayers(layers []*layer) []*layer {
	out := make([]*layer, len(layers))
	for i, l := range layers {
		out[i] = l.clone()
	}
	return out
}
