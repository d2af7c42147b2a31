package state

import (
	"sync"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/crypto"
)

// ContractStorage is a reference-counted code_hash -> bytecode map, shared
// across every layer and snapshot of a StateDB so that N accounts sharing
// identical code (a common pattern for proxy/clone contracts) store it
// once. An entry is evicted once its reference count returns to zero; the
// empty-code hash is never evicted.
type ContractStorage struct {
	mu    sync.RWMutex
	codes map[common.Hash]*codeEntry
}

type codeEntry struct {
	code []byte
	refs int
}

// NewContractStorage returns an empty contract-code store.
func NewContractStorage() *ContractStorage {
	return &ContractStorage{codes: make(map[common.Hash]*codeEntry)}
}

// Insert registers code, incrementing its reference count (creating the
// entry with one reference if this is the first caller to register it),
// and returns its code hash.
func (cs *ContractStorage) Insert(code []byte) common.Hash {
	hash := crypto.Keccak256Hash(code)
	if hash == crypto.EmptyCodeHash {
		return hash
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if e, ok := cs.codes[hash]; ok {
		e.refs++
		return hash
	}
	cs.codes[hash] = &codeEntry{code: append([]byte(nil), code...), refs: 1}
	return hash
}

// AddRef increments hash's reference count without touching its bytes
// (used when an account diff copies a code hash from another account
// without re-supplying the code, e.g. a plain balance transfer).
func (cs *ContractStorage) AddRef(hash common.Hash) {
	if hash == crypto.EmptyCodeHash {
		return
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if e, ok := cs.codes[hash]; ok {
		e.refs++
	}
}

// RemoveRef decrements hash's reference count, evicting the entry once it
// reaches zero.
func (cs *ContractStorage) RemoveRef(hash common.Hash) {
	if hash == crypto.EmptyCodeHash {
		return
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	e, ok := cs.codes[hash]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(cs.codes, hash)
	}
}

// Code returns the bytecode registered under hash. The empty-code hash
// always succeeds, returning nil; any other unregistered hash fails with
// ErrUnknownCodeHash.
func (cs *ContractStorage) Code(hash common.Hash) ([]byte, error) {
	if hash == crypto.EmptyCodeHash {
		return nil, nil
	}
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	e, ok := cs.codes[hash]
	if !ok {
		return nil, ErrUnknownCodeHash
	}
	return e.code, nil
}
