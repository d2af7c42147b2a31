package state

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/VictoriaMetrics/fastcache"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/crypto"
	"github.com/ethdevnode/edr/trie"
)

// ErrNoActiveCheckpoint is returned by Revert when the checkpoint stack is
// already empty.
var ErrNoActiveCheckpoint = errors.New("state: no active checkpoint to revert")

// ErrUnknownSnapshot is returned by SetBlockContext for a root that was
// never produced by MakeSnapshot (or was already removed).
var ErrUnknownSnapshot = errors.New("state: unknown state root snapshot")

// StateDB is the layered world-state engine described in the package doc:
// a stack of account/storage overlay layers above a Backing store (empty
// for a local chain, a CachedRemoteState for a forked one), with
// checkpoint/revert for per-call reversion and root-hash snapshotting for
// block-context switches.
type StateDB struct {
	backing   Backing
	layers    []*layer
	contracts *ContractStorage
	cache     *fastcache.Cache // shared trie node-encoding cache

	snapshots map[common.Hash][]*layer
}

// New returns a StateDB with no accounts, backed by backing (use
// NewLocalBacking() for a fresh, non-forked chain) and sharing contracts
// for code storage. cache may be nil, in which case each StateRoot call
// re-encodes every touched node (correct, just slower for large states).
func New(backing Backing, contracts *ContractStorage, cache *fastcache.Cache) *StateDB {
	if backing == nil {
		backing = NewLocalBacking()
	}
	return &StateDB{
		backing:   backing,
		contracts: contracts,
		cache:     cache,
		snapshots: make(map[common.Hash][]*layer),
	}
}

// Basic returns addr's account, or nil if it has never been touched.
// Never fails for a present or absent account.
func (s *StateDB) Basic(ctx context.Context, addr common.Address) (*types.Account, error) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if e, ok := s.layers[i].accounts[addr]; ok {
			if e.deleted {
				return nil, nil
			}
			acc := e.account.Copy()
			return &acc, nil
		}
	}
	return s.backing.Basic(ctx, addr)
}

// Storage returns the value stored at addr's slot index, or the zero hash
// for an absent slot. Never fails.
func (s *StateDB) Storage(ctx context.Context, addr common.Address, index common.Hash) (common.Hash, error) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		l := s.layers[i]
		if m, ok := l.storage[addr]; ok {
			if v, ok := m[index]; ok {
				return v, nil
			}
		}
		if l.clearedStorage[addr] {
			return common.Hash{}, nil
		}
	}
	return s.backing.Storage(ctx, addr, index)
}

// CodeByHash returns the bytecode registered under hash, failing with
// ErrUnknownCodeHash unless hash is the empty-code hash or was previously
// registered (by InsertAccount/ModifyAccount locally, or by Basic on a
// forked backing).
func (s *StateDB) CodeByHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	if code, err := s.contracts.Code(hash); err == nil {
		return code, nil
	}
	return s.backing.CodeByHash(ctx, hash)
}

func (s *StateDB) topLayer() *layer {
	if len(s.layers) == 0 {
		s.layers = append(s.layers, newLayer())
	}
	return s.layers[len(s.layers)-1]
}

// InsertAccount overwrites any existing account at addr. It records only
// the account fields (an Account carries a code hash, not code) and
// registers nothing with the ContractStorage: code for a non-empty
// CodeHash must already be there (e.g. via ModifyAccount or Commit).
func (s *StateDB) InsertAccount(addr common.Address, account types.Account) {
	l := s.topLayer()
	acc := account.Copy()
	l.accounts[addr] = &accountEntry{account: &acc}
}

// AccountMutator mutates an account in place; code, if non-nil on return,
// replaces the account's code (and is registered in the contract store by
// ModifyAccount).
type AccountMutator func(account *types.Account, code *[]byte)

// ModifyAccount atomically applies fn to addr's account, materializing it
// via defaultFn first if absent.
func (s *StateDB) ModifyAccount(ctx context.Context, addr common.Address, fn AccountMutator, defaultFn func() types.Account) error {
	current, err := s.Basic(ctx, addr)
	if err != nil {
		return err
	}
	var account types.Account
	if current != nil {
		account = *current
	} else if defaultFn != nil {
		account = defaultFn()
	} else {
		account = types.EmptyAccount()
	}

	var code []byte
	fn(&account, &code)

	if code != nil {
		if current != nil && current.CodeHash != crypto.EmptyCodeHash {
			s.contracts.RemoveRef(current.CodeHash)
		}
		account.CodeHash = s.contracts.Insert(code)
	}

	s.topLayer().accounts[addr] = &accountEntry{account: &account}
	return nil
}

// SetAccountStorageSlot writes value at addr's slot index, creating the
// slot on a non-zero write and logically deleting it (reads as zero) on a
// zero write.
func (s *StateDB) SetAccountStorageSlot(addr common.Address, index, value common.Hash) {
	s.topLayer().setStorage(addr, index, value)
}

// Commit applies diff atomically to the active layer: self-destructed
// accounts are deleted and their storage cleared; created accounts have
// their prior storage cleared before the diff's own slots are written.
func (s *StateDB) Commit(diff *Diff) {
	l := s.topLayer()
	for addr, change := range diff.Accounts {
		if change.SelfDestructed {
			l.accounts[addr] = &accountEntry{deleted: true}
			l.clearedStorage[addr] = true
			delete(l.storage, addr)
			if change.Account.CodeHash != (common.Hash{}) && change.Account.CodeHash != crypto.EmptyCodeHash {
				s.contracts.RemoveRef(change.Account.CodeHash)
			}
			continue
		}

		account := change.Account
		if change.Code != nil {
			account.CodeHash = s.contracts.Insert(change.Code)
		}
		acc := account
		l.accounts[addr] = &accountEntry{account: &acc}

		if change.Created {
			l.clearedStorage[addr] = true
			delete(l.storage, addr)
		}
		for slot, value := range change.Storage {
			l.setStorage(addr, slot, value)
		}
	}
}

// Checkpoint pushes a new overlay layer; mutations after this point are
// discarded in full by a matching Revert.
func (s *StateDB) Checkpoint() {
	s.layers = append(s.layers, newLayer())
}

// Revert pops the most recent layer, discarding every mutation recorded
// since the matching Checkpoint.
func (s *StateDB) Revert() error {
	if len(s.layers) == 0 {
		return ErrNoActiveCheckpoint
	}
	s.layers = s.layers[:len(s.layers)-1]
	return nil
}

// flattenedAccounts returns, for every address any layer touched, the most
// recent entry recorded for it across the layers.
func (s *StateDB) flattenedAccounts() map[common.Address]*accountEntry {
	out := make(map[common.Address]*accountEntry)
	for _, l := range s.layers {
		for addr, e := range l.accounts {
			out[addr] = e
		}
	}
	return out
}

// flattenedStorage returns addr's overlay-only slot values (backing-store
// slots are not enumerable and so are never reflected in the state root
// for accounts whose storage was never locally touched).
func (s *StateDB) flattenedStorage(addr common.Address) map[common.Hash]common.Hash {
	out := make(map[common.Hash]common.Hash)
	for _, l := range s.layers {
		if l.clearedStorage[addr] {
			for k := range out {
				delete(out, k)
			}
		}
		for slot, value := range l.storage[addr] {
			out[slot] = value
		}
	}
	return out
}

// StateRoot recomputes the account trie (and each touched account's
// storage trie) from every layer's overlay and returns the account trie's
// root hash. Only accounts/slots touched by a local layer are reflected:
// for a non-forked chain this is the complete state; for a forked chain
// this is a simplification (see DESIGN.md) rather than a full merge with
// the remote trie, which this engine never materializes locally.
func (s *StateDB) StateRoot() (common.Hash, error) {
	accounts := s.flattenedAccounts()
	if len(accounts) == 0 {
		return crypto.EmptyRootHash, nil
	}

	accountTrie := trie.New(s.cache)
	for addr, entry := range accounts {
		if entry.deleted {
			continue
		}
		storageRoot, err := s.accountStorageRoot(addr)
		if err != nil {
			return common.Hash{}, err
		}
		val, err := entry.account.TrieValue(storageRoot)
		if err != nil {
			return common.Hash{}, fmt.Errorf("state: encoding account %s: %w", addr, err)
		}
		accountTrie.Put(crypto.Keccak256(addr.Bytes()), val)
	}
	return accountTrie.Hash(), nil
}

func (s *StateDB) accountStorageRoot(addr common.Address) (common.Hash, error) {
	slots := s.flattenedStorage(addr)
	if len(slots) == 0 {
		return crypto.EmptyRootHash, nil
	}
	storageTrie := trie.New(s.cache)
	for slot, value := range slots {
		if value == (common.Hash{}) {
			continue
		}
		enc, err := types.EncodeStorageValue(value)
		if err != nil {
			return common.Hash{}, err
		}
		storageTrie.Put(crypto.Keccak256(slot.Bytes()), enc)
	}
	return storageTrie.Hash(), nil
}

// MakeSnapshot recomputes the current state root and stashes a copy of the
// live layer stack under it, returning the root. Snapshots may later be
// restored by SetBlockContext.
func (s *StateDB) MakeSnapshot() (common.Hash, error) {
	root, err := s.StateRoot()
	if err != nil {
		return common.Hash{}, err
	}
	s.snapshots[root] = cloneLayers(s.layers)
	return root, nil
}

// SetBlockContext restores the layer stack previously captured under root
// by MakeSnapshot. Overlaying a historical block's IrregularState entry,
// if any, is the caller's responsibility (see IrregularState.Get) — this
// method only restores the snapshot itself.
func (s *StateDB) SetBlockContext(root common.Hash) error {
	layers, ok := s.snapshots[root]
	if !ok {
		return ErrUnknownSnapshot
	}
	s.layers = cloneLayers(layers)
	return nil
}

// RemoveSnapshot discards the stashed layer stack for root, if any.
func (s *StateDB) RemoveSnapshot(root common.Hash) {
	delete(s.snapshots, root)
}
