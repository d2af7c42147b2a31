package state

import (
	"context"

	"github.com/cockroachdb/errors"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
)

// ErrConflictingStorageOverride is returned when an AccountOverride sets
// both Storage and StorageDiff, which are mutually exclusive.
var ErrConflictingStorageOverride = errors.New("state: account override cannot set both storage and storageDiff")

// AccountOverride carries a single call's (eth_call / debug_traceCall)
// per-account overrides. Balance and Nonce are applied in place of the
// underlying value when non-nil; Code, if non-nil, replaces the account's
// code; Storage (full replacement) and StorageDiff (incremental) are
// mutually exclusive.
type AccountOverride struct {
	Balance     *uint256.Int
	Nonce       *uint64
	Code        []byte
	Storage     map[common.Hash]common.Hash
	StorageDiff map[common.Hash]common.Hash
}

// StateOverrides is the per-call override set applied transparently by a
// StateRefOverrider.
type StateOverrides struct {
	overrides map[common.Address]*AccountOverride
	touched   mapset.Set[common.Address]
}

// NewStateOverrides returns an empty override set.
func NewStateOverrides() *StateOverrides {
	return &StateOverrides{
		overrides: make(map[common.Address]*AccountOverride),
		touched:   mapset.NewThreadUnsafeSet[common.Address](),
	}
}

// Set records addr's override, rejecting one that sets both Storage and
// StorageDiff.
func (o *StateOverrides) Set(addr common.Address, ov *AccountOverride) error {
	if len(ov.Storage) > 0 && len(ov.StorageDiff) > 0 {
		return ErrConflictingStorageOverride
	}
	o.overrides[addr] = ov
	o.touched.Add(addr)
	return nil
}

// Has reports whether addr carries an override.
func (o *StateOverrides) Has(addr common.Address) bool {
	return o.touched.Contains(addr)
}

// Get returns addr's override, if any.
func (o *StateOverrides) Get(addr common.Address) (*AccountOverride, bool) {
	ov, ok := o.overrides[addr]
	return ov, ok
}

// StateRefOverrider wraps a Backing with a StateOverrides set, applying
// overrides transparently so a single eth_call/debug_traceCall can see a
// world state that never actually existed at any committed block.
type StateRefOverrider struct {
	inner     Backing
	overrides *StateOverrides
	contracts *ContractStorage
}

// NewStateRefOverrider returns a Backing that answers reads from inner
// except where overrides says otherwise. Overridden code is registered in
// contracts so CodeByHash can subsequently serve it.
func NewStateRefOverrider(inner Backing, overrides *StateOverrides, contracts *ContractStorage) *StateRefOverrider {
	return &StateRefOverrider{inner: inner, overrides: overrides, contracts: contracts}
}

func (o *StateRefOverrider) Basic(ctx context.Context, addr common.Address) (*types.Account, error) {
	account, err := o.inner.Basic(ctx, addr)
	if err != nil {
		return nil, err
	}
	ov, ok := o.overrides.Get(addr)
	if !ok {
		return account, nil
	}
	if account == nil {
		empty := types.EmptyAccount()
		account = &empty
	}
	result := account.Copy()
	if ov.Balance != nil {
		result.Balance = new(uint256.Int).Set(ov.Balance)
	}
	if ov.Nonce != nil {
		result.Nonce = *ov.Nonce
	}
	if ov.Code != nil {
		result.CodeHash = o.contracts.Insert(ov.Code)
	}
	return &result, nil
}

func (o *StateRefOverrider) Storage(ctx context.Context, addr common.Address, index common.Hash) (common.Hash, error) {
	ov, ok := o.overrides.Get(addr)
	if !ok {
		return o.inner.Storage(ctx, addr, index)
	}
	if ov.Storage != nil {
		return ov.Storage[index], nil
	}
	base, err := o.inner.Storage(ctx, addr, index)
	if err != nil {
		return common.Hash{}, err
	}
	if v, ok := ov.StorageDiff[index]; ok {
		return v, nil
	}
	return base, nil
}

func (o *StateRefOverrider) CodeByHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	if code, err := o.contracts.Code(hash); err == nil {
		return code, nil
	}
	return o.inner.CodeByHash(ctx, hash)
}
