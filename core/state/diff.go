package state

import (
	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
)

// AccountChange is one address's worth of an execution diff: the account's
// post-execution fields (if it still exists), its touched storage slots,
// and the status flags that tell Commit how to fold it into the active
// layer.
type AccountChange struct {
	Account        types.Account
	Storage        map[common.Hash]common.Hash
	Code           []byte // non-nil when the account's code changed this diff
	SelfDestructed bool   // account must be deleted, storage cleared
	Created        bool   // account is newly created; prior storage (if any) is cleared first
}

// Diff is an execution result's world-state delta: the set of accounts an
// EVM call touched, keyed by address. Commit applies a Diff atomically.
type Diff struct {
	Accounts map[common.Address]*AccountChange
}

// NewDiff returns an empty Diff ready for population by an executor.
func NewDiff() *Diff {
	return &Diff{Accounts: make(map[common.Address]*AccountChange)}
}

// Touch returns the AccountChange for addr, creating an empty one on first
// access so callers can mutate it in place.
func (d *Diff) Touch(addr common.Address) *AccountChange {
	if c, ok := d.Accounts[addr]; ok {
		return c
	}
	c := &AccountChange{Storage: make(map[common.Hash]common.Hash)}
	d.Accounts[addr] = c
	return c
}
