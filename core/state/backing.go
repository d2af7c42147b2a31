// Package state implements the layered world-state engine: a stack of
// copy-on-write account/storage diffs over a backing store, with
// checkpoint/revert, root-hash snapshotting, and an optional remote
// (forked) backing store that lazily hydrates from a JSON-RPC endpoint.
//
// Grounded on the teacher's core/state test files (statedb_test.go,
// journal_test.go) for naming conventions, and on
// original_source/crates/edr_evm/src/state/* for the layered/diff model
// this package actually implements (distinct from the teacher's own
// journal-and-trie-database design, which this module does not carry
// over).
package state

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/crypto"
)

// ErrUnknownCodeHash is returned by CodeByHash for any hash this state
// does not know about (anything other than the empty-code hash that
// wasn't previously registered via InsertAccount/ModifyAccount/CachedRemoteState.Basic).
var ErrUnknownCodeHash = errors.New("state: unknown code hash")

// Backing is the read-only store consulted once every overlay layer has
// missed: either an empty local backing (fresh chain) or a CachedRemoteState
// proxying to a forked network.
type Backing interface {
	Basic(ctx context.Context, addr common.Address) (*types.Account, error)
	Storage(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error)
	CodeByHash(ctx context.Context, hash common.Hash) ([]byte, error)
}

// emptyBacking is the bottom of the stack for a non-forked chain: every
// account and slot is implicitly absent/zero, and only the empty-code hash
// resolves.
type emptyBacking struct{}

// NewLocalBacking returns a Backing with no remote data: the chain's own
// genesis/committed layers are the sole source of truth.
func NewLocalBacking() Backing { return emptyBacking{} }

func (emptyBacking) Basic(context.Context, common.Address) (*types.Account, error) {
	return nil, nil
}

func (emptyBacking) Storage(context.Context, common.Address, common.Hash) (common.Hash, error) {
	return common.Hash{}, nil
}

func (emptyBacking) CodeByHash(_ context.Context, hash common.Hash) ([]byte, error) {
	if hash == crypto.EmptyCodeHash {
		return nil, nil
	}
	return nil, ErrUnknownCodeHash
}
