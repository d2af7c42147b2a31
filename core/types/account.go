// Package types defines the Ethereum execution-layer data model: accounts,
// storage slots, headers, blocks, receipts, logs, and the per-hardfork
// signed-transaction envelope variants (legacy, EIP-2930, EIP-1559,
// EIP-4844).
//
// Grounded on original_source/crates/edr_eth's account/transaction/receipt
// modules for field shapes, and on the teacher's core/types test files for
// Go naming conventions (Header, Block, Receipt, Log).
package types

import (
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/crypto"
	"github.com/ethdevnode/edr/rlp"
)

// Account is the per-address world-state record: balance, nonce, and a
// reference to its code by hash. Code itself is stored out-of-line in the
// contract-code store (see core/state.ContractStorage) and deduplicated by
// code_hash across all accounts that happen to share it.
type Account struct {
	Balance  *uint256.Int
	Nonce    uint64
	CodeHash common.Hash
}

// EmptyAccount returns the zero-value account every never-touched address
// implicitly has: zero balance, zero nonce, empty code.
func EmptyAccount() Account {
	return Account{Balance: new(uint256.Int), Nonce: 0, CodeHash: crypto.EmptyCodeHash}
}

// IsEmpty reports whether the account is indistinguishable from one that
// was never created (EIP-161 emptiness: no balance, no nonce, no code).
func (a Account) IsEmpty() bool {
	return (a.Balance == nil || a.Balance.IsZero()) && a.Nonce == 0 && a.CodeHash == crypto.EmptyCodeHash
}

// Copy returns a deep copy of the account (the balance pointer is cloned so
// callers can mutate it independently).
func (a Account) Copy() Account {
	out := a
	if a.Balance != nil {
		out.Balance = new(uint256.Int).Set(a.Balance)
	} else {
		out.Balance = new(uint256.Int)
	}
	return out
}

// rlpAccount is the Merkle-Patricia-trie value representation of an
// account: balance, nonce, storage root, code hash. The storage root is
// supplied by the caller (core/state) at encode time since Account itself
// does not own a storage trie reference.
type rlpAccount struct {
	Nonce       uint64
	Balance     *uint256.Int
	StorageRoot common.Hash
	CodeHash    common.Hash
}

// TrieValue returns the RLP encoding stored at this account's leaf in the
// account trie: [nonce, balance, storageRoot, codeHash].
func (a Account) TrieValue(storageRoot common.Hash) ([]byte, error) {
	balance := a.Balance
	if balance == nil {
		balance = new(uint256.Int)
	}
	return rlp.EncodeToBytes(rlpAccount{
		Nonce:       a.Nonce,
		Balance:     balance,
		StorageRoot: storageRoot,
		CodeHash:    a.CodeHash,
	})
}

// DecodeAccountTrieValue parses an account trie leaf back into an Account
// and the storage root it was committed with.
func DecodeAccountTrieValue(b []byte) (Account, common.Hash, error) {
	var r rlpAccount
	if err := rlp.DecodeBytes(b, &r); err != nil {
		return Account{}, common.Hash{}, err
	}
	return Account{Balance: r.Balance, Nonce: r.Nonce, CodeHash: r.CodeHash}, r.StorageRoot, nil
}
