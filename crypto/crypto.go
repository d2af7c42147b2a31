// Package crypto provides the Keccak256 primitive used throughout the node
// for addresses, storage keys, trie nodes, and transaction/block hashing.
package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/ethdevnode/edr/common"
)

// Keccak256 returns the Keccak256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256Hash returns the Keccak256 digest of the concatenation of data
// as a common.Hash.
func Keccak256Hash(data ...[]byte) common.Hash {
	return common.BytesToHash(Keccak256(data...))
}

// EmptyCodeHash is the Keccak256 hash of the empty byte string; it is the
// code_hash of every externally-owned account and of any contract whose
// code has been deliberately cleared.
var EmptyCodeHash = Keccak256Hash(nil)

// EmptyRootHash is the root of an empty Merkle-Patricia trie: keccak256 of
// the RLP encoding of the empty string (the single byte 0x80). Used as the
// initial state/storage root and as the transactions/receipts root of a
// block with no entries.
var EmptyRootHash = Keccak256Hash([]byte{0x80})
