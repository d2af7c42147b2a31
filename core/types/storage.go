package types

import (
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/rlp"
)

// StorageSlot carries both the value an execution diff found when it first
// read a slot (previous_or_original_value) and the value it wants to leave
// behind (present_value). A slot is considered absent from the trie once
// its present value is zero; reads of absent slots return zero.
type StorageSlot struct {
	PreviousOrOriginalValue *uint256.Int
	PresentValue            *uint256.Int
}

// NewStorageSlot constructs a slot whose original and present values are
// both v (used when materializing a slot read directly from the trie).
func NewStorageSlot(v *uint256.Int) StorageSlot {
	return StorageSlot{PreviousOrOriginalValue: v, PresentValue: v}
}

// NewChangedStorageSlot constructs a slot recording a transition from old
// to new within a single execution diff.
func NewChangedStorageSlot(old, new *uint256.Int) StorageSlot {
	return StorageSlot{PreviousOrOriginalValue: old, PresentValue: new}
}

// IsZero reports whether the slot's present value is zero, i.e. whether it
// is absent from the trie's perspective.
func (s StorageSlot) IsZero() bool {
	return s.PresentValue == nil || s.PresentValue.IsZero()
}

// EncodeStorageValue returns the RLP encoding stored at a storage-trie
// leaf: value's minimal big-endian byte string (leading zero bytes
// stripped), matching the Yellow Paper's storage trie value format.
// Callers must never store the zero value this way; a zero-valued slot
// has no leaf at all.
func EncodeStorageValue(value common.Hash) ([]byte, error) {
	v := new(uint256.Int).SetBytes(value.Bytes())
	return rlp.EncodeToBytes(v.Bytes())
}

// DecodeStorageValue reverses EncodeStorageValue.
func DecodeStorageValue(enc []byte) (common.Hash, error) {
	var raw []byte
	if err := rlp.DecodeBytes(enc, &raw); err != nil {
		return common.Hash{}, err
	}
	v := new(uint256.Int).SetBytes(raw)
	return v.Bytes32(), nil
}
