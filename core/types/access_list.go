package types

import "github.com/ethdevnode/edr/common"

// AccessTuple is a single (address, storage keys) entry of an EIP-2930
// access list.
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// AccessList is the EIP-2930 access list carried by 2930/1559/4844
// transactions.
type AccessList []AccessTuple

// Gas returns the additional intrinsic gas an access list of this shape
// would cost under EIP-2930: 2400 per address, 1900 per storage key.
func (al AccessList) Gas() uint64 {
	var gas uint64
	for _, tuple := range al {
		gas += 2400
		gas += uint64(len(tuple.StorageKeys)) * 1900
	}
	return gas
}
