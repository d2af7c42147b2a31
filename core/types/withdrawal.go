package types

import "github.com/ethdevnode/edr/common"

// Withdrawal is a validator withdrawal processed post-Shanghai. Amount is
// denominated in Gwei, matching the consensus-layer convention.
type Withdrawal struct {
	Index          uint64
	ValidatorIndex uint64
	Address        common.Address
	Amount         uint64
}
