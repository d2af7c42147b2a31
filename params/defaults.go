package params

import "github.com/holiman/uint256"

// Hardhat Network's well-known defaults, reused here so a freshly booted
// devnode matches what existing Hardhat tooling expects out of the box.
const (
	DefaultChainID       = HardhatChainID
	DefaultBlockGasLimit = 30_000_000
	DefaultHardfork      = Cancun

	// DefaultMnemonic is the deterministic BIP-39 phrase Hardhat Network
	// derives its default funded accounts from.
	DefaultMnemonic    = "test test test test test test test test test test test junk"
	DefaultAccountPath = "m/44'/60'/0'/0"

	// DefaultAccountCount funded accounts are derived at boot, each seeded
	// with DefaultAccountBalanceEther ETH.
	DefaultAccountCount         = 20
	DefaultAccountBalanceEther  = 10_000
)

// DefaultInitialBaseFee is EIP-1559's genesis base fee absent an explicit
// override: 1 gwei, matching Hardhat Network's default.
func DefaultInitialBaseFee() *uint256.Int { return new(uint256.Int).SetUint64(1_000_000_000) }

// EIP-1559 base-fee adjustment constants (EIP-1559 §Specification).
const (
	BaseFeeMaxChangeDenominator = 8
	ElasticityMultiplier        = 2
)

// NextBaseFee computes the EIP-1559 base fee for the block following one
// with the given base fee, gas used, and gas limit.
func NextBaseFee(parentBaseFee *uint256.Int, parentGasUsed, parentGasLimit uint64) *uint256.Int {
	parentGasTarget := parentGasLimit / ElasticityMultiplier
	if parentGasTarget == 0 {
		return new(uint256.Int).Set(parentBaseFee)
	}
	if parentGasUsed == parentGasTarget {
		return new(uint256.Int).Set(parentBaseFee)
	}
	if parentGasUsed > parentGasTarget {
		gasUsedDelta := parentGasUsed - parentGasTarget
		return addBaseFeeDelta(parentBaseFee, gasUsedDelta, parentGasTarget, true)
	}
	gasUsedDelta := parentGasTarget - parentGasUsed
	return addBaseFeeDelta(parentBaseFee, gasUsedDelta, parentGasTarget, false)
}

func addBaseFeeDelta(parentBaseFee *uint256.Int, gasUsedDelta, parentGasTarget uint64, increase bool) *uint256.Int {
	num := new(uint256.Int).Mul(parentBaseFee, new(uint256.Int).SetUint64(gasUsedDelta))
	num.Div(num, new(uint256.Int).SetUint64(parentGasTarget))
	delta := new(uint256.Int).Div(num, new(uint256.Int).SetUint64(BaseFeeMaxChangeDenominator))
	if increase {
		if delta.IsZero() {
			delta = new(uint256.Int).SetUint64(1)
		}
		return new(uint256.Int).Add(parentBaseFee, delta)
	}
	if delta.Cmp(parentBaseFee) >= 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(parentBaseFee, delta)
}
