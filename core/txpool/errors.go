// Package txpool holds transactions awaiting inclusion in a block,
// partitioned per sender into a pending queue (contiguous nonces starting
// at the account's current nonce, executable right now) and a future
// queue (nonces beyond that contiguous run).
//
// Grounded on original_source/crates/edr_evm_napi/src/mempool.rs for the
// pending/future split and promotion rule, and on other_examples miner
// worker files for the sender/nonce bookkeeping idiom (per-sender ordered
// map of nonce -> transaction).
package txpool

import "github.com/cockroachdb/errors"

// MinerTransactionError is the typed admission-failure taxonomy the spec
// requires every add_transaction rejection to surface as.
type MinerTransactionError struct {
	Kind MinerTransactionErrorKind
	msg  string
}

func (e *MinerTransactionError) Error() string { return e.msg }

// MinerTransactionErrorKind discriminates MinerTransactionError.
type MinerTransactionErrorKind int

const (
	KindInvalidChainID MinerTransactionErrorKind = iota
	KindSenderIsContract
	KindInsufficientFunds
	KindExceedsBlockGasLimit
	KindReplacementUnderpriced
	KindNonceTooLow
)

func newErr(kind MinerTransactionErrorKind, msg string) *MinerTransactionError {
	return &MinerTransactionError{Kind: kind, msg: msg}
}

var (
	// ErrInvalidChainID is returned when a transaction's chain ID does not
	// match the pool's configured chain.
	ErrInvalidChainID = newErr(KindInvalidChainID, "txpool: transaction chain ID mismatch")
	// ErrSenderIsContract is returned for a transaction from an address
	// carrying contract code, unless EIP-3607 enforcement is disabled.
	ErrSenderIsContract = newErr(KindSenderIsContract, "txpool: sender is a contract (EIP-3607)")
	// ErrInsufficientFunds is returned when the sender's balance cannot
	// cover gas_limit * gas_price + value (legacy) or
	// gas_limit * max_fee_per_gas + value (1559).
	ErrInsufficientFunds = newErr(KindInsufficientFunds, "txpool: insufficient sender balance")
	// ErrExceedsBlockGasLimit is returned when a transaction's gas limit on
	// its own exceeds the pool's configured block gas limit.
	ErrExceedsBlockGasLimit = newErr(KindExceedsBlockGasLimit, "txpool: transaction gas limit exceeds block gas limit")
	// ErrReplacementUnderpriced is returned when a same-nonce replacement
	// does not strictly increase the fee fields the spec requires.
	ErrReplacementUnderpriced = newErr(KindReplacementUnderpriced, "txpool: replacement transaction underpriced")
	// ErrNonceTooLow is returned when a transaction's nonce is already
	// below the sender's current on-chain nonce.
	ErrNonceTooLow = newErr(KindNonceTooLow, "txpool: nonce too low")
)

var errNotFound = errors.New("txpool: transaction not found")
