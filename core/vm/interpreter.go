// Package vm defines the seam between the node's block/transaction
// plumbing and the EVM bytecode interpreter proper. The interpreter itself
// (opcode dispatch, gas metering, precompiles) is treated as an
// injectable black box: this package only describes the environment it is
// given, the result it must hand back, and the inspector hooks that let a
// caller observe or override individual calls.
//
// Grounded on original_source/crates/edr_evm/src/evm.rs and
// edr_evm_napi/src/vm.rs for the TxEnv/BlockEnv/ExecutionResult shapes and
// the dry_run/guaranteed_dry_run/run split, and on the teacher's core/vm
// package (core/vm/interface.go's StateDB/BlockContext/TxContext
// separation) for how to carve the environment into block-scoped and
// tx-scoped pieces idiomatically in Go.
package vm

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/state"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/params"
)

// Failure taxonomy for the executor, mirroring the structured kinds a
// reimplementer is expected to surface distinctly to JSON-RPC callers.
var (
	ErrMissingPrevrandao  = errors.New("vm: post-merge block missing prevrandao")
	ErrEip1559Unsupported = errors.New("vm: transaction uses 1559 fee fields below London")
	ErrNonceTooLow        = errors.New("vm: transaction nonce too low")
	ErrNonceTooHigh       = errors.New("vm: transaction nonce too high")
	ErrInsufficientFunds  = errors.New("vm: sender balance cannot cover gas_limit*gas_price+value")
	ErrGasLimitTooLow     = errors.New("vm: gas limit below intrinsic gas or above block gas limit")
)

// BlockEnv is the subset of a block's header the interpreter needs to
// execute a transaction against it: everything that is fixed for every
// transaction in the block.
type BlockEnv struct {
	Number     uint64
	Coinbase   common.Address
	Timestamp  uint64
	GasLimit   uint64
	BaseFee    *uint256.Int // nil pre-London
	Difficulty *uint256.Int
	Prevrandao *common.Hash // set instead of Difficulty post-merge
	Spec       params.Spec
}

// TxEnv is a transaction projected into the shape the interpreter
// consumes: sender already recovered, fee fields normalized regardless of
// the original envelope's type.
type TxEnv struct {
	Caller     common.Address
	To         *common.Address
	Value      *uint256.Int
	Data       []byte
	GasLimit   uint64
	GasPrice   *uint256.Int // effective gas price at BlockEnv.BaseFee
	GasFeeCap  *uint256.Int
	GasTipCap  *uint256.Int
	Nonce      uint64
	AccessList types.AccessList
	ChainID    uint64
}

// NewTxEnv projects a signed transaction and its recovered sender into a
// TxEnv evaluated against baseFee (nil pre-London).
func NewTxEnv(tx *types.Transaction, sender common.Address, baseFee *uint256.Int) TxEnv {
	return TxEnv{
		Caller:     sender,
		To:         tx.To(),
		Value:      tx.Value(),
		Data:       tx.Data(),
		GasLimit:   tx.Gas(),
		GasPrice:   tx.EffectiveGasPrice(baseFee),
		GasFeeCap:  tx.GasFeeCap(),
		GasTipCap:  tx.GasTipCap(),
		Nonce:      tx.Nonce(),
		AccessList: tx.AccessList(),
		ChainID:    tx.ChainID().Uint64(),
	}
}

// ExecutionOutcome discriminates ExecutionResult.
type ExecutionOutcome int

const (
	OutcomeSuccess ExecutionOutcome = iota
	OutcomeRevert
	OutcomeHalt
)

// ExecutionResult is what the interpreter hands back for one transaction:
// the outcome, gas accounting, any created contract, logs, and (for a
// revert) the raw revert payload.
type ExecutionResult struct {
	Outcome         ExecutionOutcome
	GasUsed         uint64
	GasRefunded     uint64
	Output          []byte // return data (success) or revert reason (revert)
	ContractAddress *common.Address
	Logs            []*types.Log
	HaltReason      string // populated only for OutcomeHalt
}

// Succeeded reports whether the transaction completed without reverting or
// halting.
func (r *ExecutionResult) Succeeded() bool { return r.Outcome == OutcomeSuccess }

// Interpreter is the black-box EVM: given a world-state view, a block
// environment, and a transaction environment, it executes the transaction
// and reports the outcome plus the state diff it produced. Real opcode
// dispatch, gas metering, and precompiles live behind this interface in an
// injected implementation; this package only ever talks to it through
// this seam (see NoopInterpreter for the test double used by this
// package's own tests and by callers that don't need real execution,
// e.g. gas-estimation scaffolding before the real interpreter is wired
// in).
type Interpreter interface {
	// Execute runs tx against state under env, reporting the result plus
	// the accumulated state diff. It must not mutate state directly —
	// callers decide whether/when to commit the returned diff.
	Execute(ctx context.Context, st StateReader, env BlockEnv, tx TxEnv, insp Inspector) (*ExecutionResult, *state.Diff, error)
}

// StateReader is the read surface an Interpreter needs from core/state;
// satisfied by *state.StateDB directly.
type StateReader interface {
	Basic(ctx context.Context, addr common.Address) (*types.Account, error)
	Storage(ctx context.Context, addr common.Address, index common.Hash) (common.Hash, error)
	CodeByHash(ctx context.Context, hash common.Hash) ([]byte, error)
}
