package vm

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/core/state"
	"github.com/ethdevnode/edr/params"
)

// Executor wraps an injected Interpreter with the balance/gas-limit
// validation the spec requires to differ between its three entry points.
// All three share this one implementation and differ only in which
// pre-checks run and whether the resulting diff is committed.
type Executor struct {
	interp Interpreter
}

// NewExecutor returns an Executor backed by interp (NoopInterpreter for
// tests, or a real opcode engine in production).
func NewExecutor(interp Interpreter) *Executor { return &Executor{interp: interp} }

func validateBlockEnv(env BlockEnv) error {
	if env.Spec.AtLeast(params.Merge) && env.Prevrandao == nil {
		return ErrMissingPrevrandao
	}
	if !env.Spec.AtLeast(params.London) && env.BaseFee != nil {
		return ErrEip1559Unsupported
	}
	return nil
}

// requiredFunds returns gas_limit*gas_price + value, the balance a sender
// must hold for tx to be admissible.
func requiredFunds(tx TxEnv) *uint256.Int {
	price := tx.GasPrice
	if price == nil {
		price = tx.GasFeeCap
	}
	cost := new(uint256.Int).Mul(price, new(uint256.Int).SetUint64(tx.GasLimit))
	return cost.Add(cost, tx.Value)
}

func validateBalanceAndGas(ctx context.Context, st StateReader, env BlockEnv, tx TxEnv) error {
	if tx.GasLimit > env.GasLimit {
		return ErrGasLimitTooLow
	}
	account, err := st.Basic(ctx, tx.Caller)
	if err != nil {
		return err
	}
	var nonce uint64
	if account != nil {
		nonce = account.Nonce
	}
	if tx.Nonce < nonce {
		return ErrNonceTooLow
	}
	if tx.Nonce > nonce {
		return ErrNonceTooHigh
	}
	if account == nil || account.Balance.Cmp(requiredFunds(tx)) < 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// DryRun executes tx against st without committing the resulting diff,
// with balance and gas-limit checks enabled.
func (e *Executor) DryRun(ctx context.Context, st StateReader, env BlockEnv, tx TxEnv, insp Inspector) (*ExecutionResult, *state.Diff, error) {
	if err := validateBlockEnv(env); err != nil {
		return nil, nil, err
	}
	if err := validateBalanceAndGas(ctx, st, env, tx); err != nil {
		return nil, nil, err
	}
	return e.interp.Execute(ctx, st, env, tx, insp)
}

// GuaranteedDryRun executes tx with balance and gas-limit checks disabled,
// matching eth_call/eth_estimateGas semantics: the caller may not hold
// enough balance or the block may not have enough spare gas, and the
// result is still reported rather than rejected.
func (e *Executor) GuaranteedDryRun(ctx context.Context, st StateReader, env BlockEnv, tx TxEnv, insp Inspector) (*ExecutionResult, *state.Diff, error) {
	if err := validateBlockEnv(env); err != nil {
		return nil, nil, err
	}
	return e.interp.Execute(ctx, st, env, tx, insp)
}

// Run executes tx with the same checks as DryRun and, on success, commits
// the resulting diff to st.
func (e *Executor) Run(ctx context.Context, st *state.StateDB, env BlockEnv, tx TxEnv, insp Inspector) (*ExecutionResult, *state.Diff, error) {
	result, diff, err := e.DryRun(ctx, st, env, tx, insp)
	if err != nil {
		return nil, nil, err
	}
	st.Commit(diff)
	return result, diff, nil
}
