package vm

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/core/state"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/crypto"
)

// ErrContractExecutionUnsupported is returned by NoopInterpreter for any
// call that would require real bytecode dispatch (a call into an account
// that carries code, or a contract-creation transaction). NoopInterpreter
// only understands plain value transfers between externally-owned
// accounts; a real opcode engine is expected to be injected in its place
// for anything else.
var ErrContractExecutionUnsupported = errors.New("vm: noop interpreter cannot execute contract code")

const intrinsicGasBase = 21_000
const intrinsicGasPerZeroByte = 4
const intrinsicGasPerNonZeroByte = 16

// IntrinsicGas returns the EIP-2028/2930 intrinsic gas cost of a
// transaction's fixed overhead plus its calldata and access list, not
// counting any opcode execution.
func IntrinsicGas(data []byte, accessList types.AccessList, isContractCreation bool) uint64 {
	gas := uint64(intrinsicGasBase)
	for _, b := range data {
		if b == 0 {
			gas += intrinsicGasPerZeroByte
		} else {
			gas += intrinsicGasPerNonZeroByte
		}
	}
	gas += accessList.Gas()
	_ = isContractCreation // contract-creation surcharge is part of real EVM dispatch, out of NoopInterpreter's scope
	return gas
}

// NoopInterpreter is the black-box Interpreter's test double: it executes
// only plain EOA-to-EOA value transfers (moving balance and bumping the
// sender's nonce), reporting intrinsic gas as GasUsed and nothing more (no
// fee is deducted from the sender's balance). Any call whose
// destination carries code, or that has no destination at all (contract
// creation), fails with ErrContractExecutionUnsupported. It exists so the
// rest of the stack — the miner, the mempool, the provider — can be built
// and tested end to end without a real opcode engine, exactly as the
// executor's three entry points (dry_run/guaranteed_dry_run/run) are
// specified to share one implementation regardless of which Interpreter
// backs them.
type NoopInterpreter struct{}

func (NoopInterpreter) Execute(ctx context.Context, st StateReader, env BlockEnv, tx TxEnv, insp Inspector) (*ExecutionResult, *state.Diff, error) {
	gas := IntrinsicGas(tx.Data, tx.AccessList, tx.To == nil)
	if tx.GasLimit < gas {
		return nil, nil, ErrGasLimitTooLow
	}

	if tx.To == nil {
		return &ExecutionResult{Outcome: OutcomeHalt, GasUsed: tx.GasLimit, HaltReason: ErrContractExecutionUnsupported.Error()}, state.NewDiff(), nil
	}

	toAccount, err := st.Basic(ctx, *tx.To)
	if err != nil {
		return nil, nil, err
	}
	if toAccount != nil && toAccount.CodeHash != crypto.EmptyCodeHash {
		return &ExecutionResult{Outcome: OutcomeHalt, GasUsed: tx.GasLimit, HaltReason: ErrContractExecutionUnsupported.Error()}, state.NewDiff(), nil
	}

	if !insp.Empty() && insp.Console != nil && *tx.To == ConsoleAddress() {
		insp.Console.OnConsoleLog(tx.Caller, tx.Data)
	}

	fromAccount, err := st.Basic(ctx, tx.Caller)
	if err != nil {
		return nil, nil, err
	}
	if fromAccount == nil {
		empty := types.EmptyAccount()
		fromAccount = &empty
	}

	diff := state.NewDiff()

	fromChange := diff.Touch(tx.Caller)
	fromChange.Account = *fromAccount
	fromChange.Account.Nonce = tx.Nonce + 1
	fromChange.Account.Balance = new(uint256.Int).Sub(fromAccount.Balance, tx.Value)

	toChange := diff.Touch(*tx.To)
	if toAccount != nil {
		toChange.Account = *toAccount
	} else {
		toChange.Account = types.EmptyAccount()
		toChange.Created = true
	}
	toChange.Account.Balance = new(uint256.Int).Add(toChange.Account.Balance, tx.Value)

	if !insp.Empty() && insp.Tracer != nil {
		insp.Tracer.OnCallEnter(CallFrame{Type: "CALL", From: tx.Caller, To: *tx.To, Value: tx.Value, Input: tx.Data, Gas: tx.GasLimit})
		insp.Tracer.OnCallExit(CallFrame{Type: "CALL", From: tx.Caller, To: *tx.To})
	}

	return &ExecutionResult{Outcome: OutcomeSuccess, GasUsed: gas}, diff, nil
}

var _ Interpreter = NoopInterpreter{}
