package ethapi

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/core/vm"
)

var debugMethods = map[string]methodHandler{
	"debug_traceTransaction": (*Provider).debugTraceTransaction,
	"debug_traceCall":        (*Provider).debugTraceCall,
}

// stepRecorder is a vm.Tracer that only collects OnStep entries, the
// EIP-3155 struct-log shape debug_traceTransaction/debug_traceCall return.
// Call-frame and console-log hooks are left unimplemented: this devnode's
// injected Interpreter is free to be a NoopInterpreter that understands
// only plain value transfers, in which case a trace is simply empty for
// anything that touches contract code — a documented limitation, not a
// silently wrong approximation (see DESIGN.md).
type stepRecorder struct {
	steps []vm.StructLog
}

func (r *stepRecorder) OnCallEnter(vm.CallFrame) {}
func (r *stepRecorder) OnCallExit(vm.CallFrame)  {}
func (r *stepRecorder) OnStep(log vm.StructLog)  { r.steps = append(r.steps, log) }

type structLogResult struct {
	Pc      uint64   `json:"pc"`
	Op      string   `json:"op"`
	Gas     uint64   `json:"gas"`
	GasCost uint64   `json:"gasCost"`
	Depth   int      `json:"depth"`
	Stack   []string `json:"stack,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type traceResult struct {
	Gas         uint64            `json:"gas"`
	Failed      bool              `json:"failed"`
	ReturnValue string            `json:"returnValue"`
	StructLogs  []structLogResult `json:"structLogs"`
}

func structLogsToJSON(steps []vm.StructLog) []structLogResult {
	out := make([]structLogResult, len(steps))
	for i, s := range steps {
		stack := make([]string, len(s.StackTop))
		for j, v := range s.StackTop {
			stack[j] = v.Hex()
		}
		out[i] = structLogResult{
			Pc: s.Pc, Op: s.Op, Gas: s.Gas, GasCost: s.GasCost, Depth: s.Depth,
			Stack: stack, Error: s.Error,
		}
	}
	return out
}

func traceResultFrom(result *vm.ExecutionResult, steps []vm.StructLog) *traceResult {
	return &traceResult{
		Gas:         result.GasUsed,
		Failed:      result.Outcome != vm.OutcomeSuccess,
		ReturnValue: common.Bytes(result.Output).String(),
		StructLogs:  structLogsToJSON(steps),
	}
}

// debugTraceTransaction replays an already-mined transaction against the
// node's current state (not a historical snapshot at the point it was
// originally mined — this devnode keeps no archive of intermediate
// per-block state) under the block environment the transaction was
// actually mined in.
func (p *Provider) debugTraceTransaction(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var hash common.Hash
	if err := json.Unmarshal(paramAt(args, 0), &hash); err != nil {
		return nil, err
	}
	block, err := p.chain.BlockByTransactionHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	tx := findTransaction(block, hash)
	if tx == nil {
		return nil, errors.New("ethapi: transaction not found in its own block")
	}

	env := vm.BlockEnv{
		Number:     block.Header.Number,
		Coinbase:   block.Header.Coinbase,
		Timestamp:  block.Header.Timestamp,
		GasLimit:   block.Header.GasLimit,
		BaseFee:    block.Header.BaseFee,
		Difficulty: block.Header.Difficulty,
		Spec:       p.cfg.Spec,
	}

	rec := &stepRecorder{}
	txEnv := vm.NewTxEnv(tx, p.senderOf(tx), block.Header.BaseFee)
	result, _, err := p.exec.GuaranteedDryRun(ctx, p.state, env, txEnv, vm.Inspector{Tracer: rec})
	if err != nil {
		return nil, err
	}
	return traceResultFrom(result, rec.steps), nil
}

func (p *Provider) debugTraceCall(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	call, err := decodeCallArgs(paramAt(args, 0))
	if err != nil {
		return nil, err
	}
	if _, _, err := p.resolveBlockSpecParam(ctx, args, 1); err != nil {
		return nil, err
	}
	env, err := p.currentBlockEnv(ctx)
	if err != nil {
		return nil, err
	}
	rec := &stepRecorder{}
	txEnv := call.toTxEnv(env.GasLimit, env.BaseFee)
	result, _, err := p.exec.GuaranteedDryRun(ctx, p.state, env, txEnv, vm.Inspector{Tracer: rec})
	if err != nil {
		return nil, err
	}
	return traceResultFrom(result, rec.steps), nil
}

func findTransaction(block *types.Block, hash common.Hash) *types.Transaction {
	for _, tx := range block.Transactions {
		if tx.Hash() == hash {
			return tx
		}
	}
	return nil
}
