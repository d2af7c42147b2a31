package vm

import (
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
)

// consoleAddress is Hardhat's well-known console.log precompile address;
// an Interpreter implementation routes calls to it through a ConsoleLog
// inspector instead of executing them as ordinary calls.
var consoleAddress = common.HexToAddress("0x000000000000000000636F6e736F6c652e6c6f67")

// ConsoleAddress returns the address console.log calls are intercepted at.
func ConsoleAddress() common.Address { return consoleAddress }

// CallFrame is one message-call boundary an interpreter reports to a
// Tracer: a CALL/STATICCALL/DELEGATECALL/CREATE entry or its matching
// return.
type CallFrame struct {
	Depth  int
	Type   string // "CALL", "STATICCALL", "DELEGATECALL", "CREATE", "CREATE2"
	From   common.Address
	To     common.Address
	Value  *uint256.Int
	Input  []byte
	Gas    uint64
	Output []byte // populated on the matching return frame
	Error  string // populated on the matching return frame if it reverted/halted
}

// StructLog is one EIP-3155 struct-log entry: an opcode step with the top
// of the stack, matching debug_traceTransaction's wire shape.
type StructLog struct {
	Pc            uint64
	Op            string
	Gas           uint64
	GasCost       uint64
	Depth         int
	StackTop      []*uint256.Int
	Memory        []byte
	Error         string
}

// Tracer records pre/post-call message frames and per-opcode steps. An
// Interpreter implementation drives it; this package only defines the
// shape the trace takes once collected.
type Tracer interface {
	OnCallEnter(frame CallFrame)
	OnCallExit(frame CallFrame)
	OnStep(log StructLog)
}

// ConsoleLogger receives the raw call data of every call the interpreter
// routes to ConsoleAddress(), the Hardhat console.log convention.
type ConsoleLogger interface {
	OnConsoleLog(caller common.Address, data []byte)
}

// CallOverridePredicate decides whether a given call should be
// intercepted; CallOverrideResult supplies what to return in its place.
type CallOverridePredicate func(to common.Address, input []byte) bool

// CallOverrideResult is substituted for a call's real execution when its
// predicate matches: either a return value or a revert reason, never both.
type CallOverrideResult struct {
	Result []byte
	Revert bool
}

// CallOverride substitutes a canned result for calls matching Predicate,
// without ever reaching the real interpreter for them. Used by mocking
// tests that need a contract call to behave a specific way without
// deploying real bytecode.
type CallOverride struct {
	Predicate CallOverridePredicate
	Respond   func(to common.Address, input []byte) CallOverrideResult
}

// Inspector is the tagged union of capabilities a caller may attach to one
// execution: any subset of Tracer, ConsoleLogger, CallOverride may be
// nil. An Interpreter implementation checks each field for nil before
// invoking it.
type Inspector struct {
	Tracer        Tracer
	Console       ConsoleLogger
	CallOverride  *CallOverride
}

// Empty reports whether insp carries no active capability (the common
// case: dry_run/guaranteed_dry_run/run without -Inspector, in/ethapi's
// plain eth_call path).
func (insp *Inspector) Empty() bool {
	return insp == nil || (insp.Tracer == nil && insp.Console == nil && insp.CallOverride == nil)
}
