package ethapi

import (
	"encoding/json"

	"github.com/holiman/uint256"

	"github.com/cockroachdb/errors"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/core/vm"
)

// ErrMissingFrom is returned for eth_sendTransaction (unlike eth_call,
// which defaults an absent From to the zero address) when no sender is
// given.
var ErrMissingFrom = errors.New("ethapi: transaction request is missing 'from'")

// callArgs is eth_call/eth_estimateGas/eth_sendTransaction's shared
// argument object (EIP-1474's TransactionArgs shape): any hex field may
// be omitted, so every one is a pointer or nil-able slice.
type callArgs struct {
	From                 *common.Address    `json:"from"`
	To                   *common.Address    `json:"to"`
	Gas                  *hexutil.Uint64    `json:"gas"`
	GasPrice             *hexutil.Big       `json:"gasPrice"`
	GasFeeCap            *hexutil.Big       `json:"maxFeePerGas"`
	GasTipCap            *hexutil.Big       `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big       `json:"value"`
	Nonce                *hexutil.Uint64    `json:"nonce"`
	Data                 *hexutil.Bytes     `json:"data"`
	Input                *hexutil.Bytes     `json:"input"`
	AccessList           []accessTupleJSON  `json:"accessList"`
	ChainID              *hexutil.Big       `json:"chainId"`
}

func decodeCallArgs(raw json.RawMessage) (*callArgs, error) {
	var args callArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return &args, nil
}

// data returns the call's input bytes, preferring the newer "data" field
// name like go-ethereum's own TransactionArgs does, falling back to the
// legacy "input" alias.
func (a *callArgs) data() []byte {
	if a.Data != nil {
		return *a.Data
	}
	if a.Input != nil {
		return *a.Input
	}
	return nil
}

func bigToU256(b *hexutil.Big) *uint256.Int {
	if b == nil {
		return new(uint256.Int)
	}
	v, _ := uint256.FromBig(b.ToInt())
	return v
}

func accessListFromJSON(tuples []accessTupleJSON) types.AccessList {
	if tuples == nil {
		return nil
	}
	out := make(types.AccessList, len(tuples))
	for i, t := range tuples {
		out[i] = types.AccessTuple{Address: t.Address, StorageKeys: t.StorageKeys}
	}
	return out
}

// toTxEnv projects the call args into the shape vm.Executor consumes,
// evaluated against a block whose base fee is baseFee (nil pre-London)
// and gas limit blockGasLimit (used as the default gas when Gas is
// omitted, matching eth_call's "assume the whole block" convention).
func (a *callArgs) toTxEnv(blockGasLimit uint64, baseFee *uint256.Int) vm.TxEnv {
	gasLimit := blockGasLimit
	if a.Gas != nil {
		gasLimit = uint64(*a.Gas)
	}

	var from common.Address
	if a.From != nil {
		from = *a.From
	}

	gasFeeCap := bigToU256(a.GasFeeCap)
	gasTipCap := bigToU256(a.GasTipCap)
	gasPrice := bigToU256(a.GasPrice)
	if a.GasPrice == nil && baseFee != nil {
		gasPrice = new(uint256.Int).Add(baseFee, gasTipCap)
		if a.GasFeeCap != nil && gasPrice.Cmp(gasFeeCap) > 0 {
			gasPrice = gasFeeCap
		}
	}

	var nonce uint64
	if a.Nonce != nil {
		nonce = uint64(*a.Nonce)
	}

	return vm.TxEnv{
		Caller:     from,
		To:         a.To,
		Value:      bigToU256(a.Value),
		Data:       a.data(),
		GasLimit:   gasLimit,
		GasPrice:   gasPrice,
		GasFeeCap:  gasFeeCap,
		GasTipCap:  gasTipCap,
		Nonce:      nonce,
		AccessList: accessListFromJSON(a.AccessList),
	}
}

// toUnsignedTransaction builds the DynamicFeeTx eth_sendTransaction signs
// or impersonates. Always a DynamicFeeTx regardless of the request's own
// fee-field shape (legacy gasPrice callers included): typed transactions
// carry ChainID as an explicit field rather than deriving it from V, which
// matters for impersonated senders (see core/types/signing.go's
// ImpersonateSignature and DESIGN.md's impersonation note).
func (a *callArgs) toUnsignedTransaction(chainID uint64, defaultGasLimit uint64, gasFeeCap, gasTipCap *uint256.Int) *types.Transaction {
	gl := defaultGasLimit
	if a.Gas != nil {
		gl = uint64(*a.Gas)
	}
	feeCap := gasFeeCap
	if a.GasFeeCap != nil {
		feeCap = bigToU256(a.GasFeeCap)
	} else if a.GasPrice != nil {
		feeCap = bigToU256(a.GasPrice)
	}
	tipCap := gasTipCap
	if a.GasTipCap != nil {
		tipCap = bigToU256(a.GasTipCap)
	} else if a.GasPrice != nil {
		tipCap = bigToU256(a.GasPrice)
	}
	var nonce uint64
	if a.Nonce != nil {
		nonce = uint64(*a.Nonce)
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:    new(uint256.Int).SetUint64(chainID),
		Nonce:      nonce,
		GasTipCap:  tipCap,
		GasFeeCap:  feeCap,
		Gas:        gl,
		To:         a.To,
		Value:      bigToU256(a.Value),
		Data:       a.data(),
		AccessList: accessListFromJSON(a.AccessList),
	})
}
