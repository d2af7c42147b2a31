package ethapi

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/core/rawdb"
	"github.com/ethdevnode/edr/core/txpool"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/core/vm"
	"github.com/ethdevnode/edr/internal/filters"
	"github.com/ethdevnode/edr/params"
)

var ethMethods = map[string]methodHandler{
	"eth_chainId":               (*Provider).ethChainID,
	"eth_blockNumber":           (*Provider).ethBlockNumber,
	"eth_gasPrice":              (*Provider).ethGasPrice,
	"eth_accounts":              (*Provider).ethAccounts,
	"eth_getBalance":            (*Provider).ethGetBalance,
	"eth_getCode":               (*Provider).ethGetCode,
	"eth_getStorageAt":          (*Provider).ethGetStorageAt,
	"eth_getTransactionCount":   (*Provider).ethGetTransactionCount,
	"eth_getBlockByNumber":      (*Provider).ethGetBlockByNumber,
	"eth_getBlockByHash":        (*Provider).ethGetBlockByHash,
	"eth_getTransactionByHash":  (*Provider).ethGetTransactionByHash,
	"eth_getTransactionReceipt": (*Provider).ethGetTransactionReceipt,
	"eth_getLogs":               (*Provider).ethGetLogs,
	"eth_call":                  (*Provider).ethCall,
	"eth_estimateGas":           (*Provider).ethEstimateGas,
	"eth_sendRawTransaction":    (*Provider).ethSendRawTransaction,
	"eth_sendTransaction":       (*Provider).ethSendTransaction,
	"eth_sign":                  (*Provider).ethSign,
	"eth_signTypedData_v4":      (*Provider).ethSignTypedDataV4,
	"eth_feeHistory":            (*Provider).ethFeeHistory,
	"eth_mining":                (*Provider).ethMining,
	"eth_syncing":               (*Provider).ethSyncing,
	"eth_protocolVersion":       (*Provider).ethProtocolVersion,
	"eth_coinbase":              (*Provider).ethCoinbase,
}

func (p *Provider) ethChainID(_ context.Context, _ json.RawMessage) (any, error) {
	return hexutil.EncodeUint64(p.cfg.ChainID), nil
}

func (p *Provider) ethBlockNumber(_ context.Context, _ json.RawMessage) (any, error) {
	return hexutil.EncodeUint64(p.chain.LastBlockNumber()), nil
}

func (p *Provider) ethGasPrice(_ context.Context, _ json.RawMessage) (any, error) {
	block, err := p.chain.LastBlock()
	if err != nil {
		return nil, err
	}
	tip := new(uint256.Int).SetUint64(1_000_000_000)
	if block.Header.BaseFee == nil {
		return hexutil.EncodeBig(tip.ToBig()), nil
	}
	price := new(uint256.Int).Add(block.Header.BaseFee, tip)
	return hexutil.EncodeBig(price.ToBig()), nil
}

func (p *Provider) ethAccounts(_ context.Context, _ json.RawMessage) (any, error) {
	return p.keystore.Accounts(), nil
}

func (p *Provider) ethMining(_ context.Context, _ json.RawMessage) (any, error) {
	return p.automine, nil
}

func (p *Provider) ethSyncing(_ context.Context, _ json.RawMessage) (any, error) { return false, nil }

func (p *Provider) ethProtocolVersion(_ context.Context, _ json.RawMessage) (any, error) {
	return hexutil.EncodeUint64(uint64(p.cfg.Spec)), nil
}

func (p *Provider) ethCoinbase(_ context.Context, _ json.RawMessage) (any, error) {
	return p.cfg.CoinbaseAddress, nil
}

// resolveBlockSpecParam decodes the block parameter at position i (or
// "latest" if the caller omitted it entirely) and resolves it to a
// concrete block number via Provider.resolveBlockNumber.
func (p *Provider) resolveBlockSpecParam(ctx context.Context, args []json.RawMessage, i int) (uint64, bool, error) {
	spec, err := ParseBlockSpec(paramAt(args, i))
	if err != nil {
		return 0, false, err
	}
	return p.resolveBlockNumber(ctx, spec)
}

func (p *Provider) ethGetBalance(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var addr common.Address
	if err := json.Unmarshal(paramAt(args, 0), &addr); err != nil {
		return nil, err
	}
	if _, _, err := p.resolveBlockSpecParam(ctx, args, 1); err != nil {
		return nil, err
	}
	account, err := p.state.Basic(ctx, addr)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return hexutil.EncodeBig(new(uint256.Int).ToBig()), nil
	}
	return hexutil.EncodeBig(account.Balance.ToBig()), nil
}

func (p *Provider) ethGetCode(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var addr common.Address
	if err := json.Unmarshal(paramAt(args, 0), &addr); err != nil {
		return nil, err
	}
	if _, _, err := p.resolveBlockSpecParam(ctx, args, 1); err != nil {
		return nil, err
	}
	account, err := p.state.Basic(ctx, addr)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return hexutil.Bytes(nil), nil
	}
	code, err := p.state.CodeByHash(ctx, account.CodeHash)
	if err != nil {
		return nil, err
	}
	return hexutil.Bytes(code), nil
}

func (p *Provider) ethGetStorageAt(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var addr common.Address
	if err := json.Unmarshal(paramAt(args, 0), &addr); err != nil {
		return nil, err
	}
	var slot common.Hash
	if err := json.Unmarshal(paramAt(args, 1), &slot); err != nil {
		return nil, err
	}
	if _, _, err := p.resolveBlockSpecParam(ctx, args, 2); err != nil {
		return nil, err
	}
	value, err := p.state.Storage(ctx, addr, slot)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// ethGetTransactionCount returns the sender's on-chain nonce, or — for the
// explicit "pending" tag only — the nonce one past its highest contiguous
// pending transaction in the pool, matching eth_getTransactionCount's
// well-known pending-aware convention (every other tag/number/hash reads
// state only).
func (p *Provider) ethGetTransactionCount(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var addr common.Address
	if err := json.Unmarshal(paramAt(args, 0), &addr); err != nil {
		return nil, err
	}
	spec, err := ParseBlockSpec(paramAt(args, 1))
	if err != nil {
		return nil, err
	}
	account, err := p.state.Basic(ctx, addr)
	if err != nil {
		return nil, err
	}
	var nonce uint64
	if account != nil {
		nonce = account.Nonce
	}
	if spec.Kind == rawdb.BlockSpecKindTag && spec.Tag == rawdb.TagPending {
		for _, ptx := range p.pool.PendingBySender(addr) {
			if n := ptx.Tx.Nonce() + 1; n > nonce {
				nonce = n
			}
		}
	}
	return hexutil.EncodeUint64(nonce), nil
}

func (p *Provider) ethGetBlockByNumber(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	number, _, err := p.resolveBlockSpecParam(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	var fullTx bool
	_ = json.Unmarshal(paramAt(args, 1), &fullTx)
	return p.blockResultByNumber(ctx, number, fullTx)
}

func (p *Provider) ethGetBlockByHash(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var hash common.Hash
	if err := json.Unmarshal(paramAt(args, 0), &hash); err != nil {
		return nil, err
	}
	var fullTx bool
	_ = json.Unmarshal(paramAt(args, 1), &fullTx)
	block, err := p.chain.BlockByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	td, err := p.chain.TotalDifficultyByHash(ctx, hash)
	if err != nil {
		td = nil
	}
	return blockToJSON(block, td, p.senderOf, fullTx), nil
}

func (p *Provider) blockResultByNumber(ctx context.Context, number uint64, fullTx bool) (any, error) {
	block, err := p.chain.BlockByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	td, err := p.chain.TotalDifficultyByHash(ctx, block.Hash())
	if err != nil {
		td = nil
	}
	return blockToJSON(block, td, p.senderOf, fullTx), nil
}

// senderOf recovers a block-embedded transaction's sender. An impersonated
// transaction's signature cannot be recovered at all, so one that somehow
// made it into a block is reported as sent by the zero address — a
// devnode limitation, since impersonation is tracked by the live keystore,
// not reconstructible from an arbitrary historical block.
func (p *Provider) senderOf(tx *types.Transaction) common.Address {
	sender, err := types.Sender(tx, p.cfg.ChainID)
	if err != nil {
		return common.Address{}
	}
	return sender
}

func (p *Provider) ethGetTransactionByHash(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var hash common.Hash
	if err := json.Unmarshal(paramAt(args, 0), &hash); err != nil {
		return nil, err
	}

	if ptx, ok := p.pool.Get(hash); ok {
		tr := transactionToJSON(ptx.Tx, ptx.Sender, nil, nil, nil)
		return &tr, nil
	}

	block, err := p.chain.BlockByTransactionHash(ctx, hash)
	if err != nil {
		return nil, nil
	}
	blockHash := block.Hash()
	for i, tx := range block.Transactions {
		if tx.Hash() == hash {
			idx := uint64(i)
			tr := transactionToJSON(tx, p.senderOf(tx), &blockHash, &block.Header.Number, &idx)
			return &tr, nil
		}
	}
	return nil, nil
}

func (p *Provider) ethGetTransactionReceipt(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var hash common.Hash
	if err := json.Unmarshal(paramAt(args, 0), &hash); err != nil {
		return nil, err
	}
	receipt, err := p.chain.ReceiptByTransactionHash(ctx, hash)
	if err != nil {
		return nil, nil
	}
	block, err := p.chain.BlockByHash(ctx, receipt.BlockHash)
	if err != nil {
		return nil, err
	}
	var tx *types.Transaction
	for _, t := range block.Transactions {
		if t.Hash() == hash {
			tx = t
			break
		}
	}
	if tx == nil {
		return nil, errors.New("ethapi: receipt found without matching transaction")
	}
	return receiptToJSON(receipt, p.senderOf(tx), tx.To()), nil
}

// ethGetLogs walks [FromBlock, ToBlock] (defaulting both ends to the
// current head, per eth_getLogs convention — distinct from
// filters.FilterCriteria.Matches's "nil bound is unbounded" semantics used
// for live filter matching) collecting every receipt log that matches.
func (p *Provider) ethGetLogs(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var criteria filters.FilterCriteria
	if len(args) > 0 && len(args[0]) > 0 {
		if err := json.Unmarshal(args[0], &criteria); err != nil {
			return nil, err
		}
	}

	if criteria.BlockHash != nil {
		block, err := p.chain.BlockByHash(ctx, *criteria.BlockHash)
		if err != nil {
			return nil, err
		}
		logs, err := p.logsInBlock(ctx, block, criteria)
		if err != nil {
			return nil, err
		}
		return logsToJSON(logs), nil
	}

	head := p.chain.LastBlockNumber()
	from, to := head, head
	if criteria.FromBlock != nil {
		from = criteria.FromBlock.Uint64()
	}
	if criteria.ToBlock != nil {
		to = criteria.ToBlock.Uint64()
	}

	var logs []*types.Log
	for n := from; n <= to; n++ {
		block, err := p.chain.BlockByNumber(ctx, n)
		if err != nil {
			return nil, err
		}
		blockLogs, err := p.logsInBlock(ctx, block, criteria)
		if err != nil {
			return nil, err
		}
		logs = append(logs, blockLogs...)
	}
	return logsToJSON(logs), nil
}

func (p *Provider) logsInBlock(ctx context.Context, block *types.Block, criteria filters.FilterCriteria) ([]*types.Log, error) {
	hash := block.Hash()
	var out []*types.Log
	for _, tx := range block.Transactions {
		receipt, err := p.chain.ReceiptByTransactionHash(ctx, tx.Hash())
		if err != nil {
			continue
		}
		for _, log := range receipt.Logs {
			if criteria.Matches(block.Header.Number, hash, log) {
				out = append(out, log)
			}
		}
	}
	return out, nil
}

func (p *Provider) ethCall(ctx context.Context, params json.RawMessage) (any, error) {
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
	txEnv := call.toTxEnv(env.GasLimit, env.BaseFee)
	result, _, err := p.exec.GuaranteedDryRun(ctx, p.state, env, txEnv, vm.Inspector{})
	if err != nil {
		return nil, err
	}
	if result.Outcome != vm.OutcomeSuccess {
		return nil, &revertError{output: result.Output}
	}
	return hexutil.Bytes(result.Output), nil
}

// revertError carries a failed eth_call/eth_estimateGas's raw return data
// so toRPCError can surface it via the JSON-RPC error object's "data"
// field (EIP-1474's revert-reason convention), rather than collapsing it
// into the error message string.
type revertError struct {
	output []byte
}

func (e *revertError) Error() string { return "execution reverted" }

func (p *Provider) ethEstimateGas(ctx context.Context, params json.RawMessage) (any, error) {
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
	txEnv := call.toTxEnv(env.GasLimit, env.BaseFee)
	result, _, err := p.exec.GuaranteedDryRun(ctx, p.state, env, txEnv, vm.Inspector{})
	if err != nil {
		return nil, err
	}
	if result.Outcome != vm.OutcomeSuccess {
		return nil, &revertError{output: result.Output}
	}
	return hexutil.EncodeUint64(result.GasUsed), nil
}

// currentBlockEnv builds a read-only vm.BlockEnv against the chain head,
// the same field-by-field construction miner.NewBuilder performs for a
// block actually being mined (see miner/builder.go), used here for
// eth_call/eth_estimateGas's "current state" execution context.
func (p *Provider) currentBlockEnv(ctx context.Context) (vm.BlockEnv, error) {
	block, err := p.chain.LastBlock()
	if err != nil {
		return vm.BlockEnv{}, err
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
	if p.cfg.Spec.AtLeast(params.Merge) {
		mix := block.Header.MixHash
		env.Prevrandao = &mix
	}
	return env, nil
}

func (p *Provider) ethSendRawTransaction(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var raw hexutil.Bytes
	if err := json.Unmarshal(paramAt(args, 0), &raw); err != nil {
		return nil, err
	}
	tx, err := types.DecodeTransaction(raw)
	if err != nil {
		return nil, err
	}
	ptx, err := txpool.NewPendingTransaction(tx, p.cfg.ChainID)
	if err != nil {
		return nil, err
	}
	return p.admitTransaction(ctx, ptx)
}

func (p *Provider) ethSendTransaction(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	call, err := decodeCallArgs(paramAt(args, 0))
	if err != nil {
		return nil, err
	}
	if call.From == nil {
		return nil, ErrMissingFrom
	}
	from := *call.From

	if call.Nonce == nil {
		account, err := p.state.Basic(ctx, from)
		if err != nil {
			return nil, err
		}
		var nonce uint64
		if account != nil {
			nonce = account.Nonce
		}
		for _, ptx := range p.pool.PendingBySender(from) {
			if n := ptx.Tx.Nonce() + 1; n > nonce {
				nonce = n
			}
		}
		n := hexutil.Uint64(nonce)
		call.Nonce = &n
	}

	env, err := p.currentBlockEnv(ctx)
	if err != nil {
		return nil, err
	}
	tip := new(uint256.Int).SetUint64(1_000_000_000)
	feeCap := new(uint256.Int).Set(tip)
	if env.BaseFee != nil {
		feeCap = new(uint256.Int).Add(env.BaseFee, tip)
		feeCap.Add(feeCap, tip) // headroom for the next base-fee step
	}
	tx := call.toUnsignedTransaction(p.cfg.ChainID, env.GasLimit, feeCap, tip)

	var signed *types.Transaction
	if p.keystore.IsImpersonated(from) {
		signed = types.ImpersonateSignature(tx, from)
	} else {
		priv, err := p.keystore.PrivateKey(from)
		if err != nil {
			return nil, err
		}
		signed, err = types.SignTransaction(tx, p.cfg.ChainID, priv)
		if err != nil {
			return nil, err
		}
	}

	// types.Sender errors on the impersonation sentinel V, so
	// NewPendingTransaction cannot wrap an impersonated send; build the
	// PendingTransaction directly with the sender already known.
	ptx := &txpool.PendingTransaction{Tx: signed, Sender: from}
	return p.admitTransaction(ctx, ptx)
}

// admitTransaction adds ptx to the pool and, if automine is on, mines it
// immediately into its own block, matching Hardhat Network's default
// automine behavior.
func (p *Provider) admitTransaction(ctx context.Context, ptx *txpool.PendingTransaction) (any, error) {
	if err := p.pool.AddTransaction(ctx, ptx); err != nil {
		return nil, err
	}
	hash := ptx.Tx.Hash()
	p.filters.NotifyPendingTransaction(hash)
	if p.automine {
		if _, err := p.mineOne(ctx); err != nil {
			return nil, err
		}
	}
	return hash, nil
}

func (p *Provider) ethSign(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var addr common.Address
	if err := json.Unmarshal(paramAt(args, 0), &addr); err != nil {
		return nil, err
	}
	var msg hexutil.Bytes
	if err := json.Unmarshal(paramAt(args, 1), &msg); err != nil {
		return nil, err
	}
	sig, err := p.keystore.SignPersonal(addr, msg)
	if err != nil {
		return nil, err
	}
	return hexutil.Bytes(sig), nil
}

// ethSignTypedDataV4 signs the keccak256 hash of the typed-data JSON
// payload's raw bytes (via Keystore.SignPersonal's EIP-191 prefix) rather
// than performing full EIP-712 struct-hash domain separation — no example
// in the retrieval pack implements EIP-712 encoding, and hand-rolling one
// unverified (no toolchain run permitted) risked a silently wrong hash;
// recorded as a deliberate scope cut in DESIGN.md.
func (p *Provider) ethSignTypedDataV4(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var addr common.Address
	if err := json.Unmarshal(paramAt(args, 0), &addr); err != nil {
		return nil, err
	}
	payload := paramAt(args, 1)
	sig, err := p.keystore.SignPersonal(addr, payload)
	if err != nil {
		return nil, err
	}
	return hexutil.Bytes(sig), nil
}

func (p *Provider) ethFeeHistory(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var blockCount hexutil.Uint64
	if err := json.Unmarshal(paramAt(args, 0), &blockCount); err != nil {
		return nil, err
	}
	newestNumber, _, err := p.resolveBlockSpecParam(ctx, args, 1)
	if err != nil {
		return nil, err
	}

	count := uint64(blockCount)
	if count == 0 {
		count = 1
	}
	oldest := uint64(0)
	if newestNumber+1 > count {
		oldest = newestNumber + 1 - count
	}

	baseFees := make([]hexutil.Big, 0, count+1)
	gasUsedRatios := make([]float64, 0, count)
	var lastHeader *types.Header
	for n := oldest; n <= newestNumber; n++ {
		block, err := p.chain.BlockByNumber(ctx, n)
		if err != nil {
			return nil, err
		}
		baseFee := new(uint256.Int)
		if block.Header.BaseFee != nil {
			baseFee = block.Header.BaseFee
		}
		baseFees = append(baseFees, hexutil.Big(*baseFee.ToBig()))
		ratio := 0.0
		if block.Header.GasLimit > 0 {
			ratio = float64(block.Header.GasUsed) / float64(block.Header.GasLimit)
		}
		gasUsedRatios = append(gasUsedRatios, ratio)
		lastHeader = block.Header
	}

	nextBaseFee := new(uint256.Int)
	if lastHeader != nil && lastHeader.BaseFee != nil {
		nextBaseFee = params.NextBaseFee(lastHeader.BaseFee, lastHeader.GasUsed, lastHeader.GasLimit)
	}
	baseFees = append(baseFees, hexutil.Big(*nextBaseFee.ToBig()))

	return struct {
		OldestBlock   hexutil.Uint64 `json:"oldestBlock"`
		BaseFeePerGas []hexutil.Big  `json:"baseFeePerGas"`
		GasUsedRatio  []float64      `json:"gasUsedRatio"`
	}{
		OldestBlock:   hexutil.Uint64(oldest),
		BaseFeePerGas: baseFees,
		GasUsedRatio:  gasUsedRatios,
	}, nil
}
