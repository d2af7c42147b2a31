package ethapi

import (
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/core/types"
)

// The structs below are this node's outbound EIP-1474 JSON shapes,
// mirroring the field names internal/remote/wire.go decodes on the way
// in. core/types carries no JSON tags of its own (see that package's
// doc comment: its wire format is RLP, via EncodeRLP/DecodeRLP), so both
// directions of JSON conversion live in their respective callers instead.

type accessTupleJSON struct {
	Address     common.Address `json:"address"`
	StorageKeys []common.Hash  `json:"storageKeys"`
}

func accessListJSON(al types.AccessList) []accessTupleJSON {
	if al == nil {
		return nil
	}
	out := make([]accessTupleJSON, len(al))
	for i, t := range al {
		out[i] = accessTupleJSON{Address: t.Address, StorageKeys: t.StorageKeys}
	}
	return out
}

// transactionResult is one transaction as it appears embedded in a full
// block or returned by eth_getTransactionByHash.
type transactionResult struct {
	Hash             common.Hash       `json:"hash"`
	Type             hexutil.Uint64    `json:"type"`
	Nonce            hexutil.Uint64    `json:"nonce"`
	From             common.Address    `json:"from"`
	To               *common.Address   `json:"to"`
	Value            hexutil.Big       `json:"value"`
	Gas              hexutil.Uint64    `json:"gas"`
	GasPrice         hexutil.Big       `json:"gasPrice"`
	GasFeeCap        *hexutil.Big      `json:"maxFeePerGas,omitempty"`
	GasTipCap        *hexutil.Big      `json:"maxPriorityFeePerGas,omitempty"`
	Input            hexutil.Bytes     `json:"input"`
	ChainID          *hexutil.Big      `json:"chainId,omitempty"`
	AccessList       []accessTupleJSON `json:"accessList,omitempty"`
	V                hexutil.Big       `json:"v"`
	R                hexutil.Big       `json:"r"`
	S                hexutil.Big       `json:"s"`
	BlockHash        *common.Hash      `json:"blockHash"`
	BlockNumber      *hexutil.Uint64   `json:"blockNumber"`
	TransactionIndex *hexutil.Uint64   `json:"transactionIndex"`
}

func bigFromU256(v *uint256.Int) hexutil.Big {
	if v == nil {
		return hexutil.Big{}
	}
	return hexutil.Big(*v.ToBig())
}

func bigPtrFromU256(v *uint256.Int) *hexutil.Big {
	if v == nil {
		return nil
	}
	b := hexutil.Big(*v.ToBig())
	return &b
}

// transactionToJSON converts a signed transaction into its wire shape.
// sender must already be known (recovered at pool-admission time, or
// tracked out of band for an impersonated sender); blockHash/blockNumber/
// index are nil for a still-pending transaction.
func transactionToJSON(tx *types.Transaction, sender common.Address, blockHash *common.Hash, blockNumber *uint64, index *uint64) transactionResult {
	v, r, s := tx.RawSignatureValues()
	out := transactionResult{
		Hash:      tx.Hash(),
		Type:      hexutil.Uint64(tx.Type()),
		Nonce:     hexutil.Uint64(tx.Nonce()),
		From:      sender,
		To:        tx.To(),
		Value:     bigFromU256(tx.Value()),
		Gas:       hexutil.Uint64(tx.Gas()),
		GasPrice:  bigFromU256(tx.GasPrice()),
		Input:     hexutil.Bytes(tx.Data()),
		V:         bigFromU256(v),
		R:         bigFromU256(r),
		S:         bigFromU256(s),
		BlockHash: blockHash,
	}
	if blockNumber != nil {
		n := hexutil.Uint64(*blockNumber)
		out.BlockNumber = &n
	}
	if index != nil {
		i := hexutil.Uint64(*index)
		out.TransactionIndex = &i
	}
	if tx.Type() != types.LegacyTxType {
		out.ChainID = bigPtrFromU256(tx.ChainID())
		out.AccessList = accessListJSON(tx.AccessList())
	}
	if tx.Type() == types.DynamicFeeTxType || tx.Type() == types.BlobTxType {
		out.GasFeeCap = bigPtrFromU256(tx.GasFeeCap())
		out.GasTipCap = bigPtrFromU256(tx.GasTipCap())
	}
	return out
}

type withdrawalResult struct {
	Index          hexutil.Uint64 `json:"index"`
	ValidatorIndex hexutil.Uint64 `json:"validatorIndex"`
	Address        common.Address `json:"address"`
	Amount         hexutil.Uint64 `json:"amount"`
}

func withdrawalsToJSON(ws []*types.Withdrawal) []withdrawalResult {
	if ws == nil {
		return nil
	}
	out := make([]withdrawalResult, len(ws))
	for i, w := range ws {
		out[i] = withdrawalResult{
			Index:          hexutil.Uint64(w.Index),
			ValidatorIndex: hexutil.Uint64(w.ValidatorIndex),
			Address:        w.Address,
			Amount:         hexutil.Uint64(w.Amount),
		}
	}
	return out
}

// blockResult is eth_getBlockByNumber/eth_getBlockByHash's result shape.
// Transactions is either a list of 32-byte hashes or full transactionResult
// objects depending on the request's fullTx flag.
type blockResult struct {
	Number           hexutil.Uint64     `json:"number"`
	Hash             common.Hash        `json:"hash"`
	ParentHash       common.Hash        `json:"parentHash"`
	Sha3Uncles       common.Hash        `json:"sha3Uncles"`
	Miner            common.Address     `json:"miner"`
	StateRoot        common.Hash        `json:"stateRoot"`
	TransactionsRoot common.Hash        `json:"transactionsRoot"`
	ReceiptsRoot     common.Hash        `json:"receiptsRoot"`
	LogsBloom        hexutil.Bytes      `json:"logsBloom"`
	Difficulty       hexutil.Big        `json:"difficulty"`
	ExtraData        hexutil.Bytes      `json:"extraData"`
	GasLimit         hexutil.Uint64     `json:"gasLimit"`
	GasUsed          hexutil.Uint64     `json:"gasUsed"`
	Timestamp        hexutil.Uint64     `json:"timestamp"`
	MixHash          common.Hash        `json:"mixHash"`
	Nonce            hexutil.Bytes      `json:"nonce"`
	BaseFeePerGas    *hexutil.Big       `json:"baseFeePerGas,omitempty"`
	WithdrawalsRoot  *common.Hash       `json:"withdrawalsRoot,omitempty"`
	TotalDifficulty  *hexutil.Big       `json:"totalDifficulty,omitempty"`
	Transactions     []any              `json:"transactions"`
	Withdrawals      []withdrawalResult `json:"withdrawals,omitempty"`
}

func blockToJSON(block *types.Block, totalDifficulty *uint256.Int, senderOf func(*types.Transaction) common.Address, fullTx bool) *blockResult {
	h := block.Header
	hash := block.Hash()
	out := &blockResult{
		Number:           hexutil.Uint64(h.Number),
		Hash:             hash,
		ParentHash:       h.ParentHash,
		Sha3Uncles:       h.OmmersHash,
		Miner:            h.Coinbase,
		StateRoot:        h.StateRoot,
		TransactionsRoot: h.TransactionsRoot,
		ReceiptsRoot:     h.ReceiptsRoot,
		LogsBloom:        hexutil.Bytes(h.LogsBloom[:]),
		Difficulty:       bigFromU256(h.Difficulty),
		ExtraData:        hexutil.Bytes(h.ExtraData),
		GasLimit:         hexutil.Uint64(h.GasLimit),
		GasUsed:          hexutil.Uint64(h.GasUsed),
		Timestamp:        hexutil.Uint64(h.Timestamp),
		MixHash:          h.MixHash,
		Nonce:            hexutil.Bytes(h.Nonce[:]),
		BaseFeePerGas:    bigPtrFromU256(h.BaseFee),
		WithdrawalsRoot:  h.WithdrawalsRoot,
		TotalDifficulty:  bigPtrFromU256(totalDifficulty),
		Withdrawals:      withdrawalsToJSON(block.Withdrawals),
	}
	out.Transactions = make([]any, len(block.Transactions))
	for i, tx := range block.Transactions {
		if !fullTx {
			out.Transactions[i] = tx.Hash()
			continue
		}
		idx := uint64(i)
		out.Transactions[i] = transactionToJSON(tx, senderOf(tx), &hash, &h.Number, &idx)
	}
	return out
}

type logResult struct {
	Address          common.Address `json:"address"`
	Topics           []common.Hash  `json:"topics"`
	Data             hexutil.Bytes  `json:"data"`
	BlockNumber      hexutil.Uint64 `json:"blockNumber"`
	TransactionHash  common.Hash    `json:"transactionHash"`
	TransactionIndex hexutil.Uint64 `json:"transactionIndex"`
	BlockHash        common.Hash    `json:"blockHash"`
	LogIndex         hexutil.Uint64 `json:"logIndex"`
	Removed          bool           `json:"removed"`
}

func logToJSON(l *types.Log) logResult {
	return logResult{
		Address:          l.Address,
		Topics:           l.Topics,
		Data:             hexutil.Bytes(l.Data),
		BlockNumber:      hexutil.Uint64(l.BlockNumber),
		TransactionHash:  l.TransactionHash,
		TransactionIndex: hexutil.Uint64(l.TransactionIndex),
		BlockHash:        l.BlockHash,
		LogIndex:         hexutil.Uint64(l.LogIndex),
		Removed:          l.Removed,
	}
}

func logsToJSON(logs []*types.Log) []logResult {
	out := make([]logResult, len(logs))
	for i, l := range logs {
		out[i] = logToJSON(l)
	}
	return out
}

type receiptResult struct {
	TransactionHash   common.Hash     `json:"transactionHash"`
	TransactionIndex  hexutil.Uint64  `json:"transactionIndex"`
	BlockHash         common.Hash     `json:"blockHash"`
	BlockNumber       hexutil.Uint64  `json:"blockNumber"`
	From              common.Address  `json:"from"`
	To                *common.Address `json:"to"`
	CumulativeGasUsed hexutil.Uint64  `json:"cumulativeGasUsed"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	ContractAddress   *common.Address `json:"contractAddress"`
	Logs              []logResult     `json:"logs"`
	LogsBloom         hexutil.Bytes   `json:"logsBloom"`
	Type              hexutil.Uint64  `json:"type"`
	Status            *hexutil.Uint64 `json:"status,omitempty"`
	EffectiveGasPrice hexutil.Big     `json:"effectiveGasPrice"`
}

func receiptToJSON(r *types.Receipt, from common.Address, to *common.Address) *receiptResult {
	out := &receiptResult{
		TransactionHash:   r.TxHash,
		TransactionIndex:  hexutil.Uint64(r.TransactionIndex),
		BlockHash:         r.BlockHash,
		BlockNumber:       hexutil.Uint64(r.BlockNumber),
		From:              from,
		To:                to,
		CumulativeGasUsed: hexutil.Uint64(r.CumulativeGasUsed),
		GasUsed:           hexutil.Uint64(r.GasUsed),
		Logs:              logsToJSON(r.Logs),
		LogsBloom:         hexutil.Bytes(r.Bloom[:]),
		Type:              hexutil.Uint64(r.Type),
		EffectiveGasPrice: bigFromU256(r.EffectiveGasPrice),
	}
	if r.ContractAddress != (common.Address{}) {
		addr := r.ContractAddress
		out.ContractAddress = &addr
	}
	status := hexutil.Uint64(r.Status)
	out.Status = &status
	return out
}
