package remote

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/core/types"
)

// ErrUnsupportedTransactionType is returned when a remote block carries a
// transaction envelope this client does not know how to decode: any type
// other than legacy, EIP-2930 and EIP-1559, including EIP-4844 blob
// transactions (type 0x3).
var ErrUnsupportedTransactionType = errors.New("remote: unrecognized transaction type")

// wireAccessTuple/wireAccessList mirror the eth_getBlockByNumber JSON
// access-list shape.
type wireAccessTuple struct {
	Address     common.Address `json:"address"`
	StorageKeys []common.Hash  `json:"storageKeys"`
}

func (t wireAccessTuple) toTuple() types.AccessTuple {
	return types.AccessTuple{Address: t.Address, StorageKeys: t.StorageKeys}
}

// wireTransaction is the per-transaction JSON shape returned embedded in
// a full block or by eth_getTransactionByHash.
type wireTransaction struct {
	Type       *hexutil.Uint64   `json:"type"`
	Nonce      hexutil.Uint64    `json:"nonce"`
	To         *common.Address   `json:"to"`
	Value      hexutil.Big       `json:"value"`
	Gas        hexutil.Uint64    `json:"gas"`
	GasPrice   *hexutil.Big      `json:"gasPrice"`
	GasTipCap  *hexutil.Big      `json:"maxPriorityFeePerGas"`
	GasFeeCap  *hexutil.Big      `json:"maxFeePerGas"`
	Input      hexutil.Bytes     `json:"input"`
	ChainID    *hexutil.Big      `json:"chainId"`
	AccessList []wireAccessTuple `json:"accessList"`
	V          hexutil.Big       `json:"v"`
	R          hexutil.Big       `json:"r"`
	S          hexutil.Big       `json:"s"`
	BlockHash  *common.Hash      `json:"blockHash"`
}

func u256(b hexutil.Big) *uint256.Int {
	v, _ := uint256.FromBig(b.ToInt())
	return v
}

func u256Ptr(b *hexutil.Big) *uint256.Int {
	if b == nil {
		return nil
	}
	return u256(*b)
}

func toAccessList(wires []wireAccessTuple) types.AccessList {
	if wires == nil {
		return nil
	}
	out := make(types.AccessList, len(wires))
	for i, w := range wires {
		out[i] = w.toTuple()
	}
	return out
}

func (w *wireTransaction) toTransaction() (*types.Transaction, error) {
	typ := types.LegacyTxType
	if w.Type != nil {
		typ = types.TxType(*w.Type)
	}

	switch typ {
	case types.LegacyTxType:
		return types.NewTx(&types.LegacyTx{
			Nonce:    uint64(w.Nonce),
			GasPrice: u256Ptr(w.GasPrice),
			Gas:      uint64(w.Gas),
			To:       w.To,
			Value:    u256(w.Value),
			Data:     w.Input,
			V:        u256(w.V), R: u256(w.R), S: u256(w.S),
		}), nil
	case types.AccessListTxType:
		return types.NewTx(&types.AccessListTx{
			ChainID:    u256Ptr(w.ChainID),
			Nonce:      uint64(w.Nonce),
			GasPrice:   u256Ptr(w.GasPrice),
			Gas:        uint64(w.Gas),
			To:         w.To,
			Value:      u256(w.Value),
			Data:       w.Input,
			AccessList: toAccessList(w.AccessList),
			V:          u256(w.V), R: u256(w.R), S: u256(w.S),
		}), nil
	case types.DynamicFeeTxType:
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:    u256Ptr(w.ChainID),
			Nonce:      uint64(w.Nonce),
			GasTipCap:  u256Ptr(w.GasTipCap),
			GasFeeCap:  u256Ptr(w.GasFeeCap),
			Gas:        uint64(w.Gas),
			To:         w.To,
			Value:      u256(w.Value),
			Data:       w.Input,
			AccessList: toAccessList(w.AccessList),
			V:          u256(w.V), R: u256(w.R), S: u256(w.S),
		}), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedTransactionType, "type 0x%x", byte(typ))
	}
}

type wireWithdrawal struct {
	Index          hexutil.Uint64 `json:"index"`
	ValidatorIndex hexutil.Uint64 `json:"validatorIndex"`
	Address        common.Address `json:"address"`
	Amount         hexutil.Uint64 `json:"amount"`
}

func (w wireWithdrawal) toWithdrawal() *types.Withdrawal {
	return &types.Withdrawal{
		Index:          uint64(w.Index),
		ValidatorIndex: uint64(w.ValidatorIndex),
		Address:        w.Address,
		Amount:         uint64(w.Amount),
	}
}

// wireBlock is the eth_getBlockByNumber/eth_getBlockByHash (full-transaction
// form) JSON shape.
type wireBlock struct {
	ParentHash       common.Hash        `json:"parentHash"`
	Sha3Uncles       common.Hash        `json:"sha3Uncles"`
	Miner            common.Address     `json:"miner"`
	StateRoot        common.Hash        `json:"stateRoot"`
	TransactionsRoot common.Hash        `json:"transactionsRoot"`
	ReceiptsRoot     common.Hash        `json:"receiptsRoot"`
	LogsBloom        hexutil.Bytes      `json:"logsBloom"`
	Difficulty       hexutil.Big        `json:"difficulty"`
	Number           hexutil.Uint64     `json:"number"`
	GasLimit         hexutil.Uint64     `json:"gasLimit"`
	GasUsed          hexutil.Uint64     `json:"gasUsed"`
	Timestamp        hexutil.Uint64     `json:"timestamp"`
	ExtraData        hexutil.Bytes      `json:"extraData"`
	MixHash          common.Hash        `json:"mixHash"`
	Nonce            hexutil.Bytes      `json:"nonce"`
	BaseFeePerGas    *hexutil.Big       `json:"baseFeePerGas"`
	WithdrawalsRoot  *common.Hash       `json:"withdrawalsRoot"`
	TotalDifficulty  *hexutil.Big       `json:"totalDifficulty"`
	Transactions     []wireTransaction  `json:"transactions"`
	Withdrawals      []wireWithdrawal   `json:"withdrawals"`
}

func (w *wireBlock) toBlock() (*types.Block, error) {
	header := &types.Header{
		ParentHash:       w.ParentHash,
		OmmersHash:       w.Sha3Uncles,
		Coinbase:         w.Miner,
		StateRoot:        w.StateRoot,
		TransactionsRoot: w.TransactionsRoot,
		ReceiptsRoot:     w.ReceiptsRoot,
		Difficulty:       u256(w.Difficulty),
		Number:           uint64(w.Number),
		GasLimit:         uint64(w.GasLimit),
		GasUsed:          uint64(w.GasUsed),
		Timestamp:        uint64(w.Timestamp),
		ExtraData:        w.ExtraData,
		MixHash:          w.MixHash,
		BaseFee:          u256Ptr(w.BaseFeePerGas),
		WithdrawalsRoot:  w.WithdrawalsRoot,
	}
	copy(header.LogsBloom[:], w.LogsBloom)
	copy(header.Nonce[:], w.Nonce)

	txs := make([]*types.Transaction, len(w.Transactions))
	for i := range w.Transactions {
		tx, err := w.Transactions[i].toTransaction()
		if err != nil {
			return nil, err
		}
		txs[i] = tx
	}

	var withdrawals []*types.Withdrawal
	if w.Withdrawals != nil {
		withdrawals = make([]*types.Withdrawal, len(w.Withdrawals))
		for i, wd := range w.Withdrawals {
			withdrawals[i] = wd.toWithdrawal()
		}
	}

	return types.NewBlock(header, txs, withdrawals), nil
}

// wireLog is the eth_getTransactionReceipt/eth_getLogs JSON log shape.
type wireLog struct {
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

func (l wireLog) toLog() *types.Log {
	return &types.Log{
		Address:          l.Address,
		Topics:           l.Topics,
		Data:             l.Data,
		BlockNumber:      uint64(l.BlockNumber),
		TransactionHash:  l.TransactionHash,
		TransactionIndex: uint(l.TransactionIndex),
		BlockHash:        l.BlockHash,
		LogIndex:         uint(l.LogIndex),
		Removed:          l.Removed,
	}
}

// wireReceipt is the eth_getTransactionReceipt JSON shape.
type wireReceipt struct {
	Status            *hexutil.Uint64 `json:"status"`
	CumulativeGasUsed hexutil.Uint64  `json:"cumulativeGasUsed"`
	LogsBloom         hexutil.Bytes   `json:"logsBloom"`
	Logs              []wireLog       `json:"logs"`
	TransactionHash   common.Hash     `json:"transactionHash"`
	ContractAddress   *common.Address `json:"contractAddress"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	EffectiveGasPrice *hexutil.Big    `json:"effectiveGasPrice"`
	BlockHash         common.Hash     `json:"blockHash"`
	BlockNumber       hexutil.Uint64  `json:"blockNumber"`
	TransactionIndex  hexutil.Uint64  `json:"transactionIndex"`
	Type              *hexutil.Uint64 `json:"type"`
}

func (r *wireReceipt) toReceipt() *types.Receipt {
	status := types.ReceiptStatusSuccessful
	if r.Status != nil {
		status = uint64(*r.Status)
	}
	var contractAddr common.Address
	if r.ContractAddress != nil {
		contractAddr = *r.ContractAddress
	}
	logs := make([]*types.Log, len(r.Logs))
	for i, l := range r.Logs {
		logs[i] = l.toLog()
	}
	var typ types.TxType
	if r.Type != nil {
		typ = types.TxType(*r.Type)
	}
	return &types.Receipt{
		Type:              typ,
		Status:            status,
		CumulativeGasUsed: uint64(r.CumulativeGasUsed),
		Bloom:             types.CreateBloom(logs),
		Logs:              logs,
		TxHash:            r.TransactionHash,
		ContractAddress:   contractAddr,
		GasUsed:           uint64(r.GasUsed),
		EffectiveGasPrice: u256Ptr(r.EffectiveGasPrice),
		BlockHash:         r.BlockHash,
		BlockNumber:       uint64(r.BlockNumber),
		TransactionIndex:  uint(r.TransactionIndex),
	}
}

func decodeInto[T any](raw json.RawMessage, out *T) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errors.New("remote: empty result")
	}
	return json.Unmarshal(raw, out)
}
