package types

import (
	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/rlp"
)

// Receipt statuses, per EIP-658 (post-Byzantium receipts carry a status
// byte instead of an intermediate state root).
const (
	ReceiptStatusFailed    = uint64(0)
	ReceiptStatusSuccessful = uint64(1)
)

var ErrEmptyTypedReceipt = errors.New("types: empty typed receipt")

// Receipt is the consensus outcome of one transaction: whether it
// succeeded, how much cumulative gas the block had used afterward, its
// log bloom, and its logs. Fields below CumulativeGasUsed/Logs/Bloom are
// execution-context metadata, not part of the receipt's RLP/consensus
// encoding, and are populated once the receipt is attached to a mined
// block.
type Receipt struct {
	Type              TxType
	Status            uint64
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []*Log

	TxHash            common.Hash
	ContractAddress   common.Address
	GasUsed           uint64
	EffectiveGasPrice *uint256.Int
	BlockHash         common.Hash
	BlockNumber       uint64
	TransactionIndex  uint
}

// rlpReceipt mirrors the consensus-encoded fields of a Receipt (the
// post-EIP-658 shape: status, not an intermediate state root).
type rlpReceipt struct {
	Status            uint64
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []rlpLog
}

func (r *Receipt) toRLP() rlpReceipt {
	logs := make([]rlpLog, len(r.Logs))
	for i, l := range r.Logs {
		logs[i] = l.toRLP()
	}
	return rlpReceipt{
		Status:            r.Status,
		CumulativeGasUsed: r.CumulativeGasUsed,
		Bloom:             r.Bloom,
		Logs:              logs,
	}
}

// EncodeConsensus returns the receipt's consensus encoding: the bare RLP
// list for a legacy (type 0) receipt, or `type ++ rlp(payload)` for a
// typed one, mirroring Transaction.Envelope.
func (r *Receipt) EncodeConsensus() ([]byte, error) {
	payload, err := rlp.EncodeToBytes(r.toRLP())
	if err != nil {
		return nil, err
	}
	if r.Type == LegacyTxType {
		return payload, nil
	}
	return append([]byte{byte(r.Type)}, payload...), nil
}

// DecodeReceiptConsensus reverses EncodeConsensus.
func DecodeReceiptConsensus(b []byte) (*Receipt, error) {
	if len(b) == 0 {
		return nil, ErrEmptyTypedReceipt
	}
	var typ TxType
	payload := b
	if b[0] < 0x80 {
		typ = TxType(b[0])
		payload = b[1:]
	}
	var rr rlpReceipt
	if err := rlp.DecodeBytes(payload, &rr); err != nil {
		return nil, err
	}
	logs := make([]*Log, len(rr.Logs))
	for i, l := range rr.Logs {
		logs[i] = &Log{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return &Receipt{
		Type:              typ,
		Status:            rr.Status,
		CumulativeGasUsed: rr.CumulativeGasUsed,
		Bloom:             rr.Bloom,
		Logs:              logs,
	}, nil
}
