package types

import "github.com/ethdevnode/edr/common"

// Log is a single event emitted by the EVM during execution. BlockHash,
// BlockNumber, TransactionIndex and LogIndex are populated once the log's
// transaction has been mined into a block; they are zero for logs returned
// from a dry run.
type Log struct {
	Address common.Address
	Topics   []common.Hash
	Data     []byte

	BlockNumber      uint64
	TransactionHash  common.Hash
	TransactionIndex uint
	BlockHash        common.Hash
	LogIndex         uint
	Removed          bool
}

// rlpLog is the RLP envelope for a log as embedded in a legacy receipt.
type rlpLog struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

func (l *Log) toRLP() rlpLog { return rlpLog{Address: l.Address, Topics: l.Topics, Data: l.Data} }
