package rawdb

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
)

// ChainReader is the ctx-qualified contract callers above this package
// (miner, internal/ethapi) use so they don't need to know whether they're
// talking to a LocalBlockchain (never suspends) or a ForkedBlockchain
// (suspends on remote fetches for numbers at or below its fork block).
// *ForkedBlockchain already satisfies this directly; localChainReader
// adapts *LocalBlockchain, whose methods predate context plumbing since a
// local-only chain never needs to cancel or time out a lookup.
type ChainReader interface {
	BlockByNumber(ctx context.Context, number uint64) (*types.Block, error)
	BlockByHash(ctx context.Context, hash common.Hash) (*types.Block, error)
	BlockByTransactionHash(ctx context.Context, hash common.Hash) (*types.Block, error)
	ReceiptByTransactionHash(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	LastBlock() (*types.Block, error)
	LastBlockNumber() uint64
	TotalDifficultyByHash(ctx context.Context, hash common.Hash) (*uint256.Int, error)
	InsertBlock(block *types.Block, receipts []*types.Receipt) error
	ReserveBlocks(count, interval uint64) error
	RevertToBlock(number uint64) error
}

type localChainReader struct{ *LocalBlockchain }

// NewLocalChainReader wraps lb as a ChainReader, ignoring the context on
// every call since a LocalBlockchain lookup never suspends.
func NewLocalChainReader(lb *LocalBlockchain) ChainReader { return localChainReader{lb} }

func (l localChainReader) BlockByNumber(_ context.Context, n uint64) (*types.Block, error) {
	return l.LocalBlockchain.BlockByNumber(n)
}

func (l localChainReader) BlockByHash(_ context.Context, h common.Hash) (*types.Block, error) {
	return l.LocalBlockchain.BlockByHash(h)
}

func (l localChainReader) BlockByTransactionHash(_ context.Context, h common.Hash) (*types.Block, error) {
	return l.LocalBlockchain.BlockByTransactionHash(h)
}

func (l localChainReader) ReceiptByTransactionHash(_ context.Context, h common.Hash) (*types.Receipt, error) {
	return l.LocalBlockchain.ReceiptByTransactionHash(h)
}

func (l localChainReader) TotalDifficultyByHash(_ context.Context, h common.Hash) (*uint256.Int, error) {
	return l.LocalBlockchain.TotalDifficultyByHash(h)
}

var _ ChainReader = localChainReader{}
var _ ChainReader = (*ForkedBlockchain)(nil)
