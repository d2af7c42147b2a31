package rawdb

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
)

type fakeRemoteBlockProvider struct {
	blocksByNumber map[uint64]*types.Block
	blocksByHash   map[common.Hash]*types.Block
	txToBlock      map[common.Hash]*types.Block
	receipts       map[common.Hash]*types.Receipt
	totalDiff      map[common.Hash]*uint256.Int

	calls int
}

func (f *fakeRemoteBlockProvider) BlockByNumber(ctx context.Context, n uint64) (*types.Block, error) {
	f.calls++
	b, ok := f.blocksByNumber[n]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return b, nil
}

func (f *fakeRemoteBlockProvider) BlockByHash(ctx context.Context, h common.Hash) (*types.Block, error) {
	f.calls++
	b, ok := f.blocksByHash[h]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return b, nil
}

func (f *fakeRemoteBlockProvider) TransactionByHash(ctx context.Context, h common.Hash) (*types.Block, error) {
	f.calls++
	b, ok := f.txToBlock[h]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return b, nil
}

func (f *fakeRemoteBlockProvider) ReceiptByTransactionHash(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	f.calls++
	r, ok := f.receipts[h]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return r, nil
}

func (f *fakeRemoteBlockProvider) TotalDifficultyByHash(ctx context.Context, h common.Hash) (*uint256.Int, error) {
	f.calls++
	td, ok := f.totalDiff[h]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return td, nil
}

func TestForkedBlockchainDelegatesAtOrBelowForkBlock(t *testing.T) {
	remoteTx := legacyTx(t, 0)
	remoteBlock := mustBlock(t, 100, common.Hash{}, 1000, []*types.Transaction{remoteTx})
	remote := &fakeRemoteBlockProvider{
		blocksByNumber: map[uint64]*types.Block{100: remoteBlock},
		blocksByHash:   map[common.Hash]*types.Block{remoteBlock.Hash(): remoteBlock},
		txToBlock:      map[common.Hash]*types.Block{remoteTx.Hash(): remoteBlock},
		receipts:       map[common.Hash]*types.Receipt{remoteTx.Hash(): {Status: types.ReceiptStatusSuccessful}},
		totalDiff:      map[common.Hash]*uint256.Int{remoteBlock.Hash(): new(uint256.Int).SetUint64(5000)},
	}
	fc, err := NewForkedBlockchain(remote, 100)
	require.NoError(t, err)

	ctx := context.Background()
	b, err := fc.BlockByNumber(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, remoteBlock.Hash(), b.Hash())
	require.Equal(t, 1, remote.calls)

	// Second lookup hits the cache, not the remote again.
	_, err = fc.BlockByNumber(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, 1, remote.calls)

	byHash, err := fc.BlockByHash(ctx, remoteBlock.Hash())
	require.NoError(t, err)
	require.Equal(t, remoteBlock.Hash(), byHash.Hash())

	byTx, err := fc.BlockByTransactionHash(ctx, remoteTx.Hash())
	require.NoError(t, err)
	require.Equal(t, remoteBlock.Hash(), byTx.Hash())

	receipt, err := fc.ReceiptByTransactionHash(ctx, remoteTx.Hash())
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

	td, err := fc.TotalDifficultyByHash(ctx, remoteBlock.Hash())
	require.NoError(t, err)
	require.Equal(t, uint64(5000), td.Uint64())
}

func TestForkedBlockchainLocalOverlayPastForkBlock(t *testing.T) {
	remote := &fakeRemoteBlockProvider{}
	fc, err := NewForkedBlockchain(remote, 100)
	require.NoError(t, err)

	genesis := mustBlock(t, 101, common.Hash{}, 0, nil)
	require.NoError(t, fc.InsertBlock(genesis, nil))
	require.Equal(t, uint64(101), fc.LastBlockNumber())

	ctx := context.Background()
	b, err := fc.BlockByNumber(ctx, 101)
	require.NoError(t, err)
	require.Equal(t, genesis.Hash(), b.Hash())
	require.Zero(t, remote.calls)
}

func TestForkedBlockchainRevertAtOrBelowForkBlockFails(t *testing.T) {
	remote := &fakeRemoteBlockProvider{}
	fc, err := NewForkedBlockchain(remote, 100)
	require.NoError(t, err)
	require.ErrorIs(t, fc.RevertToBlock(100), ErrRevertBelowForkBlock)
	require.ErrorIs(t, fc.RevertToBlock(50), ErrRevertBelowForkBlock)
}
