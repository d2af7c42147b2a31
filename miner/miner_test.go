package miner

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/rawdb"
	"github.com/ethdevnode/edr/core/state"
	"github.com/ethdevnode/edr/core/txpool"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/core/vm"
	"github.com/ethdevnode/edr/crypto"
	"github.com/ethdevnode/edr/params"
)

const testChainID = 31337

// testKey pairs a deterministic private key with its derived address,
// mirroring core/txpool's own ecdsaTestKey helper.
type testKey struct {
	priv *ecdsa.PrivateKey
	addr common.Address
}

func newMinerTestKey(t *testing.T, seed string) *testKey {
	t.Helper()
	d, ok := new(big.Int).SetString(seed, 16)
	require.True(t, ok)
	priv := &ecdsa.PrivateKey{D: d}

	probe := types.NewTx(&types.LegacyTx{
		Nonce: 0, GasPrice: new(uint256.Int).SetUint64(1), Gas: 21_000,
		To: &common.Address{0x01}, Value: new(uint256.Int),
	})
	signed, err := types.SignTransaction(probe, testChainID, priv)
	require.NoError(t, err)
	addr, err := types.Sender(signed, testChainID)
	require.NoError(t, err)
	return &testKey{priv: priv, addr: addr}
}

func genesisBlock() *types.Block {
	header := &types.Header{
		Number:     0,
		GasLimit:   30_000_000,
		Timestamp:  1,
		Difficulty: new(uint256.Int),
		BaseFee:    params.DefaultInitialBaseFee(),
	}
	return types.NewBlock(header, nil, nil)
}

type fakeAccountState struct{ st *state.StateDB }

func (f fakeAccountState) Basic(ctx context.Context, addr common.Address) (*types.Account, error) {
	return f.st.Basic(ctx, addr)
}

func newTestMiner(t *testing.T, st *state.StateDB, order Order, onMined func(*FinalizedBlock)) (*Miner, *txpool.Pool) {
	t.Helper()
	chain := rawdb.NewLocalChainReader(rawdb.NewLocalBlockchain(0))
	require.NoError(t, chain.InsertBlock(genesisBlock(), nil))

	pool := txpool.New(txpool.Config{ChainID: testChainID, BlockGasLimit: 30_000_000}, fakeAccountState{st: st})
	exec := vm.NewExecutor(vm.NoopInterpreter{})
	m := New(chain, pool, st, exec, Config{ChainID: testChainID, Spec: params.Shanghai}, order, onMined)
	return m, pool
}

func TestMineBlockLocalValueTransfer(t *testing.T) {
	ctx := context.Background()
	st := state.New(state.NewLocalBacking(), state.NewContractStorage(), fastcache.New(1<<16))

	key := newMinerTestKey(t, "1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcd")
	recipient := common.Address{0x02}

	senderBalance, ok := new(uint256.Int).SetString("10000000000000000000")
	require.True(t, ok)
	st.InsertAccount(key.addr, types.Account{Balance: senderBalance, Nonce: 0, CodeHash: crypto.EmptyCodeHash})

	var mined *FinalizedBlock
	m, pool := newTestMiner(t, st, FIFOOrder{}, func(fb *FinalizedBlock) { mined = fb })

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: new(uint256.Int).SetUint64(1_000_000_000),
		Gas:      21_000,
		To:       &recipient,
		Value:    new(uint256.Int).SetUint64(1_000_000_000_000_000_000),
	})
	signed, err := types.SignTransaction(tx, testChainID, key.priv)
	require.NoError(t, err)
	ptx, err := txpool.NewPendingTransaction(signed, testChainID)
	require.NoError(t, err)
	require.NoError(t, pool.AddTransaction(ctx, ptx))

	finalized, err := m.MineBlock(ctx, HeaderOverrides{}, Rewards{MinerReward: BlockReward(params.Shanghai)})
	require.NoError(t, err)
	require.Len(t, finalized.Block.Transactions, 1)
	require.Equal(t, uint64(1), finalized.Block.Header.Number)
	require.NotNil(t, mined)
	require.Same(t, finalized, mined)

	balance, err := st.Basic(ctx, recipient)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000_000_000_000), balance.Balance.Uint64())

	require.Len(t, finalized.Receipts, 1)
	require.Equal(t, types.ReceiptStatusSuccessful, finalized.Receipts[0].Status)
}

func TestMineBlockSkipsTransactionExceedingGasLimit(t *testing.T) {
	ctx := context.Background()
	st := state.New(state.NewLocalBacking(), state.NewContractStorage(), fastcache.New(1<<16))

	key := newMinerTestKey(t, "abcdef1234567890abcdef1234567890abcdef1234567890abcdef12345678")
	recipient := common.Address{0x03}

	balance, ok := new(uint256.Int).SetString("10000000000000000000")
	require.True(t, ok)
	st.InsertAccount(key.addr, types.Account{Balance: balance, Nonce: 0, CodeHash: crypto.EmptyCodeHash})

	m, pool := newTestMiner(t, st, FIFOOrder{}, nil)

	oversized := types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: new(uint256.Int).SetUint64(1_000_000_000),
		Gas:      30_000_001,
		To:       &recipient,
		Value:    new(uint256.Int),
	})
	signed, err := types.SignTransaction(oversized, testChainID, key.priv)
	require.NoError(t, err)
	ptx, err := txpool.NewPendingTransaction(signed, testChainID)
	require.NoError(t, err)
	require.ErrorIs(t, pool.AddTransaction(ctx, ptx), txpool.ErrExceedsBlockGasLimit)

	finalized, err := m.MineBlock(ctx, HeaderOverrides{}, Rewards{})
	require.NoError(t, err)
	require.Empty(t, finalized.Block.Transactions)
}

func TestOrderSelectionFIFOPreservesMempoolOrder(t *testing.T) {
	low := &txpool.PendingTransaction{Tx: types.NewTx(&types.LegacyTx{GasPrice: new(uint256.Int).SetUint64(1)})}
	high := &txpool.PendingTransaction{Tx: types.NewTx(&types.LegacyTx{GasPrice: new(uint256.Int).SetUint64(2)})}

	out := FIFOOrder{}.Select([]*txpool.PendingTransaction{low, high}, new(uint256.Int))
	require.Equal(t, []*txpool.PendingTransaction{low, high}, out)
}

func TestOrderSelectionPrioritySortsByEffectiveTip(t *testing.T) {
	low := &txpool.PendingTransaction{Tx: types.NewTx(&types.LegacyTx{GasPrice: new(uint256.Int).SetUint64(1)})}
	high := &txpool.PendingTransaction{Tx: types.NewTx(&types.LegacyTx{GasPrice: new(uint256.Int).SetUint64(5)})}

	out := PriorityOrder{}.Select([]*txpool.PendingTransaction{low, high}, new(uint256.Int))
	require.Equal(t, []*txpool.PendingTransaction{high, low}, out)
}

func TestBuilderRejectsNonIncreasingTimestamp(t *testing.T) {
	st := state.New(state.NewLocalBacking(), state.NewContractStorage(), fastcache.New(1<<16))
	exec := vm.NewExecutor(vm.NoopInterpreter{})
	parent := &types.Header{Number: 0, Timestamp: 100, GasLimit: 30_000_000, Difficulty: new(uint256.Int), BaseFee: params.DefaultInitialBaseFee()}

	ts := uint64(50)
	_, err := NewBuilder(parent, HeaderOverrides{Timestamp: &ts}, Config{ChainID: testChainID, Spec: params.Shanghai}, st, exec)
	require.ErrorIs(t, err, ErrTimestampLowerThanPrevious)

	sameTs := uint64(100)
	_, err = NewBuilder(parent, HeaderOverrides{Timestamp: &sameTs}, Config{ChainID: testChainID, Spec: params.Shanghai}, st, exec)
	require.ErrorIs(t, err, ErrTimestampEqualsPrevious)

	_, err = NewBuilder(parent, HeaderOverrides{Timestamp: &sameTs, AllowBlocksWithSameTimestamp: true}, Config{ChainID: testChainID, Spec: params.Shanghai}, st, exec)
	require.NoError(t, err)
}
