package ethapi

import (
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
	"github.com/ethdevnode/edr/internal/filters"
	"github.com/ethdevnode/edr/miner"
	"github.com/ethdevnode/edr/params"
)

const testChainID = 31337

const testMnemonic = "test test test test test test test test test test test junk"

func genesisHeaderForTest() *types.Header {
	return &types.Header{
		Number:     0,
		GasLimit:   30_000_000,
		Timestamp:  1,
		Difficulty: new(uint256.Int),
		BaseFee:    params.DefaultInitialBaseFee(),
	}
}

// providerTestKey pairs a deterministic private key with its derived
// address, mirroring core/txpool's and miner's own test key helpers.
type providerTestKey struct {
	priv *ecdsa.PrivateKey
	addr common.Address
}

func newProviderTestKey(t *testing.T, seed string) providerTestKey {
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
	return providerTestKey{priv: priv, addr: addr}
}

// testProvider wraps a fully-wired Provider with the pieces a test needs
// to reach into its state directly.
type testProvider struct {
	*Provider
	chain rawdb.ChainReader
	state *state.StateDB
	pool  *txpool.Pool
}

// newTestProvider wires a Provider against a fresh local chain and state
// the same way miner_test.go wires a *Miner, with automine left enabled
// (the provider's default) and interval mining disabled.
func newTestProvider(t *testing.T) *testProvider {
	t.Helper()
	st := state.New(state.NewLocalBacking(), state.NewContractStorage(), fastcache.New(1<<16))
	chain := rawdb.NewLocalChainReader(rawdb.NewLocalBlockchain(0))
	require.NoError(t, chain.InsertBlock(types.NewBlock(genesisHeaderForTest(), nil, nil), nil))

	pool := txpool.New(txpool.Config{ChainID: testChainID, BlockGasLimit: 30_000_000}, st)
	exec := vm.NewExecutor(vm.NoopInterpreter{})
	m := miner.New(chain, pool, st, exec, miner.Config{ChainID: testChainID, Spec: params.Shanghai}, miner.FIFOOrder{}, nil)

	keystore, err := NewKeystore(testMnemonic, 3)
	require.NoError(t, err)

	registry := filters.New()

	p := NewProvider(Config{
		ChainID:         testChainID,
		Spec:            params.Shanghai,
		BlockGasLimit:   30_000_000,
		CoinbaseAddress: common.Address{0xc0},
	}, chain, st, exec, pool, m, registry, keystore)

	return &testProvider{Provider: p, chain: chain, state: st, pool: pool}
}

func (tp *testProvider) fund(t *testing.T, addr common.Address, balance *uint256.Int) {
	t.Helper()
	tp.state.InsertAccount(addr, types.Account{Balance: balance, CodeHash: crypto.EmptyCodeHash})
}
