package ethapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/internal/jsonrpc"
)

func dispatch(t *testing.T, p *testProvider, method string, params ...any) *jsonrpc.Response {
	t.Helper()
	var raw json.RawMessage
	if len(params) > 0 {
		enc, err := json.Marshal(params)
		require.NoError(t, err)
		raw = enc
	}
	req := &jsonrpc.Request{JSONRPC: jsonrpc.Version, ID: json.RawMessage("1"), Method: method, Params: raw}
	return p.Dispatch(context.Background(), req)
}

func decodeResult(t *testing.T, resp *jsonrpc.Response, out any) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected RPC error: %+v", resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, out))
}

func TestProviderEthChainIDAndBlockNumber(t *testing.T) {
	p := newTestProvider(t)

	resp := dispatch(t, p, "eth_chainId")
	var chainID hexutil.Uint64
	decodeResult(t, resp, &chainID)
	require.Equal(t, uint64(testChainID), uint64(chainID))

	resp = dispatch(t, p, "eth_blockNumber")
	var number hexutil.Uint64
	decodeResult(t, resp, &number)
	require.Equal(t, uint64(0), uint64(number))
}

func TestProviderMethodNotFound(t *testing.T) {
	p := newTestProvider(t)
	resp := dispatch(t, p, "eth_bogusMethod")
	require.NotNil(t, resp.Error)
	require.Equal(t, jsonrpc.CodeInvalidInput, resp.Error.Code)
}

func TestProviderEthGetBalanceReadsFundedAccount(t *testing.T) {
	p := newTestProvider(t)
	addr := common.Address{0x42}
	p.fund(t, addr, new(uint256.Int).SetUint64(1_000_000))

	resp := dispatch(t, p, "eth_getBalance", addr, "latest")
	var balance hexutil.Big
	decodeResult(t, resp, &balance)
	require.Equal(t, uint64(1_000_000), balance.ToInt().Uint64())
}

func TestProviderEthGetBalanceUnknownAccountIsZero(t *testing.T) {
	p := newTestProvider(t)
	resp := dispatch(t, p, "eth_getBalance", common.Address{0x99}, "latest")
	var balance hexutil.Big
	decodeResult(t, resp, &balance)
	require.Equal(t, uint64(0), balance.ToInt().Uint64())
}

func TestProviderEthSendTransactionAutominesByDefault(t *testing.T) {
	p := newTestProvider(t)
	sender := p.keystore.Accounts()[0]
	recipient := common.Address{0x55}
	p.fund(t, sender, new(uint256.Int).SetUint64(10_000_000_000_000_000))

	resp := dispatch(t, p, "eth_sendTransaction", map[string]any{
		"from":  sender,
		"to":    recipient,
		"value": hexutil.EncodeBig(new(uint256.Int).SetUint64(1_000_000).ToBig()),
		"gas":   hexutil.EncodeUint64(21_000),
	})
	var hash common.Hash
	decodeResult(t, resp, &hash)
	require.NotEqual(t, common.Hash{}, hash)

	resp = dispatch(t, p, "eth_blockNumber")
	var number hexutil.Uint64
	decodeResult(t, resp, &number)
	require.Equal(t, uint64(1), uint64(number))

	resp = dispatch(t, p, "eth_getTransactionReceipt", hash)
	var receipt map[string]any
	decodeResult(t, resp, &receipt)
	require.Equal(t, "0x1", receipt["status"])
}

func TestProviderAutomineOffQueuesUntilEvmMine(t *testing.T) {
	p := newTestProvider(t)
	resp := dispatch(t, p, "evm_setAutomine", false)
	var enabled bool
	decodeResult(t, resp, &enabled)

	sender := p.keystore.Accounts()[0]
	recipient := common.Address{0x66}
	p.fund(t, sender, new(uint256.Int).SetUint64(10_000_000_000_000_000))

	resp = dispatch(t, p, "eth_sendTransaction", map[string]any{
		"from":  sender,
		"to":    recipient,
		"value": hexutil.EncodeBig(new(uint256.Int).SetUint64(1).ToBig()),
		"gas":   hexutil.EncodeUint64(21_000),
	})
	require.Nil(t, resp.Error)

	resp = dispatch(t, p, "eth_blockNumber")
	var number hexutil.Uint64
	decodeResult(t, resp, &number)
	require.Equal(t, uint64(0), uint64(number))

	resp = dispatch(t, p, "evm_mine")
	require.Nil(t, resp.Error)

	resp = dispatch(t, p, "eth_blockNumber")
	decodeResult(t, resp, &number)
	require.Equal(t, uint64(1), uint64(number))
}

func TestProviderHardhatSetBalance(t *testing.T) {
	p := newTestProvider(t)
	addr := common.Address{0x77}

	resp := dispatch(t, p, "hardhat_setBalance", addr, hexutil.EncodeBig(new(uint256.Int).SetUint64(42).ToBig()))
	var ok bool
	decodeResult(t, resp, &ok)
	require.True(t, ok)

	resp = dispatch(t, p, "eth_getBalance", addr, "latest")
	var balance hexutil.Big
	decodeResult(t, resp, &balance)
	require.Equal(t, uint64(42), balance.ToInt().Uint64())
}

func TestProviderHardhatImpersonationRoundTrip(t *testing.T) {
	p := newTestProvider(t)
	target := common.Address{0x88}
	p.fund(t, target, new(uint256.Int).SetUint64(10_000_000_000_000_000))

	resp := dispatch(t, p, "hardhat_impersonateAccount", target)
	var ok bool
	decodeResult(t, resp, &ok)
	require.True(t, ok)

	resp = dispatch(t, p, "eth_sendTransaction", map[string]any{
		"from":  target,
		"to":    common.Address{0x89},
		"value": hexutil.EncodeBig(new(uint256.Int).SetUint64(1).ToBig()),
		"gas":   hexutil.EncodeUint64(21_000),
	})
	var hash common.Hash
	decodeResult(t, resp, &hash)
	require.NotEqual(t, common.Hash{}, hash)

	resp = dispatch(t, p, "hardhat_stopImpersonatingAccount", target)
	decodeResult(t, resp, &ok)
	require.True(t, ok)
}

func TestProviderNetAndWeb3Methods(t *testing.T) {
	p := newTestProvider(t)

	resp := dispatch(t, p, "net_version")
	var version string
	decodeResult(t, resp, &version)
	require.Equal(t, "31337", version)

	resp = dispatch(t, p, "web3_clientVersion")
	var client string
	decodeResult(t, resp, &client)
	require.NotEmpty(t, client)
}

func TestProviderEvmSnapshotRevertRoundTrip(t *testing.T) {
	p := newTestProvider(t)
	addr := common.Address{0x11}
	p.fund(t, addr, new(uint256.Int).SetUint64(1000))

	resp := dispatch(t, p, "evm_snapshot")
	var id SnapshotID
	decodeResult(t, resp, &id)

	dispatch(t, p, "hardhat_setBalance", addr, hexutil.EncodeBig(new(uint256.Int).SetUint64(9999).ToBig()))

	resp = dispatch(t, p, "eth_getBalance", addr, "latest")
	var balance hexutil.Big
	decodeResult(t, resp, &balance)
	require.Equal(t, uint64(9999), balance.ToInt().Uint64())

	resp = dispatch(t, p, "evm_revert", id)
	var reverted bool
	decodeResult(t, resp, &reverted)
	require.True(t, reverted)

	resp = dispatch(t, p, "eth_getBalance", addr, "latest")
	decodeResult(t, resp, &balance)
	require.Equal(t, uint64(1000), balance.ToInt().Uint64())
}
