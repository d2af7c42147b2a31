package ethapi

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/internal/filters"
)

func TestProviderEthCallDoesNotMutateState(t *testing.T) {
	p := newTestProvider(t)
	sender := common.Address{0x21}
	p.fund(t, sender, new(uint256.Int).SetUint64(10_000_000_000_000_000))

	resp := dispatch(t, p, "eth_call", map[string]any{
		"from":  sender,
		"to":    common.Address{0x22},
		"value": hexutil.EncodeBig(new(uint256.Int).SetUint64(1).ToBig()),
		"gas":   hexutil.EncodeUint64(21_000),
	}, "latest")
	require.Nil(t, resp.Error)

	resp = dispatch(t, p, "eth_blockNumber")
	var number hexutil.Uint64
	decodeResult(t, resp, &number)
	require.Equal(t, uint64(0), uint64(number), "eth_call must not mine a block")
}

func TestProviderEthEstimateGasValueTransfer(t *testing.T) {
	p := newTestProvider(t)
	sender := common.Address{0x23}
	p.fund(t, sender, new(uint256.Int).SetUint64(10_000_000_000_000_000))

	resp := dispatch(t, p, "eth_estimateGas", map[string]any{
		"from":  sender,
		"to":    common.Address{0x24},
		"value": hexutil.EncodeBig(new(uint256.Int).SetUint64(1).ToBig()),
	}, "latest")
	var gas hexutil.Uint64
	decodeResult(t, resp, &gas)
	require.Equal(t, uint64(21_000), uint64(gas))
}

func TestProviderEthGetLogsDefaultsToHeadBlock(t *testing.T) {
	p := newTestProvider(t)
	resp := dispatch(t, p, "eth_getLogs", map[string]any{})
	var logs []any
	decodeResult(t, resp, &logs)
	require.Empty(t, logs)
}

func TestProviderFilterLifecycle(t *testing.T) {
	p := newTestProvider(t)

	resp := dispatch(t, p, "eth_newBlockFilter")
	var id filters.ID
	decodeResult(t, resp, &id)
	require.NotEmpty(t, id)

	sender := p.keystore.Accounts()[0]
	p.fund(t, sender, new(uint256.Int).SetUint64(10_000_000_000_000_000))
	resp = dispatch(t, p, "eth_sendTransaction", map[string]any{
		"from":  sender,
		"to":    common.Address{0x33},
		"value": hexutil.EncodeBig(new(uint256.Int).SetUint64(1).ToBig()),
		"gas":   hexutil.EncodeUint64(21_000),
	})
	require.Nil(t, resp.Error)

	resp = dispatch(t, p, "eth_getFilterChanges", id)
	var hashes []common.Hash
	decodeResult(t, resp, &hashes)
	require.Len(t, hashes, 1)

	resp = dispatch(t, p, "eth_uninstallFilter", id)
	var ok bool
	decodeResult(t, resp, &ok)
	require.True(t, ok)

	resp = dispatch(t, p, "eth_getFilterChanges", id)
	require.NotNil(t, resp.Error)
}

func TestProviderEthSignRecoversToSender(t *testing.T) {
	p := newTestProvider(t)
	addr := p.keystore.Accounts()[0]

	resp := dispatch(t, p, "eth_sign", addr, hexutil.Bytes("hello"))
	var sig hexutil.Bytes
	decodeResult(t, resp, &sig)
	require.Len(t, sig, 65)
}

func TestProviderRouteErrorsHaveJSONRPCShape(t *testing.T) {
	p := newTestProvider(t)
	resp := dispatch(t, p, "eth_getBalance")
	require.NotNil(t, resp.Error)
	require.NotZero(t, resp.Error.Code)
}
