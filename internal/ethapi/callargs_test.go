package ethapi

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
)

func TestDecodeCallArgsPrefersDataOverInput(t *testing.T) {
	to := common.Address{0x02}
	raw, err := json.Marshal(map[string]any{
		"to":    to,
		"data":  "0x1234",
		"input": "0x5678",
	})
	require.NoError(t, err)

	args, err := decodeCallArgs(raw)
	require.NoError(t, err)
	require.Equal(t, []byte{0x12, 0x34}, args.data())
}

func TestDecodeCallArgsFallsBackToInput(t *testing.T) {
	raw, err := json.Marshal(map[string]any{"input": "0x5678"})
	require.NoError(t, err)

	args, err := decodeCallArgs(raw)
	require.NoError(t, err)
	require.Equal(t, []byte{0x56, 0x78}, args.data())
}

func TestCallArgsToTxEnvDefaultsGasPriceFromBaseFee(t *testing.T) {
	raw := json.RawMessage(`{"maxPriorityFeePerGas":"0x5"}`)
	args, err := decodeCallArgs(raw)
	require.NoError(t, err)

	baseFee := new(uint256.Int).SetUint64(100)
	env := args.toTxEnv(30_000_000, baseFee)
	require.Equal(t, uint64(105), env.GasPrice.Uint64())
	require.Equal(t, uint64(30_000_000), env.GasLimit)
}

func TestCallArgsToTxEnvHonorsExplicitGasLimit(t *testing.T) {
	raw := json.RawMessage(`{"gas":"0x5208"}`)
	args, err := decodeCallArgs(raw)
	require.NoError(t, err)

	env := args.toTxEnv(30_000_000, nil)
	require.Equal(t, uint64(0x5208), env.GasLimit)
	require.True(t, env.GasPrice.IsZero())
}

func TestCallArgsToUnsignedTransactionIsAlwaysDynamicFee(t *testing.T) {
	to := common.Address{0x03}
	raw, err := json.Marshal(map[string]any{
		"to":       to,
		"gasPrice": "0x3b9aca00",
		"nonce":    "0x1",
	})
	require.NoError(t, err)

	args, err := decodeCallArgs(raw)
	require.NoError(t, err)

	tip := new(uint256.Int).SetUint64(1_000_000_000)
	tx := args.toUnsignedTransaction(testChainID, 21_000, tip, tip)
	require.Equal(t, uint64(1), tx.Nonce())
	require.Equal(t, to, *tx.To())
}
