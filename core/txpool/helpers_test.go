package txpool

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
)

// ecdsaTestKey pairs a deterministic private key with its derived address.
type ecdsaTestKey struct {
	priv *ecdsa.PrivateKey
	addr common.Address
}

func newTestKey(t *testing.T) *ecdsaTestKey {
	t.Helper()
	d, ok := new(big.Int).SetString("1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcd", 16)
	require.True(t, ok)
	priv := &ecdsa.PrivateKey{D: d}

	to := common.Address{0x01}
	probe := types.NewTx(&types.LegacyTx{
		Nonce: 0, GasPrice: new(uint256.Int).SetUint64(1), Gas: 21000,
		To: &to, Value: new(uint256.Int),
	})
	signed, err := types.SignTransaction(probe, 31337, priv)
	require.NoError(t, err)
	addr, err := types.Sender(signed, 31337)
	require.NoError(t, err)
	return &ecdsaTestKey{priv: priv, addr: addr}
}
