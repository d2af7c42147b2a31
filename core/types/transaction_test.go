package types

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
)

func u256(v uint64) *uint256.Int { return new(uint256.Int).SetUint64(v) }

func addr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func TestLegacyTxRLPRoundTrip(t *testing.T) {
	to := addr(0x01)
	tx := NewTx(&LegacyTx{
		Nonce:    7,
		GasPrice: u256(1_000_000_000),
		Gas:      21000,
		To:       &to,
		Value:    u256(42),
		Data:     []byte{0xde, 0xad},
		V:        u256(27),
		R:        u256(1),
		S:        u256(2),
	})

	enc, err := tx.Envelope()
	require.NoError(t, err)

	out, err := DecodeTransaction(enc)
	require.NoError(t, err)
	require.Equal(t, LegacyTxType, out.Type())
	require.Equal(t, tx.Nonce(), out.Nonce())
	require.Equal(t, tx.To(), out.To())
	require.Equal(t, 0, tx.Value().Cmp(out.Value()))
	require.Equal(t, tx.Hash(), out.Hash())
}

func TestLegacyContractCreationRoundTrip(t *testing.T) {
	tx := NewTx(&LegacyTx{
		Nonce:    0,
		GasPrice: u256(1),
		Gas:      100000,
		To:       nil,
		Value:    u256(0),
		Data:     []byte{0x60, 0x60},
		V:        u256(27),
		R:        u256(1),
		S:        u256(2),
	})
	enc, err := tx.Envelope()
	require.NoError(t, err)

	out, err := DecodeTransaction(enc)
	require.NoError(t, err)
	require.Nil(t, out.To())
}

func TestAccessListTxRLPRoundTrip(t *testing.T) {
	to := addr(0x02)
	tx := NewTx(&AccessListTx{
		ChainID:  u256(31337),
		Nonce:    3,
		GasPrice: u256(2_000_000_000),
		Gas:      50000,
		To:       &to,
		Value:    u256(0),
		Data:     nil,
		AccessList: AccessList{
			{Address: addr(0x03), StorageKeys: []common.Hash{{1}, {2}}},
		},
		V: u256(0),
		R: u256(9),
		S: u256(10),
	})

	enc, err := tx.Envelope()
	require.NoError(t, err)
	require.Equal(t, byte(AccessListTxType), enc[0])

	out, err := DecodeTransaction(enc)
	require.NoError(t, err)
	require.Equal(t, AccessListTxType, out.Type())
	require.Len(t, out.AccessList(), 1)
	require.Equal(t, tx.Hash(), out.Hash())
}

func TestDynamicFeeTxRLPRoundTrip(t *testing.T) {
	to := addr(0x04)
	tx := NewTx(&DynamicFeeTx{
		ChainID:   u256(31337),
		Nonce:     1,
		GasTipCap: u256(1_000_000_000),
		GasFeeCap: u256(3_000_000_000),
		Gas:       21000,
		To:        &to,
		Value:     u256(5),
		Data:      []byte{},
		V:         u256(1),
		R:         u256(11),
		S:         u256(12),
	})

	enc, err := tx.Envelope()
	require.NoError(t, err)
	require.Equal(t, byte(DynamicFeeTxType), enc[0])

	out, err := DecodeTransaction(enc)
	require.NoError(t, err)
	require.Equal(t, DynamicFeeTxType, out.Type())
	require.Equal(t, 0, tx.GasTipCap().Cmp(out.GasTipCap()))
	require.Equal(t, 0, tx.GasFeeCap().Cmp(out.GasFeeCap()))
	require.Equal(t, tx.Hash(), out.Hash())
}

func TestBlobTxRLPRoundTrip(t *testing.T) {
	tx := NewTx(&BlobTx{
		ChainID:          u256(31337),
		Nonce:            5,
		GasTipCap:        u256(1),
		GasFeeCap:        u256(2),
		Gas:              21000,
		To:               addr(0x05),
		Value:            u256(0),
		Data:             nil,
		MaxFeePerBlobGas: u256(3),
		BlobHashes:       []common.Hash{{0xaa}, {0xbb}},
		V:                u256(0),
		R:                u256(13),
		S:                u256(14),
	})

	enc, err := tx.Envelope()
	require.NoError(t, err)
	require.Equal(t, byte(BlobTxType), enc[0])

	out, err := DecodeTransaction(enc)
	require.NoError(t, err)
	require.Equal(t, BlobTxType, out.Type())
	inner := out.inner.(*BlobTx)
	require.Len(t, inner.BlobHashes, 2)
	require.Equal(t, tx.Hash(), out.Hash())
}

func TestEffectiveGasTipCapsAtFeeCapMinusBaseFee(t *testing.T) {
	tx := NewTx(&DynamicFeeTx{
		ChainID:   u256(1),
		GasTipCap: u256(5),
		GasFeeCap: u256(10),
		Gas:       21000,
	})
	baseFee := u256(8)
	tip := tx.EffectiveGasTip(baseFee)
	require.Equal(t, 0, tip.Cmp(u256(2)))
}

func TestEffectiveGasTipUncappedWhenRoomAllows(t *testing.T) {
	tx := NewTx(&DynamicFeeTx{
		ChainID:   u256(1),
		GasTipCap: u256(2),
		GasFeeCap: u256(10),
		Gas:       21000,
	})
	baseFee := u256(3)
	tip := tx.EffectiveGasTip(baseFee)
	require.Equal(t, 0, tip.Cmp(u256(2)))
}

func TestHashIsMemoized(t *testing.T) {
	to := addr(0x01)
	tx := NewTx(&LegacyTx{Nonce: 1, GasPrice: u256(1), Gas: 21000, To: &to, Value: u256(0), V: u256(27), R: u256(1), S: u256(1)})
	h1 := tx.Hash()
	h2 := tx.Hash()
	require.Equal(t, h1, h2)
}
