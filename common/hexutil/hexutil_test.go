package hexutil

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeUint64Zero(t *testing.T) {
	require.Equal(t, "0x0", EncodeUint64(0))
	require.Equal(t, "0x1", EncodeUint64(1))
	require.Equal(t, "0x10", EncodeUint64(16))
}

func TestEncodeBigZero(t *testing.T) {
	require.Equal(t, "0x0", EncodeBig(big.NewInt(0)))
	require.Equal(t, "0x0", EncodeBig(nil))
	require.Equal(t, "0x1", EncodeBig(big.NewInt(1)))
}

func TestDecodeUint64RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 16, 1 << 40, ^uint64(0)} {
		enc := EncodeUint64(v)
		got, err := DecodeUint64(enc)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestDecodeRejectsLeadingZero(t *testing.T) {
	_, err := DecodeUint64("0x01")
	require.ErrorIs(t, err, ErrLeadingZero)
}

func TestDecodeRejectsMissingPrefix(t *testing.T) {
	_, err := DecodeUint64("1")
	require.ErrorIs(t, err, ErrMissingPrefix)
}

func TestBytesRoundTrip(t *testing.T) {
	b := Bytes{0xde, 0xad, 0xbe, 0xef}
	require.Equal(t, "0xdeadbeef", b.String())
	var out Bytes
	require.NoError(t, out.UnmarshalText([]byte(`"0xdeadbeef"`)))
	require.Equal(t, b, out)
}

func TestEmptyBytesEncodesZeroX(t *testing.T) {
	require.Equal(t, "0x", EncodeBytes(nil))
}
