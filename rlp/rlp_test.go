package rlp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

type simpleStruct struct {
	A uint64
	B []byte
}

func TestEncodeDecodeUint(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 256, 1 << 40} {
		enc, err := EncodeToBytes(v)
		require.NoError(t, err)
		var out uint64
		require.NoError(t, DecodeBytes(enc, &out))
		require.Equal(t, v, out)
	}
}

func TestEncodeDecodeString(t *testing.T) {
	enc, err := EncodeToBytes("dog")
	require.NoError(t, err)
	require.Equal(t, []byte{0x83, 'd', 'o', 'g'}, enc)

	var out string
	require.NoError(t, DecodeBytes(enc, &out))
	require.Equal(t, "dog", out)
}

func TestEncodeEmptyString(t *testing.T) {
	enc, err := EncodeToBytes([]byte{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x80}, enc)
}

func TestEncodeDecodeList(t *testing.T) {
	in := []uint64{1, 2, 3}
	enc, err := EncodeToBytes(in)
	require.NoError(t, err)

	var out []uint64
	require.NoError(t, DecodeBytes(enc, &out))
	require.Equal(t, in, out)
}

func TestEncodeDecodeStruct(t *testing.T) {
	in := simpleStruct{A: 9, B: []byte("hi")}
	enc, err := EncodeToBytes(in)
	require.NoError(t, err)

	var out simpleStruct
	require.NoError(t, DecodeBytes(enc, &out))
	require.Equal(t, in, out)
}

func TestEncodeDecodeBigInt(t *testing.T) {
	in := big.NewInt(0).SetBytes([]byte{0xff, 0xff, 0xff, 0xff, 0xff})
	enc, err := EncodeToBytes(*in)
	require.NoError(t, err)

	var out big.Int
	require.NoError(t, DecodeBytes(enc, &out))
	require.Equal(t, 0, in.Cmp(&out))
}

func TestRawValueRoundTrip(t *testing.T) {
	enc, err := EncodeToBytes(uint64(42))
	require.NoError(t, err)

	var raw RawValue
	require.NoError(t, DecodeBytes(enc, &raw))
	require.Equal(t, RawValue(enc), raw)
}

func TestLongListLengthPrefix(t *testing.T) {
	in := make([][]byte, 100)
	for i := range in {
		in[i] = []byte("0123456789")
	}
	enc, err := EncodeToBytes(in)
	require.NoError(t, err)

	var out [][]byte
	require.NoError(t, DecodeBytes(enc, &out))
	require.Equal(t, in, out)
}
