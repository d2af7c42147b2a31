package trie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeybytesToHexAppendsTerminator(t *testing.T) {
	hex := keybytesToHex([]byte{0x12, 0x34})
	require.Equal(t, []byte{1, 2, 3, 4, 16}, hex)
}

func TestHexToCompactRoundTripEvenLeaf(t *testing.T) {
	hex := []byte{1, 2, 3, 4, 16}
	compact := hexToCompact(hex)
	require.Equal(t, hex, compactToHex(compact))
}

func TestHexToCompactRoundTripOddLeaf(t *testing.T) {
	hex := []byte{1, 2, 3, 16}
	compact := hexToCompact(hex)
	require.Equal(t, hex, compactToHex(compact))
}

func TestHexToCompactRoundTripEvenExtension(t *testing.T) {
	hex := []byte{1, 2, 3, 4}
	compact := hexToCompact(hex)
	require.Equal(t, hex, compactToHex(compact))
}

func TestHexToCompactRoundTripOddExtension(t *testing.T) {
	hex := []byte{1, 2, 3}
	compact := hexToCompact(hex)
	require.Equal(t, hex, compactToHex(compact))
}

func TestHasTerm(t *testing.T) {
	require.True(t, hasTerm([]byte{1, 2, 16}))
	require.False(t, hasTerm([]byte{1, 2}))
	require.False(t, hasTerm(nil))
}

func TestPrefixLen(t *testing.T) {
	require.Equal(t, 2, prefixLen([]byte{1, 2, 3}, []byte{1, 2, 9}))
	require.Equal(t, 0, prefixLen([]byte{1}, []byte{2}))
	require.Equal(t, 3, prefixLen([]byte{1, 2, 3}, []byte{1, 2, 3}))
}
