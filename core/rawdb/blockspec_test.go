package rawdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBlockSpecTag(t *testing.T) {
	for _, s := range []string{"latest", "earliest", "pending", "safe", "finalized"} {
		_, ok := ParseBlockSpecTag(s)
		require.True(t, ok, s)
	}
	_, ok := ParseBlockSpecTag("nonsense")
	require.False(t, ok)
}

func TestResolveBlockNumberTags(t *testing.T) {
	n, err := ResolveBlockNumber(BlockSpec{Kind: BlockSpecKindTag, Tag: TagLatest}, 100, 0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(100), n)

	n, err = ResolveBlockNumber(BlockSpec{Kind: BlockSpecKindTag, Tag: TagEarliest}, 100, 5, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(5), n)

	n, err = ResolveBlockNumber(BlockSpec{Kind: BlockSpecKindTag, Tag: TagPending}, 100, 0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(101), n)

	n, err = ResolveBlockNumber(BlockSpec{Kind: BlockSpecKindTag, Tag: TagSafe}, 100, 0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(90), n)

	// safeDepth larger than lastBlockNumber clamps to earliestBlockNumber.
	n, err = ResolveBlockNumber(BlockSpec{Kind: BlockSpecKindTag, Tag: TagFinalized}, 5, 0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(0), n)
}

func TestResolveBlockNumberExplicit(t *testing.T) {
	n, err := ResolveBlockNumber(BlockSpec{Kind: BlockSpecKindNumber, Number: 42}, 100, 0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(42), n)
}

func TestResolveBlockNumberHashKindIsCallerResolved(t *testing.T) {
	_, err := ResolveBlockNumber(BlockSpec{Kind: BlockSpecKindHash}, 100, 0, 10)
	require.ErrorIs(t, err, ErrUnknownBlockTag)
}
