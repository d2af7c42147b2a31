package filters

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
)

func TestFilterCriteriaMatchesBlockRange(t *testing.T) {
	c := FilterCriteria{FromBlock: big.NewInt(10), ToBlock: big.NewInt(20)}
	log := &types.Log{}

	require.False(t, c.Matches(9, common.Hash{}, log))
	require.True(t, c.Matches(10, common.Hash{}, log))
	require.True(t, c.Matches(20, common.Hash{}, log))
	require.False(t, c.Matches(21, common.Hash{}, log))
}

func TestFilterCriteriaMatchesBlockHash(t *testing.T) {
	want := common.Hash{0x01}
	c := FilterCriteria{BlockHash: &want}

	require.True(t, c.Matches(1, want, &types.Log{}))
	require.False(t, c.Matches(1, common.Hash{0x02}, &types.Log{}))
}

func TestFilterCriteriaWildcardTopicPositionMatchesAnything(t *testing.T) {
	c := FilterCriteria{Topics: [][]common.Hash{nil, {{0xaa}}}}
	log := &types.Log{Topics: []common.Hash{{0x01}, {0xaa}}}
	require.True(t, c.Matches(1, common.Hash{}, log))

	log2 := &types.Log{Topics: []common.Hash{{0x02}, {0xaa}}}
	require.True(t, c.Matches(1, common.Hash{}, log2))

	log3 := &types.Log{Topics: []common.Hash{{0x01}, {0xbb}}}
	require.False(t, c.Matches(1, common.Hash{}, log3))
}

func TestFilterCriteriaTopicsLongerThanLogTopicsNeverMatches(t *testing.T) {
	c := FilterCriteria{Topics: [][]common.Hash{{{0x01}}, {{0x02}}}}
	log := &types.Log{Topics: []common.Hash{{0x01}}}
	require.False(t, c.Matches(1, common.Hash{}, log))
}

func TestParseBlockNumberAcceptsTagsAndHex(t *testing.T) {
	n, err := parseBlockNumber("latest")
	require.NoError(t, err)
	require.Nil(t, n)

	n, err = parseBlockNumber("0x64")
	require.NoError(t, err)
	require.Equal(t, int64(100), n.Int64())

	_, err = parseBlockNumber("not-a-number")
	require.Error(t, err)
}
