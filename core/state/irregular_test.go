package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
)

func TestIrregularStateSetGetHas(t *testing.T) {
	s := NewIrregularState()
	require.False(t, s.Has(100))

	entry := &IrregularEntry{StateRoot: common.HexToHash("0x01"), Diff: NewDiff()}
	s.Set(100, entry)

	require.True(t, s.Has(100))
	got, ok := s.Get(100)
	require.True(t, ok)
	require.Equal(t, entry, got)

	_, ok = s.Get(101)
	require.False(t, ok)
}

func TestIrregularStateRemove(t *testing.T) {
	s := NewIrregularState()
	s.Set(5, &IrregularEntry{StateRoot: common.HexToHash("0x02"), Diff: NewDiff()})
	require.True(t, s.Has(5))

	s.Remove(5)
	require.False(t, s.Has(5))
	_, ok := s.Get(5)
	require.False(t, ok)
}
