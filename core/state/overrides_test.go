package state

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/crypto"
)

func TestStateOverridesRejectsConflictingStorage(t *testing.T) {
	o := NewStateOverrides()
	err := o.Set(addrN(1), &AccountOverride{
		Storage:     map[common.Hash]common.Hash{common.HexToHash("0x01"): common.HexToHash("0x02")},
		StorageDiff: map[common.Hash]common.Hash{common.HexToHash("0x03"): common.HexToHash("0x04")},
	})
	require.ErrorIs(t, err, ErrConflictingStorageOverride)
}

func TestStateRefOverriderAppliesBalanceAndNonce(t *testing.T) {
	ctx := context.Background()
	inner := NewLocalBacking()
	overrides := NewStateOverrides()
	contracts := NewContractStorage()

	addr := addrN(1)
	nonce := uint64(9)
	require.NoError(t, overrides.Set(addr, &AccountOverride{
		Balance: uint256.NewInt(777),
		Nonce:   &nonce,
	}))

	overrider := NewStateRefOverrider(inner, overrides, contracts)
	account, err := overrider.Basic(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(777), account.Balance)
	require.Equal(t, uint64(9), account.Nonce)
}

func TestStateRefOverriderStorageFullReplacement(t *testing.T) {
	ctx := context.Background()
	s := newTestStateDB()
	addr := addrN(1)
	s.SetAccountStorageSlot(addr, common.HexToHash("0x01"), common.HexToHash("0xaa"))

	overrides := NewStateOverrides()
	require.NoError(t, overrides.Set(addr, &AccountOverride{
		Storage: map[common.Hash]common.Hash{common.HexToHash("0x02"): common.HexToHash("0xbb")},
	}))

	overrider := NewStateRefOverrider(s, overrides, NewContractStorage())
	v, err := overrider.Storage(ctx, addr, common.HexToHash("0x01"))
	require.NoError(t, err)
	require.Equal(t, common.Hash{}, v, "full storage replacement hides the underlying slot")

	v, err = overrider.Storage(ctx, addr, common.HexToHash("0x02"))
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0xbb"), v)
}

func TestStateRefOverriderStorageDiffLayersOverBase(t *testing.T) {
	ctx := context.Background()
	s := newTestStateDB()
	addr := addrN(1)
	s.SetAccountStorageSlot(addr, common.HexToHash("0x01"), common.HexToHash("0xaa"))

	overrides := NewStateOverrides()
	require.NoError(t, overrides.Set(addr, &AccountOverride{
		StorageDiff: map[common.Hash]common.Hash{common.HexToHash("0x02"): common.HexToHash("0xcc")},
	}))

	overrider := NewStateRefOverrider(s, overrides, NewContractStorage())
	v, err := overrider.Storage(ctx, addr, common.HexToHash("0x01"))
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0xaa"), v, "diff override leaves untouched slots intact")
}

func TestStateRefOverriderCodeOverride(t *testing.T) {
	ctx := context.Background()
	inner := NewLocalBacking()
	overrides := NewStateOverrides()
	contracts := NewContractStorage()
	addr := addrN(1)
	code := []byte{0x60, 0x00}

	require.NoError(t, overrides.Set(addr, &AccountOverride{Code: code}))

	overrider := NewStateRefOverrider(inner, overrides, contracts)
	account, err := overrider.Basic(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, crypto.Keccak256Hash(code), account.CodeHash)

	got, err := overrider.CodeByHash(ctx, account.CodeHash)
	require.NoError(t, err)
	require.Equal(t, code, got)
}

func TestStateRefOverriderUntouchedAddressPassesThrough(t *testing.T) {
	ctx := context.Background()
	s := newTestStateDB()
	addr := addrN(5)
	s.InsertAccount(addr, types.Account{Balance: uint256.NewInt(42), CodeHash: crypto.EmptyCodeHash})

	overrider := NewStateRefOverrider(s, NewStateOverrides(), NewContractStorage())
	account, err := overrider.Basic(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(42), account.Balance)
}
