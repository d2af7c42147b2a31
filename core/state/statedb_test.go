package state

import (
	"context"
	"testing"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/crypto"
)

func newTestStateDB() *StateDB {
	return New(NewLocalBacking(), NewContractStorage(), fastcache.New(1<<20))
}

func addrN(n byte) common.Address {
	var a common.Address
	a[19] = n
	return a
}

func TestBasicReturnsNilForUntouchedAccount(t *testing.T) {
	s := newTestStateDB()
	acc, err := s.Basic(context.Background(), addrN(1))
	require.NoError(t, err)
	require.Nil(t, acc)
}

func TestInsertAccountThenBasic(t *testing.T) {
	s := newTestStateDB()
	account := types.Account{Balance: uint256.NewInt(100), Nonce: 1, CodeHash: crypto.EmptyCodeHash}
	s.InsertAccount(addrN(1), account)

	got, err := s.Basic(context.Background(), addrN(1))
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, uint64(1), got.Nonce)
	require.Equal(t, uint256.NewInt(100), got.Balance)
}

func TestSetAccountStorageSlotRoundTrip(t *testing.T) {
	s := newTestStateDB()
	ctx := context.Background()
	addr := addrN(1)
	slot := common.HexToHash("0x01")
	value := common.HexToHash("0x2a")

	v, err := s.Storage(ctx, addr, slot)
	require.NoError(t, err)
	require.Equal(t, common.Hash{}, v)

	s.SetAccountStorageSlot(addr, slot, value)
	v, err = s.Storage(ctx, addr, slot)
	require.NoError(t, err)
	require.Equal(t, value, v)
}

func TestModifyAccountMaterializesDefault(t *testing.T) {
	s := newTestStateDB()
	ctx := context.Background()
	addr := addrN(7)

	err := s.ModifyAccount(ctx, addr, func(a *types.Account, code *[]byte) {
		a.Balance = new(uint256.Int).Add(a.Balance, uint256.NewInt(50))
		a.Nonce++
	}, types.EmptyAccount)
	require.NoError(t, err)

	got, err := s.Basic(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(50), got.Balance)
	require.Equal(t, uint64(1), got.Nonce)
}

func TestModifyAccountSetsCode(t *testing.T) {
	s := newTestStateDB()
	ctx := context.Background()
	addr := addrN(7)
	code := []byte{0x60, 0x01}

	err := s.ModifyAccount(ctx, addr, func(a *types.Account, setCode *[]byte) {
		*setCode = code
	}, types.EmptyAccount)
	require.NoError(t, err)

	got, err := s.Basic(ctx, addr)
	require.NoError(t, err)
	require.NotEqual(t, crypto.EmptyCodeHash, got.CodeHash)

	storedCode, err := s.CodeByHash(ctx, got.CodeHash)
	require.NoError(t, err)
	require.Equal(t, code, storedCode)
}

func TestCheckpointRevertDiscardsMutations(t *testing.T) {
	s := newTestStateDB()
	ctx := context.Background()
	addr := addrN(1)

	s.InsertAccount(addr, types.Account{Balance: uint256.NewInt(10), CodeHash: crypto.EmptyCodeHash})
	root1, err := s.StateRoot()
	require.NoError(t, err)

	s.Checkpoint()
	s.InsertAccount(addr, types.Account{Balance: uint256.NewInt(999), CodeHash: crypto.EmptyCodeHash})
	root2, err := s.StateRoot()
	require.NoError(t, err)
	require.NotEqual(t, root1, root2)

	require.NoError(t, s.Revert())
	root3, err := s.StateRoot()
	require.NoError(t, err)
	require.Equal(t, root1, root3)

	got, err := s.Basic(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(10), got.Balance)
}

func TestRevertWithoutCheckpointFails(t *testing.T) {
	s := newTestStateDB()
	require.ErrorIs(t, s.Revert(), ErrNoActiveCheckpoint)
}

func TestCommitAppliesSelfDestructAndCreated(t *testing.T) {
	s := newTestStateDB()
	ctx := context.Background()
	addrA := addrN(1)
	addrB := addrN(2)

	s.InsertAccount(addrA, types.Account{Balance: uint256.NewInt(5), CodeHash: crypto.EmptyCodeHash})
	s.SetAccountStorageSlot(addrA, common.HexToHash("0x01"), common.HexToHash("0x02"))

	diff := NewDiff()
	destroyed := diff.Touch(addrA)
	destroyed.SelfDestructed = true

	created := diff.Touch(addrB)
	created.Account = types.Account{Balance: uint256.NewInt(1), CodeHash: crypto.EmptyCodeHash}
	created.Created = true
	created.Storage[common.HexToHash("0x03")] = common.HexToHash("0x04")

	s.Commit(diff)

	gotA, err := s.Basic(ctx, addrA)
	require.NoError(t, err)
	require.Nil(t, gotA)

	v, err := s.Storage(ctx, addrA, common.HexToHash("0x01"))
	require.NoError(t, err)
	require.Equal(t, common.Hash{}, v)

	gotB, err := s.Basic(ctx, addrB)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1), gotB.Balance)

	v, err = s.Storage(ctx, addrB, common.HexToHash("0x03"))
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0x04"), v)
}

func TestStateRootEmptyIsEmptyRootHash(t *testing.T) {
	s := newTestStateDB()
	root, err := s.StateRoot()
	require.NoError(t, err)
	require.Equal(t, crypto.EmptyRootHash, root)
}

func TestStateRootChangesWithAccountMutation(t *testing.T) {
	s := newTestStateDB()
	s.InsertAccount(addrN(1), types.Account{Balance: uint256.NewInt(1), CodeHash: crypto.EmptyCodeHash})
	root1, err := s.StateRoot()
	require.NoError(t, err)

	s.InsertAccount(addrN(1), types.Account{Balance: uint256.NewInt(2), CodeHash: crypto.EmptyCodeHash})
	root2, err := s.StateRoot()
	require.NoError(t, err)

	require.NotEqual(t, root1, root2)
}

func TestMakeSnapshotAndSetBlockContextRestoresState(t *testing.T) {
	s := newTestStateDB()
	ctx := context.Background()
	addr := addrN(3)

	s.InsertAccount(addr, types.Account{Balance: uint256.NewInt(1), CodeHash: crypto.EmptyCodeHash})
	snapshotRoot, err := s.MakeSnapshot()
	require.NoError(t, err)

	s.InsertAccount(addr, types.Account{Balance: uint256.NewInt(2), CodeHash: crypto.EmptyCodeHash})
	got, err := s.Basic(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(2), got.Balance)

	require.NoError(t, s.SetBlockContext(snapshotRoot))
	got, err = s.Basic(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1), got.Balance)
}

func TestSetBlockContextUnknownRootFails(t *testing.T) {
	s := newTestStateDB()
	err := s.SetBlockContext(common.HexToHash("0xdeadbeef"))
	require.ErrorIs(t, err, ErrUnknownSnapshot)
}

func TestRemoveSnapshotForgetsRoot(t *testing.T) {
	s := newTestStateDB()
	s.InsertAccount(addrN(1), types.Account{Balance: uint256.NewInt(1), CodeHash: crypto.EmptyCodeHash})
	root, err := s.MakeSnapshot()
	require.NoError(t, err)

	s.RemoveSnapshot(root)
	err = s.SetBlockContext(root)
	require.ErrorIs(t, err, ErrUnknownSnapshot)
}

func TestSnapshotIsIndependentOfLiveMutation(t *testing.T) {
	s := newTestStateDB()
	ctx := context.Background()
	addr := addrN(4)
	s.InsertAccount(addr, types.Account{Balance: uint256.NewInt(1), CodeHash: crypto.EmptyCodeHash})

	root, err := s.MakeSnapshot()
	require.NoError(t, err)

	// Mutating after the snapshot must not retroactively change it.
	s.InsertAccount(addr, types.Account{Balance: uint256.NewInt(50), CodeHash: crypto.EmptyCodeHash})
	require.NoError(t, s.SetBlockContext(root))

	got, err := s.Basic(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1), got.Balance)
}
