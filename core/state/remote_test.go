package state

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/crypto"
)

// fakeRemoteProvider is an in-memory stand-in for a JSON-RPC client,
// counting calls so tests can assert on cache hit/miss behavior.
type fakeRemoteProvider struct {
	balanceCalls int
	codeCalls    int
	storageCalls int

	balance *uint256.Int
	code    []byte
	slot    common.Hash
}

func (f *fakeRemoteProvider) GetBalance(context.Context, common.Address, uint64) (*uint256.Int, error) {
	f.balanceCalls++
	return f.balance, nil
}

func (f *fakeRemoteProvider) GetTransactionCount(context.Context, common.Address, uint64) (uint64, error) {
	return 3, nil
}

func (f *fakeRemoteProvider) GetCode(context.Context, common.Address, uint64) ([]byte, error) {
	f.codeCalls++
	return f.code, nil
}

func (f *fakeRemoteProvider) GetStorageAt(context.Context, common.Address, common.Hash, uint64) (common.Hash, error) {
	f.storageCalls++
	return f.slot, nil
}

func TestCachedRemoteStateFetchesAndCachesSafeBlock(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRemoteProvider{balance: uint256.NewInt(123), code: []byte{0x60}, slot: common.HexToHash("0x05")}

	// Pin far enough behind the tip that mainnet's safe-block depth (32)
	// classifies it as cache-eligible.
	remote, err := NewCachedRemoteState(fake, 1, 1000, 128)
	require.NoError(t, err)
	remote.SetLatestBlockNumber(1000 + 1000)

	addr := addrN(1)
	account, err := remote.Basic(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(123), account.Balance)
	require.Equal(t, crypto.Keccak256Hash(fake.code), account.CodeHash)
	require.Equal(t, 1, fake.balanceCalls)

	// Second call should be served from cache, not the provider.
	_, err = remote.Basic(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, 1, fake.balanceCalls)
}

func TestCachedRemoteStateRefetchesUnsafeBlock(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRemoteProvider{balance: uint256.NewInt(5), code: nil}

	// Pinned block equals the tip: definitely not reorg-safe.
	remote, err := NewCachedRemoteState(fake, 1, 1000, 128)
	require.NoError(t, err)

	addr := addrN(2)
	_, err = remote.Basic(ctx, addr)
	require.NoError(t, err)
	_, err = remote.Basic(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, 2, fake.balanceCalls, "unsafe blocks must not be cached")
}

func TestCachedRemoteStateCodeByHashAfterBasic(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRemoteProvider{balance: uint256.NewInt(1), code: []byte{0x60, 0x01}}
	remote, err := NewCachedRemoteState(fake, 1, 1000, 128)
	require.NoError(t, err)

	addr := addrN(3)
	account, err := remote.Basic(ctx, addr)
	require.NoError(t, err)

	code, err := remote.CodeByHash(ctx, account.CodeHash)
	require.NoError(t, err)
	require.Equal(t, fake.code, code)
}

func TestCachedRemoteStateCodeByHashUnknownFails(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRemoteProvider{balance: uint256.NewInt(1)}
	remote, err := NewCachedRemoteState(fake, 1, 1000, 128)
	require.NoError(t, err)

	_, err = remote.CodeByHash(ctx, crypto.Keccak256Hash([]byte("never fetched")))
	require.ErrorIs(t, err, ErrUnknownCodeHash)
}

func TestCachedRemoteStateEmptyCodeHashAlwaysResolves(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRemoteProvider{}
	remote, err := NewCachedRemoteState(fake, 1, 1000, 128)
	require.NoError(t, err)

	code, err := remote.CodeByHash(ctx, crypto.EmptyCodeHash)
	require.NoError(t, err)
	require.Nil(t, code)
}

func TestCachedRemoteStateStorageCaching(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRemoteProvider{slot: common.HexToHash("0x99")}
	remote, err := NewCachedRemoteState(fake, 1, 1000, 128)
	require.NoError(t, err)
	remote.SetLatestBlockNumber(1000 + 1000)

	addr := addrN(4)
	slot := common.HexToHash("0x01")
	v, err := remote.Storage(ctx, addr, slot)
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0x99"), v)
	require.Equal(t, 1, fake.storageCalls)

	_, err = remote.Storage(ctx, addr, slot)
	require.NoError(t, err)
	require.Equal(t, 1, fake.storageCalls)
}
