package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/crypto"
)

func TestContractStorageInsertAndGet(t *testing.T) {
	cs := NewContractStorage()
	code := []byte{0x60, 0x00, 0x60, 0x00}
	hash := cs.Insert(code)
	require.Equal(t, crypto.Keccak256Hash(code), hash)

	got, err := cs.Code(hash)
	require.NoError(t, err)
	require.Equal(t, code, got)
}

func TestContractStorageEmptyCodeAlwaysResolves(t *testing.T) {
	cs := NewContractStorage()
	got, err := cs.Code(crypto.EmptyCodeHash)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestContractStorageUnknownHashFails(t *testing.T) {
	cs := NewContractStorage()
	_, err := cs.Code(crypto.Keccak256Hash([]byte("never inserted")))
	require.ErrorIs(t, err, ErrUnknownCodeHash)
}

func TestContractStorageRefCounting(t *testing.T) {
	cs := NewContractStorage()
	code := []byte{0x01, 0x02, 0x03}
	hash := cs.Insert(code)
	cs.Insert(code) // second reference
	cs.AddRef(hash)

	cs.RemoveRef(hash)
	cs.RemoveRef(hash)
	_, err := cs.Code(hash)
	require.NoError(t, err, "code should still be resolvable with one ref remaining")

	cs.RemoveRef(hash)
	_, err = cs.Code(hash)
	require.ErrorIs(t, err, ErrUnknownCodeHash)
}
