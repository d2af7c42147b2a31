package ethapi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/crypto"
)

func TestKeystoreDerivesDistinctDeterministicAccounts(t *testing.T) {
	ks, err := NewKeystore(testMnemonic, 3)
	require.NoError(t, err)

	accounts := ks.Accounts()
	require.Len(t, accounts, 3)
	require.NotEqual(t, accounts[0], accounts[1])
	require.NotEqual(t, accounts[1], accounts[2])

	again, err := NewKeystore(testMnemonic, 3)
	require.NoError(t, err)
	require.Equal(t, accounts, again.Accounts())
}

func TestKeystoreRejectsInvalidMnemonic(t *testing.T) {
	_, err := NewKeystore("not a real mnemonic at all", 1)
	require.Error(t, err)
}

func TestKeystorePrivateKeyUnknownAccount(t *testing.T) {
	ks, err := NewKeystore(testMnemonic, 1)
	require.NoError(t, err)

	_, err = ks.PrivateKey(common.Address{0xff})
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestKeystoreSignPersonalRoundTrips(t *testing.T) {
	ks, err := NewKeystore(testMnemonic, 1)
	require.NoError(t, err)
	addr := ks.Accounts()[0]

	msg := []byte("hello")
	sig, err := ks.SignPersonal(addr, msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	recovered, err := crypto.SenderFromSignature(crypto.Keccak256([]byte("\x19Ethereum Signed Message:\n5hello")), sig)
	require.NoError(t, err)
	require.Equal(t, addr, recovered)
}

func TestKeystoreImpersonation(t *testing.T) {
	ks, err := NewKeystore(testMnemonic, 1)
	require.NoError(t, err)

	target := common.Address{0xab, 0xcd}
	require.False(t, ks.IsImpersonated(target))
	require.False(t, ks.CanSend(target))

	ks.Impersonate(target)
	require.True(t, ks.IsImpersonated(target))
	require.True(t, ks.CanSend(target))

	require.True(t, ks.StopImpersonating(target))
	require.False(t, ks.IsImpersonated(target))
	require.False(t, ks.StopImpersonating(target))
}
