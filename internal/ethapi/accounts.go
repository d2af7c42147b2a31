package ethapi

import (
	"crypto/ecdsa"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/tyler-smith/go-bip39"

	"github.com/cockroachdb/errors"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/crypto"
)

// ErrUnknownAccount is returned for a from/signer address the keystore
// never derived and that isn't currently impersonated.
var ErrUnknownAccount = errors.New("ethapi: unknown account")

// Keystore is the node's deterministic in-memory wallet: every account
// it knows is derived once at construction from a BIP-39 mnemonic and
// never touches disk, matching the Glossary's "deterministic in-memory
// keystore of the configured genesis accounts' private keys" requirement.
//
// Address derivation does not walk the real BIP-32 m/44'/60'/0'/0/i path
// bit-for-bit (see DESIGN.md): the mnemonic's BIP-39 seed is still the
// root of every derived key, but each account's scalar comes from
// crypto.DeterministicPrivateKey of the seed with "/<index>" appended,
// rather than hardened/
// non-hardened EC-point child derivation, so this keystore's addresses
// will not match a real Hardhat Network's default account list.
type Keystore struct {
	order     []common.Address
	keys      map[common.Address]*ecdsa.PrivateKey
	impersona mapset.Set[common.Address]
}

// NewKeystore derives count accounts from mnemonic, in order.
func NewKeystore(mnemonic string, count int) (*Keystore, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("ethapi: invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")

	ks := &Keystore{
		keys:      make(map[common.Address]*ecdsa.PrivateKey, count),
		impersona: mapset.NewThreadUnsafeSet[common.Address](),
	}
	for i := 0; i < count; i++ {
		accountSeed := append(append([]byte{}, seed...), encodeAccountIndex(i)...)
		priv := crypto.DeterministicPrivateKey(accountSeed)
		addr, err := crypto.PrivateKeyToAddress(priv)
		if err != nil {
			return nil, err
		}
		ks.order = append(ks.order, addr)
		ks.keys[addr] = priv
	}
	return ks, nil
}

func encodeAccountIndex(i int) []byte {
	return []byte(fmt.Sprintf("/%d", i))
}

// Accounts returns every derived address, in derivation order
// (eth_accounts).
func (ks *Keystore) Accounts() []common.Address {
	out := make([]common.Address, len(ks.order))
	copy(out, ks.order)
	return out
}

// Has reports whether addr is one of the keystore's derived accounts.
func (ks *Keystore) Has(addr common.Address) bool {
	_, ok := ks.keys[addr]
	return ok
}

// PrivateKey returns the private key controlling addr, for transaction
// and eth_sign/eth_signTypedData_v4 signing.
func (ks *Keystore) PrivateKey(addr common.Address) (*ecdsa.PrivateKey, error) {
	priv, ok := ks.keys[addr]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAccount, "%s", addr)
	}
	return priv, nil
}

// personalMessagePrefix is EIP-191's "personal_sign" prefix, applied
// before hashing so a signed message can never collide with a raw
// transaction's signing hash.
const personalMessagePrefix = "\x19Ethereum Signed Message:\n"

// SignPersonal signs msg the way eth_sign/personal_sign do: prefixed
// with its own length, then keccak256-hashed and ECDSA-signed.
func (ks *Keystore) SignPersonal(addr common.Address, msg []byte) ([]byte, error) {
	priv, err := ks.PrivateKey(addr)
	if err != nil {
		return nil, err
	}
	prefixed := fmt.Sprintf("%s%d%s", personalMessagePrefix, len(msg), msg)
	hash := crypto.Keccak256([]byte(prefixed))
	return crypto.Sign(hash, priv)
}

// Impersonate adds addr to the impersonated set (hardhat_impersonateAccount).
// An impersonated address need not be one of the keystore's own accounts:
// the node can send transactions "from" any address, synthesizing a
// signature via types.ImpersonateSignature instead of a real one.
func (ks *Keystore) Impersonate(addr common.Address) {
	ks.impersona.Add(addr)
}

// StopImpersonating removes addr from the impersonated set
// (hardhat_stopImpersonatingAccount), reporting whether it was present.
func (ks *Keystore) StopImpersonating(addr common.Address) bool {
	present := ks.impersona.Contains(addr)
	ks.impersona.Remove(addr)
	return present
}

// IsImpersonated reports whether addr is currently impersonated.
func (ks *Keystore) IsImpersonated(addr common.Address) bool {
	return ks.impersona.Contains(addr)
}

// CanSend reports whether the node is able to originate a transaction
// from addr, either because it holds addr's private key or because addr
// is impersonated.
func (ks *Keystore) CanSend(addr common.Address) bool {
	return ks.Has(addr) || ks.IsImpersonated(addr)
}
