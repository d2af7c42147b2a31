package crypto

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/cockroachdb/errors"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/ethdevnode/edr/common"
)

// SignatureLength is the length in bytes of an Ethereum ECDSA signature in
// [R || S || V] form, V being the raw (non-EIP-155-encoded) recovery id.
const SignatureLength = 65

var ErrInvalidRecoveryID = errors.New("crypto: invalid signature recovery id")

// Ecrecover recovers the 64-byte uncompressed public key that produced sig
// (R || S || V, V in {0, 1}) over hash.
func Ecrecover(hash []byte, sig []byte) ([]byte, error) {
	if len(sig) != SignatureLength {
		return nil, errors.New("crypto: invalid signature length")
	}
	if sig[64] > 1 {
		return nil, ErrInvalidRecoveryID
	}
	// btcec's compact signature format is [recovery-header || R || S], with
	// the recovery header in [27,34] encoding both the recovery id and a
	// "compressed key" flag; go-ethereum's non-cgo recovery path builds
	// this the same way around its own Ecrecover.
	var compact [SignatureLength]byte
	compact[0] = sig[64] + 27
	copy(compact[1:], sig[:64])

	pub, _, err := btcecdsa.RecoverCompact(compact[:], hash)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// PubkeyToAddress derives the 20-byte Ethereum address from an uncompressed
// (65-byte, 0x04-prefixed) secp256k1 public key: the low 20 bytes of
// keccak256 of the 64-byte X||Y coordinate pair.
func PubkeyToAddress(pubkey []byte) (common.Address, error) {
	if len(pubkey) != 65 || pubkey[0] != 0x04 {
		return common.Address{}, errors.New("crypto: invalid uncompressed public key")
	}
	return common.BytesToAddress(Keccak256(pubkey[1:])), nil
}

// SenderFromSignature recovers the address that produced sig over hash.
func SenderFromSignature(hash []byte, sig []byte) (common.Address, error) {
	pub, err := Ecrecover(hash, sig)
	if err != nil {
		return common.Address{}, err
	}
	return PubkeyToAddress(pub)
}

// Sign produces an [R || S || V] signature of hash using the secp256k1
// private key priv.
func Sign(hash []byte, priv *ecdsa.PrivateKey) ([]byte, error) {
	var scalar [32]byte
	priv.D.FillBytes(scalar[:])
	btcPriv, _ := btcec.PrivKeyFromBytes(scalar[:])
	sig, err := btcecdsa.SignCompact(btcPriv, hash, false)
	if err != nil {
		return nil, err
	}
	// SignCompact returns [recovery-header || R || S]; rotate it into
	// Ethereum's [R || S || V] convention.
	var out [SignatureLength]byte
	copy(out[:64], sig[1:])
	out[64] = sig[0] - 27
	return out[:], nil
}

// PrivateKeyToAddress derives the address controlled by priv, the same way
// newTestKey-style helpers do elsewhere in this codebase but without
// needing a throwaway probe signature: it reads priv.D directly (callers
// may construct an *ecdsa.PrivateKey with only D set, as this package's
// own Sign does).
func PrivateKeyToAddress(priv *ecdsa.PrivateKey) (common.Address, error) {
	var scalar [32]byte
	priv.D.FillBytes(scalar[:])
	btcPriv, _ := btcec.PrivKeyFromBytes(scalar[:])
	return PubkeyToAddress(btcPriv.PubKey().SerializeUncompressed())
}

// DeterministicPrivateKey derives a secp256k1 private key from seed by
// reducing keccak256(seed) modulo the curve order, repeating with a
// counter-extended seed on the (astronomically unlikely) zero result.
// Used to generate the node's default funded accounts reproducibly across
// runs without persisting key material.
func DeterministicPrivateKey(seed []byte) *ecdsa.PrivateKey {
	n := btcec.S256().N
	d := new(big.Int).SetBytes(Keccak256(seed))
	d.Mod(d, n)
	for d.Sign() == 0 {
		seed = append(seed, 0)
		d.SetBytes(Keccak256(seed))
		d.Mod(d, n)
	}
	return &ecdsa.PrivateKey{D: d}
}
