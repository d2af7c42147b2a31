package types

import (
	"crypto/ecdsa"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/crypto"
	"github.com/ethdevnode/edr/rlp"
)

var (
	ErrInvalidChainID = errors.New("types: transaction chain ID does not match signer")
	ErrImpersonated   = errors.New("types: cannot recover sender of an impersonated transaction")
)

// SigningHash returns the hash that a transaction's signature is computed
// over: for legacy pre-EIP-155 transactions, keccak256(rlp([nonce, ...,
// data])); for EIP-155 legacy, the same list with [chainID, 0, 0]
// appended; for typed transactions, keccak256(type ‖ rlp(payload sans
// v,r,s)).
func SigningHash(tx *Transaction, chainID uint64) (common.Hash, error) {
	switch inner := tx.inner.(type) {
	case *LegacyTx:
		fields := []interface{}{inner.Nonce, inner.GasPrice, inner.Gas, rlpAddressSlot{inner.To}, inner.Value, inner.Data}
		if chainID != 0 {
			fields = append(fields, chainID, uint64(0), uint64(0))
		}
		enc, err := rlp.EncodeToBytes(fields)
		if err != nil {
			return common.Hash{}, err
		}
		return crypto.Keccak256Hash(enc), nil
	case *AccessListTx:
		enc, err := rlp.EncodeToBytes([]interface{}{
			inner.ChainID, inner.Nonce, inner.GasPrice, inner.Gas,
			rlpAddressSlot{inner.To}, inner.Value, inner.Data, inner.AccessList,
		})
		if err != nil {
			return common.Hash{}, err
		}
		return crypto.Keccak256Hash(append([]byte{byte(AccessListTxType)}, enc...)), nil
	case *DynamicFeeTx:
		enc, err := rlp.EncodeToBytes([]interface{}{
			inner.ChainID, inner.Nonce, inner.GasTipCap, inner.GasFeeCap, inner.Gas,
			rlpAddressSlot{inner.To}, inner.Value, inner.Data, inner.AccessList,
		})
		if err != nil {
			return common.Hash{}, err
		}
		return crypto.Keccak256Hash(append([]byte{byte(DynamicFeeTxType)}, enc...)), nil
	case *BlobTx:
		enc, err := rlp.EncodeToBytes([]interface{}{
			inner.ChainID, inner.Nonce, inner.GasTipCap, inner.GasFeeCap, inner.Gas,
			inner.To, inner.Value, inner.Data, inner.AccessList,
			inner.MaxFeePerBlobGas, inner.BlobHashes,
		})
		if err != nil {
			return common.Hash{}, err
		}
		return crypto.Keccak256Hash(append([]byte{byte(BlobTxType)}, enc...)), nil
	default:
		return common.Hash{}, ErrTxTypeNotSupported
	}
}

// impersonatedMarker is the sentinel stashed as the transaction's V value to
// mark a synthetic, impersonation-derived signature (see Sender).
var impersonatedMarker = new(uint256.Int).SetUint64(0xED5)

// SignTransaction computes tx's signing hash for chainID, signs it with
// priv, and stores the resulting v/r/s on the transaction.
func SignTransaction(tx *Transaction, chainID uint64, priv *ecdsa.PrivateKey) (*Transaction, error) {
	h, err := SigningHash(tx, chainID)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(h[:], priv)
	if err != nil {
		return nil, err
	}
	r := new(uint256.Int).SetBytes(sig[:32])
	s := new(uint256.Int).SetBytes(sig[32:64])
	recID := uint64(sig[64])

	out := &Transaction{inner: tx.inner.copy()}
	switch out.inner.(type) {
	case *LegacyTx:
		v := recID + 27
		if chainID != 0 {
			v = recID + chainID*2 + 35
		}
		out.inner.setSignatureValues(new(uint256.Int).SetUint64(chainID), new(uint256.Int).SetUint64(v), r, s)
	default:
		out.inner.setSignatureValues(new(uint256.Int).SetUint64(chainID), new(uint256.Int).SetUint64(recID), r, s)
	}
	return out, nil
}

// Sender recovers the address that signed tx. Transactions produced by
// ImpersonateSignature (see the Glossary's "Impersonation" entry) carry a
// synthetic r/s that does not correspond to a real ECDSA signature; Sender
// returns ErrImpersonated for those and callers must track the
// impersonated sender out of band (internal/ethapi does, via the
// transaction's recovered caller stored at admission time).
func Sender(tx *Transaction, chainID uint64) (common.Address, error) {
	v, r, s := tx.RawSignatureValues()
	if v == nil || r == nil || s == nil {
		return common.Address{}, errors.New("types: unsigned transaction")
	}
	if v.Cmp(impersonatedMarker) == 0 {
		return common.Address{}, ErrImpersonated
	}
	signedChainID := signingChainID(tx, v, chainID)
	h, err := SigningHash(tx, signedChainID)
	if err != nil {
		return common.Address{}, err
	}
	recID, err := recoveryID(tx.Type(), v, signedChainID)
	if err != nil {
		return common.Address{}, err
	}
	var sig [65]byte
	rb, sb := r.Bytes32(), s.Bytes32()
	copy(sig[:32], rb[:])
	copy(sig[32:64], sb[:])
	sig[64] = recID
	return crypto.SenderFromSignature(h[:], sig[:])
}

// ImpersonateSignature stamps tx with a synthetic, unrecoverable signature
// marking it as sent by sender (hardhat_impersonateAccount): no private key
// is involved, so the usual v/r/s triple cannot encode a real recovery id.
// r and s are instead derived from sender itself, so the resulting
// transaction hash is deterministic and distinct per impersonated sender
// (two different impersonated accounts sending otherwise-identical
// transactions never collide). The caller address itself is tracked out of
// band by the mempool/provider alongside the transaction; Sender rejects
// these with ErrImpersonated rather than trying to recover it from r/s.
func ImpersonateSignature(tx *Transaction, sender common.Address) *Transaction {
	r := new(uint256.Int).SetBytes(crypto.Keccak256([]byte("edr-impersonated-r"), sender.Bytes()))
	s := new(uint256.Int).SetBytes(crypto.Keccak256([]byte("edr-impersonated-s"), sender.Bytes()))
	out := &Transaction{inner: tx.inner.copy()}
	chainID := new(uint256.Int)
	if id := tx.inner.chainID(); id != nil {
		chainID.Set(id)
	}
	out.inner.setSignatureValues(chainID, new(uint256.Int).Set(impersonatedMarker), r, s)
	return out
}

func signingChainID(tx *Transaction, v *uint256.Int, chainID uint64) uint64 {
	if tx.Type() != LegacyTxType {
		return chainID
	}
	vv := v.Uint64()
	if vv == 27 || vv == 28 {
		return 0
	}
	return (vv - 35) / 2
}

func recoveryID(typ TxType, v *uint256.Int, chainID uint64) (byte, error) {
	vv := v.Uint64()
	if typ != LegacyTxType {
		if vv > 1 {
			return 0, errors.New("types: invalid typed-transaction recovery id")
		}
		return byte(vv), nil
	}
	if vv == 27 || vv == 28 {
		return byte(vv - 27), nil
	}
	if chainID != 0 {
		return byte(vv - chainID*2 - 35), nil
	}
	return 0, errors.New("types: invalid legacy recovery id")
}
