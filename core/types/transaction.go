package types

import (
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/crypto"
	"github.com/ethdevnode/edr/rlp"
)

// TxType identifies a transaction's EIP-2718 envelope variant.
type TxType byte

const (
	LegacyTxType TxType = 0x00
	AccessListTxType TxType = 0x01 // EIP-2930
	DynamicFeeTxType TxType = 0x02 // EIP-1559
	BlobTxType       TxType = 0x03 // EIP-4844
)

var (
	ErrInvalidSig        = errors.New("types: invalid transaction signature")
	ErrTxTypeNotSupported = errors.New("types: unsupported transaction type")
	ErrEmptyTypedTx       = errors.New("types: empty typed transaction")
)

// TxData is implemented by every concrete transaction envelope variant. The
// per-variant RLP payload (everything after the type byte for typed
// transactions; the entire value for legacy) is produced/consumed by
// encodePayload/decodePayload.
type TxData interface {
	txType() TxType
	copy() TxData

	chainID() *uint256.Int
	accessList() AccessList
	gas() uint64
	gasPrice() *uint256.Int
	gasTipCap() *uint256.Int
	gasFeeCap() *uint256.Int
	value() *uint256.Int
	nonce() uint64
	to() *common.Address
	data() []byte

	rawSignatureValues() (v, r, s *uint256.Int)
	setSignatureValues(chainID, v, r, s *uint256.Int)

	encodePayload() ([]byte, error)
	decodePayload(payload []byte) error
}

// Transaction wraps a concrete TxData variant and memoizes its hash.
type Transaction struct {
	inner TxData

	hash atomic.Pointer[common.Hash]
	once sync.Once
	size atomic.Uint64
}

func NewTx(inner TxData) *Transaction {
	return &Transaction{inner: inner.copy()}
}

func (tx *Transaction) Type() TxType                  { return tx.inner.txType() }
func (tx *Transaction) ChainID() *uint256.Int          { return tx.inner.chainID() }
func (tx *Transaction) AccessList() AccessList         { return tx.inner.accessList() }
func (tx *Transaction) Gas() uint64                    { return tx.inner.gas() }
func (tx *Transaction) GasPrice() *uint256.Int         { return tx.inner.gasPrice() }
func (tx *Transaction) GasTipCap() *uint256.Int        { return tx.inner.gasTipCap() }
func (tx *Transaction) GasFeeCap() *uint256.Int        { return tx.inner.gasFeeCap() }
func (tx *Transaction) Value() *uint256.Int            { return tx.inner.value() }
func (tx *Transaction) Nonce() uint64                   { return tx.inner.nonce() }
func (tx *Transaction) To() *common.Address            { return tx.inner.to() }
func (tx *Transaction) Data() []byte                   { return tx.inner.data() }
func (tx *Transaction) RawSignatureValues() (v, r, s *uint256.Int) { return tx.inner.rawSignatureValues() }

// EffectiveGasTip returns min(gasTipCap, gasFeeCap-baseFee) for a 1559-style
// fee market, or the flat gasPrice for legacy/2930 transactions (baseFee is
// then treated as zero).
func (tx *Transaction) EffectiveGasTip(baseFee *uint256.Int) *uint256.Int {
	if tx.Type() == LegacyTxType || tx.Type() == AccessListTxType {
		return new(uint256.Int).Set(tx.GasPrice())
	}
	if baseFee == nil {
		return new(uint256.Int).Set(tx.GasTipCap())
	}
	feeCap := tx.GasFeeCap()
	if feeCap.Cmp(baseFee) < 0 {
		return new(uint256.Int) // underpriced relative to base fee; caller rejects separately
	}
	room := new(uint256.Int).Sub(feeCap, baseFee)
	if tx.GasTipCap().Cmp(room) < 0 {
		return new(uint256.Int).Set(tx.GasTipCap())
	}
	return room
}

// EffectiveGasPrice returns baseFee + effective tip, i.e. what the sender
// actually pays per unit of gas. For 1559 transactions this is capped at
// gasFeeCap, except when gasFeeCap is below baseFee: the tip is then zero
// and the result is baseFee itself.
func (tx *Transaction) EffectiveGasPrice(baseFee *uint256.Int) *uint256.Int {
	if tx.Type() == LegacyTxType || tx.Type() == AccessListTxType || baseFee == nil {
		return new(uint256.Int).Set(tx.GasPrice())
	}
	tip := tx.EffectiveGasTip(baseFee)
	return new(uint256.Int).Add(baseFee, tip)
}

// Envelope returns the transaction's wire encoding: the bare RLP list for
// legacy transactions, or `type ++ rlp(payload)` for typed transactions.
func (tx *Transaction) Envelope() ([]byte, error) {
	payload, err := tx.inner.encodePayload()
	if err != nil {
		return nil, err
	}
	if tx.Type() == LegacyTxType {
		return payload, nil
	}
	return append([]byte{byte(tx.Type())}, payload...), nil
}

// Hash returns keccak256(envelope), memoized on first access.
func (tx *Transaction) Hash() common.Hash {
	if p := tx.hash.Load(); p != nil {
		return *p
	}
	var h common.Hash
	tx.once.Do(func() {
		enc, err := tx.Envelope()
		if err != nil {
			panic(err)
		}
		h = crypto.Keccak256Hash(enc)
		tx.hash.Store(&h)
	})
	if p := tx.hash.Load(); p != nil {
		return *p
	}
	return h
}

// DecodeTransaction parses a transaction envelope (legacy bare-RLP or
// typed `type ++ rlp(payload)`).
func DecodeTransaction(b []byte) (*Transaction, error) {
	if len(b) == 0 {
		return nil, ErrEmptyTypedTx
	}
	if b[0] >= 0x80 {
		// Bare RLP list: legacy transaction.
		inner := new(LegacyTx)
		if err := inner.decodePayload(b); err != nil {
			return nil, err
		}
		return &Transaction{inner: inner}, nil
	}
	typ := TxType(b[0])
	var inner TxData
	switch typ {
	case AccessListTxType:
		inner = new(AccessListTx)
	case DynamicFeeTxType:
		inner = new(DynamicFeeTx)
	case BlobTxType:
		inner = new(BlobTx)
	default:
		return nil, ErrTxTypeNotSupported
	}
	if err := inner.decodePayload(b[1:]); err != nil {
		return nil, err
	}
	return &Transaction{inner: inner}, nil
}

// rlpEncodeFields is a small helper shared by every TxData.encodePayload
// implementation: it RLP-encodes a struct-shaped payload and, for legacy
// transactions, returns it as-is (already a list); typed transactions
// return the same list bytes, to which the caller prepends the type byte.
func rlpEncodeFields(v interface{}) ([]byte, error) { return rlp.EncodeToBytes(v) }

func rlpDecodeFields(b []byte, v interface{}) error { return rlp.DecodeBytes(b, v) }
