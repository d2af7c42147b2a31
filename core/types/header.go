package types

import (
	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/crypto"
	"github.com/ethdevnode/edr/rlp"
)

var (
	errNotAList       = errors.New("types: expected list for header")
	errHeaderTooShort = errors.New("types: header has too few fields")
)

// Header is the block header. Field presence past Shanghai/Cancun follows
// the activation of the corresponding EIP: BaseFee is nil pre-London,
// WithdrawalsRoot is nil pre-Shanghai, BlobGasUsed/ExcessBlobGas are nil
// pre-Cancun.
type Header struct {
	ParentHash       common.Hash
	OmmersHash       common.Hash
	Coinbase         common.Address
	StateRoot        common.Hash
	TransactionsRoot common.Hash
	ReceiptsRoot     common.Hash
	LogsBloom        Bloom
	Difficulty       *uint256.Int
	Number           uint64
	GasLimit         uint64
	GasUsed          uint64
	Timestamp        uint64
	ExtraData        []byte
	MixHash          common.Hash
	Nonce            [8]byte

	BaseFee *uint256.Int `rlp:"-"`

	WithdrawalsRoot *common.Hash `rlp:"-"`

	BlobGasUsed   *uint64 `rlp:"-"`
	ExcessBlobGas *uint64 `rlp:"-"`

	ParentBeaconBlockRoot *common.Hash `rlp:"-"`
}

// EncodeRLP encodes Header's fields in declaration order, handling the
// optional post-London/Shanghai/Cancun fields by only appending them to the
// list when present (their absence changes the header's list arity, which
// is how RLP historically distinguished hardfork-gated header shapes).
//
// Go's struct-based RLP codec encodes a fixed field count, so variable
// arity is implemented by hand here rather than via the generic
// reflection path used for other types.
func (h *Header) EncodeRLP() ([]byte, error) {
	type base struct {
		ParentHash       common.Hash
		OmmersHash       common.Hash
		Coinbase         common.Address
		StateRoot        common.Hash
		TransactionsRoot common.Hash
		ReceiptsRoot     common.Hash
		LogsBloom        Bloom
		Difficulty       *uint256.Int
		Number           uint64
		GasLimit         uint64
		GasUsed          uint64
		Timestamp        uint64
		ExtraData        []byte
		MixHash          common.Hash
		Nonce            [8]byte
	}
	b := base{
		h.ParentHash, h.OmmersHash, h.Coinbase, h.StateRoot, h.TransactionsRoot,
		h.ReceiptsRoot, h.LogsBloom, h.Difficulty, h.Number, h.GasLimit,
		h.GasUsed, h.Timestamp, h.ExtraData, h.MixHash, h.Nonce,
	}
	enc, err := rlp.EncodeToBytes(b)
	if err != nil {
		return nil, err
	}
	// Strip the outer list wrapper so we can append extra fields, then
	// re-wrap. This keeps the base-15-field encoding byte-identical to a
	// legacy (pre-London) header while letting later forks append fields.
	isList, content, _, err := rlp.Split(enc)
	if err != nil || !isList {
		return nil, err
	}
	extra := content
	appendField := func(v interface{}) error {
		fieldEnc, err := rlp.EncodeToBytes(v)
		if err != nil {
			return err
		}
		extra = append(extra, fieldEnc...)
		return nil
	}
	if h.BaseFee != nil {
		if err := appendField(*h.BaseFee); err != nil {
			return nil, err
		}
	}
	if h.WithdrawalsRoot != nil {
		if err := appendField(*h.WithdrawalsRoot); err != nil {
			return nil, err
		}
	}
	if h.BlobGasUsed != nil {
		if err := appendField(*h.BlobGasUsed); err != nil {
			return nil, err
		}
		if err := appendField(*h.ExcessBlobGas); err != nil {
			return nil, err
		}
	}
	if h.ParentBeaconBlockRoot != nil {
		if err := appendField(*h.ParentBeaconBlockRoot); err != nil {
			return nil, err
		}
	}
	return rlp.WrapList(extra), nil
}

// DecodeRLP implements rlp.Decoder, reversing EncodeRLP's variable-arity
// field layout.
func (h *Header) DecodeRLP(raw []byte, isList bool) error {
	if !isList {
		return errNotAList
	}
	items, err := rlp.SplitList(raw)
	if err != nil {
		return err
	}
	if len(items) < 15 {
		return errHeaderTooShort
	}
	decode := func(i int, v interface{}) error { return rlp.DecodeBytes(items[i], v) }
	if err := decode(0, &h.ParentHash); err != nil {
		return err
	}
	if err := decode(1, &h.OmmersHash); err != nil {
		return err
	}
	if err := decode(2, &h.Coinbase); err != nil {
		return err
	}
	if err := decode(3, &h.StateRoot); err != nil {
		return err
	}
	if err := decode(4, &h.TransactionsRoot); err != nil {
		return err
	}
	if err := decode(5, &h.ReceiptsRoot); err != nil {
		return err
	}
	if err := decode(6, &h.LogsBloom); err != nil {
		return err
	}
	h.Difficulty = new(uint256.Int)
	if err := decode(7, h.Difficulty); err != nil {
		return err
	}
	if err := decode(8, &h.Number); err != nil {
		return err
	}
	if err := decode(9, &h.GasLimit); err != nil {
		return err
	}
	if err := decode(10, &h.GasUsed); err != nil {
		return err
	}
	if err := decode(11, &h.Timestamp); err != nil {
		return err
	}
	if err := decode(12, &h.ExtraData); err != nil {
		return err
	}
	if err := decode(13, &h.MixHash); err != nil {
		return err
	}
	if err := decode(14, &h.Nonce); err != nil {
		return err
	}
	idx := 15
	if idx < len(items) {
		var baseFee uint256.Int
		if err := decode(idx, &baseFee); err != nil {
			return err
		}
		h.BaseFee = &baseFee
		idx++
	}
	if idx < len(items) {
		var root common.Hash
		if err := decode(idx, &root); err != nil {
			return err
		}
		h.WithdrawalsRoot = &root
		idx++
	}
	if idx+1 < len(items) {
		var used, excess uint64
		if err := decode(idx, &used); err != nil {
			return err
		}
		if err := decode(idx+1, &excess); err != nil {
			return err
		}
		h.BlobGasUsed, h.ExcessBlobGas = &used, &excess
		idx += 2
	}
	if idx < len(items) {
		var root common.Hash
		if err := decode(idx, &root); err != nil {
			return err
		}
		h.ParentBeaconBlockRoot = &root
		idx++
	}
	return nil
}

// Hash returns keccak256(rlp(header)), the block hash.
func (h *Header) Hash() common.Hash {
	enc, err := h.EncodeRLP()
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}
