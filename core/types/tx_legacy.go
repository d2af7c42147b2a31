package types

import (
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
)

// LegacyTx is the original transaction format; it predates EIP-155 replay
// protection if V is 27 or 28, or encodes EIP-155's chain ID if
// V = chainID*2+35+{0,1}.
type LegacyTx struct {
	Nonce    uint64
	GasPrice *uint256.Int
	Gas      uint64
	To       *common.Address
	Value    *uint256.Int
	Data     []byte
	V, R, S  *uint256.Int
}

type rlpLegacyTx struct {
	Nonce    uint64
	GasPrice *uint256.Int
	Gas      uint64
	To       rlpAddressSlot
	Value    *uint256.Int
	Data     []byte
	V, R, S  *uint256.Int
}

// rlpAddressSlot encodes an optional "to" address: present as 20 bytes, or
// as the empty string for contract-creation transactions.
type rlpAddressSlot struct {
	addr *common.Address
}

func (a rlpAddressSlot) EncodeRLP() ([]byte, error) {
	if a.addr == nil {
		return []byte{0x80}, nil
	}
	return append([]byte{0x94}, a.addr[:]...), nil
}

func (a *rlpAddressSlot) DecodeRLP(raw []byte, isList bool) error {
	if isList {
		return ErrInvalidSig
	}
	if len(raw) == 0 {
		a.addr = nil
		return nil
	}
	if len(raw) != common.AddressLength {
		return ErrInvalidSig
	}
	var addr common.Address
	copy(addr[:], raw)
	a.addr = &addr
	return nil
}

func (tx *LegacyTx) txType() TxType { return LegacyTxType }

func (tx *LegacyTx) copy() TxData {
	cp := *tx
	cp.GasPrice = cloneU256(tx.GasPrice)
	cp.Value = cloneU256(tx.Value)
	cp.V, cp.R, cp.S = cloneU256(tx.V), cloneU256(tx.R), cloneU256(tx.S)
	cp.Data = append([]byte(nil), tx.Data...)
	if tx.To != nil {
		to := *tx.To
		cp.To = &to
	}
	return &cp
}

func (tx *LegacyTx) chainID() *uint256.Int {
	// EIP-155: chainID = (v - 35) / 2 for v >= 35; pre-155 legacy has no chain ID.
	if tx.V == nil {
		return new(uint256.Int)
	}
	v := tx.V.Uint64()
	if v != 27 && v != 28 {
		chainID := (v - 35) / 2
		return new(uint256.Int).SetUint64(chainID)
	}
	return new(uint256.Int)
}

func (tx *LegacyTx) accessList() AccessList            { return nil }
func (tx *LegacyTx) gas() uint64                       { return tx.Gas }
func (tx *LegacyTx) gasPrice() *uint256.Int            { return tx.GasPrice }
func (tx *LegacyTx) gasTipCap() *uint256.Int           { return tx.GasPrice }
func (tx *LegacyTx) gasFeeCap() *uint256.Int           { return tx.GasPrice }
func (tx *LegacyTx) value() *uint256.Int               { return tx.Value }
func (tx *LegacyTx) nonce() uint64                     { return tx.Nonce }
func (tx *LegacyTx) to() *common.Address               { return tx.To }
func (tx *LegacyTx) data() []byte                      { return tx.Data }
func (tx *LegacyTx) rawSignatureValues() (v, r, s *uint256.Int) { return tx.V, tx.R, tx.S }

func (tx *LegacyTx) setSignatureValues(chainID, v, r, s *uint256.Int) {
	tx.V, tx.R, tx.S = v, r, s
}

func (tx *LegacyTx) encodePayload() ([]byte, error) {
	return rlpEncodeFields(rlpLegacyTx{
		Nonce: tx.Nonce, GasPrice: tx.GasPrice, Gas: tx.Gas,
		To: rlpAddressSlot{tx.To}, Value: tx.Value, Data: tx.Data,
		V: tx.V, R: tx.R, S: tx.S,
	})
}

func (tx *LegacyTx) decodePayload(payload []byte) error {
	var r rlpLegacyTx
	if err := rlpDecodeFields(payload, &r); err != nil {
		return err
	}
	tx.Nonce, tx.GasPrice, tx.Gas = r.Nonce, r.GasPrice, r.Gas
	tx.To, tx.Value, tx.Data = r.To.addr, r.Value, r.Data
	tx.V, tx.R, tx.S = r.V, r.R, r.S
	return nil
}

func cloneU256(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}
