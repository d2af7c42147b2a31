package types

import (
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
)

// DynamicFeeTx is the EIP-1559 transaction: a priority-fee/max-fee market
// transaction replacing the flat gasPrice with gasTipCap/gasFeeCap.
type DynamicFeeTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasTipCap  *uint256.Int
	GasFeeCap  *uint256.Int
	Gas        uint64
	To         *common.Address
	Value      *uint256.Int
	Data       []byte
	AccessList AccessList
	V, R, S    *uint256.Int
}

type rlpDynamicFeeTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasTipCap  *uint256.Int
	GasFeeCap  *uint256.Int
	Gas        uint64
	To         rlpAddressSlot
	Value      *uint256.Int
	Data       []byte
	AccessList AccessList
	V, R, S    *uint256.Int
}

func (tx *DynamicFeeTx) txType() TxType { return DynamicFeeTxType }

func (tx *DynamicFeeTx) copy() TxData {
	cp := *tx
	cp.ChainID = cloneU256(tx.ChainID)
	cp.GasTipCap = cloneU256(tx.GasTipCap)
	cp.GasFeeCap = cloneU256(tx.GasFeeCap)
	cp.Value = cloneU256(tx.Value)
	cp.V, cp.R, cp.S = cloneU256(tx.V), cloneU256(tx.R), cloneU256(tx.S)
	cp.Data = append([]byte(nil), tx.Data...)
	cp.AccessList = append(AccessList(nil), tx.AccessList...)
	if tx.To != nil {
		to := *tx.To
		cp.To = &to
	}
	return &cp
}

func (tx *DynamicFeeTx) chainID() *uint256.Int   { return tx.ChainID }
func (tx *DynamicFeeTx) accessList() AccessList  { return tx.AccessList }
func (tx *DynamicFeeTx) gas() uint64             { return tx.Gas }
func (tx *DynamicFeeTx) gasPrice() *uint256.Int  { return tx.GasFeeCap }
func (tx *DynamicFeeTx) gasTipCap() *uint256.Int { return tx.GasTipCap }
func (tx *DynamicFeeTx) gasFeeCap() *uint256.Int { return tx.GasFeeCap }
func (tx *DynamicFeeTx) value() *uint256.Int     { return tx.Value }
func (tx *DynamicFeeTx) nonce() uint64           { return tx.Nonce }
func (tx *DynamicFeeTx) to() *common.Address     { return tx.To }
func (tx *DynamicFeeTx) data() []byte            { return tx.Data }
func (tx *DynamicFeeTx) rawSignatureValues() (v, r, s *uint256.Int) { return tx.V, tx.R, tx.S }

func (tx *DynamicFeeTx) setSignatureValues(chainID, v, r, s *uint256.Int) {
	tx.ChainID, tx.V, tx.R, tx.S = chainID, v, r, s
}

func (tx *DynamicFeeTx) encodePayload() ([]byte, error) {
	return rlpEncodeFields(rlpDynamicFeeTx{
		ChainID: tx.ChainID, Nonce: tx.Nonce, GasTipCap: tx.GasTipCap, GasFeeCap: tx.GasFeeCap,
		Gas: tx.Gas, To: rlpAddressSlot{tx.To}, Value: tx.Value, Data: tx.Data,
		AccessList: tx.AccessList, V: tx.V, R: tx.R, S: tx.S,
	})
}

func (tx *DynamicFeeTx) decodePayload(payload []byte) error {
	var r rlpDynamicFeeTx
	if err := rlpDecodeFields(payload, &r); err != nil {
		return err
	}
	*tx = DynamicFeeTx{
		ChainID: r.ChainID, Nonce: r.Nonce, GasTipCap: r.GasTipCap, GasFeeCap: r.GasFeeCap,
		Gas: r.Gas, To: r.To.addr, Value: r.Value, Data: r.Data,
		AccessList: r.AccessList, V: r.V, R: r.R, S: r.S,
	}
	return nil
}
