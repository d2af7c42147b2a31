package types

import (
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
)

// AccessListTx is the EIP-2930 transaction: a legacy-fee-market transaction
// carrying an explicit storage access list plus a chain ID.
type AccessListTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasPrice   *uint256.Int
	Gas        uint64
	To         *common.Address
	Value      *uint256.Int
	Data       []byte
	AccessList AccessList
	V, R, S    *uint256.Int
}

type rlpAccessListTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasPrice   *uint256.Int
	Gas        uint64
	To         rlpAddressSlot
	Value      *uint256.Int
	Data       []byte
	AccessList AccessList
	V, R, S    *uint256.Int
}

func (tx *AccessListTx) txType() TxType { return AccessListTxType }

func (tx *AccessListTx) copy() TxData {
	cp := *tx
	cp.ChainID = cloneU256(tx.ChainID)
	cp.GasPrice = cloneU256(tx.GasPrice)
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

func (tx *AccessListTx) chainID() *uint256.Int    { return tx.ChainID }
func (tx *AccessListTx) accessList() AccessList   { return tx.AccessList }
func (tx *AccessListTx) gas() uint64              { return tx.Gas }
func (tx *AccessListTx) gasPrice() *uint256.Int   { return tx.GasPrice }
func (tx *AccessListTx) gasTipCap() *uint256.Int  { return tx.GasPrice }
func (tx *AccessListTx) gasFeeCap() *uint256.Int  { return tx.GasPrice }
func (tx *AccessListTx) value() *uint256.Int      { return tx.Value }
func (tx *AccessListTx) nonce() uint64            { return tx.Nonce }
func (tx *AccessListTx) to() *common.Address      { return tx.To }
func (tx *AccessListTx) data() []byte             { return tx.Data }
func (tx *AccessListTx) rawSignatureValues() (v, r, s *uint256.Int) { return tx.V, tx.R, tx.S }

func (tx *AccessListTx) setSignatureValues(chainID, v, r, s *uint256.Int) {
	tx.ChainID, tx.V, tx.R, tx.S = chainID, v, r, s
}

func (tx *AccessListTx) encodePayload() ([]byte, error) {
	return rlpEncodeFields(rlpAccessListTx{
		ChainID: tx.ChainID, Nonce: tx.Nonce, GasPrice: tx.GasPrice, Gas: tx.Gas,
		To: rlpAddressSlot{tx.To}, Value: tx.Value, Data: tx.Data,
		AccessList: tx.AccessList, V: tx.V, R: tx.R, S: tx.S,
	})
}

func (tx *AccessListTx) decodePayload(payload []byte) error {
	var r rlpAccessListTx
	if err := rlpDecodeFields(payload, &r); err != nil {
		return err
	}
	*tx = AccessListTx{
		ChainID: r.ChainID, Nonce: r.Nonce, GasPrice: r.GasPrice, Gas: r.Gas,
		To: r.To.addr, Value: r.Value, Data: r.Data,
		AccessList: r.AccessList, V: r.V, R: r.R, S: r.S,
	}
	return nil
}
