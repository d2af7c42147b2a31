package types

import (
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
)

// BlobTx is the EIP-4844 transaction. It always carries a "to" address
// (blob transactions cannot create contracts) and a list of versioned blob
// hashes; the blob contents/KZG commitments themselves are a consensus-
// layer/mempool-gossip concern outside the scope of this executor, which
// only needs the structural fields to compute hashes, intrinsic gas, and
// fee-market admission.
type BlobTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasTipCap  *uint256.Int
	GasFeeCap  *uint256.Int
	Gas        uint64
	To         common.Address
	Value      *uint256.Int
	Data       []byte
	AccessList AccessList
	MaxFeePerBlobGas *uint256.Int
	BlobHashes []common.Hash
	V, R, S    *uint256.Int
}

type rlpBlobTx struct {
	ChainID          *uint256.Int
	Nonce            uint64
	GasTipCap        *uint256.Int
	GasFeeCap        *uint256.Int
	Gas              uint64
	To               common.Address
	Value            *uint256.Int
	Data             []byte
	AccessList       AccessList
	MaxFeePerBlobGas *uint256.Int
	BlobHashes       []common.Hash
	V, R, S          *uint256.Int
}

func (tx *BlobTx) txType() TxType { return BlobTxType }

func (tx *BlobTx) copy() TxData {
	cp := *tx
	cp.ChainID = cloneU256(tx.ChainID)
	cp.GasTipCap = cloneU256(tx.GasTipCap)
	cp.GasFeeCap = cloneU256(tx.GasFeeCap)
	cp.Value = cloneU256(tx.Value)
	cp.MaxFeePerBlobGas = cloneU256(tx.MaxFeePerBlobGas)
	cp.V, cp.R, cp.S = cloneU256(tx.V), cloneU256(tx.R), cloneU256(tx.S)
	cp.Data = append([]byte(nil), tx.Data...)
	cp.AccessList = append(AccessList(nil), tx.AccessList...)
	cp.BlobHashes = append([]common.Hash(nil), tx.BlobHashes...)
	return &cp
}

func (tx *BlobTx) chainID() *uint256.Int   { return tx.ChainID }
func (tx *BlobTx) accessList() AccessList  { return tx.AccessList }
func (tx *BlobTx) gas() uint64             { return tx.Gas }
func (tx *BlobTx) gasPrice() *uint256.Int  { return tx.GasFeeCap }
func (tx *BlobTx) gasTipCap() *uint256.Int { return tx.GasTipCap }
func (tx *BlobTx) gasFeeCap() *uint256.Int { return tx.GasFeeCap }
func (tx *BlobTx) value() *uint256.Int     { return tx.Value }
func (tx *BlobTx) nonce() uint64           { return tx.Nonce }
func (tx *BlobTx) to() *common.Address     { to := tx.To; return &to }
func (tx *BlobTx) data() []byte            { return tx.Data }
func (tx *BlobTx) rawSignatureValues() (v, r, s *uint256.Int) { return tx.V, tx.R, tx.S }

func (tx *BlobTx) setSignatureValues(chainID, v, r, s *uint256.Int) {
	tx.ChainID, tx.V, tx.R, tx.S = chainID, v, r, s
}

func (tx *BlobTx) encodePayload() ([]byte, error) {
	return rlpEncodeFields(rlpBlobTx{
		ChainID: tx.ChainID, Nonce: tx.Nonce, GasTipCap: tx.GasTipCap, GasFeeCap: tx.GasFeeCap,
		Gas: tx.Gas, To: tx.To, Value: tx.Value, Data: tx.Data, AccessList: tx.AccessList,
		MaxFeePerBlobGas: tx.MaxFeePerBlobGas, BlobHashes: tx.BlobHashes,
		V: tx.V, R: tx.R, S: tx.S,
	})
}

func (tx *BlobTx) decodePayload(payload []byte) error {
	var r rlpBlobTx
	if err := rlpDecodeFields(payload, &r); err != nil {
		return err
	}
	*tx = BlobTx{
		ChainID: r.ChainID, Nonce: r.Nonce, GasTipCap: r.GasTipCap, GasFeeCap: r.GasFeeCap,
		Gas: r.Gas, To: r.To, Value: r.Value, Data: r.Data, AccessList: r.AccessList,
		MaxFeePerBlobGas: r.MaxFeePerBlobGas, BlobHashes: r.BlobHashes,
		V: r.V, R: r.R, S: r.S,
	}
	return nil
}
