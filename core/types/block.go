package types

import (
	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/crypto"
	"github.com/ethdevnode/edr/rlp"
)

// Block is a header plus its body: the ordered transactions and, from
// Shanghai onward, validator withdrawals. Ommers are always empty for
// this devnode's post-merge-only chain but the header still carries
// OmmersHash for wire compatibility with tooling that expects it.
type Block struct {
	Header       *Header
	Transactions []*Transaction
	Withdrawals  []*Withdrawal // nil pre-Shanghai
}

// NewBlock returns a Block wrapping header by reference (callers must not
// mutate header after constructing the block, since Hash() is derived
// from it and callers elsewhere may memoize the result).
func NewBlock(header *Header, txs []*Transaction, withdrawals []*Withdrawal) *Block {
	return &Block{Header: header, Transactions: txs, Withdrawals: withdrawals}
}

// Hash returns the block's hash, i.e. its header's hash.
func (b *Block) Hash() common.Hash { return b.Header.Hash() }

// Number returns the block's height.
func (b *Block) Number() uint64 { return b.Header.Number }

// rlpBlockBase is the fixed-arity prefix every block shares: header,
// transaction envelopes, ommers (always empty for this post-merge-only
// chain). Withdrawals, present from Shanghai onward, is appended by hand
// below rather than through this struct, mirroring Header's own
// variable-arity encoding and for the same reason: a list's arity is how
// RLP distinguishes a pre-Shanghai body from a post-Shanghai one.
type rlpBlockBase struct {
	Header       *Header
	Transactions []rlp.RawValue
	Ommers       []*Header
}

// EncodeRLP implements rlp.Encoder.
func (b *Block) EncodeRLP() ([]byte, error) {
	txEnvelopes := make([]rlp.RawValue, len(b.Transactions))
	for i, tx := range b.Transactions {
		enc, err := tx.Envelope()
		if err != nil {
			return nil, err
		}
		txEnvelopes[i] = rlp.RawValue(enc)
	}
	enc, err := rlp.EncodeToBytes(rlpBlockBase{Header: b.Header, Transactions: txEnvelopes, Ommers: nil})
	if err != nil {
		return nil, err
	}
	if b.Withdrawals == nil {
		return enc, nil
	}
	isList, content, _, err := rlp.Split(enc)
	if err != nil || !isList {
		return nil, err
	}
	withdrawalsEnc, err := rlp.EncodeToBytes(b.Withdrawals)
	if err != nil {
		return nil, err
	}
	return rlp.WrapList(append(content, withdrawalsEnc...)), nil
}

// DecodeRLP implements rlp.Decoder.
func (b *Block) DecodeRLP(raw []byte, isList bool) error {
	items, err := rlp.SplitList(raw)
	if err != nil {
		return err
	}
	if len(items) < 3 {
		return errNotAList
	}
	var header Header
	if err := rlp.DecodeBytes(items[0], &header); err != nil {
		return err
	}
	var txEnvelopes []rlp.RawValue
	if err := rlp.DecodeBytes(items[1], &txEnvelopes); err != nil {
		return err
	}
	txs := make([]*Transaction, len(txEnvelopes))
	for i, enc := range txEnvelopes {
		tx, err := DecodeTransaction(enc)
		if err != nil {
			return err
		}
		txs[i] = tx
	}

	var withdrawals []*Withdrawal
	if len(items) > 3 {
		if err := rlp.DecodeBytes(items[3], &withdrawals); err != nil {
			return err
		}
	}

	b.Header = &header
	b.Transactions = txs
	b.Withdrawals = withdrawals
	return nil
}

// CalcTransactionsRoot computes the ordinary (non-Merkle-Patricia-shared)
// transactions-root: a fresh trie keyed by the RLP index of each
// transaction, matching the Yellow Paper's definition.
func CalcTransactionsRoot(txs []*Transaction, newTrie func() TrieLike) (common.Hash, error) {
	if len(txs) == 0 {
		return crypto.EmptyRootHash, nil
	}
	tr := newTrie()
	for i, tx := range txs {
		key, err := rlp.EncodeToBytes(uint64(i))
		if err != nil {
			return common.Hash{}, err
		}
		enc, err := tx.Envelope()
		if err != nil {
			return common.Hash{}, err
		}
		tr.Put(key, enc)
	}
	return tr.Hash(), nil
}

// CalcReceiptsRoot computes the receipts-root analogously to
// CalcTransactionsRoot.
func CalcReceiptsRoot(receipts []*Receipt, newTrie func() TrieLike) (common.Hash, error) {
	if len(receipts) == 0 {
		return crypto.EmptyRootHash, nil
	}
	tr := newTrie()
	for i, r := range receipts {
		key, err := rlp.EncodeToBytes(uint64(i))
		if err != nil {
			return common.Hash{}, err
		}
		enc, err := r.EncodeConsensus()
		if err != nil {
			return common.Hash{}, err
		}
		tr.Put(key, enc)
	}
	return tr.Hash(), nil
}

// CalcWithdrawalsRoot computes the withdrawals-root analogously to
// CalcTransactionsRoot, introduced by EIP-4895 (Shanghai).
func CalcWithdrawalsRoot(withdrawals []*Withdrawal, newTrie func() TrieLike) (common.Hash, error) {
	if len(withdrawals) == 0 {
		return crypto.EmptyRootHash, nil
	}
	tr := newTrie()
	for i, w := range withdrawals {
		key, err := rlp.EncodeToBytes(uint64(i))
		if err != nil {
			return common.Hash{}, err
		}
		enc, err := rlp.EncodeToBytes(w)
		if err != nil {
			return common.Hash{}, err
		}
		tr.Put(key, enc)
	}
	return tr.Hash(), nil
}

// TrieLike is the minimal surface CalcTransactionsRoot/CalcReceiptsRoot
// need from a Merkle-Patricia trie (satisfied by *trie.Trie); callers
// supply their own constructor so this package doesn't need to decide
// node-cache sharing policy on the trie's behalf.
type TrieLike interface {
	Put(key, value []byte)
	Hash() common.Hash
}
