package txpool

import (
	"container/heap"
	"context"
	"encoding/binary"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/bloomfilter/v2"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/crypto"
)

// AccountState is the account-nonce/balance/code view the pool validates
// admission and re-validates Update() against. *core/state.StateDB
// satisfies this.
type AccountState interface {
	Basic(ctx context.Context, addr common.Address) (*types.Account, error)
}

// PendingTransaction wraps a signed transaction with the sender recovered
// once at construction time (the spec's "signature validity performed at
// PendingTransaction construction" admission check).
type PendingTransaction struct {
	Tx     *types.Transaction
	Sender common.Address
	seq    uint64 // insertion order, for FIFO ties
}

// NewPendingTransaction recovers tx's sender under chainID and wraps it.
// A failure here is the signature-validity admission check; callers
// should translate a recovery error directly to an InvalidTransaction
// response rather than calling AddTransaction at all.
func NewPendingTransaction(tx *types.Transaction, chainID uint64) (*PendingTransaction, error) {
	sender, err := types.Sender(tx, chainID)
	if err != nil {
		return nil, err
	}
	return &PendingTransaction{Tx: tx, Sender: sender}, nil
}

// Config holds the pool's admission parameters.
type Config struct {
	ChainID          uint64
	BlockGasLimit    uint64
	AllowUnsafeSigners bool // disables EIP-3607's sender-not-a-contract check
}

// Pool holds transactions awaiting inclusion, split per sender into a
// pending (contiguous-from-current-nonce) and future queue, per the
// package doc.
type Pool struct {
	cfg   Config
	state AccountState

	bySender map[common.Address]*senderQueue
	byHash   map[common.Hash]*PendingTransaction
	senders  mapset.Set[common.Address]
	known    *bloomfilter.Filter // probabilistic hash-seen filter, false positives re-checked against byHash
	seq      uint64

	onAdded func(*PendingTransaction)
}

// SetOnAdded registers fn to be called synchronously after every
// successful AddTransaction, including replacements, the same wiring
// shape as miner.New's onMined callback. internal/ethapi does not use it:
// it notifies internal/filters directly once AddTransaction returns.
func (p *Pool) SetOnAdded(fn func(*PendingTransaction)) { p.onAdded = fn }

// New returns an empty pool.
func New(cfg Config, state AccountState) *Pool {
	known, err := bloomfilter.New(1<<20, 4)
	if err != nil {
		// bloomfilter.New only errors on a degenerate (m, k); both
		// constants here are fixed and valid, so this cannot happen.
		panic(err)
	}
	return &Pool{
		cfg:      cfg,
		state:    state,
		bySender: make(map[common.Address]*senderQueue),
		byHash:   make(map[common.Hash]*PendingTransaction),
		senders:  mapset.NewThreadUnsafeSet[common.Address](),
		known:    known,
	}
}

// txHashKey adapts a common.Hash's leading 8 bytes into the hash.Hash64
// the bloom filter operates on.
type txHashKey uint64

func (h txHashKey) Write(p []byte) (int, error) { return len(p), nil }
func (h txHashKey) Sum(b []byte) []byte         { return b }
func (h txHashKey) Reset()                      {}
func (h txHashKey) Size() int                   { return 8 }
func (h txHashKey) BlockSize() int              { return 8 }
func (h txHashKey) Sum64() uint64               { return uint64(h) }

func bloomKey(h common.Hash) txHashKey {
	return txHashKey(binary.BigEndian.Uint64(h[:8]))
}

// senderQueue is one sender's pending/future nonce maps plus min-heaps of
// their keys, so the lowest-nonce entry (needed by promotion and
// contiguity checks) is always a cheap peek rather than a map scan.
type senderQueue struct {
	pending     map[uint64]*PendingTransaction
	future      map[uint64]*PendingTransaction
	pendingHeap nonceHeap
	futureHeap  nonceHeap
}

func newSenderQueue() *senderQueue {
	return &senderQueue{
		pending: make(map[uint64]*PendingTransaction),
		future:  make(map[uint64]*PendingTransaction),
	}
}

// nextPendingNonce is one past the highest contiguous pending nonce, i.e.
// expected_next_pending_nonce in the spec's terms, given accountNonce as
// the floor (the state's current nonce for this sender).
func (q *senderQueue) nextPendingNonce(accountNonce uint64) uint64 {
	n := accountNonce
	for {
		if _, ok := q.pending[n]; !ok {
			return n
		}
		n++
	}
}

// nonceHeap is a container/heap-backed min-heap of nonces: per-sender
// bookkeeping internal to this package, for which no example repo or
// ecosystem library offers anything more apt than a small heap (see
// DESIGN.md).
type nonceHeap []uint64

func (h nonceHeap) Len() int            { return len(h) }
func (h nonceHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h nonceHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nonceHeap) Push(x interface{}) { *h = append(*h, x.(uint64)) }
func (h *nonceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func requiredFunds(tx *types.Transaction) *uint256.Int {
	price := tx.GasPrice()
	if tx.Type() != types.LegacyTxType && tx.Type() != types.AccessListTxType {
		price = tx.GasFeeCap()
	}
	cost := new(uint256.Int).Mul(price, new(uint256.Int).SetUint64(tx.Gas()))
	return cost.Add(cost, tx.Value())
}

// isReplacementPriced reports whether candidate is priced strictly above
// incumbent per the spec's legacy/1559 replacement rule.
func isReplacementPriced(incumbent, candidate *types.Transaction) bool {
	if candidate.Type() != types.LegacyTxType && candidate.Type() != types.AccessListTxType {
		return candidate.GasFeeCap().Cmp(incumbent.GasFeeCap()) > 0 &&
			candidate.GasTipCap().Cmp(incumbent.GasTipCap()) > 0
	}
	return candidate.GasPrice().Cmp(incumbent.GasPrice()) > 0
}

// AddTransaction runs the spec's admission checks in order and, on
// success, places ptx in the pending or future queue (promoting any
// future transactions this closes the gap for), or replaces an existing
// same-nonce entry if candidate outprices it.
func (p *Pool) AddTransaction(ctx context.Context, ptx *PendingTransaction) error {
	tx := ptx.Tx
	if tx.ChainID() != nil && !tx.ChainID().IsZero() && tx.ChainID().Uint64() != p.cfg.ChainID {
		return ErrInvalidChainID
	}

	account, err := p.state.Basic(ctx, ptx.Sender)
	if err != nil {
		return err
	}
	if account == nil {
		acc := types.EmptyAccount()
		account = &acc
	}

	if !p.cfg.AllowUnsafeSigners && account.CodeHash != crypto.EmptyCodeHash && account.CodeHash != (common.Hash{}) {
		return ErrSenderIsContract
	}
	if account.Balance.Cmp(requiredFunds(tx)) < 0 {
		return ErrInsufficientFunds
	}
	if tx.Gas() > p.cfg.BlockGasLimit {
		return ErrExceedsBlockGasLimit
	}
	if tx.Nonce() < account.Nonce {
		return ErrNonceTooLow
	}

	q, ok := p.bySender[ptx.Sender]
	if !ok {
		q = newSenderQueue()
		p.bySender[ptx.Sender] = q
		p.senders.Add(ptx.Sender)
	}

	if existing, replacing := q.pending[tx.Nonce()]; replacing {
		if !isReplacementPriced(existing.Tx, tx) {
			return ErrReplacementUnderpriced
		}
		p.insertReplacing(q.pending, existing, ptx)
		p.notifyAdded(ptx)
		return nil
	}
	if existing, replacing := q.future[tx.Nonce()]; replacing {
		if !isReplacementPriced(existing.Tx, tx) {
			return ErrReplacementUnderpriced
		}
		p.insertReplacing(q.future, existing, ptx)
		p.notifyAdded(ptx)
		return nil
	}

	p.seq++
	ptx.seq = p.seq

	next := q.nextPendingNonce(account.Nonce)
	if tx.Nonce() == next {
		q.pending[tx.Nonce()] = ptx
		heap.Push(&q.pendingHeap, tx.Nonce())
		p.byHash[tx.Hash()] = ptx
		p.known.Add(bloomKey(tx.Hash()))
		p.promote(q, account.Nonce)
		p.notifyAdded(ptx)
		return nil
	}

	q.future[tx.Nonce()] = ptx
	heap.Push(&q.futureHeap, tx.Nonce())
	p.byHash[tx.Hash()] = ptx
	p.known.Add(bloomKey(tx.Hash()))
	p.notifyAdded(ptx)
	return nil
}

func (p *Pool) notifyAdded(ptx *PendingTransaction) {
	if p.onAdded != nil {
		p.onAdded(ptx)
	}
}

// insertReplacing swaps old for replacement at the same nonce. The
// nonce's heap entry is left untouched since it's still correct (the
// nonce itself doesn't change, only which transaction occupies it).
func (p *Pool) insertReplacing(m map[uint64]*PendingTransaction, old, replacement *PendingTransaction) {
	delete(p.byHash, old.Tx.Hash())
	p.seq++
	replacement.seq = p.seq
	m[replacement.Tx.Nonce()] = replacement
	p.byHash[replacement.Tx.Hash()] = replacement
	p.known.Add(bloomKey(replacement.Tx.Hash()))
}

// promote moves future transactions into pending while the nonce run
// stays contiguous from accountNonce.
func (p *Pool) promote(q *senderQueue, accountNonce uint64) {
	next := q.nextPendingNonce(accountNonce)
	for {
		ptx, ok := q.future[next]
		if !ok {
			return
		}
		delete(q.future, next)
		removeNonceFromHeap(&q.futureHeap, next)
		q.pending[next] = ptx
		heap.Push(&q.pendingHeap, next)
		next++
	}
}

func removeNonceFromHeap(h *nonceHeap, nonce uint64) {
	for i, n := range *h {
		if n == nonce {
			heap.Remove(h, i)
			return
		}
	}
}

// Get returns the pooled transaction with the given hash, if any.
func (p *Pool) Get(hash common.Hash) (*PendingTransaction, bool) {
	if !p.known.Contains(bloomKey(hash)) {
		return nil, false
	}
	ptx, ok := p.byHash[hash]
	return ptx, ok
}

// Remove drops a transaction from whichever queue holds it (used once a
// transaction has been mined).
func (p *Pool) Remove(hash common.Hash) {
	ptx, ok := p.byHash[hash]
	if !ok {
		return
	}
	delete(p.byHash, hash)
	q, ok := p.bySender[ptx.Sender]
	if !ok {
		return
	}
	nonce := ptx.Tx.Nonce()
	if _, ok := q.pending[nonce]; ok {
		delete(q.pending, nonce)
		removeNonceFromHeap(&q.pendingHeap, nonce)
	}
	if _, ok := q.future[nonce]; ok {
		delete(q.future, nonce)
		removeNonceFromHeap(&q.futureHeap, nonce)
	}
	if len(q.pending) == 0 && len(q.future) == 0 {
		delete(p.bySender, ptx.Sender)
		p.senders.Remove(ptx.Sender)
	}
}

// PendingBySender returns sender's pending transactions in nonce order.
func (p *Pool) PendingBySender(sender common.Address) []*PendingTransaction {
	q, ok := p.bySender[sender]
	if !ok {
		return nil
	}
	out := make([]*PendingTransaction, 0, len(q.pending))
	nonces := append(nonceHeap(nil), q.pendingHeap...)
	heap.Init(&nonces)
	for nonces.Len() > 0 {
		n := heap.Pop(&nonces).(uint64)
		out = append(out, q.pending[n])
	}
	return out
}

// AllPending returns every sender's pending transactions, each sender's
// run in nonce order, senders in FIFO order of their oldest pending
// transaction (the default mining-order policy's input).
func (p *Pool) AllPending() []*PendingTransaction {
	type bucket struct {
		sender common.Address
		txs    []*PendingTransaction
		minSeq uint64
	}
	buckets := make([]bucket, 0, p.senders.Cardinality())
	for sender := range p.bySender {
		txs := p.PendingBySender(sender)
		if len(txs) == 0 {
			continue
		}
		minSeq := txs[0].seq
		for _, t := range txs {
			if t.seq < minSeq {
				minSeq = t.seq
			}
		}
		buckets = append(buckets, bucket{sender: sender, txs: txs, minSeq: minSeq})
	}
	for i := 1; i < len(buckets); i++ {
		for j := i; j > 0 && buckets[j].minSeq < buckets[j-1].minSeq; j-- {
			buckets[j], buckets[j-1] = buckets[j-1], buckets[j]
		}
	}
	var out []*PendingTransaction
	for _, b := range buckets {
		out = append(out, b.txs...)
	}
	return out
}

// Update re-validates every pooled transaction against the latest state:
// drops transactions whose sender nonce has advanced past them or whose
// balance no longer covers them, and promotes future -> pending where the
// gap has closed.
func (p *Pool) Update(ctx context.Context) error {
	for sender, q := range p.bySender {
		account, err := p.state.Basic(ctx, sender)
		if err != nil {
			return err
		}
		if account == nil {
			acc := types.EmptyAccount()
			account = &acc
		}
		p.dropStale(q, account)
		p.promote(q, account.Nonce)
		if len(q.pending) == 0 && len(q.future) == 0 {
			delete(p.bySender, sender)
			p.senders.Remove(sender)
		}
	}
	return nil
}

func (p *Pool) dropStale(q *senderQueue, account *types.Account) {
	drop := func(m map[uint64]*PendingTransaction, h *nonceHeap) {
		for nonce, ptx := range m {
			if nonce < account.Nonce || account.Balance.Cmp(requiredFunds(ptx.Tx)) < 0 {
				delete(m, nonce)
				removeNonceFromHeap(h, nonce)
				delete(p.byHash, ptx.Tx.Hash())
			}
		}
	}
	drop(q.pending, &q.pendingHeap)
	drop(q.future, &q.futureHeap)
}

// SetBlockGasLimit changes the admission cap and re-validates every
// pooled transaction against it, dropping those that no longer fit.
func (p *Pool) SetBlockGasLimit(limit uint64) {
	p.cfg.BlockGasLimit = limit
	for sender, q := range p.bySender {
		drop := func(m map[uint64]*PendingTransaction, h *nonceHeap) {
			for nonce, ptx := range m {
				if ptx.Tx.Gas() > limit {
					delete(m, nonce)
					removeNonceFromHeap(h, nonce)
					delete(p.byHash, ptx.Tx.Hash())
				}
			}
		}
		drop(q.pending, &q.pendingHeap)
		drop(q.future, &q.futureHeap)
		if len(q.pending) == 0 && len(q.future) == 0 {
			delete(p.bySender, sender)
			p.senders.Remove(sender)
		}
	}
}
