package rawdb

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/crypto"
)

// reservation records a reserve_blocks(count, interval) call: count empty
// skeleton blocks are addressable starting right after the block that was
// last real at the time of the call, without ever materializing them until
// looked up.
type reservation struct {
	firstNumber uint64 // number of the first reserved (skeleton) block
	count       uint64
	interval    uint64
	parentHash  common.Hash // hash of the block immediately before firstNumber
	parentTime  uint64
}

// LocalBlockchain is the contiguous-storage back-end: every block from
// genesis (or, for a chain seeded from a fork, from fork_block+1) onward
// lives in a dense slice indexed by number, with hash/tx-hash side
// indices and a running total-difficulty vector alongside it.
//
// Grounded on original_source/crates/edr_evm/src/block/local.rs for the
// dense-vector-plus-side-indices layout, and on the teacher's pattern
// (core/blockchain.go) of keeping a parallel total-difficulty tangent
// vector rather than recomputing it from the chain on every query.
type LocalBlockchain struct {
	mu sync.RWMutex

	startNumber uint64 // number of blocks[0]; 0 unless seeded from a fork

	blocks           []*types.Block
	receipts         [][]*types.Receipt
	totalDifficulty  []*uint256.Int // totalDifficulty[i] corresponds to blocks[i]
	byHash           map[common.Hash]uint64
	byTxHash         map[common.Hash]uint64 // transaction hash -> block number
	receiptByTxHash  map[common.Hash]*types.Receipt

	reservations []reservation // ascending by firstNumber, non-overlapping
}

// NewLocalBlockchain returns an empty store that will accept genesis (or
// fork_block+1, via startNumber) as its first inserted block.
func NewLocalBlockchain(startNumber uint64) *LocalBlockchain {
	return &LocalBlockchain{
		startNumber:     startNumber,
		byHash:          make(map[common.Hash]uint64),
		byTxHash:        make(map[common.Hash]uint64),
		receiptByTxHash: make(map[common.Hash]*types.Receipt),
	}
}

// LastBlockNumber returns the highest block number known, counting
// reserved-but-unmaterialized numbers.
func (c *LocalBlockchain) LastBlockNumber() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastBlockNumberLocked()
}

func (c *LocalBlockchain) lastBlockNumberLocked() uint64 {
	n := c.startNumber
	if len(c.blocks) > 0 {
		n = c.startNumber + uint64(len(c.blocks)) - 1
	}
	if len(c.reservations) > 0 {
		last := c.reservations[len(c.reservations)-1]
		if end := last.firstNumber + last.count - 1; end > n {
			n = end
		}
	}
	return n
}

// LastBlock returns the highest materialized block, synthesizing a
// skeleton block if the highest number is reserved but not yet demanded.
func (c *LocalBlockchain) LastBlock() (*types.Block, error) {
	return c.BlockByNumber(c.LastBlockNumber())
}

// BlockByNumber returns the block at number n: a real block if inserted,
// a synthesized skeleton block if n falls in a reserved range, or
// ErrBlockNotFound otherwise.
func (c *LocalBlockchain) BlockByNumber(n uint64) (*types.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blockByNumberLocked(n)
}

func (c *LocalBlockchain) blockByNumberLocked(n uint64) (*types.Block, error) {
	if n >= c.startNumber && n < c.startNumber+uint64(len(c.blocks)) {
		return c.blocks[n-c.startNumber], nil
	}
	if r, ok := c.reservationFor(n); ok {
		return c.synthesizeSkeleton(r, n)
	}
	return nil, ErrBlockNotFound
}

func (c *LocalBlockchain) reservationFor(n uint64) (reservation, bool) {
	for _, r := range c.reservations {
		if n >= r.firstNumber && n < r.firstNumber+r.count {
			return r, true
		}
	}
	return reservation{}, false
}

// synthesizeSkeleton materializes an empty block for a reserved number:
// an empty-bodied header chained to its predecessor (real or itself
// synthesized) with timestamp = parentTime + interval*offset and
// mix_hash = keccak256(parentHash ‖ offset) — deterministic and
// independent of the miner's PRNG, so repeated queries for the same
// reserved number are referentially transparent.
func (c *LocalBlockchain) synthesizeSkeleton(r reservation, n uint64) (*types.Block, error) {
	offset := n - r.firstNumber + 1
	parentHash := r.parentHash
	if n > r.firstNumber {
		prev, err := c.blockByNumberLocked(n - 1)
		if err != nil {
			return nil, err
		}
		parentHash = prev.Hash()
	}
	var offsetBytes [8]byte
	for i := 0; i < 8; i++ {
		offsetBytes[7-i] = byte(offset >> (8 * i))
	}
	mixHash := crypto.Keccak256Hash(parentHash.Bytes(), offsetBytes[:])
	header := &types.Header{
		ParentHash:       parentHash,
		StateRoot:        crypto.EmptyRootHash,
		TransactionsRoot: crypto.EmptyRootHash,
		ReceiptsRoot:     crypto.EmptyRootHash,
		Difficulty:       new(uint256.Int),
		Number:           n,
		GasLimit:         c.lastMaterializedGasLimit(),
		Timestamp:        r.parentTime + r.interval*offset,
		MixHash:          mixHash,
	}
	return types.NewBlock(header, nil, nil), nil
}

func (c *LocalBlockchain) lastMaterializedGasLimit() uint64 {
	if len(c.blocks) == 0 {
		return 30_000_000
	}
	return c.blocks[len(c.blocks)-1].Header.GasLimit
}

// BlockByHash returns the block with the given hash.
func (c *LocalBlockchain) BlockByHash(h common.Hash) (*types.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.byHash[h]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return c.blockByNumberLocked(n)
}

// BlockByTransactionHash returns the block embedding the transaction h.
func (c *LocalBlockchain) BlockByTransactionHash(h common.Hash) (*types.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.byTxHash[h]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return c.blockByNumberLocked(n)
}

// ReceiptByTransactionHash returns the receipt for transaction h.
func (c *LocalBlockchain) ReceiptByTransactionHash(h common.Hash) (*types.Receipt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.receiptByTxHash[h]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return r, nil
}

// TotalDifficultyByHash returns the chain's cumulative difficulty through
// the block with the given hash.
func (c *LocalBlockchain) TotalDifficultyByHash(h common.Hash) (*uint256.Int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.byHash[h]
	if !ok {
		return nil, ErrBlockNotFound
	}
	if n < c.startNumber || n >= c.startNumber+uint64(len(c.blocks)) {
		return nil, ErrBlockNotFound
	}
	return new(uint256.Int).Set(c.totalDifficulty[n-c.startNumber]), nil
}

// InsertBlock appends block (and its receipts, one per transaction, same
// order) as the new chain head. block.Number() must be exactly one past
// the highest inserted (materialized) block; reserved numbers do not count,
// so an insert after a reservation lands on its first reserved number.
// A reservation the insert reaches gives up the numbers up to and
// including the inserted one; its remaining numbers stay reserved and
// chain from the inserted block.
func (c *LocalBlockchain) InsertBlock(block *types.Block, receipts []*types.Receipt) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := block.Hash()
	if _, exists := c.byHash[hash]; exists {
		return ErrDuplicateBlock
	}
	wantNumber := c.startNumber + uint64(len(c.blocks))
	if block.Number() != wantNumber {
		return ErrDuplicateBlock
	}
	for _, tx := range block.Transactions {
		h := tx.Hash()
		if _, exists := c.byTxHash[h]; exists {
			return ErrDuplicateTransaction
		}
	}

	var prevTD *uint256.Int
	if len(c.totalDifficulty) > 0 {
		prevTD = c.totalDifficulty[len(c.totalDifficulty)-1]
	} else {
		prevTD = new(uint256.Int)
	}
	td := new(uint256.Int).Add(prevTD, block.Header.Difficulty)

	c.blocks = append(c.blocks, block)
	c.receipts = append(c.receipts, receipts)
	c.totalDifficulty = append(c.totalDifficulty, td)
	c.byHash[hash] = block.Number()
	for i, tx := range block.Transactions {
		h := tx.Hash()
		c.byTxHash[h] = block.Number()
		if i < len(receipts) {
			c.receiptByTxHash[h] = receipts[i]
		}
	}

	// Inserting a real block at or past a reservation's start trims it:
	// the reservation only covers numbers with no real block yet.
	kept := c.reservations[:0]
	for _, r := range c.reservations {
		if block.Number() >= r.firstNumber+r.count-1 {
			continue
		}
		if block.Number() >= r.firstNumber {
			consumed := block.Number() - r.firstNumber + 1
			r.firstNumber += consumed
			r.count -= consumed
			r.parentHash = hash
			r.parentTime = block.Header.Timestamp
		}
		kept = append(kept, r)
	}
	c.reservations = kept

	return nil
}

// ReserveBlocks advances LastBlockNumber by count without materializing
// any block; skeleton blocks are synthesized lazily on demand by
// BlockByNumber. Returns ErrReserveBeforeLastBlock if no block has been
// inserted yet (a reservation needs a concrete parent to chain from).
func (c *LocalBlockchain) ReserveBlocks(count, interval uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if count == 0 {
		return nil
	}
	if len(c.blocks) == 0 {
		return ErrReserveBeforeLastBlock
	}
	firstNumber := c.lastBlockNumberLocked() + 1
	parent, err := c.blockByNumberLocked(firstNumber - 1)
	if err != nil {
		return err
	}
	c.reservations = append(c.reservations, reservation{
		firstNumber: firstNumber,
		count:       count,
		interval:    interval,
		parentHash:  parent.Hash(),
		parentTime:  parent.Header.Timestamp,
	})
	return nil
}

// RevertToBlock removes every block and receipt with number > n, along
// with any reservation that started past n. n must be at or above
// startNumber; LocalBlockchain has no concept of a fork block so the
// "below fork_block" failure mode lives on ForkedBlockchain.
func (c *LocalBlockchain) RevertToBlock(n uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < c.startNumber {
		return ErrRevertBelowForkBlock
	}
	keepCount := n - c.startNumber + 1
	if keepCount > uint64(len(c.blocks)) {
		keepCount = uint64(len(c.blocks))
	}
	for i := keepCount; i < uint64(len(c.blocks)); i++ {
		block := c.blocks[i]
		delete(c.byHash, block.Hash())
		for _, tx := range block.Transactions {
			h := tx.Hash()
			delete(c.byTxHash, h)
			delete(c.receiptByTxHash, h)
		}
	}
	c.blocks = c.blocks[:keepCount]
	c.receipts = c.receipts[:keepCount]
	c.totalDifficulty = c.totalDifficulty[:keepCount]

	kept := c.reservations[:0]
	for _, r := range c.reservations {
		if r.firstNumber > n {
			continue
		}
		// Truncate a reservation straddling n so it no longer advances
		// LastBlockNumber past the revert point.
		if end := r.firstNumber + r.count - 1; end > n {
			r.count = n - r.firstNumber + 1
		}
		kept = append(kept, r)
	}
	c.reservations = kept
	return nil
}
