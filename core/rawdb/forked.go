package rawdb

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
)

// forkedCacheSize bounds each of ForkedBlockchain's remote caches. Forked
// sessions tend to revisit a working set of recent historical blocks
// rather than the whole pre-fork chain, so a fixed-size LRU keeps memory
// bounded the same way core/state.CachedRemoteState does for account and
// storage lookups.
const forkedCacheSize = 4096

// RemoteBlockProvider is the subset of a JSON-RPC execution-layer client
// ForkedBlockchain needs to resolve numbers at or below the fork block.
// internal/remote's client satisfies it.
type RemoteBlockProvider interface {
	BlockByNumber(ctx context.Context, number uint64) (*types.Block, error)
	BlockByHash(ctx context.Context, hash common.Hash) (*types.Block, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Block, error)
	ReceiptByTransactionHash(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	TotalDifficultyByHash(ctx context.Context, hash common.Hash) (*uint256.Int, error)
}

// ForkedBlockchain overlays a LocalBlockchain (numbers > forkBlock) on top
// of a remote chain (numbers <= forkBlock), caching remote answers in
// bounded LRU caches so repeated lookups for the same historical block
// don't refetch. Grounded on original_source/crates/edr_evm/src/block/remote.rs
// for the split point and on core/state.CachedRemoteState for this
// codebase's own remote-caching idiom (lazy population, ctx-qualified
// provider calls).
type ForkedBlockchain struct {
	local     *LocalBlockchain
	remote    RemoteBlockProvider
	forkBlock uint64

	mu             sync.Mutex
	blockCache     *lru.Cache // uint64 -> *types.Block
	hashIndex      *lru.Cache // common.Hash -> uint64
	receiptCache   *lru.Cache // common.Hash -> *types.Receipt
	totalDiffCache *lru.Cache // common.Hash -> *uint256.Int
}

// NewForkedBlockchain returns a blockchain whose local portion starts
// immediately after forkBlock.
func NewForkedBlockchain(remote RemoteBlockProvider, forkBlock uint64) (*ForkedBlockchain, error) {
	blockCache, err := lru.New(forkedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("rawdb: block cache: %w", err)
	}
	hashIndex, err := lru.New(forkedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("rawdb: hash index cache: %w", err)
	}
	receiptCache, err := lru.New(forkedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("rawdb: receipt cache: %w", err)
	}
	totalDiffCache, err := lru.New(forkedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("rawdb: total difficulty cache: %w", err)
	}
	return &ForkedBlockchain{
		local:          NewLocalBlockchain(forkBlock + 1),
		remote:         remote,
		forkBlock:      forkBlock,
		blockCache:     blockCache,
		hashIndex:      hashIndex,
		receiptCache:   receiptCache,
		totalDiffCache: totalDiffCache,
	}, nil
}

// BlockByNumber returns the local block if present; else, for numbers at
// or below the fork block, fetches (and caches) the remote block.
func (c *ForkedBlockchain) BlockByNumber(ctx context.Context, n uint64) (*types.Block, error) {
	if n > c.forkBlock {
		return c.local.BlockByNumber(n)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.blockCache.Get(n); ok {
		return b.(*types.Block), nil
	}
	b, err := c.remote.BlockByNumber(ctx, n)
	if err != nil {
		return nil, err
	}
	c.cacheLocked(b)
	return b, nil
}

func (c *ForkedBlockchain) cacheLocked(b *types.Block) {
	c.blockCache.Add(b.Number(), b)
	c.hashIndex.Add(b.Hash(), b.Number())
}

// BlockByHash checks the local store, then the remote-block cache, then
// falls through to a remote fetch by hash.
func (c *ForkedBlockchain) BlockByHash(ctx context.Context, h common.Hash) (*types.Block, error) {
	if b, err := c.local.BlockByHash(h); err == nil {
		return b, nil
	}
	c.mu.Lock()
	if n, ok := c.hashIndex.Get(h); ok {
		b, _ := c.blockCache.Get(n.(uint64))
		c.mu.Unlock()
		if b != nil {
			return b.(*types.Block), nil
		}
	} else {
		c.mu.Unlock()
	}

	b, err := c.remote.BlockByHash(ctx, h)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cacheLocked(b)
	c.mu.Unlock()
	return b, nil
}

// BlockByTransactionHash checks the local index first, then asks the
// remote client for the block containing h.
func (c *ForkedBlockchain) BlockByTransactionHash(ctx context.Context, h common.Hash) (*types.Block, error) {
	if b, err := c.local.BlockByTransactionHash(h); err == nil {
		return b, nil
	}
	b, err := c.remote.TransactionByHash(ctx, h)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cacheLocked(b)
	c.mu.Unlock()
	return b, nil
}

// ReceiptByTransactionHash checks the local index, then a sparse remote
// receipt cache, hydrating it from the remote client on first access.
func (c *ForkedBlockchain) ReceiptByTransactionHash(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	if r, err := c.local.ReceiptByTransactionHash(h); err == nil {
		return r, nil
	}
	c.mu.Lock()
	if r, ok := c.receiptCache.Get(h); ok {
		c.mu.Unlock()
		return r.(*types.Receipt), nil
	}
	c.mu.Unlock()

	r, err := c.remote.ReceiptByTransactionHash(ctx, h)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.receiptCache.Add(h, r)
	c.mu.Unlock()
	return r, nil
}

// LastBlock and LastBlockNumber only ever refer to the local overlay:
// the remote chain's own head is not this devnode's chain head.
func (c *ForkedBlockchain) LastBlock() (*types.Block, error) { return c.local.LastBlock() }
func (c *ForkedBlockchain) LastBlockNumber() uint64          { return c.local.LastBlockNumber() }

// TotalDifficultyByHash checks the local vector, then a remote cache that
// only this method fills, on its own remote fetches.
func (c *ForkedBlockchain) TotalDifficultyByHash(ctx context.Context, h common.Hash) (*uint256.Int, error) {
	if td, err := c.local.TotalDifficultyByHash(h); err == nil {
		return td, nil
	}
	c.mu.Lock()
	if td, ok := c.totalDiffCache.Get(h); ok {
		c.mu.Unlock()
		return td.(*uint256.Int), nil
	}
	c.mu.Unlock()

	td, err := c.remote.TotalDifficultyByHash(ctx, h)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.totalDiffCache.Add(h, td)
	c.mu.Unlock()
	return td, nil
}

// InsertBlock delegates to the local overlay; ForkedBlockchain never
// mutates remote history.
func (c *ForkedBlockchain) InsertBlock(block *types.Block, receipts []*types.Receipt) error {
	return c.local.InsertBlock(block, receipts)
}

// ReserveBlocks delegates to the local overlay.
func (c *ForkedBlockchain) ReserveBlocks(count, interval uint64) error {
	return c.local.ReserveBlocks(count, interval)
}

// RevertToBlock delegates to the local overlay, additionally rejecting
// reverts at or below the fork block: the remote chain before the fork
// point is immutable from this devnode's perspective.
func (c *ForkedBlockchain) RevertToBlock(n uint64) error {
	if n <= c.forkBlock {
		return ErrRevertBelowForkBlock
	}
	return c.local.RevertToBlock(n)
}

// ForkBlock returns the block number this chain forked from.
func (c *ForkedBlockchain) ForkBlock() uint64 { return c.forkBlock }
