package remote

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/core/types"
)

// Every method below is called with a concrete, already-mined block
// number or hash, never a "latest"/"pending" tag, so its answer can never
// change underneath the cache: all calls are cacheable.
const cacheable = true

// GetBalance satisfies core/state.RemoteProvider.
func (c *Client) GetBalance(ctx context.Context, addr common.Address, blockNumber uint64) (*uint256.Int, error) {
	var out hexutil.Big
	if err := c.call(ctx, "eth_getBalance", cacheable, &out, addr, blockTag(blockNumber)); err != nil {
		return nil, err
	}
	v, overflow := uint256.FromBig(out.ToInt())
	if overflow {
		return nil, errors.New("remote: balance overflows 256 bits")
	}
	return v, nil
}

// GetTransactionCount satisfies core/state.RemoteProvider.
func (c *Client) GetTransactionCount(ctx context.Context, addr common.Address, blockNumber uint64) (uint64, error) {
	var out hexutil.Uint64
	if err := c.call(ctx, "eth_getTransactionCount", cacheable, &out, addr, blockTag(blockNumber)); err != nil {
		return 0, err
	}
	return uint64(out), nil
}

// GetCode satisfies core/state.RemoteProvider.
func (c *Client) GetCode(ctx context.Context, addr common.Address, blockNumber uint64) ([]byte, error) {
	var out hexutil.Bytes
	if err := c.call(ctx, "eth_getCode", cacheable, &out, addr, blockTag(blockNumber)); err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// GetStorageAt satisfies core/state.RemoteProvider.
func (c *Client) GetStorageAt(ctx context.Context, addr common.Address, slot common.Hash, blockNumber uint64) (common.Hash, error) {
	var out common.Hash
	if err := c.call(ctx, "eth_getStorageAt", cacheable, &out, addr, slot, blockTag(blockNumber)); err != nil {
		return common.Hash{}, err
	}
	return out, nil
}

// BlockByNumber satisfies core/rawdb.RemoteBlockProvider.
func (c *Client) BlockByNumber(ctx context.Context, number uint64) (*types.Block, error) {
	return c.fetchBlock(ctx, "eth_getBlockByNumber", blockTag(number))
}

// BlockByHash satisfies core/rawdb.RemoteBlockProvider.
func (c *Client) BlockByHash(ctx context.Context, hash common.Hash) (*types.Block, error) {
	return c.fetchBlock(ctx, "eth_getBlockByHash", hash)
}

func (c *Client) fetchBlock(ctx context.Context, method string, blockArg any) (*types.Block, error) {
	var raw json.RawMessage
	if err := c.call(ctx, method, cacheable, &raw, blockArg, true); err != nil {
		return nil, err
	}
	var wb wireBlock
	if err := decodeInto(raw, &wb); err != nil {
		return nil, errors.Wrap(err, "remote: decode block")
	}
	return wb.toBlock()
}

// TransactionByHash satisfies core/rawdb.RemoteBlockProvider: it returns
// the full block containing the transaction, resolved via its
// blockHash field, matching ForkedBlockchain's expectation of a block
// to hydrate its caches from.
func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Block, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "eth_getTransactionByHash", cacheable, &raw, hash); err != nil {
		return nil, err
	}
	var wt wireTransaction
	if err := decodeInto(raw, &wt); err != nil {
		return nil, errors.Wrap(err, "remote: decode transaction")
	}
	if wt.BlockHash == nil {
		return nil, errors.New("remote: transaction has no mined block")
	}
	return c.BlockByHash(ctx, *wt.BlockHash)
}

// ReceiptByTransactionHash satisfies core/rawdb.RemoteBlockProvider.
func (c *Client) ReceiptByTransactionHash(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "eth_getTransactionReceipt", cacheable, &raw, hash); err != nil {
		return nil, err
	}
	var wr wireReceipt
	if err := decodeInto(raw, &wr); err != nil {
		return nil, errors.Wrap(err, "remote: decode receipt")
	}
	return wr.toReceipt(), nil
}

// TotalDifficultyByHash satisfies core/rawdb.RemoteBlockProvider. Post-
// merge chains report a constant total difficulty, but forked networks
// that predate the merge still need this for difficulty-bomb-era header
// validation, so the field is fetched rather than assumed.
func (c *Client) TotalDifficultyByHash(ctx context.Context, hash common.Hash) (*uint256.Int, error) {
	var out struct {
		TotalDifficulty *hexutil.Big `json:"totalDifficulty"`
	}
	if err := c.call(ctx, "eth_getBlockByHash", cacheable, &out, hash, false); err != nil {
		return nil, err
	}
	if out.TotalDifficulty == nil {
		return new(uint256.Int), nil
	}
	v, overflow := uint256.FromBig(out.TotalDifficulty.ToInt())
	if overflow {
		return nil, errors.New("remote: total difficulty overflows 256 bits")
	}
	return v, nil
}
