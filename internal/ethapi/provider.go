package ethapi

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/core/rawdb"
	"github.com/ethdevnode/edr/core/state"
	"github.com/ethdevnode/edr/core/txpool"
	"github.com/ethdevnode/edr/core/vm"
	"github.com/ethdevnode/edr/internal/dlog"
	"github.com/ethdevnode/edr/internal/filters"
	"github.com/ethdevnode/edr/internal/jsonrpc"
	"github.com/ethdevnode/edr/miner"
	"github.com/ethdevnode/edr/params"
)

// Config is the chain-wide configuration the dispatcher gates methods and
// responses on — hardfork rules, chain id, and the interval-mining period
// (zero disables interval mining; evm_mine / automine remain available
// regardless).
type Config struct {
	ChainID          uint64
	Spec             params.Spec
	BlockGasLimit    uint64
	CoinbaseAddress  common.Address
	MiningInterval   uint64 // milliseconds; 0 disables interval mining
}

// Provider ties the blockchain store, state, mempool, miner, and filter
// registry together behind the method dispatch table, enforcing the
// spec's single-threaded cooperative scheduling model with one mutex: no
// two JSON-RPC calls, nor a call and an interval-mining tick, ever touch
// the chain/state/pool concurrently.
type Provider struct {
	mu sync.Mutex

	cfg   Config
	chain rawdb.ChainReader
	state *state.StateDB
	exec  *vm.Executor
	pool  *txpool.Pool
	miner *miner.Miner

	filters        *filters.Registry
	keystore       *Keystore
	time           *TimeSource
	snapshots      *Snapshots
	cancelInterval context.CancelFunc

	automine bool
	rng      *rand.Rand

	log *dlog.Logger
}

// NewProvider wires an already-constructed chain/state/pool/miner/filter
// stack into a dispatcher. Construction of those pieces themselves (and
// any cmd/ entrypoint gluing them to a real transport) is out of this
// package's scope, per the Non-goals on CLI/transport/FFI layers.
func NewProvider(cfg Config, chain rawdb.ChainReader, st *state.StateDB, exec *vm.Executor, pool *txpool.Pool, m *miner.Miner, registry *filters.Registry, keystore *Keystore) *Provider {
	p := &Provider{
		cfg:       cfg,
		chain:     chain,
		state:     st,
		exec:      exec,
		pool:      pool,
		miner:     m,
		filters:   registry,
		keystore:  keystore,
		time:      NewTimeSource(nil),
		snapshots: NewSnapshots(),
		automine:  true,
		rng:       rand.New(rand.NewSource(1)),
		log:       dlog.Root().With("component", "ethapi"),
	}
	if cfg.MiningInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		p.cancelInterval = cancel
		go p.runIntervalMining(ctx, time.Duration(cfg.MiningInterval)*time.Millisecond)
	}
	return p
}

// Close stops any running interval-mining loop. Safe to call even when
// interval mining was never configured.
func (p *Provider) Close() {
	if p.cancelInterval != nil {
		p.cancelInterval()
	}
}

// runIntervalMining mines one block every interval until ctx is
// canceled, holding the provider's lock for the duration of each mine
// the same way Dispatch does — unlike miner.IntervalScheduler (which
// calls Miner.MineBlock directly with no synchronization against
// concurrent JSON-RPC calls and bypasses the TimeSource entirely), this
// reuses mineOne so an interval-mined block's timestamp still reflects
// any pending evm_increaseTime/evm_setNextBlockTimestamp state. A tick
// arriving while a call is already holding the lock simply waits for
// it, rather than being skipped.
func (p *Provider) runIntervalMining(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			if _, err := p.mineOne(ctx); err != nil {
				p.log.With("error", err).Warn("interval mining failed")
			}
			p.mu.Unlock()
		}
	}
}

// Dispatch decodes and routes one JSON-RPC request, holding the
// provider's lock for the call's full duration. A notification (no ID)
// still runs but its result is discarded by the caller, per JSON-RPC 2.0.
func (p *Provider) Dispatch(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	p.mu.Lock()
	defer p.mu.Unlock()

	result, err := p.route(ctx, req.Method, req.Params)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, toRPCError(err))
	}
	resp, err := jsonrpc.NewResponse(req.ID, result)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.CodeInternalError, err.Error()))
	}
	return resp
}

// ErrMethodNotFound is returned for any method name the dispatch table
// doesn't recognize.
var ErrMethodNotFound = errors.New("ethapi: method not found")

func (p *Provider) route(ctx context.Context, method string, params json.RawMessage) (any, error) {
	if handler, ok := ethMethods[method]; ok {
		return handler(p, ctx, params)
	}
	if handler, ok := netWeb3Methods[method]; ok {
		return handler(p, ctx, params)
	}
	if handler, ok := evmMethods[method]; ok {
		return handler(p, ctx, params)
	}
	if handler, ok := hardhatMethods[method]; ok {
		return handler(p, ctx, params)
	}
	if handler, ok := debugMethods[method]; ok {
		return handler(p, ctx, params)
	}
	if handler, ok := filterMethods[method]; ok {
		return handler(p, ctx, params)
	}
	return nil, errors.Wrapf(ErrMethodNotFound, "%s", method)
}

type methodHandler func(p *Provider, ctx context.Context, params json.RawMessage) (any, error)

// toRPCError maps an internal error to the wire error-object shape,
// distinguishing a caller input mistake (invalid params, unknown account,
// unknown filter) from an internal failure.
func toRPCError(err error) *jsonrpc.Error {
	var revert *revertError
	switch {
	case errors.As(err, &revert):
		rpcErr, encErr := jsonrpc.NewErrorWithData(jsonrpc.CodeRevert, revert.Error(), hexutil.Bytes(revert.output))
		if encErr != nil {
			return jsonrpc.NewError(jsonrpc.CodeRevert, revert.Error())
		}
		return rpcErr
	case errors.Is(err, ErrInvalidBlockSpec),
		errors.Is(err, ErrUnknownAccount),
		errors.Is(err, filters.ErrFilterNotFound),
		errors.Is(err, rawdb.ErrUnknownBlockTag),
		errors.Is(err, rawdb.ErrNonCanonicalBlockHash):
		return jsonrpc.NewError(jsonrpc.CodeInvalidParams, err.Error())
	default:
		return jsonrpc.NewError(jsonrpc.CodeInvalidInput, err.Error())
	}
}

// decodeParamArray decodes req.Params as a positional JSON array,
// matching every Ethereum JSON-RPC method's calling convention.
func decodeParamArray(params json.RawMessage) ([]json.RawMessage, error) {
	if len(params) == 0 {
		return nil, nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(params, &out); err != nil {
		return nil, errors.Wrap(err, "ethapi: params is not a JSON array")
	}
	return out, nil
}

func paramAt(params []json.RawMessage, i int) json.RawMessage {
	if i < 0 || i >= len(params) {
		return nil
	}
	return params[i]
}

// resolveBlockNumber resolves a block parameter to a concrete number,
// reporting whether the caller asked for "pending". "pending" resolves to
// lastBlockNumber+1 per core/rawdb.ResolveBlockNumber, but this package
// has no ephemeral-mining mechanism to materialize that block
// (core/state.StateDB has no cheap structural-copy primitive), so every
// state-read method that lands on the pending number instead reads
// "latest" state directly — a documented scope cut, not a silent gap.
func (p *Provider) resolveBlockNumber(ctx context.Context, spec rawdb.BlockSpec) (uint64, bool, error) {
	if spec.Kind == rawdb.BlockSpecKindHash {
		b, err := p.chain.BlockByHash(ctx, spec.Hash)
		if err != nil {
			return 0, false, err
		}
		if spec.RequireCanonical {
			canonical, err := p.chain.BlockByNumber(ctx, b.Header.Number)
			if err != nil || canonical.Hash() != spec.Hash {
				return 0, false, rawdb.ErrNonCanonicalBlockHash
			}
		}
		return b.Header.Number, false, nil
	}
	n, err := rawdb.ResolveBlockNumber(spec, p.chain.LastBlockNumber(), 0, params.SafeBlockDepth(p.cfg.ChainID))
	if err != nil {
		return 0, false, err
	}
	if n > p.chain.LastBlockNumber() {
		return p.chain.LastBlockNumber(), true, nil
	}
	return n, false, nil
}
