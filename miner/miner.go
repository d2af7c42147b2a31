package miner

import (
	"context"
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/core/rawdb"
	"github.com/ethdevnode/edr/core/state"
	"github.com/ethdevnode/edr/core/txpool"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/core/vm"
	"github.com/ethdevnode/edr/params"
)

// ErrMineBlock wraps an InvalidTransaction failure the miner could not
// simply skip (only ExceedsBlockGasLimit is skippable; everything else
// aborts the in-progress block, matching the spec's mine_block algorithm).
type ErrMineBlock struct {
	Cause error
}

func (e *ErrMineBlock) Error() string { return "miner: " + e.Cause.Error() }
func (e *ErrMineBlock) Unwrap() error { return e.Cause }

// Miner ties the mempool, state, blockchain, and a pluggable Order
// together into the mine_block algorithm: select candidates, execute them
// one by one against a fresh BlockBuilder, finalize, commit, and update
// the mempool against the result.
type Miner struct {
	chain  rawdb.ChainReader
	pool   *txpool.Pool
	state  *state.StateDB
	exec   *vm.Executor
	cfg    Config
	order  Order

	onMined func(*FinalizedBlock)
}

// New returns a Miner wired to chain/pool/state/exec, using order to
// choose which pending transactions to include (see FIFOOrder,
// PriorityOrder). onMined, if non-nil, is called synchronously after each
// successful mine. internal/ethapi does not route filter notifications
// through it: its mineOne calls internal/filters directly.
func New(chain rawdb.ChainReader, pool *txpool.Pool, st *state.StateDB, exec *vm.Executor, cfg Config, order Order, onMined func(*FinalizedBlock)) *Miner {
	if order == nil {
		order = FIFOOrder{}
	}
	return &Miner{chain: chain, pool: pool, state: st, exec: exec, cfg: cfg, order: order, onMined: onMined}
}

// MineBlock runs the full mine_block algorithm: snapshot the mempool,
// select and execute candidates in order, skipping any that individually
// exceed the remaining block gas, finalize with the given rewards, commit
// the block to chain, and update the mempool against the post-mine state.
func (m *Miner) MineBlock(ctx context.Context, overrides HeaderOverrides, rewards Rewards) (*FinalizedBlock, error) {
	parent, err := m.chain.LastBlock()
	if err != nil {
		return nil, err
	}

	builder, err := NewBuilder(parent.Header, overrides, m.cfg, m.state, m.exec)
	if err != nil {
		return nil, err
	}

	candidates := m.order.Select(m.pool.AllPending(), builder.Header().BaseFee)
	bySender := make(map[[20]byte]uint64)
	for _, ptx := range candidates {
		senderKey := [20]byte(ptx.Sender)
		if lastNonce, seen := bySender[senderKey]; seen && ptx.Tx.Nonce() <= lastNonce {
			continue
		}

		_, err := builder.AddTransaction(ctx, ptx, vm.Inspector{})
		if err != nil {
			if errors.Is(err, ErrExceedsBlockGasLimit) {
				continue
			}
			builder.Abort()
			return nil, &ErrMineBlock{Cause: err}
		}
		bySender[senderKey] = ptx.Tx.Nonce()
	}

	finalized, err := builder.Finalize(rewards)
	if err != nil {
		return nil, err
	}

	if err := m.chain.InsertBlock(finalized.Block, finalized.Receipts); err != nil {
		return nil, err
	}

	if err := m.pool.Update(ctx); err != nil {
		return nil, err
	}

	if m.onMined != nil {
		m.onMined(finalized)
	}
	return finalized, nil
}

// BlockReward returns the canonical pre-merge miner reward for spec,
// zero from the Merge onward (issuance moves to the consensus layer).
func BlockReward(spec params.Spec) *uint256.Int {
	if spec.AtLeast(params.Merge) {
		return new(uint256.Int)
	}
	if spec.AtLeast(params.Byzantium) {
		return new(uint256.Int).Mul(new(uint256.Int).SetUint64(2), ethToWei())
	}
	return new(uint256.Int).Mul(new(uint256.Int).SetUint64(5), ethToWei())
}

func ethToWei() *uint256.Int {
	return new(uint256.Int).Exp(new(uint256.Int).SetUint64(10), new(uint256.Int).SetUint64(18))
}

// IntervalScheduler triggers MineBlock at a fixed cadence, or a uniformly
// sampled interval within [min, max]. Its one-slot inFlight channel is
// taken only by Run's own ticks: MineBlock calls made elsewhere (evm_mine,
// automine) do not take it, so a tick is neither skipped for a manual mine
// nor serialized against one.
type IntervalScheduler struct {
	miner     *Miner
	min, max  time.Duration
	rng       *rand.Rand
	inFlight  chan struct{}
	stop      chan struct{}
}

// NewIntervalScheduler returns a scheduler that fires uniformly within
// [min, max] (pass min == max for a fixed cadence).
func NewIntervalScheduler(miner *Miner, min, max time.Duration) *IntervalScheduler {
	return &IntervalScheduler{
		miner:    miner,
		min:      min,
		max:      max,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		inFlight: make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

func (s *IntervalScheduler) nextDelay() time.Duration {
	if s.max <= s.min {
		return s.min
	}
	span := int64(s.max - s.min)
	return s.min + time.Duration(s.rng.Int63n(span))
}

// Run blocks, mining on every tick until ctx is canceled or Stop is
// called. Intended to run in its own goroutine.
func (s *IntervalScheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.nextDelay())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-timer.C:
			select {
			case s.inFlight <- struct{}{}:
				_, _ = s.miner.MineBlock(ctx, HeaderOverrides{}, Rewards{MinerReward: BlockReward(s.miner.cfg.Spec)})
				<-s.inFlight
			default:
				// The inFlight slot is already held; skip this tick.
			}
			timer.Reset(s.nextDelay())
		}
	}
}

// Stop halts the scheduler.
func (s *IntervalScheduler) Stop() { close(s.stop) }
