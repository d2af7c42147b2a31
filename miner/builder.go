package miner

import (
	"context"
	"encoding/binary"
	"math/rand"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/state"
	"github.com/ethdevnode/edr/core/txpool"
	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/core/vm"
	"github.com/ethdevnode/edr/crypto"
	"github.com/ethdevnode/edr/params"
	"github.com/ethdevnode/edr/trie"
)

// emptyOmmersHash is keccak256(rlp([])), the fixed OmmersHash every header
// this builder produces carries (ommers are never produced, but
// the field remains for wire compatibility).
var emptyOmmersHash = crypto.Keccak256Hash([]byte{0xc0})

// Errors a BlockBuilder's lifecycle can fail with.
var (
	ErrTimestampLowerThanPrevious = errors.New("miner: timestamp lower than parent")
	ErrTimestampEqualsPrevious    = errors.New("miner: timestamp equals parent (allow_blocks_with_same_timestamp is unset)")
	ErrExceedsBlockGasLimit       = errors.New("miner: transaction gas limit exceeds remaining block gas")
)

// HeaderOverrides lets a caller (hardhat_mine, evm_mine with explicit
// options, or a test) pin any subset of the partial header's fields
// instead of the builder's defaults.
type HeaderOverrides struct {
	Timestamp                      *uint64
	GasLimit                       *uint64
	Coinbase                       *common.Address
	BaseFee                        *uint256.Int
	ExtraData                      []byte
	AllowBlocksWithSameTimestamp   bool
	MixHashSeed                    int64 // seeds the deterministic PRNG; 0 derives one from the parent hash
}

// Config is the chain-wide configuration a BlockBuilder needs: which
// hardfork governs this block, the chain id for signing-context, and
// whether post-merge semantics (zero difficulty, prevrandao) apply.
type Config struct {
	ChainID uint64
	Spec    params.Spec
}

// BlockBuilder assembles one block: materializing a partial header,
// executing transactions against a cloned state view, and finalizing into
// a sealed block plus the state diff that produced it. It owns the state
// view exclusively until Finalize or Abort is called.
type BlockBuilder struct {
	cfg    Config
	state  *state.StateDB
	exec   *vm.Executor
	header *types.Header
	rng    *rand.Rand

	transactions []*types.Transaction
	receipts     []*types.Receipt
	txCallers    []common.Address
	logs         []*types.Log
	gasUsed      uint64
}

// NewBuilder materializes a PartialHeader from parent and overrides, and returns
// a BlockBuilder ready to accept transactions via AddTransaction. state
// must be a view the caller is willing to have mutated (callers that need
// to preserve their own live state should pass a checkpointed/cloned one).
func NewBuilder(parent *types.Header, overrides HeaderOverrides, cfg Config, st *state.StateDB, exec *vm.Executor) (*BlockBuilder, error) {
	timestamp := parent.Timestamp + 1
	if overrides.Timestamp != nil {
		timestamp = *overrides.Timestamp
	}
	if timestamp < parent.Timestamp {
		return nil, ErrTimestampLowerThanPrevious
	}
	if timestamp == parent.Timestamp && !overrides.AllowBlocksWithSameTimestamp {
		return nil, ErrTimestampEqualsPrevious
	}

	gasLimit := parent.GasLimit
	if overrides.GasLimit != nil {
		gasLimit = *overrides.GasLimit
	}

	var coinbase common.Address
	if overrides.Coinbase != nil {
		coinbase = *overrides.Coinbase
	}

	var baseFee *uint256.Int
	if cfg.Spec.AtLeast(params.London) {
		if overrides.BaseFee != nil {
			baseFee = overrides.BaseFee
		} else if parent.BaseFee != nil {
			baseFee = params.NextBaseFee(parent.BaseFee, parent.GasUsed, parent.GasLimit)
		} else {
			baseFee = params.DefaultInitialBaseFee()
		}
	}

	seed := overrides.MixHashSeed
	if seed == 0 {
		parentHash := parent.Hash()
		seed = int64(binary.BigEndian.Uint64(parentHash[:8]))
	}
	rng := rand.New(rand.NewSource(seed))

	var mixHash common.Hash
	var difficulty *uint256.Int
	if cfg.Spec.AtLeast(params.Merge) {
		difficulty = new(uint256.Int)
		var randBytes [32]byte
		rng.Read(randBytes[:])
		mixHash = common.BytesToHash(randBytes[:])
	} else {
		difficulty = canonicalDifficulty(parent)
	}

	header := &types.Header{
		ParentHash:       parent.Hash(),
		OmmersHash:       emptyOmmersHash,
		Coinbase:         coinbase,
		Number:           parent.Number + 1,
		GasLimit:         gasLimit,
		Timestamp:        timestamp,
		ExtraData:        overrides.ExtraData,
		MixHash:          mixHash,
		Difficulty:       difficulty,
		BaseFee:          baseFee,
	}
	if cfg.Spec.AtLeast(params.Shanghai) {
		root := common.Hash{}
		header.WithdrawalsRoot = &root
	}

	return &BlockBuilder{cfg: cfg, state: st, exec: exec, header: header, rng: rng}, nil
}

// canonicalDifficulty is a simplified pre-merge Ethash difficulty formula:
// this devnode never seals real PoW blocks (see the spec's non-goals), so
// a constant, nonzero difficulty is used only to keep pre-merge headers
// structurally plausible for tooling that inspects the field.
func canonicalDifficulty(parent *types.Header) *uint256.Int {
	if parent.Difficulty == nil || parent.Difficulty.IsZero() {
		return new(uint256.Int).SetUint64(131_072)
	}
	return new(uint256.Int).Set(parent.Difficulty)
}

// Header returns the builder's in-progress header (callers must not
// mutate it).
func (b *BlockBuilder) Header() *types.Header { return b.header }

// GasUsed returns cumulative gas consumed so far.
func (b *BlockBuilder) GasUsed() uint64 { return b.gasUsed }

// RemainingGas returns the block gas limit less gas already consumed.
func (b *BlockBuilder) RemainingGas() uint64 { return b.header.GasLimit - b.gasUsed }

// AddTransaction executes tx against the builder's state view, committing
// its diff, forming a receipt, and accumulating gas/logs. It fails fast
// with ErrExceedsBlockGasLimit without touching state if tx cannot
// possibly fit in the remaining gas.
func (b *BlockBuilder) AddTransaction(ctx context.Context, ptx *txpool.PendingTransaction, insp vm.Inspector) (*vm.ExecutionResult, error) {
	if ptx.Tx.Gas() > b.RemainingGas() {
		return nil, ErrExceedsBlockGasLimit
	}

	env := vm.BlockEnv{
		Number:     b.header.Number,
		Coinbase:   b.header.Coinbase,
		Timestamp:  b.header.Timestamp,
		GasLimit:   b.header.GasLimit,
		BaseFee:    b.header.BaseFee,
		Difficulty: b.header.Difficulty,
		Spec:       b.cfg.Spec,
	}
	if b.cfg.Spec.AtLeast(params.Merge) {
		mix := b.header.MixHash
		env.Prevrandao = &mix
	}

	txEnv := vm.NewTxEnv(ptx.Tx, ptx.Sender, b.header.BaseFee)
	result, _, err := b.exec.Run(ctx, b.state, env, txEnv, insp)
	if err != nil {
		return nil, err
	}

	b.gasUsed += result.GasUsed
	status := types.ReceiptStatusSuccessful
	if !result.Succeeded() {
		status = types.ReceiptStatusFailed
	}
	var contractAddr common.Address
	if result.ContractAddress != nil {
		contractAddr = *result.ContractAddress
	}
	receipt := &types.Receipt{
		Type:              ptx.Tx.Type(),
		Status:            status,
		CumulativeGasUsed: b.gasUsed,
		Bloom:             types.CreateBloom(result.Logs),
		Logs:              result.Logs,
		TxHash:            ptx.Tx.Hash(),
		ContractAddress:   contractAddr,
		GasUsed:           result.GasUsed,
		EffectiveGasPrice: ptx.Tx.EffectiveGasPrice(b.header.BaseFee),
		TransactionIndex:  uint(len(b.transactions)),
	}

	b.transactions = append(b.transactions, ptx.Tx)
	b.txCallers = append(b.txCallers, ptx.Sender)
	b.receipts = append(b.receipts, receipt)
	b.logs = append(b.logs, result.Logs...)

	return result, nil
}

// Rewards is the miner-reward/withdrawal input to Finalize.
type Rewards struct {
	MinerReward *uint256.Int // pre-merge block reward; zero post-merge
	Withdrawals []*types.Withdrawal
}

// FinalizedBlock is everything Finalize produces: the sealed block, the
// state it was executed against (now advanced), and per-transaction
// results for the caller to correlate with hashes.
type FinalizedBlock struct {
	Block            *types.Block
	Receipts         []*types.Receipt
	TransactionCallers []common.Address
	StateRoot        common.Hash
}

// Finalize credits the miner reward (pre-merge) or processes withdrawals
// (post-Shanghai), computes every trie root and the block-level log
// bloom, seals the header, and returns the finished block. The builder
// must not be used afterward.
func (b *BlockBuilder) Finalize(rewards Rewards) (*FinalizedBlock, error) {
	if rewards.MinerReward != nil && !rewards.MinerReward.IsZero() && !b.cfg.Spec.AtLeast(params.Merge) {
		if err := b.state.ModifyAccount(context.Background(), b.header.Coinbase, func(acc *types.Account, _ *[]byte) {
			acc.Balance = new(uint256.Int).Add(acc.Balance, rewards.MinerReward)
		}, types.EmptyAccount); err != nil {
			return nil, err
		}
	}

	if b.cfg.Spec.AtLeast(params.Shanghai) {
		for _, w := range rewards.Withdrawals {
			amountWei := new(uint256.Int).Mul(new(uint256.Int).SetUint64(w.Amount), new(uint256.Int).SetUint64(1_000_000_000))
			if err := b.state.ModifyAccount(context.Background(), w.Address, func(acc *types.Account, _ *[]byte) {
				acc.Balance = new(uint256.Int).Add(acc.Balance, amountWei)
			}, types.EmptyAccount); err != nil {
				return nil, err
			}
		}
		root, err := types.CalcWithdrawalsRoot(rewards.Withdrawals, func() types.TrieLike { return trie.New(nil) })
		if err != nil {
			return nil, err
		}
		b.header.WithdrawalsRoot = &root
	}

	stateRoot, err := b.state.StateRoot()
	if err != nil {
		return nil, err
	}
	b.header.StateRoot = stateRoot

	txRoot, err := types.CalcTransactionsRoot(b.transactions, func() types.TrieLike { return trie.New(nil) })
	if err != nil {
		return nil, err
	}
	b.header.TransactionsRoot = txRoot

	receiptsRoot, err := types.CalcReceiptsRoot(b.receipts, func() types.TrieLike { return trie.New(nil) })
	if err != nil {
		return nil, err
	}
	b.header.ReceiptsRoot = receiptsRoot
	b.header.GasUsed = b.gasUsed
	b.header.LogsBloom = types.CreateBloom(b.logs)

	var withdrawals []*types.Withdrawal
	if b.cfg.Spec.AtLeast(params.Shanghai) {
		withdrawals = rewards.Withdrawals
	}
	block := types.NewBlock(b.header, b.transactions, withdrawals)

	hash := block.Hash()
	for _, r := range b.receipts {
		r.BlockHash = hash
		r.BlockNumber = b.header.Number
		for _, l := range r.Logs {
			l.BlockHash = hash
			l.BlockNumber = b.header.Number
			l.TransactionHash = r.TxHash
		}
	}

	return &FinalizedBlock{
		Block:              block,
		Receipts:           b.receipts,
		TransactionCallers: b.txCallers,
		StateRoot:          stateRoot,
	}, nil
}

// Abort discards the builder without mutating the caller's own state: the
// builder's state field is simply dropped, having never been shared with
// anything beyond this builder.
func (b *BlockBuilder) Abort() {
	b.state = nil
}
