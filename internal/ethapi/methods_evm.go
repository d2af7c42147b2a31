package ethapi

import (
	"context"
	"encoding/json"

	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/miner"
)

var evmMethods = map[string]methodHandler{
	"evm_setAutomine":           (*Provider).evmSetAutomine,
	"evm_getAutomine":           (*Provider).evmGetAutomine,
	"evm_mine":                  (*Provider).evmMine,
	"evm_increaseTime":          (*Provider).evmIncreaseTime,
	"evm_setNextBlockTimestamp": (*Provider).evmSetNextBlockTimestamp,
	"evm_snapshot":              (*Provider).evmSnapshot,
	"evm_revert":                (*Provider).evmRevert,
}

func (p *Provider) evmSetAutomine(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var enabled bool
	if err := json.Unmarshal(paramAt(args, 0), &enabled); err != nil {
		return nil, err
	}
	p.automine = enabled
	return true, nil
}

func (p *Provider) evmGetAutomine(_ context.Context, _ json.RawMessage) (any, error) {
	return p.automine, nil
}

// mineOne mines exactly one block using the current time source's next
// timestamp, the node's fixed coinbase, and the pre-merge block reward
// (zero from the Merge onward), notifying the filter registry on success.
// Shared by evm_mine and the automine path on every admitted transaction.
func (p *Provider) mineOne(ctx context.Context) (*miner.FinalizedBlock, error) {
	timestamp := p.time.NextBlockTimestamp()
	overrides := miner.HeaderOverrides{
		Timestamp: &timestamp,
		Coinbase:  &p.cfg.CoinbaseAddress,
	}
	rewards := miner.Rewards{MinerReward: miner.BlockReward(p.cfg.Spec)}
	finalized, err := p.miner.MineBlock(ctx, overrides, rewards)
	if err != nil {
		return nil, err
	}
	p.filters.NotifyMined(finalized.Block, finalized.Receipts)
	return finalized, nil
}

// evmMine mines exactly one block, matching Hardhat Network's
// evm_mine([timestamp]): an optional single timestamp is applied via
// SetNextBlockTimestamp before the block is mined.
func (p *Provider) evmMine(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	if raw := paramAt(args, 0); len(raw) > 0 {
		var timestamp hexutil.Uint64
		if err := json.Unmarshal(raw, &timestamp); err == nil {
			p.time.SetNextBlockTimestamp(uint64(timestamp))
		}
	}
	if _, err := p.mineOne(ctx); err != nil {
		return nil, err
	}
	return "0x0", nil
}

func (p *Provider) evmIncreaseTime(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var delta hexutil.Uint64
	if err := json.Unmarshal(paramAt(args, 0), &delta); err != nil {
		return nil, err
	}
	total := p.time.IncreaseTime(int64(delta))
	return hexutil.EncodeUint64(uint64(total)), nil
}

func (p *Provider) evmSetNextBlockTimestamp(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var timestamp hexutil.Uint64
	if err := json.Unmarshal(paramAt(args, 0), &timestamp); err != nil {
		return nil, err
	}
	p.time.SetNextBlockTimestamp(uint64(timestamp))
	return true, nil
}

func (p *Provider) evmSnapshot(_ context.Context, _ json.RawMessage) (any, error) {
	id, err := p.snapshots.Take(p.state, p.chain)
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (p *Provider) evmRevert(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var id SnapshotID
	if err := json.Unmarshal(paramAt(args, 0), &id); err != nil {
		return nil, err
	}
	return p.snapshots.Revert(ctx, id, p.state, p.chain, p.pool)
}
