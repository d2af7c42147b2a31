package ethapi

import (
	"context"
	"encoding/json"

	"github.com/holiman/uint256"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/core/types"
)

var hardhatMethods = map[string]methodHandler{
	"hardhat_impersonateAccount":       (*Provider).hardhatImpersonateAccount,
	"hardhat_stopImpersonatingAccount": (*Provider).hardhatStopImpersonatingAccount,
	"hardhat_setBalance":               (*Provider).hardhatSetBalance,
	"hardhat_setCode":                  (*Provider).hardhatSetCode,
	"hardhat_setNonce":                 (*Provider).hardhatSetNonce,
	"hardhat_setStorageAt":             (*Provider).hardhatSetStorageAt,
	"hardhat_mine":                     (*Provider).hardhatMine,
	"hardhat_dropTransaction":          (*Provider).hardhatDropTransaction,
	"hardhat_getAutomine":              (*Provider).evmGetAutomine,
	"hardhat_metadata":                 (*Provider).hardhatMetadata,
}

func (p *Provider) hardhatImpersonateAccount(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var addr common.Address
	if err := json.Unmarshal(paramAt(args, 0), &addr); err != nil {
		return nil, err
	}
	p.keystore.Impersonate(addr)
	return true, nil
}

func (p *Provider) hardhatStopImpersonatingAccount(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var addr common.Address
	if err := json.Unmarshal(paramAt(args, 0), &addr); err != nil {
		return nil, err
	}
	return p.keystore.StopImpersonating(addr), nil
}

func (p *Provider) hardhatSetBalance(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var addr common.Address
	if err := json.Unmarshal(paramAt(args, 0), &addr); err != nil {
		return nil, err
	}
	var balance hexutil.Big
	if err := json.Unmarshal(paramAt(args, 1), &balance); err != nil {
		return nil, err
	}
	newBalance, _ := uint256.FromBig(balance.ToInt())
	err = p.state.ModifyAccount(ctx, addr, func(account *types.Account, _ *[]byte) {
		account.Balance = newBalance
	}, func() types.Account { return types.EmptyAccount() })
	if err != nil {
		return nil, err
	}
	return true, nil
}

func (p *Provider) hardhatSetCode(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var addr common.Address
	if err := json.Unmarshal(paramAt(args, 0), &addr); err != nil {
		return nil, err
	}
	var code hexutil.Bytes
	if err := json.Unmarshal(paramAt(args, 1), &code); err != nil {
		return nil, err
	}
	err = p.state.ModifyAccount(ctx, addr, func(_ *types.Account, out *[]byte) {
		*out = code
	}, func() types.Account { return types.EmptyAccount() })
	if err != nil {
		return nil, err
	}
	return true, nil
}

func (p *Provider) hardhatSetNonce(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var addr common.Address
	if err := json.Unmarshal(paramAt(args, 0), &addr); err != nil {
		return nil, err
	}
	var nonce hexutil.Uint64
	if err := json.Unmarshal(paramAt(args, 1), &nonce); err != nil {
		return nil, err
	}
	err = p.state.ModifyAccount(ctx, addr, func(account *types.Account, _ *[]byte) {
		account.Nonce = uint64(nonce)
	}, func() types.Account { return types.EmptyAccount() })
	if err != nil {
		return nil, err
	}
	return true, nil
}

func (p *Provider) hardhatSetStorageAt(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var addr common.Address
	if err := json.Unmarshal(paramAt(args, 0), &addr); err != nil {
		return nil, err
	}
	var slot common.Hash
	if err := json.Unmarshal(paramAt(args, 1), &slot); err != nil {
		return nil, err
	}
	var value common.Hash
	if err := json.Unmarshal(paramAt(args, 2), &value); err != nil {
		return nil, err
	}
	p.state.SetAccountStorageSlot(addr, slot, value)
	return true, nil
}

// hardhatMine mines count blocks (default 1), spaced interval seconds
// apart (default 1), each block's timestamp folding into the running time
// offset the same way a single evm_mine call would.
func (p *Provider) hardhatMine(ctx context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	count := uint64(1)
	if raw := paramAt(args, 0); len(raw) > 0 {
		var c hexutil.Uint64
		if err := json.Unmarshal(raw, &c); err == nil {
			count = uint64(c)
		}
	}
	interval := uint64(1)
	if raw := paramAt(args, 1); len(raw) > 0 {
		var iv hexutil.Uint64
		if err := json.Unmarshal(raw, &iv); err == nil {
			interval = uint64(iv)
		}
	}
	if count == 0 {
		count = 1
	}
	for i := uint64(0); i < count; i++ {
		if i > 0 {
			p.time.IncreaseTime(int64(interval))
		}
		if _, err := p.mineOne(ctx); err != nil {
			return nil, err
		}
	}
	return true, nil
}

func (p *Provider) hardhatDropTransaction(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var hash common.Hash
	if err := json.Unmarshal(paramAt(args, 0), &hash); err != nil {
		return nil, err
	}
	_, found := p.pool.Get(hash)
	p.pool.Remove(hash)
	return found, nil
}

func (p *Provider) hardhatMetadata(_ context.Context, _ json.RawMessage) (any, error) {
	block, err := p.chain.LastBlock()
	if err != nil {
		return nil, err
	}
	return struct {
		ClientVersion     string      `json:"clientVersion"`
		ChainID           uint64      `json:"chainId"`
		LatestBlockHash   common.Hash `json:"latestBlockHash"`
		LatestBlockNumber uint64      `json:"latestBlockNumber"`
	}{
		ClientVersion:     "edr/1.0.0",
		ChainID:           p.cfg.ChainID,
		LatestBlockHash:   block.Hash(),
		LatestBlockNumber: block.Header.Number,
	}, nil
}
