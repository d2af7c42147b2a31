package ethapi

import (
	"context"
	"encoding/json"

	"github.com/ethdevnode/edr/core/types"
	"github.com/ethdevnode/edr/internal/filters"
)

var filterMethods = map[string]methodHandler{
	"eth_newFilter":                   (*Provider).ethNewFilter,
	"eth_newBlockFilter":              (*Provider).ethNewBlockFilter,
	"eth_newPendingTransactionFilter": (*Provider).ethNewPendingTransactionFilter,
	"eth_getFilterChanges":            (*Provider).ethGetFilterChanges,
	"eth_getFilterLogs":               (*Provider).ethGetFilterLogs,
	"eth_uninstallFilter":             (*Provider).ethUninstallFilter,
	"eth_subscribe":                   (*Provider).ethSubscribe,
	"eth_unsubscribe":                 (*Provider).ethUnsubscribe,
}

func (p *Provider) ethNewFilter(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var criteria filters.FilterCriteria
	if len(args) > 0 && len(args[0]) > 0 {
		if err := json.Unmarshal(args[0], &criteria); err != nil {
			return nil, err
		}
	}
	return p.filters.NewLogFilter(criteria), nil
}

func (p *Provider) ethNewBlockFilter(_ context.Context, _ json.RawMessage) (any, error) {
	return p.filters.NewBlockFilter(), nil
}

func (p *Provider) ethNewPendingTransactionFilter(_ context.Context, _ json.RawMessage) (any, error) {
	return p.filters.NewPendingTransactionFilter(), nil
}

func (p *Provider) ethGetFilterChanges(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var id filters.ID
	if err := json.Unmarshal(paramAt(args, 0), &id); err != nil {
		return nil, err
	}
	changes, err := p.filters.GetFilterChanges(id)
	if err != nil {
		return nil, err
	}
	return logFilterChangesToJSON(changes), nil
}

func (p *Provider) ethGetFilterLogs(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var id filters.ID
	if err := json.Unmarshal(paramAt(args, 0), &id); err != nil {
		return nil, err
	}
	logs, err := p.filters.GetFilterLogs(id)
	if err != nil {
		return nil, err
	}
	return logsToJSON(logs), nil
}

func (p *Provider) ethUninstallFilter(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var id filters.ID
	if err := json.Unmarshal(paramAt(args, 0), &id); err != nil {
		return nil, err
	}
	return p.filters.Uninstall(id), nil
}

// ethSubscribe installs a push subscription; its first positional argument
// names the kind ("logs", "newHeads", "newPendingTransactions"), mirroring
// eth_subscribe's well-known wire shape even though this devnode's
// transport-agnostic Provider has no notion of a live connection to push
// over — a caller is expected to poll the resulting id the same way it
// would poll an eth_newFilter id.
func (p *Provider) ethSubscribe(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var kind string
	if err := json.Unmarshal(paramAt(args, 0), &kind); err != nil {
		return nil, err
	}
	switch kind {
	case "newHeads":
		return p.filters.NewBlockSubscription(), nil
	case "newPendingTransactions":
		return p.filters.NewPendingTransactionSubscription(), nil
	case "logs":
		var criteria filters.FilterCriteria
		if raw := paramAt(args, 1); len(raw) > 0 {
			if err := json.Unmarshal(raw, &criteria); err != nil {
				return nil, err
			}
		}
		return p.filters.NewLogSubscription(criteria), nil
	default:
		return nil, errUnsupportedSubscription(kind)
	}
}

func (p *Provider) ethUnsubscribe(_ context.Context, params json.RawMessage) (any, error) {
	args, err := decodeParamArray(params)
	if err != nil {
		return nil, err
	}
	var id filters.ID
	if err := json.Unmarshal(paramAt(args, 0), &id); err != nil {
		return nil, err
	}
	return p.filters.Uninstall(id), nil
}

type errUnsupportedSubscription string

func (e errUnsupportedSubscription) Error() string {
	return "ethapi: unsupported subscription kind " + string(e)
}

// logFilterChangesToJSON adapts Registry.GetFilterChanges's any-typed
// result (either []*types.Log or []common.Hash, by Kind) to the wire
// shape: logs get their full object encoding, hashes pass through as-is.
func logFilterChangesToJSON(changes any) any {
	switch v := changes.(type) {
	case []*types.Log:
		return logsToJSON(v)
	default:
		return changes
	}
}
