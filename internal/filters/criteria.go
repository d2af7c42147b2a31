// Package filters is the node's filter/subscription registry: the single
// `id -> Filter` store eth_newFilter, eth_newBlockFilter,
// eth_newPendingTransactionFilter and their eth_subscribe counterparts
// share, fed synchronously by internal/ethapi's Provider after each mined
// block and each admitted pending transaction. Grounded on the shape
// eth/filters/api_test.go and filter_test.go exercise (FilterCriteria,
// topic matching), since the teacher's own filter_system.go/api.go/
// filter.go implementation files were not included in the retrieval pack
// — only its tests were, which is enough to recover the public contract.
package filters

import (
	"encoding/json"
	"math/big"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/core/types"
)

// FilterCriteria mirrors eth_newFilter/eth_getLogs's JSON argument shape:
// either a fixed BlockHash, or a FromBlock/ToBlock range (both nil means
// "latest" on install and grows with each new block), an address
// allowlist (empty means any address), and a topic-position matcher
// (each position is an OR-set; a position of length zero is a wildcard).
type FilterCriteria struct {
	BlockHash *common.Hash
	FromBlock *big.Int
	ToBlock   *big.Int
	Addresses []common.Address
	Topics    [][]common.Hash
}

type criteriaJSON struct {
	BlockHash *common.Hash    `json:"blockHash"`
	FromBlock *string         `json:"fromBlock"`
	ToBlock   *string         `json:"toBlock"`
	Addresses json.RawMessage `json:"address"`
	Topics    []any           `json:"topics"`
}

// UnmarshalJSON accepts a single address or an array of addresses, and a
// topics array whose entries are each null (wildcard), a single hash, or
// an array of hashes (OR-matched at that position).
func (c *FilterCriteria) UnmarshalJSON(data []byte) error {
	var raw criteriaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.BlockHash = raw.BlockHash
	if raw.FromBlock != nil {
		n, err := parseBlockNumber(*raw.FromBlock)
		if err != nil {
			return err
		}
		c.FromBlock = n
	}
	if raw.ToBlock != nil {
		n, err := parseBlockNumber(*raw.ToBlock)
		if err != nil {
			return err
		}
		c.ToBlock = n
	}

	if len(raw.Addresses) > 0 {
		addrs, err := unmarshalAddressOrSlice(raw.Addresses)
		if err != nil {
			return err
		}
		c.Addresses = addrs
	}

	if raw.Topics != nil {
		topics := make([][]common.Hash, len(raw.Topics))
		for i, t := range raw.Topics {
			enc, err := json.Marshal(t)
			if err != nil {
				return err
			}
			hashes, err := unmarshalTopicPosition(enc)
			if err != nil {
				return err
			}
			topics[i] = hashes
		}
		c.Topics = topics
	}
	return nil
}

func parseBlockNumber(tag string) (*big.Int, error) {
	switch tag {
	case "latest", "pending", "earliest", "":
		return nil, nil
	}
	n := new(big.Int)
	if _, ok := n.SetString(trimHexPrefix(tag), 16); !ok {
		return nil, errInvalidBlockTag(tag)
	}
	return n, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

type errInvalidBlockTag string

func (e errInvalidBlockTag) Error() string { return "filters: invalid block tag " + string(e) }

func unmarshalAddressOrSlice(raw json.RawMessage) ([]common.Address, error) {
	var single common.Address
	if err := json.Unmarshal(raw, &single); err == nil {
		return []common.Address{single}, nil
	}
	var many []common.Address
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, err
	}
	return many, nil
}

func unmarshalTopicPosition(raw json.RawMessage) ([]common.Hash, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var single common.Hash
	if err := json.Unmarshal(raw, &single); err == nil {
		return []common.Hash{single}, nil
	}
	var many []common.Hash
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, err
	}
	return many, nil
}

// Matches reports whether log, mined in blockNumber/blockHash, satisfies
// c. FromBlock/ToBlock are range-inclusive; a nil bound is unbounded.
func (c FilterCriteria) Matches(blockNumber uint64, blockHash common.Hash, log *types.Log) bool {
	if c.BlockHash != nil && *c.BlockHash != blockHash {
		return false
	}
	if c.FromBlock != nil && blockNumber < c.FromBlock.Uint64() {
		return false
	}
	if c.ToBlock != nil && blockNumber > c.ToBlock.Uint64() {
		return false
	}
	if len(c.Addresses) > 0 && !containsAddress(c.Addresses, log.Address) {
		return false
	}
	if len(c.Topics) > len(log.Topics) {
		return false
	}
	for i, want := range c.Topics {
		if len(want) == 0 {
			continue // wildcard position
		}
		if !containsHash(want, log.Topics[i]) {
			return false
		}
	}
	return true
}

func containsAddress(set []common.Address, a common.Address) bool {
	for _, s := range set {
		if s == a {
			return true
		}
	}
	return false
}

func containsHash(set []common.Hash, h common.Hash) bool {
	for _, s := range set {
		if s == h {
			return true
		}
	}
	return false
}
