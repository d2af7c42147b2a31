package ethapi

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/common/hexutil"
	"github.com/ethdevnode/edr/core/rawdb"
)

// ErrInvalidBlockSpec is returned for a block parameter that is neither a
// recognized tag, a hex quantity, nor a {blockHash|blockNumber} object.
var ErrInvalidBlockSpec = errors.New("ethapi: invalid block parameter")

type blockSpecObject struct {
	BlockHash        *common.Hash    `json:"blockHash"`
	BlockNumber      *hexutil.Uint64 `json:"blockNumber"`
	RequireCanonical bool            `json:"requireCanonical"`
}

// ParseBlockSpec decodes one JSON-RPC block parameter, per spec §4.2's
// BlockSpec grammar: a tag string, a hex quantity string, or a selector
// object. A missing/null parameter defaults to "latest", matching
// EIP-1474 for the methods that allow omitting it.
func ParseBlockSpec(raw json.RawMessage) (rawdb.BlockSpec, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return rawdb.BlockSpec{Kind: rawdb.BlockSpecKindTag, Tag: rawdb.TagLatest}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if tag, ok := rawdb.ParseBlockSpecTag(s); ok {
			return rawdb.BlockSpec{Kind: rawdb.BlockSpecKindTag, Tag: tag}, nil
		}
		n, err := hexutil.DecodeUint64(s)
		if err != nil {
			return rawdb.BlockSpec{}, errors.Wrapf(ErrInvalidBlockSpec, "tag %q", s)
		}
		return rawdb.BlockSpec{Kind: rawdb.BlockSpecKindNumber, Number: n}, nil
	}

	var obj blockSpecObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return rawdb.BlockSpec{}, errors.Wrap(ErrInvalidBlockSpec, err.Error())
	}
	switch {
	case obj.BlockHash != nil:
		return rawdb.BlockSpec{Kind: rawdb.BlockSpecKindHash, Hash: *obj.BlockHash, RequireCanonical: obj.RequireCanonical}, nil
	case obj.BlockNumber != nil:
		return rawdb.BlockSpec{Kind: rawdb.BlockSpecKindNumber, Number: uint64(*obj.BlockNumber)}, nil
	default:
		return rawdb.BlockSpec{}, ErrInvalidBlockSpec
	}
}
