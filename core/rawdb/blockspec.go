package rawdb

import (
	"github.com/cockroachdb/errors"

	"github.com/ethdevnode/edr/common"
)

// ErrUnknownBlockTag is returned by ResolveBlockNumber for a spec it does
// not resolve: an unrecognized tag, or a hash-based spec.
var ErrUnknownBlockTag = errors.New("rawdb: unknown block tag")

// ErrNonCanonicalBlockHash is returned by internal/ethapi's hash-based
// block-spec resolution when a
// {blockHash, requireCanonical: true} selector names a hash that is not
// on the current chain (e.g. it was reorged away by RevertToBlock).
var ErrNonCanonicalBlockHash = errors.New("rawdb: block hash is not canonical")

// BlockSpecTag is the JSON-RPC "latest"/"earliest"/... block tag family.
type BlockSpecTag int

const (
	TagLatest BlockSpecTag = iota
	TagEarliest
	TagPending
	TagSafe
	TagFinalized
)

// BlockSpecKind discriminates BlockSpec's payload.
type BlockSpecKind int

const (
	BlockSpecKindTag BlockSpecKind = iota
	BlockSpecKindNumber
	BlockSpecKindHash
)

// BlockSpec is the resolved form of a JSON-RPC block parameter: exactly
// one of Tag, Number, or Hash is meaningful, selected by Kind.
type BlockSpec struct {
	Kind BlockSpecKind

	Tag    BlockSpecTag
	Number uint64

	Hash             common.Hash
	RequireCanonical bool
}

// ParseBlockSpecTag maps a JSON-RPC block-tag string to a BlockSpecTag.
func ParseBlockSpecTag(s string) (BlockSpecTag, bool) {
	switch s {
	case "latest":
		return TagLatest, true
	case "earliest":
		return TagEarliest, true
	case "pending":
		return TagPending, true
	case "safe":
		return TagSafe, true
	case "finalized":
		return TagFinalized, true
	default:
		return 0, false
	}
}

// ResolveBlockNumber resolves spec to a concrete block number against a
// chain whose head is lastBlockNumber and whose first block is
// earliestBlockNumber (0, or forkBlock+1 on a forked chain). safeDepth is
// params.SafeBlockDepth(chainID): "safe" and "finalized" both approximate
// to lastBlockNumber-safeDepth, clamped at earliestBlockNumber, since this
// devnode has no consensus-layer finality signal to consult. "pending"
// resolves to lastBlockNumber+1 (internal/ethapi mines an ephemeral block
// there without committing it; this package only hands back the number).
//
// Hash-based specs (BlockSpecKindHash) are not resolved here: doing so
// needs a hash->number index, whose shape differs between LocalBlockchain
// and ForkedBlockchain, so callers resolve those directly against
// whichever store they hold and use ResolveBlockNumber only for the tag/
// number cases.
func ResolveBlockNumber(spec BlockSpec, lastBlockNumber, earliestBlockNumber, safeDepth uint64) (uint64, error) {
	switch spec.Kind {
	case BlockSpecKindNumber:
		return spec.Number, nil
	case BlockSpecKindTag:
		switch spec.Tag {
		case TagEarliest:
			return earliestBlockNumber, nil
		case TagLatest:
			return lastBlockNumber, nil
		case TagPending:
			return lastBlockNumber + 1, nil
		case TagSafe, TagFinalized:
			if lastBlockNumber < safeDepth {
				return earliestBlockNumber, nil
			}
			n := lastBlockNumber - safeDepth
			if n < earliestBlockNumber {
				return earliestBlockNumber, nil
			}
			return n, nil
		default:
			return 0, ErrUnknownBlockTag
		}
	default:
		return 0, ErrUnknownBlockTag
	}
}
