package trie

import (
	"github.com/VictoriaMetrics/fastcache"

	"github.com/ethdevnode/edr/crypto"
	"github.com/ethdevnode/edr/rlp"
)

// encodeNode returns n's canonical RLP list/string encoding (the same
// bytes that would be hashed to form this node's reference from its
// parent). Every child reference embedded in that encoding follows the
// Yellow Paper's node-reference rule: a child whose own encoding is
// shorter than 32 bytes is embedded inline; otherwise it is replaced by
// its 32-byte keccak256 hash, and the full encoding is stored in cache
// (shared across every Trie using this node cache) under that hash.
// Nothing reads the cache back: every call re-encodes the whole subtree
// under n.
func encodeNode(n node, cache *fastcache.Cache) []byte {
	switch n := n.(type) {
	case nil:
		return []byte{0x80}
	case valueNode:
		return encodeBytes([]byte(n))
	case *shortNode:
		compact := hexToCompact(n.key)
		var childEnc []byte
		if hasTerm(n.key) {
			childEnc = encodeBytes([]byte(n.val.(valueNode)))
		} else {
			childEnc = childReference(n.val, cache)
		}
		return rlp.WrapList(append(encodeBytes(compact), childEnc...))
	case *fullNode:
		var body []byte
		for i := 0; i < 16; i++ {
			body = append(body, childReference(n.children[i], cache)...)
		}
		if v, ok := n.children[16].(valueNode); ok {
			body = append(body, encodeBytes([]byte(v))...)
		} else {
			body = append(body, 0x80)
		}
		return rlp.WrapList(body)
	default:
		panic("trie: invalid node type")
	}
}

// childReference returns the RLP item used to reference child n from its
// parent: either n's own encoding (if short enough to embed) or an RLP
// string holding keccak256(encoding).
func childReference(n node, cache *fastcache.Cache) []byte {
	if n == nil {
		return []byte{0x80}
	}
	enc := encodeNode(n, cache)
	if len(enc) < 32 {
		return enc
	}
	hash := crypto.Keccak256(enc)
	if cache != nil {
		cache.Set(hash, enc)
	}
	return encodeBytes(hash)
}

func encodeBytes(b []byte) []byte {
	enc, err := rlp.EncodeToBytes(b)
	if err != nil {
		panic(err) // byte-slice encoding never fails
	}
	return enc
}
