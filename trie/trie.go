// Package trie implements a persistent (structurally shared) Ethereum
// Merkle-Patricia trie: the account trie (keyed by keccak(address)) and
// per-account storage tries (keyed by keccak(storage slot)) share this
// implementation, distinguished only by what the caller stores as leaf
// values.
package trie

import (
	"bytes"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/crypto"
)

// Trie is an immutable-per-version Merkle-Patricia trie: Put/Delete install
// a new root while reusing every untouched subtree (copy-on-write), so a
// checkpointed snapshot of a Trie is simply its root node pointer taken
// before the mutation.
type Trie struct {
	root  node
	cache *fastcache.Cache // shared encoded-node-by-hash cache, see cache.go
}

// New returns an empty trie backed by cache, which may be shared across
// many Trie instances (e.g. every account's storage trie, and snapshots
// taken at different checkpoints) to amortize node-encoding work for
// subtrees that recur across them.
func New(cache *fastcache.Cache) *Trie {
	return &Trie{cache: cache}
}

// Clone returns a new Trie pointing at the same root node. Because every
// mutation is copy-on-write, the clone and the original are fully
// independent from this point on: mutating one never affects the other.
func (t *Trie) Clone() *Trie {
	return &Trie{root: t.root, cache: t.cache}
}

// IsEmpty reports whether the trie holds no keys.
func (t *Trie) IsEmpty() bool { return t.root == nil }

// Get looks up key and returns its stored value, or (nil, false) if absent.
func (t *Trie) Get(key []byte) ([]byte, bool) {
	v, found := getNode(t.root, keybytesToHex(key))
	if !found {
		return nil, false
	}
	return []byte(v), true
}

func getNode(n node, key []byte) (valueNode, bool) {
	switch n := n.(type) {
	case nil:
		return nil, false
	case valueNode:
		return n, true
	case *shortNode:
		if len(key) < len(n.key) || !bytes.Equal(n.key, key[:len(n.key)]) {
			return nil, false
		}
		return getNode(n.val, key[len(n.key):])
	case *fullNode:
		if len(key) == 0 {
			return nil, false
		}
		return getNode(n.children[key[0]], key[1:])
	default:
		return nil, false
	}
}

// Put inserts or overwrites the value stored at key.
func (t *Trie) Put(key, value []byte) {
	if len(value) == 0 {
		t.Delete(key)
		return
	}
	_, root := insert(t.root, keybytesToHex(key), valueNode(append([]byte(nil), value...)))
	t.root = root
}

// insert mirrors the classic recursive MPT insertion: it walks key,
// branching shortNodes at their first point of divergence and copying
// every fullNode on the path (leaving untouched siblings shared with
// whatever tree t.root belonged to before this call).
func insert(n node, key []byte, value node) (bool, node) {
	if len(key) == 0 {
		if v, ok := n.(valueNode); ok && bytes.Equal(v, value.(valueNode)) {
			return false, n
		}
		return true, value
	}
	switch n := n.(type) {
	case nil:
		return true, &shortNode{key: key, val: value}

	case *shortNode:
		match := prefixLen(key, n.key)
		if match == len(n.key) {
			dirty, nn := insert(n.val, key[match:], value)
			if !dirty {
				return false, n
			}
			return true, &shortNode{key: n.key, val: nn}
		}
		branch := &fullNode{}
		_, branch.children[n.key[match]] = insert(nil, n.key[match+1:], n.val)
		_, branch.children[key[match]] = insert(nil, key[match+1:], value)
		if match == 0 {
			return true, branch
		}
		return true, &shortNode{key: key[:match], val: branch}

	case *fullNode:
		dirty, nn := insert(n.children[key[0]], key[1:], value)
		if !dirty {
			return false, n
		}
		cp := n.copy()
		cp.children[key[0]] = nn
		return true, cp

	default:
		panic("trie: invalid node type")
	}
}

// Delete removes key's value, if present. The resulting tree collapses
// branches the same way insertion expands them, keeping the trie
// canonical (no dangling single-child fullNodes or double shortNodes).
func (t *Trie) Delete(key []byte) {
	dirty, newRoot := remove(t.root, keybytesToHex(key))
	if dirty {
		t.root = newRoot
	}
}

func remove(n node, key []byte) (bool, node) {
	switch n := n.(type) {
	case nil:
		return false, nil

	case valueNode:
		return true, nil

	case *shortNode:
		match := prefixLen(key, n.key)
		if match != len(n.key) {
			return false, n
		}
		dirty, child := remove(n.val, key[match:])
		if !dirty {
			return false, n
		}
		switch child := child.(type) {
		case nil:
			return true, nil
		case *shortNode:
			// Merge consecutive shortNodes into one.
			return true, &shortNode{key: concatNibbles(n.key, child.key), val: child.val}
		default:
			return true, &shortNode{key: n.key, val: child}
		}

	case *fullNode:
		dirty, child := remove(n.children[key[0]], key[1:])
		if !dirty {
			return false, n
		}
		cp := n.copy()
		cp.children[key[0]] = child
		return true, collapseIfNeeded(cp)

	default:
		panic("trie: invalid node type")
	}
}

func concatNibbles(a, b []byte) []byte {
	out := make([]byte, len(a)+len(b))
	copy(out, a)
	copy(out[len(a):], b)
	return out
}

// collapseIfNeeded reduces a fullNode with at most one remaining non-nil
// slot into a shortNode (possibly a leaf, if the lone slot is the value
// slot 16), keeping the trie's node shapes canonical after a deletion.
func collapseIfNeeded(n *fullNode) node {
	count, idx := 0, -1
	for i, c := range n.children {
		if c != nil {
			count++
			idx = i
		}
	}
	switch count {
	case 0:
		return nil
	case 1:
		if idx == 16 {
			return &shortNode{key: []byte{16}, val: n.children[16]}
		}
		child := n.children[idx]
		switch child := child.(type) {
		case *shortNode:
			return &shortNode{key: concatNibbles([]byte{byte(idx)}, child.key), val: child.val}
		default:
			return &shortNode{key: []byte{byte(idx)}, val: child}
		}
	default:
		return n
	}
}

// Hash returns the trie's root hash: keccak256 of the root node's
// canonical RLP encoding, or EmptyRootHash for an empty trie.
func (t *Trie) Hash() common.Hash {
	if t.root == nil {
		return crypto.EmptyRootHash
	}
	enc := encodeNode(t.root, t.cache)
	return crypto.Keccak256Hash(enc)
}
