package remote

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
	"github.com/golang/snappy"
	"golang.org/x/sync/singleflight"

	"github.com/ethdevnode/edr/crypto"
)

// diskCache is the content-addressed on-disk response cache described by
// the spec's "disk resources" note: `<cacheDir>/rpc/<chain>/<method>/
// <hash(params)>.json`, written atomically via rename-on-close and
// snappy-compressed, with concurrent fetches for the same key collapsed
// by singleflight rather than racing the network. Grounded on
// original_source/crates/edr_rpc_client/src/cached.rs for the path
// convention and on core/state.CachedRemoteState for the companion
// in-memory caching policy this complements rather than duplicates (this
// cache survives process restarts; that one does not).
type diskCache struct {
	dir   string
	chain uint64
	group singleflight.Group
}

func newDiskCache(dir string, chainID uint64) *diskCache {
	return &diskCache{dir: dir, chain: chainID}
}

func (c *diskCache) path(method string, params []byte) string {
	sum := crypto.Keccak256(params)
	name := hex.EncodeToString(sum) + ".json"
	return filepath.Join(c.dir, "rpc", strconv.FormatUint(c.chain, 10), method, name)
}

// fetch returns a cached response body for (method, params) if present,
// otherwise calls miss and persists its result before returning it.
// Concurrent calls for the same key are deduplicated via singleflight so
// an instant's worth of identical forked lookups costs one remote round
// trip, not N.
func (c *diskCache) fetch(ctx context.Context, method string, params []byte, miss func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	path := c.path(method, params)

	if body, err := c.read(path); err == nil {
		return body, nil
	}

	v, err, _ := c.group.Do(path, func() (any, error) {
		body, err := miss(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.write(path, body); err != nil {
			// A cache-write failure must not fail the call itself; the
			// spec only requires the cache as an optimization.
			return body, nil
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// read tolerates a missing or partially-written file by reporting a
// plain error, which fetch treats identically to a cold cache.
func (c *diskCache) read(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return snappy.Decode(nil, raw)
}

// write compresses body and renames it into place from a sibling temp
// file under an flock-held lock, so a concurrent reader never observes a
// partially-written cache entry.
func (c *diskCache) write(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return errors.Wrap(err, "remote: acquire cache lock")
	}
	defer lock.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, snappy.Encode(nil, body), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
