package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/emergence/pkg/buildinfo"
)

// FileCache keeps rendered artifacts on disk, one JSON file per key under
// a directory per artifact kind:
//
//	<dir>/scene/<sha256>.json
//	<dir>/tree/<sha256>.json
//
// A seeded run renders the same bytes for the same inputs, so entries only
// go stale when the binary changes. Every entry records the build that
// wrote it and reads from another build are misses.
type FileCache struct {
	dir   string
	build string
	now   func() time.Time
}

// FileOption configures a FileCache.
type FileOption func(*FileCache)

// WithBuild overrides the build stamp entries are written and checked with.
func WithBuild(stamp string) FileOption {
	return func(c *FileCache) { c.build = stamp }
}

// NewFileCache opens the artifact store in dir, creating it if needed.
func NewFileCache(dir string, opts ...FileOption) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	c := &FileCache{dir: dir, build: buildinfo.Read().Stamp(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dir returns the root directory of the store.
func (c *FileCache) Dir() string { return c.dir }

// artifact is the on-disk form of one entry.
type artifact struct {
	Key       string    `json:"key"`
	Build     string    `json:"build"`
	WrittenAt time.Time `json:"written_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Data      []byte    `json:"data"`
}

// Get returns the artifact stored under key. Unreadable, expired or
// foreign-build entries are removed and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil || a.Key != key {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if a.Build != c.build {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !a.ExpiresAt.IsZero() && c.now().After(a.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return a.Data, true, nil
}

// Set writes data under key. A zero ttl keeps the entry until the build
// changes or the store is cleared.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	a := artifact{Key: key, Build: c.build, WrittenAt: c.now(), Data: data}
	if ttl > 0 {
		a.ExpiresAt = a.WrittenAt.Add(ttl)
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// Write then rename so a concurrent reader never sees half an entry.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Delete removes key. Missing keys are not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *FileCache) Close() error { return nil }

// Usage is the footprint of one artifact kind.
type Usage struct {
	Entries int
	Bytes   int64
}

// Usage reports entries and bytes per artifact kind. A missing directory
// is empty.
func (c *FileCache) Usage() (map[string]Usage, error) {
	out := make(map[string]Usage)
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		kind := filepath.Base(filepath.Dir(path))
		u := out[kind]
		u.Entries++
		u.Bytes += info.Size()
		out[kind] = u
		return nil
	})
	return out, err
}

// Clear removes every artifact and returns what was removed.
func (c *FileCache) Clear() (Usage, error) {
	usage, err := c.Usage()
	if err != nil {
		return Usage{}, err
	}
	var total Usage
	for _, u := range usage {
		total.Entries += u.Entries
		total.Bytes += u.Bytes
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return Usage{}, err
	}
	return total, nil
}

// path maps key to its file. The kind directory is the key prefix before
// the first colon; unprefixed keys share "misc".
func (c *FileCache) path(key string) string {
	kind, _, ok := strings.Cut(key, ":")
	if !ok || kind == "" || strings.ContainsAny(kind, `/\.`) {
		kind = "misc"
	}
	return filepath.Join(c.dir, kind, Hash([]byte(key))+".json")
}

var _ Cache = (*FileCache)(nil)
