// Package cache keeps fetched payloads on disk, zstd-compressed, so a game
// can be rebuilt without hitting the network again.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Payload kinds.
const (
	KindBoxScore   = "BoxScore"
	KindPlayByPlay = "PlayByPlay"
	KindScoreboard = "ScoreboardV2"
)

// ErrMiss is returned by Get when nothing is cached under the key.
var ErrMiss = errors.New("cache miss")

// Dir is a payload cache rooted at a directory: <root>/<kind>/<key>.json.zst.
type Dir struct {
	root string
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open returns a cache rooted at root, creating it if needed.
func Open(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Dir{root: root, enc: enc, dec: dec}, nil
}

// Close releases the codec resources.
func (d *Dir) Close() error {
	d.dec.Close()
	return d.enc.Close()
}

func (d *Dir) path(kind, key string) (string, error) {
	if kind == "" || key == "" || strings.ContainsAny(kind+key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid cache key %q/%q", kind, key)
	}
	return filepath.Join(d.root, kind, key+".json.zst"), nil
}

// Get returns the cached payload, or ErrMiss.
func (d *Dir) Get(kind, key string) ([]byte, error) {
	p, err := d.path(kind, key)
	if err != nil {
		return nil, err
	}
	compressed, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	data, err := d.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", p, err)
	}
	return data, nil
}

// Put stores a payload, replacing any previous one atomically.
func (d *Dir) Put(kind, key string, data []byte) error {
	p, err := d.path(kind, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(d.enc.EncodeAll(data, nil)); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename to %s: %w", p, err)
	}
	return nil
}

// Delete drops a cached payload. Deleting a missing key is not an error.
func (d *Dir) Delete(kind, key string) error {
	p, err := d.path(kind, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}

// Fetch returns the cached payload, or calls fetch and caches its result.
// Set refresh to bypass the cached copy.
func (d *Dir) Fetch(kind, key string, refresh bool, fetch func() ([]byte, error)) ([]byte, error) {
	if !refresh {
		data, err := d.Get(kind, key)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrMiss) {
			return nil, err
		}
	}
	data, err := fetch()
	if err != nil {
		return nil, err
	}
	if err := d.Put(kind, key, data); err != nil {
		return nil, err
	}
	return data, nil
}
