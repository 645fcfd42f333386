package vtb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tartampluch/go-ddcheck/internal/config"
	"github.com/tartampluch/go-ddcheck/internal/outcome"
)

// ListCache persists the vtb list as a single JSON document.
// There is no locking: concurrent writers race and the last one wins.
type ListCache struct {
	Fs   afero.Fs
	Path string
}

// NewListCache creates a cache backed by the OS filesystem.
func NewListCache(path string) *ListCache {
	return &ListCache{Fs: afero.NewOsFs(), Path: path}
}

// Load returns the cached list, or an empty list when the file is missing.
// A corrupted file is deleted and reported as an empty list.
func (c *ListCache) Load() List {
	res := c.load()
	if !res.Ok() {
		return List{}
	}
	return res.Value()
}

func (c *ListCache) load() outcome.Result[List] {
	log := slog.With(
		config.LogKeyComponent, config.CompCache,
		config.LogKeyFile, c.Path,
	)

	data, err := afero.ReadFile(c.Fs, c.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return outcome.Failure[List](outcome.ErrNotFound)
	}
	if err != nil {
		log.Warn(config.ErrCacheRead, config.LogKeyError, err)
		return outcome.Failure[List](err)
	}

	var list List
	if err := json.Unmarshal(data, &list); err != nil {
		log.Warn(config.MsgCacheCorrupt, config.LogKeyError, err)
		if rmErr := c.Fs.Remove(c.Path); rmErr != nil {
			log.Warn(config.ErrCacheRemove, config.LogKeyError, rmErr)
		}
		return outcome.Failure[List](fmt.Errorf("%w: %w", outcome.ErrCacheCorrupt, err))
	}
	if list == nil {
		// A literal null is parseable but carries no list.
		return outcome.Failure[List](outcome.ErrNotFound)
	}
	return outcome.Success(list)
}

// Save overwrites the cache file with the given list, creating its directory if needed.
func (c *ListCache) Save(list List) error {
	if list == nil {
		list = List{}
	}

	if err := c.Fs.MkdirAll(filepath.Dir(c.Path), config.DirPermShared); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCacheWrite, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", config.CacheJSONIndent)
	if err := enc.Encode(list); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCacheWrite, err)
	}

	if err := afero.WriteFile(c.Fs, c.Path, buf.Bytes(), config.FilePermShared); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCacheWrite, err)
	}

	slog.Debug(config.MsgCacheSaved,
		config.LogKeyComponent, config.CompCache,
		config.LogKeyFile, c.Path,
		config.LogKeyCount, len(list))
	return nil
}
