package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// IndexFile is the name of the cache index inside the cache directory.
const IndexFile = "index.json"

// Index maps source URLs to file names inside the cache directory.
type Index struct {
	dir     string
	entries map[string]string // url → file name
}

// LoadIndex reads dir/index.json. A missing index is an empty one.
func LoadIndex(dir string) (*Index, error) {
	idx := &Index{dir: dir, entries: make(map[string]string)}

	raw, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch: read index: %w", err)
	}
	if err := json.Unmarshal(raw, &idx.entries); err != nil {
		return nil, fmt.Errorf("fetch: parse index: %w", err)
	}
	return idx, nil
}

// ResolvePath returns the cached path for url if the entry exists and the file is still there.
func (idx *Index) ResolvePath(url string) (string, bool) {
	name, ok := idx.entries[url]
	if !ok {
		return "", false
	}
	path := filepath.Join(idx.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Owner returns the URL a file name is recorded for.
func (idx *Index) Owner(name string) (string, bool) {
	for url, n := range idx.entries {
		if n == name {
			return url, true
		}
	}
	return "", false
}

// Put records url → name and writes the index back to disk.
func (idx *Index) Put(url, name string) error {
	idx.entries[url] = name
	return idx.save()
}

// Len returns the number of recorded URLs.
func (idx *Index) Len() int {
	return len(idx.entries)
}

func (idx *Index) save() error {
	data, err := json.MarshalIndent(idx.entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(idx.dir, IndexFile+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("fetch: write index: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(idx.dir, IndexFile)); err != nil {
		return fmt.Errorf("fetch: write index: %w", err)
	}
	return nil
}
