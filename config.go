package kaasdb

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OpenOptions configures a Database beyond the bare file path. The zero
// value disables both the header cache and name normalization; Open uses
// DefaultOptions instead.
type OpenOptions struct {
	// HeaderCacheSize bounds how many collection header pages Database
	// keeps resolved in memory at once (§5 permits, does not require, a
	// page cache). Zero disables the cache: every Collection call
	// re-resolves its header page from disk.
	HeaderCacheSize int `yaml:"header_cache_size"`

	// NormalizeCollectionNames NFC-normalizes a collection name before its
	// byte length is checked and it is encoded into the header page, so
	// two callers that typed the same name with different combining-mark
	// orderings land on the same collection.
	NormalizeCollectionNames bool `yaml:"normalize_collection_names"`
}

// DefaultOptions returns the options Open uses when none are given: a
// small header-page cache and Unicode name normalization on.
func DefaultOptions() OpenOptions {
	return OpenOptions{
		HeaderCacheSize:          32,
		NormalizeCollectionNames: true,
	}
}

// LoadOptions reads OpenOptions from a YAML file at path. Fields absent
// from the file keep DefaultOptions' values.
func LoadOptions(path string) (OpenOptions, error) {
	opts := DefaultOptions()
	buf, err := os.ReadFile(path)
	if err != nil {
		return OpenOptions{}, fmt.Errorf("kaasdb: read options %s: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, &opts); err != nil {
		return OpenOptions{}, fmt.Errorf("kaasdb: parse options %s: %w", path, err)
	}
	return opts, nil
}
