package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// CollectionSchema describes one collection to create at startup: its
// shard count and which attributes should get a secondary hash index.
type CollectionSchema struct {
	Name              string   `toml:"name"`
	Shards            int      `toml:"shards"`
	IndexedAttributes []string `toml:"indexed_attributes"`
}

type schemaFile struct {
	Collection []CollectionSchema `toml:"collection"`
}

// LoadSchema parses the TOML collection-schema file at path. A missing
// file is not an error: it means no collections are pre-declared, and
// the server opens none. Entries without a positive shard count get 16.
func LoadSchema(path string) ([]CollectionSchema, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var doc schemaFile
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("config: decode schema %s: %w", path, err)
	}

	for i, c := range doc.Collection {
		if c.Name == "" {
			return nil, fmt.Errorf("config: schema %s: collection %d missing name", path, i)
		}
		if c.Shards <= 0 {
			doc.Collection[i].Shards = 16
		}
	}

	return doc.Collection, nil
}
