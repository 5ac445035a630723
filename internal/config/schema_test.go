package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSchemaMissingFileReturnsNil(t *testing.T) {
	schemas, err := LoadSchema(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("loadSchema: %v", err)
	}
	if schemas != nil {
		t.Fatalf("got %v, want nil for missing file", schemas)
	}
}

func TestLoadSchemaParsesCollections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collections.toml")
	content := `
[[collection]]
name = "widgets"
shards = 8
indexed_attributes = ["color", "size"]

[[collection]]
name = "orders"
indexed_attributes = ["customer_id"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	schemas, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("loadSchema: %v", err)
	}
	if len(schemas) != 2 {
		t.Fatalf("got %d collections, want 2", len(schemas))
	}

	if schemas[0].Name != "widgets" || schemas[0].Shards != 8 || len(schemas[0].IndexedAttributes) != 2 {
		t.Fatalf("widgets: got %+v", schemas[0])
	}
	if schemas[1].Name != "orders" || schemas[1].Shards != 16 {
		t.Fatalf("orders: got %+v, want default shards=16", schemas[1])
	}
}

func TestLoadSchemaRejectsMissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[[collection]]\nshards = 4\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSchema(path); err == nil {
		t.Fatalf("expected error for missing collection name")
	}
}
