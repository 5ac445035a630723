package index

import (
	"sync"
	"testing"
)

func TestIndexAddLookupRemove(t *testing.T) {
	ix := New()

	if err := ix.Add("color", "red", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ix.Add("color", "red", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ix.Add("color", "blue", 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	reds := ix.Lookup("color", "red")
	if reds.GetCardinality() != 2 || !reds.Contains(1) || !reds.Contains(2) {
		t.Fatalf("lookup(red): got %v", reds.ToArray())
	}

	ix.Remove("color", "red", 1)
	reds = ix.Lookup("color", "red")
	if reds.GetCardinality() != 1 || !reds.Contains(2) {
		t.Fatalf("lookup(red) after remove: got %v", reds.ToArray())
	}

	ix.Remove("color", "red", 2)
	reds = ix.Lookup("color", "red")
	if !reds.IsEmpty() {
		t.Fatalf("lookup(red) after removing all: got %v", reds.ToArray())
	}
}

func TestIndexRejectsEmptyValue(t *testing.T) {
	ix := New()
	if err := ix.Add("color", "", 1); err != ErrEmptyValue {
		t.Fatalf("add(\"\"): got %v, want ErrEmptyValue", err)
	}
}

func TestIndexConcurrentAddsSameValue(t *testing.T) {
	ix := New()

	var wg sync.WaitGroup
	for i := uint64(1); i <= 200; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_ = ix.Add("color", "red", id)
		}(i)
	}
	wg.Wait()

	reds := ix.Lookup("color", "red")
	if reds.GetCardinality() != 200 {
		t.Fatalf("lookup(red): got cardinality %d, want 200", reds.GetCardinality())
	}
}
