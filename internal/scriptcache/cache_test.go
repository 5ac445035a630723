package scriptcache

import "testing"

func TestCachePutGet(t *testing.T) {
	c := New()
	h := HashSource("function main() { return 1 }")

	if _, ok := c.Get(h); ok {
		t.Fatalf("get on empty cache: found entry")
	}

	c.Put(h, []byte{0x01, 0x02, 0x03})

	got, ok := c.Get(h)
	if !ok {
		t.Fatalf("get after put: not found")
	}
	if len(got) != 3 || got[0] != 0x01 || got[2] != 0x03 {
		t.Fatalf("get after put: got %v", got)
	}
	if c.Len() != 1 {
		t.Fatalf("len: got %d, want 1", c.Len())
	}
}

func TestCacheOverwriteReplacesBytecode(t *testing.T) {
	c := New()
	h := HashSource("function f() {}")

	c.Put(h, []byte{1, 2, 3, 4})
	c.Put(h, []byte{9})

	got, ok := c.Get(h)
	if !ok || len(got) != 1 || got[0] != 9 {
		t.Fatalf("get after overwrite: got %v, ok=%v", got, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("len after overwrite: got %d, want 1", c.Len())
	}
}

func TestCacheEvict(t *testing.T) {
	c := New()
	h := HashSource("function g() {}")
	c.Put(h, []byte{1, 2})

	c.Evict(h)

	if _, ok := c.Get(h); ok {
		t.Fatalf("get after evict: still found")
	}
	if c.Len() != 0 {
		t.Fatalf("len after evict: got %d, want 0", c.Len())
	}
}

func TestCacheDistinctSourcesDistinctHashes(t *testing.T) {
	a := HashSource("a")
	b := HashSource("b")
	if a == b {
		t.Fatalf("distinct sources hashed to same key: %d", a)
	}

	c := New()
	c.Put(a, []byte("A"))
	c.Put(b, []byte("B"))

	gotA, _ := c.Get(a)
	gotB, _ := c.Get(b)
	if string(gotA) != "A" || string(gotB) != "B" {
		t.Fatalf("got a=%q b=%q", gotA, gotB)
	}
	if c.Len() != 2 {
		t.Fatalf("len: got %d, want 2", c.Len())
	}
}

func TestCacheManyEntriesProbeChainIntact(t *testing.T) {
	c := New()
	hashes := make([]uint64, 0, 200)
	for i := 0; i < 200; i++ {
		h := HashSource(string(rune('a'+(i%26))) + string(rune(i)))
		hashes = append(hashes, h)
		c.Put(h, []byte{byte(i)})
	}

	for i, h := range hashes {
		got, ok := c.Get(h)
		if !ok {
			t.Fatalf("entry %d (hash %d) missing after %d puts", i, h, len(hashes))
		}
		if len(got) != 1 || got[0] != byte(i) {
			t.Fatalf("entry %d: got %v, want [%d]", i, got, byte(i))
		}
	}
}
