package persistence

import (
	"testing"
	"time"
)

func TestAppendAndLoadAll(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	if err := l.Append(Record{DocID: 1, Size: 10, Revision: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Append(Record{DocID: 2, Size: 20, Revision: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Append(Record{DocID: 1, Size: 15, Revision: 2}); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err := l.LoadAll()
	if err != nil {
		t.Fatalf("loadAll: %v", err)
	}

	byID := make(map[uint64]Record)
	for _, r := range records {
		byID[r.DocID] = r
	}

	if len(byID) != 2 {
		t.Fatalf("got %d records, want 2", len(byID))
	}
	if byID[1].Size != 15 || byID[1].Revision != 2 {
		t.Fatalf("doc 1: got %+v, want size=15 revision=2", byID[1])
	}
	if byID[2].Size != 20 {
		t.Fatalf("doc 2: got %+v, want size=20", byID[2])
	}
}

func TestTombstoneRemovesOnReplay(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	if err := l.Append(Record{DocID: 7, Size: 1, Revision: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Append(Record{DocID: 7, Tombstone: true}); err != nil {
		t.Fatalf("append tombstone: %v", err)
	}

	records, err := l.LoadAll()
	if err != nil {
		t.Fatalf("loadAll: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0 after tombstone", len(records))
	}
}

func TestSnapshotThenAppendReplaysBoth(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	if err := l.Append(Record{DocID: 1, Size: 10, Revision: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.SnapshotNow([]Record{{DocID: 1, Size: 10, Revision: 1}}); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := l.Append(Record{DocID: 2, Size: 5, Revision: 1}); err != nil {
		t.Fatalf("append after snapshot: %v", err)
	}

	records, err := l.LoadAll()
	if err != nil {
		t.Fatalf("loadAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
}

func TestPeriodicSnapshotTakesFinalSnapshotOnStop(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	calls := 0
	source := func() []Record {
		calls++
		return []Record{{DocID: uint64(calls), Size: 1, Revision: 1}}
	}

	l.StartPeriodicSnapshot(time.Hour, source)
	l.StopPeriodicSnapshot()

	if calls == 0 {
		t.Fatalf("expected at least one snapshot on stop, got 0 calls")
	}
}
