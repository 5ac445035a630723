// Package persistence is a write-ahead log plus periodic snapshot for a
// collection's slot index, so a restarted server can rebuild its
// in-memory assoc.Table without rescanning the value log. Grounded on
// the reference codebase's internal/persistence package: WALPersister's
// append-only gob stream and snapshot-then-truncate cycle, and
// FilePersister's atomic temp-file-then-rename snapshotting and
// background periodic-snapshot goroutine.
package persistence

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
)

const walFileName = "slots.wal"
const snapshotFileName = "slots.snapshot"

// Log is the durable record stream for one collection's slot index.
type Log struct {
	dir          string
	walPath      string
	snapshotPath string

	mu   sync.Mutex
	file *os.File

	snapCancel func()
	wg         sync.WaitGroup
}

// Open opens or creates the WAL for dir, creating dir if it does not
// exist.
func Open(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persistence: create dir: %w", err)
	}

	walPath := filepath.Join(dir, walFileName)
	f, err := os.OpenFile(walPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("persistence: open wal: %w", err)
	}

	return &Log{
		dir:          dir,
		walPath:      walPath,
		snapshotPath: filepath.Join(dir, snapshotFileName),
		file:         f,
	}, nil
}

// Append durably records one slot mutation. Each record is
// gob-encoded, snappy-compressed as an independent block, then written
// length-prefixed and fsynced — grounded on WALPersister.Persist's
// encode-then-Sync pattern, with snappy added to compress each block
// the way the reference codebase's dependency set imports golang/snappy
// for but never calls.
func (l *Log) Append(r Record) error {
	block, err := encodeRecord(r)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := writeBlock(l.file, block); err != nil {
		return fmt.Errorf("persistence: append: %w", err)
	}
	return l.file.Sync()
}

// LoadAll rebuilds the full set of live records: the latest snapshot,
// if any, followed by every WAL entry appended since. Tombstone records
// encountered during replay remove the matching DocID from the result.
func (l *Log) LoadAll() ([]Record, error) {
	byID := make(map[uint64]Record)

	if err := loadSnapshot(l.snapshotPath, byID); err != nil {
		return nil, err
	}
	if err := l.replayWAL(byID); err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	return out, nil
}

func loadSnapshot(path string, byID map[uint64]Record) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("persistence: open snapshot: %w", err)
	}
	defer f.Close()
	return decodeBlocks(f, byID)
}

func (l *Log) replayWAL(byID map[uint64]Record) error {
	f, err := os.Open(l.walPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("persistence: open wal: %w", err)
	}
	defer f.Close()
	return decodeBlocks(f, byID)
}

func decodeBlocks(r io.Reader, byID map[uint64]Record) error {
	br := bufio.NewReader(r)
	for {
		rec, err := readRecord(br)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if rec.Tombstone {
			delete(byID, rec.DocID)
		} else {
			byID[rec.DocID] = rec
		}
	}
}

// SnapshotNow writes records as a fresh snapshot (atomic
// temp-file-then-rename, as FilePersister.snapshotToTempAndRename
// does) and truncates the WAL, as WALPersister.Snapshot does once the
// snapshot is durable on disk.
func (l *Log) SnapshotNow(records []Record) error {
	tmp := l.snapshotPath + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("persistence: create temp snapshot: %w", err)
	}

	for _, r := range records {
		block, err := encodeRecord(r)
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
		if err := writeBlock(f, block); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("persistence: write snapshot block: %w", err)
		}
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("persistence: sync snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("persistence: close snapshot: %w", err)
	}
	if err := os.Rename(tmp, l.snapshotPath); err != nil {
		return fmt.Errorf("persistence: rename snapshot: %w", err)
	}

	return l.truncateWAL()
}

func (l *Log) truncateWAL() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return err
	}
	if err := os.Truncate(l.walPath, 0); err != nil {
		return err
	}
	f, err := os.OpenFile(l.walPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// StartPeriodicSnapshot snapshots on a fixed interval until
// StopPeriodicSnapshot is called or the Log is closed, taking a final
// snapshot on shutdown — grounded on
// FilePersister.StartPeriodicSnapshot's ticker-plus-context-cancel loop.
func (l *Log) StartPeriodicSnapshot(interval time.Duration, source func() []Record) {
	if interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.snapCancel = cancel

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				if err := l.SnapshotNow(source()); err != nil {
					log.Printf("[persistence] final snapshot failed: %v", err)
				}
				return
			case <-ticker.C:
				if err := l.SnapshotNow(source()); err != nil {
					log.Printf("[persistence] snapshot failed: %v", err)
				}
			}
		}
	}()
}

// StopPeriodicSnapshot stops the background snapshot loop and waits for
// its final snapshot to complete.
func (l *Log) StopPeriodicSnapshot() {
	if l.snapCancel != nil {
		l.snapCancel()
	}
	l.wg.Wait()
}

// Close stops any periodic snapshot and closes the WAL file.
func (l *Log) Close() error {
	l.StopPeriodicSnapshot()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func encodeRecord(r Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&r); err != nil {
		return nil, fmt.Errorf("persistence: encode record: %w", err)
	}
	return snappy.Encode(nil, buf.Bytes()), nil
}

func writeBlock(w io.Writer, block []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(block)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(block)
	return err
}

func readRecord(r io.Reader) (Record, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Record{}, io.EOF
		}
		return Record{}, err
	}

	n := binary.BigEndian.Uint32(lenBuf[:])
	block := make([]byte, n)
	if _, err := io.ReadFull(r, block); err != nil {
		return Record{}, fmt.Errorf("persistence: truncated block: %w", err)
	}

	raw, err := snappy.Decode(nil, block)
	if err != nil {
		return Record{}, fmt.Errorf("persistence: decompress block: %w", err)
	}

	var rec Record
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("persistence: decode record: %w", err)
	}
	return rec, nil
}
