// Package replay is an optional, operator-facing inspection log: a
// bbolt-backed record of ids the worker has validated, kept purely for
// offline debugging. It is not consensus state, the worker never reads
// it back, and it is disabled unless a datadir is configured (spec_full
// §5.3) — persistence of any kind is out of scope for the worker itself.
package replay

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"rubin.dev/protocol/worker"
)

var (
	bucketBlocks       = []byte("blocks_by_id")
	bucketOperations   = []byte("operations_by_id")
	bucketEndorsements = []byte("endorsements_by_id")
)

// Entry is one recorded observation: an id the worker accepted, the peer
// it arrived from, and when the log wrote it.
type Entry struct {
	Source    worker.PeerID
	Timestamp time.Time
}

// Log is a handle to the inspection database. A nil *Log is valid and
// every method on it is a no-op, so callers can leave replay disabled by
// simply never calling Open.
type Log struct {
	db *bolt.DB
}

// Open creates (or reopens) the inspection database under datadir. The
// caller is responsible for calling Close.
func Open(datadir string) (*Log, error) {
	if datadir == "" {
		return nil, fmt.Errorf("replay: datadir required")
	}
	if err := os.MkdirAll(datadir, 0o755); err != nil {
		return nil, fmt.Errorf("replay: mkdir datadir: %w", err)
	}
	path := filepath.Join(datadir, "inspect.db")
	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("replay: open bbolt: %w", err)
	}
	l := &Log{db: db}
	if err := l.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketBlocks, bucketOperations, bucketEndorsements} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Close releases the underlying database file. Safe to call on a nil *Log.
func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// RecordBlock notes that a block id passed validation.
func (l *Log) RecordBlock(id [32]byte, source worker.PeerID, at time.Time) error {
	return l.put(bucketBlocks, id, source, at)
}

// RecordOperation notes that an operation id passed validation.
func (l *Log) RecordOperation(id [32]byte, source worker.PeerID, at time.Time) error {
	return l.put(bucketOperations, id, source, at)
}

// RecordEndorsement notes that an endorsement id passed validation.
func (l *Log) RecordEndorsement(id [32]byte, source worker.PeerID, at time.Time) error {
	return l.put(bucketEndorsements, id, source, at)
}

func (l *Log) put(bucket []byte, id [32]byte, source worker.PeerID, at time.Time) error {
	if l == nil || l.db == nil {
		return nil
	}
	val := encodeEntry(Entry{Source: source, Timestamp: at})
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(id[:], val)
	})
}

// Block looks up a previously recorded block id.
func (l *Log) Block(id [32]byte) (Entry, bool, error) { return l.get(bucketBlocks, id) }

// Operation looks up a previously recorded operation id.
func (l *Log) Operation(id [32]byte) (Entry, bool, error) { return l.get(bucketOperations, id) }

// Endorsement looks up a previously recorded endorsement id.
func (l *Log) Endorsement(id [32]byte) (Entry, bool, error) { return l.get(bucketEndorsements, id) }

func (l *Log) get(bucket []byte, id [32]byte) (Entry, bool, error) {
	if l == nil || l.db == nil {
		return Entry{}, false, nil
	}
	var (
		out   Entry
		found bool
		err   error
	)
	viewErr := l.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get(id[:])
		if v == nil {
			return nil
		}
		out, err = decodeEntry(v)
		found = err == nil
		return err
	})
	if viewErr != nil {
		return Entry{}, false, viewErr
	}
	return out, found, nil
}

// encodeEntry lays out: source_len u16le | source_bytes | unix_nano i64le.
func encodeEntry(e Entry) []byte {
	src := []byte(e.Source)
	out := make([]byte, 2+len(src)+8)
	binary.LittleEndian.PutUint16(out[0:2], uint16(len(src))) // #nosec G115 -- peer ids are short.
	copy(out[2:2+len(src)], src)
	binary.LittleEndian.PutUint64(out[2+len(src):], uint64(e.Timestamp.UnixNano())) // #nosec G115 -- UnixNano is positive for all recorded times.
	return out
}

func decodeEntry(b []byte) (Entry, error) {
	if len(b) < 2 {
		return Entry{}, fmt.Errorf("replay: truncated entry")
	}
	srcLen := int(binary.LittleEndian.Uint16(b[0:2]))
	if 2+srcLen+8 != len(b) {
		return Entry{}, fmt.Errorf("replay: bad entry length")
	}
	source := worker.PeerID(b[2 : 2+srcLen])
	nanos := int64(binary.LittleEndian.Uint64(b[2+srcLen:]))
	return Entry{Source: source, Timestamp: time.Unix(0, nanos)}, nil
}
