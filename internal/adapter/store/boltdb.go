package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.etcd.io/bbolt"
	"medcite/internal/domain"
)

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")
	keyDimension  = []byte("dimension")
	keyCount      = []byte("entry_count")
)

// BoltStore persists a vector index in a single BoltDB file.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

type storedEntry struct {
	ID      string    `json:"id"`
	Source  string    `json:"src"`
	Ordinal int       `json:"ord"`
	Content string    `json:"text"`
	Vector  []float32 `json:"v"`
}

// NewBoltStore opens (or creates) the index database at path.
// A file that exists but cannot be opened as a database is reported as a corrupt index.
func NewBoltStore(path string) (*BoltStore, error) {
	existed := false
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		existed = true
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		if existed {
			return nil, domain.NewError(domain.KindCorruptIndex, err, "cannot open %s", path)
		}
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketEntries, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, path: path}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

func (s *BoltStore) Path() string {
	return s.path
}

// SaveIndex replaces the stored entries in one transaction, so readers see
// either the previous index or the new one.
func (s *BoltStore) SaveIndex(dimension int, entries []domain.IndexEntry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketEntries); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket(bucketEntries)
		if err != nil {
			return err
		}

		for i, e := range entries {
			if len(e.Vector) != dimension {
				return domain.NewError(domain.KindDimensionMismatch, nil,
					"entry %d: expected dimension %d, got %d", i, dimension, len(e.Vector))
			}
			data, err := json.Marshal(storedEntry{
				ID:      e.Chunk.ID,
				Source:  e.Chunk.SourceID,
				Ordinal: e.Chunk.Ordinal,
				Content: e.Chunk.Content,
				Vector:  e.Vector,
			})
			if err != nil {
				return err
			}
			if err := b.Put(itob(uint64(i)), data); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := putInt(meta, keyDimension, dimension); err != nil {
			return err
		}
		return putInt(meta, keyCount, len(entries))
	})
}

// LoadIndex reads all entries in insertion order and checks them against the
// stored dimension and count.
func (s *BoltStore) LoadIndex() (int, []domain.IndexEntry, error) {
	var (
		dimension int
		entries   []domain.IndexEntry
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		var (
			count    int
			hasCount bool
			err      error
		)
		if dimension, _, err = getInt(meta, keyDimension); err != nil {
			return corrupt(err, "unreadable dimension")
		}
		if count, hasCount, err = getInt(meta, keyCount); err != nil {
			return corrupt(err, "unreadable entry count")
		}

		b := tx.Bucket(bucketEntries)
		err = b.ForEach(func(k, v []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				return corrupt(err, "entry %x is not decodable", k)
			}
			if len(stored.Vector) != dimension {
				return corrupt(nil, "entry %x has dimension %d, index dimension is %d", k, len(stored.Vector), dimension)
			}
			if stored.Content == "" {
				return corrupt(nil, "entry %x has no content", k)
			}
			entries = append(entries, domain.IndexEntry{
				Vector: stored.Vector,
				Chunk: domain.Chunk{
					ID:       stored.ID,
					SourceID: stored.Source,
					Ordinal:  stored.Ordinal,
					Content:  stored.Content,
				},
			})
			return nil
		})
		if err != nil {
			return err
		}

		if hasCount && count != len(entries) {
			return corrupt(nil, "expected %d entries, found %d", count, len(entries))
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return dimension, entries, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func corrupt(err error, format string, args ...any) error {
	return domain.NewError(domain.KindCorruptIndex, err, format, args...)
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func putInt(b *bbolt.Bucket, key []byte, v int) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func getInt(b *bbolt.Bucket, key []byte) (int, bool, error) {
	data := b.Get(key)
	if data == nil {
		return 0, false, nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, true, err
	}
	return v, true, nil
}
