package chat

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store persists conversations in a bbolt file, one bucket per
// conversation. Keys are big-endian sequence numbers so a cursor walks
// messages in append order.
type Store struct {
	db *bolt.DB
}

// OpenStore opens or creates the database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append writes m at the end of conversation convID.
func (s *Store) Append(convID string, m Message) error {
	if convID == "" {
		return errors.New("conversation id is empty")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bk, err := tx.CreateBucketIfNotExists([]byte(convID))
		if err != nil {
			return fmt.Errorf("conversation bucket: %w", err)
		}
		seq, err := bk.NextSequence()
		if err != nil {
			return err
		}
		return bk.Put(sequenceKey(seq), data)
	})
}

// Load reads conversation convID into a transcript. An unknown id yields
// an empty transcript.
func (s *Store) Load(convID string) (*Transcript, error) {
	t := NewTranscript(convID)
	err := s.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(convID))
		if bk == nil {
			return nil
		}
		return bk.ForEach(func(k, v []byte) error {
			var m Message
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("decoding message %d: %w", binary.BigEndian.Uint64(k), err)
			}
			t.Append(m)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading conversation %s: %w", convID, err)
	}
	return t, nil
}

// Conversations lists stored conversation ids in key order.
func (s *Store) Conversations() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			ids = append(ids, string(name))
			return nil
		})
	})
	return ids, err
}

func sequenceKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
