package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cuemby/vespanet/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var bucketProvisions = []byte("provisions")

// lockTimeout bounds the wait for another vespanet process holding the file
const lockTimeout = 2 * time.Second

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if needed) the journal database at path
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketProvisions); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketProvisions, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// RecordProvision stores entry under its container IP, replacing any earlier run
func (s *BoltStore) RecordProvision(entry *types.ProvisionEntry) error {
	if entry.ContainerIP == "" {
		return fmt.Errorf("%w: provision entry without container ip", types.ErrArgument)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProvisions)
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return b.Put([]byte(entry.ContainerIP), data)
	})
}

func (s *BoltStore) GetProvision(containerIP string) (*types.ProvisionEntry, error) {
	var entry types.ProvisionEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProvisions)
		data := b.Get([]byte(containerIP))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, containerIP)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListProvisions returns every entry, most recent first
func (s *BoltStore) ListProvisions() ([]*types.ProvisionEntry, error) {
	var entries []*types.ProvisionEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProvisions)
		return b.ForEach(func(k, v []byte) error {
			var entry types.ProvisionEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("corrupt entry %s: %w", k, err)
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func (s *BoltStore) DeleteProvision(containerIP string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProvisions)
		return b.Delete([]byte(containerIP))
	})
}
