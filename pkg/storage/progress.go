package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var bucketCharacters = []byte("characters")

// CharacterProgress is the persisted record for one character
type CharacterProgress struct {
	Wallet string `json:"wallet"`
	Name   string `json:"name"`
	Level  int    `json:"level"`
	XP     int64  `json:"xp"`
}

// ProgressStore persists character progress in BoltDB. Live entity state is
// never persisted; this store only carries level and xp across restarts so
// a respawned character does not start over.
type ProgressStore struct {
	db *bolt.DB
}

// NewProgressStore opens (or creates) the progress database under dataDir
func NewProgressStore(dataDir string) (*ProgressStore, error) {
	dbPath := filepath.Join(dataDir, "shard.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCharacters)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &ProgressStore{db: db}, nil
}

// Close closes the database
func (s *ProgressStore) Close() error {
	return s.db.Close()
}

// SaveProgress writes the record for wallet+name (upsert)
func (s *ProgressStore) SaveProgress(wallet, name string, level int, xp int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCharacters)
		data, err := json.Marshal(&CharacterProgress{Wallet: wallet, Name: name, Level: level, XP: xp})
		if err != nil {
			return err
		}
		return b.Put(progressKey(wallet, name), data)
	})
}

// LoadProgress reads the record for wallet+name; ok is false when absent
func (s *ProgressStore) LoadProgress(wallet, name string) (level int, xp int64, ok bool, err error) {
	var rec CharacterProgress
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCharacters)
		data := b.Get(progressKey(wallet, name))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil || !ok {
		return 0, 0, false, err
	}
	return rec.Level, rec.XP, true, nil
}

// ListProgress returns every persisted character record
func (s *ProgressStore) ListProgress() ([]*CharacterProgress, error) {
	var records []*CharacterProgress
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCharacters)
		return b.ForEach(func(k, v []byte) error {
			var rec CharacterProgress
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, &rec)
			return nil
		})
	})
	return records, err
}

func progressKey(wallet, name string) []byte {
	return []byte(wallet + "/" + name)
}
