package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

var bucketDocuments = []byte("documents")

type entry struct {
	Version uint64    `json:"version"`
	Content []byte    `json:"content"`
	Updated time.Time `json:"updated"`
}

// Store is a DocumentStore backed by a local bbolt file. Each document
// carries a counter that a write must match, the same contract the remote
// backends offer.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDocuments)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetFile(ctx context.Context, path string) (*submission.Document, error) {
	var doc *submission.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketDocuments).Get([]byte(path))
		if raw == nil {
			return submission.ErrDocumentNotFound
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("corrupt document %s: %w", path, err)
		}
		doc = &submission.Document{Content: e.Content, Version: strconv.FormatUint(e.Version, 10)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) PutFile(ctx context.Context, path string, content []byte, version string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		raw := b.Get([]byte(path))

		var current entry
		if raw != nil {
			if err := json.Unmarshal(raw, &current); err != nil {
				return fmt.Errorf("corrupt document %s: %w", path, err)
			}
		}
		switch {
		case version == "" && raw != nil:
			return fmt.Errorf("%w: %s already exists", submission.ErrVersionConflict, path)
		case version != "" && raw == nil:
			return fmt.Errorf("%w: %s no longer exists", submission.ErrVersionConflict, path)
		case version != "" && version != strconv.FormatUint(current.Version, 10):
			return fmt.Errorf("%w: %s changed since version %s", submission.ErrVersionConflict, path, version)
		}

		next, err := json.Marshal(entry{
			Version: current.Version + 1,
			Content: content,
			Updated: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		return b.Put([]byte(path), next)
	})
}
