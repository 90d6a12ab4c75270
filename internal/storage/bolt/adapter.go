package bolt

import (
	"context"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kurihiro0119/repository-feed/internal/storage"
)

const bucketKV = "kv"

// boltStorage implements the Storage interface on a bbolt file
type boltStorage struct {
	db *bbolt.DB
}

// NewBoltStorage opens (or creates) the bbolt file at path
func NewBoltStorage(path string) (storage.Storage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	s := &boltStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate creates the bucket if needed
func (s *boltStorage) Migrate(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketKV))
		return err
	})
}

func (s *boltStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketKV)).Get([]byte(key))
		if v == nil {
			return storage.ErrNotFound
		}
		// v is only valid inside the transaction
		value = append([]byte(nil), v...)

		return nil
	})

	return value, err
}

func (s *boltStorage) Set(ctx context.Context, key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketKV)).Put([]byte(key), value)
	})
}

func (s *boltStorage) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketKV)).Delete([]byte(key))
	})
}

func (s *boltStorage) Close() error {
	return s.db.Close()
}
