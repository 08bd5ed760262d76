package invoice

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const processedBucket = "processed_emails"

// DB stores processing results between runs so already-processed emails
// are not downloaded and extracted again.
type DB interface {
	// SaveProcessed saves one email's processing results
	SaveProcessed(email *ProcessedEmail) error

	// GetProcessed retrieves results for one email by message ID
	GetProcessed(id string) (*ProcessedEmail, error)

	// ListProcessed returns all processed emails, oldest first
	ListProcessed() ([]*ProcessedEmail, error)

	// DeleteProcessed removes one email's results
	DeleteProcessed(id string) error

	// Close closes the database
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens (or creates) the results database at path.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(processedBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveProcessed saves one email's processing results
func (b *BoltDB) SaveProcessed(email *ProcessedEmail) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(processedBucket))
		data, err := json.Marshal(email)
		if err != nil {
			return fmt.Errorf("marshaling processed email: %w", err)
		}
		return bucket.Put([]byte(email.ID), data)
	})
}

// GetProcessed retrieves results for one email by message ID
func (b *BoltDB) GetProcessed(id string) (*ProcessedEmail, error) {
	var email *ProcessedEmail
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(processedBucket))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("processed email not found: %s", id)
		}
		return json.Unmarshal(data, &email)
	})
	if err != nil {
		return nil, err
	}
	return email, nil
}

// ListProcessed returns all processed emails, oldest first
func (b *BoltDB) ListProcessed() ([]*ProcessedEmail, error) {
	emails := make([]*ProcessedEmail, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(processedBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var email ProcessedEmail
			if err := json.Unmarshal(v, &email); err != nil {
				return fmt.Errorf("unmarshaling processed email: %w", err)
			}
			emails = append(emails, &email)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(emails, func(i, j int) bool {
		return emails[i].InternalDate < emails[j].InternalDate
	})
	return emails, nil
}

// DeleteProcessed removes one email's results
func (b *BoltDB) DeleteProcessed(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(processedBucket))
		return bucket.Delete([]byte(id))
	})
}

// Close closes the database
func (b *BoltDB) Close() error {
	return b.db.Close()
}
