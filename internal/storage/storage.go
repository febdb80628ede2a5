// Package storage provides optional persistent history for the CKD risk
// predictor. It uses BoltDB to store one audit record per prediction served,
// keyed by timestamp for efficient range queries.
//
// Only the encoded numeric vector and the resulting score are persisted; the
// raw submitted values are discarded with the request.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const predictionsBucket = "predictions"

// PredictionRecord is one stored prediction outcome.
type PredictionRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Vector       []float64 `json:"vector"`
	Probability  float64   `json:"probability"`
	Label        string    `json:"label"`
	ModelVersion string    `json:"model_version"`
	Fallback     bool      `json:"fallback"`
}

// Store provides persistent prediction history using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the history database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "ckd-history.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StorePrediction appends one prediction record. Keys are
// "pred_<unixnano>" so range scans come back in time order.
func (s *Store) StorePrediction(rec PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal prediction record: %w", err)
		}

		key := fmt.Sprintf("pred_%020d", rec.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetPredictions retrieves prediction records within a time range, inclusive
// of both ends.
func (s *Store) GetPredictions(start, end time.Time) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		c := b.Cursor()

		startKey := []byte(fmt.Sprintf("pred_%020d", start.UnixNano()))
		endKey := []byte(fmt.Sprintf("pred_%020d", end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// Recent returns up to n most recent prediction records, newest first.
func (s *Store) Recent(n int) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		c := b.Cursor()

		for k, v := c.Last(); k != nil && len(records) < n; k, v = c.Prev() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}
