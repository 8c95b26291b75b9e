package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"medibot-afrika/internal/consultation"
	"medibot-afrika/internal/platform/logging"
	"medibot-afrika/internal/platform/metrics"
)

const (
	DefaultKey      = "medibot_referrals"
	DefaultCapacity = 50
)

// Store is the referral log: a newest-first list of consultations kept as a
// single blob and bounded to a fixed capacity.
type Store struct {
	blobs    BlobStore
	key      string
	capacity int

	// serializes load-modify-store cycles
	mu sync.Mutex
}

func NewStore(blobs BlobStore, key string, capacity int) *Store {
	if key == "" {
		key = DefaultKey
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{blobs: blobs, key: key, capacity: capacity}
}

func (s *Store) Capacity() int {
	return s.capacity
}

// Load returns the stored history, newest first. Missing, unreadable or
// malformed history is returned as an empty list.
func (s *Store) Load(ctx context.Context) []consultation.ConsultationRecord {
	records, err := s.read(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("failed to read history", "key", s.key, "error", err)
		return []consultation.ConsultationRecord{}
	}
	return records
}

// Append puts record at the front of the history, drops whatever falls past
// the capacity and overwrites the stored blob.
func (s *Store) Append(ctx context.Context, record consultation.ConsultationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(ctx)
	if err != nil {
		metrics.RecordHistoryWriteFailure()
		return fmt.Errorf("failed to read history before append: %w", err)
	}

	entries := newBoundedLog(s.capacity, existing)
	entries.PushFront(record)

	data, err := json.Marshal(entries.Records())
	if err != nil {
		metrics.RecordHistoryWriteFailure()
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.blobs.Put(ctx, s.key, data); err != nil {
		metrics.RecordHistoryWriteFailure()
		return fmt.Errorf("failed to write history: %w", err)
	}

	metrics.RecordHistorySize(entries.Len())
	return nil
}

// Find returns the record with the given id.
func (s *Store) Find(ctx context.Context, id string) (consultation.ConsultationRecord, bool) {
	for _, r := range s.Load(ctx) {
		if r.ID.String() == id {
			return r, true
		}
	}
	return consultation.ConsultationRecord{}, false
}

// read only fails on backend errors. Corrupt content is logged and treated
// as empty so the next append starts a fresh log.
func (s *Store) read(ctx context.Context) ([]consultation.ConsultationRecord, error) {
	data, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, ErrBlobNotFound) {
		return []consultation.ConsultationRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	var records []consultation.ConsultationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		metrics.RecordHistoryCorruption()
		logging.FromContext(ctx).Warn("discarding malformed history", "key", s.key, "error", err)
		return []consultation.ConsultationRecord{}, nil
	}
	if records == nil {
		records = []consultation.ConsultationRecord{}
	}
	return records, nil
}
