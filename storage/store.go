// Package storage persists accepted submission records. A rejected
// submission never reaches this package.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-ekyc-gateway/pipeline"
)

// StoredSubmission is what a saved record looks like when read back.
type StoredSubmission struct {
	ID             string
	DocumentType   string
	FamilyName     string
	GivenName      string
	IdentityNumber string
	CardNumber     string
	BirthDate      string
	ExpiryDate     string
	FrontFace      []byte
	SelfieFace     []byte
	CreatedAt      time.Time
}

// SubmissionStore is the persistence collaborator interface. Should be safe
// to use concurrently.
type SubmissionStore interface {
	// SaveSubmission stores an accepted record. Saving the same record id
	// twice is an error; records are immutable after assembly.
	SaveSubmission(ctx context.Context, record *pipeline.Record) error

	// GetSubmission retrieves a stored record by id, or an error when it
	// does not exist.
	GetSubmission(ctx context.Context, id string) (*StoredSubmission, error)
}

// ------------------------------------------------------------------------------

// InMemorySubmissionStore keeps records in a map, for tests and single-node
// development setups.
type InMemorySubmissionStore struct {
	mutex   sync.Mutex
	records map[string]*StoredSubmission
}

func NewInMemorySubmissionStore() *InMemorySubmissionStore {
	return &InMemorySubmissionStore{
		records: make(map[string]*StoredSubmission),
	}
}

func (s *InMemorySubmissionStore) SaveSubmission(ctx context.Context, record *pipeline.Record) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.records[record.ID]; ok {
		return fmt.Errorf("submission %s already stored", record.ID)
	}
	s.records[record.ID] = fromRecord(record, time.Now())
	return nil
}

func (s *InMemorySubmissionStore) GetSubmission(ctx context.Context, id string) (*StoredSubmission, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if stored, ok := s.records[id]; ok {
		copied := *stored
		return &copied, nil
	}
	return nil, fmt.Errorf("failed to find submission %s", id)
}

func fromRecord(record *pipeline.Record, createdAt time.Time) *StoredSubmission {
	return &StoredSubmission{
		ID:             record.ID,
		DocumentType:   string(record.Fields.DocumentType),
		FamilyName:     record.Fields.FamilyName,
		GivenName:      record.Fields.GivenName,
		IdentityNumber: record.Fields.IdentityNumber,
		CardNumber:     record.Fields.CardNumber,
		BirthDate:      record.Fields.BirthDate,
		ExpiryDate:     record.Fields.ExpiryDate,
		FrontFace:      record.FrontFace.PNG,
		SelfieFace:     record.SelfieFace.PNG,
		CreatedAt:      createdAt,
	}
}
