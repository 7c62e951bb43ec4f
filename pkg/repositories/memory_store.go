package repositories

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/apperrors"
)

// MemoryEntityStore implements EntityStore on a process-local map. It backs
// service tests and local development; the semantics mirror the Postgres
// store, including the list cap and delete verification.
type MemoryEntityStore struct {
	mu sync.RWMutex
	// rows is keyed by entity Id, then by attribute.
	rows map[uuid.UUID]map[string][]byte

	// FailDeletes simulates a storage layer that accepts a delete but keeps
	// the row visible, for exercising the delete-verify contract.
	FailDeletes bool
}

// NewMemoryEntityStore creates an in-memory EntityStore.
func NewMemoryEntityStore() *MemoryEntityStore {
	return &MemoryEntityStore{rows: make(map[uuid.UUID]map[string][]byte)}
}

var _ EntityStore = (*MemoryEntityStore)(nil)

func (s *MemoryEntityStore) Put(ctx context.Context, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.rows[row.ID]
	if !ok {
		partition = make(map[string][]byte)
		s.rows[row.ID] = partition
	}
	partition[row.Attribute] = append([]byte(nil), row.Body...)
	return nil
}

func (s *MemoryEntityStore) Get(ctx context.Context, id uuid.UUID, attribute string) (*Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	body, ok := s.rows[id][attribute]
	if !ok {
		return nil, nil
	}
	return &Row{ID: id, Attribute: attribute, Body: append([]byte(nil), body...)}, nil
}

func (s *MemoryEntityStore) List(ctx context.Context, id uuid.UUID, prefix string) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attrs := make([]string, 0)
	for attr := range s.rows[id] {
		if strings.HasPrefix(attr, prefix) {
			attrs = append(attrs, attr)
		}
	}
	sort.Strings(attrs)

	if len(attrs) > ListSafetyCap {
		attrs = attrs[:ListSafetyCap]
	}

	rows := make([]Row, 0, len(attrs))
	for _, attr := range attrs {
		rows = append(rows, Row{ID: id, Attribute: attr, Body: append([]byte(nil), s.rows[id][attr]...)})
	}
	return rows, nil
}

func (s *MemoryEntityStore) Update(ctx context.Context, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[row.ID][row.Attribute]; !ok {
		return apperrors.ErrNotFound
	}
	s.rows[row.ID][row.Attribute] = append([]byte(nil), row.Body...)
	return nil
}

func (s *MemoryEntityStore) UpdateIf(ctx context.Context, row Row, field, expected string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.rows[row.ID][row.Attribute]
	if !ok {
		return apperrors.ErrNotFound
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return err
	}
	current, _ := doc[field].(string)
	if current != expected {
		return apperrors.ErrConflict
	}

	s.rows[row.ID][row.Attribute] = append([]byte(nil), row.Body...)
	return nil
}

func (s *MemoryEntityStore) Delete(ctx context.Context, id uuid.UUID, attribute string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.FailDeletes {
		delete(s.rows[id], attribute)
	}

	// Same contract as the durable store: success is absence on re-read.
	if _, still := s.rows[id][attribute]; still {
		return apperrors.ErrDeleteUnconfirmed
	}
	return nil
}
