package inmemory

import (
	"context"
	"sync"

	"github.com/openams/openams/internal/domain/proration"
	ierr "github.com/openams/openams/internal/errors"
)

// ProrationStore implements proration.Repository.
type ProrationStore struct {
	mu           sync.RWMutex
	calculations map[string]*proration.Calculation
}

func NewProrationStore() *ProrationStore {
	return &ProrationStore{
		calculations: make(map[string]*proration.Calculation),
	}
}

func (s *ProrationStore) Create(ctx context.Context, calc *proration.Calculation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.calculations[calc.ID]; exists {
		return ierr.NewError("proration calculation already exists").
			WithHintf("calculation %s already exists", calc.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	clone := *calc
	s.calculations[calc.ID] = &clone
	return nil
}

func (s *ProrationStore) Get(ctx context.Context, id string) (*proration.Calculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calc, exists := s.calculations[id]
	if !exists {
		return nil, ierr.NewError("proration calculation not found").
			WithHintf("calculation %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	clone := *calc
	return &clone, nil
}

func (s *ProrationStore) Approve(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	calc, exists := s.calculations[id]
	if !exists {
		return ierr.NewError("proration calculation not found").
			WithHintf("calculation %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	if calc.Status == proration.CalculationStatusApproved {
		return ierr.NewError("calculation already approved").
			WithHintf("calculation %s is immutable after approval", id).
			Mark(ierr.ErrInvalidOperation)
	}
	calc.Status = proration.CalculationStatusApproved
	return nil
}

func (s *ProrationStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*proration.Calculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*proration.Calculation
	for _, calc := range s.calculations {
		if calc.SubscriptionID == subscriptionID {
			clone := *calc
			result = append(result, &clone)
		}
	}
	return result, nil
}
