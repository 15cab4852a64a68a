package inmemory

import (
	"context"
	"sync"

	"github.com/openams/openams/internal/domain/plan"
	ierr "github.com/openams/openams/internal/errors"
)

// PlanStore implements plan.Repository over a map.
type PlanStore struct {
	mu    sync.RWMutex
	plans map[string]*plan.Plan
}

func NewPlanStore() *PlanStore {
	return &PlanStore{
		plans: make(map[string]*plan.Plan),
	}
}

func (s *PlanStore) Create(ctx context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID]; exists {
		return ierr.NewError("plan already exists").
			WithHintf("plan %s already exists", p.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	clone := *p
	s.plans[p.ID] = &clone
	return nil
}

func (s *PlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.plans[id]
	if !exists {
		return nil, ierr.NewError("plan not found").
			WithHintf("plan %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	clone := *p
	return &clone, nil
}

func (s *PlanStore) Update(ctx context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID]; !exists {
		return ierr.NewError("plan not found").
			WithHintf("plan %s does not exist", p.ID).
			Mark(ierr.ErrNotFound)
	}
	clone := *p
	s.plans[p.ID] = &clone
	return nil
}

func (s *PlanStore) List(ctx context.Context) ([]*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*plan.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		clone := *p
		result = append(result, &clone)
	}
	return result, nil
}
