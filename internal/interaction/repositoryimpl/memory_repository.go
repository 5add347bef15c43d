package repositoryimpl

import (
	"context"
	"sort"
	"sync"

	"github.com/kazz187/npcgate/internal/interaction"
	"github.com/kazz187/npcgate/pkg/cerr"
)

// MemoryRepository keeps partner states for the current session only.
type MemoryRepository struct {
	mu     sync.RWMutex
	states map[string]*interaction.State
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		states: make(map[string]*interaction.State),
	}
}

func (r *MemoryRepository) Get(_ context.Context, partner string) (*interaction.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[partner]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "partner state not found", nil)
	}
	return s.Clone(), nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*interaction.State, error) {
	r.mu.RLock()
	partners := make([]string, 0, len(r.states))
	for p := range r.states {
		partners = append(partners, p)
	}
	sort.Strings(partners)

	all := make([]*interaction.State, 0, len(partners))
	for _, p := range partners {
		all = append(all, r.states[p].Clone())
	}
	r.mu.RUnlock()
	return all, nil
}

func (r *MemoryRepository) Save(_ context.Context, s *interaction.State) error {
	if s == nil || s.Partner == "" {
		return cerr.NewError(cerr.InvalidArgument, "partner is required", nil)
	}
	r.mu.Lock()
	r.states[s.Partner] = s.Clone()
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, partner string) error {
	r.mu.Lock()
	delete(r.states, partner)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	clear(r.states)
	r.mu.Unlock()
	return nil
}
