package interaction

import "context"

// Repository stores partner states. Get returns a cerr.NotFound error for
// partners that have no state yet.
type Repository interface {
	Get(ctx context.Context, partner string) (*State, error)
	List(ctx context.Context) ([]*State, error)
	Save(ctx context.Context, s *State) error
	Delete(ctx context.Context, partner string) error
	DeleteAll(ctx context.Context) error
}
