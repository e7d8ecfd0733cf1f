package note

import (
	"context"

	"github.com/opennotes/opennotes/internal/tenant"
)

// Repository defines the interface for note storage. Every method that
// touches existing notes takes the caller's tenant scope and folds it
// into the query; an id belonging to another tenant behaves exactly
// like a missing id.
type Repository interface {
	Create(ctx context.Context, n *Note) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*Note, error)
	List(ctx context.Context, scope tenant.Scope, archived bool, limit, offset int) ([]*Note, error)
	Count(ctx context.Context, scope tenant.Scope, archived bool) (int, error)

	// Update persists title/content/tags and touches updated_at. The
	// touch is an explicit repository step, not an entity hook.
	Update(ctx context.Context, scope tenant.Scope, n *Note) error

	Delete(ctx context.Context, scope tenant.Scope, id string) error
	SetArchived(ctx context.Context, scope tenant.Scope, id string, archived bool) (*Note, error)

	// CountByTenant counts all notes of a tenant regardless of archive
	// state; it feeds the subscription quota check.
	CountByTenant(ctx context.Context, tenantID string) (int, error)
}
