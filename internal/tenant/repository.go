package tenant

import (
	"context"
	"time"
)

// Repository defines the interface for tenant storage
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)

	// UpgradeToPro sets plan=pro and note_limit=UnlimitedNotes iff the
	// tenant is still on the free plan. Returns ErrAlreadyUpgraded when
	// the conditional update matches no row, so concurrent upgrades
	// cannot both succeed.
	UpgradeToPro(ctx context.Context, id string) (*Tenant, error)
}

// NoteSummary is the read-only projection of a note used in tenant
// statistics, with the author's public fields attached.
type NoteSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	AuthorEmail string    `json:"author_email"`
	AuthorRole  string    `json:"author_role"`
}

// MonthCount is one bucket of the month histogram
type MonthCount struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// NoteStats is the slice of note storage the tenant aggregates need
type NoteStats interface {
	CountByTenant(ctx context.Context, tenantID string) (int, error)
	RecentByTenant(ctx context.Context, tenantID string, limit int) ([]NoteSummary, error)
	CountByMonth(ctx context.Context, tenantID string, buckets int) ([]MonthCount, error)
}

// UserStats is the slice of user storage the tenant aggregates need
type UserStats interface {
	CountActiveByTenant(ctx context.Context, tenantID string) (int, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
