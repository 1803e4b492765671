package greenhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/verdantlabs/canopy/pkg/policy"
)

// Service implements the entity operations over a SQL database. All methods
// enforce existence checks before policy checks before mutation.
type Service struct {
	db   *sql.DB
	acls *policy.ACLCache
	now  func() time.Time
}

// NewService creates a Service with a bounded ACL cache
func NewService(db *sql.DB) *Service {
	return NewServiceWithCache(db, 1024, 5*time.Minute)
}

// NewServiceWithCache creates a Service with explicit ACL cache sizing
func NewServiceWithCache(db *sql.DB, cacheSize int, cacheTTL time.Duration) *Service {
	return &Service{
		db:   db,
		acls: policy.NewACLCache(cacheSize, cacheTTL),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// DB exposes the underlying handle for health checks
func (s *Service) DB() *sql.DB { return s.db }

// Stats reports aggregate row counts for monitoring
type Stats struct {
	Greenhouses int64
	ActiveUsers int64
}

// Stats counts greenhouses and active users
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM greenhouses`).Scan(&st.Greenhouses)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count greenhouses: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE is_active = TRUE`).Scan(&st.ActiveUsers)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count users: %w", err)
	}
	return st, nil
}

// isEmpty implements the partial-update contract: a nil pointer and an
// empty string both mean "leave the stored value unchanged". There is no
// way to clear a field to empty through update.
func isEmpty(s *string) bool {
	return s == nil || *s == ""
}
