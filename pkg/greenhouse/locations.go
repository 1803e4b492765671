package greenhouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/verdantlabs/canopy/pkg/auth"
	"github.com/verdantlabs/canopy/pkg/policy"
)

// CreateLocationInput carries the fields for a new location
type CreateLocationInput struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// UpdateLocationInput carries partial-update fields for a location. A nil
// or empty name is a no-op; latitude and longitude update independently.
type UpdateLocationInput struct {
	Name      *string
	Latitude  *float64
	Longitude *float64
}

const locationColumns = `id, name, latitude, longitude, owner_id, created_at, updated_at`

func scanLocation(row interface{ Scan(...interface{}) error }) (*Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.Name, &l.Latitude, &l.Longitude, &l.OwnerID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLocation creates a location owned by the acting principal
func (s *Service) CreateLocation(ctx context.Context, actor *auth.Principal, input CreateLocationInput) (*Location, error) {
	if actor == nil {
		return nil, policy.ErrPermissionDenied
	}
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	now := s.now()
	l := &Location{
		Name:      input.Name,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		OwnerID:   actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO locations (name, latitude, longitude, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, l.Name, l.Latitude, l.Longitude, l.OwnerID, l.CreatedAt, l.UpdatedAt).Scan(&l.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	return l, nil
}

// getLocation loads a location without a policy check; callers decide
func (s *Service) getLocation(ctx context.Context, id int64) (*Location, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	l, err := scanLocation(row)
	if err == sql.ErrNoRows {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load location: %w", err)
	}
	return l, nil
}

// GetLocation returns a location visible to the actor: owner or superuser
func (s *Service) GetLocation(ctx context.Context, actor *auth.Principal, id int64) (*Location, error) {
	l, err := s.getLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Can(actor, policy.ActionView, l) {
		return nil, policy.ErrPermissionDenied
	}
	return l, nil
}

// ListLocations returns every location for superusers, otherwise only the
// actor's own
func (s *Service) ListLocations(ctx context.Context, actor *auth.Principal) ([]*Location, error) {
	if actor == nil {
		return nil, policy.ErrPermissionDenied
	}

	query := `SELECT ` + locationColumns + ` FROM locations WHERE owner_id = $1 OR $2 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, actor.ID, actor.IsSuperuser)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	locations := make([]*Location, 0)
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// UpdateLocation applies a partial update: name no-ops on empty, each
// coordinate updates independently when present
func (s *Service) UpdateLocation(ctx context.Context, actor *auth.Principal, id int64, input UpdateLocationInput) (*Location, error) {
	l, err := s.getLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Can(actor, policy.ActionUpdate, l) {
		return nil, policy.ErrPermissionDenied
	}

	if !isEmpty(input.Name) {
		l.Name = *input.Name
	}
	if input.Latitude != nil {
		l.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		l.Longitude = *input.Longitude
	}
	l.UpdatedAt = s.now()

	_, err = s.db.ExecContext(ctx, `
		UPDATE locations SET name = $1, latitude = $2, longitude = $3, updated_at = $4 WHERE id = $5
	`, l.Name, l.Latitude, l.Longitude, l.UpdatedAt, l.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update location: %w", err)
	}

	return l, nil
}

// DeleteLocation removes a location. Greenhouses at the location go with it
// (and their devices and environment records with them).
func (s *Service) DeleteLocation(ctx context.Context, actor *auth.Principal, id int64) error {
	l, err := s.getLocation(ctx, id)
	if err != nil {
		return err
	}
	if !policy.Can(actor, policy.ActionDelete, l) {
		return policy.ErrPermissionDenied
	}

	// Cascaded greenhouse rows lose their ACL entries too
	if err := s.invalidateLocationACLs(ctx, id); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return nil
}

func (s *Service) invalidateLocationACLs(ctx context.Context, locationID int64) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM greenhouses WHERE location_id = $1`, locationID)
	if err != nil {
		return fmt.Errorf("failed to list greenhouses for location: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan greenhouse id: %w", err)
		}
		s.acls.Invalidate(id)
	}
	return rows.Err()
}
