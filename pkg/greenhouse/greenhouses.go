package greenhouse

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/verdantlabs/canopy/pkg/auth"
	"github.com/verdantlabs/canopy/pkg/policy"
)

// CreateGreenHouseInput carries the fields for a new greenhouse. Authorized
// users are optional; the owner is always added to the set.
type CreateGreenHouseInput struct {
	Name            string
	CropType        CropType
	LocationID      int64
	AuthorizedUsers []int64
}

// UpdateGreenHouseInput carries partial-update fields. Nil or empty string
// fields are no-ops. A non-nil AuthorizedUsers replaces the whole set; the
// owner is re-added if the caller left them out.
type UpdateGreenHouseInput struct {
	Name            *string
	CropType        *string
	LocationID      *int64
	AuthorizedUsers []int64
}

const greenhouseColumns = `id, name, crop_type, location_id, owner_id, created_at, updated_at`

func scanGreenHouse(row interface{ Scan(...interface{}) error }) (*GreenHouse, error) {
	var g GreenHouse
	err := row.Scan(&g.ID, &g.Name, &g.CropType, &g.LocationID, &g.OwnerID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGreenHouse creates a greenhouse at a location the actor owns
func (s *Service) CreateGreenHouse(ctx context.Context, actor *auth.Principal, input CreateGreenHouseInput) (*GreenHouse, error) {
	if actor == nil {
		return nil, policy.ErrPermissionDenied
	}
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	loc, err := s.getLocation(ctx, input.LocationID)
	if err != nil {
		return nil, err
	}
	if !policy.Can(actor, policy.ActionUpdate, loc) {
		return nil, policy.ErrPermissionDenied
	}

	authorized := normalizeAuthorized(actor.ID, input.AuthorizedUsers)
	if err := s.checkUsersExist(ctx, authorized); err != nil {
		return nil, err
	}

	now := s.now()
	g := &GreenHouse{
		Name:            input.Name,
		CropType:        input.CropType,
		LocationID:      input.LocationID,
		OwnerID:         actor.ID,
		AuthorizedUsers: authorized,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO greenhouses (name, crop_type, location_id, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, g.Name, g.CropType, g.LocationID, g.OwnerID, g.CreatedAt, g.UpdatedAt).Scan(&g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create greenhouse: %w", err)
	}

	if err := insertAuthorized(ctx, tx, g.ID, g.AuthorizedUsers); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit greenhouse: %w", err)
	}

	s.acls.Put(&policy.ACL{GreenhouseID: g.ID, OwnerID: g.OwnerID, Authorized: g.AuthorizedUsers})
	return g, nil
}

// getGreenHouse loads a greenhouse and its authorized set without a policy
// check; callers decide
func (s *Service) getGreenHouse(ctx context.Context, id int64) (*GreenHouse, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+greenhouseColumns+` FROM greenhouses WHERE id = $1`, id)
	g, err := scanGreenHouse(row)
	if err == sql.ErrNoRows {
		return nil, ErrGreenHouseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load greenhouse: %w", err)
	}
	if g.AuthorizedUsers, err = s.loadAuthorized(ctx, g.ID); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) loadAuthorized(ctx context.Context, greenhouseID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM greenhouse_users WHERE greenhouse_id = $1 ORDER BY user_id
	`, greenhouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load authorized users: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan authorized user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GreenhouseACL returns the cached access lists for a greenhouse, loading
// and caching them on a miss. Devices and environment records use it to
// resolve their effective owner.
func (s *Service) GreenhouseACL(ctx context.Context, greenhouseID int64) (*policy.ACL, error) {
	if acl, ok := s.acls.Get(greenhouseID); ok {
		return acl, nil
	}

	var ownerID int64
	err := s.db.QueryRowContext(ctx, `SELECT owner_id FROM greenhouses WHERE id = $1`, greenhouseID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrGreenHouseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load greenhouse owner: %w", err)
	}

	authorized, err := s.loadAuthorized(ctx, greenhouseID)
	if err != nil {
		return nil, err
	}

	acl := &policy.ACL{GreenhouseID: greenhouseID, OwnerID: ownerID, Authorized: authorized}
	s.acls.Put(acl)
	return acl, nil
}

// GetGreenHouse returns a greenhouse visible to the actor: owner, superuser,
// or a member of the authorized set
func (s *Service) GetGreenHouse(ctx context.Context, actor *auth.Principal, id int64) (*GreenHouse, error) {
	g, err := s.getGreenHouse(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Can(actor, policy.ActionView, g) {
		return nil, policy.ErrPermissionDenied
	}
	return g, nil
}

// ListGreenHouses returns every greenhouse for superusers, otherwise those
// the actor owns or is authorized on
func (s *Service) ListGreenHouses(ctx context.Context, actor *auth.Principal) ([]*GreenHouse, error) {
	if actor == nil {
		return nil, policy.ErrPermissionDenied
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+greenhouseColumns+` FROM greenhouses
		WHERE owner_id = $1
		   OR $2
		   OR EXISTS (
			SELECT 1 FROM greenhouse_users
			WHERE greenhouse_id = greenhouses.id AND user_id = $3
		   )
		ORDER BY id
	`, actor.ID, actor.IsSuperuser, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list greenhouses: %w", err)
	}
	defer rows.Close()

	greenhouses := make([]*GreenHouse, 0)
	for rows.Next() {
		g, err := scanGreenHouse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan greenhouse: %w", err)
		}
		greenhouses = append(greenhouses, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, g := range greenhouses {
		if g.AuthorizedUsers, err = s.loadAuthorized(ctx, g.ID); err != nil {
			return nil, err
		}
	}
	return greenhouses, nil
}

// UpdateGreenHouse applies a partial update. Relinking to another location
// requires the actor to own that location. A non-nil authorized set replaces
// the previous one atomically, with the owner re-added when missing.
func (s *Service) UpdateGreenHouse(ctx context.Context, actor *auth.Principal, id int64, input UpdateGreenHouseInput) (*GreenHouse, error) {
	g, err := s.getGreenHouse(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Can(actor, policy.ActionUpdate, g) {
		return nil, policy.ErrPermissionDenied
	}

	if !isEmpty(input.Name) {
		g.Name = *input.Name
	}
	if !isEmpty(input.CropType) {
		ct, err := ParseCropType(*input.CropType)
		if err != nil {
			return nil, err
		}
		g.CropType = ct
	}
	if input.LocationID != nil && *input.LocationID != g.LocationID {
		loc, err := s.getLocation(ctx, *input.LocationID)
		if err != nil {
			return nil, err
		}
		if !policy.Can(actor, policy.ActionUpdate, loc) {
			return nil, policy.ErrPermissionDenied
		}
		g.LocationID = loc.ID
	}

	replaceAuthorized := input.AuthorizedUsers != nil
	if replaceAuthorized {
		authorized := normalizeAuthorized(g.OwnerID, input.AuthorizedUsers)
		if err := s.checkUsersExist(ctx, authorized); err != nil {
			return nil, err
		}
		g.AuthorizedUsers = authorized
	}
	g.UpdatedAt = s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE greenhouses SET name = $1, crop_type = $2, location_id = $3, updated_at = $4 WHERE id = $5
	`, g.Name, g.CropType, g.LocationID, g.UpdatedAt, g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update greenhouse: %w", err)
	}

	if replaceAuthorized {
		if _, err := tx.ExecContext(ctx, `DELETE FROM greenhouse_users WHERE greenhouse_id = $1`, g.ID); err != nil {
			return nil, fmt.Errorf("failed to clear authorized users: %w", err)
		}
		if err := insertAuthorized(ctx, tx, g.ID, g.AuthorizedUsers); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit greenhouse update: %w", err)
	}

	s.acls.Invalidate(g.ID)
	return g, nil
}

// DeleteGreenHouse removes a greenhouse along with its devices and
// environment records
func (s *Service) DeleteGreenHouse(ctx context.Context, actor *auth.Principal, id int64) error {
	g, err := s.getGreenHouse(ctx, id)
	if err != nil {
		return err
	}
	if !policy.Can(actor, policy.ActionDelete, g) {
		return policy.ErrPermissionDenied
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM greenhouses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete greenhouse: %w", err)
	}

	s.acls.Invalidate(id)
	return nil
}

// normalizeAuthorized dedupes the set and guarantees the owner is a member
func normalizeAuthorized(ownerID int64, ids []int64) []int64 {
	seen := map[int64]bool{ownerID: true}
	out := []int64{ownerID}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func insertAuthorized(ctx context.Context, tx *sql.Tx, greenhouseID int64, userIDs []int64) error {
	for _, userID := range userIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO greenhouse_users (greenhouse_id, user_id) VALUES ($1, $2)
		`, greenhouseID, userID)
		if err != nil {
			return fmt.Errorf("failed to add authorized user %d: %w", userID, err)
		}
	}
	return nil
}

// checkUsersExist verifies every id refers to an active user
func (s *Service) checkUsersExist(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		var exists bool
		err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND is_active = TRUE)
		`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check user %d: %w", id, err)
		}
		if !exists {
			return ErrUserNotFound
		}
	}
	return nil
}
