package greenhouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/verdantlabs/canopy/pkg/auth"
	"github.com/verdantlabs/canopy/pkg/policy"
)

// CreateDeviceInput carries the fields for a new device
type CreateDeviceInput struct {
	Name          string
	Functionality Functionality
	GreenhouseID  int64
}

// UpdateDeviceInput carries partial-update fields for a device. Nil or
// empty string fields are no-ops. Relinking to another greenhouse requires
// the actor to own that greenhouse.
type UpdateDeviceInput struct {
	Name          *string
	Functionality *string
	GreenhouseID  *int64
}

// deviceColumns joins the parent greenhouse so the effective owner comes
// back with the row
const deviceColumns = `d.id, d.name, d.functionality, d.greenhouse_id, g.owner_id, d.created_at, d.updated_at`

func scanDevice(row interface{ Scan(...interface{}) error }) (*Device, error) {
	var d Device
	err := row.Scan(&d.ID, &d.Name, &d.Functionality, &d.GreenhouseID, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDevice creates a device in a greenhouse the actor owns
func (s *Service) CreateDevice(ctx context.Context, actor *auth.Principal, input CreateDeviceInput) (*Device, error) {
	if actor == nil {
		return nil, policy.ErrPermissionDenied
	}
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	acl, err := s.GreenhouseACL(ctx, input.GreenhouseID)
	if err != nil {
		return nil, err
	}
	if !policy.Can(actor, policy.ActionUpdate, acl) {
		return nil, policy.ErrPermissionDenied
	}

	now := s.now()
	d := &Device{
		Name:          input.Name,
		Functionality: input.Functionality,
		GreenhouseID:  input.GreenhouseID,
		OwnerID:       acl.OwnerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO devices (name, functionality, greenhouse_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, d.Name, d.Functionality, d.GreenhouseID, d.CreatedAt, d.UpdatedAt).Scan(&d.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	return d, nil
}

func (s *Service) getDevice(ctx context.Context, id int64) (*Device, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+deviceColumns+` FROM devices d
		JOIN greenhouses g ON g.id = d.greenhouse_id
		WHERE d.id = $1
	`, id)
	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	return d, nil
}

// GetDevice returns a device visible to the actor. Devices carry no shared
// read exception: owner or superuser only.
func (s *Service) GetDevice(ctx context.Context, actor *auth.Principal, id int64) (*Device, error) {
	d, err := s.getDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Can(actor, policy.ActionView, d) {
		return nil, policy.ErrPermissionDenied
	}
	return d, nil
}

// ListDevices returns every device for superusers, otherwise those in
// greenhouses the actor owns
func (s *Service) ListDevices(ctx context.Context, actor *auth.Principal) ([]*Device, error) {
	if actor == nil {
		return nil, policy.ErrPermissionDenied
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+deviceColumns+` FROM devices d
		JOIN greenhouses g ON g.id = d.greenhouse_id
		WHERE g.owner_id = $1 OR $2
		ORDER BY d.id
	`, actor.ID, actor.IsSuperuser)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	devices := make([]*Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// UpdateDevice applies a partial update
func (s *Service) UpdateDevice(ctx context.Context, actor *auth.Principal, id int64, input UpdateDeviceInput) (*Device, error) {
	d, err := s.getDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Can(actor, policy.ActionUpdate, d) {
		return nil, policy.ErrPermissionDenied
	}

	if !isEmpty(input.Name) {
		d.Name = *input.Name
	}
	if !isEmpty(input.Functionality) {
		f, err := ParseFunctionality(*input.Functionality)
		if err != nil {
			return nil, err
		}
		d.Functionality = f
	}
	if input.GreenhouseID != nil && *input.GreenhouseID != d.GreenhouseID {
		acl, err := s.GreenhouseACL(ctx, *input.GreenhouseID)
		if err != nil {
			return nil, err
		}
		if !policy.Can(actor, policy.ActionUpdate, acl) {
			return nil, policy.ErrPermissionDenied
		}
		d.GreenhouseID = acl.GreenhouseID
		d.OwnerID = acl.OwnerID
	}
	d.UpdatedAt = s.now()

	_, err = s.db.ExecContext(ctx, `
		UPDATE devices SET name = $1, functionality = $2, greenhouse_id = $3, updated_at = $4 WHERE id = $5
	`, d.Name, d.Functionality, d.GreenhouseID, d.UpdatedAt, d.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}

	return d, nil
}

// DeleteDevice removes a device
func (s *Service) DeleteDevice(ctx context.Context, actor *auth.Principal, id int64) error {
	d, err := s.getDevice(ctx, id)
	if err != nil {
		return err
	}
	if !policy.Can(actor, policy.ActionDelete, d) {
		return policy.ErrPermissionDenied
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return nil
}
