package greenhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/verdantlabs/canopy/pkg/auth"
	"github.com/verdantlabs/canopy/pkg/policy"
)

// CreateEnvironmentInput carries the raw measurement strings for a new
// environment record. Values are validated as fixed-precision decimals and
// stored exactly as given.
type CreateEnvironmentInput struct {
	GreenhouseID int64
	RecordedAt   *time.Time

	Temperature           string
	AirHumidity           string
	LightLevel            string
	PAR                   string
	CO2Level              string
	SoilMoistureLevel     string
	SoilSalinity          string
	SoilTemperature       string
	WeightOfSoilAndPlants string
	StemMicroVariability  string
}

const environmentColumns = `id, greenhouse_id, recorded_at, temperature, air_humidity,
	light_level, par, co2_level, soil_moisture_level, soil_salinity,
	soil_temperature, weight_of_soil_and_plants, stem_micro_variability`

func scanEnvironment(row interface{ Scan(...interface{}) error }) (*Environment, error) {
	var e Environment
	err := row.Scan(
		&e.ID, &e.GreenhouseID, &e.RecordedAt,
		&e.Temperature, &e.AirHumidity, &e.LightLevel, &e.PAR, &e.CO2Level,
		&e.SoilMoistureLevel, &e.SoilSalinity, &e.SoilTemperature,
		&e.WeightOfSoilAndPlants, &e.StemMicroVariability,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEnvironment records a telemetry snapshot for a greenhouse the actor
// owns. Records are immutable once written.
func (s *Service) CreateEnvironment(ctx context.Context, actor *auth.Principal, input CreateEnvironmentInput) (*Environment, error) {
	if actor == nil {
		return nil, policy.ErrPermissionDenied
	}

	acl, err := s.GreenhouseACL(ctx, input.GreenhouseID)
	if err != nil {
		return nil, err
	}
	if !policy.Can(actor, policy.ActionUpdate, acl) {
		return nil, policy.ErrPermissionDenied
	}

	e := &Environment{
		GreenhouseID: input.GreenhouseID,
		OwnerID:      acl.OwnerID,
		Authorized:   acl.Authorized,
	}
	if input.RecordedAt != nil {
		e.RecordedAt = input.RecordedAt.UTC()
	} else {
		e.RecordedAt = s.now()
	}

	// Sensor columns are NUMERIC(5,2); the scale weight is NUMERIC(8,2)
	fields := []struct {
		dst      *Decimal
		raw      string
		maxWhole int
	}{
		{&e.Temperature, input.Temperature, 3},
		{&e.AirHumidity, input.AirHumidity, 3},
		{&e.LightLevel, input.LightLevel, 3},
		{&e.PAR, input.PAR, 3},
		{&e.CO2Level, input.CO2Level, 3},
		{&e.SoilMoistureLevel, input.SoilMoistureLevel, 3},
		{&e.SoilSalinity, input.SoilSalinity, 3},
		{&e.SoilTemperature, input.SoilTemperature, 3},
		{&e.WeightOfSoilAndPlants, input.WeightOfSoilAndPlants, 6},
		{&e.StemMicroVariability, input.StemMicroVariability, 3},
	}
	for _, f := range fields {
		d, err := ParseDecimal(f.raw, f.maxWhole, 2)
		if err != nil {
			return nil, err
		}
		*f.dst = d
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO environments (greenhouse_id, recorded_at, temperature, air_humidity,
			light_level, par, co2_level, soil_moisture_level, soil_salinity,
			soil_temperature, weight_of_soil_and_plants, stem_micro_variability)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, e.GreenhouseID, e.RecordedAt, e.Temperature, e.AirHumidity, e.LightLevel,
		e.PAR, e.CO2Level, e.SoilMoistureLevel, e.SoilSalinity, e.SoilTemperature,
		e.WeightOfSoilAndPlants, e.StemMicroVariability).Scan(&e.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create environment record: %w", err)
	}

	return e, nil
}

func (s *Service) getEnvironment(ctx context.Context, id int64) (*Environment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+environmentColumns+` FROM environments WHERE id = $1`, id)
	e, err := scanEnvironment(row)
	if err == sql.ErrNoRows {
		return nil, ErrEnvironmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load environment record: %w", err)
	}

	acl, err := s.GreenhouseACL(ctx, e.GreenhouseID)
	if err != nil {
		return nil, err
	}
	e.OwnerID = acl.OwnerID
	e.Authorized = acl.Authorized
	return e, nil
}

// GetEnvironment returns a record visible to the actor: the greenhouse
// owner, a superuser, or a member of the greenhouse's authorized set
func (s *Service) GetEnvironment(ctx context.Context, actor *auth.Principal, id int64) (*Environment, error) {
	e, err := s.getEnvironment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Can(actor, policy.ActionView, e) {
		return nil, policy.ErrPermissionDenied
	}
	return e, nil
}

// ListEnvironments returns every record for superusers, otherwise those of
// greenhouses the actor owns or is authorized on
func (s *Service) ListEnvironments(ctx context.Context, actor *auth.Principal) ([]*Environment, error) {
	if actor == nil {
		return nil, policy.ErrPermissionDenied
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+environmentColumns+` FROM environments
		WHERE $1
		   OR EXISTS (
			SELECT 1 FROM greenhouses g
			WHERE g.id = environments.greenhouse_id AND g.owner_id = $2
		   )
		   OR EXISTS (
			SELECT 1 FROM greenhouse_users gu
			WHERE gu.greenhouse_id = environments.greenhouse_id AND gu.user_id = $3
		   )
		ORDER BY id
	`, actor.IsSuperuser, actor.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list environment records: %w", err)
	}
	defer rows.Close()

	records := make([]*Environment, 0)
	for rows.Next() {
		e, err := scanEnvironment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan environment record: %w", err)
		}
		records = append(records, e)
	}
	return records, rows.Err()
}

// DeleteEnvironment removes a record. Only the greenhouse owner or a
// superuser may delete; authorized users have read access only.
func (s *Service) DeleteEnvironment(ctx context.Context, actor *auth.Principal, id int64) error {
	e, err := s.getEnvironment(ctx, id)
	if err != nil {
		return err
	}
	if !policy.Can(actor, policy.ActionDelete, e) {
		return policy.ErrPermissionDenied
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM environments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete environment record: %w", err)
	}
	return nil
}
