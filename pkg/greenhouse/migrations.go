package greenhouse

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the full schema as ordered migrations (postgres
// dialect)
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					email VARCHAR(255) NOT NULL UNIQUE,
					password_hash VARCHAR(255) NOT NULL,
					first_name VARCHAR(150) NOT NULL DEFAULT '',
					last_name VARCHAR(150) NOT NULL DEFAULT '',
					is_staff BOOLEAN NOT NULL DEFAULT FALSE,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
					date_joined TIMESTAMP NOT NULL
				);

				CREATE INDEX idx_users_email ON users(email);
				CREATE INDEX idx_users_is_active ON users(is_active);
			`,
		},
		{
			Version:     2,
			Description: "Create api_tokens table",
			SQL: `
				CREATE TABLE IF NOT EXISTS api_tokens (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					token_hash VARCHAR(64) NOT NULL UNIQUE,
					token_prefix VARCHAR(16) NOT NULL,
					name VARCHAR(255) NOT NULL DEFAULT '',
					expires_at TIMESTAMP,
					last_used_at TIMESTAMP,
					revoked_at TIMESTAMP,
					created_at TIMESTAMP NOT NULL
				);

				CREATE INDEX idx_api_tokens_user_id ON api_tokens(user_id);
				CREATE INDEX idx_api_tokens_token_hash ON api_tokens(token_hash);
				CREATE INDEX idx_api_tokens_expires_at ON api_tokens(expires_at);
			`,
		},
		{
			Version:     3,
			Description: "Create locations table",
			SQL: `
				CREATE TABLE IF NOT EXISTS locations (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					latitude DOUBLE PRECISION NOT NULL,
					longitude DOUBLE PRECISION NOT NULL,
					owner_id BIGINT NOT NULL REFERENCES users(id),
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				CREATE INDEX idx_locations_owner_id ON locations(owner_id);
			`,
		},
		{
			Version:     4,
			Description: "Create greenhouses and greenhouse_users tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS greenhouses (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					crop_type VARCHAR(2) NOT NULL,
					location_id BIGINT NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
					owner_id BIGINT NOT NULL REFERENCES users(id),
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				CREATE INDEX idx_greenhouses_location_id ON greenhouses(location_id);
				CREATE INDEX idx_greenhouses_owner_id ON greenhouses(owner_id);

				CREATE TABLE IF NOT EXISTS greenhouse_users (
					greenhouse_id BIGINT NOT NULL REFERENCES greenhouses(id) ON DELETE CASCADE,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					PRIMARY KEY (greenhouse_id, user_id)
				);

				CREATE INDEX idx_greenhouse_users_user_id ON greenhouse_users(user_id);
			`,
		},
		{
			Version:     5,
			Description: "Create devices table",
			SQL: `
				CREATE TABLE IF NOT EXISTS devices (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					functionality VARCHAR(2) NOT NULL,
					greenhouse_id BIGINT NOT NULL REFERENCES greenhouses(id) ON DELETE CASCADE,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				CREATE INDEX idx_devices_greenhouse_id ON devices(greenhouse_id);
			`,
		},
		{
			Version:     6,
			Description: "Create environments table",
			SQL: `
				CREATE TABLE IF NOT EXISTS environments (
					id BIGSERIAL PRIMARY KEY,
					greenhouse_id BIGINT NOT NULL REFERENCES greenhouses(id) ON DELETE CASCADE,
					recorded_at TIMESTAMP NOT NULL,
					temperature NUMERIC(5,2) NOT NULL,
					air_humidity NUMERIC(5,2) NOT NULL,
					light_level NUMERIC(5,2) NOT NULL,
					par NUMERIC(5,2) NOT NULL,
					co2_level NUMERIC(5,2) NOT NULL,
					soil_moisture_level NUMERIC(5,2) NOT NULL,
					soil_salinity NUMERIC(5,2) NOT NULL,
					soil_temperature NUMERIC(5,2) NOT NULL,
					weight_of_soil_and_plants NUMERIC(8,2) NOT NULL,
					stem_micro_variability NUMERIC(5,2) NOT NULL
				);

				CREATE INDEX idx_environments_greenhouse_id ON environments(greenhouse_id);
				CREATE INDEX idx_environments_recorded_at ON environments(recorded_at);
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
