package greenhouse

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/canopy/pkg/auth"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// In-memory sqlite gives each connection its own database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			is_staff INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			is_superuser INTEGER NOT NULL DEFAULT 0,
			date_joined TIMESTAMP NOT NULL
		);

		CREATE TABLE api_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token_hash TEXT NOT NULL UNIQUE,
			token_prefix TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMP,
			last_used_at TIMESTAMP,
			revoked_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE locations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			owner_id INTEGER NOT NULL REFERENCES users(id),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);

		CREATE TABLE greenhouses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			crop_type TEXT NOT NULL,
			location_id INTEGER NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
			owner_id INTEGER NOT NULL REFERENCES users(id),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);

		CREATE TABLE greenhouse_users (
			greenhouse_id INTEGER NOT NULL REFERENCES greenhouses(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			PRIMARY KEY (greenhouse_id, user_id)
		);

		CREATE TABLE devices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			functionality TEXT NOT NULL,
			greenhouse_id INTEGER NOT NULL REFERENCES greenhouses(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);

		CREATE TABLE environments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			greenhouse_id INTEGER NOT NULL REFERENCES greenhouses(id) ON DELETE CASCADE,
			recorded_at TIMESTAMP NOT NULL,
			temperature TEXT NOT NULL,
			air_humidity TEXT NOT NULL,
			light_level TEXT NOT NULL,
			par TEXT NOT NULL,
			co2_level TEXT NOT NULL,
			soil_moisture_level TEXT NOT NULL,
			soil_salinity TEXT NOT NULL,
			soil_temperature TEXT NOT NULL,
			weight_of_soil_and_plants TEXT NOT NULL,
			stem_micro_variability TEXT NOT NULL
		);
	`)
	if err != nil {
		t.Fatalf("Failed to create test tables: %v", err)
	}

	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })
	return NewService(db)
}

func createTestUser(t *testing.T, svc *Service, email string) *auth.Principal {
	t.Helper()

	u, err := svc.RegisterUser(context.Background(), nil, RegisterUserInput{
		Email:    email,
		Password: "growhouse42",
	})
	require.NoError(t, err)
	return u
}

func createTestSuperuser(t *testing.T, svc *Service, email string) *auth.Principal {
	t.Helper()

	ctx := context.Background()
	u := createTestUser(t, svc, email)
	_, err := svc.db.ExecContext(ctx, `UPDATE users SET is_staff = 1, is_superuser = 1 WHERE id = $1`, u.ID)
	require.NoError(t, err)

	u, err = svc.GetUser(ctx, u, u.ID)
	require.NoError(t, err)
	return u
}

func createTestLocation(t *testing.T, svc *Service, owner *auth.Principal) *Location {
	t.Helper()

	l, err := svc.CreateLocation(context.Background(), owner, CreateLocationInput{
		Name:      "North Field",
		Latitude:  56.95,
		Longitude: 24.11,
	})
	require.NoError(t, err)
	return l
}

func createTestGreenHouse(t *testing.T, svc *Service, owner *auth.Principal, locationID int64) *GreenHouse {
	t.Helper()

	g, err := svc.CreateGreenHouse(context.Background(), owner, CreateGreenHouseInput{
		Name:       "Tomato House",
		CropType:   CropTomatoes,
		LocationID: locationID,
	})
	require.NoError(t, err)
	return g
}

func testEnvironmentInput(greenhouseID int64) CreateEnvironmentInput {
	recorded := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return CreateEnvironmentInput{
		GreenhouseID:          greenhouseID,
		RecordedAt:            &recorded,
		Temperature:           "21.50",
		AirHumidity:           "64.00",
		LightLevel:            "88.10",
		PAR:                   "412.00",
		CO2Level:              "650.25",
		SoilMoistureLevel:     "33.00",
		SoilSalinity:          "1.20",
		SoilTemperature:       "18.75",
		WeightOfSoilAndPlants: "150.00",
		StemMicroVariability:  "0.03",
	}
}
