package greenhouse

import (
	"fmt"
	"strings"
	"time"
)

// CropType is the crop grown in a greenhouse, stored as a two-letter code
type CropType string

const (
	CropTomatoes CropType = "TT"
	CropPotatoes CropType = "PT"
)

// Name returns the symbolic name exposed at the API boundary
func (c CropType) Name() string {
	switch c {
	case CropTomatoes:
		return "TOMATOES"
	case CropPotatoes:
		return "POTATOES"
	}
	return string(c)
}

// ParseCropType accepts either the storage code ("TT") or the symbolic name
// ("TOMATOES"), case-insensitive. Anything else is a validation failure.
func ParseCropType(s string) (CropType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TT", "TOMATOES":
		return CropTomatoes, nil
	case "PT", "POTATOES":
		return CropPotatoes, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidCropType)
}

// Functionality classifies a device as passive or active
type Functionality string

const (
	FunctionalityPassive Functionality = "PA"
	FunctionalityActive  Functionality = "AC"
)

// Name returns the symbolic name exposed at the API boundary
func (f Functionality) Name() string {
	switch f {
	case FunctionalityPassive:
		return "PASSIVE"
	case FunctionalityActive:
		return "ACTIVE"
	}
	return string(f)
}

// ParseFunctionality accepts the storage code ("PA") or the symbolic name
// ("PASSIVE"), case-insensitive
func ParseFunctionality(s string) (Functionality, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PA", "PASSIVE":
		return FunctionalityPassive, nil
	case "AC", "ACTIVE":
		return FunctionalityActive, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidFunctionality)
}

// Location is a named geocoordinate pair with an exclusive owner
type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Kind implements policy.Owned
func (l *Location) Kind() string { return "location" }

// ResourceOwnerID implements policy.Owned
func (l *Location) ResourceOwnerID() int64 { return l.OwnerID }

// Coordinates renders the pair as a single "lat, lon" string
func (l *Location) Coordinates() string {
	return fmt.Sprintf("%v, %v", l.Latitude, l.Longitude)
}

// GreenHouse is an owned growing site. The owner is always a member of the
// authorized set; authorized users get read access to the greenhouse and its
// environment records but no write rights.
type GreenHouse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	CropType        CropType  `json:"crop_type"`
	LocationID      int64     `json:"location_id"`
	OwnerID         int64     `json:"owner_id"`
	AuthorizedUsers []int64   `json:"authorized_users"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Kind implements policy.Owned
func (g *GreenHouse) Kind() string { return "greenhouse" }

// ResourceOwnerID implements policy.Owned
func (g *GreenHouse) ResourceOwnerID() int64 { return g.OwnerID }

// AuthorizedUserIDs implements policy.Shared
func (g *GreenHouse) AuthorizedUserIDs() []int64 { return g.AuthorizedUsers }

// Device belongs to exactly one greenhouse. It has no owner column of its
// own; OwnerID is resolved from the parent greenhouse when the row is read
// and is never independently settable.
type Device struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Functionality Functionality `json:"functionality"`
	GreenhouseID  int64         `json:"greenhouse_id"`
	OwnerID       int64         `json:"-"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Kind implements policy.Owned
func (d *Device) Kind() string { return "device" }

// ResourceOwnerID implements policy.Owned. Devices carry no authorized-user
// read exception: only the greenhouse owner (or a superuser) may see them.
func (d *Device) ResourceOwnerID() int64 { return d.OwnerID }

// Environment is an immutable telemetry snapshot for a greenhouse. Ownership
// and the authorized read set are derived from the parent greenhouse when the
// row is read.
type Environment struct {
	ID           int64     `json:"id"`
	GreenhouseID int64     `json:"greenhouse_id"`
	RecordedAt   time.Time `json:"recorded_at"`

	Temperature           Decimal `json:"temperature"`
	AirHumidity           Decimal `json:"air_humidity"`
	LightLevel            Decimal `json:"light_level"`
	PAR                   Decimal `json:"par"`
	CO2Level              Decimal `json:"co2_level"`
	SoilMoistureLevel     Decimal `json:"soil_moisture_level"`
	SoilSalinity          Decimal `json:"soil_salinity"`
	SoilTemperature       Decimal `json:"soil_temperature"`
	WeightOfSoilAndPlants Decimal `json:"weight_of_soil_and_plants"`
	StemMicroVariability  Decimal `json:"stem_micro_variability"`

	OwnerID    int64   `json:"-"`
	Authorized []int64 `json:"-"`
}

// Kind implements policy.Owned
func (e *Environment) Kind() string { return "environment" }

// ResourceOwnerID implements policy.Owned
func (e *Environment) ResourceOwnerID() int64 { return e.OwnerID }

// AuthorizedUserIDs implements policy.Shared: environment records inherit
// the parent greenhouse's read set
func (e *Environment) AuthorizedUserIDs() []int64 { return e.Authorized }
