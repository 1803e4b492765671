package api

import (
	"time"

	"github.com/verdantlabs/canopy/pkg/auth"
	"github.com/verdantlabs/canopy/pkg/greenhouse"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ForStaff  bool   `json:"for_staff"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string        `json:"token"`
	User  *userResponse `json:"user"`
}

type changePasswordRequest struct {
	OldPassword    string `json:"old_password"`
	NewPassword    string `json:"new_password"`
	RepeatPassword string `json:"repeat_new_password"`
}

type updateUserRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`

	IsActive    *bool `json:"is_active"`
	IsStaff     *bool `json:"is_staff"`
	IsSuperuser *bool `json:"is_superuser"`
}

type userResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	IsStaff     bool      `json:"is_staff"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	DateJoined  time.Time `json:"date_joined"`
}

func renderUser(p *auth.Principal) *userResponse {
	return &userResponse{
		ID:          p.ID,
		Email:       p.Email,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		IsStaff:     p.IsStaff,
		IsActive:    p.IsActive,
		IsSuperuser: p.IsSuperuser,
		DateJoined:  p.DateJoined,
	}
}

func renderUsers(ps []*auth.Principal) []*userResponse {
	out := make([]*userResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, renderUser(p))
	}
	return out
}

type createLocationRequest struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

type updateLocationRequest struct {
	Name      *string  `json:"name"`
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
}

type locationResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lon"`
	Coordinates string    `json:"coordinates"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func renderLocation(l *greenhouse.Location) *locationResponse {
	return &locationResponse{
		ID:          l.ID,
		Name:        l.Name,
		Latitude:    l.Latitude,
		Longitude:   l.Longitude,
		Coordinates: l.Coordinates(),
		OwnerID:     l.OwnerID,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func renderLocations(ls []*greenhouse.Location) []*locationResponse {
	out := make([]*locationResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, renderLocation(l))
	}
	return out
}

type createGreenHouseRequest struct {
	Name            string  `json:"name"`
	CropType        string  `json:"crop_type"`
	LocationID      int64   `json:"location_id"`
	AuthorizedUsers []int64 `json:"authorized_users"`
}

type updateGreenHouseRequest struct {
	Name            *string `json:"name"`
	CropType        *string `json:"crop_type"`
	LocationID      *int64  `json:"location_id"`
	AuthorizedUsers []int64 `json:"authorized_users"`
}

// greenhouseResponse exposes the enum as its symbolic name alongside the
// storage code
type greenhouseResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	CropType        string    `json:"crop_type"`
	CropTypeName    string    `json:"crop_type_name"`
	LocationID      int64     `json:"location_id"`
	OwnerID         int64     `json:"owner_id"`
	AuthorizedUsers []int64   `json:"authorized_users"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func renderGreenHouse(g *greenhouse.GreenHouse) *greenhouseResponse {
	return &greenhouseResponse{
		ID:              g.ID,
		Name:            g.Name,
		CropType:        string(g.CropType),
		CropTypeName:    g.CropType.Name(),
		LocationID:      g.LocationID,
		OwnerID:         g.OwnerID,
		AuthorizedUsers: g.AuthorizedUsers,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}

func renderGreenHouses(gs []*greenhouse.GreenHouse) []*greenhouseResponse {
	out := make([]*greenhouseResponse, 0, len(gs))
	for _, g := range gs {
		out = append(out, renderGreenHouse(g))
	}
	return out
}

type createDeviceRequest struct {
	Name          string `json:"name"`
	Functionality string `json:"functionality"`
	GreenhouseID  int64  `json:"greenhouse_id"`
}

type updateDeviceRequest struct {
	Name          *string `json:"name"`
	Functionality *string `json:"functionality"`
	GreenhouseID  *int64  `json:"greenhouse_id"`
}

type deviceResponse struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Functionality     string    `json:"functionality"`
	FunctionalityName string    `json:"functionality_name"`
	GreenhouseID      int64     `json:"greenhouse_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func renderDevice(d *greenhouse.Device) *deviceResponse {
	return &deviceResponse{
		ID:                d.ID,
		Name:              d.Name,
		Functionality:     string(d.Functionality),
		FunctionalityName: d.Functionality.Name(),
		GreenhouseID:      d.GreenhouseID,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func renderDevices(ds []*greenhouse.Device) []*deviceResponse {
	out := make([]*deviceResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, renderDevice(d))
	}
	return out
}

type createEnvironmentRequest struct {
	GreenhouseID int64      `json:"greenhouse_id"`
	RecordedAt   *time.Time `json:"recorded_at"`

	Temperature           string `json:"temperature"`
	AirHumidity           string `json:"air_humidity"`
	LightLevel            string `json:"light_level"`
	PAR                   string `json:"par"`
	CO2Level              string `json:"co2_level"`
	SoilMoistureLevel     string `json:"soil_moisture_level"`
	SoilSalinity          string `json:"soil_salinity"`
	SoilTemperature       string `json:"soil_temperature"`
	WeightOfSoilAndPlants string `json:"weight_of_soil_and_plants"`
	StemMicroVariability  string `json:"stem_micro_variability"`
}
