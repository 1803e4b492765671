package greenhouse

import "errors"

// Not-found conditions are reported distinctly per entity and are never
// folded into permission failures: a caller probing a missing ID learns the
// row does not exist, not that they lack rights to it.
var (
	ErrUserNotFound        = errors.New("User with this identifier does not exist")
	ErrLocationNotFound    = errors.New("Location with this identifier does not exist")
	ErrGreenHouseNotFound  = errors.New("Greenhouse with this identifier does not exist")
	ErrDeviceNotFound      = errors.New("Device with this identifier does not exist")
	ErrEnvironmentNotFound = errors.New("Environment with this identifier does not exist")
)

// Validation failures
var (
	ErrUserInactive         = errors.New("User is inactive")
	ErrEmailTaken           = errors.New("A user with this email address already exists")
	ErrInvalidCredentials   = errors.New("Invalid email or password")
	ErrInvalidCropType      = errors.New("invalid crop type")
	ErrInvalidFunctionality = errors.New("invalid device functionality")
	ErrInvalidDecimal       = errors.New("invalid decimal value")
)
