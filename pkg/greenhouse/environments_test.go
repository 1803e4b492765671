package greenhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/canopy/pkg/policy"
)

func TestCreateEnvironment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := createTestUser(t, svc, "grower@example.com")
	other := createTestUser(t, svc, "other@example.com")
	l := createTestLocation(t, svc, u)
	g := createTestGreenHouse(t, svc, u, l.ID)

	e, err := svc.CreateEnvironment(ctx, u, testEnvironmentInput(g.ID))
	require.NoError(t, err)
	assert.Equal(t, g.ID, e.GreenhouseID)
	assert.Equal(t, u.ID, e.OwnerID)

	_, err = svc.CreateEnvironment(ctx, other, testEnvironmentInput(g.ID))
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	_, err = svc.CreateEnvironment(ctx, u, testEnvironmentInput(9999))
	assert.ErrorIs(t, err, ErrGreenHouseNotFound)
}

func TestCreateEnvironment_DefaultsRecordedAt(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := createTestUser(t, svc, "grower@example.com")
	l := createTestLocation(t, svc, u)
	g := createTestGreenHouse(t, svc, u, l.ID)

	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	input := testEnvironmentInput(g.ID)
	input.RecordedAt = nil
	e, err := svc.CreateEnvironment(ctx, u, input)
	require.NoError(t, err)
	assert.Equal(t, fixed, e.RecordedAt)
}

func TestCreateEnvironment_InvalidDecimal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := createTestUser(t, svc, "grower@example.com")
	l := createTestLocation(t, svc, u)
	g := createTestGreenHouse(t, svc, u, l.ID)

	for _, bad := range []string{"", "abc", "21.5.0", "21.505", "1234.00"} {
		input := testEnvironmentInput(g.ID)
		input.Temperature = bad
		_, err := svc.CreateEnvironment(ctx, u, input)
		assert.ErrorIs(t, err, ErrInvalidDecimal, "value %q", bad)
	}

	// The scale weight alone gets the wider column
	input := testEnvironmentInput(g.ID)
	input.WeightOfSoilAndPlants = "123456.78"
	_, err := svc.CreateEnvironment(ctx, u, input)
	require.NoError(t, err)

	input = testEnvironmentInput(g.ID)
	input.WeightOfSoilAndPlants = "1234567.00"
	_, err = svc.CreateEnvironment(ctx, u, input)
	assert.ErrorIs(t, err, ErrInvalidDecimal)
}

func TestGetEnvironment_DecimalRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := createTestUser(t, svc, "grower@example.com")
	l := createTestLocation(t, svc, u)
	g := createTestGreenHouse(t, svc, u, l.ID)

	e, err := svc.CreateEnvironment(ctx, u, testEnvironmentInput(g.ID))
	require.NoError(t, err)

	got, err := svc.GetEnvironment(ctx, u, e.ID)
	require.NoError(t, err)
	// Trailing zeros survive storage exactly as written
	assert.Equal(t, "150.00", got.WeightOfSoilAndPlants.String())
	assert.Equal(t, "21.50", got.Temperature.String())
	assert.Equal(t, "0.03", got.StemMicroVariability.String())
}

func TestGetEnvironment_SharedView(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	owner := createTestUser(t, svc, "owner@example.com")
	member := createTestUser(t, svc, "member@example.com")
	stranger := createTestUser(t, svc, "stranger@example.com")
	l := createTestLocation(t, svc, owner)

	g, err := svc.CreateGreenHouse(ctx, owner, CreateGreenHouseInput{
		Name: "Shared House", CropType: CropTomatoes, LocationID: l.ID,
		AuthorizedUsers: []int64{member.ID},
	})
	require.NoError(t, err)

	e, err := svc.CreateEnvironment(ctx, owner, testEnvironmentInput(g.ID))
	require.NoError(t, err)

	// Environment records inherit the greenhouse's read set
	_, err = svc.GetEnvironment(ctx, member, e.ID)
	require.NoError(t, err)

	_, err = svc.GetEnvironment(ctx, stranger, e.ID)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	// Read access does not extend to deletion
	err = svc.DeleteEnvironment(ctx, member, e.ID)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	_, err = svc.GetEnvironment(ctx, owner, 9999)
	assert.ErrorIs(t, err, ErrEnvironmentNotFound)
}

func TestListEnvironments(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	admin := createTestSuperuser(t, svc, "admin@example.com")
	owner := createTestUser(t, svc, "owner@example.com")
	member := createTestUser(t, svc, "member@example.com")
	stranger := createTestUser(t, svc, "stranger@example.com")
	l := createTestLocation(t, svc, owner)

	shared, err := svc.CreateGreenHouse(ctx, owner, CreateGreenHouseInput{
		Name: "Shared House", CropType: CropTomatoes, LocationID: l.ID,
		AuthorizedUsers: []int64{member.ID},
	})
	require.NoError(t, err)
	private := createTestGreenHouse(t, svc, owner, l.ID)

	_, err = svc.CreateEnvironment(ctx, owner, testEnvironmentInput(shared.ID))
	require.NoError(t, err)
	_, err = svc.CreateEnvironment(ctx, owner, testEnvironmentInput(private.ID))
	require.NoError(t, err)

	all, err := svc.ListEnvironments(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	visible, err := svc.ListEnvironments(ctx, member)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, shared.ID, visible[0].GreenhouseID)

	none, err := svc.ListEnvironments(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, none)

	everything, err := svc.ListEnvironments(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, everything, 2)
}

func TestDeleteEnvironment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := createTestUser(t, svc, "grower@example.com")
	l := createTestLocation(t, svc, u)
	g := createTestGreenHouse(t, svc, u, l.ID)

	e, err := svc.CreateEnvironment(ctx, u, testEnvironmentInput(g.ID))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEnvironment(ctx, u, e.ID))

	err = svc.DeleteEnvironment(ctx, u, e.ID)
	assert.ErrorIs(t, err, ErrEnvironmentNotFound)
}
