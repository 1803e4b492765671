package greenhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/canopy/pkg/policy"
)

func TestCreateDevice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := createTestUser(t, svc, "grower@example.com")
	other := createTestUser(t, svc, "other@example.com")
	l := createTestLocation(t, svc, u)
	g := createTestGreenHouse(t, svc, u, l.ID)

	d, err := svc.CreateDevice(ctx, u, CreateDeviceInput{
		Name: "thermo-1", Functionality: FunctionalityPassive, GreenhouseID: g.ID,
	})
	require.NoError(t, err)
	// Ownership is derived from the parent greenhouse
	assert.Equal(t, u.ID, d.OwnerID)

	_, err = svc.CreateDevice(ctx, other, CreateDeviceInput{
		Name: "sneaky", Functionality: FunctionalityActive, GreenhouseID: g.ID,
	})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	_, err = svc.CreateDevice(ctx, u, CreateDeviceInput{
		Name: "orphan", Functionality: FunctionalityActive, GreenhouseID: 9999,
	})
	assert.ErrorIs(t, err, ErrGreenHouseNotFound)
}

func TestGetDevice_NoSharedView(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	owner := createTestUser(t, svc, "owner@example.com")
	member := createTestUser(t, svc, "member@example.com")
	l := createTestLocation(t, svc, owner)

	g, err := svc.CreateGreenHouse(ctx, owner, CreateGreenHouseInput{
		Name: "Shared House", CropType: CropTomatoes, LocationID: l.ID,
		AuthorizedUsers: []int64{member.ID},
	})
	require.NoError(t, err)

	d, err := svc.CreateDevice(ctx, owner, CreateDeviceInput{
		Name: "pump-1", Functionality: FunctionalityActive, GreenhouseID: g.ID,
	})
	require.NoError(t, err)

	// Authorized users may view the greenhouse but not its devices
	_, err = svc.GetDevice(ctx, member, d.ID)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	got, err := svc.GetDevice(ctx, owner, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "pump-1", got.Name)

	_, err = svc.GetDevice(ctx, owner, 9999)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestListDevices(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	admin := createTestSuperuser(t, svc, "admin@example.com")
	u := createTestUser(t, svc, "grower@example.com")
	other := createTestUser(t, svc, "other@example.com")

	lu := createTestLocation(t, svc, u)
	gu := createTestGreenHouse(t, svc, u, lu.ID)
	lo := createTestLocation(t, svc, other)
	go_ := createTestGreenHouse(t, svc, other, lo.ID)

	_, err := svc.CreateDevice(ctx, u, CreateDeviceInput{
		Name: "mine", Functionality: FunctionalityPassive, GreenhouseID: gu.ID,
	})
	require.NoError(t, err)
	_, err = svc.CreateDevice(ctx, other, CreateDeviceInput{
		Name: "theirs", Functionality: FunctionalityActive, GreenhouseID: go_.ID,
	})
	require.NoError(t, err)

	mine, err := svc.ListDevices(ctx, u)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0].Name)

	all, err := svc.ListDevices(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateDevice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := createTestUser(t, svc, "grower@example.com")
	l := createTestLocation(t, svc, u)
	g := createTestGreenHouse(t, svc, u, l.ID)

	d, err := svc.CreateDevice(ctx, u, CreateDeviceInput{
		Name: "thermo-1", Functionality: FunctionalityPassive, GreenhouseID: g.ID,
	})
	require.NoError(t, err)

	empty := ""
	fn := "active"
	got, err := svc.UpdateDevice(ctx, u, d.ID, UpdateDeviceInput{
		Name:          &empty,
		Functionality: &fn,
	})
	require.NoError(t, err)
	assert.Equal(t, "thermo-1", got.Name)
	assert.Equal(t, FunctionalityActive, got.Functionality)

	bad := "HYBRID"
	_, err = svc.UpdateDevice(ctx, u, d.ID, UpdateDeviceInput{Functionality: &bad})
	assert.ErrorIs(t, err, ErrInvalidFunctionality)
}

func TestUpdateDevice_RelinkGreenhouse(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := createTestUser(t, svc, "grower@example.com")
	other := createTestUser(t, svc, "other@example.com")
	lu := createTestLocation(t, svc, u)
	g1 := createTestGreenHouse(t, svc, u, lu.ID)
	g2 := createTestGreenHouse(t, svc, u, lu.ID)
	lo := createTestLocation(t, svc, other)
	theirs := createTestGreenHouse(t, svc, other, lo.ID)

	d, err := svc.CreateDevice(ctx, u, CreateDeviceInput{
		Name: "mobile-sensor", Functionality: FunctionalityPassive, GreenhouseID: g1.ID,
	})
	require.NoError(t, err)

	// Moving a device into someone else's greenhouse is denied
	_, err = svc.UpdateDevice(ctx, u, d.ID, UpdateDeviceInput{GreenhouseID: &theirs.ID})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	missing := int64(9999)
	_, err = svc.UpdateDevice(ctx, u, d.ID, UpdateDeviceInput{GreenhouseID: &missing})
	assert.ErrorIs(t, err, ErrGreenHouseNotFound)

	got, err := svc.UpdateDevice(ctx, u, d.ID, UpdateDeviceInput{GreenhouseID: &g2.ID})
	require.NoError(t, err)
	assert.Equal(t, g2.ID, got.GreenhouseID)
}

func TestDeleteDevice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := createTestUser(t, svc, "grower@example.com")
	other := createTestUser(t, svc, "other@example.com")
	l := createTestLocation(t, svc, u)
	g := createTestGreenHouse(t, svc, u, l.ID)

	d, err := svc.CreateDevice(ctx, u, CreateDeviceInput{
		Name: "pump-1", Functionality: FunctionalityActive, GreenhouseID: g.ID,
	})
	require.NoError(t, err)

	err = svc.DeleteDevice(ctx, other, d.ID)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	require.NoError(t, svc.DeleteDevice(ctx, u, d.ID))

	err = svc.DeleteDevice(ctx, u, d.ID)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}
