package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

func testBackend(t *testing.T) *PostgresBackend {
	t.Helper()
	dsn := os.Getenv("CS_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("Skipping postgres test")
	}
	db, err := NewPostgresBackend(context.Background(), dsn, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDeviceCRUD(t *testing.T) {
	db := testBackend(t)
	ctx := context.Background()

	created, err := db.CreateDevice(ctx, types.DeviceCreateDto{Hostname: "srv-01", IPAddress: "10.0.0.5", OS: "Linux"})
	require.NoError(t, err)
	assert.True(t, created.Active)

	hostname := "srv-02"
	updated, err := db.UpdateDevice(ctx, created.ID, types.DeviceUpdateDto{Hostname: &hostname})
	require.NoError(t, err)
	assert.Equal(t, "srv-02", updated.Hostname)
	assert.Equal(t, "Linux", updated.OS)

	require.NoError(t, db.DeleteDevice(ctx, created.ID))
	_, err = db.GetDevice(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, db.DeleteDevice(ctx, created.ID), storage.ErrNotFound)
}

func TestEndpointsAndIncidents(t *testing.T) {
	db := testBackend(t)
	ctx := context.Background()

	endpoint, err := db.CreateEndpoint(ctx, types.EndpointCreateDto{Name: "laptop-ana", EndpointType: types.EndpointLaptop})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.DeleteEndpoint(ctx, endpoint.ID) })
	assert.Equal(t, types.StatusProtected, endpoint.ProtectionStatus)

	var streamed int
	for item := range db.StreamEndpoints(ctx) {
		require.NoError(t, item.Err)
		streamed++
	}
	assert.GreaterOrEqual(t, streamed, 1)

	err = db.InsertIncidents(ctx, []types.RansomwareIncident{{
		ID:            uuid.New(),
		EndpointID:    endpoint.ID,
		FilesTargeted: 3,
		Status:        "DETECTED",
	}})
	require.NoError(t, err)

	n, err := db.CountIncidents(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}
