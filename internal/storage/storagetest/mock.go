// Package storagetest provides a testify mock of storage.DatabaseStorage.
package storagetest

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/mock"

	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

var _ storage.DatabaseStorage = (*MockDatabaseStorage)(nil)

type MockDatabaseStorage struct {
	mock.Mock
}

func (m *MockDatabaseStorage) Close() error {
	return nil
}

func (m *MockDatabaseStorage) Pool() *pgxpool.Pool {
	return nil
}

func (m *MockDatabaseStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDatabaseStorage) ListDevices(ctx context.Context) ([]types.Device, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Device), args.Error(1)
}

func (m *MockDatabaseStorage) GetDevice(ctx context.Context, id int64) (*types.Device, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Device), args.Error(1)
}

func (m *MockDatabaseStorage) CreateDevice(ctx context.Context, dto types.DeviceCreateDto) (*types.Device, error) {
	args := m.Called(ctx, dto)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Device), args.Error(1)
}

func (m *MockDatabaseStorage) UpdateDevice(ctx context.Context, id int64, dto types.DeviceUpdateDto) (*types.Device, error) {
	args := m.Called(ctx, id, dto)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Device), args.Error(1)
}

func (m *MockDatabaseStorage) DeleteDevice(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDatabaseStorage) CountDevices(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockDatabaseStorage) ListEndpoints(ctx context.Context, skip, take int) (types.EndpointsPaginatedList, error) {
	args := m.Called(ctx, skip, take)
	return args.Get(0).(types.EndpointsPaginatedList), args.Error(1)
}

// StreamEndpoints replays the endpoints and error configured with On.
func (m *MockDatabaseStorage) StreamEndpoints(ctx context.Context) <-chan storage.RowsStream[types.Endpoint] {
	args := m.Called(ctx)
	endpoints, _ := args.Get(0).([]types.Endpoint)
	streamErr := args.Error(1)

	ch := make(chan storage.RowsStream[types.Endpoint], len(endpoints)+1)
	for _, e := range endpoints {
		ch <- storage.RowsStream[types.Endpoint]{Row: e}
	}
	if streamErr != nil {
		ch <- storage.RowsStream[types.Endpoint]{Err: streamErr}
	}
	close(ch)
	return ch
}

func (m *MockDatabaseStorage) GetEndpoint(ctx context.Context, id uuid.UUID) (*types.Endpoint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Endpoint), args.Error(1)
}

func (m *MockDatabaseStorage) CreateEndpoint(ctx context.Context, dto types.EndpointCreateDto) (*types.Endpoint, error) {
	args := m.Called(ctx, dto)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Endpoint), args.Error(1)
}

func (m *MockDatabaseStorage) UpdateEndpoint(ctx context.Context, id uuid.UUID, dto types.EndpointCreateDto) (*types.Endpoint, error) {
	args := m.Called(ctx, id, dto)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Endpoint), args.Error(1)
}

func (m *MockDatabaseStorage) DeleteEndpoint(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDatabaseStorage) ListThreats(ctx context.Context, skip, take int) ([]types.Threat, error) {
	args := m.Called(ctx, skip, take)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Threat), args.Error(1)
}

func (m *MockDatabaseStorage) CreateThreat(ctx context.Context, dto types.ThreatCreateDto) (*types.Threat, error) {
	args := m.Called(ctx, dto)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Threat), args.Error(1)
}

func (m *MockDatabaseStorage) CountThreatsBySeverity(ctx context.Context) (map[types.Severity]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[types.Severity]int), args.Error(1)
}

func (m *MockDatabaseStorage) ListIncidents(ctx context.Context, skip, take int) ([]types.RansomwareIncident, error) {
	args := m.Called(ctx, skip, take)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RansomwareIncident), args.Error(1)
}

func (m *MockDatabaseStorage) InsertIncidents(ctx context.Context, incidents []types.RansomwareIncident) error {
	args := m.Called(ctx, incidents)
	return args.Error(0)
}

func (m *MockDatabaseStorage) CountIncidents(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockDatabaseStorage) ListPolicies(ctx context.Context) ([]types.SecurityPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.SecurityPolicy), args.Error(1)
}

func (m *MockDatabaseStorage) UpsertPolicies(ctx context.Context, policies []types.SecurityPolicy) error {
	args := m.Called(ctx, policies)
	return args.Error(0)
}
