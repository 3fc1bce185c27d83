package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iquiquesec/ciberseguridad/internal/types"
)

// ErrNotFound is returned when a record looked up by id does not exist.
var ErrNotFound = errors.New("record not found")

type DatabaseStorage interface {
	Close() error

	ListDevices(ctx context.Context) ([]types.Device, error)
	GetDevice(ctx context.Context, id int64) (*types.Device, error)
	CreateDevice(ctx context.Context, dto types.DeviceCreateDto) (*types.Device, error)
	UpdateDevice(ctx context.Context, id int64, dto types.DeviceUpdateDto) (*types.Device, error)
	DeleteDevice(ctx context.Context, id int64) error
	CountDevices(ctx context.Context) (int, error)

	ListEndpoints(ctx context.Context, skip, take int) (types.EndpointsPaginatedList, error)
	StreamEndpoints(ctx context.Context) <-chan RowsStream[types.Endpoint]
	GetEndpoint(ctx context.Context, id uuid.UUID) (*types.Endpoint, error)
	CreateEndpoint(ctx context.Context, dto types.EndpointCreateDto) (*types.Endpoint, error)
	UpdateEndpoint(ctx context.Context, id uuid.UUID, dto types.EndpointCreateDto) (*types.Endpoint, error)
	DeleteEndpoint(ctx context.Context, id uuid.UUID) error

	ListThreats(ctx context.Context, skip, take int) ([]types.Threat, error)
	CreateThreat(ctx context.Context, dto types.ThreatCreateDto) (*types.Threat, error)
	CountThreatsBySeverity(ctx context.Context) (map[types.Severity]int, error)

	ListIncidents(ctx context.Context, skip, take int) ([]types.RansomwareIncident, error)
	InsertIncidents(ctx context.Context, incidents []types.RansomwareIncident) error
	CountIncidents(ctx context.Context) (int, error)

	ListPolicies(ctx context.Context) ([]types.SecurityPolicy, error)
	UpsertPolicies(ctx context.Context, policies []types.SecurityPolicy) error

	Ping(ctx context.Context) error
	Pool() *pgxpool.Pool
}
