package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

const ENDPOINTS_TABLE = "endpoints"

const endpointColumns = `id, name, ip_address, mac_address, hostname, os, os_version, endpoint_type,
	status, last_seen, protection_status, risk_score`

func (p *PostgresBackend) ListEndpoints(ctx context.Context, skip, take int) (types.EndpointsPaginatedList, error) {
	skip, take = clampPage(skip, take)
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY name, id OFFSET $1 LIMIT $2`, endpointColumns, ENDPOINTS_TABLE)

	rows, err := p.pool.Query(ctx, query, skip, take)
	if err != nil {
		return types.EndpointsPaginatedList{}, fmt.Errorf("failed to list endpoints: %w", err)
	}
	endpoints, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Endpoint])
	if err != nil {
		return types.EndpointsPaginatedList{}, fmt.Errorf("failed to collect endpoints: %w", err)
	}

	var total int
	if err := p.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, ENDPOINTS_TABLE)).Scan(&total); err != nil {
		return types.EndpointsPaginatedList{}, fmt.Errorf("failed to count endpoints: %w", err)
	}

	return types.EndpointsPaginatedList{
		Endpoints:  endpoints,
		TotalCount: total,
	}, nil
}

func (p *PostgresBackend) StreamEndpoints(ctx context.Context) <-chan storage.RowsStream[types.Endpoint] {
	return storage.GetRowsStream(
		ctx,
		p.pool,
		func(rows pgx.Rows) (types.Endpoint, error) { return pgx.RowToStructByName[types.Endpoint](rows) },
		fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, endpointColumns, ENDPOINTS_TABLE),
	)
}

func (p *PostgresBackend) GetEndpoint(ctx context.Context, id uuid.UUID) (*types.Endpoint, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, endpointColumns, ENDPOINTS_TABLE)

	rows, err := p.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint: %w", err)
	}
	endpoint, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Endpoint])
	if err != nil {
		return nil, notFound(err)
	}
	return &endpoint, nil
}

func withEndpointDefaults(dto types.EndpointCreateDto) types.EndpointCreateDto {
	if dto.EndpointType == "" {
		dto.EndpointType = types.EndpointWorkstation
	}
	if dto.Status == "" {
		dto.Status = "ACTIVE"
	}
	if dto.ProtectionStatus == "" {
		dto.ProtectionStatus = types.StatusProtected
	}
	return dto
}

func (p *PostgresBackend) CreateEndpoint(ctx context.Context, dto types.EndpointCreateDto) (*types.Endpoint, error) {
	dto = withEndpointDefaults(dto)
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, ip_address, mac_address, hostname, os, os_version, endpoint_type,
			status, protection_status, risk_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING %s`, ENDPOINTS_TABLE, endpointColumns)

	rows, err := p.pool.Query(ctx, query,
		uuid.New(),
		dto.Name,
		dto.IPAddress,
		dto.MACAddress,
		dto.Hostname,
		dto.OS,
		dto.OSVersion,
		dto.EndpointType,
		dto.Status,
		dto.ProtectionStatus,
		dto.RiskScore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create endpoint: %w", err)
	}
	endpoint, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Endpoint])
	if err != nil {
		return nil, fmt.Errorf("failed to create endpoint: %w", err)
	}
	return &endpoint, nil
}

func (p *PostgresBackend) UpdateEndpoint(ctx context.Context, id uuid.UUID, dto types.EndpointCreateDto) (*types.Endpoint, error) {
	dto = withEndpointDefaults(dto)
	query := fmt.Sprintf(`
		UPDATE %s SET
			name = $2, ip_address = $3, mac_address = $4, hostname = $5, os = $6, os_version = $7,
			endpoint_type = $8, status = $9, protection_status = $10, risk_score = $11, last_seen = NOW()
		WHERE id = $1
		RETURNING %s`, ENDPOINTS_TABLE, endpointColumns)

	rows, err := p.pool.Query(ctx, query,
		id,
		dto.Name,
		dto.IPAddress,
		dto.MACAddress,
		dto.Hostname,
		dto.OS,
		dto.OSVersion,
		dto.EndpointType,
		dto.Status,
		dto.ProtectionStatus,
		dto.RiskScore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update endpoint: %w", err)
	}
	endpoint, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Endpoint])
	if err != nil {
		return nil, notFound(err)
	}
	return &endpoint, nil
}

func (p *PostgresBackend) DeleteEndpoint(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, ENDPOINTS_TABLE), id)
	if err != nil {
		return fmt.Errorf("failed to delete endpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
