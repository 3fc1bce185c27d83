package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

const DEVICES_TABLE = "devices"

const deviceColumns = `id, hostname, ip_address, os, last_seen, active`

func (p *PostgresBackend) ListDevices(ctx context.Context) ([]types.Device, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, deviceColumns, DEVICES_TABLE)

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	devices, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Device])
	if err != nil {
		return nil, fmt.Errorf("failed to collect devices: %w", err)
	}
	return devices, nil
}

func (p *PostgresBackend) GetDevice(ctx context.Context, id int64) (*types.Device, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, deviceColumns, DEVICES_TABLE)

	rows, err := p.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	device, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Device])
	if err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

func (p *PostgresBackend) CreateDevice(ctx context.Context, dto types.DeviceCreateDto) (*types.Device, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (hostname, ip_address, os, active)
		VALUES ($1, $2, $3, COALESCE($4, TRUE))
		RETURNING %s`, DEVICES_TABLE, deviceColumns)

	rows, err := p.pool.Query(ctx, query, dto.Hostname, dto.IPAddress, dto.OS, dto.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	device, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Device])
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return &device, nil
}

func (p *PostgresBackend) UpdateDevice(ctx context.Context, id int64, dto types.DeviceUpdateDto) (*types.Device, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET
			hostname = COALESCE($2, hostname),
			ip_address = COALESCE($3, ip_address),
			os = COALESCE($4, os),
			active = COALESCE($5, active),
			last_seen = NOW()
		WHERE id = $1
		RETURNING %s`, DEVICES_TABLE, deviceColumns)

	rows, err := p.pool.Query(ctx, query, id, dto.Hostname, dto.IPAddress, dto.OS, dto.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}

	device, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Device])
	if err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

func (p *PostgresBackend) DeleteDevice(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, DEVICES_TABLE), id)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *PostgresBackend) CountDevices(ctx context.Context) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, DEVICES_TABLE)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count devices: %w", err)
	}
	return n, nil
}
