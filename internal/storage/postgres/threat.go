package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iquiquesec/ciberseguridad/internal/types"
)

const (
	THREATS_TABLE   = "threats"
	INCIDENTS_TABLE = "ransomware_incidents"
)

const threatColumns = `id, name, type, severity, status, endpoint_id, detection_time, description, action_taken`

const incidentColumns = `id, endpoint_id, detection_time, files_targeted, files_protected,
	encryption_attempts, backup_created, status`

func (p *PostgresBackend) ListThreats(ctx context.Context, skip, take int) ([]types.Threat, error) {
	skip, take = clampPage(skip, take)
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY detection_time DESC OFFSET $1 LIMIT $2`, threatColumns, THREATS_TABLE)

	rows, err := p.pool.Query(ctx, query, skip, take)
	if err != nil {
		return nil, fmt.Errorf("failed to list threats: %w", err)
	}
	threats, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Threat])
	if err != nil {
		return nil, fmt.Errorf("failed to collect threats: %w", err)
	}
	return threats, nil
}

func (p *PostgresBackend) CreateThreat(ctx context.Context, dto types.ThreatCreateDto) (*types.Threat, error) {
	status := dto.Status
	if status == "" {
		status = "DETECTED"
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, type, severity, status, endpoint_id, description, action_taken)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, THREATS_TABLE, threatColumns)

	rows, err := p.pool.Query(ctx, query,
		uuid.New(),
		dto.Name,
		dto.Type,
		dto.Severity,
		status,
		dto.EndpointID,
		dto.Description,
		dto.ActionTaken,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create threat: %w", err)
	}
	threat, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Threat])
	if err != nil {
		return nil, fmt.Errorf("failed to create threat: %w", err)
	}
	return &threat, nil
}

func (p *PostgresBackend) CountThreatsBySeverity(ctx context.Context) (map[types.Severity]int, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`SELECT severity, COUNT(*) FROM %s GROUP BY severity`, THREATS_TABLE))
	if err != nil {
		return nil, fmt.Errorf("failed to count threats: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.Severity]int)
	for rows.Next() {
		var (
			severity string
			n        int
		)
		if err := rows.Scan(&severity, &n); err != nil {
			return nil, fmt.Errorf("failed to scan threat count: %w", err)
		}
		counts[types.Severity(severity)] = n
	}
	return counts, rows.Err()
}

func (p *PostgresBackend) ListIncidents(ctx context.Context, skip, take int) ([]types.RansomwareIncident, error) {
	skip, take = clampPage(skip, take)
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY detection_time DESC OFFSET $1 LIMIT $2`, incidentColumns, INCIDENTS_TABLE)

	rows, err := p.pool.Query(ctx, query, skip, take)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	incidents, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.RansomwareIncident])
	if err != nil {
		return nil, fmt.Errorf("failed to collect incidents: %w", err)
	}
	return incidents, nil
}

// InsertIncidents stores a scan's incidents in one transaction.
func (p *PostgresBackend) InsertIncidents(ctx context.Context, incidents []types.RansomwareIncident) error {
	if len(incidents) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, endpoint_id, detection_time, files_targeted, files_protected,
			encryption_attempts, backup_created, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, INCIDENTS_TABLE)

	return p.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, in := range incidents {
			batch.Queue(query,
				in.ID,
				in.EndpointID,
				in.DetectionTime,
				in.FilesTargeted,
				in.FilesProtected,
				in.EncryptionAttempts,
				in.BackupCreated,
				in.Status,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert incidents: %w", err)
		}
		return nil
	})
}

func (p *PostgresBackend) CountIncidents(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, INCIDENTS_TABLE)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count incidents: %w", err)
	}
	return n, nil
}
