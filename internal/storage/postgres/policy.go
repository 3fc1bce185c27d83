package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iquiquesec/ciberseguridad/internal/types"
)

const POLICIES_TABLE = "security_policies"

func (p *PostgresBackend) ListPolicies(ctx context.Context) ([]types.SecurityPolicy, error) {
	query := fmt.Sprintf(`SELECT id, name, policy_type, settings, is_active FROM %s ORDER BY name`, POLICIES_TABLE)

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	policies, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.SecurityPolicy])
	if err != nil {
		return nil, fmt.Errorf("failed to collect policies: %w", err)
	}
	return policies, nil
}

// UpsertPolicies seeds the catalog. Existing rows are overwritten by id.
func (p *PostgresBackend) UpsertPolicies(ctx context.Context, policies []types.SecurityPolicy) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, policy_type, settings, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			policy_type = EXCLUDED.policy_type,
			settings = EXCLUDED.settings,
			is_active = EXCLUDED.is_active`, POLICIES_TABLE)

	return p.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, policy := range policies {
			if _, err := tx.Exec(ctx, query,
				policy.ID,
				policy.Name,
				policy.PolicyType,
				policy.Settings,
				policy.IsActive,
			); err != nil {
				return fmt.Errorf("failed to upsert policy %s: %w", policy.ID, err)
			}
		}
		return nil
	})
}
