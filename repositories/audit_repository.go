package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oskporuba/club-backend/db"
	"github.com/oskporuba/club-backend/models"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
}

type postgresAuditRepository struct {
	db db.Querier
}

func NewPostgresAuditRepository(q db.Querier) AuditRepository {
	return &postgresAuditRepository{db: q}
}

// Create appends one audit record. Callers treat failures as best-effort; this
// layer only reports them.
func (r *postgresAuditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	var details any
	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		details = raw
	}

	query := `
		INSERT INTO audit_logs (actor_user_id, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		entry.ActorUserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		details,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}
