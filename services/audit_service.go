package services

import (
	"context"
	"log/slog"

	"github.com/oskporuba/club-backend/models"
	"github.com/oskporuba/club-backend/repositories"
)

// AuditLogger records state-mutating operations. Writes are fire-and-forget:
// a failure is logged and swallowed so audit logging can never break a
// user-facing operation, and the primary mutation is never rolled back.
type AuditLogger interface {
	Log(ctx context.Context, actorUserID int, action, entityType, entityID string, details any)
}

type auditService struct {
	repo   repositories.AuditRepository
	logger *slog.Logger
}

func NewAuditService(repo repositories.AuditRepository, logger *slog.Logger) AuditLogger {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) Log(ctx context.Context, actorUserID int, action, entityType, entityID string, details any) {
	entry := &models.AuditEntry{
		ActorUserID: actorUserID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Details:     details,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("audit log write failed",
			slog.String("action", action),
			slog.String("entity_type", entityType),
			slog.String("entity_id", entityID),
			slog.Any("error", err),
		)
	}
}
