package models

import "time"

// AuditEntry is an append-only record of a state-mutating operation. The
// system never reads these back; Details is an opaque blob serialized as-is.
type AuditEntry struct {
	ID          int64     `json:"id"`
	ActorUserID int       `json:"actorUserId"`
	Action      string    `json:"action"`
	EntityType  string    `json:"entityType"`
	EntityID    string    `json:"entityId"`
	Details     any       `json:"details"`
	CreatedAt   time.Time `json:"createdAt"`
}
