package models

import "time"

// Announcement is immutable after creation except for deletion.
type Announcement struct {
	ID                int             `json:"id"`
	Title             string          `json:"title"`
	Message           string          `json:"message"`
	Target            Audience        `json:"target"`
	PlayerCategory    *PlayerCategory `json:"playerCategory"`
	Important         bool            `json:"important"`
	CreatedByID       int             `json:"-"`
	CreatedByUsername string          `json:"createdBy"`
	CreatedAt         time.Time       `json:"createdAt"`
}
