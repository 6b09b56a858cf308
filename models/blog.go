package models

import "time"

type BlogPost struct {
	ID                int       `json:"id"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	CoverURL          *string   `json:"coverUrl"`
	Published         bool      `json:"published"`
	CreatedByID       int       `json:"-"`
	CreatedByUsername string    `json:"createdBy"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
