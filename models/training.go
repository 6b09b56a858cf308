package models

import "time"

type TrainingType string

const (
	TrainingTypeTechnical TrainingType = "technical"
	TrainingTypeTactical  TrainingType = "tactical"
	TrainingTypePhysical  TrainingType = "physical"
	TrainingTypeFriendly  TrainingType = "friendly"
)

func (t TrainingType) Valid() bool {
	switch t {
	case TrainingTypeTechnical, TrainingTypeTactical, TrainingTypePhysical, TrainingTypeFriendly:
		return true
	}
	return false
}

type AttendanceStatus string

const (
	AttendanceYes     AttendanceStatus = "yes"
	AttendanceNo      AttendanceStatus = "no"
	AttendanceUnknown AttendanceStatus = "unknown"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceYes, AttendanceNo, AttendanceUnknown:
		return true
	}
	return false
}

// Training stores date and time-of-day the way the club enters them: a
// "2006-01-02" date and a "15:04" time. The scheduled wall-clock instant is
// derived in the service layer.
type Training struct {
	ID                int              `json:"id"`
	Date              string           `json:"date"`
	Time              string           `json:"time"`
	Type              TrainingType     `json:"type"`
	Duration          int              `json:"duration"`
	Category          TrainingCategory `json:"category"`
	Note              *string          `json:"note,omitempty"`
	IsActive          bool             `json:"isActive"`
	CreatedByID       int              `json:"-"`
	CreatedByUsername string           `json:"createdBy"`
	CreatedAt         time.Time        `json:"createdAt"`

	Attendance []TrainingAttendance `json:"attendance"`
}

// TrainingAttendance is keyed by (training, player username); at most one row
// per pair, last write wins.
type TrainingAttendance struct {
	ID             int              `json:"id"`
	TrainingID     int              `json:"trainingId"`
	PlayerUsername string           `json:"playerUsername"`
	Status         AttendanceStatus `json:"status"`
	UpdatedByID    int              `json:"-"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}
