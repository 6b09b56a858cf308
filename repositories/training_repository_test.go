package repositories

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/oskporuba/club-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingListAttachesAttendanceToEveryTraining(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	trainingCols := []string{"id", "date", "time", "type", "duration", "category", "note", "is_active", "created_by_id", "username", "created_at"}
	trainingRows := [][]driver.Value{
		{int64(1), "2026-05-04", "17:00", "technical", int64(90), "ziaci", nil, true, int64(2), "trener.jan", now},
		{int64(2), "2026-05-05", "18:00", "physical", int64(60), "dorastenci", "bring running shoes", true, int64(2), "trener.jan", now},
		{int64(3), "2026-05-06", "17:30", "tactical", int64(90), "ziaci", nil, false, int64(2), "trener.jan", now},
	}

	attendanceCols := []string{"id", "training_id", "player_username", "status", "updated_by_id", "updated_at"}
	attendanceRows := [][]driver.Value{
		{int64(1), int64(1), "jozo", "yes", int64(3), now},
		{int64(2), int64(1), "maria", "no", int64(4), now},
		{int64(3), int64(2), "jozo", "unknown", int64(3), now},
		{int64(4), int64(3), "maria", "yes", int64(4), now},
	}

	dbConn := newStubDB(
		stubResult{match: "FROM trainings", columns: trainingCols, rows: trainingRows},
		stubResult{match: "FROM training_attendances", columns: attendanceCols, rows: attendanceRows},
	)
	defer dbConn.Close()

	repo := NewPostgresTrainingRepository(dbConn)
	trainings, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, trainings, 3)

	byID := make(map[int]models.Training, len(trainings))
	total := 0
	for _, tr := range trainings {
		byID[tr.ID] = tr
		total += len(tr.Attendance)
	}

	assert.Equal(t, 4, total)
	require.Len(t, byID[1].Attendance, 2)
	assert.Len(t, byID[2].Attendance, 1)
	assert.Len(t, byID[3].Attendance, 1)

	assert.Equal(t, "jozo", byID[1].Attendance[0].PlayerUsername)
	assert.Equal(t, models.AttendanceYes, byID[1].Attendance[0].Status)
	assert.Equal(t, models.AttendanceNo, byID[1].Attendance[1].Status)

	require.NotNil(t, byID[2].Note)
	assert.Equal(t, "bring running shoes", *byID[2].Note)
	assert.Nil(t, byID[1].Note)
}
