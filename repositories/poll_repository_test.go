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

// Three parent rows force the result slice through at least one reallocation,
// so votes must land in the slice the caller receives, not in an abandoned
// backing array.
func TestPollListAttachesVotesToEveryPoll(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	pollCols := []string{"id", "question", "options", "target", "player_category", "active", "closes_at", "closed_at", "created_by_id", "username", "created_at"}
	pollRows := [][]driver.Value{
		{int64(1), "Kick-off on Saturday?", []byte(`{"17:00","18:00","19:00"}`), "all", nil, true, nil, nil, int64(2), "trener.jan", now},
		{int64(2), "Away jersey color?", []byte(`{"red","blue"}`), "all", nil, true, nil, nil, int64(2), "trener.jan", now},
		{int64(3), "Team dinner after the match?", []byte(`{"yes","no"}`), "all", nil, true, nil, nil, int64(2), "trener.jan", now},
	}

	voteCols := []string{"poll_id", "user_id", "option_idx", "username"}
	voteRows := [][]driver.Value{
		{int64(1), int64(3), int64(0), "jozo"},
		{int64(1), int64(4), int64(1), "maria"},
		{int64(2), int64(3), int64(1), "jozo"},
		{int64(3), int64(4), int64(0), "maria"},
	}

	dbConn := newStubDB(
		stubResult{match: "FROM polls", columns: pollCols, rows: pollRows},
		stubResult{match: "FROM poll_votes", columns: voteCols, rows: voteRows},
	)
	defer dbConn.Close()

	repo := NewPostgresPollRepository(dbConn)
	polls, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, polls, 3)

	byID := make(map[int]models.Poll, len(polls))
	total := 0
	for _, p := range polls {
		byID[p.ID] = p
		total += len(p.Votes)
	}

	assert.Equal(t, 4, total)
	require.Len(t, byID[1].Votes, 2)
	assert.Len(t, byID[2].Votes, 1)
	assert.Len(t, byID[3].Votes, 1)

	assert.Equal(t, "jozo", byID[1].Votes[0].Username)
	assert.Equal(t, 0, byID[1].Votes[0].OptionIdx)
	assert.Equal(t, "maria", byID[1].Votes[1].Username)
	assert.Equal(t, 1, byID[1].Votes[1].OptionIdx)

	assert.Equal(t, []string{"17:00", "18:00", "19:00"}, byID[1].Options)
}

func TestPollListWithoutVotes(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	pollCols := []string{"id", "question", "options", "target", "player_category", "active", "closes_at", "closed_at", "created_by_id", "username", "created_at"}
	pollRows := [][]driver.Value{
		{int64(1), "Kick-off on Saturday?", []byte(`{"17:00","18:00"}`), "all", nil, true, nil, nil, int64(2), "trener.jan", now},
	}

	dbConn := newStubDB(
		stubResult{match: "FROM polls", columns: pollCols, rows: pollRows},
		stubResult{match: "FROM poll_votes", columns: []string{"poll_id", "user_id", "option_idx", "username"}},
	)
	defer dbConn.Close()

	repo := NewPostgresPollRepository(dbConn)
	polls, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, polls, 1)

	// Votes is an empty slice, not nil, so the JSON encoding stays an array.
	assert.NotNil(t, polls[0].Votes)
	assert.Empty(t, polls[0].Votes)
}
