package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oskporuba/club-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categoryPtr(c models.PlayerCategory) *models.PlayerCategory { return &c }

func newPollServiceForTest(repo *fakePollRepo, now time.Time) (*pollService, *fakeAudit, *fakeBroadcaster) {
	audit := &fakeAudit{}
	hub := newFakeBroadcaster()
	svc := NewPollService(repo, audit, hub).(*pollService)
	svc.now = func() time.Time { return now }
	return svc, audit, hub
}

var (
	adminIdentity  = models.Identity{ID: 1, Username: "admin", Role: models.RoleAdmin}
	coachIdentity  = models.Identity{ID: 2, Username: "coach", Role: models.RoleCoach}
	playerIdentity = models.Identity{ID: 3, Username: "player", Role: models.RolePlayer, PlayerCategory: categoryPtr(models.PlayerCategoryZiaci)}
	parentIdentity = models.Identity{ID: 4, Username: "parent", Role: models.RoleParent}
)

func TestPollVoteTally(t *testing.T) {
	repo := newFakePollRepo()
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	svc, _, hub := newPollServiceForTest(repo, now)

	poll := repo.add(models.Poll{
		Question: "Where should the season closing party be?",
		Options:  []string{"Clubhouse", "Pizzeria", "Lake"},
		Target:   models.AudienceAll,
		Active:   true,
	})

	voterA := models.Identity{ID: 10, Username: "anna", Role: models.RolePlayer, PlayerCategory: categoryPtr(models.PlayerCategoryZiaci)}
	voterB := models.Identity{ID: 11, Username: "boris", Role: models.RoleParent}

	_, err := svc.Vote(context.Background(), voterA, poll.ID, 0)
	require.NoError(t, err)
	_, err = svc.Vote(context.Background(), voterB, poll.ID, 1)
	require.NoError(t, err)

	views, err := svc.List(context.Background(), voterA)
	require.NoError(t, err)
	require.Len(t, views, 1)

	view := views[0]
	assert.Equal(t, []int{1, 1, 0}, view.Results)
	assert.Equal(t, 2, view.TotalVotes)
	require.NotNil(t, view.SelectedOption)
	assert.Equal(t, 0, *view.SelectedOption)

	assert.Len(t, hub.messages["polls"], 2)
}

func TestPollRevoteReplacesPreviousChoice(t *testing.T) {
	repo := newFakePollRepo()
	svc, _, _ := newPollServiceForTest(repo, time.Now())

	poll := repo.add(models.Poll{
		Question: "Training kit color?",
		Options:  []string{"Blue", "White"},
		Target:   models.AudienceAll,
		Active:   true,
	})

	_, err := svc.Vote(context.Background(), playerIdentity, poll.ID, 0)
	require.NoError(t, err)
	_, err = svc.Vote(context.Background(), playerIdentity, poll.ID, 1)
	require.NoError(t, err)

	views, err := svc.List(context.Background(), playerIdentity)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, []int{0, 1}, views[0].Results)
	assert.Equal(t, 1, views[0].TotalVotes)
}

func TestPollVoteRules(t *testing.T) {
	repo := newFakePollRepo()
	svc, _, _ := newPollServiceForTest(repo, time.Now())

	open := repo.add(models.Poll{Question: "q", Options: []string{"a", "b"}, Target: models.AudienceAll, Active: true})
	closed := repo.add(models.Poll{Question: "q", Options: []string{"a", "b"}, Target: models.AudienceAll, Active: false})

	tests := []struct {
		name    string
		viewer  models.Identity
		pollID  int
		option  int
		wantErr error
	}{
		{"coach cannot vote", coachIdentity, open.ID, 0, ErrVotingForbidden},
		{"admin cannot vote", adminIdentity, open.ID, 0, ErrVotingForbidden},
		{"closed poll rejects votes", playerIdentity, closed.ID, 0, ErrPollClosed},
		{"option out of range", playerIdentity, open.ID, 2, ErrInvalidPollOption},
		{"negative option", playerIdentity, open.ID, -1, ErrInvalidPollOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Vote(context.Background(), tt.viewer, tt.pollID, tt.option)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestPollLazyAutoCloseOnRead(t *testing.T) {
	repo := newFakePollRepo()
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	svc, _, _ := newPollServiceForTest(repo, now)

	closesAt := now.Add(-time.Minute)
	expired := repo.add(models.Poll{
		Question: "q",
		Options:  []string{"a", "b"},
		Target:   models.AudienceAll,
		Active:   true,
		ClosesAt: &closesAt,
	})

	views, err := svc.List(context.Background(), adminIdentity)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].Active)
	require.NotNil(t, views[0].ClosedAt)

	// The transition was written through, not just decorated on the way out.
	stored, err := repo.GetByID(context.Background(), expired.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	// Voting after the lazy close fails even though the row was active before
	// the read.
	_, err = svc.Vote(context.Background(), playerIdentity, expired.ID, 0)
	assert.ErrorIs(t, err, ErrPollClosed)
}

func TestPollCloseIsIdempotentRejected(t *testing.T) {
	repo := newFakePollRepo()
	svc, _, hub := newPollServiceForTest(repo, time.Now())

	poll := repo.add(models.Poll{Question: "q", Options: []string{"a", "b"}, Target: models.AudienceAll, Active: true})

	closedPoll, err := svc.Close(context.Background(), adminIdentity, poll.ID)
	require.NoError(t, err)
	assert.False(t, closedPoll.Active)
	assert.Len(t, hub.messages["polls"], 1)

	_, err = svc.Close(context.Background(), adminIdentity, poll.ID)
	assert.ErrorIs(t, err, ErrPollAlreadyClosed)
}

func TestPollVisibility(t *testing.T) {
	repo := newFakePollRepo()
	svc, _, _ := newPollServiceForTest(repo, time.Now())

	repo.add(models.Poll{Question: "everyone", Options: []string{"a", "b"}, Target: models.AudienceAll, Active: true})
	repo.add(models.Poll{Question: "ziaci only", Options: []string{"a", "b"}, Target: models.AudiencePlayers, PlayerCategory: categoryPtr(models.PlayerCategoryZiaci), Active: true})
	repo.add(models.Poll{Question: "dorastenci only", Options: []string{"a", "b"}, Target: models.AudiencePlayers, PlayerCategory: categoryPtr(models.PlayerCategoryDorastenci), Active: true})
	repo.add(models.Poll{Question: "parents", Options: []string{"a", "b"}, Target: models.AudienceParents, Active: true})
	repo.add(models.Poll{Question: "coaches", Options: []string{"a", "b"}, Target: models.AudienceCoaches, Active: true})
	repo.add(models.Poll{Question: "board", Options: []string{"a", "b"}, Target: models.AudienceAdmins, Active: true})

	tests := []struct {
		name   string
		viewer models.Identity
		want   int
	}{
		{"admin sees everything", adminIdentity, 6},
		{"coach sees all except admin polls", coachIdentity, 5},
		{"ziaci player sees all-target and own category", playerIdentity, 2},
		{"parent sees all-target and parent polls", parentIdentity, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := svc.List(context.Background(), tt.viewer)
			require.NoError(t, err)
			assert.Len(t, views, tt.want)
		})
	}
}

func TestPollCreateValidation(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	valid := CreatePollInput{
		Question: "Where should the season closing party be?",
		Options:  []string{"Clubhouse", "Pizzeria"},
		Target:   models.AudienceAll,
	}

	tests := []struct {
		name    string
		mutate  func(*CreatePollInput)
		wantErr error
	}{
		{"one option", func(in *CreatePollInput) { in.Options = []string{"only"} }, nil},
		{"eleven options", func(in *CreatePollInput) {
			in.Options = make([]string, 11)
			for i := range in.Options {
				in.Options[i] = "x"
			}
		}, nil},
		{"short question", func(in *CreatePollInput) { in.Question = "hm" }, nil},
		{"bad target", func(in *CreatePollInput) { in.Target = "board" }, nil},
		{"category without players target", func(in *CreatePollInput) {
			in.PlayerCategory = categoryPtr(models.PlayerCategoryZiaci)
		}, nil},
		{"unparsable closesAt", func(in *CreatePollInput) { in.ClosesAt = "tomorrow evening" }, ErrCloseTimeInvalid},
		{"closesAt off the grid", func(in *CreatePollInput) { in.ClosesAt = "2026-03-11T18:07:00Z" }, ErrCloseTimeNotInGrid},
		{"closesAt in the past", func(in *CreatePollInput) { in.ClosesAt = "2026-03-10T17:45:00Z" }, ErrCloseTimeNotFuture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakePollRepo()
			svc, _, _ := newPollServiceForTest(repo, now)

			input := valid
			input.Options = append([]string(nil), valid.Options...)
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), coachIdentity, input)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var validationErr *ValidationError
				assert.ErrorAs(t, err, &validationErr)
			}
		})
	}
}

func TestPollCreateWithValidCloseTime(t *testing.T) {
	repo := newFakePollRepo()
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	svc, audit, _ := newPollServiceForTest(repo, now)

	view, err := svc.Create(context.Background(), coachIdentity, CreatePollInput{
		Question: "Friendly against Zubák on Saturday?",
		Options:  []string{"Yes", "No"},
		Target:   models.AudiencePlayers,
		ClosesAt: "2026-03-12T20:15:00Z",
	})
	require.NoError(t, err)
	require.NotNil(t, view.ClosesAt)
	assert.Equal(t, time.Date(2026, 3, 12, 20, 15, 0, 0, time.UTC), *view.ClosesAt)
	assert.True(t, view.Active)
	assert.Equal(t, []int{0, 0}, view.Results)
	assert.Contains(t, audit.actions, "poll_created")
}
