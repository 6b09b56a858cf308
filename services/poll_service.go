package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oskporuba/club-backend/models"
	"github.com/oskporuba/club-backend/repositories"
)

type PollService interface {
	List(ctx context.Context, viewer models.Identity) ([]models.PollView, error)
	Create(ctx context.Context, viewer models.Identity, input CreatePollInput) (*models.PollView, error)
	Vote(ctx context.Context, viewer models.Identity, pollID, optionIndex int) (*models.Poll, error)
	Close(ctx context.Context, viewer models.Identity, pollID int) (*models.Poll, error)
	Delete(ctx context.Context, viewer models.Identity, pollID int) error
}

type CreatePollInput struct {
	Question       string                 `json:"question"`
	Options        []string               `json:"options"`
	Target         models.Audience        `json:"target"`
	PlayerCategory *models.PlayerCategory `json:"playerCategory"`
	ClosesAt       string                 `json:"closesAt"`
}

// LiveBroadcaster is the slice of the websocket hub the domain services use.
type LiveBroadcaster interface {
	BroadcastToRoom(room string, message any)
}

type pollService struct {
	pollRepo repositories.PollRepository
	audit    AuditLogger
	live     LiveBroadcaster
	now      func() time.Time
}

func NewPollService(pollRepo repositories.PollRepository, audit AuditLogger, live LiveBroadcaster) PollService {
	return &pollService{
		pollRepo: pollRepo,
		audit:    audit,
		live:     live,
		now:      time.Now,
	}
}

// ensureClosedIfExpired lazily closes an active poll whose scheduled close
// time has elapsed, writing the transition through before the poll is handed
// to any caller. An "active" poll is therefore never observable past its
// closes-at time, without a background sweeper.
func (s *pollService) ensureClosedIfExpired(ctx context.Context, poll *models.Poll) (*models.Poll, error) {
	if poll == nil || !poll.Active || poll.ClosesAt == nil {
		return poll, nil
	}
	if s.now().Before(*poll.ClosesAt) {
		return poll, nil
	}

	closed, err := s.pollRepo.Close(ctx, poll.ID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to auto-close expired poll %d: %w", poll.ID, err)
	}
	return closed, nil
}

func pollVisibleTo(poll *models.Poll, viewer models.Identity) bool {
	if poll.Target == models.AudienceAdmins {
		return viewer.Role == models.RoleAdmin
	}
	if viewer.Role == models.RoleCoach || viewer.Role == models.RoleAdmin {
		return true
	}
	switch poll.Target {
	case models.AudienceAll:
		return true
	case models.AudiencePlayers:
		if viewer.Role != models.RolePlayer {
			return false
		}
		if poll.PlayerCategory == nil {
			return true
		}
		return viewer.PlayerCategory != nil && *viewer.PlayerCategory == *poll.PlayerCategory
	case models.AudienceParents:
		return viewer.Role == models.RoleParent
	case models.AudienceCoaches:
		return false // viewer is neither coach nor admin at this point
	}
	return false
}

// buildView computes the tally. The result vector always has exactly one
// entry per option; a vote with an out-of-range index (left behind by an
// edited import, for example) counts toward totals only.
func buildView(poll *models.Poll, viewerID int) models.PollView {
	results := make([]int, len(poll.Options))
	var selected *int
	for _, vote := range poll.Votes {
		if vote.OptionIdx >= 0 && vote.OptionIdx < len(results) {
			results[vote.OptionIdx]++
		}
		if vote.UserID == viewerID {
			idx := vote.OptionIdx
			selected = &idx
		}
	}
	return models.PollView{
		Poll:           *poll,
		Results:        results,
		TotalVotes:     len(poll.Votes),
		SelectedOption: selected,
	}
}

func (s *pollService) List(ctx context.Context, viewer models.Identity) ([]models.PollView, error) {
	polls, err := s.pollRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]models.PollView, 0, len(polls))
	for i := range polls {
		poll, err := s.ensureClosedIfExpired(ctx, &polls[i])
		if err != nil {
			return nil, err
		}
		if !pollVisibleTo(poll, viewer) {
			continue
		}
		views = append(views, buildView(poll, viewer.ID))
	}
	return views, nil
}

func (s *pollService) Create(ctx context.Context, viewer models.Identity, input CreatePollInput) (*models.PollView, error) {
	if err := validatePollInput(input); err != nil {
		return nil, err
	}

	closesAt, err := s.parseClosesAt(input.ClosesAt)
	if err != nil {
		return nil, err
	}

	var category *models.PlayerCategory
	if input.Target == models.AudiencePlayers {
		category = input.PlayerCategory
	}

	poll := &models.Poll{
		Question:          strings.TrimSpace(input.Question),
		Options:           input.Options,
		Target:            input.Target,
		PlayerCategory:    category,
		ClosesAt:          closesAt,
		CreatedByID:       viewer.ID,
		CreatedByUsername: viewer.Username,
	}
	if err := s.pollRepo.Create(ctx, poll); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, viewer.ID, "poll_created", "poll", fmt.Sprint(poll.ID), map[string]any{
		"question":       poll.Question,
		"target":         poll.Target,
		"playerCategory": poll.PlayerCategory,
		"closesAt":       poll.ClosesAt,
	})

	view := buildView(poll, viewer.ID)
	return &view, nil
}

// Vote upserts the caller's single vote; a repeat vote replaces the earlier
// choice. Coaches and admins run polls, they do not participate.
func (s *pollService) Vote(ctx context.Context, viewer models.Identity, pollID, optionIndex int) (*models.Poll, error) {
	if viewer.Role == models.RoleCoach || viewer.Role == models.RoleAdmin {
		return nil, ErrVotingForbidden
	}

	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	poll, err = s.ensureClosedIfExpired(ctx, poll)
	if err != nil {
		return nil, err
	}

	if !poll.Active {
		return nil, ErrPollClosed
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return nil, ErrInvalidPollOption
	}

	vote := &models.PollVote{PollID: poll.ID, UserID: viewer.ID, OptionIdx: optionIndex}
	if err := s.pollRepo.UpsertVote(ctx, vote); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, viewer.ID, "poll_voted", "poll", fmt.Sprint(poll.ID), map[string]any{
		"optionIndex": optionIndex,
	})
	if s.live != nil {
		s.live.BroadcastToRoom("polls", map[string]any{
			"type":   "POLL_VOTE_CAST",
			"pollId": poll.ID,
		})
	}
	return poll, nil
}

func (s *pollService) Close(ctx context.Context, viewer models.Identity, pollID int) (*models.Poll, error) {
	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	poll, err = s.ensureClosedIfExpired(ctx, poll)
	if err != nil {
		return nil, err
	}

	if !poll.Active {
		return nil, ErrPollAlreadyClosed
	}

	closed, err := s.pollRepo.Close(ctx, poll.ID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, viewer.ID, "poll_closed", "poll", fmt.Sprint(poll.ID), nil)
	if s.live != nil {
		s.live.BroadcastToRoom("polls", map[string]any{
			"type":   "POLL_CLOSED",
			"pollId": poll.ID,
		})
	}
	return closed, nil
}

func (s *pollService) Delete(ctx context.Context, viewer models.Identity, pollID int) error {
	if err := s.pollRepo.Delete(ctx, pollID); err != nil {
		return err
	}
	s.audit.Log(ctx, viewer.ID, "poll_deleted", "poll", fmt.Sprint(pollID), nil)
	return nil
}

func validatePollInput(input CreatePollInput) error {
	fields := map[string]string{}

	question := strings.TrimSpace(input.Question)
	if len(question) < 5 || len(question) > 500 {
		fields["question"] = "must be between 5 and 500 characters"
	}
	if len(input.Options) < 2 || len(input.Options) > 10 {
		fields["options"] = "must contain between 2 and 10 options"
	} else {
		for i, opt := range input.Options {
			if trimmed := strings.TrimSpace(opt); trimmed == "" || len(trimmed) > 200 {
				fields["options"] = fmt.Sprintf("option %d must be between 1 and 200 characters", i)
				break
			}
		}
	}
	if !input.Target.ValidForPoll() {
		fields["target"] = "must be one of all, players, parents, coaches, admins"
	}
	if input.PlayerCategory != nil {
		if !input.PlayerCategory.Valid() {
			fields["playerCategory"] = "unknown player category"
		} else if input.Target != models.AudiencePlayers {
			fields["playerCategory"] = "can only be set when the target is players"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// parseClosesAt validates the optional scheduled close time: parseable,
// aligned to the 15-minute grid, strictly in the future.
func (s *pollService) parseClosesAt(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, ErrCloseTimeInvalid
	}
	if !onQuarterHour(parsed) {
		return nil, ErrCloseTimeNotInGrid
	}
	if !parsed.After(s.now()) {
		return nil, ErrCloseTimeNotFuture
	}

	utc := parsed.UTC()
	return &utc, nil
}

func onQuarterHour(t time.Time) bool {
	return t.Minute()%15 == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
