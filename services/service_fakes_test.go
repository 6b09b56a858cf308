package services

import (
	"context"
	"sort"
	"time"

	"github.com/oskporuba/club-backend/models"
	"github.com/oskporuba/club-backend/repositories"
)

// fakeAudit records audit calls without touching storage.
type fakeAudit struct {
	actions []string
}

func (f *fakeAudit) Log(_ context.Context, _ int, action, _, _ string, _ any) {
	f.actions = append(f.actions, action)
}

// fakeBroadcaster captures hub messages per room.
type fakeBroadcaster struct {
	messages map[string][]any
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{messages: map[string][]any{}}
}

func (f *fakeBroadcaster) BroadcastToRoom(room string, message any) {
	f.messages[room] = append(f.messages[room], message)
}

// fakeUserRepo is an in-memory UserRepository keyed by ID.
type fakeUserRepo struct {
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]*models.User{}, nextID: 1}
}

func (f *fakeUserRepo) add(user models.User) *models.User {
	if user.ID == 0 {
		user.ID = f.nextID
		f.nextID++
	} else if user.ID >= f.nextID {
		f.nextID = user.ID + 1
	}
	f.users[user.ID] = &user
	copied := user
	return &copied
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeUserRepo) ListActivePlayers(ctx context.Context) ([]models.User, error) {
	all, _ := f.List(ctx)
	out := make([]models.User, 0, len(all))
	for _, user := range all {
		if user.Role == models.RolePlayer && user.IsActive {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, existing := range f.users {
		if existing.Username == user.Username {
			return repositories.ErrUsernameConflict
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) SetActiveStatus(ctx context.Context, id int, isActive bool) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	user.IsActive = isActive
	return f.GetByID(ctx, id)
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id int, passwordHash string, changedAt time.Time) error {
	user, ok := f.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.LastPasswordChangeAt = &changedAt
	return nil
}

func (f *fakeUserRepo) ResetPassword(_ context.Context, id int, passwordHash string) error {
	user, ok := f.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.LastPasswordChangeAt = nil
	return nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id int, email *string, role models.UserRole, category *models.PlayerCategory, shirtNumber *int) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	user.Email = email
	user.Role = role
	user.PlayerCategory = category
	user.ShirtNumber = shirtNumber
	return f.GetByID(ctx, id)
}

// fakePollRepo is an in-memory PollRepository.
type fakePollRepo struct {
	polls  map[int]*models.Poll
	nextID int
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{polls: map[int]*models.Poll{}, nextID: 1}
}

func (f *fakePollRepo) add(poll models.Poll) *models.Poll {
	if poll.ID == 0 {
		poll.ID = f.nextID
		f.nextID++
	} else if poll.ID >= f.nextID {
		f.nextID = poll.ID + 1
	}
	f.polls[poll.ID] = &poll
	copied := poll
	return &copied
}

func (f *fakePollRepo) Create(_ context.Context, poll *models.Poll) error {
	poll.ID = f.nextID
	f.nextID++
	poll.Active = true
	poll.CreatedAt = time.Now()
	copied := *poll
	f.polls[poll.ID] = &copied
	return nil
}

func (f *fakePollRepo) GetByID(_ context.Context, id int) (*models.Poll, error) {
	poll, ok := f.polls[id]
	if !ok {
		return nil, repositories.ErrPollNotFound
	}
	copied := *poll
	copied.Votes = append([]models.PollVote(nil), poll.Votes...)
	return &copied, nil
}

func (f *fakePollRepo) List(ctx context.Context) ([]models.Poll, error) {
	ids := make([]int, 0, len(f.polls))
	for id := range f.polls {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]models.Poll, 0, len(ids))
	for _, id := range ids {
		poll, _ := f.GetByID(ctx, id)
		out = append(out, *poll)
	}
	return out, nil
}

func (f *fakePollRepo) Close(ctx context.Context, id int, closedAt time.Time) (*models.Poll, error) {
	poll, ok := f.polls[id]
	if !ok {
		return nil, repositories.ErrPollNotFound
	}
	poll.Active = false
	poll.ClosedAt = &closedAt
	return f.GetByID(ctx, id)
}

func (f *fakePollRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.polls[id]; !ok {
		return repositories.ErrPollNotFound
	}
	delete(f.polls, id)
	return nil
}

func (f *fakePollRepo) UpsertVote(_ context.Context, vote *models.PollVote) error {
	poll, ok := f.polls[vote.PollID]
	if !ok {
		return repositories.ErrPollNotFound
	}
	for i := range poll.Votes {
		if poll.Votes[i].UserID == vote.UserID {
			poll.Votes[i].OptionIdx = vote.OptionIdx
			return nil
		}
	}
	poll.Votes = append(poll.Votes, *vote)
	return nil
}

// fakeTrainingRepo is an in-memory TrainingRepository.
type fakeTrainingRepo struct {
	trainings map[int]*models.Training
	nextID    int
	nextAttID int
}

func newFakeTrainingRepo() *fakeTrainingRepo {
	return &fakeTrainingRepo{trainings: map[int]*models.Training{}, nextID: 1, nextAttID: 1}
}

func (f *fakeTrainingRepo) add(training models.Training) *models.Training {
	if training.ID == 0 {
		training.ID = f.nextID
		f.nextID++
	} else if training.ID >= f.nextID {
		f.nextID = training.ID + 1
	}
	f.trainings[training.ID] = &training
	copied := training
	return &copied
}

func (f *fakeTrainingRepo) Create(_ context.Context, training *models.Training) error {
	training.ID = f.nextID
	f.nextID++
	training.IsActive = true
	training.CreatedAt = time.Now()
	training.Attendance = make([]models.TrainingAttendance, 0)
	copied := *training
	f.trainings[training.ID] = &copied
	return nil
}

func (f *fakeTrainingRepo) GetByID(_ context.Context, id int) (*models.Training, error) {
	training, ok := f.trainings[id]
	if !ok {
		return nil, repositories.ErrTrainingNotFound
	}
	copied := *training
	copied.Attendance = append([]models.TrainingAttendance(nil), training.Attendance...)
	return &copied, nil
}

func (f *fakeTrainingRepo) List(ctx context.Context) ([]models.Training, error) {
	ids := make([]int, 0, len(f.trainings))
	for id := range f.trainings {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]models.Training, 0, len(ids))
	for _, id := range ids {
		training, _ := f.GetByID(ctx, id)
		out = append(out, *training)
	}
	return out, nil
}

func (f *fakeTrainingRepo) ListActive(ctx context.Context) ([]models.Training, error) {
	all, _ := f.List(ctx)
	out := make([]models.Training, 0, len(all))
	for _, training := range all {
		if training.IsActive {
			out = append(out, training)
		}
	}
	return out, nil
}

func (f *fakeTrainingRepo) Close(ctx context.Context, id int) (*models.Training, error) {
	training, ok := f.trainings[id]
	if !ok {
		return nil, repositories.ErrTrainingNotFound
	}
	training.IsActive = false
	return f.GetByID(ctx, id)
}

func (f *fakeTrainingRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.trainings[id]; !ok {
		return repositories.ErrTrainingNotFound
	}
	delete(f.trainings, id)
	return nil
}

func (f *fakeTrainingRepo) UpsertAttendance(_ context.Context, att *models.TrainingAttendance) error {
	training, ok := f.trainings[att.TrainingID]
	if !ok {
		return repositories.ErrTrainingNotFound
	}
	for i := range training.Attendance {
		if training.Attendance[i].PlayerUsername == att.PlayerUsername {
			training.Attendance[i].Status = att.Status
			training.Attendance[i].UpdatedByID = att.UpdatedByID
			training.Attendance[i].UpdatedAt = time.Now()
			att.ID = training.Attendance[i].ID
			return nil
		}
	}
	att.ID = f.nextAttID
	f.nextAttID++
	att.UpdatedAt = time.Now()
	training.Attendance = append(training.Attendance, *att)
	return nil
}
