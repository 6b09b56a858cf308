package models

import "time"

// Audience is the role filter deciding who may see an announcement or poll.
type Audience string

const (
	AudienceAll     Audience = "all"
	AudiencePlayers Audience = "players"
	AudienceParents Audience = "parents"
	AudienceCoaches Audience = "coaches"
	AudienceAdmins  Audience = "admins"
)

// ValidForPoll accepts the full audience set including the admin-only target.
func (a Audience) ValidForPoll() bool {
	switch a {
	case AudienceAll, AudiencePlayers, AudienceParents, AudienceCoaches, AudienceAdmins:
		return true
	}
	return false
}

// ValidForAnnouncement excludes the admins target, which only polls support.
func (a Audience) ValidForAnnouncement() bool {
	switch a {
	case AudienceAll, AudiencePlayers, AudienceParents, AudienceCoaches:
		return true
	}
	return false
}

type Poll struct {
	ID                int              `json:"id"`
	Question          string           `json:"question"`
	Options           []string         `json:"options"`
	Target            Audience         `json:"target"`
	PlayerCategory    *PlayerCategory  `json:"playerCategory"`
	Active            bool             `json:"active"`
	ClosesAt          *time.Time       `json:"closesAt"`
	ClosedAt          *time.Time       `json:"closedAt"`
	CreatedByID       int              `json:"-"`
	CreatedByUsername string           `json:"createdBy"`
	CreatedAt         time.Time        `json:"createdAt"`

	Votes []PollVote `json:"-"`
}

// PollVote is keyed by (poll, user); a re-vote replaces the previous row.
type PollVote struct {
	PollID    int    `json:"pollId"`
	UserID    int    `json:"userId"`
	OptionIdx int    `json:"optionIdx"`
	Username  string `json:"username,omitempty"`
}

// PollView is the read model served to clients: the stored poll plus the
// tally. Results always has exactly len(Options) entries.
type PollView struct {
	Poll
	Results        []int `json:"results"`
	TotalVotes     int   `json:"totalVotes"`
	SelectedOption *int  `json:"selectedOption"`
}
