package models

// Match is the normalized shape every sportsnet upstream payload is mapped
// onto, regardless of the upstream's field naming.
type Match struct {
	ID          string  `json:"id"`
	StartsAt    *string `json:"startsAt"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Status      string  `json:"status"`
	HomeTeam    string  `json:"homeTeam"`
	AwayTeam    string  `json:"awayTeam"`
	ScoreHome   *int    `json:"scoreHome"`
	ScoreAway   *int    `json:"scoreAway"`
	Venue       *string `json:"venue"`
	Round       *string `json:"round"`
	Competition *string `json:"competition"`
}

// MatchFeed is the cached unit for the sportsnet proxy: the whole value is
// replaced on refresh, never patched in place.
type MatchFeed struct {
	Source    string  `json:"source"`
	Cache     string  `json:"cache"`
	FetchedAt string  `json:"fetchedAt"`
	Count     int     `json:"count"`
	Items     []Match `json:"items"`
}
