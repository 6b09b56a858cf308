package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/oskporuba/club-backend/config"
	"github.com/oskporuba/club-backend/models"
	"golang.org/x/sync/singleflight"
)

const sportsnetRequestTimeout = 10 * time.Second

type SportsnetService interface {
	Matches(ctx context.Context, refresh bool) (*models.MatchFeed, error)
}

// sportsnetService proxies the federation's match-results API behind a single
// cache slot. Concurrent cache misses are collapsed into one upstream request
// via singleflight; everyone waiting gets the same feed or the same error.
type sportsnetService struct {
	cfg    config.SportsnetConfig
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	cached    *models.MatchFeed
	expiresAt time.Time
}

func NewSportsnetService(cfg config.SportsnetConfig, logger *slog.Logger) SportsnetService {
	return &sportsnetService{
		cfg:    cfg,
		client: &http.Client{Timeout: sportsnetRequestTimeout},
		logger: logger,
		now:    time.Now,
	}
}

func (s *sportsnetService) Matches(ctx context.Context, refresh bool) (*models.MatchFeed, error) {
	if s.cfg.APIURL == "" {
		return nil, ErrUpstreamNotConfigured
	}

	if !refresh {
		if feed := s.cachedFeed(); feed != nil {
			s.logger.Debug("sportsnet cache hit")
			return withCacheStatus(feed, "HIT"), nil
		}
	}
	s.logger.Debug("sportsnet cache miss", slog.Bool("forced", refresh))

	result, err, _ := s.group.Do("matches", func() (any, error) {
		feed, err := s.fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.store(feed)
		return feed, nil
	})
	if err != nil {
		return nil, err
	}
	return withCacheStatus(result.(*models.MatchFeed), "MISS"), nil
}

// withCacheStatus stamps the per-request cache verdict on a copy so the shared
// cached value itself stays unmarked.
func withCacheStatus(feed *models.MatchFeed, status string) *models.MatchFeed {
	stamped := *feed
	stamped.Cache = status
	return &stamped
}

func (s *sportsnetService) cachedFeed() *models.MatchFeed {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil || !s.now().Before(s.expiresAt) {
		return nil
	}
	return s.cached
}

func (s *sportsnetService) store(feed *models.MatchFeed) {
	ttl := time.Duration(s.cfg.CacheSeconds) * time.Second
	s.mu.Lock()
	s.cached = feed
	s.expiresAt = s.now().Add(ttl)
	s.mu.Unlock()
}

func (s *sportsnetService) fetch(ctx context.Context) (*models.MatchFeed, error) {
	endpoint, err := url.Parse(s.cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid sportsnet api url: %w", err)
	}
	endpoint = endpoint.JoinPath("matches")

	query := endpoint.Query()
	query.Set("team", s.cfg.TeamID)
	if s.cfg.CompetitionID != "" {
		query.Set("competition", s.cfg.CompetitionID)
	}
	if s.cfg.Season != "" {
		query.Set("season", s.cfg.Season)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: upstream returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: invalid upstream payload: %v", ErrUpstreamUnavailable, err)
	}

	items := normalizeMatches(payload)
	return &models.MatchFeed{
		Source:    "sportsnet",
		FetchedAt: s.now().UTC().Format(time.RFC3339),
		Count:     len(items),
		Items:     items,
	}, nil
}

// normalizeMatches accepts the payload shapes the upstream has been observed
// to serve: a bare array, or an object wrapping the array under "matches",
// "data" or "items". Every field read is optional.
func normalizeMatches(payload any) []models.Match {
	var raw []any
	switch v := payload.(type) {
	case []any:
		raw = v
	case map[string]any:
		for _, key := range []string{"matches", "data", "items"} {
			if arr, ok := v[key].([]any); ok {
				raw = arr
				break
			}
		}
	}

	matches := make([]models.Match, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		matches = append(matches, normalizeMatch(obj, i))
	}
	return matches
}

func normalizeMatch(obj map[string]any, index int) models.Match {
	match := models.Match{
		ID:          pickString(obj, "id", "matchId", "match_id", "uuid"),
		Status:      pickString(obj, "status", "state"),
		HomeTeam:    pickTeam(obj, "homeTeam", "home_team", "home"),
		AwayTeam:    pickTeam(obj, "awayTeam", "away_team", "away"),
		StartsAt:    pickStringPtr(obj, "startsAt", "starts_at", "kickoff"),
		Date:        pickStringPtr(obj, "date", "matchDate", "match_date"),
		Time:        pickStringPtr(obj, "time", "matchTime", "match_time"),
		Venue:       pickStringPtr(obj, "venue", "stadium", "place"),
		Round:       pickStringPtr(obj, "round", "matchday"),
		Competition: pickStringPtr(obj, "competition", "league"),
	}

	if match.ID == "" {
		match.ID = strconv.Itoa(index)
	}
	if match.Status == "" {
		match.Status = "unknown"
	}

	match.ScoreHome = pickIntPtr(obj, "scoreHome", "home_score", "homeScore")
	match.ScoreAway = pickIntPtr(obj, "scoreAway", "away_score", "awayScore")
	if score, ok := obj["score"].(map[string]any); ok {
		if match.ScoreHome == nil {
			match.ScoreHome = pickIntPtr(score, "home")
		}
		if match.ScoreAway == nil {
			match.ScoreAway = pickIntPtr(score, "away")
		}
	}
	return match
}

func pickString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func pickStringPtr(obj map[string]any, keys ...string) *string {
	if v := pickString(obj, keys...); v != "" {
		return &v
	}
	return nil
}

func pickIntPtr(obj map[string]any, keys ...string) *int {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case float64:
			n := int(v)
			return &n
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return &n
			}
		}
	}
	return nil
}

// pickTeam reads a team name that may be a plain string or a nested object
// with a "name" field.
func pickTeam(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if name, ok := v["name"].(string); ok && name != "" {
				return name
			}
		}
	}
	return ""
}
