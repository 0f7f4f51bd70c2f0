package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"arenabot/models"
	"arenabot/service"

	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

// Client fetches leaderboard pages from the external scores API. It is
// the only component that talks to the provider; everything else sees the
// ScoreSource interface.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a leaderboard API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// entriesResponse is the provider's page envelope
type entriesResponse struct {
	Entries []models.LeaderboardEntry `json:"entries"`
}

// GetLeaderboardEntries returns one page of leaderboard rows ordered best
// first. Transport failures and provider 5xx responses surface as
// ErrSourceUnavailable so callers can retry; other statuses are permanent.
func (c *Client) GetLeaderboardEntries(ctx context.Context, leaderboardID string, offset, limit int) ([]models.LeaderboardEntry, error) {
	endpoint := fmt.Sprintf("%s/leaderboards/%s/entries", c.baseURL, url.PathEscape(leaderboardID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard request: %w", err)
	}

	q := req.URL.Query()
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).WithField("leaderboardID", leaderboardID).Warn("Leaderboard request failed")
		return nil, fmt.Errorf("%w: %v", service.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: provider returned %d", service.ErrSourceUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		// An unknown leaderboard has no entries rather than being an outage
		return nil, nil
	default:
		return nil, fmt.Errorf("leaderboard request rejected with status %d", resp.StatusCode)
	}

	var body entriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", service.ErrSourceUnavailable, err)
	}

	return body.Entries, nil
}
