package service

import (
	"context"
	"fmt"
	"strings"

	"arenabot/models"

	log "github.com/sirupsen/logrus"
)

// scorePageSize is how many leaderboard rows are fetched per page
const scorePageSize = 100

// maxScorePages bounds how deep the resolver pages into a leaderboard
const maxScorePages = 50

type scoreResolver struct {
	source ScoreSource
}

// NewScoreResolver creates a resolver backed by the given score source
func NewScoreResolver(source ScoreSource) ScoreResolver {
	return &scoreResolver{source: source}
}

// Resolve pages through the referenced leaderboard and returns each
// participant's normalized score. Participants without an entry get
// HasScore=false; only an unreachable source fails the call.
func (r *scoreResolver) Resolve(ctx context.Context, detail *models.ChallengeDetail) (map[int64]models.ScoreResult, error) {
	challenge := detail.Challenge

	// Participants are matched to leaderboard rows by username
	wanted := make(map[string]int64, len(detail.Participants))
	for _, p := range detail.Participants {
		wanted[strings.ToLower(p.Username)] = p.DiscordID
	}

	results := make(map[int64]models.ScoreResult, len(detail.Participants))
	found := 0

	for page := 0; page < maxScorePages && found < len(wanted); page++ {
		entries, err := r.source.GetLeaderboardEntries(ctx, challenge.LeaderboardID, page*scorePageSize, scorePageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch leaderboard %s: %w", challenge.LeaderboardID, err)
		}
		if len(entries) == 0 {
			break
		}

		for i, entry := range entries {
			discordID, ok := wanted[strings.ToLower(entry.UserIdentifier)]
			if !ok {
				continue
			}
			if _, seen := results[discordID]; seen {
				// Keep the first (best-ranked) entry for each participant
				continue
			}

			score := entry.RawScore
			if challenge.InvertScores {
				score = -score
			}
			results[discordID] = models.ScoreResult{
				Score:    score,
				Rank:     page*scorePageSize + i + 1,
				HasScore: true,
			}
			found++
		}

		if len(entries) < scorePageSize {
			break
		}
	}

	for _, p := range detail.Participants {
		if _, ok := results[p.DiscordID]; !ok {
			results[p.DiscordID] = models.ScoreResult{HasScore: false}
			log.WithFields(log.Fields{
				"challengeID":   challenge.ID,
				"leaderboardID": challenge.LeaderboardID,
				"username":      p.Username,
			}).Debug("Participant has no leaderboard entry")
		}
	}

	return results, nil
}
