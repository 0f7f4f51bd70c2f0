package models

// LeaderboardEntry is one row from the external score source
type LeaderboardEntry struct {
	UserIdentifier string  `json:"user_identifier"`
	RawScore       float64 `json:"raw_score"`
	FormattedScore string  `json:"formatted_score"`
}
