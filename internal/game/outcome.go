package game

// Tier grades a final score.
type Tier string

const (
	TierLow  Tier = "low"
	TierMid  Tier = "mid"
	TierBest Tier = "best"
)

// Score thresholds; a tier needs strictly more than its threshold.
const (
	MidThreshold  = 15
	BestThreshold = 30
)

// Outcome is the result reported when a session ends.
type Outcome struct {
	SessionID string `json:"session_id"`
	Score     int    `json:"score"`
	Tier      Tier   `json:"tier"`
	Emoji     string `json:"emoji"`
	Message   string `json:"message"`
	// Rank is the 1-based leaderboard position, 0 when the score did not place.
	Rank int `json:"rank"`
}

// TierFor grades score.
func TierFor(score int) Tier {
	switch {
	case score > BestThreshold:
		return TierBest
	case score > MidThreshold:
		return TierMid
	default:
		return TierLow
	}
}

// NewOutcome builds the outcome for a final score.
func NewOutcome(sessionID string, score int) Outcome {
	o := Outcome{
		SessionID: sessionID,
		Score:     score,
		Tier:      TierFor(score),
	}
	switch o.Tier {
	case TierBest:
		o.Emoji, o.Message = "🎉", "Amazing!"
	case TierMid:
		o.Emoji, o.Message = "👏", "Great Job!"
	default:
		o.Emoji, o.Message = "💪", "Game Over!"
	}
	return o
}
