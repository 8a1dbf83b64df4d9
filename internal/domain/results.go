package domain

import "time"

// QuestionStats are the settled per-question numbers kept for reporting.
type QuestionStats struct {
	QuestionID     string  `json:"questionId"`
	Index          int     `json:"index"`
	Players        int     `json:"players"`
	Answered       int     `json:"answered"`
	Correct        int     `json:"correct"`
	Accuracy       float64 `json:"accuracy"`
	AvgElapsedMs   int64   `json:"avgElapsedMs"`
	MinElapsedMs   int64   `json:"minElapsedMs"`
	MaxElapsedMs   int64   `json:"maxElapsedMs"`
	TotalElapsedMs int64   `json:"-"`
}

// Reward is the final-screen payout of one player.
type Reward struct {
	PlayerID   string  `json:"playerId"`
	Rank       int     `json:"rank"`
	Accuracy   float64 `json:"accuracy"`
	Experience int     `json:"experience"`
	Currency   int     `json:"currency"`
	Trophies   int     `json:"trophies"`
}

// RoomResults is the settled outcome of a finished room, held until the reporting read.
type RoomResults struct {
	Code           string             `json:"code"`
	SessionID      string             `json:"sessionId"`
	Mode           Mode               `json:"mode"`
	StartedAt      time.Time          `json:"startedAt"`
	EndedAt        time.Time          `json:"endedAt"`
	TotalQuestions int                `json:"totalQuestions"`
	Leaderboard    []LeaderboardEntry `json:"leaderboard"`
	Rewards        []Reward           `json:"rewards"`
	Questions      []QuestionStats    `json:"questions"`
}
