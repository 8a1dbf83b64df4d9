package domain

import (
	"encoding/json"
	"time"
)

// Mode selects the game engine driving a room.
type Mode string

const (
	ModeQuiz  Mode = "quiz"
	ModeBoard Mode = "board"
)

// Phase is the session-level state of a room.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhaseCountdown   Phase = "countdown"
	PhaseQuestion    Phase = "question"
	PhaseGrading     Phase = "grading"
	PhaseLeaderboard Phase = "leaderboard"
	PhasePlaying     Phase = "playing"
	PhaseFinished    Phase = "finished"
	PhaseClosed      Phase = "closed"
)

// AnswerType selects how a submission is compared against the canonical answer.
type AnswerType string

const (
	AnswerSingleChoice AnswerType = "single_choice"
	AnswerTrueFalse    AnswerType = "true_false"
	AnswerMultiSelect  AnswerType = "multi_select"
	AnswerOrdering     AnswerType = "ordering"
	AnswerFreeText     AnswerType = "free_text"
	AnswerMatching     AnswerType = "matching"
)

// Option represents a possible answer for a choice question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct,omitempty"`
}

// Question is immutable once loaded into a session.
type Question struct {
	ID     string     `json:"id"`
	Prompt string     `json:"prompt"`
	Type   AnswerType `json:"type"`
	// Options is used by choice, ordering and matching questions.
	Options []Option `json:"options,omitempty"`
	// CorrectAnswer holds the canonical value; single-choice questions may
	// instead flag an option as correct.
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty"`
	TimeLimitSec  int             `json:"timeLimitSec,omitempty"` // falls back to the session limit
	Points        int             `json:"points,omitempty"`       // falls back to the session value
}

// Quiz is a collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// DuelPolicy decides how a duel question exchange produces a winner.
type DuelPolicy string

// DuelSingleQuestion: one question, the sole correct answerer wins, anything else is a tie.
const DuelSingleQuestion DuelPolicy = "single_question"

// SessionConfig carries the tunables of one room.
type SessionConfig struct {
	MaxPlayers           int        `json:"maxPlayers" yaml:"maxPlayers" validate:"gte=1"`
	TimeLimitSec         int        `json:"timeLimitSec" yaml:"timeLimitSec" validate:"gte=1"`
	PointsPerQuestion    int        `json:"pointsPerQuestion" yaml:"pointsPerQuestion" validate:"gte=0"`
	SpeedBonus           bool       `json:"speedBonus" yaml:"speedBonus"`
	SpeedWeight          float64    `json:"speedWeight" yaml:"speedWeight" validate:"gte=0,lte=1"`
	ComboBonus           bool       `json:"comboBonus" yaml:"comboBonus"`
	ComboStep            float64    `json:"comboStep" yaml:"comboStep" validate:"gte=0"`
	ComboCap             int        `json:"comboCap" yaml:"comboCap" validate:"gte=0"`
	AllowLateJoin        bool       `json:"allowLateJoin" yaml:"allowLateJoin"`
	CountdownTicks       int        `json:"countdownTicks" yaml:"countdownTicks" validate:"gte=0"`
	LeaderboardPauseSec  int        `json:"leaderboardPauseSec" yaml:"leaderboardPauseSec" validate:"gte=0"`
	GracePeriodSec       int        `json:"gracePeriodSec" yaml:"gracePeriodSec" validate:"gte=1"`
	FinishedRetentionSec int        `json:"finishedRetentionSec" yaml:"finishedRetentionSec" validate:"gte=0"`
	MaxRounds            int        `json:"maxRounds" yaml:"maxRounds" validate:"gte=1"`
	BonusMoveSteps       int        `json:"bonusMoveSteps" yaml:"bonusMoveSteps" validate:"gte=0"`
	StarChallengeLength  int        `json:"starChallengeLength" yaml:"starChallengeLength" validate:"gte=1"`
	DuelTimeLimitSec     int        `json:"duelTimeLimitSec" yaml:"duelTimeLimitSec" validate:"gte=1"`
	RollTimeoutSec       int        `json:"rollTimeoutSec" yaml:"rollTimeoutSec" validate:"gte=0"`
	StartingCoins        int        `json:"startingCoins" yaml:"startingCoins" validate:"gte=0"`
	DuelPolicy           DuelPolicy `json:"duelPolicy,omitempty" yaml:"duelPolicy"`
}

// DefaultSessionConfig returns the values used when nothing is configured.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxPlayers:           40,
		TimeLimitSec:         20,
		PointsPerQuestion:    1000,
		SpeedBonus:           true,
		SpeedWeight:          0.5,
		ComboBonus:           true,
		ComboStep:            0.1,
		ComboCap:             5,
		CountdownTicks:       3,
		LeaderboardPauseSec:  5,
		GracePeriodSec:       60,
		FinishedRetentionSec: 30,
		MaxRounds:            5,
		BonusMoveSteps:       2,
		StarChallengeLength:  2,
		DuelTimeLimitSec:     15,
		RollTimeoutSec:       30,
		StartingCoins:        10,
		DuelPolicy:           DuelSingleQuestion,
	}
}

// Player is a participant of one room. Owned by the room actor.
type Player struct {
	ID          string
	Nickname    string
	Avatar      string
	JoinOrder   int
	JoinedAt    time.Time
	Connected   bool
	Ready       bool
	Score       int
	ComboStreak int
	Answers     map[string]AnswerRecord

	// board mode
	Position     int
	Stars        int
	Coins        int
	SkipNextTurn bool
}

// PublicPlayer is the broadcast-safe view of a player.
type PublicPlayer struct {
	ID           string `json:"id"`
	Nickname     string `json:"nickname"`
	Avatar       string `json:"avatar,omitempty"`
	Connected    bool   `json:"connected"`
	Ready        bool   `json:"ready"`
	Score        int    `json:"score"`
	ComboStreak  int    `json:"comboStreak"`
	Position     int    `json:"position,omitempty"`
	Stars        int    `json:"stars"`
	Coins        int    `json:"coins"`
	SkipNextTurn bool   `json:"skipNextTurn,omitempty"`
}

// Public returns the broadcast-safe view of p.
func (p *Player) Public() PublicPlayer {
	return PublicPlayer{
		ID:           p.ID,
		Nickname:     p.Nickname,
		Avatar:       p.Avatar,
		Connected:    p.Connected,
		Ready:        p.Ready,
		Score:        p.Score,
		ComboStreak:  p.ComboStreak,
		Position:     p.Position,
		Stars:        p.Stars,
		Coins:        p.Coins,
		SkipNextTurn: p.SkipNextTurn,
	}
}

// PointsBreakdown explains how the points of one answer were computed.
type PointsBreakdown struct {
	Base            int     `json:"base"`
	SpeedBonus      int     `json:"speedBonus"`
	ComboMultiplier float64 `json:"comboMultiplier"`
	Total           int     `json:"total"`
}

// AnswerRecord is what a room keeps per (player, question).
type AnswerRecord struct {
	QuestionID string          `json:"questionId"`
	Answered   bool            `json:"answered"`
	Correct    bool            `json:"correct"`
	Points     int             `json:"points"`
	Elapsed    time.Duration   `json:"elapsed"`
	Breakdown  PointsBreakdown `json:"breakdown"`
}

// AnswerSubmission is an inbound answer for the open question.
type AnswerSubmission struct {
	PlayerID   string
	QuestionID string
	Answer     json.RawMessage
	// TimeTaken is the client's own measure; scoring uses the server clock.
	TimeTaken time.Duration
}

// AnswerResult summarizes the outcome of a submission for a single player.
type AnswerResult struct {
	QuestionID    string          `json:"questionId"`
	IsCorrect     bool            `json:"isCorrect"`
	Points        int             `json:"points"`
	Breakdown     PointsBreakdown `json:"breakdown"`
	ComboStreak   int             `json:"comboStreak"`
	TotalScore    int             `json:"totalScore"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty"`
}

// LeaderboardEntry is one ranked row. Ranks are 1-based with no gaps.
type LeaderboardEntry struct {
	PlayerID    string `json:"playerId"`
	Nickname    string `json:"nickname"`
	Avatar      string `json:"avatar,omitempty"`
	Score       int    `json:"score"`
	Rank        int    `json:"rank"`
	ComboStreak int    `json:"comboStreak"`
	Stars       int    `json:"stars,omitempty"`
	Coins       int    `json:"coins,omitempty"`
}

// JoinRequest is an inbound game:join.
type JoinRequest struct {
	PlayerID string
	Nickname string
	Avatar   string
}
