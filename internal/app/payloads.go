package app

import (
	"encoding/json"
	"time"

	"classroom-game-service/internal/board"
	"classroom-game-service/internal/domain"
)

type countdownPayload struct {
	Remaining int `json:"remaining"`
}

type timerPayload struct {
	TimeRemaining int    `json:"timeRemaining"`
	QuestionID    string `json:"questionId"`
}

type timeoutPayload struct {
	QuestionID string `json:"questionId"`
}

type closedPayload struct {
	Message string `json:"message"`
}

type playerPayload struct {
	Player domain.PublicPlayer `json:"player"`
	Count  int                 `json:"count,omitempty"`
}

type startedPayload struct {
	Mode           domain.Mode           `json:"mode"`
	TotalQuestions int                   `json:"totalQuestions"`
	Players        []domain.PublicPlayer `json:"players"`
}

type resultsPayload struct {
	QuestionID    string                    `json:"questionId"`
	CorrectAnswer json.RawMessage           `json:"correctAnswer,omitempty"`
	Leaderboard   []domain.LeaderboardEntry `json:"leaderboard"`
	Stats         domain.QuestionStats      `json:"stats"`
}

type leaderboardPayload struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

type finishedPayload struct {
	Leaderboard    []domain.LeaderboardEntry `json:"leaderboard"`
	TotalQuestions int                       `json:"totalQuestions"`
	Rewards        []domain.Reward           `json:"rewards"`
}

// State is the full room snapshot served by mario:get_state and GET /rooms/{code}.
type State struct {
	Code           string                    `json:"code"`
	SessionID      string                    `json:"sessionId"`
	Mode           domain.Mode               `json:"mode"`
	Phase          domain.Phase              `json:"phase"`
	OwnerID        string                    `json:"ownerId"`
	Config         domain.SessionConfig      `json:"config"`
	Players        []domain.PublicPlayer     `json:"players"`
	QuestionNumber int                       `json:"questionNumber,omitempty"`
	TotalQuestions int                       `json:"totalQuestions"`
	Question       *domain.QuestionView      `json:"question,omitempty"`
	TimeRemaining  int                       `json:"timeRemaining,omitempty"`
	Leaderboard    []domain.LeaderboardEntry `json:"leaderboard"`
	Board          *board.State              `json:"board,omitempty"`
	StartedAt      *time.Time                `json:"startedAt,omitempty"`
}

// State returns a snapshot of the room. It is safe to poll.
func (r *Room) State() (State, error) {
	var s State
	err := r.do(func() error {
		s = r.snapshot()
		return nil
	})
	return s, err
}

func (r *Room) snapshot() State {
	s := State{
		Code:           r.code,
		SessionID:      r.sessionID,
		Mode:           r.mode,
		Phase:          r.phase,
		OwnerID:        r.ownerID,
		Config:         r.cfg,
		Players:        r.publicPlayers(),
		TotalQuestions: len(r.questions),
		Leaderboard:    r.ranking,
	}
	if s.Leaderboard == nil {
		s.Leaderboard = r.rank()
	}
	if !r.startedAt.IsZero() {
		started := r.startedAt
		s.StartedAt = &started
	}
	if r.qIndex >= 0 {
		s.QuestionNumber = r.qIndex + 1
	}
	if r.phase == domain.PhaseQuestion || r.phase == domain.PhaseCountdown {
		s.TimeRemaining = r.ticks
	}
	if r.phase == domain.PhaseQuestion {
		q := r.current()
		view := domain.NewQuestionView(q, timeLimit(q, r.cfg))
		view.QuestionNumber = r.qIndex + 1
		view.TotalQuestions = len(r.questions)
		s.Question = &view
	}
	if r.game != nil {
		bs := r.game.Snapshot()
		s.Board = &bs
	}
	return s
}
