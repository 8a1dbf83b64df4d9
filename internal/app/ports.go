package app

import (
	"context"
	"math/rand/v2"
	"time"

	"classroom-game-service/internal/board"
	"classroom-game-service/internal/domain"
)

// RoomStore tracks which rooms are live (in-memory, Redis, etc).
type RoomStore interface {
	// Add registers room under code and fails with domain.ErrSessionExists when taken.
	Add(ctx context.Context, code string, room *Room) error
	Get(code string) (*Room, bool)
	// Remove drops code only while it still maps to room.
	Remove(ctx context.Context, code string, room *Room)
	List() []*Room
	Len() int
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// BoardRepository loads board definitions.
type BoardRepository interface {
	GetBoard(ctx context.Context, boardID string) (domain.Board, error)
}

// ResultStore retains settled results until the reporting read.
type ResultStore interface {
	Save(ctx context.Context, results domain.RoomResults) error
	// Take returns and discards the results of code.
	Take(ctx context.Context, code string) (domain.RoomResults, error)
}

// LeaderboardMirror publishes rankings for readers outside the engine.
type LeaderboardMirror interface {
	Publish(ctx context.Context, code string, entries []domain.LeaderboardEntry) error
	Clear(ctx context.Context, code string) error
}

// Metrics receives room lifecycle and gameplay counters.
type Metrics interface {
	RoomOpened(mode domain.Mode)
	RoomClosed(reason string)
	AnswerScored(correct bool)
	ActionRejected(reason string)
	DiceRolled()
}

// TickerCreator returns a ticker channel and its stop function.
type TickerCreator func(d time.Duration) (<-chan time.Time, func())

// SystemTicker wraps time.NewTicker.
func SystemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type systemDice struct{}

func (systemDice) IntN(n int) int {
	return rand.IntN(n)
}

// SystemDice returns the process-wide random source.
func SystemDice() board.Dice {
	return systemDice{}
}

type noopMetrics struct{}

func (noopMetrics) RoomOpened(domain.Mode) {}
func (noopMetrics) RoomClosed(string) {}
func (noopMetrics) AnswerScored(bool) {}
func (noopMetrics) ActionRejected(string) {}
func (noopMetrics) DiceRolled() {}
