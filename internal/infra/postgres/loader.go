package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"classroom-game-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader loads quiz JSONB from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	if quiz.ID == "" {
		quiz.ID = quizID
	}
	return quiz, nil
}

// BoardLoader loads board rows (theme plus JSONB tile list) from Postgres.
type BoardLoader struct {
	pool *pgxpool.Pool
}

func NewBoardLoader(pool *pgxpool.Pool) *BoardLoader {
	return &BoardLoader{pool: pool}
}

func (l *BoardLoader) LoadBoard(ctx context.Context, boardID string) (domain.Board, error) {
	var (
		theme string
		raw   []byte
	)
	err := l.pool.QueryRow(ctx, `SELECT theme, tiles FROM boards WHERE id=$1`, boardID).Scan(&theme, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Board{}, domain.ErrBoardNotFound
	}
	if err != nil {
		return domain.Board{}, fmt.Errorf("load board: %w", err)
	}
	b := domain.Board{ID: boardID, Theme: theme}
	if err := json.Unmarshal(raw, &b.Tiles); err != nil {
		return domain.Board{}, fmt.Errorf("unmarshal board tiles: %w", err)
	}
	return b, nil
}
