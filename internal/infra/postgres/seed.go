package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"classroom-game-service/internal/domain"
	"github.com/uptrace/bun"
)

// SaveQuiz upserts a quiz document. Used by seeding and tests.
func SaveQuiz(ctx context.Context, db bun.IDB, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO quizzes (id, data) VALUES (?, ?::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`,
		quiz.ID, string(data))
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

// SaveBoard upserts a board definition.
func SaveBoard(ctx context.Context, db bun.IDB, b domain.Board) error {
	tiles, err := json.Marshal(b.Tiles)
	if err != nil {
		return fmt.Errorf("marshal tiles: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO boards (id, theme, tiles) VALUES (?, ?, ?::jsonb)
		 ON CONFLICT (id) DO UPDATE SET theme=EXCLUDED.theme, tiles=EXCLUDED.tiles`,
		b.ID, b.Theme, string(tiles))
	if err != nil {
		return fmt.Errorf("insert board: %w", err)
	}
	return nil
}
