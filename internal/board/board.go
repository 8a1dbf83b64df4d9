// Package board implements the turn-based board mode: a cyclic track of
// casillas, server-side dice, tile events, a star economy and duels.
package board

import (
	"fmt"

	"classroom-game-service/internal/domain"
)

// Validate rejects boards that cannot host a game.
func Validate(b *domain.Board) error {
	if b == nil {
		return fmt.Errorf("%w: board is required", domain.ErrInvalidConfig)
	}
	if b.TotalTiles() < 2 {
		return fmt.Errorf("%w: board needs at least 2 tiles, got %d", domain.ErrInvalidConfig, b.TotalTiles())
	}
	for i, t := range b.Tiles {
		if !t.Valid() {
			return fmt.Errorf("%w: tile %d has unknown type %q", domain.ErrInvalidConfig, i+1, t)
		}
	}
	if len(b.StarPositions()) == 0 {
		return fmt.Errorf("%w: board has no star tiles", domain.ErrInvalidConfig)
	}
	return nil
}

// NeedsQuestions reports whether any tile draws from the question pool.
func NeedsQuestions(b *domain.Board) bool {
	for _, t := range b.Tiles {
		switch t {
		case domain.TileQuestion, domain.TileStar, domain.TileDuel:
			return true
		}
	}
	return false
}

// Move advances a 1-based position around a cycle of total tiles.
func Move(position, steps, total int) int {
	if total <= 0 {
		return position
	}
	next := (position - 1 + steps) % total
	if next < 0 {
		next += total
	}
	return next + 1
}
