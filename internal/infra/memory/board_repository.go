package memory

import (
	"context"
	"time"

	"classroom-game-service/internal/domain"
)

// BoardLoader fetches board definitions from a backing store.
type BoardLoader interface {
	LoadBoard(ctx context.Context, boardID string) (domain.Board, error)
}

// BoardRepository caches boards with TTL. Boards are read-only once loaded.
type BoardRepository struct {
	loader BoardLoader
	cache  *ttlCache[domain.Board]
}

func NewBoardRepository(loader BoardLoader, ttl time.Duration) *BoardRepository {
	return &BoardRepository{loader: loader, cache: newTTLCache[domain.Board](ttl)}
}

func (r *BoardRepository) GetBoard(ctx context.Context, boardID string) (domain.Board, error) {
	return r.cache.get(ctx, boardID, func(ctx context.Context) (domain.Board, error) {
		return r.loader.LoadBoard(ctx, boardID)
	})
}

// StaticBoardLoader serves boards from a map.
type StaticBoardLoader struct {
	boards map[string]domain.Board
}

func NewStaticBoardLoader(boards map[string]domain.Board) *StaticBoardLoader {
	return &StaticBoardLoader{boards: boards}
}

func (l *StaticBoardLoader) LoadBoard(_ context.Context, boardID string) (domain.Board, error) {
	if b, ok := l.boards[boardID]; ok {
		return b, nil
	}
	return domain.Board{}, domain.ErrBoardNotFound
}
