package redis

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"classroom-game-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz content from a backing store (e.g., document DB).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// BoardLoader fetches board definitions from a backing store.
type BoardLoader interface {
	LoadBoard(ctx context.Context, boardID string) (domain.Board, error)
}

// jsonCache keeps one JSON document per key and falls back to load on a miss.
// Concurrent misses for the same key share one load.
type jsonCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	sf     singleflight.Group
}

func (c *jsonCache[T]) get(ctx context.Context, id string, load func(context.Context) (T, error)) (T, error) {
	key := c.prefix + id
	if v, ok := c.read(ctx, key); ok {
		return v, nil
	}
	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if v, ok := c.read(ctx, key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		if raw, err := json.Marshal(v); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (c *jsonCache[T]) read(ctx context.Context, key string) (T, bool) {
	var v T
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

func (c *jsonCache[T]) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int64N(jitterMax+1))
}

// QuizRepository caches whole quizzes in Redis as JSON under quiz:{quizID}.
type QuizRepository struct {
	loader QuizLoader
	cache  *jsonCache[domain.Quiz]
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		cache:  &jsonCache[domain.Quiz]{client: client, prefix: "quiz:", ttl: ttl},
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return r.cache.get(ctx, quizID, func(ctx context.Context) (domain.Quiz, error) {
		return r.loader.LoadQuiz(ctx, quizID)
	})
}

// BoardRepository caches board definitions under board:{boardID}.
type BoardRepository struct {
	loader BoardLoader
	cache  *jsonCache[domain.Board]
}

func NewBoardRepository(client *redis.Client, loader BoardLoader, ttl time.Duration) *BoardRepository {
	return &BoardRepository{
		loader: loader,
		cache:  &jsonCache[domain.Board]{client: client, prefix: "board:", ttl: ttl},
	}
}

func (r *BoardRepository) GetBoard(ctx context.Context, boardID string) (domain.Board, error) {
	return r.cache.get(ctx, boardID, func(ctx context.Context) (domain.Board, error) {
		return r.loader.LoadBoard(ctx, boardID)
	})
}
