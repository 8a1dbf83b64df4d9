package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"classroom-game-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ResultStore retains settled results under room:{code}:results until they are
// read once or the TTL lapses.
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{client: client, ttl: ttl}
}

func (s *ResultStore) Save(ctx context.Context, results domain.RoomResults) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return s.client.Set(ctx, s.key(results.Code), raw, s.ttl).Err()
}

func (s *ResultStore) Take(ctx context.Context, code string) (domain.RoomResults, error) {
	raw, err := s.client.GetDel(ctx, s.key(code)).Bytes()
	if err == redis.Nil {
		return domain.RoomResults{}, domain.ErrResultsNotFound
	}
	if err != nil {
		return domain.RoomResults{}, err
	}
	var results domain.RoomResults
	if err := json.Unmarshal(raw, &results); err != nil {
		return domain.RoomResults{}, fmt.Errorf("decode results: %w", err)
	}
	return results, nil
}

func (s *ResultStore) key(code string) string {
	return "room:" + code + ":results"
}
