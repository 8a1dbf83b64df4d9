package redis

import (
	"context"
	"time"

	"classroom-game-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// LeaderboardMirror copies room rankings into a sorted set per room:
//
//	ZADD room:{code}:lb {score} {playerID}
//	HSET room:{code}:lb:names {playerID} {nickname}
//
// The engine stays the source of truth; the mirror only serves outside readers.
type LeaderboardMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardMirror(client *redis.Client, ttl time.Duration) *LeaderboardMirror {
	return &LeaderboardMirror{client: client, ttl: ttl}
}

func (m *LeaderboardMirror) Publish(ctx context.Context, code string, entries []domain.LeaderboardEntry) error {
	key, names := m.key(code), m.namesKey(code)
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key, names)
		if len(entries) == 0 {
			return nil
		}
		members := make([]redis.Z, 0, len(entries))
		fields := make([]interface{}, 0, 2*len(entries))
		for _, e := range entries {
			members = append(members, redis.Z{Score: float64(e.Score), Member: e.PlayerID})
			fields = append(fields, e.PlayerID, e.Nickname)
		}
		pipe.ZAdd(ctx, key, members...)
		pipe.HSet(ctx, names, fields...)
		if m.ttl > 0 {
			pipe.Expire(ctx, key, m.ttl)
			pipe.Expire(ctx, names, m.ttl)
		}
		return nil
	})
	return err
}

func (m *LeaderboardMirror) Clear(ctx context.Context, code string) error {
	return m.client.Del(ctx, m.key(code), m.namesKey(code)).Err()
}

// Top reads the n best entries back, highest score first.
func (m *LeaderboardMirror) Top(ctx context.Context, code string, n int64) ([]domain.LeaderboardEntry, error) {
	zs, err := m.client.ZRevRangeWithScores(ctx, m.key(code), 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	names, err := m.client.HGetAll(ctx, m.namesKey(code)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		id, _ := z.Member.(string)
		out = append(out, domain.LeaderboardEntry{
			PlayerID: id,
			Nickname: names[id],
			Score:    int(z.Score),
			Rank:     i + 1,
		})
	}
	return out, nil
}

func (m *LeaderboardMirror) key(code string) string {
	return "room:" + code + ":lb"
}

func (m *LeaderboardMirror) namesKey(code string) string {
	return "room:" + code + ":lb:names"
}
