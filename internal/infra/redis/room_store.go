package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"classroom-game-service/internal/app"
	"classroom-game-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RoomStore keeps live rooms in a local map and claims each code in Redis, so
// two instances sharing one Redis never open the same code.
type RoomStore struct {
	client     *redis.Client
	ttl        time.Duration
	instanceID string
	mu         sync.RWMutex
	rooms      map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration, instanceID string) *RoomStore {
	return &RoomStore{
		client:     client,
		ttl:        ttl,
		instanceID: instanceID,
		rooms:      make(map[string]*app.Room),
	}
}

func (s *RoomStore) Add(ctx context.Context, code string, room *app.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; ok {
		return domain.ErrSessionExists
	}
	ok, err := s.client.SetNX(ctx, s.key(code), s.instanceID, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("claim room code: %w", err)
	}
	if !ok {
		return domain.ErrSessionExists
	}
	s.rooms[code] = room
	return nil
}

func (s *RoomStore) Get(code string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

func (s *RoomStore) Remove(ctx context.Context, code string, room *app.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rooms[code]
	if !ok || current != room {
		return
	}
	delete(s.rooms, code)
	// best-effort release of the claim
	_ = s.client.Del(ctx, s.key(code)).Err()
}

func (s *RoomStore) List() []*app.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	return out
}

func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Refresh extends the claim of every local room. Call it well inside the TTL.
func (s *RoomStore) Refresh(ctx context.Context) error {
	s.mu.RLock()
	codes := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	s.mu.RUnlock()
	if len(codes) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for _, code := range codes {
		pipe.Expire(ctx, s.key(code), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RoomStore) key(code string) string {
	return "room:session:" + code
}
