package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"classroom-game-service/internal/domain"
	infraredis "classroom-game-service/internal/infra/redis"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestPrintLeaderboard(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	mirror := infraredis.NewLeaderboardMirror(client, time.Hour)
	err = mirror.Publish(ctx, "ROOM1", []domain.LeaderboardEntry{
		{PlayerID: "a", Nickname: "Ana", Score: 900, Rank: 1},
		{PlayerID: "b", Nickname: "Bo", Score: 400, Rank: 2},
		{PlayerID: "c", Nickname: "Cy", Score: 100, Rank: 3},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	var out bytes.Buffer
	if err := printLeaderboard(ctx, &out, mirror, " room1 ", 2); err != nil {
		t.Fatalf("print: %v", err)
	}
	dec := json.NewDecoder(&out)
	var got []domain.LeaderboardEntry
	for dec.More() {
		var e domain.LeaderboardEntry
		if err := dec.Decode(&e); err != nil {
			t.Fatalf("decode: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != 2 || got[0].Nickname != "Ana" || got[1].PlayerID != "b" || got[1].Rank != 2 {
		t.Fatalf("unexpected leaderboard: %+v", got)
	}

	if err := printLeaderboard(ctx, &out, mirror, "ROOM1", 0); err == nil {
		t.Fatalf("expected an error for a non-positive --top")
	}
}
