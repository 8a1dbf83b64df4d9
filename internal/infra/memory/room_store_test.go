package memory

import (
	"context"
	"errors"
	"testing"

	"classroom-game-service/internal/app"
	"classroom-game-service/internal/domain"
)

func TestRoomStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewRoomStore()
	first, second := &app.Room{}, &app.Room{}

	if err := store.Add(ctx, "ABC123", first); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(ctx, "ABC123", second); !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected duplicate code to be rejected, got %v", err)
	}
	if got, ok := store.Get("ABC123"); !ok || got != first {
		t.Fatalf("expected first room present")
	}

	store.Remove(ctx, "ABC123", second)
	if _, ok := store.Get("ABC123"); !ok {
		t.Fatalf("remove of a different instance must not drop the live room")
	}
	if len(store.List()) != 1 || store.Len() != 1 {
		t.Fatalf("expected one room listed")
	}

	store.Remove(ctx, "ABC123", first)
	if _, ok := store.Get("ABC123"); ok {
		t.Fatalf("expected room removed")
	}
}
