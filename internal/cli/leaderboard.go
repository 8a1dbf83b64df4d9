package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"classroom-game-service/internal/config"
	infraredis "classroom-game-service/internal/infra/redis"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewLeaderboardCmd prints the mirrored leaderboard of a live room.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var top int64
	cmd := &cobra.Command{
		Use:   "leaderboard CODE",
		Short: "Print a room's mirrored leaderboard from redis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("redis addr not configured")
			}
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()
			mirror := infraredis.NewLeaderboardMirror(client, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
			return printLeaderboard(cmd.Context(), cmd.OutOrStdout(), mirror, args[0], top)
		},
	}
	cmd.Flags().Int64Var(&top, "top", 10, "number of entries to print")
	return cmd
}

func printLeaderboard(ctx context.Context, w io.Writer, mirror *infraredis.LeaderboardMirror, code string, n int64) error {
	if n <= 0 {
		return fmt.Errorf("--top must be positive, got %d", n)
	}
	entries, err := mirror.Top(ctx, strings.ToUpper(strings.TrimSpace(code)), n)
	if err != nil {
		return fmt.Errorf("read leaderboard: %w", err)
	}
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}
