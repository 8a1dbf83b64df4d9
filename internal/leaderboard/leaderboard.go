// Package leaderboard derives rankings from settled player state.
//
// Rankings are always recomputed from scratch; nothing here patches a
// previous ordering.
package leaderboard

import (
	"sort"

	"classroom-game-service/internal/domain"
)

// Rank orders quiz players by score, then combo streak, then join order.
func Rank(players []*domain.Player) []domain.LeaderboardEntry {
	sorted := sortedCopy(players, func(a, b *domain.Player) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return b.ComboStreak - a.ComboStreak
	})
	return entries(sorted)
}

// RankBoard orders board players by stars, then coins, then join order.
func RankBoard(players []*domain.Player) []domain.LeaderboardEntry {
	sorted := sortedCopy(players, func(a, b *domain.Player) int {
		if a.Stars != b.Stars {
			return b.Stars - a.Stars
		}
		return b.Coins - a.Coins
	})
	return entries(sorted)
}

// sortedCopy sorts by cmp and falls back to join order so the result is a total order.
func sortedCopy(players []*domain.Player, cmp func(a, b *domain.Player) int) []*domain.Player {
	out := make([]*domain.Player, len(players))
	copy(out, players)
	sort.SliceStable(out, func(i, j int) bool {
		if c := cmp(out[i], out[j]); c != 0 {
			return c < 0
		}
		if out[i].JoinOrder != out[j].JoinOrder {
			return out[i].JoinOrder < out[j].JoinOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func entries(sorted []*domain.Player) []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, 0, len(sorted))
	for i, p := range sorted {
		out = append(out, domain.LeaderboardEntry{
			PlayerID:    p.ID,
			Nickname:    p.Nickname,
			Avatar:      p.Avatar,
			Score:       p.Score,
			Rank:        i + 1,
			ComboStreak: p.ComboStreak,
			Stars:       p.Stars,
			Coins:       p.Coins,
		})
	}
	return out
}
