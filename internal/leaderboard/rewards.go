package leaderboard

import (
	"math"

	"classroom-game-service/internal/domain"
)

var podiumExperience = map[int]int{1: 150, 2: 100, 3: 50}

// Rewards computes final payouts from a settled leaderboard and each player's
// accuracy in [0,1]. It must only be called once the ranking is final.
func Rewards(final []domain.LeaderboardEntry, accuracy map[string]float64) []domain.Reward {
	out := make([]domain.Reward, 0, len(final))
	for _, e := range final {
		acc := math.Max(0, math.Min(1, accuracy[e.PlayerID]))
		xp := 100 + int(math.Round(acc*200)) + podiumExperience[e.Rank]
		currency := 10 + int(math.Round(acc*40))
		trophies := 0
		if e.Rank <= 3 {
			trophies = 4 - e.Rank
		}
		out = append(out, domain.Reward{
			PlayerID:   e.PlayerID,
			Rank:       e.Rank,
			Accuracy:   acc,
			Experience: xp,
			Currency:   currency,
			Trophies:   trophies,
		})
	}
	return out
}

// Accuracy returns the share of correct answers across the given questions.
// Questions a player never saw count as incorrect.
func Accuracy(players []*domain.Player, questionIDs []string) map[string]float64 {
	out := make(map[string]float64, len(players))
	for _, p := range players {
		if len(questionIDs) == 0 {
			out[p.ID] = 0
			continue
		}
		correct := 0
		for _, id := range questionIDs {
			if rec, ok := p.Answers[id]; ok && rec.Correct {
				correct++
			}
		}
		out[p.ID] = float64(correct) / float64(len(questionIDs))
	}
	return out
}
