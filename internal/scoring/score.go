// Package scoring turns an accepted submission into points.
//
// Compute is a pure function; Apply is the only place a player's score and
// combo streak change in quiz mode.
package scoring

import (
	"math"
	"time"

	"classroom-game-service/internal/domain"
)

// Config holds the bonus switches of a session.
type Config struct {
	SpeedBonus  bool
	SpeedWeight float64
	ComboBonus  bool
	ComboStep   float64
	ComboCap    int
}

// ConfigFrom extracts the scoring part of a session configuration.
func ConfigFrom(c domain.SessionConfig) Config {
	return Config{
		SpeedBonus:  c.SpeedBonus,
		SpeedWeight: c.SpeedWeight,
		ComboBonus:  c.ComboBonus,
		ComboStep:   c.ComboStep,
		ComboCap:    c.ComboCap,
	}
}

// Input is everything the score of one answer depends on.
type Input struct {
	Correct     bool
	BasePoints  int
	TimeLimit   time.Duration
	Elapsed     time.Duration
	ComboStreak int // streak before this answer
}

// Outcome is the points breakdown and the streak after the answer.
type Outcome struct {
	Breakdown   domain.PointsBreakdown
	ComboStreak int
}

// Compute scores one answer.
func Compute(in Input, cfg Config) Outcome {
	if !in.Correct {
		return Outcome{Breakdown: domain.PointsBreakdown{ComboMultiplier: 1}}
	}

	base := in.BasePoints
	speed := 0
	if cfg.SpeedBonus && in.TimeLimit > 0 {
		remaining := float64(in.TimeLimit-in.Elapsed) / float64(in.TimeLimit)
		remaining = math.Min(1, math.Max(0, remaining))
		speed = int(math.Round(float64(base) * remaining * cfg.SpeedWeight))
	}

	multiplier := 1.0
	if cfg.ComboBonus {
		streak := in.ComboStreak
		if streak > cfg.ComboCap {
			streak = cfg.ComboCap
		}
		if streak < 0 {
			streak = 0
		}
		multiplier = 1 + float64(streak)*cfg.ComboStep
	}

	return Outcome{
		Breakdown: domain.PointsBreakdown{
			Base:            base,
			SpeedBonus:      speed,
			ComboMultiplier: multiplier,
			Total:           int(math.Round(float64(base+speed) * multiplier)),
		},
		ComboStreak: in.ComboStreak + 1,
	}
}

// Apply adds an outcome to the player's cumulative score and sets the streak.
func Apply(p *domain.Player, o Outcome) {
	p.Score += o.Breakdown.Total
	p.ComboStreak = o.ComboStreak
}
