package board

// EffectKind names one entry type of the event tile table.
type EffectKind string

const (
	EffectCoinGain EffectKind = "coin_gain"
	EffectCoinLoss EffectKind = "coin_loss"
	EffectTeleport EffectKind = "teleport"
	EffectSkip     EffectKind = "skip"
)

// EventEffect is one row of the event table.
type EventEffect struct {
	Kind   EffectKind `json:"kind"`
	Amount int        `json:"amount,omitempty"`
}

// DefaultEvents is the fixed table drawn from on event tiles.
var DefaultEvents = []EventEffect{
	{Kind: EffectCoinGain, Amount: 3},
	{Kind: EffectCoinGain, Amount: 5},
	{Kind: EffectCoinLoss, Amount: 3},
	{Kind: EffectTeleport},
	{Kind: EffectSkip},
}

// Draw picks one effect uniformly from table.
func Draw(table []EventEffect, dice Dice) EventEffect {
	if len(table) == 0 {
		return EventEffect{Kind: EffectCoinGain}
	}
	return table[dice.IntN(len(table))]
}

// applyEffect mutates the moving player's coins, position or skip flag.
// Coins never go below zero. A teleport lands on a uniform random tile
// and is not resolved again.
func (g *Game) applyEffect(playerID string, eff EventEffect) int {
	p := g.players[playerID]
	switch eff.Kind {
	case EffectCoinGain:
		p.Coins += eff.Amount
	case EffectCoinLoss:
		p.Coins -= eff.Amount
		if p.Coins < 0 {
			p.Coins = 0
		}
	case EffectTeleport:
		p.Position = g.dice.IntN(g.board.TotalTiles()) + 1
	case EffectSkip:
		p.SkipNextTurn = true
	}
	return p.Position
}
