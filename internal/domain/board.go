package domain

// TileType tags a casilla on the board.
type TileType string

const (
	TileNormal   TileType = "normal"
	TileQuestion TileType = "question"
	TileStar     TileType = "star"
	TileEvent    TileType = "event"
	TileTrap     TileType = "trap"
	TileDuel     TileType = "duel"
)

// Valid reports whether t is one of the six known tile types.
func (t TileType) Valid() bool {
	switch t {
	case TileNormal, TileQuestion, TileStar, TileEvent, TileTrap, TileDuel:
		return true
	}
	return false
}

// Board is loaded once per board-mode session and shared read-only by every player.
// Tiles[i] is the type of position i+1.
type Board struct {
	ID    string     `json:"id"`
	Theme string     `json:"theme"`
	Tiles []TileType `json:"tiles"`
}

// TotalTiles is the length of the board cycle.
func (b *Board) TotalTiles() int {
	return len(b.Tiles)
}

// TileAt returns the type of the 1-based position.
func (b *Board) TileAt(position int) TileType {
	if position < 1 || position > len(b.Tiles) {
		return TileNormal
	}
	return b.Tiles[position-1]
}

// StarPositions lists the 1-based positions of star tiles.
func (b *Board) StarPositions() []int {
	var out []int
	for i, t := range b.Tiles {
		if t == TileStar {
			out = append(out, i+1)
		}
	}
	return out
}

// DuelState exists only while a duel tile is being resolved.
type DuelState struct {
	ChallengerID    string          `json:"challengerId"`
	OpponentID      string          `json:"opponentId"`
	QuestionID      string          `json:"questionId"`
	// Answers maps a duelist to the correctness of their answer.
	Answers         map[string]bool `json:"-"`
	WinnerID        string          `json:"winner,omitempty"`
	LoserID         string          `json:"loser,omitempty"`
	StarTransferred bool            `json:"starTransferred"`
}
