package board

import (
	"encoding/json"
	"fmt"

	"classroom-game-service/internal/domain"
	"classroom-game-service/internal/scoring"
)

// Deck supplies questions for question, star and duel tiles.
type Deck interface {
	Draw() (domain.Question, bool)
	Check(q domain.Question, answer json.RawMessage) (bool, error)
	TimeLimit(q domain.Question) int
}

// Dice is the server-side random source. *rand.Rand from math/rand/v2 satisfies it.
type Dice interface {
	IntN(n int) int
}

// QuestionDeck cycles through a pool in a shuffled order and reshuffles when exhausted.
type QuestionDeck struct {
	pool         []domain.Question
	order        []int
	next         int
	defaultLimit int
	dice         Dice
}

// NewDeck returns a deck over pool. defaultLimit applies to questions without their own limit.
func NewDeck(pool []domain.Question, defaultLimit int, dice Dice) *QuestionDeck {
	d := &QuestionDeck{pool: pool, defaultLimit: defaultLimit, dice: dice}
	d.shuffle()
	return d
}

func (d *QuestionDeck) shuffle() {
	d.order = make([]int, len(d.pool))
	for i := range d.order {
		d.order[i] = i
	}
	for i := len(d.order) - 1; i > 0; i-- {
		j := d.dice.IntN(i + 1)
		d.order[i], d.order[j] = d.order[j], d.order[i]
	}
	d.next = 0
}

func (d *QuestionDeck) Draw() (domain.Question, bool) {
	if len(d.pool) == 0 {
		return domain.Question{}, false
	}
	if d.next >= len(d.order) {
		d.shuffle()
	}
	q := d.pool[d.order[d.next]]
	d.next++
	return q, true
}

func (d *QuestionDeck) Check(q domain.Question, answer json.RawMessage) (bool, error) {
	canonical, err := scoring.Canonical(q)
	if err != nil {
		return false, err
	}
	submitted, err := scoring.ParseAnswer(q.Type, answer)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrInvalidAnswer, err)
	}
	return scoring.IsCorrect(canonical, submitted), nil
}

func (d *QuestionDeck) TimeLimit(q domain.Question) int {
	if q.TimeLimitSec > 0 {
		return q.TimeLimitSec
	}
	return d.defaultLimit
}
