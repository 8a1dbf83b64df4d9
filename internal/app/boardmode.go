package app

import (
	"encoding/json"
	"fmt"

	"classroom-game-service/internal/board"
	"classroom-game-service/internal/domain"
)

func (r *Room) requireBoard(playerID string) error {
	if _, ok := r.players[playerID]; !ok {
		return domain.ErrPlayerNotFound
	}
	if r.mode != domain.ModeBoard {
		return fmt.Errorf("%w: room plays the quiz", domain.ErrWrongPhase)
	}
	switch r.phase {
	case domain.PhasePlaying:
		return nil
	case domain.PhaseFinished:
		return domain.ErrGameFinished
	default:
		return fmt.Errorf("%w: board game not running", domain.ErrWrongPhase)
	}
}

// afterBoardAction settles the session once the board reports max rounds.
func (r *Room) afterBoardAction() {
	if r.game == nil || r.phase != domain.PhasePlaying || !r.game.Finished() {
		return
	}
	r.finish(r.game.Rankings(), r.boardAccuracy())
}

func (r *Room) boardAccuracy() map[string]float64 {
	out := make(map[string]float64, len(r.players))
	for id := range r.players {
		t := r.boardTally[id]
		if t == nil || t.answered == 0 {
			out[id] = 0
			continue
		}
		out[id] = float64(t.correct) / float64(t.answered)
	}
	return out
}

// RollDice rolls for the turn holder. The value is always drawn by the server.
func (r *Room) RollDice(playerID string) (int, error) {
	var roll int
	err := r.do(func() error {
		if err := r.requireBoard(playerID); err != nil {
			return err
		}
		v, err := r.game.Roll(playerID)
		if err != nil {
			return err
		}
		roll = v
		r.reg.opts.Metrics.DiceRolled()
		r.afterBoardAction()
		return nil
	})
	return roll, err
}

// AnswerBoardQuestion answers the pending tile question, star step or duel.
func (r *Room) AnswerBoardQuestion(playerID, questionID string, answer json.RawMessage) (board.AnswerOutcome, error) {
	var out board.AnswerOutcome
	err := r.do(func() error {
		if err := r.requireBoard(playerID); err != nil {
			return err
		}
		o, err := r.game.Answer(playerID, questionID, answer)
		if err != nil {
			return err
		}
		out = o
		t := r.boardTally[playerID]
		if t == nil {
			t = &tally{}
			r.boardTally[playerID] = t
		}
		t.answered++
		if o.Correct {
			t.correct++
		}
		r.reg.opts.Metrics.AnswerScored(o.Correct)
		r.afterBoardAction()
		return nil
	})
	return out, err
}

// SelectDuelOpponent picks the opponent for a pending duel tile.
func (r *Room) SelectDuelOpponent(challengerID, opponentID string) error {
	return r.do(func() error {
		if err := r.requireBoard(challengerID); err != nil {
			return err
		}
		return r.game.SelectOpponent(challengerID, opponentID)
	})
}

// NextTurn ends the current turn. The holder may end it; so may the owner on their behalf.
func (r *Room) NextTurn(requesterID string) (board.TurnResult, error) {
	var res board.TurnResult
	err := r.do(func() error {
		by := requesterID
		if requesterID == r.ownerID && r.game != nil {
			by = r.game.CurrentPlayer()
		}
		if err := r.requireBoard(by); err != nil {
			return err
		}
		out, err := r.game.NextTurn(by)
		if err != nil {
			return err
		}
		res = out
		r.afterBoardAction()
		return nil
	})
	return res, err
}
