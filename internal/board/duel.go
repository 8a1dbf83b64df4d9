package board

import "classroom-game-service/internal/domain"

// DuelOutcome names the winner and loser of a settled duel; both are empty on a tie.
type DuelOutcome struct {
	WinnerID string
	LoserID  string
}

// Decide applies the duel policy to the recorded answers. A missing answer
// counts as incorrect.
func Decide(policy domain.DuelPolicy, d *domain.DuelState) DuelOutcome {
	switch policy {
	case domain.DuelSingleQuestion, "":
		challenger := d.Answers[d.ChallengerID]
		opponent := d.Answers[d.OpponentID]
		switch {
		case challenger && !opponent:
			return DuelOutcome{WinnerID: d.ChallengerID, LoserID: d.OpponentID}
		case opponent && !challenger:
			return DuelOutcome{WinnerID: d.OpponentID, LoserID: d.ChallengerID}
		}
	}
	return DuelOutcome{}
}

// TransferStar moves one star from loser to winner and reports whether it did.
// A starless loser gives nothing.
func TransferStar(winner, loser *domain.Player) bool {
	if winner == nil || loser == nil || loser.Stars <= 0 {
		return false
	}
	loser.Stars--
	winner.Stars++
	return true
}
