package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no live room exists for a code.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrSessionExists is returned when a live room already owns the code.
	ErrSessionExists = errors.New("game session already exists")
	// ErrPlayerNotFound is returned when a player acts before joining.
	ErrPlayerNotFound = errors.New("player not found in room")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrBoardNotFound indicates the board definition could not be loaded.
	ErrBoardNotFound = errors.New("board not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrResultsNotFound is returned when no settled results are retained for a room.
	ErrResultsNotFound = errors.New("results not found")
	// ErrInvalidConfig wraps every validation failure at session creation.
	ErrInvalidConfig = errors.New("invalid session configuration")

	ErrRoomFull          = errors.New("room is full")
	ErrRoomClosed        = errors.New("room is closed")
	ErrGameFinished      = errors.New("game already finished")
	ErrLateJoinDisabled  = errors.New("game already started")
	ErrNicknameTaken     = errors.New("nickname already taken")
	ErrAvatarTaken       = errors.New("avatar already taken")
	ErrInvalidNickname   = errors.New("nickname is required")
	ErrNotOwner          = errors.New("only the room owner can do that")
	ErrWrongPhase        = errors.New("action not allowed in current phase")
	ErrNoPlayers         = errors.New("no connected players")
	ErrAlreadyAnswered   = errors.New("answer already submitted")
	ErrTooLate           = errors.New("answer arrived after the deadline")
	ErrInvalidAnswer     = errors.New("answer does not match question type")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrAlreadyRolled     = errors.New("dice already rolled this turn")
	ErrInvalidOpponent   = errors.New("invalid duel opponent")
	ErrNoPendingQuestion = errors.New("no question pending for player")
	ErrNotClientAction   = errors.New("action cannot be triggered by clients")
	ErrRateLimited       = errors.New("too many requests")
	ErrInvalidPayload    = errors.New("malformed event payload")
	ErrUnknownEvent      = errors.New("unknown event")
)

var reasonCodes = map[error]string{
	ErrSessionNotFound:   "room_not_found",
	ErrSessionExists:     "room_exists",
	ErrPlayerNotFound:    "player_not_found",
	ErrQuestionNotFound:  "question_not_found",
	ErrInvalidConfig:     "invalid_config",
	ErrRoomFull:          "room_full",
	ErrRoomClosed:        "room_closed",
	ErrGameFinished:      "game_finished",
	ErrLateJoinDisabled:  "late_join_disabled",
	ErrNicknameTaken:     "nickname_taken",
	ErrAvatarTaken:       "avatar_taken",
	ErrInvalidNickname:   "invalid_nickname",
	ErrNotOwner:          "not_owner",
	ErrWrongPhase:        "wrong_phase",
	ErrNoPlayers:         "no_players",
	ErrAlreadyAnswered:   "already_answered",
	ErrTooLate:           "too_late",
	ErrInvalidAnswer:     "invalid_answer",
	ErrNotYourTurn:       "not_your_turn",
	ErrAlreadyRolled:     "already_rolled",
	ErrInvalidOpponent:   "invalid_opponent",
	ErrNoPendingQuestion: "no_pending_question",
	ErrNotClientAction:   "not_client_action",
	ErrRateLimited:       "rate_limited",
	ErrInvalidPayload:    "invalid_payload",
	ErrUnknownEvent:      "unknown_event",
	ErrQuizNotFound:      "quiz_not_found",
	ErrBoardNotFound:     "board_not_found",
	ErrResultsNotFound:   "results_not_found",
}

// ReasonCode maps an error to the stable code sent back in rejection acks.
func ReasonCode(err error) string {
	if err == nil {
		return ""
	}
	for target, code := range reasonCodes {
		if errors.Is(err, target) {
			return code
		}
	}
	return "internal"
}

// IsRejection reports whether err is an expected, non-fatal rejection of a player action.
func IsRejection(err error) bool {
	code := ReasonCode(err)
	return code != "" && code != "internal"
}
