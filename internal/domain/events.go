package domain

import "time"

// Outbound event names broadcast to room members.
const (
	EventGameStarted        = "game:started"
	EventGameCountdown      = "game:countdown"
	EventQuestionNew        = "question:new"
	EventTimerTick          = "timer:tick"
	EventQuestionTimeout    = "question:timeout"
	EventQuestionResults    = "question:results"
	EventLeaderboardUpdate  = "leaderboard:update"
	EventGameFinished       = "game:finished"
	EventGameClosed         = "game:closed"
	EventPlayerJoined       = "player:joined"
	EventPlayerLeft         = "player:left"
	EventPlayerReady        = "player:ready"
	EventPlayerDisconnected = "player:disconnected"
	EventPlayerReconnected  = "player:reconnected"

	EventMarioGameStarted  = "mario:game_started"
	EventMarioDiceRolled   = "mario:dice_rolled"
	EventMarioPlayerMoved  = "mario:player_moved"
	EventMarioCasilla      = "mario:casilla_event"
	EventMarioTurnChanged  = "mario:turn_changed"
	EventMarioBonusMove    = "mario:bonus_move"
	EventMarioStarWon      = "mario:star_won"
	EventMarioDuelStarted  = "mario:duel_started"
	EventMarioDuelFinished = "mario:duel_finished"
	EventMarioGameFinished = "mario:game_finished"
)

// Inbound event names accepted from clients.
const (
	EventGameJoin        = "game:join"
	EventGameReady       = "game:ready"
	EventGameStart       = "game:start"
	EventGameLeave       = "game:leave"
	EventGameClose       = "game:close"
	EventAnswerSubmit    = "answer:submit"
	EventMarioRollDice   = "mario:roll_dice"
	EventMarioMove       = "mario:move"
	EventMarioAnswer     = "mario:answer_question"
	EventMarioSelectDuel = "mario:select_duel_opponent"
	EventMarioNextTurn   = "mario:next_turn"
	EventMarioGetState   = "mario:get_state"
)

// EventAck is the reply sent only to the connection that issued an inbound event.
const EventAck = "ack"

// Event is one outbound message for every subscriber of a room.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// PublicOption is an option without its correctness flag.
type PublicOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionView is what clients see of a question. Field names follow the client contract.
type QuestionView struct {
	QuestionNumber int            `json:"questionNumber,omitempty"`
	TotalQuestions int            `json:"totalQuestions,omitempty"`
	QuestionID     string         `json:"questionId"`
	Texto          string         `json:"texto"`
	Type           AnswerType     `json:"type"`
	TimeLimit      int            `json:"timeLimit"`
	Opciones       []PublicOption `json:"opciones"`
}

// NewQuestionView strips canonical answers from q.
func NewQuestionView(q Question, timeLimit int) QuestionView {
	opts := make([]PublicOption, 0, len(q.Options))
	for _, o := range q.Options {
		opts = append(opts, PublicOption{ID: o.ID, Text: o.Text})
	}
	return QuestionView{
		QuestionID: q.ID,
		Texto:      q.Prompt,
		Type:       q.Type,
		TimeLimit:  timeLimit,
		Opciones:   opts,
	}
}
