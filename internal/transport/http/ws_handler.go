package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"classroom-game-service/internal/app"
	"classroom-game-service/internal/domain"
	"classroom-game-service/internal/metrics"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
	sendBuffer     = 64
)

type WSHandler struct {
	reg      *app.Registry
	metrics  *metrics.Metrics
	log      zerolog.Logger
	limit    rate.Limit
	burst    int
	upgrader websocket.Upgrader
}

func NewWSHandler(reg *app.Registry, m *metrics.Metrics, log zerolog.Logger, eventsPerSecond float64, burst int) *WSHandler {
	limit := rate.Inf
	if eventsPerSecond > 0 {
		limit = rate.Limit(eventsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &WSHandler{
		reg:     reg,
		metrics: m,
		log:     log,
		limit:   limit,
		burst:   burst,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
	closing bool
}

type ackPayload struct {
	Event   string `json:"event"`
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// session is the per-connection view of who is talking. clientID is the
// identity claimed at connect time (the host uses its owner id); playerID is
// set once game:join succeeds.
type session struct {
	room       *app.Room
	clientID   string
	playerID   string
	attachment uint64
}

func (s *session) actor() string {
	if s.playerID != "" {
		return s.playerID
	}
	return s.clientID
}

// ServeWS upgrades GET /ws/{code} and bridges the connection to the room actor.
// Every room event is forwarded; every inbound event is answered with an ack.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	room, err := h.reg.Get(mux.Vars(r)["code"])
	if err != nil {
		writeError(w, err)
		return
	}
	events, cancel, err := room.Subscribe()
	if err != nil {
		writeError(w, err)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		h.log.Debug().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()
	if h.metrics != nil {
		h.metrics.ConnectionOpened()
		defer h.metrics.ConnectionClosed()
	}

	s := &session{room: room, clientID: r.URL.Query().Get("clientId")}
	log := h.log.With().Str("room", room.Code()).Logger()

	send := make(chan outboundMessage, sendBuffer)
	writerDone := make(chan struct{})
	readerDone := make(chan struct{})
	forwardDone := make(chan struct{})

	enqueue := func(msg outboundMessage) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	go func() {
		defer close(writerDone)
		h.writeLoop(conn, send, log)
	}()

	go func() {
		defer close(forwardDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					enqueue(outboundMessage{closing: true})
					return
				}
				if !enqueue(outboundMessage{Type: ev.Type, Payload: ev.Payload}) {
					return
				}
			case <-readerDone:
				return
			}
		}
	}()

	limiter := rate.NewLimiter(h.limit, h.burst)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("ws read error")
			}
			break
		}
		var in inboundMessage
		if err := json.Unmarshal(raw, &in); err != nil {
			enqueue(h.ack(s, log, "", nil, domain.ErrInvalidPayload))
			continue
		}
		if !limiter.Allow() {
			enqueue(h.ack(s, log, in.Type, nil, domain.ErrRateLimited))
			continue
		}
		data, err := h.dispatch(s, in)
		enqueue(h.ack(s, log, in.Type, data, err))
	}

	close(readerDone)
	<-forwardDone
	if s.playerID != "" {
		if err := room.Detach(s.playerID, s.attachment); err != nil && !errors.Is(err, domain.ErrRoomClosed) {
			log.Debug().Err(err).Str("player", s.playerID).Msg("disconnect")
		}
	}
	cancel()
	close(send)
	<-writerDone
}

// writeLoop is the only goroutine that writes to conn.
func (h *WSHandler) writeLoop(conn *websocket.Conn, send <-chan outboundMessage, log zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if msg.closing {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "room closed"))
				// unblocks the read loop
				_ = conn.Close()
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write error")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) ack(s *session, log zerolog.Logger, event string, data any, err error) outboundMessage {
	if err == nil {
		return outboundMessage{Type: domain.EventAck, Payload: ackPayload{Event: event, OK: true, Data: data}}
	}
	reason := domain.ReasonCode(err)
	if h.metrics != nil {
		h.metrics.ActionRejected(reason)
	}
	if domain.IsRejection(err) {
		log.Debug().Str("event", event).Str("actor", s.actor()).Str("reason", reason).Msg("action rejected")
	} else {
		log.Warn().Err(err).Str("event", event).Msg("action failed")
	}
	return outboundMessage{Type: domain.EventAck, Payload: ackPayload{Event: event, Reason: reason, Message: err.Error()}}
}

type joinPayload struct {
	RoomCode string `json:"roomCode"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	PlayerID string `json:"playerId"`
}

type readyPayload struct {
	RoomCode string `json:"roomCode"`
	Ready    bool   `json:"ready"`
}

type answerPayload struct {
	RoomCode   string          `json:"roomCode"`
	QuestionID string          `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
	// TimeTaken is in milliseconds.
	TimeTaken float64 `json:"timeTaken"`
}

type marioPayload struct {
	RoomCode     string          `json:"roomCode"`
	PlayerID     string          `json:"playerId"`
	QuestionID   string          `json:"questionId"`
	Answer       json.RawMessage `json:"answer"`
	ChallengerID string          `json:"challengerId"`
	OpponentID   string          `json:"opponentId"`
	Steps        int             `json:"steps"`
}

type rollResult struct {
	Result int `json:"result"`
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.ErrInvalidPayload
	}
	return nil
}

func (s *session) checkRoom(code string) error {
	if code != "" && !strings.EqualFold(code, s.room.Code()) {
		return domain.ErrSessionNotFound
	}
	return nil
}

// player returns the joined player, refusing to act for anyone else.
func (s *session) player(claimed string) (string, error) {
	if s.playerID == "" {
		return "", domain.ErrPlayerNotFound
	}
	if claimed != "" && claimed != s.playerID {
		return "", domain.ErrNotYourTurn
	}
	return s.playerID, nil
}

func (h *WSHandler) dispatch(s *session, in inboundMessage) (any, error) {
	switch in.Type {
	case domain.EventGameJoin:
		var p joinPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		if err := s.checkRoom(p.RoomCode); err != nil {
			return nil, err
		}
		id := p.PlayerID
		if id == "" {
			id = s.playerID
		}
		res, err := s.room.Join(domain.JoinRequest{PlayerID: id, Nickname: p.Nickname, Avatar: p.Avatar})
		if err != nil {
			return nil, err
		}
		s.playerID = res.PlayerID
		s.attachment = res.Attachment
		return res, nil

	case domain.EventGameReady:
		var p readyPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		if err := s.checkRoom(p.RoomCode); err != nil {
			return nil, err
		}
		id, err := s.player("")
		if err != nil {
			return nil, err
		}
		return nil, s.room.Ready(id, p.Ready)

	case domain.EventGameStart, domain.EventGameClose, domain.EventGameLeave, domain.EventMarioGetState, domain.EventMarioNextTurn:
		var p marioPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		if err := s.checkRoom(p.RoomCode); err != nil {
			return nil, err
		}
		return h.roomAction(s, in.Type)

	case domain.EventAnswerSubmit:
		var p answerPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		if err := s.checkRoom(p.RoomCode); err != nil {
			return nil, err
		}
		id, err := s.player("")
		if err != nil {
			return nil, err
		}
		return s.room.SubmitAnswer(domain.AnswerSubmission{
			PlayerID:   id,
			QuestionID: p.QuestionID,
			Answer:     p.Answer,
			TimeTaken:  time.Duration(p.TimeTaken * float64(time.Millisecond)),
		})

	case domain.EventMarioRollDice, domain.EventMarioAnswer, domain.EventMarioSelectDuel:
		var p marioPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		if err := s.checkRoom(p.RoomCode); err != nil {
			return nil, err
		}
		return h.boardAction(s, in.Type, p)

	case domain.EventMarioMove:
		// movement only ever follows a server roll
		return nil, domain.ErrNotClientAction

	default:
		return nil, domain.ErrUnknownEvent
	}
}

func (h *WSHandler) roomAction(s *session, event string) (any, error) {
	switch event {
	case domain.EventGameStart:
		return nil, s.room.Start(s.actor())
	case domain.EventGameClose:
		return nil, s.room.Close(s.actor())
	case domain.EventMarioGetState:
		return s.room.State()
	case domain.EventMarioNextTurn:
		return s.room.NextTurn(s.actor())
	default:
		id, err := s.player("")
		if err != nil {
			return nil, err
		}
		if err := s.room.Leave(id); err != nil {
			return nil, err
		}
		s.playerID = ""
		s.attachment = 0
		return nil, nil
	}
}

func (h *WSHandler) boardAction(s *session, event string, p marioPayload) (any, error) {
	claimed := p.PlayerID
	if event == domain.EventMarioSelectDuel {
		claimed = p.ChallengerID
	}
	id, err := s.player(claimed)
	if err != nil {
		return nil, err
	}
	switch event {
	case domain.EventMarioRollDice:
		v, err := s.room.RollDice(id)
		if err != nil {
			return nil, err
		}
		return rollResult{Result: v}, nil
	case domain.EventMarioAnswer:
		return s.room.AnswerBoardQuestion(id, p.QuestionID, p.Answer)
	default:
		return nil, s.room.SelectDuelOpponent(id, p.OpponentID)
	}
}
