package app

import (
	"context"
	"time"

	"classroom-game-service/internal/board"
	"classroom-game-service/internal/domain"
	"classroom-game-service/internal/leaderboard"
	"classroom-game-service/internal/scoring"
	"github.com/rs/zerolog"
)

type request struct {
	fn    func() error
	reply chan error
}

type roomInit struct {
	code      string
	sessionID string
	ownerID   string
	mode      domain.Mode
	cfg       domain.SessionConfig
	questions []domain.Question
	board     *domain.Board
}

// Room is one live session. All state below is owned by the goroutine in run;
// every other goroutine reaches it only through do.
type Room struct {
	code      string
	sessionID string
	ownerID   string
	mode      domain.Mode
	cfg       domain.SessionConfig
	scoring   scoring.Config
	questions []domain.Question
	board     *domain.Board

	reg   *Registry
	log   zerolog.Logger
	now   func() time.Time
	inbox chan request
	done  chan struct{}

	tickC    <-chan time.Time
	stopTick func()

	// mirrorQ feeds mirrorLoop; nil when no mirror is configured.
	mirrorQ    chan []domain.LeaderboardEntry
	mirrorDone chan struct{}

	phase     domain.Phase
	players   map[string]*domain.Player
	joinSeq   int
	startedAt time.Time
	endedAt   time.Time

	// attachments holds the latest connection token per player; older
	// connections may no longer disconnect the player.
	attachments map[string]uint64
	attachSeq   uint64

	// quiz scheduling
	qIndex   int
	openedAt time.Time
	deadline time.Time
	ticks    int
	stats    []domain.QuestionStats
	ranking  []domain.LeaderboardEntry

	// board mode
	game       *board.Game
	boardTally map[string]*tally

	idleTicks     int
	finishedTicks int
	closeReason   string

	subs map[chan domain.Event]struct{}
}

type tally struct {
	answered int
	correct  int
}

func newRoom(reg *Registry, in roomInit) *Room {
	r := &Room{
		code:        in.code,
		sessionID:   in.sessionID,
		ownerID:     in.ownerID,
		mode:        in.mode,
		cfg:         in.cfg,
		scoring:     scoring.ConfigFrom(in.cfg),
		questions:   in.questions,
		board:       in.board,
		reg:         reg,
		log:         reg.opts.Logger.With().Str("room", in.code).Str("session", in.sessionID).Logger(),
		now:         reg.opts.Clock,
		inbox:       make(chan request),
		done:        make(chan struct{}),
		phase:       domain.PhaseLobby,
		players:     make(map[string]*domain.Player),
		attachments: make(map[string]uint64),
		qIndex:      -1,
		boardTally:  make(map[string]*tally),
		subs:        make(map[chan domain.Event]struct{}),
	}
	if reg.opts.Mirror != nil {
		r.mirrorQ = make(chan []domain.LeaderboardEntry, 1)
		r.mirrorDone = make(chan struct{})
	}
	return r
}

// Code returns the room code.
func (r *Room) Code() string {
	return r.code
}

// Done is closed once the room has been torn down.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// do runs fn on the room goroutine and waits for its result.
func (r *Room) do(fn func() error) error {
	req := request{fn: fn, reply: make(chan error, 1)}
	select {
	case r.inbox <- req:
	case <-r.done:
		return domain.ErrRoomClosed
	}
	return <-req.reply
}

func (r *Room) run(ticks <-chan time.Time, stop func()) {
	r.tickC, r.stopTick = ticks, stop
	defer func() { r.stopTick() }()
	if r.mirrorQ != nil {
		go r.mirrorLoop()
	}
	for {
		select {
		case req := <-r.inbox:
			req.reply <- req.fn()
		case <-r.tickC:
			r.tick()
		}
		if r.phase == domain.PhaseClosed {
			r.teardown()
			return
		}
	}
}

// restartTicker realigns the scheduler so the next tick lands one interval from now.
func (r *Room) restartTicker() {
	r.stopTick()
	r.tickC, r.stopTick = r.reg.opts.Tickers(r.reg.opts.TickInterval)
}

func (r *Room) teardown() {
	for ch := range r.subs {
		close(ch)
	}
	r.subs = nil
	if r.mirrorQ != nil {
		// pending publishes land before release clears the mirror
		close(r.mirrorQ)
		<-r.mirrorDone
	}
	r.reg.release(r, r.closeReason)
	close(r.done)
}

// Subscribe returns a channel that receives every event broadcast by the room.
// The caller must invoke the returned cancel function to avoid leaks.
func (r *Room) Subscribe() (<-chan domain.Event, func(), error) {
	ch := make(chan domain.Event, r.reg.opts.SubscriberBuffer)
	err := r.do(func() error {
		r.subs[ch] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	cancel := func() {
		_ = r.do(func() error {
			if _, ok := r.subs[ch]; ok {
				delete(r.subs, ch)
				close(ch)
			}
			return nil
		})
	}
	return ch, cancel, nil
}

// broadcast fans out to subscribers, dropping the oldest queued event of a slow one.
func (r *Room) broadcast(eventType string, payload any) {
	ev := domain.Event{Type: eventType, Payload: payload, At: r.now()}
	for ch := range r.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

func (r *Room) tick() {
	switch r.phase {
	case domain.PhaseCountdown:
		r.ticks--
		if r.ticks > 0 {
			r.broadcast(domain.EventGameCountdown, countdownPayload{Remaining: r.ticks})
		} else {
			r.openQuestion(0)
		}
	case domain.PhaseQuestion:
		r.ticks--
		if r.ticks < 0 {
			r.ticks = 0
		}
		r.broadcast(domain.EventTimerTick, timerPayload{TimeRemaining: r.ticks, QuestionID: r.current().ID})
		if r.ticks == 0 {
			r.broadcast(domain.EventQuestionTimeout, timeoutPayload{QuestionID: r.current().ID})
			r.grade()
		}
	case domain.PhaseLeaderboard:
		r.ticks--
		if r.ticks <= 0 {
			r.advanceQuestion()
		}
	case domain.PhasePlaying:
		r.game.Tick()
		r.afterBoardAction()
	case domain.PhaseFinished:
		r.finishedTicks++
		if r.finishedTicks >= r.cfg.FinishedRetentionSec {
			r.phase = domain.PhaseClosed
			r.closeReason = "finished"
		}
		return
	}
	r.checkIdle()
}

// checkIdle tears the room down once nobody has been connected for the grace period.
func (r *Room) checkIdle() {
	if r.connectedCount() > 0 {
		r.idleTicks = 0
		return
	}
	r.idleTicks++
	if r.idleTicks < r.cfg.GracePeriodSec {
		return
	}
	r.broadcast(domain.EventGameClosed, closedPayload{Message: "room abandoned"})
	r.phase = domain.PhaseClosed
	r.closeReason = "abandoned"
}

func (r *Room) terminate(message string) error {
	return r.do(func() error {
		r.broadcast(domain.EventGameClosed, closedPayload{Message: message})
		r.phase = domain.PhaseClosed
		r.closeReason = "shutdown"
		return nil
	})
}

// Close ends the room for everyone. Only the owner may close it.
func (r *Room) Close(requesterID string) error {
	return r.do(func() error {
		if requesterID != r.ownerID {
			return domain.ErrNotOwner
		}
		r.broadcast(domain.EventGameClosed, closedPayload{Message: "room closed by host"})
		r.phase = domain.PhaseClosed
		r.closeReason = "closed"
		return nil
	})
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.Connected {
			n++
		}
	}
	return n
}

// ordered returns players in join order.
func (r *Room) ordered() []*domain.Player {
	out := make([]*domain.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sortByJoin(out)
	return out
}

func (r *Room) publicPlayers() []domain.PublicPlayer {
	ps := r.ordered()
	out := make([]domain.PublicPlayer, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Public())
	}
	return out
}

func (r *Room) rank() []domain.LeaderboardEntry {
	if r.mode == domain.ModeBoard {
		return leaderboard.RankBoard(r.ordered())
	}
	return leaderboard.Rank(r.ordered())
}

// mirror queues a fresh ranking for mirrorLoop. Only the latest unsent
// ranking is kept.
func (r *Room) mirror(entries []domain.LeaderboardEntry) {
	if r.mirrorQ == nil {
		return
	}
	select {
	case r.mirrorQ <- entries:
	default:
		select {
		case <-r.mirrorQ:
		default:
		}
		r.mirrorQ <- entries
	}
}

// mirrorLoop publishes queued rankings one at a time, in order.
func (r *Room) mirrorLoop() {
	defer close(r.mirrorDone)
	m := r.reg.opts.Mirror
	for entries := range r.mirrorQ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := m.Publish(ctx, r.code, entries); err != nil {
			r.log.Warn().Err(err).Msg("publish leaderboard mirror")
		}
		cancel()
	}
}
