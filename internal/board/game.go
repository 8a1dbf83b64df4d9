package board

import (
	"encoding/json"
	"fmt"

	"classroom-game-service/internal/domain"
	"classroom-game-service/internal/leaderboard"
)

// Stage is the turn lifecycle of a board game.
type Stage string

const (
	StageWaitingForRoll Stage = "waiting_for_roll"
	StageRolling        Stage = "rolling"
	StageMoving         Stage = "moving"
	StageTileEvent      Stage = "tile_event"
	StageTurnEnd        Stage = "turn_end"
	StageFinished       Stage = "game_finished"
)

// ChallengeKind tags what the turn is waiting on while in StageTileEvent.
type ChallengeKind string

const (
	ChallengeQuestion   ChallengeKind = "question"
	ChallengeStar       ChallengeKind = "star"
	ChallengeDuelSelect ChallengeKind = "duel_select"
	ChallengeDuel       ChallengeKind = "duel"
)

// Emitter receives every outbound board event.
type Emitter func(event string, payload any)

// Config holds the board tunables of one room.
type Config struct {
	MaxRounds           int
	BonusMoveSteps      int
	StarChallengeLength int
	DuelTimeLimitSec    int
	RollTimeoutSec      int
	StartingCoins       int
	DuelPolicy          domain.DuelPolicy
	Events              []EventEffect
}

// ConfigFrom extracts the board tunables from a session config.
func ConfigFrom(c domain.SessionConfig) Config {
	return Config{
		MaxRounds:           c.MaxRounds,
		BonusMoveSteps:      c.BonusMoveSteps,
		StarChallengeLength: c.StarChallengeLength,
		DuelTimeLimitSec:    c.DuelTimeLimitSec,
		RollTimeoutSec:      c.RollTimeoutSec,
		StartingCoins:       c.StartingCoins,
		DuelPolicy:          c.DuelPolicy,
		Events:              DefaultEvents,
	}
}

type challenge struct {
	kind      ChallengeKind
	playerID  string
	question  *domain.Question
	remaining int
	ticksLeft int
}

// Game is the board state of one room. It is not safe for concurrent use;
// the owning room serializes every call.
type Game struct {
	board   *domain.Board
	cfg     Config
	deck    Deck
	dice    Dice
	emit    Emitter
	players map[string]*domain.Player
	order   *TurnOrder

	stage     Stage
	completed int
	lastRoll  int
	stageTTL  int
	pending   *challenge
	duel      *domain.DuelState
}

// NewGame prepares a game over a validated board. emit may be nil.
func NewGame(b *domain.Board, cfg Config, deck Deck, dice Dice, emit Emitter) *Game {
	if emit == nil {
		emit = func(string, any) {}
	}
	if len(cfg.Events) == 0 {
		cfg.Events = DefaultEvents
	}
	return &Game{
		board:   b,
		cfg:     cfg,
		deck:    deck,
		dice:    dice,
		emit:    emit,
		players: make(map[string]*domain.Player),
		order:   NewTurnOrder(nil),
		stage:   StageWaitingForRoll,
	}
}

// GameStarted is the payload of mario:game_started.
type GameStarted struct {
	Board         *domain.Board         `json:"board"`
	Players       []domain.PublicPlayer `json:"players"`
	TurnOrder     []string              `json:"turnOrder"`
	CurrentPlayer string                `json:"currentPlayer"`
	MaxRounds     int                   `json:"maxRounds"`
}

// Start places every player on tile 1 and hands the turn to the first connected one.
func (g *Game) Start(players []*domain.Player) error {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		g.resetPlayer(p)
		ids = append(ids, p.ID)
	}
	g.order = NewTurnOrder(ids)
	if _, ok := g.order.Advance(g.connected, func(string) bool { return false }); !ok {
		return domain.ErrNoPlayers
	}
	g.stage = StageWaitingForRoll
	g.stageTTL = g.cfg.RollTimeoutSec
	g.emit(domain.EventMarioGameStarted, GameStarted{
		Board:         g.board,
		Players:       g.publicPlayers(),
		TurnOrder:     g.order.IDs(),
		CurrentPlayer: g.order.Current(),
		MaxRounds:     g.cfg.MaxRounds,
	})
	g.emitTurnChanged(nil)
	return nil
}

func (g *Game) resetPlayer(p *domain.Player) {
	p.Position = 1
	p.Stars = 0
	p.Coins = g.cfg.StartingCoins
	p.SkipNextTurn = false
	g.players[p.ID] = p
}

// AddPlayer seats a late joiner at the end of the rotation.
func (g *Game) AddPlayer(p *domain.Player) {
	if _, ok := g.players[p.ID]; ok {
		return
	}
	g.resetPlayer(p)
	g.order.Append(p.ID)
}

// RemovePlayer drops a player who left. A holder's turn passes on.
func (g *Game) RemovePlayer(id string) {
	if _, ok := g.players[id]; !ok {
		return
	}
	g.forfeitDuel(id)
	wasCurrent := g.order.Remove(id)
	delete(g.players, id)
	if g.stage == StageFinished {
		return
	}
	if wasCurrent {
		g.pending = nil
		g.duel = nil
		g.advance()
	}
}

// PlayerDisconnected forfeits whatever the player still owes. A disconnected
// holder loses the rest of their turn.
func (g *Game) PlayerDisconnected(id string) {
	if g.stage == StageFinished {
		return
	}
	if g.forfeitDuel(id) {
		return
	}
	if id != g.order.Current() {
		return
	}
	if g.duel != nil {
		// the opponent may still answer
		return
	}
	g.pending = nil
	g.advance()
}

// forfeitDuel records a missing answer for a duelist and settles the duel once both are in.
func (g *Game) forfeitDuel(id string) bool {
	if g.duel == nil || (id != g.duel.ChallengerID && id != g.duel.OpponentID) {
		return false
	}
	if _, answered := g.duel.Answers[id]; !answered {
		g.duel.Answers[id] = false
	}
	if len(g.duel.Answers) == 2 {
		g.finishDuel()
		return true
	}
	return false
}

// Finished reports whether max rounds were reached.
func (g *Game) Finished() bool {
	return g.stage == StageFinished
}

// CurrentPlayer returns the turn holder.
func (g *Game) CurrentPlayer() string {
	return g.order.Current()
}

// Stage returns the turn lifecycle stage.
func (g *Game) Stage() Stage {
	return g.stage
}

// Rankings orders players by stars, then coins, then join order.
func (g *Game) Rankings() []domain.LeaderboardEntry {
	ps := make([]*domain.Player, 0, len(g.players))
	for _, p := range g.players {
		ps = append(ps, p)
	}
	return leaderboard.RankBoard(ps)
}

// DiceRolled is the payload of mario:dice_rolled.
type DiceRolled struct {
	PlayerID string `json:"player_id"`
	Result   int    `json:"result"`
}

// PlayerMoved is the payload of mario:player_moved.
type PlayerMoved struct {
	PlayerID    string `json:"player_id"`
	NewPosition int    `json:"new_position"`
	Steps       int    `json:"steps"`
}

// Roll throws the dice for the turn holder and resolves the landing tile.
// The value is always produced here; clients only trigger it.
func (g *Game) Roll(playerID string) (int, error) {
	if err := g.checkHolder(playerID); err != nil {
		return 0, err
	}
	if g.stage != StageWaitingForRoll {
		return 0, domain.ErrAlreadyRolled
	}
	g.stage = StageRolling
	roll := g.dice.IntN(6) + 1
	g.lastRoll = roll
	g.emit(domain.EventMarioDiceRolled, DiceRolled{PlayerID: playerID, Result: roll})
	g.move(playerID, roll)
	return roll, nil
}

func (g *Game) checkHolder(playerID string) error {
	if g.stage == StageFinished {
		return domain.ErrGameFinished
	}
	if _, ok := g.players[playerID]; !ok {
		return domain.ErrPlayerNotFound
	}
	if playerID != g.order.Current() {
		return domain.ErrNotYourTurn
	}
	return nil
}

func (g *Game) move(playerID string, steps int) {
	g.stage = StageMoving
	p := g.players[playerID]
	p.Position = Move(p.Position, steps, g.board.TotalTiles())
	g.emit(domain.EventMarioPlayerMoved, PlayerMoved{PlayerID: playerID, NewPosition: p.Position, Steps: steps})
	g.land(playerID)
}

func (g *Game) land(playerID string) {
	g.stage = StageTileEvent
	p := g.players[playerID]
	g.resolver(g.board.TileAt(p.Position))(playerID)
}

// resolver dispatches one handler per tile type.
func (g *Game) resolver(t domain.TileType) func(playerID string) {
	switch t {
	case domain.TileQuestion:
		return g.resolveQuestion
	case domain.TileStar:
		return g.resolveStar
	case domain.TileEvent:
		return g.resolveEvent
	case domain.TileTrap:
		return g.resolveTrap
	case domain.TileDuel:
		return g.resolveDuel
	default:
		return g.resolveNormal
	}
}

// TileOutcome is the evento of a mario:casilla_event.
type TileOutcome struct {
	Type        string               `json:"type"`
	Question    *domain.QuestionView `json:"question,omitempty"`
	Required    int                  `json:"required,omitempty"`
	Effect      *EventEffect         `json:"effect,omitempty"`
	NewPosition int                  `json:"newPosition,omitempty"`
	Candidates  []string             `json:"candidates,omitempty"`
	Skipped     bool                 `json:"skipped,omitempty"`
	Reason      string               `json:"reason,omitempty"`
}

// CasillaEvent is the payload of mario:casilla_event.
type CasillaEvent struct {
	PlayerID string      `json:"player_id"`
	Position int         `json:"position"`
	Evento   TileOutcome `json:"evento"`
}

func (g *Game) emitTile(playerID string, out TileOutcome) {
	g.emit(domain.EventMarioCasilla, CasillaEvent{
		PlayerID: playerID,
		Position: g.players[playerID].Position,
		Evento:   out,
	})
}

func (g *Game) resolveNormal(playerID string) {
	g.emitTile(playerID, TileOutcome{Type: string(domain.TileNormal)})
	g.endTurn()
}

func (g *Game) resolveQuestion(playerID string) {
	g.openQuestion(playerID, ChallengeQuestion, 0, string(domain.TileQuestion))
}

func (g *Game) resolveStar(playerID string) {
	g.openQuestion(playerID, ChallengeStar, g.cfg.StarChallengeLength, string(domain.TileStar))
}

func (g *Game) openQuestion(playerID string, kind ChallengeKind, remaining int, tile string) {
	q, ok := g.deck.Draw()
	if !ok {
		g.emitTile(playerID, TileOutcome{Type: tile, Skipped: true, Reason: "no_questions"})
		g.endTurn()
		return
	}
	limit := g.deck.TimeLimit(q)
	g.pending = &challenge{kind: kind, playerID: playerID, question: &q, remaining: remaining, ticksLeft: limit}
	view := domain.NewQuestionView(q, limit)
	g.emitTile(playerID, TileOutcome{Type: tile, Question: &view, Required: remaining})
}

func (g *Game) resolveEvent(playerID string) {
	eff := Draw(g.cfg.Events, g.dice)
	pos := g.applyEffect(playerID, eff)
	out := TileOutcome{Type: string(domain.TileEvent), Effect: &eff}
	if eff.Kind == EffectTeleport {
		out.NewPosition = pos
	}
	g.emitTile(playerID, out)
	if eff.Kind == EffectTeleport {
		g.emit(domain.EventMarioPlayerMoved, PlayerMoved{PlayerID: playerID, NewPosition: pos})
	}
	g.endTurn()
}

func (g *Game) resolveTrap(playerID string) {
	g.players[playerID].SkipNextTurn = true
	g.emitTile(playerID, TileOutcome{Type: string(domain.TileTrap)})
	g.endTurn()
}

func (g *Game) resolveDuel(playerID string) {
	candidates := g.opponents(playerID)
	if len(candidates) == 0 {
		g.emitTile(playerID, TileOutcome{Type: string(domain.TileDuel), Skipped: true, Reason: "no_opponents"})
		g.endTurn()
		return
	}
	g.pending = &challenge{kind: ChallengeDuelSelect, playerID: playerID, ticksLeft: g.cfg.DuelTimeLimitSec}
	g.emitTile(playerID, TileOutcome{Type: string(domain.TileDuel), Candidates: candidates})
}

func (g *Game) opponents(playerID string) []string {
	var out []string
	for _, id := range g.order.IDs() {
		if id != playerID && g.connected(id) {
			out = append(out, id)
		}
	}
	return out
}

// AnswerOutcome tells the answering player what their answer did.
type AnswerOutcome struct {
	Kind       ChallengeKind `json:"kind"`
	Correct    bool          `json:"correct"`
	BonusSteps int           `json:"bonusSteps,omitempty"`
	StarWon    bool          `json:"starWon,omitempty"`
	Remaining  int           `json:"remaining,omitempty"`
}

// BonusMove is the payload of mario:bonus_move.
type BonusMove struct {
	PlayerID string `json:"player_id"`
	Steps    int    `json:"steps"`
}

// StarWon is the payload of mario:star_won.
type StarWon struct {
	PlayerID string `json:"player_id"`
	Stars    int    `json:"stars"`
}

// Answer settles the pending tile question, star challenge step or duel answer.
func (g *Game) Answer(playerID, questionID string, answer json.RawMessage) (AnswerOutcome, error) {
	if g.stage == StageFinished {
		return AnswerOutcome{}, domain.ErrGameFinished
	}
	if _, ok := g.players[playerID]; !ok {
		return AnswerOutcome{}, domain.ErrPlayerNotFound
	}
	c := g.pending
	if c == nil || c.kind == ChallengeDuelSelect {
		return AnswerOutcome{}, domain.ErrNoPendingQuestion
	}
	if c.kind == ChallengeDuel {
		return g.answerDuel(playerID, questionID, answer)
	}
	if playerID != c.playerID {
		return AnswerOutcome{}, domain.ErrNotYourTurn
	}
	if questionID != c.question.ID {
		return AnswerOutcome{}, domain.ErrQuestionNotFound
	}
	correct, err := g.deck.Check(*c.question, answer)
	if err != nil {
		return AnswerOutcome{}, err
	}
	out := AnswerOutcome{Kind: c.kind, Correct: correct}
	g.pending = nil

	switch c.kind {
	case ChallengeQuestion:
		if !correct || g.cfg.BonusMoveSteps <= 0 {
			g.endTurn()
			return out, nil
		}
		out.BonusSteps = g.cfg.BonusMoveSteps
		g.emit(domain.EventMarioBonusMove, BonusMove{PlayerID: playerID, Steps: g.cfg.BonusMoveSteps})
		g.move(playerID, g.cfg.BonusMoveSteps)
	case ChallengeStar:
		if !correct {
			g.endTurn()
			return out, nil
		}
		if c.remaining > 1 {
			out.Remaining = c.remaining - 1
			g.openQuestion(playerID, ChallengeStar, c.remaining-1, string(domain.TileStar))
			return out, nil
		}
		p := g.players[playerID]
		p.Stars++
		out.StarWon = true
		g.emit(domain.EventMarioStarWon, StarWon{PlayerID: playerID, Stars: p.Stars})
		g.endTurn()
	}
	return out, nil
}

// DuelStarted is the payload of mario:duel_started.
type DuelStarted struct {
	ChallengerID string              `json:"challengerId"`
	OpponentID   string              `json:"opponentId"`
	Question     domain.QuestionView `json:"question"`
}

// SelectOpponent turns a pending duel tile into a duel against opponentID.
func (g *Game) SelectOpponent(challengerID, opponentID string) error {
	if err := g.checkHolder(challengerID); err != nil {
		return err
	}
	c := g.pending
	if c == nil || c.kind != ChallengeDuelSelect {
		return domain.ErrWrongPhase
	}
	if opponentID == challengerID || !g.connected(opponentID) {
		return domain.ErrInvalidOpponent
	}
	q, ok := g.deck.Draw()
	if !ok {
		g.pending = nil
		g.emitTile(challengerID, TileOutcome{Type: string(domain.TileDuel), Skipped: true, Reason: "no_questions"})
		g.endTurn()
		return nil
	}
	g.duel = &domain.DuelState{
		ChallengerID: challengerID,
		OpponentID:   opponentID,
		QuestionID:   q.ID,
		Answers:      make(map[string]bool, 2),
	}
	g.pending = &challenge{kind: ChallengeDuel, playerID: challengerID, question: &q, ticksLeft: g.cfg.DuelTimeLimitSec}
	g.emit(domain.EventMarioDuelStarted, DuelStarted{
		ChallengerID: challengerID,
		OpponentID:   opponentID,
		Question:     domain.NewQuestionView(q, g.cfg.DuelTimeLimitSec),
	})
	return nil
}

func (g *Game) answerDuel(playerID, questionID string, answer json.RawMessage) (AnswerOutcome, error) {
	d := g.duel
	if playerID != d.ChallengerID && playerID != d.OpponentID {
		return AnswerOutcome{}, domain.ErrNotYourTurn
	}
	if questionID != d.QuestionID {
		return AnswerOutcome{}, domain.ErrQuestionNotFound
	}
	if _, done := d.Answers[playerID]; done {
		return AnswerOutcome{}, domain.ErrAlreadyAnswered
	}
	correct, err := g.deck.Check(*g.pending.question, answer)
	if err != nil {
		return AnswerOutcome{}, err
	}
	d.Answers[playerID] = correct
	if len(d.Answers) == 2 {
		g.finishDuel()
	}
	return AnswerOutcome{Kind: ChallengeDuel, Correct: correct}, nil
}

// DuelFinished is the payload of mario:duel_finished.
type DuelFinished struct {
	Winner          string `json:"winner"`
	Loser           string `json:"loser"`
	StarTransferred bool   `json:"starTransferred"`
}

func (g *Game) finishDuel() {
	d := g.duel
	outcome := Decide(g.cfg.DuelPolicy, d)
	d.WinnerID = outcome.WinnerID
	d.LoserID = outcome.LoserID
	if outcome.WinnerID != "" {
		d.StarTransferred = TransferStar(g.players[outcome.WinnerID], g.players[outcome.LoserID])
	}
	g.emit(domain.EventMarioDuelFinished, DuelFinished{
		Winner:          d.WinnerID,
		Loser:           d.LoserID,
		StarTransferred: d.StarTransferred,
	})
	g.duel = nil
	g.pending = nil
	g.endTurn()
}

// endTurn parks the turn in StageTurnEnd. A holder who is gone does not wait.
func (g *Game) endTurn() {
	g.pending = nil
	g.stage = StageTurnEnd
	g.stageTTL = g.cfg.RollTimeoutSec
	if !g.connected(g.order.Current()) {
		g.advance()
	}
}

// TurnResult is the reply to mario:next_turn.
type TurnResult struct {
	GameFinished  bool                      `json:"gameFinished,omitempty"`
	Rankings      []domain.LeaderboardEntry `json:"rankings,omitempty"`
	CurrentPlayer string                    `json:"currentPlayer,omitempty"`
}

// NextTurn passes the token on. Only the holder may end their own turn.
func (g *Game) NextTurn(playerID string) (TurnResult, error) {
	if err := g.checkHolder(playerID); err != nil {
		return TurnResult{}, err
	}
	if g.stage != StageTurnEnd {
		return TurnResult{}, fmt.Errorf("%w: turn is %s", domain.ErrWrongPhase, g.stage)
	}
	return g.advance(), nil
}

// TurnChanged is the payload of mario:turn_changed.
type TurnChanged struct {
	CurrentPlayer string   `json:"currentPlayer"`
	Round         int      `json:"round"`
	Message       string   `json:"message"`
	Skipped       []string `json:"skipped,omitempty"`
}

// GameFinished is the payload of mario:game_finished.
type GameFinished struct {
	Rankings []domain.LeaderboardEntry `json:"rankings"`
}

func (g *Game) advance() TurnResult {
	var skipped []string
	wraps, ok := g.order.Advance(g.connected, func(id string) bool {
		p := g.players[id]
		if !p.SkipNextTurn {
			return false
		}
		p.SkipNextTurn = false
		skipped = append(skipped, id)
		return true
	})
	g.pending = nil
	g.duel = nil
	if !ok {
		// nobody is connected; keep the token where it is until someone returns
		g.stage = StageWaitingForRoll
		g.stageTTL = g.cfg.RollTimeoutSec
		return TurnResult{CurrentPlayer: g.order.Current()}
	}
	g.completed += wraps
	if g.completed >= g.cfg.MaxRounds {
		g.stage = StageFinished
		rankings := g.Rankings()
		g.emit(domain.EventMarioGameFinished, GameFinished{Rankings: rankings})
		return TurnResult{GameFinished: true, Rankings: rankings}
	}
	g.stage = StageWaitingForRoll
	g.stageTTL = g.cfg.RollTimeoutSec
	g.lastRoll = 0
	g.emitTurnChanged(skipped)
	return TurnResult{CurrentPlayer: g.order.Current()}
}

func (g *Game) emitTurnChanged(skipped []string) {
	current := g.order.Current()
	name := current
	if p, ok := g.players[current]; ok && p.Nickname != "" {
		name = p.Nickname
	}
	g.emit(domain.EventMarioTurnChanged, TurnChanged{
		CurrentPlayer: current,
		Round:         g.completed + 1,
		Message:       fmt.Sprintf("Turno de %s", name),
		Skipped:       skipped,
	})
}

// Tick advances per-action deadlines by one second.
func (g *Game) Tick() {
	if g.stage == StageFinished {
		return
	}
	if c := g.pending; c != nil {
		c.ticksLeft--
		if c.ticksLeft <= 0 {
			g.expire(c)
		}
		return
	}
	if g.cfg.RollTimeoutSec <= 0 {
		return
	}
	switch g.stage {
	case StageWaitingForRoll:
		g.stageTTL--
		if g.stageTTL > 0 {
			return
		}
		holder := g.order.Current()
		if g.connected(holder) {
			_, _ = g.Roll(holder)
			return
		}
		g.advance()
	case StageTurnEnd:
		g.stageTTL--
		if g.stageTTL <= 0 {
			g.advance()
		}
	}
}

// expire treats an unanswered prompt as incorrect.
func (g *Game) expire(c *challenge) {
	switch c.kind {
	case ChallengeDuel:
		for _, id := range []string{g.duel.ChallengerID, g.duel.OpponentID} {
			if _, ok := g.duel.Answers[id]; !ok {
				g.duel.Answers[id] = false
			}
		}
		g.finishDuel()
	case ChallengeDuelSelect:
		g.emitTile(c.playerID, TileOutcome{Type: string(domain.TileDuel), Skipped: true, Reason: "timeout"})
		g.endTurn()
	default:
		g.emitTile(c.playerID, TileOutcome{Type: "timeout", Reason: string(c.kind)})
		g.endTurn()
	}
}

func (g *Game) connected(id string) bool {
	p, ok := g.players[id]
	return ok && p.Connected
}

func (g *Game) publicPlayers() []domain.PublicPlayer {
	out := make([]domain.PublicPlayer, 0, len(g.players))
	for _, id := range g.order.IDs() {
		out = append(out, g.players[id].Public())
	}
	return out
}

// PendingView is the broadcast-safe view of what the turn waits on.
type PendingView struct {
	Kind          ChallengeKind        `json:"kind"`
	PlayerID      string               `json:"playerId"`
	Question      *domain.QuestionView `json:"question,omitempty"`
	Remaining     int                  `json:"remaining,omitempty"`
	TimeRemaining int                  `json:"timeRemaining"`
}

// State is the board part of a room snapshot.
type State struct {
	Board         *domain.Board         `json:"board"`
	Stage         Stage                 `json:"stage"`
	Round         int                   `json:"round"`
	MaxRounds     int                   `json:"maxRounds"`
	CurrentPlayer string                `json:"currentPlayer"`
	TurnOrder     []string              `json:"turnOrder"`
	Players       []domain.PublicPlayer `json:"players"`
	LastRoll      int                   `json:"lastRoll,omitempty"`
	Pending       *PendingView          `json:"pending,omitempty"`
	Duel          *domain.DuelState     `json:"duel,omitempty"`
}

// Snapshot copies the current board state.
func (g *Game) Snapshot() State {
	round := g.completed + 1
	if round > g.cfg.MaxRounds {
		round = g.cfg.MaxRounds
	}
	s := State{
		Board:         g.board,
		Stage:         g.stage,
		Round:         round,
		MaxRounds:     g.cfg.MaxRounds,
		CurrentPlayer: g.order.Current(),
		TurnOrder:     g.order.IDs(),
		Players:       g.publicPlayers(),
		LastRoll:      g.lastRoll,
	}
	if c := g.pending; c != nil {
		pv := &PendingView{Kind: c.kind, PlayerID: c.playerID, Remaining: c.remaining, TimeRemaining: c.ticksLeft}
		if c.question != nil {
			limit := g.deck.TimeLimit(*c.question)
			if c.kind == ChallengeDuel {
				limit = g.cfg.DuelTimeLimitSec
			}
			view := domain.NewQuestionView(*c.question, limit)
			pv.Question = &view
		}
		s.Pending = pv
	}
	if g.duel != nil {
		d := *g.duel
		s.Duel = &d
	}
	return s
}
