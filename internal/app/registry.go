package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"classroom-game-service/internal/board"
	"classroom-game-service/internal/domain"
	"classroom-game-service/internal/scoring"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Options wires a Registry to its collaborators. Zero values fall back to
// in-process defaults.
type Options struct {
	Store   RoomStore
	Quizzes QuizRepository
	Boards  BoardRepository
	Results ResultStore
	Mirror  LeaderboardMirror
	Metrics Metrics
	Logger  zerolog.Logger

	Defaults domain.SessionConfig
	// TickInterval is the scheduler resolution; every timed phase counts in ticks of it.
	TickInterval time.Duration
	Tickers      TickerCreator
	Clock        func() time.Time
	Dice         func() board.Dice
	// TombstoneTTL is how long a torn-down code keeps answering room_closed.
	TombstoneTTL     time.Duration
	SubscriberBuffer int
	CodeLength       int
}

// Registry maps room codes to exactly one live room.
type Registry struct {
	opts     Options
	validate *validator.Validate

	mu         sync.Mutex
	tombstones map[string]time.Time
}

// NewRegistry builds a registry. Store is required.
func NewRegistry(opts Options) *Registry {
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.Defaults == (domain.SessionConfig{}) {
		opts.Defaults = domain.DefaultSessionConfig()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Tickers == nil {
		opts.Tickers = SystemTicker
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Dice == nil {
		opts.Dice = SystemDice
	}
	if opts.TombstoneTTL <= 0 {
		opts.TombstoneTTL = 10 * time.Minute
	}
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = 64
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = 6
	}
	return &Registry{
		opts:       opts,
		validate:   validator.New(),
		tombstones: make(map[string]time.Time),
	}
}

// Defaults returns the session config applied when a request carries none.
func (g *Registry) Defaults() domain.SessionConfig {
	return g.opts.Defaults
}

// CreateRequest describes a new room. Content is taken inline or loaded by id.
type CreateRequest struct {
	Code      string
	OwnerID   string
	Mode      domain.Mode
	QuizID    string
	BoardID   string
	Questions []domain.Question
	Board     *domain.Board
	Config    *domain.SessionConfig
}

// Create validates the request and starts a room actor in the lobby.
func (g *Registry) Create(ctx context.Context, req CreateRequest) (*Room, error) {
	cfg := g.opts.Defaults
	if req.Config != nil {
		cfg = *req.Config
	}
	if cfg.DuelPolicy == "" {
		cfg.DuelPolicy = domain.DuelSingleQuestion
	}
	if err := g.validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if cfg.DuelPolicy != domain.DuelSingleQuestion {
		return nil, fmt.Errorf("%w: unknown duel policy %q", domain.ErrInvalidConfig, cfg.DuelPolicy)
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidConfig)
	}
	if req.Mode == "" {
		req.Mode = domain.ModeQuiz
	}

	questions, err := g.loadQuestions(ctx, req)
	if err != nil {
		return nil, err
	}
	var b *domain.Board
	switch req.Mode {
	case domain.ModeQuiz:
		if len(questions) == 0 {
			return nil, fmt.Errorf("%w: quiz has no questions", domain.ErrInvalidConfig)
		}
	case domain.ModeBoard:
		if b, err = g.loadBoard(ctx, req); err != nil {
			return nil, err
		}
		if err := board.Validate(b); err != nil {
			return nil, err
		}
		if board.NeedsQuestions(b) && len(questions) == 0 {
			return nil, fmt.Errorf("%w: board needs a question pool", domain.ErrInvalidConfig)
		}
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidConfig, req.Mode)
	}
	if err := validateQuestions(questions, cfg); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	generated := code == ""
	for attempt := 0; attempt < 5; attempt++ {
		if generated {
			code = g.newCode()
		}
		room := newRoom(g, roomInit{
			code:      code,
			sessionID: uuid.NewString(),
			ownerID:   req.OwnerID,
			mode:      req.Mode,
			cfg:       cfg,
			questions: questions,
			board:     b,
		})
		err := g.opts.Store.Add(ctx, code, room)
		if errors.Is(err, domain.ErrSessionExists) && generated {
			continue
		}
		if err != nil {
			return nil, err
		}
		g.mu.Lock()
		delete(g.tombstones, code)
		g.mu.Unlock()

		ticks, stop := g.opts.Tickers(g.opts.TickInterval)
		go room.run(ticks, stop)
		g.opts.Metrics.RoomOpened(req.Mode)
		room.log.Info().Str("mode", string(req.Mode)).Int("questions", len(questions)).Msg("room created")
		return room, nil
	}
	return nil, domain.ErrSessionExists
}

func (g *Registry) loadQuestions(ctx context.Context, req CreateRequest) ([]domain.Question, error) {
	if len(req.Questions) > 0 || req.QuizID == "" {
		return req.Questions, nil
	}
	if g.opts.Quizzes == nil {
		return nil, domain.ErrQuizNotFound
	}
	quiz, err := g.opts.Quizzes.GetQuiz(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}
	return quiz.Questions, nil
}

func (g *Registry) loadBoard(ctx context.Context, req CreateRequest) (*domain.Board, error) {
	if req.Board != nil {
		return req.Board, nil
	}
	if req.BoardID == "" {
		return nil, fmt.Errorf("%w: board is required", domain.ErrInvalidConfig)
	}
	if g.opts.Boards == nil {
		return nil, domain.ErrBoardNotFound
	}
	b, err := g.opts.Boards.GetBoard(ctx, req.BoardID)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func validateQuestions(questions []domain.Question, cfg domain.SessionConfig) error {
	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("%w: question %d has no id", domain.ErrInvalidConfig, i+1)
		}
		if seen[q.ID] {
			return fmt.Errorf("%w: duplicate question id %s", domain.ErrInvalidConfig, q.ID)
		}
		seen[q.ID] = true
		if timeLimit(q, cfg) <= 0 {
			return fmt.Errorf("%w: question %s has time limit <= 0", domain.ErrInvalidConfig, q.ID)
		}
		if _, err := scoring.Canonical(q); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}
	}
	return nil
}

func (g *Registry) newCode() string {
	var sb strings.Builder
	for i := 0; i < g.opts.CodeLength; i++ {
		sb.WriteByte(codeAlphabet[rand.IntN(len(codeAlphabet))])
	}
	return sb.String()
}

// Get returns the live room for code. A recently torn-down code answers
// domain.ErrRoomClosed instead of not found.
func (g *Registry) Get(code string) (*Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if room, ok := g.opts.Store.Get(code); ok {
		return room, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if until, ok := g.tombstones[code]; ok {
		if g.opts.Clock().Before(until) {
			return nil, domain.ErrRoomClosed
		}
		delete(g.tombstones, code)
	}
	return nil, domain.ErrSessionNotFound
}

// Join adds or re-attaches a player to the room under code.
func (g *Registry) Join(code string, req domain.JoinRequest) (JoinResult, error) {
	room, err := g.Get(code)
	if err != nil {
		return JoinResult{}, err
	}
	return room.Join(req)
}

// Leave removes a player from the room under code.
func (g *Registry) Leave(code, playerID string) error {
	room, err := g.Get(code)
	if err != nil {
		return err
	}
	return room.Leave(playerID)
}

// Close ends the room under code on behalf of its owner.
func (g *Registry) Close(code, requesterID string) error {
	room, err := g.Get(code)
	if err != nil {
		return err
	}
	return room.Close(requesterID)
}

// Results returns the settled results of a finished room once.
func (g *Registry) Results(ctx context.Context, code string) (domain.RoomResults, error) {
	if g.opts.Results == nil {
		return domain.RoomResults{}, domain.ErrResultsNotFound
	}
	return g.opts.Results.Take(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// Len is the number of live rooms.
func (g *Registry) Len() int {
	return g.opts.Store.Len()
}

// Shutdown closes every live room, broadcasting game:closed to each.
func (g *Registry) Shutdown() {
	var wg sync.WaitGroup
	for _, r := range g.opts.Store.List() {
		wg.Add(1)
		go func(r *Room) {
			defer wg.Done()
			_ = r.terminate("server shutting down")
		}(r)
	}
	wg.Wait()
}

// release is called by a room actor on its way out.
func (g *Registry) release(r *Room, reason string) {
	g.mu.Lock()
	now := g.opts.Clock()
	for code, until := range g.tombstones {
		if !now.Before(until) {
			delete(g.tombstones, code)
		}
	}
	g.tombstones[r.code] = now.Add(g.opts.TombstoneTTL)
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	g.opts.Store.Remove(ctx, r.code, r)
	if g.opts.Mirror != nil {
		if err := g.opts.Mirror.Clear(ctx, r.code); err != nil {
			r.log.Warn().Err(err).Msg("clear leaderboard mirror")
		}
	}
	g.opts.Metrics.RoomClosed(reason)
	r.log.Info().Str("reason", reason).Msg("room torn down")
}
