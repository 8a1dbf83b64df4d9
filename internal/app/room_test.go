package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"classroom-game-service/internal/app"
	"classroom-game-service/internal/board"
	"classroom-game-service/internal/domain"
	"classroom-game-service/internal/infra/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type scriptedDice struct {
	mu   sync.Mutex
	vals []int
}

func (d *scriptedDice) IntN(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.vals) == 0 {
		return 0
	}
	v := d.vals[0]
	d.vals = d.vals[1:]
	return v % n
}

type harness struct {
	reg     *app.Registry
	ticks   chan time.Time
	clock   *fakeClock
	dice    *scriptedDice
	results *memory.ResultStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		ticks:   make(chan time.Time),
		clock:   &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		dice:    &scriptedDice{},
		results: memory.NewResultStore(time.Hour),
	}
	h.reg = app.NewRegistry(app.Options{
		Store:   memory.NewRoomStore(),
		Results: h.results,
		Tickers: func(time.Duration) (<-chan time.Time, func()) {
			return h.ticks, func() {}
		},
		Clock:            h.clock.Now,
		Dice:             func() board.Dice { return h.dice },
		SubscriberBuffer: 1024,
	})
	return h
}

// tick delivers n scheduler ticks and waits until the room has processed them.
func (h *harness) tick(room *app.Room, n int) {
	for i := 0; i < n; i++ {
		select {
		case h.ticks <- h.clock.Now():
		case <-room.Done():
			return
		}
	}
	_, _ = room.State()
}

func quizConfig() *domain.SessionConfig {
	cfg := domain.DefaultSessionConfig()
	cfg.CountdownTicks = 0
	cfg.LeaderboardPauseSec = 1
	cfg.TimeLimitSec = 20
	return &cfg
}

func oneQuestion() []domain.Question {
	return []domain.Question{{
		ID:     "q1",
		Prompt: "Capital of France?",
		Type:   domain.AnswerSingleChoice,
		Options: []domain.Option{
			{ID: "a", Text: "Paris", Correct: true},
			{ID: "b", Text: "Lyon"},
		},
	}}
}

func twoQuestions() []domain.Question {
	qs := oneQuestion()
	return append(qs, domain.Question{
		ID:            "q2",
		Prompt:        "The sky is green",
		Type:          domain.AnswerTrueFalse,
		CorrectAnswer: json.RawMessage(`false`),
	})
}

func createQuiz(t *testing.T, h *harness, questions []domain.Question, cfg *domain.SessionConfig) *app.Room {
	t.Helper()
	room, err := h.reg.Create(context.Background(), app.CreateRequest{
		Code:      "ROOM1",
		OwnerID:   "host",
		Mode:      domain.ModeQuiz,
		Questions: questions,
		Config:    cfg,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	t.Cleanup(func() { _ = room.Close("host") })
	return room
}

// join admits id and returns its attachment token.
func join(t *testing.T, room *app.Room, id, nickname string) uint64 {
	t.Helper()
	res, err := room.Join(domain.JoinRequest{PlayerID: id, Nickname: nickname, Avatar: "avatar-" + id})
	if err != nil {
		t.Fatalf("join %s: %v", id, err)
	}
	return res.Attachment
}

func drain(ch <-chan domain.Event) []domain.Event {
	var out []domain.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func ofType(events []domain.Event, eventType string) []domain.Event {
	var out []domain.Event
	for _, ev := range events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func timeRemaining(t *testing.T, ev domain.Event) int {
	t.Helper()
	raw, err := json.Marshal(ev.Payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var p struct {
		TimeRemaining int `json:"timeRemaining"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return p.TimeRemaining
}

func submit(room *app.Room, playerID, questionID, answer string) (domain.AnswerResult, error) {
	return room.SubmitAnswer(domain.AnswerSubmission{PlayerID: playerID, QuestionID: questionID, Answer: json.RawMessage(answer)})
}

func TestQuizScenarioThreePlayers(t *testing.T) {
	h := newHarness(t)
	room := createQuiz(t, h, oneQuestion(), quizConfig())
	events, cancel, err := room.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	join(t, room, "a", "Ana")
	join(t, room, "b", "Bo")
	join(t, room, "c", "Cy")
	if err := room.Start("host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := ofType(drain(events), domain.EventQuestionNew); len(got) != 1 {
		t.Fatalf("expected question:new, got %d", len(got))
	}

	h.clock.Advance(5 * time.Second)
	resA, err := submit(room, "a", "q1", `"a"`)
	if err != nil {
		t.Fatalf("submit a: %v", err)
	}
	if !resA.IsCorrect || resA.Breakdown.SpeedBonus <= 0 || resA.Points != 1375 || resA.ComboStreak != 1 {
		t.Fatalf("unexpected result for A: %+v", resA)
	}
	resB, err := submit(room, "b", "q1", `"b"`)
	if err != nil {
		t.Fatalf("submit b: %v", err)
	}
	if resB.IsCorrect || resB.Points != 0 || resB.ComboStreak != 0 {
		t.Fatalf("unexpected result for B: %+v", resB)
	}

	state, _ := room.State()
	if state.Phase != domain.PhaseQuestion {
		t.Fatalf("grading must wait for C or the deadline, phase %s", state.Phase)
	}

	h.tick(room, 20)
	got := drain(events)
	ticks := ofType(got, domain.EventTimerTick)
	if len(ticks) != 20 {
		t.Fatalf("expected 20 timer ticks, got %d", len(ticks))
	}
	for i, ev := range ticks {
		if got, want := timeRemaining(t, ev), 19-i; got != want {
			t.Fatalf("tick %d: expected timeRemaining %d, got %d", i, want, got)
		}
	}
	if len(ofType(got, domain.EventQuestionTimeout)) != 1 {
		t.Fatalf("expected one question:timeout")
	}
	results := ofType(got, domain.EventQuestionResults)
	if len(results) != 1 {
		t.Fatalf("expected question:results after timeout")
	}

	state, _ = room.State()
	if state.Phase != domain.PhaseLeaderboard {
		t.Fatalf("expected leaderboard pause, got %s", state.Phase)
	}
	if state.Leaderboard[0].PlayerID != "a" || state.Leaderboard[0].Score != 1375 {
		t.Fatalf("expected A leading, got %+v", state.Leaderboard)
	}
	for _, p := range state.Players {
		if p.ID == "c" && (p.Score != 0 || p.ComboStreak != 0) {
			t.Fatalf("C must get zero and a reset streak, got %+v", p)
		}
	}

	h.tick(room, 1)
	state, _ = room.State()
	if state.Phase != domain.PhaseFinished {
		t.Fatalf("expected finished, got %s", state.Phase)
	}
	if len(ofType(drain(events), domain.EventGameFinished)) != 1 {
		t.Fatalf("expected game:finished")
	}
}

func TestDuplicateSubmissionIsRejected(t *testing.T) {
	h := newHarness(t)
	room := createQuiz(t, h, twoQuestions(), quizConfig())
	join(t, room, "a", "Ana")
	join(t, room, "b", "Bo")
	_ = room.Start("host")

	first, err := submit(room, "a", "q1", `"a"`)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := submit(room, "a", "q1", `"b"`); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
	state, _ := room.State()
	for _, p := range state.Players {
		if p.ID == "a" && p.Score != first.TotalScore {
			t.Fatalf("second submission must not change the score: %d != %d", p.Score, first.TotalScore)
		}
	}
}

func TestSubmissionAfterDeadlineIsTooLate(t *testing.T) {
	h := newHarness(t)
	room := createQuiz(t, h, twoQuestions(), quizConfig())
	join(t, room, "a", "Ana")
	_ = room.Start("host")

	h.clock.Advance(21 * time.Second)
	if _, err := submit(room, "a", "q1", `"a"`); !errors.Is(err, domain.ErrTooLate) {
		t.Fatalf("expected too late, got %v", err)
	}
	if _, err := submit(room, "a", "q2", `false`); !errors.Is(err, domain.ErrWrongPhase) {
		t.Fatalf("expected future question to be rejected, got %v", err)
	}
	if _, err := submit(room, "a", "nope", `"a"`); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected unknown question, got %v", err)
	}
}

func TestAllAnsweredGradesEarlyAndAdvances(t *testing.T) {
	h := newHarness(t)
	cfg := quizConfig()
	cfg.LeaderboardPauseSec = 0
	room := createQuiz(t, h, twoQuestions(), cfg)
	join(t, room, "a", "Ana")
	join(t, room, "b", "Bo")
	_ = room.Start("host")

	_, _ = submit(room, "a", "q1", `"a"`)
	_, _ = submit(room, "b", "q1", `"a"`)

	state, _ := room.State()
	if state.Phase != domain.PhaseQuestion || state.QuestionNumber != 2 {
		t.Fatalf("expected second question open, got phase %s number %d", state.Phase, state.QuestionNumber)
	}
	if _, err := submit(room, "a", "q1", `"a"`); !errors.Is(err, domain.ErrTooLate) {
		t.Fatalf("expected past question to be too late, got %v", err)
	}
}

func TestDisconnectedPlayerDoesNotHoldUpGrading(t *testing.T) {
	h := newHarness(t)
	room := createQuiz(t, h, twoQuestions(), quizConfig())
	join(t, room, "a", "Ana")
	bo := join(t, room, "b", "Bo")
	_ = room.Start("host")

	_, _ = submit(room, "a", "q1", `"a"`)
	if err := room.Detach("b", bo); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	state, _ := room.State()
	if state.Phase != domain.PhaseLeaderboard {
		t.Fatalf("expected grading once the remaining player answered, got %s", state.Phase)
	}
}

func TestJoinRules(t *testing.T) {
	h := newHarness(t)
	cfg := quizConfig()
	cfg.MaxPlayers = 2
	room := createQuiz(t, h, twoQuestions(), cfg)

	join(t, room, "a", "Ana")
	if _, err := room.Join(domain.JoinRequest{PlayerID: "x", Nickname: "ana"}); !errors.Is(err, domain.ErrNicknameTaken) {
		t.Fatalf("expected nickname taken, got %v", err)
	}
	if _, err := room.Join(domain.JoinRequest{PlayerID: "x", Nickname: "Xi", Avatar: "avatar-a"}); !errors.Is(err, domain.ErrAvatarTaken) {
		t.Fatalf("expected avatar taken, got %v", err)
	}
	if _, err := room.Join(domain.JoinRequest{PlayerID: "x", Nickname: "  "}); !errors.Is(err, domain.ErrInvalidNickname) {
		t.Fatalf("expected invalid nickname, got %v", err)
	}
	join(t, room, "b", "Bo")
	if _, err := room.Join(domain.JoinRequest{PlayerID: "c", Nickname: "Cy"}); !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("expected room full, got %v", err)
	}

	res, err := room.Join(domain.JoinRequest{PlayerID: "a", Nickname: "Ana"})
	if err != nil || !res.Reconnected || len(res.Players) != 2 {
		t.Fatalf("expected known id to re-attach, got %+v err %v", res, err)
	}
}

func TestLateJoinPolicy(t *testing.T) {
	h := newHarness(t)
	room := createQuiz(t, h, twoQuestions(), quizConfig())
	join(t, room, "a", "Ana")
	_ = room.Start("host")
	if _, err := room.Join(domain.JoinRequest{PlayerID: "z", Nickname: "Zed"}); !errors.Is(err, domain.ErrLateJoinDisabled) {
		t.Fatalf("expected late join disabled, got %v", err)
	}

	h2 := newHarness(t)
	cfg := quizConfig()
	cfg.AllowLateJoin = true
	open := createQuiz(t, h2, twoQuestions(), cfg)
	join(t, open, "a", "Ana")
	_ = open.Start("host")
	join(t, open, "z", "Zed")
}

func TestReconnectKeepsScore(t *testing.T) {
	h := newHarness(t)
	room := createQuiz(t, h, twoQuestions(), quizConfig())
	ana := join(t, room, "a", "Ana")
	join(t, room, "b", "Bo")
	_ = room.Start("host")
	res, _ := submit(room, "a", "q1", `"a"`)

	_ = room.Detach("a", ana)
	again, err := room.Join(domain.JoinRequest{PlayerID: "a", Nickname: "Ana"})
	if err != nil || !again.Reconnected {
		t.Fatalf("reconnect: %+v %v", again, err)
	}
	state, _ := room.State()
	if len(state.Players) != 2 {
		t.Fatalf("reconnect must not duplicate the player, got %d", len(state.Players))
	}
	for _, p := range state.Players {
		if p.ID == "a" && (p.Score != res.TotalScore || !p.Connected) {
			t.Fatalf("expected score %d kept on reconnect, got %+v", res.TotalScore, p)
		}
	}
}

func TestStaleAttachmentDoesNotDisconnect(t *testing.T) {
	h := newHarness(t)
	room := createQuiz(t, h, twoQuestions(), quizConfig())
	first, err := room.Join(domain.JoinRequest{PlayerID: "a", Nickname: "Ana"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	second, err := room.Join(domain.JoinRequest{PlayerID: "a", Nickname: "Ana"})
	if err != nil || !second.Reconnected {
		t.Fatalf("reattach: %+v %v", second, err)
	}
	if second.Attachment == first.Attachment {
		t.Fatalf("expected a fresh attachment, both were %d", first.Attachment)
	}

	if err := room.Detach("a", first.Attachment); err != nil {
		t.Fatalf("detach stale: %v", err)
	}
	state, _ := room.State()
	if !state.Players[0].Connected {
		t.Fatalf("stale attachment disconnected the player")
	}

	if err := room.Detach("a", second.Attachment); err != nil {
		t.Fatalf("detach: %v", err)
	}
	state, _ = room.State()
	if state.Players[0].Connected {
		t.Fatalf("latest attachment must disconnect the player")
	}
	if err := room.Detach("nobody", 1); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected player not found, got %v", err)
	}
}

type countingTickers struct {
	mu      sync.Mutex
	ch      chan time.Time
	created int
	stopped int
}

func (c *countingTickers) New(time.Duration) (<-chan time.Time, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created++
	return c.ch, func() {
		c.mu.Lock()
		c.stopped++
		c.mu.Unlock()
	}
}

func (c *countingTickers) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created, c.stopped
}

func TestOpeningAQuestionRealignsTheTicker(t *testing.T) {
	tickers := &countingTickers{ch: make(chan time.Time)}
	reg := app.NewRegistry(app.Options{Store: memory.NewRoomStore(), Tickers: tickers.New})
	room, err := reg.Create(context.Background(), app.CreateRequest{
		Code: "ROOM1", OwnerID: "host", Questions: twoQuestions(), Config: quizConfig(),
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	defer reg.Shutdown()
	if created, _ := tickers.counts(); created != 1 {
		t.Fatalf("expected one ticker for the lobby, got %d", created)
	}

	join(t, room, "a", "Ana")
	if err := room.Start("host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if created, stopped := tickers.counts(); created != 2 || stopped != 1 {
		t.Fatalf("first question must restart the ticker, created %d stopped %d", created, stopped)
	}

	if _, err := submit(room, "a", "q1", `"a"`); err != nil {
		t.Fatalf("submit: %v", err)
	}
	tickers.ch <- time.Now()
	state, _ := room.State()
	if state.QuestionNumber != 2 {
		t.Fatalf("expected the second question after the pause, got %d", state.QuestionNumber)
	}
	if created, stopped := tickers.counts(); created != 3 || stopped != 2 {
		t.Fatalf("second question must restart the ticker, created %d stopped %d", created, stopped)
	}
}

type recordingMirror struct {
	mu  sync.Mutex
	ops []string
}

func (m *recordingMirror) Publish(_ context.Context, code string, entries []domain.LeaderboardEntry) error {
	// slow writes widen any reordering window
	time.Sleep(20 * time.Millisecond)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "publish "+code)
	return nil
}

func (m *recordingMirror) Clear(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "clear "+code)
	return nil
}

func TestMirrorClearLandsAfterEveryPublish(t *testing.T) {
	mirror := &recordingMirror{}
	reg := app.NewRegistry(app.Options{
		Store:  memory.NewRoomStore(),
		Mirror: mirror,
		Tickers: func(time.Duration) (<-chan time.Time, func()) {
			return make(chan time.Time), func() {}
		},
	})
	cfg := quizConfig()
	cfg.LeaderboardPauseSec = 0
	room, err := reg.Create(context.Background(), app.CreateRequest{
		Code: "ROOM1", OwnerID: "host", Questions: oneQuestion(), Config: cfg,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	join(t, room, "a", "Ana")
	_ = room.Start("host")
	if _, err := submit(room, "a", "q1", `"a"`); err != nil {
		t.Fatalf("submit: %v", err)
	}
	state, _ := room.State()
	if state.Phase != domain.PhaseFinished {
		t.Fatalf("expected finished, got %s", state.Phase)
	}
	if err := room.Close("host"); err != nil {
		t.Fatalf("close: %v", err)
	}
	waitDone(t, room)

	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	if len(mirror.ops) < 2 {
		t.Fatalf("expected at least one publish and a clear, got %v", mirror.ops)
	}
	for i, op := range mirror.ops {
		last := i == len(mirror.ops)-1
		if (last && op != "clear ROOM1") || (!last && op != "publish ROOM1") {
			t.Fatalf("mirror writes out of order: %v", mirror.ops)
		}
	}
}

func TestStartRequiresOwnerAndPlayers(t *testing.T) {
	h := newHarness(t)
	room := createQuiz(t, h, twoQuestions(), quizConfig())
	if err := room.Start("host"); !errors.Is(err, domain.ErrNoPlayers) {
		t.Fatalf("expected no players, got %v", err)
	}
	join(t, room, "a", "Ana")
	if err := room.Start("a"); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if err := room.Ready("a", true); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := room.Start("host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := room.Start("host"); !errors.Is(err, domain.ErrWrongPhase) {
		t.Fatalf("expected wrong phase on second start, got %v", err)
	}
	if err := room.Ready("a", false); !errors.Is(err, domain.ErrWrongPhase) {
		t.Fatalf("ready outside the lobby must be rejected, got %v", err)
	}
}

func TestCountdownPrecedesFirstQuestion(t *testing.T) {
	h := newHarness(t)
	cfg := quizConfig()
	cfg.CountdownTicks = 3
	room := createQuiz(t, h, twoQuestions(), cfg)
	join(t, room, "a", "Ana")
	_ = room.Start("host")

	state, _ := room.State()
	if state.Phase != domain.PhaseCountdown {
		t.Fatalf("expected countdown, got %s", state.Phase)
	}
	h.tick(room, 3)
	state, _ = room.State()
	if state.Phase != domain.PhaseQuestion || state.Question == nil || state.Question.QuestionID != "q1" {
		t.Fatalf("expected q1 open after countdown, got %+v", state)
	}
}

func TestCloseBroadcastsAndLeavesTombstone(t *testing.T) {
	h := newHarness(t)
	room := createQuiz(t, h, twoQuestions(), quizConfig())
	events, _, _ := room.Subscribe()
	join(t, room, "a", "Ana")

	if err := h.reg.Close("ROOM1", "a"); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if err := h.reg.Close("ROOM1", "host"); err != nil {
		t.Fatalf("close: %v", err)
	}
	waitDone(t, room)

	var closed int
	for ev := range events {
		if ev.Type == domain.EventGameClosed {
			closed++
		}
	}
	if closed != 1 {
		t.Fatalf("expected a single game:closed, got %d", closed)
	}
	if _, err := h.reg.Join("ROOM1", domain.JoinRequest{PlayerID: "b", Nickname: "Bo"}); !errors.Is(err, domain.ErrRoomClosed) {
		t.Fatalf("expected room closed for a torn-down code, got %v", err)
	}
	if _, err := h.reg.Get("OTHER"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAbandonedRoomIsTornDown(t *testing.T) {
	h := newHarness(t)
	cfg := quizConfig()
	cfg.GracePeriodSec = 3
	room := createQuiz(t, h, twoQuestions(), cfg)
	ana := join(t, room, "a", "Ana")
	_ = room.Start("host")
	_ = room.Detach("a", ana)

	h.tick(room, 2)
	select {
	case <-room.Done():
		t.Fatalf("room torn down before the grace period")
	default:
	}
	h.tick(room, 1)
	waitDone(t, room)
	if h.reg.Len() != 0 {
		t.Fatalf("expected registry empty, got %d", h.reg.Len())
	}
}

func TestResultsAreRetainedUntilRead(t *testing.T) {
	h := newHarness(t)
	cfg := quizConfig()
	cfg.LeaderboardPauseSec = 0
	room := createQuiz(t, h, oneQuestion(), cfg)
	join(t, room, "a", "Ana")
	join(t, room, "b", "Bo")
	_ = room.Start("host")

	h.clock.Advance(2 * time.Second)
	_, _ = submit(room, "a", "q1", `"a"`)
	h.clock.Advance(2 * time.Second)
	_, _ = submit(room, "b", "q1", `"b"`)

	res, err := h.reg.Results(context.Background(), "ROOM1")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(res.Questions) != 1 || res.Questions[0].Answered != 2 || res.Questions[0].Correct != 1 {
		t.Fatalf("unexpected question stats %+v", res.Questions)
	}
	if res.Questions[0].MinElapsedMs != 2000 || res.Questions[0].MaxElapsedMs != 4000 || res.Questions[0].AvgElapsedMs != 3000 {
		t.Fatalf("unexpected timing stats %+v", res.Questions[0])
	}
	if len(res.Rewards) != 2 || res.Rewards[0].PlayerID != "a" {
		t.Fatalf("unexpected rewards %+v", res.Rewards)
	}
	if _, err := h.reg.Results(context.Background(), "ROOM1"); !errors.Is(err, domain.ErrResultsNotFound) {
		t.Fatalf("expected results discarded after read, got %v", err)
	}
}

func TestFinishedRoomIsReleasedAfterRetention(t *testing.T) {
	h := newHarness(t)
	cfg := quizConfig()
	cfg.LeaderboardPauseSec = 0
	cfg.FinishedRetentionSec = 2
	room := createQuiz(t, h, oneQuestion(), cfg)
	join(t, room, "a", "Ana")
	_ = room.Start("host")
	_, _ = submit(room, "a", "q1", `"a"`)

	if _, err := room.Join(domain.JoinRequest{PlayerID: "z", Nickname: "Zed"}); !errors.Is(err, domain.ErrGameFinished) {
		t.Fatalf("expected finished room to refuse joins, got %v", err)
	}
	h.tick(room, 2)
	waitDone(t, room)
}

func TestCreateRejectsInvalidConfiguration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	badLimit := oneQuestion()
	badLimit[0].TimeLimitSec = -1
	noAnswer := []domain.Question{{ID: "q1", Type: domain.AnswerSingleChoice, Options: []domain.Option{{ID: "a"}}}}
	weight := domain.DefaultSessionConfig()
	weight.SpeedWeight = 2

	cases := map[string]app.CreateRequest{
		"no questions":   {OwnerID: "host", Mode: domain.ModeQuiz},
		"time limit":     {OwnerID: "host", Mode: domain.ModeQuiz, Questions: badLimit},
		"no canonical":   {OwnerID: "host", Mode: domain.ModeQuiz, Questions: noAnswer},
		"speed weight":   {OwnerID: "host", Mode: domain.ModeQuiz, Questions: oneQuestion(), Config: &weight},
		"no owner":       {Mode: domain.ModeQuiz, Questions: oneQuestion()},
		"starless board": {OwnerID: "host", Mode: domain.ModeBoard, Questions: oneQuestion(), Board: &domain.Board{Tiles: []domain.TileType{domain.TileNormal, domain.TileQuestion}}},
		"board pool":     {OwnerID: "host", Mode: domain.ModeBoard, Board: &domain.Board{Tiles: []domain.TileType{domain.TileNormal, domain.TileStar}}},
		"unknown mode":   {OwnerID: "host", Mode: "poker", Questions: oneQuestion()},
	}
	for name, req := range cases {
		if _, err := h.reg.Create(ctx, req); !errors.Is(err, domain.ErrInvalidConfig) {
			t.Fatalf("%s: expected invalid config, got %v", name, err)
		}
	}
	if h.reg.Len() != 0 {
		t.Fatalf("no room may be registered on invalid config")
	}
}

func TestCreateRejectsDuplicateLiveCode(t *testing.T) {
	h := newHarness(t)
	createQuiz(t, h, oneQuestion(), quizConfig())
	_, err := h.reg.Create(context.Background(), app.CreateRequest{Code: "room1", OwnerID: "host", Questions: oneQuestion()})
	if !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected duplicate code rejected, got %v", err)
	}

	generated, err := h.reg.Create(context.Background(), app.CreateRequest{OwnerID: "host", Questions: oneQuestion()})
	if err != nil {
		t.Fatalf("create with generated code: %v", err)
	}
	defer generated.Close("host")
	if len(generated.Code()) != 6 {
		t.Fatalf("expected 6 character code, got %q", generated.Code())
	}
}

func waitDone(t *testing.T, room *app.Room) {
	t.Helper()
	select {
	case <-room.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("room was not torn down")
	}
}

func TestShutdownClosesEveryRoom(t *testing.T) {
	h := newHarness(t)
	first := createQuiz(t, h, oneQuestion(), quizConfig())
	second, err := h.reg.Create(context.Background(), app.CreateRequest{
		Code:      "ROOM2",
		OwnerID:   "host",
		Questions: oneQuestion(),
		Config:    quizConfig(),
	})
	if err != nil {
		t.Fatalf("create second room: %v", err)
	}
	events, cancel, _ := second.Subscribe()
	defer cancel()

	h.reg.Shutdown()
	waitDone(t, first)
	waitDone(t, second)
	if h.reg.Len() != 0 {
		t.Fatalf("expected no live rooms, got %d", h.reg.Len())
	}
	got := drain(events)
	closed := ofType(got, domain.EventGameClosed)
	if len(closed) != 1 {
		t.Fatalf("expected one game:closed, got %d", len(closed))
	}
	if _, err := h.reg.Get("ROOM2"); !errors.Is(err, domain.ErrRoomClosed) {
		t.Fatalf("expected tombstone after shutdown, got %v", err)
	}
}
