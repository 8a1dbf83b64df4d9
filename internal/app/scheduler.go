package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"classroom-game-service/internal/board"
	"classroom-game-service/internal/domain"
	"classroom-game-service/internal/leaderboard"
	"classroom-game-service/internal/scoring"
)

func timeLimit(q domain.Question, cfg domain.SessionConfig) int {
	if q.TimeLimitSec != 0 {
		return q.TimeLimitSec
	}
	return cfg.TimeLimitSec
}

func basePoints(q domain.Question, cfg domain.SessionConfig) int {
	if q.Points > 0 {
		return q.Points
	}
	return cfg.PointsPerQuestion
}

// Start leaves the lobby. Only the owner may start, and someone must be connected.
func (r *Room) Start(requesterID string) error {
	return r.do(func() error {
		if requesterID != r.ownerID {
			return domain.ErrNotOwner
		}
		if r.phase != domain.PhaseLobby {
			return fmt.Errorf("%w: game already started", domain.ErrWrongPhase)
		}
		if r.connectedCount() == 0 {
			return domain.ErrNoPlayers
		}
		r.startedAt = r.now()
		r.broadcast(domain.EventGameStarted, startedPayload{
			Mode:           r.mode,
			TotalQuestions: len(r.questions),
			Players:        r.publicPlayers(),
		})
		r.log.Info().Int("players", len(r.players)).Msg("game started")
		if r.mode == domain.ModeBoard {
			return r.startBoard()
		}
		if r.cfg.CountdownTicks > 0 {
			r.phase = domain.PhaseCountdown
			r.ticks = r.cfg.CountdownTicks
			r.broadcast(domain.EventGameCountdown, countdownPayload{Remaining: r.ticks})
			return nil
		}
		r.openQuestion(0)
		return nil
	})
}

func (r *Room) current() domain.Question {
	if r.qIndex < 0 || r.qIndex >= len(r.questions) {
		return domain.Question{}
	}
	return r.questions[r.qIndex]
}

func (r *Room) openQuestion(index int) {
	r.qIndex = index
	q := r.questions[index]
	limit := timeLimit(q, r.cfg)
	r.phase = domain.PhaseQuestion
	r.restartTicker()
	r.openedAt = r.now()
	r.deadline = r.openedAt.Add(time.Duration(limit) * r.reg.opts.TickInterval)
	r.ticks = limit

	view := domain.NewQuestionView(q, limit)
	view.QuestionNumber = index + 1
	view.TotalQuestions = len(r.questions)
	r.broadcast(domain.EventQuestionNew, view)
}

// SubmitAnswer scores one answer for the open question. Each player is scored
// at most once per question; elapsed time comes from the room clock.
func (r *Room) SubmitAnswer(sub domain.AnswerSubmission) (domain.AnswerResult, error) {
	var res domain.AnswerResult
	err := r.do(func() error {
		p, ok := r.players[sub.PlayerID]
		if !ok {
			return domain.ErrPlayerNotFound
		}
		if r.mode != domain.ModeQuiz {
			return fmt.Errorf("%w: room plays the board", domain.ErrWrongPhase)
		}
		idx := r.questionIndex(sub.QuestionID)
		if idx < 0 {
			return domain.ErrQuestionNotFound
		}
		switch {
		case r.phase == domain.PhaseFinished:
			return domain.ErrGameFinished
		case idx < r.qIndex:
			return domain.ErrTooLate
		case idx > r.qIndex:
			return fmt.Errorf("%w: question not open", domain.ErrWrongPhase)
		case r.phase != domain.PhaseQuestion:
			return domain.ErrTooLate
		}
		if _, done := p.Answers[sub.QuestionID]; done {
			return domain.ErrAlreadyAnswered
		}
		now := r.now()
		if now.After(r.deadline) {
			return domain.ErrTooLate
		}

		q := r.questions[idx]
		canonical, err := scoring.Canonical(q)
		if err != nil {
			return err
		}
		submitted, err := scoring.ParseAnswer(q.Type, sub.Answer)
		if err != nil {
			return err
		}
		correct := scoring.IsCorrect(canonical, submitted)
		elapsed := now.Sub(r.openedAt)
		out := scoring.Compute(scoring.Input{
			Correct:     correct,
			BasePoints:  basePoints(q, r.cfg),
			TimeLimit:   time.Duration(timeLimit(q, r.cfg)) * r.reg.opts.TickInterval,
			Elapsed:     elapsed,
			ComboStreak: p.ComboStreak,
		}, r.scoring)
		scoring.Apply(p, out)
		p.Answers[q.ID] = domain.AnswerRecord{
			QuestionID: q.ID,
			Answered:   true,
			Correct:    correct,
			Points:     out.Breakdown.Total,
			Elapsed:    elapsed,
			Breakdown:  out.Breakdown,
		}
		r.reg.opts.Metrics.AnswerScored(correct)

		res = domain.AnswerResult{
			QuestionID:    q.ID,
			IsCorrect:     correct,
			Points:        out.Breakdown.Total,
			Breakdown:     out.Breakdown,
			ComboStreak:   p.ComboStreak,
			TotalScore:    p.Score,
			CorrectAnswer: canonicalJSON(q),
		}
		if r.allAnswered() {
			r.grade()
		}
		return nil
	})
	return res, err
}

func (r *Room) questionIndex(id string) int {
	for i, q := range r.questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// allAnswered is true once every connected player has a record for the open question.
func (r *Room) allAnswered() bool {
	q := r.current()
	connected := 0
	for _, p := range r.players {
		if !p.Connected {
			continue
		}
		connected++
		if _, ok := p.Answers[q.ID]; !ok {
			return false
		}
	}
	return connected > 0
}

func canonicalJSON(q domain.Question) json.RawMessage {
	if len(q.CorrectAnswer) > 0 {
		return q.CorrectAnswer
	}
	var ids []string
	for _, o := range q.Options {
		if o.Correct {
			ids = append(ids, o.ID)
		}
	}
	var v any = ids
	if q.Type == domain.AnswerSingleChoice && len(ids) == 1 {
		v = ids[0]
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

// grade settles the open question: non-answerers get zero and lose their streak.
func (r *Room) grade() {
	q := r.current()
	r.phase = domain.PhaseGrading
	for _, p := range r.players {
		if _, ok := p.Answers[q.ID]; ok {
			continue
		}
		p.ComboStreak = 0
		p.Answers[q.ID] = domain.AnswerRecord{QuestionID: q.ID}
	}
	r.stats = append(r.stats, questionStats(r.qIndex, q.ID, r.ordered()))
	r.ranking = r.rank()
	r.mirror(r.ranking)

	r.broadcast(domain.EventQuestionResults, resultsPayload{
		QuestionID:    q.ID,
		CorrectAnswer: canonicalJSON(q),
		Leaderboard:   r.ranking,
		Stats:         r.stats[len(r.stats)-1],
	})
	r.broadcast(domain.EventLeaderboardUpdate, leaderboardPayload{Leaderboard: r.ranking})

	r.phase = domain.PhaseLeaderboard
	r.ticks = r.cfg.LeaderboardPauseSec
	if r.ticks <= 0 {
		r.advanceQuestion()
	}
}

func (r *Room) advanceQuestion() {
	if r.qIndex+1 < len(r.questions) {
		r.openQuestion(r.qIndex + 1)
		return
	}
	r.finish(r.rank(), r.quizAccuracy())
}

func (r *Room) quizAccuracy() map[string]float64 {
	ids := make([]string, 0, len(r.questions))
	for _, q := range r.questions {
		ids = append(ids, q.ID)
	}
	return leaderboard.Accuracy(r.ordered(), ids)
}

// finish settles the game, stores the results for the reporting read and tells everyone.
func (r *Room) finish(final []domain.LeaderboardEntry, accuracy map[string]float64) {
	r.phase = domain.PhaseFinished
	r.endedAt = r.now()
	r.finishedTicks = 0
	r.ranking = final
	rewards := leaderboard.Rewards(final, accuracy)

	results := domain.RoomResults{
		Code:           r.code,
		SessionID:      r.sessionID,
		Mode:           r.mode,
		StartedAt:      r.startedAt,
		EndedAt:        r.endedAt,
		TotalQuestions: len(r.stats),
		Leaderboard:    final,
		Rewards:        rewards,
		Questions:      r.stats,
	}
	if store := r.reg.opts.Results; store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := store.Save(ctx, results); err != nil {
			r.log.Error().Err(err).Msg("save results")
		}
		cancel()
	}
	r.mirror(final)

	total := len(r.questions)
	if r.mode == domain.ModeBoard {
		total = len(r.stats)
	}
	r.broadcast(domain.EventGameFinished, finishedPayload{
		Leaderboard:    final,
		TotalQuestions: total,
		Rewards:        rewards,
	})
	r.log.Info().Dur("duration", r.endedAt.Sub(r.startedAt)).Msg("game finished")
}

// questionStats summarizes the settled answers of one question.
func questionStats(index int, questionID string, players []*domain.Player) domain.QuestionStats {
	s := domain.QuestionStats{QuestionID: questionID, Index: index, Players: len(players)}
	for _, p := range players {
		rec, ok := p.Answers[questionID]
		if !ok || !rec.Answered {
			continue
		}
		s.Answered++
		if rec.Correct {
			s.Correct++
		}
		ms := rec.Elapsed.Milliseconds()
		s.TotalElapsedMs += ms
		if s.Answered == 1 || ms < s.MinElapsedMs {
			s.MinElapsedMs = ms
		}
		if ms > s.MaxElapsedMs {
			s.MaxElapsedMs = ms
		}
	}
	if s.Answered > 0 {
		s.AvgElapsedMs = s.TotalElapsedMs / int64(s.Answered)
	}
	if s.Players > 0 {
		s.Accuracy = float64(s.Correct) / float64(s.Players)
	}
	return s
}

func (r *Room) startBoard() error {
	deck := board.NewDeck(r.questions, r.cfg.TimeLimitSec, r.reg.opts.Dice())
	r.game = board.NewGame(r.board, board.ConfigFrom(r.cfg), deck, r.reg.opts.Dice(), r.broadcast)
	if err := r.game.Start(r.ordered()); err != nil {
		r.game = nil
		return err
	}
	r.phase = domain.PhasePlaying
	return nil
}
