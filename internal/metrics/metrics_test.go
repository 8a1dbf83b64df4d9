package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"classroom-game-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomLifecycleCounters(t *testing.T) {
	m := New()
	m.RoomOpened(domain.ModeQuiz)
	m.RoomOpened(domain.ModeBoard)
	m.RoomClosed("finished")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoomsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoomsOpened.WithLabelValues("board")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoomsClosed.WithLabelValues("finished")))
}

func TestGameplayCounters(t *testing.T) {
	m := New()
	m.AnswerScored(true)
	m.AnswerScored(true)
	m.AnswerScored(false)
	m.ActionRejected("too_late")
	m.DiceRolled()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Answers.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Answers.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("too_late")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DiceRolls))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.DiceRolled()
	m.ObserveRequest("/rooms", http.StatusCreated, time.Now())

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "classroom_dice_rolls_total 1"))
	assert.True(t, strings.Contains(string(body), `classroom_http_request_duration_seconds_count{route="/rooms",status="201"} 1`))
}
