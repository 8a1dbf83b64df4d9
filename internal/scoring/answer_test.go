package scoring

import (
	"encoding/json"
	"testing"

	"classroom-game-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCorrectByType(t *testing.T) {
	cases := []struct {
		name      string
		question  domain.Question
		submitted string
		want      bool
	}{
		{
			name:      "single choice from flagged option",
			question:  domain.Question{ID: "q1", Type: domain.AnswerSingleChoice, Options: []domain.Option{{ID: "a"}, {ID: "b", Correct: true}}},
			submitted: `"b"`,
			want:      true,
		},
		{
			name:      "single choice wrong",
			question:  domain.Question{ID: "q1", Type: domain.AnswerSingleChoice, CorrectAnswer: json.RawMessage(`"b"`)},
			submitted: `"a"`,
			want:      false,
		},
		{
			name:      "numeric choice",
			question:  domain.Question{ID: "q1", Type: domain.AnswerSingleChoice, CorrectAnswer: json.RawMessage(`2`)},
			submitted: `"2"`,
			want:      true,
		},
		{
			name:      "true false accepts strings",
			question:  domain.Question{ID: "q2", Type: domain.AnswerTrueFalse, CorrectAnswer: json.RawMessage(`true`)},
			submitted: `"TRUE"`,
			want:      true,
		},
		{
			name:      "multi select is a set",
			question:  domain.Question{ID: "q3", Type: domain.AnswerMultiSelect, CorrectAnswer: json.RawMessage(`["a","c"]`)},
			submitted: `["c","a","a"]`,
			want:      true,
		},
		{
			name:      "multi select missing one",
			question:  domain.Question{ID: "q3", Type: domain.AnswerMultiSelect, CorrectAnswer: json.RawMessage(`["a","c"]`)},
			submitted: `["a"]`,
			want:      false,
		},
		{
			name:      "ordering must match order",
			question:  domain.Question{ID: "q4", Type: domain.AnswerOrdering, CorrectAnswer: json.RawMessage(`["x","y","z"]`)},
			submitted: `["x","z","y"]`,
			want:      false,
		},
		{
			name:      "ordering exact",
			question:  domain.Question{ID: "q4", Type: domain.AnswerOrdering, CorrectAnswer: json.RawMessage(`["x","y","z"]`)},
			submitted: `["x","y","z"]`,
			want:      true,
		},
		{
			name:      "free text trimmed and case-insensitive",
			question:  domain.Question{ID: "q5", Type: domain.AnswerFreeText, CorrectAnswer: json.RawMessage(`"Photosynthesis"`)},
			submitted: `"  photosynthesis "`,
			want:      true,
		},
		{
			name:      "free text alternatives",
			question:  domain.Question{ID: "q5", Type: domain.AnswerFreeText, CorrectAnswer: json.RawMessage(`["color","colour"]`)},
			submitted: `"Colour"`,
			want:      true,
		},
		{
			name:      "matching pairwise",
			question:  domain.Question{ID: "q6", Type: domain.AnswerMatching, CorrectAnswer: json.RawMessage(`{"fr":"paris","es":"madrid"}`)},
			submitted: `[{"left":"es","right":"madrid"},{"left":"fr","right":"paris"}]`,
			want:      true,
		},
		{
			name:      "matching swapped",
			question:  domain.Question{ID: "q6", Type: domain.AnswerMatching, CorrectAnswer: json.RawMessage(`{"fr":"paris","es":"madrid"}`)},
			submitted: `{"fr":"madrid","es":"paris"}`,
			want:      false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			canonical, err := Canonical(tc.question)
			require.NoError(t, err)
			submitted, err := ParseAnswer(tc.question.Type, json.RawMessage(tc.submitted))
			require.NoError(t, err)
			assert.Equal(t, tc.want, IsCorrect(canonical, submitted))
		})
	}
}

func TestParseAnswerRejectsShapeMismatch(t *testing.T) {
	_, err := ParseAnswer(domain.AnswerMultiSelect, json.RawMessage(`"a"`))
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)

	_, err = ParseAnswer(domain.AnswerTrueFalse, json.RawMessage(`"maybe"`))
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)

	_, err = ParseAnswer(domain.AnswerSingleChoice, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
}

func TestCanonicalRequiresAnswer(t *testing.T) {
	_, err := Canonical(domain.Question{ID: "q", Type: domain.AnswerOrdering})
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
}
