package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"classroom-game-service/internal/domain"
)

// Answer is a submitted or canonical value normalized for comparison.
type Answer struct {
	Type   domain.AnswerType
	Choice string
	// Items holds multi-select choices, an ordering, or accepted free-text alternatives.
	Items []string
	Text  string
	Pairs map[string]string
}

// ParseAnswer decodes a raw submission according to the question type.
func ParseAnswer(t domain.AnswerType, raw json.RawMessage) (Answer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Answer{}, domain.ErrInvalidAnswer
	}
	a := Answer{Type: t}
	switch t {
	case domain.AnswerSingleChoice:
		s, err := scalar(raw)
		if err != nil {
			return Answer{}, err
		}
		a.Choice = s
	case domain.AnswerTrueFalse:
		s, err := scalar(raw)
		if err != nil {
			return Answer{}, err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			a.Choice = "true"
		case "false":
			a.Choice = "false"
		default:
			return Answer{}, domain.ErrInvalidAnswer
		}
	case domain.AnswerMultiSelect, domain.AnswerOrdering:
		items, err := list(raw)
		if err != nil {
			return Answer{}, err
		}
		a.Items = items
	case domain.AnswerFreeText:
		s, err := scalar(raw)
		if err != nil {
			return Answer{}, err
		}
		a.Text = s
	case domain.AnswerMatching:
		m, err := pairs(raw)
		if err != nil {
			return Answer{}, err
		}
		a.Pairs = m
	default:
		return Answer{}, fmt.Errorf("%w: unknown answer type %q", domain.ErrInvalidAnswer, t)
	}
	return a, nil
}

// Canonical extracts the correct answer of q. Single-choice and multi-select
// questions without an explicit value fall back to options flagged correct.
func Canonical(q domain.Question) (Answer, error) {
	if len(bytes.TrimSpace(q.CorrectAnswer)) > 0 {
		if q.Type == domain.AnswerFreeText {
			if alts, err := list(q.CorrectAnswer); err == nil && len(alts) > 0 {
				return Answer{Type: q.Type, Text: alts[0], Items: alts}, nil
			}
		}
		a, err := ParseAnswer(q.Type, q.CorrectAnswer)
		if err != nil {
			return Answer{}, fmt.Errorf("question %s: %w", q.ID, err)
		}
		if q.Type == domain.AnswerFreeText {
			a.Items = []string{a.Text}
		}
		return a, nil
	}

	var flagged []string
	for _, o := range q.Options {
		if o.Correct {
			flagged = append(flagged, o.ID)
		}
	}
	switch q.Type {
	case domain.AnswerSingleChoice:
		if len(flagged) == 1 {
			return Answer{Type: q.Type, Choice: flagged[0]}, nil
		}
	case domain.AnswerMultiSelect:
		if len(flagged) > 0 {
			return Answer{Type: q.Type, Items: flagged}, nil
		}
	}
	return Answer{}, fmt.Errorf("question %s: %w: no canonical answer", q.ID, domain.ErrInvalidAnswer)
}

// IsCorrect compares a submission against the canonical answer.
func IsCorrect(canonical, submitted Answer) bool {
	switch canonical.Type {
	case domain.AnswerSingleChoice, domain.AnswerTrueFalse:
		return canonical.Choice == submitted.Choice
	case domain.AnswerMultiSelect:
		return sameSet(canonical.Items, submitted.Items)
	case domain.AnswerOrdering:
		if len(canonical.Items) != len(submitted.Items) {
			return false
		}
		for i := range canonical.Items {
			if canonical.Items[i] != submitted.Items[i] {
				return false
			}
		}
		return true
	case domain.AnswerFreeText:
		got := strings.TrimSpace(submitted.Text)
		for _, alt := range canonical.Items {
			if strings.EqualFold(strings.TrimSpace(alt), got) {
				return true
			}
		}
		return false
	case domain.AnswerMatching:
		if len(canonical.Pairs) != len(submitted.Pairs) {
			return false
		}
		for k, v := range canonical.Pairs {
			if submitted.Pairs[k] != v {
				return false
			}
		}
		return true
	}
	return false
}

func sameSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, s := range a {
		as[s] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, s := range b {
		bs[s] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for s := range as {
		if _, ok := bs[s]; !ok {
			return false
		}
	}
	return true
}

func scalar(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", domain.ErrInvalidAnswer
	}
	return scalarString(v)
}

func scalarString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	return "", domain.ErrInvalidAnswer
}

func list(raw json.RawMessage) ([]string, error) {
	var vs []any
	if err := json.Unmarshal(raw, &vs); err != nil {
		return nil, domain.ErrInvalidAnswer
	}
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		s, err := scalarString(v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// pairs accepts {"left":"right"} objects or [{"left":..,"right":..}] lists.
func pairs(raw json.RawMessage) (map[string]string, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		out := make(map[string]string, len(obj))
		for k, v := range obj {
			s, err := scalarString(v)
			if err != nil {
				return nil, err
			}
			out[k] = s
		}
		return out, nil
	}
	var entries []struct {
		Left  any `json:"left"`
		Right any `json:"right"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, domain.ErrInvalidAnswer
	}
	out := make(map[string]string, len(entries))
	for _, p := range entries {
		l, err := scalarString(p.Left)
		if err != nil {
			return nil, err
		}
		r, err := scalarString(p.Right)
		if err != nil {
			return nil, err
		}
		out[l] = r
	}
	return out, nil
}
