package services

import (
	"encoding/json"
	"fmt"

	"github.com/gzfs/greenlit/internal/models"
)

// AnswerKind tags the value variant held by an Answer.
type AnswerKind string

const (
	AnswerNumber AnswerKind = "number"
	AnswerText   AnswerKind = "text"
	AnswerBool   AnswerKind = "boolean"
)

// Answer is a tagged union over the value shapes a question can take.
// On the wire and in storage it is the bare JSON value (number, string or
// bool), matching the flat answer map the questionnaire has always kept;
// the kind is recovered from the JSON type on decode. Percentage answers are
// numbers; the 0-100 constraint is enforced against the question at write
// time by CheckAnswer.
type Answer struct {
	Kind   AnswerKind
	Number float64
	Text   string
	Bool   bool
}

func NumberAnswer(v float64) Answer { return Answer{Kind: AnswerNumber, Number: v} }
func TextAnswer(v string) Answer    { return Answer{Kind: AnswerText, Text: v} }
func BoolAnswer(v bool) Answer      { return Answer{Kind: AnswerBool, Bool: v} }

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerNumber:
		return json.Marshal(a.Number)
	case AnswerText:
		return json.Marshal(a.Text)
	case AnswerBool:
		return json.Marshal(a.Bool)
	default:
		return nil, fmt.Errorf("answer has unknown kind %q", a.Kind)
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*a = NumberAnswer(val)
	case string:
		*a = TextAnswer(val)
	case bool:
		*a = BoolAnswer(val)
	default:
		return fmt.Errorf("answer must be a number, string or bool, got %T", v)
	}
	return nil
}

// AnswerMap maps question ids to recorded answers. It grows as the user
// answers questions and is never pruned automatically; uninstalling a plugin
// keeps the answers already recorded for its questions.
type AnswerMap map[string]Answer

// CheckAnswer verifies an answer value against the question's declared type
// and optional bounds. Writes that fail here never reach storage.
func CheckAnswer(q *models.Question, a Answer) error {
	switch q.Type {
	case "number":
		if a.Kind != AnswerNumber {
			return NewInvalidError(fmt.Sprintf("question %s expects a numeric answer", q.ID))
		}
		return checkBounds(q, a.Number)
	case "percentage":
		if a.Kind != AnswerNumber {
			return NewInvalidError(fmt.Sprintf("question %s expects a numeric answer", q.ID))
		}
		if a.Number < 0 || a.Number > 100 {
			return NewInvalidError(fmt.Sprintf("question %s expects a percentage between 0 and 100", q.ID))
		}
		return checkBounds(q, a.Number)
	case "text":
		if a.Kind != AnswerText {
			return NewInvalidError(fmt.Sprintf("question %s expects a text answer", q.ID))
		}
		return nil
	case "boolean":
		if a.Kind != AnswerBool {
			return NewInvalidError(fmt.Sprintf("question %s expects a boolean answer", q.ID))
		}
		return nil
	default:
		return NewInvalidError(fmt.Sprintf("question %s has unknown type %q", q.ID, q.Type))
	}
}

func checkBounds(q *models.Question, v float64) error {
	if q.Validation == nil {
		return nil
	}
	if q.Validation.Min != nil && v < *q.Validation.Min {
		return NewInvalidError(fmt.Sprintf("question %s expects a value of at least %g", q.ID, *q.Validation.Min))
	}
	if q.Validation.Max != nil && v > *q.Validation.Max {
		return NewInvalidError(fmt.Sprintf("question %s expects a value of at most %g", q.ID, *q.Validation.Max))
	}
	return nil
}
