package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// ExportAnswersCSV renders the user's questionnaire state as a long-format
// CSV: one row per question in listing order, answered or not. Unanswered
// questions export with an empty answer cell.
func ExportAnswersCSV(categories []CategoryView, answers AnswerMap) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"category", "question_id", "code", "type", "unit", "answer"})
	for _, cat := range categories {
		for _, q := range cat.Questions {
			rec := []string{cat.Title, q.ID, q.Code, q.Type, q.Unit, ""}
			if ans, ok := answers[q.ID]; ok {
				rec[5] = formatAnswer(ans)
			}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatAnswer(a Answer) string {
	switch a.Kind {
	case AnswerNumber:
		return strconv.FormatFloat(a.Number, 'f', -1, 64)
	case AnswerText:
		return a.Text
	case AnswerBool:
		return strconv.FormatBool(a.Bool)
	default:
		return ""
	}
}
