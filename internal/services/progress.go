package services

import "github.com/gzfs/greenlit/internal/models"

// CategoryProgress is derived for one category (or plugin standard) bucket.
// It is recomputed from scratch whenever the answer map or the installed
// plugin set changes; nothing here is persisted.
type CategoryProgress struct {
	Total      int     `json:"total"`
	Answered   int     `json:"answered"`
	Percentage float64 `json:"percentage"`
}

// ProgressData maps a category key or plugin standard to its progress bucket.
type ProgressData map[string]CategoryProgress

// CalculateProgress derives completion per built-in category and per plugin
// standard. Plugins sharing a standard merge into one bucket, so multiple
// installed plugins for e.g. ISO 14001 feed a single progress bar. A bucket
// with zero questions reports 0%, not NaN.
func CalculateProgress(categories map[string]models.Category, plugins []models.QuestionPlugin, answers AnswerMap) ProgressData {
	progress := ProgressData{}
	answered := make(map[string]bool, len(answers))
	for id := range answers {
		answered[id] = true
	}

	for key, category := range categories {
		bucket := CategoryProgress{Total: len(category.Questions)}
		for _, q := range category.Questions {
			if answered[q.ID] {
				bucket.Answered++
			}
		}
		bucket.Percentage = percentage(bucket.Answered, bucket.Total)
		progress[key] = bucket
	}

	for _, p := range plugins {
		bucket := progress[p.Standard]
		bucket.Total += len(p.Questions)
		for _, q := range p.Questions {
			if answered[q.ID] {
				bucket.Answered++
			}
		}
		bucket.Percentage = percentage(bucket.Answered, bucket.Total)
		progress[p.Standard] = bucket
	}

	return progress
}

// TotalProgress collapses all buckets into one completion figure. An empty
// questionnaire reports 0.
func TotalProgress(progress ProgressData) float64 {
	total, answered := 0, 0
	for _, bucket := range progress {
		total += bucket.Total
		answered += bucket.Answered
	}
	return percentage(answered, total)
}

func percentage(answered, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(answered) / float64(total) * 100
}
