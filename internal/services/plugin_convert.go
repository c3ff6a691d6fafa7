package services

import "github.com/gzfs/greenlit/internal/models"

// PluginToCategory maps a plugin into the category shape the questionnaire
// renders. Validation metadata is dropped here: bounds only matter at answer
// time, where the question is looked up in its source plugin.
func PluginToCategory(p *models.QuestionPlugin) models.Category {
	questions := make([]models.Question, 0, len(p.Questions))
	for _, q := range p.Questions {
		questions = append(questions, models.Question{
			ID:   q.ID,
			Text: q.Text,
			Type: q.Type,
			Unit: q.Unit,
			Code: q.Code,
		})
	}
	return models.Category{Title: p.Name, Questions: questions}
}
