package services

import (
	"strings"

	"github.com/gzfs/greenlit/internal/models"
)

// QuestionsPerPage is the fixed page size for question pagination.
const QuestionsPerPage = 3

// CategoryView is a category as listed to the client, addressable by key.
// Built-in categories keep their topic key; plugin-derived ones use the
// plugin id.
type CategoryView struct {
	Key       string            `json:"key"`
	Title     string            `json:"title"`
	Questions []models.Question `json:"questions"`
}

// SubmitResult reports the progress state after an answer write. Completed
// flips once total progress reaches 100%; the client uses it to schedule its
// redirect to the summary view.
type SubmitResult struct {
	Progress  ProgressData `json:"progress"`
	Total     float64      `json:"total"`
	Completed bool         `json:"completed"`
}

// QuestionnaireService orchestrates category composition, answer capture and
// progress recomputation over the built-in set plus a user's installed
// plugins.
type QuestionnaireService struct {
	vault *AnswerVault
}

func NewQuestionnaireService(vault *AnswerVault) *QuestionnaireService {
	return &QuestionnaireService{vault: vault}
}

// Categories returns the combined category list: built-ins in display order,
// then one category per installed plugin.
func (s *QuestionnaireService) Categories(userID string) []CategoryView {
	out := make([]CategoryView, 0, len(builtinOrder))
	for _, key := range builtinOrder {
		cat := builtinCategories[key]
		out = append(out, CategoryView{Key: key, Title: cat.Title, Questions: cat.Questions})
	}
	for _, p := range s.vault.LoadInstalledPlugins(userID) {
		cat := PluginToCategory(&p)
		out = append(out, CategoryView{Key: p.ID, Title: cat.Title, Questions: cat.Questions})
	}
	return out
}

// Category resolves a single category by key, looking first in the built-in
// set and then among installed plugins.
func (s *QuestionnaireService) Category(userID, key string) (*CategoryView, error) {
	if cat, ok := builtinCategories[key]; ok {
		return &CategoryView{Key: key, Title: cat.Title, Questions: cat.Questions}, nil
	}
	for _, p := range s.vault.LoadInstalledPlugins(userID) {
		if p.ID == key {
			cat := PluginToCategory(&p)
			return &CategoryView{Key: p.ID, Title: cat.Title, Questions: cat.Questions}, nil
		}
	}
	return nil, NewNotFoundError("category not found")
}

// Page slices a category's questions for the given zero-based page, clamped
// to the valid range. Returns the page plus the total page count.
func Page(cat *CategoryView, page int) ([]models.Question, int) {
	totalPages := (len(cat.Questions) + QuestionsPerPage - 1) / QuestionsPerPage
	if totalPages == 0 {
		return nil, 0
	}
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}
	start := page * QuestionsPerPage
	end := start + QuestionsPerPage
	if end > len(cat.Questions) {
		end = len(cat.Questions)
	}
	return cat.Questions[start:end], totalPages
}

// Answers returns the user's full answer map.
func (s *QuestionnaireService) Answers(userID string) AnswerMap {
	return s.vault.LoadAnswers(userID)
}

// SubmitAnswer validates the value against the question's declared type,
// upserts it into the answer map, persists, and recomputes progress.
func (s *QuestionnaireService) SubmitAnswer(userID, questionID string, ans Answer) (*SubmitResult, error) {
	plugins := s.vault.LoadInstalledPlugins(userID)
	q := findQuestion(questionID, plugins)
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	if err := CheckAnswer(q, ans); err != nil {
		return nil, err
	}

	answers := s.vault.LoadAnswers(userID)
	answers[questionID] = ans
	s.vault.SaveAnswers(userID, answers)

	progress := CalculateProgress(builtinCategories, plugins, answers)
	total := TotalProgress(progress)
	return &SubmitResult{Progress: progress, Total: total, Completed: total >= 100}, nil
}

// InstallPlugin validates the manifest and adds it to the user's installed
// set. Installing an already-installed plugin is a no-op.
func (s *QuestionnaireService) InstallPlugin(userID string, p *models.QuestionPlugin) error {
	if violations := ValidatePlugin(p); len(violations) > 0 {
		return NewInvalidError("invalid plugin: " + strings.Join(violations, "; "))
	}
	plugins := s.vault.LoadInstalledPlugins(userID)
	for _, installed := range plugins {
		if installed.ID == p.ID {
			return nil
		}
	}
	plugins = append(plugins, *p)
	s.vault.SaveInstalledPlugins(userID, plugins)
	return nil
}

// UninstallPlugin removes the plugin from the installed set. Answers already
// recorded for its questions are retained.
func (s *QuestionnaireService) UninstallPlugin(userID, pluginID string) error {
	plugins := s.vault.LoadInstalledPlugins(userID)
	kept := plugins[:0]
	for _, p := range plugins {
		if p.ID != pluginID {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(plugins) {
		return NewNotFoundError("plugin not installed")
	}
	s.vault.SaveInstalledPlugins(userID, kept)
	return nil
}

// Progress recomputes per-bucket and total completion for the user.
func (s *QuestionnaireService) Progress(userID string) (ProgressData, float64) {
	plugins := s.vault.LoadInstalledPlugins(userID)
	answers := s.vault.LoadAnswers(userID)
	progress := CalculateProgress(builtinCategories, plugins, answers)
	return progress, TotalProgress(progress)
}

// findQuestion resolves a question id across the built-in categories and the
// installed plugins. Plugin questions are returned with their validation
// bounds intact, which the converted category view drops.
func findQuestion(id string, plugins []models.QuestionPlugin) *models.Question {
	for _, key := range builtinOrder {
		for i := range builtinCategories[key].Questions {
			if builtinCategories[key].Questions[i].ID == id {
				return &builtinCategories[key].Questions[i]
			}
		}
	}
	for pi := range plugins {
		for qi := range plugins[pi].Questions {
			if plugins[pi].Questions[qi].ID == id {
				return &plugins[pi].Questions[qi]
			}
		}
	}
	return nil
}
