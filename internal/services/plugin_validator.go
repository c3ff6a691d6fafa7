package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gzfs/greenlit/internal/models"
)

var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Question types the validator accepts. The runtime answer model also allows
// boolean questions; the marketplace validator has never accepted them, so
// boolean manifests are rejected here on purpose.
var validatorQuestionTypes = map[string]bool{
	"number":     true,
	"percentage": true,
	"text":       true,
}

// ValidatePlugin checks a plugin manifest and returns the list of violations.
// An empty list means the plugin is installable. The function is pure: no
// side effects, no mutation of the input.
func ValidatePlugin(p *models.QuestionPlugin) []string {
	errs := []string{}
	if p == nil {
		return []string{"Missing required field: id", "Missing required field: name",
			"Missing required field: version", "Missing required field: standard",
			"Missing required field: category", "Missing required field: questions"}
	}

	required := []struct {
		name  string
		empty bool
	}{
		{"id", p.ID == ""},
		{"name", p.Name == ""},
		{"version", p.Version == ""},
		{"standard", p.Standard == ""},
		{"category", p.Category == ""},
		{"questions", p.Questions == nil},
	}
	for _, f := range required {
		if f.empty {
			errs = append(errs, "Missing required field: "+f.name)
		}
	}

	if !semverPattern.MatchString(p.Version) {
		errs = append(errs, "Invalid version format. Must be semver (e.g., 1.0.0)")
	}

	if p.Questions == nil {
		errs = append(errs, "Questions must be an array")
		return errs
	}
	for i, q := range p.Questions {
		if qErrs := validateQuestion(q); len(qErrs) > 0 {
			errs = append(errs, fmt.Sprintf("Question %d: %s", i+1, strings.Join(qErrs, ", ")))
		}
	}
	return errs
}

func validateQuestion(q models.Question) []string {
	errs := []string{}

	required := []struct {
		name  string
		empty bool
	}{
		{"id", q.ID == ""},
		{"text", q.Text == ""},
		{"type", q.Type == ""},
		{"unit", q.Unit == ""},
		{"code", q.Code == ""},
	}
	for _, f := range required {
		if f.empty {
			errs = append(errs, "Missing required field: "+f.name)
		}
	}

	if !validatorQuestionTypes[q.Type] {
		errs = append(errs, "Invalid question type")
	}

	if q.Validation != nil && q.Type == "percentage" {
		if q.Validation.Max != nil && *q.Validation.Max > 100 {
			errs = append(errs, "Percentage cannot exceed 100")
		}
		if q.Validation.Min != nil && *q.Validation.Min < 0 {
			errs = append(errs, "Percentage cannot be negative")
		}
	}

	return errs
}
