package models

import "time"

// Question is a single data-collection item inside a category. IDs are
// expected to be unique across the combined built-in and plugin question set.
type Question struct {
	ID         string              `json:"id"`
	Text       string              `json:"text"`
	Type       string              `json:"type"` // number | percentage | text | boolean
	Unit       string              `json:"unit"` // "n/a" when not applicable
	Code       string              `json:"code"` // disclosure framework reference, e.g. TC-SI-130a.1
	Validation *QuestionValidation `json:"validation,omitempty"`
}

// QuestionValidation carries optional numeric bounds. Meaningful for the
// number and percentage question types.
type QuestionValidation struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Category groups questions under a display title.
type Category struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// PluginMetadata describes the plugin author.
type PluginMetadata struct {
	Author  string `json:"author"`
	Website string `json:"website"`
}

// QuestionPlugin is an installable bundle of questionnaire questions keyed by
// the disclosure standard it implements. Plugins are loaded once and never
// mutated; installation only toggles membership in a user's installed set.
type QuestionPlugin struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Version     string         `json:"version"` // semver, \d+.\d+.\d+
	Standard    string         `json:"standard"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Questions   []Question     `json:"questions"`
	Metadata    PluginMetadata `json:"metadata"`
}

// QAPair is one question/answer round in a CSR event's audit trail.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MetricPair is a quantity/description pair reported for a completed CSR
// initiative, e.g. ["500", "kg of waste recycled"].
type MetricPair struct {
	Quantity    string `json:"quantity"`
	Description string `json:"description"`
}

// CSRData holds the structured fields the classification backend has
// extracted for a CSR event so far.
type CSRData struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date"`
	Attendees   string       `json:"attendees"`
	Track       string       `json:"track"`
	Metrics     []MetricPair `json:"metrics"`
}

// CSREvent is one user-initiated CSR initiative under classification.
// CurrentQuestions is nil once the event is complete.
type CSREvent struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Complete         bool      `json:"complete"`
	CurrentQuestions []string  `json:"current_questions"`
	QAHistory        []QAPair  `json:"qa_history"`
	CurrentData      CSRData   `json:"current_data"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ESGScore is one scored document. Records are immutable once created.
type ESGScore struct {
	ID                 string              `json:"id"`
	UserID             string              `json:"user_id"`
	PDFURL             string              `json:"pdf_url"`
	EnvironmentalScore float64             `json:"environmental_score"`
	SocialScore        float64             `json:"social_score"`
	GovernanceScore    float64             `json:"governance_score"`
	FinalScore         float64             `json:"final_score"`
	Explanation        map[string][]string `json:"explanation"` // per-axis textual elements
	CreatedAt          time.Time           `json:"created_at"`
}

// User is an authenticated account owning questionnaire answers, CSR events
// and ESG scores.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	PassHash  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
