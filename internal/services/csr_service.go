package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gzfs/greenlit/internal/models"
)

// ClassifyRequest is the payload sent to the classification backend. The
// first round carries Description; follow-up rounds carry EventID plus the
// user's answers.
type ClassifyRequest struct {
	Description     string   `json:"description,omitempty"`
	EventID         string   `json:"event_id,omitempty"`
	FollowupAnswers []string `json:"followup_answers,omitempty"`
	UserID          string   `json:"user_id"`
}

// Classification is the backend's verdict for one round: either another set
// of follow-up questions, or completion with fully populated event data.
type Classification struct {
	EventID     string          `json:"event_id,omitempty"`
	Complete    bool            `json:"complete"`
	Track       string          `json:"track,omitempty"`
	Questions   []string        `json:"questions,omitempty"`
	CurrentData *models.CSRData `json:"current_data,omitempty"`
}

// Classifier is the boundary to the external classification service.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (*Classification, error)
}

// CSRStore abstracts event persistence for the CSR lifecycle.
type CSRStore interface {
	AddCSREvent(e *models.CSREvent) error
	GetCSREvent(id string) (*models.CSREvent, error)
	UpdateCSREvent(e *models.CSREvent) error
	ListCSREventsByUser(userID string) ([]*models.CSREvent, error)
}

// CSRService drives an event through its lifecycle: created with an initial
// description, iterated through follow-up question rounds, and finally marked
// complete by the classifier with structured data and metrics.
type CSRService struct {
	store      CSRStore
	classifier Classifier
	now        func() time.Time
	idGen      func() string
}

func NewCSRService(store CSRStore, classifier Classifier) *CSRService {
	return &CSRService{
		store:      store,
		classifier: classifier,
		now:        func() time.Time { return time.Now().UTC() },
		idGen:      func() string { return shortID(12) },
	}
}

// Create submits a free-text initiative description for classification and
// persists the resulting event. The classifier decides whether follow-up
// questions are needed; an event with none comes back already complete.
func (s *CSRService) Create(ctx context.Context, userID, name, description string) (*models.CSREvent, error) {
	if strings.TrimSpace(description) == "" {
		return nil, NewInvalidError("description required")
	}

	res, err := s.classifier.Classify(ctx, ClassifyRequest{Description: description, UserID: userID})
	if err != nil {
		slog.Error("csr classification failed", "user", userID, "error", err)
		return nil, NewBadGatewayError("classification service unavailable")
	}

	now := s.now()
	event := &models.CSREvent{
		ID:          res.EventID,
		UserID:      userID,
		Name:        name,
		Description: description,
		QAHistory:   []models.QAPair{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if event.ID == "" {
		event.ID = s.idGen()
	}
	applyClassification(event, res, description)

	if err := s.store.AddCSREvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// SubmitFollowups answers the outstanding question round. Every answer must
// be non-blank; validation failures never reach the classifier. The
// classifier's response replaces the event's questions, data and completion
// flag wholesale, possibly opening another round.
func (s *CSRService) SubmitFollowups(ctx context.Context, userID, eventID string, answers []string) (*models.CSREvent, error) {
	event, err := s.getOwned(userID, eventID)
	if err != nil {
		return nil, err
	}
	if event.Complete {
		return nil, NewConflictError("event is already complete")
	}
	if len(answers) == 0 {
		return nil, NewInvalidError("answers required")
	}
	for _, a := range answers {
		if strings.TrimSpace(a) == "" {
			return nil, NewInvalidError("all answers must be filled in")
		}
	}

	res, err := s.classifier.Classify(ctx, ClassifyRequest{EventID: eventID, FollowupAnswers: answers, UserID: userID})
	if err != nil {
		slog.Error("csr followup classification failed", "user", userID, "event", eventID, "error", err)
		return nil, NewBadGatewayError("classification service unavailable")
	}

	// Append this round to the audit trail before the question set is replaced.
	for i, q := range event.CurrentQuestions {
		if i >= len(answers) {
			break
		}
		event.QAHistory = append(event.QAHistory, models.QAPair{Question: q, Answer: answers[i]})
	}

	applyClassification(event, res, event.Description)
	event.UpdatedAt = s.now()

	if err := s.store.UpdateCSREvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// Get returns one of the user's events.
func (s *CSRService) Get(userID, eventID string) (*models.CSREvent, error) {
	return s.getOwned(userID, eventID)
}

// List returns the user's events, newest first.
func (s *CSRService) List(userID string) ([]*models.CSREvent, error) {
	return s.store.ListCSREventsByUser(userID)
}

func (s *CSRService) getOwned(userID, eventID string) (*models.CSREvent, error) {
	event, err := s.store.GetCSREvent(eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, NewNotFoundError("event not found")
	}
	if event.UserID != userID {
		return nil, NewForbiddenError("forbidden")
	}
	return event, nil
}

// applyClassification folds one classifier response into the event record.
func applyClassification(event *models.CSREvent, res *Classification, fallbackDescription string) {
	event.Complete = res.Complete
	if res.CurrentData != nil {
		event.CurrentData = *res.CurrentData
	}
	if res.Track != "" {
		event.CurrentData.Track = res.Track
	}
	if event.CurrentData.Name == "" {
		event.CurrentData.Name = event.Name
	}
	if event.CurrentData.Description == "" {
		event.CurrentData.Description = fallbackDescription
	}
	if res.Complete {
		event.CurrentQuestions = nil
	} else {
		event.CurrentQuestions = res.Questions
	}
}
