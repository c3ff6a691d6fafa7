package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gzfs/greenlit/internal/models"
)

type stubCSRStore struct {
	events map[string]*models.CSREvent
	order  []string
}

func newStubCSRStore() *stubCSRStore {
	return &stubCSRStore{events: map[string]*models.CSREvent{}}
}

func (s *stubCSRStore) AddCSREvent(e *models.CSREvent) error {
	cp := *e
	s.events[e.ID] = &cp
	s.order = append(s.order, e.ID)
	return nil
}

func (s *stubCSRStore) GetCSREvent(id string) (*models.CSREvent, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *stubCSRStore) UpdateCSREvent(e *models.CSREvent) error {
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *stubCSRStore) ListCSREventsByUser(userID string) ([]*models.CSREvent, error) {
	out := []*models.CSREvent{}
	for i := len(s.order) - 1; i >= 0; i-- {
		if e := s.events[s.order[i]]; e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type stubClassifier struct {
	result  *Classification
	err     error
	calls   int
	lastReq ClassifyRequest
}

func (c *stubClassifier) Classify(_ context.Context, req ClassifyRequest) (*Classification, error) {
	c.calls++
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func newCSRService(store *stubCSRStore, classifier *stubClassifier) *CSRService {
	svc := NewCSRService(store, classifier)
	svc.now = func() time.Time { return time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC) }
	svc.idGen = func() string { return "evt000000001" }
	return svc
}

func TestCSRCreateAwaitingAnswers(t *testing.T) {
	store := newStubCSRStore()
	classifier := &stubClassifier{result: &Classification{
		Track:     "Environmental",
		Questions: []string{"How many kg recycled?"},
	}}
	svc := newCSRService(store, classifier)

	event, err := svc.Create(context.Background(), "u1", "Recycling drive", "We run a recycling program")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if event.Complete {
		t.Fatal("event with outstanding questions must not be complete")
	}
	if len(event.CurrentQuestions) != 1 || event.CurrentQuestions[0] != "How many kg recycled?" {
		t.Fatalf("current questions = %v", event.CurrentQuestions)
	}
	if event.CurrentData.Track != "Environmental" {
		t.Fatalf("track = %q", event.CurrentData.Track)
	}
	if classifier.lastReq.Description != "We run a recycling program" || classifier.lastReq.UserID != "u1" {
		t.Fatalf("classifier request = %+v", classifier.lastReq)
	}
	if _, err := store.GetCSREvent(event.ID); err != nil {
		t.Fatalf("event not persisted: %v", err)
	}
}

func TestCSRCreateImmediateCompletion(t *testing.T) {
	store := newStubCSRStore()
	classifier := &stubClassifier{result: &Classification{
		Complete: true,
		CurrentData: &models.CSRData{
			Name: "Tree planting", Track: "Environmental",
			Metrics: []models.MetricPair{{Quantity: "300", Description: "trees planted"}},
		},
	}}
	svc := newCSRService(store, classifier)

	event, err := svc.Create(context.Background(), "u1", "Tree planting", "Planted trees in the park")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !event.Complete || event.CurrentQuestions != nil {
		t.Fatalf("event = %+v, want complete with nil questions", event)
	}
}

func TestCSRCreateValidation(t *testing.T) {
	classifier := &stubClassifier{result: &Classification{}}
	svc := newCSRService(newStubCSRStore(), classifier)

	if _, err := svc.Create(context.Background(), "u1", "x", "   "); err == nil {
		t.Fatal("expected invalid for blank description")
	}
	if classifier.calls != 0 {
		t.Fatal("blank description must not reach the classifier")
	}
}

func TestCSRCreateClassifierFailure(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("connection refused")}
	store := newStubCSRStore()
	svc := newCSRService(store, classifier)

	_, err := svc.Create(context.Background(), "u1", "x", "desc")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorBadGateway {
		t.Fatalf("expected bad gateway, got %v", err)
	}
	if len(store.events) != 0 {
		t.Fatal("no event may be persisted after a failed classification")
	}
}

func TestCSRFollowupRoundTripToComplete(t *testing.T) {
	store := newStubCSRStore()
	classifier := &stubClassifier{result: &Classification{
		Track:     "Environmental",
		Questions: []string{"How many kg recycled?"},
	}}
	svc := newCSRService(store, classifier)

	event, err := svc.Create(context.Background(), "u1", "Recycling", "We run a recycling program")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	classifier.result = &Classification{
		Complete: true,
		CurrentData: &models.CSRData{
			Name: "Recycling", Description: "We run a recycling program",
			StartDate: "2025-01-01", EndDate: "2025-06-30", Attendees: "40",
			Track:   "Environmental",
			Metrics: []models.MetricPair{{Quantity: "500", Description: "kg of waste recycled"}},
		},
	}

	updated, err := svc.SubmitFollowups(context.Background(), "u1", event.ID, []string{"500"})
	if err != nil {
		t.Fatalf("followups: %v", err)
	}
	if !updated.Complete || updated.CurrentQuestions != nil {
		t.Fatalf("event = %+v, want complete with nil questions", updated)
	}
	if len(updated.QAHistory) != 1 || updated.QAHistory[0] != (models.QAPair{Question: "How many kg recycled?", Answer: "500"}) {
		t.Fatalf("qa history = %+v", updated.QAHistory)
	}
	if classifier.lastReq.EventID != event.ID || len(classifier.lastReq.FollowupAnswers) != 1 {
		t.Fatalf("classifier request = %+v", classifier.lastReq)
	}
}

func TestCSRFollowupMultiRound(t *testing.T) {
	store := newStubCSRStore()
	classifier := &stubClassifier{result: &Classification{
		Questions: []string{"When did it start?"},
	}}
	svc := newCSRService(store, classifier)

	event, _ := svc.Create(context.Background(), "u1", "Drive", "A donation drive")

	classifier.result = &Classification{Questions: []string{"How many attendees?"}}
	updated, err := svc.SubmitFollowups(context.Background(), "u1", event.ID, []string{"March 2025"})
	if err != nil {
		t.Fatalf("followups: %v", err)
	}
	if updated.Complete {
		t.Fatal("multi-round event must stay incomplete")
	}
	if len(updated.CurrentQuestions) != 1 || updated.CurrentQuestions[0] != "How many attendees?" {
		t.Fatalf("question set not replaced: %v", updated.CurrentQuestions)
	}
	if len(updated.QAHistory) != 1 {
		t.Fatalf("qa history = %+v", updated.QAHistory)
	}
}

func TestCSRFollowupBlankAnswerRejectedLocally(t *testing.T) {
	store := newStubCSRStore()
	classifier := &stubClassifier{result: &Classification{Questions: []string{"Q1", "Q2"}}}
	svc := newCSRService(store, classifier)

	event, _ := svc.Create(context.Background(), "u1", "Drive", "A donation drive")
	createCalls := classifier.calls

	_, err := svc.SubmitFollowups(context.Background(), "u1", event.ID, []string{"fine", "   "})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid, got %v", err)
	}
	if classifier.calls != createCalls {
		t.Fatal("blank answers must not reach the classifier")
	}
}

func TestCSRFollowupOnCompleteEventConflicts(t *testing.T) {
	store := newStubCSRStore()
	classifier := &stubClassifier{result: &Classification{Complete: true, CurrentData: &models.CSRData{Track: "Social"}}}
	svc := newCSRService(store, classifier)

	event, _ := svc.Create(context.Background(), "u1", "Done", "Already done")

	_, err := svc.SubmitFollowups(context.Background(), "u1", event.ID, []string{"late answer"})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCSROwnership(t *testing.T) {
	store := newStubCSRStore()
	classifier := &stubClassifier{result: &Classification{Questions: []string{"Q"}}}
	svc := newCSRService(store, classifier)

	event, _ := svc.Create(context.Background(), "u1", "Mine", "My event")

	if _, err := svc.Get("u2", event.ID); err == nil {
		t.Fatal("expected forbidden for foreign user")
	}
	if _, err := svc.SubmitFollowups(context.Background(), "u2", event.ID, []string{"x"}); err == nil {
		t.Fatal("expected forbidden for foreign submission")
	}
	if _, err := svc.Get("u1", "missing"); err == nil {
		t.Fatal("expected not found")
	}
}

func TestCSRListNewestFirst(t *testing.T) {
	store := newStubCSRStore()
	classifier := &stubClassifier{result: &Classification{Questions: []string{"Q"}}}
	svc := newCSRService(store, classifier)
	ids := []string{"evtA", "evtB", "evtC"}
	i := 0
	svc.idGen = func() string { id := ids[i]; i++; return id }

	for range ids {
		if _, err := svc.Create(context.Background(), "u1", "n", "d"); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	events, err := svc.List("u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 || events[0].ID != "evtC" || events[2].ID != "evtA" {
		t.Fatalf("list order = %v", events)
	}
}
