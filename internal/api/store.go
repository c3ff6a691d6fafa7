package api

import (
	"strings"
	"sync"

	"github.com/gzfs/greenlit/internal/models"
)

// memoryStore keeps everything in maps. It backs tests and deployments
// without a configured database. List methods return newest first, matching
// the SQLite store's ordering.
type memoryStore struct {
	mu           sync.RWMutex
	usersByEmail map[string]*models.User
	csrEvents    map[string]*models.CSREvent
	csrOrder     []string
	esgScores    map[string][]*models.ESGScore
	kv           map[string][]byte
}

func NewMemoryStore() Store { return newMemoryStore() }

func newMemoryStore() *memoryStore {
	return &memoryStore{
		usersByEmail: map[string]*models.User{},
		csrEvents:    map[string]*models.CSREvent{},
		esgScores:    map[string][]*models.ESGScore{},
		kv:           map[string][]byte{},
	}
}

func (s *memoryStore) AddUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.usersByEmail[strings.ToLower(u.Email)] = &cp
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memoryStore) AddCSREvent(e *models.CSREvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.csrEvents[e.ID] = &cp
	s.csrOrder = append(s.csrOrder, e.ID)
	return nil
}

func (s *memoryStore) GetCSREvent(id string) (*models.CSREvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.csrEvents[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *memoryStore) UpdateCSREvent(e *models.CSREvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.csrEvents[e.ID] = &cp
	return nil
}

func (s *memoryStore) ListCSREventsByUser(userID string) ([]*models.CSREvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.CSREvent{}
	for i := len(s.csrOrder) - 1; i >= 0; i-- {
		e := s.csrEvents[s.csrOrder[i]]
		if e != nil && e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) AddESGScore(sc *models.ESGScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sc
	// prepend: newest first
	s.esgScores[sc.UserID] = append([]*models.ESGScore{&cp}, s.esgScores[sc.UserID]...)
	return nil
}

func (s *memoryStore) ListESGScoresByUser(userID string) ([]*models.ESGScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scores := s.esgScores[userID]
	out := make([]*models.ESGScore, 0, len(scores))
	for _, sc := range scores {
		cp := *sc
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memoryStore) GetKV(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *memoryStore) SetKV(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = append([]byte(nil), value...)
	return nil
}

func (s *memoryStore) ClearKV(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, key)
	return nil
}
