package api

import (
	"github.com/gzfs/greenlit/internal/models"
)

// Store is the persistence port the HTTP layer is assembled over. The
// user/CSR/ESG method sets line up with the narrow store interfaces the
// services declare, so a Store satisfies those directly; only the KV methods
// need an adapter for the answer vault.
type Store interface {
	AddUser(u *models.User) error
	FindUserByEmail(email string) (*models.User, error)

	AddCSREvent(e *models.CSREvent) error
	GetCSREvent(id string) (*models.CSREvent, error)
	UpdateCSREvent(e *models.CSREvent) error
	ListCSREventsByUser(userID string) ([]*models.CSREvent, error)

	AddESGScore(s *models.ESGScore) error
	ListESGScoresByUser(userID string) ([]*models.ESGScore, error)

	GetKV(key string) ([]byte, bool, error)
	SetKV(key string, value []byte) error
	ClearKV(key string) error
}

var _ Store = (*memoryStore)(nil)
