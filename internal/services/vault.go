package services

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gzfs/greenlit/internal/models"
)

// KV is the storage port the answer vault writes through. Implementations
// are expected to be durable; the in-memory one exists for tests.
type KV interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Clear(key string) error
}

// Fixed storage keys, namespaced per user.
const (
	answersKey = "greenlit-answers"
	pluginsKey = "greenlit-plugins"
)

// AnswerVault persists a user's answer map and installed-plugin set under two
// fixed keys. Read failures and absent keys degrade to empty values with a
// log line; they are never surfaced to the caller.
type AnswerVault struct {
	kv KV
}

func NewAnswerVault(kv KV) *AnswerVault {
	return &AnswerVault{kv: kv}
}

func userKey(base, userID string) string { return base + ":" + userID }

func (v *AnswerVault) SaveAnswers(userID string, answers AnswerMap) {
	data, err := json.Marshal(answers)
	if err != nil {
		slog.Error("failed to save answers", "user", userID, "error", err)
		return
	}
	if err := v.kv.Set(userKey(answersKey, userID), data); err != nil {
		slog.Error("failed to save answers", "user", userID, "error", err)
	}
}

func (v *AnswerVault) LoadAnswers(userID string) AnswerMap {
	data, ok := v.kv.Get(userKey(answersKey, userID))
	if !ok {
		return AnswerMap{}
	}
	var answers AnswerMap
	if err := json.Unmarshal(data, &answers); err != nil {
		slog.Error("failed to load answers", "user", userID, "error", err)
		return AnswerMap{}
	}
	if answers == nil {
		answers = AnswerMap{}
	}
	return answers
}

func (v *AnswerVault) SaveInstalledPlugins(userID string, plugins []models.QuestionPlugin) {
	data, err := json.Marshal(plugins)
	if err != nil {
		slog.Error("failed to save installed plugins", "user", userID, "error", err)
		return
	}
	if err := v.kv.Set(userKey(pluginsKey, userID), data); err != nil {
		slog.Error("failed to save installed plugins", "user", userID, "error", err)
	}
}

func (v *AnswerVault) LoadInstalledPlugins(userID string) []models.QuestionPlugin {
	data, ok := v.kv.Get(userKey(pluginsKey, userID))
	if !ok {
		return []models.QuestionPlugin{}
	}
	var plugins []models.QuestionPlugin
	if err := json.Unmarshal(data, &plugins); err != nil {
		slog.Error("failed to load installed plugins", "user", userID, "error", err)
		return []models.QuestionPlugin{}
	}
	return plugins
}

// MemoryKV is the in-memory KV fake used in tests and as the default backing
// store when no database is configured.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string][]byte{}}
}

func (m *MemoryKV) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Clear(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
