package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gzfs/greenlit/internal/api"
	"github.com/gzfs/greenlit/internal/models"
)

// SQLiteStore is the durable api.Store. JSON-shaped fields (question lists,
// QA history, event data, explanations) are stored as serialized TEXT
// columns; the schema stays flat otherwise.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

var _ api.Store = (*SQLiteStore)(nil)

func encodeJSON(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeJSON(ns sql.NullString, out any) {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return
	}
	if err := json.Unmarshal([]byte(ns.String), out); err != nil {
		slog.Error("sqlite store: decode json column", "error", err)
	}
}

func (s *SQLiteStore) AddUser(u *models.User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, name, pass_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.Name, u.PassHash, u.CreatedAt,
	)
	return err
}

func (s *SQLiteStore) FindUserByEmail(email string) (*models.User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, name, pass_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(email),
	)
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PassHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStore) AddCSREvent(e *models.CSREvent) error {
	questions, err := encodeJSON(e.CurrentQuestions)
	if err != nil {
		return err
	}
	history, err := encodeJSON(e.QAHistory)
	if err != nil {
		return err
	}
	data, err := encodeJSON(e.CurrentData)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO csr_events (id, user_id, name, description, complete, current_questions, qa_history, current_data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Name, e.Description, e.Complete, questions, history, data, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) UpdateCSREvent(e *models.CSREvent) error {
	questions, err := encodeJSON(e.CurrentQuestions)
	if err != nil {
		return err
	}
	history, err := encodeJSON(e.QAHistory)
	if err != nil {
		return err
	}
	data, err := encodeJSON(e.CurrentData)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`UPDATE csr_events SET name = ?, description = ?, complete = ?, current_questions = ?, qa_history = ?, current_data = ?, updated_at = ?
		 WHERE id = ?`,
		e.Name, e.Description, e.Complete, questions, history, data, e.UpdatedAt, e.ID,
	)
	return err
}

func (s *SQLiteStore) GetCSREvent(id string) (*models.CSREvent, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, name, description, complete, current_questions, qa_history, current_data, created_at, updated_at
		 FROM csr_events WHERE id = ?`, id,
	)
	e, err := scanCSREvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (s *SQLiteStore) ListCSREventsByUser(userID string) ([]*models.CSREvent, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, description, complete, current_questions, qa_history, current_data, created_at, updated_at
		 FROM csr_events WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.CSREvent{}
	for rows.Next() {
		e, err := scanCSREvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanCSREvent(scan func(dest ...any) error) (*models.CSREvent, error) {
	var e models.CSREvent
	var questions, history, data sql.NullString
	if err := scan(&e.ID, &e.UserID, &e.Name, &e.Description, &e.Complete, &questions, &history, &data, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	decodeJSON(questions, &e.CurrentQuestions)
	decodeJSON(history, &e.QAHistory)
	decodeJSON(data, &e.CurrentData)
	if e.QAHistory == nil {
		e.QAHistory = []models.QAPair{}
	}
	return &e, nil
}

func (s *SQLiteStore) AddESGScore(sc *models.ESGScore) error {
	explanation, err := encodeJSON(sc.Explanation)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO esg_scores (id, user_id, pdf_url, environmental_score, social_score, governance_score, final_score, explanation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.UserID, sc.PDFURL, sc.EnvironmentalScore, sc.SocialScore, sc.GovernanceScore, sc.FinalScore, explanation, sc.CreatedAt,
	)
	return err
}

func (s *SQLiteStore) ListESGScoresByUser(userID string) ([]*models.ESGScore, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, pdf_url, environmental_score, social_score, governance_score, final_score, explanation, created_at
		 FROM esg_scores WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.ESGScore{}
	for rows.Next() {
		var sc models.ESGScore
		var explanation sql.NullString
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.PDFURL, &sc.EnvironmentalScore, &sc.SocialScore, &sc.GovernanceScore, &sc.FinalScore, &explanation, &sc.CreatedAt); err != nil {
			return nil, err
		}
		decodeJSON(explanation, &sc.Explanation)
		out = append(out, &sc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetKV(key string) ([]byte, bool, error) {
	row := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key)
	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) SetKV(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *SQLiteStore) ClearKV(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path, migrationsDir string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetConnMaxIdleTime(time.Minute)
	if err := RunMigrations(conn, migrationsDir); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
