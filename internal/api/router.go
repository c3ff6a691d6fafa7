package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gzfs/greenlit/internal/middleware"
	"github.com/gzfs/greenlit/internal/models"
	"github.com/gzfs/greenlit/internal/plugin"
	"github.com/gzfs/greenlit/internal/services"
)

type Router struct {
	auth     *services.AuthService
	quest    *services.QuestionnaireService
	csr      *services.CSRService
	esg      *services.ESGService
	registry *plugin.Registry
}

func NewRouter(store Store, registry *plugin.Registry, classifier services.Classifier, scorer services.Scorer) *Router {
	vault := services.NewAnswerVault(kvAdapter{store: store})
	return &Router{
		auth:     services.NewAuthService(store, middleware.SignToken),
		quest:    services.NewQuestionnaireService(vault),
		csr:      services.NewCSRService(store, classifier),
		esg:      services.NewESGService(store, scorer),
		registry: registry,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister)
	mux.HandleFunc("/api/auth/login", rt.handleLogin)
	mux.HandleFunc("/api/plugins", rt.handlePlugins)
	mux.HandleFunc("/api/plugins/validate", rt.handleValidatePlugin)
	mux.HandleFunc("/api/questionnaire/categories", rt.withUser(rt.handleCategories))
	mux.HandleFunc("/api/questionnaire/answers", rt.withUser(rt.handleAnswers))
	mux.HandleFunc("/api/questionnaire/progress", rt.withUser(rt.handleProgress))
	mux.HandleFunc("/api/questionnaire/export", rt.withUser(rt.handleExport))
	mux.HandleFunc("/api/questionnaire/plugins", rt.withUser(rt.handleInstall))
	mux.HandleFunc("/api/questionnaire/plugins/", rt.withUser(rt.handleUninstall))
	mux.HandleFunc("/api/csr", rt.withUser(rt.handleCSR))
	mux.HandleFunc("/api/csr/status/", rt.withUser(rt.handleCSRStatus))
	mux.HandleFunc("/api/esg", rt.withUser(rt.handleESG))
	mux.HandleFunc("/api/esg/trends", rt.withUser(rt.handleESGTrends))
}

// withUser guards a handler behind a valid bearer token and hands it the
// caller's user id.
func (rt *Router) withUser(h func(w http.ResponseWriter, r *http.Request, userID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, services.NewUnauthorizedError("unauthorized"))
			return
		}
		h(w, r, uid)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		writeJSON(w, statusFor(se.Code), map[string]string{"error": se.Message, "code": string(se.Code)})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	case services.ErrorBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// POST /api/auth/register {email, password, name}
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid json"))
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": res.Token, "user_id": res.UserID})
}

// POST /api/auth/login {email, password}
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid json"))
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": res.Token, "user_id": res.UserID})
}

// GET /api/plugins — plugins available for installation
func (rt *Router) handlePlugins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plugins": rt.registry.List()})
}

// POST /api/plugins/validate — run the manifest validator without installing
func (rt *Router) handleValidatePlugin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var p models.QuestionPlugin
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, services.NewInvalidError("invalid json"))
		return
	}
	violations := services.ValidatePlugin(&p)
	if violations == nil {
		violations = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": len(violations) == 0, "violations": violations})
}

// GET /api/questionnaire/categories[?key=...&page=N]
func (rt *Router) handleCategories(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusOK, map[string]any{"categories": rt.quest.Categories(userID)})
		return
	}
	cat, err := rt.quest.Category(userID, key)
	if err != nil {
		writeError(w, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	questions, totalPages := services.Page(cat, page)
	writeJSON(w, http.StatusOK, map[string]any{
		"key":         cat.Key,
		"title":       cat.Title,
		"questions":   questions,
		"total_pages": totalPages,
	})
}

// GET /api/questionnaire/answers — the full answer map
// POST /api/questionnaire/answers {question_id, answer}
func (rt *Router) handleAnswers(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"answers": rt.quest.Answers(userID)})
	case http.MethodPost:
		var req struct {
			QuestionID string          `json:"question_id"`
			Answer     services.Answer `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, services.NewInvalidError("invalid json"))
			return
		}
		res, err := rt.quest.SubmitAnswer(userID, req.QuestionID, req.Answer)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /api/questionnaire/progress
func (rt *Router) handleProgress(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	progress, total := rt.quest.Progress(userID)
	writeJSON(w, http.StatusOK, map[string]any{"progress": progress, "total": total})
}

// GET /api/questionnaire/export — answers as CSV
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	b, err := services.ExportAnswersCSV(rt.quest.Categories(userID), rt.quest.Answers(userID))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=answers.csv")
	_, _ = w.Write(b)
}

// POST /api/questionnaire/plugins — install a plugin from the registry or a
// raw manifest in the body
func (rt *Router) handleInstall(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		PluginID string                 `json:"plugin_id"`
		Manifest *models.QuestionPlugin `json:"manifest"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid json"))
		return
	}
	p := req.Manifest
	if p == nil {
		if req.PluginID == "" {
			writeError(w, services.NewInvalidError("plugin_id or manifest required"))
			return
		}
		reg, ok := rt.registry.Get(req.PluginID)
		if !ok {
			writeError(w, services.NewNotFoundError("plugin not found"))
			return
		}
		p = &reg
	}
	if err := rt.quest.InstallPlugin(userID, p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "plugin_id": p.ID})
}

// DELETE /api/questionnaire/plugins/{id}
func (rt *Router) handleUninstall(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/questionnaire/plugins/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if err := rt.quest.UninstallPlugin(userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// GET /api/csr — list events (?event_id= returns one)
// POST /api/csr — create an event, or answer follow-ups when the body
// carries event_id + followup_answers. The route multiplexes on the body
// shape, as the dashboard client expects.
func (rt *Router) handleCSR(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		if id := r.URL.Query().Get("event_id"); id != "" {
			event, err := rt.csr.Get(userID, id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, event)
			return
		}
		events, err := rt.csr.List(userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	case http.MethodPost:
		var req struct {
			Name            string   `json:"name"`
			Description     string   `json:"description"`
			EventID         string   `json:"event_id"`
			FollowupAnswers []string `json:"followup_answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, services.NewInvalidError("invalid json"))
			return
		}
		if req.EventID != "" {
			event, err := rt.csr.SubmitFollowups(r.Context(), userID, req.EventID, req.FollowupAnswers)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, event)
			return
		}
		event, err := rt.csr.Create(r.Context(), userID, req.Name, req.Description)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, event)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /api/csr/status/{eventId}
func (rt *Router) handleCSRStatus(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/csr/status/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	event, err := rt.csr.Get(userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// GET /api/esg — score history, newest first
// POST /api/esg {pdf_url} — score an uploaded document
func (rt *Router) handleESG(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		scores, err := rt.esg.List(userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"scores": scores})
	case http.MethodPost:
		var req struct {
			PDFURL string `json:"pdf_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, services.NewInvalidError("invalid json"))
			return
		}
		score, err := rt.esg.Upload(r.Context(), userID, req.PDFURL)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, score)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /api/esg/trends
func (rt *Router) handleESGTrends(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	trends, err := rt.esg.Trends(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}
