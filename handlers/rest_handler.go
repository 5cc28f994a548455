package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/voiceast/voiceast/executor"
	"github.com/voiceast/voiceast/intent"
	"github.com/voiceast/voiceast/models"
	"github.com/voiceast/voiceast/store"
)

// RESTHandler exposes the non-realtime surface: health, history,
// statistics, and a synchronous execute endpoint for clients without a
// WebSocket.
type RESTHandler struct {
	hub     *Hub
	exec    *executor.Executor
	history *store.History
	started time.Time
	logger  *zap.Logger
}

func NewRESTHandler(hub *Hub, exec *executor.Executor, history *store.History) *RESTHandler {
	return &RESTHandler{
		hub:     hub,
		exec:    exec,
		history: history,
		started: time.Now(),
		logger:  zap.L().Named("rest"),
	}
}

// Routes mounts the API endpoints on a chi router.
func (h *RESTHandler) Routes(r chi.Router) {
	r.Get("/health", h.health)
	r.Get("/history", h.recent)
	r.Post("/history/clear", h.clear)
	r.Get("/statistics", h.statistics)
	r.Post("/execute", h.execute)
}

func (h *RESTHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.hub.Count(),
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *RESTHandler) recent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("reading history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": entries, "count": len(entries)})
}

func (h *RESTHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Clear(r.Context()); err != nil {
		h.logger.Error("clearing history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": true})
}

func (h *RESTHandler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.history.Statistics(r.Context())
	if err != nil {
		h.logger.Error("reading statistics failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "statistics unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type executeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// execute classifies and runs a single command synchronously. It shares
// the executor with WebSocket sessions but not their queues, so REST
// calls never delay a live conversation.
func (h *RESTHandler) execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "body must be {\"text\": ...}")
		return
	}
	lang := req.Language
	if lang == "" {
		lang = intent.DetectLanguage(req.Text)
	}
	match := intent.Classify(req.Text, lang)
	res := h.exec.Execute(r.Context(), models.Command{
		Match:     match,
		Language:  lang,
		Confirmed: match.Param("confirm") == "true",
	})

	h.history.Append(r.Context(), models.HistoryEntry{
		Command:   match.Text,
		Intent:    string(match.Intent),
		Response:  res.Message,
		Success:   res.Success,
		Timestamp: time.Now(),
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"intent":     string(match.Intent),
		"confidence": match.Confidence,
		"success":    res.Success,
		"message":    res.Message,
		"data":       res.Data,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
