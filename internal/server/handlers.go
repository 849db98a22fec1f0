package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/smartdesk/internal/embedding"
	"github.com/hyperjump/smartdesk/internal/indexer"
	"github.com/hyperjump/smartdesk/internal/models"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "ok",
		"external_triage":    s.svc.Triage.ExternalEnabled(),
		"semantic_search":    s.svc.Search.SemanticEnabled(),
		"embedding_backfill": s.svc.Indexer.EmbeddingEnabled(),
		"assistant":          s.svc.Assist.Enabled(),
	})
}

func (s *Server) handleTriage(w http.ResponseWriter, r *http.Request) {
	var req models.TriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.svc.Triage.Triage(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, "triage failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reply, err := s.svc.Assist.Reply(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, "chat failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topK, ok := s.intParam(w, q.Get("top_k"), "top_k")
	if !ok {
		return
	}
	s.logger.Debug("search request", zap.String("query", q.Get("q")), zap.Int("top_k", topK))
	resp, err := s.svc.Search.Search(r.Context(), q.Get("q"), topK)
	if err != nil {
		s.respondServiceError(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.svc.Search.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.respondServiceError(w, "suggest failed", err)
		return
	}
	if suggestions == nil {
		suggestions = []models.ArticleSuggestion{}
	}
	s.respondJSON(w, http.StatusOK, suggestions)
}

type articleResponse struct {
	*models.Article
	Embedded bool `json:"embedded"`
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var input models.ArticleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := s.svc.Indexer.CreateArticle(r.Context(), &input)
	if err != nil {
		s.respondServiceError(w, "article creation failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, articleResponse{Article: a, Embedded: a.HasEmbedding()})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Articles.GetArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, "get article failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, articleResponse{Article: a, Embedded: a.HasEmbedding()})
}

func (s *Server) handleDeactivateArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("deactivate article request", zap.String("id", id))
	if err := s.svc.Articles.DeactivateArticle(r.Context(), id); err != nil {
		s.respondServiceError(w, "deactivation failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deactivated"})
}

// handleBackfill starts a backfill in the background and returns immediately.
// The report is logged when the run ends.
func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Indexer.EmbeddingEnabled() {
		s.respondError(w, http.StatusServiceUnavailable, "embedding provider not configured")
		return
	}
	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		report, err := s.svc.Indexer.Backfill(s.bgCtx)
		switch {
		case errors.Is(err, indexer.ErrBackfillRunning):
			s.logger.Warn("backfill request ignored", zap.Error(err))
		case err != nil:
			s.logger.Error("backfill stopped", zap.Error(err))
		default:
			s.logger.Info("backfill report",
				zap.Int("candidates", report.Candidates),
				zap.Int("embedded", report.Embedded),
				zap.Int("failed", report.Failed))
		}
	}()
	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Analytics.Summary(r.Context())
	if err != nil {
		s.respondServiceError(w, "analytics failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var input models.TicketInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := s.svc.Tickets.Create(r.Context(), &input)
	if err != nil {
		s.respondServiceError(w, "ticket creation failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var status models.TicketStatus
	switch strings.ToLower(q.Get("status")) {
	case "":
	case "open":
		status = models.StatusOpen
	case "closed":
		status = models.StatusClosed
	default:
		s.respondError(w, http.StatusBadRequest, "status must be open or closed")
		return
	}
	limit, ok := s.intParam(w, q.Get("limit"), "limit")
	if !ok {
		return
	}
	tickets, err := s.svc.Tickets.List(r.Context(), status, limit)
	if err != nil {
		s.respondServiceError(w, "list tickets failed", err)
		return
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}
	s.respondJSON(w, http.StatusOK, tickets)
}

type ticketResponse struct {
	*models.Ticket
	Comments []*models.Comment `json:"comments"`
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	t, comments, err := s.svc.Tickets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, "get ticket failed", err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	s.respondJSON(w, http.StatusOK, ticketResponse{Ticket: t, Comments: comments})
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AuthorID string `json:"author_id"`
		Body     string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.svc.Tickets.AddComment(r.Context(), chi.URLParam(r, "id"), req.AuthorID, req.Body)
	if err != nil {
		s.respondServiceError(w, "add comment failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleAssignTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID string `json:"agent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := s.svc.Tickets.Assign(r.Context(), chi.URLParam(r, "id"), req.AgentID)
	if err != nil {
		s.respondServiceError(w, "assign failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleCloseTicket(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Tickets.Close(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, "close failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.svc.Tickets.CreateUser(r.Context(), &u); err != nil {
		s.respondServiceError(w, "create user failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, u)
}

func (s *Server) handleListSLA(w http.ResponseWriter, r *http.Request) {
	sla, err := s.svc.Tickets.ListSLA(r.Context())
	if err != nil {
		s.respondServiceError(w, "list SLA failed", err)
		return
	}
	if sla == nil {
		sla = []models.SLATime{}
	}
	s.respondJSON(w, http.StatusOK, sla)
}

// handleSetSLA accepts the priority as a number (1..3) or a name ("high").
func (s *Server) handleSetSLA(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "priority")
	priority, ok := models.ParsePriority(raw)
	if !ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "unknown priority")
			return
		}
		priority = models.Priority(n)
	}
	var req struct {
		Minutes *int `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Minutes == nil {
		s.respondError(w, http.StatusBadRequest, "minutes is required")
		return
	}
	if err := s.svc.Tickets.SetSLA(r.Context(), priority, *req.Minutes); err != nil {
		s.respondServiceError(w, "set SLA failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.SLATime{Priority: priority, Minutes: *req.Minutes})
}

func (s *Server) handleSearchCanned(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := s.intParam(w, q.Get("limit"), "limit")
	if !ok {
		return
	}
	results, err := s.svc.Canned.Search(r.Context(), q.Get("q"), limit)
	if err != nil {
		s.respondServiceError(w, "canned response search failed", err)
		return
	}
	if results == nil {
		results = []*models.CannedResponse{}
	}
	s.respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleCreateCanned(w http.ResponseWriter, r *http.Request) {
	var c models.CannedResponse
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.svc.Canned.Create(r.Context(), &c); err != nil {
		s.respondServiceError(w, "canned response creation failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, c)
}

// intParam parses an optional non-negative integer query parameter. An empty
// value yields 0. On failure it writes a 400 and returns false.
func (s *Server) intParam(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		s.respondError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// respondServiceError maps engine errors to HTTP status codes.
func (s *Server) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, indexer.ErrBackfillRunning):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, embedding.ErrUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error(op, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
