// Package handler exposes the leads HTTP API: public intake routes used by
// the embedded chat widget and authenticated routes for the workshop portal.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carbot_backend/internal/leads/scoring"
	"carbot_backend/internal/leads/service"
	"carbot_backend/internal/leads/transport"
	"carbot_backend/platform/httpkit"
	"carbot_backend/platform/logger"
)

type Handler struct {
	leads   *service.Service
	scoring *scoring.Service
	log     *logger.Logger
}

func New(leads *service.Service, scoringSvc *scoring.Service, log *logger.Logger) *Handler {
	return &Handler{
		leads:   leads,
		scoring: scoringSvc,
		log:     log,
	}
}

// CreateLead handles POST /intake/:kundeId/leads. Unauthenticated; the
// widget identifies the workshop by ID and is rate limited per IP.
func (h *Handler) CreateLead(c *gin.Context) {
	kundeID, ok := parseUUIDParam(c, "kundeId")
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	lead, err := h.leads.CreateLead(c.Request.Context(), service.CreateLeadInput{
		KundeID:  kundeID,
		Anliegen: req.Anliegen,
		Fahrzeug: req.Fahrzeug,
		Name:     req.Name,
		Telefon:  req.Telefon,
		Email:    req.Email,
		Source:   req.Source,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToLeadResponse(lead))
}

// AddChatMessage handles POST /intake/:kundeId/leads/:leadId/messages.
func (h *Handler) AddChatMessage(c *gin.Context) {
	kundeID, ok := parseUUIDParam(c, "kundeId")
	if !ok {
		return
	}
	leadID, ok := parseUUIDParam(c, "leadId")
	if !ok {
		return
	}

	var req transport.AddChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	msg, err := h.leads.AddChatMessage(c.Request.Context(), leadID, kundeID, req.Role, req.Content)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToChatMessageResponse(msg))
}

// ListLeads handles GET /leads for the authenticated workshop.
func (h *Handler) ListLeads(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	leads, err := h.leads.ListLeads(c.Request.Context(), id.TenantID(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"leads": transport.ToLeadResponses(leads)})
}

// GetLead handles GET /leads/:leadId.
func (h *Handler) GetLead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	leadID, ok := parseUUIDParam(c, "leadId")
	if !ok {
		return
	}

	lead, err := h.leads.GetLead(c.Request.Context(), leadID, id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// GetChatHistory handles GET /leads/:leadId/messages.
func (h *Handler) GetChatHistory(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	leadID, ok := parseUUIDParam(c, "leadId")
	if !ok {
		return
	}

	messages, err := h.leads.GetChatHistory(c.Request.Context(), leadID, id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"messages": transport.ToChatMessageResponses(messages)})
}

// ScoreLead handles POST /leads/:leadId/score. It runs a fresh scoring
// pass and returns the result immediately, whether or not persistence
// succeeded.
func (h *Handler) ScoreLead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	leadID, ok := parseUUIDParam(c, "leadId")
	if !ok {
		return
	}

	result, outcome := h.scoring.ScoreAndStore(c.Request.Context(), leadID, id.TenantID())

	httpkit.OK(c, transport.ScoreResponse{Result: result, Stored: outcome.Stored})
}

// GetScores handles GET /leads/:leadId/scores, the stored score history.
func (h *Handler) GetScores(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	leadID, ok := parseUUIDParam(c, "leadId")
	if !ok {
		return
	}

	scores, err := h.leads.GetScores(c.Request.Context(), leadID, id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"scores": transport.ToStoredScoreResponses(scores)})
}

// RescoreLeads handles POST /leads/rescore, scoring every lead of the
// workshop that has no stored score yet.
func (h *Handler) RescoreLeads(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	limit := intQuery(c, "limit", 0)

	n, err := h.scoring.RescoreTenant(c.Request.Context(), id.TenantID(), limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"rescored": n})
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
