// Package transport defines the request and response shapes of the leads
// HTTP API and their mapping from repository records.
package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"carbot_backend/internal/leads/repository"
	"carbot_backend/internal/leads/scoring"
)

type CreateLeadRequest struct {
	Anliegen string `json:"anliegen" binding:"required,min=2,max=2000"`
	Fahrzeug string `json:"fahrzeug" binding:"omitempty,max=200"`
	Name     string `json:"name" binding:"omitempty,max=200"`
	Telefon  string `json:"telefon" binding:"omitempty,telefon"`
	Email    string `json:"email" binding:"omitempty,email,max=254"`
	Source   string `json:"source" binding:"omitempty,max=100"`
}

type AddChatMessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required,min=1,max=4000"`
}

type LeadResponse struct {
	ID        uuid.UUID `json:"id"`
	KundeID   uuid.UUID `json:"kundeId"`
	Anliegen  string    `json:"anliegen"`
	Fahrzeug  string    `json:"fahrzeug,omitempty"`
	Name      string    `json:"name,omitempty"`
	Telefon   string    `json:"telefon,omitempty"`
	Email     string    `json:"email,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ChatMessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ScoreResponse mirrors scoring.Result for live scoring calls.
type ScoreResponse struct {
	Result scoring.Result `json:"score"`
	Stored bool           `json:"stored"`
}

// StoredScoreResponse is a historical scoring record. Breakdown and
// recommendations are stored as JSON and passed through verbatim.
type StoredScoreResponse struct {
	ID              uuid.UUID       `json:"id"`
	Total           int             `json:"total"`
	Breakdown       json.RawMessage `json:"breakdown"`
	Classification  string          `json:"classification"`
	Priority        string          `json:"priority"`
	EstimatedValue  int             `json:"estimatedValue"`
	Recommendations json.RawMessage `json:"recommendations"`
	Degraded        bool            `json:"degraded"`
	Version         string          `json:"version"`
	ScoredAt        time.Time       `json:"scoredAt"`
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:        lead.ID,
		KundeID:   lead.KundeID,
		Anliegen:  lead.Anliegen,
		Fahrzeug:  deref(lead.Fahrzeug),
		Name:      deref(lead.Name),
		Telefon:   deref(lead.Telefon),
		Email:     deref(lead.Email),
		Source:    deref(lead.Source),
		CreatedAt: lead.CreatedAt,
		UpdatedAt: lead.UpdatedAt,
	}
}

func ToLeadResponses(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, ToLeadResponse(lead))
	}
	return out
}

func ToChatMessageResponse(msg repository.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
}

func ToChatMessageResponses(messages []repository.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, ToChatMessageResponse(msg))
	}
	return out
}

func ToStoredScoreResponse(score repository.LeadScore) StoredScoreResponse {
	return StoredScoreResponse{
		ID:              score.ID,
		Total:           score.TotalScore,
		Breakdown:       json.RawMessage(score.Breakdown),
		Classification:  score.Classification,
		Priority:        score.Priority,
		EstimatedValue:  score.EstimatedValue,
		Recommendations: json.RawMessage(score.Recommendations),
		Degraded:        score.Degraded,
		Version:         score.Version,
		ScoredAt:        score.CreatedAt,
	}
}

func ToStoredScoreResponses(scores []repository.LeadScore) []StoredScoreResponse {
	out := make([]StoredScoreResponse, 0, len(scores))
	for _, score := range scores {
		out = append(out, ToStoredScoreResponse(score))
	}
	return out
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
