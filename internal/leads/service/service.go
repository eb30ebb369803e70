// Package service contains the lead management business logic: intake,
// chat transcript handling and score retrieval. The heavy lifting of
// computing scores lives in the scoring package.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"carbot_backend/internal/events"
	"carbot_backend/internal/leads/repository"
	"carbot_backend/internal/leads/scoring"
	"carbot_backend/platform/apperr"
	"carbot_backend/platform/cache"
	"carbot_backend/platform/logger"
	"carbot_backend/platform/phone"
	"carbot_backend/platform/validator"
)

const customerContextTTL = 5 * time.Minute

type Service struct {
	repo  repository.LeadsRepository
	cache cache.Cache
	bus   events.Bus
	valid *validator.Validator
	log   *logger.Logger
	ttl   time.Duration
}

func New(repo repository.LeadsRepository, c cache.Cache, bus events.Bus, log *logger.Logger, ttl time.Duration) *Service {
	if c == nil {
		c = cache.NewNoop()
	}
	if ttl <= 0 {
		ttl = customerContextTTL
	}
	return &Service{
		repo:  repo,
		cache: c,
		bus:   bus,
		valid: validator.New(),
		log:   log,
		ttl:   ttl,
	}
}

// CreateLeadInput carries the intake payload. Transport binding already
// validates HTTP requests; the tags here cover non-HTTP callers too.
type CreateLeadInput struct {
	KundeID  uuid.UUID `validate:"required"`
	Anliegen string    `validate:"required,min=2,max=2000"`
	Fahrzeug string    `validate:"omitempty,max=200"`
	Name     string    `validate:"omitempty,max=200"`
	Telefon  string    `validate:"omitempty,max=40"`
	Email    string    `validate:"omitempty,email"`
	Source   string    `validate:"omitempty,max=100"`
}

// CreateLead captures a new lead from the chat widget. The phone number is
// normalized to E.164 when it parses as a German number; otherwise the raw
// input is kept so no contact data is lost at intake.
func (s *Service) CreateLead(ctx context.Context, input CreateLeadInput) (repository.Lead, error) {
	input.Anliegen = strings.TrimSpace(input.Anliegen)
	if err := s.valid.Struct(input); err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindValidation, "invalid lead input", err).WithOp("leads.CreateLead")
	}
	anliegen := input.Anliegen

	telefon := strings.TrimSpace(input.Telefon)
	if telefon != "" {
		if normalized := phone.NormalizeE164(telefon); normalized != "" {
			telefon = normalized
		}
	}

	params := repository.CreateLeadParams{
		KundeID:  input.KundeID,
		Anliegen: anliegen,
		Fahrzeug: optional(input.Fahrzeug),
		Name:     optional(input.Name),
		Telefon:  optional(telefon),
		Email:    optional(strings.ToLower(input.Email)),
		Source:   optional(input.Source),
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		s.log.DatabaseError("create lead", err)
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "could not create lead", err).WithOp("leads.CreateLead")
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent: events.NewBaseEvent(lead.KundeID),
			LeadID:    lead.ID,
			Anliegen:  lead.Anliegen,
			Source:    input.Source,
		})
	}

	return lead, nil
}

// AddChatMessage appends a message to a lead's transcript. The lead must
// belong to the given tenant.
func (s *Service) AddChatMessage(ctx context.Context, leadID, kundeID uuid.UUID, role, content string) (repository.ChatMessage, error) {
	if role != scoring.RoleUser && role != scoring.RoleAssistant {
		return repository.ChatMessage{}, apperr.Validation("role must be user or assistant").WithOp("leads.AddChatMessage")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return repository.ChatMessage{}, apperr.Validation("message content must not be empty").WithOp("leads.AddChatMessage")
	}

	if _, err := s.GetLead(ctx, leadID, kundeID); err != nil {
		return repository.ChatMessage{}, err
	}

	msg, err := s.repo.AppendChatMessage(ctx, repository.AppendChatMessageParams{
		LeadID:  leadID,
		Role:    role,
		Content: content,
	})
	if err != nil {
		s.log.DatabaseError("append chat message", err)
		return repository.ChatMessage{}, apperr.Wrap(apperr.KindInternal, "could not store message", err).WithOp("leads.AddChatMessage")
	}
	return msg, nil
}

func (s *Service) GetLead(ctx context.Context, leadID, kundeID uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, leadID, kundeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Lead{}, apperr.NotFound("lead not found").WithOp("leads.GetLead")
		}
		s.log.DatabaseError("get lead", err)
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "could not load lead", err).WithOp("leads.GetLead")
	}
	return lead, nil
}

func (s *Service) ListLeads(ctx context.Context, kundeID uuid.UUID, limit, offset int) ([]repository.Lead, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	leads, err := s.repo.List(ctx, kundeID, limit, offset)
	if err != nil {
		s.log.DatabaseError("list leads", err)
		return nil, apperr.Wrap(apperr.KindInternal, "could not list leads", err).WithOp("leads.ListLeads")
	}
	return leads, nil
}

// GetChatHistory returns a lead's transcript oldest first.
func (s *Service) GetChatHistory(ctx context.Context, leadID, kundeID uuid.UUID) ([]repository.ChatMessage, error) {
	if _, err := s.GetLead(ctx, leadID, kundeID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListChatMessages(ctx, leadID)
	if err != nil {
		s.log.DatabaseError("list chat messages", err)
		return nil, apperr.Wrap(apperr.KindInternal, "could not load chat history", err).WithOp("leads.GetChatHistory")
	}
	return messages, nil
}

// GetScores returns all stored scoring runs for a lead, newest first.
func (s *Service) GetScores(ctx context.Context, leadID, kundeID uuid.UUID) ([]repository.LeadScore, error) {
	if _, err := s.GetLead(ctx, leadID, kundeID); err != nil {
		return nil, err
	}
	scores, err := s.repo.ListLeadScores(ctx, leadID, kundeID)
	if err != nil {
		s.log.DatabaseError("list lead scores", err)
		return nil, apperr.Wrap(apperr.KindInternal, "could not load scores", err).WithOp("leads.GetScores")
	}
	return scores, nil
}

// CustomerContext loads the workshop's scoring context, cached for a few
// minutes since it changes rarely but is read on every scoring run.
func (s *Service) CustomerContext(ctx context.Context, kundeID uuid.UUID) (repository.CustomerContext, error) {
	key := customerContextKey(kundeID)

	if raw, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var cc repository.CustomerContext
		if err := json.Unmarshal(raw, &cc); err == nil {
			return cc, nil
		}
		// Corrupt entry, drop it and fall through to the database.
		_ = s.cache.Evict(ctx, key)
	}

	cc, err := s.repo.GetCustomerContext(ctx, kundeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.CustomerContext{}, apperr.NotFound("kunde not found").WithOp("leads.CustomerContext")
		}
		s.log.DatabaseError("get customer context", err)
		return repository.CustomerContext{}, apperr.Wrap(apperr.KindInternal, "could not load customer context", err).WithOp("leads.CustomerContext")
	}

	if raw, err := json.Marshal(cc); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.log.Warn("customer context cache write failed",
				"kunde_id", kundeID.String(), "error", err)
		}
	}

	return cc, nil
}

// EvictCustomerContext drops the cached context after workshop settings
// change.
func (s *Service) EvictCustomerContext(ctx context.Context, kundeID uuid.UUID) error {
	return s.cache.Evict(ctx, customerContextKey(kundeID))
}

func customerContextKey(kundeID uuid.UUID) string {
	return fmt.Sprintf("kunde:%s:context", kundeID)
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
