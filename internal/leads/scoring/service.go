package scoring

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"carbot_backend/internal/events"
	"carbot_backend/internal/leads/repository"
	"carbot_backend/platform/config"
	"carbot_backend/platform/logger"
)

const (
	defaultBatchLimit = 100
	batchPauseEvery   = 10
)

// PersistOutcome reports whether a score made it into storage. Persistence
// is best-effort: a failed insert never invalidates the computed score.
type PersistOutcome struct {
	Stored bool
	Err    error
}

// Service orchestrates scoring: it loads the lead with its chat history and
// customer context, runs the scorer, stores the result and publishes the
// leads.scored event.
type Service struct {
	repo   repository.LeadsRepository
	scorer *Scorer
	bus    events.Bus
	log    *logger.Logger
	cfg    config.ScoringConfig
}

func NewService(repo repository.LeadsRepository, scorer *Scorer, bus events.Bus, log *logger.Logger, cfg config.ScoringConfig) *Service {
	return &Service{
		repo:   repo,
		scorer: scorer,
		bus:    bus,
		log:    log,
		cfg:    cfg,
	}
}

// ScoreAndStore scores a single lead and persists the result. The scoring
// half cannot fail; the persistence half reports its outcome separately so
// callers can still use the score when the insert failed.
func (s *Service) ScoreAndStore(ctx context.Context, leadID, kundeID uuid.UUID) (Result, PersistOutcome) {
	lead, err := s.repo.GetByID(ctx, leadID, kundeID)
	if err != nil {
		s.log.Error("lead lookup failed, scoring degraded",
			"lead_id", leadID.String(), "error", err)
		return s.scorer.Score(Input{}), PersistOutcome{Stored: false, Err: err}
	}

	result := s.scoreLead(ctx, &lead)
	outcome := s.persist(ctx, &lead, result)
	s.publishScored(ctx, &lead, result)
	return result, outcome
}

// ScoreBatchLeads scores the given leads sequentially, up to limit (default
// 100), persisting each result. A short pause every few items keeps the
// write load on storage flat. One lead failing does not abort the batch.
func (s *Service) ScoreBatchLeads(ctx context.Context, leads []repository.Lead, limit int) []Result {
	if limit <= 0 {
		limit = s.batchLimit()
	}
	if len(leads) > limit {
		leads = leads[:limit]
	}

	results := make([]Result, 0, len(leads))
	for i := range leads {
		if i > 0 && i%batchPauseEvery == 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(s.batchPause()):
			}
		}

		lead := leads[i]
		result := s.scoreLead(ctx, &lead)
		results = append(results, result)

		if lead.KundeID == uuid.Nil {
			// Malformed lead: keep the default score in the batch
			// output but do not persist it.
			continue
		}
		s.persist(ctx, &lead, result)
		s.publishScored(ctx, &lead, result)
	}
	return results
}

// RescoreTenant scores every lead of one tenant that has no stored score
// yet. Returns how many leads were processed.
func (s *Service) RescoreTenant(ctx context.Context, kundeID uuid.UUID, limit int) (int, error) {
	if limit <= 0 {
		limit = s.batchLimit()
	}
	leads, err := s.repo.ListUnscored(ctx, kundeID, limit)
	if err != nil {
		return 0, err
	}
	results := s.ScoreBatchLeads(ctx, leads, limit)
	return len(results), nil
}

// RescoreAllTenants runs RescoreTenant for every known tenant. Used by the
// nightly scheduler job. Per-tenant failures are logged and skipped.
func (s *Service) RescoreAllTenants(ctx context.Context, limit int) (int, error) {
	kundenIDs, err := s.repo.ListKundenIDs(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, kundeID := range kundenIDs {
		n, err := s.RescoreTenant(ctx, kundeID, limit)
		if err != nil {
			s.log.Error("tenant rescore failed",
				"kunde_id", kundeID.String(), "error", err)
			continue
		}
		total += n
	}
	return total, nil
}

// scoreLead loads the chat history and customer context for a lead and runs
// the scorer. Lookup failures degrade gracefully: scoring proceeds with
// whatever data is available.
func (s *Service) scoreLead(ctx context.Context, lead *repository.Lead) Result {
	var messages []repository.ChatMessage
	var customer *repository.CustomerContext

	if lead != nil && lead.ID != uuid.Nil {
		var err error
		messages, err = s.repo.ListChatMessages(ctx, lead.ID)
		if err != nil {
			s.log.Error("chat history lookup failed, scoring without it",
				"lead_id", lead.ID.String(), "error", err)
			messages = nil
		}
	}
	if lead != nil && lead.KundeID != uuid.Nil {
		cc, err := s.repo.GetCustomerContext(ctx, lead.KundeID)
		if err != nil {
			s.log.Error("customer context lookup failed, using defaults",
				"kunde_id", lead.KundeID.String(), "error", err)
		} else {
			customer = &cc
		}
	}

	result := s.scorer.Score(Input{Lead: lead, Messages: messages, Customer: customer})

	leadID := ""
	if lead != nil {
		leadID = lead.ID.String()
	}
	s.log.LeadScored(leadID, result.Total, result.Classification, result.Priority, result.Degraded)
	return result
}

func (s *Service) persist(ctx context.Context, lead *repository.Lead, result Result) PersistOutcome {
	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		s.log.Error("score breakdown marshal failed", "lead_id", lead.ID.String(), "error", err)
		return PersistOutcome{Stored: false, Err: err}
	}
	recommendations, err := json.Marshal(result.Recommendations)
	if err != nil {
		s.log.Error("score recommendations marshal failed", "lead_id", lead.ID.String(), "error", err)
		return PersistOutcome{Stored: false, Err: err}
	}

	err = s.repo.InsertLeadScore(ctx, repository.InsertLeadScoreParams{
		LeadID:          lead.ID,
		KundeID:         lead.KundeID,
		TotalScore:      result.Total,
		Breakdown:       breakdown,
		Classification:  result.Classification,
		Priority:        result.Priority,
		EstimatedValue:  result.EstimatedValue,
		Recommendations: recommendations,
		Degraded:        result.Degraded,
		Version:         result.Version,
	})
	if err != nil {
		s.log.DatabaseError("insert lead score", err)
		return PersistOutcome{Stored: false, Err: err}
	}
	return PersistOutcome{Stored: true}
}

func (s *Service) publishScored(ctx context.Context, lead *repository.Lead, result Result) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.LeadScored{
		BaseEvent:      events.NewBaseEvent(lead.KundeID),
		LeadID:         lead.ID,
		Total:          result.Total,
		Classification: result.Classification,
		Priority:       result.Priority,
		EstimatedValue: result.EstimatedValue,
		Degraded:       result.Degraded,
	})
}

func (s *Service) batchLimit() int {
	if s.cfg != nil && s.cfg.GetBatchLimit() > 0 {
		return s.cfg.GetBatchLimit()
	}
	return defaultBatchLimit
}

func (s *Service) batchPause() time.Duration {
	if s.cfg != nil && s.cfg.GetBatchPause() > 0 {
		return s.cfg.GetBatchPause()
	}
	return 250 * time.Millisecond
}
