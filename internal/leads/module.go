// Package leads is the lead management bounded context: intake from the
// chat widget, transcript storage, scoring and operator notifications.
package leads

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"carbot_backend/internal/email"
	"carbot_backend/internal/events"
	"carbot_backend/internal/http"
	"carbot_backend/internal/leads/handler"
	"carbot_backend/internal/leads/repository"
	"carbot_backend/internal/leads/scoring"
	"carbot_backend/internal/leads/service"
	"carbot_backend/platform/cache"
	"carbot_backend/platform/config"
	"carbot_backend/platform/logger"
)

// Module wires the leads domain together and registers its routes.
type Module struct {
	handler *handler.Handler
	leads   *service.Service
	scoring *scoring.Service
	mailer  email.Sender
	log     *logger.Logger
}

type ModuleConfig interface {
	config.CacheConfig
	config.ScoringConfig
}

// NewModule builds the full leads stack on top of the shared pool, cache
// and event bus, and subscribes the scoring and notification handlers.
func NewModule(pool *pgxpool.Pool, c cache.Cache, bus events.Bus, mailer email.Sender, log *logger.Logger, cfg ModuleConfig) *Module {
	repo := repository.New(pool)
	scorer := scoring.NewScorer(log, cfg.GetDefaultJobValue())
	scoringSvc := scoring.NewService(repo, scorer, bus, log, cfg)
	leadsSvc := service.New(repo, c, bus, log, cfg.GetCacheTTL())

	m := &Module{
		handler: handler.New(leadsSvc, scoringSvc, log),
		leads:   leadsSvc,
		scoring: scoringSvc,
		mailer:  mailer,
		log:     log,
	}

	m.subscribe(bus)
	return m
}

func (m *Module) Name() string { return "leads" }

// Scoring exposes the scoring service for the scheduler worker.
func (m *Module) Scoring() *scoring.Service { return m.scoring }

func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	// Public intake routes used by the embedded widget, rate limited per IP.
	intake := ctx.V1.Group("/intake/:kundeId", ctx.IntakeRateLimiter.RateLimit())
	intake.POST("/leads", m.handler.CreateLead)
	intake.POST("/leads/:leadId/messages", m.handler.AddChatMessage)

	// Portal routes behind JWT auth.
	leads := ctx.Protected.Group("/leads")
	leads.GET("", m.handler.ListLeads)
	leads.POST("/rescore", m.handler.RescoreLeads)
	leads.GET("/:leadId", m.handler.GetLead)
	leads.GET("/:leadId/messages", m.handler.GetChatHistory)
	leads.POST("/:leadId/score", m.handler.ScoreLead)
	leads.GET("/:leadId/scores", m.handler.GetScores)
}

func (m *Module) subscribe(bus events.Bus) {
	if bus == nil {
		return
	}

	// Every new lead gets an initial scoring pass.
	bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		created, ok := e.(events.LeadCreated)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", e)
		}
		m.scoring.ScoreAndStore(ctx, created.LeadID, created.Tenant())
		return nil
	}))

	// Hot leads trigger an operator alert when the workshop has a
	// notification address configured.
	bus.Subscribe(events.LeadScored{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		scored, ok := e.(events.LeadScored)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", e)
		}
		if scored.Classification != "Hot" {
			return nil
		}

		cc, err := m.leads.CustomerContext(ctx, scored.Tenant())
		if err != nil {
			return fmt.Errorf("customer context for alert: %w", err)
		}
		if cc.NotifyEmail == nil || *cc.NotifyEmail == "" {
			return nil
		}

		return m.mailer.SendHotLeadAlert(ctx, *cc.NotifyEmail, email.HotLeadAlert{
			LeadID:         scored.LeadID.String(),
			WorkshopName:   cc.Name,
			Total:          scored.Total,
			Priority:       scored.Priority,
			EstimatedValue: scored.EstimatedValue,
		})
	}))
}
