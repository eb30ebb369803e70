package repository

import (
	"context"

	"github.com/google/uuid"
)

// LeadsRepository is the persistence contract consumed by the leads services.
// The concrete *Repository implements it against Postgres; tests substitute
// in-memory fakes.
type LeadsRepository interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	GetByID(ctx context.Context, leadID, kundeID uuid.UUID) (Lead, error)
	List(ctx context.Context, kundeID uuid.UUID, limit, offset int) ([]Lead, error)
	ListUnscored(ctx context.Context, kundeID uuid.UUID, limit int) ([]Lead, error)

	AppendChatMessage(ctx context.Context, params AppendChatMessageParams) (ChatMessage, error)
	ListChatMessages(ctx context.Context, leadID uuid.UUID) ([]ChatMessage, error)

	GetCustomerContext(ctx context.Context, kundeID uuid.UUID) (CustomerContext, error)
	ListKundenIDs(ctx context.Context) ([]uuid.UUID, error)

	InsertLeadScore(ctx context.Context, params InsertLeadScoreParams) error
	ListLeadScores(ctx context.Context, leadID, kundeID uuid.UUID) ([]LeadScore, error)
}

var _ LeadsRepository = (*Repository)(nil)
