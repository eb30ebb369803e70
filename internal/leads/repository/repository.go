package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead is a captured customer request from the chat widget or contact form.
// Field names follow the intake vocabulary: Anliegen is the free-text request,
// Fahrzeug the optional vehicle description, KundeID the owning workshop.
type Lead struct {
	ID        uuid.UUID
	KundeID   uuid.UUID
	Anliegen  string
	Fahrzeug  *string
	Name      *string
	Telefon   *string
	Email     *string
	Source    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateLeadParams struct {
	KundeID  uuid.UUID
	Anliegen string
	Fahrzeug *string
	Name     *string
	Telefon  *string
	Email    *string
	Source   *string
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (kunde_id, anliegen, fahrzeug, name, telefon, email, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, kunde_id, anliegen, fahrzeug, name, telefon, email, source, created_at, updated_at
	`,
		params.KundeID, params.Anliegen, params.Fahrzeug, params.Name, params.Telefon, params.Email, params.Source,
	).Scan(
		&lead.ID, &lead.KundeID, &lead.Anliegen, &lead.Fahrzeug, &lead.Name,
		&lead.Telefon, &lead.Email, &lead.Source, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, leadID, kundeID uuid.UUID) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		SELECT id, kunde_id, anliegen, fahrzeug, name, telefon, email, source, created_at, updated_at
		FROM leads
		WHERE id = $1 AND kunde_id = $2
	`, leadID, kundeID).Scan(
		&lead.ID, &lead.KundeID, &lead.Anliegen, &lead.Fahrzeug, &lead.Name,
		&lead.Telefon, &lead.Email, &lead.Source, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) List(ctx context.Context, kundeID uuid.UUID, limit, offset int) ([]Lead, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, kunde_id, anliegen, fahrzeug, name, telefon, email, source, created_at, updated_at
		FROM leads
		WHERE kunde_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, kundeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID, &lead.KundeID, &lead.Anliegen, &lead.Fahrzeug, &lead.Name,
			&lead.Telefon, &lead.Email, &lead.Source, &lead.CreatedAt, &lead.UpdatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	return leads, rows.Err()
}

// ListUnscored returns leads without a score row yet, oldest first,
// for batch scoring runs.
func (r *Repository) ListUnscored(ctx context.Context, kundeID uuid.UUID, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.kunde_id, l.anliegen, l.fahrzeug, l.name, l.telefon, l.email, l.source, l.created_at, l.updated_at
		FROM leads l
		LEFT JOIN lead_scores s ON s.lead_id = l.id
		WHERE l.kunde_id = $1 AND s.id IS NULL
		ORDER BY l.created_at ASC
		LIMIT $2
	`, kundeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID, &lead.KundeID, &lead.Anliegen, &lead.Fahrzeug, &lead.Name,
			&lead.Telefon, &lead.Email, &lead.Source, &lead.CreatedAt, &lead.UpdatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	return leads, rows.Err()
}

// CustomerContext holds tenant-level business parameters used by scoring
// and notification. AverageJobValue is the monetary baseline for value
// estimation; nil means the scoring default applies.
type CustomerContext struct {
	KundeID         uuid.UUID
	Name            string
	AverageJobValue *float64
	NotifyEmail     *string
}

func (r *Repository) GetCustomerContext(ctx context.Context, kundeID uuid.UUID) (CustomerContext, error) {
	var cctx CustomerContext
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, average_job_value, notify_email
		FROM kunden
		WHERE id = $1
	`, kundeID).Scan(&cctx.KundeID, &cctx.Name, &cctx.AverageJobValue, &cctx.NotifyEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return CustomerContext{}, ErrNotFound
	}
	if err != nil {
		return CustomerContext{}, err
	}
	return cctx, nil
}

// ListKundenIDs returns all workshop tenant IDs, used by the nightly
// batch rescore to fan out per tenant.
func (r *Repository) ListKundenIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM kunden ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
