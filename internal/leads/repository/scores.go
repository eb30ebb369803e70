package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LeadScore is a historical scoring record. Rows are insert-only; a rescore
// produces a new row rather than updating an old one.
type LeadScore struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	KundeID         uuid.UUID
	TotalScore      int
	Breakdown       []byte
	Classification  string
	Priority        string
	EstimatedValue  int
	Recommendations []byte
	Degraded        bool
	Version         string
	CreatedAt       time.Time
}

type InsertLeadScoreParams struct {
	LeadID          uuid.UUID
	KundeID         uuid.UUID
	TotalScore      int
	Breakdown       []byte
	Classification  string
	Priority        string
	EstimatedValue  int
	Recommendations []byte
	Degraded        bool
	Version         string
}

func (r *Repository) InsertLeadScore(ctx context.Context, params InsertLeadScoreParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_scores (
			lead_id, kunde_id, total_score, score_breakdown, classification,
			priority, estimated_value, recommendations, degraded, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		params.LeadID, params.KundeID, params.TotalScore, params.Breakdown,
		params.Classification, params.Priority, params.EstimatedValue,
		params.Recommendations, params.Degraded, params.Version,
	)
	return err
}

// ListLeadScores returns the score history for a lead, newest first.
func (r *Repository) ListLeadScores(ctx context.Context, leadID, kundeID uuid.UUID) ([]LeadScore, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, kunde_id, total_score, score_breakdown, classification,
			priority, estimated_value, recommendations, degraded, version, created_at
		FROM lead_scores
		WHERE lead_id = $1 AND kunde_id = $2
		ORDER BY created_at DESC
	`, leadID, kundeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]LeadScore, 0)
	for rows.Next() {
		var s LeadScore
		if err := rows.Scan(
			&s.ID, &s.LeadID, &s.KundeID, &s.TotalScore, &s.Breakdown, &s.Classification,
			&s.Priority, &s.EstimatedValue, &s.Recommendations, &s.Degraded, &s.Version, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}

	return scores, rows.Err()
}
