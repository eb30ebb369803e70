package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one entry of a lead's chat transcript. Role is either
// "user" or "assistant". Messages are read-only inputs to scoring.
type ChatMessage struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Role      string
	Content   string
	Timestamp time.Time
}

type AppendChatMessageParams struct {
	LeadID    uuid.UUID
	Role      string
	Content   string
	Timestamp time.Time
}

func (r *Repository) AppendChatMessage(ctx context.Context, params AppendChatMessageParams) (ChatMessage, error) {
	ts := params.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var msg ChatMessage
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (lead_id, role, content, sent_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, lead_id, role, content, sent_at
	`, params.LeadID, params.Role, params.Content, ts).Scan(
		&msg.ID, &msg.LeadID, &msg.Role, &msg.Content, &msg.Timestamp,
	)
	if err != nil {
		return ChatMessage{}, err
	}
	return msg, nil
}

// ListChatMessages returns the lead's transcript in send order.
func (r *Repository) ListChatMessages(ctx context.Context, leadID uuid.UUID) ([]ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, role, content, sent_at
		FROM chat_messages
		WHERE lead_id = $1
		ORDER BY sent_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]ChatMessage, 0)
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.LeadID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
