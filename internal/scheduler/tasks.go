// Package scheduler defines the background jobs of the platform and the
// asynq plumbing to enqueue and process them.
package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type identifiers. The prefix groups tasks per bounded context.
const (
	TypeLeadsRescoreBatch = "leads:rescore_batch"
)

// LeadsRescorePayload is the payload for a batch rescore run. A zero
// TenantID means all tenants.
type LeadsRescorePayload struct {
	TenantID uuid.UUID `json:"tenantId"`
	Limit    int       `json:"limit"`
}

// NewLeadsRescoreTask creates a batch rescore task for one tenant or, with
// uuid.Nil, for all of them.
func NewLeadsRescoreTask(tenantID uuid.UUID, limit int) (*asynq.Task, error) {
	payload, err := json.Marshal(LeadsRescorePayload{TenantID: tenantID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal rescore payload: %w", err)
	}
	return asynq.NewTask(TypeLeadsRescoreBatch, payload, asynq.MaxRetry(3)), nil
}

func parseLeadsRescorePayload(task *asynq.Task) (LeadsRescorePayload, error) {
	var payload LeadsRescorePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadsRescorePayload{}, fmt.Errorf("unmarshal rescore payload: %w", err)
	}
	return payload, nil
}
