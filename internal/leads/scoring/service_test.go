package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"carbot_backend/internal/leads/repository"
	"carbot_backend/platform/logger"
)

// fakeRepo is an in-memory LeadsRepository for service tests.
type fakeRepo struct {
	leads     map[uuid.UUID]repository.Lead
	messages  map[uuid.UUID][]repository.ChatMessage
	inserted  []repository.InsertLeadScoreParams
	insertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:    make(map[uuid.UUID]repository.Lead),
		messages: make(map[uuid.UUID][]repository.ChatMessage),
	}
}

func (f *fakeRepo) Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	return repository.Lead{}, errors.New("not implemented")
}

func (f *fakeRepo) GetByID(ctx context.Context, leadID, kundeID uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[leadID]
	if !ok || lead.KundeID != kundeID {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeRepo) List(ctx context.Context, kundeID uuid.UUID, limit, offset int) ([]repository.Lead, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRepo) ListUnscored(ctx context.Context, kundeID uuid.UUID, limit int) ([]repository.Lead, error) {
	var out []repository.Lead
	for _, lead := range f.leads {
		if lead.KundeID == kundeID {
			out = append(out, lead)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) AppendChatMessage(ctx context.Context, params repository.AppendChatMessageParams) (repository.ChatMessage, error) {
	return repository.ChatMessage{}, errors.New("not implemented")
}

func (f *fakeRepo) ListChatMessages(ctx context.Context, leadID uuid.UUID) ([]repository.ChatMessage, error) {
	return f.messages[leadID], nil
}

func (f *fakeRepo) GetCustomerContext(ctx context.Context, kundeID uuid.UUID) (repository.CustomerContext, error) {
	return repository.CustomerContext{KundeID: kundeID}, nil
}

func (f *fakeRepo) ListKundenIDs(ctx context.Context) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, lead := range f.leads {
		if !seen[lead.KundeID] {
			seen[lead.KundeID] = true
			out = append(out, lead.KundeID)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertLeadScore(ctx context.Context, params repository.InsertLeadScoreParams) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, params)
	return nil
}

func (f *fakeRepo) ListLeadScores(ctx context.Context, leadID, kundeID uuid.UUID) ([]repository.LeadScore, error) {
	return nil, nil
}

type fastBatchConfig struct{}

func (fastBatchConfig) GetDefaultJobValue() float64  { return 300 }
func (fastBatchConfig) GetBatchLimit() int           { return 100 }
func (fastBatchConfig) GetBatchPause() time.Duration { return time.Millisecond }

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, newTestScorer(), nil, logger.New("development"), fastBatchConfig{})
}

func TestScoreAndStorePersistsResult(t *testing.T) {
	repo := newFakeRepo()
	kundeID := uuid.New()
	lead := repository.Lead{
		ID:        uuid.New(),
		KundeID:   kundeID,
		Anliegen:  "TÜV ist abgelaufen, brauche dringend einen Termin",
		CreatedAt: testNow.Add(-time.Hour),
	}
	repo.leads[lead.ID] = lead

	svc := newTestService(repo)
	result, outcome := svc.ScoreAndStore(context.Background(), lead.ID, kundeID)

	if result.Degraded {
		t.Fatal("valid lead must not score degraded")
	}
	if !outcome.Stored || outcome.Err != nil {
		t.Fatalf("expected stored outcome, got %+v", outcome)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d score rows, want 1", len(repo.inserted))
	}
	row := repo.inserted[0]
	if row.LeadID != lead.ID || row.KundeID != kundeID {
		t.Fatalf("score row keyed wrong: %+v", row)
	}
	if row.TotalScore != result.Total || row.Version != scoreVersion {
		t.Fatalf("score row does not match result: %+v", row)
	}
}

func TestScoreAndStoreReportsPersistFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.insertErr = errors.New("connection reset")
	lead := repository.Lead{
		ID:        uuid.New(),
		KundeID:   uuid.New(),
		Anliegen:  "Inspektion fällig",
		CreatedAt: testNow.Add(-time.Hour),
	}
	repo.leads[lead.ID] = lead

	svc := newTestService(repo)
	result, outcome := svc.ScoreAndStore(context.Background(), lead.ID, lead.KundeID)

	if result.Degraded {
		t.Fatal("persist failure must not degrade the score itself")
	}
	if outcome.Stored || outcome.Err == nil {
		t.Fatalf("expected failed persist outcome, got %+v", outcome)
	}
}

func TestScoreAndStoreUnknownLeadDegrades(t *testing.T) {
	svc := newTestService(newFakeRepo())

	result, outcome := svc.ScoreAndStore(context.Background(), uuid.New(), uuid.New())

	if !result.Degraded {
		t.Fatal("missing lead must return the degraded default")
	}
	if outcome.Stored {
		t.Fatal("degraded default must not be stored")
	}
}

func TestScoreBatchLeadsPartialFailure(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	kundeID := uuid.New()

	leads := make([]repository.Lead, 0, 5)
	for i := 0; i < 5; i++ {
		lead := repository.Lead{
			ID:        uuid.New(),
			KundeID:   kundeID,
			Anliegen:  "Ölwechsel und Inspektion buchen",
			CreatedAt: testNow.Add(-2 * time.Hour),
		}
		if i == 2 {
			// Malformed record without a tenant.
			lead.KundeID = uuid.Nil
		}
		leads = append(leads, lead)
	}

	results := svc.ScoreBatchLeads(context.Background(), leads, 0)

	if len(results) != 5 {
		t.Fatalf("batch returned %d results, want 5", len(results))
	}
	if !results[2].Degraded {
		t.Fatal("malformed lead must receive the degraded default")
	}
	for i, r := range results {
		if i != 2 && r.Degraded {
			t.Errorf("lead %d unexpectedly degraded", i)
		}
	}
	if len(repo.inserted) != 4 {
		t.Fatalf("stored %d score rows, want 4 (malformed lead skipped)", len(repo.inserted))
	}
}

func TestScoreBatchLeadsHonorsLimit(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	kundeID := uuid.New()

	leads := make([]repository.Lead, 0, 12)
	for i := 0; i < 12; i++ {
		leads = append(leads, repository.Lead{
			ID:        uuid.New(),
			KundeID:   kundeID,
			Anliegen:  "Bremsen prüfen",
			CreatedAt: testNow.Add(-time.Hour),
		})
	}

	results := svc.ScoreBatchLeads(context.Background(), leads, 3)
	if len(results) != 3 {
		t.Fatalf("batch returned %d results, want 3", len(results))
	}
}

func TestRescoreTenant(t *testing.T) {
	repo := newFakeRepo()
	kundeID := uuid.New()
	for i := 0; i < 3; i++ {
		lead := repository.Lead{
			ID:        uuid.New(),
			KundeID:   kundeID,
			Anliegen:  "Klimaanlage kühlt nicht mehr",
			CreatedAt: testNow.Add(-6 * time.Hour),
		}
		repo.leads[lead.ID] = lead
	}

	svc := newTestService(repo)
	n, err := svc.RescoreTenant(context.Background(), kundeID, 0)
	if err != nil {
		t.Fatalf("RescoreTenant: %v", err)
	}
	if n != 3 {
		t.Fatalf("rescored %d leads, want 3", n)
	}
	if len(repo.inserted) != 3 {
		t.Fatalf("stored %d score rows, want 3", len(repo.inserted))
	}
}
