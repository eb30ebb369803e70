package scoring

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"carbot_backend/internal/leads/repository"
	"carbot_backend/platform/logger"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	s := NewScorer(logger.New("development"), 300)
	s.now = func() time.Time { return testNow }
	return s
}

func strPtr(s string) *string { return &s }

func testLead(anliegen string, age time.Duration) *repository.Lead {
	return &repository.Lead{
		ID:        uuid.New(),
		KundeID:   uuid.New(),
		Anliegen:  anliegen,
		CreatedAt: testNow.Add(-age),
	}
}

func userMsg(content string, at time.Time) repository.ChatMessage {
	return repository.ChatMessage{Role: RoleUser, Content: content, Timestamp: at}
}

func assistantMsg(content string, at time.Time) repository.ChatMessage {
	return repository.ChatMessage{Role: RoleAssistant, Content: content, Timestamp: at}
}

func TestScoreIsDeterministic(t *testing.T) {
	scorer := newTestScorer()
	lead := testLead("Bremsen quietschen, brauche dringend einen Termin", 3*time.Hour)
	lead.Telefon = strPtr("+4915112345678")
	lead.Name = strPtr("Ayşe Yılmaz")
	messages := []repository.ChatMessage{
		assistantMsg("Wie kann ich helfen?", testNow.Add(-2*time.Hour)),
		userMsg("Was kostet eine Bremsenreparatur?", testNow.Add(-2*time.Hour+time.Minute)),
	}

	first := scorer.Score(Input{Lead: lead, Messages: messages})
	second := scorer.Score(Input{Lead: lead, Messages: messages})

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input produced different results:\n%+v\n%+v", first, second)
	}
}

func TestScoreBoundsUnderExtremeInput(t *testing.T) {
	scorer := newTestScorer()

	// Every keyword family, repeated, plus a long transcript.
	anliegen := strings.Repeat("sofort dringend notfall kaputt heute morgen kaufen termin buchen tüv bremsen motor kosten ", 5)
	lead := testLead(anliegen, 10*time.Minute)
	lead.Telefon = strPtr("+4915112345678")
	lead.Email = strPtr("einkauf@autohaus-schmidt.de")
	lead.Name = strPtr("Dr. Hans Peter Schmidt")
	lead.Fahrzeug = strPtr("BMW 320d Baujahr 2019, 85000 km")

	var messages []repository.ChatMessage
	at := testNow.Add(-30 * time.Minute)
	for i := 0; i < 25; i++ {
		messages = append(messages, assistantMsg("Gern, wann passt es Ihnen?", at))
		at = at.Add(30 * time.Second)
		messages = append(messages, userMsg("Bitte sofort einen Termin buchen, was kostet die Bremse? Motor Baujahr 2019, danke!", at))
		at = at.Add(30 * time.Second)
	}

	result := scorer.Score(Input{Lead: lead, Messages: messages})

	checks := map[string]int{
		"urgency":      result.Breakdown.Urgency,
		"engagement":   result.Breakdown.Engagement,
		"intent":       result.Breakdown.Intent,
		"demographics": result.Breakdown.Demographics,
		"behavior":     result.Breakdown.Behavior,
		"total":        result.Total,
	}
	for name, score := range checks {
		if score < 0 || score > 100 {
			t.Errorf("%s = %d, want within [0,100]", name, score)
		}
	}
	if result.Degraded {
		t.Fatal("extreme but valid input must not degrade")
	}
}

func TestClassificationThresholds(t *testing.T) {
	cases := []struct {
		total int
		want  string
	}{
		{100, "Hot"},
		{80, "Hot"},
		{79, "Warm"},
		{60, "Warm"},
		{59, "Cold"},
		{40, "Cold"},
		{39, "Very Cold"},
		{0, "Very Cold"},
	}
	for _, tc := range cases {
		if got := classify(tc.total); got != tc.want {
			t.Errorf("classify(%d) = %q, want %q", tc.total, got, tc.want)
		}
	}
}

func TestPriorityIgnoresDemographicsAndBehavior(t *testing.T) {
	base := Breakdown{Urgency: 80, Engagement: 60, Intent: 70, Demographics: 10, Behavior: 10}
	shifted := base
	shifted.Demographics = 95
	shifted.Behavior = 95

	if priorityFor(base) != priorityFor(shifted) {
		t.Fatalf("priority changed with demographics/behavior: %q vs %q",
			priorityFor(base), priorityFor(shifted))
	}
	if got := priorityFor(base); got != "High" {
		t.Fatalf("priorityFor = %q, want High", got)
	}
}

func TestWeightsSumToOne(t *testing.T) {
	sum := weightUrgency + weightEngagement + weightIntent + weightDemographics + weightBehavior
	if sum != 1.0 {
		t.Fatalf("weights sum to %v, want 1.0", sum)
	}
}

func TestNilChatHistoryScoresNormally(t *testing.T) {
	scorer := newTestScorer()
	lead := testLead("Bremsen quietschen, brauche einen Termin", 2*time.Hour)

	result := scorer.Score(Input{Lead: lead, Messages: nil})

	if result.Degraded {
		t.Fatal("a valid lead without chat history must not degrade")
	}
	if result.Total < 0 || result.Total > 100 {
		t.Fatalf("total = %d, want within [0,100]", result.Total)
	}
}

func TestNilLeadReturnsDefault(t *testing.T) {
	scorer := newTestScorer()

	for name, input := range map[string]Input{
		"nil lead":      {},
		"missing kunde": {Lead: &repository.Lead{ID: uuid.New()}},
	} {
		result := scorer.Score(input)
		if !result.Degraded {
			t.Errorf("%s: expected degraded result", name)
		}
		if result.Total != 50 || result.Classification != "Cold" || result.Priority != "Medium" {
			t.Errorf("%s: unexpected default shape: %+v", name, result)
		}
		if result.EstimatedValue != 300 {
			t.Errorf("%s: estimated value = %d, want 300", name, result.EstimatedValue)
		}
		if len(result.FollowUpSuggestions) == 0 {
			t.Errorf("%s: default result must carry a generic follow-up", name)
		}
	}
}

func TestHotLeadScenario(t *testing.T) {
	scorer := newTestScorer()

	lead := testLead("Sofort Hilfe! Bremsen kaputt, TÜV heute nötig", 10*time.Minute)
	lead.Telefon = strPtr("+4915112345678")
	lead.Name = strPtr("Max Mustermann")

	// 12 user messages around 120 chars each, quick replies to the bot.
	long := strings.Repeat("Die Bremse macht laute Geräusche beim Fahren ", 3)[:120]
	var messages []repository.ChatMessage
	at := testNow.Add(-9 * time.Minute)
	for i := 0; i < 12; i++ {
		messages = append(messages, assistantMsg("Verstanden, können Sie das genauer beschreiben?", at))
		at = at.Add(time.Minute)
		messages = append(messages, userMsg(long, at))
	}

	result := scorer.Score(Input{Lead: lead, Messages: messages})

	if result.Classification != "Hot" {
		t.Errorf("classification = %q, want Hot (total %d)", result.Classification, result.Total)
	}
	if result.Priority != "High" {
		t.Errorf("priority = %q, want High", result.Priority)
	}
	if result.Total < 80 {
		t.Errorf("total = %d, want >= 80", result.Total)
	}
	if result.Breakdown.Urgency != 100 {
		t.Errorf("urgency = %d, want 100", result.Breakdown.Urgency)
	}
}

func TestColdMinimalLeadScenario(t *testing.T) {
	scorer := newTestScorer()

	lead := testLead("Frage", 5*24*time.Hour)
	messages := []repository.ChatMessage{
		userMsg("Frage", testNow.Add(-5*24*time.Hour)),
	}

	result := scorer.Score(Input{Lead: lead, Messages: messages})

	if result.Classification != "Cold" && result.Classification != "Very Cold" {
		t.Errorf("classification = %q, want Cold or Very Cold", result.Classification)
	}

	types := make(map[string]bool)
	for _, rec := range result.Recommendations {
		types[rec.Type] = true
	}
	if !types["contact_collection"] {
		t.Errorf("missing contact_collection recommendation, got %+v", result.Recommendations)
	}
	if !types["qualification"] {
		t.Errorf("missing qualification recommendation, got %+v", result.Recommendations)
	}
}

func TestEstimatedValueMultipliers(t *testing.T) {
	scorer := newTestScorer()
	avg := 300.0
	customer := &repository.CustomerContext{AverageJobValue: &avg}

	breakdown := Breakdown{Urgency: 75, Intent: 85, Demographics: 75}
	if got := scorer.estimateValue(breakdown, customer); got != 600 {
		t.Fatalf("estimateValue = %d, want 600", got)
	}

	// No threshold crossed: plain base value.
	if got := scorer.estimateValue(Breakdown{Urgency: 70, Intent: 80, Demographics: 70}, customer); got != 300 {
		t.Fatalf("estimateValue without multipliers = %d, want 300", got)
	}

	// Missing customer context falls back to the configured default.
	if got := scorer.estimateValue(breakdown, nil); got != 600 {
		t.Fatalf("estimateValue without customer = %d, want 600", got)
	}
}

func TestFollowUpSuggestionThresholds(t *testing.T) {
	hot := buildFollowUps(Breakdown{Urgency: 90, Engagement: 80, Intent: 85})
	if len(hot) == 0 {
		t.Fatal("expected follow-up suggestions for a strong lead")
	}

	quiet := buildFollowUps(Breakdown{Urgency: 60, Engagement: 60, Intent: 70})
	if len(quiet) != 0 {
		t.Fatalf("thresholds are strict, got %v", quiet)
	}
}

func TestGermanPhoneAndBusinessEmailRaiseDemographics(t *testing.T) {
	scorer := newTestScorer()

	private := testLead("Mein Auto springt nicht an", time.Hour)
	private.Email = strPtr("max99@gmail.com")
	private.Telefon = strPtr("+12125550173")

	business := testLead("Mein Auto springt nicht an", time.Hour)
	business.Email = strPtr("flotte@spedition-krause.de")
	business.Telefon = strPtr("+4915112345678")

	privateScore := scorer.scoreDemographics(private, strings.ToLower(private.Anliegen))
	businessScore := scorer.scoreDemographics(business, strings.ToLower(business.Anliegen))

	if businessScore <= privateScore {
		t.Fatalf("business contact %d, private contact %d: business should score higher",
			businessScore, privateScore)
	}
}

func TestResponseLatencyPairing(t *testing.T) {
	at := testNow
	messages := []repository.ChatMessage{
		assistantMsg("Hallo!", at),
		userMsg("Hallo zurück", at.Add(time.Minute)),
		userMsg("Noch eine Nachricht", at.Add(2*time.Minute)),
		assistantMsg("Gern", at.Add(3*time.Minute)),
	}

	avg, ok := averageResponseLatency(messages)
	if !ok {
		t.Fatal("expected at least one assistant->user pair")
	}
	if avg != time.Minute {
		t.Fatalf("average latency = %v, want 1m", avg)
	}

	if _, ok := averageResponseLatency(nil); ok {
		t.Fatal("no messages must yield no latency signal")
	}
}
