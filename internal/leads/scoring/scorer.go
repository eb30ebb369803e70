package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"carbot_backend/internal/leads/repository"
	"carbot_backend/platform/logger"
)

// scoreVersion is bumped whenever keyword tables, weights or thresholds
// change, so that stored scores remain comparable within a version.
const scoreVersion = "2026-v1"

// Chat message roles as stored in chat_messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Sub-score base values. Every calculator starts here and only adds.
const (
	urgencyBase      = 50
	engagementBase   = 30
	intentBase       = 40
	demographicsBase = 50
	behaviorBase     = 40
)

// Weights for combining sub-scores into the total. Must sum to 1.0.
const (
	weightUrgency      = 0.25
	weightEngagement   = 0.20
	weightIntent       = 0.25
	weightDemographics = 0.15
	weightBehavior     = 0.15
)

const defaultJobValue = 300

// Breakdown holds the five sub-scores, each in the range 0-100.
type Breakdown struct {
	Urgency      int `json:"urgency"`
	Engagement   int `json:"engagement"`
	Intent       int `json:"intent"`
	Demographics int `json:"demographics"`
	Behavior     int `json:"behavior"`
}

// Recommendation is a single suggested action for the workshop team.
type Recommendation struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

// Result is the complete scoring output for one lead.
type Result struct {
	Total               int              `json:"total"`
	Breakdown           Breakdown        `json:"breakdown"`
	Classification      string           `json:"classification"`
	Priority            string           `json:"priority"`
	EstimatedValue      int              `json:"estimatedValue"`
	Recommendations     []Recommendation `json:"recommendations"`
	FollowUpSuggestions []string         `json:"followUpSuggestions"`
	Degraded            bool             `json:"degraded"`
	Version             string           `json:"version"`
	ScoredAt            time.Time        `json:"scoredAt"`
}

// Input bundles everything the scorer reads. Customer is optional; when nil
// the configured default job value is used for the value estimate.
type Input struct {
	Lead     *repository.Lead
	Messages []repository.ChatMessage
	Customer *repository.CustomerContext
}

// Scorer computes lead scores from chat and contact signals. It is stateless
// apart from the injected clock and safe for concurrent use.
type Scorer struct {
	log          *logger.Logger
	baseJobValue float64
	now          func() time.Time
}

func NewScorer(log *logger.Logger, baseJobValue float64) *Scorer {
	if baseJobValue <= 0 {
		baseJobValue = defaultJobValue
	}
	return &Scorer{
		log:          log,
		baseJobValue: baseJobValue,
		now:          time.Now,
	}
}

// Score computes the full scoring result for a lead. It never returns an
// error and never panics: any internal failure is caught and mapped to a
// neutral default result with Degraded set, so callers always receive a
// well-formed score.
func (s *Scorer) Score(input Input) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("lead scoring panicked, returning default score",
				"panic", r)
			result = s.defaultResult()
		}
	}()

	if input.Lead == nil || input.Lead.KundeID == uuid.Nil {
		return s.defaultResult()
	}

	lead := input.Lead
	anliegen := strings.ToLower(lead.Anliegen)

	userMessages := make([]string, 0, len(input.Messages))
	var transcriptParts []string
	for _, msg := range input.Messages {
		lowered := strings.ToLower(msg.Content)
		transcriptParts = append(transcriptParts, lowered)
		if msg.Role == RoleUser {
			userMessages = append(userMessages, lowered)
		}
	}
	transcript := strings.Join(transcriptParts, " ")

	breakdown := Breakdown{
		Urgency:      s.scoreUrgency(anliegen, userMessages, s.now().Sub(lead.CreatedAt)),
		Engagement:   s.scoreEngagement(input.Messages),
		Intent:       s.scoreIntent(lead, anliegen, transcript),
		Demographics: s.scoreDemographics(lead, anliegen),
		Behavior:     s.scoreBehavior(userMessages),
	}

	total := roundScore(
		weightUrgency*float64(breakdown.Urgency) +
			weightEngagement*float64(breakdown.Engagement) +
			weightIntent*float64(breakdown.Intent) +
			weightDemographics*float64(breakdown.Demographics) +
			weightBehavior*float64(breakdown.Behavior))

	return Result{
		Total:               total,
		Breakdown:           breakdown,
		Classification:      classify(total),
		Priority:            priorityFor(breakdown),
		EstimatedValue:      s.estimateValue(breakdown, input.Customer),
		Recommendations:     buildRecommendations(lead, breakdown),
		FollowUpSuggestions: buildFollowUps(breakdown),
		Degraded:            false,
		Version:             scoreVersion,
		ScoredAt:            s.now().UTC(),
	}
}

// classify maps the total score onto the temperature tiers shown in the
// workshop dashboard.
func classify(total int) string {
	switch {
	case total >= 80:
		return "Hot"
	case total >= 60:
		return "Warm"
	case total >= 40:
		return "Cold"
	default:
		return "Very Cold"
	}
}

// priorityFor answers "how fast must we act". It deliberately ignores
// demographics and behavior; only urgency, intent and engagement matter for
// response speed.
func priorityFor(b Breakdown) string {
	score := 0.4*float64(b.Urgency) + 0.3*float64(b.Intent) + 0.3*float64(b.Engagement)
	switch {
	case score >= 70:
		return "High"
	case score >= 50:
		return "Medium"
	default:
		return "Low"
	}
}

// estimateValue projects the expected job value in euro. The multipliers are
// additive and independent, so strong leads can exceed double the base value.
func (s *Scorer) estimateValue(b Breakdown, customer *repository.CustomerContext) int {
	base := s.baseJobValue
	if customer != nil && customer.AverageJobValue != nil && *customer.AverageJobValue > 0 {
		base = *customer.AverageJobValue
	}

	multiplier := 1.0
	if b.Intent > 80 {
		multiplier += 0.5
	}
	if b.Demographics > 70 {
		multiplier += 0.3
	}
	if b.Urgency > 70 {
		multiplier += 0.2
	}

	return roundScore(base * multiplier)
}

// buildRecommendations derives next actions from independent threshold
// rules. Zero, one, or all rules may fire.
func buildRecommendations(lead *repository.Lead, b Breakdown) []Recommendation {
	recs := make([]Recommendation, 0, 5)

	if b.Urgency > 70 {
		recs = append(recs, Recommendation{
			Type:     "immediate_contact",
			Message:  "Lead innerhalb einer Stunde kontaktieren",
			Priority: "high",
		})
	}
	if b.Intent > 80 {
		recs = append(recs, Recommendation{
			Type:     "appointment_offer",
			Message:  "Sofort einen Werkstatttermin anbieten",
			Priority: "high",
		})
	}
	if b.Engagement < 40 {
		recs = append(recs, Recommendation{
			Type:     "follow_up",
			Message:  "Follow-up mit weiteren Informationen senden",
			Priority: "medium",
		})
	}
	if !hasValue(lead.Telefon) {
		recs = append(recs, Recommendation{
			Type:     "contact_collection",
			Message:  "Telefonnummer des Kunden erfragen",
			Priority: "medium",
		})
	}
	if b.Demographics <= 50 {
		recs = append(recs, Recommendation{
			Type:     "qualification",
			Message:  "Lead weiter qualifizieren, Kontaktdaten unvollständig",
			Priority: "low",
		})
	}

	return recs
}

// buildFollowUps returns plain-text suggestions for the workshop team,
// gated by the same thresholds the recommendations use.
func buildFollowUps(b Breakdown) []string {
	suggestions := make([]string, 0, 4)

	if b.Intent > 70 {
		suggestions = append(suggestions,
			"Konkretes Angebot mit Preisrahmen erstellen",
			"Verfügbare Termine in den nächsten Tagen nennen")
	}
	if b.Urgency > 60 {
		suggestions = append(suggestions,
			"Heute noch telefonisch kontaktieren")
	}
	if b.Engagement > 60 {
		suggestions = append(suggestions,
			"Offene Fragen aus dem Chatverlauf beantworten")
	}

	return suggestions
}

// defaultResult is the neutral fallback returned when scoring cannot be
// performed. All sub-scores sit at 50, which lands the lead in the middle
// of the Cold tier so it is neither buried nor falsely escalated.
func (s *Scorer) defaultResult() Result {
	return Result{
		Total: 50,
		Breakdown: Breakdown{
			Urgency:      50,
			Engagement:   50,
			Intent:       50,
			Demographics: 50,
			Behavior:     50,
		},
		Classification:  "Cold",
		Priority:        "Medium",
		EstimatedValue:  defaultJobValue,
		Recommendations: []Recommendation{},
		FollowUpSuggestions: []string{
			"Lead manuell prüfen und zeitnah kontaktieren",
		},
		Degraded: true,
		Version:  scoreVersion,
		ScoredAt: s.now().UTC(),
	}
}

func roundScore(value float64) int {
	return int(math.Round(value))
}
