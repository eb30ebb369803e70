package scoring

import (
	"strings"
	"time"

	"carbot_backend/internal/leads/repository"
	"carbot_backend/platform/phone"
)

// The five sub-score calculators. Each starts from a documented base value,
// adds bounded increments per signal found, and clamps the result to 0-100.
// This is a linear point-accumulation model, not a statistical one.

// scoreUrgency evaluates distress language and lead freshness.
// Base 50. Explicit urgency words and a recent creation time both mean the
// workshop has to respond fast.
func (s *Scorer) scoreUrgency(anliegen string, userMessages []string, age time.Duration) int {
	score := urgencyBase

	// Distinct urgency keywords in the request text
	score += 15 * countDistinct(anliegen, urgencyKeywords)

	// Time-pressure keywords in the request text
	score += 10 * countDistinct(anliegen, timePressureKeywords)

	// User messages repeating urgency language
	for _, msg := range userMessages {
		if containsAny(msg, urgencyKeywords) {
			score += 8
		}
	}

	// Recency bonus: fresh leads convert best
	switch {
	case age < time.Hour:
		score += 20
	case age < 6*time.Hour:
		score += 15
	case age < 24*time.Hour:
		score += 10
	case age < 72*time.Hour:
		score += 5
	}

	return clampScore(score)
}

// scoreEngagement evaluates depth and speed of the chat interaction.
// Base 30. Message count, message length, question/price probing and fast
// customer responses all indicate genuine interest.
func (s *Scorer) scoreEngagement(messages []repository.ChatMessage) int {
	score := engagementBase

	userMessages := make([]repository.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleUser {
			userMessages = append(userMessages, msg)
		}
	}

	// Message count tiers
	switch {
	case len(userMessages) >= 10:
		score += 30
	case len(userMessages) >= 5:
		score += 20
	case len(userMessages) >= 3:
		score += 15
	case len(userMessages) >= 2:
		score += 10
	}

	// Average message length
	if len(userMessages) > 0 {
		totalLen := 0
		for _, msg := range userMessages {
			totalLen += runeLen(msg.Content)
		}
		avgLen := float64(totalLen) / float64(len(userMessages))
		switch {
		case avgLen > 100:
			score += 15
		case avgLen > 50:
			score += 10
		case avgLen > 20:
			score += 5
		}
	}

	// Complex messages: questions or price probing
	for _, msg := range userMessages {
		if isComplexMessage(strings.ToLower(msg.Content)) {
			score += 8
		}
	}

	// Response latency: average assistant -> user timestamp delta
	if avg, ok := averageResponseLatency(messages); ok {
		switch {
		case avg < 2*time.Minute:
			score += 15
		case avg < 5*time.Minute:
			score += 10
		case avg < 15*time.Minute:
			score += 5
		}
	}

	return clampScore(score)
}

// averageResponseLatency averages the deltas between each assistant message
// and the user message that directly follows it. Returns false when no such
// pair exists.
func averageResponseLatency(messages []repository.ChatMessage) (time.Duration, bool) {
	var total time.Duration
	pairs := 0

	for i := 0; i < len(messages)-1; i++ {
		if messages[i].Role != RoleAssistant || messages[i+1].Role != RoleUser {
			continue
		}
		if messages[i].Timestamp.IsZero() || messages[i+1].Timestamp.IsZero() {
			continue
		}
		delta := messages[i+1].Timestamp.Sub(messages[i].Timestamp)
		if delta < 0 {
			continue
		}
		total += delta
		pairs++
	}

	if pairs == 0 {
		return 0, false
	}
	return total / time.Duration(pairs), true
}

// scoreIntent evaluates transactional language and willingness to share
// contact and vehicle detail. Base 40.
func (s *Scorer) scoreIntent(lead *repository.Lead, anliegen, transcript string) int {
	score := intentBase

	// Keyword families in the request text
	score += 20 * countDistinct(anliegen, purchaseIntentKeywords)
	score += 15 * countDistinct(anliegen, serviceIntentKeywords)
	score += 25 * countDistinct(anliegen, highValueKeywords)

	// Purchase-intent occurrences across the whole transcript; every
	// occurrence counts, not just presence
	score += 12 * countOccurrences(transcript, purchaseIntentKeywords)

	// Price probing anywhere in the conversation
	if containsAny(transcript, costKeywords) {
		score += 20
	}

	// A real vehicle description shows effort
	if lead.Fahrzeug != nil && runeLen(strings.TrimSpace(*lead.Fahrzeug)) > 5 {
		score += 15
	}

	// Phone and name together signal conversion readiness
	if hasValue(lead.Telefon) && hasValue(lead.Name) {
		score += 15
	}

	return clampScore(score)
}

// scoreDemographics evaluates completeness and formality of contact data.
// Base 50 (neutral). An intentionally weak, proxy-based signal.
func (s *Scorer) scoreDemographics(lead *repository.Lead, anliegen string) int {
	score := demographicsBase

	if hasValue(lead.Email) {
		if isBusinessEmail(*lead.Email) {
			score += 20
		} else {
			score += 10
		}
	}

	if hasValue(lead.Telefon) {
		if phone.IsGermanNumber(*lead.Telefon) {
			score += 15
		} else {
			score += 10
		}
	}

	if hasValue(lead.Name) {
		parts := strings.Fields(strings.TrimSpace(*lead.Name))
		if len(parts) >= 2 {
			score += 10
		}
		if len(parts) >= 3 {
			score += 5
		}
	}

	if runeLen(anliegen) > 50 {
		score += 15
	}

	return clampScore(score)
}

// scoreBehavior evaluates communication style and technical specificity.
// Base 40. Polite, technically specific customers are serious buyers.
func (s *Scorer) scoreBehavior(userMessages []string) int {
	score := behaviorBase

	for _, msg := range userMessages {
		if containsAny(msg, politenessKeywords) {
			score += 8
		}
		if containsAny(msg, technicalKeywords) {
			score += 10
		}
		if strings.Contains(msg, "?") {
			score += 5
		}
	}

	// Vehicle-detail specificity: one flat bonus for the whole transcript
	for _, msg := range userMessages {
		if mentionsVehicleDetail(msg) {
			score += 20
			break
		}
	}

	return clampScore(score)
}

func hasValue(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}

func clampScore(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
