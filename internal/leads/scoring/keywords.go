package scoring

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Keyword tables for text signal extraction. Each list interleaves German,
// English, Turkish and Polish variants so a single substring scan covers the
// languages spoken by the workshops' customers. Matching is case-insensitive
// substring containment without word boundaries; a keyword inside a longer,
// unrelated word still counts. That matches the production widget's behavior
// and tests encode it.

// urgencyKeywords signal distress or broken vehicles.
var urgencyKeywords = []string{
	"sofort", "dringend", "notfall", "hilfe", "kaputt", "defekt",
	"immediately", "urgent", "emergency", "help", "broken",
	"acil", "yardım", "bozuk", "arıza",
	"pilne", "awaria", "zepsuty", "pomoc",
}

// timePressureKeywords signal a short timeline.
var timePressureKeywords = []string{
	"heute", "morgen", "schnell",
	"today", "tomorrow", "quickly", "asap",
	"bugün", "yarın", "hemen",
	"dzisiaj", "jutro", "szybko",
}

// purchaseIntentKeywords signal transactional readiness.
var purchaseIntentKeywords = []string{
	"kaufen", "buchen", "termin", "bestellen",
	"buy", "book", "appointment", "order",
	"satın", "randevu",
	"kupić", "umówić", "wizyta",
}

// serviceIntentKeywords signal a concrete workshop service request.
var serviceIntentKeywords = []string{
	"reparatur", "wartung", "inspektion", "service",
	"repair", "maintenance",
	"tamir", "bakım",
	"naprawa", "przegląd", "serwis",
}

// highValueKeywords name services with above-average job value.
var highValueKeywords = []string{
	"tüv", "hauptuntersuchung", "bremsen", "motor", "getriebe",
	"brakes", "engine", "transmission",
	"fren", "şanzıman",
	"hamulce", "silnik", "skrzynia",
}

// politenessKeywords mark courteous communication style.
var politenessKeywords = []string{
	"bitte", "danke",
	"please", "thank",
	"lütfen", "teşekkür",
	"proszę", "dziękuję",
}

// technicalKeywords mark informed, technically specific customers.
var technicalKeywords = []string{
	"motor", "getriebe", "bremse", "kupplung", "turbo", "auspuff",
	"engine", "gearbox", "brake", "clutch", "exhaust",
	"debriyaj", "fren", "egzoz",
	"silnik", "sprzęgło", "hamulec",
}

// questionKeywords flag interrogative messages for the engagement score.
var questionKeywords = []string{
	"wie", "was", "wann", "warum", "wo", "welche",
	"how", "what", "when", "why", "which",
	"nasıl", "ne zaman",
	"jak", "kiedy", "ile",
}

// costKeywords flag price sensitivity, a strong conversion signal.
var costKeywords = []string{
	"kosten", "preis", "teuer", "euro", "€",
	"cost", "price",
	"fiyat", "ücret",
	"cena", "koszt",
}

// freeMailProviders are consumer mail domains; anything else with a TLD is
// treated as a business address.
var freeMailProviders = []string{
	"gmail.", "googlemail.", "yahoo.", "hotmail.", "outlook.", "live.",
	"web.de", "gmx.", "t-online.de", "freenet.de", "icloud.", "aol.",
	"mail.ru", "yandex.", "wp.pl", "o2.pl", "interia.pl", "onet.pl",
	"mynet.com",
}

// vehicleDetailPattern matches a 4-digit model year.
var vehicleDetailPattern = regexp.MustCompile(`(19|20)\d{2}`)

// containsAny reports whether the lowercased text contains any keyword.
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// countDistinct counts how many keywords from the list appear in the
// lowercased text. Each keyword counts at most once regardless of how often
// it occurs.
func countDistinct(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}

// countOccurrences counts every occurrence of every keyword in the
// lowercased text, the substring equivalent of a global regex match.
func countOccurrences(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		count += strings.Count(text, kw)
	}
	return count
}

// isBusinessEmail reports whether the address looks like a company domain:
// it has a TLD and is not a known free-mail provider.
func isBusinessEmail(email string) bool {
	lowered := strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(lowered, "@")
	if at < 0 || at == len(lowered)-1 {
		return false
	}

	domain := lowered[at+1:]
	if !strings.Contains(domain, ".") {
		return false
	}

	for _, provider := range freeMailProviders {
		if strings.HasPrefix(domain, provider) || domain == strings.TrimSuffix(provider, ".") {
			return false
		}
	}

	return true
}

// mentionsVehicleDetail reports whether a message carries vehicle-specific
// data: a 4-digit year, mileage, construction year or model references.
func mentionsVehicleDetail(text string) bool {
	if vehicleDetailPattern.MatchString(text) {
		return true
	}
	return strings.Contains(text, "km") ||
		strings.Contains(text, "baujahr") ||
		strings.Contains(text, "model")
}

// isComplexMessage reports whether a user message asks something or probes
// pricing, both signs of active engagement.
func isComplexMessage(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	return containsAny(text, questionKeywords) || containsAny(text, costKeywords)
}

// runeLen returns the character length of a message, so umlauts and other
// multi-byte runes count once.
func runeLen(text string) int {
	return utf8.RuneCountInString(text)
}
