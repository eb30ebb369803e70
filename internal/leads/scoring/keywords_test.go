package scoring

import "testing"

func TestIsBusinessEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"einkauf@autohaus-schmidt.de", true},
		{"flotte@spedition-krause.com", true},
		{"max99@gmail.com", false},
		{"anna@web.de", false},
		{"mehmet@gmx.net", false},
		{"kasia@wp.pl", false},
		{"no-at-sign", false},
		{"trailing@", false},
		{"nodot@localhost", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isBusinessEmail(tc.email); got != tc.want {
			t.Errorf("isBusinessEmail(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}

func TestCountOccurrencesCountsRepeats(t *testing.T) {
	text := "termin heute, termin morgen, noch ein termin"
	if got := countOccurrences(text, purchaseIntentKeywords); got != 3 {
		t.Fatalf("countOccurrences = %d, want 3", got)
	}
}

func TestCountDistinctCountsEachKeywordOnce(t *testing.T) {
	text := "sofort sofort sofort dringend"
	if got := countDistinct(text, urgencyKeywords); got != 2 {
		t.Fatalf("countDistinct = %d, want 2", got)
	}
}

func TestMentionsVehicleDetail(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"golf baujahr 2015", true},
		{"ein bmw von 1998", true},
		{"etwa 120000 km gelaufen", true},
		{"das neueste modell", true},
		{"mein auto ist alt", false},
		{"ich zahle 300 euro", false},
	}
	for _, tc := range cases {
		if got := mentionsVehicleDetail(tc.text); got != tc.want {
			t.Errorf("mentionsVehicleDetail(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestMatchingIsSubstringBased(t *testing.T) {
	// Keywords match inside longer words; "terminvereinbarung" contains
	// "termin". Word-boundary matching would be a behavior change.
	if !containsAny("terminvereinbarung gewünscht", purchaseIntentKeywords) {
		t.Fatal("substring containment expected for compound words")
	}
}
