package validator

import "testing"

func TestTelefonPattern(t *testing.T) {
	valid := []string{
		"+49 151 12345678",
		"0151/1234567",
		"030-1234567",
		"(089) 123456",
	}
	for _, input := range valid {
		if !telefonPattern.MatchString(input) {
			t.Errorf("telefonPattern rejected %q", input)
		}
	}

	invalid := []string{
		"",
		"abc",
		"call me maybe",
		"++49",
		"123",
	}
	for _, input := range invalid {
		if telefonPattern.MatchString(input) {
			t.Errorf("telefonPattern accepted %q", input)
		}
	}
}

func TestStructValidation(t *testing.T) {
	type sample struct {
		Email string `validate:"required,email"`
	}

	v := New()
	if err := v.Struct(sample{Email: "werkstatt@example.de"}); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}
	if err := v.Struct(sample{Email: "nope"}); err == nil {
		t.Fatal("invalid email accepted")
	}
}
