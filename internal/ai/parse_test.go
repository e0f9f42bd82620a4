package ai

import (
	"errors"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, true},
		{"prose around", `result: {"a":1} done`, `{"a":1}`, true},
		{"nested", `x {"a":{"b":2}} {"c":3}`, `{"a":{"b":2}}`, true},
		{"brace in string", `{"s":"}{"}`, `{"s":"}{"}`, true},
		{"escaped quote", `{"s":"say \"}\" now"}`, `{"s":"say \"}\" now"}`, true},
		{"none", `no json here`, "", false},
		{"empty", ``, "", false},
		{"unbalanced", `{"a":{"b":1}`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("extractJSONObject(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseVerification_NoObject(t *testing.T) {
	if _, err := parseVerification("nothing"); !errors.Is(err, errNoJSONObject) {
		t.Errorf("err = %v, want errNoJSONObject", err)
	}
}

func TestParseVerification_Normalizes(t *testing.T) {
	raw := `{
		"isLegitimate": true,
		"confidence": 140,
		"extracted": {"organization": "  Indian Railways ", "vacancies": -3},
		"category": "railway",
		"redFlags": ["short deadline"]
	}`
	got, err := parseVerification(raw)
	if err != nil {
		t.Fatalf("parseVerification: %v", err)
	}
	if got.Confidence != 100 {
		t.Errorf("Confidence = %d, want clamped to 100", got.Confidence)
	}
	if got.Extracted.Vacancies != 0 {
		t.Errorf("Vacancies = %d, want 0 for negative input", got.Extracted.Vacancies)
	}
	if got.Extracted.Organization != "Indian Railways" {
		t.Errorf("Organization = %q, want trimmed", got.Extracted.Organization)
	}
	if got.Category != "Railway" {
		t.Errorf("Category = %q, want Railway", got.Category)
	}
	if len(got.RedFlags) != 1 {
		t.Errorf("RedFlags = %v", got.RedFlags)
	}
	if got.Fallback {
		t.Error("Fallback = true for a parsed response")
	}
}

func TestParseVerification_VacancyForms(t *testing.T) {
	tests := map[string]int{
		`12`:              12,
		`"1,200"`:         1200,
		`"Not specified"`: 0,
		`null`:            0,
		`7.0`:             7,
	}
	for v, want := range tests {
		raw := `{"isLegitimate": true, "confidence": 80, "extracted": {"vacancies": ` + v + `}}`
		got, err := parseVerification(raw)
		if err != nil {
			t.Errorf("vacancies %s: %v", v, err)
			continue
		}
		if got.Extracted.Vacancies != want {
			t.Errorf("vacancies %s = %d, want %d", v, got.Extracted.Vacancies, want)
		}
	}
}

func TestParseVerification_RejectsVacancyObject(t *testing.T) {
	raw := `{"isLegitimate": true, "confidence": 80, "extracted": {"vacancies": {"total": 5}}}`
	if _, err := parseVerification(raw); err == nil {
		t.Error("expected error for structurally wrong vacancies")
	}
}

func TestClampConfidence(t *testing.T) {
	tests := map[float64]int{-5: 0, 0: 0, 69.4: 69, 69.5: 70, 100: 100, 250: 100}
	for in, want := range tests {
		if got := clampConfidence(in); got != want {
			t.Errorf("clampConfidence(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := map[string]string{
		"":            "General",
		"state psc":   "State PSC",
		" UPSC ":      "UPSC",
		"Defense":     "Defense",
		"Agriculture": "General",
	}
	for in, want := range tests {
		if got := NormalizeCategory(in); got != want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", in, got, want)
		}
	}
}
