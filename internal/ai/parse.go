package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/amishk599/jobsync/internal/model"
)

// Categories is the category taxonomy. Anything else maps to CategoryGeneral.
var Categories = []string{
	"Railway", "Banking", "Defense", "Teaching", "Police",
	"SSC", "UPSC", "State PSC", "Medical", "Engineering", CategoryGeneral,
}

// CategoryGeneral is the catch-all category.
const CategoryGeneral = "General"

var errNoJSONObject = errors.New("no JSON object in response")

// rawVerification is the JSON shape the model is asked to return.
// isLegitimate and confidence are required; everything else defaults.
type rawVerification struct {
	IsLegitimate *bool        `json:"isLegitimate"`
	Confidence   *float64     `json:"confidence"`
	Extracted    rawExtracted `json:"extracted"`
	Category     string       `json:"category"`
	RedFlags     []string     `json:"redFlags"`
	Reasoning    string       `json:"reasoning"`
}

type rawExtracted struct {
	Organization  string       `json:"organization"`
	PostName      string       `json:"postName"`
	Vacancies     vacancyCount `json:"vacancies"`
	StartDate     string       `json:"startDate"`
	LastDate      string       `json:"lastDate"`
	ExamDate      string       `json:"examDate"`
	Fee           string       `json:"fee"`
	Qualification string       `json:"qualification"`
	AgeLimit      string       `json:"ageLimit"`
	OfficialLink  string       `json:"officialLink"`
}

// vacancyCount accepts a JSON number or a numeric string ("1,200").
// Non-numeric strings and null decode to 0; other types are rejected.
type vacancyCount int

func (v *vacancyCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
		if err != nil {
			*v = 0
			return nil
		}
		*v = vacancyCount(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("vacancies: %w", err)
	}
	*v = vacancyCount(int(f))
	return nil
}

// parseVerification locates the first balanced JSON object in raw and
// decodes it into a VerificationResult. Confidence is clamped to 0..100,
// negative vacancies become 0 and unknown categories become General.
func parseVerification(raw string) (model.VerificationResult, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return model.VerificationResult{}, errNoJSONObject
	}

	var rv rawVerification
	if err := json.Unmarshal([]byte(obj), &rv); err != nil {
		return model.VerificationResult{}, fmt.Errorf("decode verification: %w", err)
	}
	if rv.IsLegitimate == nil {
		return model.VerificationResult{}, fmt.Errorf("decode verification: missing isLegitimate")
	}
	if rv.Confidence == nil {
		return model.VerificationResult{}, fmt.Errorf("decode verification: missing confidence")
	}

	vacancies := int(rv.Extracted.Vacancies)
	if vacancies < 0 {
		vacancies = 0
	}

	return model.VerificationResult{
		IsLegitimate: *rv.IsLegitimate,
		Confidence:   clampConfidence(*rv.Confidence),
		Extracted: model.Extracted{
			Organization:  strings.TrimSpace(rv.Extracted.Organization),
			PostName:      strings.TrimSpace(rv.Extracted.PostName),
			Vacancies:     vacancies,
			StartDate:     strings.TrimSpace(rv.Extracted.StartDate),
			LastDate:      strings.TrimSpace(rv.Extracted.LastDate),
			ExamDate:      strings.TrimSpace(rv.Extracted.ExamDate),
			Fee:           strings.TrimSpace(rv.Extracted.Fee),
			Qualification: strings.TrimSpace(rv.Extracted.Qualification),
			AgeLimit:      strings.TrimSpace(rv.Extracted.AgeLimit),
			OfficialLink:  strings.TrimSpace(rv.Extracted.OfficialLink),
		},
		Category:  NormalizeCategory(rv.Category),
		RedFlags:  rv.RedFlags,
		Reasoning: rv.Reasoning,
	}, nil
}

func clampConfidence(c float64) int {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return int(math.Round(c))
}

// NormalizeCategory maps category onto the taxonomy, case-insensitively.
func NormalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	for _, c := range Categories {
		if strings.EqualFold(c, category) {
			return c
		}
	}
	return CategoryGeneral
}

// extractJSONObject returns the first balanced {...} span in s. Braces
// inside JSON strings are ignored.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
