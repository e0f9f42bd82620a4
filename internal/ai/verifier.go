package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/amishk599/jobsync/internal/model"
)

const (
	// DefaultFallbackConfidence is the confidence given to an item whose AI
	// response could not be used.
	DefaultFallbackConfidence = 60

	// DefaultThreshold is the minimum confidence the acceptance gate requires.
	DefaultThreshold = 70

	maxContentRunes = 4000
)

// FallbackRedFlag marks results produced without a usable AI response.
const FallbackRedFlag = "verification failed"

// LLMVerifier judges raw items through an LLM and extracts structured fields.
type LLMVerifier struct {
	provider           LLMProvider
	tmpl               *template.Template
	timeout            time.Duration // per call; zero means no extra bound
	fallbackConfidence int
	logger             *slog.Logger
}

// NewLLMVerifier creates a verifier that renders tmpl for each item and
// sends it to provider.
func NewLLMVerifier(provider LLMProvider, tmpl *template.Template, timeout time.Duration, fallbackConfidence int, logger *slog.Logger) *LLMVerifier {
	return &LLMVerifier{
		provider:           provider,
		tmpl:               tmpl,
		timeout:            timeout,
		fallbackConfidence: fallbackConfidence,
		logger:             logger,
	}
}

// promptData is the data the prompt template is rendered with.
type promptData struct {
	Title        string
	Organization string
	Source       string
	Content      string
	Link         string
}

// Verify returns the verdict for item. It never fails: a provider error, a
// response without a JSON object or one that does not decode yields the
// fallback result instead, so one bad response cannot halt a run.
func (v *LLMVerifier) Verify(ctx context.Context, item model.RawItem) model.VerificationResult {
	raw, err := v.complete(ctx, item)
	if err != nil {
		v.logger.Warn("verification call failed, using fallback",
			"title", item.Title,
			"source", item.Source,
			"error", err,
		)
		return v.Fallback(item)
	}

	result, err := parseVerification(raw)
	if err != nil {
		v.logger.Warn("unusable verification response, using fallback",
			"title", item.Title,
			"source", item.Source,
			"error", err,
		)
		return v.Fallback(item)
	}

	v.logger.Debug("item verified",
		"title", item.Title,
		"legitimate", result.IsLegitimate,
		"confidence", result.Confidence,
		"category", result.Category,
	)
	return result
}

func (v *LLMVerifier) complete(ctx context.Context, item model.RawItem) (string, error) {
	var promptBuf bytes.Buffer
	if err := v.tmpl.Execute(&promptBuf, promptData{
		Title:        item.Title,
		Organization: item.Organization,
		Source:       item.Source,
		Content:      truncateRunes(item.Description, maxContentRunes),
		Link:         item.Link,
	}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	raw, err := v.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return "", fmt.Errorf("llm complete: %w", err)
	}
	return raw, nil
}

// Fallback is the low-confidence pass-through result for item: legitimate,
// fallback confidence, raw fields as the extraction, category General.
func (v *LLMVerifier) Fallback(item model.RawItem) model.VerificationResult {
	return model.VerificationResult{
		IsLegitimate: true,
		Confidence:   v.fallbackConfidence,
		Extracted: model.Extracted{
			Organization: item.Organization,
			PostName:     item.Title,
			LastDate:     item.LastDate,
			OfficialLink: item.Link,
		},
		Category: CategoryGeneral,
		RedFlags: []string{FallbackRedFlag},
		Fallback: true,
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
