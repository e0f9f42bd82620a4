package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/verify_job.md
var verifyJobPromptRaw string

// VerifyJobTemplate is the parsed prompt template for job verification.
// Parsed once at package init; reused on every Verify call.
var VerifyJobTemplate = template.Must(template.New("verify_job").Parse(verifyJobPromptRaw))
