package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/otron-io/bug-report-autopilot/internal/report"
)

const synthesisPersona = `You are a senior software engineer triaging a bug report.
Correlate the report with the attached source code and produce a technical analysis.

Respond with ONLY a JSON object of this exact shape:
{
  "title": "short descriptive title",
  "suspected_root_cause": "one or two sentences naming the most likely cause",
  "evidence": ["specific observations, citing file paths where possible"],
  "next_steps": ["concrete actions to verify and fix the issue"]
}`

// Synthesizer turns a submission plus code snippets into a structured
// report.
type Synthesizer struct {
	llm Completer
}

// NewSynthesizer creates a synthesizer. llm may be nil.
func NewSynthesizer(llm Completer) *Synthesizer {
	return &Synthesizer{llm: llm}
}

// Synthesize produces a structured report. It never fails: a missing or
// erroring model yields the deterministic fallback report, and any other
// failure inside synthesis yields a minimal report.
func (s *Synthesizer) Synthesize(ctx context.Context, sub report.BugSubmission, shortlist []string, snippets map[string]string) (result report.StructuredReport) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Report synthesis panicked")
			result = minimalReport()
		}
	}()

	if s.llm == nil {
		return fallbackReport(sub)
	}

	prompt := buildSynthesisPrompt(sub, shortlist, snippets)

	var parsed report.StructuredReport
	if err := s.llm.CompleteInto(ctx, prompt, &parsed); err != nil {
		log.Warn().Err(err).Msg("Model synthesis failed, using fallback report")
		return fallbackReport(sub)
	}
	if parsed.Title == "" || parsed.SuspectedRootCause == "" ||
		parsed.Evidence == nil || parsed.NextSteps == nil {
		log.Warn().Msg("Model response did not match the report schema, using fallback report")
		return fallbackReport(sub)
	}
	parsed.AdditionalInfo = nil

	return parsed
}

func buildSynthesisPrompt(sub report.BugSubmission, shortlist []string, snippets map[string]string) string {
	var b strings.Builder
	b.WriteString(synthesisPersona)
	b.WriteString("\n\n## Bug Description\n")
	b.WriteString(sub.Description)

	if sub.Logs != "" {
		b.WriteString("\n\n## Logs\n" + sub.Logs)
	}
	if sub.Steps != "" {
		b.WriteString("\n\n## Steps To Reproduce\n" + sub.Steps)
	}
	if sub.AdditionalContext != "" {
		b.WriteString("\n\n## Additional Context\n" + sub.AdditionalContext)
	}
	if len(sub.Screenshots) > 0 {
		b.WriteString("\n\n## Screenshots\n")
		for _, url := range sub.Screenshots {
			b.WriteString(url + "\n")
		}
	}

	// Snippets are emitted in shortlist order so the prompt is stable.
	for _, path := range shortlist {
		content, ok := snippets[path]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("\n\n## File: %s\n```\n%s\n```", path, content))
	}

	return b.String()
}

// fallbackReport is the deterministic report used when no model is
// configured or the model call/parse failed.
func fallbackReport(sub report.BugSubmission) report.StructuredReport {
	title := sub.Description
	if runes := []rune(title); len(runes) > 50 {
		title = string(runes[:50]) + "..."
	}

	screenshotEvidence := "No screenshots were provided with the submission."
	if len(sub.Screenshots) > 0 {
		screenshotEvidence = "Screenshots were provided and may contain additional context."
	}

	return report.StructuredReport{
		Title:              title,
		SuspectedRootCause: "Unable to automatically analyze the root cause. Manual investigation is required.",
		Evidence: []string{
			"Automated analysis was unavailable for this report.",
			"The reporter's description and any attached logs are the primary evidence.",
			screenshotEvidence,
		},
		NextSteps: []string{
			"Review the bug description and attempt to reproduce the issue manually.",
			"Inspect the files most closely related to the affected feature.",
			"Re-run the analysis once an AI provider is configured.",
		},
	}
}

// minimalReport is the last-resort report produced when synthesis fails in
// an unexpected way.
func minimalReport() report.StructuredReport {
	return report.StructuredReport{
		Title:              "Bug report",
		SuspectedRootCause: "Analysis failed unexpectedly.",
		Evidence:           []string{"The analysis pipeline encountered an internal error."},
		NextSteps:          []string{"Review the submission manually."},
	}
}
