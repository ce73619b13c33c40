package report

import "strings"

// Vocabulary the gate scans for. All matching is case-insensitive
// substring matching over the report text.
var (
	uncertaintyVocab = []string{
		"unclear", "unable", "not sure", "unsure", "possibly", "might be",
		"maybe", "unknown", "cannot determine", "insufficient",
	}

	askMorePhrases = []string{
		"more information", "more details", "clarify", "reproduce",
		"contact the reporter", "follow up",
	}

	categoryTriggers = []struct {
		category FollowUpType
		phrases  []string
		question string
	}{
		{
			category: FollowUpReproductionSteps,
			phrases:  []string{"reproduce", "reproduction", "steps", "intermittent", "sometimes"},
			question: "Can you list the exact steps to reproduce the issue, starting from a fresh session?",
		},
		{
			category: FollowUpEnvironment,
			phrases:  []string{"environment", "browser", "operating system", "platform", "device", "configuration"},
			question: "What environment does the issue occur in (browser, OS, device)?",
		},
		{
			category: FollowUpVersion,
			phrases:  []string{"version", "release", "build", "outdated", "upgrade"},
			question: "Which version or build of the application were you running?",
		},
		{
			category: FollowUpUserContext,
			phrases:  []string{"user", "account", "permission", "role", "session"},
			question: "Which user or account was affected, and what permissions does it have?",
		},
		{
			category: FollowUpDataContext,
			phrases:  []string{"data", "payload", "input", "database", "state"},
			question: "What data or input was involved when the issue occurred?",
		},
	}
)

// Evaluate decides whether a synthesized report carries enough information
// to file a ticket. It returns nil when the report is sufficient, otherwise
// an assessment with a confidence label and follow-up questions.
//
// The classifier is pure: it never touches the network or storage, and the
// same report always yields the same verdict.
func Evaluate(r StructuredReport) *InfoAssessment {
	rootCause := strings.ToLower(r.SuspectedRootCause)

	uncertain := containsAny(rootCause, uncertaintyVocab)
	thinEvidence := len(r.Evidence) < 2

	vagueEvidence := false
	screenshotMentioned := false
	for _, e := range r.Evidence {
		lower := strings.ToLower(e)
		if strings.Contains(lower, "screenshot") {
			screenshotMentioned = true
		}
		if len(e) < 20 || !strings.Contains(e, "/") ||
			(strings.Contains(lower, "code") && !strings.Contains(e, ":")) {
			vagueEvidence = true
		}
	}

	askingForMore := false
	for _, s := range r.NextSteps {
		if containsAny(strings.ToLower(s), askMorePhrases) {
			askingForMore = true
			break
		}
	}

	if !uncertain && !thinEvidence && !vagueEvidence && !askingForMore {
		return nil
	}

	confidence := "medium"
	switch {
	case uncertain:
		confidence = "low"
	case vagueEvidence:
		confidence = "medium-low"
	}

	// Category triggers are independent: any number of them may fire.
	searchText := strings.ToLower(r.Title + " " + r.SuspectedRootCause + " " +
		strings.Join(r.Evidence, " ") + " " + strings.Join(r.NextSteps, " "))

	questions := []FollowUpRequest{}
	for _, trigger := range categoryTriggers {
		if containsAny(searchText, trigger.phrases) {
			questions = append(questions, FollowUpRequest{
				Type:     trigger.category,
				Question: trigger.question,
			})
		}
	}

	if !screenshotMentioned {
		questions = append(questions, FollowUpRequest{
			Type:     FollowUpScreenshot,
			Question: "Could you attach a screenshot or screen recording of the issue?",
		})
	}

	return &InfoAssessment{Confidence: confidence, Questions: questions}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
