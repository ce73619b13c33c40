package analysis

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// maxShortlist is the most files a selection ever returns.
const maxShortlist = 10

// Completer is the slice of the completion client the analysis pipeline
// uses. A nil Completer means no model is configured and every component
// runs its deterministic fallback.
type Completer interface {
	CompleteInto(ctx context.Context, prompt string, target interface{}) error
}

// Selector produces a shortlist of files likely related to a bug
// description.
type Selector struct {
	llm Completer
}

// NewSelector creates a selector. llm may be nil.
func NewSelector(llm Completer) *Selector {
	return &Selector{llm: llm}
}

// Select returns at most 10 candidate paths ordered most relevant first.
// It never fails: an unreachable model degrades to keyword matching, and
// an empty candidate list yields an empty shortlist.
func (s *Selector) Select(ctx context.Context, description string, candidates []string) []string {
	if len(candidates) == 0 {
		return []string{}
	}

	if s.llm != nil {
		if picked, err := s.selectWithModel(ctx, description, candidates); err == nil {
			return picked
		} else {
			log.Warn().Err(err).Msg("Model file selection failed, falling back to keyword matching")
		}
	}

	return KeywordMatch(description, candidates)
}

func (s *Selector) selectWithModel(ctx context.Context, description string, candidates []string) ([]string, error) {
	prompt := buildSelectionPrompt(description, candidates)

	var parsed struct {
		Files []string `json:"files"`
	}
	if err := s.llm.CompleteInto(ctx, prompt, &parsed); err != nil {
		return nil, err
	}

	// Model-given order is preserved verbatim.
	if len(parsed.Files) > maxShortlist {
		parsed.Files = parsed.Files[:maxShortlist]
	}
	return parsed.Files, nil
}

func buildSelectionPrompt(description string, candidates []string) string {
	var b strings.Builder
	b.WriteString("You are helping triage a bug report. Given the bug description and the ")
	b.WriteString("list of files in the repository, pick up to 10 files most likely related ")
	b.WriteString("to the bug, most relevant first.\n\n")
	b.WriteString("Respond with ONLY a JSON object of the form {\"files\": [\"path1\", \"path2\"]}.\n\n")
	b.WriteString("Bug description:\n" + description + "\n\n")
	b.WriteString("Files:\n")
	for _, c := range candidates {
		b.WriteString(c + "\n")
	}
	return b.String()
}

// KeywordMatch is the deterministic fallback: candidates are scored by how
// many whitespace tokens of the lower-cased description appear as a
// substring of the lower-cased path, sorted by descending score with ties
// keeping the original candidate order.
func KeywordMatch(description string, candidates []string) []string {
	keywords := strings.Fields(strings.ToLower(description))

	type scored struct {
		path  string
		score int
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		lower := strings.ToLower(c)
		count := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		ranked[i] = scored{path: c, score: count}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	n := len(ranked)
	if n > maxShortlist {
		n = maxShortlist
	}
	picked := make([]string, n)
	for i := 0; i < n; i++ {
		picked[i] = ranked[i].path
	}
	return picked
}
