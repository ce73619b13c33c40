package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// filePathPattern matches path-like fragments inside evidence text: at least
// two separators followed by a filename with a known source extension.
// Alternation is leftmost-first, so extensions sharing a prefix are listed
// longest-first (jsx before js, tsx before ts, cs/cpp/cc before c).
var filePathPattern = regexp.MustCompile(`[\w@.-]+/[\w@.-]+/[\w@./-]*[\w-]+\.(?:go|jsx|js|tsx|ts|py|rb|java|cpp|cc|cs|c|h|php|rs|kt|swift|vue|svelte)`)

// RenderMarkdown converts a structured report into a human-readable
// document. It is pure and deterministic: the same report always renders
// to byte-identical markdown.
func RenderMarkdown(r StructuredReport) string {
	var b strings.Builder

	b.WriteString("# " + r.Title + "\n\n")

	b.WriteString("## Root Cause\n\n")
	b.WriteString(r.SuspectedRootCause + "\n\n")

	b.WriteString("## Technical Evidence\n\n")
	for _, e := range r.Evidence {
		b.WriteString("- " + e + "\n")
	}

	b.WriteString("\n## Recommended Next Steps\n\n")
	for i, s := range r.NextSteps {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, s))
	}

	if paths := ExtractFilePaths(r.Evidence); len(paths) > 0 {
		b.WriteString("\n## Files Involved\n\n")
		for _, p := range paths {
			b.WriteString("- `" + p + "`\n")
		}
	}

	if len(r.AdditionalInfo) > 0 {
		b.WriteString("\n## Additional Information\n\n")
		keys := make([]string, 0, len(r.AdditionalInfo))
		for k := range r.AdditionalInfo {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("**%s**: %s\n\n", k, r.AdditionalInfo[k]))
		}
	}

	return b.String()
}

// ExtractFilePaths scans evidence strings for path-like fragments.
// Duplicates are preserved in evidence order.
func ExtractFilePaths(evidence []string) []string {
	var paths []string
	for _, e := range evidence {
		paths = append(paths, filePathPattern.FindAllString(e, -1)...)
	}
	return paths
}
