package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// maxSnippetBytes bounds how much of a single file goes into the prompt.
const maxSnippetBytes = 64 * 1024

// LoadSnippets reads each path (relative to root) and returns a path to
// content mapping. Reads are independent: a failure on one file records a
// synthetic error string for that path and does not block the rest.
func LoadSnippets(root string, paths []string) map[string]string {
	snippets := make(map[string]string, len(paths))

	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("Failed to read snippet")
			snippets[p] = fmt.Sprintf("[unreadable: %v]", err)
			continue
		}
		if len(data) > maxSnippetBytes {
			data = data[:maxSnippetBytes]
		}
		snippets[p] = string(data)
	}

	return snippets
}
