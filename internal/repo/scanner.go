package repo

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// maxCandidates caps the number of paths handed to the relevance selector.
const maxCandidates = 500

var sourceExtensions = map[string]bool{
	".go": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".py": true, ".rb": true, ".java": true, ".c": true, ".cc": true,
	".cpp": true, ".h": true, ".cs": true, ".php": true, ".rs": true,
	".kt": true, ".swift": true, ".vue": true, ".svelte": true,
}

var excludedDirs = map[string]bool{
	"node_modules": true, ".git": true, "dist": true, "build": true,
	"vendor": true, "target": true, ".next": true, "__pycache__": true,
}

// ListSourceFiles walks root and returns source file paths relative to it,
// skipping dependency and VCS directories. It never returns an error: a
// failed walk yields whatever was collected so far, or an empty list.
func ListSourceFiles(root string) []string {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if excludedDirs[d.Name()] || (d.Name() != "." && strings.HasPrefix(d.Name(), ".") && path != root) {
				return filepath.SkipDir
			}
			return nil
		}
		if len(paths) >= maxCandidates {
			return filepath.SkipAll
		}
		if sourceExtensions[filepath.Ext(d.Name())] {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("root", root).Msg("Repository scan ended early")
	}

	return paths
}
