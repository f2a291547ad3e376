// Package load reads schema and fragment documents from disk.
package load

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// Document is a loaded source document.
type Document struct {
	// Path is the file the document was read from.
	Path string
	// Text is the document content.
	Text string
}

// IsPattern reports whether path contains glob metacharacters.
func IsPattern(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

// Files expands paths into a sorted, de-duplicated list of files. Plain
// paths are kept as-is; patterns support `**` for any number of directories.
// A pattern that matches nothing is an error.
func Files(paths ...string) ([]string, error) {
	var (
		files []string
		seen  = make(map[string]bool)
	)
	for _, p := range paths {
		matches := []string{p}
		if IsPattern(p) {
			var err error
			if matches, err = doublestar.Glob(p); err != nil {
				return nil, fmt.Errorf("load: bad pattern %q: %w", p, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("load: no files match %q", p)
			}
			slices.Sort(matches)
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	return files, nil
}

// Documents reads every file matched by paths. Directories matched by a
// pattern are skipped.
func Documents(paths ...string) ([]*Document, error) {
	files, err := Files(paths...)
	if err != nil {
		return nil, err
	}
	docs := make([]*Document, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		if info.IsDir() {
			continue
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		docs = append(docs, &Document{Path: f, Text: string(data)})
	}
	return docs, nil
}

// Texts returns the text of every document, in order.
func Texts(docs []*Document) []string {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	return texts
}

// Dirs returns the distinct directories holding the given documents, plus
// the static prefix directory of every pattern, for file watching.
func Dirs(docs []*Document, patterns ...string) []string {
	var dirs []string
	add := func(d string) {
		d = filepath.Clean(d)
		if !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
	}
	for _, d := range docs {
		add(filepath.Dir(d.Path))
	}
	for _, p := range patterns {
		if !IsPattern(p) {
			continue
		}
		base := p
		for IsPattern(base) {
			base = filepath.Dir(base)
		}
		add(base)
	}
	slices.Sort(dirs)
	return dirs
}
