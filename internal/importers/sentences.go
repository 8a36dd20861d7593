// Package importers loads sentence dumps from disk into the store.
package importers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nlucraft/sentencehub/internal/progress"
	"github.com/nlucraft/sentencehub/internal/sentence"
	"github.com/nlucraft/sentencehub/internal/sentencestore"
)

// Dump is the on-disk sentence dump format: either a bare JSON array of
// sentences, or an object wrapping one.
type Dump struct {
	Sentences []sentence.Sentence `json:"sentences"`
}

// Options adjusts how imported sentences are stored.
type Options struct {
	// ApplicationID, when set, overrides the application of every imported
	// sentence.
	ApplicationID string
	// Language, when set, overrides the language of every imported sentence.
	Language string
	// Status, when set, overrides the status of every imported sentence.
	Status sentence.Status
}

// ExpandGlobs resolves the given doublestar patterns to a sorted, deduplicated
// list of file paths.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// ParseDump reads one dump file. Both the bare-array and wrapped formats are
// accepted.
func ParseDump(path string) ([]sentence.Sentence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dump %s: %w", path, err)
	}
	var sentences []sentence.Sentence
	if err := json.Unmarshal(data, &sentences); err == nil {
		return sentences, nil
	}
	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("parsing dump %s: %w", path, err)
	}
	return dump.Sentences, nil
}

// Import saves every sentence from the given dump files, reporting per-file
// progress. It returns the number of sentences stored.
func Import(ctx context.Context, store sentencestore.Store, files []string, opts Options, reporter progress.Reporter) (int, error) {
	reporter.Start(len(files))
	defer reporter.Finish()

	total := 0
	for i, path := range files {
		reporter.Update(i, path)
		sentences, err := ParseDump(path)
		if err != nil {
			return total, err
		}
		for _, s := range sentences {
			if opts.ApplicationID != "" {
				s.ApplicationID = opts.ApplicationID
			}
			if opts.Language != "" {
				s.Language = opts.Language
			}
			if opts.Status != "" {
				s.Status = opts.Status
			}
			if s.Status == "" {
				s.Status = sentence.StatusInbox
			}
			if s.ApplicationID == "" || s.Language == "" || (s.Text == "" && s.FullText == "") {
				return total, fmt.Errorf("dump %s: sentence %d is missing text, language or applicationId", path, total)
			}
			if err := store.Save(ctx, s); err != nil {
				return total, fmt.Errorf("importing from %s: %w", path, err)
			}
			total++
		}
		reporter.Update(i+1, path)
	}
	return total, nil
}
