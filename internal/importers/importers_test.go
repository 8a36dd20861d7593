package importers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nlucraft/sentencehub/internal/sentence"
	"github.com/nlucraft/sentencehub/internal/sentencestore"
)

type nopReporter struct{}

func (nopReporter) Start(total int)                    {}
func (nopReporter) Update(current int, message string) {}
func (nopReporter) Finish()                            {}

func writeDump(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing dump: %v", err)
	}
	return path
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "a.json", "[]")
	writeDump(t, dir, "b.json", "[]")
	os.Mkdir(filepath.Join(dir, "sub"), 0755)
	writeDump(t, filepath.Join(dir, "sub"), "c.json", "[]")

	files, err := ExpandGlobs([]string{
		filepath.Join(dir, "**", "*.json"),
		filepath.Join(dir, "a.json"), // duplicate
	})
	if err != nil {
		t.Fatalf("ExpandGlobs: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("got %d files, want 3: %v", len(files), files)
	}
}

func TestParseDumpFormats(t *testing.T) {
	dir := t.TempDir()

	bare := writeDump(t, dir, "bare.json",
		`[{"text":"hello","language":"en","applicationId":"app"}]`)
	wrapped := writeDump(t, dir, "wrapped.json",
		`{"sentences":[{"text":"hi","language":"en","applicationId":"app"}]}`)
	broken := writeDump(t, dir, "broken.json", `not json`)

	if got, err := ParseDump(bare); err != nil || len(got) != 1 {
		t.Errorf("bare dump: (%v, %v)", got, err)
	}
	if got, err := ParseDump(wrapped); err != nil || len(got) != 1 {
		t.Errorf("wrapped dump: (%v, %v)", got, err)
	}
	if _, err := ParseDump(broken); err == nil {
		t.Error("expected error for malformed dump")
	}
}

func TestImportAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "dump.json",
		`[{"text":"hello","language":"en","applicationId":"orig"},
		  {"text":"goodbye","language":"en","applicationId":"orig"}]`)

	store := sentencestore.NewMemory()
	count, err := Import(context.Background(), store,
		[]string{filepath.Join(dir, "dump.json")},
		Options{ApplicationID: "target", Status: sentence.StatusModel},
		nopReporter{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if count != 2 {
		t.Errorf("got count %d, want 2", count)
	}

	result, _ := store.Search(context.Background(), sentence.SearchQuery{ApplicationID: "target"})
	if result.Total != 2 {
		t.Fatalf("got %d sentences under target, want 2", result.Total)
	}
	for _, s := range result.Sentences {
		if s.Status != sentence.StatusModel {
			t.Errorf("sentence %q: status %s, want model", s.Text, s.Status)
		}
	}
}

func TestImportRejectsIncompleteSentence(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "dump.json", `[{"text":"orphan"}]`)

	store := sentencestore.NewMemory()
	_, err := Import(context.Background(), store,
		[]string{filepath.Join(dir, "dump.json")}, Options{}, nopReporter{})
	if err == nil {
		t.Error("expected error for sentence without language and application")
	}
}
