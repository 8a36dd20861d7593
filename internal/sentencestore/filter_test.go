package sentencestore

import (
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nlucraft/sentencehub/internal/sentence"
)

func filterParts(t *testing.T, q sentence.SearchQuery) []bson.M {
	t.Helper()
	filter := buildSearchFilter(q)
	parts, ok := filter["$and"].([]bson.M)
	if !ok {
		t.Fatalf("expected $and filter, got %v", filter)
	}
	return parts
}

func hasPart(parts []bson.M, want bson.M) bool {
	for _, p := range parts {
		if reflect.DeepEqual(p, want) {
			return true
		}
	}
	return false
}

func TestEntityPath(t *testing.T) {
	if got := entityPath(1); got != "classification.entities" {
		t.Errorf("entityPath(1) = %q", got)
	}
	if got := entityPath(3); got != "classification.entities.subEntities.subEntities" {
		t.Errorf("entityPath(3) = %q", got)
	}
}

func TestFilterAlwaysScopedToApplication(t *testing.T) {
	parts := filterParts(t, sentence.SearchQuery{ApplicationID: "app-1"})
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if !hasPart(parts, bson.M{"applicationId": "app-1"}) {
		t.Errorf("missing application scope in %v", parts)
	}
}

func TestFilterTextSearch(t *testing.T) {
	parts := filterParts(t, sentence.SearchQuery{ApplicationID: "a", Search: " hello "})
	want := bson.M{"fullText": primitive.Regex{Pattern: "hello", Options: "i"}}
	if !hasPart(parts, want) {
		t.Errorf("missing regex clause in %v", parts)
	}

	parts = filterParts(t, sentence.SearchQuery{ApplicationID: "a", Search: "hello", ExactMatch: true})
	if !hasPart(parts, bson.M{"text": "hello"}) {
		t.Errorf("missing exact text clause in %v", parts)
	}

	// Blank search contributes nothing.
	parts = filterParts(t, sentence.SearchQuery{ApplicationID: "a", Search: "   "})
	if len(parts) != 1 {
		t.Errorf("blank search added clauses: %v", parts)
	}
}

func TestFilterStatus(t *testing.T) {
	parts := filterParts(t, sentence.SearchQuery{
		ApplicationID: "a",
		Status:        []sentence.Status{sentence.StatusInbox, sentence.StatusValidated},
	})
	want := bson.M{"status": bson.M{"$in": []sentence.Status{sentence.StatusInbox, sentence.StatusValidated}}}
	if !hasPart(parts, want) {
		t.Errorf("missing status $in clause in %v", parts)
	}

	// Status list wins over NotStatus.
	parts = filterParts(t, sentence.SearchQuery{
		ApplicationID: "a",
		Status:        []sentence.Status{sentence.StatusModel},
		NotStatus:     sentence.StatusDeleted,
	})
	if hasPart(parts, bson.M{"status": bson.M{"$ne": sentence.StatusDeleted}}) {
		t.Errorf("NotStatus applied despite Status list: %v", parts)
	}

	parts = filterParts(t, sentence.SearchQuery{ApplicationID: "a", NotStatus: sentence.StatusDeleted})
	if !hasPart(parts, bson.M{"status": bson.M{"$ne": sentence.StatusDeleted}}) {
		t.Errorf("missing $ne clause in %v", parts)
	}
}

func TestFilterEntityTypeDepthExpansion(t *testing.T) {
	// Root-only search targets depth 1.
	parts := filterParts(t, sentence.SearchQuery{ApplicationID: "a", EntityType: "location"})
	if !hasPart(parts, bson.M{"classification.entities.type": "location"}) {
		t.Errorf("missing root entity type clause in %v", parts)
	}

	// Sub-entity search expands to an $or over every depth.
	parts = filterParts(t, sentence.SearchQuery{ApplicationID: "a", EntityType: "location", SearchSubEntities: true})
	var or []bson.M
	for _, p := range parts {
		if v, ok := p["$or"].([]bson.M); ok {
			or = v
		}
	}
	if len(or) != sentence.MaxEntityDepth {
		t.Fatalf("got %d $or branches, want %d", len(or), sentence.MaxEntityDepth)
	}
	last := or[sentence.MaxEntityDepth-1]
	if _, ok := last[entityPath(sentence.MaxEntityDepth)+".type"]; !ok {
		t.Errorf("deepest branch missing, got %v", last)
	}
}

func TestFilterRoleExcludeAppliesAtEveryDepth(t *testing.T) {
	parts := filterParts(t, sentence.SearchQuery{
		ApplicationID:        "a",
		EntityRolesToExclude: []string{"origin"},
		SearchSubEntities:    true,
	})
	// Exclusions combine with AND: one clause per depth, no $or.
	count := 0
	for _, p := range parts {
		for key := range p {
			if key != "applicationId" && key != "$or" {
				count++
			}
		}
		if _, ok := p["$or"]; ok {
			t.Errorf("role exclusion must not use $or: %v", p)
		}
	}
	if count != sentence.MaxEntityDepth {
		t.Errorf("got %d exclusion clauses, want %d", count, sentence.MaxEntityDepth)
	}
}

func TestFilterCursorWindows(t *testing.T) {
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mark := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	// Bound alone: strict inequality.
	parts := filterParts(t, sentence.SearchQuery{ApplicationID: "a", ModifiedAfter: &after})
	if !hasPart(parts, bson.M{"updateDate": bson.M{"$gt": &after}}) {
		t.Errorf("missing $gt clause in %v", parts)
	}

	parts = filterParts(t, sentence.SearchQuery{ApplicationID: "a", ModifiedBefore: &before})
	if !hasPart(parts, bson.M{"updateDate": bson.M{"$lt": &before}}) {
		t.Errorf("missing $lt clause in %v", parts)
	}

	// Mark alone caps the window.
	parts = filterParts(t, sentence.SearchQuery{ApplicationID: "a", SearchMark: &mark})
	if !hasPart(parts, bson.M{"updateDate": bson.M{"$lte": &mark}}) {
		t.Errorf("missing $lte mark clause in %v", parts)
	}

	// After-paging: mark >= updateDate > after.
	parts = filterParts(t, sentence.SearchQuery{ApplicationID: "a", ModifiedAfter: &after, SearchMark: &mark})
	if !hasPart(parts, bson.M{"updateDate": bson.M{"$lte": &mark}}) ||
		!hasPart(parts, bson.M{"updateDate": bson.M{"$gt": &after}}) {
		t.Errorf("after-paging window wrong: %v", parts)
	}

	// Before-paging: mark <= updateDate < before.
	parts = filterParts(t, sentence.SearchQuery{ApplicationID: "a", ModifiedBefore: &before, SearchMark: &mark})
	if !hasPart(parts, bson.M{"updateDate": bson.M{"$gte": &mark}}) ||
		!hasPart(parts, bson.M{"updateDate": bson.M{"$lt": &before}}) {
		t.Errorf("before-paging window wrong: %v", parts)
	}
	if hasPart(parts, bson.M{"updateDate": bson.M{"$lte": &mark}}) {
		t.Errorf("mark must not cap a before-paging window: %v", parts)
	}
}

func TestBuildSort(t *testing.T) {
	// Default: update date descending.
	got := buildSort(sentence.SearchQuery{})
	want := bson.D{{Key: "updateDate", Value: -1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("default sort = %v, want %v", got, want)
	}

	// Allowlisted names map to document fields; unknown names fall back.
	got = buildSort(sentence.SearchQuery{Sort: []sentence.SortField{
		{Field: "currentIntent", Ascending: true},
		{Field: "nonsense", Ascending: true},
	}})
	want = bson.D{
		{Key: "classification.intentId", Value: 1},
		{Key: "updateDate", Value: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sort = %v, want %v", got, want)
	}

	// Duplicate target fields keep the first direction.
	got = buildSort(sentence.SearchQuery{Sort: []sentence.SortField{
		{Field: "lastUpdate", Ascending: true},
		{Field: "nonsense", Ascending: false},
	}})
	want = bson.D{{Key: "updateDate", Value: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sort = %v, want %v", got, want)
	}
}

func TestBuildCollation(t *testing.T) {
	// Default sort: no collation, the index serves the query directly.
	if c := buildCollation(sentence.SearchQuery{Language: "fr"}, "en"); c != nil {
		t.Errorf("expected nil collation for default sort, got %v", c)
	}

	sorted := sentence.SearchQuery{Sort: []sentence.SortField{{Field: "text", Ascending: true}}}

	sorted.Language = "fr"
	c := buildCollation(sorted, "en")
	if c == nil || c.Locale != "fr" {
		t.Errorf("expected fr collation, got %v", c)
	}

	sorted.Language = ""
	c = buildCollation(sorted, "en")
	if c == nil || c.Locale != "en" {
		t.Errorf("expected fallback en collation, got %v", c)
	}
	if c.CaseLevel {
		t.Error("collation must be case-insensitive")
	}
}
