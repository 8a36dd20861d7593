package sentencestore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nlucraft/sentencehub/internal/sentence"
)

type memoryKey struct {
	text          string
	language      string
	applicationID string
}

// MemoryStore is an in-memory Store with the same observable semantics as
// MongoStore: same composite-key upserts, depth-bounded entity matching,
// cursor windows, sort allowlist and pagination. It backs handler tests and
// serves as the executable reference for the query contract.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[memoryKey]sentence.Sentence
	seq  map[memoryKey]int64
	next int64
	// saveErr, when set, fails Save once saveBudget more saves have gone
	// through. Lets tests drive the partial-failure path of the
	// per-sentence batch loops.
	saveErr    error
	saveBudget int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{docs: map[memoryKey]sentence.Sentence{}, seq: map[memoryKey]int64{}}
}

func keyOf(s sentence.Sentence) memoryKey {
	text := s.FullText
	if text == "" {
		text = s.Text
	}
	return memoryKey{text: sentence.TextKey(text), language: s.Language, applicationID: s.ApplicationID}
}

// GetSentences mirrors the unpaginated scoped fetch.
func (m *MemoryStore) GetSentences(ctx context.Context, intents []string, language string, status sentence.Status) ([]sentence.Sentence, error) {
	if len(intents) == 0 && language == "" && status == "" {
		return nil, ErrNoFilter
	}
	intentSet := map[string]bool{}
	for _, id := range intents {
		intentSet[id] = true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []sentence.Sentence
	for _, doc := range m.docs {
		if len(intents) > 0 && !intentSet[doc.Classification.IntentID] {
			continue
		}
		if language != "" && doc.Language != language {
			continue
		}
		if status != "" && doc.Status != status {
			continue
		}
		result = append(result, copySentence(doc))
	}
	return result, nil
}

// Search evaluates the composite predicate, sorts, and pages. Negative
// pagination values are treated as zero.
func (m *MemoryStore) Search(ctx context.Context, query sentence.SearchQuery) (sentence.SearchResult, error) {
	if query.Start < 0 {
		query.Start = 0
	}
	if query.Size < 0 {
		query.Size = 0
	}
	m.mu.RLock()
	var matches []matchEntry
	for k, doc := range m.docs {
		if matchesQuery(doc, query) {
			matches = append(matches, matchEntry{doc: copySentence(doc), seq: m.seq[k]})
		}
	}
	m.mu.RUnlock()

	total := int64(len(matches))
	if total <= query.Start {
		return sentence.SearchResult{Total: total, Sentences: []sentence.Sentence{}}, nil
	}

	sortMatches(matches, query.Sort)

	matches = matches[query.Start:]
	if query.Size > 0 && int64(len(matches)) > query.Size {
		matches = matches[:query.Size]
	}
	page := make([]sentence.Sentence, len(matches))
	for i, e := range matches {
		page[i] = e.doc
	}
	return sentence.SearchResult{Total: total, Sentences: page}, nil
}

// Save upserts by composite key and stamps the update date.
func (m *MemoryStore) Save(ctx context.Context, doc sentence.Sentence) error {
	now := time.Now().UTC()
	if doc.FullText == "" {
		doc.FullText = doc.Text
	}
	doc.Text = sentence.TextKey(doc.FullText)
	if doc.CreationDate.IsZero() {
		doc.CreationDate = now
	}
	doc.UpdateDate = now

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		if m.saveBudget == 0 {
			return m.saveErr
		}
		m.saveBudget--
	}
	k := keyOf(doc)
	m.next++
	m.seq[k] = m.next
	m.docs[k] = copySentence(doc)
	return nil
}

// copySentence detaches the entity tree so stored documents never share
// backing arrays with callers or previously returned pages.
func copySentence(doc sentence.Sentence) sentence.Sentence {
	doc.Classification.Entities = copyEntities(doc.Classification.Entities)
	return doc
}

func copyEntities(entities []sentence.Entity) []sentence.Entity {
	if entities == nil {
		return nil
	}
	out := make([]sentence.Entity, len(entities))
	for i, e := range entities {
		e.SubEntities = copyEntities(e.SubEntities)
		out[i] = e
	}
	return out
}

// SwitchStatus saves each sentence with the new status.
func (m *MemoryStore) SwitchStatus(ctx context.Context, sentences []sentence.Sentence, newStatus sentence.Status) error {
	for _, it := range sentences {
		it.Status = newStatus
		if err := m.Save(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByStatus removes every sentence with the given status.
func (m *MemoryStore) DeleteByStatus(ctx context.Context, status sentence.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, doc := range m.docs {
		if doc.Status == status {
			delete(m.docs, k)
			delete(m.seq, k)
		}
	}
	return nil
}

// DeleteByApplication removes every sentence of the application.
func (m *MemoryStore) DeleteByApplication(ctx context.Context, applicationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, doc := range m.docs {
		if doc.ApplicationID == applicationID {
			delete(m.docs, k)
			delete(m.seq, k)
		}
	}
	return nil
}

// SwitchIntent bulk-reassigns the intent, clears entities and resets status
// to inbox. All matching documents change under one lock acquisition.
func (m *MemoryStore) SwitchIntent(ctx context.Context, applicationID, oldIntentID, newIntentID string) error {
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, doc := range m.docs {
		if doc.ApplicationID != applicationID || doc.Classification.IntentID != oldIntentID {
			continue
		}
		doc.Classification.IntentID = newIntentID
		doc.Classification.Entities = []sentence.Entity{}
		doc.Status = sentence.StatusInbox
		doc.UpdateDate = now
		m.docs[k] = doc
	}
	return nil
}

// SwitchSentencesIntent reassigns the given sentences one by one.
func (m *MemoryStore) SwitchSentencesIntent(ctx context.Context, sentences []sentence.Sentence, newIntentID string) error {
	for _, it := range sentences {
		it.Classification.IntentID = newIntentID
		if newIntentID == sentence.UnknownIntentName {
			it.Classification.Entities = []sentence.Entity{}
		}
		if err := m.Save(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

// SwitchEntity relabels matching root spans on each sentence.
func (m *MemoryStore) SwitchEntity(ctx context.Context, sentences []sentence.Sentence, oldEntity, newEntity sentence.EntityDefinition) error {
	for _, it := range sentences {
		entities := make([]sentence.Entity, len(it.Classification.Entities))
		for i, e := range it.Classification.Entities {
			if e.Type == oldEntity.Type && e.Role == oldEntity.Role {
				e.Type = newEntity.Type
				e.Role = newEntity.Role
			}
			entities[i] = e
		}
		it.Classification.Entities = entities
		if err := m.Save(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

// RemoveEntity pulls root spans with the given role within the
// (application, intent) scope.
func (m *MemoryStore) RemoveEntity(ctx context.Context, applicationID, intentID, entityType, role string) error {
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, doc := range m.docs {
		if doc.ApplicationID != applicationID || doc.Classification.IntentID != intentID {
			continue
		}
		kept := doc.Classification.Entities[:0:0]
		for _, e := range doc.Classification.Entities {
			if e.Role != role {
				kept = append(kept, e)
			}
		}
		doc.Classification.Entities = kept
		doc.UpdateDate = now
		m.docs[k] = doc
	}
	return nil
}

// RemoveSubEntity pulls matching sub-spans from parents of entityType at
// every supported nesting level.
func (m *MemoryStore) RemoveSubEntity(ctx context.Context, applicationID, entityType, role string) error {
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, doc := range m.docs {
		if doc.ApplicationID != applicationID {
			continue
		}
		changed := false
		for level := 1; level <= sentence.MaxEntityDepth; level++ {
			if pruneSubEntities(doc.Classification.Entities, entityType, role, level) {
				changed = true
			}
		}
		if changed {
			doc.UpdateDate = now
			m.docs[k] = doc
		}
	}
	return nil
}

// pruneSubEntities removes sub-spans with the role from parents of the type
// at the given level (level 1 = root spans), editing the tree in place.
func pruneSubEntities(entities []sentence.Entity, entityType, role string, level int) bool {
	changed := false
	for i := range entities {
		if level > 1 {
			if pruneSubEntities(entities[i].SubEntities, entityType, role, level-1) {
				changed = true
			}
			continue
		}
		if entities[i].Type != entityType {
			continue
		}
		kept := entities[i].SubEntities[:0:0]
		for _, sub := range entities[i].SubEntities {
			if sub.Role != role {
				kept = append(kept, sub)
			}
		}
		if len(kept) != len(entities[i].SubEntities) {
			entities[i].SubEntities = kept
			changed = true
		}
	}
	return changed
}

// UpdateState applies parse statistics to the identified sentence.
func (m *MemoryStore) UpdateState(ctx context.Context, stat sentence.Stat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memoryKey{text: sentence.TextKey(stat.Text), language: stat.Language, applicationID: stat.ApplicationID}
	doc, ok := m.docs[k]
	if !ok {
		return nil
	}
	if stat.IntentProbability != nil {
		doc.LastIntentProbability = stat.IntentProbability
	}
	if stat.EntityProbability != nil {
		doc.LastEntityProbability = stat.EntityProbability
	}
	doc.LastUsage = stat.LastUsage
	doc.UsageCount = stat.Count
	m.docs[k] = doc
	return nil
}

// IncrementUnknown bumps the unknown counter by one.
func (m *MemoryStore) IncrementUnknown(ctx context.Context, applicationID, language, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memoryKey{text: sentence.TextKey(text), language: language, applicationID: applicationID}
	doc, ok := m.docs[k]
	if !ok {
		return nil
	}
	doc.UnknownCount++
	m.docs[k] = doc
	return nil
}

// matchesQuery evaluates the composite search predicate on one document,
// mirroring buildSearchFilter clause for clause.
func matchesQuery(doc sentence.Sentence, q sentence.SearchQuery) bool {
	if doc.ApplicationID != q.ApplicationID {
		return false
	}
	if q.Language != "" && doc.Language != q.Language {
		return false
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		if q.ExactMatch {
			if doc.Text != q.Search {
				return false
			}
		} else if !strings.Contains(strings.ToLower(doc.FullText), strings.ToLower(search)) {
			return false
		}
	}
	if q.IntentID != "" && doc.Classification.IntentID != q.IntentID {
		return false
	}
	if len(q.Status) > 0 {
		found := false
		for _, st := range q.Status {
			if doc.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	} else if q.NotStatus != "" && doc.Status == q.NotStatus {
		return false
	}
	if q.EntityType != "" {
		if !anyEntityWithinDepth(doc.Classification.Entities, queryDepth(q), func(e sentence.Entity) bool {
			return e.Type == q.EntityType
		}) {
			return false
		}
	}
	if len(q.EntityRolesToInclude) > 0 {
		if !anyEntityWithinDepth(doc.Classification.Entities, queryDepth(q), func(e sentence.Entity) bool {
			return containsString(q.EntityRolesToInclude, e.Role)
		}) {
			return false
		}
	}
	if len(q.EntityRolesToExclude) > 0 {
		if anyEntityWithinDepth(doc.Classification.Entities, queryDepth(q), func(e sentence.Entity) bool {
			return containsString(q.EntityRolesToExclude, e.Role)
		}) {
			return false
		}
	}
	if q.ModifiedAfter != nil && !doc.UpdateDate.After(*q.ModifiedAfter) {
		return false
	}
	if q.SearchMark != nil {
		// After-paging (or mark alone): the mark caps the window.
		if (q.ModifiedAfter != nil || q.ModifiedBefore == nil) && doc.UpdateDate.After(*q.SearchMark) {
			return false
		}
		// Before-paging: the mark floors the window.
		if q.ModifiedBefore != nil && doc.UpdateDate.Before(*q.SearchMark) {
			return false
		}
	}
	if q.ModifiedBefore != nil && !doc.UpdateDate.Before(*q.ModifiedBefore) {
		return false
	}
	if q.OnlyToReview && !doc.ForReview {
		return false
	}
	return true
}

func queryDepth(q sentence.SearchQuery) int {
	if q.SearchSubEntities {
		return sentence.MaxEntityDepth
	}
	return 1
}

// anyEntityWithinDepth reports whether any span within maxDepth levels
// satisfies pred. Spans nested deeper are not examined, matching the
// depth-bounded store predicates.
func anyEntityWithinDepth(entities []sentence.Entity, maxDepth int, pred func(sentence.Entity) bool) bool {
	if maxDepth < 1 {
		return false
	}
	for _, e := range entities {
		if pred(e) {
			return true
		}
		if anyEntityWithinDepth(e.SubEntities, maxDepth-1, pred) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, it := range list {
		if it == s {
			return true
		}
	}
	return false
}

type matchEntry struct {
	doc sentence.Sentence
	seq int64
}

// sortMatches applies the requested ordering, defaulting to descending
// update date. Text comparisons are case-insensitive, standing in for the
// locale collation of the document store. Ties fall back to most recently
// written first so results stay deterministic.
func sortMatches(matches []matchEntry, fields []sentence.SortField) {
	if len(fields) == 0 {
		fields = []sentence.SortField{{Field: "lastUpdate", Ascending: false}}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		for _, f := range fields {
			c := compareField(a.doc, b.doc, f.Field)
			if c == 0 {
				continue
			}
			if f.Ascending {
				return c < 0
			}
			return c > 0
		}
		return a.seq > b.seq
	})
}

func compareField(a, b sentence.Sentence, field string) int {
	switch field {
	case "text":
		return strings.Compare(strings.ToLower(a.Text), strings.ToLower(b.Text))
	case "currentIntent":
		return strings.Compare(strings.ToLower(a.Classification.IntentID), strings.ToLower(b.Classification.IntentID))
	case "intentProbability":
		return compareFloatPtr(a.LastIntentProbability, b.LastIntentProbability)
	case "entitiesProbability":
		return compareFloatPtr(a.LastEntityProbability, b.LastEntityProbability)
	case "lastUsage":
		return compareTimePtr(a.LastUsage, b.LastUsage)
	case "usageCount":
		return compareInt64(a.UsageCount, b.UsageCount)
	case "unknownCount":
		return compareInt64(a.UnknownCount, b.UnknownCount)
	default:
		// lastUpdate and unknown field names.
		return compareTime(a.UpdateDate, b.UpdateDate)
	}
}

func compareFloatPtr(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return compareTime(*a, *b)
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
