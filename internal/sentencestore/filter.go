package sentencestore

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nlucraft/sentencehub/internal/sentence"
)

// entityPath returns the document path of entity spans nested at the given
// depth, depth 1 being the root spans of the classification.
func entityPath(depth int) string {
	return "classification.entities" + strings.Repeat(".subEntities", depth-1)
}

// buildSearchFilter translates a search query into one composite filter:
// a logical AND of sub-predicates, each contributed only when the matching
// query field is set. The application scope is always present, so the AND is
// never empty.
func buildSearchFilter(q sentence.SearchQuery) bson.M {
	parts := []bson.M{{"applicationId": q.ApplicationID}}
	parts = appendIfSet(parts, filterLanguage(q))
	parts = appendIfSet(parts, filterText(q))
	parts = appendIfSet(parts, filterIntent(q))
	parts = appendIfSet(parts, filterStatus(q))
	parts = appendIfSet(parts, filterEntityType(q))
	parts = appendIfSet(parts, filterEntityRolesToInclude(q))
	parts = append(parts, filterEntityRolesToExclude(q)...)
	parts = append(parts, filterModifiedAfter(q)...)
	parts = append(parts, filterModifiedBefore(q)...)
	parts = appendIfSet(parts, filterReviewOnly(q))
	return bson.M{"$and": parts}
}

func appendIfSet(parts []bson.M, p bson.M) []bson.M {
	if p == nil {
		return parts
	}
	return append(parts, p)
}

func filterLanguage(q sentence.SearchQuery) bson.M {
	if q.Language == "" {
		return nil
	}
	return bson.M{"language": q.Language}
}

func filterText(q sentence.SearchQuery) bson.M {
	if strings.TrimSpace(q.Search) == "" {
		return nil
	}
	if q.ExactMatch {
		return bson.M{"text": q.Search}
	}
	return bson.M{"fullText": primitive.Regex{Pattern: strings.TrimSpace(q.Search), Options: "i"}}
}

func filterIntent(q sentence.SearchQuery) bson.M {
	if q.IntentID == "" {
		return nil
	}
	return bson.M{"classification.intentId": q.IntentID}
}

func filterStatus(q sentence.SearchQuery) bson.M {
	if len(q.Status) > 0 {
		return bson.M{"status": bson.M{"$in": q.Status}}
	}
	if q.NotStatus != "" {
		return bson.M{"status": bson.M{"$ne": q.NotStatus}}
	}
	return nil
}

// filterEntityType matches the entity type on root spans, or on spans at any
// depth when the query opts into sub-entity search.
func filterEntityType(q sentence.SearchQuery) bson.M {
	if q.EntityType == "" {
		return nil
	}
	if !q.SearchSubEntities {
		return bson.M{entityPath(1) + ".type": q.EntityType}
	}
	or := make([]bson.M, 0, sentence.MaxEntityDepth)
	for depth := 1; depth <= sentence.MaxEntityDepth; depth++ {
		or = append(or, bson.M{entityPath(depth) + ".type": q.EntityType})
	}
	return bson.M{"$or": or}
}

func filterEntityRolesToInclude(q sentence.SearchQuery) bson.M {
	if len(q.EntityRolesToInclude) == 0 {
		return nil
	}
	in := bson.M{"$in": q.EntityRolesToInclude}
	if !q.SearchSubEntities {
		return bson.M{entityPath(1) + ".role": in}
	}
	or := make([]bson.M, 0, sentence.MaxEntityDepth)
	for depth := 1; depth <= sentence.MaxEntityDepth; depth++ {
		or = append(or, bson.M{entityPath(depth) + ".role": in})
	}
	return bson.M{"$or": or}
}

// filterEntityRolesToExclude differs from the include filter: excluding a
// role must exclude it at every depth, so the per-depth predicates combine
// with AND instead of OR.
func filterEntityRolesToExclude(q sentence.SearchQuery) []bson.M {
	if len(q.EntityRolesToExclude) == 0 {
		return nil
	}
	nin := bson.M{"$nin": q.EntityRolesToExclude}
	if !q.SearchSubEntities {
		return []bson.M{{entityPath(1) + ".role": nin}}
	}
	parts := make([]bson.M, 0, sentence.MaxEntityDepth)
	for depth := 1; depth <= sentence.MaxEntityDepth; depth++ {
		parts = append(parts, bson.M{entityPath(depth) + ".role": nin})
	}
	return parts
}

// filterModifiedAfter bounds the update date from below. A search mark caps
// the window at the mark (inclusive) unless modifiedBefore is set, in which
// case the mark belongs to the other side of the window; combined with an
// explicit bound this yields the cursor window mark >= updateDate > bound.
func filterModifiedAfter(q sentence.SearchQuery) []bson.M {
	switch {
	case q.ModifiedAfter == nil && q.SearchMark == nil:
		return nil
	case q.ModifiedAfter == nil:
		if q.ModifiedBefore != nil {
			return nil
		}
		return []bson.M{{"updateDate": bson.M{"$lte": q.SearchMark}}}
	case q.SearchMark == nil:
		return []bson.M{{"updateDate": bson.M{"$gt": q.ModifiedAfter}}}
	default:
		return []bson.M{
			{"updateDate": bson.M{"$lte": q.SearchMark}},
			{"updateDate": bson.M{"$gt": q.ModifiedAfter}},
		}
	}
}

// filterModifiedBefore is symmetric: the mark floors the window (inclusive),
// the explicit bound stays exclusive. A mark without this bound contributes
// nothing here; filterModifiedAfter already caps at it.
func filterModifiedBefore(q sentence.SearchQuery) []bson.M {
	switch {
	case q.ModifiedBefore == nil:
		return nil
	case q.SearchMark == nil:
		return []bson.M{{"updateDate": bson.M{"$lt": q.ModifiedBefore}}}
	default:
		return []bson.M{
			{"updateDate": bson.M{"$gte": q.SearchMark}},
			{"updateDate": bson.M{"$lt": q.ModifiedBefore}},
		}
	}
}

func filterReviewOnly(q sentence.SearchQuery) bson.M {
	if !q.OnlyToReview {
		return nil
	}
	return bson.M{"forReview": true}
}

// sortFields maps the query surface's sort names to document fields. Unknown
// names fall back to the update date.
var sortFields = map[string]string{
	"text":                "text",
	"currentIntent":       "classification.intentId",
	"intentProbability":   "lastIntentProbability",
	"entitiesProbability": "lastEntityProbability",
	"lastUpdate":          "updateDate",
	"lastUsage":           "lastUsage",
	"usageCount":          "usageCount",
	"unknownCount":        "unknownCount",
}

// buildSort returns the sort document for the query: the requested multi-key
// ordering, or descending update date when none is requested.
func buildSort(q sentence.SearchQuery) bson.D {
	if len(q.Sort) == 0 {
		return bson.D{{Key: "updateDate", Value: -1}}
	}
	sort := make(bson.D, 0, len(q.Sort))
	seen := map[string]bool{}
	for _, sf := range q.Sort {
		field, ok := sortFields[sf.Field]
		if !ok {
			field = "updateDate"
		}
		if seen[field] {
			continue
		}
		seen[field] = true
		direction := -1
		if sf.Ascending {
			direction = 1
		}
		sort = append(sort, bson.E{Key: field, Value: direction})
	}
	return sort
}

// buildCollation returns the locale-aware, case-insensitive collation used
// for custom sorts. Default-order queries skip collation so the update-date
// index serves them directly.
func buildCollation(q sentence.SearchQuery, defaultLocale string) *options.Collation {
	if len(q.Sort) == 0 {
		return nil
	}
	locale := q.Language
	if locale == "" {
		locale = defaultLocale
	}
	return &options.Collation{Locale: locale, CaseLevel: false}
}
