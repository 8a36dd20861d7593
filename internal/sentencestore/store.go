// Package sentencestore persists classified sentences and implements the
// search and bulk-mutation operations of the administration API.
package sentencestore

import (
	"context"
	"errors"

	"github.com/nlucraft/sentencehub/internal/sentence"
)

// ErrNoFilter is returned by GetSentences when intents, language and status
// are all unset. The call would otherwise scan the whole collection.
var ErrNoFilter = errors.New("at least one of intents, language or status is required")

// Store is the persistence contract for classified sentences.
//
// Save upserts by the (normalized text, language, application) triple, so two
// saves of the same triple always converge on a single record. The
// per-sentence batch operations (SwitchStatus, SwitchSentencesIntent,
// SwitchEntity) are best-effort loops: a failure mid-batch leaves earlier
// sentences mutated and later ones untouched. SwitchIntent is the bulk
// variant and applies atomically at the store level.
type Store interface {
	// GetSentences returns sentences matching the given filters without
	// pagination. Nil/empty filters are skipped; if all are unset it fails
	// with ErrNoFilter.
	GetSentences(ctx context.Context, intents []string, language string, status sentence.Status) ([]sentence.Sentence, error)

	// Search counts and pages sentences matching the query. When the offset
	// is at or past the total count, the page is empty and no documents are
	// fetched.
	Search(ctx context.Context, query sentence.SearchQuery) (sentence.SearchResult, error)

	// Save upserts the sentence and stamps its update date.
	Save(ctx context.Context, s sentence.Sentence) error

	// SwitchStatus saves each sentence with the new status.
	SwitchStatus(ctx context.Context, sentences []sentence.Sentence, newStatus sentence.Status) error

	// DeleteByStatus removes every sentence with the given status.
	DeleteByStatus(ctx context.Context, status sentence.Status) error

	// DeleteByApplication removes every sentence of the application.
	DeleteByApplication(ctx context.Context, applicationID string) error

	// SwitchIntent reassigns every sentence of the application classified
	// with oldIntentID to newIntentID, clears their entity spans and resets
	// their status to inbox, in one bulk update.
	SwitchIntent(ctx context.Context, applicationID, oldIntentID, newIntentID string) error

	// SwitchSentencesIntent reassigns the given sentences to newIntentID,
	// one save per sentence. Moving to the reserved unknown intent also
	// clears entity spans.
	SwitchSentencesIntent(ctx context.Context, sentences []sentence.Sentence, newIntentID string) error

	// SwitchEntity relabels root entity spans matching oldEntity to
	// newEntity on each sentence, one save per sentence.
	SwitchEntity(ctx context.Context, sentences []sentence.Sentence, oldEntity, newEntity sentence.EntityDefinition) error

	// RemoveEntity pulls root entity spans with the given role from every
	// sentence of the application classified with intentID.
	RemoveEntity(ctx context.Context, applicationID, intentID, entityType, role string) error

	// RemoveSubEntity pulls sub-entity spans with the given role nested
	// under spans of entityType, at every supported depth.
	RemoveSubEntity(ctx context.Context, applicationID, entityType, role string) error

	// UpdateState applies parse-pipeline statistics to the sentence
	// identified by the stat's key.
	UpdateState(ctx context.Context, stat sentence.Stat) error

	// IncrementUnknown atomically bumps the unknown counter of the sentence
	// identified by (applicationID, language, normalized text).
	IncrementUnknown(ctx context.Context, applicationID, language, text string) error
}
