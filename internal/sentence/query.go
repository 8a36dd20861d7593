package sentence

import "time"

// SortField is one (field, direction) pair of a search ordering.
type SortField struct {
	Field     string `json:"field"`
	Ascending bool   `json:"ascending"`
}

// SearchQuery describes one paginated search over classified sentences.
// Only ApplicationID is mandatory; every other field is optional and simply
// adds a predicate when set.
type SearchQuery struct {
	ApplicationID string `json:"applicationId"`
	Language      string `json:"language,omitempty"`

	// Search is free text; ExactMatch switches between an equality on the
	// normalized text key and a case-insensitive substring match on the
	// original text.
	Search     string `json:"search,omitempty"`
	ExactMatch bool   `json:"exactMatch,omitempty"`

	IntentID  string   `json:"intentId,omitempty"`
	Status    []Status `json:"status,omitempty"`
	NotStatus Status   `json:"notStatus,omitempty"`

	EntityType           string   `json:"entityType,omitempty"`
	EntityRolesToInclude []string `json:"entityRolesToInclude,omitempty"`
	EntityRolesToExclude []string `json:"entityRolesToExclude,omitempty"`
	// SearchSubEntities widens entity type/role predicates to every nesting
	// depth instead of only the root spans.
	SearchSubEntities bool `json:"searchSubEntities,omitempty"`

	// ModifiedAfter/ModifiedBefore bound the update-date window. SearchMark
	// is a cursor timestamp: combined with a bound it narrows the window to
	// "at or before the mark" (after-paging) or "at or after the mark"
	// (before-paging), so repeated calls can walk a stable snapshot.
	ModifiedAfter  *time.Time `json:"modifiedAfter,omitempty"`
	ModifiedBefore *time.Time `json:"modifiedBefore,omitempty"`
	SearchMark     *time.Time `json:"searchMark,omitempty"`

	OnlyToReview bool `json:"onlyToReview,omitempty"`

	Sort  []SortField `json:"sort,omitempty"`
	Start int64       `json:"start,omitempty"`
	Size  int64       `json:"size,omitempty"`
}

// SearchResult is one page of a search plus the total match count.
type SearchResult struct {
	Total     int64      `json:"total"`
	Sentences []Sentence `json:"sentences"`
}
