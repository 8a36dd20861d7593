package sentence

import (
	"strings"
	"time"

	"github.com/nlucraft/sentencehub/internal/tagged"
)

// Status is the position of a sentence in the classification workflow.
type Status string

const (
	StatusInbox     Status = "inbox"
	StatusValidated Status = "validated"
	StatusModel     Status = "model"
	StatusDeleted   Status = "deleted"
)

// AllStatuses lists every workflow status.
var AllStatuses = []Status{StatusInbox, StatusValidated, StatusModel, StatusDeleted}

// Valid reports whether s is a known workflow status.
func (s Status) Valid() bool {
	switch s {
	case StatusInbox, StatusValidated, StatusModel, StatusDeleted:
		return true
	}
	return false
}

// UnknownIntentName is the reserved intent for sentences the model could not
// classify. Reassigning a sentence to it drops its entity spans.
const UnknownIntentName = "unknown"

// MaxEntityDepth is the number of entity nesting levels (including the root
// span) that queries and mutations traverse. The store's query language has
// no recursive traversal primitive, so every depth is enumerated explicitly;
// spans nested deeper than this are not matched.
const MaxEntityDepth = 9

// Entity is a labeled span of a sentence, possibly carrying nested sub-spans.
type Entity struct {
	Type        string        `json:"type" bson:"type"`
	Role        string        `json:"role" bson:"role"`
	Value       *tagged.Value `json:"value,omitempty" bson:"value,omitempty"`
	SubEntities []Entity      `json:"subEntities,omitempty" bson:"subEntities,omitempty"`
}

// EntityDefinition identifies an entity by type name and semantic role.
type EntityDefinition struct {
	Type string `json:"type" bson:"type"`
	Role string `json:"role" bson:"role"`
}

// Classification pairs the intent of a sentence with its entity spans.
type Classification struct {
	IntentID string   `json:"intentId" bson:"intentId"`
	Entities []Entity `json:"entities" bson:"entities"`
}

// Sentence is a classified training sentence owned by a bot application.
// The triple (normalized text, language, application) uniquely identifies it.
type Sentence struct {
	Text                  string         `json:"text" bson:"text"`
	FullText              string         `json:"fullText" bson:"fullText"`
	Language              string         `json:"language" bson:"language"`
	ApplicationID         string         `json:"applicationId" bson:"applicationId"`
	CreationDate          time.Time      `json:"creationDate" bson:"creationDate"`
	UpdateDate            time.Time      `json:"updateDate" bson:"updateDate"`
	Status                Status         `json:"status" bson:"status"`
	Classification        Classification `json:"classification" bson:"classification"`
	LastIntentProbability *float64       `json:"lastIntentProbability,omitempty" bson:"lastIntentProbability,omitempty"`
	LastEntityProbability *float64       `json:"lastEntityProbability,omitempty" bson:"lastEntityProbability,omitempty"`
	LastUsage             *time.Time     `json:"lastUsage,omitempty" bson:"lastUsage,omitempty"`
	UsageCount            int64          `json:"usageCount" bson:"usageCount"`
	UnknownCount          int64          `json:"unknownCount" bson:"unknownCount"`
	ForReview             bool           `json:"forReview" bson:"forReview"`
	ReviewComment         string         `json:"reviewComment,omitempty" bson:"reviewComment,omitempty"`
	Classifier            string         `json:"classifier,omitempty" bson:"classifier,omitempty"`
}

// TextKey normalizes sentence text into the lookup key stored in the text
// field: surrounding whitespace stripped, lowercased.
func TextKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Key returns the composite identity of the sentence.
func (s *Sentence) Key() (text, language, applicationID string) {
	return TextKey(s.FullText), s.Language, s.ApplicationID
}

// Stat carries usage statistics reported by the parse pipeline for one
// sentence, keyed like the sentence itself.
type Stat struct {
	Text              string     `json:"text"`
	Language          string     `json:"language"`
	ApplicationID     string     `json:"applicationId"`
	IntentProbability *float64   `json:"intentProbability,omitempty"`
	EntityProbability *float64   `json:"entityProbability,omitempty"`
	LastUsage         *time.Time `json:"lastUsage,omitempty"`
	Count             int64      `json:"count"`
}

// EntityTypeDefinition describes an entity type available to classifications.
type EntityTypeDefinition struct {
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	SubEntities []EntityDefinition `json:"subEntities,omitempty" bson:"subEntities,omitempty"`
}
