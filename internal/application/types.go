package application

import "time"

// Application is a bot application owning classified sentences.
type Application struct {
	ID               string    `json:"id" bson:"_id"`
	Name             string    `json:"name" bson:"name"`
	SupportedLocales []string  `json:"supportedLocales,omitempty" bson:"supportedLocales,omitempty"`
	CreationDate     time.Time `json:"creationDate" bson:"creationDate"`
	UpdateDate       time.Time `json:"updateDate" bson:"updateDate"`
}
