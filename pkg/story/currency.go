package story

import "github.com/google/uuid"

// Currency is a named numeric game-state quantity. KeyWord is the stable
// identifier conditions reference; DisplayName is what players see.
type Currency struct {
	ID            uuid.UUID `json:"id"`
	ProjectID     uuid.UUID `json:"projectId"`
	DisplayName   string    `json:"displayName"`
	KeyWord       string    `json:"keyWord"`
	StartingValue float64   `json:"startingValue"`
}
