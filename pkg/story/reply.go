package story

import (
	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/pkg/conditions"
)

// Reply is a player choice attached to a screen. It may be gated by
// requirements and may apply effects when chosen. Cross-chapter links are
// legal; a reply may also link back to an earlier screen, forming a cycle.
type Reply struct {
	ID       uuid.UUID `json:"id"`
	ScreenID uuid.UUID `json:"screenId"`
	Text     string    `json:"text"`

	// Order is dense and 1-based, unique within the screen.
	Order int `json:"order"`

	// LinkToSectionID is the screen control transfers to when this reply
	// is chosen. Empty is an authoring error surfaced during playback.
	LinkToSectionID string `json:"linkToSectionId,omitempty"`

	Requirements []conditions.Condition `json:"requirements"`
	Effects      []conditions.Condition `json:"effects"`
}

func (r *Reply) SetOrder(n int) { r.Order = n }
