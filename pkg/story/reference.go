package story

import (
	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/pkg/conditions"
)

// ReferenceRequirement gates access to a reference. StartsWith marks an
// entry as always visible, with no gating at all.
type ReferenceRequirement struct {
	StartsWith bool `json:"startsWith"`
	conditions.Condition
}

// Reference is a standalone annotated lore node outside the screen graph,
// with its own text, optional image and access-gating requirements.
type Reference struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"projectId"`
	Text      string    `json:"text"`
	Image     string    `json:"image,omitempty"`

	Requirements []ReferenceRequirement `json:"requirements"`
}

// Accessible reports whether the reference is visible given live state.
// A StartsWith entry short-circuits to visible; otherwise every gating
// requirement must be met.
func (r *Reference) Accessible(view conditions.StateView) bool {
	for _, req := range r.Requirements {
		if req.StartsWith {
			return true
		}
	}
	for _, req := range r.Requirements {
		if !conditions.Evaluate(req.Condition, view) {
			return false
		}
	}
	return true
}
