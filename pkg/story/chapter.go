package story

import "github.com/google/uuid"

// Chapter is an ordered container of screens within a project.
type Chapter struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"projectId"`
	Title     string    `json:"title"`

	// Order is dense and 1-based, unique within the project.
	Order int `json:"order"`

	// Image is an opaque blob-storage reference for the chapter background.
	Image string `json:"image,omitempty"`
}

func (c *Chapter) SetOrder(n int) { c.Order = n }
