package story

import "github.com/google/uuid"

// Screen is a single narrative beat: body text, an optional image, and an
// ordered set of replies (stored separately, related by ScreenID).
type Screen struct {
	ID        uuid.UUID `json:"id"`
	ChapterID uuid.UUID `json:"chapterId"`
	ProjectID uuid.UUID `json:"projectId"`

	// Text is rich markup, sanitized before storage.
	Text string `json:"text"`

	// Image is an opaque blob-storage reference.
	Image string `json:"image,omitempty"`

	// Order is dense and 1-based, unique within the chapter.
	Order int `json:"order"`

	// LinkToNextScreen is the default "continue" target used when the
	// screen has no authored replies. Empty means no fallback; a screen
	// with neither replies nor a next-screen link is terminal.
	LinkToNextScreen string `json:"linkToNextScreen,omitempty"`
}

func (s *Screen) SetOrder(n int) { s.Order = n }
