package story

import "github.com/google/uuid"

// Setting is a sparse presentation override attached to either a screen or
// a chapter. A screen inherits its chapter's setting when it has no
// override of its own.
type Setting struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"projectId"`

	// Exactly one of ScreenID / ChapterID is set on an override record.
	ScreenID  uuid.UUID `json:"screenId,omitempty"`
	ChapterID uuid.UUID `json:"chapterId,omitempty"`

	TimeForRepliesToDisplay int      `json:"timeForRepliesToDisplay,omitempty"`
	AutoAdvances            bool     `json:"autoAdvances,omitempty"`
	ShowCurrencies          []string `json:"showCurrencies,omitempty"`
	TimeToAnswer            int      `json:"timeToAnswer,omitempty"`
	DefaultBackground       string   `json:"defaultBackground,omitempty"`
}

// DefaultSetting is the system fallback when neither a screen-level nor a
// chapter-level override exists.
func DefaultSetting(projectID uuid.UUID) *Setting {
	return &Setting{
		ProjectID:               projectID,
		TimeForRepliesToDisplay: 3,
		AutoAdvances:            false,
		TimeToAnswer:            0,
	}
}

// ResolveSetting applies the inheritance rule: a screen-level override wins;
// otherwise the chapter-level setting applies; otherwise the system default.
func ResolveSetting(settings []Setting, screenID, chapterID, projectID uuid.UUID) *Setting {
	for i := range settings {
		if screenID != uuid.Nil && settings[i].ScreenID == screenID {
			return &settings[i]
		}
	}
	for i := range settings {
		if chapterID != uuid.Nil && settings[i].ChapterID == chapterID {
			return &settings[i]
		}
	}
	return DefaultSetting(projectID)
}
