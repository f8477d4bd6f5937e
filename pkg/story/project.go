package story

import "github.com/google/uuid"

// Project is the top-level container an author works in. It owns chapters,
// currencies, references and settings, all related by ProjectID.
type Project struct {
	ID     uuid.UUID `json:"id"`
	UserID string    `json:"userId"`
	Title  string    `json:"title"`

	// ThemeColors is the author's color palette, bounded by PaletteCapacity.
	// The leading entries are the pinned theme defaults.
	ThemeColors []string `json:"themeColors,omitempty"`

	// Feature toggles chosen at project creation.
	HasItems        bool `json:"hasItems"`
	HasLoops        bool `json:"hasLoops"`
	HasTitleScreen  bool `json:"hasTitleScreen"`
	HasTransitions  bool `json:"hasTransitions"`
	VoiceOversMuted bool `json:"voiceOversMuted"`

	// Denormalized counts, refreshed after structural edits.
	ChapterCount  int `json:"chapterCount"`
	ScreenCount   int `json:"screenCount"`
	CurrencyCount int `json:"currencyCount"`
}
