package story

// ProjectExport is the full project bundle: everything needed to validate
// or transfer a story outside the document store.
type ProjectExport struct {
	Project    Project     `json:"project"`
	Chapters   []Chapter   `json:"chapters"`
	Screens    []Screen    `json:"screens"`
	Replies    []Reply     `json:"replies"`
	Currencies []Currency  `json:"currencies"`
	References []Reference `json:"references"`
	Settings   []Setting   `json:"settings"`
}

// ScreenIDs returns the set of screen IDs in the export, for link checks.
func (e *ProjectExport) ScreenIDs() map[string]bool {
	ids := make(map[string]bool, len(e.Screens))
	for i := range e.Screens {
		ids[e.Screens[i].ID.String()] = true
	}
	return ids
}

// CurrencyKeyWords returns the set of defined currency keywords.
func (e *ProjectExport) CurrencyKeyWords() map[string]bool {
	kws := make(map[string]bool, len(e.Currencies))
	for i := range e.Currencies {
		kws[e.Currencies[i].KeyWord] = true
	}
	return kws
}
