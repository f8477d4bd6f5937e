package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/pkg/storage"
	"github.com/kmills-dev/storyloom/pkg/story"
)

// GraphService owns the multi-entity invariants of the narrative graph:
// dense sibling ordering, cascade deletes, dangling-link cleanup, palette
// eviction and project stat refresh. Handlers never touch these rules
// directly; they go through here.
type GraphService struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewGraphService(st storage.Storage, logger *slog.Logger) *GraphService {
	return &GraphService{storage: st, logger: logger}
}

// ValidationError marks a rejected edit (as opposed to a storage failure).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Chapters

// CreateChapter appends the chapter at the end of its project's sequence.
func (g *GraphService) CreateChapter(ctx context.Context, c *story.Chapter) error {
	siblings, err := g.storage.ListChaptersByProject(ctx, c.ProjectID)
	if err != nil {
		return err
	}
	c.Order = len(siblings) + 1
	if err := g.storage.CreateChapter(ctx, c); err != nil {
		return err
	}
	return g.RefreshProjectStats(ctx, c.ProjectID)
}

// DeleteChapter removes a chapter and everything under it: its screens,
// their replies, any chapter- or screen-level settings. Remaining chapters
// are renumbered and every link that pointed into the deleted subtree is
// nulled, cross-chapter links included.
func (g *GraphService) DeleteChapter(ctx context.Context, id uuid.UUID) error {
	chapter, err := g.storage.GetChapter(ctx, id)
	if err != nil {
		return err
	}
	if chapter == nil {
		return &ValidationError{Reason: fmt.Sprintf("chapter %s not found", id)}
	}

	screens, err := g.storage.ListScreensByChapter(ctx, id)
	if err != nil {
		return err
	}

	removed := make(map[string]bool, len(screens))
	for i := range screens {
		removed[screens[i].ID.String()] = true
	}
	for i := range screens {
		if err := g.deleteScreenRecord(ctx, &screens[i]); err != nil {
			return err
		}
	}

	if err := g.deleteSettingFor(ctx, chapter.ProjectID, uuid.Nil, id); err != nil {
		return err
	}
	if err := g.storage.DeleteChapter(ctx, id); err != nil {
		return err
	}

	if err := g.renumberChapters(ctx, chapter.ProjectID); err != nil {
		return err
	}
	if err := g.clearDanglingLinks(ctx, chapter.ProjectID, removed); err != nil {
		return err
	}
	return g.RefreshProjectStats(ctx, chapter.ProjectID)
}

// ReorderChapters applies a drag-reorder: ids is the full sibling list in
// its desired final order. Renumbering happens before any dependent state
// is read back, so stored order is consistent when the call returns.
func (g *GraphService) ReorderChapters(ctx context.Context, projectID uuid.UUID, ids []uuid.UUID) error {
	chapters, err := g.storage.ListChaptersByProject(ctx, projectID)
	if err != nil {
		return err
	}
	ordered, err := arrange(chapters, ids, func(c *story.Chapter) uuid.UUID { return c.ID })
	if err != nil {
		return err
	}
	story.Renumber(ordered)
	for _, c := range ordered {
		if err := g.storage.UpdateChapter(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Screens

// CreateScreen sanitizes the body text and appends the screen at the end of
// its chapter. The previous last screen's continue link is pointed at the
// new screen so the default walk order stays chained.
func (g *GraphService) CreateScreen(ctx context.Context, s *story.Screen) error {
	s.Text = story.SanitizeRichText(s.Text)

	siblings, err := g.storage.ListScreensByChapter(ctx, s.ChapterID)
	if err != nil {
		return err
	}
	s.Order = len(siblings) + 1
	if err := g.storage.CreateScreen(ctx, s); err != nil {
		return err
	}

	if n := len(siblings); n > 0 {
		prev := siblings[n-1]
		if prev.LinkToNextScreen == "" {
			prev.LinkToNextScreen = s.ID.String()
			if err := g.storage.UpdateScreen(ctx, &prev); err != nil {
				return err
			}
		}
	}
	return g.RefreshProjectStats(ctx, s.ProjectID)
}

// UpdateScreen re-sanitizes the text and saves.
func (g *GraphService) UpdateScreen(ctx context.Context, s *story.Screen) error {
	s.Text = story.SanitizeRichText(s.Text)
	return g.storage.UpdateScreen(ctx, s)
}

// DeleteScreen removes the screen, its replies and its setting override,
// renumbers the chapter's remaining screens and nulls every dangling link
// left anywhere in the project.
func (g *GraphService) DeleteScreen(ctx context.Context, id uuid.UUID) error {
	screen, err := g.storage.GetScreen(ctx, id)
	if err != nil {
		return err
	}
	if screen == nil {
		return &ValidationError{Reason: fmt.Sprintf("screen %s not found", id)}
	}

	if err := g.deleteScreenRecord(ctx, screen); err != nil {
		return err
	}
	if err := g.renumberScreens(ctx, screen.ChapterID); err != nil {
		return err
	}
	if err := g.clearDanglingLinks(ctx, screen.ProjectID, map[string]bool{id.String(): true}); err != nil {
		return err
	}
	return g.RefreshProjectStats(ctx, screen.ProjectID)
}

// ReorderScreens renumbers a chapter's screens to the given sequence and
// re-chains each screen's continue link to its new follower.
func (g *GraphService) ReorderScreens(ctx context.Context, chapterID uuid.UUID, ids []uuid.UUID) error {
	screens, err := g.storage.ListScreensByChapter(ctx, chapterID)
	if err != nil {
		return err
	}
	ordered, err := arrange(screens, ids, func(s *story.Screen) uuid.UUID { return s.ID })
	if err != nil {
		return err
	}
	story.Renumber(ordered)
	story.RelinkScreens(ordered)
	for _, s := range ordered {
		if err := g.storage.UpdateScreen(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Replies

// CreateReply validates conditions, sanitizes text and appends the reply
// at the end of its screen's list.
func (g *GraphService) CreateReply(ctx context.Context, r *story.Reply) error {
	if err := validateConditions(r); err != nil {
		return err
	}
	r.Text = story.SanitizeRichText(r.Text)

	siblings, err := g.storage.ListRepliesByScreen(ctx, r.ScreenID)
	if err != nil {
		return err
	}
	r.Order = len(siblings) + 1
	return g.storage.CreateReply(ctx, r)
}

// UpdateReply validates conditions, re-sanitizes and saves.
func (g *GraphService) UpdateReply(ctx context.Context, r *story.Reply) error {
	if err := validateConditions(r); err != nil {
		return err
	}
	r.Text = story.SanitizeRichText(r.Text)
	return g.storage.UpdateReply(ctx, r)
}

func validateConditions(r *story.Reply) error {
	for _, c := range r.Requirements {
		if err := c.Validate(); err != nil {
			return &ValidationError{Reason: "requirement: " + err.Error()}
		}
	}
	for _, c := range r.Effects {
		if err := c.Validate(); err != nil {
			return &ValidationError{Reason: "effect: " + err.Error()}
		}
	}
	return nil
}

// DeleteReply removes the reply and renumbers its siblings.
func (g *GraphService) DeleteReply(ctx context.Context, id uuid.UUID) error {
	reply, err := g.storage.GetReply(ctx, id)
	if err != nil {
		return err
	}
	if reply == nil {
		return &ValidationError{Reason: fmt.Sprintf("reply %s not found", id)}
	}
	if err := g.storage.DeleteReply(ctx, id); err != nil {
		return err
	}
	return g.renumberReplies(ctx, reply.ScreenID)
}

// ReorderReplies renumbers a screen's replies to the given sequence.
func (g *GraphService) ReorderReplies(ctx context.Context, screenID uuid.UUID, ids []uuid.UUID) error {
	replies, err := g.storage.ListRepliesByScreen(ctx, screenID)
	if err != nil {
		return err
	}
	ordered, err := arrange(replies, ids, func(r *story.Reply) uuid.UUID { return r.ID })
	if err != nil {
		return err
	}
	story.Renumber(ordered)
	for _, r := range ordered {
		if err := g.storage.UpdateReply(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Currencies

// CreateCurrency normalizes the keyword, fills a blank display name and
// rejects duplicate keywords within the project.
func (g *GraphService) CreateCurrency(ctx context.Context, c *story.Currency) error {
	c.KeyWord = story.NormalizeKeyWord(c.KeyWord)
	if c.KeyWord == "" {
		return &ValidationError{Reason: "currency keyWord is required"}
	}
	if c.DisplayName == "" {
		c.DisplayName = story.DisplayNameFromKeyWord(c.KeyWord)
	}

	existing, err := g.storage.ListCurrenciesByProject(ctx, c.ProjectID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.KeyWord == c.KeyWord {
			return &ValidationError{Reason: fmt.Sprintf("currency keyWord %q already exists", c.KeyWord)}
		}
	}
	if err := g.storage.CreateCurrency(ctx, c); err != nil {
		return err
	}
	return g.RefreshProjectStats(ctx, c.ProjectID)
}

// DeleteCurrency refuses to remove a currency while any reply or reference
// condition still targets its keyword, listing the offenders.
func (g *GraphService) DeleteCurrency(ctx context.Context, id uuid.UUID) error {
	currency, err := g.storage.GetCurrency(ctx, id)
	if err != nil {
		return err
	}
	if currency == nil {
		return &ValidationError{Reason: fmt.Sprintf("currency %s not found", id)}
	}

	users, err := g.conditionUsers(ctx, currency.ProjectID, currency.KeyWord)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return &ValidationError{Reason: fmt.Sprintf("currency %q is still used by: %v", currency.KeyWord, users)}
	}

	if err := g.storage.DeleteCurrency(ctx, id); err != nil {
		return err
	}
	return g.RefreshProjectStats(ctx, currency.ProjectID)
}

// conditionUsers returns a description of every reply and reference whose
// conditions target the keyword.
func (g *GraphService) conditionUsers(ctx context.Context, projectID uuid.UUID, keyWord string) ([]string, error) {
	var users []string

	screens, err := g.storage.ListScreensByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range screens {
		replies, err := g.storage.ListRepliesByScreen(ctx, screens[i].ID)
		if err != nil {
			return nil, err
		}
		for j := range replies {
			for _, c := range append(replies[j].Requirements, replies[j].Effects...) {
				if c.KeyWord == keyWord {
					users = append(users, "reply "+replies[j].ID.String())
					break
				}
			}
		}
	}

	references, err := g.storage.ListReferencesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range references {
		for _, rq := range references[i].Requirements {
			if !rq.StartsWith && rq.KeyWord == keyWord {
				users = append(users, "reference "+references[i].ID.String())
				break
			}
		}
	}
	return users, nil
}

// References

// CreateReference sanitizes the text before storing.
func (g *GraphService) CreateReference(ctx context.Context, r *story.Reference) error {
	r.Text = story.SanitizeRichText(r.Text)
	return g.storage.CreateReference(ctx, r)
}

// UpdateReference re-sanitizes and saves.
func (g *GraphService) UpdateReference(ctx context.Context, r *story.Reference) error {
	r.Text = story.SanitizeRichText(r.Text)
	return g.storage.UpdateReference(ctx, r)
}

// Palette

// AddProjectColor appends a color to the project palette, applying the
// bounded-history eviction policy. The pinned set is the palette as it
// stood at project creation (the theme defaults), approximated here as the
// first entries up to the current pinned count carried on the project.
func (g *GraphService) AddProjectColor(ctx context.Context, projectID uuid.UUID, color string, pinned []string) (*story.Project, error) {
	project, err := g.storage.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("project %s not found", projectID)}
	}

	project.ThemeColors = story.AddPaletteColor(project.ThemeColors, pinned, color)
	if err := g.storage.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Settings

// ResolveSetting applies the override inheritance rule for a screen.
func (g *GraphService) ResolveSetting(ctx context.Context, projectID, screenID, chapterID uuid.UUID) (*story.Setting, error) {
	settings, err := g.storage.ListSettingsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return story.ResolveSetting(settings, screenID, chapterID, projectID), nil
}

// Stats

// RefreshProjectStats recomputes the denormalized counts on the project.
func (g *GraphService) RefreshProjectStats(ctx context.Context, projectID uuid.UUID) error {
	project, err := g.storage.GetProject(ctx, projectID)
	if err != nil || project == nil {
		return err
	}

	chapters, err := g.storage.ListChaptersByProject(ctx, projectID)
	if err != nil {
		return err
	}
	screens, err := g.storage.ListScreensByProject(ctx, projectID)
	if err != nil {
		return err
	}
	currencies, err := g.storage.ListCurrenciesByProject(ctx, projectID)
	if err != nil {
		return err
	}

	project.ChapterCount = len(chapters)
	project.ScreenCount = len(screens)
	project.CurrencyCount = len(currencies)
	return g.storage.UpdateProject(ctx, project)
}

// Export

// ExportProject assembles the full bundle for validation or transfer.
func (g *GraphService) ExportProject(ctx context.Context, projectID uuid.UUID) (*story.ProjectExport, error) {
	project, err := g.storage.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("project %s not found", projectID)}
	}

	export := &story.ProjectExport{Project: *project}

	if export.Chapters, err = g.storage.ListChaptersByProject(ctx, projectID); err != nil {
		return nil, err
	}
	if export.Screens, err = g.storage.ListScreensByProject(ctx, projectID); err != nil {
		return nil, err
	}
	for i := range export.Screens {
		replies, err := g.storage.ListRepliesByScreen(ctx, export.Screens[i].ID)
		if err != nil {
			return nil, err
		}
		export.Replies = append(export.Replies, replies...)
	}
	if export.Currencies, err = g.storage.ListCurrenciesByProject(ctx, projectID); err != nil {
		return nil, err
	}
	if export.References, err = g.storage.ListReferencesByProject(ctx, projectID); err != nil {
		return nil, err
	}
	if export.Settings, err = g.storage.ListSettingsByProject(ctx, projectID); err != nil {
		return nil, err
	}
	return export, nil
}

// Internals

func (g *GraphService) deleteScreenRecord(ctx context.Context, screen *story.Screen) error {
	replies, err := g.storage.ListRepliesByScreen(ctx, screen.ID)
	if err != nil {
		return err
	}
	for i := range replies {
		if err := g.storage.DeleteReply(ctx, replies[i].ID); err != nil {
			return err
		}
	}
	if err := g.deleteSettingFor(ctx, screen.ProjectID, screen.ID, uuid.Nil); err != nil {
		return err
	}
	return g.storage.DeleteScreen(ctx, screen.ID)
}

func (g *GraphService) deleteSettingFor(ctx context.Context, projectID, screenID, chapterID uuid.UUID) error {
	settings, err := g.storage.ListSettingsByProject(ctx, projectID)
	if err != nil {
		return err
	}
	for i := range settings {
		match := (screenID != uuid.Nil && settings[i].ScreenID == screenID) ||
			(chapterID != uuid.Nil && settings[i].ChapterID == chapterID)
		if match {
			if err := g.storage.DeleteSetting(ctx, settings[i].ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *GraphService) renumberChapters(ctx context.Context, projectID uuid.UUID) error {
	chapters, err := g.storage.ListChaptersByProject(ctx, projectID)
	if err != nil {
		return err
	}
	ptrs := toPointers(chapters)
	story.Renumber(ptrs)
	for _, c := range ptrs {
		if err := g.storage.UpdateChapter(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (g *GraphService) renumberScreens(ctx context.Context, chapterID uuid.UUID) error {
	screens, err := g.storage.ListScreensByChapter(ctx, chapterID)
	if err != nil {
		return err
	}
	ptrs := toPointers(screens)
	story.Renumber(ptrs)
	for _, s := range ptrs {
		if err := g.storage.UpdateScreen(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (g *GraphService) renumberReplies(ctx context.Context, screenID uuid.UUID) error {
	replies, err := g.storage.ListRepliesByScreen(ctx, screenID)
	if err != nil {
		return err
	}
	ptrs := toPointers(replies)
	story.Renumber(ptrs)
	for _, r := range ptrs {
		if err := g.storage.UpdateReply(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// clearDanglingLinks nulls every continue link and reply link in the
// project that points at a removed screen.
func (g *GraphService) clearDanglingLinks(ctx context.Context, projectID uuid.UUID, removed map[string]bool) error {
	screens, err := g.storage.ListScreensByProject(ctx, projectID)
	if err != nil {
		return err
	}
	for i := range screens {
		s := &screens[i]
		if removed[s.LinkToNextScreen] {
			s.LinkToNextScreen = ""
			if err := g.storage.UpdateScreen(ctx, s); err != nil {
				return err
			}
			g.logger.Warn("Cleared dangling continue link", "screen", s.ID)
		}

		replies, err := g.storage.ListRepliesByScreen(ctx, s.ID)
		if err != nil {
			return err
		}
		for j := range replies {
			r := &replies[j]
			if removed[r.LinkToSectionID] {
				r.LinkToSectionID = ""
				if err := g.storage.UpdateReply(ctx, r); err != nil {
					return err
				}
				g.logger.Warn("Cleared dangling reply link", "reply", r.ID)
			}
		}
	}
	return nil
}

// arrange reorders items to match ids, requiring ids to be an exact
// permutation of the sibling set.
func arrange[T any](items []T, ids []uuid.UUID, idOf func(*T) uuid.UUID) ([]*T, error) {
	if len(ids) != len(items) {
		return nil, &ValidationError{Reason: fmt.Sprintf("reorder list has %d ids, expected %d", len(ids), len(items))}
	}
	byID := make(map[uuid.UUID]*T, len(items))
	for i := range items {
		byID[idOf(&items[i])] = &items[i]
	}
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("reorder list names unknown sibling %s", id)}
		}
		out = append(out, item)
		delete(byID, id)
	}
	return out, nil
}

func toPointers[T any](items []T) []*T {
	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}
