package playback

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/pkg/conditions"
	"github.com/kmills-dev/storyloom/pkg/state"
	"github.com/kmills-dev/storyloom/pkg/story"
)

// Phase is the playback state machine position.
type Phase string

const (
	// PhaseNotStarted is the pre-test seeding form: the author may still
	// adjust starting currency values.
	PhaseNotStarted Phase = "not_started"
	// PhaseAwaitingChoice means a screen is on display and the walk is
	// waiting for a reply selection.
	PhaseAwaitingChoice Phase = "awaiting_choice"
	// PhaseEnded means a terminal screen was reached: no authored replies
	// and no next-screen link.
	PhaseEnded Phase = "ended"
)

var (
	// ErrBrokenLink marks a transition whose target screen does not exist.
	// Fatal to the current step; effects already applied are retained.
	ErrBrokenLink = errors.New("broken link")
	// ErrNotStarted is returned for walk operations before Start.
	ErrNotStarted = errors.New("session not started")
	// ErrEnded is returned for choices after a terminal screen.
	ErrEnded = errors.New("session has ended")
	// ErrReplyNotVisible is returned when the chosen reply is not among
	// the currently visible replies.
	ErrReplyNotVisible = errors.New("reply not visible")
)

// Resolver supplies screens and replies to the walk. Implementations sit
// on top of storage; the engine itself never touches persistence.
type Resolver interface {
	ScreenByID(ctx context.Context, id string) (*story.Screen, error)
	RepliesByScreenID(ctx context.Context, id uuid.UUID) ([]story.Reply, error)
}

// Session is one test-mode walkthrough. It is single-threaded by design:
// a player makes one choice at a time. Callers that share a session across
// goroutines must serialize access themselves.
type Session struct {
	ID uuid.UUID

	resolver Resolver
	phase    Phase
	screen   *story.Screen
	st       *state.PlayState
}

// NewSession builds a session in the seeding phase, with every currency at
// its starting value.
func NewSession(resolver Resolver, currencies []story.Currency) *Session {
	return &Session{
		ID:       uuid.New(),
		resolver: resolver,
		phase:    PhaseNotStarted,
		st:       state.New(currencies),
	}
}

// Phase returns the current state machine position.
func (s *Session) Phase() Phase { return s.phase }

// Screen returns the screen currently on display, nil before Start.
func (s *Session) Screen() *story.Screen { return s.screen }

// State returns the live play state snapshot.
func (s *Session) State() *state.PlayState { return s.st }

// SeedCurrency overrides one starting value before the walk begins.
func (s *Session) SeedCurrency(keyWord string, value float64) error {
	if s.phase != PhaseNotStarted {
		return fmt.Errorf("cannot seed currency in phase %q", s.phase)
	}
	s.st = s.st.WithCurrency(keyWord, value)
	return nil
}

// SeedItem overrides one possession flag before the walk begins.
func (s *Session) SeedItem(keyWord string, possessed bool) error {
	if s.phase != PhaseNotStarted {
		return fmt.Errorf("cannot seed item in phase %q", s.phase)
	}
	s.st = s.st.WithItem(keyWord, possessed)
	return nil
}

// Start confirms the seeded values and moves the walk to its first screen.
func (s *Session) Start(ctx context.Context, screenID string) error {
	if s.phase != PhaseNotStarted {
		return fmt.Errorf("session already started (phase %q)", s.phase)
	}
	screen, err := s.resolve(ctx, screenID)
	if err != nil {
		return err
	}
	s.screen = screen
	s.phase = PhaseAwaitingChoice
	return nil
}

// VisibleReplies computes the replies eligible on the current screen.
//
// Authored replies are filtered to those whose every requirement is met,
// in ascending order. A screen with no authored replies at all synthesizes
// a single implicit "Continue" pseudo-reply (ID uuid.Nil) targeting
// LinkToNextScreen. A screen with neither replies nor a next-screen link is
// terminal and moves the session to PhaseEnded.
func (s *Session) VisibleReplies(ctx context.Context) ([]story.Reply, error) {
	if s.phase == PhaseNotStarted {
		return nil, ErrNotStarted
	}
	if s.phase == PhaseEnded {
		return nil, nil
	}

	authored, err := s.resolver.RepliesByScreenID(ctx, s.screen.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load replies for screen %s: %w", s.screen.ID, err)
	}

	if len(authored) == 0 {
		if s.screen.LinkToNextScreen == "" {
			s.phase = PhaseEnded
			return nil, nil
		}
		return []story.Reply{continueReply(s.screen)}, nil
	}

	story.SortReplies(authored)
	visible := make([]story.Reply, 0, len(authored))
	for _, r := range authored {
		if conditions.EvaluateAll(r.Requirements, s.st) {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

// Choose applies the selected reply: its effects are applied to the play
// state in list order, then control transfers to the linked screen.
//
// When the link target does not exist the walk halts with ErrBrokenLink.
// Effects already applied are retained and the session stays on the old
// screen so the author can inspect what happened.
func (s *Session) Choose(ctx context.Context, replyID uuid.UUID) error {
	switch s.phase {
	case PhaseNotStarted:
		return ErrNotStarted
	case PhaseEnded:
		return ErrEnded
	}

	visible, err := s.VisibleReplies(ctx)
	if err != nil {
		return err
	}

	var chosen *story.Reply
	for i := range visible {
		if visible[i].ID == replyID {
			chosen = &visible[i]
			break
		}
	}
	if chosen == nil {
		return ErrReplyNotVisible
	}

	s.st = state.ApplyEffects(s.st, chosen.Effects)

	if chosen.LinkToSectionID == "" {
		return fmt.Errorf("reply %s has no link target: %w", chosen.ID, ErrBrokenLink)
	}
	target, err := s.resolve(ctx, chosen.LinkToSectionID)
	if err != nil {
		return err
	}
	s.screen = target
	return nil
}

func (s *Session) resolve(ctx context.Context, screenID string) (*story.Screen, error) {
	screen, err := s.resolver.ScreenByID(ctx, screenID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve screen %s: %w", screenID, err)
	}
	if screen == nil {
		return nil, fmt.Errorf("screen %s not found: %w", screenID, ErrBrokenLink)
	}
	return screen, nil
}

// ContinueReplyText is the label of the synthesized fallback reply.
const ContinueReplyText = "Continue"

func continueReply(screen *story.Screen) story.Reply {
	return story.Reply{
		ID:              uuid.Nil,
		ScreenID:        screen.ID,
		Text:            ContinueReplyText,
		Order:           1,
		LinkToSectionID: screen.LinkToNextScreen,
	}
}
