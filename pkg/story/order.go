package story

import "sort"

// Orderable is implemented by entities whose sibling order can be rewritten.
type Orderable interface {
	SetOrder(n int)
}

// Renumber assigns a dense, gap-free, 1-based order to a sibling list.
// The final array position is authoritative: S[i].order = i+1 regardless of
// whatever order values the siblings carried before. Runs after every
// delete and every drag-reorder.
func Renumber[T Orderable](siblings []T) {
	for i, s := range siblings {
		s.SetOrder(i + 1)
	}
}

// SortChapters orders chapters by stored order. Read paths always sort
// rather than trust stored order, so historical gaps or duplicates are
// tolerated until the next write renumbers them.
func SortChapters(chapters []Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Order < chapters[j].Order
	})
}

// SortScreens orders screens by stored order.
func SortScreens(screens []Screen) {
	sort.SliceStable(screens, func(i, j int) bool {
		return screens[i].Order < screens[j].Order
	})
}

// SortReplies orders replies by stored order.
func SortReplies(replies []Reply) {
	sort.SliceStable(replies, func(i, j int) bool {
		return replies[i].Order < replies[j].Order
	})
}

// RelinkScreens re-chains each screen's default continue target to the
// screen that now follows it, after a reorder. The last screen keeps its
// existing link, which may point into another chapter.
func RelinkScreens(screens []*Screen) {
	for i := range screens {
		if i+1 < len(screens) {
			screens[i].LinkToNextScreen = screens[i+1].ID.String()
		}
	}
}
