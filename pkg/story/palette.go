package story

// PaletteCapacity bounds the per-project color history. Adding beyond it
// evicts the oldest non-pinned color.
const PaletteCapacity = 8

// AddPaletteColor appends a color to the palette, evicting by FIFO among
// non-pinned entries once capacity is exceeded. Pinned theme-default colors
// are never evicted. When every slot is pinned there is nothing to evict
// and the new color is appended anyway, exceeding capacity.
//
// Returns the new palette; the input slices are not modified.
func AddPaletteColor(palette, pinned []string, color string) []string {
	isPinned := make(map[string]bool, len(pinned))
	for _, p := range pinned {
		isPinned[p] = true
	}

	next := make([]string, 0, len(palette)+1)
	next = append(next, palette...)
	next = append(next, color)
	if len(next) <= PaletteCapacity {
		return next
	}

	// Evict the single oldest non-pinned color, keeping relative order:
	// pinned entries first, then the surviving non-pinned history.
	var kept, unpinned []string
	for _, c := range palette {
		if isPinned[c] {
			kept = append(kept, c)
		} else {
			unpinned = append(unpinned, c)
		}
	}
	if len(unpinned) == 0 {
		return next
	}
	unpinned = append(unpinned[1:], color)
	return append(kept, unpinned...)
}
