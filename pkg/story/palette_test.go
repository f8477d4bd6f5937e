package story

import (
	"reflect"
	"testing"
)

func TestAddPaletteColor(t *testing.T) {
	pinned := []string{"#111111", "#222222"}

	tests := []struct {
		name    string
		palette []string
		color   string
		want    []string
	}{
		{
			name:    "under capacity appends",
			palette: []string{"#111111", "#222222", "#aaaaaa"},
			color:   "#bbbbbb",
			want:    []string{"#111111", "#222222", "#aaaaaa", "#bbbbbb"},
		},
		{
			name:    "at capacity evicts oldest non-pinned",
			palette: []string{"#111111", "#222222", "#a1", "#a2", "#a3", "#a4", "#a5", "#a6"},
			color:   "#a7",
			want:    []string{"#111111", "#222222", "#a2", "#a3", "#a4", "#a5", "#a6", "#a7"},
		},
		{
			name:    "pinned entries survive eviction regardless of position",
			palette: []string{"#a1", "#111111", "#a2", "#222222", "#a3", "#a4", "#a5", "#a6"},
			color:   "#a7",
			want:    []string{"#111111", "#222222", "#a2", "#a3", "#a4", "#a5", "#a6", "#a7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddPaletteColor(tt.palette, pinned, tt.color)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AddPaletteColor() = %v, want %v", got, tt.want)
			}
			if len(got) > PaletteCapacity {
				t.Errorf("palette exceeded capacity: %d", len(got))
			}
		})
	}
}

func TestAddPaletteColor_AllPinned(t *testing.T) {
	// When every slot is pinned there is nothing to evict; the new color
	// is appended and capacity is exceeded.
	allPinned := []string{"#1", "#2", "#3", "#4", "#5", "#6", "#7", "#8"}

	got := AddPaletteColor(allPinned, allPinned, "#9")

	if len(got) != 9 {
		t.Fatalf("Expected 9 colors, got %d", len(got))
	}
	if got[8] != "#9" {
		t.Errorf("Expected new color appended last, got %v", got)
	}
}

func TestAddPaletteColor_DoesNotMutateInput(t *testing.T) {
	palette := []string{"#a1", "#a2", "#a3", "#a4", "#a5", "#a6", "#a7", "#a8"}
	snapshot := append([]string(nil), palette...)

	AddPaletteColor(palette, nil, "#a9")

	if !reflect.DeepEqual(palette, snapshot) {
		t.Error("AddPaletteColor mutated its input palette")
	}
}
