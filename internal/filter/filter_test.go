package filter

import (
	"testing"

	"github.com/amishk599/jobsync/internal/model"
)

func item(title string) model.RawItem {
	return model.RawItem{Title: title, Source: "test-feed"}
}

func TestKeywordFilter_Match(t *testing.T) {
	tests := []struct {
		name      string
		include   []string
		exclude   []string
		item      model.RawItem
		wantMatch bool
	}{
		{
			name:      "include keyword matches",
			include:   []string{"recruitment", "vacancy"},
			item:      item("Railway Recruitment 2024 for 5000 Posts"),
			wantMatch: true,
		},
		{
			name:      "no include keyword matches",
			include:   []string{"recruitment", "vacancy"},
			item:      item("Admit Card Released for CGL Tier 1"),
			wantMatch: false,
		},
		{
			name:      "case insensitive matching",
			include:   []string{"BHARTI"},
			item:      item("UP Police Constable Bharti"),
			wantMatch: true,
		},
		{
			name:      "exclude wins over include",
			include:   []string{"recruitment"},
			exclude:   []string{"result"},
			item:      item("SSC Recruitment Result Declared"),
			wantMatch: false,
		},
		{
			name:      "exclude only",
			exclude:   []string{"answer key", "admit card"},
			item:      item("UPSC Answer Key Published"),
			wantMatch: false,
		},
		{
			name:      "empty keyword lists pass all",
			include:   []string{},
			exclude:   []string{},
			item:      item("Any Posting"),
			wantMatch: true,
		},
		{
			name:      "blank keywords are ignored",
			include:   []string{"  ", ""},
			item:      item("Any Posting"),
			wantMatch: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewKeywordFilter(tt.include, tt.exclude)
			got := f.Match(tt.item)
			if got != tt.wantMatch {
				t.Errorf("Match() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestMatchAll(t *testing.T) {
	if !(MatchAll{}).Match(item("")) {
		t.Error("MatchAll rejected an item")
	}
}
