package forum

import (
	"encoding/json"
	"testing"
)

func TestSortTopicsStickyFirst(t *testing.T) {
	topics := []TopicView{
		{ID: "a", IsSticky: true, LastActivity: 1},
		{ID: "b", IsSticky: false, LastActivity: 5},
		{ID: "c", IsSticky: true, LastActivity: 2},
	}

	SortTopics(topics)

	got := []string{topics[0].ID, topics[1].ID, topics[2].ID}
	want := []string{"a", "c", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSortTopicsNonStickyByActivity(t *testing.T) {
	topics := []TopicView{
		{ID: "old", LastActivity: 10},
		{ID: "newest", LastActivity: 30},
		{ID: "mid", LastActivity: 20},
	}

	SortTopics(topics)

	if topics[0].ID != "newest" || topics[1].ID != "mid" || topics[2].ID != "old" {
		t.Fatalf("unexpected order: %s %s %s", topics[0].ID, topics[1].ID, topics[2].ID)
	}
}

func TestSortTopicsStable(t *testing.T) {
	// Equal keys keep their incoming order.
	topics := []TopicView{
		{ID: "first", IsSticky: true, LastActivity: 100},
		{ID: "second", IsSticky: true, LastActivity: 200},
		{ID: "tie1", LastActivity: 50},
		{ID: "tie2", LastActivity: 50},
	}

	SortTopics(topics)

	if topics[0].ID != "first" || topics[1].ID != "second" {
		t.Errorf("sticky block reordered: %s %s", topics[0].ID, topics[1].ID)
	}
	if topics[2].ID != "tie1" || topics[3].ID != "tie2" {
		t.Errorf("tied non-sticky reordered: %s %s", topics[2].ID, topics[3].ID)
	}
}

func TestFilterTopics(t *testing.T) {
	topics := []TopicView{
		{ID: "1", Title: "Food Drive Update", Content: "Volunteers needed", Author: "Ruth", Category: "volunteering"},
		{ID: "2", Title: "Prayer for healing", Content: "Please pray", Author: "Dan", Category: "prayer-requests"},
		{ID: "3", Title: "Christmas outreach", Content: "food and gifts", Author: "Ruth", Category: "events"},
	}

	tests := []struct {
		name     string
		search   string
		category string
		wantIDs  []string
	}{
		{"no filters", "", "", []string{"1", "2", "3"}},
		{"search matches title case-insensitive", "FOOD", "", []string{"1", "3"}},
		{"search matches content only", "pray", "", []string{"2"}},
		{"search matches author", "ruth", "", []string{"1", "3"}},
		{"category exact", "", "events", []string{"3"}},
		{"search and category combined", "food", "volunteering", []string{"1"}},
		{"zero matches yields empty not nil", "nothing-here", "events", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTopics(topics, tt.search, tt.category)
			if got == nil {
				t.Fatal("FilterTopics returned nil")
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d topics, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("topic[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	topics := make([]TopicView, 25)
	for i := range topics {
		topics[i] = TopicView{ID: string(rune('a' + i))}
	}

	if got := Paginate(topics, 1); len(got) != PageSize {
		t.Errorf("page 1 length = %d, want %d", len(got), PageSize)
	}
	if got := Paginate(topics, 3); len(got) != 5 {
		t.Errorf("page 3 length = %d, want 5", len(got))
	}
	if got := Paginate(topics, 4); len(got) != 0 {
		t.Errorf("out-of-range page length = %d, want 0", len(got))
	}
	if got := Paginate(topics, 0); len(got) != PageSize {
		t.Errorf("page 0 clamps to page 1, length = %d, want %d", len(got), PageSize)
	}
	if got := Paginate(nil, 1); len(got) != 0 {
		t.Errorf("empty input page length = %d, want 0", len(got))
	}
}

func TestCountUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Count
	}{
		{"plain number", `7`, 7},
		{"zero", `0`, 0},
		{"map keys counted", `{"u1":true,"u2":true,"u3":true}`, 3},
		{"empty map", `{}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Count
			if err := json.Unmarshal([]byte(tt.in), &c); err != nil {
				t.Fatalf("unmarshal %q: %v", tt.in, err)
			}
			if c != tt.want {
				t.Errorf("Count = %d, want %d", c, tt.want)
			}
		})
	}

	var c Count
	if err := json.Unmarshal([]byte(`"nope"`), &c); err == nil {
		t.Error("expected error for string input")
	}
}

func TestCountMarshal(t *testing.T) {
	b, err := json.Marshal(Count(4))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "4" {
		t.Errorf("marshal = %s, want 4", b)
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		if !validCategory(c) {
			t.Errorf("%q should be valid", c)
		}
	}
	if validCategory("random") {
		t.Error("unknown category accepted")
	}
	if validCategory("") {
		t.Error("empty category accepted")
	}
}
