package blog

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Spaces  everywhere  ", "spaces-everywhere"},
		{"Überfest 2026!", "berfest-2026"},
		{"already-a-slug", "already-a-slug"},
		{"!!!", "post"},
		{"", "post"},
		{"Mixed CASE and 123 numbers", "mixed-case-and-123-numbers"},
	}

	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTagsJSON(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"nil becomes empty array", nil, `[]`},
		{"plain tags", []string{"news", "outreach"}, `["news","outreach"]`},
		{"quote is escaped", []string{`say "hi"`}, `["say \"hi\""]`},
		{"backslash is escaped", []string{`a\b`}, `["a\\b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tagsJSON(tt.in)
			if string(got) != tt.want {
				t.Errorf("tagsJSON(%v) = %s, want %s", tt.in, got, tt.want)
			}
			// Whatever goes into the jsonb column must be valid JSON.
			var decoded []string
			if err := json.Unmarshal(got, &decoded); err != nil {
				t.Errorf("tagsJSON produced invalid JSON: %v", err)
			}
		})
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := slugify(long)
	if len(got) > 200 {
		t.Errorf("slug length = %d, want <= 200", len(got))
	}
}
