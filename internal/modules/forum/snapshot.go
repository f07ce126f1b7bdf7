package forum

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// FeedLimit is the store-side cap on topics per snapshot.
const FeedLimit = 50

// PageSize is the fixed page size for the topic listing.
const PageSize = 10

// Count is a counter that tolerates both wire shapes the legacy store
// produced: a plain number, or a map whose key count stands in for the value.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Count(n)
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = Count(len(m))
	return nil
}

func (c Count) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(c))
}

// TopicView is the wire form of a topic inside a feed snapshot. Timestamps
// are epoch milliseconds.
type TopicView struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Category     string `json:"category"`
	Author       string `json:"author"`
	AuthorID     string `json:"author_id"`
	AuthorAvatar string `json:"author_avatar,omitempty"`
	IsSticky     bool   `json:"is_sticky"`
	Likes        Count  `json:"likes"`
	Views        Count  `json:"views"`
	Replies      Count  `json:"replies"`
	CreatedAt    int64  `json:"created_at"`
	LastActivity int64  `json:"last_activity"`
}

// Snapshot is a full replacement of the feed view, not an incremental diff.
type Snapshot struct {
	Topics      []TopicView `json:"topics"`
	GeneratedAt int64       `json:"generated_at"`
}

func viewFromTopic(t Topic) TopicView {
	return TopicView{
		ID:           t.ID.String(),
		Title:        t.Title,
		Content:      t.Content,
		Category:     t.Category,
		Author:       t.Author,
		AuthorID:     t.AuthorID.String(),
		AuthorAvatar: t.AuthorAvatar,
		IsSticky:     t.IsSticky,
		Likes:        Count(t.Likes),
		Views:        Count(t.Views),
		Replies:      Count(t.Replies),
		CreatedAt:    t.CreatedAt.UnixMilli(),
		LastActivity: t.LastActivity.UnixMilli(),
	}
}

// SortTopics orders a snapshot for display: sticky topics first, stable among
// themselves, then descending last_activity for the rest.
func SortTopics(topics []TopicView) {
	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].IsSticky != topics[j].IsSticky {
			return topics[i].IsSticky
		}
		if topics[i].IsSticky {
			// Sticky block keeps its incoming order.
			return false
		}
		return topics[i].LastActivity > topics[j].LastActivity
	})
}

// FilterTopics narrows the held snapshot. search matches case-insensitively
// against title, content and author substrings; category is an exact match.
// Both operate on the local snapshot, not as store queries.
func FilterTopics(topics []TopicView, search, category string) []TopicView {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]TopicView, 0, len(topics))
	for _, t := range topics {
		if category != "" && t.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Content), search) &&
			!strings.Contains(strings.ToLower(t.Author), search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Paginate slices one fixed-size page out of the filtered list. Pages are
// 1-based; out-of-range pages yield an empty slice.
func Paginate(topics []TopicView, page int) []TopicView {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * PageSize
	if start >= len(topics) {
		return []TopicView{}
	}
	end := start + PageSize
	if end > len(topics) {
		end = len(topics)
	}
	return topics[start:end]
}

func newSnapshot(topics []Topic) Snapshot {
	views := make([]TopicView, len(topics))
	for i, t := range topics {
		views[i] = viewFromTopic(t)
	}
	SortTopics(views)
	return Snapshot{Topics: views, GeneratedAt: time.Now().UnixMilli()}
}
