package domain

import (
	"strings"
	"time"
)

// PostText is one language-tagged fragment in a journal post.
type PostText struct {
	Content       string  `json:"content"`
	Language      string  `json:"language"`
	Pronunciation string  `json:"pronunciation,omitempty"`
	Speaker       Speaker `json:"speaker"`
}

// Post is a journal entry. The card core only reads posts; deleting a post
// never cascades to the cards derived from it.
type Post struct {
	ID        int64      `json:"id"`
	Texts     []PostText `json:"texts"`
	Tags      []string   `json:"tags,omitempty"`
	IsDeleted bool       `json:"isDeleted"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Text returns the fragment at index, or nil when out of range.
func (p *Post) Text(index int) *PostText {
	if p == nil || index < 0 || index >= len(p.Texts) {
		return nil
	}
	return &p.Texts[index]
}

// FragmentContent returns the trimmed content of the fragment at index,
// or "" when the fragment is missing or blank.
func (p *Post) FragmentContent(index int) string {
	t := p.Text(index)
	if t == nil {
		return ""
	}
	return strings.TrimSpace(t.Content)
}

// PostProvider resolves journal posts by id. A nil post with a nil error
// means "source not found", which navigation handles gracefully.
type PostProvider interface {
	PostByID(id int64) (*Post, error)
}
