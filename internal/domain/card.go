package domain

import (
	"strings"
	"time"

	"github.com/yonase/langcard/internal/clock"
)

// Speaker identifies whose words a fragment records.
type Speaker string

const (
	SpeakerMe     Speaker = "me"
	SpeakerFriend Speaker = "friend"
	SpeakerStaff  Speaker = "staff"
	SpeakerOther  Speaker = "other"
	SpeakerNone   Speaker = "none"
)

// IsValid reports whether s is a member of the fixed speaker set.
func (s Speaker) IsValid() bool {
	switch s {
	case SpeakerMe, SpeakerFriend, SpeakerStaff, SpeakerOther, SpeakerNone:
		return true
	}
	return false
}

// Normalize maps the zero value and legacy blanks to "none".
func (s Speaker) Normalize() Speaker {
	if s == "" {
		return SpeakerNone
	}
	return s
}

func (s Speaker) String() string { return string(s) }

// SourceRef is a weak reference to the post fragment a card front was copied
// from. It never implies ownership: the post can be deleted independently.
type SourceRef struct {
	PostID    int64 `json:"postId"`
	TextIndex int   `json:"textIndex"`
}

// BackEntry is one alternate phrasing on a card's back side.
type BackEntry struct {
	Content       string  `json:"content"`
	Language      string  `json:"language"`
	Pronunciation string  `json:"pronunciation,omitempty"`
	Speaker       Speaker `json:"speaker" validate:"omitempty,oneof=me friend staff other none"`
	FromPostID    int64   `json:"fromPostId,omitempty"`
	TextIndex     *int    `json:"textIndex,omitempty"`
}

// SameSource reports whether the entry was derived from the given fragment.
// Entries without a post reference never match.
func (b BackEntry) SameSource(postID int64, textIndex int) bool {
	return b.FromPostID != 0 && b.FromPostID == postID &&
		b.TextIndex != nil && *b.TextIndex == textIndex
}

// VocabularyCard is a reviewable unit derived from journal content.
//
// RememberCount only grows through "know" answers and resets to exactly zero
// on "don't know". NextReviewDate is empty for unscheduled (due immediately)
// cards. Archived cards are excluded from due-set computations.
type VocabularyCard struct {
	ID                 int64        `json:"id"`
	Front              string       `json:"front" validate:"required"`
	FrontLanguage      string       `json:"frontLanguage,omitempty"`
	FrontPronunciation string       `json:"frontPronunciation,omitempty"`
	FrontSpeaker       Speaker      `json:"frontSpeaker,omitempty" validate:"omitempty,oneof=me friend staff other none"`
	FrontSource        *SourceRef   `json:"frontSource,omitempty"`
	FromPostID         int64        `json:"fromPostId,omitempty"`
	Back               []BackEntry  `json:"back" validate:"dive"`
	RememberCount      int          `json:"rememberCount" validate:"min=0"`
	NextReviewDate     clock.DayKey `json:"nextReviewDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsArchived         bool         `json:"isArchived"`
	Tags               []string     `json:"tags,omitempty"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// Clone returns a deep copy of the card.
func (c VocabularyCard) Clone() VocabularyCard {
	out := c
	if c.FrontSource != nil {
		ref := *c.FrontSource
		out.FrontSource = &ref
	}
	out.Back = make([]BackEntry, len(c.Back))
	for i, b := range c.Back {
		if b.TextIndex != nil {
			idx := *b.TextIndex
			b.TextIndex = &idx
		}
		out.Back[i] = b
	}
	out.Tags = append([]string(nil), c.Tags...)
	return out
}

// ValidBackEntries returns the back entries with non-blank content.
func (c VocabularyCard) ValidBackEntries() []BackEntry {
	var out []BackEntry
	for _, b := range c.Back {
		if strings.TrimSpace(b.Content) != "" {
			out = append(out, b)
		}
	}
	return out
}

// HasFrontSource reports whether the card front was derived from the given
// fragment. Used for front-derivation dedup.
func (c VocabularyCard) HasFrontSource(postID int64, textIndex int) bool {
	return c.FrontSource != nil &&
		c.FrontSource.PostID == postID &&
		c.FrontSource.TextIndex == textIndex
}
