// Package transfer reads and writes the JSON interchange format used for
// backups and cross-device sync. Parsing is deliberately forgiving: several
// generations of the card shape exist in the wild (string backs, card-level
// language/speaker fields, nextReviewAt, top-level postId) and all of them
// normalize to the current model.
package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yonase/langcard/internal/clock"
	"github.com/yonase/langcard/internal/domain"
)

// Version is the payload format version. Older payloads without a version
// are accepted; newer ones are rejected.
const Version = 1

var ErrUnsupportedVersion = fmt.Errorf("transfer: unsupported payload version")

// Payload is a full snapshot of posts and cards.
type Payload struct {
	Version         int                     `json:"version"`
	ExportedAt      time.Time               `json:"exportedAt"`
	Posts           []domain.Post           `json:"posts"`
	VocabularyCards []domain.VocabularyCard `json:"vocabularyCards"`
}

// Export serializes posts and cards at the current format version. The
// output is indented so exports stay diffable in a git-backed journal repo.
func Export(cards []domain.VocabularyCard, posts []domain.Post, now time.Time) ([]byte, error) {
	p := Payload{
		Version:         Version,
		ExportedAt:      now,
		Posts:           posts,
		VocabularyCards: cards,
	}
	if p.Posts == nil {
		p.Posts = []domain.Post{}
	}
	if p.VocabularyCards == nil {
		p.VocabularyCards = []domain.VocabularyCard{}
	}
	return json.MarshalIndent(p, "", "  ")
}

// timestamp accepts RFC 3339 strings, epoch milliseconds, and null.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null" || s == `""`:
		t.Time = time.Time{}
		return nil
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return fmt.Errorf("transfer: bad timestamp %q: %w", str, err)
		}
		t.Time = parsed
		return nil
	default:
		ms, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("transfer: bad timestamp %s: %w", s, err)
		}
		t.Time = time.UnixMilli(int64(ms))
		return nil
	}
}

// rawBack is a back entry as found on the wire, possibly a bare string.
type rawBack struct {
	Content       string
	Language      string
	Pronunciation string
	Speaker       string
	FromPostID    int64
	TextIndex     *int
	isString      bool
}

func (b *rawBack) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		b.isString = true
		return json.Unmarshal(data, &b.Content)
	}
	var obj struct {
		Content       string `json:"content"`
		Language      string `json:"language"`
		Pronunciation string `json:"pronunciation"`
		Note          string `json:"note"`
		Speaker       string `json:"speaker"`
		SpeakerType   string `json:"speaker_type"`
		FromPostID    int64  `json:"fromPostId"`
		TextIndex     *int   `json:"textIndex"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	b.Content = obj.Content
	b.Language = obj.Language
	b.Pronunciation = obj.Pronunciation
	if b.Pronunciation == "" {
		b.Pronunciation = obj.Note
	}
	b.Speaker = obj.Speaker
	if b.Speaker == "" {
		b.Speaker = obj.SpeakerType
	}
	b.FromPostID = obj.FromPostID
	b.TextIndex = obj.TextIndex
	return nil
}

type rawCard struct {
	ID                 int64             `json:"id"`
	Front              string            `json:"front"`
	FrontLanguage      string            `json:"frontLanguage"`
	FrontPronunciation string            `json:"frontPronunciation"`
	FrontSpeaker       string            `json:"frontSpeaker"`
	Language           string            `json:"language"`
	Pronunciation      string            `json:"pronunciation"`
	Speaker            string            `json:"speaker"`
	SpeakerType        string            `json:"speaker_type"`
	FrontSource        *domain.SourceRef `json:"frontSource"`
	FromPostID         int64             `json:"fromPostId"`
	PostID             *int64            `json:"postId"`
	TextIndex          *int              `json:"textIndex"`
	Back               []rawBack         `json:"back"`
	Content            *rawBack          `json:"content"`
	RememberCount      int               `json:"rememberCount"`
	NextReviewDate     string            `json:"nextReviewDate"`
	NextReviewAt       *timestamp        `json:"nextReviewAt"`
	IsArchived         bool              `json:"isArchived"`
	Tags               []string          `json:"tags"`
	CreatedAt          timestamp         `json:"createdAt"`
	UpdatedAt          timestamp         `json:"updatedAt"`
}

type rawText struct {
	Content       string `json:"content"`
	Language      string `json:"language"`
	Pronunciation string `json:"pronunciation"`
	Speaker       string `json:"speaker"`
	SpeakerType   string `json:"speaker_type"`
}

type rawPost struct {
	ID        int64     `json:"id"`
	Texts     []rawText `json:"texts"`
	Tags      []string  `json:"tags"`
	IsDeleted bool      `json:"isDeleted"`
	CreatedAt timestamp `json:"createdAt"`
	UpdatedAt timestamp `json:"updatedAt"`
}

type rawPayload struct {
	Version         int       `json:"version"`
	ExportedAt      timestamp `json:"exportedAt"`
	Posts           []rawPost `json:"posts"`
	VocabularyCards []rawCard `json:"vocabularyCards"`
}

// Parse decodes a payload, normalizing legacy card and post shapes. Missing
// createdAt defaults to the payload's exportedAt; missing updatedAt defaults
// to createdAt, so merge treats undated records as oldest.
func Parse(data []byte) (*Payload, error) {
	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("transfer: decode: %w", err)
	}
	if raw.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, raw.Version)
	}

	p := &Payload{
		Version:    Version,
		ExportedAt: raw.ExportedAt.Time,
	}
	for _, rp := range raw.Posts {
		p.Posts = append(p.Posts, normalizePost(rp, raw.ExportedAt.Time))
	}
	for _, rc := range raw.VocabularyCards {
		p.VocabularyCards = append(p.VocabularyCards, normalizeCard(rc, raw.ExportedAt.Time))
	}
	return p, nil
}

func pickSpeaker(values ...string) domain.Speaker {
	for _, v := range values {
		if v != "" {
			return domain.Speaker(v).Normalize()
		}
	}
	return domain.SpeakerNone
}

func normalizeCard(rc rawCard, exportedAt time.Time) domain.VocabularyCard {
	inherit := pickSpeaker(rc.FrontSpeaker, rc.Speaker, rc.SpeakerType)

	backs := rc.Back
	if len(backs) == 0 && rc.Content != nil {
		backs = []rawBack{*rc.Content}
	}
	var entries []domain.BackEntry
	for _, rb := range backs {
		if strings.TrimSpace(rb.Content) == "" {
			continue
		}
		e := domain.BackEntry{
			Content:       rb.Content,
			Language:      rb.Language,
			Pronunciation: rb.Pronunciation,
			Speaker:       pickSpeaker(rb.Speaker, string(inherit)),
			FromPostID:    rb.FromPostID,
			TextIndex:     rb.TextIndex,
		}
		// A bare string back carries no metadata of its own; it inherits
		// the card-level legacy fields.
		if rb.isString {
			e.Language = rc.Language
			e.Pronunciation = rc.Pronunciation
		}
		if e.FromPostID == 0 && rc.PostID != nil {
			e.FromPostID = *rc.PostID
		}
		entries = append(entries, e)
	}

	frontSource := rc.FrontSource
	if frontSource == nil && rc.PostID != nil {
		ref := domain.SourceRef{PostID: *rc.PostID}
		if rc.TextIndex != nil {
			ref.TextIndex = *rc.TextIndex
		}
		frontSource = &ref
	}

	fromPostID := rc.FromPostID
	if fromPostID == 0 && rc.PostID != nil {
		fromPostID = *rc.PostID
	}

	frontLanguage := rc.FrontLanguage
	if frontLanguage == "" {
		frontLanguage = rc.Language
	}
	frontPronunciation := rc.FrontPronunciation
	if frontPronunciation == "" {
		frontPronunciation = rc.Pronunciation
	}

	createdAt := rc.CreatedAt.Time
	if createdAt.IsZero() {
		createdAt = exportedAt
	}
	updatedAt := rc.UpdatedAt.Time
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	rememberCount := rc.RememberCount
	if rememberCount < 0 {
		rememberCount = 0
	}

	return domain.VocabularyCard{
		ID:                 rc.ID,
		Front:              rc.Front,
		FrontLanguage:      frontLanguage,
		FrontPronunciation: frontPronunciation,
		FrontSpeaker:       inherit,
		FrontSource:        frontSource,
		FromPostID:         fromPostID,
		Back:               entries,
		RememberCount:      rememberCount,
		NextReviewDate:     normalizeReviewDate(rc.NextReviewDate, rc.NextReviewAt),
		IsArchived:         rc.IsArchived,
		Tags:               rc.Tags,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}
}

// normalizeReviewDate maps the legacy nextReviewAt instant onto the day-key
// model when nextReviewDate is absent.
func normalizeReviewDate(date string, at *timestamp) clock.DayKey {
	key := clock.DayKey(strings.TrimSpace(date))
	if key.Valid() {
		return key
	}
	if at != nil && !at.IsZero() {
		return clock.Day(at.Time)
	}
	return ""
}

func normalizePost(rp rawPost, exportedAt time.Time) domain.Post {
	createdAt := rp.CreatedAt.Time
	if createdAt.IsZero() {
		createdAt = exportedAt
	}
	updatedAt := rp.UpdatedAt.Time
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	texts := make([]domain.PostText, 0, len(rp.Texts))
	for _, rt := range rp.Texts {
		texts = append(texts, domain.PostText{
			Content:       rt.Content,
			Language:      rt.Language,
			Pronunciation: rt.Pronunciation,
			Speaker:       pickSpeaker(rt.Speaker, rt.SpeakerType),
		})
	}
	return domain.Post{
		ID:        rp.ID,
		Texts:     texts,
		Tags:      rp.Tags,
		IsDeleted: rp.IsDeleted,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}
