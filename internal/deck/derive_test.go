package deck

import (
	"errors"
	"testing"
	"time"

	"github.com/yonase/langcard/internal/domain"
)

func testPost() *domain.Post {
	return &domain.Post{
		ID: 7,
		Texts: []domain.PostText{
			{Content: "어디에 가요?", Language: "ko-KR", Speaker: domain.SpeakerMe},
			{Content: "どこに行きますか？", Language: "ja", Speaker: domain.SpeakerFriend},
			{Content: "   ", Language: "ja"},
		},
		CreatedAt: time.Date(2024, 4, 1, 8, 0, 0, 0, time.Local),
	}
}

func TestAddFrontFromPost(t *testing.T) {
	s, p := newTestStore(t)
	post := testPost()

	card, err := s.AddFrontFromPost(post, 0)
	if err != nil {
		t.Fatalf("AddFrontFromPost returned an unexpected error: %v", err)
	}
	if card == nil {
		t.Fatal("Expected a card, but got nil")
	}
	if card.Front != "어디에 가요?" {
		t.Errorf("Expected front to be the trimmed fragment, but got %q", card.Front)
	}
	if card.FrontLanguage != "ko-KR" || card.FrontSpeaker != domain.SpeakerMe {
		t.Errorf("Expected fragment metadata to be copied, but got lang %q speaker %q", card.FrontLanguage, card.FrontSpeaker)
	}
	if card.FrontSource == nil || card.FrontSource.PostID != 7 || card.FrontSource.TextIndex != 0 {
		t.Errorf("Expected frontSource {7, 0}, but got %+v", card.FrontSource)
	}
	if card.RememberCount != 0 {
		t.Errorf("Expected rememberCount 0, but got %d", card.RememberCount)
	}
	if card.NextReviewDate != "2024-05-01" {
		t.Errorf("Expected next review today, but got %s", card.NextReviewDate)
	}
	if len(card.Back) != 0 {
		t.Errorf("Expected an empty back, but got %d entries", len(card.Back))
	}
	if _, ok := p.cards[card.ID]; !ok {
		t.Error("Expected the derived card to be persisted immediately")
	}
}

func TestAddFrontFromPostIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	post := testPost()

	first, err := s.AddFrontFromPost(post, 0)
	if err != nil {
		t.Fatalf("first derivation returned an unexpected error: %v", err)
	}
	second, err := s.AddFrontFromPost(post, 0)
	if err != nil {
		t.Fatalf("second derivation returned an unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Expected the existing card (%d) back, but got a new card (%d)", first.ID, second.ID)
	}
	if s.Count() != 1 {
		t.Errorf("Expected exactly one card in the store, but got %d", s.Count())
	}
}

func TestAddFrontFromPostNoOps(t *testing.T) {
	s, _ := newTestStore(t)
	deleted := testPost()
	deleted.IsDeleted = true

	testCases := []struct {
		name  string
		post  *domain.Post
		index int
	}{
		{name: "nil post", post: nil, index: 0},
		{name: "deleted post", post: deleted, index: 0},
		{name: "blank fragment", post: testPost(), index: 2},
		{name: "out of range fragment", post: testPost(), index: 9},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			card, err := s.AddFrontFromPost(tc.post, tc.index)
			if err != nil {
				t.Fatalf("Expected a silent no-op, but got error %v", err)
			}
			if card != nil {
				t.Errorf("Expected no card, but got id %d", card.ID)
			}
		})
	}
	if s.Count() != 0 {
		t.Errorf("Expected the store to stay empty, but it has %d cards", s.Count())
	}
}

func TestAppendBackFromPost(t *testing.T) {
	s, _ := newTestStore(t)
	post := testPost()

	card, err := s.AddFrontFromPost(post, 0)
	if err != nil {
		t.Fatalf("derivation returned an unexpected error: %v", err)
	}

	got, err := s.AppendBackFromPost(card.ID, post, 1)
	if err != nil {
		t.Fatalf("AppendBackFromPost returned an unexpected error: %v", err)
	}
	if len(got.Back) != 1 {
		t.Fatalf("Expected 1 back entry, but got %d", len(got.Back))
	}
	entry := got.Back[0]
	if entry.Content != "どこに行きますか？" || entry.Language != "ja" || entry.Speaker != domain.SpeakerFriend {
		t.Errorf("Expected fragment data on the entry, but got %+v", entry)
	}
	if entry.FromPostID != 7 || entry.TextIndex == nil || *entry.TextIndex != 1 {
		t.Errorf("Expected back source (7, 1), but got fromPostId %d textIndex %v", entry.FromPostID, entry.TextIndex)
	}

	// Re-adding the same fragment is allowed (warned, not deduped).
	again, err := s.AppendBackFromPost(card.ID, post, 1)
	if err != nil {
		t.Fatalf("second append returned an unexpected error: %v", err)
	}
	if len(again.Back) != 2 {
		t.Errorf("Expected 2 back entries after re-adding, but got %d", len(again.Back))
	}
}

func TestAppendBackFromPostNoOps(t *testing.T) {
	s, _ := newTestStore(t)
	card, _ := s.AddFrontFromPost(testPost(), 0)

	got, err := s.AppendBackFromPost(card.ID, testPost(), 2)
	if err != nil || got != nil {
		t.Errorf("Expected blank fragment to be a silent no-op, but got (%v, %v)", got, err)
	}

	if _, err := s.AppendBackFromPost(42, testPost(), 1); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound for an unknown card, but got %v", err)
	}
}

func TestCreateWithBack(t *testing.T) {
	s, _ := newTestStore(t)
	post := testPost()

	card, err := s.CreateWithBack("どこに行く？", &domain.SourceRef{PostID: 7, TextIndex: 1}, post, 0)
	if err != nil {
		t.Fatalf("CreateWithBack returned an unexpected error: %v", err)
	}
	if card.Front != "どこに行く？" {
		t.Errorf("Expected the supplied front, but got %q", card.Front)
	}
	if len(card.Back) != 1 || card.Back[0].Content != "어디에 가요?" {
		t.Errorf("Expected the fragment as the sole back entry, but got %+v", card.Back)
	}

	// A back-only card is never persisted: the front is mandatory here.
	if _, err := s.CreateWithBack("  ", nil, post, 1); !errors.Is(err, ErrInvalidCard) {
		t.Errorf("Expected ErrInvalidCard for a blank front, but got %v", err)
	}
}

func TestCardsFromPost(t *testing.T) {
	s, _ := newTestStore(t)
	post := testPost()
	a, _ := s.AddFrontFromPost(post, 0)
	b, _ := s.AddFrontFromPost(post, 1)
	if err := s.SetArchived(b.ID, true); err != nil {
		t.Fatalf("SetArchived returned an unexpected error: %v", err)
	}

	got := s.CardsFromPost(7)
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("Expected only the non-archived card %d, but got %+v", a.ID, got)
	}
}
