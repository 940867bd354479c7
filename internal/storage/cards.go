package storage

import (
	"database/sql"
	"fmt"

	"github.com/yonase/langcard/internal/domain"
)

// LoadAll retrieves every card with its back entries in stored order.
func (db *DB) LoadAll() ([]domain.VocabularyCard, error) {
	rows, err := db.conn.Query(`
		SELECT id, front, front_language, front_pronunciation, front_speaker,
		       front_post_id, front_text_index, from_post_id, remember_count,
		       next_review_date, is_archived, tags, created_at, updated_at
		FROM cards ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.VocabularyCard
	index := map[int64]int{}
	for rows.Next() {
		var (
			c              domain.VocabularyCard
			frontSpeaker   string
			frontPostID    sql.NullInt64
			frontTextIndex sql.NullInt64
			fromPostID     sql.NullInt64
			nextReview     sql.NullString
			rawTags        sql.NullString
		)
		if err := rows.Scan(
			&c.ID,
			&c.Front,
			&c.FrontLanguage,
			&c.FrontPronunciation,
			&frontSpeaker,
			&frontPostID,
			&frontTextIndex,
			&fromPostID,
			&c.RememberCount,
			&nextReview,
			&c.IsArchived,
			&rawTags,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		c.FrontSpeaker = speakerOrNone(frontSpeaker)
		if frontPostID.Valid {
			ref := domain.SourceRef{PostID: frontPostID.Int64}
			if frontTextIndex.Valid {
				ref.TextIndex = int(frontTextIndex.Int64)
			}
			c.FrontSource = &ref
		}
		c.FromPostID = fromPostID.Int64
		c.NextReviewDate = decodeDayKey(nextReview)
		if c.Tags, err = decodeTags(rawTags); err != nil {
			return nil, err
		}
		index[c.ID] = len(cards)
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}

	if err := db.attachBackEntries(cards, index); err != nil {
		return nil, err
	}
	return cards, nil
}

func (db *DB) attachBackEntries(cards []domain.VocabularyCard, index map[int64]int) error {
	rows, err := db.conn.Query(`
		SELECT card_id, content, language, pronunciation, speaker, from_post_id, text_index
		FROM back_entries ORDER BY card_id, position
	`)
	if err != nil {
		return fmt.Errorf("failed to load back entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cardID     int64
			e          domain.BackEntry
			speaker    string
			fromPostID sql.NullInt64
			textIndex  sql.NullInt64
		)
		if err := rows.Scan(&cardID, &e.Content, &e.Language, &e.Pronunciation, &speaker, &fromPostID, &textIndex); err != nil {
			return fmt.Errorf("failed to scan back entry row: %w", err)
		}
		e.Speaker = speakerOrNone(speaker)
		e.FromPostID = fromPostID.Int64
		e.TextIndex = intPtr(textIndex)
		i, ok := index[cardID]
		if !ok {
			continue // orphaned row, skip
		}
		cards[i].Back = append(cards[i].Back, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate back entry rows: %w", err)
	}
	return nil
}

// SaveCard upserts a card and replaces its back entries in one transaction.
func (db *DB) SaveCard(card domain.VocabularyCard) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin card save: %w", err)
	}
	defer tx.Rollback()

	tags, err := encodeTags(card.Tags)
	if err != nil {
		return err
	}
	var frontPostID, frontTextIndex sql.NullInt64
	if card.FrontSource != nil {
		frontPostID = sql.NullInt64{Int64: card.FrontSource.PostID, Valid: true}
		frontTextIndex = sql.NullInt64{Int64: int64(card.FrontSource.TextIndex), Valid: true}
	}

	if _, err := tx.Exec(`
		INSERT INTO cards (id, front, front_language, front_pronunciation, front_speaker,
		                   front_post_id, front_text_index, from_post_id, remember_count,
		                   next_review_date, is_archived, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			front = excluded.front,
			front_language = excluded.front_language,
			front_pronunciation = excluded.front_pronunciation,
			front_speaker = excluded.front_speaker,
			front_post_id = excluded.front_post_id,
			front_text_index = excluded.front_text_index,
			from_post_id = excluded.from_post_id,
			remember_count = excluded.remember_count,
			next_review_date = excluded.next_review_date,
			is_archived = excluded.is_archived,
			tags = excluded.tags,
			updated_at = excluded.updated_at
	`,
		card.ID,
		card.Front,
		card.FrontLanguage,
		card.FrontPronunciation,
		string(card.FrontSpeaker.Normalize()),
		frontPostID,
		frontTextIndex,
		nullInt64(card.FromPostID),
		card.RememberCount,
		encodeDayKey(card.NextReviewDate),
		card.IsArchived,
		tags,
		card.CreatedAt,
		card.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to save card %d: %w", card.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM back_entries WHERE card_id = ?`, card.ID); err != nil {
		return fmt.Errorf("failed to clear back entries for card %d: %w", card.ID, err)
	}
	for i, e := range card.Back {
		if _, err := tx.Exec(`
			INSERT INTO back_entries (card_id, position, content, language, pronunciation, speaker, from_post_id, text_index)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			card.ID,
			i,
			e.Content,
			e.Language,
			e.Pronunciation,
			string(e.Speaker.Normalize()),
			nullInt64(e.FromPostID),
			nullIntPtr(e.TextIndex),
		); err != nil {
			return fmt.Errorf("failed to save back entry %d of card %d: %w", i, card.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card %d: %w", card.ID, err)
	}
	return nil
}

// DeleteCard removes a card and its back entries.
func (db *DB) DeleteCard(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin card delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM back_entries WHERE card_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete back entries for card %d: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM cards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete card %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete of card %d: %w", id, err)
	}
	return nil
}
