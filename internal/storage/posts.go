package storage

import (
	"database/sql"
	"fmt"

	"github.com/yonase/langcard/internal/domain"
)

// SavePost upserts a post and replaces its text fragments.
func (db *DB) SavePost(post domain.Post) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin post save: %w", err)
	}
	defer tx.Rollback()

	tags, err := encodeTags(post.Tags)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO posts (id, tags, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tags = excluded.tags,
			is_deleted = excluded.is_deleted,
			updated_at = excluded.updated_at
	`, post.ID, tags, post.IsDeleted, post.CreatedAt, post.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save post %d: %w", post.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM post_texts WHERE post_id = ?`, post.ID); err != nil {
		return fmt.Errorf("failed to clear texts for post %d: %w", post.ID, err)
	}
	for i, t := range post.Texts {
		if _, err := tx.Exec(`
			INSERT INTO post_texts (post_id, position, content, language, pronunciation, speaker)
			VALUES (?, ?, ?, ?, ?, ?)
		`, post.ID, i, t.Content, t.Language, t.Pronunciation, string(t.Speaker.Normalize())); err != nil {
			return fmt.Errorf("failed to save text %d of post %d: %w", i, post.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit post %d: %w", post.ID, err)
	}
	return nil
}

// PostByID retrieves a post with its fragments, or nil when it does not
// exist. Satisfies domain.PostProvider.
func (db *DB) PostByID(id int64) (*domain.Post, error) {
	var (
		p       domain.Post
		rawTags sql.NullString
	)
	row := db.conn.QueryRow(`
		SELECT id, tags, is_deleted, created_at, updated_at
		FROM posts WHERE id = ?
	`, id)
	err := row.Scan(&p.ID, &rawTags, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Post not found
		}
		return nil, fmt.Errorf("failed to find post %d: %w", id, err)
	}
	if p.Tags, err = decodeTags(rawTags); err != nil {
		return nil, err
	}
	if p.Texts, err = db.postTexts(id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) postTexts(postID int64) ([]domain.PostText, error) {
	rows, err := db.conn.Query(`
		SELECT content, language, pronunciation, speaker
		FROM post_texts WHERE post_id = ? ORDER BY position
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load texts for post %d: %w", postID, err)
	}
	defer rows.Close()

	var texts []domain.PostText
	for rows.Next() {
		var (
			t       domain.PostText
			speaker string
		)
		if err := rows.Scan(&t.Content, &t.Language, &t.Pronunciation, &speaker); err != nil {
			return nil, fmt.Errorf("failed to scan text row for post %d: %w", postID, err)
		}
		t.Speaker = speakerOrNone(speaker)
		texts = append(texts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate text rows for post %d: %w", postID, err)
	}
	return texts, nil
}

// AllPosts retrieves every post, newest first.
func (db *DB) AllPosts() ([]domain.Post, error) {
	rows, err := db.conn.Query(`
		SELECT id, tags, is_deleted, created_at, updated_at
		FROM posts ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var (
			p       domain.Post
			rawTags sql.NullString
		)
		if err := rows.Scan(&p.ID, &rawTags, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		if p.Tags, err = decodeTags(rawTags); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate post rows: %w", err)
	}

	for i := range posts {
		if posts[i].Texts, err = db.postTexts(posts[i].ID); err != nil {
			return nil, err
		}
	}
	return posts, nil
}
