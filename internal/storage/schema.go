package storage

const schema = `
-- The 'cards' table stores one row per vocabulary card. Post references are
-- weak: a card survives the deletion of the post it was derived from, so
-- there is deliberately no foreign key onto posts.
CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY,
    front TEXT NOT NULL,
    front_language TEXT NOT NULL DEFAULT '',
    front_pronunciation TEXT NOT NULL DEFAULT '',
    front_speaker TEXT NOT NULL DEFAULT 'none',
    front_post_id INTEGER,
    front_text_index INTEGER,
    from_post_id INTEGER,
    remember_count INTEGER NOT NULL DEFAULT 0,
    next_review_date TEXT, -- YYYY-MM-DD, NULL = unscheduled (due immediately)
    is_archived INTEGER NOT NULL DEFAULT 0,
    tags TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

-- Ordered back entries of a card, replaced wholesale on every card save.
CREATE TABLE IF NOT EXISTS back_entries (
    card_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    content TEXT NOT NULL,
    language TEXT NOT NULL DEFAULT '',
    pronunciation TEXT NOT NULL DEFAULT '',
    speaker TEXT NOT NULL DEFAULT 'none',
    from_post_id INTEGER,
    text_index INTEGER,

    PRIMARY KEY (card_id, position),
    FOREIGN KEY(card_id) REFERENCES cards(id)
);

-- Journal posts imported from synced sources.
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY,
    tags TEXT,
    is_deleted INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

-- Ordered language-tagged fragments of a post.
CREATE TABLE IF NOT EXISTS post_texts (
    post_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    content TEXT NOT NULL,
    language TEXT NOT NULL DEFAULT '',
    pronunciation TEXT NOT NULL DEFAULT '',
    speaker TEXT NOT NULL DEFAULT 'none',

    PRIMARY KEY (post_id, position),
    FOREIGN KEY(post_id) REFERENCES posts(id)
);

-- The 'sources' table tracks where journal exports are pulled from, either a
-- local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    last_scanned DATETIME
);
`
