package models

import (
	"time"
)

// Comment is a top-level comment on an article.
type Comment struct {
	ID            string    `json:"id" db:"id"`
	ArticleID     string    `json:"article_id" db:"article_id"`
	CommentatorID string    `json:"commentator_id" db:"commentator_id"`
	Commentator   *UserRef  `json:"commentator,omitempty" db:"-"`
	Text          string    `json:"text" db:"text"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Reply answers a comment. Replies do not nest further.
type Reply struct {
	ID        string    `json:"id" db:"id"`
	CommentID string    `json:"comment_id" db:"comment_id"`
	ReplierID string    `json:"replier_id" db:"replier_id"`
	Replier   *UserRef  `json:"replier,omitempty" db:"-"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CommentThread is a comment with its replies, oldest reply first.
type CommentThread struct {
	Comment
	Replies []*Reply `json:"replies"`
}

// MaxTextLength is the maximum length, in characters, of comment and reply text
const MaxTextLength = 200
