package models

import (
	"time"
)

// ReactionKind is the kind of relation a user holds to an article.
type ReactionKind string

const (
	ReactionLike     ReactionKind = "like"
	ReactionDislike  ReactionKind = "dislike"
	ReactionBookmark ReactionKind = "bookmark"
)

// ValidReactionKinds defines the kinds accepted from clients
var ValidReactionKinds = map[ReactionKind]bool{
	ReactionLike:     true,
	ReactionDislike:  true,
	ReactionBookmark: true,
}

// ParseReactionKind accepts the lowercase kind name used on the wire.
func ParseReactionKind(s string) (ReactionKind, bool) {
	kind := ReactionKind(s)
	return kind, ValidReactionKinds[kind]
}

// Reaction is one row of the reaction ledger.
type Reaction struct {
	ID        string       `json:"id" db:"id"`
	UserID    string       `json:"user_id" db:"user_id"`
	ArticleID string       `json:"article_id" db:"article_id"`
	Kind      ReactionKind `json:"kind" db:"kind"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// ReactedArticle is a reaction resolved to the article it points at.
type ReactedArticle struct {
	Reaction Reaction   `json:"reaction"`
	Article  ArticleRef `json:"article"`
}

// ReactionCounts holds row counts for an article.
type ReactionCounts struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// ReactionSummary is returned after a reaction changes: the article's counts
// plus the caller's own relations to it.
type ReactionSummary struct {
	ArticleID  string `json:"article_id"`
	Likes      int    `json:"likes"`
	Dislikes   int    `json:"dislikes"`
	Liked      bool   `json:"liked"`
	Disliked   bool   `json:"disliked"`
	Bookmarked bool   `json:"bookmarked"`
}

// EngagementStats are global totals for the dashboard.
type EngagementStats struct {
	Comments  int `json:"comments"`
	Replies   int `json:"replies"`
	Likes     int `json:"likes"`
	Dislikes  int `json:"dislikes"`
	Bookmarks int `json:"bookmarks"`
}
