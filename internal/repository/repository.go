package repository

import (
	"context"
	"time"

	"github.com/article-engagement-api/internal/database"
	"github.com/article-engagement-api/internal/models"
)

// UserRepository defines the interface for user lookups
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.UserRef, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.UserRef, error)
}

// ArticleRepository defines the interface for article lookups
type ArticleRepository interface {
	GetByID(ctx context.Context, id string) (*models.ArticleRef, error)
}

// ReactionRepository defines the interface for reaction ledger rows
type ReactionRepository interface {
	Get(ctx context.Context, userID, articleID string, kind models.ReactionKind) (*models.Reaction, error)
	Insert(ctx context.Context, reaction *models.Reaction) error
	Delete(ctx context.Context, userID, articleID string, kind models.ReactionKind) (bool, error)
	ListByUserAndKind(ctx context.Context, userID string, kind models.ReactionKind) ([]*models.ReactedArticle, error)
	CountByArticle(ctx context.Context, articleID string) (models.ReactionCounts, error)
	CountByKind(ctx context.Context) (map[models.ReactionKind]int, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	UpdateText(ctx context.Context, id, text string, updatedAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByArticle(ctx context.Context, articleID string, limit int) ([]*models.Comment, error)
	Count(ctx context.Context) (int, error)
}

// ReplyRepository defines the interface for reply data operations
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	GetByID(ctx context.Context, id string) (*models.Reply, error)
	UpdateText(ctx context.Context, id, text string, updatedAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByComment(ctx context.Context, commentID string) (int, error)
	ListByComments(ctx context.Context, commentIDs []string) ([]*models.Reply, error)
	Count(ctx context.Context) (int, error)
}

// Transactor runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	User     UserRepository
	Article  ArticleRepository
	Reaction ReactionRepository
	Comment  CommentRepository
	Reply    ReplyRepository
	Tx       Transactor
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	c := conn{q: db, bound: db.WithTimeout}
	repos := bind(c)
	repos.Tx = &pgTransactor{db: db}
	return repos
}

func bind(c conn) *Repositories {
	return &Repositories{
		User:     newUserRepo(c),
		Article:  newArticleRepo(c),
		Reaction: newReactionRepo(c),
		Comment:  newCommentRepo(c),
		Reply:    newReplyRepo(c),
	}
}

// conn is what every repository queries through: the pool or a transaction,
// plus the per-query deadline applied outside transactions.
type conn struct {
	q     database.Querier
	bound func(context.Context) (context.Context, context.CancelFunc)
}

func (c conn) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.bound == nil {
		return ctx, func() {}
	}
	return c.bound(ctx)
}
