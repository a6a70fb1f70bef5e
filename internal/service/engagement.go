package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/article-engagement-api/internal/apperr"
	"github.com/article-engagement-api/internal/catalog"
	"github.com/article-engagement-api/internal/models"
	"github.com/article-engagement-api/internal/repository"
	"github.com/article-engagement-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EngagementService is the single entry point of the HTTP layer. It checks
// identifiers, resolves articles through the catalog and delegates to the
// ledger and the discussion tree.
type EngagementService interface {
	LikeArticle(ctx context.Context, articleID, callerID string) (*models.ReactionSummary, error)
	DislikeArticle(ctx context.Context, articleID, callerID string) (*models.ReactionSummary, error)
	RemoveReaction(ctx context.Context, articleID, callerID string, kind models.ReactionKind) (*models.ReactionSummary, error)
	BookmarkArticle(ctx context.Context, articleID, callerID string) error
	RemoveBookmark(ctx context.Context, articleID, callerID string) error
	ReactionCounts(ctx context.Context, articleID, callerID string) (*models.ReactionSummary, error)
	GetArticlesUserReactedTo(ctx context.Context, userID string, kind models.ReactionKind) ([]*models.ReactedArticle, error)

	PostComment(ctx context.Context, articleID, callerID, text string) (*models.Comment, error)
	EditComment(ctx context.Context, commentID, callerID, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, commentID, callerID string) error
	PostReply(ctx context.Context, commentID, callerID, text string) (*models.Reply, error)
	EditReply(ctx context.Context, replyID, callerID, text string) (*models.Reply, error)
	DeleteReply(ctx context.Context, replyID, callerID string) error
	GetLatestComments(ctx context.Context, articleID string, limit int) ([]*models.CommentThread, error)
	GetComment(ctx context.Context, commentID string) (*models.CommentThread, error)
	GetReply(ctx context.Context, replyID string) (*models.Reply, error)

	Stats(ctx context.Context) (*models.EngagementStats, error)
}

// engagementService is the concrete implementation of EngagementService
type engagementService struct {
	catalog   catalog.Catalog
	users     repository.UserRepository
	ledger    ReactionLedger
	tree      DiscussionTree
	validator *validation.Validator
	log       zerolog.Logger
}

func newEngagementService(cat catalog.Catalog, users repository.UserRepository, ledger ReactionLedger, tree DiscussionTree, validator *validation.Validator, log zerolog.Logger) *engagementService {
	return &engagementService{
		catalog:   cat,
		users:     users,
		ledger:    ledger,
		tree:      tree,
		validator: validator,
		log:       log.With().Str("service", "engagement").Logger(),
	}
}

func (s *engagementService) LikeArticle(ctx context.Context, articleID, callerID string) (*models.ReactionSummary, error) {
	article, caller, err := s.target(ctx, articleID, callerID)
	if err != nil {
		return nil, err
	}
	return s.ledger.React(ctx, article, caller, models.ReactionLike)
}

func (s *engagementService) DislikeArticle(ctx context.Context, articleID, callerID string) (*models.ReactionSummary, error) {
	article, caller, err := s.target(ctx, articleID, callerID)
	if err != nil {
		return nil, err
	}
	return s.ledger.React(ctx, article, caller, models.ReactionDislike)
}

func (s *engagementService) RemoveReaction(ctx context.Context, articleID, callerID string, kind models.ReactionKind) (*models.ReactionSummary, error) {
	article, caller, err := s.target(ctx, articleID, callerID)
	if err != nil {
		return nil, err
	}
	return s.ledger.Unreact(ctx, article, caller, kind)
}

func (s *engagementService) BookmarkArticle(ctx context.Context, articleID, callerID string) error {
	article, caller, err := s.target(ctx, articleID, callerID)
	if err != nil {
		return err
	}
	return s.ledger.Bookmark(ctx, article, caller)
}

func (s *engagementService) RemoveBookmark(ctx context.Context, articleID, callerID string) error {
	article, caller, err := s.target(ctx, articleID, callerID)
	if err != nil {
		return err
	}
	return s.ledger.Unbookmark(ctx, article, caller)
}

// ReactionCounts works for anonymous callers; callerID may be empty.
func (s *engagementService) ReactionCounts(ctx context.Context, articleID, callerID string) (*models.ReactionSummary, error) {
	article, err := s.article(ctx, articleID)
	if err != nil {
		return nil, err
	}
	caller := ""
	if strings.TrimSpace(callerID) != "" {
		caller = models.NormalizeID(callerID)
	}
	return s.ledger.Summary(ctx, article.ID, caller)
}

// GetArticlesUserReactedTo lists the articles the user reacted to with kind,
// leaving out hidden ones.
func (s *engagementService) GetArticlesUserReactedTo(ctx context.Context, userID string, kind models.ReactionKind) ([]*models.ReactedArticle, error) {
	user, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	kind, err = s.validator.ValidateReactionKind(string(kind))
	if err != nil {
		return nil, err
	}

	list, err := s.ledger.ListByUserAndKind(ctx, user, kind)
	if err != nil {
		return nil, err
	}

	visible := make([]*models.ReactedArticle, 0, len(list))
	for _, ra := range list {
		if !ra.Article.Hidden {
			visible = append(visible, ra)
		}
	}
	return visible, nil
}

func (s *engagementService) PostComment(ctx context.Context, articleID, callerID, text string) (*models.Comment, error) {
	article, caller, err := s.target(ctx, articleID, callerID)
	if err != nil {
		return nil, err
	}
	return s.tree.AddComment(ctx, article, caller, text)
}

func (s *engagementService) EditComment(ctx context.Context, commentID, callerID, text string) (*models.Comment, error) {
	id, caller, err := s.owned(ctx, "comment", commentID, callerID)
	if err != nil {
		return nil, err
	}
	return s.tree.EditComment(ctx, id, caller, text)
}

func (s *engagementService) DeleteComment(ctx context.Context, commentID, callerID string) error {
	id, caller, err := s.owned(ctx, "comment", commentID, callerID)
	if err != nil {
		return err
	}
	return s.tree.RemoveComment(ctx, id, caller)
}

func (s *engagementService) PostReply(ctx context.Context, commentID, callerID, text string) (*models.Reply, error) {
	id, caller, err := s.owned(ctx, "comment", commentID, callerID)
	if err != nil {
		return nil, err
	}
	return s.tree.AddReply(ctx, id, caller, text)
}

func (s *engagementService) EditReply(ctx context.Context, replyID, callerID, text string) (*models.Reply, error) {
	id, caller, err := s.owned(ctx, "reply", replyID, callerID)
	if err != nil {
		return nil, err
	}
	return s.tree.EditReply(ctx, id, caller, text)
}

func (s *engagementService) DeleteReply(ctx context.Context, replyID, callerID string) error {
	id, caller, err := s.owned(ctx, "reply", replyID, callerID)
	if err != nil {
		return err
	}
	return s.tree.RemoveReply(ctx, id, caller)
}

func (s *engagementService) GetLatestComments(ctx context.Context, articleID string, limit int) ([]*models.CommentThread, error) {
	if err := s.validator.ValidateLimit(limit); err != nil {
		return nil, err
	}
	article, err := s.article(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return s.tree.LatestForArticle(ctx, article.ID, limit)
}

func (s *engagementService) GetComment(ctx context.Context, commentID string) (*models.CommentThread, error) {
	id, err := s.validator.ValidateID("comment", commentID)
	if err != nil {
		return nil, err
	}
	return s.tree.GetComment(ctx, id)
}

func (s *engagementService) GetReply(ctx context.Context, replyID string) (*models.Reply, error) {
	id, err := s.validator.ValidateID("reply", replyID)
	if err != nil {
		return nil, err
	}
	return s.tree.GetReply(ctx, id)
}

// Stats returns global engagement totals
func (s *engagementService) Stats(ctx context.Context) (*models.EngagementStats, error) {
	comments, replies, err := s.tree.Totals(ctx)
	if err != nil {
		return nil, err
	}
	reactions, err := s.ledger.Totals(ctx)
	if err != nil {
		return nil, err
	}

	return &models.EngagementStats{
		Comments:  comments,
		Replies:   replies,
		Likes:     reactions[models.ReactionLike],
		Dislikes:  reactions[models.ReactionDislike],
		Bookmarks: reactions[models.ReactionBookmark],
	}, nil
}

// target resolves a visible article for an authenticated caller
func (s *engagementService) target(ctx context.Context, articleID, callerID string) (*models.ArticleRef, string, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, "", err
	}
	article, err := s.article(ctx, articleID)
	if err != nil {
		return nil, "", err
	}
	return article, caller, nil
}

// article resolves articleID through the catalog. Hidden articles are
// reported as missing.
func (s *engagementService) article(ctx context.Context, articleID string) (*models.ArticleRef, error) {
	id, err := s.validator.ValidateID("article", articleID)
	if err != nil {
		return nil, err
	}

	article, err := s.catalog.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.Hidden {
		return nil, apperr.NotFound("Article not found")
	}

	article.ID = models.NormalizeID(article.ID)
	return article, nil
}

func (s *engagementService) owned(ctx context.Context, what, id, callerID string) (string, string, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return "", "", err
	}
	canonical, err := s.validator.ValidateID(what, id)
	if err != nil {
		return "", "", err
	}
	return canonical, caller, nil
}

// caller resolves an authenticated caller to an existing user and returns
// the canonical id.
func (s *engagementService) caller(ctx context.Context, callerID string) (string, error) {
	if strings.TrimSpace(callerID) == "" {
		return "", apperr.Auth("Authorization header is missing")
	}
	parsed, err := uuid.Parse(strings.TrimSpace(callerID))
	if err != nil {
		return "", apperr.Auth("Auth failed")
	}

	user, err := s.users.GetByID(ctx, parsed.String())
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", apperr.NotFound("User not found")
	}
	return parsed.String(), nil
}
