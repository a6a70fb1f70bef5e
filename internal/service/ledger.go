package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/article-engagement-api/internal/apperr"
	"github.com/article-engagement-api/internal/models"
	"github.com/article-engagement-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReactionLedger records likes, dislikes and bookmarks
type ReactionLedger interface {
	React(ctx context.Context, article *models.ArticleRef, callerID string, kind models.ReactionKind) (*models.ReactionSummary, error)
	Unreact(ctx context.Context, article *models.ArticleRef, callerID string, kind models.ReactionKind) (*models.ReactionSummary, error)
	Bookmark(ctx context.Context, article *models.ArticleRef, callerID string) error
	Unbookmark(ctx context.Context, article *models.ArticleRef, callerID string) error
	ListByUserAndKind(ctx context.Context, userID string, kind models.ReactionKind) ([]*models.ReactedArticle, error)
	CountsFor(ctx context.Context, articleID string) (models.ReactionCounts, error)
	Summary(ctx context.Context, articleID, callerID string) (*models.ReactionSummary, error)
	Totals(ctx context.Context) (map[models.ReactionKind]int, error)
}

// reactionRule describes how a kind interacts with the caller's other rows
type reactionRule struct {
	opposite   models.ReactionKind
	forbidSelf bool
	selfMsg    string
	dupMsg     string
}

var reactionRules = map[models.ReactionKind]reactionRule{
	models.ReactionLike: {
		opposite:   models.ReactionDislike,
		forbidSelf: true,
		selfMsg:    "You can not like your article",
		dupMsg:     "Article already liked!",
	},
	models.ReactionDislike: {
		opposite:   models.ReactionLike,
		forbidSelf: true,
		selfMsg:    "You can not dislike your article",
		dupMsg:     "Article already disliked!",
	},
	models.ReactionBookmark: {
		dupMsg: "Article already bookmarked!",
	},
}

// reactionLedger is the concrete implementation of ReactionLedger
type reactionLedger struct {
	repos *repository.Repositories
	clock func() time.Time
	log   zerolog.Logger
}

func newReactionLedger(repos *repository.Repositories, opts *options, log zerolog.Logger) *reactionLedger {
	return &reactionLedger{
		repos: repos,
		clock: opts.clock,
		log:   log.With().Str("service", "reaction_ledger").Logger(),
	}
}

// React adds a like or dislike, replacing the opposite one in the same
// transaction.
func (l *reactionLedger) React(ctx context.Context, article *models.ArticleRef, callerID string, kind models.ReactionKind) (*models.ReactionSummary, error) {
	rule, ok := reactionRules[kind]
	if !ok || rule.opposite == "" {
		return nil, apperr.Validation(fmt.Sprintf("Cannot react with %q", kind))
	}

	if err := l.add(ctx, article, callerID, kind, rule); err != nil {
		return nil, err
	}
	return l.Summary(ctx, article.ID, callerID)
}

// Unreact removes a like or dislike. Removing an absent reaction succeeds.
func (l *reactionLedger) Unreact(ctx context.Context, article *models.ArticleRef, callerID string, kind models.ReactionKind) (*models.ReactionSummary, error) {
	rule, ok := reactionRules[kind]
	if !ok || rule.opposite == "" {
		return nil, apperr.Validation(fmt.Sprintf("Cannot remove reaction %q", kind))
	}

	if _, err := l.repos.Reaction.Delete(ctx, callerID, article.ID, kind); err != nil {
		return nil, fmt.Errorf("failed to remove %s: %w", kind, err)
	}
	return l.Summary(ctx, article.ID, callerID)
}

// Bookmark saves the article for the caller, authors included
func (l *reactionLedger) Bookmark(ctx context.Context, article *models.ArticleRef, callerID string) error {
	return l.add(ctx, article, callerID, models.ReactionBookmark, reactionRules[models.ReactionBookmark])
}

// Unbookmark is idempotent
func (l *reactionLedger) Unbookmark(ctx context.Context, article *models.ArticleRef, callerID string) error {
	if _, err := l.repos.Reaction.Delete(ctx, callerID, article.ID, models.ReactionBookmark); err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	return nil
}

func (l *reactionLedger) add(ctx context.Context, article *models.ArticleRef, callerID string, kind models.ReactionKind, rule reactionRule) error {
	if rule.forbidSelf && article.IsAuthoredBy(callerID) {
		return apperr.SelfAction(rule.selfMsg)
	}

	err := l.repos.Tx.WithinTx(ctx, func(tx *repository.Repositories) error {
		existing, err := tx.Reaction.Get(ctx, callerID, article.ID, kind)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.AlreadyReacted(rule.dupMsg)
		}

		if rule.opposite != "" {
			removed, err := tx.Reaction.Delete(ctx, callerID, article.ID, rule.opposite)
			if err != nil {
				return err
			}
			if removed {
				l.log.Debug().
					Str("article_id", article.ID).
					Str("user_id", callerID).
					Str("from", string(rule.opposite)).
					Str("to", string(kind)).
					Msg("Switching reaction")
			}
		}

		return tx.Reaction.Insert(ctx, &models.Reaction{
			ID:        uuid.NewString(),
			UserID:    callerID,
			ArticleID: article.ID,
			Kind:      kind,
			CreatedAt: l.clock(),
		})
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicate):
		// lost a race against a concurrent request from the same caller
		return apperr.AlreadyReacted(rule.dupMsg)
	case errors.Is(err, repository.ErrMissingReference):
		return apperr.NotFound("Article not found")
	case isAppError(err):
		return err
	default:
		return fmt.Errorf("failed to record %s: %w", kind, err)
	}
}

// ListByUserAndKind returns the user's reactions of kind, newest first
func (l *reactionLedger) ListByUserAndKind(ctx context.Context, userID string, kind models.ReactionKind) ([]*models.ReactedArticle, error) {
	list, err := l.repos.Reaction.ListByUserAndKind(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s reactions: %w", kind, err)
	}
	return list, nil
}

// CountsFor counts like and dislike rows of an article
func (l *reactionLedger) CountsFor(ctx context.Context, articleID string) (models.ReactionCounts, error) {
	counts, err := l.repos.Reaction.CountByArticle(ctx, articleID)
	if err != nil {
		return models.ReactionCounts{}, fmt.Errorf("failed to count reactions: %w", err)
	}
	return counts, nil
}

// Summary returns the article's counts and, when callerID is set, the
// caller's own relations to it.
func (l *reactionLedger) Summary(ctx context.Context, articleID, callerID string) (*models.ReactionSummary, error) {
	counts, err := l.CountsFor(ctx, articleID)
	if err != nil {
		return nil, err
	}

	summary := &models.ReactionSummary{
		ArticleID: articleID,
		Likes:     counts.Likes,
		Dislikes:  counts.Dislikes,
	}
	if callerID == "" {
		return summary, nil
	}

	flags := map[models.ReactionKind]*bool{
		models.ReactionLike:     &summary.Liked,
		models.ReactionDislike:  &summary.Disliked,
		models.ReactionBookmark: &summary.Bookmarked,
	}
	for kind, flag := range flags {
		r, err := l.repos.Reaction.Get(ctx, callerID, articleID, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s state: %w", kind, err)
		}
		*flag = r != nil
	}

	return summary, nil
}

// Totals counts rows per kind across all articles
func (l *reactionLedger) Totals(ctx context.Context) (map[models.ReactionKind]int, error) {
	totals, err := l.repos.Reaction.CountByKind(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count reactions: %w", err)
	}
	return totals, nil
}

func isAppError(err error) bool {
	var appErr *apperr.Error
	return errors.As(err, &appErr)
}
