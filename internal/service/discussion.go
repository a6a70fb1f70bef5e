package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/article-engagement-api/internal/apperr"
	"github.com/article-engagement-api/internal/models"
	"github.com/article-engagement-api/internal/repository"
	"github.com/article-engagement-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DiscussionTree manages comments and their single level of replies
type DiscussionTree interface {
	AddComment(ctx context.Context, article *models.ArticleRef, callerID, text string) (*models.Comment, error)
	EditComment(ctx context.Context, commentID, callerID, text string) (*models.Comment, error)
	RemoveComment(ctx context.Context, commentID, callerID string) error
	AddReply(ctx context.Context, commentID, callerID, text string) (*models.Reply, error)
	EditReply(ctx context.Context, replyID, callerID, text string) (*models.Reply, error)
	RemoveReply(ctx context.Context, replyID, callerID string) error
	LatestForArticle(ctx context.Context, articleID string, limit int) ([]*models.CommentThread, error)
	GetComment(ctx context.Context, commentID string) (*models.CommentThread, error)
	GetReply(ctx context.Context, replyID string) (*models.Reply, error)
	Totals(ctx context.Context) (comments, replies int, err error)
}

// discussionTree is the concrete implementation of DiscussionTree
type discussionTree struct {
	repos     *repository.Repositories
	validator *validation.Validator
	clock     func() time.Time
	log       zerolog.Logger
}

func newDiscussionTree(repos *repository.Repositories, validator *validation.Validator, opts *options, log zerolog.Logger) *discussionTree {
	return &discussionTree{
		repos:     repos,
		validator: validator,
		clock:     opts.clock,
		log:       log.With().Str("service", "discussion").Logger(),
	}
}

// AddComment posts a top-level comment on article
func (t *discussionTree) AddComment(ctx context.Context, article *models.ArticleRef, callerID, text string) (*models.Comment, error) {
	if err := t.validator.ValidateText("Comment", text); err != nil {
		return nil, err
	}

	now := t.clock()
	comment := &models.Comment{
		ID:            uuid.NewString(),
		ArticleID:     article.ID,
		CommentatorID: callerID,
		Text:          text,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := t.repos.Comment.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, apperr.NotFound("Article not found")
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

// EditComment overwrites the text of the caller's own comment
func (t *discussionTree) EditComment(ctx context.Context, commentID, callerID, text string) (*models.Comment, error) {
	comment, err := t.ownComment(ctx, commentID, callerID)
	if err != nil {
		return nil, err
	}
	if err := t.validator.ValidateText("Comment", text); err != nil {
		return nil, err
	}

	now := t.clock()
	found, err := t.repos.Comment.UpdateText(ctx, comment.ID, text, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	if !found {
		return nil, apperr.NotFound("Comment not found")
	}

	comment.Text = text
	comment.UpdatedAt = now
	return comment, nil
}

// RemoveComment deletes the caller's comment together with all its replies
func (t *discussionTree) RemoveComment(ctx context.Context, commentID, callerID string) error {
	comment, err := t.ownComment(ctx, commentID, callerID)
	if err != nil {
		return err
	}

	var repliesRemoved int
	err = t.repos.Tx.WithinTx(ctx, func(tx *repository.Repositories) error {
		n, err := tx.Reply.DeleteByComment(ctx, comment.ID)
		if err != nil {
			return err
		}
		repliesRemoved = n

		found, err := tx.Comment.Delete(ctx, comment.ID)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("Comment not found")
		}
		return nil
	})
	if err != nil {
		if isAppError(err) {
			return err
		}
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	t.log.Info().
		Str("comment_id", comment.ID).
		Int("replies_removed", repliesRemoved).
		Msg("Comment deleted")

	return nil
}

// AddReply answers a comment
func (t *discussionTree) AddReply(ctx context.Context, commentID, callerID, text string) (*models.Reply, error) {
	comment, err := t.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil {
		return nil, apperr.NotFound("Comment not found")
	}

	if err := t.validator.ValidateText("Reply", text); err != nil {
		return nil, err
	}

	now := t.clock()
	reply := &models.Reply{
		ID:        uuid.NewString(),
		CommentID: comment.ID,
		ReplierID: callerID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := t.repos.Reply.Create(ctx, reply); err != nil {
		// the comment was deleted after the lookup above
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, apperr.NotFound("Comment not found")
		}
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}

	return reply, nil
}

// EditReply overwrites the text of the caller's own reply
func (t *discussionTree) EditReply(ctx context.Context, replyID, callerID, text string) (*models.Reply, error) {
	reply, err := t.ownReply(ctx, replyID, callerID)
	if err != nil {
		return nil, err
	}
	if err := t.validator.ValidateText("Reply", text); err != nil {
		return nil, err
	}

	now := t.clock()
	found, err := t.repos.Reply.UpdateText(ctx, reply.ID, text, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update reply: %w", err)
	}
	if !found {
		return nil, apperr.NotFound("Reply not found")
	}

	reply.Text = text
	reply.UpdatedAt = now
	return reply, nil
}

// RemoveReply deletes the caller's own reply
func (t *discussionTree) RemoveReply(ctx context.Context, replyID, callerID string) error {
	reply, err := t.ownReply(ctx, replyID, callerID)
	if err != nil {
		return err
	}

	found, err := t.repos.Reply.Delete(ctx, reply.ID)
	if err != nil {
		return fmt.Errorf("failed to delete reply: %w", err)
	}
	if !found {
		return apperr.NotFound("Reply not found")
	}
	return nil
}

// LatestForArticle returns comments newest first, each with its replies
// oldest first. limit <= 0 returns every comment.
func (t *discussionTree) LatestForArticle(ctx context.Context, articleID string, limit int) ([]*models.CommentThread, error) {
	comments, err := t.repos.Comment.ListByArticle(ctx, articleID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return t.threads(ctx, comments)
}

// GetComment returns one comment with its replies
func (t *discussionTree) GetComment(ctx context.Context, commentID string) (*models.CommentThread, error) {
	comment, err := t.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil {
		return nil, apperr.NotFound("Comment not found")
	}

	threads, err := t.threads(ctx, []*models.Comment{comment})
	if err != nil {
		return nil, err
	}
	return threads[0], nil
}

// GetReply returns one reply with its author resolved
func (t *discussionTree) GetReply(ctx context.Context, replyID string) (*models.Reply, error) {
	reply, err := t.repos.Reply.GetByID(ctx, replyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reply: %w", err)
	}
	if reply == nil {
		return nil, apperr.NotFound("Reply not found")
	}

	users, err := t.repos.User.GetByIDs(ctx, []string{reply.ReplierID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve replier: %w", err)
	}
	reply.Replier = users[reply.ReplierID]
	return reply, nil
}

// Totals counts comments and replies across all articles
func (t *discussionTree) Totals(ctx context.Context) (int, int, error) {
	comments, err := t.repos.Comment.Count(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count comments: %w", err)
	}
	replies, err := t.repos.Reply.Count(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count replies: %w", err)
	}
	return comments, replies, nil
}

// threads attaches replies and author identities to comments, keeping the
// order of comments.
func (t *discussionTree) threads(ctx context.Context, comments []*models.Comment) ([]*models.CommentThread, error) {
	threads := make([]*models.CommentThread, 0, len(comments))
	if len(comments) == 0 {
		return threads, nil
	}

	byComment := make(map[string]*models.CommentThread, len(comments))
	commentIDs := make([]string, 0, len(comments))
	userIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		thread := &models.CommentThread{Comment: *c, Replies: []*models.Reply{}}
		threads = append(threads, thread)
		byComment[c.ID] = thread
		commentIDs = append(commentIDs, c.ID)
		userIDs = append(userIDs, c.CommentatorID)
	}

	replies, err := t.repos.Reply.ListByComments(ctx, commentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	for _, r := range replies {
		if thread, ok := byComment[r.CommentID]; ok {
			thread.Replies = append(thread.Replies, r)
			userIDs = append(userIDs, r.ReplierID)
		}
	}

	users, err := t.repos.User.GetByIDs(ctx, dedupe(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve authors: %w", err)
	}
	for _, thread := range threads {
		thread.Commentator = users[thread.CommentatorID]
		for _, r := range thread.Replies {
			r.Replier = users[r.ReplierID]
		}
	}

	return threads, nil
}

func (t *discussionTree) ownComment(ctx context.Context, commentID, callerID string) (*models.Comment, error) {
	comment, err := t.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil {
		return nil, apperr.NotFound("Comment not found")
	}
	if !models.SameID(comment.CommentatorID, callerID) {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	return comment, nil
}

func (t *discussionTree) ownReply(ctx context.Context, replyID, callerID string) (*models.Reply, error) {
	reply, err := t.repos.Reply.GetByID(ctx, replyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reply: %w", err)
	}
	if reply == nil {
		return nil, apperr.NotFound("Reply not found")
	}
	if !models.SameID(reply.ReplierID, callerID) {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	return reply, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
