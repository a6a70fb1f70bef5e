package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/article-engagement-api/internal/models"
)

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db conn
}

// newCommentRepo creates a new comment repository
func newCommentRepo(db conn) CommentRepository {
	return &commentRepo{db: db}
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `
		INSERT INTO comments (id, article_id, commentator_id, text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.q.ExecContext(ctx, query,
		comment.ID, comment.ArticleID, comment.CommentatorID, comment.Text,
		comment.CreatedAt, comment.UpdatedAt,
	)
	return mapError("insert comment", err)
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `SELECT id, article_id, commentator_id, text, created_at, updated_at FROM comments WHERE id = $1`

	var comment models.Comment
	err := r.db.q.QueryRowContext(ctx, query, id).Scan(
		&comment.ID, &comment.ArticleID, &comment.CommentatorID, &comment.Text,
		&comment.CreatedAt, &comment.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get comment", err)
	}

	return &comment, nil
}

// UpdateText overwrites the text and reports whether the comment exists
func (r *commentRepo) UpdateText(ctx context.Context, id, text string, updatedAt time.Time) (bool, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	res, err := r.db.q.ExecContext(ctx,
		`UPDATE comments SET text = $2, updated_at = $3 WHERE id = $1`,
		id, text, updatedAt,
	)
	if err != nil {
		return false, mapError("update comment", err)
	}

	n, err := rowsAffected("update comment", res)
	return n > 0, err
}

// Delete removes a comment. Replies must be gone first.
func (r *commentRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	res, err := r.db.q.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return false, mapError("delete comment", err)
	}

	n, err := rowsAffected("delete comment", res)
	return n > 0, err
}

// ListByArticle returns an article's comments newest first. limit <= 0
// returns all of them.
func (r *commentRepo) ListByArticle(ctx context.Context, articleID string, limit int) ([]*models.Comment, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	query := `
		SELECT id, article_id, commentator_id, text, created_at, updated_at
		FROM comments
		WHERE article_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`
	rows, err := r.db.q.QueryContext(ctx, query, articleID, lim)
	if err != nil {
		return nil, mapError("list comments", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(
			&comment.ID, &comment.ArticleID, &comment.CommentatorID, &comment.Text,
			&comment.CreatedAt, &comment.UpdatedAt,
		)
		if err != nil {
			return nil, mapError("scan comment", err)
		}
		comments = append(comments, &comment)
	}

	return comments, rows.Err()
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	var count int
	err := r.db.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
	return count, mapError("count comments", err)
}
