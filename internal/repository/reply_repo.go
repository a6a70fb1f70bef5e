package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/article-engagement-api/internal/models"
	"github.com/lib/pq"
)

// replyRepo is the concrete implementation of ReplyRepository
type replyRepo struct {
	db conn
}

// newReplyRepo creates a new reply repository
func newReplyRepo(db conn) ReplyRepository {
	return &replyRepo{db: db}
}

// Create inserts a reply. A vanished parent comment comes back as
// ErrMissingReference.
func (r *replyRepo) Create(ctx context.Context, reply *models.Reply) error {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `
		INSERT INTO replies (id, comment_id, replier_id, text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.q.ExecContext(ctx, query,
		reply.ID, reply.CommentID, reply.ReplierID, reply.Text,
		reply.CreatedAt, reply.UpdatedAt,
	)
	return mapError("insert reply", err)
}

// GetByID retrieves a reply by ID
func (r *replyRepo) GetByID(ctx context.Context, id string) (*models.Reply, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `SELECT id, comment_id, replier_id, text, created_at, updated_at FROM replies WHERE id = $1`

	var reply models.Reply
	err := r.db.q.QueryRowContext(ctx, query, id).Scan(
		&reply.ID, &reply.CommentID, &reply.ReplierID, &reply.Text,
		&reply.CreatedAt, &reply.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get reply", err)
	}

	return &reply, nil
}

// UpdateText overwrites the text and reports whether the reply exists
func (r *replyRepo) UpdateText(ctx context.Context, id, text string, updatedAt time.Time) (bool, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	res, err := r.db.q.ExecContext(ctx,
		`UPDATE replies SET text = $2, updated_at = $3 WHERE id = $1`,
		id, text, updatedAt,
	)
	if err != nil {
		return false, mapError("update reply", err)
	}

	n, err := rowsAffected("update reply", res)
	return n > 0, err
}

// Delete removes a single reply
func (r *replyRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	res, err := r.db.q.ExecContext(ctx, `DELETE FROM replies WHERE id = $1`, id)
	if err != nil {
		return false, mapError("delete reply", err)
	}

	n, err := rowsAffected("delete reply", res)
	return n > 0, err
}

// DeleteByComment removes every reply of a comment and returns how many
func (r *replyRepo) DeleteByComment(ctx context.Context, commentID string) (int, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	res, err := r.db.q.ExecContext(ctx, `DELETE FROM replies WHERE comment_id = $1`, commentID)
	if err != nil {
		return 0, mapError("delete replies", err)
	}

	n, err := rowsAffected("delete replies", res)
	return int(n), err
}

// ListByComments returns the replies of all given comments, oldest first
func (r *replyRepo) ListByComments(ctx context.Context, commentIDs []string) ([]*models.Reply, error) {
	if len(commentIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `
		SELECT id, comment_id, replier_id, text, created_at, updated_at
		FROM replies
		WHERE comment_id = ANY($1::uuid[])
		ORDER BY created_at, id
	`
	rows, err := r.db.q.QueryContext(ctx, query, pq.Array(commentIDs))
	if err != nil {
		return nil, mapError("list replies", err)
	}
	defer rows.Close()

	var replies []*models.Reply
	for rows.Next() {
		var reply models.Reply
		err := rows.Scan(
			&reply.ID, &reply.CommentID, &reply.ReplierID, &reply.Text,
			&reply.CreatedAt, &reply.UpdatedAt,
		)
		if err != nil {
			return nil, mapError("scan reply", err)
		}
		replies = append(replies, &reply)
	}

	return replies, rows.Err()
}

// Count returns the total number of replies
func (r *replyRepo) Count(ctx context.Context) (int, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	var count int
	err := r.db.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM replies").Scan(&count)
	return count, mapError("count replies", err)
}
