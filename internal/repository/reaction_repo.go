package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/article-engagement-api/internal/models"
)

// reactionRepo is the concrete implementation of ReactionRepository
type reactionRepo struct {
	db conn
}

// newReactionRepo creates a new reaction repository
func newReactionRepo(db conn) ReactionRepository {
	return &reactionRepo{db: db}
}

// Get returns the caller's reaction of the given kind, or nil
func (r *reactionRepo) Get(ctx context.Context, userID, articleID string, kind models.ReactionKind) (*models.Reaction, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, article_id, kind, created_at
		FROM reactions
		WHERE user_id = $1 AND article_id = $2 AND kind = $3
	`

	var reaction models.Reaction
	err := r.db.q.QueryRowContext(ctx, query, userID, articleID, kind).Scan(
		&reaction.ID, &reaction.UserID, &reaction.ArticleID, &reaction.Kind, &reaction.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get reaction", err)
	}

	return &reaction, nil
}

// Insert adds a reaction row. A second like/dislike for the same pair trips
// the unique indexes and comes back as ErrDuplicate.
func (r *reactionRepo) Insert(ctx context.Context, reaction *models.Reaction) error {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `
		INSERT INTO reactions (id, user_id, article_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.q.ExecContext(ctx, query,
		reaction.ID, reaction.UserID, reaction.ArticleID, reaction.Kind, reaction.CreatedAt,
	)
	return mapError("insert reaction", err)
}

// Delete removes the reaction if present and reports whether a row went away
func (r *reactionRepo) Delete(ctx context.Context, userID, articleID string, kind models.ReactionKind) (bool, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `DELETE FROM reactions WHERE user_id = $1 AND article_id = $2 AND kind = $3`
	res, err := r.db.q.ExecContext(ctx, query, userID, articleID, kind)
	if err != nil {
		return false, mapError("delete reaction", err)
	}

	n, err := rowsAffected("delete reaction", res)
	return n > 0, err
}

// ListByUserAndKind returns the user's reactions of one kind joined to their
// articles, newest first
func (r *reactionRepo) ListByUserAndKind(ctx context.Context, userID string, kind models.ReactionKind) ([]*models.ReactedArticle, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `
		SELECT r.id, r.user_id, r.article_id, r.kind, r.created_at,
		       a.id, a.author_id, a.title, a.is_public, a.hidden, a.created_at
		FROM reactions r
		JOIN articles a ON a.id = r.article_id
		WHERE r.user_id = $1 AND r.kind = $2
		ORDER BY r.created_at DESC, r.id
	`
	rows, err := r.db.q.QueryContext(ctx, query, userID, kind)
	if err != nil {
		return nil, mapError("list reactions", err)
	}
	defer rows.Close()

	var result []*models.ReactedArticle
	for rows.Next() {
		var ra models.ReactedArticle
		err := rows.Scan(
			&ra.Reaction.ID, &ra.Reaction.UserID, &ra.Reaction.ArticleID, &ra.Reaction.Kind, &ra.Reaction.CreatedAt,
			&ra.Article.ID, &ra.Article.AuthorID, &ra.Article.Title,
			&ra.Article.IsPublic, &ra.Article.Hidden, &ra.Article.CreatedAt,
		)
		if err != nil {
			return nil, mapError("scan reaction", err)
		}
		result = append(result, &ra)
	}

	return result, rows.Err()
}

// CountByArticle counts like and dislike rows of an article
func (r *reactionRepo) CountByArticle(ctx context.Context, articleID string) (models.ReactionCounts, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `
		SELECT
			COUNT(*) FILTER (WHERE kind = 'like'),
			COUNT(*) FILTER (WHERE kind = 'dislike')
		FROM reactions
		WHERE article_id = $1
	`

	var counts models.ReactionCounts
	err := r.db.q.QueryRowContext(ctx, query, articleID).Scan(&counts.Likes, &counts.Dislikes)
	if err != nil {
		return models.ReactionCounts{}, mapError("count reactions", err)
	}
	return counts, nil
}

// CountByKind returns global row counts per reaction kind
func (r *reactionRepo) CountByKind(ctx context.Context) (map[models.ReactionKind]int, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	rows, err := r.db.q.QueryContext(ctx, `SELECT kind, COUNT(*) FROM reactions GROUP BY kind`)
	if err != nil {
		return nil, mapError("count reactions by kind", err)
	}
	defer rows.Close()

	counts := make(map[models.ReactionKind]int, len(models.ValidReactionKinds))
	for rows.Next() {
		var kind models.ReactionKind
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, mapError("scan reaction count", err)
		}
		counts[kind] = n
	}

	return counts, rows.Err()
}
