package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/article-engagement-api/internal/models"
)

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db conn
}

// newArticleRepo creates a new article repository
func newArticleRepo(db conn) ArticleRepository {
	return &articleRepo{db: db}
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.ArticleRef, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `
		SELECT id, author_id, title, is_public, hidden, created_at
		FROM articles WHERE id = $1
	`

	var article models.ArticleRef
	err := r.db.q.QueryRowContext(ctx, query, id).Scan(
		&article.ID, &article.AuthorID, &article.Title,
		&article.IsPublic, &article.Hidden, &article.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get article", err)
	}

	return &article, nil
}
