// Package catalog is the read-only view of articles the engagement services
// consult before touching reactions or discussions.
package catalog

import (
	"context"
	"fmt"

	"github.com/article-engagement-api/internal/apperr"
	"github.com/article-engagement-api/internal/models"
	"github.com/article-engagement-api/internal/repository"
)

// Catalog resolves article ids. A missing article is apperr.ErrNotFound.
type Catalog interface {
	GetArticle(ctx context.Context, id string) (*models.ArticleRef, error)
}

// Store reads articles straight from the database
type Store struct {
	articles repository.ArticleRepository
}

// NewStore creates a database-backed catalog
func NewStore(articles repository.ArticleRepository) *Store {
	return &Store{articles: articles}
}

func (s *Store) GetArticle(ctx context.Context, id string) (*models.ArticleRef, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	if article == nil {
		return nil, apperr.NotFound("Article not found")
	}
	return article, nil
}
