package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/article-engagement-api/internal/apperr"
	"github.com/article-engagement-api/internal/catalog"
	"github.com/article-engagement-api/internal/mocks"
	"github.com/article-engagement-api/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const articleID = "0f8fad5b-d9cb-469f-a165-70867728950e"

func seededStore() *mocks.Store {
	store := mocks.NewStore()
	store.AddArticle(models.ArticleRef{
		ID:        articleID,
		AuthorID:  "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Title:     "Cached",
		IsPublic:  true,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	return store
}

func setupCache(t *testing.T, store *mocks.Store) (*catalog.Cache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client, err := catalog.NewRedisClient("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedisClient failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	next := catalog.NewStore(store.Repositories().Article)
	return catalog.NewCache(next, client, time.Minute, zerolog.Nop()), s
}

func TestStore_GetArticle(t *testing.T) {
	c := catalog.NewStore(seededStore().Repositories().Article)

	article, err := c.GetArticle(context.Background(), articleID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if article.Title != "Cached" {
		t.Errorf("unexpected article: %+v", article)
	}

	_, err = c.GetArticle(context.Background(), "7c9e6679-7425-40de-944b-e07fc1f90ae7")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestStore_GetArticleStorageError(t *testing.T) {
	store := seededStore()
	boom := errors.New("connection refused")
	store.FailOn(mocks.OpArticleGet, boom)

	_, err := catalog.NewStore(store.Repositories().Article).GetArticle(context.Background(), articleID)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped storage error, got %v", err)
	}
	if errors.Is(err, apperr.ErrNotFound) {
		t.Error("storage failure must not look like not found")
	}
}

func TestCache_ReadThrough(t *testing.T) {
	store := seededStore()
	cache, s := setupCache(t, store)
	ctx := context.Background()

	first, err := cache.GetArticle(ctx, articleID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if !s.Exists("catalog:article:" + articleID) {
		t.Fatal("expected entry to be cached")
	}

	second, err := cache.GetArticle(ctx, articleID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached article mismatch (-first +second):\n%s", diff)
	}
	if got := store.Calls(mocks.OpArticleGet); got != 1 {
		t.Errorf("expected 1 database lookup, got %d", got)
	}

	ttl := s.TTL("catalog:article:" + articleID)
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("unexpected ttl %v", ttl)
	}
}

func TestCache_Expiry(t *testing.T) {
	store := seededStore()
	cache, s := setupCache(t, store)
	ctx := context.Background()

	if _, err := cache.GetArticle(ctx, articleID); err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}

	s.FastForward(2 * time.Minute)

	if _, err := cache.GetArticle(ctx, articleID); err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if got := store.Calls(mocks.OpArticleGet); got != 2 {
		t.Errorf("expected lookup after expiry, got %d lookups", got)
	}
}

func TestCache_NotFoundIsNotCached(t *testing.T) {
	store := mocks.NewStore()
	cache, s := setupCache(t, store)

	_, err := cache.GetArticle(context.Background(), articleID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if s.Exists("catalog:article:" + articleID) {
		t.Error("not found must not be cached")
	}
}

func TestCache_Invalidate(t *testing.T) {
	store := seededStore()
	cache, s := setupCache(t, store)
	ctx := context.Background()

	if _, err := cache.GetArticle(ctx, articleID); err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	store.SetHidden(articleID, true)

	if err := cache.Invalidate(ctx, articleID); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if s.Exists("catalog:article:" + articleID) {
		t.Fatal("entry survived invalidation")
	}

	article, err := cache.GetArticle(ctx, articleID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if !article.Hidden {
		t.Error("expected fresh article after invalidation")
	}
}

func TestCache_FallsThroughWhenRedisDown(t *testing.T) {
	store := seededStore()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	defer client.Close()
	cache := catalog.NewCache(catalog.NewStore(store.Repositories().Article), client, time.Minute, zerolog.Nop())

	s.Close()

	article, err := cache.GetArticle(context.Background(), articleID)
	if err != nil {
		t.Fatalf("expected fallback to database, got %v", err)
	}
	if article.ID != articleID {
		t.Errorf("unexpected article %+v", article)
	}
}

func TestCache_DiscardsCorruptEntry(t *testing.T) {
	store := seededStore()
	cache, s := setupCache(t, store)

	if err := s.Set("catalog:article:"+articleID, "{not json"); err != nil {
		t.Fatal(err)
	}

	article, err := cache.GetArticle(context.Background(), articleID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if article.Title != "Cached" {
		t.Errorf("unexpected article %+v", article)
	}
}
