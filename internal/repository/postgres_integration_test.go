package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/article-engagement-api/internal/database"
	"github.com/article-engagement-api/internal/models"
	"github.com/article-engagement-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

// PostgresSuite runs the repositories against a real database. It needs
// TEST_DATABASE_URL pointing at a disposable Postgres instance.
type PostgresSuite struct {
	suite.Suite
	db    *database.DB
	repos *repository.Repositories
	ctx   context.Context

	author  string
	reader  string
	article string
}

func TestPostgresSuite(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	suite.Run(t, &PostgresSuite{})
}

func (s *PostgresSuite) SetupSuite() {
	sqlDB, err := sql.Open("postgres", os.Getenv("TEST_DATABASE_URL"))
	s.Require().NoError(err)

	s.db = database.Wrap(sqlDB, 5*time.Second, zerolog.Nop())
	s.Require().NoError(s.db.RunMigrations("../../migrations"))

	s.repos = repository.New(s.db)
	s.ctx = context.Background()
}

func (s *PostgresSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.db.ExecContext(s.ctx, `TRUNCATE replies, comments, reactions, articles, users`)
	s.Require().NoError(err)

	s.author = s.insertUser("Author", "author")
	s.reader = s.insertUser("Reader", "reader")
	s.article = s.insertArticle(s.author)
}

func (s *PostgresSuite) insertUser(name, role string) string {
	id := uuid.NewString()
	_, err := s.db.ExecContext(s.ctx, `INSERT INTO users (id, name, role) VALUES ($1, $2, $3)`, id, name, role)
	s.Require().NoError(err)
	return id
}

func (s *PostgresSuite) insertArticle(authorID string) string {
	id := uuid.NewString()
	_, err := s.db.ExecContext(s.ctx, `INSERT INTO articles (id, author_id, title) VALUES ($1, $2, 'Title')`, id, authorID)
	s.Require().NoError(err)
	return id
}

func (s *PostgresSuite) reaction(kind models.ReactionKind) *models.Reaction {
	return &models.Reaction{
		ID: uuid.NewString(), UserID: s.reader, ArticleID: s.article,
		Kind: kind, CreatedAt: time.Now().UTC(),
	}
}

func (s *PostgresSuite) TestArticleLookup() {
	article, err := s.repos.Article.GetByID(s.ctx, s.article)
	s.Require().NoError(err)
	s.Require().NotNil(article)
	s.True(article.IsAuthoredBy(s.author))

	missing, err := s.repos.Article.GetByID(s.ctx, uuid.NewString())
	s.NoError(err)
	s.Nil(missing)
}

func (s *PostgresSuite) TestUsersByIDs() {
	users, err := s.repos.User.GetByIDs(s.ctx, []string{s.author, s.reader, uuid.NewString()})
	s.Require().NoError(err)
	s.Len(users, 2)
	s.Equal("Author", users[s.author].Name)
}

func (s *PostgresSuite) TestOpposingReactionsRejectedByIndex() {
	s.Require().NoError(s.repos.Reaction.Insert(s.ctx, s.reaction(models.ReactionLike)))

	err := s.repos.Reaction.Insert(s.ctx, s.reaction(models.ReactionDislike))
	s.True(errors.Is(err, repository.ErrDuplicate), "got %v", err)

	err = s.repos.Reaction.Insert(s.ctx, s.reaction(models.ReactionLike))
	s.True(errors.Is(err, repository.ErrDuplicate), "got %v", err)

	// bookmarks are independent
	s.NoError(s.repos.Reaction.Insert(s.ctx, s.reaction(models.ReactionBookmark)))

	counts, err := s.repos.Reaction.CountByArticle(s.ctx, s.article)
	s.Require().NoError(err)
	s.Equal(models.ReactionCounts{Likes: 1, Dislikes: 0}, counts)

	byKind, err := s.repos.Reaction.CountByKind(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, byKind[models.ReactionLike])
	s.Equal(1, byKind[models.ReactionBookmark])
}

func (s *PostgresSuite) TestReactionDeleteAndList() {
	s.Require().NoError(s.repos.Reaction.Insert(s.ctx, s.reaction(models.ReactionBookmark)))

	list, err := s.repos.Reaction.ListByUserAndKind(s.ctx, s.reader, models.ReactionBookmark)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(s.article, list[0].Article.ID)

	removed, err := s.repos.Reaction.Delete(s.ctx, s.reader, s.article, models.ReactionBookmark)
	s.NoError(err)
	s.True(removed)

	removed, err = s.repos.Reaction.Delete(s.ctx, s.reader, s.article, models.ReactionBookmark)
	s.NoError(err)
	s.False(removed)
}

func (s *PostgresSuite) TestReplyToMissingComment() {
	now := time.Now().UTC()
	err := s.repos.Reply.Create(s.ctx, &models.Reply{
		ID: uuid.NewString(), CommentID: uuid.NewString(), ReplierID: s.reader,
		Text: "hello", CreatedAt: now, UpdatedAt: now,
	})
	s.True(errors.Is(err, repository.ErrMissingReference), "got %v", err)
}

func (s *PostgresSuite) TestCommentListingAndCascade() {
	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		c := &models.Comment{
			ID: uuid.NewString(), ArticleID: s.article, CommentatorID: s.reader,
			Text: "comment", CreatedAt: at, UpdatedAt: at,
		}
		s.Require().NoError(s.repos.Comment.Create(s.ctx, c))
		ids = append(ids, c.ID)
	}

	latest, err := s.repos.Comment.ListByArticle(s.ctx, s.article, 2)
	s.Require().NoError(err)
	s.Require().Len(latest, 2)
	s.Equal(ids[2], latest[0].ID)
	s.Equal(ids[1], latest[1].ID)

	all, err := s.repos.Comment.ListByArticle(s.ctx, s.article, 0)
	s.Require().NoError(err)
	s.Len(all, 3)

	for i := 0; i < 2; i++ {
		s.Require().NoError(s.repos.Reply.Create(s.ctx, &models.Reply{
			ID: uuid.NewString(), CommentID: ids[0], ReplierID: s.author,
			Text: "reply", CreatedAt: base, UpdatedAt: base,
		}))
	}

	err = s.repos.Tx.WithinTx(s.ctx, func(tx *repository.Repositories) error {
		n, err := tx.Reply.DeleteByComment(s.ctx, ids[0])
		if err != nil {
			return err
		}
		s.Equal(2, n)
		_, err = tx.Comment.Delete(s.ctx, ids[0])
		return err
	})
	s.Require().NoError(err)

	replies, err := s.repos.Reply.ListByComments(s.ctx, []string{ids[0]})
	s.NoError(err)
	s.Empty(replies)
}

func (s *PostgresSuite) TestWithinTxRollsBack() {
	at := time.Now().UTC()
	c := &models.Comment{
		ID: uuid.NewString(), ArticleID: s.article, CommentatorID: s.reader,
		Text: "keep me", CreatedAt: at, UpdatedAt: at,
	}
	s.Require().NoError(s.repos.Comment.Create(s.ctx, c))
	s.Require().NoError(s.repos.Reply.Create(s.ctx, &models.Reply{
		ID: uuid.NewString(), CommentID: c.ID, ReplierID: s.author,
		Text: "reply", CreatedAt: at, UpdatedAt: at,
	}))

	boom := errors.New("boom")
	err := s.repos.Tx.WithinTx(s.ctx, func(tx *repository.Repositories) error {
		if _, err := tx.Reply.DeleteByComment(s.ctx, c.ID); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	replies, err := s.repos.Reply.ListByComments(s.ctx, []string{c.ID})
	s.NoError(err)
	s.Len(replies, 1)
}

func (s *PostgresSuite) TestUpdateText() {
	at := time.Now().UTC()
	c := &models.Comment{
		ID: uuid.NewString(), ArticleID: s.article, CommentatorID: s.reader,
		Text: "before", CreatedAt: at, UpdatedAt: at,
	}
	s.Require().NoError(s.repos.Comment.Create(s.ctx, c))

	later := at.Add(time.Minute)
	ok, err := s.repos.Comment.UpdateText(s.ctx, c.ID, "after", later)
	s.Require().NoError(err)
	s.True(ok)

	got, err := s.repos.Comment.GetByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("after", got.Text)
	s.WithinDuration(later, got.UpdatedAt, time.Millisecond)

	ok, err = s.repos.Comment.UpdateText(s.ctx, uuid.NewString(), "x", later)
	s.NoError(err)
	s.False(ok)
}
