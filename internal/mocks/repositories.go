package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/article-engagement-api/internal/models"
	"github.com/article-engagement-api/internal/repository"
)

// Store is an in-memory stand-in for the Postgres schema. It emulates the
// unique and foreign key constraints the services depend on, runs
// transactions serially, and rolls a failed transaction back by restoring a
// snapshot.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users     map[string]models.UserRef
	articles  map[string]models.ArticleRef
	reactions map[string]models.Reaction
	comments  map[string]models.Comment
	replies   map[string]models.Reply

	failures map[string]error
	calls    map[string]int
}

// Operation names accepted by FailOn and Calls
const (
	OpUserGet           = "user.get"
	OpUserGetMany       = "user.get_many"
	OpArticleGet        = "article.get"
	OpReactionGet       = "reaction.get"
	OpReactionInsert    = "reaction.insert"
	OpReactionDelete    = "reaction.delete"
	OpReactionList      = "reaction.list"
	OpReactionCount     = "reaction.count"
	OpReactionCountKind = "reaction.count_kind"
	OpCommentCreate     = "comment.create"
	OpCommentGet        = "comment.get"
	OpCommentUpdate     = "comment.update"
	OpCommentDelete     = "comment.delete"
	OpCommentList       = "comment.list"
	OpCommentCount      = "comment.count"
	OpReplyCreate       = "reply.create"
	OpReplyGet          = "reply.get"
	OpReplyUpdate       = "reply.update"
	OpReplyDelete       = "reply.delete"
	OpReplyDeleteMany   = "reply.delete_by_comment"
	OpReplyList         = "reply.list"
	OpReplyCount        = "reply.count"
)

func NewStore() *Store {
	return &Store{
		users:     make(map[string]models.UserRef),
		articles:  make(map[string]models.ArticleRef),
		reactions: make(map[string]models.Reaction),
		comments:  make(map[string]models.Comment),
		replies:   make(map[string]models.Reply),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
	}
}

// Repositories returns repositories backed by the store
func (s *Store) Repositories() *repository.Repositories {
	return s.bind(false)
}

func (s *Store) bind(inTx bool) *repository.Repositories {
	sc := scope{s: s, inTx: inTx}
	repos := &repository.Repositories{
		User:     &MockUserRepository{sc},
		Article:  &MockArticleRepository{sc},
		Reaction: &MockReactionRepository{sc},
		Comment:  &MockCommentRepository{sc},
		Reply:    &MockReplyRepository{sc},
	}
	repos.Tx = &MockTransactor{store: s, inTx: inTx, repos: repos}
	return repos
}

// FailOn makes every later call of op return err. A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns how many times op was invoked
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// AddUser seeds a user
func (s *Store) AddUser(u models.UserRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// AddArticle seeds an article
func (s *Store) AddArticle(a models.ArticleRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[a.ID] = a
}

// SetHidden flips an article's hidden flag
func (s *Store) SetHidden(articleID string, hidden bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.articles[articleID]; ok {
		a.Hidden = hidden
		s.articles[articleID] = a
	}
}

// ReactionRows returns a copy of every reaction row
func (s *Store) ReactionRows() []models.Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]models.Reaction, 0, len(s.reactions))
	for _, r := range s.reactions {
		rows = append(rows, r)
	}
	return rows
}

// CommentCount returns the number of stored comments
func (s *Store) CommentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments)
}

// ReplyCount returns the number of stored replies
func (s *Store) ReplyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}

type snapshot struct {
	reactions map[string]models.Reaction
	comments  map[string]models.Comment
	replies   map[string]models.Reply
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		reactions: copyMap(s.reactions),
		comments:  copyMap(s.comments),
		replies:   copyMap(s.replies),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions = snap.reactions
	s.comments = snap.comments
	s.replies = snap.replies
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// scope is the lock discipline of one set of repositories. Outside a
// transaction every call also takes txMu so it cannot interleave with a
// running transaction.
type scope struct {
	s    *Store
	inTx bool
}

func (sc scope) enter(op string) (func(), error) {
	if !sc.inTx {
		sc.s.txMu.Lock()
	}
	sc.s.mu.Lock()
	sc.s.calls[op]++
	unlock := func() {
		sc.s.mu.Unlock()
		if !sc.inTx {
			sc.s.txMu.Unlock()
		}
	}
	if err := sc.s.failures[op]; err != nil {
		unlock()
		return func() {}, err
	}
	return unlock, nil
}

// MockTransactor runs transactions one at a time against the store
type MockTransactor struct {
	store *Store
	inTx  bool
	repos *repository.Repositories
}

// Verify interface compliance
var _ repository.Transactor = (*MockTransactor)(nil)

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	if m.inTx {
		return fn(m.repos)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := m.store.snapshot()
	if err := fn(m.store.bind(true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct{ sc scope }

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.UserRef, error) {
	done, err := m.sc.enter(OpUserGet)
	defer done()
	if err != nil {
		return nil, err
	}
	u, ok := m.sc.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.UserRef, error) {
	done, err := m.sc.enter(OpUserGetMany)
	defer done()
	if err != nil {
		return nil, err
	}
	out := make(map[string]*models.UserRef, len(ids))
	for _, id := range ids {
		if u, ok := m.sc.s.users[id]; ok {
			u := u
			out[id] = &u
		}
	}
	return out, nil
}

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct{ sc scope }

var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.ArticleRef, error) {
	done, err := m.sc.enter(OpArticleGet)
	defer done()
	if err != nil {
		return nil, err
	}
	a, ok := m.sc.s.articles[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// MockReactionRepository is a mock implementation of ReactionRepository
type MockReactionRepository struct{ sc scope }

var _ repository.ReactionRepository = (*MockReactionRepository)(nil)

func (m *MockReactionRepository) Get(ctx context.Context, userID, articleID string, kind models.ReactionKind) (*models.Reaction, error) {
	done, err := m.sc.enter(OpReactionGet)
	defer done()
	if err != nil {
		return nil, err
	}
	for _, r := range m.sc.s.reactions {
		if r.UserID == userID && r.ArticleID == articleID && r.Kind == kind {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func isOpinion(kind models.ReactionKind) bool {
	return kind == models.ReactionLike || kind == models.ReactionDislike
}

func (m *MockReactionRepository) Insert(ctx context.Context, reaction *models.Reaction) error {
	done, err := m.sc.enter(OpReactionInsert)
	defer done()
	if err != nil {
		return err
	}
	s := m.sc.s
	if _, ok := s.articles[reaction.ArticleID]; !ok {
		return fmt.Errorf("insert reaction: %w", repository.ErrMissingReference)
	}
	if _, ok := s.users[reaction.UserID]; !ok {
		return fmt.Errorf("insert reaction: %w", repository.ErrMissingReference)
	}
	for _, r := range s.reactions {
		if r.UserID != reaction.UserID || r.ArticleID != reaction.ArticleID {
			continue
		}
		if r.Kind == reaction.Kind || (isOpinion(r.Kind) && isOpinion(reaction.Kind)) {
			return fmt.Errorf("insert reaction: %w", repository.ErrDuplicate)
		}
	}
	s.reactions[reaction.ID] = *reaction
	return nil
}

func (m *MockReactionRepository) Delete(ctx context.Context, userID, articleID string, kind models.ReactionKind) (bool, error) {
	done, err := m.sc.enter(OpReactionDelete)
	defer done()
	if err != nil {
		return false, err
	}
	for id, r := range m.sc.s.reactions {
		if r.UserID == userID && r.ArticleID == articleID && r.Kind == kind {
			delete(m.sc.s.reactions, id)
			return true, nil
		}
	}
	return false, nil
}

func (m *MockReactionRepository) ListByUserAndKind(ctx context.Context, userID string, kind models.ReactionKind) ([]*models.ReactedArticle, error) {
	done, err := m.sc.enter(OpReactionList)
	defer done()
	if err != nil {
		return nil, err
	}
	var out []*models.ReactedArticle
	for _, r := range m.sc.s.reactions {
		if r.UserID != userID || r.Kind != kind {
			continue
		}
		a, ok := m.sc.s.articles[r.ArticleID]
		if !ok {
			continue
		}
		out = append(out, &models.ReactedArticle{Reaction: r, Article: a})
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].Reaction.CreatedAt, out[j].Reaction.CreatedAt, out[i].Reaction.ID, out[j].Reaction.ID)
	})
	return out, nil
}

func (m *MockReactionRepository) CountByArticle(ctx context.Context, articleID string) (models.ReactionCounts, error) {
	done, err := m.sc.enter(OpReactionCount)
	defer done()
	if err != nil {
		return models.ReactionCounts{}, err
	}
	var counts models.ReactionCounts
	for _, r := range m.sc.s.reactions {
		if r.ArticleID != articleID {
			continue
		}
		switch r.Kind {
		case models.ReactionLike:
			counts.Likes++
		case models.ReactionDislike:
			counts.Dislikes++
		}
	}
	return counts, nil
}

func (m *MockReactionRepository) CountByKind(ctx context.Context) (map[models.ReactionKind]int, error) {
	done, err := m.sc.enter(OpReactionCountKind)
	defer done()
	if err != nil {
		return nil, err
	}
	counts := make(map[models.ReactionKind]int)
	for _, r := range m.sc.s.reactions {
		counts[r.Kind]++
	}
	return counts, nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct{ sc scope }

var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	done, err := m.sc.enter(OpCommentCreate)
	defer done()
	if err != nil {
		return err
	}
	s := m.sc.s
	if _, ok := s.articles[comment.ArticleID]; !ok {
		return fmt.Errorf("insert comment: %w", repository.ErrMissingReference)
	}
	if _, ok := s.users[comment.CommentatorID]; !ok {
		return fmt.Errorf("insert comment: %w", repository.ErrMissingReference)
	}
	if _, exists := s.comments[comment.ID]; exists {
		return fmt.Errorf("insert comment: %w", repository.ErrDuplicate)
	}
	s.comments[comment.ID] = *comment
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	done, err := m.sc.enter(OpCommentGet)
	defer done()
	if err != nil {
		return nil, err
	}
	c, ok := m.sc.s.comments[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MockCommentRepository) UpdateText(ctx context.Context, id, text string, updatedAt time.Time) (bool, error) {
	done, err := m.sc.enter(OpCommentUpdate)
	defer done()
	if err != nil {
		return false, err
	}
	c, ok := m.sc.s.comments[id]
	if !ok {
		return false, nil
	}
	c.Text = text
	c.UpdatedAt = updatedAt
	m.sc.s.comments[id] = c
	return true, nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	done, err := m.sc.enter(OpCommentDelete)
	defer done()
	if err != nil {
		return false, err
	}
	s := m.sc.s
	if _, ok := s.comments[id]; !ok {
		return false, nil
	}
	for _, r := range s.replies {
		if r.CommentID == id {
			return false, fmt.Errorf("delete comment: %w", repository.ErrMissingReference)
		}
	}
	delete(s.comments, id)
	return true, nil
}

func (m *MockCommentRepository) ListByArticle(ctx context.Context, articleID string, limit int) ([]*models.Comment, error) {
	done, err := m.sc.enter(OpCommentList)
	defer done()
	if err != nil {
		return nil, err
	}
	var out []*models.Comment
	for _, c := range m.sc.s.comments {
		if c.ArticleID == articleID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	done, err := m.sc.enter(OpCommentCount)
	defer done()
	if err != nil {
		return 0, err
	}
	return len(m.sc.s.comments), nil
}

// MockReplyRepository is a mock implementation of ReplyRepository
type MockReplyRepository struct{ sc scope }

var _ repository.ReplyRepository = (*MockReplyRepository)(nil)

func (m *MockReplyRepository) Create(ctx context.Context, reply *models.Reply) error {
	done, err := m.sc.enter(OpReplyCreate)
	defer done()
	if err != nil {
		return err
	}
	s := m.sc.s
	if _, ok := s.comments[reply.CommentID]; !ok {
		return fmt.Errorf("insert reply: %w", repository.ErrMissingReference)
	}
	if _, ok := s.users[reply.ReplierID]; !ok {
		return fmt.Errorf("insert reply: %w", repository.ErrMissingReference)
	}
	s.replies[reply.ID] = *reply
	return nil
}

func (m *MockReplyRepository) GetByID(ctx context.Context, id string) (*models.Reply, error) {
	done, err := m.sc.enter(OpReplyGet)
	defer done()
	if err != nil {
		return nil, err
	}
	r, ok := m.sc.s.replies[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MockReplyRepository) UpdateText(ctx context.Context, id, text string, updatedAt time.Time) (bool, error) {
	done, err := m.sc.enter(OpReplyUpdate)
	defer done()
	if err != nil {
		return false, err
	}
	r, ok := m.sc.s.replies[id]
	if !ok {
		return false, nil
	}
	r.Text = text
	r.UpdatedAt = updatedAt
	m.sc.s.replies[id] = r
	return true, nil
}

func (m *MockReplyRepository) Delete(ctx context.Context, id string) (bool, error) {
	done, err := m.sc.enter(OpReplyDelete)
	defer done()
	if err != nil {
		return false, err
	}
	if _, ok := m.sc.s.replies[id]; !ok {
		return false, nil
	}
	delete(m.sc.s.replies, id)
	return true, nil
}

func (m *MockReplyRepository) DeleteByComment(ctx context.Context, commentID string) (int, error) {
	done, err := m.sc.enter(OpReplyDeleteMany)
	defer done()
	if err != nil {
		return 0, err
	}
	n := 0
	for id, r := range m.sc.s.replies {
		if r.CommentID == commentID {
			delete(m.sc.s.replies, id)
			n++
		}
	}
	return n, nil
}

func (m *MockReplyRepository) ListByComments(ctx context.Context, commentIDs []string) ([]*models.Reply, error) {
	done, err := m.sc.enter(OpReplyList)
	defer done()
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(commentIDs))
	for _, id := range commentIDs {
		wanted[id] = true
	}
	var out []*models.Reply
	for _, r := range m.sc.s.replies {
		if wanted[r.CommentID] {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return olderFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (m *MockReplyRepository) Count(ctx context.Context) (int, error) {
	done, err := m.sc.enter(OpReplyCount)
	defer done()
	if err != nil {
		return 0, err
	}
	return len(m.sc.s.replies), nil
}

// newerFirst orders by time descending, then id ascending
func newerFirst(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID < bID
}

// olderFirst orders by time ascending, then id ascending
func olderFirst(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return aID < bID
}
