package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/article-engagement-api/internal/models"
	"github.com/lib/pq"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db conn
}

// newUserRepo creates a new user repository
func newUserRepo(db conn) UserRepository {
	return &userRepo{db: db}
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.UserRef, error) {
	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `SELECT id, name, role, created_at FROM users WHERE id = $1`

	var user models.UserRef
	err := r.db.q.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get user", err)
	}

	return &user, nil
}

// GetByIDs resolves a set of users in one query. Unknown ids are absent from
// the result.
func (r *userRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*models.UserRef, error) {
	users := make(map[string]*models.UserRef, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	ctx, cancel := r.db.ctx(ctx)
	defer cancel()

	query := `SELECT id, name, role, created_at FROM users WHERE id = ANY($1::uuid[])`
	rows, err := r.db.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, mapError("list users", err)
	}
	defer rows.Close()

	for rows.Next() {
		var user models.UserRef
		if err := rows.Scan(&user.ID, &user.Name, &user.Role, &user.CreatedAt); err != nil {
			return nil, mapError("scan user", err)
		}
		users[user.ID] = &user
	}

	return users, rows.Err()
}
