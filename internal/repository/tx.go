package repository

import (
	"context"
	"database/sql"

	"github.com/article-engagement-api/internal/database"
)

type pgTransactor struct {
	db *database.DB
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(repos *Repositories) error) error {
	ctx, cancel := t.db.WithTimeout(ctx)
	defer cancel()

	return t.db.InTx(ctx, func(tx *sql.Tx) error {
		repos := bind(conn{q: tx})
		repos.Tx = nestedTx{repos: repos}
		return fn(repos)
	})
}

// nestedTx joins the enclosing transaction instead of opening a new one.
type nestedTx struct {
	repos *Repositories
}

func (n nestedTx) WithinTx(_ context.Context, fn func(repos *Repositories) error) error {
	return fn(n.repos)
}
