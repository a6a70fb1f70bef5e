package service

import (
	"time"

	"github.com/article-engagement-api/internal/catalog"
	"github.com/article-engagement-api/internal/repository"
	"github.com/article-engagement-api/internal/validation"
	"github.com/rs/zerolog"
)

// Services holds all service interfaces
type Services struct {
	Ledger     ReactionLedger
	Discussion DiscussionTree
	Engagement EngagementService
}

type options struct {
	clock func() time.Time
}

// Option customises NewServices
type Option func(*options)

// WithClock replaces the time source used for created/updated timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cat catalog.Catalog, log zerolog.Logger, opts ...Option) *Services {
	o := &options{clock: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(o)
	}

	validator := validation.NewValidator()
	ledger := newReactionLedger(repos, o, log)
	tree := newDiscussionTree(repos, validator, o, log)

	return &Services{
		Ledger:     ledger,
		Discussion: tree,
		Engagement: newEngagementService(cat, repos.User, ledger, tree, validator, log),
	}
}
