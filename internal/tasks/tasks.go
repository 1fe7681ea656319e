package tasks

import (
	"context"

	"github.com/desertthunder/pullsense/internal/models"
	"github.com/desertthunder/pullsense/internal/query"
)

// Gateway is the part of [services.Gateway] that backs the cached queries.
type Gateway interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	Stats(ctx context.Context) (*models.Stats, error)
	PullRequests(ctx context.Context) (*models.PullRequestList, error)
	PullRequest(ctx context.Context, id string) (*models.PullRequest, error)
	Analysis(ctx context.Context, id string) (*models.PRAnalysis, error)
	TriggerAnalysis(ctx context.Context, id string) (*models.TriggerResult, error)
}

// Queries reads the backend through a [query.Cache].
type Queries struct {
	gateway Gateway
	cache   *query.Cache
}

// NewQueries creates a new Queries over gateway and cache
func NewQueries(gateway Gateway, cache *query.Cache) *Queries {
	return &Queries{gateway: gateway, cache: cache}
}

// Cache returns the underlying cache.
func (q *Queries) Cache() *query.Cache { return q.cache }

func (q *Queries) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	return query.Get(ctx, q.cache, query.DashboardKey(), q.gateway.Dashboard)
}

func (q *Queries) Stats(ctx context.Context) (*models.Stats, error) {
	return query.Get(ctx, q.cache, query.StatsKey(), q.gateway.Stats)
}

func (q *Queries) PullRequests(ctx context.Context) (*models.PullRequestList, error) {
	return query.Get(ctx, q.cache, query.PullRequestsKey(), q.gateway.PullRequests)
}

func (q *Queries) PullRequest(ctx context.Context, id string) (*models.PullRequest, error) {
	return query.Get(ctx, q.cache, query.PullRequestKey(id), func(ctx context.Context) (*models.PullRequest, error) {
		return q.gateway.PullRequest(ctx, id)
	})
}

func (q *Queries) Analysis(ctx context.Context, id string) (*models.PRAnalysis, error) {
	return query.Get(ctx, q.cache, query.AnalysisKey(id), func(ctx context.Context) (*models.PRAnalysis, error) {
		return q.gateway.Analysis(ctx, id)
	})
}

// TriggerAnalysis starts a review of pull request id and marks the dashboard stale.
func (q *Queries) TriggerAnalysis(ctx context.Context, id string) (*models.TriggerResult, error) {
	result, err := q.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		return q.gateway.TriggerAnalysis(ctx, id)
	}, query.DashboardKey())
	if err != nil {
		return nil, err
	}
	return result.(*models.TriggerResult), nil
}

// Refresh invalidates the dashboard and stats so the next read reloads them.
func (q *Queries) Refresh() {
	q.cache.Invalidate(query.DashboardKey(), query.StatsKey())
}
