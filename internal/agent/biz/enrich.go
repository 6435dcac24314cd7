package biz

import (
	"context"
	"time"

	mtypes "github.com/lk2023060901/mercari-shopper-backend/internal/marketplace/types"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/logger"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/workerpool"
	"go.uber.org/zap"
)

// DetailFetcher fetches one item's detail page. Implemented by the
// marketplace scraper client.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, item mtypes.ItemSummary) (mtypes.ItemDetail, error)
}

// Enricher fans detail fetches out over a bounded worker pool. Its contract
// is infallible from the orchestrator's point of view: the output always has
// the same length and order as the input, with failed fetches downgraded to
// summary-only records in place.
type Enricher struct {
	fetcher DetailFetcher
	pool    *workerpool.Pool
	timeout time.Duration
	logger  *logger.Logger
}

// NewEnricher creates an enrichment stage. timeout bounds each individual
// fetch; the pool caps how many run at once.
func NewEnricher(fetcher DetailFetcher, pool *workerpool.Pool, timeout time.Duration, log *logger.Logger) *Enricher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Enricher{
		fetcher: fetcher,
		pool:    pool,
		timeout: timeout,
		logger:  log.Named("enricher"),
	}
}

// Enrich fetches details for all items concurrently. Tasks are submitted in
// input order and collected from their per-task result channels in the same
// order, so the output lines up with the input regardless of completion order.
// Any failure (fetch error or pool shutdown) degrades that slot to a
// summary-only record; it never propagates and never affects the other items.
func (e *Enricher) Enrich(ctx context.Context, items []mtypes.ItemSummary) []mtypes.ItemDetail {
	details := make([]mtypes.ItemDetail, len(items))
	if len(items) == 0 {
		return details
	}

	results := make([]<-chan workerpool.TaskResult, len(items))
	for i, item := range items {
		item := item
		results[i] = e.pool.SubmitWithResult(func() (interface{}, error) {
			return e.fetchOne(ctx, item)
		})
	}

	for i, ch := range results {
		res := <-ch
		if res.Error != nil {
			e.logger.Warn("detail fetch failed, keeping summary fields",
				zap.String("item_id", items[i].ItemID),
				zap.String("url", items[i].URL),
				zap.Error(res.Error))
			details[i] = mtypes.NewDetailFromSummary(items[i])
			continue
		}
		details[i] = res.Data.(mtypes.ItemDetail)
	}

	stats := e.pool.Stats()
	e.logger.Debug("enrichment batch complete",
		zap.Int("items", len(items)),
		zap.Int("pool_cap", e.pool.Cap()),
		zap.Int("pool_running", e.pool.Running()),
		zap.Int64("pool_failed", stats.Failed))

	return details
}

// fetchOne fetches a single detail record under the per-item deadline.
func (e *Enricher) fetchOne(ctx context.Context, item mtypes.ItemSummary) (interface{}, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	detail, err := e.fetcher.FetchDetail(fetchCtx, item)
	if err != nil {
		return nil, err
	}
	return detail, nil
}
