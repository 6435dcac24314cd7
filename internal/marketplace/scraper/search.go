package scraper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/lk2023060901/mercari-shopper-backend/internal/marketplace/types"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/cache"
	pw "github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const (
	resultLinkSelector = `a[data-testid="thumbnail-link"]`
	thumbnailSelector  = `div.merItemThumbnail`
)

// Search runs a keyword search and scrapes the rendered result tiles into
// item summaries. It is best effort within the configured render-wait budget:
// a timeout yields however many tiles rendered (possibly zero), not an error.
func (c *Client) Search(ctx context.Context, filter types.SearchFilter, limit int) ([]types.ItemSummary, error) {
	if limit <= 0 || limit > c.config.SearchLimit {
		limit = c.config.SearchLimit
	}

	searchURL := SearchURL(c.config.BaseURL, filter)
	cacheKey := searchCacheKey(searchURL, limit)

	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		var items []types.ItemSummary
		if err := json.Unmarshal(cached, &items); err == nil {
			c.logger.Debug("search cache hit", zap.String("url", searchURL))
			return items, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		c.logger.Warn("cache get failed", zap.Error(err))
	}

	c.logger.Info("searching marketplace",
		zap.String("keyword", filter.Keyword),
		zap.String("url", searchURL))

	page, err := c.browser.NewPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if _, err := page.Goto(searchURL, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateDomcontentloaded,
		Timeout:   pw.Float(float64(c.config.SearchWait.Milliseconds())),
	}); err != nil {
		return nil, err
	}

	// Result tiles render client-side; give them the wait budget and keep
	// whatever appeared when it runs out.
	if _, err := page.WaitForSelector(resultLinkSelector, pw.PageWaitForSelectorOptions{
		Timeout: pw.Float(float64(c.config.SearchWait.Milliseconds())),
	}); err != nil {
		c.logger.Warn("timed out waiting for result tiles", zap.Error(err))
	}

	links := page.Locator(resultLinkSelector)
	count, err := links.Count()
	if err != nil {
		return nil, err
	}

	items := make([]types.ItemSummary, 0, count)
	for i := 0; i < count && len(items) < limit; i++ {
		if ctx.Err() != nil {
			return items, ctx.Err()
		}

		item, diags := c.parseResultTile(links.Nth(i))
		if len(diags) > 0 {
			c.logger.Debug("partial result tile",
				zap.Int("index", i),
				zap.Any("diagnostics", diags))
		}
		items = append(items, item)
	}

	c.logger.Info("search complete",
		zap.String("keyword", filter.Keyword),
		zap.Int("items", len(items)))

	if data, err := json.Marshal(items); err == nil {
		c.cache.Set(ctx, cacheKey, data)
	}

	return items, nil
}

// parseResultTile extracts one summary from a result tile. Every field is
// optional; failures are reported as diagnostics rather than aborting.
func (c *Client) parseResultTile(link pw.Locator) (types.ItemSummary, []ParseDiagnostic) {
	var diags []ParseDiagnostic
	item := types.ItemSummary{Name: "N/A", Price: "N/A"}

	if href, err := link.GetAttribute("href"); err == nil && href != "" {
		item.URL = c.config.BaseURL + href
	} else {
		diags = append(diags, ParseDiagnostic{Field: "url", Reason: "missing href"})
	}

	thumb := link.Locator(thumbnailSelector)
	if n, err := thumb.Count(); err != nil || n == 0 {
		diags = append(diags, ParseDiagnostic{Field: "thumbnail", Reason: "merItemThumbnail not found"})
		return item, diags
	}

	if label, err := thumb.GetAttribute("aria-label"); err == nil && label != "" {
		item.Name, item.Price = splitAriaLabel(label)
		if item.Price == "N/A" {
			diags = append(diags, ParseDiagnostic{Field: "price", Reason: "aria-label has no price segment"})
		}
	} else {
		diags = append(diags, ParseDiagnostic{Field: "name", Reason: "missing aria-label"})
	}

	if id, err := thumb.GetAttribute("id"); err == nil && id != "" {
		item.ItemID = id
	} else {
		diags = append(diags, ParseDiagnostic{Field: "item_id", Reason: "missing id attribute"})
	}

	if itemType, err := thumb.GetAttribute("itemtype"); err == nil && itemType != "" {
		item.ItemType = itemType
	}

	img := thumb.Locator("figure img")
	if n, err := img.Count(); err == nil && n > 0 {
		if src, err := img.First().GetAttribute("src"); err == nil && src != "" {
			item.Image = src
		}
	}
	if item.Image == "" {
		diags = append(diags, ParseDiagnostic{Field: "image", Reason: "missing figure img src"})
	}

	return item, diags
}

func searchCacheKey(searchURL string, limit int) string {
	sum := sha256.Sum256([]byte(searchURL))
	return "mercari:search:" + hex.EncodeToString(sum[:16]) + ":" + strconv.Itoa(limit)
}
