package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lk2023060901/mercari-shopper-backend/internal/marketplace/types"
	apperrors "github.com/lk2023060901/mercari-shopper-backend/internal/pkg/errors"
	pw "github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const (
	descriptionSelector = `pre[data-testid="description"]`
	conditionSelector   = `span[data-testid="商品の状態"]`
	categorySelector    = `div[data-testid="item-detail-category"] a`
	imageSelector       = `div[data-testid="image-carousel"] img`
	sellerLinkSelector  = `a[data-testid="seller-link"]`
	sellerRatingSel     = `div[data-testid="seller-rating"]`
	ratingCountSelector = `div[data-testid="seller-rating"] span`
)

// FetchDetail loads an item's page and parses the extended record. Unlike
// Search this propagates failures: containment is the enrichment stage's job.
// Missing individual fields are not failures; they are reported in the debug
// log and left empty.
func (c *Client) FetchDetail(ctx context.Context, item types.ItemSummary) (types.ItemDetail, error) {
	detail := types.NewDetailFromSummary(item)

	if item.URL == "" {
		return detail, apperrors.New(apperrors.ErrMarketplaceDetail, "item has no URL")
	}

	page, err := c.browser.NewPage()
	if err != nil {
		return detail, apperrors.Wrap(err, apperrors.ErrMarketplaceDetail)
	}
	defer page.Close()

	// Both page waits draw from one shared deadline, so a fetch can never
	// outlive the caller's budget even when each wait is slow.
	deadline := fetchDeadline(ctx, c.config.DetailTimeout)
	if _, err := page.Goto(item.URL, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateDomcontentloaded,
		Timeout:   pw.Float(msUntil(deadline)),
	}); err != nil {
		return detail, apperrors.Wrap(err, apperrors.ErrMarketplaceDetail, item.URL)
	}

	// The description renders last; once it is present the rest of the page
	// is usable. Its absence is a structure mismatch worth failing on.
	if _, err := page.WaitForSelector(descriptionSelector, pw.PageWaitForSelectorOptions{
		Timeout: pw.Float(msUntil(deadline)),
	}); err != nil {
		return detail, apperrors.Wrap(err, apperrors.ErrMarketplaceParse,
			fmt.Sprintf("description not found on %s", item.URL))
	}

	if ctx.Err() != nil {
		return detail, ctx.Err()
	}

	diags := c.parseDetailPage(page, &detail)
	if len(diags) > 0 {
		c.logger.Debug("partial detail page",
			zap.String("item_id", item.ItemID),
			zap.Any("diagnostics", diags))
	}

	return detail, nil
}

// parseDetailPage fills the detail-only fields in one pass, collecting a
// diagnostic per missing field instead of branching on each error.
func (c *Client) parseDetailPage(page pw.Page, detail *types.ItemDetail) []ParseDiagnostic {
	var diags []ParseDiagnostic

	if text, ok := textContent(page, descriptionSelector); ok {
		detail.Description = text
	} else {
		diags = append(diags, ParseDiagnostic{Field: "description", Reason: "selector missing"})
	}

	if text, ok := textContent(page, conditionSelector); ok {
		detail.Condition = text
	} else {
		diags = append(diags, ParseDiagnostic{Field: "condition", Reason: "selector missing"})
	}

	detail.Categories = allTexts(page, categorySelector, 10)
	if len(detail.Categories) == 0 {
		diags = append(diags, ParseDiagnostic{Field: "categories", Reason: "no category links"})
	}

	detail.Images = allAttributes(page, imageSelector, "src", 20)
	if len(detail.Images) == 0 {
		diags = append(diags, ParseDiagnostic{Field: "images", Reason: "no carousel images"})
	}

	if text, ok := textContent(page, sellerLinkSelector); ok {
		detail.SellerName = firstLine(text)
	} else {
		diags = append(diags, ParseDiagnostic{Field: "seller_name", Reason: "selector missing"})
	}

	rating := page.Locator(sellerRatingSel)
	if n, err := rating.Count(); err == nil && n > 0 {
		if label, err := rating.First().GetAttribute("aria-label"); err == nil && label != "" {
			detail.SellerRating = label
		}
	}
	if detail.SellerRating == "" {
		diags = append(diags, ParseDiagnostic{Field: "seller_rating", Reason: "rating label missing"})
	}

	if text, ok := textContent(page, ratingCountSelector); ok {
		detail.SellerRatingCount = text
	}

	return diags
}

func textContent(page pw.Page, selector string) (string, bool) {
	loc := page.Locator(selector)
	if n, err := loc.Count(); err != nil || n == 0 {
		return "", false
	}
	text, err := loc.First().TextContent()
	if err != nil {
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

func allTexts(page pw.Page, selector string, max int) []string {
	loc := page.Locator(selector)
	count, err := loc.Count()
	if err != nil || count == 0 {
		return nil
	}

	var values []string
	for i := 0; i < count && i < max; i++ {
		if text, err := loc.Nth(i).TextContent(); err == nil {
			if text = strings.TrimSpace(text); text != "" {
				values = append(values, text)
			}
		}
	}
	return values
}

func allAttributes(page pw.Page, selector, attr string, max int) []string {
	loc := page.Locator(selector)
	count, err := loc.Count()
	if err != nil || count == 0 {
		return nil
	}

	var values []string
	for i := 0; i < count && i < max; i++ {
		if val, err := loc.Nth(i).GetAttribute(attr); err == nil && val != "" {
			values = append(values, val)
		}
	}
	return values
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

// fetchDeadline bounds one detail fetch: the configured timeout, tightened to
// the caller's context deadline when that is sooner.
func fetchDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return deadline
}

// msUntil converts the remaining budget to Playwright milliseconds, clamped
// to 1ms so an already-expired deadline fails fast instead of waiting forever
// (0 means "no timeout" to Playwright).
func msUntil(deadline time.Time) float64 {
	ms := time.Until(deadline).Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return float64(ms)
}
