package biz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnrichOrderAndLength(t *testing.T) {
	items := summaries("m1", "m2", "m3", "m4", "m5", "m6", "m7", "m8")
	enricher := NewEnricher(&fakeFetcher{}, newTestPool(t, 3), time.Second, newTestLogger(t))

	details := enricher.Enrich(context.Background(), items)

	assert.Len(t, details, len(items))
	for i, d := range details {
		assert.Equal(t, items[i].ItemID, d.ItemID, "position %d", i)
		assert.NotEmpty(t, d.Description)
	}
}

func TestEnrichFailureContainment(t *testing.T) {
	items := summaries("m1", "m2", "m3")
	fetcher := &fakeFetcher{failIDs: map[string]bool{"m2": true}}
	enricher := NewEnricher(fetcher, newTestPool(t, 3), time.Second, newTestLogger(t))

	details := enricher.Enrich(context.Background(), items)

	assert.Len(t, details, 3)

	// The failed item keeps its summary fields and nothing else.
	assert.Equal(t, items[1].Name, details[1].Name)
	assert.Equal(t, items[1].Price, details[1].Price)
	assert.Equal(t, items[1].ItemID, details[1].ItemID)
	assert.Equal(t, items[1].URL, details[1].URL)
	assert.Empty(t, details[1].Description)
	assert.Empty(t, details[1].Condition)
	assert.Empty(t, details[1].SellerName)

	// Neighbors are unaffected.
	assert.NotEmpty(t, details[0].Description)
	assert.NotEmpty(t, details[2].Description)
}

func TestEnrichAllFail(t *testing.T) {
	items := summaries("m1", "m2")
	fetcher := &fakeFetcher{failIDs: map[string]bool{"m1": true, "m2": true}}
	enricher := NewEnricher(fetcher, newTestPool(t, 2), time.Second, newTestLogger(t))

	details := enricher.Enrich(context.Background(), items)

	assert.Len(t, details, 2)
	for i, d := range details {
		assert.Equal(t, items[i].ItemID, d.ItemID)
		assert.Empty(t, d.Description)
	}
}

func TestEnrichPoolClosed(t *testing.T) {
	items := summaries("m1", "m2")
	pool := newTestPool(t, 2)
	pool.Release()
	enricher := NewEnricher(&fakeFetcher{}, pool, time.Second, newTestLogger(t))

	details := enricher.Enrich(context.Background(), items)

	assert.Len(t, details, 2)
	for i, d := range details {
		assert.Equal(t, items[i].ItemID, d.ItemID)
		assert.Empty(t, d.Description)
	}
}

func TestEnrichEmptyInput(t *testing.T) {
	enricher := NewEnricher(&fakeFetcher{}, newTestPool(t, 2), time.Second, newTestLogger(t))

	details := enricher.Enrich(context.Background(), nil)

	assert.NotNil(t, details)
	assert.Empty(t, details)
}
