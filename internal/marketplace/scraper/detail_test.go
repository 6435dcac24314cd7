package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFetchDeadline(t *testing.T) {
	configured := 20 * time.Second

	t.Run("no caller deadline uses the configured timeout", func(t *testing.T) {
		d := fetchDeadline(context.Background(), configured)
		assert.WithinDuration(t, time.Now().Add(configured), d, time.Second)
	})

	t.Run("a sooner caller deadline wins", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		d := fetchDeadline(ctx, configured)
		assert.WithinDuration(t, time.Now().Add(time.Second), d, 500*time.Millisecond)
	})

	t.Run("a later caller deadline does not extend the budget", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		d := fetchDeadline(ctx, configured)
		assert.WithinDuration(t, time.Now().Add(configured), d, time.Second)
	})
}

func TestMsUntil(t *testing.T) {
	assert.InDelta(t, 1000, msUntil(time.Now().Add(time.Second)), 100)

	// Expired deadlines clamp to the 1ms floor; 0 would disable the timeout.
	assert.Equal(t, float64(1), msUntil(time.Now().Add(-time.Second)))
	assert.Equal(t, float64(1), msUntil(time.Now()))
}
