package biz

import (
	"context"
	"fmt"
	"testing"

	mtypes "github.com/lk2023060901/mercari-shopper-backend/internal/marketplace/types"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/logger"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/workerpool"
	"github.com/sashabaranov/go-openai"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "console"})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return log
}

func newTestPool(t *testing.T, size int) *workerpool.Pool {
	t.Helper()
	pool, err := workerpool.New(size, newTestLogger(t).Logger)
	if err != nil {
		t.Fatalf("failed to create test pool: %v", err)
	}
	t.Cleanup(pool.Release)
	return pool
}

// fakeChat replays a scripted sequence of assistant messages and records the
// conversation it was handed on each call.
type fakeChat struct {
	responses []openai.ChatCompletionMessage
	err       error
	calls     int
	received  [][]openai.ChatCompletionMessage
}

func (f *fakeChat) Complete(_ context.Context, messages []openai.ChatCompletionMessage, _ []openai.Tool) (openai.ChatCompletionMessage, error) {
	f.received = append(f.received, messages)
	if f.err != nil {
		return openai.ChatCompletionMessage{}, f.err
	}
	if f.calls >= len(f.responses) {
		return openai.ChatCompletionMessage{}, fmt.Errorf("fakeChat: no scripted response for call %d", f.calls)
	}
	msg := f.responses[f.calls]
	f.calls++
	return msg, nil
}

func textMessage(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: content,
	}
}

func toolCallMessage(name, args string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{
			{
				ID:   "call_1",
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      name,
					Arguments: args,
				},
			},
		},
	}
}

// fakeSearcher returns a fixed summary list or an error.
type fakeSearcher struct {
	items []mtypes.ItemSummary
	err   error
	calls int
}

func (f *fakeSearcher) Search(_ context.Context, _ mtypes.SearchFilter, _ int) ([]mtypes.ItemSummary, error) {
	f.calls++
	return f.items, f.err
}

// fakeFetcher enriches successfully except for item ids in failIDs.
type fakeFetcher struct {
	failIDs map[string]bool
}

func (f *fakeFetcher) FetchDetail(_ context.Context, item mtypes.ItemSummary) (mtypes.ItemDetail, error) {
	if f.failIDs[item.ItemID] {
		return mtypes.NewDetailFromSummary(item), fmt.Errorf("simulated fetch failure for %s", item.ItemID)
	}
	detail := mtypes.NewDetailFromSummary(item)
	detail.Description = "description of " + item.Name
	detail.Condition = "目立った傷や汚れなし"
	detail.SellerName = "seller-" + item.ItemID
	detail.SellerRating = "4.8"
	return detail, nil
}

func summaries(ids ...string) []mtypes.ItemSummary {
	items := make([]mtypes.ItemSummary, 0, len(ids))
	for i, id := range ids {
		items = append(items, mtypes.ItemSummary{
			Name:   fmt.Sprintf("item %d", i+1),
			Price:  fmt.Sprintf("¥%d,000", i+1),
			ItemID: id,
			URL:    "https://jp.mercari.com/item/" + id,
		})
	}
	return items
}
