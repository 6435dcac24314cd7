package biz

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/lk2023060901/mercari-shopper-backend/internal/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAgent(t *testing.T, chat ChatCompleter, selectorChat ChatCompleter, searcher Searcher, fetcher DetailFetcher) *Agent {
	t.Helper()
	log := newTestLogger(t)
	pool := newTestPool(t, 3)

	selector := NewSelector(selectorChat, log)
	enricher := NewEnricher(fetcher, pool, time.Second, log)
	return NewAgent(chat, searcher, selector, enricher, Config{
		MaxRounds:    6,
		TopK:         3,
		SearchLimit:  20,
		RoundTimeout: 5 * time.Second,
	}, log)
}

// A full happy path: one search round over 8 candidates, the selector picks
// 3 valid ids, enrichment succeeds, and the final answer carries 3 products
// in the selector's order.
func TestRespondSearchRound(t *testing.T) {
	chat := &fakeChat{responses: []openai.ChatCompletionMessage{
		toolCallMessage(SearchToolName, `{"keyword": "iPhone 中古", "priceMax": 15000, "itemConditionId": ["3", "4"]}`),
		textMessage("Here are three used iPhones under 15,000 yen."),
	}}
	selectorChat := &fakeChat{responses: []openai.ChatCompletionMessage{
		textMessage(`["m5", "m2", "m7"]`),
	}}
	searcher := &fakeSearcher{items: summaries("m1", "m2", "m3", "m4", "m5", "m6", "m7", "m8")}

	agent := newTestAgent(t, chat, selectorChat, searcher, &fakeFetcher{})
	result, err := agent.Respond(context.Background(), "I want a used iPhone under 15000 yen")

	assert.NoError(t, err)
	assert.Equal(t, "Here are three used iPhones under 15,000 yen.", result.Message)
	assert.Len(t, result.Products, 3)
	assert.Equal(t, "m5", result.Products[0].ItemID)
	assert.Equal(t, "m2", result.Products[1].ItemID)
	assert.Equal(t, "m7", result.Products[2].ItemID)
	assert.NotEmpty(t, result.Products[0].Description)
	assert.Equal(t, 1, searcher.calls)
}

// Zero search results: the selector is never invoked, the model is handed an
// empty tool output and answers with a "nothing found" message.
func TestRespondEmptySearch(t *testing.T) {
	chat := &fakeChat{responses: []openai.ChatCompletionMessage{
		toolCallMessage(SearchToolName, `{"keyword": "存在しない商品"}`),
		textMessage("Sorry, I could not find anything matching your request."),
	}}
	selectorChat := &fakeChat{}
	searcher := &fakeSearcher{items: nil}

	agent := newTestAgent(t, chat, selectorChat, searcher, &fakeFetcher{})
	result, err := agent.Respond(context.Background(), "find me something impossible")

	assert.NoError(t, err)
	assert.NotEmpty(t, result.Message)
	assert.NotNil(t, result.Products)
	assert.Empty(t, result.Products)
	assert.Zero(t, selectorChat.calls, "selector must not run with nothing to select from")
}

// The model answers directly without calling the tool: exactly one round,
// empty product list.
func TestRespondDirectAnswer(t *testing.T) {
	chat := &fakeChat{responses: []openai.ChatCompletionMessage{
		textMessage("Could you tell me more about what you are looking for?"),
	}}
	searcher := &fakeSearcher{}

	agent := newTestAgent(t, chat, &fakeChat{}, searcher, &fakeFetcher{})
	result, err := agent.Respond(context.Background(), "hello")

	assert.NoError(t, err)
	assert.Equal(t, 1, chat.calls)
	assert.NotNil(t, result.Products)
	assert.Empty(t, result.Products)
	assert.Zero(t, searcher.calls)
}

// An unrecognized tool name is a protocol mismatch: stop immediately with
// the partial result instead of looping.
func TestRespondUnknownTool(t *testing.T) {
	chat := &fakeChat{responses: []openai.ChatCompletionMessage{
		toolCallMessage("delete_account", `{}`),
	}}

	agent := newTestAgent(t, chat, &fakeChat{}, &fakeSearcher{}, &fakeFetcher{})
	result, err := agent.Respond(context.Background(), "buy me a camera")

	assert.NoError(t, err)
	assert.Equal(t, 1, chat.calls, "no further LLM round after an unknown tool")
	assert.NotEmpty(t, result.Message)
	assert.Empty(t, result.Products)
}

// A batch of parallel tool calls: every call must run and get its own
// tool-output reply, or the next round's request carries a dangling
// tool_call_id the API rejects.
func TestRespondParallelToolCalls(t *testing.T) {
	batch := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{
			{
				ID:       "call_a",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: SearchToolName, Arguments: `{"keyword": "カメラ"}`},
			},
			{
				ID:       "call_b",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: SearchToolName, Arguments: `{"keyword": "レンズ"}`},
			},
		},
	}
	chat := &fakeChat{responses: []openai.ChatCompletionMessage{
		batch,
		textMessage("Here are a camera and a lens."),
	}}
	selectorChat := &fakeChat{responses: []openai.ChatCompletionMessage{
		textMessage(`["m1"]`),
		textMessage(`["m2"]`),
	}}
	searcher := &fakeSearcher{items: summaries("m1", "m2")}

	agent := newTestAgent(t, chat, selectorChat, searcher, &fakeFetcher{})
	result, err := agent.Respond(context.Background(), "a camera and a lens")

	assert.NoError(t, err)
	assert.Equal(t, 2, searcher.calls, "both searches must run")
	assert.Equal(t, "Here are a camera and a lens.", result.Message)

	// The second round's conversation must answer every call from the batch.
	require.Len(t, chat.received, 2)
	var answered []string
	for _, m := range chat.received[1] {
		if m.Role == openai.ChatMessageRoleTool {
			answered = append(answered, m.ToolCallID)
		}
	}
	assert.Equal(t, []string{"call_a", "call_b"}, answered)
}

// An unknown tool anywhere in a batch stops the turn before any tool runs, so
// the conversation never holds a half-answered batch.
func TestRespondUnknownToolInBatch(t *testing.T) {
	batch := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{
			{
				ID:       "call_a",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: SearchToolName, Arguments: `{"keyword": "カメラ"}`},
			},
			{
				ID:       "call_b",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: "delete_account", Arguments: `{}`},
			},
		},
	}
	chat := &fakeChat{responses: []openai.ChatCompletionMessage{batch}}
	searcher := &fakeSearcher{items: summaries("m1")}

	agent := newTestAgent(t, chat, &fakeChat{}, searcher, &fakeFetcher{})
	result, err := agent.Respond(context.Background(), "a camera")

	assert.NoError(t, err)
	assert.Zero(t, searcher.calls, "no tool runs when the batch contains an unknown tool")
	assert.NotEmpty(t, result.Message)
	assert.Empty(t, result.Products)
}

// The loop is capped: a model that keeps calling the tool gets cut off with
// a could-not-complete result.
func TestRespondRoundCap(t *testing.T) {
	toolCall := toolCallMessage(SearchToolName, `{"keyword": "カメラ"}`)
	chat := &fakeChat{responses: []openai.ChatCompletionMessage{toolCall, toolCall}}
	searcher := &fakeSearcher{items: nil}

	log := newTestLogger(t)
	selector := NewSelector(&fakeChat{}, log)
	enricher := NewEnricher(&fakeFetcher{}, newTestPool(t, 2), time.Second, log)
	agent := NewAgent(chat, searcher, selector, enricher, Config{
		MaxRounds:    2,
		RoundTimeout: 5 * time.Second,
	}, log)

	result, err := agent.Respond(context.Background(), "a camera")

	assert.NoError(t, err)
	assert.Equal(t, 2, chat.calls)
	assert.NotEmpty(t, result.Message)
	assert.Empty(t, result.Products)
}

// Marketplace failure degrades to an empty result set for the round; the
// conversation goes on and the model can tell the user nothing was found.
func TestRespondSearchFailure(t *testing.T) {
	chat := &fakeChat{responses: []openai.ChatCompletionMessage{
		toolCallMessage(SearchToolName, `{"keyword": "カメラ"}`),
		textMessage("I could not reach the marketplace, please try again later."),
	}}
	searcher := &fakeSearcher{err: assert.AnError}

	agent := newTestAgent(t, chat, &fakeChat{}, searcher, &fakeFetcher{})
	result, err := agent.Respond(context.Background(), "a camera")

	assert.NoError(t, err)
	assert.NotEmpty(t, result.Message)
	assert.Empty(t, result.Products)
}

// Malformed tool arguments are not fatal; salvageable fields are used and
// the search still runs.
func TestRespondMalformedToolArguments(t *testing.T) {
	chat := &fakeChat{responses: []openai.ChatCompletionMessage{
		toolCallMessage(SearchToolName, `{"keyword": "カメラ", "priceMax": `),
		textMessage("done"),
	}}
	searcher := &fakeSearcher{items: nil}

	agent := newTestAgent(t, chat, &fakeChat{}, searcher, &fakeFetcher{})
	_, err := agent.Respond(context.Background(), "a camera")

	assert.NoError(t, err)
	assert.Equal(t, 1, searcher.calls, "search must still run with salvaged arguments")
}

func TestRespondEmptyInput(t *testing.T) {
	agent := newTestAgent(t, &fakeChat{}, &fakeChat{}, &fakeSearcher{}, &fakeFetcher{})

	_, err := agent.Respond(context.Background(), "   ")

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrAgentInvalidInput))
}

// A failed detail fetch must not drop the item from the final result.
func TestRespondEnrichmentDegraded(t *testing.T) {
	chat := &fakeChat{responses: []openai.ChatCompletionMessage{
		toolCallMessage(SearchToolName, `{"keyword": "カメラ"}`),
		textMessage("Here are my picks."),
	}}
	selectorChat := &fakeChat{responses: []openai.ChatCompletionMessage{
		textMessage(`["m1", "m2"]`),
	}}
	searcher := &fakeSearcher{items: summaries("m1", "m2", "m3")}
	fetcher := &fakeFetcher{failIDs: map[string]bool{"m1": true}}

	agent := newTestAgent(t, chat, selectorChat, searcher, fetcher)
	result, err := agent.Respond(context.Background(), "a camera")

	assert.NoError(t, err)
	assert.Len(t, result.Products, 2)
	assert.Equal(t, "m1", result.Products[0].ItemID)
	assert.Empty(t, result.Products[0].Description)
	assert.Equal(t, "m2", result.Products[1].ItemID)
	assert.NotEmpty(t, result.Products[1].Description)
}
